package core

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hsuden/wellatlas/db"
)

// kmlDocument models just enough of the KML 2.2 schema to pull placemarks
// out of nested folders.
type kmlDocument struct {
	XMLName    xml.Name       `xml:"kml"`
	Document   kmlFolder      `xml:"Document"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Folders    []kmlFolder    `xml:"Folder"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
}

type kmlPlacemark struct {
	Name  string   `xml:"name"`
	Point kmlPoint `xml:"Point"`
	// Some exports put coordinates under MultiGeometry or LineString;
	// the first coordinate pair wins.
	Coordinates []string `xml:"MultiGeometry>Point>coordinates"`
}

type kmlPoint struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPin struct {
	Name string
	Lat  float64
	Lng  float64
}

func collectPlacemarks(folder kmlFolder, out *[]kmlPlacemark) {
	*out = append(*out, folder.Placemarks...)
	for _, sub := range folder.Folders {
		collectPlacemarks(sub, out)
	}
}

// parseCoordinates reads a KML coordinate string: "lng,lat[,alt]" tuples
// separated by whitespace. Only the first tuple matters for a pin.
func parseCoordinates(raw string) (lat, lng float64, err error) {
	fields := strings.Fields(strings.TrimSpace(raw))
	if len(fields) == 0 {
		return 0, 0, errors.New("empty coordinates")
	}
	parts := strings.Split(fields[0], ",")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("malformed coordinates %q", fields[0])
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, err
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

// parseKML extracts pins from raw KML bytes. Placemarks without usable
// coordinates are counted as warnings, not errors.
func parseKML(data []byte) ([]kmlPin, int, error) {
	var doc kmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, 0, fmt.Errorf("parsing kml: %w", err)
	}

	placemarks := append([]kmlPlacemark{}, doc.Placemarks...)
	collectPlacemarks(doc.Document, &placemarks)

	pins := make([]kmlPin, 0, len(placemarks))
	warnings := 0
	for i, pm := range placemarks {
		coords := pm.Point.Coordinates
		if strings.TrimSpace(coords) == "" && len(pm.Coordinates) > 0 {
			coords = pm.Coordinates[0]
		}
		lat, lng, err := parseCoordinates(coords)
		if err != nil {
			warnings++
			continue
		}
		name := strings.TrimSpace(pm.Name)
		if name == "" {
			name = fmt.Sprintf("Imported %d", i+1)
		}
		pins = append(pins, kmlPin{Name: name, Lat: lat, Lng: lng})
	}
	return pins, warnings, nil
}

// extractKMZ pulls the first .kml member out of a KMZ archive.
func extractKMZ(data []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening kmz: %w", err)
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errors.New("no .kml file inside the archive")
}

func (a *App) ImportForm(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	RenderTemplate(w, "import.html", map[string]interface{}{
		"Title": "Import KML/KMZ",
		"User":  user,
		"Flash": takeFlash(w, r),
	})
}

// Import reads an uploaded .kml or .kmz file and creates one site per
// placemark under the named customer, creating the customer when missing.
// Placemarks whose name already exists under that customer are skipped, so
// re-importing the same file changes nothing.
func (a *App) Import(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(a.maxUploadBytes()); err != nil {
		setFlash(w, "Upload too large")
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	file, header, err := r.FormFile("kml")
	if err != nil {
		setFlash(w, "Please upload a .kml or .kmz file")
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}
	defer file.Close()

	lower := strings.ToLower(header.Filename)
	if !strings.HasSuffix(lower, ".kml") && !strings.HasSuffix(lower, ".kmz") {
		setFlash(w, "Please upload a .kml or .kmz file")
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		Errorf("reading import upload: %v", err)
		setFlash(w, "Import failed: could not read the file")
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}
	if strings.HasSuffix(lower, ".kmz") {
		if data, err = extractKMZ(data); err != nil {
			setFlash(w, "Import failed: "+err.Error())
			http.Redirect(w, r, "/import", http.StatusSeeOther)
			return
		}
	}

	pins, warnings, err := parseKML(data)
	if err != nil {
		setFlash(w, "Import failed: "+err.Error())
		http.Redirect(w, r, "/import", http.StatusSeeOther)
		return
	}

	custName := strings.TrimSpace(r.FormValue("customer"))
	if custName == "" {
		custName = "Imported"
	}
	customer, err := a.DB.GetCustomerByName(user.ID, custName)
	if err == db.ErrNotFound {
		id, insErr := a.DB.InsertCustomer(&db.Customer{Name: custName, OwnerID: user.ID})
		if insErr != nil {
			Errorf("creating import customer: %v", insErr)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		customer, err = a.DB.GetCustomer(id, user.ID)
	}
	if err != nil {
		Errorf("resolving import customer: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	added, skipped := 0, 0
	for _, pin := range pins {
		exists, err := a.DB.ExistsSiteName(customer.ID, pin.Name)
		if err != nil {
			Errorf("checking imported site %q: %v", pin.Name, err)
			continue
		}
		if exists {
			skipped++
			continue
		}
		site := &db.Site{
			CustomerID: customer.ID,
			Name:       pin.Name,
			Latitude:   pin.Lat,
			Longitude:  pin.Lng,
		}
		if _, err := a.DB.InsertSite(site, user.ID); err != nil {
			Errorf("inserting imported site %q: %v", pin.Name, err)
			warnings++
			continue
		}
		added++
	}

	Infof("kml import by user %d: %d added, %d skipped, %d warnings into %q",
		user.ID, added, skipped, warnings, customer.Name)
	msg := fmt.Sprintf("Imported %d pins into '%s'", added, customer.Name)
	if skipped > 0 {
		msg += fmt.Sprintf(", %d already existed", skipped)
	}
	if warnings > 0 {
		msg += fmt.Sprintf(", %d skipped with warnings", warnings)
	}
	setFlash(w, msg)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
