package core

import (
	"archive/zip"
	"bytes"
	"testing"
)

const sampleKML = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <name>Wells</name>
    <Placemark>
      <name>North Well</name>
      <Point><coordinates>-121.82,39.72,0</coordinates></Point>
    </Placemark>
    <Folder>
      <name>Ranch</name>
      <Placemark>
        <name>South Well</name>
        <Point><coordinates>-121.90,39.60</coordinates></Point>
      </Placemark>
      <Folder>
        <Placemark>
          <name>Nested Well</name>
          <Point><coordinates> -122.01,39.55,12.3 </coordinates></Point>
        </Placemark>
      </Folder>
    </Folder>
    <Placemark>
      <name>No Coordinates</name>
    </Placemark>
  </Document>
</kml>`

func TestParseKML(t *testing.T) {
	pins, warnings, err := parseKML([]byte(sampleKML))
	if err != nil {
		t.Fatalf("parseKML: %v", err)
	}
	if len(pins) != 3 {
		t.Fatalf("expected 3 pins, got %d", len(pins))
	}
	if warnings != 1 {
		t.Errorf("expected 1 warning for the coordinate-less placemark, got %d", warnings)
	}

	byName := map[string]kmlPin{}
	for _, p := range pins {
		byName[p.Name] = p
	}
	north, ok := byName["North Well"]
	if !ok {
		t.Fatal("North Well missing")
	}
	if north.Lat != 39.72 || north.Lng != -121.82 {
		t.Errorf("North Well at %v,%v", north.Lat, north.Lng)
	}
	if _, ok := byName["Nested Well"]; !ok {
		t.Error("placemark inside nested folders should be found")
	}
}

func TestParseKMLUnnamedPlacemark(t *testing.T) {
	kml := `<kml xmlns="http://www.opengis.net/kml/2.2"><Document>
      <Placemark><Point><coordinates>-120.0,38.0</coordinates></Point></Placemark>
    </Document></kml>`
	pins, _, err := parseKML([]byte(kml))
	if err != nil {
		t.Fatalf("parseKML: %v", err)
	}
	if len(pins) != 1 {
		t.Fatalf("expected 1 pin, got %d", len(pins))
	}
	if pins[0].Name == "" {
		t.Error("unnamed placemark should get a generated name")
	}
}

func TestParseKMLRejectsGarbage(t *testing.T) {
	if _, _, err := parseKML([]byte("this is not xml")); err == nil {
		t.Fatal("expected an error for non-XML input")
	}
}

func TestParseCoordinates(t *testing.T) {
	lat, lng, err := parseCoordinates("-121.5,39.1,100")
	if err != nil {
		t.Fatalf("parseCoordinates: %v", err)
	}
	if lat != 39.1 || lng != -121.5 {
		t.Errorf("got %v,%v", lat, lng)
	}
	if _, _, err := parseCoordinates(""); err == nil {
		t.Error("empty coordinates should error")
	}
	if _, _, err := parseCoordinates("only-one-part"); err == nil {
		t.Error("single field should error")
	}
}

func TestExtractKMZ(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, err := zw.Create("doc.kml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte(sampleKML)); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := extractKMZ(buf.Bytes())
	if err != nil {
		t.Fatalf("extractKMZ: %v", err)
	}
	pins, _, err := parseKML(data)
	if err != nil {
		t.Fatalf("parseKML on extracted data: %v", err)
	}
	if len(pins) != 3 {
		t.Errorf("expected 3 pins from kmz, got %d", len(pins))
	}
}

func TestExtractKMZWithoutKML(t *testing.T) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	w, _ := zw.Create("readme.txt")
	w.Write([]byte("nothing here"))
	zw.Close()

	if _, err := extractKMZ(buf.Bytes()); err == nil {
		t.Fatal("archive without .kml should error")
	}
}
