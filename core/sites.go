package core

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/hsuden/wellatlas/db"
)

// mapPin is what the index map script consumes, one per visible site.
type mapPin struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Customer string  `json:"customer"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Category string  `json:"category"`
	Status   string  `json:"status"`
	URL      string  `json:"url"`
}

// Index renders the map home page with every visible site pinned, optionally
// narrowed by the q search parameter (site name or job number).
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := a.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	sites, err := a.DB.ListAllSites(user.ID, query)
	if err != nil {
		Errorf("listing sites for map: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	pins := make([]mapPin, 0, len(sites))
	for _, s := range sites {
		if s.Latitude == 0 && s.Longitude == 0 {
			continue
		}
		pins = append(pins, mapPin{
			ID:       s.ID,
			Name:     s.Name,
			Customer: s.CustomerName,
			Lat:      s.Latitude,
			Lng:      s.Longitude,
			Category: s.Category,
			Status:   s.Status,
			URL:      "/sites/" + strconv.Itoa(s.ID),
		})
	}
	pinsJSON, err := json.Marshal(pins)
	if err != nil {
		Errorf("marshaling pins: %v", err)
		pinsJSON = []byte("[]")
	}

	RenderTemplate(w, "index.html", map[string]interface{}{
		"Title": "Map",
		"User":  user,
		"Sites": sites,
		"Query": query,
		"Pins":  string(pinsJSON),
		"Flash": takeFlash(w, r),
	})
}

func (a *App) SiteNewForm(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	customerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	customer, err := a.DB.GetCustomer(customerID, user.ID)
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	RenderTemplate(w, "site_new.html", map[string]interface{}{
		"Title":    "New Site",
		"User":     user,
		"Customer": customer,
	})
}

// siteFromForm pulls the shared site fields out of a create/edit form.
// Blank or malformed coordinates become 0, which the map skips.
func siteFromForm(r *http.Request) *db.Site {
	lat, _ := strconv.ParseFloat(strings.TrimSpace(r.FormValue("latitude")), 64)
	lng, _ := strconv.ParseFloat(strings.TrimSpace(r.FormValue("longitude")), 64)
	return &db.Site{
		Name:      strings.TrimSpace(r.FormValue("name")),
		JobNumber: strings.TrimSpace(r.FormValue("job_number")),
		Latitude:  lat,
		Longitude: lng,
		Address:   strings.TrimSpace(r.FormValue("address")),
		Category:  strings.TrimSpace(r.FormValue("category")),
		Status:    strings.TrimSpace(r.FormValue("status")),
	}
}

func (a *App) SiteCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	customerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	customer, err := a.DB.GetCustomer(customerID, user.ID)
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("site create: bad form: %v", err)
	}
	site := siteFromForm(r)
	site.CustomerID = customerID

	renderErr := func(msg string) {
		RenderTemplate(w, "site_new.html", map[string]interface{}{
			"Title":    "New Site",
			"User":     user,
			"Customer": customer,
			"Site":     site,
			"Error":    msg,
		})
	}
	if site.Name == "" {
		renderErr("Name is required")
		return
	}
	exists, err := a.DB.ExistsSiteName(customerID, site.Name)
	if err != nil {
		Errorf("checking site name: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if exists {
		renderErr("A site with that name already exists for this customer")
		return
	}

	id, err := a.DB.InsertSite(site, user.ID)
	if err != nil {
		Errorf("inserting site: %v", err)
		renderErr("Could not create the site")
		return
	}
	Infof("site created: %s (id %d) under customer %d", site.Name, id, customerID)
	http.Redirect(w, r, "/sites/"+strconv.Itoa(id), http.StatusSeeOther)
}

// entryView bundles an entry with its attachments for the detail timeline.
type entryView struct {
	db.Entry
	Attachments []db.Attachment
}

func (a *App) loadTimeline(entries []db.Entry) ([]entryView, error) {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		atts, err := a.DB.ListAttachments(e.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, entryView{Entry: e, Attachments: atts})
	}
	return views, nil
}

func (a *App) SiteDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	site, err := a.DB.GetSite(id, user.ID)
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	entries, err := a.DB.ListEntries(id, user.ID)
	if err != nil {
		Errorf("listing entries for site %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	timeline, err := a.loadTimeline(entries)
	if err != nil {
		Errorf("loading attachments for site %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	links, err := a.DB.ListShareLinks(id)
	if err != nil {
		Errorf("listing share links for site %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	RenderTemplate(w, "site_detail.html", map[string]interface{}{
		"Title":      site.Name,
		"User":       user,
		"Site":       site,
		"Entries":    timeline,
		"ShareLinks": links,
		"Kinds":      entryKinds,
		"Flash":      takeFlash(w, r),
	})
}

func (a *App) SiteEditForm(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	site, err := a.DB.GetSite(id, user.ID)
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	RenderTemplate(w, "site_edit.html", map[string]interface{}{
		"Title": "Edit " + site.Name,
		"User":  user,
		"Site":  site,
	})
}

func (a *App) SiteUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	existing, err := a.DB.GetSite(id, user.ID)
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("site update: bad form: %v", err)
	}
	site := siteFromForm(r)
	site.ID = id
	site.CustomerID = existing.CustomerID
	if site.Name == "" {
		RenderTemplate(w, "site_edit.html", map[string]interface{}{
			"Title": "Edit " + existing.Name,
			"User":  user,
			"Site":  site,
			"Error": "Name is required",
		})
		return
	}
	if site.Name != existing.Name {
		exists, err := a.DB.ExistsSiteName(site.CustomerID, site.Name)
		if err != nil {
			Errorf("checking site name: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if exists {
			RenderTemplate(w, "site_edit.html", map[string]interface{}{
				"Title": "Edit " + existing.Name,
				"User":  user,
				"Site":  site,
				"Error": "A site with that name already exists for this customer",
			})
			return
		}
	}
	if err := a.DB.UpdateSite(site, user.ID); err != nil {
		if err == db.ErrNotFound {
			renderNotFound(w, "site")
			return
		}
		Errorf("updating site %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setFlash(w, "Site updated")
	http.Redirect(w, r, "/sites/"+strconv.Itoa(id), http.StatusSeeOther)
}

func (a *App) SiteDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	site, err := a.DB.GetSite(id, user.ID)
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	if err := a.DB.SoftDeleteSite(id, user.ID); err != nil {
		Errorf("deleting site %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	Infof("site %d soft-deleted by user %d", id, user.ID)
	setFlash(w, "Site deleted")
	http.Redirect(w, r, "/customers/"+strconv.Itoa(site.CustomerID), http.StatusSeeOther)
}

func (a *App) SiteRestore(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	if err := a.DB.RestoreSite(id, user.ID); err != nil {
		if err == db.ErrNotFound {
			renderNotFound(w, "site")
			return
		}
		Errorf("restoring site %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	Infof("site %d restored by user %d", id, user.ID)
	setFlash(w, "Site restored")
	http.Redirect(w, r, "/deleted", http.StatusSeeOther)
}

// Deleted lists soft-deleted customers and sites with restore actions.
func (a *App) Deleted(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	customers, err := a.DB.ListDeletedCustomers(user.ID)
	if err != nil {
		Errorf("listing deleted customers: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	sites, err := a.DB.ListDeletedSites(user.ID)
	if err != nil {
		Errorf("listing deleted sites: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	RenderTemplate(w, "deleted.html", map[string]interface{}{
		"Title":     "Deleted Items",
		"User":      user,
		"Customers": customers,
		"Sites":     sites,
		"Flash":     takeFlash(w, r),
	})
}
