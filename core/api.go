package core

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type siteOption struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// APICustomerSites returns the visible sites of a customer as JSON, used by
// the customer picker on the import and map pages.
func (a *App) APICustomerSites(w http.ResponseWriter, r *http.Request) {
	user, ok := a.CurrentUser(r)
	if !ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
		return
	}
	customerID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	sites, err := a.DB.ListSites(customerID, user.ID)
	if err != nil {
		Errorf("api: listing sites for customer %d: %v", customerID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	out := make([]siteOption, 0, len(sites))
	for _, s := range sites {
		out = append(out, siteOption{ID: s.ID, Name: s.Name})
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		Debugf("api: encoding sites: %v", err)
	}
}
