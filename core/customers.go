package core

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/hsuden/wellatlas/db"
)

func (a *App) Customers(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	customers, err := a.DB.ListCustomers(user.ID)
	if err != nil {
		Errorf("listing customers: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	RenderTemplate(w, "customers.html", map[string]interface{}{
		"Title":     "Customers",
		"User":      user,
		"Customers": customers,
		"Flash":     takeFlash(w, r),
	})
}

func (a *App) CustomerNewForm(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	RenderTemplate(w, "customer_new.html", map[string]interface{}{
		"Title": "New Customer",
		"User":  user,
	})
}

func (a *App) CustomerCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("customer create: bad form: %v", err)
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		RenderTemplate(w, "customer_new.html", map[string]interface{}{
			"Title": "New Customer",
			"User":  user,
			"Error": "Name is required",
		})
		return
	}
	if _, err := a.DB.GetCustomerByName(user.ID, name); err == nil {
		RenderTemplate(w, "customer_new.html", map[string]interface{}{
			"Title": "New Customer",
			"User":  user,
			"Error": "Customer already exists",
			"Name":  name,
		})
		return
	}
	id, err := a.DB.InsertCustomer(&db.Customer{Name: name, OwnerID: user.ID})
	if err != nil {
		Errorf("inserting customer: %v", err)
		RenderTemplate(w, "customer_new.html", map[string]interface{}{
			"Title": "New Customer",
			"User":  user,
			"Error": "Could not create the customer",
			"Name":  name,
		})
		return
	}
	Infof("customer created: %s (id %d) by user %d", name, id, user.ID)
	http.Redirect(w, r, "/customers/"+strconv.Itoa(id), http.StatusSeeOther)
}

func (a *App) CustomerDetail(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	customer, err := a.DB.GetCustomer(id, user.ID)
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	sites, err := a.DB.ListSites(id, user.ID)
	if err != nil {
		Errorf("listing sites for customer %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	RenderTemplate(w, "customer_detail.html", map[string]interface{}{
		"Title":    customer.Name,
		"User":     user,
		"Customer": customer,
		"Sites":    sites,
		"Flash":    takeFlash(w, r),
	})
}

func (a *App) CustomerRename(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("customer rename: bad form: %v", err)
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		setFlash(w, "Name is required")
		http.Redirect(w, r, "/customers/"+strconv.Itoa(id), http.StatusSeeOther)
		return
	}
	if other, err := a.DB.GetCustomerByName(user.ID, name); err == nil && other.ID != id {
		setFlash(w, "Customer already exists")
		http.Redirect(w, r, "/customers/"+strconv.Itoa(id), http.StatusSeeOther)
		return
	}
	if err := a.DB.UpdateCustomerName(id, user.ID, name); err != nil {
		if err == db.ErrNotFound {
			renderNotFound(w, "customer")
			return
		}
		Errorf("renaming customer %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setFlash(w, "Customer renamed")
	http.Redirect(w, r, "/customers/"+strconv.Itoa(id), http.StatusSeeOther)
}

// CustomerDelete soft-deletes a customer. Its sites and entries keep their
// rows but disappear from every listing until the customer is restored.
func (a *App) CustomerDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	if err := a.DB.SoftDeleteCustomer(id, user.ID); err != nil {
		if err == db.ErrNotFound {
			renderNotFound(w, "customer")
			return
		}
		Errorf("deleting customer %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	Infof("customer %d soft-deleted by user %d", id, user.ID)
	setFlash(w, "Customer deleted")
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}

func (a *App) CustomerRestore(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "customer")
		return
	}
	if err := a.DB.RestoreCustomer(id, user.ID); err != nil {
		if err == db.ErrNotFound {
			renderNotFound(w, "customer")
			return
		}
		Errorf("restoring customer %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	Infof("customer %d restored by user %d", id, user.ID)
	setFlash(w, "Customer restored")
	http.Redirect(w, r, "/deleted", http.StatusSeeOther)
}
