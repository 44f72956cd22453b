package core

import "net/http"

// Routes builds the full request mux with the default middleware chain
// applied to every handler.
func (a *App) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.HandleFunc(pattern, a.Middleware(fn))
	}

	handle("GET /{$}", a.Index)
	handle("GET /static/", ServeStatic)

	// Accounts
	handle("GET /signup", a.SignupForm)
	handle("POST /signup", a.Signup)
	handle("GET /login", a.LoginForm)
	handle("POST /login", a.Login)
	handle("POST /logout", a.Logout)

	// Customers
	handle("GET /customers", a.Customers)
	handle("GET /customers/new", a.CustomerNewForm)
	handle("POST /customers", a.CustomerCreate)
	handle("GET /customers/{id}", a.CustomerDetail)
	handle("POST /customers/{id}/rename", a.CustomerRename)
	handle("POST /customers/{id}/delete", a.CustomerDelete)
	handle("POST /customers/{id}/restore", a.CustomerRestore)

	// Sites
	handle("GET /customers/{id}/sites/new", a.SiteNewForm)
	handle("POST /customers/{id}/sites", a.SiteCreate)
	handle("GET /sites/{id}", a.SiteDetail)
	handle("GET /sites/{id}/edit", a.SiteEditForm)
	handle("POST /sites/{id}", a.SiteUpdate)
	handle("POST /sites/{id}/delete", a.SiteDelete)
	handle("POST /sites/{id}/restore", a.SiteRestore)
	handle("GET /deleted", a.Deleted)

	// Entries and attachments
	handle("POST /sites/{id}/entries", a.EntryCreate)
	handle("POST /entries/{id}", a.EntryUpdate)
	handle("POST /entries/{id}/delete", a.EntryDelete)
	handle("POST /attachments/{id}/comment", a.AttachmentComment)
	handle("POST /attachments/{id}/delete", a.AttachmentDelete)
	handle("GET /uploads/{id}", a.ServeUpload)

	// Public sharing
	handle("POST /sites/{id}/share", a.ShareCreate)
	handle("POST /share/{token}/revoke", a.ShareRevoke)
	handle("GET /share/{token}", a.SharedSite)
	handle("GET /share/{token}/files/{id}", a.SharedFile)

	// KML import
	handle("GET /import", a.ImportForm)
	handle("POST /import", a.Import)

	// JSON API
	handle("GET /api/customers/{id}/sites", a.APICustomerSites)

	// Admin and diagnostics
	handle("GET /admin/backup_download", a.BackupDownload)
	handle("POST /admin/backup_cloud", a.BackupCloud)
	handle("GET /admin/ensure_schema", a.EnsureSchema)
	handle("GET /health", a.Health)
	handle("GET /_diag", a.Diag)

	return mux
}
