package core

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ShareCreate issues (or reuses) a public link for a site. An optional
// share_date narrows the link to a single day's entries. Tokens are reused
// while an active link for the same scope exists.
func (a *App) ShareCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	siteID, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "site")
		return
	}
	if _, err := a.DB.GetSite(siteID, user.ID); err != nil {
		renderNotFound(w, "site")
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("share create: bad form: %v", err)
	}
	shareDate := strings.TrimSpace(r.FormValue("share_date"))
	if shareDate != "" {
		if _, err := time.Parse("2006-01-02", shareDate); err != nil {
			setFlash(w, "Invalid date")
			http.Redirect(w, r, "/sites/"+strconv.Itoa(siteID), http.StatusSeeOther)
			return
		}
	}

	link, err := a.DB.GetOrCreateShareLink(siteID, shareDate, uuid.NewString())
	if err != nil {
		Errorf("creating share link for site %d: %v", siteID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	Infof("share link %s issued for site %d (date %q)", link.Token, siteID, shareDate)
	setFlash(w, "Share link ready: /share/"+link.Token)
	http.Redirect(w, r, "/sites/"+strconv.Itoa(siteID), http.StatusSeeOther)
}

func (a *App) ShareRevoke(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	token := r.PathValue("token")
	link, err := a.DB.GetShareLink(token)
	if err != nil {
		renderNotFound(w, "share link")
		return
	}
	if err := a.DB.RevokeShareLink(token, user.ID); err != nil {
		renderNotFound(w, "share link")
		return
	}
	Infof("share link %s revoked by user %d", token, user.ID)
	setFlash(w, "Share link revoked")
	http.Redirect(w, r, "/sites/"+strconv.Itoa(link.SiteID), http.StatusSeeOther)
}

// SharedSite serves the read-only public page behind a share token. No
// session is involved; the token alone scopes what is visible.
func (a *App) SharedSite(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	link, err := a.DB.GetShareLink(token)
	if err != nil {
		renderNotFound(w, "share link")
		return
	}
	site, err := a.DB.GetSitePublic(link.SiteID)
	if err != nil {
		renderNotFound(w, "site")
		return
	}

	shareDate := ""
	if link.ShareDate.Valid {
		shareDate = link.ShareDate.String
	}
	entries, err := a.DB.ListEntriesPublic(link.SiteID, shareDate)
	if err != nil {
		Errorf("listing shared entries for site %d: %v", link.SiteID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	timeline, err := a.loadTimeline(entries)
	if err != nil {
		Errorf("loading shared attachments for site %d: %v", link.SiteID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	name := "share_site.html"
	if shareDate != "" {
		name = "share_day.html"
	}
	RenderTemplate(w, name, map[string]interface{}{
		"Title":     site.Name,
		"Site":      site,
		"Entries":   timeline,
		"ShareDate": shareDate,
		"Token":     token,
	})
}

// SharedFile serves an attachment through a share token, but only when the
// attachment's entry falls inside the token's scope.
func (a *App) SharedFile(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	link, err := a.DB.GetShareLink(token)
	if err != nil {
		renderNotFound(w, "share link")
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "file")
		return
	}
	att, err := a.DB.GetAttachment(id)
	if err != nil {
		renderNotFound(w, "file")
		return
	}
	entry, err := a.DB.GetEntryPublic(att.EntryID)
	if err != nil {
		renderNotFound(w, "file")
		return
	}
	if entry.SiteID != link.SiteID {
		renderNotFound(w, "file")
		return
	}
	if link.ShareDate.Valid && entry.EntryDate != link.ShareDate.String {
		renderNotFound(w, "file")
		return
	}
	a.serveAttachmentFile(w, r, att)
}
