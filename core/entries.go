package core

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hsuden/wellatlas/db"
)

// entryKinds is the fixed vocabulary for the timeline. "general" is the
// default when the form sends something unknown.
var entryKinds = []string{
	"general",
	"well_log",
	"as_built",
	"pump_curve",
	"pump_test",
	"well_test",
	"panel_check",
}

func normalizeKind(kind string) string {
	kind = strings.TrimSpace(strings.ToLower(kind))
	for _, k := range entryKinds {
		if k == kind {
			return k
		}
	}
	return "general"
}

// normalizeEntryDate validates YYYY-MM-DD, falling back to today.
func normalizeEntryDate(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return time.Now().UTC().Format("2006-01-02")
	}
	return s
}

func (a *App) EntryCreate(w http.ResponseWriter, r *http.Request) {
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

	if err := r.ParseMultipartForm(a.maxUploadBytes()); err != nil {
		Debugf("entry create: multipart parse: %v", err)
		setFlash(w, "Upload too large")
		http.Redirect(w, r, "/sites/"+strconv.Itoa(siteID), http.StatusSeeOther)
		return
	}

	entry := &db.Entry{
		SiteID:    siteID,
		UserID:    user.ID,
		EntryDate: normalizeEntryDate(r.FormValue("entry_date")),
		Kind:      normalizeKind(r.FormValue("kind")),
		Note:      strings.TrimSpace(r.FormValue("note")),
	}
	entryID, err := a.DB.InsertEntry(entry, user.ID)
	if err != nil {
		Errorf("inserting entry: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	entry.ID = entryID
	Infof("entry %d added to site %d by user %d", entryID, siteID, user.ID)

	saved, skipped := 0, 0
	if r.MultipartForm != nil {
		for _, fh := range r.MultipartForm.File["files"] {
			if fh.Filename == "" {
				continue
			}
			if err := a.storeUpload(entryID, fh); err != nil {
				Debugf("skipping upload %q: %v", fh.Filename, err)
				skipped++
				continue
			}
			saved++
		}
	}
	switch {
	case skipped > 0:
		setFlash(w, "Entry added, "+strconv.Itoa(skipped)+" file(s) rejected")
	case saved > 0:
		setFlash(w, "Entry added with "+strconv.Itoa(saved)+" file(s)")
	default:
		setFlash(w, "Entry added")
	}
	http.Redirect(w, r, "/sites/"+strconv.Itoa(siteID), http.StatusSeeOther)
}

func (a *App) EntryUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "entry")
		return
	}
	entry, err := a.DB.GetEntry(id, user.ID)
	if err != nil {
		renderNotFound(w, "entry")
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("entry update: bad form: %v", err)
	}
	entry.EntryDate = normalizeEntryDate(r.FormValue("entry_date"))
	entry.Kind = normalizeKind(r.FormValue("kind"))
	entry.Note = strings.TrimSpace(r.FormValue("note"))

	if err := a.DB.UpdateEntry(entry, user.ID); err != nil {
		Errorf("updating entry %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setFlash(w, "Entry updated")
	http.Redirect(w, r, "/sites/"+strconv.Itoa(entry.SiteID), http.StatusSeeOther)
}

// EntryDelete soft-deletes the entry row and removes its attachment files
// from disk. The attachment rows go with the files so nothing dangles.
func (a *App) EntryDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "entry")
		return
	}
	entry, err := a.DB.GetEntry(id, user.ID)
	if err != nil {
		renderNotFound(w, "entry")
		return
	}

	attachments, err := a.DB.ListAttachments(id)
	if err != nil {
		Errorf("listing attachments for entry %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if err := a.DB.SoftDeleteEntry(id, user.ID); err != nil {
		Errorf("deleting entry %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	for _, att := range attachments {
		if err := a.DB.DeleteAttachment(att.ID); err != nil {
			Errorf("deleting attachment row %d: %v", att.ID, err)
		}
		a.removeAttachmentFiles(id, att.StoredName)
	}
	Infof("entry %d deleted by user %d (%d attachments removed)", id, user.ID, len(attachments))
	setFlash(w, "Entry deleted")
	http.Redirect(w, r, "/sites/"+strconv.Itoa(entry.SiteID), http.StatusSeeOther)
}

func (a *App) AttachmentComment(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "attachment")
		return
	}
	if err := r.ParseForm(); err != nil {
		Debugf("attachment comment: bad form: %v", err)
	}
	comment := strings.TrimSpace(r.FormValue("comment"))
	if err := a.DB.UpdateAttachmentComment(id, user.ID, comment); err != nil {
		if err == db.ErrNotFound {
			renderNotFound(w, "attachment")
			return
		}
		Errorf("updating attachment %d comment: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setFlash(w, "Comment saved")
	a.redirectToAttachmentSite(w, r, id)
}

func (a *App) AttachmentDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := a.requireUser(w, r)
	if !ok {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		renderNotFound(w, "attachment")
		return
	}
	att, err := a.DB.GetAttachment(id)
	if err != nil {
		renderNotFound(w, "attachment")
		return
	}
	entry, err := a.DB.GetEntry(att.EntryID, user.ID)
	if err != nil {
		renderNotFound(w, "attachment")
		return
	}
	if err := a.DB.DeleteAttachment(id); err != nil {
		Errorf("deleting attachment %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	a.removeAttachmentFiles(att.EntryID, att.StoredName)
	Infof("attachment %d deleted by user %d", id, user.ID)
	setFlash(w, "File deleted")
	http.Redirect(w, r, "/sites/"+strconv.Itoa(entry.SiteID), http.StatusSeeOther)
}

func (a *App) redirectToAttachmentSite(w http.ResponseWriter, r *http.Request, attachmentID int) {
	att, err := a.DB.GetAttachment(attachmentID)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	entry, err := a.DB.GetEntryPublic(att.EntryID)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/sites/"+strconv.Itoa(entry.SiteID), http.StatusSeeOther)
}
