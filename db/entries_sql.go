package db

import (
	"database/sql"
	"errors"
	"fmt"
)

const entryCols = `e.id, e.site_id, e.user_id, e.entry_date, e.kind, e.note,
    e.deleted, e.deleted_at, e.created_at`

func scanEntry(scanner interface{ Scan(...interface{}) error }) (*Entry, error) {
	var e Entry
	var deleted int
	var note sql.NullString
	err := scanner.Scan(&e.ID, &e.SiteID, &e.UserID, &e.EntryDate, &e.Kind,
		&note, &deleted, &e.DeletedAt, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.Note = note.String
	e.Deleted = deleted != 0
	return &e, nil
}

// ownedEntryFilter scopes an entry through site -> customer -> owner and
// keeps soft-deleted ancestors invisible.
const ownedEntryFilter = `e.deleted = 0 AND e.site_id IN
    (SELECT s.id FROM sites s JOIN customers c ON c.id = s.customer_id
     WHERE s.deleted = 0 AND c.deleted = 0 AND c.owner_user_id = ?)`

func (h sqlHelper) insertEntry(e *Entry, ownerID int) (int, error) {
	if _, err := h.getSite(e.SiteID, ownerID); err != nil {
		return 0, err
	}
	stmt := `INSERT INTO entries (site_id, user_id, entry_date, kind, note, deleted, created_at)
         VALUES (?, ?, ?, ?, ?, 0, ?)`
	return h.insertReturningID(stmt, e.SiteID, e.UserID, e.EntryDate, e.Kind, e.Note, h.now())
}

func (h sqlHelper) getEntry(id, ownerID int) (*Entry, error) {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`SELECT %s FROM entries e WHERE e.id = ? AND %s`, entryCols, ownedEntryFilter))
	return scanEntry(h.db.QueryRow(stmt, id, ownerID))
}

// getEntryPublic fetches a non-deleted entry with no owner scoping; share
// handlers verify the token against the entry's site before serving anything.
func (h sqlHelper) getEntryPublic(id int) (*Entry, error) {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`SELECT %s FROM entries e WHERE e.id = ? AND e.deleted = 0`, entryCols))
	return scanEntry(h.db.QueryRow(stmt, id))
}

func (h sqlHelper) queryEntries(stmt string, args ...interface{}) ([]Entry, error) {
	rows, err := h.db.Query(formatPlaceholders(h.style, stmt), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (h sqlHelper) listEntries(siteID, ownerID int) ([]Entry, error) {
	return h.queryEntries(fmt.Sprintf(
		`SELECT %s FROM entries e WHERE e.site_id = ? AND %s
         ORDER BY e.entry_date DESC, e.created_at DESC`, entryCols, ownedEntryFilter),
		siteID, ownerID)
}

// listEntriesPublic returns the non-deleted timeline for a shared site,
// optionally restricted to one day.
func (h sqlHelper) listEntriesPublic(siteID int, shareDate string) ([]Entry, error) {
	stmt := fmt.Sprintf(
		`SELECT %s FROM entries e WHERE e.site_id = ? AND e.deleted = 0`, entryCols)
	args := []interface{}{siteID}
	if shareDate != "" {
		stmt += ` AND e.entry_date = ?`
		args = append(args, shareDate)
	}
	stmt += ` ORDER BY e.entry_date DESC, e.created_at DESC`
	return h.queryEntries(stmt, args...)
}

func (h sqlHelper) updateEntry(e *Entry, ownerID int) error {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`UPDATE entries SET entry_date = ?, kind = ?, note = ?
         WHERE id = ? AND %s`, ownedEntryFilterUpdate))
	return h.mustAffect(stmt, e.EntryDate, e.Kind, e.Note, e.ID, ownerID)
}

func (h sqlHelper) softDeleteEntry(id, ownerID int) error {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`UPDATE entries SET deleted = 1, deleted_at = ?
         WHERE id = ? AND %s`, ownedEntryFilterUpdate))
	return h.mustAffect(stmt, h.now(), id, ownerID)
}

// Same filter as ownedEntryFilter but without the e. prefix, for UPDATEs.
const ownedEntryFilterUpdate = `deleted = 0 AND site_id IN
    (SELECT s.id FROM sites s JOIN customers c ON c.id = s.customer_id
     WHERE s.deleted = 0 AND c.deleted = 0 AND c.owner_user_id = ?)`

func scanAttachment(scanner interface{ Scan(...interface{}) error }) (*Attachment, error) {
	var a Attachment
	var comment sql.NullString
	err := scanner.Scan(&a.ID, &a.EntryID, &a.StoredName, &a.OrigName, &a.Mime,
		&comment, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.Comment = comment.String
	return &a, nil
}

func (h sqlHelper) insertAttachment(a *Attachment) (int, error) {
	stmt := `INSERT INTO attachments (entry_id, stored_name, orig_name, mime, comment, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`
	return h.insertReturningID(stmt, a.EntryID, a.StoredName, a.OrigName, a.Mime, a.Comment, h.now())
}

func (h sqlHelper) getAttachment(id int) (*Attachment, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, entry_id, stored_name, orig_name, mime, comment, created_at
         FROM attachments WHERE id = ?`)
	return scanAttachment(h.db.QueryRow(stmt, id))
}

func (h sqlHelper) listAttachments(entryID int) ([]Attachment, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, entry_id, stored_name, orig_name, mime, comment, created_at
         FROM attachments WHERE entry_id = ? ORDER BY id ASC`)
	rows, err := h.db.Query(stmt, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (h sqlHelper) updateAttachmentComment(id, ownerID int, comment string) error {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`UPDATE attachments SET comment = ? WHERE id = ? AND entry_id IN
             (SELECT e.id FROM entries e WHERE %s)`, ownedEntryFilter))
	return h.mustAffect(stmt, comment, id, ownerID)
}

func (h sqlHelper) deleteAttachment(id int) error {
	stmt := formatPlaceholders(h.style, `DELETE FROM attachments WHERE id = ?`)
	return h.mustAffect(stmt, id)
}
