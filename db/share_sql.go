package db

import (
	"database/sql"
	"errors"
)

func scanShareLink(scanner interface{ Scan(...interface{}) error }) (*ShareLink, error) {
	var sl ShareLink
	var revoked int
	err := scanner.Scan(&sl.ID, &sl.SiteID, &sl.ShareDate, &sl.Token, &revoked, &sl.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	sl.Revoked = revoked != 0
	return &sl, nil
}

// getOrCreateShareLink returns the active link for (site, date), creating it
// with the supplied token when absent. shareDate == "" means the whole site.
func (h sqlHelper) getOrCreateShareLink(siteID int, shareDate, token string) (*ShareLink, error) {
	existing, err := h.findActiveShareLink(siteID, shareDate)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var date interface{}
	if shareDate != "" {
		date = shareDate
	}
	stmt := `INSERT INTO share_links (site_id, share_date, token, revoked, created_at)
         VALUES (?, ?, ?, 0, ?)`
	id, err := h.insertReturningID(stmt, siteID, date, token, h.now())
	if err != nil {
		return nil, err
	}
	sl := &ShareLink{ID: id, SiteID: siteID, Token: token}
	if shareDate != "" {
		sl.ShareDate = sql.NullString{String: shareDate, Valid: true}
	}
	return sl, nil
}

func (h sqlHelper) findActiveShareLink(siteID int, shareDate string) (*ShareLink, error) {
	stmt := `SELECT id, site_id, share_date, token, revoked, created_at
         FROM share_links WHERE site_id = ? AND revoked = 0`
	args := []interface{}{siteID}
	if shareDate == "" {
		stmt += ` AND share_date IS NULL`
	} else {
		stmt += ` AND share_date = ?`
		args = append(args, shareDate)
	}
	return scanShareLink(h.db.QueryRow(formatPlaceholders(h.style, stmt), args...))
}

func (h sqlHelper) getShareLink(token string) (*ShareLink, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, site_id, share_date, token, revoked, created_at
         FROM share_links WHERE token = ? AND revoked = 0`)
	return scanShareLink(h.db.QueryRow(stmt, token))
}

func (h sqlHelper) listShareLinks(siteID int) ([]ShareLink, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, site_id, share_date, token, revoked, created_at
         FROM share_links WHERE site_id = ? AND revoked = 0 ORDER BY id ASC`)
	rows, err := h.db.Query(stmt, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShareLink
	for rows.Next() {
		sl, err := scanShareLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sl)
	}
	return out, rows.Err()
}

// revokeShareLink disables a token; only the site owner may do it.
func (h sqlHelper) revokeShareLink(token string, ownerID int) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE share_links SET revoked = 1 WHERE token = ? AND site_id IN
             (SELECT s.id FROM sites s JOIN customers c ON c.id = s.customer_id
              WHERE c.owner_user_id = ?)`)
	return h.mustAffect(stmt, token, ownerID)
}
