package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const siteCols = `s.id, s.customer_id, s.name, s.job_number, s.latitude, s.longitude,
    s.address, s.category, s.status, s.deleted, s.deleted_at, s.created_at, c.name`

func scanSite(scanner interface{ Scan(...interface{}) error }) (*Site, error) {
	var s Site
	var deleted int
	var address sql.NullString
	err := scanner.Scan(&s.ID, &s.CustomerID, &s.Name, &s.JobNumber, &s.Latitude,
		&s.Longitude, &address, &s.Category, &s.Status, &deleted, &s.DeletedAt,
		&s.CreatedAt, &s.CustomerName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Address = address.String
	s.Deleted = deleted != 0
	return &s, nil
}

// insertSite refuses to create a site under a soft-deleted or foreign
// customer: the ownership check happens in the same statement.
func (h sqlHelper) insertSite(s *Site, ownerID int) (int, error) {
	c, err := h.getCustomer(s.CustomerID, ownerID)
	if err != nil {
		return 0, err
	}
	stmt := `INSERT INTO sites (customer_id, name, job_number, latitude, longitude,
             address, category, status, deleted, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`
	return h.insertReturningID(stmt, c.ID, s.Name, s.JobNumber, s.Latitude,
		s.Longitude, s.Address, s.Category, s.Status, h.now())
}

func (h sqlHelper) getSite(id, ownerID int) (*Site, error) {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`SELECT %s FROM sites s
         JOIN customers c ON c.id = s.customer_id
         WHERE s.id = ? AND s.deleted = 0 AND c.deleted = 0 AND c.owner_user_id = ?`, siteCols))
	return scanSite(h.db.QueryRow(stmt, id, ownerID))
}

// getSitePublic resolves a site for share-link rendering: no owner scoping,
// but soft-deleted sites and customers stay hidden.
func (h sqlHelper) getSitePublic(id int) (*Site, error) {
	stmt := formatPlaceholders(h.style, fmt.Sprintf(
		`SELECT %s FROM sites s
         JOIN customers c ON c.id = s.customer_id
         WHERE s.id = ? AND s.deleted = 0 AND c.deleted = 0`, siteCols))
	return scanSite(h.db.QueryRow(stmt, id))
}

func (h sqlHelper) querySites(stmt string, args ...interface{}) ([]Site, error) {
	rows, err := h.db.Query(formatPlaceholders(h.style, stmt), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Site
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (h sqlHelper) listSites(customerID, ownerID int) ([]Site, error) {
	return h.querySites(fmt.Sprintf(
		`SELECT %s FROM sites s
         JOIN customers c ON c.id = s.customer_id
         WHERE s.customer_id = ? AND s.deleted = 0 AND c.deleted = 0 AND c.owner_user_id = ?
         ORDER BY s.name ASC`, siteCols), customerID, ownerID)
}

func (h sqlHelper) listAllSites(ownerID int, query string) ([]Site, error) {
	stmt := fmt.Sprintf(
		`SELECT %s FROM sites s
         JOIN customers c ON c.id = s.customer_id
         WHERE s.deleted = 0 AND c.deleted = 0 AND c.owner_user_id = ?`, siteCols)
	args := []interface{}{ownerID}
	if query != "" {
		stmt += ` AND (LOWER(s.name) LIKE ? OR LOWER(s.job_number) LIKE ?)`
		like := "%" + strings.ToLower(query) + "%"
		args = append(args, like, like)
	}
	stmt += ` ORDER BY s.name ASC`
	return h.querySites(stmt, args...)
}

func (h sqlHelper) listDeletedSites(ownerID int) ([]Site, error) {
	// A site is listed as deleted only when flagged itself; sites hidden by a
	// deleted ancestor customer reappear when the customer is restored.
	return h.querySites(fmt.Sprintf(
		`SELECT %s FROM sites s
         JOIN customers c ON c.id = s.customer_id
         WHERE s.deleted = 1 AND c.deleted = 0 AND c.owner_user_id = ?
         ORDER BY s.name ASC`, siteCols), ownerID)
}

func (h sqlHelper) existsSiteName(customerID int, name string) (bool, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT COUNT(*) FROM sites WHERE customer_id = ? AND name = ? AND deleted = 0`)
	var n int
	if err := h.db.QueryRow(stmt, customerID, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (h sqlHelper) updateSite(s *Site, ownerID int) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE sites SET name = ?, job_number = ?, latitude = ?, longitude = ?,
             address = ?, category = ?, status = ?
         WHERE id = ? AND deleted = 0 AND customer_id IN
             (SELECT id FROM customers WHERE owner_user_id = ? AND deleted = 0)`)
	return h.mustAffect(stmt, s.Name, s.JobNumber, s.Latitude, s.Longitude,
		s.Address, s.Category, s.Status, s.ID, ownerID)
}

func (h sqlHelper) softDeleteSite(id, ownerID int) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE sites SET deleted = 1, deleted_at = ?
         WHERE id = ? AND deleted = 0 AND customer_id IN
             (SELECT id FROM customers WHERE owner_user_id = ? AND deleted = 0)`)
	return h.mustAffect(stmt, h.now(), id, ownerID)
}

func (h sqlHelper) restoreSite(id, ownerID int) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE sites SET deleted = 0, deleted_at = NULL
         WHERE id = ? AND deleted = 1 AND customer_id IN
             (SELECT id FROM customers WHERE owner_user_id = ? AND deleted = 0)`)
	return h.mustAffect(stmt, id, ownerID)
}
