package db

import (
	"database/sql"
	"errors"
)

func scanCustomer(row *sql.Row) (*Customer, error) {
	var c Customer
	var deleted int
	err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &deleted, &c.DeletedAt, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	c.Deleted = deleted != 0
	return &c, nil
}

func (h sqlHelper) insertCustomer(c *Customer) (int, error) {
	stmt := `INSERT INTO customers (owner_user_id, name, deleted, created_at)
         VALUES (?, ?, 0, ?)`
	return h.insertReturningID(stmt, c.OwnerID, c.Name, h.now())
}

func (h sqlHelper) getCustomer(id, ownerID int) (*Customer, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, owner_user_id, name, deleted, deleted_at, created_at
         FROM customers WHERE id = ? AND owner_user_id = ? AND deleted = 0`)
	return scanCustomer(h.db.QueryRow(stmt, id, ownerID))
}

func (h sqlHelper) getCustomerByName(ownerID int, name string) (*Customer, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, owner_user_id, name, deleted, deleted_at, created_at
         FROM customers WHERE owner_user_id = ? AND name = ? AND deleted = 0`)
	return scanCustomer(h.db.QueryRow(stmt, ownerID, name))
}

func (h sqlHelper) listCustomers(ownerID int, deleted bool) ([]Customer, error) {
	flag := 0
	if deleted {
		flag = 1
	}
	stmt := formatPlaceholders(h.style,
		`SELECT id, owner_user_id, name, deleted, deleted_at, created_at
         FROM customers WHERE owner_user_id = ? AND deleted = ? ORDER BY name ASC`)
	rows, err := h.db.Query(stmt, ownerID, flag)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		var c Customer
		var del int
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Name, &del, &c.DeletedAt, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Deleted = del != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (h sqlHelper) updateCustomerName(id, ownerID int, name string) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE customers SET name = ? WHERE id = ? AND owner_user_id = ? AND deleted = 0`)
	return h.mustAffect(stmt, name, id, ownerID)
}

// softDeleteCustomer flags the customer only; its sites and entries disappear
// from listings through query-time joins, not by flagging every descendant.
func (h sqlHelper) softDeleteCustomer(id, ownerID int) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE customers SET deleted = 1, deleted_at = ? WHERE id = ? AND owner_user_id = ? AND deleted = 0`)
	return h.mustAffect(stmt, h.now(), id, ownerID)
}

func (h sqlHelper) restoreCustomer(id, ownerID int) error {
	stmt := formatPlaceholders(h.style,
		`UPDATE customers SET deleted = 0, deleted_at = NULL WHERE id = ? AND owner_user_id = ? AND deleted = 1`)
	return h.mustAffect(stmt, id, ownerID)
}

// mustAffect runs an UPDATE/DELETE and maps "zero rows touched" to ErrNotFound.
func (h sqlHelper) mustAffect(stmt string, args ...interface{}) error {
	res, err := h.db.Exec(stmt, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
