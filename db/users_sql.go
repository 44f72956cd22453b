package db

import (
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var isAdmin int
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &isAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	return &u, nil
}

func (h sqlHelper) insertUser(u *User) (int, error) {
	isAdmin := 0
	if u.IsAdmin {
		isAdmin = 1
	}
	stmt := `INSERT INTO users (name, email, password, is_admin, created_at)
         VALUES (?, ?, ?, ?, ?)`
	return h.insertReturningID(stmt, u.Name, u.Email, u.Password, isAdmin, h.now())
}

func (h sqlHelper) getUserByID(id int) (*User, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, name, email, password, is_admin, created_at FROM users WHERE id = ?`)
	return scanUser(h.db.QueryRow(stmt, id))
}

func (h sqlHelper) getUserByEmail(email string) (*User, error) {
	stmt := formatPlaceholders(h.style,
		`SELECT id, name, email, password, is_admin, created_at FROM users WHERE email = ?`)
	return scanUser(h.db.QueryRow(stmt, email))
}

func (h sqlHelper) existsUserByEmail(email string) (bool, error) {
	stmt := formatPlaceholders(h.style, `SELECT COUNT(*) FROM users WHERE email = ?`)
	var n int
	if err := h.db.QueryRow(stmt, email).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (h sqlHelper) countUsers() (int, error) {
	var n int
	err := h.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

// authenticateUser verifies credentials and returns the matching user.
// Bad email and bad password are indistinguishable to the caller.
func (h sqlHelper) authenticateUser(email, password string) (*User, error) {
	u, err := h.getUserByEmail(email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword(u.Password, []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials")
	}
	return u, nil
}

func (h sqlHelper) saveSession(sessionID string, userID int, expiry string) error {
	stmt := formatPlaceholders(h.style,
		`INSERT INTO sessions (id, user_id, expires_at) VALUES (?, ?, ?)`)
	_, err := h.db.Exec(stmt, sessionID, userID, expiry)
	return err
}

func (h sqlHelper) getSessionUser(sessionID string) (*User, error) {
	// expires_at is stored as "2006-01-02 15:04:05" so a lexical comparison
	// against the current time works on every engine.
	stmt := formatPlaceholders(h.style,
		`SELECT u.id, u.name, u.email, u.password, u.is_admin, u.created_at
         FROM sessions s JOIN users u ON u.id = s.user_id
         WHERE s.id = ? AND s.expires_at > ?`)
	return scanUser(h.db.QueryRow(stmt, sessionID, h.now()))
}

func (h sqlHelper) deleteSession(sessionID string) error {
	stmt := formatPlaceholders(h.style, `DELETE FROM sessions WHERE id = ?`)
	_, err := h.db.Exec(stmt, sessionID)
	return err
}

func (h sqlHelper) purgeExpiredSessions() error {
	stmt := formatPlaceholders(h.style, `DELETE FROM sessions WHERE expires_at <= ?`)
	_, err := h.db.Exec(stmt, h.now())
	return err
}
