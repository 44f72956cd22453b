package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the default engine: a single file under the data directory.
type SQLite struct {
	Path string
	Conn *sql.DB
	help sqlHelper
}

func (d *SQLite) Connect() error {
	if d.Path == "" {
		d.Path = "./wellatlas.db"
	}
	if dir := filepath.Dir(d.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("cannot create database directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite3", d.Path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return fmt.Errorf("error connecting to SQLite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)
	d.Conn = conn
	d.help = newSQLHelper(conn, "sqlite")
	logInfof("connected to SQLite at %s", d.Path)
	return nil
}

func (d *SQLite) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *SQLite) Exec(query string, args ...interface{}) (int64, error) {
	return d.help.exec(query, args...)
}

func (d *SQLite) EnsureSchema() error { return d.help.ensureSchema() }

func (d *SQLite) InsertUser(u *User) (int, error)         { return d.help.insertUser(u) }
func (d *SQLite) GetUserByID(id int) (*User, error)       { return d.help.getUserByID(id) }
func (d *SQLite) GetUserByEmail(e string) (*User, error)  { return d.help.getUserByEmail(e) }
func (d *SQLite) ExistsUserByEmail(e string) (bool, error) { return d.help.existsUserByEmail(e) }
func (d *SQLite) CountUsers() (int, error)                { return d.help.countUsers() }
func (d *SQLite) AuthenticateUser(email, password string) (*User, error) {
	return d.help.authenticateUser(email, password)
}

func (d *SQLite) SaveSession(id string, userID int, expiry string) error {
	return d.help.saveSession(id, userID, expiry)
}
func (d *SQLite) GetSessionUser(id string) (*User, error) { return d.help.getSessionUser(id) }
func (d *SQLite) DeleteSession(id string) error           { return d.help.deleteSession(id) }
func (d *SQLite) PurgeExpiredSessions() error             { return d.help.purgeExpiredSessions() }

func (d *SQLite) InsertCustomer(c *Customer) (int, error) { return d.help.insertCustomer(c) }
func (d *SQLite) GetCustomer(id, ownerID int) (*Customer, error) {
	return d.help.getCustomer(id, ownerID)
}
func (d *SQLite) GetCustomerByName(ownerID int, name string) (*Customer, error) {
	return d.help.getCustomerByName(ownerID, name)
}
func (d *SQLite) ListCustomers(ownerID int) ([]Customer, error) {
	return d.help.listCustomers(ownerID, false)
}
func (d *SQLite) ListDeletedCustomers(ownerID int) ([]Customer, error) {
	return d.help.listCustomers(ownerID, true)
}
func (d *SQLite) UpdateCustomerName(id, ownerID int, name string) error {
	return d.help.updateCustomerName(id, ownerID, name)
}
func (d *SQLite) SoftDeleteCustomer(id, ownerID int) error {
	return d.help.softDeleteCustomer(id, ownerID)
}
func (d *SQLite) RestoreCustomer(id, ownerID int) error { return d.help.restoreCustomer(id, ownerID) }

func (d *SQLite) InsertSite(s *Site, ownerID int) (int, error) { return d.help.insertSite(s, ownerID) }
func (d *SQLite) GetSite(id, ownerID int) (*Site, error)       { return d.help.getSite(id, ownerID) }
func (d *SQLite) GetSitePublic(id int) (*Site, error)          { return d.help.getSitePublic(id) }
func (d *SQLite) ListSites(customerID, ownerID int) ([]Site, error) {
	return d.help.listSites(customerID, ownerID)
}
func (d *SQLite) ListAllSites(ownerID int, query string) ([]Site, error) {
	return d.help.listAllSites(ownerID, query)
}
func (d *SQLite) ListDeletedSites(ownerID int) ([]Site, error) {
	return d.help.listDeletedSites(ownerID)
}
func (d *SQLite) ExistsSiteName(customerID int, name string) (bool, error) {
	return d.help.existsSiteName(customerID, name)
}
func (d *SQLite) UpdateSite(s *Site, ownerID int) error { return d.help.updateSite(s, ownerID) }
func (d *SQLite) SoftDeleteSite(id, ownerID int) error  { return d.help.softDeleteSite(id, ownerID) }
func (d *SQLite) RestoreSite(id, ownerID int) error     { return d.help.restoreSite(id, ownerID) }

func (d *SQLite) InsertEntry(e *Entry, ownerID int) (int, error) {
	return d.help.insertEntry(e, ownerID)
}
func (d *SQLite) GetEntry(id, ownerID int) (*Entry, error) { return d.help.getEntry(id, ownerID) }
func (d *SQLite) GetEntryPublic(id int) (*Entry, error)    { return d.help.getEntryPublic(id) }
func (d *SQLite) ListEntries(siteID, ownerID int) ([]Entry, error) {
	return d.help.listEntries(siteID, ownerID)
}
func (d *SQLite) ListEntriesPublic(siteID int, shareDate string) ([]Entry, error) {
	return d.help.listEntriesPublic(siteID, shareDate)
}
func (d *SQLite) UpdateEntry(e *Entry, ownerID int) error { return d.help.updateEntry(e, ownerID) }
func (d *SQLite) SoftDeleteEntry(id, ownerID int) error   { return d.help.softDeleteEntry(id, ownerID) }

func (d *SQLite) InsertAttachment(a *Attachment) (int, error) { return d.help.insertAttachment(a) }
func (d *SQLite) GetAttachment(id int) (*Attachment, error)   { return d.help.getAttachment(id) }
func (d *SQLite) ListAttachments(entryID int) ([]Attachment, error) {
	return d.help.listAttachments(entryID)
}
func (d *SQLite) UpdateAttachmentComment(id, ownerID int, comment string) error {
	return d.help.updateAttachmentComment(id, ownerID, comment)
}
func (d *SQLite) DeleteAttachment(id int) error { return d.help.deleteAttachment(id) }

func (d *SQLite) GetOrCreateShareLink(siteID int, shareDate, token string) (*ShareLink, error) {
	return d.help.getOrCreateShareLink(siteID, shareDate, token)
}
func (d *SQLite) GetShareLink(token string) (*ShareLink, error) { return d.help.getShareLink(token) }
func (d *SQLite) ListShareLinks(siteID int) ([]ShareLink, error) {
	return d.help.listShareLinks(siteID)
}
func (d *SQLite) RevokeShareLink(token string, ownerID int) error {
	return d.help.revokeShareLink(token, ownerID)
}
