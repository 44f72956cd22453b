package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgreSQL engine. Placeholders are rewritten to $n by the shared helper.
type PostgreSQL struct {
	Host   string
	Port   string
	User   string
	Pass   string
	DBName string
	Conn   *sql.DB
	help   sqlHelper
}

func (d *PostgreSQL) Connect() error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Pass, d.DBName)
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("error connecting to PostgreSQL: %w", err)
	}
	d.Conn = conn
	d.help = newSQLHelper(conn, "postgres")
	logInfof("connected to PostgreSQL at %s:%s", d.Host, d.Port)
	return nil
}

func (d *PostgreSQL) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *PostgreSQL) Exec(query string, args ...interface{}) (int64, error) {
	return d.help.exec(query, args...)
}

func (d *PostgreSQL) EnsureSchema() error { return d.help.ensureSchema() }

func (d *PostgreSQL) InsertUser(u *User) (int, error)         { return d.help.insertUser(u) }
func (d *PostgreSQL) GetUserByID(id int) (*User, error)       { return d.help.getUserByID(id) }
func (d *PostgreSQL) GetUserByEmail(e string) (*User, error)  { return d.help.getUserByEmail(e) }
func (d *PostgreSQL) ExistsUserByEmail(e string) (bool, error) { return d.help.existsUserByEmail(e) }
func (d *PostgreSQL) CountUsers() (int, error)                { return d.help.countUsers() }
func (d *PostgreSQL) AuthenticateUser(email, password string) (*User, error) {
	return d.help.authenticateUser(email, password)
}

func (d *PostgreSQL) SaveSession(id string, userID int, expiry string) error {
	return d.help.saveSession(id, userID, expiry)
}
func (d *PostgreSQL) GetSessionUser(id string) (*User, error) { return d.help.getSessionUser(id) }
func (d *PostgreSQL) DeleteSession(id string) error           { return d.help.deleteSession(id) }
func (d *PostgreSQL) PurgeExpiredSessions() error             { return d.help.purgeExpiredSessions() }

func (d *PostgreSQL) InsertCustomer(c *Customer) (int, error) { return d.help.insertCustomer(c) }
func (d *PostgreSQL) GetCustomer(id, ownerID int) (*Customer, error) {
	return d.help.getCustomer(id, ownerID)
}
func (d *PostgreSQL) GetCustomerByName(ownerID int, name string) (*Customer, error) {
	return d.help.getCustomerByName(ownerID, name)
}
func (d *PostgreSQL) ListCustomers(ownerID int) ([]Customer, error) {
	return d.help.listCustomers(ownerID, false)
}
func (d *PostgreSQL) ListDeletedCustomers(ownerID int) ([]Customer, error) {
	return d.help.listCustomers(ownerID, true)
}
func (d *PostgreSQL) UpdateCustomerName(id, ownerID int, name string) error {
	return d.help.updateCustomerName(id, ownerID, name)
}
func (d *PostgreSQL) SoftDeleteCustomer(id, ownerID int) error {
	return d.help.softDeleteCustomer(id, ownerID)
}
func (d *PostgreSQL) RestoreCustomer(id, ownerID int) error { return d.help.restoreCustomer(id, ownerID) }

func (d *PostgreSQL) InsertSite(s *Site, ownerID int) (int, error) { return d.help.insertSite(s, ownerID) }
func (d *PostgreSQL) GetSite(id, ownerID int) (*Site, error)       { return d.help.getSite(id, ownerID) }
func (d *PostgreSQL) GetSitePublic(id int) (*Site, error)          { return d.help.getSitePublic(id) }
func (d *PostgreSQL) ListSites(customerID, ownerID int) ([]Site, error) {
	return d.help.listSites(customerID, ownerID)
}
func (d *PostgreSQL) ListAllSites(ownerID int, query string) ([]Site, error) {
	return d.help.listAllSites(ownerID, query)
}
func (d *PostgreSQL) ListDeletedSites(ownerID int) ([]Site, error) {
	return d.help.listDeletedSites(ownerID)
}
func (d *PostgreSQL) ExistsSiteName(customerID int, name string) (bool, error) {
	return d.help.existsSiteName(customerID, name)
}
func (d *PostgreSQL) UpdateSite(s *Site, ownerID int) error { return d.help.updateSite(s, ownerID) }
func (d *PostgreSQL) SoftDeleteSite(id, ownerID int) error  { return d.help.softDeleteSite(id, ownerID) }
func (d *PostgreSQL) RestoreSite(id, ownerID int) error     { return d.help.restoreSite(id, ownerID) }

func (d *PostgreSQL) InsertEntry(e *Entry, ownerID int) (int, error) {
	return d.help.insertEntry(e, ownerID)
}
func (d *PostgreSQL) GetEntry(id, ownerID int) (*Entry, error) { return d.help.getEntry(id, ownerID) }
func (d *PostgreSQL) GetEntryPublic(id int) (*Entry, error)    { return d.help.getEntryPublic(id) }
func (d *PostgreSQL) ListEntries(siteID, ownerID int) ([]Entry, error) {
	return d.help.listEntries(siteID, ownerID)
}
func (d *PostgreSQL) ListEntriesPublic(siteID int, shareDate string) ([]Entry, error) {
	return d.help.listEntriesPublic(siteID, shareDate)
}
func (d *PostgreSQL) UpdateEntry(e *Entry, ownerID int) error { return d.help.updateEntry(e, ownerID) }
func (d *PostgreSQL) SoftDeleteEntry(id, ownerID int) error   { return d.help.softDeleteEntry(id, ownerID) }

func (d *PostgreSQL) InsertAttachment(a *Attachment) (int, error) { return d.help.insertAttachment(a) }
func (d *PostgreSQL) GetAttachment(id int) (*Attachment, error)   { return d.help.getAttachment(id) }
func (d *PostgreSQL) ListAttachments(entryID int) ([]Attachment, error) {
	return d.help.listAttachments(entryID)
}
func (d *PostgreSQL) UpdateAttachmentComment(id, ownerID int, comment string) error {
	return d.help.updateAttachmentComment(id, ownerID, comment)
}
func (d *PostgreSQL) DeleteAttachment(id int) error { return d.help.deleteAttachment(id) }

func (d *PostgreSQL) GetOrCreateShareLink(siteID int, shareDate, token string) (*ShareLink, error) {
	return d.help.getOrCreateShareLink(siteID, shareDate, token)
}
func (d *PostgreSQL) GetShareLink(token string) (*ShareLink, error) { return d.help.getShareLink(token) }
func (d *PostgreSQL) ListShareLinks(siteID int) ([]ShareLink, error) {
	return d.help.listShareLinks(siteID)
}
func (d *PostgreSQL) RevokeShareLink(token string, ownerID int) error {
	return d.help.revokeShareLink(token, ownerID)
}
