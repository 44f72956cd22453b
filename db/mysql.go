package db

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL engine. Connection settings come straight from the configuration.
type MySQL struct {
	Host   string
	Port   string
	User   string
	Pass   string
	DBName string
	Conn   *sql.DB
	help   sqlHelper
}

func (d *MySQL) Connect() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=false", d.User, d.Pass, d.Host, d.Port, d.DBName)
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("error connecting to MySQL: %w", err)
	}
	d.Conn = conn
	d.help = newSQLHelper(conn, "mysql")
	logInfof("connected to MySQL at %s:%s", d.Host, d.Port)
	return nil
}

func (d *MySQL) Close() {
	if d.Conn != nil {
		d.Conn.Close()
	}
}

func (d *MySQL) Exec(query string, args ...interface{}) (int64, error) {
	return d.help.exec(query, args...)
}

func (d *MySQL) EnsureSchema() error { return d.help.ensureSchema() }

func (d *MySQL) InsertUser(u *User) (int, error)         { return d.help.insertUser(u) }
func (d *MySQL) GetUserByID(id int) (*User, error)       { return d.help.getUserByID(id) }
func (d *MySQL) GetUserByEmail(e string) (*User, error)  { return d.help.getUserByEmail(e) }
func (d *MySQL) ExistsUserByEmail(e string) (bool, error) { return d.help.existsUserByEmail(e) }
func (d *MySQL) CountUsers() (int, error)                { return d.help.countUsers() }
func (d *MySQL) AuthenticateUser(email, password string) (*User, error) {
	return d.help.authenticateUser(email, password)
}

func (d *MySQL) SaveSession(id string, userID int, expiry string) error {
	return d.help.saveSession(id, userID, expiry)
}
func (d *MySQL) GetSessionUser(id string) (*User, error) { return d.help.getSessionUser(id) }
func (d *MySQL) DeleteSession(id string) error           { return d.help.deleteSession(id) }
func (d *MySQL) PurgeExpiredSessions() error             { return d.help.purgeExpiredSessions() }

func (d *MySQL) InsertCustomer(c *Customer) (int, error) { return d.help.insertCustomer(c) }
func (d *MySQL) GetCustomer(id, ownerID int) (*Customer, error) {
	return d.help.getCustomer(id, ownerID)
}
func (d *MySQL) GetCustomerByName(ownerID int, name string) (*Customer, error) {
	return d.help.getCustomerByName(ownerID, name)
}
func (d *MySQL) ListCustomers(ownerID int) ([]Customer, error) {
	return d.help.listCustomers(ownerID, false)
}
func (d *MySQL) ListDeletedCustomers(ownerID int) ([]Customer, error) {
	return d.help.listCustomers(ownerID, true)
}
func (d *MySQL) UpdateCustomerName(id, ownerID int, name string) error {
	return d.help.updateCustomerName(id, ownerID, name)
}
func (d *MySQL) SoftDeleteCustomer(id, ownerID int) error {
	return d.help.softDeleteCustomer(id, ownerID)
}
func (d *MySQL) RestoreCustomer(id, ownerID int) error { return d.help.restoreCustomer(id, ownerID) }

func (d *MySQL) InsertSite(s *Site, ownerID int) (int, error) { return d.help.insertSite(s, ownerID) }
func (d *MySQL) GetSite(id, ownerID int) (*Site, error)       { return d.help.getSite(id, ownerID) }
func (d *MySQL) GetSitePublic(id int) (*Site, error)          { return d.help.getSitePublic(id) }
func (d *MySQL) ListSites(customerID, ownerID int) ([]Site, error) {
	return d.help.listSites(customerID, ownerID)
}
func (d *MySQL) ListAllSites(ownerID int, query string) ([]Site, error) {
	return d.help.listAllSites(ownerID, query)
}
func (d *MySQL) ListDeletedSites(ownerID int) ([]Site, error) {
	return d.help.listDeletedSites(ownerID)
}
func (d *MySQL) ExistsSiteName(customerID int, name string) (bool, error) {
	return d.help.existsSiteName(customerID, name)
}
func (d *MySQL) UpdateSite(s *Site, ownerID int) error { return d.help.updateSite(s, ownerID) }
func (d *MySQL) SoftDeleteSite(id, ownerID int) error  { return d.help.softDeleteSite(id, ownerID) }
func (d *MySQL) RestoreSite(id, ownerID int) error     { return d.help.restoreSite(id, ownerID) }

func (d *MySQL) InsertEntry(e *Entry, ownerID int) (int, error) {
	return d.help.insertEntry(e, ownerID)
}
func (d *MySQL) GetEntry(id, ownerID int) (*Entry, error) { return d.help.getEntry(id, ownerID) }
func (d *MySQL) GetEntryPublic(id int) (*Entry, error)    { return d.help.getEntryPublic(id) }
func (d *MySQL) ListEntries(siteID, ownerID int) ([]Entry, error) {
	return d.help.listEntries(siteID, ownerID)
}
func (d *MySQL) ListEntriesPublic(siteID int, shareDate string) ([]Entry, error) {
	return d.help.listEntriesPublic(siteID, shareDate)
}
func (d *MySQL) UpdateEntry(e *Entry, ownerID int) error { return d.help.updateEntry(e, ownerID) }
func (d *MySQL) SoftDeleteEntry(id, ownerID int) error   { return d.help.softDeleteEntry(id, ownerID) }

func (d *MySQL) InsertAttachment(a *Attachment) (int, error) { return d.help.insertAttachment(a) }
func (d *MySQL) GetAttachment(id int) (*Attachment, error)   { return d.help.getAttachment(id) }
func (d *MySQL) ListAttachments(entryID int) ([]Attachment, error) {
	return d.help.listAttachments(entryID)
}
func (d *MySQL) UpdateAttachmentComment(id, ownerID int, comment string) error {
	return d.help.updateAttachmentComment(id, ownerID, comment)
}
func (d *MySQL) DeleteAttachment(id int) error { return d.help.deleteAttachment(id) }

func (d *MySQL) GetOrCreateShareLink(siteID int, shareDate, token string) (*ShareLink, error) {
	return d.help.getOrCreateShareLink(siteID, shareDate, token)
}
func (d *MySQL) GetShareLink(token string) (*ShareLink, error) { return d.help.getShareLink(token) }
func (d *MySQL) ListShareLinks(siteID int) ([]ShareLink, error) {
	return d.help.listShareLinks(siteID)
}
func (d *MySQL) RevokeShareLink(token string, ownerID int) error {
	return d.help.revokeShareLink(token, ownerID)
}
