package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an entity does not exist, is soft-deleted, or
// is not reachable through the caller's ownership chain. Handlers treat all
// three the same way.
var ErrNotFound = errors.New("db: not found")

// DB is the persistence contract the rest of the application programs
// against. Every engine (SQLite, MySQL, PostgreSQL) implements it by
// delegating to the shared sqlHelper.
type DB interface {
	Connect() error
	Close()
	Exec(query string, args ...interface{}) (int64, error)

	// EnsureSchema creates any missing tables. Safe to run repeatedly.
	EnsureSchema() error

	// Users
	InsertUser(u *User) (int, error)
	GetUserByID(id int) (*User, error)
	GetUserByEmail(email string) (*User, error)
	ExistsUserByEmail(email string) (bool, error)
	CountUsers() (int, error)
	AuthenticateUser(email, password string) (*User, error)

	// Sessions
	SaveSession(sessionID string, userID int, expiry string) error
	GetSessionUser(sessionID string) (*User, error)
	DeleteSession(sessionID string) error
	PurgeExpiredSessions() error

	// Customers
	InsertCustomer(c *Customer) (int, error)
	GetCustomer(id, ownerID int) (*Customer, error)
	GetCustomerByName(ownerID int, name string) (*Customer, error)
	ListCustomers(ownerID int) ([]Customer, error)
	ListDeletedCustomers(ownerID int) ([]Customer, error)
	UpdateCustomerName(id, ownerID int, name string) error
	SoftDeleteCustomer(id, ownerID int) error
	RestoreCustomer(id, ownerID int) error

	// Sites
	InsertSite(s *Site, ownerID int) (int, error)
	GetSite(id, ownerID int) (*Site, error)
	GetSitePublic(id int) (*Site, error)
	ListSites(customerID, ownerID int) ([]Site, error)
	ListAllSites(ownerID int, query string) ([]Site, error)
	ListDeletedSites(ownerID int) ([]Site, error)
	ExistsSiteName(customerID int, name string) (bool, error)
	UpdateSite(s *Site, ownerID int) error
	SoftDeleteSite(id, ownerID int) error
	RestoreSite(id, ownerID int) error

	// Entries
	InsertEntry(e *Entry, ownerID int) (int, error)
	GetEntry(id, ownerID int) (*Entry, error)
	GetEntryPublic(id int) (*Entry, error)
	ListEntries(siteID, ownerID int) ([]Entry, error)
	ListEntriesPublic(siteID int, shareDate string) ([]Entry, error)
	UpdateEntry(e *Entry, ownerID int) error
	SoftDeleteEntry(id, ownerID int) error

	// Attachments
	InsertAttachment(a *Attachment) (int, error)
	GetAttachment(id int) (*Attachment, error)
	ListAttachments(entryID int) ([]Attachment, error)
	UpdateAttachmentComment(id, ownerID int, comment string) error
	DeleteAttachment(id int) error

	// Share links
	GetOrCreateShareLink(siteID int, shareDate, token string) (*ShareLink, error)
	GetShareLink(token string) (*ShareLink, error)
	ListShareLinks(siteID int) ([]ShareLink, error)
	RevokeShareLink(token string, ownerID int) error
}

type User struct {
	ID        int
	Name      string
	Email     string
	Password  []byte
	IsAdmin   bool
	CreatedAt string
}

type Customer struct {
	ID        int
	OwnerID   int
	Name      string
	Deleted   bool
	DeletedAt sql.NullString
	CreatedAt string
}

type Site struct {
	ID         int
	CustomerID int
	Name       string
	JobNumber  string
	Latitude   float64
	Longitude  float64
	Address    string
	Category   string
	Status     string
	Deleted    bool
	DeletedAt  sql.NullString
	CreatedAt  string

	// CustomerName is populated by list/get joins for display.
	CustomerName string
}

type Entry struct {
	ID        int
	SiteID    int
	UserID    int
	EntryDate string // YYYY-MM-DD
	Kind      string
	Note      string
	Deleted   bool
	DeletedAt sql.NullString
	CreatedAt string
}

type Attachment struct {
	ID         int
	EntryID    int
	StoredName string
	OrigName   string
	Mime       string
	Comment    string
	CreatedAt  string
}

type ShareLink struct {
	ID        int
	SiteID    int
	ShareDate sql.NullString // NULL means the whole site
	Token     string
	Revoked   bool
	CreatedAt string
}

// NewDB builds the engine named by config["DB_ENGINE"] and connects it.
func NewDB(config map[string]string) (DB, error) {
	var dbInstance DB
	engine := config["DB_ENGINE"]

	switch engine {
	case "", "sqlite":
		dbInstance = &SQLite{Path: config["DB_PATH"]}
	case "postgres":
		dbInstance = &PostgreSQL{
			Host:   config["DB_HOST"],
			Port:   config["DB_PORT"],
			User:   config["DB_USR"],
			Pass:   config["DB_PASS"],
			DBName: config["DB_NAME"],
		}
	case "mysql":
		dbInstance = &MySQL{
			Host:   config["DB_HOST"],
			Port:   config["DB_PORT"],
			User:   config["DB_USR"],
			Pass:   config["DB_PASS"],
			DBName: config["DB_NAME"],
		}
	default:
		return nil, fmt.Errorf("unknown DB engine: %s", engine)
	}

	if err := dbInstance.Connect(); err != nil {
		return nil, err
	}
	return dbInstance, nil
}
