package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// formatPlaceholders rewrites '?' into PostgreSQL-style ($1, $2...) when needed.
func formatPlaceholders(style, query string) string {
	if strings.ToLower(style) != "postgres" {
		return query
	}
	var b strings.Builder
	idx := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(fmt.Sprintf("$%d", idx))
			idx++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

// sqlHelper owns every SQL statement once; the engine structs only provide
// the connection and the placeholder style. Timestamps are always bound as
// parameters in the one canonical format so every engine stores the same
// literal regardless of server timezone.
type sqlHelper struct {
	db    *sql.DB
	style string
}

func newSQLHelper(db *sql.DB, style string) sqlHelper {
	return sqlHelper{db: db, style: strings.ToLower(style)}
}

func (h sqlHelper) exec(query string, args ...interface{}) (int64, error) {
	res, err := h.db.Exec(formatPlaceholders(h.style, query), args...)
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// insertReturningID runs an INSERT and reports the new row id. PostgreSQL has
// no LastInsertId so the statement grows a RETURNING clause there.
func (h sqlHelper) insertReturningID(query string, args ...interface{}) (int, error) {
	if h.style == "postgres" {
		var id int
		stmt := formatPlaceholders(h.style, query) + " RETURNING id"
		if err := h.db.QueryRow(stmt, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := h.db.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (h sqlHelper) now() string {
	return time.Now().UTC().Format("2006-01-02 15:04:05")
}

func (h sqlHelper) autoincPK() string {
	switch h.style {
	case "mysql":
		return "INTEGER PRIMARY KEY AUTO_INCREMENT"
	case "postgres":
		return "SERIAL PRIMARY KEY"
	default: // sqlite
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// ensureSchema creates the full table set if missing. It backs both startup
// initialisation and the /admin/ensure_schema endpoint, so it must stay
// idempotent on every engine.
func (h sqlHelper) ensureSchema() error {
	pk := h.autoincPK()
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
            id %s,
            name VARCHAR(100) NOT NULL,
            email VARCHAR(100) NOT NULL UNIQUE,
            password VARCHAR(200) NOT NULL,
            is_admin INTEGER NOT NULL DEFAULT 0,
            created_at VARCHAR(30) NOT NULL
        )`, pk),
		`CREATE TABLE IF NOT EXISTS sessions (
            id VARCHAR(64) PRIMARY KEY,
            user_id INTEGER NOT NULL,
            expires_at VARCHAR(30) NOT NULL
        )`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS customers (
            id %s,
            owner_user_id INTEGER NOT NULL,
            name VARCHAR(200) NOT NULL,
            deleted INTEGER NOT NULL DEFAULT 0,
            deleted_at VARCHAR(30),
            created_at VARCHAR(30) NOT NULL
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS sites (
            id %s,
            customer_id INTEGER NOT NULL,
            name VARCHAR(200) NOT NULL,
            job_number VARCHAR(50) NOT NULL DEFAULT '',
            latitude DOUBLE PRECISION NOT NULL DEFAULT 0,
            longitude DOUBLE PRECISION NOT NULL DEFAULT 0,
            address TEXT,
            category VARCHAR(100) NOT NULL DEFAULT '',
            status VARCHAR(100) NOT NULL DEFAULT '',
            deleted INTEGER NOT NULL DEFAULT 0,
            deleted_at VARCHAR(30),
            created_at VARCHAR(30) NOT NULL
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS entries (
            id %s,
            site_id INTEGER NOT NULL,
            user_id INTEGER NOT NULL,
            entry_date VARCHAR(10) NOT NULL,
            kind VARCHAR(50) NOT NULL DEFAULT 'general',
            note TEXT,
            deleted INTEGER NOT NULL DEFAULT 0,
            deleted_at VARCHAR(30),
            created_at VARCHAR(30) NOT NULL
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS attachments (
            id %s,
            entry_id INTEGER NOT NULL,
            stored_name VARCHAR(255) NOT NULL,
            orig_name VARCHAR(255) NOT NULL DEFAULT '',
            mime VARCHAR(100) NOT NULL DEFAULT '',
            comment TEXT,
            created_at VARCHAR(30) NOT NULL
        )`, pk),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS share_links (
            id %s,
            site_id INTEGER NOT NULL,
            share_date VARCHAR(10),
            token VARCHAR(64) NOT NULL UNIQUE,
            revoked INTEGER NOT NULL DEFAULT 0,
            created_at VARCHAR(30) NOT NULL
        )`, pk),
		`CREATE INDEX IF NOT EXISTS idx_sites_customer ON sites (customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_site ON entries (site_id)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_entry ON attachments (entry_id)`,
		`CREATE INDEX IF NOT EXISTS idx_share_links_site ON share_links (site_id)`,
	}

	for _, stmt := range stmts {
		if h.style == "mysql" && strings.HasPrefix(stmt, "CREATE INDEX IF NOT EXISTS") {
			// MySQL has no IF NOT EXISTS for indexes; duplicates are harmless
			// to skip since the tables are created together with them.
			if h.mysqlIndexExists(stmt) {
				continue
			}
			stmt = strings.Replace(stmt, "CREATE INDEX IF NOT EXISTS", "CREATE INDEX", 1)
		}
		if _, err := h.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	logInfof("schema ensured (%s)", h.style)
	return nil
}

func (h sqlHelper) mysqlIndexExists(createStmt string) bool {
	fields := strings.Fields(createStmt)
	// CREATE INDEX IF NOT EXISTS <name> ON <table> ...
	if len(fields) < 8 {
		return false
	}
	name, table := fields[5], fields[7]
	var tmp int
	err := h.db.QueryRow(
		`SELECT 1 FROM INFORMATION_SCHEMA.STATISTICS
         WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND INDEX_NAME = ? LIMIT 1`,
		table, name).Scan(&tmp)
	return err == nil
}
