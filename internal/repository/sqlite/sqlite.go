// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database — it lives inside the Go binary as a single
// file. No separate database server to install, configure, or manage.
// For a single-server calendar service that is plenty, and ":memory:" gives
// tests a fresh isolated database per test.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation of
// the SQLite sources — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/debrief-app/debrief/internal/apperror"

	// BLANK IMPORT:
	// The sqlite package's init() registers itself with database/sql as a
	// driver named "sqlite". After this import, sql.Open("sqlite", ...)
	// knows how to talk to SQLite.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and provides the repository methods.
// One struct implements all three repository interfaces — the tables live
// in the same file and share the connection pool.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite connection pool and runs migrations.
//
// dbPath examples:
//   - "data/debrief.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// SQLite handles one writer at a time; a single pooled connection avoids
	// SQLITE_BUSY under concurrent writes. It also keeps ":memory:"
	// databases alive — each new pool connection would otherwise get its own
	// empty in-memory database.
	conn.SetMaxOpenConns(1)

	// Ping forces an immediate connection — a bad path or permission issue
	// surfaces here instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// important for a web server where requests hit the DB in parallel.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite; we rely on
	// users → calendars → events referential integrity.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates/updates the schema. CREATE ... IF NOT EXISTS keeps it
// idempotent; column additions go through addColumnIfNotExists.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			github_id     INTEGER UNIQUE,
			login         TEXT NOT NULL,
			email         TEXT NOT NULL DEFAULT '',
			name          TEXT NOT NULL DEFAULT '',
			first_name    TEXT NOT NULL DEFAULT '',
			avatar_url    TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// The two UNIQUE constraints on calendars are the store-level arbiter
	// for provisioning races: slug uniqueness across all calendars, and a
	// partial unique index guaranteeing at most one default per owner.
	// Two processes that both try to create a user's default calendar
	// cannot both win — the loser gets a constraint violation and re-reads.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS calendars (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL REFERENCES users(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			is_default  INTEGER NOT NULL DEFAULT 0,
			is_public   INTEGER NOT NULL DEFAULT 0,
			public_id   TEXT NOT NULL UNIQUE,
			slug        TEXT UNIQUE,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_calendars_owner_id ON calendars(owner_id);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_calendars_one_default
			ON calendars(owner_id) WHERE is_default = 1;
	`)
	if err != nil {
		return fmt.Errorf("creating calendars table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id          TEXT PRIMARY KEY,
			calendar_id TEXT NOT NULL REFERENCES calendars(id),
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			start_time  DATETIME NOT NULL,
			end_time    DATETIME,
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_calendar_start
			ON events(calendar_id, start_time);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	// color arrived after the first schema revision; existing databases get
	// it through an idempotent ALTER TABLE.
	if err := db.addColumnIfNotExists("events", "color", "TEXT NOT NULL DEFAULT ''"); err != nil {
		return fmt.Errorf("adding color to events: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already
// exist, making ALTER TABLE migrations safe to run repeatedly.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil // column already exists
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// ERROR TRANSLATION:
// database/sql exposes driver errors as opaque error values; the modernc
// driver encodes the SQLite condition in the message. We classify the two
// conditions the application branches on — uniqueness violations (the
// provisioning retry path) and missing columns/tables (the degrade-open
// path) — by substring, the same way the original service matched its
// store's 406 / PGRST116 codes.

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isSchemaDrift(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "no such column") || strings.Contains(msg, "no such table")
}

// translateConstraint maps a driver error to the repository error channel:
// conflicts and drift become typed apperrors, anything else is returned
// as-is for the caller to wrap.
func translateConstraint(err error, resource, field string) error {
	switch {
	case isUniqueViolation(err):
		return apperror.Conflict(resource, field)
	case isSchemaDrift(err):
		return apperror.SchemaDrift(fmt.Sprintf("%s schema out of date", resource), err)
	default:
		return err
	}
}
