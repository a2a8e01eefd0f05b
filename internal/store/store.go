package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stamped into PRAGMA user_version once schema.sql has
// been applied. Bump it together with any incompatible change to schema.sql.
const schemaVersion = 1

// pragmas configure every connection Open hands out.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA foreign_keys = ON",
}

// Store is the SQLite registry behind the engine. It serves models and
// versions, integrity checks, the alias table and the persisted reports.
type Store struct {
	db *sql.DB
}

// Open opens the registry database at path, creating it when missing.
// Use ":memory:" for a throwaway registry.
//
// Opening a database stamped by a newer schema fails rather than writing
// rows an older build cannot describe.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite has a single writer, and ":memory:" databases
	// are private to the connection that created them.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := bootstrap(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// bootstrap checks the stamped schema version, then applies schema.sql and
// stamps the current version. Every statement in schema.sql is IF NOT EXISTS.
func bootstrap(db *sql.DB) error {
	var stamped int
	if err := db.QueryRow("PRAGMA user_version").Scan(&stamped); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if stamped > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", stamped, schemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("stamp schema version: %w", err)
	}
	return nil
}

// Close releases the database. Safe on a zero Store.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the connection for read-only inspection, such as the
// scenario harness's row counts.
func (s *Store) DB() *sql.DB {
	return s.db
}

// pragma reads the current value of a connection setting.
func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
