// Package store persists resolved pages in SQLite or MySQL so the server can
// answer from a prebuilt snapshot.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("page not found in store")

// Page is one resolved route of a site.
type Page struct {
	Site       string
	Slug       string
	Kind       string
	PageKey    string
	Instance   string
	Metadata   json.RawMessage
	Components json.RawMessage
	JSONLD     json.RawMessage
	UpdatedAt  time.Time
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pages (
	site TEXT NOT NULL,
	slug TEXT NOT NULL,
	kind TEXT NOT NULL,
	page_key TEXT NOT NULL,
	instance TEXT,
	metadata JSON,
	components JSON,
	jsonld JSON,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (site, slug)
) WITHOUT ROWID;
`

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS pages (
	site VARCHAR(64) NOT NULL,
	slug VARCHAR(255) NOT NULL,
	kind VARCHAR(32) NOT NULL,
	page_key VARCHAR(128) NOT NULL,
	instance VARCHAR(255),
	metadata JSON,
	components JSON,
	jsonld JSON,
	updated_at BIGINT NOT NULL,
	PRIMARY KEY (site, slug)
) DEFAULT CHARSET=utf8mb4
`

// Open connects to the page store. An empty driver is inferred from dsn.
func Open(driver, dsn string) (*sql.DB, string, error) {
	driver = driverFor(driver, dsn)
	switch driver {
	case SQLite:
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("open sqlite %s: %w", dsn, err)
		}
		return db, driver, nil
	case MySQL:
		normalized, err := normalizeMySQLDSN(dsn)
		if err != nil {
			return nil, "", err
		}
		db, err := sql.Open("mysql", normalized)
		if err != nil {
			return nil, "", fmt.Errorf("open mysql: %w", err)
		}
		db.SetConnMaxLifetime(1 * time.Hour)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		return db, driver, nil
	default:
		return nil, "", fmt.Errorf("unsupported store driver %q", driver)
	}
}

func createSchema(ctx context.Context, db *sql.DB, driver string) error {
	schema := sqliteSchema
	if driver == MySQL {
		schema = mysqlSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func rawOrNull(b json.RawMessage) any {
	if len(b) == 0 {
		return nil
	}
	return []byte(b)
}
