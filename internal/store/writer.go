package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/logging"
)

// Writer inserts pages in batched transactions. It is safe for concurrent use.
type Writer struct {
	db        *sql.DB
	driver    string
	tx        *sql.Tx
	stmt      *sql.Stmt
	batchSize int
	count     int
	written   int
	log       *zap.Logger
	closed    bool
	mu        sync.Mutex
}

// NewWriter opens the store, creates the schema and starts the first batch.
func NewWriter(ctx context.Context, driver, dsn string, log *zap.Logger) (*Writer, error) {
	db, driver, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == SQLite {
		// Bulk load tuning; the store is rebuilt from content on demand.
		for _, pragma := range []string{"PRAGMA synchronous = OFF", "PRAGMA journal_mode = MEMORY"} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
	}
	if err := createSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	w := &Writer{db: db, driver: driver, batchSize: 500, log: logging.OrNop(log)}
	if err := w.beginTx(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) beginTx(ctx context.Context) error {
	var err error
	w.tx, err = w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	// REPLACE INTO is understood by both SQLite and MySQL.
	w.stmt, err = w.tx.PrepareContext(ctx, `
		REPLACE INTO pages (site, slug, kind, page_key, instance, metadata, components, jsonld, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		_ = w.tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}
	return nil
}

func (w *Writer) commitTx() error {
	if w.stmt != nil {
		_ = w.stmt.Close()
		w.stmt = nil
	}
	if err := w.tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Put writes one page. The batch is committed every batchSize pages.
func (w *Writer) Put(ctx context.Context, p Page) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.stmt.ExecContext(ctx,
		p.Site,
		p.Slug,
		p.Kind,
		p.PageKey,
		nullable(p.Instance),
		rawOrNull(p.Metadata),
		rawOrNull(p.Components),
		rawOrNull(p.JSONLD),
		p.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert %s/%s: %w", p.Site, p.Slug, err)
	}
	w.written++

	w.count++
	if w.count >= w.batchSize {
		if err := w.commitTx(); err != nil {
			return err
		}
		if err := w.beginTx(ctx); err != nil {
			return err
		}
		w.count = 0
		w.log.Debug("store: batch committed", zap.Int("written", w.written))
	}
	return nil
}

// DeleteSite removes every page of site inside the current batch.
func (w *Writer) DeleteSite(ctx context.Context, site string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.tx.ExecContext(ctx, `DELETE FROM pages WHERE site = ?`, site); err != nil {
		return fmt.Errorf("delete site %s: %w", site, err)
	}
	return nil
}

// Written reports how many pages were put.
func (w *Writer) Written() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.written
}

// Close commits the open batch and closes the database. Later calls are no-ops.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	if err := w.commitTx(); err != nil {
		_ = w.db.Close()
		return err
	}
	return w.db.Close()
}
