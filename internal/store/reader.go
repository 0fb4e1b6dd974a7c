package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Reader looks pages up in a store written by Writer.
type Reader struct {
	db *sql.DB
}

func NewReader(driver, dsn string) (*Reader, error) {
	db, _, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	return &Reader{db: db}, nil
}

const selectPage = `SELECT site, slug, kind, page_key, instance, metadata, components, jsonld, updated_at FROM pages`

type scanner interface {
	Scan(dest ...any) error
}

func scanPage(row scanner) (Page, error) {
	var (
		p                        Page
		instance                 sql.NullString
		meta, components, jsonld []byte
		updated                  int64
	)
	if err := row.Scan(&p.Site, &p.Slug, &p.Kind, &p.PageKey, &instance, &meta, &components, &jsonld, &updated); err != nil {
		return Page{}, err
	}
	p.Instance = instance.String
	p.Metadata = meta
	p.Components = components
	p.JSONLD = jsonld
	p.UpdatedAt = time.Unix(0, updated).UTC()
	return p, nil
}

// Lookup returns the page stored for slug, or ErrNotFound.
func (r *Reader) Lookup(ctx context.Context, site, slug string) (Page, error) {
	row := r.db.QueryRowContext(ctx, selectPage+` WHERE site = ? AND slug = ?`, site, slug)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Page{}, ErrNotFound
	}
	if err != nil {
		return Page{}, fmt.Errorf("lookup %s/%s: %w", site, slug, err)
	}
	return p, nil
}

// Stream calls fn for every page of site in slug order. Only one page is
// alive at a time.
func (r *Reader) Stream(ctx context.Context, site string, fn func(Page) error) error {
	rows, err := r.db.QueryContext(ctx, selectPage+` WHERE site = ? ORDER BY slug`, site)
	if err != nil {
		return fmt.Errorf("query pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *Reader) Close() error { return r.db.Close() }
