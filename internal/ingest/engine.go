// Package ingest resolves every published page of a site and writes it to a
// page store.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/seo"
	"github.com/gutachten-org/sitekit/internal/site"
	"github.com/gutachten-org/sitekit/internal/store"
)

// ErrEmptyPage marks a route whose content has no blocks.
var ErrEmptyPage = errors.New("page has no components")

// Target receives resolved pages. *store.Writer implements it.
type Target interface {
	Put(ctx context.Context, p store.Page) error
}

// PageError is a page that could not be resolved or written.
type PageError struct {
	Slug string
	Err  error
}

func (e PageError) Error() string { return fmt.Sprintf("/%s: %v", e.Slug, e.Err) }

func (e PageError) Unwrap() error { return e.Err }

// Result summarises a build.
type Result struct {
	Written int
	Failed  []PageError
}

// Engine drives a build.
type Engine struct {
	Site      *api.Site
	Content   *content.Resolver
	Grounding *grounding.Source // optional
	Target    Target
	Workers   int
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewEngine(s *api.Site, resolver *content.Resolver, target Target, log *zap.Logger) *Engine {
	return &Engine{
		Site:    s,
		Content: resolver,
		Target:  target,
		Workers: 8,
		Now:     time.Now,
		Logger:  logging.OrNop(log),
	}
}

// Build resolves and writes every entry of the site. Per-page failures are
// collected in the result; only a cancelled context aborts the build.
func (e *Engine) Build(ctx context.Context) (Result, error) {
	log := logging.OrNop(e.Logger).With(zap.String("site", e.Site.ID))
	router := site.NewRouter(e.Site)
	now := e.Now().UTC()

	var (
		mu     sync.Mutex
		result Result
	)
	fail := func(slug string, err error) {
		mu.Lock()
		defer mu.Unlock()
		result.Failed = append(result.Failed, PageError{Slug: slug, Err: err})
	}

	g, gctx := errgroup.WithContext(ctx)
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for _, entry := range router.Entries() {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			page, err := e.resolve(gctx, entry)
			if err != nil {
				log.Warn("build: page skipped", zap.String("slug", entry.Slug), zap.Error(err))
				fail(entry.Slug, err)
				return nil
			}
			page.UpdatedAt = now
			if err := e.Target.Put(gctx, page); err != nil {
				fail(entry.Slug, err)
				return nil
			}
			mu.Lock()
			result.Written++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Slug < result.Failed[j].Slug })
	log.Info("build: done", zap.Int("written", result.Written), zap.Int("failed", len(result.Failed)))
	return result, nil
}

func (e *Engine) resolve(ctx context.Context, entry site.Entry) (store.Page, error) {
	p := store.Page{
		Site:     e.Site.ID,
		Slug:     entry.Slug,
		Kind:     entry.Kind.String(),
		PageKey:  entry.Route.PageKey,
		Instance: entry.Route.Instance,
	}

	var page *content.PageData
	if entry.Kind == site.EntryGrounding {
		if e.Grounding == nil {
			return store.Page{}, grounding.ErrSourceMissing
		}
		doc, err := e.Grounding.Document()
		if err != nil {
			return store.Page{}, err
		}
		if p.Components, err = json.Marshal(doc); err != nil {
			return store.Page{}, fmt.Errorf("marshal grounding document: %w", err)
		}
	} else {
		var err error
		page, err = e.Content.GetPageDataWithContent(ctx, entry.Route.PageKey, entry.Route.Instance)
		if err != nil {
			return store.Page{}, err
		}
		if page.Empty() {
			return store.Page{}, ErrEmptyPage
		}
		if p.Components, err = json.Marshal(page.Components); err != nil {
			return store.Page{}, fmt.Errorf("marshal components: %w", err)
		}
	}

	meta := seo.Resolve(e.Site, entry.Route, entry.Path(), page)
	var err error
	if p.Metadata, err = json.Marshal(meta); err != nil {
		return store.Page{}, fmt.Errorf("marshal metadata: %w", err)
	}
	ld, err := seo.MarshalJSONLD(seo.JSONLD(e.Site, entry.Route, meta, page))
	if err != nil {
		return store.Page{}, err
	}
	p.JSONLD = json.RawMessage(ld)
	return p, nil
}
