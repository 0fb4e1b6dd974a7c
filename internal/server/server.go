// Package server renders a site's pages over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v5"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/articles"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/seo"
	"github.com/gutachten-org/sitekit/internal/site"
	"github.com/gutachten-org/sitekit/internal/sitemap"
	"github.com/gutachten-org/sitekit/internal/slug"
	"github.com/gutachten-org/sitekit/internal/store"
)

const (
	kindArticle  = "article"
	kindNotFound = "not_found"
)

// PageStore answers from a prebuilt snapshot. *store.Reader implements it.
type PageStore interface {
	Lookup(ctx context.Context, site, slug string) (store.Page, error)
}

// Purger drops cached content. *cms.FileManager implements it.
type Purger interface {
	Purge()
}

type Options struct {
	Site    *api.Site
	Content *content.Resolver
	// Articles is the initial article list. ArticlesFS, when set, is re-read
	// from articles.DefaultDir whenever the watcher sees a change.
	Articles   *articles.Collection
	ArticlesFS billy.Filesystem
	Grounding  *grounding.Source
	Store      PageStore
	Cache      Purger
	Metrics    *Metrics
	Logger     *zap.Logger
	Now        func() time.Time
}

// Server wires handlers, templates, and content sources together.
type Server struct {
	opts      Options
	router    *site.Router
	templates *template.Template
	metrics   *Metrics
	log       *zap.Logger
	articles  atomic.Pointer[articles.Collection]
	mux       *http.ServeMux
}

// New constructs an HTTP handler serving one site.
func New(opts Options) (*Server, error) {
	if opts.Site == nil || opts.Content == nil {
		return nil, errors.New("server: site and content resolver are required")
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	router := site.NewRouter(opts.Site)
	tmpl, err := parseTemplates(router)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		router:    router,
		templates: tmpl,
		metrics:   opts.Metrics,
		log:       logging.OrNop(opts.Logger).With(zap.String("site", opts.Site.ID)),
		mux:       http.NewServeMux(),
	}
	s.articles.Store(opts.Articles)

	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /{slug}", s.handlePage)
	s.mux.HandleFunc("GET "+articles.PathPrefix+"{slug}", s.handleArticle)
	s.mux.HandleFunc("GET /sitemap.xml", s.handleSitemap)
	s.mux.HandleFunc("GET "+sitemap.LLMTxtPath, s.handleLLMTxt)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return s, nil
}

// ServeHTTP satisfies http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type view struct {
	Lang     string
	SiteName string
	Meta     seo.Metadata
	JSONLD   template.JS
	Blocks   api.Components
	Article  *articles.Article
	Doc      *grounding.Document
}

func (s *Server) newView(meta seo.Metadata) *view {
	lang, _, _ := strings.Cut(s.opts.Site.SiteLocale(), "_")
	return &view{Lang: lang, SiteName: s.opts.Site.Name, Meta: meta}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, "")
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, r.PathValue("slug"))
}

func (s *Server) servePage(w http.ResponseWriter, r *http.Request, sl string) {
	start := time.Now()
	route, ok := s.router.Resolve(sl)
	if !ok {
		s.notFound(w, r, start)
		return
	}
	path := "/" + sl

	var (
		v    *view
		err  error
		tmpl = "page.gohtml"
	)
	switch route.Kind {
	case slug.KindGrounding:
		tmpl = "grounding.gohtml"
		v, err = s.groundingView(route, path)
	default:
		v, err = s.storedView(r.Context(), sl)
		if errors.Is(err, store.ErrNotFound) {
			v, err = s.liveView(r.Context(), route, path)
		}
	}
	switch {
	case errors.Is(err, content.ErrNotFound), errors.Is(err, errEmptyPage):
		s.log.Debug("page not found", zap.String("slug", sl), zap.Error(err))
		s.notFound(w, r, start)
		return
	case errors.Is(err, grounding.ErrSourceMissing):
		s.log.Error("grounding source missing", zap.String("slug", sl), zap.Error(err))
		s.notFound(w, r, start)
		return
	case err != nil:
		s.log.Error("resolve page", zap.String("slug", sl), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.render(w, tmpl, http.StatusOK, v, string(route.Kind), start)
}

var errEmptyPage = errors.New("page has no components")

func (s *Server) liveView(ctx context.Context, route slug.Route, path string) (*view, error) {
	page, err := s.opts.Content.GetPageDataWithContent(ctx, route.PageKey, route.Instance)
	if err != nil {
		return nil, err
	}
	if page.Empty() {
		return nil, errEmptyPage
	}
	meta := seo.Resolve(s.opts.Site, route, path, page)
	ld, err := seo.MarshalJSONLD(seo.JSONLD(s.opts.Site, route, meta, page))
	if err != nil {
		return nil, err
	}
	v := s.newView(meta)
	v.JSONLD = template.JS(ld)
	v.Blocks = page.Components
	return v, nil
}

// storedView reads the page from the snapshot store. Without a store every
// lookup misses.
func (s *Server) storedView(ctx context.Context, sl string) (*view, error) {
	if s.opts.Store == nil {
		return nil, store.ErrNotFound
	}
	p, err := s.opts.Store.Lookup(ctx, s.opts.Site.ID, sl)
	if err != nil {
		return nil, err
	}
	var meta seo.Metadata
	if err := json.Unmarshal(p.Metadata, &meta); err != nil {
		return nil, err
	}
	v := s.newView(meta)
	if err := json.Unmarshal(p.Components, &v.Blocks); err != nil {
		return nil, err
	}
	if len(v.Blocks) == 0 {
		return nil, errEmptyPage
	}
	v.JSONLD = template.JS(p.JSONLD)
	return v, nil
}

func (s *Server) groundingView(route slug.Route, path string) (*view, error) {
	if s.opts.Grounding == nil {
		return nil, grounding.ErrSourceMissing
	}
	doc, err := s.opts.Grounding.Document()
	if err != nil {
		return nil, err
	}
	meta := seo.Resolve(s.opts.Site, route, path, nil)
	v := s.newView(meta)
	v.Doc = &doc
	return v, nil
}

func (s *Server) handleArticle(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	a, err := s.articles.Load().Get(r.PathValue("slug"))
	if err != nil {
		s.notFound(w, r, start)
		return
	}

	path := a.Path()
	canonical := seo.CanonicalURL(s.opts.Site, path)
	meta := seo.Metadata{
		Title:       a.Title + " | " + s.opts.Site.Name,
		Description: a.Description,
		Canonical:   canonical,
		Robots:      "index, follow",
		OpenGraph: seo.OpenGraph{
			Type:        "article",
			URL:         canonical,
			SiteName:    s.opts.Site.Name,
			Locale:      s.opts.Site.SiteLocale(),
			Title:       a.Title,
			Description: a.Description,
		},
		Twitter: seo.Twitter{Card: "summary", Title: a.Title, Description: a.Description},
	}
	v := s.newView(meta)
	v.Article = &a
	s.render(w, "article.gohtml", http.StatusOK, v, kindArticle, start)
}

func (s *Server) handleSitemap(w http.ResponseWriter, _ *http.Request) {
	sm := sitemap.Build(s.opts.Site, s.articles.Load().All(), s.opts.Now())
	var buf bytes.Buffer
	if err := sm.Write(&buf); err != nil {
		s.log.Error("render sitemap", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleLLMTxt(w http.ResponseWriter, r *http.Request) {
	if s.opts.Grounding == nil {
		http.NotFound(w, r)
		return
	}
	raw, err := s.opts.Grounding.Raw()
	if errors.Is(err, grounding.ErrSourceMissing) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("read llm.txt", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(raw))
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request, start time.Time) {
	meta := seo.Metadata{Title: "Seite nicht gefunden | " + s.opts.Site.Name, Robots: "noindex, nofollow"}
	s.render(w, "notfound.gohtml", http.StatusNotFound, s.newView(meta), kindNotFound, start)
}

// render executes into a buffer first so a template error still yields a
// clean 500.
func (s *Server) render(w http.ResponseWriter, name string, status int, v *view, kind string, start time.Time) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, v); err != nil {
		s.log.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())

	s.metrics.PageRequests.WithLabelValues(kind).Inc()
	s.metrics.RenderSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}
