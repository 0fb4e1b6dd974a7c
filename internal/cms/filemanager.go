// Package cms loads content files through a cache, the CMS HTTP API and the
// local content registry, in that order.
package cms

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/logging"
)

// Source tells where a Result came from.
type Source string

const (
	SourceCache Source = "cache"
	SourceCMS   Source = "cms"
	SourceLocal Source = "local"
	SourceNone  Source = "none"
)

// maxFileSize caps CMS response bodies.
const maxFileSize = 8 << 20

// Result is the outcome of a load. Err is set only when Source is SourceNone.
type Result struct {
	Name   string
	Data   []byte
	Source Source
	Err    error
}

// Cache is the injected file cache.
type Cache = expirable.LRU[string, []byte]

// NewCache returns a size and TTL bounded cache. A zero ttl disables expiry.
func NewCache(size int, ttl time.Duration) *Cache {
	return expirable.NewLRU[string, []byte](size, nil, ttl)
}

// Options configures a FileManager.
type Options struct {
	// BaseURL of the CMS; empty disables the CMS step.
	BaseURL    string
	HTTPClient *http.Client
	Cache      *Cache
	// Local is the fallback content source, usually a content.Registry.
	Local  content.Source
	Logger *zap.Logger
	// Observe is called once per completed load.
	Observe func(name string, src Source)
}

// FileManager resolves content files. Load never returns a Go error; failures
// are reported in Result.Err.
type FileManager struct {
	base    string
	client  *http.Client
	cache   *Cache
	local   content.Source
	log     *zap.Logger
	observe func(string, Source)
	group   singleflight.Group
}

// New builds a FileManager. A nil cache gets a default 256-entry cache without expiry.
func New(opts Options) *FileManager {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(256, 0)
	}
	return &FileManager{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
		cache:   cache,
		local:   opts.Local,
		log:     logging.OrNop(opts.Logger),
		observe: opts.Observe,
	}
}

// Load returns the file called name. Concurrent loads of one name share a single fetch.
func (m *FileManager) Load(ctx context.Context, name string) Result {
	if data, ok := m.cache.Get(name); ok {
		m.done(name, SourceCache)
		return Result{Name: name, Data: data, Source: SourceCache}
	}

	v, _, _ := m.group.Do(name, func() (any, error) {
		return m.fetch(ctx, name), nil
	})
	res := v.(Result)
	m.done(name, res.Source)
	return res
}

func (m *FileManager) fetch(ctx context.Context, name string) Result {
	if m.base != "" {
		data, err := m.fetchCMS(ctx, name)
		if err == nil {
			m.cache.Add(name, data)
			return Result{Name: name, Data: data, Source: SourceCMS}
		}
		m.log.Debug("cms fetch failed, falling back to local", zap.String("name", name), zap.Error(err))
	}

	if m.local == nil {
		return Result{Name: name, Source: SourceNone, Err: fmt.Errorf("%w: %s", content.ErrNotFound, name)}
	}
	data, err := m.local.Load(ctx, name)
	if err != nil {
		return Result{Name: name, Source: SourceNone, Err: err}
	}
	m.cache.Add(name, data)
	return Result{Name: name, Data: data, Source: SourceLocal}
}

var errCMSNotFound = errors.New("not found in cms")

func (m *FileManager) fetchCMS(ctx context.Context, name string) ([]byte, error) {
	segments := strings.Split(name, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	endpoint := m.base + "/api/files/" + strings.Join(segments, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errCMSNotFound
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("cms status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFileSize))
}

func (m *FileManager) done(name string, src Source) {
	if m.observe != nil {
		m.observe(name, src)
	}
}

// Invalidate drops one cached file.
func (m *FileManager) Invalidate(name string) {
	m.cache.Remove(name)
}

// Purge drops every cached file.
func (m *FileManager) Purge() {
	m.cache.Purge()
}

// AsSource adapts the manager to content.Source for the resolver.
func (m *FileManager) AsSource() content.Source {
	return source{m}
}

type source struct{ m *FileManager }

func (s source) Load(ctx context.Context, name string) ([]byte, error) {
	res := s.m.Load(ctx, name)
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Data, nil
}
