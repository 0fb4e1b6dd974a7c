// Package content loads page block trees and applies per-instance substitutions.
package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrNotFound is returned when no loader is registered for a name.
var ErrNotFound = errors.New("content not found")

// Loader returns the raw bytes of one content file.
type Loader func(ctx context.Context) ([]byte, error)

// Source is anything that can load content by logical name.
type Source interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// Registry maps logical names ("pages/<pageKey>", "instances/<slug>") to loaders.
// Names are registered at start-up; nothing is looked up by path at request time.
type Registry struct {
	mu      sync.RWMutex
	loaders map[string]Loader
}

func NewRegistry() *Registry {
	return &Registry{loaders: make(map[string]Loader)}
}

// PageName is the logical name of a page-key template.
func PageName(pageKey string) string { return "pages/" + pageKey }

// InstanceName is the logical name of an instance's data file.
func InstanceName(instanceSlug string) string { return "instances/" + instanceSlug }

// Register adds or replaces a loader.
func (r *Registry) Register(name string, l Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[name] = l
}

// RegisterBytes registers static content.
func (r *Registry) RegisterBytes(name string, data []byte) {
	r.Register(name, func(context.Context) ([]byte, error) { return data, nil })
}

// Lookup returns the loader of name.
func (r *Registry) Lookup(name string) (Loader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[name]
	return l, ok
}

// Load runs the loader registered for name.
func (r *Registry) Load(ctx context.Context, name string) ([]byte, error) {
	l, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return l(ctx)
}

// Names lists every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.loaders))
	for n := range r.loaders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// contentDirs are the directories of a site content tree that hold JSON documents.
var contentDirs = []string{"pages", "instances"}

// RegisterFS registers every JSON file below pages/ and instances/ of fsys.
// Files are read on each load so edits on disk are picked up.
// It returns the number of registered names.
func (r *Registry) RegisterFS(fsys billy.Filesystem) (int, error) {
	n := 0
	for _, dir := range contentDirs {
		root := "/" + dir
		if _, err := fsys.Stat(root); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return n, fmt.Errorf("stat %s: %w", dir, err)
		}

		err := util.Walk(fsys, root, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !strings.EqualFold(filepath.Ext(p), ".json") {
				return nil
			}
			rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
			name := strings.TrimSuffix(rel, path.Ext(rel))
			file := p
			r.Register(name, func(context.Context) ([]byte, error) {
				return util.ReadFile(fsys, file)
			})
			n++
			return nil
		})
		if err != nil {
			return n, fmt.Errorf("walk %s: %w", dir, err)
		}
	}
	return n, nil
}
