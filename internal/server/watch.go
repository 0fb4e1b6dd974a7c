package server

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/articles"
)

const debounce = 250 * time.Millisecond

// Reload drops cached content and re-reads the article list.
func (s *Server) Reload() {
	if s.opts.Cache != nil {
		s.opts.Cache.Purge()
	}
	if s.opts.Grounding != nil {
		s.opts.Grounding.Invalidate()
	}
	if s.opts.ArticlesFS != nil {
		c, err := articles.Load(s.opts.ArticlesFS, articles.DefaultDir, s.log)
		if err != nil {
			s.log.Warn("reload articles", zap.Error(err))
		} else {
			s.articles.Store(c)
		}
	}
	s.log.Info("content reloaded")
}

// Watch reloads content whenever a file below one of paths changes. Rapid
// bursts of events trigger one reload. It blocks until ctx is done.
func (s *Server) Watch(ctx context.Context, paths ...string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, p := range paths {
		if err := addRecursive(watcher, p); err != nil {
			return err
		}
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						s.log.Warn("watch new directory", zap.String("path", event.Name), zap.Error(err))
					}
				}
			}
			s.log.Debug("content changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

			mu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, s.Reload)
			mu.Unlock()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("watcher error", zap.Error(err))
		}
	}
}

// addRecursive watches path, and every directory below it when path is a
// directory. A file path is watched through its parent so that atomic
// replaces (write to temp, rename) are seen.
func addRecursive(w *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
