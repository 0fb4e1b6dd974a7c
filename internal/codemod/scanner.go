package codemod

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/writeback"
)

var (
	DefaultInclude = []string{"**/*.tsx", "**/*.jsx", "content/**/*.json"}
	DefaultExclude = []string{"**/node_modules/**", "**/.next/**", "**/*.test.*"}
)

// FileReport is the outcome for one file.
type FileReport struct {
	Path  string
	Added int
	Err   error
}

// Report summarises a scan.
type Report struct {
	Files  []FileReport
	Total  int
	Failed int
}

// Changed returns the reports of files that received ids.
func (r Report) Changed() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Err == nil && f.Added > 0 {
			out = append(out, f)
		}
	}
	return out
}

// Scanner runs the codemod over a filesystem tree.
type Scanner struct {
	Codemod *Codemod
	Include []string
	Exclude []string
	// Write persists results; otherwise the scan is a dry run.
	Write  bool
	Logger *zap.Logger
}

// NewScanner returns a dry-run scanner with the default globs.
func NewScanner(log *zap.Logger) *Scanner {
	return &Scanner{
		Codemod: New(),
		Include: DefaultInclude,
		Exclude: DefaultExclude,
		Logger:  logging.OrNop(log),
	}
}

// Validate checks the glob patterns.
func (s *Scanner) Validate() error {
	for _, p := range append(append([]string{}, s.Include...), s.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid glob %q", p)
		}
	}
	return nil
}

// Run walks fs from its root. A file that fails is logged, reported and skipped.
func (s *Scanner) Run(ctx context.Context, fs billy.Filesystem) (Report, error) {
	log := logging.OrNop(s.Logger)
	files, err := s.Files(ctx, fs)
	if err != nil {
		return Report{}, err
	}

	var report Report
	for _, name := range files {
		fr := s.file(ctx, fs, name)
		if fr.Err != nil {
			report.Failed++
			log.Error("stable ids: skipping file", zap.String("path", fr.Path), zap.Error(fr.Err))
		} else {
			report.Total += fr.Added
		}
		report.Files = append(report.Files, fr)
	}
	return report, nil
}

// Files lists the absolute names of the files under fs that the include and
// exclude globs select, sorted.
func (s *Scanner) Files(ctx context.Context, fs billy.Filesystem) ([]string, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var files []string
	err := util.Walk(fs, "/", func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		rel := strings.TrimPrefix(filepath.ToSlash(p), "/")
		if rel == "" {
			return nil
		}
		if info.IsDir() {
			if s.excludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.matches(rel) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func (s *Scanner) file(ctx context.Context, fs billy.Filesystem, name string) FileReport {
	rel := strings.TrimPrefix(filepath.ToSlash(name), "/")
	src, err := util.ReadFile(fs, name)
	if err != nil {
		return FileReport{Path: rel, Err: err}
	}

	out, added, err := s.Codemod.Transform(ctx, rel, src)
	if err != nil {
		return FileReport{Path: rel, Err: err}
	}
	if added > 0 && s.Write {
		if err := writeback.WriteFileAtomic(fs, name, out); err != nil {
			return FileReport{Path: rel, Err: err}
		}
	}
	return FileReport{Path: rel, Added: added}
}

func (s *Scanner) matches(rel string) bool {
	included := false
	for _, p := range s.Include {
		if ok, _ := doublestar.Match(p, rel); ok {
			included = true
			break
		}
	}
	if !included {
		return false
	}
	for _, p := range s.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return false
		}
	}
	return true
}

// excludedDir prunes directories named by "<dir>/**" exclude patterns.
func (s *Scanner) excludedDir(rel string) bool {
	for _, p := range s.Exclude {
		dir, ok := strings.CutSuffix(p, "/**")
		if !ok {
			continue
		}
		if m, _ := doublestar.Match(dir, rel); m {
			return true
		}
	}
	return false
}
