package grounding

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// ErrSourceMissing is returned when the grounding file does not exist.
var ErrSourceMissing = errors.New("grounding source missing")

// Source loads and caches a parsed grounding file. The cache is keyed by the
// file's modification time and size.
type Source struct {
	fs   billy.Filesystem
	name string

	mu       sync.Mutex
	modTime  time.Time
	size     int64
	sections []Section
	raw      string
}

// NewSource reads name from fs on demand.
func NewSource(fs billy.Filesystem, name string) *Source {
	return &Source{fs: fs, name: name}
}

// Name is the file the source reads.
func (s *Source) Name() string { return s.name }

// Sections returns the parsed file, re-reading it when it changed on disk.
func (s *Source) Sections() ([]Section, error) {
	sections, _, err := s.load()
	return sections, err
}

// Raw returns the unparsed file content.
func (s *Source) Raw() (string, error) {
	_, raw, err := s.load()
	return raw, err
}

// Document extracts the complete document.
func (s *Source) Document() (Document, error) {
	sections, err := s.Sections()
	if err != nil {
		return Document{}, err
	}
	return Complete(sections), nil
}

// Invalidate forces the next call to re-read the file.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modTime = time.Time{}
	s.size = -1
	s.sections = nil
	s.raw = ""
}

func (s *Source) load() ([]Section, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := s.fs.Stat(s.name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: %s", ErrSourceMissing, s.name)
		}
		return nil, "", fmt.Errorf("stat %s: %w", s.name, err)
	}
	if s.sections != nil && info.ModTime().Equal(s.modTime) && info.Size() == s.size {
		return s.sections, s.raw, nil
	}

	data, err := util.ReadFile(s.fs, s.name)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", s.name, err)
	}
	s.raw = string(data)
	s.sections = Parse(s.raw)
	if s.sections == nil {
		s.sections = []Section{}
	}
	s.modTime = info.ModTime()
	s.size = info.Size()
	return s.sections, s.raw, nil
}
