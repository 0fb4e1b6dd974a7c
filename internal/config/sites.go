package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gutachten-org/sitekit/api"
)

var (
	// ErrNoSites is returned when sites.yaml defines no site.
	ErrNoSites = errors.New("no sites configured")
	// ErrUnknownSite is returned by Sites.Get for an unknown id.
	ErrUnknownSite = errors.New("unknown site")
)

// Sites is the ordered list of configured sites.
type Sites []*api.Site

type sitesFile struct {
	Sites []*api.Site `yaml:"sites"`
}

// LoadSites reads and validates a sites.yaml file.
func LoadSites(path string) (Sites, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file %s: %w", path, err)
	}
	return ParseSites(data)
}

// ParseSites decodes sites.yaml content.
func ParseSites(data []byte) (Sites, error) {
	var f sitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, ErrNoSites
	}

	seen := make(map[string]bool, len(f.Sites))
	for i, s := range f.Sites {
		if s == nil || strings.TrimSpace(s.ID) == "" {
			return nil, fmt.Errorf("site %d: missing id", i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("site %q defined twice", s.ID)
		}
		seen[s.ID] = true
		if s.Domain == "" {
			return nil, fmt.Errorf("site %q: missing domain", s.ID)
		}
		s.Domain = strings.TrimRight(s.Domain, "/")
		if len(s.Programmatic.Instances) > 0 && len(s.Programmatic.Pages) == 0 {
			return nil, fmt.Errorf("site %q: programmatic instances without pages", s.ID)
		}
	}
	return Sites(f.Sites), nil
}

// Get returns the site with the given id.
func (s Sites) Get(id string) (*api.Site, error) {
	for _, site := range s {
		if site.ID == id {
			return site, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSite, id)
}

// Select returns the site named by id, or the first configured site when id is empty.
func (s Sites) Select(id string) (*api.Site, error) {
	if len(s) == 0 {
		return nil, ErrNoSites
	}
	if id == "" {
		return s[0], nil
	}
	return s.Get(id)
}
