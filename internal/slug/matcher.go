package slug

import (
	"regexp"
	"sort"
	"strings"

	"github.com/gutachten-org/sitekit/api"
)

// Kind classifies a resolved route.
type Kind string

const (
	KindStatic       Kind = "static"
	KindProgrammatic Kind = "programmatic"
	KindGrounding    Kind = "grounding"
)

// Route is the result of resolving a slug.
// Instance holds the display name ("Frankfurt am Main"), not its slug.
type Route struct {
	Kind     Kind   `json:"kind"`
	PageKey  string `json:"pageKey"`
	Instance string `json:"instance,omitempty"`
}

// Instance pairs an instance display name with its canonical slug.
type Instance struct {
	Name string
	Slug string
}

type prefixRule struct {
	prefix  string
	pageKey string
	re      *regexp.Regexp
}

// Matcher resolves programmatic slugs for one site. It is immutable after
// construction and safe for concurrent use.
type Matcher struct {
	rules       []prefixRule
	instances   []Instance
	bySlug      map[string]string
	defaultPage string
}

// NewMatcher compiles the prefix rules of a site, longest prefix first.
func NewMatcher(p api.Programmatic) *Matcher {
	prefixes := make([]string, 0, len(p.SlugToPageKey))
	for prefix := range p.SlugToPageKey {
		if prefix == "" {
			continue
		}
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool {
		if len(prefixes[i]) != len(prefixes[j]) {
			return len(prefixes[i]) > len(prefixes[j])
		}
		return prefixes[i] < prefixes[j]
	})

	m := &Matcher{
		bySlug:      make(map[string]string, len(p.Instances)),
		defaultPage: p.DefaultPageKey(),
	}
	for _, prefix := range prefixes {
		m.rules = append(m.rules, prefixRule{
			prefix:  prefix,
			pageKey: p.SlugToPageKey[prefix],
			re:      regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `-(.+)$`),
		})
	}
	for _, name := range p.Instances {
		s := InstanceSlug(name, p.SlugOverrides)
		if s == "" {
			continue
		}
		m.instances = append(m.instances, Instance{Name: name, Slug: s})
		// first declared instance wins on slug collisions
		if _, dup := m.bySlug[s]; !dup {
			m.bySlug[s] = name
		}
	}
	return m
}

// Resolve maps a slug onto a programmatic route. Prefixed slugs are tried first,
// longest prefix first; a bare instance slug maps to the default page.
// ok is false when nothing matches.
func (m *Matcher) Resolve(slug string) (Route, bool) {
	for _, r := range m.rules {
		sub := r.re.FindStringSubmatch(slug)
		if sub == nil {
			continue
		}
		if name, found := m.instance(sub[1]); found {
			return Route{Kind: KindProgrammatic, PageKey: r.pageKey, Instance: name}, true
		}
	}

	if m.defaultPage == "" {
		return Route{}, false
	}
	if name, found := m.instance(slug); found {
		return Route{Kind: KindProgrammatic, PageKey: m.defaultPage, Instance: name}, true
	}
	return Route{}, false
}

func (m *Matcher) instance(candidate string) (string, bool) {
	name, ok := m.bySlug[strings.ToLower(candidate)]
	return name, ok
}

// Instances returns the instances with a non-empty slug in configuration order.
func (m *Matcher) Instances() []Instance {
	return append([]Instance(nil), m.instances...)
}

// Prefixes returns the configured prefixes, longest first.
func (m *Matcher) Prefixes() []string {
	out := make([]string, len(m.rules))
	for i, r := range m.rules {
		out[i] = r.prefix
	}
	return out
}

// PageKey returns the page key of a prefix.
func (m *Matcher) PageKey(prefix string) string {
	for _, r := range m.rules {
		if r.prefix == prefix {
			return r.pageKey
		}
	}
	return ""
}

// InstanceSlugOf returns the slug of a configured instance name.
func (m *Matcher) InstanceSlugOf(name string) string {
	for _, in := range m.instances {
		if in.Name == name {
			return in.Slug
		}
	}
	return ""
}

// Join builds the slug of a prefixed programmatic page.
func Join(prefix, instanceSlug string) string {
	return prefix + "-" + instanceSlug
}
