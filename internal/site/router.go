// Package site resolves request slugs for one configured site and enumerates
// every page the site publishes.
package site

import (
	"strings"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/slug"
)

// HomePageKey is the page key rendered at "/".
const HomePageKey = "home"

// GroundingPageKey is the page key of the machine-readable grounding page.
const GroundingPageKey = "grounding"

var groundingSlugs = map[string]bool{"grounding": true, "groundingpage": true}

// Router resolves slugs in the order grounding, static, programmatic.
type Router struct {
	site    *api.Site
	matcher *slug.Matcher
}

// NewRouter prepares the slug matcher of s.
func NewRouter(s *api.Site) *Router {
	return &Router{site: s, matcher: slug.NewMatcher(s.Programmatic)}
}

// Site returns the site the router was built for.
func (r *Router) Site() *api.Site { return r.site }

// Matcher exposes the programmatic matcher.
func (r *Router) Matcher() *slug.Matcher { return r.matcher }

// Resolve maps a single path segment onto a route. The empty slug is the home page.
func (r *Router) Resolve(s string) (slug.Route, bool) {
	s = strings.Trim(s, "/")
	if s == "" {
		return slug.Route{Kind: slug.KindStatic, PageKey: HomePageKey}, true
	}
	if groundingSlugs[strings.ToLower(s)] {
		return slug.Route{Kind: slug.KindGrounding, PageKey: GroundingPageKey}, true
	}
	if p, ok := r.site.StaticPageBySlug(s); ok {
		return slug.Route{Kind: slug.KindStatic, PageKey: p.PageKey}, true
	}
	return r.matcher.Resolve(s)
}

// EntryKind groups enumerated pages; the sitemap prices them differently.
type EntryKind int

const (
	EntryHome EntryKind = iota
	EntryStatic
	EntryInstance
	EntryNested
	EntryGrounding
)

func (k EntryKind) String() string {
	switch k {
	case EntryHome:
		return "home"
	case EntryStatic:
		return "static"
	case EntryInstance:
		return "instance"
	case EntryNested:
		return "nested"
	case EntryGrounding:
		return "grounding"
	default:
		return "unknown"
	}
}

// Entry is one published page.
type Entry struct {
	Slug   string
	Kind   EntryKind
	Route  slug.Route
	Static *api.StaticPage
}

// Path returns the URL path of the entry.
func (e Entry) Path() string {
	return "/" + e.Slug
}

// Entries enumerates home, static pages, bare instances, instance×prefix pages
// and the grounding page, in that order.
func (r *Router) Entries() []Entry {
	entries := []Entry{{
		Kind:  EntryHome,
		Route: slug.Route{Kind: slug.KindStatic, PageKey: HomePageKey},
	}}

	for i := range r.site.StaticPages {
		p := &r.site.StaticPages[i]
		entries = append(entries, Entry{
			Slug:   p.Slug,
			Kind:   EntryStatic,
			Route:  slug.Route{Kind: slug.KindStatic, PageKey: p.PageKey},
			Static: p,
		})
	}

	instances := r.matcher.Instances()
	defaultPage := r.site.Programmatic.DefaultPageKey()
	if defaultPage != "" {
		for _, in := range instances {
			entries = append(entries, Entry{
				Slug:  in.Slug,
				Kind:  EntryInstance,
				Route: slug.Route{Kind: slug.KindProgrammatic, PageKey: defaultPage, Instance: in.Name},
			})
		}
	}

	prefixes := r.matcher.Prefixes()
	for _, in := range instances {
		for _, prefix := range prefixes {
			entries = append(entries, Entry{
				Slug:  slug.Join(prefix, in.Slug),
				Kind:  EntryNested,
				Route: slug.Route{Kind: slug.KindProgrammatic, PageKey: r.matcher.PageKey(prefix), Instance: in.Name},
			})
		}
	}

	entries = append(entries, Entry{
		Slug:  GroundingPageKey,
		Kind:  EntryGrounding,
		Route: slug.Route{Kind: slug.KindGrounding, PageKey: GroundingPageKey},
	})
	return entries
}
