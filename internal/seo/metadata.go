// Package seo derives page metadata and schema.org structured data.
package seo

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/slug"
)

// Image is an OpenGraph image.
type Image struct {
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

type OpenGraph struct {
	Type        string  `json:"type"`
	URL         string  `json:"url"`
	SiteName    string  `json:"siteName"`
	Locale      string  `json:"locale"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Images      []Image `json:"images,omitempty"`
}

type Twitter struct {
	Card        string   `json:"card"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Images      []string `json:"images,omitempty"`
}

// Metadata is everything rendered into <head>.
type Metadata struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Keywords    []string  `json:"keywords,omitempty"`
	Canonical   string    `json:"canonical"`
	Robots      string    `json:"robots"`
	OpenGraph   OpenGraph `json:"openGraph"`
	Twitter     Twitter   `json:"twitter"`
}

const (
	robotsIndex    = "index, follow"
	ogImageWidth   = 1200
	ogImageHeight  = 630
	descriptionCap = 160
	groundingTitle = "Grounding"
	groundingIntro = "Maschinenlesbare Zusammenfassung der Inhalte von "
)

// Resolve builds the metadata of a resolved route served at path.
// page may be nil; it only feeds the fallback description.
func Resolve(site *api.Site, route slug.Route, path string, page *content.PageData) Metadata {
	canonical := CanonicalURL(site, path)

	var m Metadata
	if route.Kind == slug.KindGrounding {
		m = Metadata{
			Title:       groundingTitle + " | " + site.Name,
			Description: groundingIntro + site.Name + ".",
		}
	} else {
		m = fromTemplate(site, route, page)
	}

	m.Canonical = canonical
	m.Robots = robotsIndex
	m.OpenGraph = OpenGraph{
		Type:        "website",
		URL:         canonical,
		SiteName:    site.Name,
		Locale:      site.SiteLocale(),
		Title:       m.Title,
		Description: m.Description,
	}
	m.Twitter = Twitter{
		Card:        "summary",
		Title:       m.Title,
		Description: m.Description,
	}

	if entry, ok := site.SEO[route.PageKey]; ok && entry.OGImage != "" && route.Kind != slug.KindGrounding {
		img := absoluteURL(site, entry.OGImage)
		m.OpenGraph.Images = []Image{{URL: img, Width: ogImageWidth, Height: ogImageHeight, Alt: m.Title}}
		m.Twitter.Card = "summary_large_image"
		m.Twitter.Images = []string{img}
	}
	return m
}

func fromTemplate(site *api.Site, route slug.Route, page *content.PageData) Metadata {
	vars := map[string]string{
		"instance":     route.Instance,
		"instanceSlug": slug.InstanceSlug(route.Instance, site.Programmatic.SlugOverrides),
		"siteName":     site.Name,
	}

	entry, ok := site.SEO[route.PageKey]
	if !ok {
		return Metadata{
			Title:       FallbackTitle(site, route),
			Description: fallbackDescription(site, page),
		}
	}

	m := Metadata{
		Title:       content.SubstituteString(entry.Title, vars),
		Description: content.SubstituteString(entry.Description, vars),
	}
	for _, k := range entry.Keywords {
		m.Keywords = append(m.Keywords, content.SubstituteString(k, vars))
	}
	if m.Title == "" {
		m.Title = FallbackTitle(site, route)
	}
	if m.Description == "" {
		m.Description = fallbackDescription(site, page)
	}
	return m
}

// FallbackTitle is "Page Key – Instance | Site" for pages without an SEO entry.
func FallbackTitle(site *api.Site, route slug.Route) string {
	// a Caser is stateful, so one per call
	title := cases.Title(language.German).String(strings.ReplaceAll(route.PageKey, "-", " "))
	if route.Instance != "" {
		title += " – " + route.Instance
	}
	return title + " | " + site.Name
}

func fallbackDescription(site *api.Site, page *content.PageData) string {
	if page != nil {
		for _, b := range page.Components {
			var s string
			switch v := b.(type) {
			case *api.Hero:
				s = v.Subtitle
			case *api.Text:
				s = v.Content
			}
			if s = strings.TrimSpace(s); s != "" {
				return truncate(s, descriptionCap)
			}
		}
	}
	return site.Name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	cut := string(r[:n])
	if i := strings.LastIndex(cut, " "); i > n/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// CanonicalURL joins the site domain and a path.
func CanonicalURL(site *api.Site, path string) string {
	if path == "" || path == "/" {
		return site.Domain + "/"
	}
	return site.Domain + "/" + strings.TrimLeft(path, "/")
}

func absoluteURL(site *api.Site, ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return CanonicalURL(site, ref)
}
