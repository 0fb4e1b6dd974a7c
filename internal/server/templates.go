package server

import (
	"embed"
	"html/template"
	"strings"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/site"
	"github.com/gutachten-org/sitekit/internal/slug"
)

// templateFS contains the HTML templates bundled with the binary.
//
//go:embed templates/*
var templateFS embed.FS

func parseTemplates(router *site.Router) (*template.Template, error) {
	return template.New("base").Funcs(template.FuncMap{
		"join":      strings.Join,
		"cityLinks": cityLinks(router),
	}).ParseFS(templateFS, "templates/*.gohtml")
}

// cityLinks lists the instance pages of a page key. An empty key or the
// default page key links the bare instance slugs.
func cityLinks(router *site.Router) func(pageKey string) []api.Link {
	return func(pageKey string) []api.Link {
		m := router.Matcher()
		prog := router.Site().Programmatic

		prefix := ""
		if pageKey != "" && pageKey != prog.DefaultPageKey() {
			for _, p := range m.Prefixes() {
				if m.PageKey(p) == pageKey {
					prefix = p
					break
				}
			}
			if prefix == "" {
				return nil
			}
		}

		var links []api.Link
		for _, in := range m.Instances() {
			href := "/" + in.Slug
			if prefix != "" {
				href = "/" + slug.Join(prefix, in.Slug)
			}
			links = append(links, api.Link{Label: in.Name, Href: href})
		}
		return links
	}
}
