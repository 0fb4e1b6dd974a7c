package seo

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/slug"
)

const schemaContext = "https://schema.org"

// faqItems selects every question/answer pair of every FAQ block.
var faqItems = jp.MustParseString("$.components[?(@.type == 'faq')].items[*]")

// Question is one FAQ pair taken from a page document.
type Question struct {
	Question string
	Answer   string
}

// FAQs returns the FAQ pairs of a page in document order.
func FAQs(page *content.PageData) []Question {
	if page == nil || page.Doc == nil {
		return nil
	}
	var out []Question
	for _, v := range faqItems.Get(page.Doc) {
		item, ok := v.(map[string]any)
		if !ok {
			continue
		}
		q, _ := item["question"].(string)
		a, _ := item["answer"].(string)
		if strings.TrimSpace(q) == "" || strings.TrimSpace(a) == "" {
			continue
		}
		out = append(out, Question{Question: q, Answer: a})
	}
	return out
}

// JSONLD returns the schema.org graph of a page: the organisation, the web page,
// its breadcrumb trail and, when present, an FAQPage.
func JSONLD(site *api.Site, route slug.Route, meta Metadata, page *content.PageData) []map[string]any {
	orgID := site.Domain + "/#organization"
	graph := []map[string]any{organization(site, route, orgID)}

	graph = append(graph, map[string]any{
		"@context":    schemaContext,
		"@type":       "WebPage",
		"@id":         meta.Canonical + "#webpage",
		"url":         meta.Canonical,
		"name":        meta.Title,
		"description": meta.Description,
		"inLanguage":  strings.ReplaceAll(site.SiteLocale(), "_", "-"),
		"isPartOf":    map[string]any{"@type": "WebSite", "url": site.Domain + "/", "name": site.Name},
		"publisher":   map[string]any{"@id": orgID},
	})

	graph = append(graph, breadcrumbs(site, route, meta))

	if faqs := FAQs(page); len(faqs) > 0 {
		entities := make([]map[string]any, 0, len(faqs))
		for _, f := range faqs {
			entities = append(entities, map[string]any{
				"@type": "Question",
				"name":  f.Question,
				"acceptedAnswer": map[string]any{
					"@type": "Answer",
					"text":  f.Answer,
				},
			})
		}
		graph = append(graph, map[string]any{
			"@context":   schemaContext,
			"@type":      "FAQPage",
			"mainEntity": entities,
		})
	}
	return graph
}

func organization(site *api.Site, route slug.Route, id string) map[string]any {
	org := map[string]any{
		"@context": schemaContext,
		"@type":    "ProfessionalService",
		"@id":      id,
		"name":     site.Name,
		"url":      site.Domain + "/",
	}
	if o := site.Organization; o != nil {
		if o.Name != "" {
			org["name"] = o.Name
		}
		if o.Telephone != "" {
			org["telephone"] = o.Telephone
		}
		if o.Email != "" {
			org["email"] = o.Email
		}
		if o.Logo != "" {
			org["logo"] = absoluteURL(site, o.Logo)
		}
		if o.Street != "" || o.City != "" {
			org["address"] = map[string]any{
				"@type":           "PostalAddress",
				"streetAddress":   o.Street,
				"postalCode":      o.PostCode,
				"addressLocality": o.City,
				"addressCountry":  o.Country,
			}
		}
		if len(o.SameAs) > 0 {
			org["sameAs"] = o.SameAs
		}
	}
	if route.Instance != "" {
		org["areaServed"] = map[string]any{"@type": "City", "name": route.Instance}
	}
	return org
}

func breadcrumbs(site *api.Site, route slug.Route, meta Metadata) map[string]any {
	type crumb struct{ name, url string }
	trail := []crumb{{site.Name, site.Domain + "/"}}

	if route.Instance != "" {
		instURL := CanonicalURL(site, slug.InstanceSlug(route.Instance, site.Programmatic.SlugOverrides))
		trail = append(trail, crumb{route.Instance, instURL})
		if meta.Canonical != instURL {
			trail = append(trail, crumb{meta.Title, meta.Canonical})
		}
	} else if meta.Canonical != site.Domain+"/" {
		trail = append(trail, crumb{meta.Title, meta.Canonical})
	}

	items := make([]map[string]any, len(trail))
	for i, c := range trail {
		items[i] = map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"name":     c.name,
			"item":     c.url,
		}
	}
	return map[string]any{
		"@context":        schemaContext,
		"@type":           "BreadcrumbList",
		"itemListElement": items,
	}
}

// MarshalJSONLD renders the graph for a <script type="application/ld+json"> tag.
func MarshalJSONLD(graph []map[string]any) (string, error) {
	data, err := json.Marshal(graph)
	if err != nil {
		return "", fmt.Errorf("marshal json-ld: %w", err)
	}
	return string(data), nil
}
