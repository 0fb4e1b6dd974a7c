package api

// Site is the configuration of one website served by sitekit.
// It maps URL slugs onto page keys and carries the SEO defaults for every page.
type Site struct {
	// ID is the stable identifier used by SITE_ID and the content directory.
	ID string `yaml:"id" json:"id"`
	// Domain is the canonical origin, e.g. "https://www.gutachten.org".
	Domain string `yaml:"domain" json:"domain"`
	// Name is the human readable site name.
	Name string `yaml:"name" json:"name"`
	// Locale is the OpenGraph locale. Defaults to "de_DE".
	Locale string `yaml:"locale,omitempty" json:"locale,omitempty"`

	Programmatic Programmatic `yaml:"programmatic" json:"programmatic"`
	// StaticPages are pages reachable under a fixed slug.
	StaticPages []StaticPage `yaml:"staticPages,omitempty" json:"staticPages,omitempty"`
	// SEO maps a page key to its metadata templates.
	SEO map[string]PageSEO `yaml:"seo,omitempty" json:"seo,omitempty"`
	// Organization feeds the schema.org business entity.
	Organization *Organization `yaml:"organization,omitempty" json:"organization,omitempty"`
	// LLMTxt publishes /llm.txt and lists it in the sitemap.
	LLMTxt bool `yaml:"llmTxt,omitempty" json:"llmTxt,omitempty"`
}

// Programmatic describes the data-driven page variants of a site (one per city).
type Programmatic struct {
	// Instances are display names in configuration order, e.g. "Frankfurt am Main".
	Instances []string `yaml:"programmaticInstances" json:"programmaticInstances"`
	// Pages are the page-key templates. Pages[0] is the default page of a bare instance slug.
	Pages []string `yaml:"pages" json:"pages"`
	// SlugToPageKey maps a slug prefix to a page key ("gutachter" -> "gutachter-stadt").
	SlugToPageKey map[string]string `yaml:"slugToPageKeyMap" json:"slugToPageKeyMap"`
	// SlugOverrides pins the slug of specific instance names.
	SlugOverrides map[string]string `yaml:"slugOverrides,omitempty" json:"slugOverrides,omitempty"`
}

// DefaultPageKey returns the page rendered for a bare instance slug.
func (p Programmatic) DefaultPageKey() string {
	if len(p.Pages) == 0 {
		return ""
	}
	return p.Pages[0]
}

// StaticPage is a page with a fixed slug.
type StaticPage struct {
	Slug       string  `yaml:"slug" json:"slug"`
	PageKey    string  `yaml:"pageKey" json:"pageKey"`
	Priority   float64 `yaml:"priority,omitempty" json:"priority,omitempty"`
	ChangeFreq string  `yaml:"changefreq,omitempty" json:"changefreq,omitempty"`
}

// PageSEO holds metadata templates. Strings may contain {{instance}} placeholders.
type PageSEO struct {
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"`
	Keywords    []string `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	OGImage     string   `yaml:"ogImage,omitempty" json:"ogImage,omitempty"`
}

// Organization is the business behind a site.
type Organization struct {
	Name      string   `yaml:"name" json:"name"`
	Telephone string   `yaml:"telephone,omitempty" json:"telephone,omitempty"`
	Email     string   `yaml:"email,omitempty" json:"email,omitempty"`
	Logo      string   `yaml:"logo,omitempty" json:"logo,omitempty"`
	Street    string   `yaml:"street,omitempty" json:"street,omitempty"`
	PostCode  string   `yaml:"postCode,omitempty" json:"postCode,omitempty"`
	City      string   `yaml:"city,omitempty" json:"city,omitempty"`
	Country   string   `yaml:"country,omitempty" json:"country,omitempty"`
	SameAs    []string `yaml:"sameAs,omitempty" json:"sameAs,omitempty"`
}

// SiteLocale returns the configured locale or the German default.
func (s *Site) SiteLocale() string {
	if s.Locale == "" {
		return "de_DE"
	}
	return s.Locale
}

// StaticPageBySlug looks up a static page by its slug.
func (s *Site) StaticPageBySlug(slug string) (StaticPage, bool) {
	for _, p := range s.StaticPages {
		if p.Slug == slug {
			return p, true
		}
	}
	return StaticPage{}, false
}
