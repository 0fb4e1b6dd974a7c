// Package sitemap builds the sitemap-protocol XML of a site.
package sitemap

import (
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/articles"
	"github.com/gutachten-org/sitekit/internal/seo"
	"github.com/gutachten-org/sitekit/internal/site"
)

const (
	xmlns      = "http://www.sitemaps.org/schemas/sitemap/0.9"
	dateLayout = "2006-01-02"
	// LLMTxtPath is listed when the site publishes llm.txt.
	LLMTxtPath = "/llm.txt"
)

type ChangeFreq string

const (
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
)

// URL is one <url> element.
type URL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod"`
	ChangeFreq ChangeFreq `xml:"changefreq"`
	Priority   Priority   `xml:"priority"`
}

// Priority marshals with one decimal.
type Priority float64

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("%.1f", float64(p))), nil
}

type urlset struct {
	XMLName xml.Name `xml:"urlset"`
	Xmlns   string   `xml:"xmlns,attr"`
	URLs    []URL    `xml:"url"`
}

// Sitemap is an ordered list of URLs.
type Sitemap struct {
	URLs []URL
}

// Build lists every published page of s plus its articles, dated now.
// Entries are ordered by priority, highest first, then by URL.
func Build(s *api.Site, list []articles.Article, now time.Time) *Sitemap {
	lastmod := now.Format(dateLayout)
	sm := &Sitemap{}
	add := func(path string, freq ChangeFreq, prio float64) {
		sm.URLs = append(sm.URLs, URL{
			Loc:        seo.CanonicalURL(s, path),
			LastMod:    lastmod,
			ChangeFreq: freq,
			Priority:   Priority(prio),
		})
	}

	for _, e := range site.NewRouter(s).Entries() {
		switch e.Kind {
		case site.EntryHome:
			add(e.Path(), Daily, 1.0)
		case site.EntryStatic:
			prio, freq := 0.8, Weekly
			if e.Static.Priority > 0 && e.Static.Priority <= 1 {
				prio = e.Static.Priority
			}
			if e.Static.ChangeFreq != "" {
				freq = ChangeFreq(e.Static.ChangeFreq)
			}
			add(e.Path(), freq, prio)
		case site.EntryInstance:
			add(e.Path(), Weekly, 0.7)
		case site.EntryNested:
			add(e.Path(), Monthly, 0.6)
		}
	}
	for _, a := range list {
		add(a.Path(), Monthly, 0.6)
	}
	if s.LLMTxt {
		add(LLMTxtPath, Monthly, 0.3)
	}

	sort.SliceStable(sm.URLs, func(i, j int) bool {
		if sm.URLs[i].Priority != sm.URLs[j].Priority {
			return sm.URLs[i].Priority > sm.URLs[j].Priority
		}
		return sm.URLs[i].Loc < sm.URLs[j].Loc
	})
	return sm
}

// Write emits the XML document.
func (sm *Sitemap) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(urlset{Xmlns: xmlns, URLs: sm.URLs}); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}
