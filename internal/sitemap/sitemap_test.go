package sitemap

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/articles"
)

var runDate = time.Date(2026, 10, 19, 15, 4, 5, 0, time.UTC)

func smallSite() *api.Site {
	return &api.Site{
		ID:     "rnd",
		Domain: "https://www.restnutzungsdauer.de",
		Name:   "Restnutzungsdauer",
		Programmatic: api.Programmatic{
			Instances: []string{"Berlin", "Köln"},
			Pages:     []string{"rnd-stadt"},
		},
		StaticPages: []api.StaticPage{{Slug: "kontakt", PageKey: "kontakt"}},
	}
}

type parsed struct {
	URLs []struct {
		Loc        string `xml:"loc"`
		LastMod    string `xml:"lastmod"`
		ChangeFreq string `xml:"changefreq"`
		Priority   string `xml:"priority"`
	} `xml:"url"`
}

func render(t *testing.T, sm *Sitemap) parsed {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, sm.Write(&buf))
	assert.Contains(t, buf.String(), `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)

	var p parsed
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &p))
	return p
}

func TestBuild_Counts(t *testing.T) {
	p := render(t, Build(smallSite(), nil, runDate))
	require.Len(t, p.URLs, 4)

	for _, u := range p.URLs {
		prio, err := strconv.ParseFloat(u.Priority, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, prio, 0.0)
		assert.LessOrEqual(t, prio, 1.0)
		assert.Equal(t, "2026-10-19", u.LastMod)
	}

	locs := make([]string, len(p.URLs))
	for i, u := range p.URLs {
		locs[i] = u.Loc
	}
	assert.Equal(t, []string{
		"https://www.restnutzungsdauer.de/",
		"https://www.restnutzungsdauer.de/kontakt",
		"https://www.restnutzungsdauer.de/berlin",
		"https://www.restnutzungsdauer.de/koeln",
	}, locs)
	assert.Equal(t, "1.0", p.URLs[0].Priority)
	assert.Equal(t, "daily", p.URLs[0].ChangeFreq)
}

func TestBuild_Ordering(t *testing.T) {
	s := smallSite()
	s.Programmatic.SlugToPageKey = map[string]string{"rnd": "rnd-stadt"}
	s.StaticPages = append(s.StaticPages, api.StaticPage{Slug: "impressum", PageKey: "impressum", Priority: 0.2, ChangeFreq: "yearly"})
	s.LLMTxt = true
	list := []articles.Article{{Slug: "abschreibung"}}

	sm := Build(s, list, runDate)
	// home, 2 static, 2 instances, 2 nested, 1 article, llm.txt
	require.Len(t, sm.URLs, 9)

	for i := 1; i < len(sm.URLs); i++ {
		prev, cur := sm.URLs[i-1], sm.URLs[i]
		if prev.Priority == cur.Priority {
			assert.Less(t, prev.Loc, cur.Loc)
		} else {
			assert.Greater(t, prev.Priority, cur.Priority)
		}
	}

	byLoc := map[string]URL{}
	for _, u := range sm.URLs {
		byLoc[u.Loc] = u
	}
	assert.Equal(t, URL{Loc: "https://www.restnutzungsdauer.de/impressum", LastMod: "2026-10-19", ChangeFreq: "yearly", Priority: 0.2}, byLoc["https://www.restnutzungsdauer.de/impressum"])
	assert.Equal(t, Monthly, byLoc["https://www.restnutzungsdauer.de/rnd-koeln"].ChangeFreq)
	assert.Equal(t, Priority(0.6), byLoc["https://www.restnutzungsdauer.de/ratgeber/abschreibung"].Priority)
	assert.Equal(t, Priority(0.3), byLoc["https://www.restnutzungsdauer.de/llm.txt"].Priority)
}
