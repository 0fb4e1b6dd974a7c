package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/slug"
)

func testSite() *api.Site {
	return &api.Site{
		ID:     "gutachten",
		Domain: "https://www.gutachten.org",
		Name:   "Gutachten.org",
		Programmatic: api.Programmatic{
			Instances:     []string{"Berlin", "Köln"},
			Pages:         []string{"gutachter-stadt", "rnd-stadt"},
			SlugToPageKey: map[string]string{"gutachter": "gutachter-stadt", "restnutzungsdauer": "rnd-stadt"},
		},
		StaticPages: []api.StaticPage{
			{Slug: "kontakt", PageKey: "kontakt"},
			// a static page shadows a colliding instance slug
			{Slug: "berlin", PageKey: "berlin-special"},
		},
	}
}

func TestRouter_ResolveOrder(t *testing.T) {
	r := NewRouter(testSite())

	tests := []struct {
		slug string
		want slug.Route
	}{
		{"", slug.Route{Kind: slug.KindStatic, PageKey: HomePageKey}},
		{"grounding", slug.Route{Kind: slug.KindGrounding, PageKey: GroundingPageKey}},
		{"groundingpage", slug.Route{Kind: slug.KindGrounding, PageKey: GroundingPageKey}},
		{"kontakt", slug.Route{Kind: slug.KindStatic, PageKey: "kontakt"}},
		{"berlin", slug.Route{Kind: slug.KindStatic, PageKey: "berlin-special"}},
		{"koeln", slug.Route{Kind: slug.KindProgrammatic, PageKey: "gutachter-stadt", Instance: "Köln"}},
		{"restnutzungsdauer-berlin", slug.Route{Kind: slug.KindProgrammatic, PageKey: "rnd-stadt", Instance: "Berlin"}},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got, ok := r.Resolve(tt.slug)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := r.Resolve("hamburg")
	assert.False(t, ok)
}

func TestRouter_Entries(t *testing.T) {
	r := NewRouter(testSite())
	entries := r.Entries()

	counts := map[EntryKind]int{}
	for _, e := range entries {
		counts[e.Kind]++
	}
	assert.Equal(t, 1, counts[EntryHome])
	assert.Equal(t, 2, counts[EntryStatic])
	assert.Equal(t, 2, counts[EntryInstance])
	assert.Equal(t, 4, counts[EntryNested])
	assert.Equal(t, 1, counts[EntryGrounding])

	assert.Equal(t, "/", entries[0].Path())
	assert.Equal(t, "/gutachter-koeln", entries[len(entries)-2].Path())
}
