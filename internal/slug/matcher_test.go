package slug

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/gutachten-org/sitekit/api"
)

func testProgrammatic() api.Programmatic {
	return api.Programmatic{
		Instances: []string{"Berlin", "München", "Frankfurt am Main"},
		Pages:     []string{"gutachter-stadt", "restnutzungsdauer-stadt", "rnd-gutachten-stadt"},
		SlugToPageKey: map[string]string{
			"gutachter":                   "gutachter-stadt",
			"restnutzungsdauer":           "restnutzungsdauer-stadt",
			"restnutzungsdauer-gutachten": "rnd-gutachten-stadt",
		},
		SlugOverrides: map[string]string{"Frankfurt am Main": "frankfurt-am-main"},
	}
}

func TestMatcher_Resolve(t *testing.T) {
	m := NewMatcher(testProgrammatic())

	tests := []struct {
		slug string
		want Route
		ok   bool
	}{
		{"gutachter-berlin", Route{Kind: KindProgrammatic, PageKey: "gutachter-stadt", Instance: "Berlin"}, true},
		{"Gutachter-Berlin", Route{Kind: KindProgrammatic, PageKey: "gutachter-stadt", Instance: "Berlin"}, true},
		{"restnutzungsdauer-muenchen", Route{Kind: KindProgrammatic, PageKey: "restnutzungsdauer-stadt", Instance: "München"}, true},
		{"restnutzungsdauer-gutachten-berlin", Route{Kind: KindProgrammatic, PageKey: "rnd-gutachten-stadt", Instance: "Berlin"}, true},
		{"frankfurt-am-main", Route{Kind: KindProgrammatic, PageKey: "gutachter-stadt", Instance: "Frankfurt am Main"}, true},
		{"berlin", Route{Kind: KindProgrammatic, PageKey: "gutachter-stadt", Instance: "Berlin"}, true},
		{"gutachter-hamburg", Route{}, false},
		{"impressum", Route{}, false},
		{"gutachter-", Route{}, false},
		{"", Route{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			got, ok := m.Resolve(tt.slug)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatcher_LongestPrefixFirst(t *testing.T) {
	m := NewMatcher(testProgrammatic())
	assert.Equal(t, []string{"restnutzungsdauer-gutachten", "restnutzungsdauer", "gutachter"}, m.Prefixes())

	route, ok := m.Resolve("restnutzungsdauer-gutachten-berlin")
	require.True(t, ok)
	assert.Equal(t, "rnd-gutachten-stadt", route.PageKey)
}

func TestMatcher_RegexMetacharactersInPrefix(t *testing.T) {
	m := NewMatcher(api.Programmatic{
		Instances:     []string{"Berlin"},
		Pages:         []string{"home"},
		SlugToPageKey: map[string]string{"a.b": "dotted"},
	})

	_, ok := m.Resolve("axb-berlin")
	assert.False(t, ok)

	route, ok := m.Resolve("a.b-berlin")
	require.True(t, ok)
	assert.Equal(t, "dotted", route.PageKey)
}

func TestMatcher_NoPagesMeansNoBareInstance(t *testing.T) {
	m := NewMatcher(api.Programmatic{Instances: []string{"Berlin"}})
	_, ok := m.Resolve("berlin")
	assert.False(t, ok)
}

func TestMatcher_RoundTrip(t *testing.T) {
	prefixes := map[string]string{
		"gutachter":                   "gutachter-stadt",
		"restnutzungsdauer":           "restnutzungsdauer-stadt",
		"restnutzungsdauer-gutachten": "rnd-gutachten-stadt",
		"bausachverstaendiger":        "bau-stadt",
	}

	rapid.Check(t, func(t *rapid.T) {
		names := rapid.SliceOfNDistinct(
			rapid.StringMatching(`[A-ZÄÖÜ][a-zäöüß]{2,10}( [A-Z][a-z]{2,8})?`),
			1, 8,
			func(s string) string { return Normalize(s) },
		).Draw(t, "instances")

		p := api.Programmatic{
			Instances:     names,
			Pages:         []string{"gutachter-stadt"},
			SlugToPageKey: prefixes,
		}
		m := NewMatcher(p)

		for prefix, pageKey := range prefixes {
			for _, name := range names {
				s := InstanceSlug(name, nil)
				// a longer prefix would legitimately claim this slug
				if strings.HasPrefix(s, "gutachten-") && prefix == "restnutzungsdauer" {
					continue
				}
				got, ok := m.Resolve(Join(prefix, s))
				if !ok {
					t.Fatalf("Resolve(%q) not found", Join(prefix, s))
				}
				want := Route{Kind: KindProgrammatic, PageKey: pageKey, Instance: name}
				if got != want {
					t.Fatalf("Resolve(%q) = %+v, want %+v", Join(prefix, s), got, want)
				}
			}
		}
	})
}
