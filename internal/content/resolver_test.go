package content

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/api"
)

const gutachterPage = `{
  "components": [
    {"type": "hero", "id": "h1", "title": "Gutachter in {{instance}}", "subtitle": "Termine in {{ region }}"},
    {"type": "text", "id": "t1", "heading": "Warum {{instance}}?", "content": "Mehr unter /{{instanceSlug}} ({{unknown}})"},
    {"type": "faq", "id": "f1", "items": [{"id": "q1", "question": "Kosten in {{instance}}?", "answer": "Ab {{price}} Euro"}]}
  ]
}`

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/pages/gutachter-stadt.json", []byte(gutachterPage), 0o644))
	require.NoError(t, util.WriteFile(fs, "/pages/leer.json", []byte(`{"components": []}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "/instances/frankfurt-am-main.json", []byte(`{"region": "Rhein-Main", "price": 450}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "/articles/ignored.md", []byte("# x"), 0o644))

	reg := NewRegistry()
	n, err := reg.RegisterFS(fs)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	return reg
}

func TestRegistry_RegisterFS(t *testing.T) {
	reg := newTestRegistry(t)
	assert.Equal(t, []string{"instances/frankfurt-am-main", "pages/gutachter-stadt", "pages/leer"}, reg.Names())

	_, err := reg.Load(context.Background(), "pages/missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolver_Substitution(t *testing.T) {
	overrides := map[string]string{"Frankfurt am Main": "frankfurt-am-main"}
	r := NewResolver(newTestRegistry(t), overrides, nil)

	page, err := r.GetPageDataWithContent(context.Background(), "gutachter-stadt", "Frankfurt am Main")
	require.NoError(t, err)
	require.Len(t, page.Components, 3)
	assert.Equal(t, "frankfurt-am-main", page.InstanceSlug)

	hero := page.Components[0].(*api.Hero)
	assert.Equal(t, "Gutachter in Frankfurt am Main", hero.Title)
	assert.Equal(t, "Termine in Rhein-Main", hero.Subtitle)

	text := page.Components[1].(*api.Text)
	assert.Equal(t, "Mehr unter /frankfurt-am-main ({{unknown}})", text.Content)

	faq := page.Components[2].(*api.FAQ)
	assert.Equal(t, "Ab 450 Euro", faq.Items[0].Answer)
}

func TestResolver_InstanceWithoutData(t *testing.T) {
	r := NewResolver(newTestRegistry(t), nil, nil)

	page, err := r.GetPageDataWithContent(context.Background(), "gutachter-stadt", "Berlin")
	require.NoError(t, err)
	assert.Equal(t, "Gutachter in Berlin", page.Components[0].(*api.Hero).Title)
	assert.Equal(t, "Termine in {{ region }}", page.Components[0].(*api.Hero).Subtitle)
}

func TestResolver_StaticPageKeepsPlaceholders(t *testing.T) {
	r := NewResolver(newTestRegistry(t), nil, nil)

	page, err := r.GetPageDataWithContent(context.Background(), "gutachter-stadt", "")
	require.NoError(t, err)
	assert.Equal(t, "Gutachter in {{instance}}", page.Components[0].(*api.Hero).Title)
}

func TestResolver_EmptyAndMissing(t *testing.T) {
	r := NewResolver(newTestRegistry(t), nil, nil)

	page, err := r.GetPageDataWithContent(context.Background(), "leer", "")
	require.NoError(t, err)
	assert.True(t, page.Empty())

	_, err = r.GetPageDataWithContent(context.Background(), "missing", "")
	assert.ErrorIs(t, err, ErrNotFound)
}
