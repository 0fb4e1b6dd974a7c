package ingest

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/store"
)

type memTarget struct {
	mu    sync.Mutex
	pages map[string]store.Page
}

func (m *memTarget) Put(_ context.Context, p store.Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pages == nil {
		m.pages = map[string]store.Page{}
	}
	m.pages[p.Slug] = p
	return nil
}

func testSite() *api.Site {
	return &api.Site{
		ID:     "gutachten",
		Domain: "https://www.gutachten.org",
		Name:   "Gutachten.org",
		Programmatic: api.Programmatic{
			Instances:     []string{"Berlin", "Köln"},
			Pages:         []string{"gutachter-stadt"},
			SlugToPageKey: map[string]string{"gutachter": "gutachter-stadt"},
		},
		StaticPages: []api.StaticPage{{Slug: "kontakt", PageKey: "kontakt"}},
	}
}

func testEngine(t *testing.T, target Target) *Engine {
	t.Helper()
	reg := content.NewRegistry()
	reg.RegisterBytes(content.PageName("home"), []byte(`{"components": [{"type": "hero", "id": "h", "title": "Willkommen"}]}`))
	reg.RegisterBytes(content.PageName("gutachter-stadt"), []byte(`{"components": [
		{"type": "hero", "id": "h", "title": "Gutachter in {{instance}}"},
		{"type": "faq", "id": "f", "items": [{"id": "q", "question": "Kosten in {{instance}}?", "answer": "Ab 450 Euro"}]}
	]}`))

	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/public/llm.txt", []byte("## Über uns\n\nWir bewerten Immobilien.\n"), 0o644))

	e := NewEngine(testSite(), content.NewResolver(reg, nil, nil), target, nil)
	e.Grounding = grounding.NewSource(fs, "/public/llm.txt")
	e.Now = func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func TestBuild(t *testing.T) {
	target := &memTarget{}
	res, err := testEngine(t, target).Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Written)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "kontakt", res.Failed[0].Slug)
	assert.ErrorIs(t, res.Failed[0], content.ErrNotFound)

	for _, s := range []string{"", "berlin", "koeln", "gutachter-berlin", "gutachter-koeln", "grounding"} {
		assert.Contains(t, target.pages, s)
	}

	koeln := target.pages["gutachter-koeln"]
	assert.Equal(t, "nested", koeln.Kind)
	assert.Equal(t, "Köln", koeln.Instance)
	assert.Contains(t, string(koeln.Components), "Gutachter in Köln")
	assert.Contains(t, string(koeln.JSONLD), `"FAQPage"`)
	assert.Contains(t, string(koeln.Metadata), "https://www.gutachten.org/gutachter-koeln")

	ground := target.pages["grounding"]
	assert.Contains(t, string(ground.Components), "Wir bewerten Immobilien.")
}

func TestBuild_EmptyPage(t *testing.T) {
	target := &memTarget{}
	e := testEngine(t, target)
	e.Site.StaticPages = nil
	e.Grounding = nil
	reg := content.NewRegistry()
	reg.RegisterBytes(content.PageName("home"), []byte(`{"components": []}`))
	e.Content = content.NewResolver(reg, nil, nil)

	res, err := e.Build(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Written)

	failed := map[string]error{}
	for _, f := range res.Failed {
		failed[f.Slug] = f.Err
	}
	assert.ErrorIs(t, failed[""], ErrEmptyPage)
	assert.ErrorIs(t, failed["grounding"], grounding.ErrSourceMissing)
	assert.ErrorIs(t, failed["berlin"], content.ErrNotFound)
}

func TestBuild_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testEngine(t, &memTarget{}).Build(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "pages.db")

	w, err := store.NewWriter(ctx, store.SQLite, dsn, nil)
	require.NoError(t, err)
	res, err := testEngine(t, w).Build(ctx)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, 6, res.Written)

	r, err := store.NewReader(store.SQLite, dsn)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	p, err := r.Lookup(ctx, "gutachten", "berlin")
	require.NoError(t, err)
	assert.Equal(t, "instance", p.Kind)
	assert.Equal(t, "gutachter-stadt", p.PageKey)
}
