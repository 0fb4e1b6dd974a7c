package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/internal/store"
)

const sitesYAML = `sites:
  - id: gutachten
    domain: https://www.gutachten.org/
    name: Gutachten.org
    llmTxt: true
    programmatic:
      programmaticInstances: ["Berlin", "Köln"]
      pages: ["gutachter-stadt"]
      slugToPageKeyMap:
        gutachter: gutachter-stadt
    staticPages:
      - slug: kontakt
        pageKey: kontakt
`

type workspace struct {
	dir     string
	content string
	public  string
	sites   string
}

func newWorkspace(t *testing.T) workspace {
	t.Helper()
	dir := t.TempDir()
	ws := workspace{
		dir:     dir,
		content: filepath.Join(dir, "content"),
		public:  filepath.Join(dir, "public"),
		sites:   filepath.Join(dir, "sites.yaml"),
	}
	require.NoError(t, os.WriteFile(ws.sites, []byte(sitesYAML), 0o644))

	write := func(rel, data string) {
		p := filepath.Join(ws.content, "gutachten", rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(data), 0o644))
	}
	write("pages/home.json", `{"components": [{"type": "hero", "id": "h1", "title": "Immobiliengutachten"}]}`)
	write("pages/gutachter-stadt.json", `{"components": [
  {"type": "hero", "id": "h1", "title": "Gutachter in {{instance}}"}
]}`)
	write("pages/kontakt.json", `{"components": [{"type": "text", "id": "t1", "content": "Schreiben Sie uns."}]}`)
	write("articles/kosten.md", "---\ntitle: Was kostet ein Gutachten?\ndate: 2024-05-01\n---\n\n# Kosten\n\nAb 450 Euro.\n")
	return ws
}

func (ws workspace) flags() []string {
	return []string{"--sites", ws.sites, "--content-dir", ws.content, "--public-dir", ws.public, "--site", "gutachten"}
}

// execute runs the root command with fresh flag values.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func TestSitemapCommand(t *testing.T) {
	ws := newWorkspace(t)

	out, err := execute(t, append([]string{"sitemap"}, ws.flags()...)...)
	require.NoError(t, err, out)

	data, err := os.ReadFile(filepath.Join(ws.public, "sitemap.xml"))
	require.NoError(t, err)
	xml := string(data)
	assert.Contains(t, xml, "<loc>https://www.gutachten.org/</loc>")
	assert.Contains(t, xml, "<loc>https://www.gutachten.org/gutachter-koeln</loc>")
	assert.Contains(t, xml, "<loc>https://www.gutachten.org/ratgeber/kosten</loc>")
	assert.Contains(t, xml, "<loc>https://www.gutachten.org/llm.txt</loc>")
	assert.Contains(t, out, "Wrote")
}

func TestBuildCommand(t *testing.T) {
	ws := newWorkspace(t)
	db := filepath.Join(ws.dir, "pages.db")

	out, err := execute(t, append([]string{"build", "--db", db}, ws.flags()...)...)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Wrote")

	r, err := store.NewReader("", db)
	require.NoError(t, err)
	defer r.Close()

	p, err := r.Lookup(context.Background(), "gutachten", "gutachter-berlin")
	require.NoError(t, err)
	assert.Equal(t, "gutachter-stadt", p.PageKey)
	assert.Equal(t, "Berlin", p.Instance)
	assert.Contains(t, string(p.Components), "Gutachter in Berlin")
}

func TestLLMTxtRequiresKey(t *testing.T) {
	ws := newWorkspace(t)
	t.Setenv("OPENROUTER_API_KEY", "")
	t.Setenv("SITEKIT_LLM_OPENROUTER_API_KEY", "")

	_, err := execute(t, append([]string{"llm-txt", "gutachten"}, ws.flags()...)...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing API key")

	_, err = execute(t, append([]string{"llm-txt"}, ws.flags()...)...)
	require.Error(t, err)
}

func TestStableIDsCommand(t *testing.T) {
	ws := newWorkspace(t)
	tsx := filepath.Join(ws.dir, "app", "Hero.tsx")
	require.NoError(t, os.MkdirAll(filepath.Dir(tsx), 0o755))
	src := "export function Hero() {\n  return <h1>Gutachten</h1>\n}\n"
	require.NoError(t, os.WriteFile(tsx, []byte(src), 0o644))

	_, err := execute(t, "stable-ids", "--root", ws.dir)
	require.Error(t, err, "a mode flag is required")

	out, err := execute(t, "stable-ids", "--dry-run", "--root", ws.dir, "--include", "app/**/*.tsx")
	require.NoError(t, err, out)
	assert.Contains(t, out, "would add 1 ids")
	data, _ := os.ReadFile(tsx)
	assert.Equal(t, src, string(data))

	out, err = execute(t, "stable-ids", "--write", "--root", ws.dir, "--include", "app/**/*.tsx")
	require.NoError(t, err, out)
	assert.Contains(t, out, "added 1 ids")
	data, _ = os.ReadFile(tsx)
	assert.Contains(t, string(data), `<h1 data-sid="`)

	_, err = execute(t, "stable-ids", "--dry-run", "--write", "--root", ws.dir)
	require.Error(t, err)
}

func TestEditAndLintCommands(t *testing.T) {
	ws := newWorkspace(t)
	page := filepath.Join(ws.content, "gutachten", "pages", "home.json")

	out, err := execute(t, append([]string{"edit-text", page, "h1", "title", `Gutachten "bundesweit"`}, ws.flags()...)...)
	require.NoError(t, err, out)
	data, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Gutachten \"bundesweit\""`)

	_, err = execute(t, append([]string{"edit-text", page, "missing", "title", "x"}, ws.flags()...)...)
	require.Error(t, err)

	out, err = execute(t, append([]string{"lint", ws.dir}, ws.flags()...)...)
	require.NoError(t, err, out)

	dup := filepath.Join(ws.content, "gutachten", "pages", "dup.json")
	require.NoError(t, os.WriteFile(dup, []byte(`{"components": [
  {"type": "text", "id": "a", "content": "x"},
  {"type": "text", "id": "a", "content": "y"}
]}`), 0o644))
	out, err = execute(t, append([]string{"lint", dup}, ws.flags()...)...)
	require.Error(t, err)
	assert.Contains(t, out, `duplicate id "a"`)
}
