package lint

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/internal/codemod"
)

func TestLintJSON(t *testing.T) {
	src := `{
  "components": [
    {"id": "a", "type": "hero"},
    {"type": "text", "content": "x"},
    {"id": "a", "type": "faq", "items": [{"id": "q1", "question": "?"}]}
  ]
}`
	diags, err := Lint(context.Background(), "content/pages/home.json", []byte(src))
	require.NoError(t, err)
	require.Len(t, diags, 2)

	assert.Equal(t, 4, diags[0].Line)
	assert.Equal(t, "component without id", diags[0].Message)
	assert.Equal(t, 5, diags[1].Line)
	assert.Contains(t, diags[1].Message, `duplicate id "a" (first used on line 3)`)
	assert.Equal(t, "content/pages/home.json:4: component without id", diags[0].String())
}

func TestLintJSXDuplicates(t *testing.T) {
	src := `export function Page() {
  return (
    <section data-sid="s1">
      <h1 data-sid="s2">Titel</h1>
      <p data-sid="s1">Text</p>
    </section>
  );
}
`
	diags, err := Lint(context.Background(), "app/page.tsx", []byte(src))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, 5, diags[0].Line)
}

func TestLintSyntaxError(t *testing.T) {
	diags, err := Lint(context.Background(), "content/pages/broken.json", []byte(`{"components": [`))
	require.NoError(t, err)
	require.NotEmpty(t, diags)
	assert.Equal(t, 1, diags[0].Line)
}

func TestLintUnknownType(t *testing.T) {
	diags, err := Lint(context.Background(), "README.md", []byte("# hi"))
	require.NoError(t, err)
	assert.Empty(t, diags)
}

func TestFS(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/content/pages/home.json", []byte(`{"components": [{"id": "x", "type": "hero"}]}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "/content/pages/about.json", []byte(`{"components": [{"type": "hero"}]}`), 0o644))
	require.NoError(t, util.WriteFile(fs, "/node_modules/pkg/index.tsx", []byte(`<a data-sid="1"/>; <b data-sid="1"/>;`), 0o644))

	diags, err := FS(context.Background(), fs, codemod.NewScanner(nil))
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, "content/pages/about.json", diags[0].Path)
}
