package syntax

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectLanguage(t *testing.T) {
	tests := map[string]Language{
		"app/page.tsx":         TSX,
		"Hero.jsx":             TSX,
		"lib/seo.ts":           TypeScript,
		"scripts/sitemap.mjs":  JavaScript,
		"content/pages/x.JSON": JSON,
	}
	for path, want := range tests {
		got, ok := DetectLanguage(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := DetectLanguage("README.md")
	assert.False(t, ok)
}

func TestValidate_ValidTSX(t *testing.T) {
	src := []byte(`export default function Page() {
  return <main><h1 className="x">Hallo {name}</h1></main>;
}
`)
	assert.NoError(t, Validate(src, "page.tsx"))
}

func TestValidate_BrokenTSX(t *testing.T) {
	src := []byte("export default function Page() {\n  return <main><h1>Hallo</main>;\n")
	err := Validate(src, "page.tsx")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "page.tsx", ve.FilePath)
}

func TestValidate_JSON(t *testing.T) {
	assert.NoError(t, Validate([]byte(`{"components": [{"type": "hero", "title": "x"}]}`), "a.json"))
	assert.Error(t, Validate([]byte(`{"components": [}`), "a.json"))
}

func TestValidate_UnknownExtensionPassThrough(t *testing.T) {
	assert.NoError(t, Validate([]byte("not code {{{"), "notes.txt"))
}

func TestErrors(t *testing.T) {
	errs := Errors([]byte("const a = ;\nconst b = ;\n"), "x.ts")
	require.NotEmpty(t, errs)
	assert.Equal(t, "x.ts", errs[0].FilePath)
	assert.Nil(t, Errors([]byte("const a = 1;\n"), "x.ts"))
}

func TestTree_JSONOffsets(t *testing.T) {
	src := []byte(`{"title": "Gutachten"}`)
	tree, err := Parse(context.Background(), src, JSON)
	require.NoError(t, err)
	defer tree.Close()

	var str *sitter.Node
	Walk(tree.Root(), func(n *sitter.Node) bool {
		if n.Type() == "string" && tree.Text(n) == `"Gutachten"` {
			str = n
		}
		return true
	})
	require.NotNil(t, str)
	assert.Equal(t, 10, tree.Start(str))
	assert.Equal(t, len(src)-1, tree.End(str))
}
