package codemod

import (
	"context"
	"fmt"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestCodemod() *Codemod {
	return &Codemod{NewID: sequentialIDs()}
}

const pageTSX = `import Head from "next/head";

export default function Page({ city }: { city: string }) {
  return (
    <>
      <Head><title>Gutachten</title></Head>
      <section>
        <h1>Gutachter in {city}</h1>
        <p data-sid="keep">Schon markiert</p>
        <p>
          Unabhängig und zertifiziert.
        </p>
        <div>Kein Inhaltstag</div>
        <ul>
          <li>{/* nur Kommentar */}</li>
          <li>Eintrag</li>
        </ul>
        <Hero title="x" />
        <Card>Text im Component</Card>
        <React.Fragment>Fragment</React.Fragment>
        <span stableId="s">Schon markiert</span>
      </section>
    </>
  );
}
`

func TestTransform_TSX(t *testing.T) {
	out, added, err := newTestCodemod().Transform(context.Background(), "app/page.tsx", []byte(pageTSX))
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	got := string(out)
	assert.Contains(t, got, `<h1 data-sid="id-1">Gutachter in {city}</h1>`)
	assert.Contains(t, got, `<p data-sid="id-2">`)
	assert.Contains(t, got, `<li data-sid="id-3">Eintrag</li>`)
	assert.Contains(t, got, `<Card data-sid="id-4">Text im Component</Card>`)
	assert.Contains(t, got, `<div>Kein Inhaltstag</div>`)
	assert.Contains(t, got, `<Head><title>Gutachten</title></Head>`)
	assert.Contains(t, got, `<React.Fragment>Fragment</React.Fragment>`)
	assert.Contains(t, got, `<li>{/* nur Kommentar */}</li>`)
	assert.Contains(t, got, `<p data-sid="keep">Schon markiert</p>`)
}

const pageJSON = `{
  "components": [
    {
      "type": "hero",
      "title": "Gutachter in {{instance}}"
    },
    {
      "type": "faq",
      "id": "existing",
      "items": [
        {"question": "Was kostet es?", "answer": "Ab 450 Euro"},
        {}
      ]
    }
  ],
  "meta": {"robots": "index"},
  "seo": {"title": "x"}
}
`

func TestTransform_JSON(t *testing.T) {
	out, added, err := newTestCodemod().Transform(context.Background(), "content/pages/gutachter.json", []byte(pageJSON))
	require.NoError(t, err)
	assert.Equal(t, 4, added)

	want := `{
  "components": [
    {
      "id": "id-1",
      "type": "hero",
      "title": "Gutachter in {{instance}}"
    },
    {
      "type": "faq",
      "id": "existing",
      "items": [
        {"id": "id-2", "question": "Was kostet es?", "answer": "Ab 450 Euro"},
        {"id": "id-3"}
      ]
    }
  ],
  "meta": {"robots": "index"},
  "seo": {"id": "id-4", "title": "x"}
}
`
	assert.Equal(t, want, string(out))
}

func TestTransform_Idempotent(t *testing.T) {
	c := newTestCodemod()
	ctx := context.Background()

	for _, tc := range []struct{ path, src string }{
		{"app/page.tsx", pageTSX},
		{"content/pages/gutachter.json", pageJSON},
	} {
		first, added, err := c.Transform(ctx, tc.path, []byte(tc.src))
		require.NoError(t, err)
		require.Positive(t, added)

		second, added, err := c.Transform(ctx, tc.path, first)
		require.NoError(t, err)
		assert.Zero(t, added, tc.path)
		assert.Equal(t, string(first), string(second), tc.path)
	}
}

func TestTransform_RejectsBrokenSource(t *testing.T) {
	_, _, err := newTestCodemod().Transform(context.Background(), "a.json", []byte(`{"title": `))
	assert.ErrorIs(t, err, ErrSyntax)
}

func TestScanner_WriteAndDryRun(t *testing.T) {
	fs := memfs.New()
	files := map[string]string{
		"/app/page.tsx":                 pageTSX,
		"/content/pages/gutachter.json": pageJSON,
		"/content/pages/broken.json":    `{"title": `,
		"/node_modules/pkg/index.tsx":   `export const X = () => <p>x</p>;`,
		"/app/page.test.tsx":            `export const X = () => <p>x</p>;`,
		"/data/other.json":              `{"title": "not content dir"}`,
		"/components/Hero.jsx":          `export const Hero = () => <h2>Titel</h2>;`,
	}
	for name, src := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(src), 0o644))
	}

	s := NewScanner(nil)
	s.Codemod = newTestCodemod()

	report, err := s.Run(context.Background(), fs)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Total)
	assert.Equal(t, 1, report.Failed)
	assert.Len(t, report.Files, 4)

	unchanged, err := util.ReadFile(fs, "/app/page.tsx")
	require.NoError(t, err)
	assert.Equal(t, pageTSX, string(unchanged), "dry run must not write")

	s.Write = true
	report, err = s.Run(context.Background(), fs)
	require.NoError(t, err)
	assert.Equal(t, 9, report.Total)
	assert.Len(t, report.Changed(), 3)

	report, err = s.Run(context.Background(), fs)
	require.NoError(t, err)
	assert.Zero(t, report.Total, "second write run must add nothing")
	assert.Equal(t, 1, report.Failed)
}

func TestScanner_InvalidGlob(t *testing.T) {
	s := NewScanner(nil)
	s.Include = []string{"[unclosed"}
	_, err := s.Run(context.Background(), memfs.New())
	assert.Error(t, err)
}
