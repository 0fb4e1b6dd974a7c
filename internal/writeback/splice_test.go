package writeback

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply(t *testing.T) {
	src := []byte("<p>Hallo</p><h1>Titel</h1>")
	got, err := Apply(src, []Edit{
		{Start: 15, End: 15, Text: ` data-sid="b"`},
		{Start: 2, End: 2, Text: ` data-sid="a"`},
	})
	require.NoError(t, err)
	assert.Equal(t, `<p data-sid="a">Hallo</p><h1 data-sid="b">Titel</h1>`, string(got))
}

func TestApply_ReplaceShorterLongerEmpty(t *testing.T) {
	src := []byte("AAA\nBBB\nCCC\n")

	got, err := Apply(src, []Edit{{Start: 4, End: 8, Text: ""}})
	require.NoError(t, err)
	assert.Equal(t, "AAA\nCCC\n", string(got))

	got, err = Apply(src, []Edit{{Start: 4, End: 7, Text: "B"}, {Start: 8, End: 11, Text: "CCCCC"}})
	require.NoError(t, err)
	assert.Equal(t, "AAA\nB\nCCCCC\n", string(got))
}

func TestApply_SameOffsetKeepsOrder(t *testing.T) {
	got, err := Apply([]byte("x"), []Edit{{Start: 0, End: 0, Text: "1"}, {Start: 0, End: 0, Text: "2"}})
	require.NoError(t, err)
	assert.Equal(t, "12x", string(got))
}

func TestApply_InvalidRanges(t *testing.T) {
	src := []byte("short")
	_, err := Apply(src, []Edit{{Start: 0, End: 100}})
	assert.Error(t, err)
	_, err = Apply(src, []Edit{{Start: 3, End: 1}})
	assert.Error(t, err)
	_, err = Apply(src, []Edit{{Start: 0, End: 3}, {Start: 2, End: 4}})
	assert.Error(t, err)
}

func TestSplice_Memfs(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "/content/pages/a.json", []byte(`{"title": "alt"}`), 0o644))

	require.NoError(t, Splice(fs, "/content/pages/a.json", Edit{Start: 11, End: 14, Text: "neu"}))

	got, err := util.ReadFile(fs, "/content/pages/a.json")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "neu"}`, string(got))
}

func TestSplice_NonexistentFile(t *testing.T) {
	err := Splice(memfs.New(), "/nope.json", Edit{Start: 0, End: 1})
	assert.Error(t, err)
}

func TestWriteFileAtomic_PreservesPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.tsx")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	require.NoError(t, WriteFileAtomic(osfs.New(dir), "page.tsx", []byte("new")))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
