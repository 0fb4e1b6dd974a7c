// Package writeback applies byte-range edits to source files and writes them
// back atomically.
package writeback

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Edit replaces src[Start:End] with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Apply returns src with all edits applied. Edits may come in any order but
// must not overlap; two insertions at the same offset keep their given order.
func Apply(src []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return src, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	size := len(src)
	for i, e := range sorted {
		if e.Start < 0 || e.End > len(src) || e.Start > e.End {
			return nil, fmt.Errorf("invalid byte range [%d:%d] for source of length %d", e.Start, e.End, len(src))
		}
		if i > 0 && e.Start < sorted[i-1].End {
			return nil, fmt.Errorf("overlapping edits [%d:%d] and [%d:%d]", sorted[i-1].Start, sorted[i-1].End, e.Start, e.End)
		}
		size += len(e.Text) - (e.End - e.Start)
	}

	// result = prefix + text + ... + suffix
	result := make([]byte, 0, size)
	last := 0
	for _, e := range sorted {
		result = append(result, src[last:e.Start]...)
		result = append(result, e.Text...)
		last = e.End
	}
	result = append(result, src[last:]...)
	return result, nil
}

// Splice applies a single edit to the file name in fs.
func Splice(fs billy.Filesystem, name string, edit Edit) error {
	src, err := util.ReadFile(fs, name)
	if err != nil {
		return fmt.Errorf("read source %s: %w", name, err)
	}
	out, err := Apply(src, []Edit{edit})
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return WriteFileAtomic(fs, name, out)
}

// WriteFileAtomic writes data to a temp file next to name and renames it over name.
// The mode of an existing file is kept where the filesystem supports it.
func WriteFileAtomic(fs billy.Filesystem, name string, data []byte) error {
	dir := path.Dir(name)
	tmp, err := util.TempFile(fs, dir, ".sitekit-write-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("close temp: %w", err)
	}

	if info, err := fs.Stat(name); err == nil {
		if ch, ok := fs.(billy.Change); ok {
			_ = ch.Chmod(tmpName, info.Mode()) // best-effort permission sync
		}
	} else if !os.IsNotExist(err) {
		_ = fs.Remove(tmpName)
		return fmt.Errorf("stat %s: %w", name, err)
	}

	if err := fs.Rename(tmpName, name); err != nil {
		_ = fs.Remove(tmpName) // best-effort cleanup
		return fmt.Errorf("rename temp to %s: %w", name, err)
	}
	return nil
}
