// Package lint checks content sources for duplicate and missing stable ids and
// for syntax errors.
package lint

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gutachten-org/sitekit/internal/codemod"
	"github.com/gutachten-org/sitekit/internal/syntax"
)

type Diagnostic struct {
	Path    string
	Line    int // 1-based
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d: %s", d.Path, d.Line, d.Message)
}

// jsonIDs captures every "id": "<value>" pair.
const jsonIDs = `(pair key: (string) @key value: (string) @value)`

// jsonBlocks captures the objects of "components" arrays.
const jsonBlocks = `(pair key: (string) @key value: (array (object) @block))`

// jsxIDs captures string-valued JSX attributes.
const jsxIDs = `(jsx_attribute (property_identifier) @name (string) @value)`

// Lint checks one file. Files of unknown type yield no diagnostics.
func Lint(ctx context.Context, path string, src []byte) ([]Diagnostic, error) {
	lang, ok := syntax.DetectLanguage(path)
	if !ok {
		return nil, nil
	}

	var diags []Diagnostic
	for _, e := range syntax.Errors(src, path) {
		diags = append(diags, Diagnostic{Path: path, Line: int(e.Line) + 1, Message: e.Message})
	}
	if len(diags) > 0 {
		return diags, nil
	}

	t, err := syntax.Parse(ctx, src, lang)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	switch lang {
	case syntax.JSON:
		d, err := lintJSON(t, path)
		if err != nil {
			return nil, err
		}
		diags = append(diags, d...)
	case syntax.TSX:
		d, err := lintJSX(t, path)
		if err != nil {
			return nil, err
		}
		diags = append(diags, d...)
	}

	sort.SliceStable(diags, func(i, j int) bool { return diags[i].Line < diags[j].Line })
	return diags, nil
}

type idUse struct {
	value string
	line  int
}

func lintJSON(t *syntax.Tree, path string) ([]Diagnostic, error) {
	var ids []idUse
	err := query(t, jsonIDs, func(caps map[string]*sitter.Node) {
		if unquote(t, caps["key"]) == "id" {
			ids = append(ids, idUse{value: unquote(t, caps["value"]), line: t.Line(caps["value"])})
		}
	})
	if err != nil {
		return nil, err
	}
	diags := duplicates(path, ids)

	err = query(t, jsonBlocks, func(caps map[string]*sitter.Node) {
		if unquote(t, caps["key"]) != "components" {
			return
		}
		block := caps["block"]
		for _, c := range syntax.NamedChildren(block) {
			if c.Type() == "pair" && syntax.PropertyKey(t, c) == "id" {
				return
			}
		}
		diags = append(diags, Diagnostic{Path: path, Line: t.Line(block), Message: "component without id"})
	})
	if err != nil {
		return nil, err
	}
	return diags, nil
}

func lintJSX(t *syntax.Tree, path string) ([]Diagnostic, error) {
	var ids []idUse
	err := query(t, jsxIDs, func(caps map[string]*sitter.Node) {
		name := t.Text(caps["name"])
		for _, attr := range codemod.IDAttributes {
			if name == attr {
				ids = append(ids, idUse{value: unquote(t, caps["value"]), line: t.Line(caps["value"])})
				return
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return duplicates(path, ids), nil
}

func duplicates(path string, ids []idUse) []Diagnostic {
	first := make(map[string]int, len(ids))
	var diags []Diagnostic
	for _, id := range ids {
		if id.value == "" {
			diags = append(diags, Diagnostic{Path: path, Line: id.line, Message: "empty id"})
			continue
		}
		if line, seen := first[id.value]; seen {
			diags = append(diags, Diagnostic{
				Path:    path,
				Line:    id.line,
				Message: fmt.Sprintf("duplicate id %q (first used on line %d)", id.value, line),
			})
			continue
		}
		first[id.value] = id.line
	}
	return diags
}

// query runs a tree-sitter query and hands each match's captures to fn by name.
func query(t *syntax.Tree, pattern string, fn func(map[string]*sitter.Node)) error {
	q, err := sitter.NewQuery([]byte(pattern), t.Lang.Grammar())
	if err != nil {
		return fmt.Errorf("compile query: %w", err)
	}
	defer q.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, t.Root())

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		caps := make(map[string]*sitter.Node, len(m.Captures))
		for _, c := range m.Captures {
			caps[q.CaptureNameForId(c.Index)] = c.Node
		}
		fn(caps)
	}
	return nil
}

func unquote(t *syntax.Tree, n *sitter.Node) string {
	raw := t.Text(n)
	if len(raw) >= 2 {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// FS lints every file the scanner's globs select. Paths in diagnostics are
// relative to the root of fs.
func FS(ctx context.Context, fs billy.Filesystem, s *codemod.Scanner) ([]Diagnostic, error) {
	files, err := s.Files(ctx, fs)
	if err != nil {
		return nil, err
	}
	var all []Diagnostic
	for _, name := range files {
		src, err := util.ReadFile(fs, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		d, err := Lint(ctx, strings.TrimPrefix(name, "/"), src)
		if err != nil {
			return nil, err
		}
		all = append(all, d...)
	}
	return all, nil
}
