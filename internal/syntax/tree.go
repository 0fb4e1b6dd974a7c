package syntax

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Tree is a parsed source file. Byte offsets reported by its helpers are
// offsets into the original source, also for JSON.
type Tree struct {
	Lang   Language
	Source []byte

	tree   *sitter.Tree
	offset int
}

// Parse builds a syntax tree for src.
func Parse(ctx context.Context, src []byte, lang Language) (*Tree, error) {
	grammar := lang.Grammar()
	if grammar == nil {
		return nil, fmt.Errorf("unsupported language %q", lang)
	}

	input, offset := src, 0
	if lang == JSON {
		input = make([]byte, 0, len(src)+2)
		input = append(input, '(')
		input = append(input, src...)
		input = append(input, ')')
		offset = 1
	}

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)
	tree, err := parser.ParseCtx(ctx, nil, input)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	if tree.RootNode() == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root")
	}
	return &Tree{Lang: lang, Source: src, tree: tree, offset: offset}, nil
}

// ParseFile detects the language of path and parses src.
func ParseFile(ctx context.Context, src []byte, path string) (*Tree, error) {
	lang, ok := DetectLanguage(path)
	if !ok {
		return nil, fmt.Errorf("%s: unsupported file type", path)
	}
	return Parse(ctx, src, lang)
}

// Root returns the root node.
func (t *Tree) Root() *sitter.Node { return t.tree.RootNode() }

// Close releases the underlying tree.
func (t *Tree) Close() { t.tree.Close() }

// Start is the source offset where n begins.
func (t *Tree) Start(n *sitter.Node) int { return t.clamp(int(n.StartByte()) - t.offset) }

// End is the source offset where n ends.
func (t *Tree) End(n *sitter.Node) int { return t.clamp(int(n.EndByte()) - t.offset) }

// Text returns the source text of n.
func (t *Tree) Text(n *sitter.Node) string { return string(t.Source[t.Start(n):t.End(n)]) }

// Line is the 1-based line of n.
func (t *Tree) Line(n *sitter.Node) int { return int(n.StartPoint().Row) + 1 }

func (t *Tree) clamp(i int) int {
	switch {
	case i < 0:
		return 0
	case i > len(t.Source):
		return len(t.Source)
	default:
		return i
	}
}

// Walk visits n and its descendants depth-first, children in source order.
// Returning false from fn skips the children of that node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}

// NamedChildren returns the named children of n.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		out = append(out, n.NamedChild(i))
	}
	return out
}

// PropertyKey returns the unquoted key of a pair node.
func PropertyKey(t *Tree, pair *sitter.Node) string {
	k := pair.ChildByFieldName("key")
	if k == nil {
		if pair.NamedChildCount() == 0 {
			return ""
		}
		k = pair.NamedChild(0)
	}
	raw := t.Text(k)
	if k.Type() == "string" {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
		return strings.Trim(raw, `"'`)
	}
	return raw
}
