package codemod

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gutachten-org/sitekit/internal/syntax"
	"github.com/gutachten-org/sitekit/internal/writeback"
)

// contentKeys mark an object as a content block that needs an id.
var contentKeys = map[string]bool{
	"title": true, "name": true, "question": true, "answer": true, "items": true,
	"text": true, "heading": true, "description": true, "label": true,
	"content": true, "subtitle": true,
}

func jsonEdits(t *syntax.Tree, newID func() string) []writeback.Edit {
	var edits []writeback.Edit
	var visit func(n *sitter.Node, inArray bool)
	visit = func(n *sitter.Node, inArray bool) {
		if n.Type() == "object" {
			if e, ok := objectEdit(t, n, inArray, newID); ok {
				edits = append(edits, e)
			}
		}
		isArray := n.Type() == "array"
		for i := 0; i < int(n.NamedChildCount()); i++ {
			visit(n.NamedChild(i), isArray)
		}
	}
	visit(t.Root(), false)
	return edits
}

func objectEdit(t *syntax.Tree, obj *sitter.Node, inArray bool, newID func() string) (writeback.Edit, bool) {
	var (
		pairs      []*sitter.Node
		hasContent bool
	)
	for _, c := range syntax.NamedChildren(obj) {
		if c.Type() != "pair" {
			continue
		}
		pairs = append(pairs, c)
		key := syntax.PropertyKey(t, c)
		if key == "id" {
			return writeback.Edit{}, false
		}
		if contentKeys[key] {
			hasContent = true
		}
	}
	if !hasContent && !inArray {
		return writeback.Edit{}, false
	}

	field := `"id": ` + strconv.Quote(newID())
	if len(pairs) == 0 {
		at := t.Start(obj) + 1
		return writeback.Edit{Start: at, End: at, Text: field}, true
	}

	first := t.Start(pairs[0])
	lead := string(t.Source[t.Start(obj)+1 : first])
	sep := " "
	if i := strings.LastIndexByte(lead, '\n'); i >= 0 {
		sep = "\n" + lead[i+1:]
	}
	return writeback.Edit{Start: first, End: first, Text: field + "," + sep}, true
}
