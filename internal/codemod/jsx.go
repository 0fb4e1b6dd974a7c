package codemod

import (
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gutachten-org/sitekit/internal/syntax"
	"github.com/gutachten-org/sitekit/internal/writeback"
)

// IDAttribute is the attribute the codemod inserts.
const IDAttribute = "data-sid"

// IDAttributes are the attribute names that already mark an element.
var IDAttributes = []string{"data-sid", "data-stable-id", "stableId"}

var contentTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "td": true, "th": true, "dt": true, "dd": true,
	"span": true, "a": true, "button": true, "label": true, "strong": true, "em": true,
	"blockquote": true, "figcaption": true, "caption": true, "summary": true,
}

var excludedComponents = map[string]bool{
	"Fragment":       true,
	"React.Fragment": true,
	"Suspense":       true,
	"StrictMode":     true,
	"Head":           true,
	"Script":         true,
}

func jsxEdits(t *syntax.Tree, newID func() string) []writeback.Edit {
	var edits []writeback.Edit
	syntax.Walk(t.Root(), func(n *sitter.Node) bool {
		if n.Type() != "jsx_element" {
			return true
		}
		if at, ok := qualifyingElement(t, n); ok {
			edits = append(edits, writeback.Edit{
				Start: at,
				End:   at,
				Text:  " " + IDAttribute + `="` + newID() + `"`,
			})
		}
		return true
	})
	return edits
}

// qualifyingElement reports whether a jsx_element needs an id and returns the
// offset right after its tag name.
func qualifyingElement(t *syntax.Tree, el *sitter.Node) (int, bool) {
	open := childOfType(el, "jsx_opening_element")
	if open == nil {
		return 0, false
	}

	var (
		name     *sitter.Node
		insertAt int
	)
	for _, c := range syntax.NamedChildren(open) {
		switch c.Type() {
		case "jsx_attribute":
			if hasIDAttribute(t, c) {
				return 0, false
			}
		case "type_arguments":
			if name != nil {
				insertAt = t.End(c)
			}
		case "identifier", "member_expression", "nested_identifier", "jsx_namespace_name", "property_identifier":
			if name == nil {
				name = c
				insertAt = t.End(c)
			}
		}
	}
	// fragments have no name
	if name == nil {
		return 0, false
	}

	tag := t.Text(name)
	if !contentTags[tag] && !isCustomComponent(tag) {
		return 0, false
	}
	if !hasDirectContent(t, el) {
		return 0, false
	}
	return insertAt, true
}

func isCustomComponent(tag string) bool {
	if excludedComponents[tag] {
		return false
	}
	if strings.Contains(tag, ".") {
		return true
	}
	r, _ := utf8.DecodeRuneInString(tag)
	return unicode.IsUpper(r)
}

func hasIDAttribute(t *syntax.Tree, attr *sitter.Node) bool {
	if attr.NamedChildCount() == 0 {
		return false
	}
	name := t.Text(attr.NamedChild(0))
	for _, id := range IDAttributes {
		if name == id {
			return true
		}
	}
	return false
}

// hasDirectContent is true for non-blank text or a non-comment expression
// directly inside the element.
func hasDirectContent(t *syntax.Tree, el *sitter.Node) bool {
	for i := 0; i < int(el.ChildCount()); i++ {
		c := el.Child(i)
		switch c.Type() {
		case "jsx_text":
			if strings.TrimSpace(t.Text(c)) != "" {
				return true
			}
		case "jsx_expression":
			for _, inner := range syntax.NamedChildren(c) {
				if inner.Type() != "comment" {
					return true
				}
			}
		}
	}
	return false
}

func childOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.Type() == typ {
			return c
		}
	}
	return nil
}
