package syntax

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// ValidationError locates a syntax error.
type ValidationError struct {
	FilePath string
	Line     uint32 // 0-indexed
	Column   uint32 // 0-indexed
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line+1, e.Column+1, e.Message)
}

// Validate parses content and returns a *ValidationError for the first syntax
// error. Files of unknown type pass through.
func Validate(content []byte, filePath string) error {
	lang, ok := DetectLanguage(filePath)
	if !ok {
		return nil
	}
	t, err := Parse(context.Background(), content, lang)
	if err != nil {
		return fmt.Errorf("%s: %w", filePath, err)
	}
	defer t.Close()

	root := t.Root()
	if !root.HasError() {
		return nil
	}
	if errNode := findFirstError(root); errNode != nil {
		return t.validationError(errNode, filePath)
	}
	return &ValidationError{FilePath: filePath, Message: "AST contains errors"}
}

// Errors returns every syntax error location of content.
func Errors(content []byte, filePath string) []ValidationError {
	lang, ok := DetectLanguage(filePath)
	if !ok {
		return nil
	}
	t, err := Parse(context.Background(), content, lang)
	if err != nil {
		return nil
	}
	defer t.Close()

	root := t.Root()
	if !root.HasError() {
		return nil
	}
	var errs []ValidationError
	t.collectErrors(root, filePath, &errs)
	return errs
}

func (t *Tree) validationError(n *sitter.Node, filePath string) *ValidationError {
	p := n.StartPoint()
	col := p.Column
	// the JSON wrapper adds one byte to the first line
	if p.Row == 0 && t.offset > 0 && col >= uint32(t.offset) {
		col -= uint32(t.offset)
	}
	msg := "syntax error"
	if n.IsMissing() {
		msg = "missing " + n.Type()
	}
	return &ValidationError{FilePath: filePath, Line: p.Row, Column: col, Message: msg}
}

// findFirstError does a depth-first search for the first ERROR or MISSING node.
func findFirstError(node *sitter.Node) *sitter.Node {
	if node.IsError() || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			if found := findFirstError(child); found != nil {
				return found
			}
		}
	}
	return nil
}

func (t *Tree) collectErrors(node *sitter.Node, filePath string, errs *[]ValidationError) {
	if node.IsError() || node.IsMissing() {
		*errs = append(*errs, *t.validationError(node, filePath))
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.HasError() || child.IsError() || child.IsMissing() {
			t.collectErrors(child, filePath, errs)
		}
	}
}
