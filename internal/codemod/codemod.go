// Package codemod assigns stable ids to content-bearing JSX elements and JSON
// content objects. Existing ids are never touched, so a second run is a no-op.
package codemod

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gutachten-org/sitekit/internal/syntax"
	"github.com/gutachten-org/sitekit/internal/writeback"
)

// ErrSyntax marks files that cannot be parsed cleanly, before or after the edit.
var ErrSyntax = errors.New("syntax error")

// Codemod computes id insertions for one file at a time.
type Codemod struct {
	// NewID returns a fresh identifier.
	NewID func() string
}

// New returns a codemod generating random UUIDs.
func New() *Codemod {
	return &Codemod{NewID: uuid.NewString}
}

// Transform returns src with ids added and the number of ids inserted.
func (c *Codemod) Transform(ctx context.Context, path string, src []byte) ([]byte, int, error) {
	lang, ok := syntax.DetectLanguage(path)
	if !ok {
		return src, 0, fmt.Errorf("%s: unsupported file type", path)
	}

	tree, err := syntax.Parse(ctx, src, lang)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	defer tree.Close()

	if tree.Root().HasError() {
		return nil, 0, fmt.Errorf("%s: %w in source", path, ErrSyntax)
	}

	var edits []writeback.Edit
	switch lang {
	case syntax.JSON:
		edits = jsonEdits(tree, c.NewID)
	case syntax.TSX:
		edits = jsxEdits(tree, c.NewID)
	default:
		// plain .ts/.js files carry no markup
		return src, 0, nil
	}
	if len(edits) == 0 {
		return src, 0, nil
	}

	out, err := writeback.Apply(src, edits)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	if verr := syntax.Validate(out, path); verr != nil {
		return nil, 0, fmt.Errorf("%s: %w introduced: %v", path, ErrSyntax, verr)
	}
	return out, len(edits), nil
}
