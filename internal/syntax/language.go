// Package syntax parses TSX, TypeScript, JavaScript and JSON sources with
// tree-sitter and reports syntax errors.
package syntax

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is a source language sitekit edits.
type Language string

const (
	TSX        Language = "tsx"
	TypeScript Language = "typescript"
	JavaScript Language = "javascript"
	JSON       Language = "json"
)

// DetectLanguage maps a file extension to a Language.
func DetectLanguage(path string) (Language, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsx", ".jsx":
		return TSX, true
	case ".ts", ".mts", ".cts":
		return TypeScript, true
	case ".js", ".mjs", ".cjs":
		return JavaScript, true
	case ".json":
		return JSON, true
	default:
		return "", false
	}
}

// Grammar returns the tree-sitter grammar. JSON is read by the JavaScript
// grammar as a parenthesised expression.
func (l Language) Grammar() *sitter.Language {
	switch l {
	case TSX:
		return tsx.GetLanguage()
	case TypeScript:
		return typescript.GetLanguage()
	case JavaScript, JSON:
		return javascript.GetLanguage()
	default:
		return nil
	}
}
