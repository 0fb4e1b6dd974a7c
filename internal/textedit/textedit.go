// Package textedit rewrites string literals in TS/TSX/JS/JSON sources through
// their syntax tree, so nested braces, template literals and escaped quotes
// cannot confuse it.
package textedit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/gutachten-org/sitekit/internal/syntax"
	"github.com/gutachten-org/sitekit/internal/writeback"
)

// ErrNoMatch is returned when the component, page key or field is not found.
var ErrNoMatch = errors.New("no match")

// EditComponentText replaces field of the object literal whose "id" is componentID.
func EditComponentText(src []byte, path, componentID, field, text string) ([]byte, error) {
	return edit(src, path, func(t *syntax.Tree) (*sitter.Node, error) {
		obj := findObject(t, func(obj *sitter.Node) bool {
			v := propertyValue(t, obj, "id")
			if v == nil {
				return false
			}
			s, _, ok := stringLiteral(t, v)
			return ok && s == componentID
		})
		if obj == nil {
			return nil, fmt.Errorf("%w: component %q", ErrNoMatch, componentID)
		}
		return stringField(t, obj, field)
	}, text)
}

// EditSEOMetadata replaces field of the object stored under the property pageKey.
func EditSEOMetadata(src []byte, path, pageKey, field, text string) ([]byte, error) {
	return edit(src, path, func(t *syntax.Tree) (*sitter.Node, error) {
		var obj *sitter.Node
		syntax.Walk(t.Root(), func(n *sitter.Node) bool {
			if obj != nil {
				return false
			}
			if n.Type() == "pair" && syntax.PropertyKey(t, n) == pageKey {
				if v := n.ChildByFieldName("value"); v != nil && v.Type() == "object" {
					obj = v
					return false
				}
			}
			return true
		})
		if obj == nil {
			return nil, fmt.Errorf("%w: page %q", ErrNoMatch, pageKey)
		}
		return stringField(t, obj, field)
	}, text)
}

// EditFile applies fn to the file name and writes the result atomically.
func EditFile(fs billy.Filesystem, name string, fn func([]byte) ([]byte, error)) error {
	src, err := util.ReadFile(fs, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	out, err := fn(src)
	if err != nil {
		return err
	}
	if bytes.Equal(out, src) {
		return nil
	}
	return writeback.WriteFileAtomic(fs, name, out)
}

func edit(src []byte, path string, locate func(*syntax.Tree) (*sitter.Node, error), text string) ([]byte, error) {
	t, err := syntax.ParseFile(context.Background(), src, path)
	if err != nil {
		return nil, err
	}
	defer t.Close()

	node, err := locate(t)
	if err != nil {
		return nil, err
	}

	_, quote, _ := stringLiteral(t, node)
	if t.Lang == syntax.JSON {
		quote = '"'
	}
	lit, err := encodeLiteral(text, quote)
	if err != nil {
		return nil, err
	}

	out, err := writeback.Apply(src, []writeback.Edit{{Start: t.Start(node), End: t.End(node), Text: lit}})
	if err != nil {
		return nil, err
	}
	if err := syntax.Validate(out, path); err != nil {
		return nil, fmt.Errorf("edit produced invalid source: %w", err)
	}
	return out, nil
}

// findObject returns the first object literal in document order accepted by match.
func findObject(t *syntax.Tree, match func(*sitter.Node) bool) *sitter.Node {
	var found *sitter.Node
	syntax.Walk(t.Root(), func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Type() == "object" && match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

// propertyValue returns the value node of a direct property of obj.
func propertyValue(t *syntax.Tree, obj *sitter.Node, key string) *sitter.Node {
	for _, c := range syntax.NamedChildren(obj) {
		if c.Type() == "pair" && syntax.PropertyKey(t, c) == key {
			return c.ChildByFieldName("value")
		}
	}
	return nil
}

func stringField(t *syntax.Tree, obj *sitter.Node, field string) (*sitter.Node, error) {
	v := propertyValue(t, obj, field)
	if v == nil {
		return nil, fmt.Errorf("%w: field %q", ErrNoMatch, field)
	}
	if _, _, ok := stringLiteral(t, v); !ok {
		return nil, fmt.Errorf("%w: field %q is not a plain string", ErrNoMatch, field)
	}
	return v, nil
}

// stringLiteral decodes a string or substitution-free template literal.
func stringLiteral(t *syntax.Tree, n *sitter.Node) (string, byte, bool) {
	raw := t.Text(n)
	switch n.Type() {
	case "string":
		if len(raw) < 2 {
			return "", 0, false
		}
		q := raw[0]
		inner := raw[1 : len(raw)-1]
		s, ok := unescapeJS(inner)
		if !ok {
			return inner, q, true
		}
		return s, q, true
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", 0, false
			}
		}
		if len(raw) < 2 {
			return "", 0, false
		}
		return raw[1 : len(raw)-1], '`', true
	default:
		return "", 0, false
	}
}

var simpleEscapes = map[byte]string{
	'n': "\n", 't': "\t", 'r': "\r", 'b': "\b", 'f': "\f", 'v': "\v", '0': "\x00",
}

// unescapeJS decodes the escapes of a JS (or JSON) string body, whichever
// quote delimited it. Unknown escapes stand for the escaped character.
func unescapeJS(s string) (string, bool) {
	if !strings.Contains(s, `\`) {
		return s, true
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(s) {
			return "", false
		}
		c = s[i]
		if e, ok := simpleEscapes[c]; ok && !(c == '0' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9') {
			b.WriteString(e)
			continue
		}
		switch c {
		case '\n':
			// line continuation
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'x':
			if i+2 >= len(s) {
				return "", false
			}
			v, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return "", false
			}
			b.WriteRune(rune(v))
			i += 2
		case 'u':
			var hex string
			if i+1 < len(s) && s[i+1] == '{' {
				end := strings.IndexByte(s[i:], '}')
				if end < 0 {
					return "", false
				}
				hex = s[i+2 : i+end]
				i += end
			} else {
				if i+4 >= len(s) {
					return "", false
				}
				hex = s[i+1 : i+5]
				i += 4
			}
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return "", false
			}
			r := rune(v)
			// surrogate pair written as two \u escapes
			if utf16.IsSurrogate(r) && i+6 < len(s) && s[i+1] == '\\' && s[i+2] == 'u' {
				if lo, err := strconv.ParseUint(s[i+3:i+7], 16, 32); err == nil {
					if dec := utf16.DecodeRune(r, rune(lo)); dec != utf8.RuneError {
						r = dec
						i += 6
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), true
}

func encodeLiteral(s string, quote byte) (string, error) {
	switch quote {
	case '\'':
		r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
		return "'" + r.Replace(s) + "'", nil
	case '`':
		r := strings.NewReplacer(`\`, `\\`, "`", "\\`", "${", `\${`)
		return "`" + r.Replace(s) + "`", nil
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(s); err != nil {
			return "", err
		}
		return strings.TrimRight(buf.String(), "\n"), nil
	}
}
