package grounding

import (
	"strings"
)

// Entity is one ENTITY: block.
type Entity struct {
	Name          string   `json:"name"`
	Type          string   `json:"type,omitempty"`
	Description   string   `json:"description"`
	Relationships []string `json:"relationships,omitempty"`
	Context       string   `json:"context,omitempty"`
}

const entityMarker = "ENTITY:"

type entityField int

const (
	fieldNone entityField = iota
	fieldType
	fieldDescription
	fieldRelationships
	fieldContext
)

var entityLabels = []struct {
	label string
	field entityField
}{
	{"TYPE:", fieldType},
	{"DESCRIPTION:", fieldDescription},
	{"RELATIONSHIPS:", fieldRelationships},
	{"CONTEXT:", fieldContext},
}

// ExtractEntities parses ENTITY: blocks. Entities without a name or a
// description are dropped.
func ExtractEntities(content string) []Entity {
	blocks := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), entityMarker)
	if len(blocks) < 2 {
		return nil
	}

	var out []Entity
	for _, block := range blocks[1:] {
		if e, ok := parseEntity(block); ok {
			out = append(out, e)
		}
	}
	return out
}

func parseEntity(block string) (Entity, bool) {
	var (
		e     Entity
		field = fieldNone
		buf   []string
	)

	flush := func() {
		switch field {
		case fieldType:
			e.Type = joinText(buf)
		case fieldDescription:
			e.Description = joinText(buf)
		case fieldContext:
			e.Context = joinText(buf)
		case fieldRelationships:
			e.Relationships = append(e.Relationships, listItems(buf)...)
		}
		buf = buf[:0]
	}

	for _, raw := range strings.Split(block, "\n") {
		line := strings.TrimSpace(raw)
		if e.Name == "" {
			if line != "" {
				e.Name = strings.Trim(line, "*_ ")
			}
			continue
		}

		if next, rest, ok := matchLabel(line); ok {
			flush()
			field = next
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if field != fieldNone && line != "" {
			buf = append(buf, line)
		}
	}
	flush()

	if e.Name == "" || e.Description == "" {
		return Entity{}, false
	}
	return e, true
}

func matchLabel(line string) (entityField, string, bool) {
	for _, l := range entityLabels {
		if len(line) >= len(l.label) && strings.EqualFold(line[:len(l.label)], l.label) {
			return l.field, strings.TrimSpace(line[len(l.label):]), true
		}
	}
	return fieldNone, "", false
}

func joinText(lines []string) string {
	return strings.Join(strings.Fields(strings.Join(lines, " ")), " ")
}

// listItems reads "- item" lines; an inline value is split on commas.
func listItems(lines []string) []string {
	var out []string
	for _, l := range lines {
		if strings.HasPrefix(l, "-") || strings.HasPrefix(l, "*") {
			if item := strings.TrimSpace(l[1:]); item != "" {
				out = append(out, item)
			}
			continue
		}
		for _, part := range strings.Split(l, ",") {
			if item := strings.TrimSpace(part); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
