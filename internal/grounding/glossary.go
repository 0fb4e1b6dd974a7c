package grounding

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// GlossaryEntry is one lexicon term.
type GlossaryEntry struct {
	Term       string `json:"term"`
	Alias      string `json:"alias,omitempty"`
	Definition string `json:"definition"`
}

// maxTermLine is the longest first line still read as a bare term.
const maxTermLine = 100

// "Term (Alias): definition", optionally bulleted or bold.
var glossaryLine = regexp.MustCompile(`^(?:[-*]\s+)?\**([^:()]+?)\**\s*(?:\(([^)]*)\))?\s*\**:\**\s*(.*)$`)

// ExtractGlossary reads one entry per paragraph.
func ExtractGlossary(content string) []GlossaryEntry {
	var out []GlossaryEntry
	for _, block := range SplitBlocks(content) {
		lines := strings.Split(block, "\n")
		first := strings.TrimSpace(lines[0])
		rest := joinText(lines[1:])

		if m := glossaryLine.FindStringSubmatch(first); m != nil {
			def := strings.TrimSpace(strings.Join([]string{m[3], rest}, " "))
			term := strings.TrimSpace(m[1])
			if term != "" && def != "" {
				out = append(out, GlossaryEntry{Term: term, Alias: strings.TrimSpace(m[2]), Definition: def})
			}
			continue
		}

		if utf8.RuneCountInString(first) < maxTermLine && rest != "" {
			term := strings.TrimSpace(strings.Trim(first, "#*_ "))
			if term != "" {
				out = append(out, GlossaryEntry{Term: term, Definition: rest})
			}
		}
	}
	return out
}
