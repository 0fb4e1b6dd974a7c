// Package grounding parses the llm.txt corpus into sections and extracts
// paragraphs, entities, FAQs and glossary entries from them.
package grounding

import (
	"regexp"
	"strings"
)

// Section is a "##" heading with its body and "###" subsections.
type Section struct {
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	Subsections []Section `json:"subsections,omitempty"`
}

var (
	sectionHeading    = regexp.MustCompile(`^##\s+(.+)$`)
	subsectionHeading = regexp.MustCompile(`^###\s+(.+)$`)
)

type sectionBuilder struct {
	title string
	lines []string
	subs  []Section
}

func (b *sectionBuilder) add(line string) {
	// blank lines are kept once so paragraph boundaries survive
	if strings.TrimSpace(line) == "" {
		if n := len(b.lines); n == 0 || b.lines[n-1] == "" {
			return
		}
		line = ""
	}
	b.lines = append(b.lines, strings.TrimRight(line, " \t\r"))
}

func (b *sectionBuilder) body() string {
	return strings.TrimSpace(strings.Join(b.lines, "\n"))
}

// Parse splits text into sections. Lines before the first heading are dropped.
// A "###" heading with no open section starts a section of its own.
func Parse(text string) []Section {
	var (
		sections []Section
		cur      *sectionBuilder
		sub      *sectionBuilder
	)

	flushSub := func() {
		if sub == nil {
			return
		}
		cur.subs = append(cur.subs, Section{Title: sub.title, Content: sub.body()})
		sub = nil
	}
	flushSection := func() {
		flushSub()
		if cur == nil {
			return
		}
		sections = append(sections, Section{Title: cur.title, Content: cur.body(), Subsections: cur.subs})
		cur = nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if m := subsectionHeading.FindStringSubmatch(line); m != nil {
			if cur == nil {
				cur = &sectionBuilder{title: strings.TrimSpace(m[1])}
				continue
			}
			flushSub()
			sub = &sectionBuilder{title: strings.TrimSpace(m[1])}
			continue
		}
		if m := sectionHeading.FindStringSubmatch(line); m != nil {
			flushSection()
			cur = &sectionBuilder{title: strings.TrimSpace(m[1])}
			continue
		}

		switch {
		case sub != nil:
			sub.add(line)
		case cur != nil:
			cur.add(line)
		}
	}
	flushSection()
	return sections
}
