package grounding

import (
	"strings"
)

// Kind is the extractor a section is routed to.
type Kind int

const (
	KindContent Kind = iota
	KindFAQ
	KindEntities
	KindGlossary
)

// Classify routes a section by keywords in its title.
func Classify(title string) Kind {
	t := strings.ToLower(title)
	switch {
	case strings.Contains(t, "faq"), strings.Contains(t, "fragen"):
		return KindFAQ
	case strings.Contains(t, "entit"):
		return KindEntities
	case strings.Contains(t, "lexikon"), strings.Contains(t, "glossar"):
		return KindGlossary
	default:
		return KindContent
	}
}

// PageSection is a content section split into paragraphs.
type PageSection struct {
	Title      string   `json:"title"`
	Parent     string   `json:"parent,omitempty"`
	Paragraphs []string `json:"paragraphs"`
}

// Document is everything extracted from a grounding corpus.
type Document struct {
	Content  []PageSection   `json:"content"`
	Entities []Entity        `json:"entities"`
	FAQs     []FAQ           `json:"faqs"`
	Glossary []GlossaryEntry `json:"glossary"`
}

// Complete extracts every record of every section.
func Complete(sections []Section) Document {
	var d Document
	for _, s := range sections {
		kind := Classify(s.Title)
		d.add(kind, s.Title, "", s.Content)
		for _, sub := range s.Subsections {
			subKind := Classify(sub.Title)
			if subKind == KindContent {
				subKind = kind
			}
			d.add(subKind, sub.Title, s.Title, sub.Content)
		}
	}
	return d
}

func (d *Document) add(kind Kind, title, parent, content string) {
	if strings.TrimSpace(content) == "" {
		return
	}
	switch kind {
	case KindFAQ:
		d.FAQs = append(d.FAQs, ExtractFAQs(content)...)
	case KindEntities:
		d.Entities = append(d.Entities, ExtractEntities(content)...)
	case KindGlossary:
		d.Glossary = append(d.Glossary, ExtractGlossary(content)...)
	default:
		if paras := ExtractParagraphs(content); len(paras) > 0 {
			d.Content = append(d.Content, PageSection{Title: title, Parent: parent, Paragraphs: paras})
		}
	}
}

// Filtered keeps only records mentioning one of keywords (case-insensitive).
// Blank keywords are ignored; with none left it equals Complete.
func Filtered(sections []Section, keywords []string) Document {
	kw := normalizeKeywords(keywords)
	d := Complete(sections)
	if len(kw) == 0 {
		return d
	}

	var out Document
	for _, s := range d.Content {
		if matches(kw, s.Title, s.Parent) {
			out.Content = append(out.Content, s)
			continue
		}
		var paras []string
		for _, p := range s.Paragraphs {
			if matches(kw, p) {
				paras = append(paras, p)
			}
		}
		if len(paras) > 0 {
			out.Content = append(out.Content, PageSection{Title: s.Title, Parent: s.Parent, Paragraphs: paras})
		}
	}
	for _, e := range d.Entities {
		fields := append([]string{e.Name, e.Type, e.Description, e.Context}, e.Relationships...)
		if matches(kw, fields...) {
			out.Entities = append(out.Entities, e)
		}
	}
	for _, f := range d.FAQs {
		if matches(kw, f.Question, f.Answer) {
			out.FAQs = append(out.FAQs, f)
		}
	}
	for _, g := range d.Glossary {
		if matches(kw, g.Term, g.Alias, g.Definition) {
			out.Glossary = append(out.Glossary, g)
		}
	}
	return out
}

// PageKeywords derives filter keywords for a page: the longer words of its page
// key, its title and the instance name.
func PageKeywords(pageKey, title, instance string) []string {
	var kw []string
	for _, part := range strings.Split(pageKey, "-") {
		if len(part) >= 5 && part != "stadt" {
			kw = append(kw, part)
		}
	}
	if title = strings.TrimSpace(title); title != "" {
		kw = append(kw, title)
	}
	if instance = strings.TrimSpace(instance); instance != "" {
		kw = append(kw, instance)
	}
	return kw
}

func normalizeKeywords(keywords []string) []string {
	var out []string
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func matches(keywords []string, fields ...string) bool {
	for _, f := range fields {
		lf := strings.ToLower(f)
		for _, k := range keywords {
			if strings.Contains(lf, k) {
				return true
			}
		}
	}
	return false
}
