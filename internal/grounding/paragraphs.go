package grounding

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxParagraph is the length above which a paragraph is re-chunked.
	MaxParagraph = 500
	// ChunkSize is the target size of re-chunked paragraphs.
	ChunkSize = 400
)

const codeFence = "```"

var blankLines = regexp.MustCompile(`\n[ \t]*\n`)

// SplitBlocks splits content on blank lines and drops empty blocks.
func SplitBlocks(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	var out []string
	for _, b := range blankLines.Split(content, -1) {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// ExtractParagraphs returns the paragraphs of content. Paragraphs longer than
// MaxParagraph characters are regrouped by sentence into chunks of at most
// ChunkSize characters; a single longer sentence stays whole.
func ExtractParagraphs(content string) []string {
	content = strings.ReplaceAll(content, codeFence, "")

	var out []string
	for _, p := range SplitBlocks(content) {
		if utf8.RuneCountInString(p) <= MaxParagraph {
			out = append(out, p)
			continue
		}
		out = append(out, chunkSentences(p, ChunkSize)...)
	}
	return out
}

// Sentences splits text after ". ", "! " and "? ".
func Sentences(text string) []string {
	var (
		out   []string
		start int
	)
	for i := 0; i+1 < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if isSpace(text[i+1]) {
				if s := strings.TrimSpace(text[start : i+1]); s != "" {
					out = append(out, s)
				}
				start = i + 1
			}
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}

func chunkSentences(p string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
		n      int
	)
	for _, s := range Sentences(p) {
		l := utf8.RuneCountInString(s)
		if n > 0 && n+1+l > limit {
			chunks = append(chunks, cur.String())
			cur.Reset()
			n = 0
		}
		if n > 0 {
			cur.WriteByte(' ')
			n++
		}
		cur.WriteString(s)
		n += l
	}
	if n > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
