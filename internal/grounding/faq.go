package grounding

import (
	"regexp"
	"strings"
)

// FAQ is a question with its answer.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// faqMarker finds question and answer labels at line starts or after
// whitespace, so one-line pairs are seen too. Longer labels come first so
// "QUESTION:" is not read as "Q" followed by garbage; "FAQ:" never matches.
var faqMarker = regexp.MustCompile(`(?i)(?:^|[ \t\n>-])(QUESTION|Frage|Q|ANSWER|Antwort|A)[ \t]*:`)

// tolerant labels for the line scanner, applied after markdown decorations are stripped
var (
	questionLabel = regexp.MustCompile(`(?i)^(?:\d+[.)]\s*)?(?:QUESTION|Frage|Q)\s*[:.)]\s*(.*)$`)
	answerLabel   = regexp.MustCompile(`(?i)^(?:ANSWER|Antwort|A)\s*[:.)]\s*(.*)$`)
	inlineAnswer  = regexp.MustCompile(`(?i)(?:^|\s)(?:ANSWER|Antwort|A)\s*:\s*`)
)

// ExtractFAQs returns question/answer pairs in source order. The marker scan
// runs first; the line scanner is used only when it finds nothing.
func ExtractFAQs(content string) []FAQ {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if faqs := scanMarkers(content); len(faqs) > 0 {
		return faqs
	}
	return scanLines(content)
}

func isQuestionLabel(s string) bool {
	switch strings.ToUpper(s) {
	case "QUESTION", "FRAGE", "Q":
		return true
	}
	return false
}

// scanMarkers pairs each question label with the next answer label. The answer
// runs until the next question label or the end of content.
func scanMarkers(content string) []FAQ {
	locs := faqMarker.FindAllStringSubmatchIndex(content, -1)

	var out []FAQ
	for i := 0; i < len(locs); i++ {
		if !isQuestionLabel(content[locs[i][2]:locs[i][3]]) {
			continue
		}
		// first answer label after the question
		j := i + 1
		for j < len(locs) && isQuestionLabel(content[locs[j][2]:locs[j][3]]) {
			j++
		}
		if j >= len(locs) || j != i+1 {
			// another question came first; this one has no answer
			continue
		}

		end := len(content)
		k := j + 1
		for ; k < len(locs); k++ {
			if isQuestionLabel(content[locs[k][2]:locs[k][3]]) {
				end = locs[k][0]
				break
			}
		}

		q := markerText(content[locs[i][1]:locs[j][0]])
		a := markerText(content[locs[j][1]:end])
		if q != "" && a != "" {
			out = append(out, FAQ{Question: q, Answer: a})
		}
		i = k - 1
	}
	return out
}

// markerText joins the text between two markers and drops a list dash left
// in front of the next marker.
func markerText(s string) string {
	return strings.TrimSpace(strings.TrimRight(joinText([]string{s}), "->"))
}

var decorations = strings.NewReplacer("**", "", "__", "", "`", "")

func stripDecorations(line string) string {
	line = decorations.Replace(strings.TrimSpace(line))
	return strings.TrimSpace(strings.TrimLeft(line, "#>*- \t"))
}

// scanLines is the tolerant fallback: it accepts decorated labels such as
// "**Frage:**" or "- Q." and joins answer lines until the next question.
func scanLines(content string) []FAQ {
	var (
		out      []FAQ
		question []string
		answer   []string
		inAnswer bool
	)
	flush := func() {
		q, a := joinText(question), joinText(answer)
		if q != "" && a != "" {
			out = append(out, FAQ{Question: q, Answer: a})
		}
		question, answer, inAnswer = nil, nil, false
	}

	for _, raw := range strings.Split(content, "\n") {
		line := stripDecorations(raw)
		if m := questionLabel.FindStringSubmatch(line); m != nil {
			flush()
			if loc := inlineAnswer.FindStringIndex(m[1]); loc != nil {
				question = append(question, m[1][:loc[0]])
				answer = append(answer, m[1][loc[1]:])
				inAnswer = true
				continue
			}
			question = append(question, m[1])
			continue
		}
		if m := answerLabel.FindStringSubmatch(line); m != nil && question != nil {
			inAnswer = true
			answer = append(answer, m[1])
			continue
		}
		if line == "" {
			continue
		}
		switch {
		case inAnswer:
			answer = append(answer, line)
		case question != nil:
			question = append(question, line)
		}
	}
	flush()
	return out
}
