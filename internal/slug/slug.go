// Package slug turns instance names into URL slugs and resolves programmatic slugs
// back into (page key, instance) pairs.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	germanFolds = strings.NewReplacer(
		"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
		"Ä", "ae", "Ö", "oe", "Ü", "ue", "ẞ", "ss",
	)
	repeatedHyphens = regexp.MustCompile(`-{2,}`)
)

// InstanceSlug returns the canonical slug of an instance name.
// An entry in overrides wins over transliteration. The result only contains
// [a-z0-9-], never starts or ends with a hyphen, and may be empty.
func InstanceSlug(name string, overrides map[string]string) string {
	if s, ok := overrides[name]; ok {
		return Normalize(s)
	}
	return Normalize(name)
}

// Normalize applies the transliteration rules without consulting overrides.
func Normalize(s string) string {
	s = germanFolds.Replace(s)
	s = stripDiacritics(s)
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			b.WriteByte('-')
		}
	}

	out := repeatedHyphens.ReplaceAllString(b.String(), "-")
	return strings.Trim(out, "-")
}

func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
