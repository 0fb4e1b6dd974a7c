package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/content"
	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/seo"
	"github.com/gutachten-org/sitekit/internal/site"
)

// ErrNoSections is returned when the model's answer has no "##" section.
var ErrNoSections = errors.New("generated llm.txt has no sections")

const systemPrompt = `Du erstellst llm.txt-Dateien: maschinenlesbare Zusammenfassungen von Websites.
Antworte ausschließlich mit Markdown. Gliedere mit "## " für Abschnitte und "### " für Unterabschnitte.
Verwende Abschnitte mit den Titeln "Entitäten", "Häufige Fragen" und "Glossar".
Schreibe Entitäten als "Name:", "Typ:", "Beschreibung:", "Beziehungen:" (Liste) und "Kontext:".
Schreibe Fragen als "Frage:" und "Antwort:". Schreibe Glossareinträge als "- **Begriff**: Definition".`

var userPrompt = template.Must(template.New("prompt").Funcs(template.FuncMap{"join": strings.Join}).Parse(`Website: {{.Site.Name}} ({{.Site.Domain}})
{{- with .Site.Organization}}
Anbieter: {{.Name}}{{with .City}}, {{.}}{{end}}
{{- end}}

Seiten:
{{range .Pages}}
### {{.Title}}
URL: {{.URL}}
Beschreibung: {{.Description}}
{{- range .Texts}}
{{.}}
{{- end}}
{{- range .FAQs}}
Frage: {{.Question}}
Antwort: {{.Answer}}
{{- end}}
{{end}}
{{- with .Instances}}
Standorte: {{join . ", "}}
{{- end}}

Erstelle daraus die llm.txt der Website.
`))

type promptPage struct {
	Title       string
	URL         string
	Description string
	Texts       []string
	FAQs        []seo.Question
}

type promptData struct {
	Site      *api.Site
	Pages     []promptPage
	Instances []string
}

// Generator turns a site's content into llm.txt.
type Generator struct {
	Provider Provider
	Content  *content.Resolver
	Logger   *zap.Logger
}

func NewGenerator(p Provider, resolver *content.Resolver, log *zap.Logger) *Generator {
	return &Generator{Provider: p, Content: resolver, Logger: logging.OrNop(log)}
}

// Prompt summarises the site's pages. Every page key is sampled once; for
// programmatic pages the first instance stands in for all.
func (g *Generator) Prompt(ctx context.Context, s *api.Site) (string, error) {
	log := logging.OrNop(g.Logger)
	data := promptData{Site: s, Instances: s.Programmatic.Instances}

	seen := map[string]bool{}
	for _, e := range site.NewRouter(s).Entries() {
		if e.Kind == site.EntryGrounding || seen[e.Route.PageKey] {
			continue
		}
		seen[e.Route.PageKey] = true

		page, err := g.Content.GetPageDataWithContent(ctx, e.Route.PageKey, e.Route.Instance)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				log.Debug("llm.txt: page without content", zap.String("pageKey", e.Route.PageKey))
				continue
			}
			return "", err
		}
		meta := seo.Resolve(s, e.Route, e.Path(), page)
		data.Pages = append(data.Pages, promptPage{
			Title:       meta.Title,
			URL:         meta.Canonical,
			Description: meta.Description,
			Texts:       texts(page),
			FAQs:        seo.FAQs(page),
		})
	}

	var b strings.Builder
	if err := userPrompt.Execute(&b, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// Generate calls the provider once and validates the answer.
func (g *Generator) Generate(ctx context.Context, s *api.Site) (string, error) {
	prompt, err := g.Prompt(ctx, s)
	if err != nil {
		return "", err
	}
	logging.OrNop(g.Logger).Info("llm.txt: generating",
		zap.String("site", s.ID), zap.String("provider", g.Provider.Name()), zap.Int("prompt_bytes", len(prompt)))

	out, err := g.Provider.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return "", err
	}
	out = StripFences(out)
	if len(grounding.Parse(out)) == 0 {
		return "", ErrNoSections
	}
	return out + "\n", nil
}

var fence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\n(.*?)\n?```$")

// StripFences removes a code fence wrapping the whole answer.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if m := fence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

func texts(page *content.PageData) []string {
	var out []string
	for _, b := range page.Components {
		switch c := b.(type) {
		case *api.Hero:
			out = appendNonEmpty(out, c.Title, c.Subtitle)
		case *api.Text:
			out = appendNonEmpty(out, c.Heading, c.Content)
		}
	}
	return out
}

func appendNonEmpty(out []string, ss ...string) []string {
	for _, s := range ss {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
