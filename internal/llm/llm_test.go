package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/content"
)

type fakeProvider struct {
	answer string
	err    error
	system string
	user   string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, system, user string) (string, error) {
	f.system, f.user = system, user
	return f.answer, f.err
}

func testSite() *api.Site {
	return &api.Site{
		ID:     "gutachten",
		Domain: "https://www.gutachten.org",
		Name:   "Gutachten.org",
		Programmatic: api.Programmatic{
			Instances:     []string{"Berlin", "Köln"},
			Pages:         []string{"gutachter-stadt"},
			SlugToPageKey: map[string]string{"gutachter": "gutachter-stadt"},
		},
		StaticPages: []api.StaticPage{{Slug: "kontakt", PageKey: "kontakt"}},
		SEO: map[string]api.PageSEO{
			"home": {Title: "Immobiliengutachten", Description: "Gutachten für Immobilien"},
		},
	}
}

func testResolver() *content.Resolver {
	reg := content.NewRegistry()
	reg.RegisterBytes(content.PageName("home"), []byte(`{"components": [
		{"type": "hero", "id": "h", "title": "Willkommen", "subtitle": "Bundesweit"},
		{"type": "faq", "id": "f", "items": [{"id": "q", "question": "Was kostet ein Gutachten?", "answer": "Ab 450 Euro."}]}
	]}`))
	reg.RegisterBytes(content.PageName("gutachter-stadt"), []byte(`{"components": [{"type": "text", "id": "t", "content": "Gutachter in {{instance}}"}]}`))
	return content.NewResolver(reg, nil, nil)
}

func TestGenerator_Prompt(t *testing.T) {
	g := NewGenerator(&fakeProvider{}, testResolver(), nil)
	prompt, err := g.Prompt(context.Background(), testSite())
	require.NoError(t, err)

	assert.Contains(t, prompt, "Website: Gutachten.org (https://www.gutachten.org)")
	assert.Contains(t, prompt, "### Immobiliengutachten")
	assert.Contains(t, prompt, "Frage: Was kostet ein Gutachten?")
	assert.Contains(t, prompt, "Gutachter in Berlin")
	assert.Contains(t, prompt, "Standorte: Berlin, Köln")
	// sampled once per page key
	assert.NotContains(t, prompt, "Gutachter in Köln")
}

func TestGenerator_Generate(t *testing.T) {
	fp := &fakeProvider{answer: "```markdown\n## Über uns\n\nWir bewerten Immobilien.\n```"}
	out, err := NewGenerator(fp, testResolver(), nil).Generate(context.Background(), testSite())
	require.NoError(t, err)
	assert.Equal(t, "## Über uns\n\nWir bewerten Immobilien.\n", out)
	assert.Equal(t, systemPrompt, fp.system)

	fp.answer = "Leider kann ich das nicht."
	_, err = NewGenerator(fp, testResolver(), nil).Generate(context.Background(), testSite())
	assert.ErrorIs(t, err, ErrNoSections)

	fp.err = io.ErrUnexpectedEOF
	_, err = NewGenerator(fp, testResolver(), nil).Generate(context.Background(), testSite())
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"## A":                   "## A",
		"```\n## A\n```":         "## A",
		"```md\n## A\nText\n```": "## A\nText",
		"  ## A  \n":             "## A",
		"## A\n```go\nx\n```":    "## A\n```go\nx\n```",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripFences(in), in)
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewProvider(context.Background(), Config{Provider: ProviderGemini, OpenRouterAPIKey: "x"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = NewProvider(context.Background(), Config{Provider: "claude", OpenRouterAPIKey: "x"})
	assert.Error(t, err)
}

func TestOpenRouter_Complete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"choices": [{"message": {"role": "assistant", "content": "  ## A\n"}}]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(context.Background(), Config{OpenRouterAPIKey: "secret", BaseURL: srv.URL})
	require.NoError(t, err)
	out, err := p.Complete(context.Background(), "sys", "user")
	require.NoError(t, err)

	assert.Equal(t, "## A", out)
	assert.Equal(t, defaultModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "user", got.Messages[1].Content)
}

func TestOpenRouter_Errors(t *testing.T) {
	status := http.StatusUnauthorized
	body := `{"error": {"message": "bad key"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	p := NewOpenRouter(Config{OpenRouterAPIKey: "k", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")

	status = http.StatusOK
	_, err = p.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad key")

	body = `{"choices": []}`
	_, err = p.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
}

func TestGemini_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models/"+defaultGeminiModel+":generateContent"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates": [{"content": {"role": "model", "parts": [{"text": "## Gemini\n"}]}}]}`)
	}))
	defer srv.Close()

	p, err := NewProvider(context.Background(), Config{
		Provider:     ProviderGemini,
		Model:        "anthropic/claude-3.5-sonnet",
		GeminiAPIKey: "k",
		BaseURL:      srv.URL,
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, p.Name())

	out, err := p.Complete(context.Background(), "s", "u")
	require.NoError(t, err)
	assert.Equal(t, "## Gemini", out)
}
