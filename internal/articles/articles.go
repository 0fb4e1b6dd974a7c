// Package articles loads the markdown guides published under /ratgeber.
package articles

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/slug"
)

const (
	// PathPrefix is the URL path articles are served under.
	PathPrefix = "/ratgeber/"
	// DefaultDir holds the articles inside a site's content root.
	DefaultDir = "/articles"
)

var ErrNotFound = errors.New("article not found")

var dateFormats = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// Heading is a table-of-contents entry.
type Heading struct {
	Title string
	ID    string
	Level int
}

type Article struct {
	Slug        string
	Title       string
	Description string
	Date        time.Time
	HTML        template.HTML
	TOC         []Heading
}

// Path returns the URL path of the article.
func (a Article) Path() string { return PathPrefix + a.Slug }

// Renderer converts article markdown to HTML.
type Renderer struct {
	md goldmark.Markdown
}

func NewRenderer() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)}
}

// Parse reads one article. name is the file name; its base is the slug unless
// the front matter sets one.
func (r *Renderer) Parse(name string, data []byte) (Article, error) {
	var fm map[string]any
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return Article{}, fmt.Errorf("front matter of %s: %w", name, err)
	}

	a := Article{
		Title:       stringField(fm, "title"),
		Description: stringField(fm, "description"),
		Slug:        slug.Normalize(stringField(fm, "slug")),
	}
	if a.Slug == "" {
		a.Slug = slug.Normalize(strings.TrimSuffix(path.Base(name), path.Ext(name)))
	}
	if a.Date, err = parseDate(fm["date"]); err != nil {
		return Article{}, fmt.Errorf("%s: %w", name, err)
	}

	doc := r.md.Parser().Parse(text.NewReader(body))
	var firstH1 string
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		title := string(h.Text(body))
		if h.Level == 1 && firstH1 == "" {
			firstH1 = title
		}
		if id, found := h.AttributeString("id"); found {
			if b, ok := id.([]byte); ok {
				a.TOC = append(a.TOC, Heading{Title: title, ID: string(b), Level: h.Level})
			}
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return Article{}, err
	}
	if a.Title == "" {
		a.Title = firstH1
	}
	if a.Title == "" {
		a.Title = a.Slug
	}

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, body, doc); err != nil {
		return Article{}, fmt.Errorf("render %s: %w", name, err)
	}
	// goldmark escapes raw HTML by default, so the output is safe to embed.
	a.HTML = template.HTML(buf.String())
	return a, nil
}

func stringField(fm map[string]any, key string) string {
	s, _ := fm[key].(string)
	return strings.TrimSpace(s)
}

func parseDate(v any) (time.Time, error) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, nil
	case time.Time:
		return d, nil
	case string:
		for _, f := range dateFormats {
			if t, err := time.Parse(f, strings.TrimSpace(d)); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unparseable date %q", d)
	default:
		return time.Time{}, fmt.Errorf("unsupported date %v", v)
	}
}

// Collection is the ordered article list of a site, newest first.
type Collection struct {
	items  []Article
	bySlug map[string]int
}

// Load parses every *.md file in dir. A malformed article is logged and
// skipped; a missing directory yields an empty collection.
func Load(fs billy.Filesystem, dir string, log *zap.Logger) (*Collection, error) {
	log = logging.OrNop(log)
	r := NewRenderer()
	c := &Collection{bySlug: map[string]int{}}

	entries, err := fs.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".md") {
			continue
		}
		name := path.Join(dir, e.Name())
		data, err := util.ReadFile(fs, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		a, err := r.Parse(name, data)
		if err != nil {
			log.Warn("articles: skipping file", zap.String("path", name), zap.Error(err))
			continue
		}
		if _, dup := c.bySlug[a.Slug]; dup {
			log.Warn("articles: duplicate slug", zap.String("slug", a.Slug), zap.String("path", name))
			continue
		}
		c.bySlug[a.Slug] = len(c.items)
		c.items = append(c.items, a)
	}

	sort.SliceStable(c.items, func(i, j int) bool {
		if !c.items[i].Date.Equal(c.items[j].Date) {
			return c.items[i].Date.After(c.items[j].Date)
		}
		return c.items[i].Slug < c.items[j].Slug
	})
	for i, a := range c.items {
		c.bySlug[a.Slug] = i
	}
	return c, nil
}

// All returns the articles, newest first.
func (c *Collection) All() []Article {
	if c == nil {
		return nil
	}
	return c.items
}

// Get returns the article with the given slug.
func (c *Collection) Get(s string) (Article, error) {
	if c != nil {
		if i, ok := c.bySlug[s]; ok {
			return c.items[i], nil
		}
	}
	return Article{}, fmt.Errorf("%w: %s", ErrNotFound, s)
}
