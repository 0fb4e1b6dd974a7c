package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/slug"
)

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.-]+)\s*\}\}`)

// PageData is a resolved page.
type PageData struct {
	PageKey      string         `json:"pageKey"`
	Instance     string         `json:"instance,omitempty"`
	InstanceSlug string         `json:"instanceSlug,omitempty"`
	Components   api.Components `json:"components"`
	// Doc is the substituted document as generic JSON, for JSONPath queries.
	Doc any `json:"-"`
}

// Empty reports whether the page has no blocks. Callers render not-found for it.
func (p *PageData) Empty() bool {
	return p == nil || len(p.Components) == 0
}

// Resolver assembles pages from a content source.
type Resolver struct {
	src       Source
	overrides map[string]string
	log       *zap.Logger
}

// NewResolver returns a resolver reading from src. overrides are the site's
// instance slug overrides.
func NewResolver(src Source, overrides map[string]string, log *zap.Logger) *Resolver {
	return &Resolver{src: src, overrides: overrides, log: logging.OrNop(log)}
}

// GetPageDataWithContent loads pages/<pageKey> and substitutes the instance
// placeholders. A missing page yields ErrNotFound.
func (r *Resolver) GetPageDataWithContent(ctx context.Context, pageKey, instance string) (*PageData, error) {
	raw, err := r.src.Load(ctx, PageName(pageKey))
	if err != nil {
		return nil, fmt.Errorf("load page %q: %w", pageKey, err)
	}

	doc, err := oj.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse page %q: %w", pageKey, err)
	}

	page := &PageData{PageKey: pageKey, Instance: instance}
	if instance != "" {
		page.InstanceSlug = slug.InstanceSlug(instance, r.overrides)
		vars, err := r.instanceVars(ctx, instance, page.InstanceSlug)
		if err != nil {
			return nil, err
		}
		doc = Substitute(doc, vars)
	}
	page.Doc = doc

	components, err := componentsOf(doc)
	if err != nil {
		return nil, fmt.Errorf("decode page %q: %w", pageKey, err)
	}
	page.Components = components
	return page, nil
}

func (r *Resolver) instanceVars(ctx context.Context, instance, instanceSlug string) (map[string]string, error) {
	vars := map[string]string{
		"instance":     instance,
		"instanceSlug": instanceSlug,
	}

	raw, err := r.src.Load(ctx, InstanceName(instanceSlug))
	switch {
	case errors.Is(err, ErrNotFound):
		return vars, nil
	case err != nil:
		return nil, fmt.Errorf("load instance %q: %w", instanceSlug, err)
	}

	data, err := oj.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse instance %q: %w", instanceSlug, err)
	}
	obj, ok := data.(map[string]any)
	if !ok {
		r.log.Warn("instance data is not an object", zap.String("instance", instanceSlug))
		return vars, nil
	}
	for k, v := range obj {
		if _, reserved := vars[k]; reserved {
			continue
		}
		switch t := v.(type) {
		case string:
			vars[k] = t
		case nil, map[string]any, []any:
		default:
			vars[k] = fmt.Sprint(t)
		}
	}
	return vars, nil
}

// Substitute replaces {{key}} placeholders in every string leaf of doc.
// Unknown keys are left untouched.
func Substitute(doc any, vars map[string]string) any {
	switch v := doc.(type) {
	case string:
		return SubstituteString(v, vars)
	case map[string]any:
		for k, child := range v {
			v[k] = Substitute(child, vars)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = Substitute(child, vars)
		}
		return v
	default:
		return doc
	}
}

// SubstituteString replaces {{key}} placeholders in s.
func SubstituteString(s string, vars map[string]string) string {
	if !strings.Contains(s, "{{") {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if val, ok := vars[key]; ok {
			return val
		}
		return m
	})
}

// componentsOf accepts either {"components": [...]} or a bare block array.
func componentsOf(doc any) (api.Components, error) {
	var list any
	switch v := doc.(type) {
	case map[string]any:
		list = v["components"]
	case []any:
		list = v
	}
	if list == nil {
		return nil, nil
	}

	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	var c api.Components
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}
