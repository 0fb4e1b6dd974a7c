// Package mcpserver exposes a site's grounding data to MCP clients.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gutachten-org/sitekit/api"
	"github.com/gutachten-org/sitekit/internal/grounding"
	"github.com/gutachten-org/sitekit/internal/logging"
	"github.com/gutachten-org/sitekit/internal/site"
)

// LLMTxtURI names the raw llm.txt resource.
const LLMTxtURI = "llm://txt"

type Handlers struct {
	site   *api.Site
	router *site.Router
	src    *grounding.Source
	log    *zap.Logger
}

func NewHandlers(s *api.Site, src *grounding.Source, log *zap.Logger) *Handlers {
	return &Handlers{site: s, router: site.NewRouter(s), src: src, log: logging.OrNop(log)}
}

// New builds an MCP server with the grounding tools and the llm.txt resource.
func New(h *Handlers, version string) *server.MCPServer {
	s := server.NewMCPServer("sitekit-"+h.site.ID, version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	keyword := mcp.WithString("keyword",
		mcp.Description("Only return records mentioning this keyword (case-insensitive). Comma-separate several keywords."))

	s.AddTool(mcp.NewTool("grounding_sections",
		mcp.WithDescription("Content sections of "+h.site.Name+", split into paragraphs."), keyword),
		h.Sections)
	s.AddTool(mcp.NewTool("grounding_entities",
		mcp.WithDescription("Named entities (organisations, services, places) described in llm.txt."), keyword),
		h.Entities)
	s.AddTool(mcp.NewTool("grounding_faqs",
		mcp.WithDescription("Question and answer pairs from llm.txt."), keyword),
		h.FAQs)
	s.AddTool(mcp.NewTool("grounding_glossary",
		mcp.WithDescription("Glossary terms with definitions from llm.txt."), keyword),
		h.Glossary)
	s.AddTool(mcp.NewTool("resolve_slug",
		mcp.WithDescription("Resolve a URL slug of "+h.site.Domain+" to its page key and instance."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Path without the leading slash, e.g. gutachter-berlin."))),
		h.ResolveSlug)

	s.AddResource(mcp.NewResource(LLMTxtURI, "llm.txt",
		mcp.WithResourceDescription("Machine-readable summary of "+h.site.Name+"."),
		mcp.WithMIMEType("text/markdown")),
		h.LLMTxt)
	return s
}

// document extracts the complete or keyword-filtered document.
func (h *Handlers) document(req mcp.CallToolRequest) (grounding.Document, error) {
	sections, err := h.src.Sections()
	if err != nil {
		return grounding.Document{}, err
	}
	var keywords []string
	for _, k := range strings.Split(req.GetString("keyword", ""), ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return grounding.Filtered(sections, keywords), nil
}

func (h *Handlers) result(part any, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, grounding.ErrSourceMissing) {
		return mcp.NewToolResultError("llm.txt is not available for this site"), nil
	}
	if err != nil {
		h.log.Error("mcp tool failed", zap.Error(err))
		return nil, err
	}
	data, err := json.Marshal(part)
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultStructured(map[string]any{"items": part}, string(data)), nil
}

func (h *Handlers) Sections(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.document(req)
	return h.result(nonNil(doc.Content), err)
}

func (h *Handlers) Entities(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.document(req)
	return h.result(nonNil(doc.Entities), err)
}

func (h *Handlers) FAQs(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.document(req)
	return h.result(nonNil(doc.FAQs), err)
}

func (h *Handlers) Glossary(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	doc, err := h.document(req)
	return h.result(nonNil(doc.Glossary), err)
}

func (h *Handlers) ResolveSlug(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sl := strings.Trim(req.GetString("slug", ""), "/")
	route, ok := h.router.Resolve(sl)
	if !ok {
		return mcp.NewToolResultErrorf("no page for slug %q", sl), nil
	}
	return h.result(route, nil)
}

func (h *Handlers) LLMTxt(_ context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw, err := h.src.Raw()
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{mcp.TextResourceContents{
		URI:      req.Params.URI,
		MIMEType: "text/markdown",
		Text:     raw,
	}}, nil
}

// nonNil keeps empty results encoded as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ServeStdio blocks serving s over stdin and stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
