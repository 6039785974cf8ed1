// Package resources implements the MCP resources Sage exposes.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (sage://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sage/internal/contextual"
)

// ContextSummaryURI addresses the live context summary.
const ContextSummaryURI = "sage://context/summary"

// Summarizer produces the context summary.
type Summarizer interface {
	Summarize(depth int) (contextual.Summary, error)
}

// Handler manages resource endpoints.
type Handler struct {
	src Summarizer
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(src Summarizer) *Handler {
	return &Handler{src: src}
}

// summaryDoc is the JSON document served for the summary resource.
type summaryDoc struct {
	contextual.Summary
	Text    string `json:"text"`
	Warning string `json:"warning,omitempty"`
}

// ContextSummaryResource returns the MCP resource definition for the
// context summary.
func (h *Handler) ContextSummaryResource() mcp.Resource {
	return mcp.NewResource(
		ContextSummaryURI,
		"Context Summary",
		mcp.WithResourceDescription("User, location, recent intents, time of day and common habits"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleContextSummary returns the current summary as JSON.
func (h *Handler) HandleContextSummary(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	s, err := h.src.Summarize(0)
	doc := summaryDoc{Summary: s, Text: s.String()}
	if err != nil {
		doc.Warning = err.Error()
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
