// Package responder adapts the Gemini API to the engine's Generator.
package responder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/HendryAvila/sage/internal/engine"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.0-flash"

// ErrEmptyReply is returned when the model answers with no text.
var ErrEmptyReply = errors.New("responder: empty reply")

// models is the slice of *genai.Models the adapter calls.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GenAI generates replies with a Gemini model.
type GenAI struct {
	models models
	model  string
}

var _ engine.Generator = (*GenAI)(nil)

// NewGenAI creates a client for apiKey.
func NewGenAI(ctx context.Context, apiKey, model string) (*GenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("responder: API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("responder: create client: %w", err)
	}
	return newGenAI(client.Models, model), nil
}

func newGenAI(m models, model string) *GenAI {
	if model == "" {
		model = DefaultModel
	}
	return &GenAI{models: m, model: model}
}

// Generate asks the model for a short reply to req.
func (g *GenAI) Generate(ctx context.Context, req engine.Request) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(Prompt(req), genai.RoleUser)}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("responder: generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// Prompt renders the instruction sent to the model.
func Prompt(req engine.Request) string {
	var b strings.Builder
	b.WriteString("Generate a natural, helpful response for a voice assistant.\n\n")
	fmt.Fprintf(&b, "Intent: %s\n", req.Intent)
	fmt.Fprintf(&b, "User said: %q\n", req.Utterance)
	if len(req.Entities) > 0 {
		keys := make([]string, 0, len(req.Entities))
		for k := range req.Entities {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, req.Entities[k])
		}
		fmt.Fprintf(&b, "Extracted entities: %s\n", strings.Join(pairs, ", "))
	}
	if req.Context != "" {
		fmt.Fprintf(&b, "Context: %s\n", req.Context)
	}
	b.WriteString("\nRespond helpfully and concisely, in at most two sentences.")
	return b.String()
}
