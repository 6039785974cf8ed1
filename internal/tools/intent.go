package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/engine"
	"github.com/HendryAvila/sage/internal/entities"
)

// IntentClassifyTool handles the intent_classify MCP tool.
type IntentClassifyTool struct {
	engine *engine.Engine
}

// NewIntentClassifyTool creates an IntentClassifyTool.
func NewIntentClassifyTool(e *engine.Engine) *IntentClassifyTool {
	return &IntentClassifyTool{engine: e}
}

// Definition returns the MCP tool definition for intent_classify.
func (t *IntentClassifyTool) Definition() mcp.Tool {
	return mcp.NewTool("intent_classify",
		mcp.WithDescription(
			"Classify an utterance into an intent with a confidence score and extracted entities. "+
				"Read-only: nothing is learned or recorded. Use turn_process for the full pipeline.",
		),
		mcp.WithString("utterance",
			mcp.Required(),
			mcp.Description("What the user said"),
		),
		mcp.WithBoolean("with_context",
			mcp.Description("Classify against the current context summary (default: true)"),
		),
	)
}

// Handle processes the intent_classify tool call.
func (t *IntentClassifyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	utterance := req.GetString("utterance", "")
	if strings.TrimSpace(utterance) == "" {
		return mcp.NewToolResultError("'utterance' is required"), nil
	}

	contextText := ""
	if boolArg(req, "with_context", true) {
		// A summary without habits is still usable context.
		s, _ := t.engine.Summarize(0)
		contextText = s.String()
	}

	res := t.engine.Classify(utterance, contextText)

	var b strings.Builder
	fmt.Fprintf(&b, "## Intent: %s\n\n", res.Intent)
	fmt.Fprintf(&b, "- **Confidence**: %.2f\n", res.Confidence)
	fmt.Fprintf(&b, "- **Source**: %s\n", res.Source)
	writeEntities(&b, res.Entities)
	return mcp.NewToolResultText(b.String()), nil
}

func writeEntities(b *strings.Builder, ents entities.Entities) {
	if len(ents) == 0 {
		b.WriteString("- **Entities**: none\n")
		return
	}
	keys := make([]string, 0, len(ents))
	for k := range ents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("- **Entities**:\n")
	for _, k := range keys {
		fmt.Fprintf(b, "  - %s: %v\n", k, ents[k])
	}
}

// IntentAddTool handles the intent_add MCP tool.
type IntentAddTool struct {
	engine *engine.Engine
}

// NewIntentAddTool creates an IntentAddTool.
func NewIntentAddTool(e *engine.Engine) *IntentAddTool {
	return &IntentAddTool{engine: e}
}

// Definition returns the MCP tool definition for intent_add.
func (t *IntentAddTool) Definition() mcp.Tool {
	return mcp.NewTool("intent_add",
		mcp.WithDescription(
			"Register a custom intent at runtime. If the id already exists its phrases and "+
				"response are replaced. Set persist to also write it to the intents file.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Intent id, e.g. 'brew_coffee'"),
		),
		mcp.WithArray("phrases",
			mcp.Required(),
			mcp.Description("Phrases that trigger the intent"),
			mcp.WithStringItems(),
		),
		mcp.WithString("response",
			mcp.Description("Static response (default: 'Custom action executed')"),
		),
		mcp.WithBoolean("persist",
			mcp.Description("Write the intent to the intents file (default: false)"),
		),
	)
}

// Handle processes the intent_add tool call.
func (t *IntentAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	phrases := listArg(req, "phrases")
	response := req.GetString("response", "")
	persist := boolArg(req, "persist", false)

	if err := t.engine.AddCustomIntent(id, phrases, response, persist); err != nil {
		if errors.Is(err, catalog.ErrInvalidIntent) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to add intent: %v", err)), nil
	}

	msg := fmt.Sprintf("Added intent %q with %d phrase(s).", id, len(phrases))
	if persist {
		if path := t.engine.IntentsFile(); path != "" {
			msg += " Saved to " + path + "."
		} else {
			msg += " No intents file is configured, so it was not saved."
		}
	}
	return mcp.NewToolResultText(msg), nil
}
