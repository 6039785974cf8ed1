package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sage/internal/engine"
)

// TurnProcessTool handles the turn_process MCP tool.
type TurnProcessTool struct {
	engine *engine.Engine
}

// NewTurnProcessTool creates a TurnProcessTool.
func NewTurnProcessTool(e *engine.Engine) *TurnProcessTool {
	return &TurnProcessTool{engine: e}
}

// Definition returns the MCP tool definition for turn_process.
func (t *TurnProcessTool) Definition() mcp.Tool {
	return mcp.NewTool("turn_process",
		mcp.WithDescription(
			"Run an utterance through the full pipeline: classify against the running context, "+
				"produce a response and record the turn in memory.",
		),
		mcp.WithString("utterance",
			mcp.Required(),
			mcp.Description("What the user said"),
		),
	)
}

// Handle processes the turn_process tool call.
func (t *TurnProcessTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	utterance := req.GetString("utterance", "")
	if strings.TrimSpace(utterance) == "" {
		return mcp.NewToolResultError("'utterance' is required"), nil
	}

	turn, err := t.engine.Process(ctx, utterance)

	var b strings.Builder
	fmt.Fprintf(&b, "## Response\n\n%s\n\n", turn.Response)
	fmt.Fprintf(&b, "- **Intent**: %s (%.2f, %s)\n", turn.Result.Intent, turn.Result.Confidence, turn.Result.Source)
	writeEntities(&b, turn.Result.Entities)
	if turn.ConversationID != 0 {
		fmt.Fprintf(&b, "- **Conversation**: #%d\n", turn.ConversationID)
	}
	fmt.Fprintf(&b, "- **Context**: %s\n", turn.Context)
	if err != nil {
		fmt.Fprintf(&b, "\nWarning: memory was not fully updated: %v\n", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// TurnRecordTool handles the turn_record MCP tool.
type TurnRecordTool struct {
	engine *engine.Engine
}

// NewTurnRecordTool creates a TurnRecordTool.
func NewTurnRecordTool(e *engine.Engine) *TurnRecordTool {
	return &TurnRecordTool{engine: e}
}

// Definition returns the MCP tool definition for turn_record.
func (t *TurnRecordTool) Definition() mcp.Tool {
	return mcp.NewTool("turn_record",
		mcp.WithDescription(
			"Record a turn that was handled elsewhere. Updates habit counters and the context window.",
		),
		mcp.WithString("utterance",
			mcp.Required(),
			mcp.Description("What the user said"),
		),
		mcp.WithString("intent",
			mcp.Required(),
			mcp.Description("Intent the turn was handled as"),
		),
		mcp.WithString("response",
			mcp.Description("What the assistant replied"),
		),
		mcp.WithString("context",
			mcp.Description("Context summary at the time of the turn"),
		),
	)
}

// Handle processes the turn_record tool call.
func (t *TurnRecordTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	utterance := req.GetString("utterance", "")
	intent := strings.TrimSpace(req.GetString("intent", ""))
	if utterance == "" || intent == "" {
		return mcp.NewToolResultError("'utterance' and 'intent' are required"), nil
	}

	conv, err := t.engine.RecordTurn(utterance, req.GetString("response", ""), intent, req.GetString("context", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to record turn: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Recorded turn #%d as %s.", conv.ID, intent)), nil
}

// TurnFeedbackTool handles the turn_feedback MCP tool.
type TurnFeedbackTool struct {
	engine *engine.Engine
}

// NewTurnFeedbackTool creates a TurnFeedbackTool.
func NewTurnFeedbackTool(e *engine.Engine) *TurnFeedbackTool {
	return &TurnFeedbackTool{engine: e}
}

// Definition returns the MCP tool definition for turn_feedback.
func (t *TurnFeedbackTool) Definition() mcp.Tool {
	return mcp.NewTool("turn_feedback",
		mcp.WithDescription(
			"Rate how well a recorded turn was handled, from 1 (poor) to 5 (great). "+
				"A score of 4 or more confirms the intent and teaches Sage the phrasing.",
		),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Conversation id returned by turn_process or turn_record"),
		),
		mcp.WithNumber("score",
			mcp.Required(),
			mcp.Description("Satisfaction score, 1-5"),
		),
	)
}

// Handle processes the turn_feedback tool call.
func (t *TurnFeedbackTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "id", 0)
	score := intArg(req, "score", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	learned, err := t.engine.Feedback(int64(id), score)
	if err != nil && !learned {
		return mcp.NewToolResultError(fmt.Sprintf("failed to rate turn: %v", err)), nil
	}
	msg := fmt.Sprintf("Turn #%d rated %d/5.", id, score)
	if learned {
		msg += " Its phrasing was learned."
	}
	if err != nil {
		msg += fmt.Sprintf("\n\nWarning: the learned phrase was not saved: %v", err)
	}
	return mcp.NewToolResultText(msg), nil
}
