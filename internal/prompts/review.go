package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the memory-review MCP prompt.
// It instructs the AI to read and present what Sage has learned.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("memory-review",
		mcp.WithPromptDescription(
			"Review what the assistant remembers: statistics, recurring habits, "+
				"recent conversations and pending reminders.",
		),
	)
}

// Handle processes the memory-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Memory review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `memory_stats` to see what is stored.\n\n" +
						"Then:\n" +
						"1. Run `habits_common` with time_of_day='all' and summarize my routines\n" +
						"2. Run `conversation_history` with detail_level='summary' and point out anything repeated\n" +
						"3. Run `reminder_pending` and list what is due\n" +
						"4. Suggest one custom intent (via `intent_add`) that would save me time",
				),
			},
		},
	}, nil
}
