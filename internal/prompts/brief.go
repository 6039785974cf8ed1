// Package prompts implements the MCP prompts Sage offers.
//
// MCP prompts are user-triggered workflows (like slash commands). Unlike
// tools, which the AI calls, prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sage/internal/contextual"
)

// ContextSource supplies the live context a prompt embeds.
type ContextSource interface {
	Summarize(depth int) (contextual.Summary, error)
	Suggest() ([]string, error)
}

// BriefPrompt handles the assistant-brief MCP prompt.
// It primes the AI with who the user is and what they have been doing.
type BriefPrompt struct {
	src ContextSource
}

// NewBriefPrompt creates a BriefPrompt.
func NewBriefPrompt(src ContextSource) *BriefPrompt {
	return &BriefPrompt{src: src}
}

// Definition returns the MCP prompt definition for registration.
func (p *BriefPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("assistant-brief",
		mcp.WithPromptDescription(
			"Brief the assistant on the user: profile, recent activity, habits for this "+
				"time of day and suggested next actions.",
		),
		mcp.WithArgument("focus",
			mcp.ArgumentDescription("Optional topic to steer the brief, e.g. 'reminders' or 'music'"),
		),
	)
}

// Handle processes the assistant-brief prompt request.
func (p *BriefPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	focus := ""
	if args := req.Params.Arguments; args != nil {
		focus = strings.TrimSpace(args["focus"])
	}

	// Both calls degrade to partial results when habits are unavailable.
	summary, _ := p.src.Summarize(0)
	suggestions, _ := p.src.Suggest()

	var b strings.Builder
	b.WriteString("You are a personal voice assistant. Here is what you know about the user right now.\n\n")
	fmt.Fprintf(&b, "**Context**: %s\n", summary.String())
	if len(suggestions) > 0 {
		fmt.Fprintf(&b, "**Suggested actions**: %s\n", strings.Join(suggestions, ", "))
	}
	b.WriteString("\nPlease:\n" +
		"1. Greet the user by name, appropriate for the time of day\n" +
		"2. Offer the first suggested action, if any\n" +
		"3. Use `turn_process` for each thing the user says, and `reminder_pending` before ending the session\n")
	if focus != "" {
		fmt.Fprintf(&b, "\nFocus on: %s\n", focus)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Assistant brief for %s", summary.User),
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(b.String()),
			},
		},
	}, nil
}
