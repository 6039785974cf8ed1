// detail_level.go provides the detail_level parameter shared by the
// history and memory tools, and the text rendering each level selects.
//
// Three verbosity levels:
//   - summary: intent and time only
//   - standard: default, input plus a truncated response
//   - full: input, complete response and stored context
package memory

import (
	"fmt"
	"strings"
)

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to "standard"
// for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// NavigationHint returns a one-line footer when results are capped by a limit.
// Returns an empty string when all results fit or total is 0.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\nShowing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\nShowing %d of %d.", showing, total)
}

// FormatConversations renders conversations as a markdown list at the
// requested detail level.
func FormatConversations(convs []Conversation, level string) string {
	var b strings.Builder
	for _, c := range convs {
		ts := c.Timestamp.Format("2006-01-02 15:04")
		switch ParseDetailLevel(level) {
		case DetailSummary:
			fmt.Fprintf(&b, "- #%d [%s] %s\n", c.ID, c.Intent, ts)
		case DetailFull:
			fmt.Fprintf(&b, "### #%d [%s] %s\n", c.ID, c.Intent, ts)
			fmt.Fprintf(&b, "**User**: %s\n", c.UserInput)
			fmt.Fprintf(&b, "**Response**: %s\n", c.Response)
			if c.Context != "" {
				fmt.Fprintf(&b, "**Context**: %s\n", c.Context)
			}
			if c.Satisfaction != nil {
				fmt.Fprintf(&b, "**Satisfaction**: %d/5\n", *c.Satisfaction)
			}
			b.WriteString("\n")
		default:
			fmt.Fprintf(&b, "- #%d [%s] %s: %q → %s\n",
				c.ID, c.Intent, ts, c.UserInput, Truncate(c.Response, 80))
		}
	}
	return b.String()
}
