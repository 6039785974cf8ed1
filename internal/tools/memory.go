package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/sage/internal/engine"
	"github.com/HendryAvila/sage/internal/memory"
)

// ─── Context ────────────────────────────────────────────────────────────────

// ContextSummaryTool handles the context_summary MCP tool.
type ContextSummaryTool struct {
	engine *engine.Engine
}

// NewContextSummaryTool creates a ContextSummaryTool.
func NewContextSummaryTool(e *engine.Engine) *ContextSummaryTool {
	return &ContextSummaryTool{engine: e}
}

// Definition returns the MCP tool definition for context_summary.
func (t *ContextSummaryTool) Definition() mcp.Tool {
	return mcp.NewTool("context_summary",
		mcp.WithDescription(
			"Summarize the running context: user, location, recent intents, time of day and "+
				"common habits for this time of day.",
		),
		mcp.WithNumber("depth",
			mcp.Description("How many recent intents to include (default: configured depth)"),
		),
	)
}

// Handle processes the context_summary tool call.
func (t *ContextSummaryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := t.engine.Summarize(intArg(req, "depth", 0))
	text := s.String()
	if err != nil {
		text += "\n\nWarning: habits unavailable: " + err.Error()
	}
	return mcp.NewToolResultText(text), nil
}

// SuggestionsTool handles the suggestions MCP tool.
type SuggestionsTool struct {
	engine *engine.Engine
}

// NewSuggestionsTool creates a SuggestionsTool.
func NewSuggestionsTool(e *engine.Engine) *SuggestionsTool {
	return &SuggestionsTool{engine: e}
}

// Definition returns the MCP tool definition for suggestions.
func (t *SuggestionsTool) Definition() mcp.Tool {
	return mcp.NewTool("suggestions",
		mcp.WithDescription("Suggest actions for the current time of day, habitual ones first."),
	)
}

// Handle processes the suggestions tool call.
func (t *SuggestionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := t.engine.Suggest()
	if err != nil && len(items) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build suggestions: %v", err)), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("No suggestions right now."), nil
	}
	var b strings.Builder
	b.WriteString("## Suggestions\n\n")
	for _, s := range items {
		fmt.Fprintf(&b, "- %s\n", s)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── Preferences ────────────────────────────────────────────────────────────

// PreferenceSetTool handles the preference_set MCP tool.
type PreferenceSetTool struct {
	engine *engine.Engine
}

// NewPreferenceSetTool creates a PreferenceSetTool.
func NewPreferenceSetTool(e *engine.Engine) *PreferenceSetTool {
	return &PreferenceSetTool{engine: e}
}

// Definition returns the MCP tool definition for preference_set.
func (t *PreferenceSetTool) Definition() mcp.Tool {
	return mcp.NewTool("preference_set",
		mcp.WithDescription(
			"Store a user preference. Category 'profile' updates the user profile "+
				"(name, location, timezone, language, voice_speed, preferred_apps, work_hours, interests).",
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Preference key"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Preference value. JSON is decoded, anything else is stored as a string."),
		),
		mcp.WithString("category",
			mcp.Description("Category (default: general)"),
		),
	)
}

// Handle processes the preference_set tool call.
func (t *PreferenceSetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := strings.TrimSpace(req.GetString("key", ""))
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	value, ok := req.GetArguments()["value"]
	if !ok {
		return mcp.NewToolResultError("'value' is required"), nil
	}
	if s, isString := value.(string); isString {
		value = decodeLoose(s)
	}
	category := req.GetString("category", "general")

	if err := t.engine.SetPreference(key, value, category); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to set preference: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Set %s = %s (%s).", key, formatValue(value), category)), nil
}

// PreferenceGetTool handles the preference_get MCP tool.
type PreferenceGetTool struct {
	engine *engine.Engine
}

// NewPreferenceGetTool creates a PreferenceGetTool.
func NewPreferenceGetTool(e *engine.Engine) *PreferenceGetTool {
	return &PreferenceGetTool{engine: e}
}

// Definition returns the MCP tool definition for preference_get.
func (t *PreferenceGetTool) Definition() mcp.Tool {
	return mcp.NewTool("preference_get",
		mcp.WithDescription("Read a stored preference, or list a category when no key is given."),
		mcp.WithString("key",
			mcp.Description("Preference key"),
		),
		mcp.WithString("category",
			mcp.Description("Category to list when key is empty (default: all)"),
		),
	)
}

// Handle processes the preference_get tool call.
func (t *PreferenceGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := strings.TrimSpace(req.GetString("key", ""))
	if key != "" {
		v, err := t.engine.GetPreference(key)
		if errors.Is(err, memory.ErrNotFound) {
			return mcp.NewToolResultText(fmt.Sprintf("No preference named %q.", key)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read preference: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s = %s", key, formatValue(v))), nil
	}

	prefs, err := t.engine.Store().Preferences(req.GetString("category", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list preferences: %v", err)), nil
	}
	if len(prefs) == 0 {
		return mcp.NewToolResultText("No preferences stored."), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Preferences (%d)\n\n", len(prefs))
	for _, p := range prefs {
		fmt.Fprintf(&b, "- **%s** = %s [%s, used %d×]\n", p.Key, p.Value, p.Category, p.UsageCount)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── Habits ─────────────────────────────────────────────────────────────────

// HabitsCommonTool handles the habits_common MCP tool.
type HabitsCommonTool struct {
	engine *engine.Engine
}

// NewHabitsCommonTool creates a HabitsCommonTool.
func NewHabitsCommonTool(e *engine.Engine) *HabitsCommonTool {
	return &HabitsCommonTool{engine: e}
}

// Definition returns the MCP tool definition for habits_common.
func (t *HabitsCommonTool) Definition() mcp.Tool {
	return mcp.NewTool("habits_common",
		mcp.WithDescription("List habits performed more than once, most frequent first."),
		mcp.WithString("time_of_day",
			mcp.Description("Bucket to filter by: current (default), morning, afternoon, evening, night, or all"),
			mcp.Enum("current", memory.Morning, memory.Afternoon, memory.Evening, memory.Night, "all"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 5)"),
		),
	)
}

// Handle processes the habits_common tool call.
func (t *HabitsCommonTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bucket := req.GetString("time_of_day", "current")
	if bucket == "all" {
		bucket = ""
	}
	habits, err := t.engine.CommonHabits(bucket, intArg(req, "limit", 5))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read habits: %v", err)), nil
	}
	if len(habits) == 0 {
		return mcp.NewToolResultText("No recurring habits yet."), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Common habits (%d)\n\n", len(habits))
	for _, h := range habits {
		fmt.Fprintf(&b, "- **%s**: %d× (%s, last %s)\n",
			h.Action, h.Frequency, h.TimeOfDay, h.LastUsed.Format("2006-01-02 15:04"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ─── Reminders ──────────────────────────────────────────────────────────────

// ReminderAddTool handles the reminder_add MCP tool.
type ReminderAddTool struct {
	engine *engine.Engine
}

// NewReminderAddTool creates a ReminderAddTool.
func NewReminderAddTool(e *engine.Engine) *ReminderAddTool {
	return &ReminderAddTool{engine: e}
}

// Definition returns the MCP tool definition for reminder_add.
func (t *ReminderAddTool) Definition() mcp.Tool {
	return mcp.NewTool("reminder_add",
		mcp.WithDescription("Store a reminder. Without remind_at it is pending immediately."),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("What to be reminded about"),
		),
		mcp.WithString("remind_at",
			mcp.Description("When it becomes due, RFC3339 (e.g. 2026-03-02T18:00:00+05:30)"),
		),
		mcp.WithNumber("priority",
			mcp.Description("Higher comes first (default: 1)"),
		),
	)
}

// Handle processes the reminder_add tool call.
func (t *ReminderAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := strings.TrimSpace(req.GetString("content", ""))
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}
	at, err := timeArg(req, "remind_at")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := t.engine.AddReminder(content, at, intArg(req, "priority", 1))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder #%d saved: %s", id, content)), nil
}

// ReminderPendingTool handles the reminder_pending MCP tool.
type ReminderPendingTool struct {
	engine *engine.Engine
}

// NewReminderPendingTool creates a ReminderPendingTool.
func NewReminderPendingTool(e *engine.Engine) *ReminderPendingTool {
	return &ReminderPendingTool{engine: e}
}

// Definition returns the MCP tool definition for reminder_pending.
func (t *ReminderPendingTool) Definition() mcp.Tool {
	return mcp.NewTool("reminder_pending",
		mcp.WithDescription("List reminders that are due and not completed, highest priority first."),
	)
}

// Handle processes the reminder_pending tool call.
func (t *ReminderPendingTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pending, err := t.engine.PendingReminders()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reminders: %v", err)), nil
	}
	if len(pending) == 0 {
		return mcp.NewToolResultText("No pending reminders."), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Pending reminders (%d)\n\n", len(pending))
	for _, r := range pending {
		due := "now"
		if r.RemindAt != nil {
			due = r.RemindAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "- #%d [p%d] %s (due %s)\n", r.ID, r.Priority, r.Content, due)
	}
	return mcp.NewToolResultText(b.String()), nil
}

// ReminderCompleteTool handles the reminder_complete MCP tool.
type ReminderCompleteTool struct {
	engine *engine.Engine
}

// NewReminderCompleteTool creates a ReminderCompleteTool.
func NewReminderCompleteTool(e *engine.Engine) *ReminderCompleteTool {
	return &ReminderCompleteTool{engine: e}
}

// Definition returns the MCP tool definition for reminder_complete.
func (t *ReminderCompleteTool) Definition() mcp.Tool {
	return mcp.NewTool("reminder_complete",
		mcp.WithDescription("Mark a reminder as completed."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Reminder id"),
		),
	)
}

// Handle processes the reminder_complete tool call.
func (t *ReminderCompleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := intArg(req, "id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	err := t.engine.CompleteReminder(int64(id))
	if errors.Is(err, memory.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("reminder #%d not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to complete reminder: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Reminder #%d completed.", id)), nil
}

// ─── History & stats ────────────────────────────────────────────────────────

// ConversationHistoryTool handles the conversation_history MCP tool.
type ConversationHistoryTool struct {
	store *memory.Store
}

// NewConversationHistoryTool creates a ConversationHistoryTool.
func NewConversationHistoryTool(store *memory.Store) *ConversationHistoryTool {
	return &ConversationHistoryTool{store: store}
}

// Definition returns the MCP tool definition for conversation_history.
func (t *ConversationHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("conversation_history",
		mcp.WithDescription("Show recorded turns, newest first, optionally filtered by intent."),
		mcp.WithString("intent",
			mcp.Description("Only turns with this intent"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 10)"),
		),
		mcp.WithString("detail_level",
			mcp.Description(
				"'summary' (intent and time), 'standard' (input and truncated response, default), "+
					"'full' (everything, including context and satisfaction)",
			),
			mcp.Enum(memory.DetailLevelValues()...),
		),
	)
}

// Handle processes the conversation_history tool call.
func (t *ConversationHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	intent := req.GetString("intent", "")
	limit := intArg(req, "limit", 10)
	level := memory.ParseDetailLevel(req.GetString("detail_level", ""))

	convs, err := t.store.ConversationHistory(limit, intent)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}
	if len(convs) == 0 {
		return mcp.NewToolResultText("No conversations recorded."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Conversation history (%d)\n\n", len(convs))
	b.WriteString(memory.FormatConversations(convs, level))
	if intent == "" {
		if stats, err := t.store.Stats(); err == nil {
			b.WriteString(memory.NavigationHint(len(convs), stats.Conversations, "Raise 'limit' to see more."))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// MemoryStatsTool handles the memory_stats MCP tool.
type MemoryStatsTool struct {
	store *memory.Store
}

// NewMemoryStatsTool creates a MemoryStatsTool.
func NewMemoryStatsTool(store *memory.Store) *MemoryStatsTool {
	return &MemoryStatsTool{store: store}
}

// Definition returns the MCP tool definition for memory_stats.
func (t *MemoryStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_stats",
		mcp.WithDescription("Show memory statistics: row counts per table and buffered turns."),
	)
}

// Handle processes the memory_stats tool call.
func (t *MemoryStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Memory Statistics\n\n")
	sb.WriteString(fmt.Sprintf("- **Session**: %s\n", stats.SessionID))
	sb.WriteString(fmt.Sprintf("- **Conversations**: %d\n", stats.Conversations))
	sb.WriteString(fmt.Sprintf("- **Preferences**: %d\n", stats.Preferences))
	sb.WriteString(fmt.Sprintf("- **Habits**: %d\n", stats.Habits))
	sb.WriteString(fmt.Sprintf("- **Reminders**: %d (%d pending)\n", stats.Reminders, stats.PendingNow))
	sb.WriteString(fmt.Sprintf("- **Learned patterns**: %d\n", stats.LearnedPatterns))
	sb.WriteString(fmt.Sprintf("- **Buffered turns**: %d\n", stats.BufferedTurns))
	return mcp.NewToolResultText(sb.String()), nil
}
