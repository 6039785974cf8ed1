package memory

import "time"

// ─── Types ───────────────────────────────────────────────────────────────────

// Conversation is one recorded turn. Append-only.
type Conversation struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
	UserInput    string    `json:"user_input"`
	Intent       string    `json:"intent"`
	Response     string    `json:"response"`
	Context      string    `json:"context"`
	Satisfaction *int      `json:"satisfaction,omitempty"`
}

// WindowEntry is one element of the active context window.
type WindowEntry struct {
	Input     string    `json:"input"`
	Intent    string    `json:"intent"`
	Timestamp time.Time `json:"timestamp"`
}

// Preference is a keyed user setting. Value holds the JSON encoding.
type Preference struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Category    string    `json:"category"`
	LastUpdated time.Time `json:"last_updated"`
	UsageCount  int       `json:"usage_count"`
}

// Habit counts how often an action has been performed.
type Habit struct {
	Action    string    `json:"action"`
	Frequency int       `json:"frequency"`
	LastUsed  time.Time `json:"last_used"`
	TimeOfDay string    `json:"time_of_day"`
}

// Reminder is a stored note that becomes pending once due.
type Reminder struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"created_at"`
	RemindAt  *time.Time `json:"remind_at,omitempty"`
	Completed bool       `json:"completed"`
	Priority  int        `json:"priority"`
}

// LearnedPattern maps a short leading phrase to the intent it was
// confidently classified as.
type LearnedPattern struct {
	Phrase    string    `json:"phrase"`
	Intent    string    `json:"intent"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ─── Time buckets ────────────────────────────────────────────────────────────

// Time-of-day buckets used for habits and suggestions.
const (
	Morning   = "morning"
	Afternoon = "afternoon"
	Evening   = "evening"
	Night     = "night"
)

// TimeBucket maps an hour (0-23) to its time-of-day bucket.
func TimeBucket(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 21:
		return Evening
	default:
		return Night
	}
}
