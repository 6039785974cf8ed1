// Package contextual builds the running context summary fed back into
// classification, and the time-of-day suggestions offered to the user.
package contextual

import (
	"strings"

	"github.com/HendryAvila/sage/internal/memory"
)

// Limits.
const (
	DefaultDepth   = 3
	SummaryHabits  = 3
	MaxSuggestions = 5
)

// Source is the part of the memory store the aggregator reads.
type Source interface {
	Profile() memory.Profile
	RecentIntents(depth int) []string
	CurrentBucket() string
	CommonHabits(bucket string, limit int) ([]memory.Habit, error)
}

// Summary is the structured form of the context summary.
type Summary struct {
	User          string   `json:"user"`
	Location      string   `json:"location"`
	RecentActions []string `json:"recent_actions"`
	TimeOfDay     string   `json:"time_of_day"`
	Habits        []string `json:"habits"`
}

// String renders the summary as the text handed to the classifier and
// the generator. With no recent actions only the user and location are
// included.
func (s Summary) String() string {
	if len(s.RecentActions) == 0 {
		return "User: " + s.User + ", Location: " + s.Location
	}
	parts := []string{
		"User: " + s.User,
		"Location: " + s.Location,
		"Recent actions: " + strings.Join(s.RecentActions, ", "),
		"Time: " + s.TimeOfDay,
	}
	if len(s.Habits) > 0 {
		parts = append(parts, "Common "+s.TimeOfDay+" activities: "+strings.Join(s.Habits, ", "))
	}
	return strings.Join(parts, ". ")
}

// Aggregator reads memory and produces summaries and suggestions.
type Aggregator struct {
	src Source
}

// New returns an aggregator over src.
func New(src Source) *Aggregator {
	return &Aggregator{src: src}
}

// Summarize builds the summary over the depth most recent window entries.
// When habits cannot be read the summary is returned without them along
// with the store error.
func (a *Aggregator) Summarize(depth int) (Summary, error) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	p := a.src.Profile()
	s := Summary{
		User:          p.Name,
		Location:      p.Location,
		RecentActions: a.src.RecentIntents(depth),
		TimeOfDay:     a.src.CurrentBucket(),
	}

	habits, err := a.src.CommonHabits(s.TimeOfDay, SummaryHabits)
	for _, h := range habits {
		s.Habits = append(s.Habits, h.Action)
	}
	return s, err
}

var bucketDefaults = map[string][]string{
	memory.Morning: {"Check weather", "Today's schedule", "Morning news"},
	memory.Evening: {"Play music", "Check emails", "Set reminders"},
}

// Suggest returns up to MaxSuggestions actions for the current time of
// day: habitual ones first, then the bucket's static defaults.
func (a *Aggregator) Suggest() ([]string, error) {
	bucket := a.src.CurrentBucket()
	habits, err := a.src.CommonHabits(bucket, SummaryHabits)

	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, h := range habits {
		add(suggestionFor(strings.TrimSuffix(h.Action, "_"+bucket)))
	}
	for _, s := range bucketDefaults[bucket] {
		add(s)
	}
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out, err
}

func suggestionFor(action string) string {
	if app, ok := strings.CutPrefix(action, memory.AppIntentPrefix); ok && app != "" {
		return "Open " + app
	}
	switch action {
	case "weather", "news", "time":
		return "Check " + action
	}
	return ""
}
