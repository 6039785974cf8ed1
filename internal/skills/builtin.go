package skills

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/entities"
	"github.com/HendryAvila/sage/internal/memory"
)

// ─── Time / Date ────────────────────────────────────────────────────────────

// Clock returns the current time in the user's location.
type Clock func() time.Time

// TimeSkill answers the time intent.
type TimeSkill struct{ Now Clock }

func (TimeSkill) Name() string { return "time" }
func (TimeSkill) CanHandle(req Request) bool { return req.Intent == "time" }

func (s TimeSkill) Execute(context.Context, Request) (string, error) {
	return "The current time is " + s.Now().Format("03:04 PM"), nil
}

// DateSkill answers the date intent.
type DateSkill struct{ Now Clock }

func (DateSkill) Name() string { return "date" }
func (DateSkill) CanHandle(req Request) bool { return req.Intent == "date" }

func (s DateSkill) Execute(context.Context, Request) (string, error) {
	return "Today is " + s.Now().Format("Monday, January 02, 2006"), nil
}

// ─── Greeting ───────────────────────────────────────────────────────────────

// GreetingSource supplies what a greeting needs to know.
type GreetingSource interface {
	Profile() memory.Profile
	CurrentBucket() string
}

// Suggester offers the next likely actions.
type Suggester interface {
	Suggest() ([]string, error)
}

// GreetingSkill greets by time of day and offers the first suggestion.
type GreetingSkill struct {
	Source    GreetingSource
	Suggester Suggester
}

func (GreetingSkill) Name() string { return "greeting" }
func (GreetingSkill) CanHandle(req Request) bool { return req.Intent == "greeting" }

func (s GreetingSkill) Execute(context.Context, Request) (string, error) {
	name := s.Source.Profile().Name
	var greeting string
	switch s.Source.CurrentBucket() {
	case memory.Morning:
		greeting = "Good morning, " + name + "!"
	case memory.Afternoon:
		greeting = "Good afternoon, " + name + "!"
	case memory.Evening:
		greeting = "Good evening, " + name + "!"
	default:
		greeting = "Hello, " + name + "!"
	}

	if s.Suggester == nil {
		return greeting, nil
	}
	suggestions, err := s.Suggester.Suggest()
	if len(suggestions) > 0 {
		greeting += " Would you like me to " + strings.ToLower(suggestions[0]) + "?"
	}
	return greeting, err
}

// ─── Reminder ───────────────────────────────────────────────────────────────

// ReminderStore persists reminders.
type ReminderStore interface {
	AddReminder(p memory.AddReminderParams) (int64, error)
}

// ReminderSkill stores the reminder text extracted from the utterance,
// falling back to the whole utterance.
type ReminderSkill struct{ Store ReminderStore }

func (ReminderSkill) Name() string { return "reminder" }
func (ReminderSkill) CanHandle(req Request) bool { return req.Intent == "reminder" }

func (s ReminderSkill) Execute(_ context.Context, req Request) (string, error) {
	text := req.Entities.String(entities.ReminderText)
	if text == "" {
		text = strings.TrimSpace(req.Utterance)
	}
	if _, err := s.Store.AddReminder(memory.AddReminderParams{Content: text}); err != nil {
		return "I couldn't set that reminder", fmt.Errorf("skills: add reminder: %w", err)
	}
	return "I'll remind you about: " + text, nil
}

// ─── Catalog ────────────────────────────────────────────────────────────────

// CatalogSkill answers any registered intent with its canned response.
// Register it last.
type CatalogSkill struct{ Catalog *catalog.Catalog }

func (CatalogSkill) Name() string { return "catalog" }

func (s CatalogSkill) CanHandle(req Request) bool { return s.Catalog.Has(req.Intent) }

func (s CatalogSkill) Execute(_ context.Context, req Request) (string, error) {
	return s.Catalog.Response(req.Intent), nil
}
