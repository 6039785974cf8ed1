// Package engine is the facade over classification, learning, memory and
// context. Process runs the full turn pipeline; the other methods expose
// each stage on its own.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/classifier"
	"github.com/HendryAvila/sage/internal/contextual"
	"github.com/HendryAvila/sage/internal/learner"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/safety"
	"github.com/HendryAvila/sage/internal/skills"
)

// Deps wires an Engine. Store and Catalog are required.
type Deps struct {
	Store     *memory.Store
	Catalog   *catalog.Catalog
	Generator Generator
	Automator Automator
	Guard     *safety.Guard
	Logger    *zap.Logger

	// ContextDepth is how many recent intents the summary carries.
	ContextDepth int
	// IntentsFile, when set, receives intents added with persist=true.
	IntentsFile string
}

// Engine runs turns. It is safe for concurrent use.
type Engine struct {
	store       *memory.Store
	catalog     *catalog.Catalog
	learner     *learner.Learner
	classifier  *classifier.Classifier
	aggregator  *contextual.Aggregator
	registry    *skills.Registry
	log         *zap.Logger
	depth       int
	intentsFile string
}

// Turn is the outcome of one processed utterance.
type Turn struct {
	Utterance      string            `json:"utterance"`
	Result         classifier.Result `json:"result"`
	Response       string            `json:"response"`
	Context        string            `json:"context"`
	ConversationID int64             `json:"conversation_id,omitempty"`
}

// ErrUnknownIntent is returned when a turn is recorded under an intent
// that is neither registered nor the fallback.
var ErrUnknownIntent = errors.New("engine: unknown intent")

// ConfirmingScore is the lowest satisfaction score that confirms a
// turn's classification.
const ConfirmingScore = 4

// New builds an engine and loads the learned patterns from the store.
func New(d Deps) (*Engine, error) {
	if d.Store == nil || d.Catalog == nil {
		return nil, errors.New("engine: store and catalog are required")
	}
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.Automator == nil {
		d.Automator = LogAutomator{Log: log}
	}
	if d.Guard == nil {
		d.Guard = safety.NewGuard()
	}
	if d.ContextDepth <= 0 {
		d.ContextDepth = contextual.DefaultDepth
	}

	l := learner.New(d.Store, d.Catalog, log.Named("learner"))
	if err := l.Load(); err != nil {
		return nil, fmt.Errorf("engine: load learned patterns: %w", err)
	}

	agg := contextual.New(d.Store)
	reg := skills.NewRegistry()
	reg.MustRegister(
		generatorSkill{gen: d.Generator, log: log},
		skills.TimeSkill{Now: d.Store.Now},
		skills.DateSkill{Now: d.Store.Now},
		skills.GreetingSkill{Source: d.Store, Suggester: agg},
		skills.ReminderSkill{Store: d.Store},
		automationSkill{automator: d.Automator, guard: d.Guard, prefs: d.Store, catalog: d.Catalog, log: log},
		skills.CatalogSkill{Catalog: d.Catalog},
	)

	return &Engine{
		store:       d.Store,
		catalog:     d.Catalog,
		learner:     l,
		classifier:  classifier.New(d.Catalog, l),
		aggregator:  agg,
		registry:    reg,
		log:         log,
		depth:       d.ContextDepth,
		intentsFile: d.IntentsFile,
	}, nil
}

// Registry exposes the skill registry so callers can add capabilities.
// Skills registered after New are consulted after the built-in ones.
func (e *Engine) Registry() *skills.Registry { return e.registry }

// Catalog returns the intent catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Store returns the memory store.
func (e *Engine) Store() *memory.Store { return e.store }

// Learner returns the pattern learner.
func (e *Engine) Learner() *learner.Learner { return e.learner }

// IntentsFile is where persisted custom intents are written, or "".
func (e *Engine) IntentsFile() string { return e.intentsFile }

// ─── Pipeline ───────────────────────────────────────────────────────────────

// Process runs one utterance through the whole pipeline: summarize the
// context, classify, respond and record. It does not learn: the
// classifier's own confidence is no confirmation. See Feedback.
//
// The returned error is non-nil only for store failures. The Turn is
// always populated, so callers can keep going without persistence.
func (e *Engine) Process(ctx context.Context, utterance string) (*Turn, error) {
	var errs []error
	collect := func(err error) {
		if err == nil {
			return
		}
		if memory.IsStoreFailure(err) {
			errs = append(errs, err)
			return
		}
		e.log.Warn("turn step failed", zap.Error(err))
	}

	summary, err := e.aggregator.Summarize(e.depth)
	collect(err)
	contextText := summary.String()

	res := e.classifier.Classify(utterance, contextText)
	turn := &Turn{Utterance: utterance, Result: res, Context: contextText}

	turn.Response, err = e.respond(ctx, res, utterance, contextText)
	collect(err)

	conv, err := e.store.RecordConversation(utterance, turn.Response, res.Intent, contextText)
	collect(err)
	if conv != nil {
		turn.ConversationID = conv.ID
	}

	e.log.Debug("turn processed",
		zap.String("intent", res.Intent),
		zap.Float64("confidence", res.Confidence),
		zap.String("source", string(res.Source)))

	return turn, errors.Join(errs...)
}

func (e *Engine) respond(ctx context.Context, res classifier.Result, utterance, contextText string) (string, error) {
	req := skills.Request{
		Utterance: utterance,
		Intent:    res.Intent,
		Entities:  res.Entities,
		Context:   contextText,
	}
	s, ok := e.registry.Find(req)
	if !ok {
		return NoGeneratorReply, nil
	}
	reply, err := s.Execute(ctx, req)
	if err != nil {
		if reply == "" {
			reply = NeutralReply
		}
		return reply, fmt.Errorf("skill %s: %w", s.Name(), err)
	}
	return reply, nil
}

// ─── Stages ─────────────────────────────────────────────────────────────────

// Classify runs the classifier only. It has no side effects.
func (e *Engine) Classify(utterance, contextText string) classifier.Result {
	return e.classifier.Classify(utterance, contextText)
}

// Learn offers a classification to the learner.
func (e *Engine) Learn(utterance, intent string, confidence float64) (bool, error) {
	return e.learner.MaybeLearn(classifier.Normalize(utterance), intent, confidence)
}

// RecordTurn stores a turn that was handled outside Process. intent must
// be registered or the fallback.
func (e *Engine) RecordTurn(utterance, response, intent, contextText string) (*memory.Conversation, error) {
	if intent != classifier.FallbackIntent && !e.catalog.Has(intent) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIntent, intent)
	}
	return e.store.RecordConversation(utterance, response, intent, contextText)
}

// Feedback rates a stored turn from 1 to 5. A score of ConfirmingScore or
// more confirms the turn's intent, and the leading phrase of its
// utterance is learned. It reports whether a pattern was learned.
func (e *Engine) Feedback(id int64, score int) (bool, error) {
	if err := e.store.SetSatisfaction(id, score); err != nil {
		return false, err
	}
	if score < ConfirmingScore {
		return false, nil
	}
	conv, err := e.store.Conversation(id)
	if err != nil {
		return false, err
	}
	if conv.Intent == classifier.FallbackIntent || !e.catalog.Has(conv.Intent) {
		return false, nil
	}
	return e.learner.MaybeLearn(classifier.Normalize(conv.UserInput), conv.Intent, 1)
}

// Summarize returns the context summary over the depth most recent
// intents. depth <= 0 uses the configured depth.
func (e *Engine) Summarize(depth int) (contextual.Summary, error) {
	if depth <= 0 {
		depth = e.depth
	}
	return e.aggregator.Summarize(depth)
}

// Suggest returns time-of-day suggestions.
func (e *Engine) Suggest() ([]string, error) {
	return e.aggregator.Suggest()
}

// AddCustomIntent registers an intent at runtime. With persist set and an
// intents file configured, the intent is also written to that file.
func (e *Engine) AddCustomIntent(id string, phrases []string, response string, persist bool) error {
	if err := e.catalog.AddCustomIntent(id, phrases, response); err != nil {
		return err
	}
	if !persist || e.intentsFile == "" {
		return nil
	}
	in, _ := e.catalog.Lookup(strings.TrimSpace(id))
	if err := catalog.AppendFile(e.intentsFile, in); err != nil {
		return fmt.Errorf("engine: persist intent: %w", err)
	}
	return nil
}

// ─── Passthroughs ───────────────────────────────────────────────────────────

// SetPreference stores a user preference.
func (e *Engine) SetPreference(key string, value any, category string) error {
	return e.store.SetPreference(key, value, category)
}

// GetPreference returns a stored preference.
func (e *Engine) GetPreference(key string) (any, error) {
	return e.store.GetPreference(key)
}

// CommonHabits returns habits for bucket; "current" means the current
// time of day.
func (e *Engine) CommonHabits(bucket string, limit int) ([]memory.Habit, error) {
	if bucket == "current" {
		bucket = e.store.CurrentBucket()
	}
	return e.store.CommonHabits(bucket, limit)
}

// AddReminder stores a reminder.
func (e *Engine) AddReminder(content string, remindAt *time.Time, priority int) (int64, error) {
	return e.store.AddReminder(memory.AddReminderParams{Content: content, RemindAt: remindAt, Priority: priority})
}

// PendingReminders returns due reminders.
func (e *Engine) PendingReminders() ([]memory.Reminder, error) {
	return e.store.PendingReminders()
}

// CompleteReminder marks a reminder done.
func (e *Engine) CompleteReminder(id int64) error {
	return e.store.CompleteReminder(id)
}
