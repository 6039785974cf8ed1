// Package learner promotes confident classifications into learned
// phrases that the classifier consults before the catalog.
package learner

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/memory"
)

// Promotion rules.
const (
	Threshold   = 0.8
	PhraseWords = 3
)

// Store persists learned patterns.
type Store interface {
	SaveLearnedPattern(phrase, intent string) error
	LearnedPatterns() ([]memory.LearnedPattern, error)
}

// IntentSet reports whether an intent id is currently registered.
type IntentSet interface {
	Has(id string) bool
}

// Learner holds the learned phrase table in memory and writes every
// change through to the store.
type Learner struct {
	store   Store
	intents IntentSet
	log     *zap.Logger

	mu       sync.RWMutex
	patterns map[string]string
	phrases  []string // sorted keys of patterns
}

// New returns an empty learner. Call Load to restore persisted patterns.
func New(store Store, intents IntentSet, log *zap.Logger) *Learner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Learner{
		store:    store,
		intents:  intents,
		log:      log,
		patterns: make(map[string]string),
	}
}

// Load replaces the in-memory table with the persisted patterns.
// Patterns pointing at intents that are no longer registered are kept
// and logged.
func (l *Learner) Load() error {
	stored, err := l.store.LearnedPatterns()
	if err != nil {
		return err
	}

	l.mu.Lock()
	l.patterns = make(map[string]string, len(stored))
	for _, p := range stored {
		l.patterns[p.Phrase] = p.Intent
	}
	l.rebuild()
	l.mu.Unlock()

	for _, p := range l.Stale() {
		l.log.Warn("learned pattern points at unknown intent",
			zap.String("phrase", p.Phrase), zap.String("intent", p.Intent))
	}
	l.log.Debug("learned patterns loaded", zap.Int("count", len(stored)))
	return nil
}

// Phrase returns the first PhraseWords whitespace tokens of the
// normalized utterance, or "" when it has fewer.
func Phrase(utterance string) string {
	words := strings.Fields(strings.ToLower(utterance))
	if len(words) < PhraseWords {
		return ""
	}
	return strings.Join(words[:PhraseWords], " ")
}

// MaybeLearn records utterance's leading phrase for intent when
// confidence exceeds Threshold. It reports whether a pattern was learned.
// When persistence fails the pattern is still held in memory and the
// store's error is returned.
func (l *Learner) MaybeLearn(utterance, intent string, confidence float64) (bool, error) {
	if confidence <= Threshold || intent == "" {
		return false, nil
	}
	phrase := Phrase(utterance)
	if phrase == "" {
		return false, nil
	}

	l.mu.Lock()
	if _, exists := l.patterns[phrase]; !exists {
		l.patterns[phrase] = intent
		l.rebuild()
	} else {
		l.patterns[phrase] = intent
	}
	l.mu.Unlock()

	if err := l.store.SaveLearnedPattern(phrase, intent); err != nil {
		l.log.Warn("persist learned pattern", zap.String("phrase", phrase), zap.Error(err))
		return true, err
	}
	l.log.Debug("learned pattern", zap.String("phrase", phrase), zap.String("intent", intent))
	return true, nil
}

// Match returns the intent of the first learned phrase, in phrase order,
// that is a substring of text.
func (l *Learner) Match(text string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, p := range l.phrases {
		if strings.Contains(text, p) {
			return l.patterns[p], true
		}
	}
	return "", false
}

// Patterns returns a snapshot of the table ordered by phrase.
func (l *Learner) Patterns() []memory.LearnedPattern {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]memory.LearnedPattern, 0, len(l.phrases))
	for _, p := range l.phrases {
		out = append(out, memory.LearnedPattern{Phrase: p, Intent: l.patterns[p]})
	}
	return out
}

// Stale returns learned patterns whose intent is not registered.
func (l *Learner) Stale() []memory.LearnedPattern {
	if l.intents == nil {
		return nil
	}
	var out []memory.LearnedPattern
	for _, p := range l.Patterns() {
		if !l.intents.Has(p.Intent) {
			out = append(out, p)
		}
	}
	return out
}

// rebuild refreshes the sorted phrase list. Callers hold mu.
func (l *Learner) rebuild() {
	l.phrases = l.phrases[:0]
	for p := range l.patterns {
		l.phrases = append(l.phrases, p)
	}
	sort.Strings(l.phrases)
}
