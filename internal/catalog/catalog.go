// Package catalog holds the table of known intents: their match phrases,
// static entity metadata and canned responses.
//
// The catalog is loaded once at startup from the built-in defaults and the
// optional custom intents file, and can be extended at runtime. It is safe
// for concurrent use; readers get ordered snapshots.
package catalog

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidIntent is returned when an intent has no id or no phrases.
var ErrInvalidIntent = errors.New("catalog: invalid intent")

// Fallback strings for intents without responses.
const (
	DefaultResponse       = "I understand."
	CustomDefaultResponse = "Custom action executed"
)

// Intent is one catalog entry.
type Intent struct {
	ID      string   `yaml:"id" json:"id"`
	Phrases []string `yaml:"phrases" json:"phrases"`
	// Entities holds static entity values attached to every match,
	// e.g. app: chrome or action: increase.
	Entities  map[string]string `yaml:"entities,omitempty" json:"entities,omitempty"`
	Responses []string          `yaml:"responses,omitempty" json:"responses,omitempty"`
}

func (in Intent) clone() Intent {
	out := Intent{
		ID:        in.ID,
		Phrases:   append([]string(nil), in.Phrases...),
		Responses: append([]string(nil), in.Responses...),
	}
	if in.Entities != nil {
		out.Entities = make(map[string]string, len(in.Entities))
		for k, v := range in.Entities {
			out.Entities[k] = v
		}
	}
	return out
}

// Catalog is an ordered, concurrency-safe set of intents.
type Catalog struct {
	mu      sync.RWMutex
	order   []string
	intents map[string]Intent
	version uint64
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{intents: make(map[string]Intent)}
}

// Default returns a catalog seeded with the built-in intents.
func Default() *Catalog {
	c := New()
	for _, in := range builtinIntents() {
		if err := c.Register(in); err != nil {
			panic(err)
		}
	}
	return c
}

// Register adds an intent or replaces an existing one with the same id.
// Replaced intents keep their position, so catalog order stays stable.
func (c *Catalog) Register(in Intent) error {
	in.ID = strings.TrimSpace(in.ID)
	if in.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidIntent)
	}
	phrases := make([]string, 0, len(in.Phrases))
	for _, p := range in.Phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			phrases = append(phrases, p)
		}
	}
	if len(phrases) == 0 {
		return fmt.Errorf("%w: %q has no phrases", ErrInvalidIntent, in.ID)
	}
	in.Phrases = phrases
	in = in.clone()

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.intents[in.ID]; !ok {
		c.order = append(c.order, in.ID)
	}
	c.intents[in.ID] = in
	c.version++
	return nil
}

// AddCustomIntent registers a user-defined intent with a single response.
// An empty response becomes CustomDefaultResponse.
func (c *Catalog) AddCustomIntent(id string, phrases []string, response string) error {
	if response == "" {
		response = CustomDefaultResponse
	}
	return c.Register(Intent{ID: id, Phrases: phrases, Responses: []string{response}})
}

// Lookup returns a copy of the intent with the given id.
func (c *Catalog) Lookup(id string) (Intent, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.intents[id]
	if !ok {
		return Intent{}, false
	}
	return in.clone(), true
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.intents[id]
	return ok
}

// Intents returns every intent in catalog order.
func (c *Catalog) Intents() []Intent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Intent, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.intents[id].clone())
	}
	return out
}

// IDs returns the registered intent ids in catalog order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.order...)
}

// Len returns the number of registered intents.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Version increments on every change. Callers can use it to invalidate
// derived state such as compiled matchers.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Entity returns the static entity value name for intent id.
func (c *Catalog) Entity(id, name string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.intents[id]
	if !ok {
		return "", false
	}
	v, ok := in.Entities[name]
	return v, ok
}

// Response returns the first canned response for id, or DefaultResponse.
func (c *Catalog) Response(id string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	in, ok := c.intents[id]
	if !ok || len(in.Responses) == 0 {
		return DefaultResponse
	}
	return in.Responses[0]
}
