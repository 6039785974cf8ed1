// Package skills is the capability registry: named handlers that say
// whether they can answer a classified request and then answer it.
package skills

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/HendryAvila/sage/internal/entities"
)

// ErrDuplicate is returned when a skill name is registered twice.
var ErrDuplicate = errors.New("skills: duplicate skill")

// Request is a classified utterance handed to a skill.
type Request struct {
	Utterance string
	Intent    string
	Entities  entities.Entities
	Context   string
}

// Skill handles a class of requests.
type Skill interface {
	Name() string
	CanHandle(req Request) bool
	// Execute returns the text to say back. A skill that fails returns a
	// user-facing message together with the error.
	Execute(ctx context.Context, req Request) (string, error)
}

// Registry holds skills in registration order.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	skills map[string]Skill
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{skills: make(map[string]Skill)}
}

// Register adds s. Names must be unique.
func (r *Registry) Register(s Skill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.skills[s.Name()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, s.Name())
	}
	r.order = append(r.order, s.Name())
	r.skills[s.Name()] = s
	return nil
}

// MustRegister is Register for setup code; it panics on error.
func (r *Registry) MustRegister(skills ...Skill) {
	for _, s := range skills {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
}

// Get returns the skill registered under name.
func (r *Registry) Get(name string) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.skills[name]
	return s, ok
}

// Find returns the first skill, in registration order, that can handle req.
func (r *Registry) Find(req Request) (Skill, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, name := range r.order {
		if s := r.skills[name]; s.CanHandle(req) {
			return s, true
		}
	}
	return nil, false
}

// Names returns registered skill names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}
