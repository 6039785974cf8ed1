package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/entities"
)

// Request is what the generator is asked to answer.
type Request struct {
	Intent    string
	Entities  entities.Entities
	Utterance string
	Context   string
}

// Generator produces free-form replies for utterances no intent matched.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Automator performs OS-level actions. action is the intent id, e.g.
// open_browser or volume_up; entities carry app, action and level.
type Automator interface {
	Perform(ctx context.Context, action string, ents entities.Entities) error
}

// LogAutomator records automation requests without performing them.
type LogAutomator struct {
	Log *zap.Logger
}

func (a LogAutomator) Perform(_ context.Context, action string, ents entities.Entities) error {
	if a.Log != nil {
		a.Log.Info("automation requested", zap.String("action", action), zap.Any("entities", ents))
	}
	return nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// AutomatorFunc adapts a function to Automator.
type AutomatorFunc func(ctx context.Context, action string, ents entities.Entities) error

func (f AutomatorFunc) Perform(ctx context.Context, action string, ents entities.Entities) error {
	return f(ctx, action, ents)
}
