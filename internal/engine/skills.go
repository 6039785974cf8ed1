package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/classifier"
	"github.com/HendryAvila/sage/internal/entities"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/safety"
	"github.com/HendryAvila/sage/internal/skills"
)

// Fixed replies.
const (
	NoGeneratorReply = "I'm not sure how to help with that"
	ApologyReply     = "I understand your request."
	BlockedReply     = "I can't do that for safety reasons."
	NeutralReply     = "I couldn't complete that request"
)

// LastOpenedAppKey is the preference updated after an app is opened.
const LastOpenedAppKey = "last_opened_app"

// ─── Generator ──────────────────────────────────────────────────────────────

// generatorSkill answers the fallback intent through the Generator.
type generatorSkill struct {
	gen Generator
	log *zap.Logger
}

func (generatorSkill) Name() string { return "generator" }

func (generatorSkill) CanHandle(req skills.Request) bool {
	return req.Intent == classifier.FallbackIntent
}

func (s generatorSkill) Execute(ctx context.Context, req skills.Request) (string, error) {
	if s.gen == nil {
		return NoGeneratorReply, nil
	}
	reply, err := s.gen.Generate(ctx, Request{
		Intent:    req.Intent,
		Entities:  req.Entities,
		Utterance: req.Utterance,
		Context:   req.Context,
	})
	if err != nil {
		s.log.Warn("generator failed", zap.Error(err))
		return ApologyReply, nil
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return ApologyReply, nil
	}
	return reply, nil
}

// ─── Automation ─────────────────────────────────────────────────────────────

// IsAutomationIntent reports whether intent is carried out by the
// Automator.
func IsAutomationIntent(intent string) bool {
	if strings.HasPrefix(intent, memory.AppIntentPrefix) || entities.IsVolumeIntent(intent) {
		return true
	}
	switch intent {
	case "screenshot", "system_info", "shutdown", "restart", "search":
		return true
	}
	return false
}

// PreferenceWriter records preferences.
type PreferenceWriter interface {
	SetPreference(key string, value any, category string) error
}

// automationSkill screens requests with the safety guard and hands them to
// the Automator. Automator failures become a neutral reply.
type automationSkill struct {
	automator Automator
	guard     *safety.Guard
	prefs     PreferenceWriter
	catalog   *catalog.Catalog
	log       *zap.Logger
}

func (automationSkill) Name() string { return "automation" }

func (automationSkill) CanHandle(req skills.Request) bool {
	return IsAutomationIntent(req.Intent)
}

func (s automationSkill) Execute(ctx context.Context, req skills.Request) (string, error) {
	if req.Intent == "search" && req.Entities.String(entities.Query) == "" {
		return "What would you like me to search for?", nil
	}

	if err := s.screen(req); err != nil {
		var blocked *safety.BlockedError
		if errors.As(err, &blocked) {
			s.log.Warn("automation blocked",
				zap.String("intent", req.Intent),
				zap.String("category", string(blocked.Category)),
				zap.String("pattern", blocked.Pattern))
		}
		return BlockedReply, nil
	}

	if err := s.automator.Perform(ctx, req.Intent, req.Entities); err != nil {
		s.log.Warn("automation failed", zap.String("intent", req.Intent), zap.Error(err))
		return s.failureReply(req), nil
	}

	reply := s.successReply(req)
	if app, ok := strings.CutPrefix(req.Intent, memory.AppIntentPrefix); ok {
		if name := req.Entities.String(entities.App); name != "" {
			app = name
		}
		if err := s.prefs.SetPreference(LastOpenedAppKey, app, "general"); err != nil {
			return reply, fmt.Errorf("engine: record last opened app: %w", err)
		}
	}
	return reply, nil
}

// screen runs the safety guard over requests that act on the machine.
// A search only reads, and its query is free text that routinely holds
// words like "format" or "password".
func (s automationSkill) screen(req skills.Request) error {
	if req.Intent == "search" {
		return nil
	}
	return s.guard.Check(req.Intent, req.Utterance)
}

func (s automationSkill) successReply(req skills.Request) string {
	switch {
	case strings.HasPrefix(req.Intent, memory.AppIntentPrefix):
		return "Opening " + appName(req)
	case req.Intent == "search":
		return "Searching for " + req.Entities.String(entities.Query)
	case entities.IsVolumeIntent(req.Intent):
		switch req.Entities.String(entities.Action) {
		case "mute":
			return "Volume muted"
		case "increase":
			return "Volume increased"
		case "decrease":
			return "Volume decreased"
		}
		if level, ok := req.Entities.Int(entities.Level); ok {
			return fmt.Sprintf("Volume set to %d percent", level)
		}
		return "Volume adjusted"
	}
	return s.catalog.Response(req.Intent)
}

func (s automationSkill) failureReply(req skills.Request) string {
	switch {
	case strings.HasPrefix(req.Intent, memory.AppIntentPrefix):
		return "I couldn't open " + appName(req) + ". Please check if it's installed."
	case entities.IsVolumeIntent(req.Intent):
		return "I couldn't control the volume"
	case req.Intent == "screenshot":
		return "I couldn't take a screenshot"
	case req.Intent == "system_info":
		return "I couldn't retrieve system information"
	}
	return NeutralReply
}

func appName(req skills.Request) string {
	if app := req.Entities.String(entities.App); app != "" {
		return app
	}
	return strings.TrimPrefix(req.Intent, memory.AppIntentPrefix)
}
