// Package server wires all components and creates the MCP server instance.
//
// This is the composition root: it creates concrete implementations and
// injects them into the engine and into the tools, prompts and resources
// that depend on it. No business logic lives here, only wiring.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/config"
	"github.com/HendryAvila/sage/internal/engine"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/prompts"
	"github.com/HendryAvila/sage/internal/resources"
	"github.com/HendryAvila/sage/internal/responder"
	"github.com/HendryAvila/sage/internal/safety"
	"github.com/HendryAvila/sage/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// NewEngine opens the memory store, loads the intent catalog and builds
// the engine described by cfg.
//
// The returned cleanup function closes the store and must be called on
// shutdown. It is always non-nil.
func NewEngine(ctx context.Context, cfg *config.Config, log *zap.Logger) (*engine.Engine, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, noop, err
	}

	memCfg := memory.DefaultConfig()
	memCfg.DataDir = cfg.DataDir
	memCfg.Location = loc
	memCfg.PreferenceCacheTTL = cfg.PreferenceCacheTTL
	store, err := memory.New(memCfg)
	if err != nil {
		return nil, noop, fmt.Errorf("opening memory: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("memory store close", zap.Error(err))
		}
	}

	cat := catalog.Default()
	if cfg.IntentsFile != "" {
		// A missing file is not an error. Invalid entries are skipped
		// and the valid ones still register.
		n, err := cat.ApplyFile(cfg.IntentsFile)
		if err != nil {
			log.Warn("custom intents", zap.String("path", cfg.IntentsFile), zap.Error(err))
		}
		if n > 0 {
			log.Info("custom intents loaded", zap.Int("count", n))
		}
	}

	var gen engine.Generator
	if cfg.GeminiAPIKey != "" {
		g, err := responder.NewGenAI(ctx, cfg.GeminiAPIKey, cfg.Model)
		if err != nil {
			cleanup()
			return nil, noop, fmt.Errorf("creating generator: %w", err)
		}
		gen = g
	} else {
		log.Info("no GEMINI_API_KEY; unmatched utterances get a fixed reply")
	}

	var guard *safety.Guard
	if cfg.AllowPower {
		guard = safety.NewGuard(safety.Power)
	}

	e, err := engine.New(engine.Deps{
		Store:        store,
		Catalog:      cat,
		Generator:    gen,
		Guard:        guard,
		Logger:       log.Named("engine"),
		ContextDepth: cfg.ContextDepth,
		IntentsFile:  cfg.IntentsFile,
	})
	if err != nil {
		cleanup()
		return nil, noop, err
	}

	log.Info("engine ready",
		zap.String("session", store.SessionID()),
		zap.Int("intents", cat.Len()),
		zap.String("db", cfg.DBPath()),
	)
	return e, cleanup, nil
}

// New creates the MCP server with every tool, prompt and resource
// registered against e.
func New(e *engine.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"sage",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	store := e.Store()

	// --- Intents ---

	classifyTool := tools.NewIntentClassifyTool(e)
	s.AddTool(classifyTool.Definition(), classifyTool.Handle)

	addIntentTool := tools.NewIntentAddTool(e)
	s.AddTool(addIntentTool.Definition(), addIntentTool.Handle)

	// --- Turns ---

	processTool := tools.NewTurnProcessTool(e)
	s.AddTool(processTool.Definition(), processTool.Handle)

	recordTool := tools.NewTurnRecordTool(e)
	s.AddTool(recordTool.Definition(), recordTool.Handle)

	feedbackTool := tools.NewTurnFeedbackTool(e)
	s.AddTool(feedbackTool.Definition(), feedbackTool.Handle)

	// --- Context ---

	summaryTool := tools.NewContextSummaryTool(e)
	s.AddTool(summaryTool.Definition(), summaryTool.Handle)

	suggestTool := tools.NewSuggestionsTool(e)
	s.AddTool(suggestTool.Definition(), suggestTool.Handle)

	// --- Memory ---

	prefSetTool := tools.NewPreferenceSetTool(e)
	s.AddTool(prefSetTool.Definition(), prefSetTool.Handle)

	prefGetTool := tools.NewPreferenceGetTool(e)
	s.AddTool(prefGetTool.Definition(), prefGetTool.Handle)

	habitsTool := tools.NewHabitsCommonTool(e)
	s.AddTool(habitsTool.Definition(), habitsTool.Handle)

	reminderAddTool := tools.NewReminderAddTool(e)
	s.AddTool(reminderAddTool.Definition(), reminderAddTool.Handle)

	reminderPendingTool := tools.NewReminderPendingTool(e)
	s.AddTool(reminderPendingTool.Definition(), reminderPendingTool.Handle)

	reminderCompleteTool := tools.NewReminderCompleteTool(e)
	s.AddTool(reminderCompleteTool.Definition(), reminderCompleteTool.Handle)

	historyTool := tools.NewConversationHistoryTool(store)
	s.AddTool(historyTool.Definition(), historyTool.Handle)

	statsTool := tools.NewMemoryStatsTool(store)
	s.AddTool(statsTool.Definition(), statsTool.Handle)

	// --- Prompts ---

	briefPrompt := prompts.NewBriefPrompt(e)
	s.AddPrompt(briefPrompt.Definition(), briefPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Resources ---

	resourceHandler := resources.NewHandler(e)
	s.AddResource(resourceHandler.ContextSummaryResource(), resourceHandler.HandleContextSummary)

	return s
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions tells the AI how to use Sage.
func serverInstructions() string {
	return `You have access to Sage, a personal assistant memory and intent engine.

## WHAT SAGE DOES
Sage classifies what the user says into intents, answers the ones it can
handle itself (time, date, greetings, reminders, opening apps, volume,
searches) and remembers every turn. Over time it learns the user's
phrasing, habits and preferences.

## HOW TO USE IT
- For each thing the user says to the assistant, call turn_process with the
  exact utterance. Relay the response. If the intent is "ai_response" Sage
  had no match: you may answer yourself and then call turn_record with
  intent "ai_response" and your answer so the turn is remembered.
- Call intent_classify when you only want to know what Sage thinks an
  utterance means, without side effects.
- Use context_summary and suggestions at the start of a session to greet
  the user appropriately for the time of day.
- Store things the user tells you about themselves with preference_set
  (name and location go in the "profile" category).
- When the user rates an answer, call turn_feedback with the conversation id
  from turn_process. A score of 4 or 5 confirms the intent and Sage learns
  the phrasing; nothing is learned otherwise.

## CUSTOM INTENTS
When the user keeps asking for the same thing in different words, offer to
add a custom intent with intent_add. Use persist=true so it survives a
restart.

## SAFETY
Power actions (shutdown, restart) are blocked unless the operator enabled
them. Never try to work around a blocked action.`
}
