package engine_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/classifier"
	"github.com/HendryAvila/sage/internal/engine"
	"github.com/HendryAvila/sage/internal/entities"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/safety"
)

var nineAM = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type recordingAutomator struct {
	mu      sync.Mutex
	actions []string
	ents    []entities.Entities
	err     error
}

func (a *recordingAutomator) Perform(_ context.Context, action string, ents entities.Entities) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, action)
	a.ents = append(a.ents, ents)
	return a.err
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	s, err := memory.New(memory.Config{
		DataDir:   t.TempDir(),
		SessionID: "engine-test",
		Location:  time.UTC,
		Clock:     func() time.Time { return nineAM },
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newEngine(t *testing.T, d engine.Deps) *engine.Engine {
	t.Helper()
	if d.Store == nil {
		d.Store = newStore(t)
	}
	if d.Catalog == nil {
		d.Catalog = catalog.Default()
	}
	e, err := engine.New(d)
	require.NoError(t, err)
	return e
}

func TestNew_RequiresStoreAndCatalog(t *testing.T) {
	_, err := engine.New(engine.Deps{})
	assert.Error(t, err)
}

func TestProcess_TimeIntent(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	ctx := context.Background()

	turn, err := e.Process(ctx, "What time is it")
	require.NoError(t, err)
	assert.Equal(t, "time", turn.Result.Intent)
	assert.Equal(t, classifier.SourceCatalog, turn.Result.Source)
	assert.Equal(t, "The current time is 09:00 AM", turn.Response)
	assert.Equal(t, "User: Sir, Location: Indore", turn.Context)
	assert.NotZero(t, turn.ConversationID)

	next, err := e.Process(ctx, "what time is it now")
	require.NoError(t, err)
	assert.Equal(t, classifier.SourceCatalog, next.Result.Source)
	assert.Contains(t, next.Context, "Recent actions: time")

	history, err := e.Store().ConversationHistory(10, "time")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestProcess_FallbackWithoutGenerator(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	turn, err := e.Process(context.Background(), "xyzzy plugh")
	require.NoError(t, err)
	assert.Equal(t, classifier.FallbackIntent, turn.Result.Intent)
	assert.Equal(t, engine.NoGeneratorReply, turn.Response)
}

func TestProcess_GeneratorReplyAndFailure(t *testing.T) {
	var got engine.Request
	gen := engine.GeneratorFunc(func(_ context.Context, req engine.Request) (string, error) {
		got = req
		return " Forty-two. ", nil
	})
	e := newEngine(t, engine.Deps{Generator: gen})

	turn, err := e.Process(context.Background(), "meaning of life")
	require.NoError(t, err)
	assert.Equal(t, "Forty-two.", turn.Response)
	assert.Equal(t, "meaning of life", got.Utterance)
	assert.Equal(t, classifier.FallbackIntent, got.Intent)

	failing := engine.GeneratorFunc(func(context.Context, engine.Request) (string, error) {
		return "", errors.New("quota exceeded")
	})
	e = newEngine(t, engine.Deps{Generator: failing})
	turn, err = e.Process(context.Background(), "meaning of life")
	require.NoError(t, err, "collaborator failures never propagate")
	assert.Equal(t, engine.ApologyReply, turn.Response)
}

func TestProcess_OpenAppRecordsPreference(t *testing.T) {
	auto := &recordingAutomator{}
	e := newEngine(t, engine.Deps{Automator: auto})

	turn, err := e.Process(context.Background(), "open chrome")
	require.NoError(t, err)
	assert.Equal(t, "Opening chrome", turn.Response)
	require.Equal(t, []string{"open_browser"}, auto.actions)
	assert.Equal(t, "chrome", auto.ents[0].String(entities.App))

	v, err := e.GetPreference(engine.LastOpenedAppKey)
	require.NoError(t, err)
	assert.Equal(t, "chrome", v)
}

func TestProcess_AutomatorFailureIsNeutral(t *testing.T) {
	auto := &recordingAutomator{err: errors.New("not installed")}
	e := newEngine(t, engine.Deps{Automator: auto})

	turn, err := e.Process(context.Background(), "open spotify")
	require.NoError(t, err)
	assert.Equal(t, "I couldn't open spotify. Please check if it's installed.", turn.Response)

	_, err = e.GetPreference(engine.LastOpenedAppKey)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestProcess_VolumeReplies(t *testing.T) {
	auto := &recordingAutomator{}
	e := newEngine(t, engine.Deps{Automator: auto})
	ctx := context.Background()

	turn, _ := e.Process(ctx, "volume up")
	assert.Equal(t, "Volume increased", turn.Response)
	turn, _ = e.Process(ctx, "mute")
	assert.Equal(t, "Volume muted", turn.Response)
	assert.Equal(t, []string{"volume_up", "mute"}, auto.actions)
}

func TestProcess_PowerIntentsNeedPermission(t *testing.T) {
	auto := &recordingAutomator{}
	e := newEngine(t, engine.Deps{Automator: auto})

	turn, err := e.Process(context.Background(), "shutdown")
	require.NoError(t, err)
	assert.Equal(t, engine.BlockedReply, turn.Response)
	assert.Empty(t, auto.actions)

	allowed := newEngine(t, engine.Deps{Automator: auto, Guard: safety.NewGuard(safety.Power)})
	turn, err = allowed.Process(context.Background(), "shutdown")
	require.NoError(t, err)
	assert.Equal(t, "Shutting down the system", turn.Response)
	assert.Equal(t, []string{"shutdown"}, auto.actions)
}

func TestProcess_SearchNeedsQuery(t *testing.T) {
	auto := &recordingAutomator{}
	e := newEngine(t, engine.Deps{Automator: auto})

	turn, _ := e.Process(context.Background(), "search for python tutorials")
	assert.Equal(t, "Searching for python tutorials", turn.Response)
	assert.Equal(t, "python tutorials", turn.Result.Entities.String(entities.Query))

	turn, _ = e.Process(context.Background(), "google")
	assert.Equal(t, "What would you like me to search for?", turn.Response)
	assert.Equal(t, []string{"search"}, auto.actions)
}

func TestProcess_SearchIsNotScreened(t *testing.T) {
	auto := &recordingAutomator{}
	e := newEngine(t, engine.Deps{Automator: auto})
	ctx := context.Background()

	turn, err := e.Process(ctx, "search for information retrieval papers")
	require.NoError(t, err)
	assert.Equal(t, "Searching for information retrieval papers", turn.Response)

	turn, err = e.Process(ctx, "search for the best password manager")
	require.NoError(t, err)
	assert.Equal(t, "Searching for the best password manager", turn.Response)
	assert.Equal(t, []string{"search", "search"}, auto.actions)

	// Acting intents are still screened.
	turn, err = e.Process(ctx, "open chrome and format the disk")
	require.NoError(t, err)
	assert.Equal(t, engine.BlockedReply, turn.Response)
	assert.Len(t, auto.actions, 2)
}

func TestProcess_ReminderStored(t *testing.T) {
	e := newEngine(t, engine.Deps{})

	turn, err := e.Process(context.Background(), "remind me to call mom")
	require.NoError(t, err)
	assert.Equal(t, "I'll remind you about: call mom", turn.Response)

	pending, err := e.PendingReminders()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "call mom", pending[0].Content)
}

func TestProcess_GreetingOffersSuggestion(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	turn, err := e.Process(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Good morning, Sir! Would you like me to check weather?", turn.Response)
}

func TestProcess_StaticResponse(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	turn, err := e.Process(context.Background(), "tell me a joke")
	require.NoError(t, err)
	assert.Equal(t, "Here's a joke for you", turn.Response)
}

func TestProcess_StoreFailureKeepsTurn(t *testing.T) {
	s := newStore(t)
	e := newEngine(t, engine.Deps{Store: s})
	require.NoError(t, s.Close())

	turn, err := e.Process(context.Background(), "tell me a joke")
	require.Error(t, err)
	assert.True(t, memory.IsStoreFailure(err))
	assert.Equal(t, "joke", turn.Result.Intent)
	assert.Equal(t, "Here's a joke for you", turn.Response)
	assert.Equal(t, []string{"joke"}, s.RecentIntents(1))
}

func TestRecordTurn_AppHabitScenario(t *testing.T) {
	store, err := memory.New(memory.Config{
		DataDir:  t.TempDir(),
		Location: time.UTC,
		Clock:    func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	e := newEngine(t, engine.Deps{Store: store})
	require.NoError(t, e.AddCustomIntent("open_chrome", []string{"fire up chrome"}, "Opening chrome", false))

	for i := 0; i < 3; i++ {
		_, err := e.RecordTurn("open chrome", "Opening chrome", "open_chrome", "")
		require.NoError(t, err)
	}
	h, err := store.Habit("use_chrome")
	require.NoError(t, err)
	assert.Equal(t, 3, h.Frequency)
	assert.Equal(t, memory.Morning, h.TimeOfDay)

	habits, err := e.CommonHabits("current", 10)
	require.NoError(t, err)
	assert.Len(t, habits, 3)
}

func TestRecordTurn_RejectsUnknownIntent(t *testing.T) {
	e := newEngine(t, engine.Deps{})

	_, err := e.RecordTurn("hello", "hi", "definitely_not_an_intent", "")
	assert.ErrorIs(t, err, engine.ErrUnknownIntent)
	assert.Empty(t, e.Store().RecentIntents(1))
	history, err := e.Store().ConversationHistory(10, "")
	require.NoError(t, err)
	assert.Empty(t, history)

	conv, err := e.RecordTurn("tell me a story", "Once upon a time", classifier.FallbackIntent, "")
	require.NoError(t, err)
	assert.NotZero(t, conv.ID)
}

func TestProcess_DoesNotLearnFromItsOwnScores(t *testing.T) {
	e := newEngine(t, engine.Deps{Automator: &recordingAutomator{}})
	ctx := context.Background()

	first, err := e.Process(ctx, "can you please open chrome")
	require.NoError(t, err)
	require.Equal(t, "open_browser", first.Result.Intent)
	require.Greater(t, first.Result.Confidence, 0.8)

	next, err := e.Process(ctx, "can you please tell me the time")
	require.NoError(t, err)
	assert.Equal(t, "time", next.Result.Intent)
	assert.Equal(t, classifier.SourceCatalog, next.Result.Source)

	stats, err := e.Store().Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.LearnedPatterns)
}

func TestFeedback_ConfirmsAndLearns(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	ctx := context.Background()

	turn, err := e.Process(ctx, "tell me a joke please")
	require.NoError(t, err)
	require.Equal(t, "joke", turn.Result.Intent)

	learned, err := e.Feedback(turn.ConversationID, 3)
	require.NoError(t, err)
	assert.False(t, learned, "a lukewarm score confirms nothing")

	learned, err = e.Feedback(turn.ConversationID, 5)
	require.NoError(t, err)
	assert.True(t, learned)

	got := e.Classify("tell me a riddle", "")
	assert.Equal(t, "joke", got.Intent)
	assert.Equal(t, classifier.SourceLearned, got.Source)

	_, err = e.Feedback(9999, 5)
	assert.ErrorIs(t, err, memory.ErrNotFound)
}

func TestFeedback_FallbackIsNotLearned(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	turn, err := e.Process(context.Background(), "xyzzy plugh frobozz")
	require.NoError(t, err)
	require.Equal(t, classifier.FallbackIntent, turn.Result.Intent)

	learned, err := e.Feedback(turn.ConversationID, 5)
	require.NoError(t, err)
	assert.False(t, learned)
}

func TestAddCustomIntent_Persist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	e := newEngine(t, engine.Deps{IntentsFile: path})

	require.NoError(t, e.AddCustomIntent("coffee", []string{"brew coffee"}, "", true))
	assert.Equal(t, "coffee", e.Classify("brew coffee please", "").Intent)

	turn, err := e.Process(context.Background(), "brew coffee")
	require.NoError(t, err)
	assert.Equal(t, catalog.CustomDefaultResponse, turn.Response)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "brew coffee")

	require.NoError(t, e.AddCustomIntent("tea", []string{"make tea"}, "Tea time", false))
	raw, _ = os.ReadFile(path)
	assert.NotContains(t, string(raw), "make tea")

	assert.ErrorIs(t, e.AddCustomIntent("", []string{"x"}, "", false), catalog.ErrInvalidIntent)
}

func TestLearn_Passthrough(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	learned, err := e.Learn("Could You Please find", "search", 0.85)
	require.NoError(t, err)
	assert.True(t, learned)
	assert.Equal(t, "search", e.Classify("could you please", "").Intent)
}

func TestSummarizeAndSuggest(t *testing.T) {
	e := newEngine(t, engine.Deps{ContextDepth: 2})
	ctx := context.Background()
	for _, u := range []string{"news", "news", "tell me a joke"} {
		_, err := e.Process(ctx, u)
		require.NoError(t, err)
	}

	s, err := e.Summarize(0)
	require.NoError(t, err)
	assert.Equal(t, []string{"news", "joke"}, s.RecentActions)
	assert.Contains(t, s.Habits, "news")

	suggestions, err := e.Suggest()
	require.NoError(t, err)
	assert.Equal(t, "Check news", suggestions[0])
}

func TestProcess_Concurrent(t *testing.T) {
	e := newEngine(t, engine.Deps{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				if _, err := e.Process(context.Background(), fmt.Sprintf("tell me joke %d", w*10+i)); err != nil {
					t.Errorf("Process: %v", err)
				}
			}
		}(w)
	}
	wg.Wait()

	h, err := e.Store().Habit("joke")
	require.NoError(t, err)
	assert.Equal(t, 20, h.Frequency)
}
