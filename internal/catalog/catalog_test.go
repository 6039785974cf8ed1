package catalog_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/HendryAvila/sage/internal/catalog"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefault_HasBuiltinIntentsInOrder(t *testing.T) {
	c := catalog.Default()

	ids := c.IDs()
	require.Len(t, ids, 20)
	assert.Equal(t, "greeting", ids[0])
	assert.Equal(t, "exit", ids[len(ids)-1])

	app, ok := c.Entity("open_browser", "app")
	assert.True(t, ok)
	assert.Equal(t, "chrome", app)

	action, _ := c.Entity("volume_down", "action")
	assert.Equal(t, "decrease", action)
}

func TestResponse(t *testing.T) {
	c := catalog.Default()
	assert.Equal(t, "Hello! How can I help?", c.Response("greeting"))
	assert.Equal(t, catalog.DefaultResponse, c.Response("open_browser"), "intent without responses")
	assert.Equal(t, catalog.DefaultResponse, c.Response("unknown"))
}

func TestRegister_Validation(t *testing.T) {
	c := catalog.New()
	assert.ErrorIs(t, c.Register(catalog.Intent{Phrases: []string{"x"}}), catalog.ErrInvalidIntent)
	assert.ErrorIs(t, c.Register(catalog.Intent{ID: "x", Phrases: []string{"  "}}), catalog.ErrInvalidIntent)
	assert.Equal(t, 0, c.Len())
}

func TestRegister_NormalizesAndReplacesInPlace(t *testing.T) {
	c := catalog.New()
	require.NoError(t, c.Register(catalog.Intent{ID: "a", Phrases: []string{" Open Notes "}}))
	require.NoError(t, c.Register(catalog.Intent{ID: "b", Phrases: []string{"b"}}))
	v := c.Version()

	require.NoError(t, c.Register(catalog.Intent{ID: "a", Phrases: []string{"take a note"}}))
	assert.Equal(t, []string{"a", "b"}, c.IDs())
	assert.Greater(t, c.Version(), v)

	in, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, []string{"take a note"}, in.Phrases)
}

func TestLookup_ReturnsCopy(t *testing.T) {
	c := catalog.Default()
	in, _ := c.Lookup("open_music")
	in.Phrases[0] = "mutated"
	in.Entities["app"] = "mutated"

	again, _ := c.Lookup("open_music")
	assert.Equal(t, "play music", again.Phrases[0])
	assert.Equal(t, "spotify", again.Entities["app"])
}

func TestAddCustomIntent_DefaultResponse(t *testing.T) {
	c := catalog.Default()
	require.NoError(t, c.AddCustomIntent("open_notes", []string{"open notes"}, ""))
	assert.Equal(t, catalog.CustomDefaultResponse, c.Response("open_notes"))

	require.NoError(t, c.AddCustomIntent("coffee", []string{"make coffee"}, "Brewing"))
	assert.Equal(t, "Brewing", c.Response("coffee"))
	assert.Equal(t, 22, c.Len())
}

// ─── File ───────────────────────────────────────────────────────────────────

func TestLoadFile_Missing(t *testing.T) {
	intents, err := catalog.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestApplyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	yaml := `intents:
  - id: open_notes
    phrases: [open notes, take a note]
    entities: {app: notes}
  - id: coffee
    phrases: [make coffee]
    response: Brewing now
  - id: broken
    phrases: []
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	c := catalog.Default()
	n, err := c.ApplyFile(path)
	assert.ErrorIs(t, err, catalog.ErrInvalidIntent)
	assert.Equal(t, 2, n)

	assert.Equal(t, catalog.CustomDefaultResponse, c.Response("open_notes"))
	assert.Equal(t, "Brewing now", c.Response("coffee"))
	app, _ := c.Entity("open_notes", "app")
	assert.Equal(t, "notes", app)
	assert.False(t, c.Has("broken"))
}

func TestApplyFile_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intents: [unterminated"), 0o600))

	_, err := catalog.Default().ApplyFile(path)
	assert.Error(t, err)
}

func TestAppendFile_ReplacesByID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intents.yaml")
	require.NoError(t, catalog.AppendFile(path, catalog.Intent{ID: "coffee", Phrases: []string{"make coffee"}, Responses: []string{"One"}}))
	require.NoError(t, catalog.AppendFile(path, catalog.Intent{ID: "tea", Phrases: []string{"make tea"}, Responses: []string{"Tea"}}))
	require.NoError(t, catalog.AppendFile(path, catalog.Intent{ID: "coffee", Phrases: []string{"brew coffee"}, Responses: []string{"Two"}}))

	intents, err := catalog.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, intents, 2)
	assert.Equal(t, "coffee", intents[0].ID)
	assert.Equal(t, []string{"brew coffee"}, intents[0].Phrases)
	assert.Equal(t, []string{"Two"}, intents[0].Responses)
}

// ─── Watcher ────────────────────────────────────────────────────────────────

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	c := catalog.Default()

	reloaded := make(chan int, 4)
	w := catalog.NewWatcher(c, path, nil)
	w.OnReload(func(n int, err error) {
		if err == nil {
			reloaded <- n
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("intents:\n  - id: coffee\n    phrases: [make coffee]\n"), 0o600))

	select {
	case n := <-reloaded:
		assert.Equal(t, 1, n)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}
	assert.True(t, c.Has("coffee"))
}
