package listener_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/HendryAvila/sage/internal/engine"
	"github.com/HendryAvila/sage/internal/listener"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeProcessor struct {
	mu       sync.Mutex
	commands []string
	started  chan struct{}
	release  chan struct{}
	ctxErr   error
}

func (p *fakeProcessor) Process(ctx context.Context, utterance string) (*engine.Turn, error) {
	if p.started != nil {
		close(p.started)
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands = append(p.commands, utterance)
	p.ctxErr = ctx.Err()
	return &engine.Turn{Utterance: utterance, Response: "ok"}, nil
}

func (p *fakeProcessor) got() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.commands...)
}

// blockingSource hands out its utterances and then blocks until
// cancelled.
type blockingSource struct {
	mu    sync.Mutex
	items []string
}

func (s *blockingSource) Listen(ctx context.Context) (string, error) {
	s.mu.Lock()
	if len(s.items) > 0 {
		next := s.items[0]
		s.items = s.items[1:]
		s.mu.Unlock()
		return next, nil
	}
	s.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAfterWakeWord(t *testing.T) {
	tests := []struct {
		text, wake string
		want       string
		ok         bool
	}{
		{"Jarvis open chrome", "jarvis", "open chrome", true},
		{"hey jarvis, what time is it", "jarvis", "what time is it", true},
		{"JARVIS", "jarvis", "", true},
		{"open chrome", "jarvis", "", false},
		{"anything", "", "", false},
	}
	for _, tt := range tests {
		got, ok := listener.AfterWakeWord(tt.text, tt.wake)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}
}

func TestLineSource(t *testing.T) {
	src := listener.NewLineSource(strings.NewReader("hello\n\n  time  \n"))
	ctx := context.Background()

	got, err := src.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	_, err = src.Listen(ctx)
	assert.ErrorIs(t, err, listener.ErrNoSpeech)

	got, err = src.Listen(ctx)
	require.NoError(t, err)
	assert.Equal(t, "time", got)

	_, err = src.Listen(ctx)
	assert.ErrorIs(t, err, listener.ErrSourceClosed)
	_, err = src.Listen(ctx)
	assert.ErrorIs(t, err, listener.ErrSourceClosed)
}

func TestListener_WakeWordGatesCommands(t *testing.T) {
	feed := "open chrome\njarvis tell me a joke\n\njarvis\nwhat time is it\nnews\n"
	proc := &fakeProcessor{}
	var turns []string
	l := listener.New(listener.NewLineSource(strings.NewReader(feed)), proc, listener.Options{
		WakeWord: "Jarvis",
		OnTurn: func(turn *engine.Turn, err error) {
			assert.NoError(t, err)
			turns = append(turns, turn.Response)
		},
	})

	require.NoError(t, l.Start(context.Background()))
	l.Wait()

	assert.Equal(t, []string{"tell me a joke", "what time is it"}, proc.got())
	assert.Len(t, turns, 2)
	assert.False(t, l.Active())
}

func TestListener_NoWakeWord(t *testing.T) {
	proc := &fakeProcessor{}
	l := listener.New(listener.NewLineSource(strings.NewReader("a\nb\n")), proc, listener.Options{})
	require.NoError(t, l.Start(context.Background()))
	l.Wait()
	assert.Equal(t, []string{"a", "b"}, proc.got())
}

func TestListener_StopCancelsBlockedListen(t *testing.T) {
	l := listener.New(&blockingSource{}, &fakeProcessor{}, listener.Options{})
	require.NoError(t, l.Start(context.Background()))
	assert.True(t, l.Active())
	assert.ErrorIs(t, l.Start(context.Background()), listener.ErrRunning)

	l.Stop()
	assert.False(t, l.Active())
	l.Stop()
}

func TestListener_StopWaitsForInFlightCommand(t *testing.T) {
	proc := &fakeProcessor{started: make(chan struct{}), release: make(chan struct{})}
	l := listener.New(&blockingSource{items: []string{"jarvis news"}}, proc, listener.Options{WakeWord: "jarvis"})
	require.NoError(t, l.Start(context.Background()))

	<-proc.started
	stopped := make(chan struct{})
	go func() {
		l.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a command was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(proc.release)
	<-stopped
	assert.Equal(t, []string{"news"}, proc.got())
	assert.NoError(t, proc.ctxErr, "in-flight command keeps a live context")
}

// lateSource hears its utterance just as the listener is being stopped.
type lateSource struct {
	listening chan struct{}
	text      string
}

func (s *lateSource) Listen(ctx context.Context) (string, error) {
	if s.listening == nil {
		return "", listener.ErrSourceClosed
	}
	close(s.listening)
	s.listening = nil
	<-ctx.Done()
	return s.text, nil
}

func TestListener_FinishesCommandHeardDuringStop(t *testing.T) {
	src := &lateSource{listening: make(chan struct{}), text: "lights on"}
	listening := src.listening
	proc := &fakeProcessor{}
	l := listener.New(src, proc, listener.Options{})
	require.NoError(t, l.Start(context.Background()))

	<-listening
	l.Stop()
	assert.Equal(t, []string{"lights on"}, proc.got())
	assert.NoError(t, proc.ctxErr)
}

type flakySource struct {
	calls int
}

func (s *flakySource) Listen(ctx context.Context) (string, error) {
	s.calls++
	switch s.calls {
	case 1:
		return "", errors.New("microphone busy")
	case 2:
		return "weather", nil
	}
	return "", listener.ErrSourceClosed
}

func TestListener_RetriesAfterSourceError(t *testing.T) {
	proc := &fakeProcessor{}
	l := listener.New(&flakySource{}, proc, listener.Options{})
	require.NoError(t, l.Start(context.Background()))
	l.Wait()
	assert.Equal(t, []string{"weather"}, proc.got())
}
