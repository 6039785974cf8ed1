// Package listener runs the background loop that turns a stream of
// transcripts into engine turns. An utterance is acted on only when it
// carries the wake word; the text after the wake word is the command, or
// the next utterance when nothing follows it.
package listener

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/engine"
)

// ErrRunning is returned by Start when the listener is already active.
var ErrRunning = errors.New("listener: already running")

// errorBackoff is the pause after a source error other than ErrNoSpeech.
const errorBackoff = 200 * time.Millisecond

// Processor runs one utterance. *engine.Engine implements it.
type Processor interface {
	Process(ctx context.Context, utterance string) (*engine.Turn, error)
}

// Options configure a Listener.
type Options struct {
	// WakeWord gates commands. Empty means every utterance is a command.
	WakeWord string
	// OnTurn is called after each processed command, from the listener
	// goroutine.
	OnTurn func(turn *engine.Turn, err error)
	Logger *zap.Logger
}

// Listener owns one background listen loop.
type Listener struct {
	src    Source
	proc   Processor
	wake   string
	onTurn func(*engine.Turn, error)
	log    *zap.Logger

	active atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns a stopped listener.
func New(src Source, proc Processor, opts Options) *Listener {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Listener{
		src:    src,
		proc:   proc,
		wake:   strings.ToLower(strings.TrimSpace(opts.WakeWord)),
		onTurn: opts.OnTurn,
		log:    log,
	}
}

// Active reports whether the loop is running.
func (l *Listener) Active() bool { return l.active.Load() }

// Start launches the loop. It returns once the loop is running.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active.CompareAndSwap(false, true) {
		return ErrRunning
	}
	if l.cancel != nil {
		l.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		defer l.active.Store(false)
		l.loop(ctx)
	}(l.done)
	l.log.Info("listener started", zap.String("wake_word", l.wake))
	return nil
}

// Stop ends the loop. A blocked Listen is cancelled; a command already
// being processed runs to completion before Stop returns.
func (l *Listener) Stop() {
	l.mu.Lock()
	cancel, done := l.cancel, l.done
	l.cancel, l.done = nil, nil
	l.mu.Unlock()
	if cancel == nil {
		return
	}
	l.active.Store(false)
	cancel()
	<-done
	l.log.Info("listener stopped")
}

// Wait blocks until the loop exits on its own or through Stop.
func (l *Listener) Wait() {
	l.mu.Lock()
	done := l.done
	l.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (l *Listener) loop(ctx context.Context) {
	awaiting := false
	for l.active.Load() {
		text, err := l.src.Listen(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrNoSpeech):
			continue
		case errors.Is(err, ErrSourceClosed), ctx.Err() != nil:
			return
		default:
			l.log.Warn("listen failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(errorBackoff):
			}
			continue
		}

		command, ok := l.command(text, &awaiting)
		if !ok {
			continue
		}

		// The command was already heard, so it is processed even if Stop
		// arrived while Listen was returning it.
		turn, err := l.proc.Process(context.WithoutCancel(ctx), command)
		if err != nil {
			l.log.Warn("process failed", zap.String("command", command), zap.Error(err))
		}
		if l.onTurn != nil {
			l.onTurn(turn, err)
		}
	}
}

// command extracts the command from text. awaiting carries a bare wake
// word over to the next utterance.
func (l *Listener) command(text string, awaiting *bool) (string, bool) {
	if l.wake == "" {
		return text, true
	}
	if *awaiting {
		*awaiting = false
		return text, true
	}
	rest, ok := AfterWakeWord(text, l.wake)
	if !ok {
		return "", false
	}
	if rest == "" {
		*awaiting = true
		return "", false
	}
	return rest, true
}

// AfterWakeWord returns the text following the first occurrence of wake,
// compared case-insensitively, and whether wake occurred at all.
func AfterWakeWord(text, wake string) (string, bool) {
	wake = strings.ToLower(wake)
	lower := strings.ToLower(text)
	i := strings.Index(lower, wake)
	if wake == "" || i < 0 {
		return "", false
	}
	src := text
	if len(lower) != len(text) {
		src = lower
	}
	rest := src[i+len(wake):]
	return strings.TrimSpace(strings.TrimLeft(rest, " ,.!?")), true
}
