// Package reminders polls the memory store for due reminders on a fixed
// interval and hands each one to a notifier exactly once per process.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/HendryAvila/sage/internal/memory"
)

// DefaultInterval is the poll interval when none is configured.
const DefaultInterval = 30 * time.Second

// Store is the part of the memory store the poller uses.
type Store interface {
	PendingReminders() ([]memory.Reminder, error)
	CompleteReminder(id int64) error
}

// Notifier delivers a due reminder.
type Notifier func(ctx context.Context, r memory.Reminder)

// Options configure a Poller.
type Options struct {
	Interval time.Duration
	// AutoComplete marks reminders completed once delivered. Otherwise
	// they stay pending until completed explicitly.
	AutoComplete bool
	Logger       *zap.Logger
}

// Poller checks for due reminders. Start schedules Poll as a singleton
// duration job, so a slow poll never overlaps the next one.
type Poller struct {
	store  Store
	notify Notifier
	opts   Options
	log    *zap.Logger

	mu       sync.Mutex
	notified map[int64]bool
	sched    gocron.Scheduler
}

// New returns a stopped poller.
func New(store Store, notify Notifier, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Poller{
		store:    store,
		notify:   notify,
		opts:     opts,
		log:      opts.Logger,
		notified: make(map[int64]bool),
	}
}

// Poll delivers every due reminder not delivered before and returns how
// many were delivered.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	due, err := p.store.PendingReminders()
	if err != nil {
		return 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pending := make(map[int64]bool, len(due))
	sent := 0
	for _, r := range due {
		pending[r.ID] = true
		if p.notified[r.ID] {
			continue
		}
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if p.notify != nil {
			p.notify(ctx, r)
		}
		sent++
		if p.opts.AutoComplete {
			if err := p.store.CompleteReminder(r.ID); err != nil {
				p.log.Warn("complete reminder", zap.Int64("id", r.ID), zap.Error(err))
				p.notified[r.ID] = true
			}
			continue
		}
		p.notified[r.ID] = true
	}

	// Completed reminders no longer need tracking.
	for id := range p.notified {
		if !pending[id] {
			delete(p.notified, id)
		}
	}
	return sent, nil
}

// Start schedules polling. The first poll runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sched != nil {
		return fmt.Errorf("reminders: poller already started")
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("reminders: create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(p.opts.Interval),
		gocron.NewTask(func() {
			n, err := p.Poll(ctx)
			if err != nil {
				p.log.Warn("poll reminders", zap.Error(err))
				return
			}
			if n > 0 {
				p.log.Debug("reminders delivered", zap.Int("count", n))
			}
		}),
		gocron.WithName("reminder-poll"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("reminders: schedule poll: %w", err)
	}
	s.Start()
	p.sched = s
	p.log.Info("reminder poller started", zap.Duration("interval", p.opts.Interval))
	return nil
}

// Stop shuts the scheduler down, waiting for a running poll.
func (p *Poller) Stop() error {
	p.mu.Lock()
	s := p.sched
	p.sched = nil
	p.mu.Unlock()
	if s == nil {
		return nil
	}
	return s.Shutdown()
}

// Run starts polling and blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return p.Stop()
}
