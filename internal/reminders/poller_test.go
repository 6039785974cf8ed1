package reminders_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/reminders"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newStore(t *testing.T) (*memory.Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
	s, err := memory.New(memory.Config{DataDir: t.TempDir(), Location: time.UTC, Clock: c.Now})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, c
}

type collector struct {
	mu  sync.Mutex
	got []string
	ch  chan struct{}
}

func (c *collector) notify(_ context.Context, r memory.Reminder) {
	c.mu.Lock()
	c.got = append(c.got, r.Content)
	c.mu.Unlock()
	if c.ch != nil {
		select {
		case c.ch <- struct{}{}:
		default:
		}
	}
}

func (c *collector) contents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.got...)
}

func TestPoll_DeliversOnce(t *testing.T) {
	s, clk := newStore(t)
	later := clk.Now().Add(time.Hour)
	_, err := s.AddReminder(memory.AddReminderParams{Content: "stretch"})
	require.NoError(t, err)
	_, err = s.AddReminder(memory.AddReminderParams{Content: "standup", RemindAt: &later, Priority: 2})
	require.NoError(t, err)

	c := &collector{}
	p := reminders.New(s, c.notify, reminders.Options{})
	ctx := context.Background()

	n, err := p.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = p.Poll(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "already delivered")

	clk.Advance(2 * time.Hour)
	n, err = p.Poll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"stretch", "standup"}, c.contents())

	pending, err := s.PendingReminders()
	require.NoError(t, err)
	assert.Len(t, pending, 2, "delivery does not complete without AutoComplete")
}

func TestPoll_AutoComplete(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.AddReminder(memory.AddReminderParams{Content: "water plants"})
	require.NoError(t, err)

	c := &collector{}
	p := reminders.New(s, c.notify, reminders.Options{AutoComplete: true})
	n, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := s.PendingReminders()
	require.NoError(t, err)
	assert.Empty(t, pending)
}

type failingStore struct{}

func (failingStore) PendingReminders() ([]memory.Reminder, error) {
	return nil, &memory.StoreError{Op: "pending reminders", Err: errors.New("locked")}
}
func (failingStore) CompleteReminder(int64) error { return nil }

func TestPoll_StoreFailure(t *testing.T) {
	p := reminders.New(failingStore{}, nil, reminders.Options{})
	_, err := p.Poll(context.Background())
	assert.True(t, memory.IsStoreFailure(err))
}

func TestStartStop(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.AddReminder(memory.AddReminderParams{Content: "call mom"})
	require.NoError(t, err)

	c := &collector{ch: make(chan struct{}, 1)}
	p := reminders.New(s, c.notify, reminders.Options{Interval: 10 * time.Millisecond})
	require.NoError(t, p.Start(context.Background()))
	assert.Error(t, p.Start(context.Background()))

	select {
	case <-c.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("reminder was not delivered")
	}
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
	assert.Equal(t, []string{"call mom"}, c.contents())
}

func TestRun_StopsWithContext(t *testing.T) {
	s, _ := newStore(t)
	p := reminders.New(s, nil, reminders.Options{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
