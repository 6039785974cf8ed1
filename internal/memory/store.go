// Package memory implements the persistent memory engine for Sage.
//
// It uses SQLite to durably record conversations, preferences, habits,
// reminders and learned phrase patterns, and keeps two bounded in-memory
// rings (the short-term conversation buffer and the active context window)
// that stay valid even while the database is failing.
package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	cache "github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Ring capacities for short-term memory.
const (
	ConversationBufferSize = 50
	ContextWindowSize      = 10
)

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds memory store configuration.
type Config struct {
	DataDir string
	// SessionID tags every conversation written by this process.
	// Generated when empty.
	SessionID string
	// Location is used to bucket timestamps into a time of day.
	// Defaults to time.Local.
	Location *time.Location
	// Clock returns the current time. Defaults to time.Now.
	Clock              func() time.Time
	PreferenceCacheTTL time.Duration
	MaxHistoryResults  int
}

// DefaultConfig returns the default configuration for the memory store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DataDir:            filepath.Join(home, ".sage"),
		Location:           time.Local,
		Clock:              time.Now,
		PreferenceCacheTTL: 10 * time.Minute,
		MaxHistoryResults:  50,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the persistent memory engine backed by SQLite.
//
// Mutations hold mu exclusively and commit before returning; reads share
// it. The rings are guarded separately by bufMu so they keep working while
// a write is in flight or the database is unavailable.
type Store struct {
	db    *sql.DB
	cfg   Config
	hooks storeHooks

	mu      sync.RWMutex
	profile Profile
	prefs   *cache.Cache

	bufMu         sync.Mutex
	conversations *ring[Conversation]
	window        *ring[WindowEntry]
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

type sqlRowScanner struct {
	rows *sql.Rows
}

func (r sqlRowScanner) Next() bool             { return r.rows.Next() }
func (r sqlRowScanner) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlRowScanner) Err() error             { return r.rows.Err() }
func (r sqlRowScanner) Close() error           { return r.rows.Close() }

type storeHooks struct {
	exec    func(db execer, query string, args ...any) (sql.Result, error)
	queryIt func(db queryer, query string, args ...any) (rowScanner, error)
	beginTx func(db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func (s *Store) execHook(db execer, query string, args ...any) (sql.Result, error) {
	if s.hooks.exec != nil {
		return s.hooks.exec(db, query, args...)
	}
	return db.Exec(query, args...)
}

func (s *Store) queryItHook(db queryer, query string, args ...any) (rowScanner, error) {
	if s.hooks.queryIt != nil {
		return s.hooks.queryIt(db, query, args...)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRowScanner{rows: rows}, nil
}

func (s *Store) beginTxHook() (*sql.Tx, error) {
	if s.hooks.beginTx != nil {
		return s.hooks.beginTx(s.db)
	}
	return s.db.Begin()
}

func (s *Store) commitHook(tx *sql.Tx) error {
	if s.hooks.commit != nil {
		return s.hooks.commit(tx)
	}
	return tx.Commit()
}

// New creates a new Store with the given configuration.
// It creates the data directory if needed, opens SQLite with WAL mode and
// full synchronous commits, runs migrations and loads the user profile.
func New(cfg Config) (*Store, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.PreferenceCacheTTL <= 0 {
		cfg.PreferenceCacheTTL = 10 * time.Minute
	}
	if cfg.MaxHistoryResults <= 0 {
		cfg.MaxHistoryResults = 50
	}

	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("memory: create data dir: %w", err)
	}

	// Pragmas go in the DSN so every pooled connection gets them.
	dsn := "file:" + filepath.Join(cfg.DataDir, "memory.db") +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(FULL)" +
		"&_pragma=foreign_keys(ON)"
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("memory: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: ping database: %w", err)
	}

	s := &Store{
		db:            db,
		cfg:           cfg,
		prefs:         cache.New(cfg.PreferenceCacheTTL, 2*cfg.PreferenceCacheTTL),
		conversations: newRing[Conversation](ConversationBufferSize),
		window:        newRing[WindowEntry](ContextWindowSize),
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: migration: %w", err)
	}
	if err := s.reloadProfile(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("memory: load profile: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SessionID returns the id stamped on conversations written by this store.
func (s *Store) SessionID() string {
	return s.cfg.SessionID
}

// Now returns the store clock's current time in the configured location.
func (s *Store) Now() time.Time {
	return s.cfg.Clock().In(s.cfg.Location)
}

// CurrentBucket returns the time-of-day bucket for the store clock.
func (s *Store) CurrentBucket() string {
	return TimeBucket(s.Now().Hour())
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT    NOT NULL DEFAULT '',
			timestamp    TEXT    NOT NULL,
			user_input   TEXT    NOT NULL,
			intent       TEXT    NOT NULL,
			response     TEXT    NOT NULL DEFAULT '',
			context      TEXT    NOT NULL DEFAULT '',
			satisfaction INTEGER
		);

		CREATE INDEX IF NOT EXISTS idx_conv_intent    ON conversations(intent);
		CREATE INDEX IF NOT EXISTS idx_conv_timestamp ON conversations(timestamp DESC);

		CREATE TABLE IF NOT EXISTS preferences (
			key          TEXT PRIMARY KEY,
			value        TEXT    NOT NULL,
			category     TEXT    NOT NULL DEFAULT 'general',
			last_updated TEXT    NOT NULL,
			usage_count  INTEGER NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_pref_category ON preferences(category);

		CREATE TABLE IF NOT EXISTS habits (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			action      TEXT    NOT NULL UNIQUE,
			frequency   INTEGER NOT NULL DEFAULT 1 CHECK (frequency >= 0),
			last_used   TEXT    NOT NULL,
			time_of_day TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_habit_bucket ON habits(time_of_day, frequency DESC);

		CREATE TABLE IF NOT EXISTS reminders (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			content    TEXT    NOT NULL,
			created_at TEXT    NOT NULL,
			remind_at  TEXT,
			completed  INTEGER NOT NULL DEFAULT 0,
			priority   INTEGER NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_rem_pending ON reminders(completed, remind_at);

		CREATE TABLE IF NOT EXISTS learned_patterns (
			phrase     TEXT PRIMARY KEY,
			intent     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);
	`
	_, err := s.execHook(s.db, schema)
	return err
}

// withTx runs fn inside a transaction and commits it. Any failure is
// reported as a *StoreError tagged with op.
func (s *Store) withTx(op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.beginTxHook()
	if err != nil {
		return storeErr(op, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return storeErr(op, err)
	}
	if err := s.commitHook(tx); err != nil {
		return storeErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// ─── Stats ───────────────────────────────────────────────────────────────────

// Stats holds aggregate memory statistics.
type Stats struct {
	SessionID       string `json:"session_id"`
	Conversations   int    `json:"conversations"`
	Preferences     int    `json:"preferences"`
	Habits          int    `json:"habits"`
	Reminders       int    `json:"reminders"`
	PendingNow      int    `json:"pending_reminders"`
	LearnedPatterns int    `json:"learned_patterns"`
	BufferedTurns   int    `json:"buffered_turns"`
}

// Stats returns aggregate memory statistics.
func (s *Store) Stats() (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{SessionID: s.cfg.SessionID}
	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM conversations", &stats.Conversations},
		{"SELECT COUNT(*) FROM preferences", &stats.Preferences},
		{"SELECT COUNT(*) FROM habits", &stats.Habits},
		{"SELECT COUNT(*) FROM reminders", &stats.Reminders},
		{"SELECT COUNT(*) FROM learned_patterns", &stats.LearnedPatterns},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return nil, storeErr("stats", err)
		}
	}
	if err := s.db.QueryRow(
		`SELECT COUNT(*) FROM reminders WHERE completed = 0 AND (remind_at IS NULL OR remind_at <= ?)`,
		formatTime(s.cfg.Clock()),
	).Scan(&stats.PendingNow); err != nil {
		return nil, storeErr("stats", err)
	}

	s.bufMu.Lock()
	stats.BufferedTurns = s.conversations.len()
	s.bufMu.Unlock()

	return stats, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// timeLayout is fixed-width UTC so stored timestamps order lexically.
const timeLayout = "2006-01-02 15:04:05.000000"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.ParseInLocation(timeLayout, s, time.UTC)
	if err != nil {
		// Older rows may carry RFC 3339 timestamps from imports.
		if t2, err2 := time.Parse(time.RFC3339Nano, s); err2 == nil {
			return t2
		}
		return time.Time{}
	}
	return t
}

func nullableTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := formatTime(*t)
	return &v
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Truncate shortens a string to max runes with ellipsis.
func Truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
