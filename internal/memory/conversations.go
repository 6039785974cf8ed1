package memory

import (
	"database/sql"
	"fmt"
	"strings"
)

// AppIntentPrefix marks intents that open an application.
const AppIntentPrefix = "open_"

// RecordConversation appends a turn to the conversation buffer and the
// context window, then persists the conversation row and bumps the habit
// counters in a single transaction.
//
// Habits touched: the intent itself, intent_<bucket>, and use_<app> for
// intents that open an application. When persistence fails the rings are
// still updated and a *StoreError is returned.
func (s *Store) RecordConversation(input, response, intent, context string) (*Conversation, error) {
	now := s.cfg.Clock()
	bucket := TimeBucket(now.In(s.cfg.Location).Hour())

	conv := Conversation{
		SessionID: s.cfg.SessionID,
		Timestamp: now,
		UserInput: input,
		Intent:    intent,
		Response:  response,
		Context:   context,
	}

	s.bufMu.Lock()
	s.conversations.push(conv)
	s.window.push(WindowEntry{Input: input, Intent: intent, Timestamp: now})
	s.bufMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := formatTime(now)
	err := s.withTx("record conversation", func(tx *sql.Tx) error {
		res, err := s.execHook(tx,
			`INSERT INTO conversations (session_id, timestamp, user_input, intent, response, context)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			conv.SessionID, ts, input, intent, response, context,
		)
		if err != nil {
			return fmt.Errorf("insert conversation: %w", err)
		}
		conv.ID, _ = res.LastInsertId()

		for _, action := range habitActions(intent, bucket) {
			if err := s.bumpHabit(tx, action, ts, bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &conv, err
	}
	return &conv, nil
}

func habitActions(intent, bucket string) []string {
	actions := []string{intent, intent + "_" + bucket}
	if app, ok := strings.CutPrefix(intent, AppIntentPrefix); ok && app != "" {
		actions = append(actions, "use_"+app)
	}
	return actions
}

// SetSatisfaction records user feedback (1-5) on a stored conversation.
func (s *Store) SetSatisfaction(id int64, score int) error {
	if score < 1 || score > 5 {
		return fmt.Errorf("memory: satisfaction must be between 1 and 5, got %d", score)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.execHook(s.db,
		"UPDATE conversations SET satisfaction = ? WHERE id = ?", score, id,
	)
	if err != nil {
		return storeErr("set satisfaction", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConversationHistory returns persisted conversations newest first,
// optionally filtered by intent.
func (s *Store) ConversationHistory(limit int, intent string) ([]Conversation, error) {
	if limit <= 0 || limit > s.cfg.MaxHistoryResults {
		limit = s.cfg.MaxHistoryResults
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, session_id, timestamp, user_input, intent, response, context, satisfaction
		FROM conversations`
	args := []any{}
	if intent != "" {
		query += " WHERE intent = ?"
		args = append(args, intent)
	}
	query += " ORDER BY timestamp DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.queryItHook(s.db, query, args...)
	if err != nil {
		return nil, storeErr("conversation history", err)
	}
	defer rows.Close()

	var results []Conversation
	for rows.Next() {
		var c Conversation
		var ts string
		var sat sql.NullInt64
		if err := rows.Scan(&c.ID, &c.SessionID, &ts, &c.UserInput, &c.Intent, &c.Response, &c.Context, &sat); err != nil {
			return nil, storeErr("conversation history", err)
		}
		c.Timestamp = parseTime(ts)
		if sat.Valid {
			v := int(sat.Int64)
			c.Satisfaction = &v
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("conversation history", err)
	}
	return results, nil
}

// Conversation returns one persisted conversation by id.
func (s *Store) Conversation(id int64) (*Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c Conversation
	var ts string
	var sat sql.NullInt64
	err := s.db.QueryRow(
		`SELECT id, session_id, timestamp, user_input, intent, response, context, satisfaction
		 FROM conversations WHERE id = ?`, id,
	).Scan(&c.ID, &c.SessionID, &ts, &c.UserInput, &c.Intent, &c.Response, &c.Context, &sat)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get conversation", err)
	}
	c.Timestamp = parseTime(ts)
	if sat.Valid {
		v := int(sat.Int64)
		c.Satisfaction = &v
	}
	return &c, nil
}

// RecentConversations returns a snapshot of the conversation buffer,
// oldest first.
func (s *Store) RecentConversations() []Conversation {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	return s.conversations.all()
}

// RecentWindow returns up to depth of the newest context window entries,
// oldest first.
func (s *Store) RecentWindow(depth int) []WindowEntry {
	s.bufMu.Lock()
	defer s.bufMu.Unlock()
	return s.window.last(depth)
}

// RecentIntents returns the intents of the depth newest window entries,
// oldest first.
func (s *Store) RecentIntents(depth int) []string {
	entries := s.RecentWindow(depth)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Intent)
	}
	return out
}
