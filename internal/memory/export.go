package memory

import (
	"database/sql"
	"fmt"
	"time"
)

// ─── Export / Import ─────────────────────────────────────────────────────────

// ExportVersion is stamped on every export.
const ExportVersion = "1"

// ExportData is the full serializable dump of the memory database.
type ExportData struct {
	Version         string           `json:"version"`
	ExportedAt      time.Time        `json:"exported_at"`
	Conversations   []Conversation   `json:"conversations"`
	Preferences     []Preference     `json:"preferences"`
	Habits          []Habit          `json:"habits"`
	Reminders       []Reminder       `json:"reminders"`
	LearnedPatterns []LearnedPattern `json:"learned_patterns"`
}

// ImportResult holds counts of imported records.
type ImportResult struct {
	ConversationsImported int `json:"conversations_imported"`
	PreferencesImported   int `json:"preferences_imported"`
	HabitsImported        int `json:"habits_imported"`
	RemindersImported     int `json:"reminders_imported"`
	PatternsImported      int `json:"patterns_imported"`
}

// Export dumps the entire memory database as a serializable struct.
// Any failure is a *StoreError.
func (s *Store) Export() (*ExportData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := s.export()
	if err != nil {
		return nil, storeErr("export", err)
	}
	return data, nil
}

func (s *Store) export() (*ExportData, error) {
	data := &ExportData{
		Version:    ExportVersion,
		ExportedAt: s.cfg.Clock().UTC(),
	}

	// Conversations
	rows, err := s.queryItHook(s.db,
		`SELECT id, session_id, timestamp, user_input, intent, response, context, satisfaction
		 FROM conversations ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("export conversations: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var c Conversation
		var ts string
		var sat sql.NullInt64
		if err := rows.Scan(&c.ID, &c.SessionID, &ts, &c.UserInput, &c.Intent, &c.Response, &c.Context, &sat); err != nil {
			return nil, err
		}
		c.Timestamp = parseTime(ts)
		if sat.Valid {
			v := int(sat.Int64)
			c.Satisfaction = &v
		}
		data.Conversations = append(data.Conversations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Preferences
	prefs, err := s.listPreferences("")
	if err != nil {
		return nil, fmt.Errorf("export preferences: %w", err)
	}
	data.Preferences = prefs

	// Habits
	habitRows, err := s.queryItHook(s.db,
		"SELECT action, frequency, last_used, time_of_day FROM habits ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("export habits: %w", err)
	}
	defer func() { _ = habitRows.Close() }()
	for habitRows.Next() {
		h, err := scanHabit(habitRows)
		if err != nil {
			return nil, err
		}
		data.Habits = append(data.Habits, h)
	}
	if err := habitRows.Err(); err != nil {
		return nil, err
	}

	// Reminders
	remRows, err := s.queryItHook(s.db,
		"SELECT id, content, created_at, remind_at, completed, priority FROM reminders ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("export reminders: %w", err)
	}
	defer func() { _ = remRows.Close() }()
	for remRows.Next() {
		r, err := scanReminder(remRows)
		if err != nil {
			return nil, err
		}
		data.Reminders = append(data.Reminders, r)
	}
	if err := remRows.Err(); err != nil {
		return nil, err
	}

	// Learned patterns
	patRows, err := s.queryItHook(s.db,
		"SELECT phrase, intent, updated_at FROM learned_patterns ORDER BY phrase",
	)
	if err != nil {
		return nil, fmt.Errorf("export learned patterns: %w", err)
	}
	defer func() { _ = patRows.Close() }()
	for patRows.Next() {
		var lp LearnedPattern
		var ts string
		if err := patRows.Scan(&lp.Phrase, &lp.Intent, &ts); err != nil {
			return nil, err
		}
		lp.UpdatedAt = parseTime(ts)
		data.LearnedPatterns = append(data.LearnedPatterns, lp)
	}
	if err := patRows.Err(); err != nil {
		return nil, err
	}

	return data, nil
}

// Import loads exported data into the memory database in one transaction.
// Conversations and reminders are appended; preferences and learned
// patterns overwrite by key; habits keep the larger frequency so counters
// never go down.
func (s *Store) Import(data *ExportData) (*ImportResult, error) {
	result := &ImportResult{}

	s.mu.Lock()
	err := s.withTx("import", func(tx *sql.Tx) error {
		for _, c := range data.Conversations {
			var sat any
			if c.Satisfaction != nil {
				sat = *c.Satisfaction
			}
			_, err := s.execHook(tx,
				`INSERT INTO conversations (session_id, timestamp, user_input, intent, response, context, satisfaction)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.SessionID, formatTime(c.Timestamp), c.UserInput, c.Intent, c.Response, c.Context, sat,
			)
			if err != nil {
				return fmt.Errorf("import conversation %d: %w", c.ID, err)
			}
			result.ConversationsImported++
		}

		for _, p := range data.Preferences {
			_, err := s.execHook(tx,
				`INSERT INTO preferences (key, value, category, last_updated, usage_count)
				 VALUES (?, ?, ?, ?, ?)
				 ON CONFLICT(key) DO UPDATE SET
				   value        = excluded.value,
				   category     = excluded.category,
				   last_updated = excluded.last_updated,
				   usage_count  = MAX(preferences.usage_count, excluded.usage_count)`,
				p.Key, p.Value, p.Category, formatTime(p.LastUpdated), max(p.UsageCount, 1),
			)
			if err != nil {
				return fmt.Errorf("import preference %q: %w", p.Key, err)
			}
			result.PreferencesImported++
		}

		for _, h := range data.Habits {
			_, err := s.execHook(tx,
				`INSERT INTO habits (action, frequency, last_used, time_of_day)
				 VALUES (?, ?, ?, ?)
				 ON CONFLICT(action) DO UPDATE SET
				   frequency   = MAX(habits.frequency, excluded.frequency),
				   last_used   = MAX(habits.last_used, excluded.last_used),
				   time_of_day = excluded.time_of_day`,
				h.Action, max(h.Frequency, 0), formatTime(h.LastUsed), h.TimeOfDay,
			)
			if err != nil {
				return fmt.Errorf("import habit %q: %w", h.Action, err)
			}
			result.HabitsImported++
		}

		for _, r := range data.Reminders {
			completed := 0
			if r.Completed {
				completed = 1
			}
			_, err := s.execHook(tx,
				`INSERT INTO reminders (content, created_at, remind_at, completed, priority)
				 VALUES (?, ?, ?, ?, ?)`,
				r.Content, formatTime(r.CreatedAt), nullableTime(r.RemindAt), completed, max(r.Priority, 1),
			)
			if err != nil {
				return fmt.Errorf("import reminder %d: %w", r.ID, err)
			}
			result.RemindersImported++
		}

		for _, lp := range data.LearnedPatterns {
			_, err := s.execHook(tx,
				`INSERT INTO learned_patterns (phrase, intent, updated_at) VALUES (?, ?, ?)
				 ON CONFLICT(phrase) DO UPDATE SET intent = excluded.intent, updated_at = excluded.updated_at`,
				lp.Phrase, lp.Intent, formatTime(lp.UpdatedAt),
			)
			if err != nil {
				return fmt.Errorf("import learned pattern %q: %w", lp.Phrase, err)
			}
			result.PatternsImported++
		}
		return nil
	})
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	s.prefs.Flush()
	if err := s.reloadProfile(); err != nil {
		return result, storeErr("import", err)
	}
	return result, nil
}
