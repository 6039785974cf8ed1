package memory

import (
	"database/sql"
	"fmt"
)

func (s *Store) bumpHabit(tx *sql.Tx, action, ts, bucket string) error {
	_, err := s.execHook(tx,
		`INSERT INTO habits (action, frequency, last_used, time_of_day)
		 VALUES (?, 1, ?, ?)
		 ON CONFLICT(action) DO UPDATE SET
		   frequency   = habits.frequency + 1,
		   last_used   = excluded.last_used,
		   time_of_day = excluded.time_of_day`,
		action, ts, bucket,
	)
	if err != nil {
		return fmt.Errorf("upsert habit %q: %w", action, err)
	}
	return nil
}

// CommonHabits returns habits seen more than once, most frequent first.
// An empty bucket matches every time of day.
func (s *Store) CommonHabits(bucket string, limit int) ([]Habit, error) {
	if limit <= 0 {
		limit = 5
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT action, frequency, last_used, time_of_day FROM habits WHERE frequency > 1`
	args := []any{}
	if bucket != "" {
		query += " AND time_of_day = ?"
		args = append(args, bucket)
	}
	query += " ORDER BY frequency DESC, last_used DESC, action ASC LIMIT ?"
	args = append(args, limit)

	rows, err := s.queryItHook(s.db, query, args...)
	if err != nil {
		return nil, storeErr("common habits", err)
	}
	defer rows.Close()

	var habits []Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, storeErr("common habits", err)
		}
		habits = append(habits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("common habits", err)
	}
	return habits, nil
}

// Habit returns the counter for a single action.
func (s *Store) Habit(action string) (*Habit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var h Habit
	var ts string
	err := s.db.QueryRow(
		"SELECT action, frequency, last_used, time_of_day FROM habits WHERE action = ?", action,
	).Scan(&h.Action, &h.Frequency, &ts, &h.TimeOfDay)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get habit", err)
	}
	h.LastUsed = parseTime(ts)
	return &h, nil
}

func scanHabit(rows rowScanner) (Habit, error) {
	var h Habit
	var ts string
	if err := rows.Scan(&h.Action, &h.Frequency, &ts, &h.TimeOfDay); err != nil {
		return h, err
	}
	h.LastUsed = parseTime(ts)
	return h, nil
}
