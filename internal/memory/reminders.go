package memory

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// AddReminderParams holds the parameters for creating a reminder.
type AddReminderParams struct {
	Content  string
	RemindAt *time.Time // nil means due immediately
	Priority int        // defaults to 1
}

// AddReminder stores a new reminder and returns its id.
func (s *Store) AddReminder(p AddReminderParams) (int64, error) {
	content := strings.TrimSpace(p.Content)
	if content == "" {
		return 0, fmt.Errorf("memory: reminder content is required")
	}
	if p.Priority <= 0 {
		p.Priority = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.execHook(s.db,
		`INSERT INTO reminders (content, created_at, remind_at, completed, priority)
		 VALUES (?, ?, ?, 0, ?)`,
		content, formatTime(s.cfg.Clock()), nullableTime(p.RemindAt), p.Priority,
	)
	if err != nil {
		return 0, storeErr("add reminder", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("add reminder", err)
	}
	return id, nil
}

// PendingReminders returns reminders that are not completed and are due,
// highest priority first, then earliest due time.
func (s *Store) PendingReminders() ([]Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryItHook(s.db,
		`SELECT id, content, created_at, remind_at, completed, priority
		 FROM reminders
		 WHERE completed = 0 AND (remind_at IS NULL OR remind_at <= ?)
		 ORDER BY priority DESC, remind_at ASC, id ASC`,
		formatTime(s.cfg.Clock()),
	)
	if err != nil {
		return nil, storeErr("pending reminders", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, storeErr("pending reminders", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("pending reminders", err)
	}
	return out, nil
}

// CompleteReminder marks a reminder as completed.
func (s *Store) CompleteReminder(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.execHook(s.db, "UPDATE reminders SET completed = 1 WHERE id = ?", id)
	if err != nil {
		return storeErr("complete reminder", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReminder(rows rowScanner) (Reminder, error) {
	var r Reminder
	var created string
	var remindAt sql.NullString
	var completed int
	if err := rows.Scan(&r.ID, &r.Content, &created, &remindAt, &completed, &r.Priority); err != nil {
		return r, err
	}
	r.CreatedAt = parseTime(created)
	if remindAt.Valid {
		t := parseTime(remindAt.String)
		r.RemindAt = &t
	}
	r.Completed = completed != 0
	return r, nil
}
