package memory

import (
	"encoding/json"
	"fmt"
	"strings"

	cache "github.com/patrickmn/go-cache"
)

// ProfileCategory is the preference category that feeds the user profile.
const ProfileCategory = "profile"

// SetPreference stores value under key, JSON-encoded, and bumps its usage
// count. Writes with category "profile" also update the in-memory profile.
func (s *Store) SetPreference(key string, value any, category string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("memory: preference key is required")
	}
	if category == "" {
		category = "general"
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memory: encode preference %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.execHook(s.db,
		`INSERT INTO preferences (key, value, category, last_updated, usage_count)
		 VALUES (?, ?, ?, ?, 1)
		 ON CONFLICT(key) DO UPDATE SET
		   value        = excluded.value,
		   category     = excluded.category,
		   last_updated = excluded.last_updated,
		   usage_count  = preferences.usage_count + 1`,
		key, string(encoded), category, formatTime(s.cfg.Clock()),
	)
	if err != nil {
		s.prefs.Delete(key)
		return storeErr("set preference", err)
	}

	decoded := decodeValue(string(encoded))
	s.prefs.Set(key, decoded, cache.DefaultExpiration)
	if category == ProfileCategory {
		s.profile.apply(key, decoded)
	}
	return nil
}

// GetPreference returns the decoded value for key. Values that are not
// valid JSON are returned as the raw string.
func (s *Store) GetPreference(key string) (any, error) {
	if v, ok := s.prefs.Get(key); ok {
		return v, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&raw)
	if isNoRows(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get preference", err)
	}
	v := decodeValue(raw)
	s.prefs.Set(key, v, cache.DefaultExpiration)
	return v, nil
}

// GetPreferenceInto decodes the stored JSON for key into dst.
func (s *Store) GetPreferenceInto(key string, dst any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	err := s.db.QueryRow("SELECT value FROM preferences WHERE key = ?", key).Scan(&raw)
	if isNoRows(err) {
		return ErrNotFound
	}
	if err != nil {
		return storeErr("get preference", err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("memory: decode preference %q: %w", key, err)
	}
	return nil
}

// Preferences lists stored preferences, optionally filtered by category.
func (s *Store) Preferences(category string) ([]Preference, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listPreferences(category)
}

func (s *Store) listPreferences(category string) ([]Preference, error) {
	query := "SELECT key, value, category, last_updated, usage_count FROM preferences"
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY key"

	rows, err := s.queryItHook(s.db, query, args...)
	if err != nil {
		return nil, storeErr("list preferences", err)
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var p Preference
		var ts string
		if err := rows.Scan(&p.Key, &p.Value, &p.Category, &ts, &p.UsageCount); err != nil {
			return nil, storeErr("list preferences", err)
		}
		p.LastUpdated = parseTime(ts)
		prefs = append(prefs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list preferences", err)
	}
	return prefs, nil
}

func decodeValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
