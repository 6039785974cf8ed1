package memory

import "strings"

// SaveLearnedPattern upserts phrase → intent. The newest write wins.
func (s *Store) SaveLearnedPattern(phrase, intent string) error {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" || intent == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.execHook(s.db,
		`INSERT INTO learned_patterns (phrase, intent, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(phrase) DO UPDATE SET intent = excluded.intent, updated_at = excluded.updated_at`,
		phrase, intent, formatTime(s.cfg.Clock()),
	)
	if err != nil {
		return storeErr("save learned pattern", err)
	}
	return nil
}

// LearnedPatterns returns every stored pattern ordered by phrase.
func (s *Store) LearnedPatterns() ([]LearnedPattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.queryItHook(s.db,
		"SELECT phrase, intent, updated_at FROM learned_patterns ORDER BY phrase",
	)
	if err != nil {
		return nil, storeErr("learned patterns", err)
	}
	defer rows.Close()

	var out []LearnedPattern
	for rows.Next() {
		var lp LearnedPattern
		var ts string
		if err := rows.Scan(&lp.Phrase, &lp.Intent, &ts); err != nil {
			return nil, storeErr("learned patterns", err)
		}
		lp.UpdatedAt = parseTime(ts)
		out = append(out, lp)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("learned patterns", err)
	}
	return out, nil
}
