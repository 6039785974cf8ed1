package memory

// Profile is the user profile assembled from defaults and "profile"
// category preferences.
type Profile struct {
	Name          string            `json:"name"`
	Location      string            `json:"location"`
	Timezone      string            `json:"timezone"`
	Language      string            `json:"language"`
	VoiceSpeed    int               `json:"voice_speed"`
	PreferredApps []string          `json:"preferred_apps"`
	WorkHours     map[string]string `json:"work_hours"`
	Interests     []string          `json:"interests"`
}

// DefaultProfile returns the profile used before any preference is stored.
func DefaultProfile() Profile {
	return Profile{
		Name:          "Sir",
		Location:      "Indore",
		Timezone:      "Asia/Kolkata",
		Language:      "en-in",
		VoiceSpeed:    150,
		PreferredApps: []string{},
		WorkHours:     map[string]string{"start": "09:00", "end": "18:00"},
		Interests:     []string{},
	}
}

// Profile returns a copy of the current user profile.
func (s *Store) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p := s.profile
	p.PreferredApps = append([]string(nil), s.profile.PreferredApps...)
	p.Interests = append([]string(nil), s.profile.Interests...)
	p.WorkHours = make(map[string]string, len(s.profile.WorkHours))
	for k, v := range s.profile.WorkHours {
		p.WorkHours[k] = v
	}
	return p
}

func (s *Store) reloadProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profile = DefaultProfile()
	prefs, err := s.listPreferences(ProfileCategory)
	if err != nil {
		return err
	}
	for _, p := range prefs {
		s.profile.apply(p.Key, decodeValue(p.Value))
	}
	return nil
}

// apply overrides one profile field from a decoded preference value.
// Values of the wrong shape are ignored.
func (p *Profile) apply(key string, v any) {
	switch key {
	case "name":
		if s, ok := v.(string); ok {
			p.Name = s
		}
	case "location":
		if s, ok := v.(string); ok {
			p.Location = s
		}
	case "timezone":
		if s, ok := v.(string); ok {
			p.Timezone = s
		}
	case "language":
		if s, ok := v.(string); ok {
			p.Language = s
		}
	case "voice_speed":
		if f, ok := v.(float64); ok {
			p.VoiceSpeed = int(f)
		}
	case "preferred_apps":
		if list, ok := stringList(v); ok {
			p.PreferredApps = list
		}
	case "interests":
		if list, ok := stringList(v); ok {
			p.Interests = list
		}
	case "work_hours":
		if m, ok := v.(map[string]any); ok {
			hours := make(map[string]string, len(m))
			for k, raw := range m {
				if s, ok := raw.(string); ok {
					hours[k] = s
				}
			}
			p.WorkHours = hours
		}
	}
}

func stringList(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
