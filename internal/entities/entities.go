// Package entities pulls structured values out of an utterance once its
// intent is known. Extraction is pure and never fails: a value that is
// not present is simply left out of the result.
package entities

import (
	"regexp"
	"strconv"
	"strings"
)

// Entity keys.
const (
	Number       = "number"
	Location     = "location"
	App          = "app"
	Action       = "action"
	Level        = "level"
	Query        = "query"
	ReminderText = "reminderText"
)

// Entities maps entity keys to values. Number and Level hold ints,
// everything else holds strings.
type Entities map[string]any

// String returns the string value for key, or "".
func (e Entities) String(key string) string {
	s, _ := e[key].(string)
	return s
}

// Int returns the int value for key.
func (e Entities) Int(key string) (int, bool) {
	n, ok := e[key].(int)
	return n, ok
}

// Metadata supplies static per-intent entity values such as the app an
// open_* intent launches.
type Metadata interface {
	Entity(intent, name string) (string, bool)
}

var (
	digitsRe   = regexp.MustCompile(`\d+`)
	locationRe = regexp.MustCompile(`\bin\s+(\w+)`)

	searchRes = []*regexp.Regexp{
		regexp.MustCompile(`search for (.+)`),
		regexp.MustCompile(`look up (.+)`),
		regexp.MustCompile(`what is (.+)`),
		regexp.MustCompile(`find (.+)`),
	}
	reminderRes = []*regexp.Regexp{
		regexp.MustCompile(`remind me to (.+)`),
		regexp.MustCompile(`remind me about (.+)`),
		regexp.MustCompile(`don't forget (.+)`),
	}
)

// Extract returns the entities found in utterance for intent. meta may be
// nil, in which case app and action are never set.
func Extract(meta Metadata, intent, utterance string) Entities {
	text := strings.ToLower(strings.TrimSpace(utterance))
	out := Entities{}

	number, hasNumber := firstNumber(text)
	if hasNumber {
		out[Number] = number
	}

	switch {
	case intent == "weather":
		if m := locationRe.FindStringSubmatch(text); m != nil {
			out[Location] = m[1]
		}
	case intent == "search":
		if q := firstCapture(searchRes, text); q != "" {
			out[Query] = q
		}
	case intent == "reminder":
		if r := firstCapture(reminderRes, text); r != "" {
			out[ReminderText] = r
		}
	}

	if strings.HasPrefix(intent, "open_") && meta != nil {
		if app, ok := meta.Entity(intent, App); ok && app != "" {
			out[App] = app
		}
	}

	if IsVolumeIntent(intent) {
		if meta != nil {
			if action, ok := meta.Entity(intent, Action); ok && action != "" {
				out[Action] = action
			}
		}
		if hasNumber {
			out[Level] = number
		}
	}

	return out
}

// IsVolumeIntent reports whether intent adjusts audio volume.
func IsVolumeIntent(intent string) bool {
	return strings.Contains(intent, "volume") || intent == "mute"
}

func firstNumber(text string) (int, bool) {
	m := digitsRe.FindString(text)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		// Digit runs too long for an int.
		return 0, false
	}
	return n, true
}

func firstCapture(res []*regexp.Regexp, text string) string {
	for _, re := range res {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}
