package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/entities"
)

func TestExtract(t *testing.T) {
	meta := catalog.Default()

	tests := []struct {
		name      string
		intent    string
		utterance string
		want      entities.Entities
	}{
		{"search for", "search", "search for python tutorials", entities.Entities{entities.Query: "python tutorials"}},
		{"search order prefers search for", "search", "search for what is go", entities.Entities{entities.Query: "what is go"}},
		{"look up", "search", "Look up  golang generics ", entities.Entities{entities.Query: "golang generics"}},
		{"search without capture", "search", "google", entities.Entities{}},
		{"weather location", "weather", "weather in Mumbai today", entities.Entities{entities.Location: "mumbai"}},
		{"weather no location", "weather", "is it hot", entities.Entities{}},
		{"app from metadata", "open_browser", "open chrome", entities.Entities{entities.App: "chrome"}},
		{"volume with level", "volume_up", "volume up to 70", entities.Entities{
			entities.Action: "increase", entities.Level: 70, entities.Number: 70,
		}},
		{"mute", "mute", "mute please", entities.Entities{entities.Action: "mute"}},
		{"reminder to", "reminder", "remind me to call mom at 5", entities.Entities{
			entities.ReminderText: "call mom at 5", entities.Number: 5,
		}},
		{"reminder about", "reminder", "remind me about the meeting", entities.Entities{entities.ReminderText: "the meeting"}},
		{"don't forget", "reminder", "don't forget the milk", entities.Entities{entities.ReminderText: "the milk"}},
		{"number only", "joke", "tell me 2 jokes", entities.Entities{entities.Number: 2}},
		{"first digit run", "joke", "12 or 34", entities.Entities{entities.Number: 12}},
		{"unknown intent", "ai_response", "what do you think", entities.Entities{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entities.Extract(meta, tt.intent, tt.utterance)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_MissingMetadataOmitsKeys(t *testing.T) {
	got := entities.Extract(nil, "open_browser", "open chrome")
	assert.NotContains(t, got, entities.App)

	c := catalog.New()
	_ = c.Register(catalog.Intent{ID: "open_notes", Phrases: []string{"open notes"}})
	got = entities.Extract(c, "open_notes", "open notes")
	assert.Empty(t, got)
}

func TestExtract_OverflowingNumberOmitted(t *testing.T) {
	got := entities.Extract(nil, "joke", "99999999999999999999999 jokes")
	assert.NotContains(t, got, entities.Number)
}

func TestEntitiesAccessors(t *testing.T) {
	e := entities.Entities{entities.Query: "go", entities.Level: 3}
	assert.Equal(t, "go", e.String(entities.Query))
	assert.Equal(t, "", e.String(entities.Level))
	n, ok := e.Int(entities.Level)
	assert.True(t, ok)
	assert.Equal(t, 3, n)
}
