package skills_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/sage/internal/catalog"
	"github.com/HendryAvila/sage/internal/entities"
	"github.com/HendryAvila/sage/internal/memory"
	"github.com/HendryAvila/sage/internal/skills"
)

var fixed = time.Date(2026, 3, 2, 15, 4, 0, 0, time.UTC)

func clock() time.Time { return fixed }

type fakeGreetingSource struct {
	bucket string
}

func (f fakeGreetingSource) Profile() memory.Profile { return memory.DefaultProfile() }
func (f fakeGreetingSource) CurrentBucket() string { return f.bucket }

type fakeSuggester struct {
	out []string
	err error
}

func (f fakeSuggester) Suggest() ([]string, error) { return f.out, f.err }

type fakeReminders struct {
	got []memory.AddReminderParams
	err error
}

func (f *fakeReminders) AddReminder(p memory.AddReminderParams) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.got = append(f.got, p)
	return int64(len(f.got)), nil
}

func TestRegistry_FindInOrder(t *testing.T) {
	r := skills.NewRegistry()
	c := catalog.Default()
	r.MustRegister(skills.TimeSkill{Now: clock}, skills.CatalogSkill{Catalog: c})

	s, ok := r.Find(skills.Request{Intent: "time"})
	require.True(t, ok)
	assert.Equal(t, "time", s.Name(), "earlier registration wins")

	s, ok = r.Find(skills.Request{Intent: "joke"})
	require.True(t, ok)
	assert.Equal(t, "catalog", s.Name())

	_, ok = r.Find(skills.Request{Intent: "ai_response"})
	assert.False(t, ok)

	assert.Equal(t, []string{"time", "catalog"}, r.Names())
}

func TestRegistry_Duplicate(t *testing.T) {
	r := skills.NewRegistry()
	require.NoError(t, r.Register(skills.DateSkill{Now: clock}))
	assert.ErrorIs(t, r.Register(skills.DateSkill{Now: clock}), skills.ErrDuplicate)

	_, ok := r.Get("date")
	assert.True(t, ok)
}

func TestTimeAndDate(t *testing.T) {
	ctx := context.Background()
	got, err := skills.TimeSkill{Now: clock}.Execute(ctx, skills.Request{})
	require.NoError(t, err)
	assert.Equal(t, "The current time is 03:04 PM", got)

	got, err = skills.DateSkill{Now: clock}.Execute(ctx, skills.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Today is Monday, March 02, 2026", got)
}

func TestGreeting(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		bucket      string
		suggestions []string
		want        string
	}{
		{memory.Morning, []string{"Check weather"}, "Good morning, Sir! Would you like me to check weather?"},
		{memory.Afternoon, nil, "Good afternoon, Sir!"},
		{memory.Evening, []string{"Play music", "Check emails"}, "Good evening, Sir! Would you like me to play music?"},
		{memory.Night, nil, "Hello, Sir!"},
	}
	for _, tt := range tests {
		s := skills.GreetingSkill{Source: fakeGreetingSource{tt.bucket}, Suggester: fakeSuggester{out: tt.suggestions}}
		got, err := s.Execute(ctx, skills.Request{Intent: "greeting"})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestGreeting_SuggesterErrorStillGreets(t *testing.T) {
	boom := errors.New("boom")
	s := skills.GreetingSkill{Source: fakeGreetingSource{memory.Night}, Suggester: fakeSuggester{err: boom}}
	got, err := s.Execute(context.Background(), skills.Request{})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "Hello, Sir!", got)
}

func TestReminderSkill(t *testing.T) {
	store := &fakeReminders{}
	s := skills.ReminderSkill{Store: store}

	got, err := s.Execute(context.Background(), skills.Request{
		Utterance: "remind me to call mom",
		Entities:  entities.Entities{entities.ReminderText: "call mom"},
	})
	require.NoError(t, err)
	assert.Equal(t, "I'll remind you about: call mom", got)

	got, err = s.Execute(context.Background(), skills.Request{Utterance: " set reminder ", Entities: entities.Entities{}})
	require.NoError(t, err)
	assert.Equal(t, "I'll remind you about: set reminder", got)
	require.Len(t, store.got, 2)
	assert.Equal(t, "call mom", store.got[0].Content)
}

func TestReminderSkill_Failure(t *testing.T) {
	storeErr := &memory.StoreError{Op: "add reminder", Err: errors.New("disk full")}
	s := skills.ReminderSkill{Store: &fakeReminders{err: storeErr}}

	got, err := s.Execute(context.Background(), skills.Request{Utterance: "remind me to stretch"})
	assert.Equal(t, "I couldn't set that reminder", got)
	assert.True(t, memory.IsStoreFailure(err))
}

func TestCatalogSkill(t *testing.T) {
	s := skills.CatalogSkill{Catalog: catalog.Default()}
	assert.True(t, s.CanHandle(skills.Request{Intent: "news"}))
	assert.False(t, s.CanHandle(skills.Request{Intent: "ai_response"}))

	got, err := s.Execute(context.Background(), skills.Request{Intent: "news"})
	require.NoError(t, err)
	assert.Equal(t, "Let me get the latest news", got)
}
