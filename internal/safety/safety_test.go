package safety_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/sage/internal/safety"
)

func TestCheck_BlocksPatterns(t *testing.T) {
	g := safety.NewGuard()

	tests := []struct {
		utterance string
		category  safety.Category
	}{
		{"please delete my photos", safety.Files},
		{"kill the browser", safety.Processes},
		{"send money to bob", safety.Financial},
		{"open the firewall settings", safety.Network},
		{"what is my password", safety.Admin},
		{"reboot now", safety.Power},
	}
	for _, tt := range tests {
		err := g.Check("open_browser", tt.utterance)
		var blocked *safety.BlockedError
		require.True(t, errors.As(err, &blocked), tt.utterance)
		assert.Equal(t, tt.category, blocked.Category, tt.utterance)
	}
}

func TestCheck_AllowsOrdinaryRequests(t *testing.T) {
	g := safety.NewGuard()
	for _, u := range []string{"open chrome", "volume up", "take a screenshot", "play music"} {
		assert.NoError(t, g.Check("open_music", u), u)
		assert.True(t, g.IsSafe(u), u)
	}
}

func TestCheck_PowerIntents(t *testing.T) {
	blocked := safety.NewGuard()
	err := blocked.Check("shutdown", "turn off computer")
	var be *safety.BlockedError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, safety.Power, be.Category)
	assert.Empty(t, be.Pattern)

	allowed := safety.NewGuard(safety.Power)
	assert.NoError(t, allowed.Check("shutdown", "shut down the computer"))
	assert.NoError(t, allowed.Check("restart", "restart"))
	assert.Error(t, allowed.Check("restart", "restart and delete everything"), "other categories stay blocked")
}

func TestCheck_Combinations(t *testing.T) {
	g := safety.NewGuard(safety.Power)
	assert.False(t, g.IsSafe("format c: please"))
	assert.False(t, g.IsSafe("remove windows updates"))
}
