package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Title(t *testing.T) {
	tests := []struct {
		name       string
		track      Track
		withArtist bool
		expected   string
	}{
		{
			name:     "name only",
			track:    Track{Name: "Evening Jazz", Artists: []string{"Quartet"}},
			expected: "Evening Jazz",
		},
		{
			name:       "with main artist",
			track:      Track{Name: "Evening Jazz", Artists: []string{"Quartet", "Guest"}},
			withArtist: true,
			expected:   "Quartet - Evening Jazz",
		},
		{
			name:       "with artist but none known",
			track:      Track{Name: "Evening Jazz"},
			withArtist: true,
			expected:   "Evening Jazz",
		},
		{
			name:       "whitespace trimmed",
			track:      Track{Name: "  Lofi Study ", Artists: []string{" Beats "}},
			withArtist: true,
			expected:   "Beats - Lofi Study",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.Title(tt.withArtist))
		})
	}
}

func TestTrack_IsAvailableInMarket(t *testing.T) {
	trueVal := true
	falseVal := false

	tests := []struct {
		name       string
		markets    []string
		isPlayable *bool
		market     string
		expected   bool
	}{
		{
			name:     "available in market using markets list",
			markets:  []string{"JP", "US", "UK"},
			market:   "JP",
			expected: true,
		},
		{
			name:     "not available in market using markets list",
			markets:  []string{"US", "UK"},
			market:   "JP",
			expected: false,
		},
		{
			name:       "isPlayable true takes precedence",
			markets:    []string{"US"},
			isPlayable: &trueVal,
			market:     "JP",
			expected:   true,
		},
		{
			name:       "isPlayable false takes precedence",
			markets:    []string{"JP", "US"},
			isPlayable: &falseVal,
			market:     "JP",
			expected:   false,
		},
		{
			name:     "no market restriction",
			markets:  []string{},
			market:   "",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			track := &Track{
				ID:         "test-id",
				Markets:    tt.markets,
				IsPlayable: tt.isPlayable,
			}

			assert.Equal(t, tt.expected, track.IsAvailableInMarket(tt.market))
		})
	}
}

func TestTitles(t *testing.T) {
	tracks := []Track{
		{Name: "Lofi Study", Artists: []string{"A"}, Duration: 3 * time.Minute},
		{Name: ""},
		{Name: "Chillhop Beats", Artists: []string{"B"}},
	}

	assert.Equal(t, []string{"Lofi Study", "Chillhop Beats"}, Titles(tracks, false))
	assert.Equal(t, []string{"A - Lofi Study", "B - Chillhop Beats"}, Titles(tracks, true))
	assert.Empty(t, Titles(nil, false))
}
