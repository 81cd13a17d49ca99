package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDemo(t *testing.T) {
	expected := "Now playing: Lofi Study\n" +
		"Skipped! Now playing: Chillhop Beats\n" +
		"Playlist: My Chill Mix\n" +
		"Songs: Chillhop Beats, Evening Jazz\n"

	tests := []struct {
		name string
		env  string
	}{
		{name: "clean environment", env: ""},
		{name: "playlist name set in environment", env: "Env Mix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MIXTAPE_PLAYLIST_NAME", tt.env)

			var out bytes.Buffer
			require.NoError(t, demo(context.Background(), &out))
			assert.Equal(t, expected, out.String())
		})
	}
}

func TestPrintFilters(t *testing.T) {
	var out bytes.Buffer
	printFilters(&out)

	assert.Contains(t, out.String(), "Available Filters:")
	assert.Contains(t, out.String(), "duplicate_track_filter")
	assert.Contains(t, out.String(), "max_tracks_filter")
	assert.Contains(t, out.String(), "[codes: playlist_full]")
}

func TestPrintSources(t *testing.T) {
	var out bytes.Buffer
	printSources(&out)

	for _, name := range []string{"static", "file", "spotify", "lastfm"} {
		assert.Contains(t, out.String(), name)
	}
}
