// Package track provides the Track entity delivered by remote title sources.
package track

import (
	"strings"
	"time"
)

// Track represents a track fetched from a remote catalogue.
// The playlist itself only keeps the rendered title.
type Track struct {
	ID         string        // Catalogue ID (empty for Last.fm)
	Name       string        // Track name
	Artists    []string      // Artist names
	Album      string        // Album name
	Duration   time.Duration // Track duration
	URL        string        // Catalogue URL
	Markets    []string      // Available markets
	IsPlayable *bool         // Playable in the requested market (nil if unknown)
}

// MainArtist returns the first artist, or an empty string.
func (t *Track) MainArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// Title renders the track as a playlist title.
// With withArtist set, the main artist is prefixed ("Artist - Name").
func (t *Track) Title(withArtist bool) string {
	name := strings.TrimSpace(t.Name)
	artist := strings.TrimSpace(t.MainArtist())
	if !withArtist || artist == "" {
		return name
	}
	return artist + " - " + name
}

// IsAvailableInMarket checks if the track is available in the specified market.
// An empty market means no restriction.
func (t *Track) IsAvailableInMarket(market string) bool {
	if market == "" {
		return true
	}
	if t.IsPlayable != nil {
		return *t.IsPlayable
	}
	for _, m := range t.Markets {
		if m == market {
			return true
		}
	}
	return false
}

// Titles renders a list of tracks, dropping tracks without a name.
func Titles(tracks []Track, withArtist bool) []string {
	titles := make([]string, 0, len(tracks))
	for i := range tracks {
		title := tracks[i].Title(withArtist)
		if title == "" {
			continue
		}
		titles = append(titles, title)
	}
	return titles
}
