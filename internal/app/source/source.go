// Package source provides track title sources used to seed a playlist.
package source

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/osa030/mixtape/internal/domain/track"
)

// Source is the interface for track title sources.
// Different implementations load titles from inline config, local files,
// or remote catalogues.
type Source interface {
	// Name returns the source type (used in config).
	Name() string
	// Titles returns the titles in playlist order.
	Titles(ctx context.Context) ([]string, error)
}

// SpotifyClient defines the Spotify operations needed by the spotify source.
type SpotifyClient interface {
	GetPlaylistTracks(ctx context.Context, playlistURL string) ([]track.Track, error)
	Market() string
}

// LastFMClient defines the Last.fm operations needed by the lastfm source.
type LastFMClient interface {
	GetTopTracks(ctx context.Context, tagName string, limit int) ([]track.Track, error)
	GetChartTopTracks(ctx context.Context, limit int) ([]track.Track, error)
}

// decodeSettings decodes, defaults and validates source settings into out.
func decodeSettings(settings map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}
	if err := defaults.Set(out); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}
	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(err, "validation failed")
	}
	return nil
}
