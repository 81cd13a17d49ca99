package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/domain/track"
)

// SpotifySourceConfig loads titles from a Spotify playlist.
type SpotifySourceConfig struct {
	PlaylistURL string `yaml:"playlist_url" mapstructure:"playlist_url" validate:"required"`
	WithArtist  bool   `yaml:"with_artist" mapstructure:"with_artist"`
	Limit       int    `yaml:"limit" mapstructure:"limit" validate:"gte=0"`
}

// SpotifySource provides the titles of a Spotify playlist, skipping tracks
// not playable in the client's market.
type SpotifySource struct {
	spotify SpotifyClient
	config  *SpotifySourceConfig
}

// NewSpotifySource creates a SpotifySource from settings.
func NewSpotifySource(spotify SpotifyClient, settings map[string]any) (*SpotifySource, error) {
	if spotify == nil {
		return nil, errors.New("spotify client is not configured")
	}
	var config SpotifySourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("spotify source config: %+v", config)
	return &SpotifySource{spotify: spotify, config: &config}, nil
}

// Name returns the source name.
func (s *SpotifySource) Name() string {
	return "spotify"
}

// PlaylistURL returns the configured playlist.
func (s *SpotifySource) PlaylistURL() string {
	return s.config.PlaylistURL
}

// Titles fetches the playlist and renders its playable tracks.
func (s *SpotifySource) Titles(ctx context.Context) ([]string, error) {
	tracks, err := s.spotify.GetPlaylistTracks(ctx, s.config.PlaylistURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get playlist tracks")
	}

	market := s.spotify.Market()
	playable := make([]track.Track, 0, len(tracks))
	for _, t := range tracks {
		if !t.IsAvailableInMarket(market) {
			zlog.Debug().Msgf("skipping %q: not available in %s", t.Name, market)
			continue
		}
		playable = append(playable, t)
	}

	if s.config.Limit > 0 && len(playable) > s.config.Limit {
		playable = playable[:s.config.Limit]
	}
	return track.Titles(playable, s.config.WithArtist), nil
}
