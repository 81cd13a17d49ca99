package source

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/domain/track"
)

// LastFMSourceConfig loads titles from Last.fm top tracks.
// Without a tag, the global chart is used.
type LastFMSourceConfig struct {
	Tag        string `yaml:"tag" mapstructure:"tag"`
	Limit      int    `yaml:"limit" mapstructure:"limit" default:"20" validate:"gte=1,lte=100"`
	WithArtist bool   `yaml:"with_artist" mapstructure:"with_artist"`
}

// LastFMSource provides Last.fm top track titles.
type LastFMSource struct {
	lastfm LastFMClient
	config *LastFMSourceConfig
}

// NewLastFMSource creates a LastFMSource from settings.
func NewLastFMSource(lastfm LastFMClient, settings map[string]any) (*LastFMSource, error) {
	if lastfm == nil {
		return nil, errors.New("last.fm client is not configured")
	}
	var config LastFMSourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	zlog.Debug().Msgf("lastfm source config: %+v", config)
	return &LastFMSource{lastfm: lastfm, config: &config}, nil
}

// Name returns the source name.
func (s *LastFMSource) Name() string {
	return "lastfm"
}

// Titles fetches the top tracks.
func (s *LastFMSource) Titles(ctx context.Context) ([]string, error) {
	var (
		tracks []track.Track
		err    error
	)
	if s.config.Tag != "" {
		tracks, err = s.lastfm.GetTopTracks(ctx, s.config.Tag, s.config.Limit)
	} else {
		tracks, err = s.lastfm.GetChartTopTracks(ctx, s.config.Limit)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get top tracks")
	}
	return track.Titles(tracks, s.config.WithArtist), nil
}
