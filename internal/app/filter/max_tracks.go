package filter

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"
)

// MaxTracksConfig represents the configuration for MaxTracksFilter.
type MaxTracksConfig struct {
	Max int `yaml:"max" mapstructure:"max" default:"100" validate:"gte=1"`
}

// MaxTracksFilter rejects additions once the playlist holds Max tracks.
type MaxTracksFilter struct {
	config *MaxTracksConfig
}

// NewMaxTracksFilter creates a new max tracks filter.
func NewMaxTracksFilter() *MaxTracksFilter {
	return &MaxTracksFilter{}
}

func (f *MaxTracksFilter) Name() string {
	return "max_tracks_filter"
}

func (f *MaxTracksFilter) Description() string {
	return "Caps the number of tracks in the playlist"
}

func (f *MaxTracksFilter) ReturnCodes() []string {
	return []string{"playlist_full"}
}

func (f *MaxTracksFilter) ValidateConfig(settings map[string]any) error {
	var config MaxTracksConfig

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &config,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create decoder")
	}

	if err := decoder.Decode(settings); err != nil {
		return errors.Wrap(err, "failed to decode settings")
	}

	if err := defaults.Set(&config); err != nil {
		return errors.Wrap(err, "failed to set defaults")
	}

	if err := validator.New().Struct(config); err != nil {
		return errors.Wrap(err, "validation failed")
	}

	f.config = &config
	zlog.Debug().Msgf("max tracks filter config: %+v", config)
	return nil
}

func (f *MaxTracksFilter) Check(ctx context.Context, req Request) Result {
	// If config is not set, accept all tracks
	if f.config == nil {
		return Accept()
	}
	if len(req.Existing) >= f.config.Max {
		return Reject("playlist_full")
	}
	return Accept()
}

func init() {
	Register("max_tracks_filter", func() Filter {
		return NewMaxTracksFilter()
	})
}
