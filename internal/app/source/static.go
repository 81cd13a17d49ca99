package source

import (
	"context"
)

// StaticSourceConfig lists titles inline in the config file.
type StaticSourceConfig struct {
	Tracks []string `yaml:"tracks" mapstructure:"tracks" validate:"required,min=1,dive,required"`
}

// StaticSource returns a fixed list of titles.
type StaticSource struct {
	config *StaticSourceConfig
}

// NewStaticSource creates a StaticSource from settings.
func NewStaticSource(settings map[string]any) (*StaticSource, error) {
	var config StaticSourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &StaticSource{config: &config}, nil
}

// Name returns the source name.
func (s *StaticSource) Name() string {
	return "static"
}

// Titles returns a copy of the configured titles.
func (s *StaticSource) Titles(ctx context.Context) ([]string, error) {
	titles := make([]string, len(s.config.Tracks))
	copy(titles, s.config.Tracks)
	return titles, nil
}
