// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Playlist     PlaylistConfig          `yaml:"playlist"`
	Sources      []SourceConfig          `yaml:"sources" validate:"dive"`
	Filters      map[string]FilterConfig `yaml:"filters"`
	Notification NotificationConfig      `yaml:"notification"`
	Messages     MessagesConfig          `yaml:"messages"`
	Log          LogConfig               `yaml:"log"`
	Spotify      SpotifyConfig           `yaml:"spotify"`
	LastFM       LastFMConfig            `yaml:"lastfm"`
}

// PlaylistConfig represents the playlist being managed.
type PlaylistConfig struct {
	Name        string   `yaml:"name" default:"My Chill Mix"`
	ShuffleSeed *int64   `yaml:"shuffle_seed"`
	Script      []string `yaml:"script" validate:"dive,required"`
}

// SourceConfig represents a single track title source.
type SourceConfig struct {
	Type     string         `yaml:"type" validate:"required,oneof=static file dir spotify lastfm"`
	Settings map[string]any `yaml:"settings"`
}

// FilterConfig represents a filter's configuration.
type FilterConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// NotificationConfig represents where notifications are delivered.
type NotificationConfig struct {
	Console       string `yaml:"console" default:"stdout" validate:"oneof=stdout stderr none"`
	Log           bool   `yaml:"log"`
	SendTimeoutMs int    `yaml:"send_timeout_ms" default:"500" validate:"gte=0,lte=10000"`
}

// MessagesConfig represents user-facing notification templates.
// Placeholders: {name}, {track}, {tracks}. A template set to "" is silenced;
// an omitted one keeps its default.
type MessagesConfig struct {
	NowPlaying       *string `yaml:"now_playing" default:"Now playing: {track}"`
	Skipped          *string `yaml:"skipped" default:"Skipped! Now playing: {track}"`
	NothingToSkip    *string `yaml:"nothing_to_skip" default:"No more songs to skip."`
	ListedName       *string `yaml:"listed_name" default:"Playlist: {name}"`
	ListedTracks     *string `yaml:"listed_tracks" default:"Songs: {tracks}"`
	Shuffled         *string `yaml:"shuffled" default:"Playlist has been shuffled."`
	NothingToShuffle *string `yaml:"nothing_to_shuffle" default:"No songs to shuffle."`
}

// LogConfig represents logger configuration.
type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	Output string `yaml:"output" default:"stderr"`
	File   string `yaml:"file"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// LastFMConfig represents Last.fm API configuration.
type LastFMConfig struct {
	APIKey string `yaml:"api_key"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// Default returns a configuration with only default values.
// Environment overrides are not applied.
func Default() (*Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}
	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Spotify.RefreshToken = v
	}
	if v := os.Getenv("LASTFM_API_KEY"); v != "" {
		c.LastFM.APIKey = v
	}
	if v := os.Getenv("MIXTAPE_PLAYLIST_NAME"); v != "" {
		c.Playlist.Name = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateCredentials(); err != nil {
		return err
	}

	return nil
}

// validateCredentials checks that remote sources have the credentials they need.
func (c *Config) validateCredentials() error {
	var missing []string
	if c.HasSource("spotify") {
		if c.Spotify.ClientID == "" {
			missing = append(missing, "spotify.client_id")
		}
		if c.Spotify.ClientSecret == "" {
			missing = append(missing, "spotify.client_secret")
		}
		if c.Spotify.RefreshToken == "" {
			missing = append(missing, "spotify.refresh_token")
		}
	}
	if c.HasSource("lastfm") && c.LastFM.APIKey == "" {
		missing = append(missing, "lastfm.api_key")
	}
	if len(missing) > 0 {
		return errors.Newf("missing credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// HasSource reports whether a source of the given type is configured.
func (c *Config) HasSource(sourceType string) bool {
	for _, s := range c.Sources {
		if s.Type == sourceType {
			return true
		}
	}
	return false
}

// IsFilterEnabled checks if a filter is enabled.
func (c *Config) IsFilterEnabled(filterName string) bool {
	if f, ok := c.Filters[filterName]; ok {
		return f.Enabled
	}
	return false
}

// FilterSettings returns the settings for a filter.
func (c *Config) FilterSettings(filterName string) map[string]any {
	if f, ok := c.Filters[filterName]; ok {
		return f.Settings
	}
	return nil
}
