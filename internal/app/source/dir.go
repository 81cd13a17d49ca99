package source

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dhowden/tag"
	zlog "github.com/rs/zerolog/log"
)

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".m4a":  true,
	".aac":  true,
}

// DirSourceConfig reads titles from the audio files of a directory.
type DirSourceConfig struct {
	Path       string `yaml:"path" mapstructure:"path" validate:"required"`
	Recursive  bool   `yaml:"recursive" mapstructure:"recursive"`
	WithArtist bool   `yaml:"with_artist" mapstructure:"with_artist"`
}

// DirSource uses the embedded title tag of each audio file, falling back to
// the file name. Files are returned in lexical path order.
type DirSource struct {
	config *DirSourceConfig
}

// NewDirSource creates a DirSource from settings.
func NewDirSource(settings map[string]any) (*DirSource, error) {
	var config DirSourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &DirSource{config: &config}, nil
}

// Name returns the source name.
func (s *DirSource) Name() string {
	return "dir"
}

// Titles scans the directory.
func (s *DirSource) Titles(ctx context.Context) ([]string, error) {
	root := s.config.Path
	titles := make([]string, 0)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && !s.config.Recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !audioExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		titles = append(titles, s.titleOf(path))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to scan music directory")
	}
	return titles, nil
}

func (s *DirSource) titleOf(path string) string {
	base := filepath.Base(path)
	fallback := strings.TrimSuffix(base, filepath.Ext(base))

	f, err := os.Open(path)
	if err != nil {
		zlog.Debug().Err(err).Msgf("cannot open %s, using file name", path)
		return fallback
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil || strings.TrimSpace(m.Title()) == "" {
		return fallback
	}

	title := strings.TrimSpace(m.Title())
	if artist := strings.TrimSpace(m.Artist()); s.config.WithArtist && artist != "" {
		return artist + " - " + title
	}
	return title
}
