package source

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
)

// FileSourceConfig reads titles from a local text or M3U file.
type FileSourceConfig struct {
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// FileSource reads one title per line.
// Plain text files: every non-empty line not starting with '#' is a title.
// M3U files: the #EXTINF display title is used, or the entry's base name without extension.
type FileSource struct {
	config *FileSourceConfig
}

// NewFileSource creates a FileSource from settings.
func NewFileSource(settings map[string]any) (*FileSource, error) {
	var config FileSourceConfig
	if err := decodeSettings(settings, &config); err != nil {
		return nil, err
	}
	return &FileSource{config: &config}, nil
}

// Name returns the source name.
func (s *FileSource) Name() string {
	return "file"
}

// Path returns the file path.
func (s *FileSource) Path() string {
	return s.config.Path
}

// Titles reads and parses the file.
func (s *FileSource) Titles(ctx context.Context) ([]string, error) {
	data, err := os.ReadFile(s.config.Path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read track file")
	}
	titles, err := parseTitles(data, isM3U(s.config.Path, data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse track file %s", s.config.Path)
	}
	return titles, nil
}

// Watch follows the file and sends titles appended after the call.
// The channel is closed when ctx is done or the watcher fails.
func (s *FileSource) Watch(ctx context.Context) (<-chan string, error) {
	seen, err := s.Titles(ctx)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(s.config.Path)); err != nil {
		watcher.Close()
		return nil, errors.Wrap(err, "failed to watch track file")
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer watcher.Close()

		count := len(seen)
		target := filepath.Clean(s.config.Path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target || !shouldReload(event.Op) {
					continue
				}

				titles, err := s.Titles(ctx)
				if err != nil {
					zlog.Warn().Err(err).Msgf("could not reload %s", s.config.Path)
					continue
				}
				if len(titles) < count {
					// File was truncated; follow from its new end.
					count = len(titles)
					continue
				}
				for _, title := range titles[count:] {
					select {
					case out <- title:
					case <-ctx.Done():
						return
					}
				}
				count = len(titles)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				zlog.Warn().Err(err).Msg("file watcher returned an error")
			}
		}
	}()

	return out, nil
}

func shouldReload(op fsnotify.Op) bool {
	return op&(fsnotify.Write|fsnotify.Create) != 0
}

func isM3U(path string, data []byte) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u", ".m3u8":
		return true
	}
	return bytes.HasPrefix(bytes.TrimSpace(data), []byte("#EXTM3U"))
}

// maxLineSize bounds a single line of a track file.
const maxLineSize = 1024 * 1024

// parseTitles extracts titles from file contents.
// A line longer than maxLineSize fails the whole parse.
func parseTitles(data []byte, m3u bool) ([]string, error) {
	titles := make([]string, 0)
	pending := ""

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineSize)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#") {
			if m3u && strings.HasPrefix(line, "#EXTINF:") {
				// #EXTINF:<duration>,<display title>
				if i := strings.Index(line, ","); i >= 0 {
					pending = strings.TrimSpace(line[i+1:])
				}
			}
			continue
		}

		if !m3u {
			titles = append(titles, line)
			continue
		}

		title := pending
		pending = ""
		if title == "" {
			base := filepath.Base(filepath.FromSlash(line))
			title = strings.TrimSuffix(base, filepath.Ext(base))
		}
		titles = append(titles, title)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to scan titles")
	}
	return titles, nil
}
