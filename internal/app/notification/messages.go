package notification

import (
	"strings"

	"github.com/creasty/defaults"

	"github.com/osa030/mixtape/internal/domain/playlist"
	"github.com/osa030/mixtape/internal/infra/config"
)

// Messages renders playlist events into user-facing lines.
type Messages struct {
	templates map[playlist.EventType][]string
}

// NewMessages creates a renderer from configured templates.
// Unset and empty templates produce no line.
func NewMessages(cfg config.MessagesConfig) *Messages {
	return &Messages{
		templates: map[playlist.EventType][]string{
			playlist.EventNowPlaying:       templates(cfg.NowPlaying),
			playlist.EventSkipped:          templates(cfg.Skipped),
			playlist.EventNothingToSkip:    templates(cfg.NothingToSkip),
			playlist.EventListed:           templates(cfg.ListedName, cfg.ListedTracks),
			playlist.EventShuffled:         templates(cfg.Shuffled),
			playlist.EventNothingToShuffle: templates(cfg.NothingToShuffle),
		},
	}
}

// DefaultMessages returns the built-in English templates.
func DefaultMessages() *Messages {
	var cfg config.MessagesConfig
	defaults.MustSet(&cfg)
	return NewMessages(cfg)
}

func templates(values ...*string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != nil && *v != "" {
			out = append(out, *v)
		}
	}
	return out
}

// Render returns the lines for the event.
func (m *Messages) Render(event playlist.Event) []string {
	r := strings.NewReplacer(
		"{name}", event.Playlist,
		"{track}", event.Track,
		"{tracks}", strings.Join(event.Tracks, ", "),
	)

	templates := m.templates[event.Type]
	lines := make([]string, 0, len(templates))
	for _, tmpl := range templates {
		lines = append(lines, r.Replace(tmpl))
	}
	return lines
}
