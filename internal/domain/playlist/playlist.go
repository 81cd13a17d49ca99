// Package playlist provides the Playlist domain entity.
package playlist

import (
	"math/rand"
	"strings"
	"time"
)

// Rand is the source of randomness used for shuffling.
// *math/rand.Rand satisfies it.
type Rand interface {
	// Intn returns a uniform random number in [0, n).
	Intn(n int) int
}

// Playlist is an ordered list of track titles with a currently playing track.
// It is not safe for concurrent use.
type Playlist struct {
	name     string
	tracks   []string
	current  *string
	notifier Notifier
	rng      Rand
}

// Option configures a Playlist.
type Option func(*Playlist)

// WithNotifier sets the notifier receiving playlist events.
func WithNotifier(n Notifier) Option {
	return func(p *Playlist) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithRand sets the random source used by ShuffleAndPlay.
func WithRand(r Rand) Option {
	return func(p *Playlist) {
		if r != nil {
			p.rng = r
		}
	}
}

// New creates an empty playlist with nothing playing.
func New(name string, opts ...Option) *Playlist {
	p := &Playlist{
		name:     name,
		tracks:   make([]string, 0),
		notifier: discard{},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		p.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return p
}

// Name returns the playlist name.
func (p *Playlist) Name() string {
	return p.name
}

// Len returns the number of tracks.
func (p *Playlist) Len() int {
	return len(p.tracks)
}

// Tracks returns a copy of the tracks in order.
func (p *Playlist) Tracks() []string {
	tracks := make([]string, len(p.tracks))
	copy(tracks, p.tracks)
	return tracks
}

// CurrentTrack returns the currently playing track.
// The second value is false until playback has started.
func (p *Playlist) CurrentTrack() (string, bool) {
	if p.current == nil {
		return "", false
	}
	return *p.current, true
}

// Rendering returns the tracks joined with ", ".
func (p *Playlist) Rendering() string {
	return strings.Join(p.tracks, ", ")
}

// AddTrack appends a track. Duplicates are allowed.
func (p *Playlist) AddTrack(title string) {
	p.tracks = append(p.tracks, title)
}

// PlayFirst starts playing the head of the playlist.
// Does nothing on an empty playlist.
func (p *Playlist) PlayFirst() {
	if len(p.tracks) == 0 {
		return
	}
	p.setCurrent()
	p.emit(EventNowPlaying)
}

// Skip drops the current head and plays the next track.
// The dropped track is discarded, not requeued.
func (p *Playlist) Skip() {
	if len(p.tracks) <= 1 {
		p.emit(EventNothingToSkip)
		return
	}

	p.tracks[0] = ""
	p.tracks = p.tracks[1:]
	p.setCurrent()
	p.emit(EventSkipped)
}

// ListTracks emits the playlist name and its tracks.
func (p *Playlist) ListTracks() {
	p.notifier.Notify(Event{
		Type:     EventListed,
		Playlist: p.name,
		Tracks:   p.Tracks(),
	})
}

// ShuffleAndPlay shuffles the tracks in place (Fisher-Yates) and plays the new head.
func (p *Playlist) ShuffleAndPlay() {
	if len(p.tracks) == 0 {
		p.emit(EventNothingToShuffle)
		return
	}

	for i := len(p.tracks) - 1; i > 0; i-- {
		j := p.rng.Intn(i + 1)
		p.tracks[i], p.tracks[j] = p.tracks[j], p.tracks[i]
	}

	p.PlayFirst()
	p.emit(EventShuffled)
}

func (p *Playlist) setCurrent() {
	head := p.tracks[0]
	p.current = &head
}

func (p *Playlist) emit(t EventType) {
	ev := Event{Type: t, Playlist: p.name}
	if p.current != nil {
		ev.Track = *p.current
	}
	p.notifier.Notify(ev)
}
