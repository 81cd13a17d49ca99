package playlist

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mocks github.com/osa030/mixtape/internal/domain/playlist Notifier

// EventType represents a playlist event type.
type EventType int

const (
	EventNowPlaying       EventType = iota // Head of the playlist started playing
	EventSkipped                           // Previous head dropped, new head playing
	EventNothingToSkip                     // Skip requested with one or no tracks left
	EventListed                            // Playlist contents were listed
	EventShuffled                          // Playlist was shuffled and playback resumed
	EventNothingToShuffle                  // Shuffle requested on an empty playlist
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventNowPlaying:
		return "now_playing"
	case EventSkipped:
		return "skipped"
	case EventNothingToSkip:
		return "nothing_to_skip"
	case EventListed:
		return "listed"
	case EventShuffled:
		return "shuffled"
	case EventNothingToShuffle:
		return "nothing_to_shuffle"
	default:
		return "unknown"
	}
}

// Event represents a user-facing playlist event.
type Event struct {
	Type     EventType
	Playlist string   // Playlist name
	Track    string   // Current track (empty for some events)
	Tracks   []string // Snapshot of the tracks (EventListed only)
}

// Notifier receives playlist events.
type Notifier interface {
	Notify(event Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(event Event)

// Notify calls f(event).
func (f NotifierFunc) Notify(event Event) {
	f(event)
}

type discard struct{}

func (discard) Notify(Event) {}
