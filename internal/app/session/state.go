package session

// State represents the playback state of a session.
type State int

const (
	StateIdle    State = iota // Nothing played yet
	StatePlaying              // A current track is set
	StateClosed               // Session was closed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Status is a point-in-time snapshot of a session.
type Status struct {
	ID            string
	Name          string
	State         State
	CurrentTrack  string
	Tracks        []string
	Notifications uint64 // Sequence number of the last notification
}

// Rejection describes a title refused by the filter chain.
type Rejection struct {
	Title string
	Code  string
}
