// Package session provides the session manager.
package session

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/app/filter"
	"github.com/osa030/mixtape/internal/app/notification"
	"github.com/osa030/mixtape/internal/domain/playlist"
	"github.com/osa030/mixtape/internal/infra/config"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrSessionClosed  = errors.New("session is closed")
)

// Manager owns one playlist and serializes every operation on it.
type Manager struct {
	mu sync.Mutex

	id       string
	playlist *playlist.Playlist
	closed   bool

	// Components
	filterChain  *filter.Chain
	notification *notification.Manager
}

// NewManager creates a session for cfg.Playlist.
// The notification manager may be nil, in which case events are dropped.
func NewManager(cfg *config.Config, notif *notification.Manager) (*Manager, error) {
	filterChain, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter chain")
	}

	rng, err := NewRand(cfg.Playlist.ShuffleSeed)
	if err != nil {
		return nil, err
	}

	opts := []playlist.Option{playlist.WithRand(rng)}
	if notif != nil {
		opts = append(opts, playlist.WithNotifier(notif))
	}

	m := &Manager{
		id:           uuid.New().String(),
		playlist:     playlist.New(cfg.Playlist.Name, opts...),
		filterChain:  filterChain,
		notification: notif,
	}
	zlog.Info().Msgf("session created: id=%s playlist=%q filters=%d", m.id, cfg.Playlist.Name, len(filterChain.Filters()))
	return m, nil
}

// NewRand returns a PRNG seeded with seed, or with a random seed when nil.
func NewRand(seed *int64) (*rand.Rand, error) {
	if seed != nil {
		return rand.New(rand.NewSource(*seed)), nil
	}
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, errors.Wrap(err, "failed to seed shuffle")
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:])))), nil
}

// ID returns the session ID.
func (m *Manager) ID() string {
	return m.id
}

// AddTracks runs each title through the filter chain and appends the accepted ones.
func (m *Manager) AddTracks(ctx context.Context, titles []string) (int, []Rejection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, nil, ErrSessionClosed
	}

	added := 0
	var rejected []Rejection
	for _, title := range titles {
		if err := ctx.Err(); err != nil {
			return added, rejected, err
		}

		result := m.filterChain.Execute(ctx, filter.Request{
			Title:    title,
			Existing: m.playlist.Tracks(),
		})
		if !result.Accepted {
			zlog.Info().Msgf("track rejected: title=%q code=%s", title, result.Code)
			rejected = append(rejected, Rejection{Title: title, Code: result.Code})
			continue
		}

		m.playlist.AddTrack(title)
		added++
		zlog.Debug().Msgf("track added: title=%q", title)
	}
	return added, rejected, nil
}

// Play starts playback from the first track.
func (m *Manager) Play() error {
	return m.do(m.playlist.PlayFirst)
}

// Skip drops the current track and plays the next one.
func (m *Manager) Skip() error {
	return m.do(m.playlist.Skip)
}

// List announces the playlist contents.
func (m *Manager) List() error {
	return m.do(m.playlist.ListTracks)
}

// Shuffle shuffles the playlist and restarts playback.
func (m *Manager) Shuffle() error {
	return m.do(m.playlist.ShuffleAndPlay)
}

func (m *Manager) do(op func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrSessionClosed
	}
	op()
	return nil
}

// Status returns a snapshot of the session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{
		ID:     m.id,
		Name:   m.playlist.Name(),
		State:  StateIdle,
		Tracks: m.playlist.Tracks(),
	}
	if current, ok := m.playlist.CurrentTrack(); ok {
		st.State = StatePlaying
		st.CurrentTrack = current
	}
	if m.closed {
		st.State = StateClosed
	}
	if m.notification != nil {
		st.Notifications = m.notification.SequenceNo()
	}
	return st
}

// Exec runs a single script command.
func (m *Manager) Exec(ctx context.Context, command string) error {
	command = strings.TrimSpace(command)
	verb, arg, hasArg := strings.Cut(command, ":")
	verb = strings.ToLower(strings.TrimSpace(verb))

	if verb == "add" {
		title := strings.TrimSpace(arg)
		if !hasArg || title == "" {
			return errors.Wrapf(ErrUnknownCommand, "%q: missing title", command)
		}
		_, rejected, err := m.AddTracks(ctx, []string{title})
		if err != nil {
			return err
		}
		if len(rejected) > 0 {
			zlog.Warn().Msgf("add skipped: title=%q code=%s", title, rejected[0].Code)
		}
		return nil
	}
	if hasArg {
		return errors.Wrapf(ErrUnknownCommand, "%q", command)
	}

	switch verb {
	case "play":
		return m.Play()
	case "skip":
		return m.Skip()
	case "list":
		return m.List()
	case "shuffle":
		return m.Shuffle()
	default:
		return errors.Wrapf(ErrUnknownCommand, "%q", command)
	}
}

// RunScript executes commands in order, stopping at the first failure.
func (m *Manager) RunScript(ctx context.Context, commands []string) error {
	for i, command := range commands {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "script aborted")
		}
		zlog.Debug().Msgf("exec command %d: %s", i+1, command)
		if err := m.Exec(ctx, command); err != nil {
			return errors.Wrapf(err, "command %d", i+1)
		}
	}
	return nil
}

// Close closes the session. Further operations return ErrSessionClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true
	zlog.Info().Msgf("session closed: id=%s", m.id)
}
