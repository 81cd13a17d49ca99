package notification

import (
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ConsoleStream writes notification lines as plain text.
type ConsoleStream struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleStream creates a stream writing to w.
func NewConsoleStream(w io.Writer) *ConsoleStream {
	return &ConsoleStream{w: w}
}

// Send writes one line per message.
func (s *ConsoleStream) Send(n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, line := range n.Lines {
		if _, err := io.WriteString(s.w, line+"\n"); err != nil {
			return errors.Wrap(err, "failed to write notification")
		}
	}
	return nil
}

// LogStream writes notifications to a zerolog logger.
type LogStream struct {
	logger zerolog.Logger
}

// NewLogStream creates a stream logging to logger.
func NewLogStream(logger zerolog.Logger) *LogStream {
	return &LogStream{logger: logger}
}

// Send logs one info entry per message.
func (s *LogStream) Send(n *Notification) error {
	for _, line := range n.Lines {
		s.logger.Info().
			Uint64("seq", n.SequenceNo).
			Str("event", n.Event.Type.String()).
			Str("playlist", n.Event.Playlist).
			Msg(line)
	}
	return nil
}
