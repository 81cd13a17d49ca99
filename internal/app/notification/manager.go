// Package notification provides the notification manager for broadcasting playlist events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/mixtape/internal/domain/playlist"
)

// DefaultSendTimeout bounds a single stream send.
const DefaultSendTimeout = 500 * time.Millisecond

// ErrSendTimeout is reported when a stream does not accept a notification in time.
var ErrSendTimeout = errors.New("notification send timed out")

// Notification is a rendered playlist event.
type Notification struct {
	SequenceNo uint64
	Event      playlist.Event
	Lines      []string // Human readable messages, in order
	At         time.Time
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(*Notification) error
}

// delivery is one queued notification and the result of sending it.
type delivery struct {
	notification *Notification
	result       chan error
}

// subscription represents a subscriber's subscription.
// A single worker goroutine drains queue, so a stream sees sends in order.
type subscription struct {
	id       string
	stream   Stream
	queue    chan *delivery
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newSubscription(id string, stream Stream) *subscription {
	s := &subscription{
		id:     id,
		stream: stream,
		queue:  make(chan *delivery, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.quit:
			return
		case d := <-s.queue:
			select {
			case <-s.quit:
				return
			default:
			}
			d.result <- s.stream.Send(d.notification)
		}
	}
}

func (s *subscription) enqueue(n *Notification) *delivery {
	d := &delivery{notification: n, result: make(chan error, 1)}
	select {
	case s.queue <- d:
	case <-s.quit:
		d.result <- nil
	}
	return d
}

// wait blocks until d was sent, the subscription stopped or ctx expired.
func (s *subscription) wait(ctx context.Context, d *delivery) error {
	select {
	case err := <-d.result:
		return err
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ErrSendTimeout
	}
}

// stop ends the worker once its in-flight send returns. Queued notifications are dropped.
func (s *subscription) stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
	})
}

// Manager manages notification subscriptions and broadcasting.
// It implements playlist.Notifier.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription
	order         []string
	sequenceNo    uint64
	sequenceNoMu  sync.Mutex
	broadcastMu   sync.Mutex

	messages    *Messages
	sendTimeout time.Duration
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithSendTimeout sets the per-stream send timeout. Zero disables the timeout.
func WithSendTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.sendTimeout = d
	}
}

// WithClock sets the clock used to stamp notifications.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a new notification manager rendering events with messages.
func NewManager(messages *Messages, opts ...Option) *Manager {
	if messages == nil {
		messages = DefaultMessages()
	}
	m := &Manager{
		subscriptions: make(map[string]*subscription),
		messages:      messages,
		sendTimeout:   DefaultSendTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = newSubscription(id, stream)
	m.order = append(m.order, id)
	return id
}

// Unsubscribe removes a subscription and stops its worker.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(subscriptionID)
}

func (m *Manager) removeLocked(subscriptionID string) {
	sub, ok := m.subscriptions[subscriptionID]
	if !ok {
		return
	}
	sub.stop()
	delete(m.subscriptions, subscriptionID)
	for i, id := range m.order {
		if id == subscriptionID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Notify renders the event and broadcasts it to all subscribers.
// Send failures are logged, never returned.
func (m *Manager) Notify(event playlist.Event) {
	n := &Notification{
		Event: event,
		Lines: m.messages.Render(event),
		At:    m.now(),
	}
	if err := m.Broadcast(n); err != nil {
		zlog.Warn().Err(err).Str("event", event.Type.String()).Msg("notification delivery failed")
	}
}

// Broadcast stamps the notification with the next sequence number and queues it
// to all subscribers, which send in parallel. It returns once every send completed
// or timed out. A subscription that times out is removed, so it never receives
// a later notification ahead of the late one.
func (m *Manager) Broadcast(notification *Notification) error {
	m.broadcastMu.Lock()
	defer m.broadcastMu.Unlock()

	m.sequenceNoMu.Lock()
	m.sequenceNo++
	notification.SequenceNo = m.sequenceNo
	m.sequenceNoMu.Unlock()

	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.order))
	for _, id := range m.order {
		subs = append(subs, m.subscriptions[id])
	}
	m.mu.RUnlock()

	ctx := context.Background()
	if m.sendTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.sendTimeout)
		defer cancel()
	}

	pending := make([]*delivery, len(subs))
	for i, sub := range subs {
		pending[i] = sub.enqueue(notification)
	}

	var combined error
	for i, sub := range subs {
		err := sub.wait(ctx, pending[i])
		if err == nil {
			continue
		}
		if errors.Is(err, ErrSendTimeout) {
			m.Unsubscribe(sub.id)
			zlog.Warn().Str("subscription", sub.id).Uint64("seq", notification.SequenceNo).
				Msg("removed subscription after send timeout")
		}
		combined = errors.CombineErrors(combined, errors.Wrapf(err, "subscription %s", sub.id))
	}
	return combined
}

// SequenceNo returns the sequence number of the last broadcast notification.
func (m *Manager) SequenceNo() uint64 {
	m.sequenceNoMu.Lock()
	defer m.sequenceNoMu.Unlock()
	return m.sequenceNo
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close removes all subscriptions and stops their workers.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sub := range m.subscriptions {
		sub.stop()
	}
	m.subscriptions = make(map[string]*subscription)
	m.order = nil
}
