// internal/app/system/realtime/hub.go
package realtime

import (
	"sync"
	"time"

	"github.com/dalemusser/consultancy/internal/app/system/metrics"
	"go.uber.org/zap"
)

// Event kinds carried on a session channel.
const (
	KindMessage  = "message"
	KindTyping   = "typing"
	KindPresence = "presence"
	KindSession  = "session"
)

// Event is one realtime notification for a chat session.
type Event struct {
	Kind      string    `json:"kind"`
	SessionID string    `json:"session_id"`
	Data      any       `json:"data,omitempty"`
	At        time.Time `json:"at"`
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Hub fans events out to subscribers in-process. Delivery is at-most-once:
// when a subscriber's buffer is full the event is dropped for that
// subscriber only, and counted.
type Hub struct {
	mu      sync.RWMutex
	bySess  map[string]map[*Subscription]struct{}
	all     map[*Subscription]struct{}
	buffer  int
	log     *zap.Logger
	nowFunc func() time.Time
}

// Subscription receives events for one session, or for every session when
// created with SubscribeAll.
type Subscription struct {
	hub       *Hub
	sessionID string // empty for all-sessions subscribers
	ch        chan Event
	once      sync.Once
}

// NewHub creates a hub. buffer <= 0 uses DefaultBuffer.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		bySess:  make(map[string]map[*Subscription]struct{}),
		all:     make(map[*Subscription]struct{}),
		buffer:  buffer,
		log:     logger,
		nowFunc: time.Now,
	}
}

// Subscribe returns a subscription to events for sessionID.
func (h *Hub) Subscribe(sessionID string) *Subscription {
	sub := &Subscription{hub: h, sessionID: sessionID, ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	set, ok := h.bySess[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.bySess[sessionID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeSubscribers.Inc()
	return sub
}

// SubscribeAll returns a subscription to events for every session (admin inbox).
func (h *Hub) SubscribeAll() *Subscription {
	sub := &Subscription{hub: h, ch: make(chan Event, h.buffer)}
	h.mu.Lock()
	h.all[sub] = struct{}{}
	h.mu.Unlock()
	metrics.RealtimeSubscribers.Inc()
	return sub
}

// Publish delivers ev to the session's subscribers and to all-sessions
// subscribers. It never blocks. A zero At is stamped with the current time.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.nowFunc().UTC()
	}
	metrics.RealtimeEvents.WithLabelValues(ev.Kind).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.bySess[ev.SessionID] {
		h.deliver(sub, ev)
	}
	for sub := range h.all {
		h.deliver(sub, ev)
	}
}

func (h *Hub) deliver(sub *Subscription, ev Event) {
	select {
	case sub.ch <- ev:
	default:
		metrics.RealtimeDropped.WithLabelValues(ev.Kind).Inc()
		h.log.Warn("realtime subscriber too slow; event dropped",
			zap.String("session_id", ev.SessionID),
			zap.String("kind", ev.Kind))
	}
}

// ActiveSessions returns the ids of sessions that have at least one
// per-session subscriber.
func (h *Hub) ActiveSessions() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.bySess))
	for id := range h.bySess {
		ids = append(ids, id)
	}
	return ids
}

// HasSubscribers reports whether anyone is listening to sessionID.
func (h *Hub) HasSubscribers(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.bySess[sessionID]) > 0 || len(h.all) > 0
}

// Events returns the receive channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// SessionID returns the subscribed session id, empty for all-sessions.
func (s *Subscription) SessionID() string {
	return s.sessionID
}

// Close unsubscribes and closes the event channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		if s.sessionID == "" {
			delete(h.all, s)
		} else if set, ok := h.bySess[s.sessionID]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.bySess, s.sessionID)
			}
		}
		close(s.ch)
		h.mu.Unlock()
		metrics.RealtimeSubscribers.Dec()
	})
}
