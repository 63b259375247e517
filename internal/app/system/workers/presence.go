// internal/app/system/workers/presence.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/consultancy/internal/app/system/realtime"
	"github.com/dalemusser/consultancy/internal/app/system/signals"
	"go.uber.org/zap"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a PresenceSweeper.
type Option func(*PresenceSweeper)

// WithClock replaces the wall clock used for expiry timers.
func WithClock(c Clock) Option {
	return func(w *PresenceSweeper) { w.clock = c }
}

// PresenceSweeper publishes signal changes that happen by expiry rather
// than by a client write: a typing indicator timing out, or a visitor
// whose heartbeats stopped.
//
// Every live signal written through the tracker gets a timer that fires
// when its TTL runs out, so the clearing event goes out on time to anyone
// watching the session, admin inbox subscribers included. The periodic
// Sweep re-reads sessions with per-session subscribers to catch writes
// made by other instances, and prunes expired entries from the store.
type PresenceSweeper struct {
	hub      *realtime.Hub
	tracker  *signals.Tracker
	log      *zap.Logger
	interval time.Duration
	clock    Clock
	stopCh   chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	last    map[string]signals.Snapshot
	timers  map[timerKey]Timer
	stopped bool
}

type timerKey struct {
	sessionID string
	role      signals.Role
	kind      string
}

// NewPresenceSweeper creates the worker and subscribes it to the tracker's
// writes. interval <= 0 uses the tracker's poll interval.
func NewPresenceSweeper(hub *realtime.Hub, tracker *signals.Tracker, logger *zap.Logger, interval time.Duration, opts ...Option) *PresenceSweeper {
	if interval <= 0 {
		interval = tracker.Config().PollEvery
	}
	w := &PresenceSweeper{
		hub:      hub,
		tracker:  tracker,
		log:      logger,
		interval: interval,
		clock:    realClock{},
		stopCh:   make(chan struct{}),
		last:     make(map[string]signals.Snapshot),
		timers:   make(map[timerKey]Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	tracker.OnChange(w.schedule)
	return w
}

// Start begins the background sweep loop.
func (w *PresenceSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("presence sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop, cancels pending expiry timers and waits
// for the loop to finish.
func (w *PresenceSweeper) Stop() {
	close(w.stopCh)
	w.mu.Lock()
	w.stopped = true
	for k, t := range w.timers {
		t.Stop()
		delete(w.timers, k)
	}
	w.mu.Unlock()
	w.wg.Wait()
	w.log.Info("presence sweeper stopped")
}

func (w *PresenceSweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), w.interval)
			w.Sweep(ctx)
			cancel()
		}
	}
}

// Pending returns the number of expiry timers waiting to fire.
func (w *PresenceSweeper) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.timers)
}

// schedule arms, re-arms or cancels the expiry timer for one signal.
func (w *PresenceSweeper) schedule(c signals.Change) {
	key := timerKey{sessionID: c.SessionID, role: c.Role, kind: c.Kind}

	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[key]; ok {
		t.Stop()
		delete(w.timers, key)
	}
	if w.stopped || !c.Active {
		return
	}
	var t Timer
	t = w.clock.AfterFunc(c.TTL, func() {
		w.mu.Lock()
		if w.timers[key] == t {
			delete(w.timers, key)
		}
		w.mu.Unlock()
		w.expire(key)
	})
	w.timers[key] = t
}

// expire publishes the cleared state for key if the signal really lapsed
// and no sweep has already reported it.
func (w *PresenceSweeper) expire(key timerKey) {
	if !w.hub.HasSubscribers(key.sessionID) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	var ev realtime.Event
	switch key.kind {
	case signals.KindTyping:
		ts, err := w.tracker.Typing(ctx, key.sessionID, key.role)
		if err != nil {
			w.log.Warn("typing expiry: read failed", zap.String("session_id", key.sessionID), zap.Error(err))
			return
		}
		if ts.IsTyping || !w.settle(key.sessionID, func(s *signals.Snapshot) bool {
			if !s.Typing[key.role].IsTyping {
				return false
			}
			s.Typing[key.role] = ts
			return true
		}) {
			return
		}
		ev = realtime.Event{Kind: realtime.KindTyping, SessionID: key.sessionID, Data: ts}
	case signals.KindPresence:
		ps, err := w.tracker.Presence(ctx, key.sessionID, key.role)
		if err != nil {
			w.log.Warn("presence expiry: read failed", zap.String("session_id", key.sessionID), zap.Error(err))
			return
		}
		if ps.Online || !w.settle(key.sessionID, func(s *signals.Snapshot) bool {
			if !s.Presence[key.role].Online {
				return false
			}
			s.Presence[key.role] = ps
			return true
		}) {
			return
		}
		ev = realtime.Event{Kind: realtime.KindPresence, SessionID: key.sessionID, Data: ps}
	default:
		return
	}
	w.hub.Publish(ev)
}

// settle applies update to the sweep baseline of sessionID and reports
// whether the caller should publish. A session without a baseline always
// publishes; one whose baseline already shows the cleared state does not.
func (w *PresenceSweeper) settle(sessionID string, update func(*signals.Snapshot) bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, ok := w.last[sessionID]
	if !ok {
		return true
	}
	next := signals.Snapshot{
		Typing:   make(map[signals.Role]signals.TypingState, len(prev.Typing)),
		Presence: make(map[signals.Role]signals.PresenceState, len(prev.Presence)),
	}
	for r, v := range prev.Typing {
		next.Typing[r] = v
	}
	for r, v := range prev.Presence {
		next.Presence[r] = v
	}
	if !update(&next) {
		return false
	}
	w.last[sessionID] = next
	return true
}

// Sweep checks every session with a per-session subscriber once, prunes
// expired signal entries, and returns how many events it published.
func (w *PresenceSweeper) Sweep(ctx context.Context) int {
	if n := w.tracker.Prune(); n > 0 {
		w.log.Debug("pruned expired chat signals", zap.Int("count", n))
	}

	active := w.hub.ActiveSessions()
	seen := make(map[string]struct{}, len(active))
	published := 0

	for _, sid := range active {
		seen[sid] = struct{}{}
		snap, err := w.tracker.Snapshot(ctx, sid)
		if err != nil {
			w.log.Warn("presence sweep: snapshot failed", zap.String("session_id", sid), zap.Error(err))
			continue
		}

		w.mu.Lock()
		prev, hadPrev := w.last[sid]
		w.last[sid] = snap
		w.mu.Unlock()
		if !hadPrev {
			continue
		}

		for _, role := range signals.Roles {
			if prev.Typing[role].IsTyping && !snap.Typing[role].IsTyping {
				w.hub.Publish(realtime.Event{Kind: realtime.KindTyping, SessionID: sid, Data: snap.Typing[role]})
				published++
			}
			if prev.Presence[role].Online && !snap.Presence[role].Online {
				w.hub.Publish(realtime.Event{Kind: realtime.KindPresence, SessionID: sid, Data: snap.Presence[role]})
				published++
			}
		}
	}

	w.mu.Lock()
	for sid := range w.last {
		if _, ok := seen[sid]; !ok {
			delete(w.last, sid)
		}
	}
	w.mu.Unlock()
	return published
}
