// internal/app/system/signals/tracker.go
package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Role identifies which side of a chat a signal belongs to.
type Role string

const (
	RoleVisitor Role = "visitor"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleVisitor || r == RoleAdmin
}

// Roles lists both chat roles.
var Roles = []Role{RoleVisitor, RoleAdmin}

// Config holds the typing and presence timing rules.
type Config struct {
	TypingTTL      time.Duration // a typing=true signal expires after this without a refresh
	TypingIdle     time.Duration // clients send typing=false after this much idle time
	PresenceTTL    time.Duration // online requires a heartbeat newer than this
	HeartbeatEvery time.Duration // how often clients send a presence heartbeat
	PollEvery      time.Duration // how often watchers re-evaluate state
}

// DefaultConfig returns the standard chat timings.
func DefaultConfig() Config {
	return Config{
		TypingTTL:      3 * time.Second,
		TypingIdle:     1 * time.Second,
		PresenceTTL:    10 * time.Second,
		HeartbeatEvery: 5 * time.Second,
		PollEvery:      3 * time.Second,
	}
}

// TypingState is the current typing indicator for one role in a session.
type TypingState struct {
	Role     Role      `json:"role"`
	Name     string    `json:"name,omitempty"`
	IsTyping bool      `json:"is_typing"`
	At       time.Time `json:"at,omitempty"`
}

// PresenceState is the current presence for one role in a session.
type PresenceState struct {
	Role     Role      `json:"role"`
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen,omitempty"`
}

// Snapshot is typing and presence for both roles of a session.
type Snapshot struct {
	Typing   map[Role]TypingState   `json:"typing"`
	Presence map[Role]PresenceState `json:"presence"`
}

// Tracker records typing and presence signals for chat sessions.
// Expiry is enforced on the server: a typing signal that is never stopped
// still clears after TypingTTL, and a silent client goes offline after
// PresenceTTL.
type Tracker struct {
	store Store
	cfg   Config
	now   func() time.Time

	mu       sync.RWMutex
	watchers []func(Change)
}

// Signal kinds reported in a Change.
const (
	KindTyping   = "typing"
	KindPresence = "presence"
)

// Change describes one successful signal write. Active is true for a
// typing start or an online heartbeat, which stays live for TTL unless
// refreshed; false means the signal was stopped explicitly.
type Change struct {
	SessionID string
	Role      Role
	Kind      string
	Active    bool
	TTL       time.Duration
}

// NewTracker builds a tracker over store. A nil clock uses time.Now.
func NewTracker(store Store, cfg Config, now func() time.Time) *Tracker {
	def := DefaultConfig()
	if cfg.TypingTTL <= 0 {
		cfg.TypingTTL = def.TypingTTL
	}
	if cfg.TypingIdle <= 0 {
		cfg.TypingIdle = def.TypingIdle
	}
	if cfg.PresenceTTL <= 0 {
		cfg.PresenceTTL = def.PresenceTTL
	}
	if cfg.HeartbeatEvery <= 0 {
		cfg.HeartbeatEvery = def.HeartbeatEvery
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = def.PollEvery
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: store, cfg: cfg, now: now}
}

// Config returns the effective timings.
func (t *Tracker) Config() Config {
	return t.cfg
}

// OnChange registers fn to run after every signal write made through this
// tracker. fn runs on the writer's goroutine and must not block.
func (t *Tracker) OnChange(fn func(Change)) {
	t.mu.Lock()
	t.watchers = append(t.watchers, fn)
	t.mu.Unlock()
}

func (t *Tracker) notify(c Change) {
	t.mu.RLock()
	watchers := t.watchers
	t.mu.RUnlock()
	for _, fn := range watchers {
		fn(c)
	}
}

// Prune drops expired entries from stores that keep them until read.
// It returns how many were removed.
func (t *Tracker) Prune() int {
	if p, ok := t.store.(Pruner); ok {
		return p.Prune()
	}
	return 0
}

func typingKey(sessionID string, role Role) string {
	return fmt.Sprintf("chat:typing:%s:%s", sessionID, role)
}

func presenceKey(sessionID string, role Role) string {
	return fmt.Sprintf("chat:presence:%s:%s", sessionID, role)
}

type typingRecord struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
}

type presenceRecord struct {
	Online   bool      `json:"online"`
	LastSeen time.Time `json:"last_seen"`
}

// SetTyping records that role started or stopped typing.
func (t *Tracker) SetTyping(ctx context.Context, sessionID string, role Role, name string, typing bool) (TypingState, error) {
	if !role.Valid() {
		return TypingState{}, fmt.Errorf("signals: invalid role %q", role)
	}
	key := typingKey(sessionID, role)
	now := t.now().UTC()
	if !typing {
		if err := t.store.Delete(ctx, key); err != nil {
			return TypingState{}, err
		}
		t.notify(Change{SessionID: sessionID, Role: role, Kind: KindTyping})
		return TypingState{Role: role, Name: name, IsTyping: false, At: now}, nil
	}
	b, err := json.Marshal(typingRecord{Name: name, At: now})
	if err != nil {
		return TypingState{}, err
	}
	if err := t.store.Set(ctx, key, b, t.cfg.TypingTTL); err != nil {
		return TypingState{}, err
	}
	t.notify(Change{SessionID: sessionID, Role: role, Kind: KindTyping, Active: true, TTL: t.cfg.TypingTTL})
	return TypingState{Role: role, Name: name, IsTyping: true, At: now}, nil
}

// Typing returns the typing state for role. A record older than TypingTTL
// reads as not typing even if the backing store has not expired it yet.
func (t *Tracker) Typing(ctx context.Context, sessionID string, role Role) (TypingState, error) {
	b, ok, err := t.store.Get(ctx, typingKey(sessionID, role))
	if err != nil || !ok {
		return TypingState{Role: role}, err
	}
	var rec typingRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return TypingState{Role: role}, fmt.Errorf("signals: decode typing: %w", err)
	}
	if t.now().Sub(rec.At) >= t.cfg.TypingTTL {
		return TypingState{Role: role, Name: rec.Name}, nil
	}
	return TypingState{Role: role, Name: rec.Name, IsTyping: true, At: rec.At}, nil
}

// Heartbeat records a presence update. online=false is written immediately
// (page hidden or unloading).
func (t *Tracker) Heartbeat(ctx context.Context, sessionID string, role Role, online bool) (PresenceState, error) {
	if !role.Valid() {
		return PresenceState{}, fmt.Errorf("signals: invalid role %q", role)
	}
	now := t.now().UTC()
	b, err := json.Marshal(presenceRecord{Online: online, LastSeen: now})
	if err != nil {
		return PresenceState{}, err
	}
	// Keep offline records a little longer than the window so last_seen
	// stays readable after the session goes quiet.
	ttl := t.cfg.PresenceTTL
	if !online {
		ttl = 2 * t.cfg.PresenceTTL
	}
	if err := t.store.Set(ctx, presenceKey(sessionID, role), b, ttl); err != nil {
		return PresenceState{}, err
	}
	t.notify(Change{SessionID: sessionID, Role: role, Kind: KindPresence, Active: online, TTL: t.cfg.PresenceTTL})
	return PresenceState{Role: role, Online: online, LastSeen: now}, nil
}

// Presence reports role as online iff its last heartbeat said online and
// arrived less than PresenceTTL ago.
func (t *Tracker) Presence(ctx context.Context, sessionID string, role Role) (PresenceState, error) {
	b, ok, err := t.store.Get(ctx, presenceKey(sessionID, role))
	if err != nil || !ok {
		return PresenceState{Role: role}, err
	}
	var rec presenceRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return PresenceState{Role: role}, fmt.Errorf("signals: decode presence: %w", err)
	}
	online := rec.Online && t.now().Sub(rec.LastSeen) < t.cfg.PresenceTTL
	return PresenceState{Role: role, Online: online, LastSeen: rec.LastSeen}, nil
}

// Snapshot reads typing and presence for both roles.
func (t *Tracker) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	snap := Snapshot{
		Typing:   make(map[Role]TypingState, len(Roles)),
		Presence: make(map[Role]PresenceState, len(Roles)),
	}
	for _, role := range Roles {
		ts, err := t.Typing(ctx, sessionID, role)
		if err != nil {
			return snap, err
		}
		snap.Typing[role] = ts
		ps, err := t.Presence(ctx, sessionID, role)
		if err != nil {
			return snap, err
		}
		snap.Presence[role] = ps
	}
	return snap, nil
}

// Clear removes all signals for a session (used when it is deleted).
func (t *Tracker) Clear(ctx context.Context, sessionID string) error {
	for _, role := range Roles {
		if err := t.store.Delete(ctx, typingKey(sessionID, role)); err != nil {
			return err
		}
		if err := t.store.Delete(ctx, presenceKey(sessionID, role)); err != nil {
			return err
		}
	}
	for _, role := range Roles {
		t.notify(Change{SessionID: sessionID, Role: role, Kind: KindTyping})
		t.notify(Change{SessionID: sessionID, Role: role, Kind: KindPresence})
	}
	return nil
}
