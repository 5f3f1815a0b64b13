package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tyleshq/tyles/internal/identity"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/store"
)

// DefaultIdleTimeout is how long a session survives without requests.
const DefaultIdleTimeout = 30 * time.Minute

// Manager keeps one live session per authenticated user for the HTTP
// surface. Sessions are created on first request, touched on every
// request, and torn down on logout or after the idle timeout.
type Manager struct {
	gateway service.Gateway
	logger  *slog.Logger
	now     func() time.Time
	idle    time.Duration

	mu       sync.Mutex
	sessions map[string]*managedSession
}

type managedSession struct {
	session  *Session
	lastSeen time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithIdleTimeout overrides the idle eviction window.
func WithIdleTimeout(d time.Duration) ManagerOption {
	return func(m *Manager) { m.idle = d }
}

// WithManagerClock overrides the time source used for idle tracking.
func WithManagerClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a session manager backed by the given gateway.
func NewManager(gateway service.Gateway, opts ...ManagerOption) *Manager {
	m := &Manager{
		gateway:  gateway,
		logger:   slog.Default().With("component", "session-manager"),
		now:      time.Now,
		idle:     DefaultIdleTimeout,
		sessions: make(map[string]*managedSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get returns the session for an identity, creating and populating it
// on first use. Creation injects the identity event synchronously, so
// the returned session already holds the loaded collections (or their
// recorded fetch errors).
func (m *Manager) Get(ctx context.Context, id *identity.Identity) *Session {
	m.mu.Lock()
	ms, ok := m.sessions[id.UID]
	if ok {
		ms.lastSeen = m.now()
		m.mu.Unlock()
		return ms.session
	}

	st := store.New(m.gateway)
	sess := New(st, WithLogger(m.logger.With("uid", id.UID)))
	ms = &managedSession{session: sess, lastSeen: m.now()}
	m.sessions[id.UID] = ms
	m.mu.Unlock()

	if err := st.FetchPlatforms(ctx); err != nil {
		m.logger.Warn("platform catalog fetch failed", "error", err)
	}
	sess.HandleEvent(ctx, identity.Event{Identity: id})
	return sess
}

// Drop tears down a user's session: injects a sign-out event (which
// clears the store synchronously) and forgets the session.
func (m *Manager) Drop(uid string) {
	m.mu.Lock()
	ms, ok := m.sessions[uid]
	if ok {
		delete(m.sessions, uid)
	}
	m.mu.Unlock()

	if ok {
		ms.session.HandleEvent(context.Background(), identity.Event{})
	}
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Run evicts idle sessions until the context is cancelled. Intended to
// be started once alongside the HTTP server.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	var expired []*managedSession
	for uid, ms := range m.sessions {
		if ms.lastSeen.Before(cutoff) {
			expired = append(expired, ms)
			delete(m.sessions, uid)
		}
	}
	m.mu.Unlock()

	for _, ms := range expired {
		ms.session.HandleEvent(context.Background(), identity.Event{})
	}
	if len(expired) > 0 {
		m.logger.Info("evicted idle sessions", "count", len(expired))
	}
}
