// Package session binds the aggregation store to identity events and
// derives presentation-ready views: summaries, per-platform and
// per-category groupings, and the recent-activity feed.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tyleshq/tyles/internal/identity"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/store"
)

// Session orchestrates one signed-in user's data lifecycle.
type Session struct {
	store  *store.Store
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// New creates a session around the given store.
func New(st *store.Store, opts ...Option) *Session {
	s := &Session{
		store:  st,
		logger: slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store exposes the underlying aggregation store for mutation calls.
func (s *Session) Store() *store.Store {
	return s.store
}

// Run consumes identity events until the context is cancelled or the
// channel closes. The platform catalog is fetched once up front; it is
// identity-independent.
func (s *Session) Run(ctx context.Context, events <-chan identity.Event) {
	if err := s.store.FetchPlatforms(ctx); err != nil {
		s.logger.Warn("platform catalog fetch failed", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent reacts to one identity change: sign-out clears everything;
// a populated identity loads the user and then, once a user ID is known,
// the per-user collections. Fetch failures are recorded in the store and
// never escalate.
func (s *Session) HandleEvent(ctx context.Context, ev identity.Event) {
	if ev.SignedOut() {
		s.store.ClearAll()
		return
	}

	if err := s.store.FetchUser(ctx, ev.Identity.UID); err != nil {
		return
	}

	// Second stage, gated on the first: per-user fetches need an ID.
	if user := s.store.User(); user != nil && user.ID != "" {
		s.fetchUserData(ctx, user.ID)
	}
}

// Refresh re-runs the per-user fetches when a user is known; otherwise
// it is a no-op.
func (s *Session) Refresh(ctx context.Context) {
	user := s.store.User()
	if user == nil || user.ID == "" {
		return
	}
	s.fetchUserData(ctx, user.ID)
}

// fetchUserData loads the four user-scoped collections concurrently.
// Ordering between them is deliberately unspecified; the store's
// generation tokens handle any overlap with sign-out.
func (s *Session) fetchUserData(ctx context.Context, userID string) {
	fetches := []func() error{
		func() error { return s.store.FetchEarnings(ctx, userID, service.DateRange{}) },
		func() error { return s.store.FetchExpenses(ctx, userID, service.DateRange{}) },
		func() error { return s.store.FetchGoals(ctx, userID) },
		func() error { return s.store.FetchConnectedAccounts(ctx, userID) },
	}

	var wg sync.WaitGroup
	for _, fetch := range fetches {
		wg.Add(1)
		go func(fetch func() error) {
			defer wg.Done()
			_ = fetch()
		}(fetch)
	}
	wg.Wait()
}
