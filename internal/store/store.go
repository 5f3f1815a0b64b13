// Package store holds the per-session aggregation state: the signed-in
// user, their financial collections, and the derived metrics the rest of
// the product reads. It is the session's single authority for that state.
//
// The store is constructed per session, never shared as a singleton. All
// state lives behind a sync.RWMutex; fetches are guarded by per-resource
// generation tokens so a response that arrives after sign-out (or after a
// newer fetch was dispatched) is discarded instead of resurrecting stale
// state.
package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// Resource names an independently tracked collection.
type Resource string

const (
	ResourceUser          Resource = "user"
	ResourcePlatforms     Resource = "platforms"
	ResourceEarnings      Resource = "earnings"
	ResourceExpenses      Resource = "expenses"
	ResourceGoals         Resource = "goals"
	ResourceAccounts      Resource = "accounts"
	ResourceNotifications Resource = "notifications"
)

// FetchError records a failed read for one resource. The previous data
// for that resource is retained alongside it.
type FetchError struct {
	Err      error
	Resource Resource
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Resource, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// WriteError records a failed mutation for one resource. It is both
// stored in the resource's status and returned to the caller.
type WriteError struct {
	Err      error
	Resource Resource
	Op       string
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Status is the externally visible loading/error state of one resource.
type Status struct {
	Err     error
	Loading bool
}

// resourceState tracks one collection's fetch lifecycle.
type resourceState struct {
	err        error
	generation uint64
	loading    bool
}

// Store is the session-scoped aggregation of a user's financial state.
type Store struct {
	gateway service.Gateway
	logger  *slog.Logger
	now     func() time.Time

	mu            sync.RWMutex
	user          *model.User
	platforms     []model.Platform
	earnings      []model.Earning
	expenses      []model.Expense
	goals         []model.Goal
	accounts      []model.ConnectedAccount
	notifications []model.Notification
	states        map[Resource]*resourceState
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source. Goal periods are computed from it.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates an empty store backed by the given gateway.
func New(gateway service.Gateway, opts ...Option) *Store {
	s := &Store{
		gateway: gateway,
		logger:  slog.Default().With("component", "store"),
		now:     time.Now,
		states:  make(map[Resource]*resourceState),
	}
	for _, r := range []Resource{
		ResourceUser, ResourcePlatforms, ResourceEarnings, ResourceExpenses,
		ResourceGoals, ResourceAccounts, ResourceNotifications,
	} {
		s.states[r] = &resourceState{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports one resource's loading flag and last error.
func (s *Store) Status(r Resource) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.states[r]
	if !ok {
		return Status{}
	}
	return Status{Loading: st.loading, Err: st.err}
}

// ClearAll synchronously resets every collection and error and bumps all
// generations, so any in-flight fetch resolving afterwards is discarded.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.platforms = nil
	s.earnings = nil
	s.expenses = nil
	s.goals = nil
	s.accounts = nil
	s.notifications = nil
	for _, st := range s.states {
		st.generation++
		st.loading = false
		st.err = nil
	}
}

// User returns the signed-in user, or nil. The returned value is a copy.
func (s *Store) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Platforms returns a copy of the platform catalog.
func (s *Store) Platforms() []model.Platform {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Platform(nil), s.platforms...)
}

// Earnings returns a copy of the loaded earnings, newest first.
func (s *Store) Earnings() []model.Earning {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Earning(nil), s.earnings...)
}

// Expenses returns a copy of the loaded expenses, newest first.
func (s *Store) Expenses() []model.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Expense(nil), s.expenses...)
}

// Goals returns a copy of the loaded active goals.
func (s *Store) Goals() []model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Goal(nil), s.goals...)
}

// ConnectedAccounts returns a copy of the loaded account links.
func (s *Store) ConnectedAccounts() []model.ConnectedAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ConnectedAccount(nil), s.accounts...)
}

// Notifications returns a copy of the loaded notifications.
func (s *Store) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Notification(nil), s.notifications...)
}
