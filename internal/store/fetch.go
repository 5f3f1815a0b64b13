package store

import (
	"context"
	"errors"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// beginFetch marks a resource loading and returns the generation token
// the dispatched fetch is bound to. A later ClearAll or newer dispatch
// invalidates the token.
func (s *Store) beginFetch(r Resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[r]
	st.generation++
	st.loading = true
	return st.generation
}

// finishFetch applies a fetch outcome if the token is still current.
// Stale outcomes are dropped entirely: no data, no error, no flag change.
func (s *Store) finishFetch(r Resource, gen uint64, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.states[r]
	if st.generation != gen {
		s.logger.Debug("discarding stale fetch", "resource", r)
		return nil
	}

	st.loading = false
	if err != nil {
		ferr := &FetchError{Resource: r, Err: err}
		st.err = ferr
		s.logger.Warn("fetch failed", "resource", r, "error", err)
		return ferr
	}

	st.err = nil
	apply()
	return nil
}

// FetchUser loads the user owning the given external identity. An absent
// user is a valid signed-in-but-unregistered state, not an error.
func (s *Store) FetchUser(ctx context.Context, authUID string) error {
	gen := s.beginFetch(ResourceUser)

	user, err := s.gateway.GetUserByAuthUID(ctx, authUID)
	if errors.Is(err, common.ErrNotFound) {
		user, err = nil, nil
	}

	return s.finishFetch(ResourceUser, gen, err, func() {
		s.user = user
	})
}

// FetchPlatforms loads the shared platform catalog, ordered by name.
func (s *Store) FetchPlatforms(ctx context.Context) error {
	gen := s.beginFetch(ResourcePlatforms)

	platforms, err := s.gateway.ListPlatforms(ctx)

	return s.finishFetch(ResourcePlatforms, gen, err, func() {
		s.platforms = platforms
	})
}

// FetchEarnings loads a user's earnings, optionally bounded by inclusive
// calendar-date strings, newest first.
func (s *Store) FetchEarnings(ctx context.Context, userID string, r service.DateRange) error {
	gen := s.beginFetch(ResourceEarnings)

	earnings, err := s.gateway.ListEarnings(ctx, userID, r)

	return s.finishFetch(ResourceEarnings, gen, err, func() {
		s.earnings = earnings
	})
}

// FetchExpenses loads a user's expenses, optionally bounded, newest first.
func (s *Store) FetchExpenses(ctx context.Context, userID string, r service.DateRange) error {
	gen := s.beginFetch(ResourceExpenses)

	expenses, err := s.gateway.ListExpenses(ctx, userID, r)

	return s.finishFetch(ResourceExpenses, gen, err, func() {
		s.expenses = expenses
	})
}

// FetchGoals loads a user's active goals.
func (s *Store) FetchGoals(ctx context.Context, userID string) error {
	gen := s.beginFetch(ResourceGoals)

	goals, err := s.gateway.ListGoals(ctx, userID)

	return s.finishFetch(ResourceGoals, gen, err, func() {
		s.goals = goals
	})
}

// FetchConnectedAccounts loads a user's platform account links.
func (s *Store) FetchConnectedAccounts(ctx context.Context, userID string) error {
	gen := s.beginFetch(ResourceAccounts)

	accounts, err := s.gateway.ListConnectedAccounts(ctx, userID)

	return s.finishFetch(ResourceAccounts, gen, err, func() {
		s.accounts = accounts
	})
}

// FetchNotifications loads a user's notifications, newest first.
func (s *Store) FetchNotifications(ctx context.Context, userID string) error {
	gen := s.beginFetch(ResourceNotifications)

	notifications, err := s.gateway.ListNotifications(ctx, userID)

	return s.finishFetch(ResourceNotifications, gen, err, func() {
		s.notifications = notifications
	})
}

// UpdateUser applies a profile patch remotely and, on success, replaces
// the cached user.
func (s *Store) UpdateUser(ctx context.Context, patch model.UserPatch) (*model.User, error) {
	s.mu.RLock()
	var userID string
	if s.user != nil {
		userID = s.user.ID
	}
	gen := s.states[ResourceUser].generation
	s.mu.RUnlock()

	if userID == "" {
		return nil, &WriteError{Resource: ResourceUser, Op: "update", Err: common.ErrNotFound}
	}

	updated, err := s.gateway.UpdateUser(ctx, userID, patch)
	return updated, s.applyWrite(ResourceUser, "update", gen, err, func() {
		s.user = updated
	})
}
