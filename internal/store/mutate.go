package store

import (
	"context"

	"github.com/tyleshq/tyles/internal/model"
)

// applyWrite records a mutation outcome. Failures are stored in the
// resource's status and returned; successes clear the status and apply
// the local change, unless the generation moved (sign-out mid-flight),
// in which case the remote write stands but the local copy is not
// touched.
func (s *Store) applyWrite(r Resource, op string, gen uint64, err error, apply func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.states[r]
	if err != nil {
		werr := &WriteError{Resource: r, Op: op, Err: err}
		if st.generation == gen {
			st.err = werr
		}
		s.logger.Warn("write failed", "resource", r, "op", op, "error", err)
		return werr
	}

	if st.generation != gen {
		s.logger.Debug("discarding stale write result", "resource", r, "op", op)
		return nil
	}

	st.err = nil
	apply()
	return nil
}

// generation reads a resource's current token for a mutation dispatch.
func (s *Store) generation(r Resource) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[r].generation
}

// AddEarning inserts an earning remotely and prepends the returned row.
// No payload validation happens here; entry surfaces own that.
func (s *Store) AddEarning(ctx context.Context, earning model.Earning) (*model.Earning, error) {
	gen := s.generation(ResourceEarnings)

	created, err := s.gateway.CreateEarning(ctx, earning)
	return created, s.applyWrite(ResourceEarnings, "add", gen, err, func() {
		s.earnings = append([]model.Earning{*created}, s.earnings...)
	})
}

// UpdateEarning updates an earning remotely and replaces the matching row.
func (s *Store) UpdateEarning(ctx context.Context, id string, patch model.EarningPatch) (*model.Earning, error) {
	gen := s.generation(ResourceEarnings)

	updated, err := s.gateway.UpdateEarning(ctx, id, patch)
	return updated, s.applyWrite(ResourceEarnings, "update", gen, err, func() {
		for i := range s.earnings {
			if s.earnings[i].ID == id {
				s.earnings[i] = *updated
				break
			}
		}
	})
}

// DeleteEarning deletes an earning remotely and drops the matching row.
// An id absent from the collection is not an error; the remote delete is
// still issued.
func (s *Store) DeleteEarning(ctx context.Context, id string) error {
	gen := s.generation(ResourceEarnings)

	err := s.gateway.DeleteEarning(ctx, id)
	return s.applyWrite(ResourceEarnings, "delete", gen, err, func() {
		s.earnings = removeByID(s.earnings, id, func(e model.Earning) string { return e.ID })
	})
}

// AddExpense inserts an expense remotely and prepends the returned row.
func (s *Store) AddExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	gen := s.generation(ResourceExpenses)

	created, err := s.gateway.CreateExpense(ctx, expense)
	return created, s.applyWrite(ResourceExpenses, "add", gen, err, func() {
		s.expenses = append([]model.Expense{*created}, s.expenses...)
	})
}

// UpdateExpense updates an expense remotely and replaces the matching row.
func (s *Store) UpdateExpense(ctx context.Context, id string, patch model.ExpensePatch) (*model.Expense, error) {
	gen := s.generation(ResourceExpenses)

	updated, err := s.gateway.UpdateExpense(ctx, id, patch)
	return updated, s.applyWrite(ResourceExpenses, "update", gen, err, func() {
		for i := range s.expenses {
			if s.expenses[i].ID == id {
				s.expenses[i] = *updated
				break
			}
		}
	})
}

// DeleteExpense deletes an expense remotely and drops the matching row.
func (s *Store) DeleteExpense(ctx context.Context, id string) error {
	gen := s.generation(ResourceExpenses)

	err := s.gateway.DeleteExpense(ctx, id)
	return s.applyWrite(ResourceExpenses, "delete", gen, err, func() {
		s.expenses = removeByID(s.expenses, id, func(e model.Expense) string { return e.ID })
	})
}

// AddGoal inserts a goal remotely and prepends the returned row.
func (s *Store) AddGoal(ctx context.Context, goal model.Goal) (*model.Goal, error) {
	gen := s.generation(ResourceGoals)

	created, err := s.gateway.CreateGoal(ctx, goal)
	return created, s.applyWrite(ResourceGoals, "add", gen, err, func() {
		s.goals = append([]model.Goal{*created}, s.goals...)
	})
}

// UpdateGoal updates a goal remotely and replaces the matching row.
func (s *Store) UpdateGoal(ctx context.Context, id string, patch model.GoalPatch) (*model.Goal, error) {
	gen := s.generation(ResourceGoals)

	updated, err := s.gateway.UpdateGoal(ctx, id, patch)
	return updated, s.applyWrite(ResourceGoals, "update", gen, err, func() {
		for i := range s.goals {
			if s.goals[i].ID == id {
				s.goals[i] = *updated
				break
			}
		}
	})
}

// DeleteGoal deletes a goal remotely and drops the matching row.
func (s *Store) DeleteGoal(ctx context.Context, id string) error {
	gen := s.generation(ResourceGoals)

	err := s.gateway.DeleteGoal(ctx, id)
	return s.applyWrite(ResourceGoals, "delete", gen, err, func() {
		s.goals = removeByID(s.goals, id, func(g model.Goal) string { return g.ID })
	})
}

// MarkNotificationRead flags a notification remotely and locally.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	gen := s.generation(ResourceNotifications)

	err := s.gateway.MarkNotificationRead(ctx, id)
	return s.applyWrite(ResourceNotifications, "update", gen, err, func() {
		for i := range s.notifications {
			if s.notifications[i].ID == id {
				s.notifications[i].IsRead = true
				break
			}
		}
	})
}

func removeByID[T any](items []T, id string, key func(T) string) []T {
	out := items[:0]
	for _, item := range items {
		if key(item) != id {
			out = append(out, item)
		}
	}
	return out
}
