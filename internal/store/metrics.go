package store

import "github.com/tyleshq/tyles/internal/model"

// GoalProgress is the state of one goal period. Progress is a
// percentage and deliberately unclamped; display layers cap it at 100.
type GoalProgress struct {
	Current  float64
	Target   float64
	Progress float64
}

// inRange reports whether a calendar-date string falls within the
// inclusive bounds. Dates are fixed-width ISO strings, so plain string
// comparison orders them correctly; empty bounds are open.
func inRange(date, from, to string) bool {
	if from != "" && date < from {
		return false
	}
	if to != "" && date > to {
		return false
	}
	return true
}

// TotalEarnings sums loaded earning amounts within the optional
// inclusive date bounds.
func (s *Store) TotalEarnings(from, to string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, e := range s.earnings {
		if inRange(e.Date, from, to) {
			total += e.Amount
		}
	}
	return total
}

// TotalExpenses sums loaded expense amounts within the optional
// inclusive date bounds.
func (s *Store) TotalExpenses(from, to string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, e := range s.expenses {
		if inRange(e.Date, from, to) {
			total += e.Amount
		}
	}
	return total
}

// TaxRate returns the user's estimated tax rate, or the default when no
// user is loaded or the user has not set one.
func (s *Store) TaxRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.TaxRate()
}

// AvailableBalance is total earnings minus total expenses minus the tax
// set-aside. The set-aside is computed on gross total earnings, not on
// net income; that is the product's established behavior.
func (s *Store) AvailableBalance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var earnings, expenses float64
	for _, e := range s.earnings {
		earnings += e.Amount
	}
	for _, e := range s.expenses {
		expenses += e.Amount
	}
	return earnings - expenses - earnings*s.user.TaxRate()
}

// GoalProgress reports progress against the newest active goal of the
// given type. With no such goal it returns the zero value. Earnings are
// summed from the period start with no upper bound.
func (s *Store) GoalProgress(goalType model.GoalType) GoalProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var goal *model.Goal
	for i := range s.goals {
		if s.goals[i].GoalType == goalType && s.goals[i].IsActive {
			goal = &s.goals[i]
			break
		}
	}
	if goal == nil {
		return GoalProgress{}
	}

	start := goalType.PeriodStart(s.now())
	var current float64
	for _, e := range s.earnings {
		if e.Date >= start {
			current += e.Amount
		}
	}

	progress := 0.0
	if goal.TargetAmount > 0 {
		progress = current / goal.TargetAmount * 100
	}

	return GoalProgress{
		Current:  current,
		Target:   goal.TargetAmount,
		Progress: progress,
	}
}
