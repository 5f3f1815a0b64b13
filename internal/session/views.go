package session

import (
	"sort"
	"time"

	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/store"
)

// DefaultActivityLimit caps the recent-activity feed when no limit is
// given.
const DefaultActivityLimit = 10

// Summary is the session-wide dashboard payload.
type Summary struct {
	TotalEarnings          float64
	TotalExpenses          float64
	AvailableBalance       float64
	EstimatedTaxes         float64
	DailyGoal              store.GoalProgress
	WeeklyGoal             store.GoalProgress
	MonthlyGoal            store.GoalProgress
	HasCompletedOnboarding bool
}

// PlatformSummary aggregates earnings for one platform. Platform is nil
// when the catalog has no matching entry.
type PlatformSummary struct {
	Platform      *model.Platform
	PlatformID    string
	TotalEarnings float64
	TotalHours    float64
	TotalTrips    int
}

// CategorySummary aggregates expenses for one category.
type CategorySummary struct {
	Category string
	Total    float64
	Count    int
}

// Activity is one entry of the merged earnings/expenses feed. Expense
// amounts are negative.
type Activity struct {
	CreatedAt   time.Time
	ID          string
	Type        string
	Description string
	Date        string
	Amount      float64
}

// Summary computes the dashboard totals and goal states from current
// store state. Estimated taxes use the gross-earnings basis.
func (s *Session) Summary() Summary {
	totalEarnings := s.store.TotalEarnings("", "")
	user := s.store.User()

	return Summary{
		TotalEarnings:          totalEarnings,
		TotalExpenses:          s.store.TotalExpenses("", ""),
		AvailableBalance:       s.store.AvailableBalance(),
		EstimatedTaxes:         totalEarnings * s.store.TaxRate(),
		DailyGoal:              s.store.GoalProgress(model.GoalDaily),
		WeeklyGoal:             s.store.GoalProgress(model.GoalWeekly),
		MonthlyGoal:            s.store.GoalProgress(model.GoalMonthly),
		HasCompletedOnboarding: user != nil && user.OnboardingCompleted,
	}
}

// EarningsByPlatform groups loaded earnings by platform, summing amount,
// hours and trips. Missing hours and trips count as zero. The result is
// unordered.
func (s *Session) EarningsByPlatform() []PlatformSummary {
	catalog := make(map[string]model.Platform)
	for _, p := range s.store.Platforms() {
		catalog[p.ID] = p
	}

	groups := make(map[string]*PlatformSummary)
	var order []string
	for _, e := range s.store.Earnings() {
		g, ok := groups[e.PlatformID]
		if !ok {
			g = &PlatformSummary{PlatformID: e.PlatformID}
			if p, found := catalog[e.PlatformID]; found {
				platform := p
				g.Platform = &platform
			}
			groups[e.PlatformID] = g
			order = append(order, e.PlatformID)
		}
		g.TotalEarnings += e.Amount
		if e.HoursWorked != nil {
			g.TotalHours += *e.HoursWorked
		}
		if e.TripCount != nil {
			g.TotalTrips += *e.TripCount
		}
	}

	out := make([]PlatformSummary, 0, len(order))
	for _, id := range order {
		out = append(out, *groups[id])
	}
	return out
}

// ExpensesByCategory groups loaded expenses by category with amount sum
// and count. The result is unordered.
func (s *Session) ExpensesByCategory() []CategorySummary {
	groups := make(map[string]*CategorySummary)
	var order []string
	for _, e := range s.store.Expenses() {
		cat := string(e.Category)
		g, ok := groups[cat]
		if !ok {
			g = &CategorySummary{Category: cat}
			groups[cat] = g
			order = append(order, cat)
		}
		g.Total += e.Amount
		g.Count++
	}

	out := make([]CategorySummary, 0, len(order))
	for _, cat := range order {
		out = append(out, *groups[cat])
	}
	return out
}

// RecentActivity merges earnings (positive) and expenses (negative) into
// one feed, stable-sorted descending by creation time, truncated to
// limit (DefaultActivityLimit when limit <= 0). The sort key is
// CreatedAt, not the calendar Date used for range filters.
func (s *Session) RecentActivity(limit int) []Activity {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}

	earnings := s.store.Earnings()
	expenses := s.store.Expenses()
	feed := make([]Activity, 0, len(earnings)+len(expenses))

	for _, e := range earnings {
		desc := e.Description
		if desc == "" {
			name := "Unknown"
			if e.Platform != nil {
				name = e.Platform.Name
			}
			desc = "Earnings from " + name
		}
		feed = append(feed, Activity{
			ID:          e.ID,
			Type:        "earning",
			Amount:      e.Amount,
			Description: desc,
			Date:        e.Date,
			CreatedAt:   e.CreatedAt,
		})
	}

	for _, e := range expenses {
		desc := e.Description
		if desc == "" {
			desc = string(e.Category) + " expense"
		}
		feed = append(feed, Activity{
			ID:          e.ID,
			Type:        "expense",
			Amount:      -e.Amount,
			Description: desc,
			Date:        e.Date,
			CreatedAt:   e.CreatedAt,
		})
	}

	sort.SliceStable(feed, func(i, j int) bool {
		return feed[i].CreatedAt.After(feed[j].CreatedAt)
	})

	if len(feed) > limit {
		feed = feed[:limit]
	}
	return feed
}
