package model

import "time"

// GoalType is the recurring period a goal targets.
type GoalType string

const (
	// GoalDaily resets every calendar day.
	GoalDaily GoalType = "daily"
	// GoalWeekly resets every week, starting Sunday.
	GoalWeekly GoalType = "weekly"
	// GoalMonthly resets on the first of every month.
	GoalMonthly GoalType = "monthly"
)

// PeriodStart returns the calendar date the goal's current period began,
// relative to now. Daily periods start today, weekly periods on the most
// recent Sunday, monthly periods on the first of the current month.
// Unrecognized types fall back to today.
func (g GoalType) PeriodStart(now time.Time) string {
	switch g {
	case GoalDaily:
		return FormatDate(now)
	case GoalWeekly:
		return FormatDate(now.AddDate(0, 0, -int(now.Weekday())))
	case GoalMonthly:
		return FormatDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
	default:
		return FormatDate(now)
	}
}

// Goal is a target earnings amount for a recurring period. A user may
// have at most one active goal per type; only active goals are fetched.
type Goal struct {
	CreatedAt    time.Time
	ID           string
	UserID       string
	GoalType     GoalType
	TargetAmount float64
	IsActive     bool
}

// GoalPatch carries a partial goal update. Nil fields are left untouched.
type GoalPatch struct {
	GoalType     *GoalType
	TargetAmount *float64
	IsActive     *bool
}
