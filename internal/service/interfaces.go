// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/tyleshq/tyles/internal/model"
)

// DateRange bounds a query to an inclusive calendar-date window.
// Empty bounds are open ends. Dates are model.DateLayout strings, so the
// gateway compares them as strings.
type DateRange struct {
	Start string
	End   string
}

// Gateway is the contract for the remote data store. Every method takes
// a context and returns typed errors; single-row reads that match
// nothing return common.ErrNotFound. List results come back newest
// first except ListPlatforms, which orders by name.
type Gateway interface {
	// User operations
	GetUserByAuthUID(ctx context.Context, authUID string) (*model.User, error)
	CreateUser(ctx context.Context, user model.User) (*model.User, error)
	UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)

	// Platform catalog
	ListPlatforms(ctx context.Context) ([]model.Platform, error)

	// Earning operations; rows carry their joined Platform
	ListEarnings(ctx context.Context, userID string, r DateRange) ([]model.Earning, error)
	CreateEarning(ctx context.Context, earning model.Earning) (*model.Earning, error)
	UpdateEarning(ctx context.Context, id string, patch model.EarningPatch) (*model.Earning, error)
	DeleteEarning(ctx context.Context, id string) error

	// Expense operations
	ListExpenses(ctx context.Context, userID string, r DateRange) ([]model.Expense, error)
	CreateExpense(ctx context.Context, expense model.Expense) (*model.Expense, error)
	UpdateExpense(ctx context.Context, id string, patch model.ExpensePatch) (*model.Expense, error)
	DeleteExpense(ctx context.Context, id string) error

	// Goal operations; only active goals are listed
	ListGoals(ctx context.Context, userID string) ([]model.Goal, error)
	CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error)
	UpdateGoal(ctx context.Context, id string, patch model.GoalPatch) (*model.Goal, error)
	DeleteGoal(ctx context.Context, id string) error

	// Connected account operations; rows carry their joined Platform
	ListConnectedAccounts(ctx context.Context, userID string) ([]model.ConnectedAccount, error)
	CreateConnectedAccount(ctx context.Context, account model.ConnectedAccount) (*model.ConnectedAccount, error)
	UpdateAccountSync(ctx context.Context, id string, lastSync time.Time, syncError string) error

	// Notification operations
	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error

	// Tax withholding operations
	ListTaxWithholdings(ctx context.Context, userID string) ([]model.TaxWithholding, error)

	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
