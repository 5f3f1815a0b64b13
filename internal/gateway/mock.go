package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// MockGateway is a mock implementation of service.Gateway for testing.
// Tests set the Fn fields they care about; unset methods return empty
// results. The session fetches resources concurrently, so call tracking
// is guarded by a mutex.
type MockGateway struct {
	// Functions that can be set by tests to control behavior
	GetUserByAuthUIDFn       func(ctx context.Context, authUID string) (*model.User, error)
	CreateUserFn             func(ctx context.Context, user model.User) (*model.User, error)
	UpdateUserFn             func(ctx context.Context, id string, patch model.UserPatch) (*model.User, error)
	ListPlatformsFn          func(ctx context.Context) ([]model.Platform, error)
	ListEarningsFn           func(ctx context.Context, userID string, r service.DateRange) ([]model.Earning, error)
	CreateEarningFn          func(ctx context.Context, earning model.Earning) (*model.Earning, error)
	UpdateEarningFn          func(ctx context.Context, id string, patch model.EarningPatch) (*model.Earning, error)
	DeleteEarningFn          func(ctx context.Context, id string) error
	ListExpensesFn           func(ctx context.Context, userID string, r service.DateRange) ([]model.Expense, error)
	CreateExpenseFn          func(ctx context.Context, expense model.Expense) (*model.Expense, error)
	UpdateExpenseFn          func(ctx context.Context, id string, patch model.ExpensePatch) (*model.Expense, error)
	DeleteExpenseFn          func(ctx context.Context, id string) error
	ListGoalsFn              func(ctx context.Context, userID string) ([]model.Goal, error)
	CreateGoalFn             func(ctx context.Context, goal model.Goal) (*model.Goal, error)
	UpdateGoalFn             func(ctx context.Context, id string, patch model.GoalPatch) (*model.Goal, error)
	DeleteGoalFn             func(ctx context.Context, id string) error
	ListConnectedAccountsFn  func(ctx context.Context, userID string) ([]model.ConnectedAccount, error)
	CreateConnectedAccountFn func(ctx context.Context, account model.ConnectedAccount) (*model.ConnectedAccount, error)
	UpdateAccountSyncFn      func(ctx context.Context, id string, lastSync time.Time, syncError string) error
	ListNotificationsFn      func(ctx context.Context, userID string) ([]model.Notification, error)
	CreateNotificationFn     func(ctx context.Context, n model.Notification) (*model.Notification, error)
	MarkNotificationReadFn   func(ctx context.Context, id string) error
	ListTaxWithholdingsFn    func(ctx context.Context, userID string) ([]model.TaxWithholding, error)

	// Call tracking
	mu    sync.Mutex
	calls map[string]int

	ListEarningsCalls []ListCall
	ListExpensesCalls []ListCall
}

// ListCall records the parameters of a list call.
type ListCall struct {
	UserID string
	Range  service.DateRange
}

// NewMockGateway creates a new mock gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		calls: make(map[string]int),
	}
}

// Calls returns how many times the named method was invoked.
func (m *MockGateway) Calls(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[method]
}

// Reset clears all call tracking.
func (m *MockGateway) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
	m.ListEarningsCalls = nil
	m.ListExpensesCalls = nil
}

func (m *MockGateway) record(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[method]++
}

// GetUserByAuthUID implements service.Gateway.
func (m *MockGateway) GetUserByAuthUID(ctx context.Context, authUID string) (*model.User, error) {
	m.record("GetUserByAuthUID")
	if m.GetUserByAuthUIDFn != nil {
		return m.GetUserByAuthUIDFn(ctx, authUID)
	}
	return nil, common.ErrNotFound
}

// CreateUser implements service.Gateway.
func (m *MockGateway) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	m.record("CreateUser")
	if m.CreateUserFn != nil {
		return m.CreateUserFn(ctx, user)
	}
	return &user, nil
}

// UpdateUser implements service.Gateway.
func (m *MockGateway) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	m.record("UpdateUser")
	if m.UpdateUserFn != nil {
		return m.UpdateUserFn(ctx, id, patch)
	}
	return &model.User{ID: id}, nil
}

// ListPlatforms implements service.Gateway.
func (m *MockGateway) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	m.record("ListPlatforms")
	if m.ListPlatformsFn != nil {
		return m.ListPlatformsFn(ctx)
	}
	return []model.Platform{}, nil
}

// ListEarnings implements service.Gateway.
func (m *MockGateway) ListEarnings(ctx context.Context, userID string, r service.DateRange) ([]model.Earning, error) {
	m.mu.Lock()
	m.calls["ListEarnings"]++
	m.ListEarningsCalls = append(m.ListEarningsCalls, ListCall{UserID: userID, Range: r})
	m.mu.Unlock()

	if m.ListEarningsFn != nil {
		return m.ListEarningsFn(ctx, userID, r)
	}
	return []model.Earning{}, nil
}

// CreateEarning implements service.Gateway.
func (m *MockGateway) CreateEarning(ctx context.Context, earning model.Earning) (*model.Earning, error) {
	m.record("CreateEarning")
	if m.CreateEarningFn != nil {
		return m.CreateEarningFn(ctx, earning)
	}
	return &earning, nil
}

// UpdateEarning implements service.Gateway.
func (m *MockGateway) UpdateEarning(ctx context.Context, id string, patch model.EarningPatch) (*model.Earning, error) {
	m.record("UpdateEarning")
	if m.UpdateEarningFn != nil {
		return m.UpdateEarningFn(ctx, id, patch)
	}
	return &model.Earning{ID: id}, nil
}

// DeleteEarning implements service.Gateway.
func (m *MockGateway) DeleteEarning(ctx context.Context, id string) error {
	m.record("DeleteEarning")
	if m.DeleteEarningFn != nil {
		return m.DeleteEarningFn(ctx, id)
	}
	return nil
}

// ListExpenses implements service.Gateway.
func (m *MockGateway) ListExpenses(ctx context.Context, userID string, r service.DateRange) ([]model.Expense, error) {
	m.mu.Lock()
	m.calls["ListExpenses"]++
	m.ListExpensesCalls = append(m.ListExpensesCalls, ListCall{UserID: userID, Range: r})
	m.mu.Unlock()

	if m.ListExpensesFn != nil {
		return m.ListExpensesFn(ctx, userID, r)
	}
	return []model.Expense{}, nil
}

// CreateExpense implements service.Gateway.
func (m *MockGateway) CreateExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	m.record("CreateExpense")
	if m.CreateExpenseFn != nil {
		return m.CreateExpenseFn(ctx, expense)
	}
	return &expense, nil
}

// UpdateExpense implements service.Gateway.
func (m *MockGateway) UpdateExpense(ctx context.Context, id string, patch model.ExpensePatch) (*model.Expense, error) {
	m.record("UpdateExpense")
	if m.UpdateExpenseFn != nil {
		return m.UpdateExpenseFn(ctx, id, patch)
	}
	return &model.Expense{ID: id}, nil
}

// DeleteExpense implements service.Gateway.
func (m *MockGateway) DeleteExpense(ctx context.Context, id string) error {
	m.record("DeleteExpense")
	if m.DeleteExpenseFn != nil {
		return m.DeleteExpenseFn(ctx, id)
	}
	return nil
}

// ListGoals implements service.Gateway.
func (m *MockGateway) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	m.record("ListGoals")
	if m.ListGoalsFn != nil {
		return m.ListGoalsFn(ctx, userID)
	}
	return []model.Goal{}, nil
}

// CreateGoal implements service.Gateway.
func (m *MockGateway) CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error) {
	m.record("CreateGoal")
	if m.CreateGoalFn != nil {
		return m.CreateGoalFn(ctx, goal)
	}
	return &goal, nil
}

// UpdateGoal implements service.Gateway.
func (m *MockGateway) UpdateGoal(ctx context.Context, id string, patch model.GoalPatch) (*model.Goal, error) {
	m.record("UpdateGoal")
	if m.UpdateGoalFn != nil {
		return m.UpdateGoalFn(ctx, id, patch)
	}
	return &model.Goal{ID: id}, nil
}

// DeleteGoal implements service.Gateway.
func (m *MockGateway) DeleteGoal(ctx context.Context, id string) error {
	m.record("DeleteGoal")
	if m.DeleteGoalFn != nil {
		return m.DeleteGoalFn(ctx, id)
	}
	return nil
}

// ListConnectedAccounts implements service.Gateway.
func (m *MockGateway) ListConnectedAccounts(ctx context.Context, userID string) ([]model.ConnectedAccount, error) {
	m.record("ListConnectedAccounts")
	if m.ListConnectedAccountsFn != nil {
		return m.ListConnectedAccountsFn(ctx, userID)
	}
	return []model.ConnectedAccount{}, nil
}

// CreateConnectedAccount implements service.Gateway.
func (m *MockGateway) CreateConnectedAccount(ctx context.Context, account model.ConnectedAccount) (*model.ConnectedAccount, error) {
	m.record("CreateConnectedAccount")
	if m.CreateConnectedAccountFn != nil {
		return m.CreateConnectedAccountFn(ctx, account)
	}
	return &account, nil
}

// UpdateAccountSync implements service.Gateway.
func (m *MockGateway) UpdateAccountSync(ctx context.Context, id string, lastSync time.Time, syncError string) error {
	m.record("UpdateAccountSync")
	if m.UpdateAccountSyncFn != nil {
		return m.UpdateAccountSyncFn(ctx, id, lastSync, syncError)
	}
	return nil
}

// ListNotifications implements service.Gateway.
func (m *MockGateway) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	m.record("ListNotifications")
	if m.ListNotificationsFn != nil {
		return m.ListNotificationsFn(ctx, userID)
	}
	return []model.Notification{}, nil
}

// CreateNotification implements service.Gateway.
func (m *MockGateway) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	m.record("CreateNotification")
	if m.CreateNotificationFn != nil {
		return m.CreateNotificationFn(ctx, n)
	}
	return &n, nil
}

// MarkNotificationRead implements service.Gateway.
func (m *MockGateway) MarkNotificationRead(ctx context.Context, id string) error {
	m.record("MarkNotificationRead")
	if m.MarkNotificationReadFn != nil {
		return m.MarkNotificationReadFn(ctx, id)
	}
	return nil
}

// ListTaxWithholdings implements service.Gateway.
func (m *MockGateway) ListTaxWithholdings(ctx context.Context, userID string) ([]model.TaxWithholding, error) {
	m.record("ListTaxWithholdings")
	if m.ListTaxWithholdingsFn != nil {
		return m.ListTaxWithholdingsFn(ctx, userID)
	}
	return []model.TaxWithholding{}, nil
}

// Close implements service.Gateway.
func (m *MockGateway) Close() error {
	m.record("Close")
	return nil
}

// Ensure MockGateway implements the Gateway interface.
var _ service.Gateway = (*MockGateway)(nil)
