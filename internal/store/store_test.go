package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyleshq/tyles/internal/gateway"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

func fixedClock(s string) func() time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return func() time.Time { return t }
}

func seedEarnings(t *testing.T, s *Store, earnings []model.Earning) {
	t.Helper()
	mock := s.gateway.(*gateway.MockGateway)
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		return earnings, nil
	}
	require.NoError(t, s.FetchEarnings(context.Background(), "u1", service.DateRange{}))
}

func seedExpenses(t *testing.T, s *Store, expenses []model.Expense) {
	t.Helper()
	mock := s.gateway.(*gateway.MockGateway)
	mock.ListExpensesFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Expense, error) {
		return expenses, nil
	}
	require.NoError(t, s.FetchExpenses(context.Background(), "u1", service.DateRange{}))
}

func TestTotals_InclusiveRangeScenario(t *testing.T) {
	s := New(gateway.NewMockGateway())
	seedEarnings(t, s, []model.Earning{
		{ID: "e1", Amount: 45.50, Date: "2024-01-15"},
		{ID: "e2", Amount: 28.75, Date: "2024-01-14"},
	})
	seedExpenses(t, s, []model.Expense{
		{ID: "x1", Amount: 35.00, Date: "2024-01-15"},
	})

	assert.InDelta(t, 74.25, s.TotalEarnings("2024-01-14", "2024-01-15"), 1e-9)
	assert.InDelta(t, 35.00, s.TotalExpenses("2024-01-14", "2024-01-15"), 1e-9)

	// No user loaded, so the default 0.25 rate applies:
	// 74.25 - 35.00 - 74.25*0.25 = 20.8125.
	assert.InDelta(t, 20.8125, s.AvailableBalance(), 1e-9)

	// Bounds are inclusive on both ends.
	assert.InDelta(t, 28.75, s.TotalEarnings("", "2024-01-14"), 1e-9)
	assert.InDelta(t, 45.50, s.TotalEarnings("2024-01-15", ""), 1e-9)
	assert.InDelta(t, 74.25, s.TotalEarnings("", ""), 1e-9)
	assert.Zero(t, s.TotalEarnings("2024-01-16", ""))
}

func TestAvailableBalance_UserRate(t *testing.T) {
	mock := gateway.NewMockGateway()
	rate := 0.30
	mock.GetUserByAuthUIDFn = func(_ context.Context, _ string) (*model.User, error) {
		return &model.User{ID: "u1", EstimatedTaxRate: &rate}, nil
	}

	s := New(mock)
	require.NoError(t, s.FetchUser(context.Background(), "uid-1"))
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 100, Date: "2024-01-15"}})
	seedExpenses(t, s, []model.Expense{{ID: "x1", Amount: 20, Date: "2024-01-15"}})

	assert.InDelta(t, 0.30, s.TaxRate(), 1e-9)
	assert.InDelta(t, 100-20-100*0.30, s.AvailableBalance(), 1e-9)
}

func TestGoalProgress_DailyScenario(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListGoalsFn = func(_ context.Context, _ string) ([]model.Goal, error) {
		return []model.Goal{{ID: "g1", GoalType: model.GoalDaily, TargetAmount: 100, IsActive: true}}, nil
	}

	s := New(mock, WithClock(fixedClock("2024-01-15 16:45:00")))
	require.NoError(t, s.FetchGoals(context.Background(), "u1"))
	seedEarnings(t, s, []model.Earning{
		{ID: "e1", Amount: 45.50, Date: "2024-01-15"},
		{ID: "e2", Amount: 28.75, Date: "2024-01-14"},
	})

	got := s.GoalProgress(model.GoalDaily)
	assert.InDelta(t, 45.50, got.Current, 1e-9)
	assert.InDelta(t, 100, got.Target, 1e-9)
	assert.InDelta(t, 45.5, got.Progress, 1e-9)
}

func TestGoalProgress_PeriodStarts(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListGoalsFn = func(_ context.Context, _ string) ([]model.Goal, error) {
		return []model.Goal{
			{ID: "g1", GoalType: model.GoalDaily, TargetAmount: 100, IsActive: true},
			{ID: "g2", GoalType: model.GoalWeekly, TargetAmount: 500, IsActive: true},
			{ID: "g3", GoalType: model.GoalMonthly, TargetAmount: 2000, IsActive: true},
		}, nil
	}

	// 2024-01-17 is a Wednesday; the week started Sunday 2024-01-14.
	s := New(mock, WithClock(fixedClock("2024-01-17 09:00:00")))
	require.NoError(t, s.FetchGoals(context.Background(), "u1"))
	seedEarnings(t, s, []model.Earning{
		{ID: "e1", Amount: 10, Date: "2024-01-17"},
		{ID: "e2", Amount: 20, Date: "2024-01-15"},
		{ID: "e3", Amount: 40, Date: "2024-01-13"},
		{ID: "e4", Amount: 80, Date: "2023-12-31"},
	})

	assert.InDelta(t, 10, s.GoalProgress(model.GoalDaily).Current, 1e-9)
	assert.InDelta(t, 30, s.GoalProgress(model.GoalWeekly).Current, 1e-9)
	assert.InDelta(t, 70, s.GoalProgress(model.GoalMonthly).Current, 1e-9)
}

func TestGoalProgress_NoActiveGoal(t *testing.T) {
	s := New(gateway.NewMockGateway())
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 50, Date: "2024-01-15"}})

	assert.Equal(t, GoalProgress{}, s.GoalProgress(model.GoalWeekly))
}

func TestGoalProgress_NotClamped(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListGoalsFn = func(_ context.Context, _ string) ([]model.Goal, error) {
		return []model.Goal{{ID: "g1", GoalType: model.GoalDaily, TargetAmount: 50, IsActive: true}}, nil
	}

	s := New(mock, WithClock(fixedClock("2024-01-15 12:00:00")))
	require.NoError(t, s.FetchGoals(context.Background(), "u1"))
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 75, Date: "2024-01-15"}})

	assert.InDelta(t, 150, s.GoalProgress(model.GoalDaily).Progress, 1e-9)
}

func TestFetchUser_AbsentIsNotAnError(t *testing.T) {
	s := New(gateway.NewMockGateway())

	require.NoError(t, s.FetchUser(context.Background(), "unknown-uid"))
	assert.Nil(t, s.User())
	assert.NoError(t, s.Status(ResourceUser).Err)
}

func TestFetch_FailureKeepsPriorData(t *testing.T) {
	mock := gateway.NewMockGateway()
	s := New(mock)
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 50, Date: "2024-01-15"}})

	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		return nil, errors.New("gateway down")
	}

	err := s.FetchEarnings(context.Background(), "u1", service.DateRange{})
	require.Error(t, err)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, ResourceEarnings, ferr.Resource)

	// Last known good state survives the failure.
	require.Len(t, s.Earnings(), 1)
	assert.ErrorAs(t, s.Status(ResourceEarnings).Err, &ferr)

	// A later success clears the recorded error.
	mock.ListEarningsFn = nil
	require.NoError(t, s.FetchEarnings(context.Background(), "u1", service.DateRange{}))
	assert.NoError(t, s.Status(ResourceEarnings).Err)
}

func TestAddEarning_PrependsAndReflectsInTotals(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.CreateEarningFn = func(_ context.Context, e model.Earning) (*model.Earning, error) {
		e.ID = "e-new"
		return &e, nil
	}

	s := New(mock)
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 28.75, Date: "2024-01-14"}})

	created, err := s.AddEarning(context.Background(), model.Earning{
		UserID: "u1", PlatformID: "p1", Amount: 45.50, Date: "2024-01-15",
	})
	require.NoError(t, err)
	assert.Equal(t, "e-new", created.ID)

	earnings := s.Earnings()
	require.Len(t, earnings, 2)
	assert.Equal(t, "e-new", earnings[0].ID)
	assert.InDelta(t, 74.25, s.TotalEarnings("", ""), 1e-9)
}

func TestAddExpense_FailureRecordedAndPropagated(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.CreateExpenseFn = func(_ context.Context, _ model.Expense) (*model.Expense, error) {
		return nil, errors.New("insert rejected")
	}

	s := New(mock)
	_, err := s.AddExpense(context.Background(), model.Expense{UserID: "u1", Amount: 10, Date: "2024-01-15"})
	require.Error(t, err)

	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ResourceExpenses, werr.Resource)
	assert.Equal(t, "add", werr.Op)

	// Recorded in status too, and no local mutation happened.
	assert.ErrorAs(t, s.Status(ResourceExpenses).Err, &werr)
	assert.Empty(t, s.Expenses())
}

func TestUpdateGoal_ReplacesInPlace(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListGoalsFn = func(_ context.Context, _ string) ([]model.Goal, error) {
		return []model.Goal{
			{ID: "g1", GoalType: model.GoalDaily, TargetAmount: 100, IsActive: true},
			{ID: "g2", GoalType: model.GoalWeekly, TargetAmount: 500, IsActive: true},
		}, nil
	}
	mock.UpdateGoalFn = func(_ context.Context, id string, patch model.GoalPatch) (*model.Goal, error) {
		return &model.Goal{ID: id, GoalType: model.GoalDaily, TargetAmount: *patch.TargetAmount, IsActive: true}, nil
	}

	s := New(mock)
	require.NoError(t, s.FetchGoals(context.Background(), "u1"))

	target := 150.0
	_, err := s.UpdateGoal(context.Background(), "g1", model.GoalPatch{TargetAmount: &target})
	require.NoError(t, err)

	goals := s.Goals()
	require.Len(t, goals, 2)
	assert.InDelta(t, 150, goals[0].TargetAmount, 1e-9)
	assert.Equal(t, "g2", goals[1].ID)
}

func TestDeleteExpense_RemovesExactlyOne(t *testing.T) {
	mock := gateway.NewMockGateway()
	s := New(mock)
	seedExpenses(t, s, []model.Expense{
		{ID: "x1", Amount: 10, Date: "2024-01-15"},
		{ID: "x2", Amount: 20, Date: "2024-01-14"},
		{ID: "x3", Amount: 30, Date: "2024-01-13"},
	})

	require.NoError(t, s.DeleteExpense(context.Background(), "x2"))

	expenses := s.Expenses()
	require.Len(t, expenses, 2)
	assert.Equal(t, "x1", expenses[0].ID)
	assert.Equal(t, "x3", expenses[1].ID)

	// Absent id: the remote call is still made, nothing changes locally.
	require.NoError(t, s.DeleteExpense(context.Background(), "x-missing"))
	assert.Len(t, s.Expenses(), 2)
	assert.Equal(t, 2, mock.Calls("DeleteExpense"))
}

func TestClearAll_Synchronous(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.GetUserByAuthUIDFn = func(_ context.Context, _ string) (*model.User, error) {
		return &model.User{ID: "u1"}, nil
	}
	mock.ListGoalsFn = func(_ context.Context, _ string) ([]model.Goal, error) {
		return []model.Goal{{ID: "g1", GoalType: model.GoalDaily, TargetAmount: 100, IsActive: true}}, nil
	}
	mock.ListExpensesFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Expense, error) {
		return nil, errors.New("boom")
	}

	s := New(mock)
	ctx := context.Background()
	require.NoError(t, s.FetchUser(ctx, "uid-1"))
	require.NoError(t, s.FetchGoals(ctx, "u1"))
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 50, Date: "2024-01-15"}})
	_ = s.FetchExpenses(ctx, "u1", service.DateRange{})
	require.Error(t, s.Status(ResourceExpenses).Err)

	s.ClearAll()

	assert.Nil(t, s.User())
	assert.Empty(t, s.Earnings())
	assert.Empty(t, s.Expenses())
	assert.Empty(t, s.Goals())
	assert.Empty(t, s.ConnectedAccounts())
	assert.Empty(t, s.Platforms())
	assert.Empty(t, s.Notifications())
	for _, r := range []Resource{
		ResourceUser, ResourcePlatforms, ResourceEarnings, ResourceExpenses,
		ResourceGoals, ResourceAccounts, ResourceNotifications,
	} {
		st := s.Status(r)
		assert.NoError(t, st.Err, "resource %s", r)
		assert.False(t, st.Loading, "resource %s", r)
	}
}

func TestFetch_ResolvedAfterClearAllIsDiscarded(t *testing.T) {
	mock := gateway.NewMockGateway()
	started := make(chan struct{})
	release := make(chan struct{})
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		close(started)
		<-release
		return []model.Earning{{ID: "stale", Amount: 999, Date: "2024-01-15"}}, nil
	}

	s := New(mock)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.FetchEarnings(context.Background(), "u1", service.DateRange{})
	}()

	<-started
	s.ClearAll()
	close(release)
	wg.Wait()

	// The in-flight response must not resurrect cleared state.
	assert.Empty(t, s.Earnings())
	assert.False(t, s.Status(ResourceEarnings).Loading)
}

func TestFetch_NewestDispatchWins(t *testing.T) {
	mock := gateway.NewMockGateway()
	firstStarted := make(chan struct{})
	firstRelease := make(chan struct{})
	var calls int
	var mu sync.Mutex
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(firstStarted)
			<-firstRelease
			return []model.Earning{{ID: "old", Amount: 1, Date: "2024-01-01"}}, nil
		}
		return []model.Earning{{ID: "new", Amount: 2, Date: "2024-01-02"}}, nil
	}

	s := New(mock)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.FetchEarnings(context.Background(), "u1", service.DateRange{})
	}()

	<-firstStarted
	// A second dispatch supersedes the in-flight one.
	require.NoError(t, s.FetchEarnings(context.Background(), "u1", service.DateRange{}))
	close(firstRelease)
	wg.Wait()

	earnings := s.Earnings()
	require.Len(t, earnings, 1)
	assert.Equal(t, "new", earnings[0].ID)
}

func TestAccessors_ReturnCopies(t *testing.T) {
	s := New(gateway.NewMockGateway())
	seedEarnings(t, s, []model.Earning{{ID: "e1", Amount: 50, Date: "2024-01-15"}})

	got := s.Earnings()
	got[0].Amount = 0

	assert.InDelta(t, 50, s.Earnings()[0].Amount, 1e-9)
}
