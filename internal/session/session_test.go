package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyleshq/tyles/internal/gateway"
	"github.com/tyleshq/tyles/internal/identity"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/store"
)

func userGateway(uid, userID string) *gateway.MockGateway {
	mock := gateway.NewMockGateway()
	mock.GetUserByAuthUIDFn = func(_ context.Context, gotUID string) (*model.User, error) {
		if gotUID == uid {
			return &model.User{ID: userID, AuthUID: uid, OnboardingCompleted: true}, nil
		}
		return nil, nil
	}
	return mock
}

func TestHandleEvent_SignInTriggersStagedFetches(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	sess := New(store.New(mock))

	sess.HandleEvent(context.Background(), identity.Event{
		Identity: &identity.Identity{UID: "uid-1", Email: "sam@example.com"},
	})

	require.NotNil(t, sess.Store().User())
	assert.Equal(t, 1, mock.Calls("GetUserByAuthUID"))
	assert.Equal(t, 1, mock.Calls("ListEarnings"))
	assert.Equal(t, 1, mock.Calls("ListExpenses"))
	assert.Equal(t, 1, mock.Calls("ListGoals"))
	assert.Equal(t, 1, mock.Calls("ListConnectedAccounts"))

	// Per-user fetches are scoped to the user's row ID, not the auth UID.
	require.Len(t, mock.ListEarningsCalls, 1)
	assert.Equal(t, "u1", mock.ListEarningsCalls[0].UserID)
}

func TestHandleEvent_UnregisteredIdentitySkipsUserFetches(t *testing.T) {
	mock := gateway.NewMockGateway()
	sess := New(store.New(mock))

	sess.HandleEvent(context.Background(), identity.Event{
		Identity: &identity.Identity{UID: "uid-unknown"},
	})

	assert.Nil(t, sess.Store().User())
	assert.NoError(t, sess.Store().Status(store.ResourceUser).Err)
	assert.Zero(t, mock.Calls("ListEarnings"))
	assert.Zero(t, mock.Calls("ListGoals"))
}

func TestHandleEvent_SignOutClearsSynchronously(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		return []model.Earning{{ID: "e1", Amount: 50, Date: "2024-01-15"}}, nil
	}
	sess := New(store.New(mock))
	ctx := context.Background()

	sess.HandleEvent(ctx, identity.Event{Identity: &identity.Identity{UID: "uid-1"}})
	require.Len(t, sess.Store().Earnings(), 1)

	sess.HandleEvent(ctx, identity.Event{})

	assert.Nil(t, sess.Store().User())
	assert.Empty(t, sess.Store().Earnings())
}

func TestRun_FetchesCatalogOnceAndReactsToEvents(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	sess := New(store.New(mock))

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan identity.Event)
	done := make(chan struct{})
	go func() {
		defer close(done)
		sess.Run(ctx, events)
	}()

	events <- identity.Event{Identity: &identity.Identity{UID: "uid-1"}}
	events <- identity.Event{}
	cancel()
	<-done

	assert.Equal(t, 1, mock.Calls("ListPlatforms"))
	assert.Equal(t, 1, mock.Calls("GetUserByAuthUID"))
	assert.Nil(t, sess.Store().User())
}

func TestRefresh_NoopWithoutUser(t *testing.T) {
	mock := gateway.NewMockGateway()
	sess := New(store.New(mock))

	sess.Refresh(context.Background())
	assert.Zero(t, mock.Calls("ListEarnings"))
}

func TestRefresh_RerunsUserFetches(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	sess := New(store.New(mock))
	ctx := context.Background()

	sess.HandleEvent(ctx, identity.Event{Identity: &identity.Identity{UID: "uid-1"}})
	sess.Refresh(ctx)

	assert.Equal(t, 2, mock.Calls("ListEarnings"))
	assert.Equal(t, 2, mock.Calls("ListExpenses"))
	assert.Equal(t, 2, mock.Calls("ListGoals"))
	assert.Equal(t, 2, mock.Calls("ListConnectedAccounts"))
	// Refresh does not refetch the user row.
	assert.Equal(t, 1, mock.Calls("GetUserByAuthUID"))
}

func TestSummary(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		return []model.Earning{
			{ID: "e1", Amount: 45.50, Date: "2024-01-15"},
			{ID: "e2", Amount: 28.75, Date: "2024-01-14"},
		}, nil
	}
	mock.ListExpensesFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Expense, error) {
		return []model.Expense{{ID: "x1", Amount: 35.00, Date: "2024-01-15"}}, nil
	}

	sess := New(store.New(mock))
	sess.HandleEvent(context.Background(), identity.Event{Identity: &identity.Identity{UID: "uid-1"}})

	got := sess.Summary()
	assert.InDelta(t, 74.25, got.TotalEarnings, 1e-9)
	assert.InDelta(t, 35.00, got.TotalExpenses, 1e-9)
	assert.InDelta(t, 20.8125, got.AvailableBalance, 1e-9)
	assert.InDelta(t, 74.25*0.25, got.EstimatedTaxes, 1e-9)
	assert.Equal(t, store.GoalProgress{}, got.DailyGoal)
	assert.True(t, got.HasCompletedOnboarding)
}

func TestSummary_NoUser(t *testing.T) {
	sess := New(store.New(gateway.NewMockGateway()))
	got := sess.Summary()
	assert.False(t, got.HasCompletedOnboarding)
	assert.Zero(t, got.TotalEarnings)
}

func TestEarningsByPlatform(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	hours := 4.5
	trips := 6
	mock.ListPlatformsFn = func(_ context.Context) ([]model.Platform, error) {
		return []model.Platform{{ID: "p1", Name: "Uber", Type: model.PlatformRideshare}}, nil
	}
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		return []model.Earning{
			{ID: "e1", PlatformID: "p1", Amount: 40, HoursWorked: &hours, TripCount: &trips, Date: "2024-01-15"},
			{ID: "e2", PlatformID: "p1", Amount: 20, Date: "2024-01-14"},
			{ID: "e3", PlatformID: "p-gone", Amount: 15, Date: "2024-01-14"},
		}, nil
	}

	st := store.New(mock)
	sess := New(st)
	ctx := context.Background()
	require.NoError(t, st.FetchPlatforms(ctx))
	sess.HandleEvent(ctx, identity.Event{Identity: &identity.Identity{UID: "uid-1"}})

	groups := sess.EarningsByPlatform()
	require.Len(t, groups, 2)

	byID := make(map[string]PlatformSummary)
	for _, g := range groups {
		byID[g.PlatformID] = g
	}

	uber := byID["p1"]
	assert.InDelta(t, 60, uber.TotalEarnings, 1e-9)
	assert.InDelta(t, 4.5, uber.TotalHours, 1e-9)
	assert.Equal(t, 6, uber.TotalTrips)
	require.NotNil(t, uber.Platform)
	assert.Equal(t, "Uber", uber.Platform.Name)

	// A platform missing from the catalog still groups, without a record.
	gone := byID["p-gone"]
	assert.InDelta(t, 15, gone.TotalEarnings, 1e-9)
	assert.Nil(t, gone.Platform)
}

func TestExpensesByCategory(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	mock.ListExpensesFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Expense, error) {
		return []model.Expense{
			{ID: "x1", Category: model.ExpenseFuel, Amount: 30, Date: "2024-01-15"},
			{ID: "x2", Category: model.ExpenseFuel, Amount: 25, Date: "2024-01-14"},
			{ID: "x3", Category: model.ExpenseFood, Amount: 12, Date: "2024-01-14"},
		}, nil
	}

	sess := New(store.New(mock))
	sess.HandleEvent(context.Background(), identity.Event{Identity: &identity.Identity{UID: "uid-1"}})

	groups := sess.ExpensesByCategory()
	require.Len(t, groups, 2)

	byCat := make(map[string]CategorySummary)
	for _, g := range groups {
		byCat[g.Category] = g
	}
	assert.InDelta(t, 55, byCat["fuel"].Total, 1e-9)
	assert.Equal(t, 2, byCat["fuel"].Count)
	assert.InDelta(t, 12, byCat["food"].Total, 1e-9)
	assert.Equal(t, 1, byCat["food"].Count)
}

func TestRecentActivity(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	mock := userGateway("uid-1", "u1")
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		earnings := make([]model.Earning, 5)
		for i := range earnings {
			earnings[i] = model.Earning{
				ID:        "e" + string(rune('1'+i)),
				Amount:    float64(10 * (i + 1)),
				Date:      "2024-01-15",
				Platform:  &model.Platform{Name: "Uber"},
				CreatedAt: base.Add(time.Duration(2*i) * time.Minute),
			}
		}
		return earnings, nil
	}
	mock.ListExpensesFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Expense, error) {
		expenses := make([]model.Expense, 5)
		for i := range expenses {
			expenses[i] = model.Expense{
				ID:        "x" + string(rune('1'+i)),
				Amount:    float64(5 * (i + 1)),
				Category:  model.ExpenseFuel,
				Date:      "2024-01-15",
				CreatedAt: base.Add(time.Duration(2*i+1) * time.Minute),
			}
		}
		return expenses, nil
	}

	sess := New(store.New(mock))
	sess.HandleEvent(context.Background(), identity.Event{Identity: &identity.Identity{UID: "uid-1"}})

	feed := sess.RecentActivity(3)
	require.Len(t, feed, 3)
	for i := 1; i < len(feed); i++ {
		assert.True(t, feed[i-1].CreatedAt.After(feed[i].CreatedAt),
			"feed must be strictly descending by creation time")
	}

	// Newest is the last expense, negated, with the synthesized description.
	assert.Equal(t, "x5", feed[0].ID)
	assert.Equal(t, "expense", feed[0].Type)
	assert.InDelta(t, -25, feed[0].Amount, 1e-9)
	assert.Equal(t, "fuel expense", feed[0].Description)

	assert.Equal(t, "e5", feed[1].ID)
	assert.Equal(t, "earning", feed[1].Type)
	assert.InDelta(t, 50, feed[1].Amount, 1e-9)
	assert.Equal(t, "Earnings from Uber", feed[1].Description)

	// Zero limit falls back to the default of ten.
	assert.Len(t, sess.RecentActivity(0), 10)
}

func TestManager_SessionLifecycle(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	current := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	mgr := NewManager(mock,
		WithIdleTimeout(10*time.Minute),
		WithManagerClock(func() time.Time { return current }),
	)

	ctx := context.Background()
	id := &identity.Identity{UID: "uid-1"}

	sess := mgr.Get(ctx, id)
	require.NotNil(t, sess.Store().User())
	assert.Equal(t, 1, mgr.Len())

	// Second request reuses the session without refetching.
	again := mgr.Get(ctx, id)
	assert.Same(t, sess, again)
	assert.Equal(t, 1, mock.Calls("GetUserByAuthUID"))

	mgr.Drop("uid-1")
	assert.Zero(t, mgr.Len())
	assert.Nil(t, sess.Store().User())
}

func TestManager_IdleEviction(t *testing.T) {
	mock := userGateway("uid-1", "u1")
	current := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	mgr := NewManager(mock,
		WithIdleTimeout(10*time.Minute),
		WithManagerClock(func() time.Time { return current }),
	)

	sess := mgr.Get(context.Background(), &identity.Identity{UID: "uid-1"})
	require.Equal(t, 1, mgr.Len())

	current = current.Add(11 * time.Minute)
	mgr.evictIdle()

	assert.Zero(t, mgr.Len())
	assert.Nil(t, sess.Store().User())
}
