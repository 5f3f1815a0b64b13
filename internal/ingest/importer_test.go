package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyleshq/tyles/internal/gateway"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

func fixedNow() time.Time {
	return time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
}

func plaidAccount(id string, lastSync *time.Time) model.ConnectedAccount {
	return model.ConnectedAccount{
		ID:             id,
		UserID:         "u1",
		PlatformID:     "p1",
		ConnectionType: model.ConnectionPlaid,
		IsActive:       true,
		LastSync:       lastSync,
	}
}

func TestImporter_RecordsPayoutsAsEarnings(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListConnectedAccountsFn = func(_ context.Context, _ string) ([]model.ConnectedAccount, error) {
		return []model.ConnectedAccount{plaidAccount("a1", nil)}, nil
	}

	var createdEarnings []model.Earning
	mock.CreateEarningFn = func(_ context.Context, e model.Earning) (*model.Earning, error) {
		createdEarnings = append(createdEarnings, e)
		e.ID = "e-new"
		return &e, nil
	}

	fetcher := NewMockFetcher()
	fetcher.FetchPayoutsFn = func(_ context.Context, _, _ time.Time) ([]Payout, error) {
		return []Payout{
			{ExternalID: "tx1", Amount: 82.40, Date: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC), Description: "UBER PAYOUT"},
			{ExternalID: "tx2", Amount: 55.10, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Description: "UBER PAYOUT"},
		}, nil
	}

	imp := NewImporter(mock, fetcher, WithImporterClock(fixedNow))
	result, err := imp.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.AccountsSynced)
	assert.Zero(t, result.AccountsFailed)
	assert.Equal(t, 2, result.EarningsCreated)

	require.Len(t, createdEarnings, 2)
	assert.Equal(t, "p1", createdEarnings[0].PlatformID)
	assert.Equal(t, "tx1", createdEarnings[0].TransactionID)
	assert.Equal(t, "2024-01-14", createdEarnings[0].Date)
	assert.InDelta(t, 82.40, createdEarnings[0].Amount, 1e-9)

	// Sync bookkeeping was written with no error.
	assert.Equal(t, 1, mock.Calls("UpdateAccountSync"))
}

func TestImporter_SkipsAlreadyImportedPayouts(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListConnectedAccountsFn = func(_ context.Context, _ string) ([]model.ConnectedAccount, error) {
		return []model.ConnectedAccount{plaidAccount("a1", nil)}, nil
	}
	mock.ListEarningsFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Earning, error) {
		return []model.Earning{{ID: "e1", TransactionID: "tx1", Amount: 82.40, Date: "2024-01-14"}}, nil
	}

	fetcher := NewMockFetcher()
	fetcher.FetchPayoutsFn = func(_ context.Context, _, _ time.Time) ([]Payout, error) {
		return []Payout{
			{ExternalID: "tx1", Amount: 82.40, Date: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)},
			{ExternalID: "tx3", Amount: 12.00, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		}, nil
	}

	imp := NewImporter(mock, fetcher, WithImporterClock(fixedNow))
	result, err := imp.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.EarningsCreated)
	assert.Equal(t, 1, result.PayoutsSkipped)
}

func TestImporter_SyncWindowStartsAtLastSync(t *testing.T) {
	lastSync := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	mock := gateway.NewMockGateway()
	mock.ListConnectedAccountsFn = func(_ context.Context, _ string) ([]model.ConnectedAccount, error) {
		return []model.ConnectedAccount{plaidAccount("a1", &lastSync)}, nil
	}

	fetcher := NewMockFetcher()
	imp := NewImporter(mock, fetcher, WithImporterClock(fixedNow))
	_, err := imp.Run(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, fetcher.FetchPayoutsCalls, 1)
	assert.True(t, fetcher.FetchPayoutsCalls[0].StartDate.Equal(lastSync))
	assert.True(t, fetcher.FetchPayoutsCalls[0].EndDate.Equal(fixedNow()))
}

func TestImporter_AccountFailureIsRecordedNotFatal(t *testing.T) {
	mock := gateway.NewMockGateway()
	mock.ListConnectedAccountsFn = func(_ context.Context, _ string) ([]model.ConnectedAccount, error) {
		return []model.ConnectedAccount{
			plaidAccount("a1", nil),
			plaidAccount("a2", nil),
		}, nil
	}

	var syncErrors []string
	mock.UpdateAccountSyncFn = func(_ context.Context, _ string, _ time.Time, syncError string) error {
		syncErrors = append(syncErrors, syncError)
		return nil
	}

	fetcher := NewMockFetcher()
	var call int
	fetcher.FetchPayoutsFn = func(_ context.Context, _, _ time.Time) ([]Payout, error) {
		call++
		if call == 1 {
			return nil, errors.New("ITEM_LOGIN_REQUIRED")
		}
		return []Payout{{ExternalID: "tx9", Amount: 30, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)}}, nil
	}

	imp := NewImporter(mock, fetcher, WithImporterClock(fixedNow))
	result, err := imp.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, 1, result.AccountsFailed)
	assert.Equal(t, 1, result.AccountsSynced)
	assert.Equal(t, 1, result.EarningsCreated)
	require.Len(t, syncErrors, 2)
	assert.Contains(t, syncErrors[0], "ITEM_LOGIN_REQUIRED")
	assert.Empty(t, syncErrors[1])
}

func TestImporter_IgnoresManualAndInactiveAccounts(t *testing.T) {
	mock := gateway.NewMockGateway()
	inactive := plaidAccount("a1", nil)
	inactive.IsActive = false
	manual := plaidAccount("a2", nil)
	manual.ConnectionType = model.ConnectionManual
	mock.ListConnectedAccountsFn = func(_ context.Context, _ string) ([]model.ConnectedAccount, error) {
		return []model.ConnectedAccount{inactive, manual}, nil
	}

	fetcher := NewMockFetcher()
	imp := NewImporter(mock, fetcher, WithImporterClock(fixedNow))
	result, err := imp.Run(context.Background(), "u1")
	require.NoError(t, err)

	assert.Zero(t, result.AccountsSynced)
	assert.Empty(t, fetcher.FetchPayoutsCalls)
}
