package ingest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyleshq/tyles/internal/ingest"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/testutil"
)

func TestImporter_AgainstDatabase(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := db.SeedUser(model.User{AuthUID: "uid-1", Email: "driver@example.com"})
	platformID := db.PlatformID("Uber")

	db.SeedAccount(model.ConnectedAccount{
		UserID:            user.ID,
		PlatformID:        platformID,
		AccountIdentifier: "acct-1",
		ConnectionType:    model.ConnectionPlaid,
		IsActive:          true,
	})

	fetcher := ingest.NewMockFetcher()
	fetcher.FetchPayoutsFn = func(_ context.Context, _, _ time.Time) ([]ingest.Payout, error) {
		return []ingest.Payout{
			{Date: time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC), ExternalID: "tx-1", Description: "Uber payout", Amount: 120.50},
			{Date: time.Date(2024, time.January, 12, 0, 0, 0, 0, time.UTC), ExternalID: "tx-2", Description: "Uber payout", Amount: 98.25},
		}, nil
	}

	importer := ingest.NewImporter(db.Gateway, fetcher)
	result, err := importer.Run(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AccountsSynced)
	assert.Equal(t, 2, result.EarningsCreated)

	earnings, err := db.Gateway.ListEarnings(context.Background(), user.ID, service.DateRange{})
	require.NoError(t, err)
	require.Len(t, earnings, 2)
	assert.Equal(t, "2024-01-12", earnings[0].Date)
	assert.InDelta(t, 98.25, earnings[0].Amount, 0.001)
	require.NotNil(t, earnings[0].Platform)
	assert.Equal(t, "Uber", earnings[0].Platform.Name)

	accounts, err := db.Gateway.ListConnectedAccounts(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	require.NotNil(t, accounts[0].LastSync)
	assert.Empty(t, accounts[0].SyncError)

	// A second run sees the recorded transaction IDs and skips them.
	result, err = importer.Run(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.EarningsCreated)
	assert.Equal(t, 2, result.PayoutsSkipped)
}
