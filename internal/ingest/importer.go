package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// DefaultLookback bounds the first import of an account that has never
// synced.
const DefaultLookback = 30 * 24 * time.Hour

// Importer records earnings for a user's plaid-connected accounts.
type Importer struct {
	gateway service.Gateway
	fetcher TransactionFetcher
	logger  *slog.Logger
	now     func() time.Time
}

// ImportResult summarizes one import run.
type ImportResult struct {
	AccountsSynced  int
	AccountsFailed  int
	EarningsCreated int
	PayoutsSkipped  int
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithImporterClock overrides the time source.
func WithImporterClock(now func() time.Time) ImporterOption {
	return func(i *Importer) { i.now = now }
}

// NewImporter creates an importer over the given gateway and fetcher.
func NewImporter(gateway service.Gateway, fetcher TransactionFetcher, opts ...ImporterOption) *Importer {
	i := &Importer{
		gateway: gateway,
		fetcher: fetcher,
		logger:  slog.Default().With("component", "ingest"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Run imports payouts for every active plaid account of one user.
// Per-account failures are recorded on the account row and do not stop
// the run; the returned error covers only the account listing itself.
func (i *Importer) Run(ctx context.Context, userID string) (*ImportResult, error) {
	accounts, err := i.gateway.ListConnectedAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connected accounts: %w", err)
	}

	seen, err := i.knownTransactionIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	for _, account := range accounts {
		if !account.IsActive || account.ConnectionType != model.ConnectionPlaid {
			continue
		}

		created, skipped, syncErr := i.syncAccount(ctx, userID, account, seen)
		result.EarningsCreated += created
		result.PayoutsSkipped += skipped

		now := i.now().UTC()
		errMsg := ""
		if syncErr != nil {
			errMsg = syncErr.Error()
			result.AccountsFailed++
			i.logger.Warn("account sync failed", "account", account.ID, "error", syncErr)
		} else {
			result.AccountsSynced++
		}
		if err := i.gateway.UpdateAccountSync(ctx, account.ID, now, errMsg); err != nil {
			i.logger.Warn("failed to record sync state", "account", account.ID, "error", err)
		}
	}

	i.logger.Info("import finished",
		"synced", result.AccountsSynced,
		"failed", result.AccountsFailed,
		"created", result.EarningsCreated,
		"skipped", result.PayoutsSkipped)
	return result, nil
}

func (i *Importer) syncAccount(ctx context.Context, userID string, account model.ConnectedAccount, seen map[string]bool) (created, skipped int, err error) {
	end := i.now()
	start := end.Add(-DefaultLookback)
	if account.LastSync != nil && account.LastSync.After(start) {
		start = *account.LastSync
	}

	payouts, err := i.fetcher.FetchPayouts(ctx, start, end)
	if err != nil {
		return 0, 0, err
	}

	for _, payout := range payouts {
		if payout.ExternalID != "" && seen[payout.ExternalID] {
			skipped++
			continue
		}

		_, err := i.gateway.CreateEarning(ctx, model.Earning{
			UserID:        userID,
			PlatformID:    account.PlatformID,
			Amount:        payout.Amount,
			GrossAmount:   payout.Amount,
			Date:          model.FormatDate(payout.Date),
			TransactionID: payout.ExternalID,
			Description:   payout.Description,
		})
		if err != nil {
			return created, skipped, fmt.Errorf("failed to record payout %s: %w", payout.ExternalID, err)
		}
		if payout.ExternalID != "" {
			seen[payout.ExternalID] = true
		}
		created++
	}
	return created, skipped, nil
}

// knownTransactionIDs indexes already-imported payouts so reruns are
// idempotent.
func (i *Importer) knownTransactionIDs(ctx context.Context, userID string) (map[string]bool, error) {
	earnings, err := i.gateway.ListEarnings(ctx, userID, service.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to list earnings: %w", err)
	}

	seen := make(map[string]bool, len(earnings))
	for _, e := range earnings {
		if e.TransactionID != "" {
			seen[e.TransactionID] = true
		}
	}
	return seen, nil
}
