// Package ingest imports earnings for plaid-connected accounts: it pulls
// payout transactions from the aggregator and records them as earnings,
// keeping each account's sync bookkeeping up to date.
package ingest

import (
	"context"
	"time"
)

// Payout is one deposit observed on a connected bank account.
type Payout struct {
	Date        time.Time
	ExternalID  string
	Description string
	Amount      float64
}

// TransactionFetcher defines the contract for pulling payout data.
// Implementations include the real Plaid client and a mock for testing.
type TransactionFetcher interface {
	// FetchPayouts returns deposits within the date range, oldest first.
	FetchPayouts(ctx context.Context, startDate, endDate time.Time) ([]Payout, error)
}
