package ingest

import (
	"context"
	"time"
)

// MockFetcher is a mock implementation of TransactionFetcher for testing.
type MockFetcher struct {
	// FetchPayoutsFn can be set by tests to control behavior
	FetchPayoutsFn func(ctx context.Context, startDate, endDate time.Time) ([]Payout, error)

	// Call tracking
	FetchPayoutsCalls []FetchPayoutsCall
}

// FetchPayoutsCall records the parameters of a FetchPayouts call.
type FetchPayoutsCall struct {
	StartDate time.Time
	EndDate   time.Time
}

// NewMockFetcher creates a new mock payout fetcher.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

// FetchPayouts implements TransactionFetcher.
func (m *MockFetcher) FetchPayouts(ctx context.Context, startDate, endDate time.Time) ([]Payout, error) {
	m.FetchPayoutsCalls = append(m.FetchPayoutsCalls, FetchPayoutsCall{
		StartDate: startDate,
		EndDate:   endDate,
	})

	if m.FetchPayoutsFn != nil {
		return m.FetchPayoutsFn(ctx, startDate, endDate)
	}
	return []Payout{}, nil
}

// Ensure MockFetcher implements the TransactionFetcher interface.
var _ TransactionFetcher = (*MockFetcher)(nil)
