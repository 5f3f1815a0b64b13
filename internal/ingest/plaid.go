package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/service"
)

// PlaidConfig holds Plaid API configuration.
type PlaidConfig struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
}

// Validate ensures all required fields are present.
func (c *PlaidConfig) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	}
	if c.Secret == "" {
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	}
	if c.AccessToken == "" {
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	}
	switch c.Environment {
	case "sandbox", "production":
		return nil
	default:
		return fmt.Errorf("%w: plaid environment must be sandbox or production", common.ErrInvalidConfig)
	}
}

// PlaidClient implements TransactionFetcher against the Plaid API.
type PlaidClient struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   service.RetryOptions
	accessToken string
}

// NewPlaidClient creates a Plaid-backed payout fetcher.
func NewPlaidClient(config PlaidConfig) (*PlaidClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", config.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", config.Secret)
	if config.Environment == "production" {
		configuration.UseEnvironment(plaid.Production)
	} else {
		configuration.UseEnvironment(plaid.Sandbox)
	}

	return &PlaidClient{
		client:      plaid.NewAPIClient(configuration),
		accessToken: config.AccessToken,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts: service.RetryOptions{
			MaxAttempts:  3,
			InitialDelay: 1 * time.Second,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// FetchPayouts pulls transactions in the range and keeps only deposits.
// Plaid reports money entering the account as negative amounts.
func (c *PlaidClient) FetchPayouts(ctx context.Context, startDate, endDate time.Time) ([]Payout, error) {
	if startDate.After(endDate) {
		return nil, fmt.Errorf("start date must be before end date")
	}

	var all []plaid.Transaction
	offset := int32(0)
	const pageSize = int32(500) // Plaid's max page size

	for {
		var page []plaid.Transaction
		retryErr := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(
				c.accessToken,
				startDate.Format("2006-01-02"),
				endDate.Format("2006-01-02"),
			)
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				if plaidErr := extractPlaidError(err); plaidErr != nil {
					if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
						c.logger.Warn("rate limit hit, will retry", "error", plaidErr.ErrorMessage)
						return &common.RetryableError{Err: err, Retryable: true}
					}
					return fmt.Errorf("%w: %s - %s", common.ErrPlaidConnection,
						plaidErr.ErrorCode, plaidErr.ErrorMessage)
				}
				return fmt.Errorf("failed to fetch transactions: %w", err)
			}

			page = resp.GetTransactions()
			return nil
		}, c.retryOpts)
		if retryErr != nil {
			return nil, retryErr
		}

		all = append(all, page...)
		if len(page) < int(pageSize) {
			break
		}
		offset += pageSize
	}

	payouts := make([]Payout, 0, len(all))
	for _, pt := range all {
		if pt.GetAmount() >= 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", pt.GetDate())
		if err != nil {
			c.logger.Warn("skipping transaction with bad date", "id", pt.GetTransactionId())
			continue
		}
		payouts = append(payouts, Payout{
			ExternalID:  pt.GetTransactionId(),
			Amount:      -pt.GetAmount(),
			Date:        date,
			Description: pt.GetName(),
		})
	}

	c.logger.Info("fetched payouts", "transactions", len(all), "payouts", len(payouts))
	return payouts, nil
}

// extractPlaidError pulls the structured error out of a Plaid API error.
func extractPlaidError(err error) *plaid.PlaidError {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return nil
	}
	return &plaidErr
}

// Ensure PlaidClient implements the TransactionFetcher interface.
var _ TransactionFetcher = (*PlaidClient)(nil)
