package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// RESTConfig holds connection settings for the hosted backend.
type RESTConfig struct {
	// BaseURL is the project REST root, e.g. https://xyz.supabase.co/rest/v1
	BaseURL string
	// APIKey is sent as the apikey header on every request.
	APIKey string
	// ServiceToken is the bearer token. The server deployment uses the
	// service role key; row-level security still applies per user_id filters.
	ServiceToken string
}

// Validate ensures all required fields are present.
func (c *RESTConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: gateway base URL is required", common.ErrMissingConfig)
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: gateway API key is required", common.ErrMissingConfig)
	}
	if c.ServiceToken == "" {
		return fmt.Errorf("%w: gateway service token is required", common.ErrMissingConfig)
	}
	return nil
}

// RESTGateway implements service.Gateway against a PostgREST-style API
// (the hosted relational backend). Filters, ordering and joined-row
// embedding are expressed as query parameters; writes ask the server to
// return the affected representation so callers get server-generated
// fields back.
type RESTGateway struct {
	httpClient *http.Client
	logger     *slog.Logger
	config     RESTConfig
}

// NewRESTGateway creates a gateway client for the hosted backend.
func NewRESTGateway(config RESTConfig) (*RESTGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &RESTGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: slog.Default().With("component", "gateway"),
	}, nil
}

// Close implements service.Gateway; the HTTP client holds no resources.
func (g *RESTGateway) Close() error {
	return nil
}

// Ensure both gateways implement the Gateway interface.
var (
	_ service.Gateway = (*RESTGateway)(nil)
	_ service.Gateway = (*SQLiteGateway)(nil)
)

func (g *RESTGateway) newRequest(ctx context.Context, method, resource string, params url.Values, body any) (*http.Request, error) {
	u := g.config.BaseURL + "/" + resource
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", g.config.APIKey)
	req.Header.Set("Authorization", "Bearer "+g.config.ServiceToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost || method == http.MethodPatch {
		req.Header.Set("Prefer", "return=representation")
	}

	return req, nil
}

// do executes a request and decodes the JSON response into out (when
// out is non-nil). Non-2xx statuses become ErrGatewayStatus errors.
func (g *RESTGateway) do(req *http.Request, out any) error {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode == http.StatusNotFound {
			return common.ErrNotFound
		}
		if resp.StatusCode == http.StatusConflict {
			return fmt.Errorf("%w: %s %s: %s",
				common.ErrDuplicateEntry, req.Method, req.URL.Path, string(body))
		}
		return fmt.Errorf("%w: %s %s: %d: %s",
			common.ErrGatewayStatus, req.Method, req.URL.Path, resp.StatusCode, string(body))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}

// selectOne fetches at most one row and maps an empty result to ErrNotFound.
func selectOne[T any](ctx context.Context, g *RESTGateway, resource string, params url.Values) (*T, error) {
	params.Set("limit", "1")
	req, err := g.newRequest(ctx, http.MethodGet, resource, params, nil)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := g.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return &rows[0], nil
}

func selectMany[T any](ctx context.Context, g *RESTGateway, resource string, params url.Values) ([]T, error) {
	req, err := g.newRequest(ctx, http.MethodGet, resource, params, nil)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := g.do(req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// insertOne posts a row and returns the server's representation of it.
func insertOne[T any](ctx context.Context, g *RESTGateway, resource string, params url.Values, body any) (*T, error) {
	req, err := g.newRequest(ctx, http.MethodPost, resource, params, body)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := g.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: insert returned no representation", common.ErrGatewayStatus)
	}
	return &rows[0], nil
}

// updateByID patches a row by id and returns the updated representation.
func updateByID[T any](ctx context.Context, g *RESTGateway, resource, id string, params url.Values, body map[string]any) (*T, error) {
	params.Set("id", "eq."+id)
	req, err := g.newRequest(ctx, http.MethodPatch, resource, params, body)
	if err != nil {
		return nil, err
	}

	var rows []T
	if err := g.do(req, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, common.ErrNotFound
	}
	return &rows[0], nil
}

func (g *RESTGateway) deleteByID(ctx context.Context, resource, id string) error {
	params := url.Values{}
	params.Set("id", "eq."+id)
	req, err := g.newRequest(ctx, http.MethodDelete, resource, params, nil)
	if err != nil {
		return err
	}
	return g.do(req, nil)
}

// GetUserByAuthUID looks up the user owning an external identity.
func (g *RESTGateway) GetUserByAuthUID(ctx context.Context, authUID string) (*model.User, error) {
	if err := validateString(authUID, "authUID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("auth_uid", "eq."+authUID)

	row, err := selectOne[wireUser](ctx, g, "users", params)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// CreateUser inserts a new user row.
func (g *RESTGateway) CreateUser(ctx context.Context, user model.User) (*model.User, error) {
	if err := validateString(user.AuthUID, "user.AuthUID"); err != nil {
		return nil, err
	}

	body := map[string]any{
		"auth_uid":             user.AuthUID,
		"email":                user.Email,
		"onboarding_completed": user.OnboardingCompleted,
	}
	if user.FullName != "" {
		body["full_name"] = user.FullName
	}
	if user.Phone != "" {
		body["phone"] = user.Phone
	}
	if user.TaxFilingStatus != "" {
		body["tax_filing_status"] = user.TaxFilingStatus
	}
	if user.EstimatedTaxRate != nil {
		body["estimated_tax_rate"] = *user.EstimatedTaxRate
	}

	row, err := insertOne[wireUser](ctx, g, "users", url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateUser applies a partial update.
func (g *RESTGateway) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (*model.User, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	body := map[string]any{}
	if patch.Email != nil {
		body["email"] = *patch.Email
	}
	if patch.FullName != nil {
		body["full_name"] = *patch.FullName
	}
	if patch.Phone != nil {
		body["phone"] = *patch.Phone
	}
	if patch.OnboardingCompleted != nil {
		body["onboarding_completed"] = *patch.OnboardingCompleted
	}
	if patch.TaxFilingStatus != nil {
		body["tax_filing_status"] = *patch.TaxFilingStatus
	}
	if patch.EstimatedTaxRate != nil {
		body["estimated_tax_rate"] = *patch.EstimatedTaxRate
	}

	row, err := updateByID[wireUser](ctx, g, "users", id, url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// ListPlatforms returns the catalog ordered by name.
func (g *RESTGateway) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "name.asc")

	rows, err := selectMany[wirePlatform](ctx, g, "platforms", params)
	if err != nil {
		return nil, err
	}

	platforms := make([]model.Platform, len(rows))
	for i, row := range rows {
		platforms[i] = *row.toModel()
	}
	return platforms, nil
}

// ListEarnings returns a user's earnings with their embedded platforms.
func (g *RESTGateway) ListEarnings(ctx context.Context, userID string, r service.DateRange) ([]model.Earning, error) {
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*,platforms(*)")
	params.Set("user_id", "eq."+userID)
	params.Set("order", "date.desc")
	if r.Start != "" {
		params.Add("date", "gte."+r.Start)
	}
	if r.End != "" {
		params.Add("date", "lte."+r.End)
	}

	rows, err := selectMany[wireEarning](ctx, g, "earnings", params)
	if err != nil {
		return nil, err
	}

	earnings := make([]model.Earning, len(rows))
	for i, row := range rows {
		earnings[i] = *row.toModel()
	}
	return earnings, nil
}

// CreateEarning inserts an earning and returns it with its embedded platform.
func (g *RESTGateway) CreateEarning(ctx context.Context, earning model.Earning) (*model.Earning, error) {
	if err := validateString(earning.UserID, "earning.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(earning.PlatformID, "earning.PlatformID"); err != nil {
		return nil, err
	}
	if err := validateString(earning.Date, "earning.Date"); err != nil {
		return nil, err
	}

	body := map[string]any{
		"user_id":      earning.UserID,
		"platform_id":  earning.PlatformID,
		"amount":       earning.Amount,
		"gross_amount": earning.GrossAmount,
		"fees":         earning.Fees,
		"tips":         earning.Tips,
		"date":         earning.Date,
	}
	if earning.TransactionID != "" {
		body["transaction_id"] = earning.TransactionID
	}
	if earning.Description != "" {
		body["description"] = earning.Description
	}
	if earning.TripCount != nil {
		body["trip_count"] = *earning.TripCount
	}
	if earning.HoursWorked != nil {
		body["hours_worked"] = *earning.HoursWorked
	}

	params := url.Values{}
	params.Set("select", "*,platforms(*)")
	row, err := insertOne[wireEarning](ctx, g, "earnings", params, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateEarning applies a partial update and returns the row with its join.
func (g *RESTGateway) UpdateEarning(ctx context.Context, id string, patch model.EarningPatch) (*model.Earning, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	body := map[string]any{}
	if patch.PlatformID != nil {
		body["platform_id"] = *patch.PlatformID
	}
	if patch.Amount != nil {
		body["amount"] = *patch.Amount
	}
	if patch.GrossAmount != nil {
		body["gross_amount"] = *patch.GrossAmount
	}
	if patch.Fees != nil {
		body["fees"] = *patch.Fees
	}
	if patch.Tips != nil {
		body["tips"] = *patch.Tips
	}
	if patch.Date != nil {
		body["date"] = *patch.Date
	}
	if patch.TransactionID != nil {
		body["transaction_id"] = *patch.TransactionID
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.TripCount != nil {
		body["trip_count"] = *patch.TripCount
	}
	if patch.HoursWorked != nil {
		body["hours_worked"] = *patch.HoursWorked
	}

	params := url.Values{}
	params.Set("select", "*,platforms(*)")
	row, err := updateByID[wireEarning](ctx, g, "earnings", id, params, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// DeleteEarning removes an earning by id.
func (g *RESTGateway) DeleteEarning(ctx context.Context, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return g.deleteByID(ctx, "earnings", id)
}

// ListExpenses returns a user's expenses newest first.
func (g *RESTGateway) ListExpenses(ctx context.Context, userID string, r service.DateRange) ([]model.Expense, error) {
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("user_id", "eq."+userID)
	params.Set("order", "date.desc")
	if r.Start != "" {
		params.Add("date", "gte."+r.Start)
	}
	if r.End != "" {
		params.Add("date", "lte."+r.End)
	}

	rows, err := selectMany[wireExpense](ctx, g, "expenses", params)
	if err != nil {
		return nil, err
	}

	expenses := make([]model.Expense, len(rows))
	for i, row := range rows {
		expenses[i] = *row.toModel()
	}
	return expenses, nil
}

// CreateExpense inserts an expense.
func (g *RESTGateway) CreateExpense(ctx context.Context, expense model.Expense) (*model.Expense, error) {
	if err := validateString(expense.UserID, "expense.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(string(expense.Category), "expense.Category"); err != nil {
		return nil, err
	}
	if err := validateString(expense.Date, "expense.Date"); err != nil {
		return nil, err
	}

	body := map[string]any{
		"user_id":             expense.UserID,
		"amount":              expense.Amount,
		"category":            expense.Category,
		"is_business_expense": expense.IsBusinessExpense,
		"date":                expense.Date,
	}
	if expense.Subcategory != "" {
		body["subcategory"] = expense.Subcategory
	}
	if expense.Description != "" {
		body["description"] = expense.Description
	}
	if expense.ReceiptURL != "" {
		body["receipt_url"] = expense.ReceiptURL
	}
	if expense.Mileage != nil {
		body["mileage"] = *expense.Mileage
	}

	row, err := insertOne[wireExpense](ctx, g, "expenses", url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateExpense applies a partial update.
func (g *RESTGateway) UpdateExpense(ctx context.Context, id string, patch model.ExpensePatch) (*model.Expense, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	body := map[string]any{}
	if patch.Amount != nil {
		body["amount"] = *patch.Amount
	}
	if patch.Category != nil {
		body["category"] = *patch.Category
	}
	if patch.Subcategory != nil {
		body["subcategory"] = *patch.Subcategory
	}
	if patch.Description != nil {
		body["description"] = *patch.Description
	}
	if patch.ReceiptURL != nil {
		body["receipt_url"] = *patch.ReceiptURL
	}
	if patch.IsBusinessExpense != nil {
		body["is_business_expense"] = *patch.IsBusinessExpense
	}
	if patch.Mileage != nil {
		body["mileage"] = *patch.Mileage
	}
	if patch.Date != nil {
		body["date"] = *patch.Date
	}

	row, err := updateByID[wireExpense](ctx, g, "expenses", id, url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// DeleteExpense removes an expense by id.
func (g *RESTGateway) DeleteExpense(ctx context.Context, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return g.deleteByID(ctx, "expenses", id)
}

// ListGoals returns a user's active goals, newest first.
func (g *RESTGateway) ListGoals(ctx context.Context, userID string) ([]model.Goal, error) {
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("user_id", "eq."+userID)
	params.Set("is_active", "eq.true")
	params.Set("order", "created_at.desc")

	rows, err := selectMany[wireGoal](ctx, g, "user_goals", params)
	if err != nil {
		return nil, err
	}

	goals := make([]model.Goal, len(rows))
	for i, row := range rows {
		goals[i] = *row.toModel()
	}
	return goals, nil
}

// CreateGoal inserts a goal.
func (g *RESTGateway) CreateGoal(ctx context.Context, goal model.Goal) (*model.Goal, error) {
	if err := validateString(goal.UserID, "goal.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(string(goal.GoalType), "goal.GoalType"); err != nil {
		return nil, err
	}

	body := map[string]any{
		"user_id":       goal.UserID,
		"goal_type":     goal.GoalType,
		"target_amount": goal.TargetAmount,
		"is_active":     goal.IsActive,
	}

	row, err := insertOne[wireGoal](ctx, g, "user_goals", url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateGoal applies a partial update.
func (g *RESTGateway) UpdateGoal(ctx context.Context, id string, patch model.GoalPatch) (*model.Goal, error) {
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	body := map[string]any{}
	if patch.GoalType != nil {
		body["goal_type"] = *patch.GoalType
	}
	if patch.TargetAmount != nil {
		body["target_amount"] = *patch.TargetAmount
	}
	if patch.IsActive != nil {
		body["is_active"] = *patch.IsActive
	}

	row, err := updateByID[wireGoal](ctx, g, "user_goals", id, url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// DeleteGoal removes a goal by id.
func (g *RESTGateway) DeleteGoal(ctx context.Context, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}
	return g.deleteByID(ctx, "user_goals", id)
}

// ListConnectedAccounts returns a user's account links with embedded platforms.
func (g *RESTGateway) ListConnectedAccounts(ctx context.Context, userID string) ([]model.ConnectedAccount, error) {
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*,platforms(*)")
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")

	rows, err := selectMany[wireAccount](ctx, g, "connected_accounts", params)
	if err != nil {
		return nil, err
	}

	accounts := make([]model.ConnectedAccount, len(rows))
	for i, row := range rows {
		accounts[i] = *row.toModel()
	}
	return accounts, nil
}

// CreateConnectedAccount inserts an account link.
func (g *RESTGateway) CreateConnectedAccount(ctx context.Context, account model.ConnectedAccount) (*model.ConnectedAccount, error) {
	if err := validateString(account.UserID, "account.UserID"); err != nil {
		return nil, err
	}
	if err := validateString(account.PlatformID, "account.PlatformID"); err != nil {
		return nil, err
	}

	body := map[string]any{
		"user_id":            account.UserID,
		"platform_id":        account.PlatformID,
		"account_identifier": account.AccountIdentifier,
		"connection_type":    account.ConnectionType,
		"is_active":          account.IsActive,
	}

	params := url.Values{}
	params.Set("select", "*,platforms(*)")
	row, err := insertOne[wireAccount](ctx, g, "connected_accounts", params, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// UpdateAccountSync records a sync attempt's outcome.
func (g *RESTGateway) UpdateAccountSync(ctx context.Context, id string, lastSync time.Time, syncError string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	body := map[string]any{
		"last_sync":  lastSync.UTC().Format(time.RFC3339),
		"sync_error": nil,
	}
	if syncError != "" {
		body["sync_error"] = syncError
	}

	_, err := updateByID[wireAccount](ctx, g, "connected_accounts", id, url.Values{}, body)
	return err
}

// ListNotifications returns a user's notifications, newest first.
func (g *RESTGateway) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")

	rows, err := selectMany[wireNotification](ctx, g, "notifications", params)
	if err != nil {
		return nil, err
	}

	notifications := make([]model.Notification, len(rows))
	for i, row := range rows {
		notifications[i] = *row.toModel()
	}
	return notifications, nil
}

// CreateNotification inserts a notification.
func (g *RESTGateway) CreateNotification(ctx context.Context, n model.Notification) (*model.Notification, error) {
	if err := validateString(n.UserID, "notification.UserID"); err != nil {
		return nil, err
	}

	body := map[string]any{
		"user_id": n.UserID,
		"title":   n.Title,
		"message": n.Message,
		"type":    n.Type,
		"is_read": n.IsRead,
	}

	row, err := insertOne[wireNotification](ctx, g, "notifications", url.Values{}, body)
	if err != nil {
		return nil, err
	}
	return row.toModel(), nil
}

// MarkNotificationRead flags a notification as read.
func (g *RESTGateway) MarkNotificationRead(ctx context.Context, id string) error {
	if err := validateString(id, "id"); err != nil {
		return err
	}

	_, err := updateByID[wireNotification](ctx, g, "notifications", id, url.Values{},
		map[string]any{"is_read": true})
	return err
}

// ListTaxWithholdings returns a user's tax set-asides, newest first.
func (g *RESTGateway) ListTaxWithholdings(ctx context.Context, userID string) ([]model.TaxWithholding, error) {
	if err := validateString(userID, "userID"); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("select", "*")
	params.Set("user_id", "eq."+userID)
	params.Set("order", "created_at.desc")

	rows, err := selectMany[wireWithholding](ctx, g, "tax_withholdings", params)
	if err != nil {
		return nil, err
	}

	withholdings := make([]model.TaxWithholding, len(rows))
	for i, row := range rows {
		withholdings[i] = *row.toModel()
	}
	return withholdings, nil
}
