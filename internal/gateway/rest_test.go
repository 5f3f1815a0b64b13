package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyleshq/tyles/internal/common"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

func newTestRESTGateway(t *testing.T, handler http.HandlerFunc) *RESTGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	gw, err := NewRESTGateway(RESTConfig{
		BaseURL:      server.URL,
		APIKey:       "test-anon-key",
		ServiceToken: "test-service-token",
	})
	require.NoError(t, err)
	return gw
}

func TestRESTConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RESTConfig
		wantErr bool
	}{
		{
			name:    "complete",
			config:  RESTConfig{BaseURL: "https://x.example.com/rest/v1", APIKey: "k", ServiceToken: "t"},
			wantErr: false,
		},
		{
			name:    "missing base URL",
			config:  RESTConfig{APIKey: "k", ServiceToken: "t"},
			wantErr: true,
		},
		{
			name:    "missing API key",
			config:  RESTConfig{BaseURL: "https://x.example.com", ServiceToken: "t"},
			wantErr: true,
		},
		{
			name:    "missing token",
			config:  RESTConfig{BaseURL: "https://x.example.com", APIKey: "k"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrMissingConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRESTGateway_ListEarnings_QueryShape(t *testing.T) {
	var gotPath string
	var gotQuery map[string][]string
	var gotAPIKey, gotAuth string

	gw := newTestRESTGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{
				"id": "e1", "user_id": "u1", "platform_id": "p1",
				"amount": 45.5, "gross_amount": 50, "fees": 6, "tips": 1.5,
				"date": "2025-01-10", "trip_count": 4,
				"created_at": "2025-01-10T18:00:00Z",
				"platforms": {"id": "p1", "name": "Uber", "type": "rideshare",
					"api_available": true, "created_at": "2024-01-01T00:00:00Z"}
			}
		]`))
	})

	earnings, err := gw.ListEarnings(context.Background(), "u1",
		service.DateRange{Start: "2025-01-01", End: "2025-01-31"})
	require.NoError(t, err)

	assert.Equal(t, "/earnings", gotPath)
	assert.Equal(t, []string{"*,platforms(*)"}, gotQuery["select"])
	assert.Equal(t, []string{"eq.u1"}, gotQuery["user_id"])
	assert.Equal(t, []string{"date.desc"}, gotQuery["order"])
	assert.ElementsMatch(t, []string{"gte.2025-01-01", "lte.2025-01-31"}, gotQuery["date"])
	assert.Equal(t, "test-anon-key", gotAPIKey)
	assert.Equal(t, "Bearer test-service-token", gotAuth)

	require.Len(t, earnings, 1)
	assert.InDelta(t, 45.5, earnings[0].Amount, 1e-9)
	require.NotNil(t, earnings[0].TripCount)
	assert.Equal(t, 4, *earnings[0].TripCount)
	require.NotNil(t, earnings[0].Platform)
	assert.Equal(t, "Uber", earnings[0].Platform.Name)
}

func TestRESTGateway_GetUserByAuthUID_NotFound(t *testing.T) {
	gw := newTestRESTGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := gw.GetUserByAuthUID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRESTGateway_CreateExpense_ReturnsRepresentation(t *testing.T) {
	var gotPrefer string
	var gotBody map[string]any

	gw := newTestRESTGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotPrefer = r.Header.Get("Prefer")
		payload, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(payload, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "x1", "user_id": "u1", "amount": 35, "category": "fuel",
			 "is_business_expense": true, "date": "2025-03-02",
			 "created_at": "2025-03-02T09:00:00Z"}
		]`))
	})

	created, err := gw.CreateExpense(context.Background(), model.Expense{
		UserID:            "u1",
		Amount:            35,
		Category:          model.ExpenseFuel,
		IsBusinessExpense: true,
		Date:              "2025-03-02",
	})
	require.NoError(t, err)

	assert.Equal(t, "return=representation", gotPrefer)
	assert.Equal(t, "u1", gotBody["user_id"])
	assert.Equal(t, "fuel", gotBody["category"])
	// Unset optional columns stay out of the insert body.
	assert.NotContains(t, gotBody, "mileage")
	assert.NotContains(t, gotBody, "receipt_url")

	assert.Equal(t, "x1", created.ID)
	assert.Equal(t, model.ExpenseFuel, created.Category)
}

func TestRESTGateway_UpdateGoal_MissingRow(t *testing.T) {
	gw := newTestRESTGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	})

	active := false
	_, err := gw.UpdateGoal(context.Background(), "g-missing", model.GoalPatch{IsActive: &active})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRESTGateway_CreateUser_Conflict(t *testing.T) {
	gw := newTestRESTGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"code":"23505","message":"duplicate key value violates unique constraint \"users_auth_uid_key\""}`, http.StatusConflict)
	})

	_, err := gw.CreateUser(context.Background(), model.User{AuthUID: "uid-1"})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestRESTGateway_ServerError(t *testing.T) {
	gw := newTestRESTGateway(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"message":"permission denied"}`, http.StatusForbidden)
	})

	_, err := gw.ListPlatforms(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrGatewayStatus)
	assert.Contains(t, err.Error(), "403")
}

func TestRESTGateway_UpdateAccountSync_Body(t *testing.T) {
	var gotBody map[string]any
	var gotID []string

	gw := newTestRESTGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query()["id"]
		payload, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(payload, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "a1", "user_id": "u1", "platform_id": "p1",
			 "connection_type": "plaid", "is_active": true,
			 "last_sync": "2025-04-01T12:00:00Z",
			 "created_at": "2025-01-01T00:00:00Z"}
		]`))
	})

	err := gw.UpdateAccountSync(context.Background(), "a1",
		mustParseTime(t, "2025-04-01T12:00:00Z"), "")
	require.NoError(t, err)

	assert.Equal(t, []string{"eq.a1"}, gotID)
	assert.Equal(t, "2025-04-01T12:00:00Z", gotBody["last_sync"])
	// An empty sync error is written as NULL, not skipped.
	v, present := gotBody["sync_error"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func mustParseTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}
