package sheets

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

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func TestBuildReport_Aggregates(t *testing.T) {
	rate := 0.30
	user := &model.User{ID: "u1", EstimatedTaxRate: &rate}
	platforms := []model.Platform{
		{ID: "p1", Name: "Uber"},
		{ID: "p2", Name: "DoorDash"},
	}
	earnings := []model.Earning{
		{ID: "e1", PlatformID: "p1", Date: "2024-01-05", Amount: 60, HoursWorked: floatPtr(3), TripCount: intPtr(4)},
		{ID: "e2", PlatformID: "p2", Date: "2024-01-06", Amount: 25},
		{ID: "e3", PlatformID: "p1", Date: "2024-01-08", Amount: 15, HoursWorked: floatPtr(1.5)},
	}
	expenses := []model.Expense{
		{ID: "x1", Category: model.ExpenseFuel, Date: "2024-01-05", Amount: 20},
		{ID: "x2", Category: model.ExpensePhone, Date: "2024-01-07", Amount: 10},
		{ID: "x3", Category: model.ExpenseFuel, Date: "2024-01-09", Amount: 5},
	}

	report := BuildReport(user, platforms, earnings, expenses, service.DateRange{Start: "2024-01-01", End: "2024-01-31"})

	assert.InDelta(t, 100.0, report.TotalEarnings, 0.001)
	assert.InDelta(t, 35.0, report.TotalExpenses, 0.001)
	assert.InDelta(t, 30.0, report.EstimatedTaxes, 0.001)
	assert.InDelta(t, 35.0, report.AvailableBalance, 0.001)

	require.Len(t, report.ByPlatform, 2)
	assert.Equal(t, "Uber", report.ByPlatform[0].PlatformName)
	assert.InDelta(t, 75.0, report.ByPlatform[0].Total, 0.001)
	assert.InDelta(t, 4.5, report.ByPlatform[0].Hours, 0.001)
	assert.Equal(t, 4, report.ByPlatform[0].Trips)
	assert.Equal(t, 2, report.ByPlatform[0].Count)
	assert.Equal(t, "DoorDash", report.ByPlatform[1].PlatformName)

	require.Len(t, report.ByCategory, 2)
	assert.Equal(t, "fuel", report.ByCategory[0].Category)
	assert.InDelta(t, 25.0, report.ByCategory[0].Total, 0.001)
	assert.Equal(t, 2, report.ByCategory[0].Count)
	assert.Equal(t, "phone", report.ByCategory[1].Category)
}

func TestBuildReport_UnknownPlatformAndDefaultRate(t *testing.T) {
	earnings := []model.Earning{
		{ID: "e1", PlatformID: "p-gone", Date: "2024-01-05", Amount: 40},
	}

	report := BuildReport(&model.User{ID: "u1"}, nil, earnings, nil, service.DateRange{})

	require.Len(t, report.ByPlatform, 1)
	assert.Equal(t, "Unknown", report.ByPlatform[0].PlatformName)
	assert.InDelta(t, 10.0, report.EstimatedTaxes, 0.001)
}

func TestExporter_DefaultsToCurrentMonth(t *testing.T) {
	gw := &gateway.MockGateway{}
	gw.GetUserByAuthUIDFn = func(_ context.Context, authUID string) (*model.User, error) {
		require.Equal(t, "uid-1", authUID)
		return &model.User{ID: "u1", AuthUID: "uid-1"}, nil
	}
	var gotRange service.DateRange
	gw.ListEarningsFn = func(_ context.Context, userID string, r service.DateRange) ([]model.Earning, error) {
		require.Equal(t, "u1", userID)
		gotRange = r
		return []model.Earning{{ID: "e1", Amount: 80, Date: "2024-01-10"}}, nil
	}
	gw.ListExpensesFn = func(_ context.Context, _ string, _ service.DateRange) ([]model.Expense, error) {
		return []model.Expense{{ID: "x1", Amount: 30, Date: "2024-01-11"}}, nil
	}

	writer := &MockWriter{}
	exporter := NewExporter(gw, writer, nil)
	exporter.now = func() time.Time {
		return time.Date(2024, time.January, 17, 12, 0, 0, 0, time.UTC)
	}

	err := exporter.Export(context.Background(), "uid-1", service.DateRange{})
	require.NoError(t, err)

	assert.Equal(t, "2024-01-01", gotRange.Start)
	assert.Equal(t, "2024-01-17", gotRange.End)

	require.Equal(t, 1, writer.WriteCallCount)
	require.NotNil(t, writer.LastReport)
	assert.InDelta(t, 80.0, writer.LastReport.TotalEarnings, 0.001)
	assert.InDelta(t, 30.0, writer.LastReport.TotalExpenses, 0.001)
	assert.InDelta(t, 20.0, writer.LastReport.EstimatedTaxes, 0.001)
}

func TestExporter_WriterErrorPropagates(t *testing.T) {
	gw := &gateway.MockGateway{}
	gw.GetUserByAuthUIDFn = func(_ context.Context, _ string) (*model.User, error) {
		return &model.User{ID: "u1"}, nil
	}

	wantErr := errors.New("quota exceeded")
	writer := &MockWriter{WriteFn: func(_ context.Context, _ *Report) error {
		return wantErr
	}}

	exporter := NewExporter(gw, writer, nil)
	err := exporter.Export(context.Background(), "uid-1", service.DateRange{Start: "2024-01-01", End: "2024-01-31"})
	require.Error(t, err)
	assert.ErrorIs(t, err, wantErr)
}
