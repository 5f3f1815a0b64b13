package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
)

// Exporter pulls a user's data from the gateway and hands it to a
// report writer.
type Exporter struct {
	gateway service.Gateway
	writer  ReportWriter
	logger  *slog.Logger
	now     func() time.Time
}

// NewExporter creates an exporter backed by the given gateway and writer.
func NewExporter(gw service.Gateway, writer ReportWriter, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		gateway: gw,
		writer:  writer,
		logger:  logger.With("component", "exporter"),
		now:     time.Now,
	}
}

// Export builds a report for the user identified by authUID and writes
// it. An empty range defaults to the current calendar month.
func (e *Exporter) Export(ctx context.Context, authUID string, rng service.DateRange) error {
	if rng.Start == "" && rng.End == "" {
		now := e.now()
		rng.Start = model.FormatDate(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
		rng.End = model.FormatDate(now)
	}

	user, err := e.gateway.GetUserByAuthUID(ctx, authUID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	platforms, err := e.gateway.ListPlatforms(ctx)
	if err != nil {
		return fmt.Errorf("failed to load platforms: %w", err)
	}

	earnings, err := e.gateway.ListEarnings(ctx, user.ID, rng)
	if err != nil {
		return fmt.Errorf("failed to load earnings: %w", err)
	}

	expenses, err := e.gateway.ListExpenses(ctx, user.ID, rng)
	if err != nil {
		return fmt.Errorf("failed to load expenses: %w", err)
	}

	report := BuildReport(user, platforms, earnings, expenses, rng)

	e.logger.Info("exporting report",
		"user_id", user.ID,
		"start", rng.Start,
		"end", rng.End,
		"earnings", len(earnings),
		"expenses", len(expenses))

	return e.writer.Write(ctx, report)
}
