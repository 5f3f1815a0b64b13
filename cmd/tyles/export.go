package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tyleshq/tyles/internal/config"
	"github.com/tyleshq/tyles/internal/model"
	"github.com/tyleshq/tyles/internal/service"
	"github.com/tyleshq/tyles/internal/sheets"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a finance report to Google Sheets",
		Long: `Build a report of earnings by platform, expenses by category,
and estimated taxes for a date range and write it to Google Sheets.
Defaults to the current calendar month.`,
		RunE: runExport,
	}

	cmd.Flags().String("user", "", "auth UID of the user to export for (required)")
	cmd.Flags().String("from", "", "range start (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "range end (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	authUID, _ := cmd.Flags().GetString("user")
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")

	for _, date := range []string{from, to} {
		if date == "" {
			continue
		}
		if _, err := model.ParseDate(date); err != nil {
			return fmt.Errorf("invalid date %q: %w", date, err)
		}
	}

	gw, err := initGateway(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	sheetsCfg, err := config.LoadSheetsConfig()
	if err != nil {
		return fmt.Errorf("sheets config: %w", err)
	}
	writer, err := sheets.NewWriter(ctx, *sheetsCfg, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to init sheets writer: %w", err)
	}

	exporter := sheets.NewExporter(gw, writer, slog.Default())
	if err := exporter.Export(ctx, authUID, service.DateRange{Start: from, End: to}); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	slog.Info("export completed", "user", authUID)
	return nil
}
