package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tyleshq/tyles/internal/config"
	"github.com/tyleshq/tyles/internal/ingest"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import platform payouts via Plaid",
		Long: `Fetch bank deposits through Plaid for the user's connected
accounts and record them as earnings. Already-imported transactions
are skipped.`,
		RunE: runImport,
	}

	cmd.Flags().String("user", "", "auth UID of the user to import for (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	authUID, _ := cmd.Flags().GetString("user")

	gw, err := initGateway(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	user, err := gw.GetUserByAuthUID(ctx, authUID)
	if err != nil {
		return fmt.Errorf("failed to load user %s: %w", authUID, err)
	}

	plaidCfg, err := config.LoadPlaidConfig()
	if err != nil {
		return fmt.Errorf("plaid config: %w", err)
	}
	client, err := ingest.NewPlaidClient(*plaidCfg)
	if err != nil {
		return fmt.Errorf("failed to init plaid client: %w", err)
	}

	importer := ingest.NewImporter(gw, client)
	result, err := importer.Run(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	slog.Info("import completed",
		"accounts_synced", result.AccountsSynced,
		"accounts_failed", result.AccountsFailed,
		"earnings_created", result.EarningsCreated,
		"payouts_skipped", result.PayoutsSkipped)

	return nil
}
