package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tyleshq/tyles/internal/api"
	"github.com/tyleshq/tyles/internal/cache"
	"github.com/tyleshq/tyles/internal/config"
	"github.com/tyleshq/tyles/internal/identity"
	"github.com/tyleshq/tyles/internal/session"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Start the authenticated HTTP API. Requests carry a Firebase ID
token; each signed-in user gets a per-user session that aggregates
their data from the configured gateway.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	gw, err := initGateway(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = gw.Close() }()

	firebaseCfg, err := config.LoadFirebaseConfig()
	if err != nil {
		return fmt.Errorf("firebase config: %w", err)
	}
	verifier, err := identity.NewFirebaseVerifier(ctx, *firebaseCfg)
	if err != nil {
		return fmt.Errorf("failed to init identity provider: %w", err)
	}

	var store cache.Cache
	if redisCfg := config.LoadRedisConfig(); redisCfg != nil {
		redis, redisErr := cache.NewRedis(ctx, *redisCfg)
		if redisErr != nil {
			return fmt.Errorf("failed to connect to redis: %w", redisErr)
		}
		store = redis
	} else {
		store = cache.NewMemory()
	}
	defer func() { _ = store.Close() }()

	manager := session.NewManager(gw)
	go manager.Run(ctx)

	server := api.New(api.Config{
		Addr:           viper.GetString("server.addr"),
		AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
	}, gw, verifier, store, manager)

	slog.Info("starting server", "addr", viper.GetString("server.addr"))
	return server.Run(ctx)
}
