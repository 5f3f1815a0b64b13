package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/tyleshq/tyles/internal/config"
	"github.com/tyleshq/tyles/internal/gateway"
	"github.com/tyleshq/tyles/internal/service"
)

// defaultDBPath is used when no sqlite path is configured.
func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "tyles", "tyles.db"), nil
}

// initGateway constructs the data gateway selected by configuration.
// gateway.backend chooses "rest" (remote store) or "sqlite" (local
// file); sqlite is the default and gets its migrations run here.
func initGateway(ctx context.Context) (service.Gateway, error) {
	backend := viper.GetString("gateway.backend")
	if backend == "" {
		if viper.GetString("gateway.base_url") != "" {
			backend = "rest"
		} else {
			backend = "sqlite"
		}
	}

	switch backend {
	case "rest":
		cfg, err := config.LoadRESTGatewayConfig()
		if err != nil {
			return nil, fmt.Errorf("gateway config: %w", err)
		}
		return gateway.NewRESTGateway(*cfg)

	case "sqlite":
		dbPath := config.ExpandPath(viper.GetString("database.path"))
		if dbPath == "" {
			var err error
			dbPath, err = defaultDBPath()
			if err != nil {
				return nil, err
			}
		}

		gw, err := gateway.NewSQLiteGateway(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := gw.Migrate(ctx); err != nil {
			_ = gw.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return gw, nil

	default:
		return nil, fmt.Errorf("unknown gateway backend: %s", backend)
	}
}
