// Package store picks and opens the persistence backend configured for the process.
package store

import (
	"fmt"
	"log/slog"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/store/local"
	"sales-dashboard/internal/store/memory"
	"sales-dashboard/internal/store/postgres"
)

// Open returns the single Store implementation selected by cfg. The caller
// owns it and must Close it.
func Open(cfg config.StoreConfig, logger *slog.Logger) (services.Store, error) {
	switch cfg.Backend {
	case config.BackendPostgres:
		s, err := postgres.Open(postgres.Config{
			DSN:         cfg.DatabaseURL,
			Timeout:     cfg.Timeout,
			AutoMigrate: cfg.AutoMigrate,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return s, nil

	case config.BackendBadger:
		localCfg := local.DefaultConfig(cfg.BadgerPath)
		localCfg.Logger = logger.With("store", "badger")
		s, err := local.Open(localCfg)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return s, nil

	case config.BackendMemory:
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
