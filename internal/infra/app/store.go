package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/infra/database"
	"github.com/arklim/campus-records/internal/repository/memory"
	postgresrepo "github.com/arklim/campus-records/internal/repository/postgres"
)

// OpenStore returns the record store selected by cfg.Storage.Driver and a
// function that releases it.
func OpenStore(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (port.Store, func(), error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		log.Warn("using in-memory record store; data is lost on restart")
		return memory.NewStore(), func() {}, nil
	case config.StorageDriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres: %w", err)
		}
		if cfg.Postgres.MigrateOnStart {
			if err := database.RunMigrations(ctx, pool, log); err != nil {
				pool.Close()
				return nil, nil, fmt.Errorf("migrate postgres: %w", err)
			}
		}
		return postgresrepo.NewStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
