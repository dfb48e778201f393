package storage

import (
	"context"
	"fmt"

	"github.com/vipinnagar8700/meditationLife-sub000/internal"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/config"
)

// Open returns the backend selected by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (Store, error) {
	switch cfg.Storage.Backend {
	case "file":
		return NewFileStorage(cfg.Storage.EntriesFile, cfg.Storage.UsersFile, logger)
	case "postgres":
		pg, err := NewPostgresStorage(ctx, cfg.Storage.PostgresDSN, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Storage.AutoMigrate {
			if err := RunMigrations(pg, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		return pg, nil
	case "mongo":
		return NewMongoStorage(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase, logger)
	}
	return nil, fmt.Errorf("storage: unknown backend %q", cfg.Storage.Backend)
}
