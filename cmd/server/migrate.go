package main

import (
	"errors"

	"github.com/spf13/cobra"
	"github.com/vipinnagar8700/meditationLife-sub000/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending PostgreSQL schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Storage.Backend != "postgres" {
		return errors.New("migrate requires STORAGE_BACKEND=postgres")
	}
	pg, err := storage.NewPostgresStorage(cmd.Context(), cfg.Storage.PostgresDSN, logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	return storage.RunMigrations(pg, logger)
}
