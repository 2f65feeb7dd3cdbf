package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newEnsureIndexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ensure-indexes",
		Short: "Create unique indexes (mongo) or run migrations (postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.close(context.Background())

			if err := store.migrate(ctx); err != nil {
				return err
			}
			log.Info("indexes ready", "backend", cfg.StoreBackend)
			return nil
		},
	}
}
