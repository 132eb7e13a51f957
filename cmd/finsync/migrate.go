package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dayoung-ko/finsync/internal/pkg/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the database schema if it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cfg.RequireDB(); err != nil {
			return err
		}
		pool, err := store.Connect(ctx, cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		return store.NewPostgres(pool, logger.Named("pg-store")).Migrate(ctx)
	},
}
