package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dayoung-ko/finsync/internal/app/ingest"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run recurring synchronization passes until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, cleanup, err := buildService(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		ingest.NewScheduler(svc, cfg.SyncInterval, logger.Named("scheduler")).Run(ctx)
		return nil
	},
}
