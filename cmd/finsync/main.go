package main

import (
	"context"
	"net/http"
	"os"

	"github.com/dayoung-ko/finsync/internal/app/ingest"
	"github.com/dayoung-ko/finsync/internal/pkg/config"
	"github.com/dayoung-ko/finsync/internal/pkg/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "finsync",
	Short: "Syncs publicly disclosed credit-loan products and rates into Postgres",
	Long: `finsync ingests the public credit-loan disclosure feed page by page,
stores products and their per-grade rate options without duplication, and
serves a deterministic final rate per credit-grade bucket.`,
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(syncCmd, serveCmd, migrateCmd)
}

func initConfig() {
	c, err := config.Load()
	noErr(err)
	cfg = c

	logger, err = zap.NewProduction()
	noErr(err)
}

// buildService wires the Postgres store and the disclosure client into a sync
// service. The returned cleanup closes the connection pool.
func buildService(ctx context.Context) (*ingest.Service, func(), error) {
	if err := cfg.RequireDB(); err != nil {
		return nil, nil, err
	}
	if err := cfg.RequireAPI(); err != nil {
		return nil, nil, err
	}

	pool, err := store.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, err
	}

	pgStore := store.NewPostgres(pool, logger.Named("pg-store"))
	client := ingest.NewFinlifeClient(
		cfg.APIBaseURL,
		cfg.APIKey,
		cfg.PageSize,
		&http.Client{Timeout: cfg.RequestTimeout},
		logger.Named("finlife"),
	)
	svc := ingest.NewService(pgStore, client, cfg.Categories, logger.Named("sync"))
	return svc, pool.Close, nil
}

func noErr(err error) {
	if err != nil {
		panic("failed to initialize something important: " + err.Error())
	}
}
