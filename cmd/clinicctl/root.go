package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/doctor-smile-ledger/internal/clinic_api"
	"github.com/doctor-smile-ledger/internal/config"
	"github.com/doctor-smile-ledger/internal/data/postgres"
	"github.com/doctor-smile-ledger/internal/logger"
	"github.com/doctor-smile-ledger/internal/platform/persistence"
	"github.com/spf13/cobra"
)

var configName string

var rootCmd = &cobra.Command{
	Use:   "clinicctl",
	Short: "clinicctl administers the clinic ledger",
	Long:  `clinicctl seeds reference data, checks stored balances against their entries and voids posted transactions.`,

	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(rootCmd.ErrOrStderr(), err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configName, "config", "clinic", "base name of the .env config file")
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(voidCmd())
}

// withServices opens the database, runs fn and closes the pool.
func withServices(ctx context.Context, fn func(ctx context.Context, services clinic_api.Services) error) error {
	cfg, err := config.LoadConfig(configName)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.NewLogger(cfg)

	db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres, persistence.LimitsFromConfig(cfg.Ledger))
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer db.Close()

	return fn(ctx, clinic_api.NewServices(log, db, postgres.NewRepositories(log, db), cfg.Ledger.HistoryLimit))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
