package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/hackathon-backend/internal/config"
	"github.com/sandeepkv93/hackathon-backend/internal/database"
	"github.com/sandeepkv93/hackathon-backend/internal/di"
	"github.com/sandeepkv93/hackathon-backend/internal/observability"
	"github.com/sandeepkv93/hackathon-backend/internal/repository"

	sdklog "go.opentelemetry.io/otel/sdk/log"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Hackathon backend API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCommand(), newMigrateCommand(), newPruneLedgerCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, lp, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			if migrate {
				if err := runMigrations(cfg, logger); err != nil {
					return err
				}
			}

			// The app owns lp from here and shuts it down with the other providers.
			a, cleanup, err := di.InitializeApp(ctx, cfg, logger, lp)
			if err != nil {
				return fmt.Errorf("initialize app: %w", err)
			}
			defer cleanup()
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply schema migrations before serving")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, lp, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer shutdownLogs(lp)
			return runMigrations(cfg, logger)
		},
	}
}

func newPruneLedgerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-ledger",
		Short: "Delete ledger entries for tokens that can no longer verify",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, logger, lp, err := bootstrap(ctx)
			if err != nil {
				return err
			}
			defer shutdownLogs(lp)
			reaper, cleanup, err := di.InitializeLedgerReaper(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("initialize reaper: %w", err)
			}
			defer cleanup()
			n, err := reaper.RunOnce(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pruned %d ledger entries\n", n)
			return nil
		},
	}
}

func bootstrap(ctx context.Context) (*config.Config, *slog.Logger, *sdklog.LoggerProvider, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, lp, err := observability.NewLogger(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, lp, nil
}

func shutdownLogs(lp *sdklog.LoggerProvider) {
	if lp == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = lp.Shutdown(ctx)
}

func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()
	if err := repository.AutoMigrate(db); err != nil {
		return err
	}
	logger.Info("migrations applied", "driver", cfg.DBDriver)
	return nil
}
