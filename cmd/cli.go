package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fulfillment/internal/adapters/out/postgres/migrations"
	"fulfillment/internal/core/application/usecases/commands"
	"fulfillment/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// NewRootCommand builds the fulfillment CLI.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fulfillment",
		Short:         "Order fulfillment orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newReconcileCmd())
	root.AddCommand(newSweepCmd())

	return root
}

// Execute runs the CLI until SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Run the HTTP API and the scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRoot(cmd.Context(), func(ctx context.Context, cfg Config, root *CompositionRoot, log *zap.Logger) error {
				if cfg.JobsEnabled {
					manager := root.CreateJobManager()
					if err := manager.StartAll(); err != nil {
						return err
					}
					defer manager.StopAll()
				}

				e, err := root.CreateEcho()
				if err != nil {
					return err
				}
				errCh := make(chan error, 1)
				go func() {
					log.Info("starting HTTP server", zap.String("addr", cfg.HTTPAddr()))
					if err := e.Start(cfg.HTTPAddr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
						errCh <- err
					}
					close(errCh)
				}()

				select {
				case err := <-errCh:
					return err
				case <-ctx.Done():
				}

				log.Info("stopping HTTP server")
				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return e.Shutdown(stopCtx)
			})
		},
	}
}

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, mig *migrations.Migrator) error {
				if err := mig.Up(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
				return nil
			})
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Rollback migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			steps, _ := cmd.Flags().GetInt("steps")
			all, _ := cmd.Flags().GetBool("all")
			return withMigrator(cmd.Context(), func(ctx context.Context, mig *migrations.Migrator) error {
				if err := mig.Down(ctx, steps, all); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "migrations rolled back")
				return nil
			})
		},
	}
	downCmd.Flags().Int("steps", 1, "Number of migration steps to rollback")
	downCmd.Flags().Bool("all", false, "Rollback all applied migrations")

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute provider reserved counts from open reservations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRoot(cmd.Context(), func(ctx context.Context, _ Config, root *CompositionRoot, _ *zap.Logger) error {
				drifts, err := root.CreateReconcileCapacityCommandHandler().Handle(ctx)
				if err != nil {
					return err
				}
				for _, d := range drifts {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d -> %d\n", d.ProviderID, d.Stored, d.Actual)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d provider(s) corrected\n", len(drifts))
				return nil
			})
		},
	}
}

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Retry assignment for pending orders once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batch, _ := cmd.Flags().GetInt("batch")
			return withRoot(cmd.Context(), func(ctx context.Context, _ Config, root *CompositionRoot, _ *zap.Logger) error {
				sweepCmd, err := commands.NewAssignPendingOrdersCommand(batch)
				if err != nil {
					return err
				}
				res, err := root.CreateAssignPendingOrdersCommandHandler().Handle(ctx, sweepCmd)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d assigned=%d waiting=%d failed=%d\n",
					res.Scanned, res.Assigned, res.Waiting, res.Failed)
				return nil
			})
		},
	}
	cmd.Flags().Int("batch", commands.DefaultSweepBatch, "Maximum number of pending orders to retry")
	return cmd
}

func withRoot(
	ctx context.Context,
	fn func(ctx context.Context, cfg Config, root *CompositionRoot, log *zap.Logger) error,
) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	root, err := NewCompositionRoot(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := root.Close(); closeErr != nil {
			log.Warn("shutdown incomplete", zap.Error(closeErr))
		}
	}()

	return fn(ctx, cfg, root, log)
}

func withMigrator(ctx context.Context, fn func(ctx context.Context, mig *migrations.Migrator) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := OpenDatabase(cfg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	mig, err := migrations.New(sqlDB, log.Named("migrations"))
	if err != nil {
		return err
	}
	return fn(ctx, mig)
}

func bootstrap() (Config, *zap.Logger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Config{}, nil, err
	}
	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, log, nil
}
