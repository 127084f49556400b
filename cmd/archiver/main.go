// Command archiver copies the picking store into a dated snapshot and
// resets it to its header line, once or on a schedule.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"picking-verification-backend/internal/config"
	"picking-verification-backend/internal/lock"
	"picking-verification-backend/internal/repository"
	"picking-verification-backend/internal/services/archive"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "archiver",
		Short:        "Archive and reset the picking store",
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Archive the store once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *archive.ArchiveService, _ *config.Config, _ *zap.Logger) error {
				outcome, err := svc.ArchiveAndReset(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, outcome)
			})
		},
	})

	var every time.Duration
	schedule := &cobra.Command{
		Use:   "schedule",
		Short: "Archive the store on a fixed interval until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *archive.ArchiveService, cfg *config.Config, logger *zap.Logger) error {
				interval := every
				if interval <= 0 {
					interval = cfg.Archive.Interval
				}
				err := archive.NewScheduler(svc, interval, logger).Run(ctx)
				if ctx.Err() != nil {
					return nil
				}
				return err
			})
		},
	}
	schedule.Flags().DurationVar(&every, "every", 0, "interval between runs (defaults to ARCHIVE_INTERVAL)")
	root.AddCommand(schedule)

	var snapshot string
	resume := &cobra.Command{
		Use:   "resume",
		Short: "Finish an archive whose snapshot was written but whose reset failed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), func(ctx context.Context, svc *archive.ArchiveService, _ *config.Config, _ *zap.Logger) error {
				outcome, err := svc.ResumeReset(ctx, snapshot)
				if err != nil {
					return err
				}
				return printJSON(cmd, outcome)
			})
		},
	}
	resume.Flags().StringVar(&snapshot, "snapshot", "", "snapshot name reported by the failed run")
	_ = resume.MarkFlagRequired("snapshot")
	root.AddCommand(resume)

	return root
}

type serviceFunc func(ctx context.Context, svc *archive.ArchiveService, cfg *config.Config, logger *zap.Logger) error

func withService(parent context.Context, fn serviceFunc) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("database handle: %w", err)
	}
	defer sqlDB.Close()

	var store repository.Store
	switch cfg.Store.Backend {
	case config.StorePostgres:
		if err := config.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		store = repository.NewPostgresStore(db)
	case config.StoreSheets:
		store, err = repository.NewSheetsStore(ctx, []byte(cfg.Store.CredentialsJSON), cfg.Store.SpreadsheetID, cfg.Store.Worksheet)
		if err != nil {
			return fmt.Errorf("sheets: %w", err)
		}
	default:
		return fmt.Errorf("store backend %q is in-process and cannot be archived from here", cfg.Store.Backend)
	}

	svc := archive.NewArchiveService(store, lock.NewPostgres(sqlDB, lock.StoreLockKey), logger)
	if err := fn(ctx, svc, cfg, logger); err != nil {
		logger.Error("archiver failed", zap.Error(err))
		return err
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
