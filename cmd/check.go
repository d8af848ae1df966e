package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"library-alert/core/availability"
	"library-alert/core/config"
	"library-alert/core/database"
	"library-alert/core/logger"
	"library-alert/core/notify"
	"library-alert/core/reconcile"
	"library-alert/core/status"
	"library-alert/core/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for check command
	dryRunCheck   bool
	checkInterval time.Duration
)

// checkCmd runs the reconciliation cycle.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Look up tracked books and notify about new availability",
	Long: `Queries the availability service for every tracked book at every tracked
library, records books that became available and mails the changes.

Examples:
  # One cycle (cron / scheduler)
  check

  # Show what would change without writing or mailing
  check --dry-run

  # Keep running, one cycle every hour
  check --interval 1h`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&dryRunCheck, "dry-run", false, "Compute changes without persisting or notifying")
	checkCmd.Flags().DurationVar(&checkInterval, "interval", 0, "Run cycles repeatedly at this interval (0 runs once)")

	RootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	store := status.NewGormStore(db, cfg.Database.Table)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate status table: %w", err)
	}

	notifier, err := buildNotifier(ctx, cfg, l)
	if err != nil {
		return err
	}

	client := availability.NewClient(cfg.Calil, l)
	engine := reconcile.NewEngine(store, client, notifier, l)

	return runCycles(ctx, engine, reconcile.Options{DryRun: dryRunCheck}, checkInterval, l)
}

// buildNotifier mails every change and, with storage enabled, archives the payload too.
func buildNotifier(ctx context.Context, cfg *config.Config, l *zap.Logger) (reconcile.Notifier, error) {
	notifiers := notify.Multi{}

	if cfg.Storage.Enabled {
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to storage: %w", err)
		}
		if err := storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region); err != nil {
			return nil, err
		}
		notifiers = append(notifiers, notify.NewArchiveNotifier(client, cfg.Storage.Bucket, l))
	}

	notifiers = append(notifiers, notify.NewMailNotifier(cfg.Mail, notify.NewSMTPSender(cfg.Mail), l))
	return notifiers, nil
}

// cycleRunner is satisfied by *reconcile.Engine.
type cycleRunner interface {
	Run(ctx context.Context, opts reconcile.Options) (*reconcile.Result, error)
}

// runCycles runs one cycle, or with a positive interval keeps running cycles
// until ctx is cancelled. In loop mode a failed cycle is logged and the next
// one still runs.
func runCycles(ctx context.Context, engine cycleRunner, opts reconcile.Options, interval time.Duration, l *zap.Logger) error {
	if interval <= 0 {
		result, err := engine.Run(ctx, opts)
		if err != nil {
			return err
		}
		printCheckReport(l, result)
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := engine.Run(ctx, opts)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			l.Error("Reconciliation cycle failed", zap.Error(err))
		default:
			printCheckReport(l, result)
		}

		select {
		case <-ctx.Done():
			l.Info("Stopping reconciliation loop")
			return nil
		case <-ticker.C:
		}
	}
}

// printCheckReport logs the cycle summary and each transition.
func printCheckReport(l *zap.Logger, result *reconcile.Result) {
	l.Info("Reconciliation report",
		zap.Int("libraries", result.Libraries),
		zap.Int("books", result.Books),
		zap.Int("attempts", result.Attempts),
		zap.Bool("complete", result.Complete),
		zap.Int("transitions", result.Updates.Len()),
		zap.Int("flipped", result.Flipped),
		zap.Int("skipped", result.Skipped),
		zap.Bool("notified", result.Notified),
	)

	for _, isbn := range result.Updates.ISBNs() {
		for _, a := range result.Updates[isbn] {
			l.Info("Available",
				zap.String("isbn", isbn),
				zap.String("library", a.LibraryID),
				zap.String("reserve_url", a.ReserveURL),
			)
		}
	}
}
