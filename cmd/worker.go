package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/separation-management/internal/notification"
	notificationPostgres "github.com/frahmantamala/separation-management/internal/notification/postgres"
	"github.com/frahmantamala/separation-management/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background worker pools that run outside the HTTP server`,
}

var notificationWorkerCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Start the notification retry worker",
	Long: `Start a notification worker pool that periodically picks up failed or
stale pending notifications and delivers them again`,
	Run: func(cmd *cobra.Command, args []string) {
		startNotificationWorker()
	},
}

var (
	maxWorkers    int
	jobQueueSize  int
	retryInterval time.Duration
	staleAfter    time.Duration
	retryBatch    int
)

func startNotificationWorker() {
	config, err := loadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	lg := logger.LoggerWrapper()

	sqlDB, err := initDB(config.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	db, err := initGorm(sqlDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
		os.Exit(1)
	}

	dispatcherConfig := notification.DispatcherConfig{
		MaxWorkers: getIntFlag(maxWorkers, config.Notification.MaxWorkers),
		QueueSize:  getIntFlag(jobQueueSize, config.Notification.QueueSize),
	}
	maxAttempts := config.Notification.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	lg.Info("starting notification worker",
		"max_workers", dispatcherConfig.MaxWorkers,
		"queue_size", dispatcherConfig.QueueSize,
		"max_attempts", maxAttempts,
		"retry_interval", retryInterval,
		"webhook_url", config.Notification.WebhookURL)

	dispatcher := notification.NewDispatcher(dispatcherConfig, lg)
	service := notification.NewService(
		notificationPostgres.NewNotificationRepository(db),
		dispatcher,
		notification.NewSender(config.Notification, lg),
		config.Notification.Timeout,
		lg,
	)
	dispatcher.Start(service.Deliver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sweep := func() {
		if _, err := service.RetryFailed(ctx, maxAttempts, staleAfter, retryBatch); err != nil {
			lg.Error("notification retry sweep failed", "error", err)
		}
	}

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	lg.Info("notification worker is running. Press Ctrl+C to stop.")
	sweep()
	for {
		select {
		case <-ticker.C:
			sweep()
		case <-ctx.Done():
			lg.Info("received signal, shutting down notification worker")
			shutdownWorker(dispatcher)
			return
		}
	}
}

func shutdownWorker(dispatcher *notification.Dispatcher) {
	lg := logger.LoggerWrapper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		dispatcher.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		lg.Info("notification worker pool shutdown complete")
	case <-ctx.Done():
		lg.Warn("shutdown timeout reached, forcing exit")
	}
}

func getIntFlag(flagValue, configValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	return configValue
}

func init() {
	notificationWorkerCmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "Maximum number of workers (overrides config)")
	notificationWorkerCmd.Flags().IntVar(&jobQueueSize, "job-queue-size", 0, "Job queue buffer size (overrides config)")
	notificationWorkerCmd.Flags().DurationVar(&retryInterval, "interval", time.Minute, "How often to sweep for undelivered notifications")
	notificationWorkerCmd.Flags().DurationVar(&staleAfter, "stale-after", 5*time.Minute, "Age after which a pending notification is picked up again")
	notificationWorkerCmd.Flags().IntVar(&retryBatch, "batch", 100, "Maximum notifications re-queued per sweep")

	workerCmd.AddCommand(notificationWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
