package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/movelane/payments/internal/collab"
	"github.com/movelane/payments/internal/config"
	"github.com/movelane/payments/internal/db"
	"github.com/movelane/payments/internal/handlers"
	"github.com/movelane/payments/internal/health"
	"github.com/movelane/payments/internal/provider"
	"github.com/movelane/payments/internal/repository"
	"github.com/movelane/payments/internal/service"
	"github.com/movelane/payments/internal/throttle"
	"github.com/movelane/payments/internal/webhook"
	"github.com/movelane/payments/internal/worker"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the payments API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := cfg.Logger.NewLogger()
	slog.SetDefault(logger)

	logger.Info("starting payments api",
		"port", cfg.Server.Port,
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
	)

	database, err := db.Connect(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return err
	}
	defer database.Close()

	events, err := config.LoadEventMapping()
	if err != nil {
		logger.Error("failed to load event mapping", "error", err)
		return err
	}

	// Background goroutines share one cancellable context so shutdown is a
	// single cancel plus pool drain.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	paymentsRepo := repository.NewPaymentRepository(database)
	refundsRepo := repository.NewRefundRepository(database)

	providerClient := provider.NewClient(&cfg.Provider, logger)
	verifier := webhook.NewVerifier(&cfg.Webhook, logger)

	limiter := throttle.NewLimiter(cfg.App.ThrottleMaxAttempts, cfg.App.ThrottleWindow)
	go limiter.Run(runCtx)

	pool := worker.NewPool(cfg.App.FulfillmentWorkers, cfg.App.FulfillmentQueueSize, logger)
	pool.Start(runCtx)
	defer pool.Stop()

	fulfillment := service.NewFulfillmentCoordinator(
		collab.NewBookingClient(logger),
		collab.NewNotificationClient(logger),
		collab.NewReceiptClient(logger),
		logger,
	)

	webhookProcessor := service.NewWebhookProcessor(database, verifier, events, pool, fulfillment, logger)
	paymentService := service.NewPaymentService(paymentsRepo, providerClient, limiter, cfg.App.IdempotencyBucket, logger)
	refundService := service.NewRefundService(paymentsRepo, refundsRepo, providerClient, logger)

	monitor := health.NewMonitor(paymentsRepo, cfg.Monitor, logger)
	go monitor.Run(runCtx)

	go retrySweep(runCtx, webhookProcessor, cfg.App, logger)

	router := handlers.NewRouter(
		paymentService,
		paymentService,
		refundService,
		webhookProcessor,
		database,
		monitor,
		logger,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		return err
	case <-quit:
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// retrySweep periodically re-applies events that were durably recorded but
// never processed (unknown checkouts, transient database failures).
func retrySweep(ctx context.Context, processor *service.WebhookProcessor, cfg config.AppConfig, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.WebhookRetrySweep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			retried, err := processor.RetryUnprocessed(ctx, cfg.WebhookRetrySweep, cfg.WebhookRetryBatch)
			if err != nil {
				logger.Error("webhook retry sweep failed", "error", err)
				continue
			}
			if retried > 0 {
				logger.Info("webhook retry sweep completed", "retried", retried)
			}
		}
	}
}
