package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mycelium-platform/mycelium/internal/config"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/metrics"
	"github.com/mycelium-platform/mycelium/internal/storage/postgres"
	"github.com/mycelium-platform/mycelium/internal/webhook"
	"github.com/mycelium-platform/mycelium/pkg/logger"
)

// cmd/webhookworker boots the C8 outbox dispatcher as its own process
// (spec §4.8), separate from the gateway and the core API so a burst of
// slow downstream webhook receivers never competes with request-path
// database connections. Structured like the teacher's cmd/worker
// (background poller) rather than cmd/api (HTTP server): no mux, just a
// ticking loop plus a /metrics endpoint for scraping.
func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("webhookworker_startup", "env", env)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn, Environment: env}); err != nil {
			log.Error("sentry_init_failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	outbox := postgres.NewWebHookOutboxRepo(pool)
	hooks := postgres.NewWebHookRepo(pool)

	box, err := cryptox.NewSecretBox(cryptox.DeriveKeyFromSecret(cfg.TokenSecret))
	if err != nil {
		log.Error("secretbox_init_failed", "error", err)
		os.Exit(1)
	}

	dispatcher := webhook.NewDispatcher(&http.Client{Timeout: 10 * time.Second}, box, 5)
	worker := webhook.NewWorker(outbox, hooks, dispatcher, webhook.Config{
		PollInterval: cfg.WebhookPollInterval,
		BatchSize:    cfg.WebhookBatchSize,
		MaxAttempts:  cfg.WebhookMaxAttempts,
	})

	reg := metrics.NewRegistry()
	webhook.MustRegister(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}
	srv := &http.Server{Addr: ":" + port, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("webhookworker_metrics_listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	go func() {
		log.Info("webhookworker_polling", "interval", cfg.WebhookPollInterval)
		worker.Run(ctx)
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("webhookworker_metrics_failed", "error", err)
		cancel()
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			_ = srv.Close()
		}
		pool.Close()
		log.Info("webhookworker_shutdown_complete")
	}
}
