// cmd/worker runs the janitor loop: a periodic sweep that purges
// webhook outbox rows past their terminal state (spec §3 "Lifecycle
// rules": "webhook artifacts expire by attempt count"), keeping the
// outbox table bounded instead of growing forever. Grounded on the
// teacher's own cmd/worker/main.go ticker-plus-signal shape, retargeted
// from sqlc refresh-token/invitation/MFA-code cleanup (none of which
// this domain has) to the one outbox port this domain actually defines.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mycelium-platform/mycelium/internal/config"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/mycelium-platform/mycelium/internal/storage/postgres"
	"github.com/mycelium-platform/mycelium/pkg/logger"
)

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)

	cfg, err := config.Load()
	if err != nil {
		log.Error("config_load_failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	outbox := postgres.NewWebHookOutboxRepo(pool)
	log.Info("janitor_started", "interval", "1h")

	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	runJanitor(context.Background(), outbox, cfg.WebhookMaxAttempts, log)

	for {
		select {
		case <-ticker.C:
			runJanitor(context.Background(), outbox, cfg.WebhookMaxAttempts, log)
		case <-quit:
			log.Info("janitor_shutdown")
			return
		}
	}
}

func runJanitor(ctx context.Context, outbox ports.WebHookOutbox, maxAttempts uint8, log *slog.Logger) {
	deleted, mErr := outbox.PurgeExpired(ctx, 7*24*time.Hour, maxAttempts)
	if mErr != nil {
		log.Error("webhook_outbox_purge_failed", "error", mErr.Message)
		return
	}
	if deleted > 0 {
		log.Info("webhook_outbox_purged", "deleted", deleted)
	}
}
