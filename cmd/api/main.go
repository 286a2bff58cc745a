package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mycelium-platform/mycelium/internal/api"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/config"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/notify"
	"github.com/mycelium-platform/mycelium/internal/storage/postgres"
	"github.com/mycelium-platform/mycelium/internal/usecase"
	"github.com/mycelium-platform/mycelium/pkg/logger"
)

// cmd/api boots component C7's HTTP surface: the core API sitting
// behind the gateway, exposing internal/usecase's eight orchestrators.
// Structured like the teacher's own cmd/api/main.go (config -> Sentry ->
// Postgres -> dependency graph -> http.Server with graceful shutdown),
// with the sqlc query layer and session/JWT auth service it used to
// wire replaced by this module's ports/postgres repos and use cases.
func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("api_startup", "env", env)

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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database_connect_failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	log.Info("database_connected")

	users := postgres.NewUserRepo(pool)
	tenants := postgres.NewTenantRepo(pool)
	accounts := postgres.NewAccountRepo(pool)
	guestRoles := postgres.NewGuestRoleRepo(pool)
	guestUsers := postgres.NewGuestUserRepo(pool)
	licensed := postgres.NewLicensedResourceRepo(pool)
	hooks := postgres.NewWebHookRepo(pool)
	outbox := postgres.NewWebHookOutboxRepo(pool)
	tx := postgres.NewTransactor(pool)

	auditLogger := audit.NewJSONAuditLogger()
	mailer := &notify.DevMailer{Logger: log}
	hasher := cryptox.NewArgon2Hasher()
	totp := cryptox.NewTOTPService(cfg.TOTPIssuer)
	box, err := cryptox.NewSecretBox(cryptox.DeriveKeyFromSecret(cfg.TokenSecret))
	if err != nil {
		log.Error("secretbox_init_failed", "error", err)
		os.Exit(1)
	}
	signer := cryptox.NewSigner(cfg.TokenSecret)

	// invalidate is nil: internal/profile builds callers' profiles
	// straight from storage on every gateway request, so there is no
	// cache for a guest grant/revoke to invalidate.
	svc := api.Services{
		Users:   users,
		Account: usecase.NewAccountService(accounts, accounts, accounts, accounts, tx, outbox, auditLogger),
		Tenant:  usecase.NewTenantService(tenants, tenants, tenants, tx, auditLogger),
		Guest:   usecase.NewGuestService(guestUsers, accounts, guestRoles, mailer, outbox, auditLogger, nil),
		Pass:    usecase.NewPasswordService(users, users, hasher, auditLogger),
		Roles:   usecase.NewSystemRolesService(guestRoles),
		TOTP:    usecase.NewTOTPService(users, users, totp, box, auditLogger),
		Hook:    usecase.NewWebHookService(hooks, hooks, box, auditLogger),
		ConnStr: usecase.NewConnectionStringService(licensed, signer),
	}

	server := api.NewServer(pool, svc)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      server.Router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("api_listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("api_startup_failed", "error", err)
		os.Exit(1)

	case sig := <-shutdown:
		log.Info("shutdown_signal_received", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("graceful_shutdown_failed", "error", err)
			_ = srv.Close()
		}
		pool.Close()
		log.Info("api_shutdown_complete")
	}
}
