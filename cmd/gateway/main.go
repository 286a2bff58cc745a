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
	"github.com/mycelium-platform/mycelium/internal/gateway"
	"github.com/mycelium-platform/mycelium/internal/metrics"
	"github.com/mycelium-platform/mycelium/internal/profile"
	"github.com/mycelium-platform/mycelium/internal/storage/postgres"
	"github.com/mycelium-platform/mycelium/pkg/logger"
)

// cmd/gateway boots the C9 API gateway: the YAML route catalogue, the
// security gate backed by profile.Builder, and the streaming proxy,
// behind a chi mux serving spec §4.9's matching algorithm. Structured
// the way the teacher's cmd/api/main.go boots the core API: load
// config, connect Postgres, build the dependency graph by hand, then
// run an http.Server with signal-driven graceful shutdown.
func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	log := logger.Setup(env)
	log.Info("gateway_startup", "env", env)

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

	catalogue, err := gateway.LoadCatalogueFromYAML(cfg.GatewayCatalogueDir)
	if err != nil {
		log.Error("catalogue_load_failed", "error", err)
		os.Exit(1)
	}

	users := postgres.NewUserRepo(pool)
	tenants := postgres.NewTenantRepo(pool)
	accounts := postgres.NewAccountRepo(pool)
	licensed := postgres.NewLicensedResourceRepo(pool)

	builder := profile.NewBuilder(users, tenants, accounts, licensed)
	gate := gateway.NewGate(builder)

	transport := &http.Transport{
		MaxIdleConnsPerHost: 64,
		IdleConnTimeout:     90 * time.Second,
	}
	proxy := gateway.NewProxy(transport, cfg.GatewayTimeout, log)

	signer := cryptox.NewSigner(cfg.TokenSecret)
	verifiers := gateway.ProviderVerifiers{}
	if cfg.OAuthProvider != "" {
		verifier, err := gateway.NewRSAVerifierFromPEM(os.Getenv("OAUTH_JWT_PUBLIC_KEY"))
		if err != nil {
			log.Warn("oauth_verifier_init_failed", "error", err)
		} else {
			verifiers[cfg.OAuthProvider] = verifier
		}
	}

	discovery := gateway.DiscoveryConfig{
		ExternalAuthorizationServerURL: cfg.OAuthProvider,
		Resource:                       cfg.OAuthResource,
		AuthorizationServers:           []string{cfg.OAuthProvider},
		ScopesSupported:                []string{"openid", "profile"},
		ResourceDocumentation:          cfg.OAuthResource,
	}

	router := gateway.NewRouter(catalogue, gate, proxy, verifiers, signer, cfg.GatewayScope, discovery)

	reg := metrics.NewRegistry()
	gateway.MustRegister(reg)
	router.Mux.Handle("/metrics", metrics.Handler(reg))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router.Mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.GatewayTimeout + 10*time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("gateway_listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("gateway_startup_failed", "error", err)
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
		log.Info("gateway_shutdown_complete")
	}
}
