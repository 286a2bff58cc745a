// Package api implements component C7's HTTP surface: the "core API"
// that sits behind the gateway (internal/gateway) and exposes the
// internal/usecase orchestrators over chi, grounded on the teacher's
// internal/api/router.go middleware chain and Server/NewServer shape.
// Unlike the teacher, this server never authenticates a caller itself —
// every request it sees has already passed through the gateway's Gate,
// which injects the x-mycelium-* headers internal/api/middleware.
// TrustGatewayHeaders reads (spec §4.9); there is no second JWT check,
// session, or CSRF layer here, since this API has no browser-facing
// cookie surface.
package api

import (
	"log/slog"

	customMiddleware "github.com/mycelium-platform/mycelium/internal/api/middleware"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/mycelium-platform/mycelium/internal/usecase"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Services bundles the C7 orchestrators NewServer wires onto routes.
type Services struct {
	Users   ports.UserFetching
	Account *usecase.AccountService
	Tenant  *usecase.TenantService
	Guest   *usecase.GuestService
	Pass    *usecase.PasswordService
	Roles   *usecase.SystemRolesService
	TOTP    *usecase.TOTPService
	Hook    *usecase.WebHookService
	ConnStr *usecase.ConnectionStringService
}

// Server wires every C7 use-case service onto chi routes, mirroring the
// teacher's Server{Router, DB, Pool, ...} shape.
type Server struct {
	Router *chi.Mux
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	Services
}

func NewServer(pool *pgxpool.Pool, svc Services) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	r.Use(customMiddleware.RequestLogger)
	r.Use(customMiddleware.PanicRecovery)

	limiter := customMiddleware.NewIPRateLimiter(20, 40)
	r.Use(limiter.Middleware)

	r.Use(customMiddleware.TrustGatewayHeaders)

	server := &Server{
		Router:   r,
		Pool:     pool,
		Logger:   slog.Default(),
		Services: svc,
	}

	r.Get("/health", server.HealthHandler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", server.CreateUserAccount)
			r.Post("/role-associated", server.CreateRoleAssociatedAccount)
			r.Patch("/{accountID}/status", server.UpdateAccountStatus)
			r.Delete("/{accountID}", server.DeleteAccount)
		})

		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", server.CreateTenant)
			r.Post("/{tenantID}/owners/{userID}", server.RegisterTenantOwner)
			r.Delete("/{tenantID}", server.DeleteTenant)
		})

		r.Route("/guests", func(r chi.Router) {
			r.Post("/", server.GuestUser)
			r.Delete("/", server.RevokeGuest)
		})

		r.Put("/password", server.ChangePassword)

		r.Post("/system-roles/seed", server.SeedSystemRoles)

		r.Route("/totp", func(r chi.Router) {
			r.Post("/enable", server.EnableTOTP)
			r.Post("/finish", server.FinishTOTP)
			r.Post("/disable", server.DisableTOTP)
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/", server.RegisterWebHook)
			r.Delete("/{hookID}", server.UnregisterWebHook)
		})

		r.Get("/connection-strings", server.ListMyConnectionStrings)
	})

	return server
}
