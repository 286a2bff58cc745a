package gateway

import (
	"net/http"
	"strings"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// Router wires the catalogue, the security gate, and the proxy behind a
// chi mux. Middleware ordering (RequestID -> RealIP -> Sentry -> custom
// logger/recovery -> rate limiter) is modeled on the teacher's
// internal/api/router.go, reused here ahead of the gateway-specific
// catalogue-match + security-gate + proxy chain that router.go there
// has no equivalent of.
type Router struct {
	Mux *chi.Mux

	catalogue *Catalogue
	gate      *Gate
	proxy     *Proxy
	verifiers ProviderVerifiers
	signer    *cryptox.Signer
	scope     string
	discovery DiscoveryConfig
}

// NewRouter builds the gateway's chi.Mux. scope is the path prefix
// requests arrive under (spec §4.9 "Matching": "/{gateway_scope}/
// {service_name}/{rest...}"), e.g. "gw".
func NewRouter(catalogue *Catalogue, gate *Gate, proxy *Proxy, verifiers ProviderVerifiers, signer *cryptox.Signer, scope string, discovery DiscoveryConfig) *Router {
	gr := &Router{
		catalogue: catalogue,
		gate:      gate,
		proxy:     proxy,
		verifiers: verifiers,
		signer:    signer,
		scope:     strings.Trim(scope, "/"),
		discovery: discovery,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	sentryHandler := sentryhttp.New(sentryhttp.Options{Repanic: true})
	r.Use(sentryHandler.Handle)

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Get("/.well-known/oauth-authorization-server", discovery.OAuthAuthorizationServer)
	r.Get("/.well-known/oauth-protected-resource", discovery.OAuthProtectedResource)

	r.Mount("/"+gr.scope, http.HandlerFunc(gr.handle))

	gr.Mux = r
	return gr
}

// handle implements spec §4.9's three-step matching algorithm followed
// by the security-group gate and the streaming proxy.
func (gr *Router) handle(w http.ResponseWriter, r *http.Request) {
	trimmed := strings.TrimPrefix(r.URL.Path, "/"+gr.scope)
	trimmed = strings.TrimPrefix(trimmed, "/")

	serviceName, remainder, _ := strings.Cut(trimmed, "/")
	if serviceName == "" {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	svc, ok := gr.catalogue.ServiceByName(serviceName)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	route, err := MatchRoute(svc, r.Method, remainder)
	if err != nil {
		switch {
		case err == ErrNoRouteMatch:
			http.Error(w, "not found", http.StatusNotFound)
		case err == ErrMethodNotAllowed:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		default:
			if _, isConflict := err.(*ConflictError); isConflict {
				http.Error(w, "conflict", http.StatusConflict)
				return
			}
			http.Error(w, "internal server error", http.StatusInternalServerError)
		}
		return
	}

	var caller *Caller
	if route.SecurityGroup.Kind != SecurityPublic {
		caller, err = ResolveCaller(r, gr.verifiers, gr.signer)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
	}

	if mErr := gr.gate.Apply(r.Context(), route, caller, r); mErr != nil {
		http.Error(w, mErr.Message, statusForKind(mErr.Kind))
		return
	}

	gr.proxy.ServeRoute(w, r, svc, route, remainder)
}

// statusForKind classifies a MappedError into one of the gateway's five
// HTTP outcomes (spec §7 "Propagation policy": "Gateway errors are
// classified as BadRequest | Unauthorized | Forbidden | MethodNotAllowed
// | InternalServerError").
func statusForKind(kind domain.Kind) int {
	switch kind {
	case domain.KindInvalidArgument:
		return http.StatusBadRequest
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
