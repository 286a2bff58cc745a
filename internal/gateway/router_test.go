package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRouter_PublicRouteProxiedMethodNotAllowed covers the spec's gateway
// scenario: a public GET-only route is proxied on a matching method and
// rejected with 405 on a mismatched one.
func TestRouter_PublicRouteProxiedMethodNotAllowed(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("downstream"))
	}))
	defer backend.Close()

	catalogueYAML := fmt.Sprintf(`
services:
  - id: svc-1
    name: svc
    host: ["%s"]
    protocol: http
    routes:
      - id: users
        service: svc
        security_group:
          kind: Public
        methods: [GET]
        path: users/*
`, backend.Listener.Addr().String())

	path := writeCatalogue(t, catalogueYAML)
	catalogue, err := LoadCatalogueFromYAML(path)
	require.NoError(t, err)

	gate := newTestGate(nil)
	proxy := NewProxy(http.DefaultTransport, 5*time.Second, slog.Default())
	signer := cryptox.NewSigner("proc-secret")
	router := NewRouter(catalogue, gate, proxy, ProviderVerifiers{}, signer, "gw", DiscoveryConfig{})

	getReq := httptest.NewRequest(http.MethodGet, "/gw/svc/users/42", nil)
	getRec := httptest.NewRecorder()
	router.Mux.ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusOK, getRec.Code)
	assert.Equal(t, "downstream", getRec.Body.String())

	postReq := httptest.NewRequest(http.MethodPost, "/gw/svc/users/42", nil)
	postRec := httptest.NewRecorder()
	router.Mux.ServeHTTP(postRec, postReq)
	assert.Equal(t, http.StatusMethodNotAllowed, postRec.Code)
}

func TestRouter_UnknownServiceNotFound(t *testing.T) {
	catalogue := &Catalogue{}
	gate := newTestGate(nil)
	proxy := NewProxy(http.DefaultTransport, 5*time.Second, slog.Default())
	signer := cryptox.NewSigner("proc-secret")
	router := NewRouter(catalogue, gate, proxy, ProviderVerifiers{}, signer, "gw", DiscoveryConfig{})

	req := httptest.NewRequest(http.MethodGet, "/gw/nope/anything", nil)
	rec := httptest.NewRecorder()
	router.Mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_ProtectedRouteRequiresCredential(t *testing.T) {
	catalogueYAML := `
services:
  - id: svc-1
    name: svc
    host: ["127.0.0.1:1"]
    protocol: http
    routes:
      - id: admin
        service: svc
        security_group:
          kind: Authenticated
        methods: [GET]
        path: admin
`
	path := writeCatalogue(t, catalogueYAML)
	catalogue, err := LoadCatalogueFromYAML(path)
	require.NoError(t, err)

	gate := newTestGate(nil)
	proxy := NewProxy(http.DefaultTransport, 5*time.Second, slog.Default())
	signer := cryptox.NewSigner("proc-secret")
	router := NewRouter(catalogue, gate, proxy, ProviderVerifiers{}, signer, "gw", DiscoveryConfig{})

	req := httptest.NewRequest(http.MethodGet, "/gw/svc/admin", nil)
	rec := httptest.NewRecorder()
	router.Mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
