package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoveryConfig_OAuthAuthorizationServerRedirects(t *testing.T) {
	cfg := DiscoveryConfig{ExternalAuthorizationServerURL: "https://idp.example.com/.well-known/openid-configuration"}

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-authorization-server", nil)
	rec := httptest.NewRecorder()

	cfg.OAuthAuthorizationServer(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, cfg.ExternalAuthorizationServerURL, rec.Header().Get("Location"))
}

func TestDiscoveryConfig_OAuthProtectedResourceBody(t *testing.T) {
	cfg := DiscoveryConfig{
		Resource:              "https://gateway.example.com",
		AuthorizationServers:  []string{"https://idp.example.com"},
		ScopesSupported:       []string{"openid", "profile"},
		ResourceDocumentation: "https://docs.example.com/gateway",
	}

	req := httptest.NewRequest(http.MethodGet, "/.well-known/oauth-protected-resource", nil)
	rec := httptest.NewRecorder()

	cfg.OAuthProtectedResource(rec, req)

	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body protectedResourceMetadata
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, cfg.Resource, body.Resource)
	assert.Equal(t, cfg.AuthorizationServers, body.AuthorizationServers)
	assert.Equal(t, []string{"header", "x-mycelium-connection-string"}, body.BearerMethodsSupported)
}
