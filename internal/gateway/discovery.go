package gateway

import (
	"encoding/json"
	"net/http"
)

// DiscoveryConfig holds the handful of values the two discovery
// endpoints need (spec §6 "Discovery"). Grounded on the teacher's
// r.Get("/.well-known/openid-configuration", ...) /
// r.Get("/.well-known/jwks.json", ...) routes in internal/api/router.go,
// generalized from serving the provider's own metadata to redirecting
// at (oauth-authorization-server) and describing (oauth-protected-resource)
// an external one.
type DiscoveryConfig struct {
	ExternalAuthorizationServerURL string
	Resource                       string
	AuthorizationServers           []string
	ScopesSupported                []string
	ResourceDocumentation          string
}

type protectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	ScopesSupported        []string `json:"scopes_supported"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	ResourceDocumentation  string   `json:"resource_documentation"`
}

// OAuthAuthorizationServer redirects to the configured external
// provider's own discovery document (spec §6).
func (c DiscoveryConfig) OAuthAuthorizationServer(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, c.ExternalAuthorizationServerURL, http.StatusFound)
}

// OAuthProtectedResource describes this gateway as a protected resource
// per RFC 9728, naming both accepted bearer methods (spec §6:
// "bearer_methods_supported:[\"header\",\"x-mycelium-connection-string\"]").
func (c DiscoveryConfig) OAuthProtectedResource(w http.ResponseWriter, r *http.Request) {
	meta := protectedResourceMetadata{
		Resource:               c.Resource,
		AuthorizationServers:   c.AuthorizationServers,
		ScopesSupported:        c.ScopesSupported,
		BearerMethodsSupported: []string{"header", "x-mycelium-connection-string"},
		ResourceDocumentation:  c.ResourceDocumentation,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(meta)
}
