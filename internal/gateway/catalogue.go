// Package gateway implements the API gateway router (spec §4.9, C9):
// an in-memory, YAML-loaded service/route catalogue, wildcard path
// matching, method + security-group gating, and a streaming reverse
// proxy. Router wiring (middleware order, chi mux) is modeled on the
// teacher's internal/api/router.go.
package gateway

import (
	"fmt"
	"os"
	"strings"

	"github.com/mycelium-platform/mycelium/internal/config"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"gopkg.in/yaml.v3"
)

// SecurityGroupKind discriminates the access-control gate applied to a
// route before it is proxied (spec §4.9 "Security-group gate" table).
type SecurityGroupKind string

const (
	SecurityPublic                                       SecurityGroupKind = "Public"
	SecurityAuthenticated                                 SecurityGroupKind = "Authenticated"
	SecurityProtected                                     SecurityGroupKind = "Protected"
	SecurityProtectedByRoles                              SecurityGroupKind = "ProtectedByRoles"
	SecurityProtectedByPermissionedRoles                  SecurityGroupKind = "ProtectedByPermissionedRoles"
	SecurityProtectedByServiceTokenWithRole               SecurityGroupKind = "ProtectedByServiceTokenWithRole"
	SecurityProtectedByServiceTokenWithPermissionedRoles  SecurityGroupKind = "ProtectedByServiceTokenWithPermissionedRoles"
)

// RolePermissionPair is one (role, minimum-permission) requirement used
// by the "PermissionedRoles" security-group variants.
type RolePermissionPair struct {
	Role       string            `yaml:"role"`
	Permission domain.Permission `yaml:"-"`
	RawPerm    string            `yaml:"permission"`
}

// SecurityGroup is the YAML-facing form of spec §4.9's security-group
// tagged union. Roles/Pairs are populated only for the variants that
// carry them; Kind always discriminates.
type SecurityGroup struct {
	Kind  SecurityGroupKind    `yaml:"kind"`
	Roles []string             `yaml:"roles,omitempty"`
	Pairs []RolePermissionPair `yaml:"pairs,omitempty"`
}

// Route is one path entry under a Service (spec §4.9 "Route catalogue").
type Route struct {
	ID            string        `yaml:"id"`
	Service       string        `yaml:"service"`
	SecurityGroup SecurityGroup `yaml:"security_group"`
	Methods       []string      `yaml:"methods"`
	Path          string        `yaml:"path"`
	SecretName    *string       `yaml:"secret_name,omitempty"`

	// DownstreamURL is the route's own path + query string, appended to
	// the caller's path + query on proxy (spec §3 "Route downstream_url
	// + query-string extension", original_source's
	// domain/dtos/route.rs: extend_uri). Optional: a route with no
	// downstream_url proxies the caller's remainder untouched.
	DownstreamURL string `yaml:"downstream_url,omitempty"`
}

// downstreamPathAndQuery splits DownstreamURL into its path and query
// parts the way extend_uri treats its own uri/extension arguments
// separately before rejoining them.
func (r Route) downstreamPathAndQuery() (path, query string) {
	if r.DownstreamURL == "" {
		return "", ""
	}
	path, query, _ = strings.Cut(r.DownstreamURL, "?")
	return path, query
}

// methodAllowed reports whether method satisfies r.Methods (spec §4.9
// step 3: "All" allows every method, "None" disables the route).
func (r Route) methodAllowed(method string) bool {
	for _, m := range r.Methods {
		switch strings.ToUpper(m) {
		case "ALL":
			return true
		case "NONE":
			return false
		case strings.ToUpper(method):
			return true
		}
	}
	return false
}

// Service is a downstream target carrying its own route table (spec
// §4.9 "Route catalogue"). Host is a list to support the random-pick
// load balancing spec §4.9 "Downstream URI" calls for. Secrets values
// accept the "env:VAR_NAME" indirection (spec §6 "CLI / config") and
// are resolved once, at load time, into plain strings — the catalogue
// is immutable after boot (spec §5 "Shared state"), so there is no
// reason to re-resolve on every proxied request.
type Service struct {
	ID       string            `yaml:"id"`
	Name     string            `yaml:"name"`
	Host     []string          `yaml:"host"`
	Protocol string            `yaml:"protocol"`
	Routes   []Route           `yaml:"routes"`
	Secrets  map[string]string `yaml:"secrets,omitempty"`
}

// Catalogue is the read-mostly in-memory route table (spec §5 "Shared
// state": copy-on-write acceptable, readers never block). Reloading
// swaps the whole slice rather than mutating Services in place.
type Catalogue struct {
	Services []Service
}

type catalogueFile struct {
	Services []Service `yaml:"services"`
}

// LoadCatalogueFromYAML reads and parses a service/route catalogue (spec
// §6 "CLI / config": "Service catalogue supplied as YAML").
func LoadCatalogueFromYAML(path string) (*Catalogue, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway catalogue %s: %w", path, err)
	}
	var file catalogueFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse gateway catalogue %s: %w", path, err)
	}
	for si, svc := range file.Services {
		for ri := range svc.Routes {
			file.Services[si].Routes[ri].SecurityGroup.Pairs = resolvePermissions(svc.Routes[ri].SecurityGroup.Pairs)
		}
		file.Services[si].Secrets = resolveSecrets(svc.Secrets)
	}
	return &Catalogue{Services: file.Services}, nil
}

func resolveSecrets(raw map[string]string) map[string]string {
	if raw == nil {
		return nil
	}
	resolved := make(map[string]string, len(raw))
	for name, value := range raw {
		resolved[name] = config.EnvOrValue(value).Resolve()
	}
	return resolved
}

func resolvePermissions(pairs []RolePermissionPair) []RolePermissionPair {
	for i, p := range pairs {
		pairs[i].Permission = domain.ParsePermission(p.RawPerm)
	}
	return pairs
}

// ServiceByName finds a service by name (spec §4.9 matching step 1).
func (c *Catalogue) ServiceByName(name string) (Service, bool) {
	for _, s := range c.Services {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// ErrNoRouteMatch and ErrRouteConflict are the typed outcomes MatchRoute
// can fail with (spec §4.9 matching steps 2-3).
var (
	ErrNoRouteMatch    = fmt.Errorf("no route matches")
	ErrMethodNotAllowed = fmt.Errorf("method not allowed")
)

// MatchRoute wildcard-matches remainder against svc's routes (spec §4.9
// step 2: "users/*" style glob, exactly one match required) and then
// gates on method (step 3).
func MatchRoute(svc Service, method, remainder string) (Route, error) {
	var matched []Route
	for _, r := range svc.Routes {
		if pathMatches(r.Path, remainder) {
			matched = append(matched, r)
		}
	}
	switch len(matched) {
	case 0:
		return Route{}, ErrNoRouteMatch
	case 1:
		if !matched[0].methodAllowed(method) {
			return Route{}, ErrMethodNotAllowed
		}
		return matched[0], nil
	default:
		return Route{}, &ConflictError{Routes: matched}
	}
}

// ConflictError reports that more than one route matched the same
// remainder (spec §4.9 step 2: "fail Conflict with the list").
type ConflictError struct {
	Routes []Route
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d routes matched the same path", len(e.Routes))
}

// pathMatches implements the "users/*" trailing-wildcard glob spec §4.9
// names. A pattern without a "*" must match exactly.
func pathMatches(pattern, remainder string) bool {
	pattern = strings.Trim(pattern, "/")
	remainder = strings.Trim(remainder, "/")
	if !strings.Contains(pattern, "*") {
		return pattern == remainder
	}
	prefix := strings.TrimSuffix(pattern, "*")
	return strings.HasPrefix(remainder, prefix)
}
