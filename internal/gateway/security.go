package gateway

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/authz"
	"github.com/mycelium-platform/mycelium/internal/connstring"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/profile"
)

// Header names the gateway contract fixes (spec §6 "HTTP headers").
const (
	HeaderAuthorization    = "Authorization"
	HeaderConnectionString = "x-mycelium-connection-string"
	HeaderTenantID         = "x-mycelium-tenant-id"
	HeaderRole             = "x-mycelium-role"
	HeaderProfile          = "x-mycelium-profile"
	HeaderProvider         = "x-mycelium-provider"
	HeaderForwardedFor     = "X-Forwarded-For"

	// HeaderEmail carries the caller's verified email for the
	// Authenticated security group. Not named in the spec's header
	// table directly, but required by its "Header injected" column
	// ("user email") — namespaced alongside the other x-mycelium-*
	// injected headers.
	HeaderEmail = "x-mycelium-email"

	// HeaderAccountID names which account the caller is acting as.
	// Profile.Build requires a concrete AccountID; for service tokens
	// this is carried by the connection string's AID bean, but bearer
	// JWT callers have no such bean, so Protected/ProtectedByRoles
	// routes require this header the same way x-mycelium-tenant-id
	// scopes the tenant.
	HeaderAccountID = "x-mycelium-account-id"
)

// ErrUnauthenticated means neither a bearer token nor a connection
// string was presented where one was required.
var ErrUnauthenticated = fmt.Errorf("no credential presented")

// Caller is what ResolveCaller extracts from the inbound request before
// any route-specific gating runs.
type Caller struct {
	Email      string
	TenantID   *uuid.UUID
	AccountID  *uuid.UUID // from the connection string's AID bean, when present
	ConnString *connstring.ConnectionString
	RoleID     uuid.UUID // the connection string's UID bean, for service tokens
}

// ResolveCaller inspects Authorization and x-mycelium-connection-string
// and produces a Caller. It strips any inbound x-mycelium-profile header
// first so a forged one can never reach downstream (spec §8 testable
// property 7: "the gateway strips any inbound x-mycelium-profile before
// injecting its own").
func ResolveCaller(r *http.Request, verifiers ProviderVerifiers, signer *cryptox.Signer) (*Caller, error) {
	r.Header.Del(HeaderProfile)

	if raw := bearerToken(r); raw != "" {
		verifier, err := verifiers.Resolve(r.Header.Get(HeaderProvider))
		if err != nil {
			return nil, err
		}
		claims, err := verifier.Verify(raw)
		if err != nil {
			return nil, err
		}
		var tenantID *uuid.UUID
		if claims.TenantID != uuid.Nil {
			tid := claims.TenantID
			tenantID = &tid
		}
		return &Caller{Email: claims.Email, TenantID: tenantID}, nil
	}

	if header := r.Header.Get(HeaderConnectionString); header != "" {
		decoded, err := connstring.DecodeFromHeader(header)
		if err != nil {
			return nil, err
		}
		cs, err := connstring.Verify(decoded, signer)
		if err != nil {
			return nil, err
		}
		caller := &Caller{ConnString: cs}
		if roleID, ok, err := cs.UserID(); err == nil && ok {
			caller.RoleID = roleID
		}
		if tid, ok, err := cs.TenantID(); err == nil && ok {
			caller.TenantID = &tid
		}
		if aid, ok, err := cs.AccountID(); err == nil && ok {
			caller.AccountID = &aid
		}
		return caller, nil
	}

	return nil, ErrUnauthenticated
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get(HeaderAuthorization)
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}

// Gate applies a route's SecurityGroup to a resolved Caller, injecting
// the header spec §4.9's table names directly onto req — the same
// *http.Request the proxy forwards downstream, so the gate and the
// proxy never duplicate header-mutation logic.
type Gate struct {
	builder *profile.Builder
}

func NewGate(builder *profile.Builder) *Gate {
	return &Gate{builder: builder}
}

// Apply runs the security-group gate for route against caller, mutating
// req in place. The "acting as" account for Profile building is
// resolved from the connection string's AID bean when the caller
// presented one, else from the required x-mycelium-account-id header.
func (g *Gate) Apply(ctx context.Context, route Route, caller *Caller, req *http.Request) *domain.MappedError {
	switch route.SecurityGroup.Kind {
	case SecurityPublic:
		return nil

	case SecurityAuthenticated:
		if caller == nil || caller.Email == "" {
			return domain.ForbiddenErr("authentication required for route %s", route.ID)
		}
		req.Header.Set(HeaderEmail, caller.Email)
		return nil

	case SecurityProtected:
		prof, mErr := g.buildProfile(ctx, caller, req)
		if mErr != nil {
			return mErr
		}
		return injectProfile(req, prof)

	case SecurityProtectedByRoles:
		prof, mErr := g.buildProfile(ctx, caller, req)
		if mErr != nil {
			return mErr
		}
		filtered, mErr := authz.New(prof).WithRoles(route.SecurityGroup.Roles...).GetRelatedAccountsOrError()
		if mErr != nil {
			return mErr
		}
		return injectProfile(req, withLicensedResources(prof, filtered))

	case SecurityProtectedByPermissionedRoles:
		prof, mErr := g.buildProfile(ctx, caller, req)
		if mErr != nil {
			return mErr
		}
		filtered, mErr := filterByPairs(prof, route.SecurityGroup.Pairs)
		if mErr != nil {
			return mErr
		}
		return injectProfile(req, withLicensedResources(prof, filtered))

	case SecurityProtectedByServiceTokenWithRole:
		if caller == nil || caller.ConnString == nil {
			return domain.ForbiddenErr("service token required for route %s", route.ID)
		}
		role, ok := caller.ConnString.Role()
		if !ok || !containsString(route.SecurityGroup.Roles, role) {
			return domain.ForbiddenErr("service token does not carry an authorized role for route %s", route.ID)
		}
		// The connection string is already present on req (it arrived
		// inbound on the same header the gateway forwards); nothing
		// further to inject.
		return nil

	case SecurityProtectedByServiceTokenWithPermissionedRoles:
		if caller == nil || caller.ConnString == nil || caller.TenantID == nil {
			return domain.ForbiddenErr("service token required for route %s", route.ID)
		}
		required := make([]connstring.RequiredPermission, len(route.SecurityGroup.Pairs))
		for i, p := range route.SecurityGroup.Pairs {
			required[i] = connstring.RequiredPermission{RoleSlug: p.Role, Required: p.Permission}
		}
		if err := caller.ConnString.ContainTenantEnoughPermissions(*caller.TenantID, caller.RoleID, required); err != nil {
			return domain.ForbiddenErr("%v", err)
		}
		return nil

	default:
		return domain.ForbiddenErr("unknown security group kind %q", route.SecurityGroup.Kind)
	}
}

func (g *Gate) buildProfile(ctx context.Context, caller *Caller, req *http.Request) (*domain.Profile, *domain.MappedError) {
	if caller == nil || caller.Email == "" {
		return nil, domain.ForbiddenErr("authentication required")
	}
	accountID, mErr := resolveAccountID(caller, req)
	if mErr != nil {
		return nil, mErr
	}
	return g.builder.Build(ctx, profile.Request{Email: caller.Email, AccountID: accountID, TenantID: caller.TenantID})
}

// resolveAccountID prefers the connection string's AID bean, falling
// back to the x-mycelium-account-id header for bearer-JWT callers who
// carry no connection string.
func resolveAccountID(caller *Caller, req *http.Request) (uuid.UUID, *domain.MappedError) {
	if caller.AccountID != nil {
		return *caller.AccountID, nil
	}
	raw := req.Header.Get(HeaderAccountID)
	if raw == "" {
		return uuid.Nil, domain.ForbiddenErr("missing %s header: no acting-as account resolvable", HeaderAccountID)
	}
	accountID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ForbiddenErr("invalid %s header: %v", HeaderAccountID, err)
	}
	return accountID, nil
}

func withLicensedResources(prof *domain.Profile, lrs []domain.LicensedResource) *domain.Profile {
	narrowed := *prof
	narrowed.LicensedResources = lrs
	return &narrowed
}

// filterByPairs keeps the licensed resources matching any (role,
// permission) pair (spec §4.9 table: "Profile filtered by (role,perm)
// pairs" is an OR across the pair set, each pair an AND of role and
// permission).
func filterByPairs(prof *domain.Profile, pairs []RolePermissionPair) ([]domain.LicensedResource, *domain.MappedError) {
	var out []domain.LicensedResource
	for _, lr := range prof.LicensedResources {
		for _, p := range pairs {
			if lr.Role == p.Role && lr.Perm.Satisfies(p.Permission) {
				out = append(out, lr)
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, domain.ForbiddenErr("authorization refused: no licensed resource satisfies any (role, permission) pair")
	}
	return out, nil
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// injectProfile sets x-mycelium-profile to base64(gzip(json(Profile)))
// (spec §6, §4.9 table).
func injectProfile(req *http.Request, prof *domain.Profile) *domain.MappedError {
	encoded, err := encodeProfileHeader(prof)
	if err != nil {
		return domain.ExecutionErr("failed to encode profile header: %v", err)
	}
	req.Header.Set(HeaderProfile, encoded)
	return nil
}

func encodeProfileHeader(prof *domain.Profile) (string, error) {
	raw, err := json.Marshal(prof)
	if err != nil {
		return "", fmt.Errorf("failed to marshal profile: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return "", fmt.Errorf("failed to gzip profile: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("failed to close gzip writer: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DecodeProfileHeader reverses encodeProfileHeader. Exported so
// downstream services sitting behind the gateway (internal/api) can
// parse x-mycelium-profile themselves instead of re-deriving it.
func DecodeProfileHeader(encoded string) (*domain.Profile, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 profile header: %w", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("invalid gzip profile header: %w", err)
	}
	defer gz.Close()
	decompressed, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress profile header: %w", err)
	}
	var prof domain.Profile
	if err := json.Unmarshal(decompressed, &prof); err != nil {
		return nil, fmt.Errorf("invalid profile JSON: %w", err)
	}
	return &prof, nil
}
