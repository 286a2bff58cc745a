package connstring

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// ErrBadSignature is returned by Verify when the recomputed signature
// does not match the supplied one (spec §4.4, scenario S3).
var ErrBadSignature = fmt.Errorf("connection string signature verification failed")

// ConnectionString is a signed, typed bean list (spec §3 Token /
// ConnectionString). It may carry a tenant-scope, an account-scope, a
// user-scope, a role bean, and a permissioned-roles bean, in any
// combination the caller needs — the grammar does not mandate which
// beans are present, only that SIG (when present) is last on render and
// covers everything before it.
type ConnectionString struct {
	beans []Bean
}

// New builds an unsigned ConnectionString from the given beans (SIG, if
// present, is dropped — callers must call Sign).
func New(beans ...Bean) *ConnectionString {
	cs := &ConnectionString{}
	for _, b := range beans {
		if b.Kind != BeanSignature {
			cs.beans = append(cs.beans, b)
		}
	}
	return cs
}

// TenantIDBean, AccountIDBean, UserIDBean, RoleBean, and
// PermissionedRolesBean are convenience constructors matching spec §3's
// bean vocabulary.
func TenantIDBean(id uuid.UUID) Bean  { return Bean{Kind: BeanTenantID, Value: id.String()} }
func AccountIDBean(id uuid.UUID) Bean { return Bean{Kind: BeanAccountID, Value: id.String()} }
func UserIDBean(id uuid.UUID) Bean    { return Bean{Kind: BeanUserID, Value: id.String()} }
func RoleBean(slug string) Bean       { return Bean{Kind: BeanRole, Value: slug} }

func PermissionedRolesBean(pairs []RolePermission) Bean {
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.String()
	}
	return Bean{Kind: BeanPermissionedRoles, Value: strings.Join(parts, ",")}
}

// canonicalUnsigned renders every non-SIG bean, in stable order,
// joined by ';' — the exact byte sequence the HMAC covers (spec §4.3).
func (cs *ConnectionString) canonicalUnsigned() string {
	sorted := make([]Bean, len(cs.beans))
	copy(sorted, cs.beans)
	sortBeansStable(sorted)

	parts := make([]string, len(sorted))
	for i, b := range sorted {
		parts[i] = b.String()
	}
	return strings.Join(parts, ";")
}

// Sign recomputes SIG after removing any prior one (spec §4.4: "sign
// recomputes SIG after removing any prior one") and returns the fully
// rendered, signed string with SIG last.
func (cs *ConnectionString) Sign(signer *cryptox.Signer) string {
	canonical := cs.canonicalUnsigned()
	sig := signer.Sign(canonical)
	if canonical == "" {
		return Bean{Kind: BeanSignature, Value: sig}.String()
	}
	return canonical + ";" + Bean{Kind: BeanSignature, Value: sig}.String()
}

// Parse splits a rendered connection string back into a ConnectionString
// plus the signature bean it carried (if any). Bean keys are accepted
// case-insensitively (spec §9 decision 3).
func Parse(raw string) (*ConnectionString, string, error) {
	if raw == "" {
		return nil, "", fmt.Errorf("empty connection string")
	}

	cs := &ConnectionString{}
	var sig string
	for _, segment := range strings.Split(raw, ";") {
		bean, err := parseBean(segment)
		if err != nil {
			return nil, "", err
		}
		if bean.Kind == BeanSignature {
			sig = bean.Value
			continue
		}
		cs.beans = append(cs.beans, bean)
	}
	return cs, sig, nil
}

// Verify recomputes the signature over the non-SIG beans found in raw
// and compares it, in constant time, to the SIG bean raw carried. It
// fails ErrBadSignature if no SIG bean is present at all.
func Verify(raw string, signer *cryptox.Signer) (*ConnectionString, error) {
	cs, sig, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	if sig == "" {
		return nil, ErrBadSignature
	}
	if !signer.Verify(cs.canonicalUnsigned(), sig) {
		return nil, ErrBadSignature
	}
	return cs, nil
}

// EncodeForHeader base64-wraps a rendered connection string for the
// `x-mycelium-connection-string` transport header (spec §4.4).
func EncodeForHeader(signed string) string {
	return base64.StdEncoding.EncodeToString([]byte(signed))
}

// DecodeFromHeader reverses EncodeForHeader.
func DecodeFromHeader(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64 connection string: %w", err)
	}
	return string(raw), nil
}

// TenantID, AccountID, UserID, Role, and PermissionedRoles read the
// corresponding bean out of a parsed ConnectionString, if present.
func (cs *ConnectionString) TenantID() (uuid.UUID, bool, error) {
	return parseUUIDBean(cs.beans, BeanTenantID)
}

func (cs *ConnectionString) AccountID() (uuid.UUID, bool, error) {
	return parseUUIDBean(cs.beans, BeanAccountID)
}

func (cs *ConnectionString) UserID() (uuid.UUID, bool, error) {
	return parseUUIDBean(cs.beans, BeanUserID)
}

func (cs *ConnectionString) Role() (string, bool) {
	for _, b := range cs.beans {
		if b.Kind == BeanRole {
			return b.Value, true
		}
	}
	return "", false
}

func (cs *ConnectionString) PermissionedRoles() ([]RolePermission, error) {
	for _, b := range cs.beans {
		if b.Kind == BeanPermissionedRoles {
			if b.Value == "" {
				return nil, nil
			}
			parts := strings.Split(b.Value, ",")
			out := make([]RolePermission, 0, len(parts))
			for _, p := range parts {
				rp, err := parseRolePermission(p)
				if err != nil {
					return nil, err
				}
				out = append(out, rp)
			}
			return out, nil
		}
	}
	return nil, nil
}

// RequiredPermission pairs a role slug with the permission level a
// caller must present for that role (spec §4.4).
type RequiredPermission struct {
	RoleSlug string
	Required domain.Permission
}

// ContainTenantEnoughPermissions implements spec §4.4's
// contain_tenant_enough_permissions: Ok iff the string asserts the given
// tenant, the given role id (as the UID bean, which for service tokens
// carries the role id rather than a human user id), and at least one
// (role_slug, permission) pair in the PR bean satisfies the required
// permission under the Read/Write/ReadWrite lattice.
func (cs *ConnectionString) ContainTenantEnoughPermissions(tenantID, roleID uuid.UUID, required []RequiredPermission) error {
	gotTenant, ok, err := cs.TenantID()
	if err != nil {
		return err
	}
	if !ok || gotTenant != tenantID {
		return domain.ForbiddenErr("connection string does not assert tenant %s", tenantID)
	}

	gotUser, ok, err := cs.UserID()
	if err != nil {
		return err
	}
	if !ok || gotUser != roleID {
		return domain.ForbiddenErr("connection string does not assert role id %s", roleID)
	}

	pairs, err := cs.PermissionedRoles()
	if err != nil {
		return err
	}

	for _, want := range required {
		for _, have := range pairs {
			if have.RoleSlug == want.RoleSlug && have.Permission.Satisfies(want.Required) {
				return nil
			}
		}
	}
	return domain.ForbiddenErr("connection string does not satisfy any required (role, permission) pair")
}
