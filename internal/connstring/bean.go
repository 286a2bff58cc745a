// Package connstring implements the bean-grammar connection-string
// engine from spec §4.4 (component C4): encode/decode, HMAC signing,
// constant-time verification, and the
// contain_tenant_enough_permissions check used by the gateway's
// service-token security groups.
package connstring

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// BeanKind is one of the six bean tags from spec §3/§4.4. Parsing is
// case-insensitive (SPEC_FULL.md §4 decision 3); rendering always uses
// the canonical upper-case form below.
type BeanKind string

const (
	BeanTenantID           BeanKind = "TID"
	BeanAccountID          BeanKind = "AID"
	BeanUserID             BeanKind = "UID"
	BeanRole               BeanKind = "Role"
	BeanPermissionedRoles  BeanKind = "PR"
	BeanSignature          BeanKind = "SIG"
)

var canonicalKeyByLower = map[string]BeanKind{
	"tid":  BeanTenantID,
	"aid":  BeanAccountID,
	"uid":  BeanUserID,
	"role": BeanRole,
	"pr":   BeanPermissionedRoles,
	"sig":  BeanSignature,
}

// RolePermission is one element of a PR bean's comma-joined list:
// "role_slug:permission_int" (spec §4.4).
type RolePermission struct {
	RoleSlug   string
	Permission domain.Permission
}

func (rp RolePermission) String() string {
	return fmt.Sprintf("%s:%d", rp.RoleSlug, int(rp.Permission))
}

func parseRolePermission(s string) (RolePermission, error) {
	slug, code, ok := strings.Cut(s, ":")
	if !ok {
		return RolePermission{}, fmt.Errorf("malformed permissioned-role entry %q", s)
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return RolePermission{}, fmt.Errorf("malformed permission code in %q: %w", s, err)
	}
	return RolePermission{RoleSlug: slug, Permission: domain.Permission(n)}, nil
}

// Bean is one entry of a connection string: `KEY=value`.
type Bean struct {
	Kind  BeanKind
	Value string
}

func (b Bean) String() string {
	return fmt.Sprintf("%s=%s", b.Kind, b.Value)
}

func parseBean(raw string) (Bean, error) {
	key, value, ok := strings.Cut(raw, "=")
	if !ok {
		return Bean{}, fmt.Errorf("malformed bean %q: missing '='", raw)
	}
	kind, known := canonicalKeyByLower[strings.ToLower(key)]
	if !known {
		return Bean{}, fmt.Errorf("unknown bean key %q", key)
	}
	return Bean{Kind: kind, Value: value}, nil
}

// beanOrder fixes a stable rendering order for non-SIG beans so that
// "rendering is stable" (spec §6) even though "order of non-SIG beans
// is irrelevant to verification".
var beanOrder = map[BeanKind]int{
	BeanTenantID:          0,
	BeanAccountID:         1,
	BeanUserID:            2,
	BeanRole:              3,
	BeanPermissionedRoles: 4,
}

func sortBeansStable(beans []Bean) {
	sort.SliceStable(beans, func(i, j int) bool {
		return beanOrder[beans[i].Kind] < beanOrder[beans[j].Kind]
	})
}

// parseUUIDBean is a small helper shared by ConnectionString accessors.
func parseUUIDBean(beans []Bean, kind BeanKind) (uuid.UUID, bool, error) {
	for _, b := range beans {
		if b.Kind == kind {
			id, err := uuid.Parse(b.Value)
			if err != nil {
				return uuid.Nil, true, fmt.Errorf("bean %s has invalid uuid %q: %w", kind, b.Value, err)
			}
			return id, true, nil
		}
	}
	return uuid.Nil, false, nil
}
