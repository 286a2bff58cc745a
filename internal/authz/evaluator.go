// Package authz implements the authorization evaluator (spec §4.6,
// component C6): a chainable builder that narrows a Profile's licensed
// resources down to the ones satisfying a request's constraints, ending
// in a single Ok/Forbidden decision. The chain-of-factories shape is
// modeled on the teacher's RBACMiddleware() func(role) ... pattern in
// internal/api/middleware/rbac.go, generalized from an HTTP middleware
// factory into a plain value chain usable from use cases and the
// gateway alike.
package authz

import (
	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// Evaluator narrows profile.LicensedResources step by step. Each With*
// call filters the current candidate set; the first predicate that
// empties it short-circuits every later call (the chain always walks
// to completion so callers can read which constraint ultimately failed,
// but GetRelatedAccountsOrError only ever returns the terminal MYC00019
// error once all constraints evaluated to an empty set).
type Evaluator struct {
	profile    *domain.Profile
	candidates []domain.LicensedResource
	failedOn   string
}

// New starts an evaluation chain over profile's licensed resources.
func New(profile *domain.Profile) *Evaluator {
	return &Evaluator{profile: profile, candidates: profile.LicensedResources}
}

func (e *Evaluator) filter(label string, keep func(domain.LicensedResource) bool) *Evaluator {
	if len(e.candidates) == 0 {
		return e
	}
	out := e.candidates[:0:0]
	for _, lr := range e.candidates {
		if keep(lr) {
			out = append(out, lr)
		}
	}
	if len(out) == 0 && e.failedOn == "" {
		e.failedOn = label
	}
	e.candidates = out
	return e
}

// OnTenant restricts to resources scoped to the given tenant.
func (e *Evaluator) OnTenant(tenantID uuid.UUID) *Evaluator {
	return e.filter("tenant", func(lr domain.LicensedResource) bool {
		return lr.TenantID == tenantID
	})
}

// WithSystemAccountsAccess restricts to resources backed by a system
// account (spec §4.1(b): guest roles marked IsSystem are the only ones
// a tenant manager may grant against a system account).
func (e *Evaluator) WithSystemAccountsAccess() *Evaluator {
	return e.filter("system-account", func(lr domain.LicensedResource) bool {
		return lr.SysAcc
	})
}

// WithRoles restricts to resources whose role slug is one of roles. An
// empty roles list is a no-op (the caller did not constrain by role).
func (e *Evaluator) WithRoles(roles ...string) *Evaluator {
	if len(roles) == 0 {
		return e
	}
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return e.filter("role", func(lr domain.LicensedResource) bool {
		_, ok := allowed[lr.Role]
		return ok
	})
}

// WithReadAccess, WithWriteAccess, and WithReadWriteAccess restrict to
// resources whose permission satisfies the named level under the
// Read/Write/ReadWrite lattice (domain.Permission.Satisfies).
func (e *Evaluator) WithReadAccess() *Evaluator {
	return e.withPermission("read", domain.PermissionRead)
}

func (e *Evaluator) WithWriteAccess() *Evaluator {
	return e.withPermission("write", domain.PermissionWrite)
}

func (e *Evaluator) WithReadWriteAccess() *Evaluator {
	return e.withPermission("read-write", domain.PermissionReadWrite)
}

func (e *Evaluator) withPermission(label string, required domain.Permission) *Evaluator {
	return e.filter(label, func(lr domain.LicensedResource) bool {
		return lr.Perm.Satisfies(required)
	})
}

// WithVerifiedOnly restricts to resources whose guest grant has been
// verified (spec §3 GLOSSARY: "Verified" flag on LicensedResource).
func (e *Evaluator) WithVerifiedOnly() *Evaluator {
	return e.filter("verified", func(lr domain.LicensedResource) bool {
		return lr.Verified
	})
}

// GetRelatedAccountsOrError returns every surviving candidate, or the
// terminal MYC00019 authorization-refused error naming the first
// constraint that emptied the set.
func (e *Evaluator) GetRelatedAccountsOrError() ([]domain.LicensedResource, *domain.MappedError) {
	if len(e.candidates) == 0 {
		if e.failedOn == "" {
			e.failedOn = "profile has no licensed resources"
		}
		return nil, domain.ForbiddenErr("authorization refused: no licensed resource satisfies constraint %q", e.failedOn)
	}
	return e.candidates, nil
}

// GetRelatedAccountOrError is the singular convenience form used by
// callers that expect exactly one match (e.g. acting-as-account
// resolution); it is an error to have more than one (spec §4.6:
// ambiguous grants are rejected rather than silently picking one).
func (e *Evaluator) GetRelatedAccountOrError() (domain.LicensedResource, *domain.MappedError) {
	matches, mErr := e.GetRelatedAccountsOrError()
	if mErr != nil {
		return domain.LicensedResource{}, mErr
	}
	if len(matches) > 1 {
		return domain.LicensedResource{}, domain.UseCaseErrWithCode(domain.CodeMultipleTokensMatched,
			"authorization is ambiguous: %d licensed resources satisfy the constraint", len(matches))
	}
	return matches[0], nil
}
