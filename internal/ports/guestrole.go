package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

type GuestRoleRegistration interface {
	GetOrCreate(ctx context.Context, role domain.GuestRole) (GetOrCreateResponseKind[domain.GuestRole], *domain.MappedError)
}

type GuestRoleFetching interface {
	FetchByID(ctx context.Context, id uuid.UUID) (FetchResponseKind[domain.GuestRole], *domain.MappedError)
	FetchBySlug(ctx context.Context, slug string) (FetchResponseKind[domain.GuestRole], *domain.MappedError)
	FetchSystemRoles(ctx context.Context) (FetchManyResponseKind[domain.GuestRole], *domain.MappedError)
}

// GuestUserRegistration manages the guest-user grant row: "email X may
// act as role R on account A" (spec §3 GLOSSARY).
type GuestUserRegistration interface {
	// Create is idempotent on (email, role_id, account_id); returns
	// MYC00017 on a unique-constraint violation (spec §4.7).
	Create(ctx context.Context, email string, roleID, accountID uuid.UUID) (CreateResponseKind[uuid.UUID], *domain.MappedError)
	Revoke(ctx context.Context, email string, roleID, accountID uuid.UUID) (DeletionResponseKind, *domain.MappedError)
}

// LicensedResourceFetching is the read side of the licensed-resource
// JOIN view (spec §3, §4.5 step 3).
type LicensedResourceFetching interface {
	FetchForEmail(ctx context.Context, email string, tenantID *uuid.UUID, roles []string, verifiedOnly bool) (domain.LicensedResources, *domain.MappedError)
}
