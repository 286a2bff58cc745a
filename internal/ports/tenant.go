package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

// TenantRegistration is the write-side port for tenants (spec §4.2, C2).
type TenantRegistration interface {
	Create(ctx context.Context, tenant domain.Tenant) (CreateResponseKind[domain.Tenant], *domain.MappedError)
	RegisterOwner(ctx context.Context, tenantID, userID uuid.UUID) (UpdatingResponseKind[domain.Tenant], *domain.MappedError)
}

// TenantFetching is the read-side port for tenants.
type TenantFetching interface {
	FetchByID(ctx context.Context, id uuid.UUID) (FetchResponseKind[domain.Tenant], *domain.MappedError)
	FetchByName(ctx context.Context, name string) (FetchResponseKind[domain.Tenant], *domain.MappedError)
	FetchOwnershipsForUser(ctx context.Context, userID uuid.UUID) (FetchManyResponseKind[domain.TenantOwnership], *domain.MappedError)
}

// TenantDeletion is the delete-side port. Spec §3 lifecycle rule:
// "Tenants destroyed only when owner-list becomes empty and no active
// subscriptions reference them" — enforced by the use case, not here.
type TenantDeletion interface {
	Delete(ctx context.Context, id uuid.UUID) (DeletionResponseKind, *domain.MappedError)
}
