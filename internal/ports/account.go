package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

type AccountRegistration interface {
	Create(ctx context.Context, account domain.Account) (CreateResponseKind[domain.Account], *domain.MappedError)
	GetOrCreateUserAccount(ctx context.Context, account domain.Account) (GetOrCreateResponseKind[domain.Account], *domain.MappedError)
}

type AccountFetching interface {
	FetchByID(ctx context.Context, id uuid.UUID) (FetchResponseKind[domain.Account], *domain.MappedError)
	FetchBySlug(ctx context.Context, tenantID *uuid.UUID, slug string) (FetchResponseKind[domain.Account], *domain.MappedError)
	FetchManyByTenant(ctx context.Context, tenantID uuid.UUID, skip, size int64) (FetchManyResponseKind[domain.Account], *domain.MappedError)
}

type AccountUpdating interface {
	UpdateStatus(ctx context.Context, id uuid.UUID, isActive, isChecked, isArchived bool) (UpdatingResponseKind[domain.Account], *domain.MappedError)
	UpdateOwners(ctx context.Context, id uuid.UUID, owners []domain.UserRef) (UpdatingResponseKind[domain.Account], *domain.MappedError)
	UpdateMeta(ctx context.Context, id uuid.UUID, meta map[string]string) (UpdatingResponseKind[domain.Account], *domain.MappedError)
	UpdateTags(ctx context.Context, id uuid.UUID, tags []string) (UpdatingResponseKind[domain.Account], *domain.MappedError)
}

type AccountDeletion interface {
	Delete(ctx context.Context, id uuid.UUID) (DeletionResponseKind, *domain.MappedError)
}
