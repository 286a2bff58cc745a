package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

type UserRegistration interface {
	Create(ctx context.Context, user domain.User) (CreateResponseKind[domain.User], *domain.MappedError)
}

type UserFetching interface {
	FetchByID(ctx context.Context, id uuid.UUID) (FetchResponseKind[domain.User], *domain.MappedError)
	FetchByEmail(ctx context.Context, email string) (FetchResponseKind[domain.User], *domain.MappedError)
}

type UserUpdating interface {
	UpdatePassword(ctx context.Context, id uuid.UUID, newHash string) (UpdatingResponseKind[domain.User], *domain.MappedError)
	UpdateMFA(ctx context.Context, id uuid.UUID, mfa domain.TOTPState) (UpdatingResponseKind[domain.User], *domain.MappedError)
}

type UserDeletion interface {
	Delete(ctx context.Context, id uuid.UUID) (DeletionResponseKind, *domain.MappedError)
}
