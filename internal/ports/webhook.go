package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
)

type WebHookRegistration interface {
	Create(ctx context.Context, hook domain.WebHook) (CreateResponseKind[domain.WebHook], *domain.MappedError)
}

type WebHookFetching interface {
	ListByTrigger(ctx context.Context, trigger domain.WebHookTrigger) (FetchManyResponseKind[domain.WebHook], *domain.MappedError)
}

type WebHookDeletion interface {
	Delete(ctx context.Context, id uuid.UUID) (DeletionResponseKind, *domain.MappedError)
}

// WebHookOutbox is the durable outbox port (spec §4.8): append a row in
// the same transaction as the business write, and let the dispatcher
// worker pull pending/failed rows back out.
type WebHookOutbox interface {
	Append(ctx context.Context, artifact domain.WebHookPayloadArtifact) (CreateResponseKind[domain.WebHookPayloadArtifact], *domain.MappedError)
	FetchBatch(ctx context.Context, maxAttempts uint8, batchSize int) (FetchManyResponseKind[domain.WebHookPayloadArtifact], *domain.MappedError)
	UpdateAfterDispatch(ctx context.Context, artifact domain.WebHookPayloadArtifact) (UpdatingResponseKind[domain.WebHookPayloadArtifact], *domain.MappedError)

	// PurgeExpired deletes terminal outbox rows older than olderThan:
	// delivered artifacts, and failed ones that have exhausted
	// maxAttempts (spec §3 "Lifecycle rules": "webhook artifacts expire
	// by attempt count"). It returns the number of rows removed.
	PurgeExpired(ctx context.Context, olderThan time.Duration, maxAttempts uint8) (int64, *domain.MappedError)
}
