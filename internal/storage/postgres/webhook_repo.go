package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// WebHookRepo implements the C2 webhook-registration ports.
type WebHookRepo struct {
	pool *pgxpool.Pool
}

func NewWebHookRepo(pool *pgxpool.Pool) *WebHookRepo {
	return &WebHookRepo{pool: pool}
}

func (r *WebHookRepo) Create(ctx context.Context, hook domain.WebHook) (ports.CreateResponseKind[domain.WebHook], *domain.MappedError) {
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO webhooks (id, name, description, url, trigger, secret_enc, is_active, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		hook.ID, hook.Name, hook.Description, hook.URL, hook.Trigger, hook.SecretEnc, hook.IsActive, hook.Created, hook.Updated)
	if err != nil {
		return ports.CreateResponseKind[domain.WebHook]{}, domain.CreationErr(false, "failed to insert webhook: %v", err)
	}
	return ports.CreateResponseKind[domain.WebHook]{Created: true, Record: hook}, nil
}

func (r *WebHookRepo) ListByTrigger(ctx context.Context, trigger domain.WebHookTrigger) (ports.FetchManyResponseKind[domain.WebHook], *domain.MappedError) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id, name, description, url, trigger, secret_enc, is_active, created, updated
		FROM webhooks WHERE trigger = $1 AND is_active = true`, trigger)
	if err != nil {
		return ports.FetchManyResponseKind[domain.WebHook]{}, domain.FetchingErr(false, "failed to fetch webhooks: %v", err)
	}
	defer rows.Close()

	var out []domain.WebHook
	for rows.Next() {
		var h domain.WebHook
		if err := rows.Scan(&h.ID, &h.Name, &h.Description, &h.URL, &h.Trigger, &h.SecretEnc, &h.IsActive, &h.Created, &h.Updated); err != nil {
			return ports.FetchManyResponseKind[domain.WebHook]{}, domain.FetchingErr(false, "failed to scan webhook: %v", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return ports.FetchManyResponseKind[domain.WebHook]{}, domain.FetchingErr(false, "failed to iterate webhooks: %v", err)
	}
	return ports.FetchManyResponseKind[domain.WebHook]{Found: len(out) > 0, Records: out, Count: int64(len(out))}, nil
}

func (r *WebHookRepo) Delete(ctx context.Context, id uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM webhooks WHERE id = $1`, id)
	if err != nil {
		return ports.DeletionResponseKind{}, domain.DeletionErr(false, "failed to delete webhook: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.DeletionResponseKind{Deleted: false, NotDeleted: true, Reason: "webhook not found"}, nil
	}
	return ports.DeletionResponseKind{Deleted: true}, nil
}

// WebHookOutboxRepo implements ports.WebHookOutbox (spec §4.8): the
// durable outbox table the dispatcher worker polls. Grounded on the
// teacher's internal/mailer outbox table shape, generalized from email
// sends to arbitrary HTTP fan-out artifacts.
type WebHookOutboxRepo struct {
	pool *pgxpool.Pool
}

func NewWebHookOutboxRepo(pool *pgxpool.Pool) *WebHookOutboxRepo {
	return &WebHookOutboxRepo{pool: pool}
}

func (r *WebHookOutboxRepo) Append(ctx context.Context, artifact domain.WebHookPayloadArtifact) (ports.CreateResponseKind[domain.WebHookPayloadArtifact], *domain.MappedError) {
	propagations, err := json.Marshal(artifact.Propagations)
	if err != nil {
		return ports.CreateResponseKind[domain.WebHookPayloadArtifact]{}, domain.ExecutionErr("failed to marshal propagations: %v", err)
	}

	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO webhook_outbox (id, payload_b64, trigger, propagations, encrypted, attempts, attempted, created, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		artifact.ID, artifact.PayloadB64, artifact.Trigger, propagations, artifact.Encrypted,
		artifact.Attempts, artifact.Attempted, artifact.Created, artifact.Status)
	if err != nil {
		return ports.CreateResponseKind[domain.WebHookPayloadArtifact]{}, domain.CreationErr(false, "failed to insert webhook outbox artifact: %v", err)
	}
	return ports.CreateResponseKind[domain.WebHookPayloadArtifact]{Created: true, Record: artifact}, nil
}

// FetchBatch pulls up to batchSize Pending/Failed rows under their
// attempt budget, locking them against a concurrent poller (spec §5
// "resource acquisition": two dispatcher workers must not double-send
// the same artifact).
func (r *WebHookOutboxRepo) FetchBatch(ctx context.Context, maxAttempts uint8, batchSize int) (ports.FetchManyResponseKind[domain.WebHookPayloadArtifact], *domain.MappedError) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id, payload_b64, trigger, propagations, encrypted, attempts, attempted, created, status
		FROM webhook_outbox
		WHERE status IN ('Pending', 'Failed') AND attempts < $1
		ORDER BY created
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, maxAttempts, batchSize)
	if err != nil {
		return ports.FetchManyResponseKind[domain.WebHookPayloadArtifact]{}, domain.FetchingErr(false, "failed to fetch outbox batch: %v", err)
	}
	defer rows.Close()

	var out []domain.WebHookPayloadArtifact
	for rows.Next() {
		artifact, mErr := scanArtifact(rows)
		if mErr != nil {
			return ports.FetchManyResponseKind[domain.WebHookPayloadArtifact]{}, mErr
		}
		out = append(out, artifact)
	}
	if err := rows.Err(); err != nil {
		return ports.FetchManyResponseKind[domain.WebHookPayloadArtifact]{}, domain.FetchingErr(false, "failed to iterate outbox batch: %v", err)
	}
	return ports.FetchManyResponseKind[domain.WebHookPayloadArtifact]{Found: len(out) > 0, Records: out, Count: int64(len(out))}, nil
}

func scanArtifact(row rowScanner) (domain.WebHookPayloadArtifact, *domain.MappedError) {
	var a domain.WebHookPayloadArtifact
	var propagationsRaw []byte
	err := row.Scan(&a.ID, &a.PayloadB64, &a.Trigger, &propagationsRaw, &a.Encrypted, &a.Attempts, &a.Attempted, &a.Created, &a.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.WebHookPayloadArtifact{}, domain.FetchingErr(false, "outbox artifact not found")
	}
	if err != nil {
		return domain.WebHookPayloadArtifact{}, domain.FetchingErr(false, "failed to scan outbox artifact: %v", err)
	}
	if err := json.Unmarshal(propagationsRaw, &a.Propagations); err != nil {
		return domain.WebHookPayloadArtifact{}, domain.ExecutionErr("failed to unmarshal propagations: %v", err)
	}
	return a, nil
}

func (r *WebHookOutboxRepo) UpdateAfterDispatch(ctx context.Context, artifact domain.WebHookPayloadArtifact) (ports.UpdatingResponseKind[domain.WebHookPayloadArtifact], *domain.MappedError) {
	propagations, err := json.Marshal(artifact.Propagations)
	if err != nil {
		return ports.UpdatingResponseKind[domain.WebHookPayloadArtifact]{}, domain.ExecutionErr("failed to marshal propagations: %v", err)
	}

	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE webhook_outbox
		SET propagations = $2, attempts = $3, attempted = $4, status = $5
		WHERE id = $1`,
		artifact.ID, propagations, artifact.Attempts, artifact.Attempted, artifact.Status)
	if err != nil {
		return ports.UpdatingResponseKind[domain.WebHookPayloadArtifact]{}, domain.UpdatingErr(false, "failed to update outbox artifact: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.UpdatingResponseKind[domain.WebHookPayloadArtifact]{Updated: false, Reason: "outbox artifact not found"}, nil
	}
	return ports.UpdatingResponseKind[domain.WebHookPayloadArtifact]{Updated: true, Record: artifact}, nil
}

// PurgeExpired implements ports.WebHookOutbox. A row is eligible once it
// is older than olderThan and either delivered (Success) or has
// exhausted its retry budget (Failed with attempts >= maxAttempts) —
// the dispatcher's FetchBatch already ignores rows past maxAttempts, so
// leaving them around serves no purpose but table bloat.
func (r *WebHookOutboxRepo) PurgeExpired(ctx context.Context, olderThan time.Duration, maxAttempts uint8) (int64, *domain.MappedError) {
	cutoff := time.Now().Add(-olderThan)
	tag, err := db(ctx, r.pool).Exec(ctx, `
		DELETE FROM webhook_outbox
		WHERE created < $1
		  AND (status = 'Success' OR (status = 'Failed' AND attempts >= $2))`,
		cutoff, maxAttempts)
	if err != nil {
		return 0, domain.DeletionErr(false, "failed to purge webhook outbox: %v", err)
	}
	return tag.RowsAffected(), nil
}
