package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// TenantRepo implements the C2 tenant ports. Owners, Meta and Status are
// all small tagged collections (spec §3) stored as jsonb columns rather
// than normalized join tables, the same simplification the teacher
// applies to its own session/role metadata columns.
type TenantRepo struct {
	pool *pgxpool.Pool
}

func NewTenantRepo(pool *pgxpool.Pool) *TenantRepo {
	return &TenantRepo{pool: pool}
}

func (r *TenantRepo) Create(ctx context.Context, tenant domain.Tenant) (ports.CreateResponseKind[domain.Tenant], *domain.MappedError) {
	owners, err := json.Marshal(tenant.Owners)
	if err != nil {
		return ports.CreateResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to marshal owners: %v", err)
	}
	meta, err := json.Marshal(tenant.Meta)
	if err != nil {
		return ports.CreateResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to marshal meta: %v", err)
	}
	status, err := json.Marshal(tenant.Status)
	if err != nil {
		return ports.CreateResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to marshal status: %v", err)
	}

	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO tenants (id, name, description, meta, status, owners, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tenant.ID, tenant.Name, tenant.Description, meta, status, owners, tenant.Created, tenant.Updated)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.CreateResponseKind[domain.Tenant]{Created: false, Reason: "tenant name already registered"}, nil
		}
		return ports.CreateResponseKind[domain.Tenant]{}, domain.CreationErr(false, "failed to insert tenant: %v", err)
	}
	return ports.CreateResponseKind[domain.Tenant]{Created: true, Record: tenant}, nil
}

func (r *TenantRepo) RegisterOwner(ctx context.Context, tenantID, userID uuid.UUID) (ports.UpdatingResponseKind[domain.Tenant], *domain.MappedError) {
	fetched, mErr := r.FetchByID(ctx, tenantID)
	if mErr != nil {
		return ports.UpdatingResponseKind[domain.Tenant]{}, mErr
	}
	if !fetched.Found {
		return ports.UpdatingResponseKind[domain.Tenant]{Updated: false, Reason: "tenant not found"}, nil
	}
	tenant := fetched.Record
	if tenant.IsOwnedBy(userID) {
		return ports.UpdatingResponseKind[domain.Tenant]{Updated: true, Record: tenant}, nil
	}
	tenant.Owners = append(tenant.Owners, domain.UserRef{ID: userID})

	owners, err := json.Marshal(tenant.Owners)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to marshal owners: %v", err)
	}
	tag, err := db(ctx, r.pool).Exec(ctx, `UPDATE tenants SET owners = $2, updated = now() WHERE id = $1`, tenantID, owners)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Tenant]{}, domain.UpdatingErr(false, "failed to register owner: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.UpdatingResponseKind[domain.Tenant]{Updated: false, Reason: "tenant not found"}, nil
	}
	return ports.UpdatingResponseKind[domain.Tenant]{Updated: true, Record: tenant}, nil
}

func (r *TenantRepo) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, description, meta, status, owners, created, updated FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

func (r *TenantRepo) FetchByName(ctx context.Context, name string) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, description, meta, status, owners, created, updated FROM tenants WHERE name = $1`, name)
	return scanTenant(row)
}

func scanTenant(row pgx.Row) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	var t domain.Tenant
	var metaRaw, statusRaw, ownersRaw []byte
	err := row.Scan(&t.ID, &t.Name, &t.Description, &metaRaw, &statusRaw, &ownersRaw, &t.Created, &t.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.FetchResponseKind[domain.Tenant]{Found: false}, nil
	}
	if err != nil {
		return ports.FetchResponseKind[domain.Tenant]{}, domain.FetchingErr(false, "failed to fetch tenant: %v", err)
	}
	if err := json.Unmarshal(metaRaw, &t.Meta); err != nil {
		return ports.FetchResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to unmarshal tenant meta: %v", err)
	}
	if err := json.Unmarshal(statusRaw, &t.Status); err != nil {
		return ports.FetchResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to unmarshal tenant status: %v", err)
	}
	if err := json.Unmarshal(ownersRaw, &t.Owners); err != nil {
		return ports.FetchResponseKind[domain.Tenant]{}, domain.ExecutionErr("failed to unmarshal tenant owners: %v", err)
	}
	return ports.FetchResponseKind[domain.Tenant]{Found: true, Record: t}, nil
}

// FetchOwnershipsForUser finds every tenant userID appears in the owner
// set of, via jsonb containment on the owners column (spec §4.5 step 4
// "tenants_ownership").
func (r *TenantRepo) FetchOwnershipsForUser(ctx context.Context, userID uuid.UUID) (ports.FetchManyResponseKind[domain.TenantOwnership], *domain.MappedError) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id FROM tenants WHERE owners @> jsonb_build_array(jsonb_build_object('ID', $1::text))`, userID.String())
	if err != nil {
		return ports.FetchManyResponseKind[domain.TenantOwnership]{}, domain.FetchingErr(false, "failed to fetch tenant ownerships: %v", err)
	}
	defer rows.Close()

	var out []domain.TenantOwnership
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return ports.FetchManyResponseKind[domain.TenantOwnership]{}, domain.FetchingErr(false, "failed to scan tenant ownership: %v", err)
		}
		out = append(out, domain.TenantOwnership{TenantID: tenantID})
	}
	if err := rows.Err(); err != nil {
		return ports.FetchManyResponseKind[domain.TenantOwnership]{}, domain.FetchingErr(false, "failed to iterate tenant ownerships: %v", err)
	}
	return ports.FetchManyResponseKind[domain.TenantOwnership]{Found: len(out) > 0, Records: out, Count: int64(len(out))}, nil
}

func (r *TenantRepo) Delete(ctx context.Context, id uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return ports.DeletionResponseKind{}, domain.DeletionErr(false, "failed to delete tenant: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.DeletionResponseKind{Deleted: false, NotDeleted: true, Reason: "tenant not found"}, nil
	}
	return ports.DeletionResponseKind{Deleted: true}, nil
}
