package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// GuestRoleRepo implements ports.GuestRoleRegistration/GuestRoleFetching.
// Children is a small acyclic reference list (spec §3, §9) stored as
// jsonb, the same choice made for Tenant.Owners in tenant_repo.go.
type GuestRoleRepo struct {
	pool *pgxpool.Pool
}

func NewGuestRoleRepo(pool *pgxpool.Pool) *GuestRoleRepo {
	return &GuestRoleRepo{pool: pool}
}

func (r *GuestRoleRepo) GetOrCreate(ctx context.Context, role domain.GuestRole) (ports.GetOrCreateResponseKind[domain.GuestRole], *domain.MappedError) {
	existing, mErr := r.FetchBySlug(ctx, role.Slug)
	if mErr != nil {
		return ports.GetOrCreateResponseKind[domain.GuestRole]{}, mErr
	}
	if existing.Found {
		return ports.GetOrCreateResponseKind[domain.GuestRole]{Created: false, Record: existing.Record}, nil
	}

	children, err := json.Marshal(role.Children)
	if err != nil {
		return ports.GetOrCreateResponseKind[domain.GuestRole]{}, domain.ExecutionErr("failed to marshal guest role children: %v", err)
	}

	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO guest_roles (id, name, slug, description, permission, children, is_system)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (slug) DO NOTHING`,
		role.ID, role.Name, role.Slug, role.Description, int(role.Permission), children, role.IsSystem)
	if err != nil {
		return ports.GetOrCreateResponseKind[domain.GuestRole]{}, domain.CreationErr(false, "failed to insert guest role: %v", err)
	}

	fetched, mErr := r.FetchBySlug(ctx, role.Slug)
	if mErr != nil {
		return ports.GetOrCreateResponseKind[domain.GuestRole]{}, mErr
	}
	return ports.GetOrCreateResponseKind[domain.GuestRole]{Created: fetched.Record.ID == role.ID, Record: fetched.Record}, nil
}

func (r *GuestRoleRepo) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.GuestRole], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, slug, description, permission, children, is_system FROM guest_roles WHERE id = $1`, id)
	return scanGuestRole(row)
}

func (r *GuestRoleRepo) FetchBySlug(ctx context.Context, slug string) (ports.FetchResponseKind[domain.GuestRole], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, slug, description, permission, children, is_system FROM guest_roles WHERE slug = $1`, slug)
	return scanGuestRole(row)
}

func (r *GuestRoleRepo) FetchSystemRoles(ctx context.Context) (ports.FetchManyResponseKind[domain.GuestRole], *domain.MappedError) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id, name, slug, description, permission, children, is_system FROM guest_roles WHERE is_system = true`)
	if err != nil {
		return ports.FetchManyResponseKind[domain.GuestRole]{}, domain.FetchingErr(false, "failed to fetch system roles: %v", err)
	}
	defer rows.Close()

	var out []domain.GuestRole
	for rows.Next() {
		role, mErr := scanGuestRoleRow(rows)
		if mErr != nil {
			return ports.FetchManyResponseKind[domain.GuestRole]{}, mErr
		}
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return ports.FetchManyResponseKind[domain.GuestRole]{}, domain.FetchingErr(false, "failed to iterate system roles: %v", err)
	}
	return ports.FetchManyResponseKind[domain.GuestRole]{Found: len(out) > 0, Records: out, Count: int64(len(out))}, nil
}

func scanGuestRole(row pgx.Row) (ports.FetchResponseKind[domain.GuestRole], *domain.MappedError) {
	role, mErr := scanGuestRoleRow(row)
	if mErr != nil {
		if errors.Is(mErr, errGuestRoleNoRows) {
			return ports.FetchResponseKind[domain.GuestRole]{Found: false}, nil
		}
		return ports.FetchResponseKind[domain.GuestRole]{}, mErr
	}
	return ports.FetchResponseKind[domain.GuestRole]{Found: true, Record: role}, nil
}

var errGuestRoleNoRows = domain.FetchingErr(false, "guest role not found")

func scanGuestRoleRow(row rowScanner) (domain.GuestRole, *domain.MappedError) {
	var g domain.GuestRole
	var permission int
	var childrenRaw []byte
	err := row.Scan(&g.ID, &g.Name, &g.Slug, &g.Description, &permission, &childrenRaw, &g.IsSystem)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GuestRole{}, errGuestRoleNoRows
	}
	if err != nil {
		return domain.GuestRole{}, domain.FetchingErr(false, "failed to fetch guest role: %v", err)
	}
	g.Permission = domain.Permission(permission)
	if err := json.Unmarshal(childrenRaw, &g.Children); err != nil {
		return domain.GuestRole{}, domain.ExecutionErr("failed to unmarshal guest role children: %v", err)
	}
	return g, nil
}

// GuestUserRepo implements ports.GuestUserRegistration: the grant row
// "email X may act as role R on account A" (spec §3 GLOSSARY).
type GuestUserRepo struct {
	pool *pgxpool.Pool
}

func NewGuestUserRepo(pool *pgxpool.Pool) *GuestUserRepo {
	return &GuestUserRepo{pool: pool}
}

func (r *GuestUserRepo) Create(ctx context.Context, email string, roleID, accountID uuid.UUID) (ports.CreateResponseKind[uuid.UUID], *domain.MappedError) {
	id := uuid.New()
	_, err := db(ctx, r.pool).Exec(ctx, `
		INSERT INTO guest_users (id, email, role_id, account_id, verified)
		VALUES ($1, $2, $3, $4, false)`, id, domain.NormalizeEmail(email), roleID, accountID)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.CreateResponseKind[uuid.UUID]{Created: false, Reason: "guest grant already exists"}, nil
		}
		return ports.CreateResponseKind[uuid.UUID]{}, domain.CreationErr(false, "failed to insert guest grant: %v", err)
	}
	return ports.CreateResponseKind[uuid.UUID]{Created: true, Record: id}, nil
}

func (r *GuestUserRepo) Revoke(ctx context.Context, email string, roleID, accountID uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		DELETE FROM guest_users WHERE email = $1 AND role_id = $2 AND account_id = $3`,
		domain.NormalizeEmail(email), roleID, accountID)
	if err != nil {
		return ports.DeletionResponseKind{}, domain.DeletionErr(false, "failed to revoke guest grant: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.DeletionResponseKind{Deleted: false, NotDeleted: true, Reason: "guest grant not found"}, nil
	}
	return ports.DeletionResponseKind{Deleted: true}, nil
}

// LicensedResourceRepo implements ports.LicensedResourceFetching, the
// JOIN view of guest_users -> accounts -> guest_roles filtered by
// target email (spec §3, §4.5 step 3).
type LicensedResourceRepo struct {
	pool *pgxpool.Pool
}

func NewLicensedResourceRepo(pool *pgxpool.Pool) *LicensedResourceRepo {
	return &LicensedResourceRepo{pool: pool}
}

func (r *LicensedResourceRepo) FetchForEmail(ctx context.Context, email string, tenantID *uuid.UUID, roles []string, verifiedOnly bool) (domain.LicensedResources, *domain.MappedError) {
	sql := `
		SELECT a.account_type->>'TenantID', gu.account_id, a.name, (a.account_type->>'TenantID') IS NULL,
		       gr.id, gr.slug, gr.permission, gu.verified
		FROM guest_users gu
		JOIN accounts a ON a.id = gu.account_id
		JOIN guest_roles gr ON gr.id = gu.role_id
		WHERE gu.email = $1`
	args := []any{domain.NormalizeEmail(email)}

	if tenantID != nil {
		args = append(args, tenantID.String())
		sql += " AND a.account_type->>'TenantID' = $" + strconv.Itoa(len(args))
	}
	if len(roles) > 0 {
		args = append(args, roles)
		sql += " AND gr.slug = ANY($" + strconv.Itoa(len(args)) + ")"
	}
	if verifiedOnly {
		sql += " AND gu.verified = true"
	}

	rows, err := db(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return domain.LicensedResources{}, domain.FetchingErr(false, "failed to fetch licensed resources: %v", err)
	}
	defer rows.Close()

	var out []domain.LicensedResource
	for rows.Next() {
		var lr domain.LicensedResource
		var tenantIDText *string
		var permission int
		if err := rows.Scan(&tenantIDText, &lr.AccID, &lr.AccName, &lr.SysAcc, &lr.RoleID, &lr.Role, &permission, &lr.Verified); err != nil {
			return domain.LicensedResources{}, domain.FetchingErr(false, "failed to scan licensed resource: %v", err)
		}
		if tenantIDText != nil {
			if parsed, err := uuid.Parse(*tenantIDText); err == nil {
				lr.TenantID = parsed
			}
		}
		lr.Perm = domain.Permission(permission)
		out = append(out, lr)
	}
	if err := rows.Err(); err != nil {
		return domain.LicensedResources{}, domain.FetchingErr(false, "failed to iterate licensed resources: %v", err)
	}

	return domain.LicensedResources{Kind: domain.LicensedResourcesRecords, Records: out}, nil
}
