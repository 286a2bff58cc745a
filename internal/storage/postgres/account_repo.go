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

// AccountRepo implements the C2 account ports. AccountType marshals
// through its own tagged-union MarshalJSON/UnmarshalJSON (internal/
// domain/account.go), so the account_type column round-trips the exact
// wire shape spec §9 pins down.
type AccountRepo struct {
	pool *pgxpool.Pool
}

func NewAccountRepo(pool *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{pool: pool}
}

func (r *AccountRepo) Create(ctx context.Context, account domain.Account) (ports.CreateResponseKind[domain.Account], *domain.MappedError) {
	accountType, err := json.Marshal(account.AccountType)
	if err != nil {
		return ports.CreateResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal account type: %v", err)
	}
	owners, err := json.Marshal(account.Owners)
	if err != nil {
		return ports.CreateResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal owners: %v", err)
	}
	meta, err := json.Marshal(account.Meta)
	if err != nil {
		return ports.CreateResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal meta: %v", err)
	}
	tags, err := json.Marshal(account.Tags)
	if err != nil {
		return ports.CreateResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal tags: %v", err)
	}

	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO accounts (id, name, slug, tags, is_active, is_checked, is_archived, is_default, account_type, owners, meta, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		account.ID, account.Name, account.Slug, tags, account.IsActive, account.IsChecked, account.IsArchived,
		account.IsDefault, accountType, owners, meta, account.Created, account.Updated)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.CreateResponseKind[domain.Account]{Created: false, Reason: "slug already registered"}, nil
		}
		return ports.CreateResponseKind[domain.Account]{}, domain.CreationErr(false, "failed to insert account: %v", err)
	}
	return ports.CreateResponseKind[domain.Account]{Created: true, Record: account}, nil
}

// GetOrCreateUserAccount implements the idempotent get-or-create path
// for the default "user" account type (spec §4.1(a) "one user account
// per human principal"), relying on a unique index over (account_type,
// owners) not being practical in jsonb, so it first probes by slug.
func (r *AccountRepo) GetOrCreateUserAccount(ctx context.Context, account domain.Account) (ports.GetOrCreateResponseKind[domain.Account], *domain.MappedError) {
	existing, mErr := r.FetchBySlug(ctx, nil, account.Slug)
	if mErr != nil {
		return ports.GetOrCreateResponseKind[domain.Account]{}, mErr
	}
	if existing.Found {
		return ports.GetOrCreateResponseKind[domain.Account]{Created: false, Record: existing.Record}, nil
	}

	created, mErr := r.Create(ctx, account)
	if mErr != nil {
		return ports.GetOrCreateResponseKind[domain.Account]{}, mErr
	}
	if !created.Created {
		// Lost the race to a concurrent insert; fetch the winner.
		existing, mErr := r.FetchBySlug(ctx, nil, account.Slug)
		if mErr != nil {
			return ports.GetOrCreateResponseKind[domain.Account]{}, mErr
		}
		return ports.GetOrCreateResponseKind[domain.Account]{Created: false, Record: existing.Record}, nil
	}
	return ports.GetOrCreateResponseKind[domain.Account]{Created: true, Record: created.Record}, nil
}

func (r *AccountRepo) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, slug, tags, is_active, is_checked, is_archived, is_default, account_type, owners, meta, created, updated
		FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

func (r *AccountRepo) FetchBySlug(ctx context.Context, tenantID *uuid.UUID, slug string) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	var row pgx.Row
	if tenantID != nil {
		row = db(ctx, r.pool).QueryRow(ctx, `
			SELECT id, name, slug, tags, is_active, is_checked, is_archived, is_default, account_type, owners, meta, created, updated
			FROM accounts WHERE slug = $1 AND account_type->>'TenantID' = $2`, slug, tenantID.String())
	} else {
		row = db(ctx, r.pool).QueryRow(ctx, `
			SELECT id, name, slug, tags, is_active, is_checked, is_archived, is_default, account_type, owners, meta, created, updated
			FROM accounts WHERE slug = $1`, slug)
	}
	return scanAccount(row)
}

func (r *AccountRepo) FetchManyByTenant(ctx context.Context, tenantID uuid.UUID, skip, size int64) (ports.FetchManyResponseKind[domain.Account], *domain.MappedError) {
	rows, err := db(ctx, r.pool).Query(ctx, `
		SELECT id, name, slug, tags, is_active, is_checked, is_archived, is_default, account_type, owners, meta, created, updated
		FROM accounts WHERE account_type->>'TenantID' = $1 ORDER BY created OFFSET $2 LIMIT $3`,
		tenantID.String(), skip, size)
	if err != nil {
		return ports.FetchManyResponseKind[domain.Account]{}, domain.FetchingErr(false, "failed to fetch accounts for tenant: %v", err)
	}
	defer rows.Close()

	var out []domain.Account
	for rows.Next() {
		account, err, _ := scanAccountRow(rows)
		if err != nil {
			if mErr, ok := err.(*domain.MappedError); ok {
				return ports.FetchManyResponseKind[domain.Account]{}, mErr
			}
			return ports.FetchManyResponseKind[domain.Account]{}, domain.FetchingErr(false, "failed to scan account row: %v", err)
		}
		out = append(out, account)
	}
	if err := rows.Err(); err != nil {
		return ports.FetchManyResponseKind[domain.Account]{}, domain.FetchingErr(false, "failed to iterate accounts: %v", err)
	}

	var total int64
	if err := db(ctx, r.pool).QueryRow(ctx, `SELECT count(*) FROM accounts WHERE account_type->>'TenantID' = $1`, tenantID.String()).Scan(&total); err != nil {
		return ports.FetchManyResponseKind[domain.Account]{}, domain.FetchingErr(false, "failed to count accounts: %v", err)
	}

	return ports.FetchManyResponseKind[domain.Account]{Found: len(out) > 0, Paginated: true, Records: out, Count: total, Skip: skip, Size: size}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row pgx.Row) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	account, err, found := scanAccountRow(row)
	if !found {
		if err != nil {
			return ports.FetchResponseKind[domain.Account]{}, domain.FetchingErr(false, "failed to fetch account: %v", err)
		}
		return ports.FetchResponseKind[domain.Account]{Found: false}, nil
	}
	if err != nil {
		return ports.FetchResponseKind[domain.Account]{}, err.(*domain.MappedError)
	}
	return ports.FetchResponseKind[domain.Account]{Found: true, Record: account}, nil
}

// scanAccountRow scans a single account row. found is false only when the
// row simply did not exist (pgx.ErrNoRows); any other failure is
// returned as a non-nil err with found=true so callers can tell "no row"
// apart from "row existed but was unreadable".
func scanAccountRow(row rowScanner) (domain.Account, error, bool) {
	var a domain.Account
	var tagsRaw, accountTypeRaw, ownersRaw, metaRaw []byte
	err := row.Scan(&a.ID, &a.Name, &a.Slug, &tagsRaw, &a.IsActive, &a.IsChecked, &a.IsArchived, &a.IsDefault, &accountTypeRaw, &ownersRaw, &metaRaw, &a.Created, &a.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, nil, false
	}
	if err != nil {
		return domain.Account{}, err, true
	}
	if err := json.Unmarshal(tagsRaw, &a.Tags); err != nil {
		return domain.Account{}, domain.ExecutionErr("failed to unmarshal account tags: %v", err), true
	}
	if err := json.Unmarshal(accountTypeRaw, &a.AccountType); err != nil {
		return domain.Account{}, domain.ExecutionErr("failed to unmarshal account type: %v", err), true
	}
	if err := json.Unmarshal(ownersRaw, &a.Owners); err != nil {
		return domain.Account{}, domain.ExecutionErr("failed to unmarshal account owners: %v", err), true
	}
	if err := json.Unmarshal(metaRaw, &a.Meta); err != nil {
		return domain.Account{}, domain.ExecutionErr("failed to unmarshal account meta: %v", err), true
	}
	return a, nil, true
}

func (r *AccountRepo) UpdateStatus(ctx context.Context, id uuid.UUID, isActive, isChecked, isArchived bool) (ports.UpdatingResponseKind[domain.Account], *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE accounts SET is_active = $2, is_checked = $3, is_archived = $4, updated = now() WHERE id = $1`,
		id, isActive, isChecked, isArchived)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.UpdatingErr(false, "failed to update account status: %v", err)
	}
	return r.fetchAfterUpdate(ctx, id, tag.RowsAffected())
}

func (r *AccountRepo) UpdateOwners(ctx context.Context, id uuid.UUID, owners []domain.UserRef) (ports.UpdatingResponseKind[domain.Account], *domain.MappedError) {
	raw, err := json.Marshal(owners)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal owners: %v", err)
	}
	tag, err := db(ctx, r.pool).Exec(ctx, `UPDATE accounts SET owners = $2, updated = now() WHERE id = $1`, id, raw)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.UpdatingErr(false, "failed to update account owners: %v", err)
	}
	return r.fetchAfterUpdate(ctx, id, tag.RowsAffected())
}

func (r *AccountRepo) UpdateMeta(ctx context.Context, id uuid.UUID, meta map[string]string) (ports.UpdatingResponseKind[domain.Account], *domain.MappedError) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal meta: %v", err)
	}
	tag, err := db(ctx, r.pool).Exec(ctx, `UPDATE accounts SET meta = $2, updated = now() WHERE id = $1`, id, raw)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.UpdatingErr(false, "failed to update account meta: %v", err)
	}
	return r.fetchAfterUpdate(ctx, id, tag.RowsAffected())
}

func (r *AccountRepo) UpdateTags(ctx context.Context, id uuid.UUID, tags []string) (ports.UpdatingResponseKind[domain.Account], *domain.MappedError) {
	raw, err := json.Marshal(tags)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.ExecutionErr("failed to marshal tags: %v", err)
	}
	tag, err := db(ctx, r.pool).Exec(ctx, `UPDATE accounts SET tags = $2, updated = now() WHERE id = $1`, id, raw)
	if err != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, domain.UpdatingErr(false, "failed to update account tags: %v", err)
	}
	return r.fetchAfterUpdate(ctx, id, tag.RowsAffected())
}

func (r *AccountRepo) fetchAfterUpdate(ctx context.Context, id uuid.UUID, rowsAffected int64) (ports.UpdatingResponseKind[domain.Account], *domain.MappedError) {
	if rowsAffected == 0 {
		return ports.UpdatingResponseKind[domain.Account]{Updated: false, Reason: "account not found"}, nil
	}
	fetched, mErr := r.FetchByID(ctx, id)
	if mErr != nil {
		return ports.UpdatingResponseKind[domain.Account]{}, mErr
	}
	return ports.UpdatingResponseKind[domain.Account]{Updated: true, Record: fetched.Record}, nil
}

func (r *AccountRepo) Delete(ctx context.Context, id uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return ports.DeletionResponseKind{}, domain.DeletionErr(false, "failed to delete account: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.DeletionResponseKind{Deleted: false, NotDeleted: true, Reason: "account not found"}, nil
	}
	return ports.DeletionResponseKind{Deleted: true}, nil
}
