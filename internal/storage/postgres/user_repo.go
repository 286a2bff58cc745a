package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// UserRepo implements ports.UserRegistration/UserFetching/UserUpdating/
// UserDeletion. Provider and MFA, both tagged unions in internal/domain,
// are persisted as jsonb columns rather than normalized tables, matching
// the teacher's preference for storing provider-specific auth state
// inline on the user row (internal/auth's single-table user model).
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *UserRepo) Create(ctx context.Context, user domain.User) (ports.CreateResponseKind[domain.User], *domain.MappedError) {
	provider, err := json.Marshal(user.Provider)
	if err != nil {
		return ports.CreateResponseKind[domain.User]{}, domain.ExecutionErr("failed to marshal provider: %v", err)
	}
	mfa, err := json.Marshal(user.MFA)
	if err != nil {
		return ports.CreateResponseKind[domain.User]{}, domain.ExecutionErr("failed to marshal mfa state: %v", err)
	}

	_, err = db(ctx, r.pool).Exec(ctx, `
		INSERT INTO users (id, username, email, first_name, last_name, is_active, is_principal, provider, mfa, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		user.ID, user.Username, domain.NormalizeEmail(user.Email), user.FirstName, user.LastName,
		user.IsActive, user.IsPrincipal, provider, mfa, user.Created, user.Updated)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.CreateResponseKind[domain.User]{Created: false, Reason: "email already registered"}, nil
		}
		return ports.CreateResponseKind[domain.User]{}, domain.CreationErr(false, "failed to insert user: %v", err)
	}

	return ports.CreateResponseKind[domain.User]{Created: true, Record: user}, nil
}

func (r *UserRepo) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, is_active, is_principal, provider, mfa, created, updated
		FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepo) FetchByEmail(ctx context.Context, email string) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	row := db(ctx, r.pool).QueryRow(ctx, `
		SELECT id, username, email, first_name, last_name, is_active, is_principal, provider, mfa, created, updated
		FROM users WHERE email = $1`, domain.NormalizeEmail(email))
	return scanUser(row)
}

func scanUser(row pgx.Row) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	var u domain.User
	var providerRaw, mfaRaw []byte
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.IsActive, &u.IsPrincipal, &providerRaw, &mfaRaw, &u.Created, &u.Updated)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.FetchResponseKind[domain.User]{Found: false}, nil
	}
	if err != nil {
		return ports.FetchResponseKind[domain.User]{}, domain.FetchingErr(false, "failed to fetch user: %v", err)
	}
	if err := json.Unmarshal(providerRaw, &u.Provider); err != nil {
		return ports.FetchResponseKind[domain.User]{}, domain.ExecutionErr("failed to unmarshal provider: %v", err)
	}
	if err := json.Unmarshal(mfaRaw, &u.MFA); err != nil {
		return ports.FetchResponseKind[domain.User]{}, domain.ExecutionErr("failed to unmarshal mfa state: %v", err)
	}
	return ports.FetchResponseKind[domain.User]{Found: true, Record: u}, nil
}

func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, newHash string) (ports.UpdatingResponseKind[domain.User], *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `
		UPDATE users SET provider = jsonb_set(provider, '{PasswordHash}', to_jsonb($2::text)), updated = now()
		WHERE id = $1`, id, newHash)
	if err != nil {
		return ports.UpdatingResponseKind[domain.User]{}, domain.UpdatingErr(false, "failed to update password: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.UpdatingResponseKind[domain.User]{Updated: false, Reason: "user not found"}, nil
	}
	fetched, mErr := r.FetchByID(ctx, id)
	if mErr != nil {
		return ports.UpdatingResponseKind[domain.User]{}, mErr
	}
	return ports.UpdatingResponseKind[domain.User]{Updated: true, Record: fetched.Record}, nil
}

func (r *UserRepo) UpdateMFA(ctx context.Context, id uuid.UUID, mfa domain.TOTPState) (ports.UpdatingResponseKind[domain.User], *domain.MappedError) {
	raw, err := json.Marshal(mfa)
	if err != nil {
		return ports.UpdatingResponseKind[domain.User]{}, domain.ExecutionErr("failed to marshal mfa state: %v", err)
	}
	tag, err := db(ctx, r.pool).Exec(ctx, `UPDATE users SET mfa = $2, updated = now() WHERE id = $1`, id, raw)
	if err != nil {
		return ports.UpdatingResponseKind[domain.User]{}, domain.UpdatingErr(false, "failed to update mfa state: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.UpdatingResponseKind[domain.User]{Updated: false, Reason: "user not found"}, nil
	}
	fetched, mErr := r.FetchByID(ctx, id)
	if mErr != nil {
		return ports.UpdatingResponseKind[domain.User]{}, mErr
	}
	return ports.UpdatingResponseKind[domain.User]{Updated: true, Record: fetched.Record}, nil
}

func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	tag, err := db(ctx, r.pool).Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return ports.DeletionResponseKind{}, domain.DeletionErr(false, "failed to delete user: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.DeletionResponseKind{Deleted: false, NotDeleted: true, Reason: "user not found"}, nil
	}
	return ports.DeletionResponseKind{Deleted: true}, nil
}
