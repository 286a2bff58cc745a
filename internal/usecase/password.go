package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// PasswordService orchestrates the password-change use case (spec
// §4.7), grounded on the teacher's internal/auth/recovery.go flow:
// verify the presented old password, reject a no-op change, hash and
// persist the new one.
type PasswordService struct {
	users  ports.UserFetching
	update ports.UserUpdating
	hasher cryptox.PasswordHasher
	audit  audit.AuditLogger
}

func NewPasswordService(users ports.UserFetching, update ports.UserUpdating, hasher cryptox.PasswordHasher, auditLogger audit.AuditLogger) *PasswordService {
	return &PasswordService{users: users, update: update, hasher: hasher, audit: auditLogger}
}

// Change validates oldPassword against the stored hash, rejects
// newPassword == oldPassword (MYC00011, spec §4.7), and persists the new
// hash.
func (s *PasswordService) Change(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) *domain.MappedError {
	if newPassword == "" {
		return domain.UseCaseErrWithCode(domain.CodeMissingRawPassword, "a new password is required")
	}

	userResult, mErr := s.users.FetchByID(ctx, userID)
	if mErr != nil {
		return mErr
	}
	if !userResult.Found {
		return domain.FetchingErr(true, "user %s not found", userID)
	}
	user := userResult.Record

	if user.Provider.Kind != domain.ProviderInternal {
		return domain.UseCaseErr("password change is only available for internally-authenticated users")
	}

	if err := s.hasher.Check(user.Provider.PasswordHash, oldPassword); err != nil {
		return domain.NewMappedError(domain.KindAuthentication, true, nil, "old password does not match")
	}

	if err := s.hasher.Check(user.Provider.PasswordHash, newPassword); err == nil {
		return domain.UseCaseErrWithCode(domain.CodePasswordEqualsOld, "new password must differ from the current one")
	}

	newHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return domain.ExecutionErr("failed to hash new password: %v", err)
	}

	updateResult, mErr := s.update.UpdatePassword(ctx, userID, newHash)
	if mErr != nil {
		return mErr
	}
	if !updateResult.Updated {
		return domain.UpdatingErr(true, "password update rejected: %s", updateResult.Reason)
	}

	s.audit.Log(ctx, userID, audit.EventPasswordChanged, userID.String(), nil)
	return nil
}
