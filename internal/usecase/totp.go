package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// TOTPService orchestrates MFA enable/finish/disable (spec §4.3/§4.7),
// grounded on the teacher's internal/auth/mfa_service_impl.go two-step
// "setup then activate" shape, adapted from bcrypt backup codes to the
// chacha20poly1305-sealed secret Mycelium stores at rest.
type TOTPService struct {
	users  ports.UserFetching
	update ports.UserUpdating
	totp   *cryptox.TOTPService
	box    *cryptox.SecretBox
	audit  audit.AuditLogger
}

func NewTOTPService(users ports.UserFetching, update ports.UserUpdating, totp *cryptox.TOTPService, box *cryptox.SecretBox, auditLogger audit.AuditLogger) *TOTPService {
	return &TOTPService{users: users, update: update, totp: totp, box: box, audit: auditLogger}
}

// EnableResult carries the freshly generated, not-yet-activated secret
// back to the caller so it can be shown as a QR code.
type EnableResult struct {
	SecretPlain string
	QRPNG       []byte
}

// Enable generates a new TOTP secret for userID. The secret is not
// persisted until Finish confirms the user can produce a valid code
// (spec §4.3: "enabled only after one round-trip proves possession").
func (s *TOTPService) Enable(ctx context.Context, userID uuid.UUID, accountName string) (EnableResult, *domain.MappedError) {
	userResult, mErr := s.users.FetchByID(ctx, userID)
	if mErr != nil {
		return EnableResult{}, mErr
	}
	if !userResult.Found {
		return EnableResult{}, domain.FetchingErr(true, "user %s not found", userID)
	}
	if userResult.Record.MFA.Enabled {
		return EnableResult{}, domain.UseCaseErrWithCode(domain.CodeTOTPAlreadyEnabled, "totp is already enabled for user %s", userID)
	}

	key, qrPNG, err := s.totp.GenerateSecret(accountName)
	if err != nil {
		return EnableResult{}, domain.ExecutionErr("failed to generate totp secret: %v", err)
	}

	return EnableResult{SecretPlain: key.Secret(), QRPNG: qrPNG}, nil
}

// Finish validates code against secretPlain and, on success, persists
// the encrypted secret and marks MFA enabled+verified.
func (s *TOTPService) Finish(ctx context.Context, userID uuid.UUID, secretPlain, code string) *domain.MappedError {
	if !s.totp.ValidateCode(code, secretPlain) {
		return domain.UseCaseErrWithCode(domain.CodeTOTPInvalidCode, "totp code does not match the presented secret")
	}

	encrypted, err := s.box.Encrypt(secretPlain)
	if err != nil {
		return domain.ExecutionErr("failed to encrypt totp secret: %v", err)
	}

	updateResult, mErr := s.update.UpdateMFA(ctx, userID, domain.TOTPState{
		Enabled:   true,
		Verified:  true,
		SecretEnc: encrypted,
	})
	if mErr != nil {
		return mErr
	}
	if !updateResult.Updated {
		return domain.UpdatingErr(true, "totp activation rejected: %s", updateResult.Reason)
	}

	s.audit.Log(ctx, userID, audit.EventTOTPEnabled, userID.String(), nil)
	return nil
}

// Disable turns MFA off for userID after verifying code against the
// currently stored (decrypted) secret.
func (s *TOTPService) Disable(ctx context.Context, userID uuid.UUID, code string) *domain.MappedError {
	userResult, mErr := s.users.FetchByID(ctx, userID)
	if mErr != nil {
		return mErr
	}
	if !userResult.Found {
		return domain.FetchingErr(true, "user %s not found", userID)
	}
	if !userResult.Record.MFA.Enabled {
		return domain.UseCaseErrWithCode(domain.CodeTOTPNotEnabled, "totp is not enabled for user %s", userID)
	}

	secretPlain, err := s.box.Decrypt(userResult.Record.MFA.SecretEnc)
	if err != nil {
		return domain.ExecutionErr("failed to decrypt stored totp secret: %v", err)
	}
	if !s.totp.ValidateCode(code, secretPlain) {
		return domain.UseCaseErrWithCode(domain.CodeTOTPInvalidCode, "totp code does not match the stored secret")
	}

	updateResult, mErr := s.update.UpdateMFA(ctx, userID, domain.TOTPState{})
	if mErr != nil {
		return mErr
	}
	if !updateResult.Updated {
		return domain.UpdatingErr(true, "totp deactivation rejected: %s", updateResult.Reason)
	}

	s.audit.Log(ctx, userID, audit.EventTOTPDisabled, userID.String(), nil)
	return nil
}
