package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/notify"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/mycelium-platform/mycelium/internal/webhook"
)

// guestEventDTO is the payload shape for GuestAccountInvited/Revoked
// outbox artifacts (spec §4.8 "Payload": the full guest DTO).
type guestEventDTO struct {
	Email     string    `json:"email"`
	RoleID    uuid.UUID `json:"role_id"`
	AccountID uuid.UUID `json:"account_id"`
}

// GuestService orchestrates "guest a user onto an account" (spec §4.7,
// §3 GLOSSARY): grant a role on an account to an email, notify them,
// and allow the grant to be revoked. Grounded on the teacher's
// internal/auth/invitation_service.go shape (token-free here, since
// Mycelium guesting is a standing grant rather than a one-time invite
// link).
type GuestService struct {
	guests   ports.GuestUserRegistration
	accounts ports.AccountFetching
	roles    ports.GuestRoleFetching
	mailer   notify.EmailSender
	outbox   ports.WebHookOutbox
	audit    audit.AuditLogger
	// invalidate, if non-nil, drops cached licensed-resource lookups for
	// the guested email so a revocation is visible immediately rather
	// than waiting out the cache TTL (spec §4.7 guest-revocation rule).
	invalidate func(ctx context.Context, email string, tenantID *uuid.UUID) error
}

func NewGuestService(guests ports.GuestUserRegistration, accounts ports.AccountFetching, roles ports.GuestRoleFetching, mailer notify.EmailSender, outbox ports.WebHookOutbox, auditLogger audit.AuditLogger, invalidate func(ctx context.Context, email string, tenantID *uuid.UUID) error) *GuestService {
	return &GuestService{guests: guests, accounts: accounts, roles: roles, mailer: mailer, outbox: outbox, audit: auditLogger, invalidate: invalidate}
}

func (s *GuestService) appendOutbox(ctx context.Context, trigger domain.WebHookTrigger, email string, roleID, accountID uuid.UUID) {
	artifact, err := webhook.BuildArtifact(trigger, guestEventDTO{Email: email, RoleID: roleID, AccountID: accountID})
	if err != nil {
		return
	}
	_, _ = s.outbox.Append(ctx, artifact)
}

// GuestUser grants roleID on accountID to email. The target account
// must be guestable (spec §4.1(a): Subscription, RoleAssociated,
// ActorAssociated, TenantManager).
func (s *GuestService) GuestUser(ctx context.Context, actorID uuid.UUID, email string, roleID, accountID uuid.UUID, inviteURL string) *domain.MappedError {
	accountResult, mErr := s.accounts.FetchByID(ctx, accountID)
	if mErr != nil {
		return mErr
	}
	if !accountResult.Found {
		return domain.FetchingErr(true, "account %s not found", accountID)
	}
	if !accountResult.Record.IsGuestableTarget() {
		return domain.UseCaseErrWithCode(domain.CodeGuestTargetNotFound, "account %s cannot be guested onto (account type %q)", accountID, accountResult.Record.AccountType.Kind)
	}

	roleResult, mErr := s.roles.FetchByID(ctx, roleID)
	if mErr != nil {
		return mErr
	}
	if !roleResult.Found {
		return domain.FetchingErr(true, "guest role %s not found", roleID)
	}

	email = domain.NormalizeEmail(email)
	createResult, mErr := s.guests.Create(ctx, email, roleID, accountID)
	if mErr != nil {
		return mErr
	}
	if !createResult.Created {
		return domain.UseCaseErrWithCode(domain.CodeConflictVariantB, "email %s is already guested onto this role/account", email)
	}

	if err := s.mailer.SendInvitation(ctx, email, inviteURL); err != nil {
		return domain.UseCaseErrWithCode(domain.CodeNotificationFailed, "guest invitation email failed to send: %v", err)
	}

	s.audit.Log(ctx, actorID, audit.EventGuestInvited, accountID.String(), map[string]string{
		"email":   email,
		"role_id": roleID.String(),
	})
	s.appendOutbox(ctx, domain.TriggerGuestAccountInvited, email, roleID, accountID)
	return nil
}

// RevokeGuest removes a standing grant and invalidates any cached
// licensed-resource lookup for the email so the revocation takes effect
// on the guest's very next request.
func (s *GuestService) RevokeGuest(ctx context.Context, actorID uuid.UUID, email string, roleID, accountID uuid.UUID) *domain.MappedError {
	email = domain.NormalizeEmail(email)

	result, mErr := s.guests.Revoke(ctx, email, roleID, accountID)
	if mErr != nil {
		return mErr
	}
	if !result.Deleted {
		return domain.DeletionErr(true, "guest grant could not be revoked: %s", result.Reason)
	}

	if s.invalidate != nil {
		// Best-effort: a failed invalidation does not undo the
		// revocation, which has already been persisted. The cache
		// entry still expires on TTL if this call fails.
		_ = s.invalidate(ctx, email, nil)
	}

	s.audit.Log(ctx, actorID, audit.EventGuestRevoked, accountID.String(), map[string]string{
		"email":   email,
		"role_id": roleID.String(),
	})
	s.appendOutbox(ctx, domain.TriggerGuestAccountRevoked, email, roleID, accountID)
	return nil
}
