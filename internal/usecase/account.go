// Package usecase holds the orchestrators of component C7 (spec §4.7):
// one file per cohesive use case, each taking its collaborators as
// explicit port arguments and returning a *domain.MappedError, modeled
// on the teacher's internal/auth/{registration_service,login_service,
// mfa_service_impl,recovery}.go one-file-per-use-case style.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/mycelium-platform/mycelium/internal/webhook"
)

// AccountService orchestrates account lifecycle use cases (spec §4.7).
// Every write goes through ports so the use case never touches a driver
// directly; multi-write operations run inside Transactor.WithinTransaction.
// Every write listed in spec §4.8's outbox table also appends a webhook
// artifact (step (e) of the shared use-case recipe in spec §4.7).
type AccountService struct {
	accounts ports.AccountRegistration
	updating ports.AccountUpdating
	deletion ports.AccountDeletion
	fetching ports.AccountFetching
	tx       ports.Transactor
	outbox   ports.WebHookOutbox
	audit    audit.AuditLogger
}

func NewAccountService(accounts ports.AccountRegistration, updating ports.AccountUpdating, deletion ports.AccountDeletion, fetching ports.AccountFetching, tx ports.Transactor, outbox ports.WebHookOutbox, auditLogger audit.AuditLogger) *AccountService {
	return &AccountService{accounts: accounts, updating: updating, deletion: deletion, fetching: fetching, tx: tx, outbox: outbox, audit: auditLogger}
}

// appendOutbox builds and appends a webhook artifact for account, best
// effort: a dispatcher-side failure to enqueue must never undo the
// business write that already committed (mirrors GuestService's
// best-effort cache invalidation).
func (s *AccountService) appendOutbox(ctx context.Context, trigger domain.WebHookTrigger, account domain.Account) {
	artifact, err := webhook.BuildArtifact(trigger, account)
	if err != nil {
		return
	}
	_, _ = s.outbox.Append(ctx, artifact)
}

// updatedTrigger and deletedTrigger pick the User- vs Subscription-
// prefixed outbox trigger based on account kind (spec §4.8 outbox table;
// AccountTypeUser is the only "user" variant the outbox distinguishes
// from every other, subscription-like kind).
func updatedTrigger(kind domain.AccountTypeKind) domain.WebHookTrigger {
	if kind == domain.AccountTypeUser {
		return domain.TriggerUserAccountUpdated
	}
	return domain.TriggerSubscriptionAccountUpdated
}

func deletedTrigger(kind domain.AccountTypeKind) domain.WebHookTrigger {
	if kind == domain.AccountTypeUser {
		return domain.TriggerUserAccountDeleted
	}
	return domain.TriggerSubscriptionAccountDeleted
}

// CreateUserInput is the request shape for CreateUserAccount.
type CreateUserInput struct {
	ActorID uuid.UUID
	Name    string
	Slug    string
	Owners  []domain.UserRef
}

// CreateUserAccount creates a plain "user" account type (spec §4.1(a)):
// not guestable, owned by exactly the creating user.
func (s *AccountService) CreateUserAccount(ctx context.Context, in CreateUserInput) (domain.Account, *domain.MappedError) {
	account := domain.Account{
		ID:          uuid.New(),
		Name:        in.Name,
		Slug:        in.Slug,
		AccountType: domain.NewUserAccountType(),
		IsActive:    true,
		Owners:      in.Owners,
		Created:     time.Now().UTC(),
		Updated:     time.Now().UTC(),
	}

	result, mErr := s.accounts.Create(ctx, account)
	if mErr != nil {
		return domain.Account{}, mErr
	}
	if !result.Created {
		return domain.Account{}, domain.CreationErr(true, "account could not be created: %s", result.Reason)
	}

	s.audit.Log(ctx, in.ActorID, audit.EventUserAccountCreated, account.ID.String(), map[string]string{"name": in.Name})
	s.appendOutbox(ctx, domain.TriggerUserAccountCreated, result.Record)
	return result.Record, nil
}

// CreateRoleAssociatedInput is the request shape for
// CreateRoleAssociatedAccount (spec §4.1(a): an account scoped to a
// tenant, carrying a read-role and a write-role).
type CreateRoleAssociatedInput struct {
	ActorID     uuid.UUID
	Name        string
	Slug        string
	TenantID    uuid.UUID
	ReadRoleID  uuid.UUID
	WriteRoleID uuid.UUID
	RoleName    string
	Owners      []domain.UserRef
}

func (s *AccountService) CreateRoleAssociatedAccount(ctx context.Context, in CreateRoleAssociatedInput) (domain.Account, *domain.MappedError) {
	account := domain.Account{
		ID:          uuid.New(),
		Name:        in.Name,
		Slug:        in.Slug,
		AccountType: domain.NewRoleAssociatedAccountType(in.TenantID, in.ReadRoleID, in.WriteRoleID, in.RoleName),
		IsActive:    true,
		Owners:      in.Owners,
		Created:     time.Now().UTC(),
		Updated:     time.Now().UTC(),
	}

	var created domain.Account
	mErr := s.tx.WithinTransaction(ctx, func(ctx context.Context) *domain.MappedError {
		result, mErr := s.accounts.Create(ctx, account)
		if mErr != nil {
			return mErr
		}
		if !result.Created {
			return domain.CreationErr(true, "role-associated account could not be created: %s", result.Reason)
		}
		created = result.Record

		artifact, err := webhook.BuildArtifact(domain.TriggerSubscriptionAccountCreated, created)
		if err != nil {
			return domain.CreationErr(false, "failed to build webhook artifact: %v", err)
		}
		if _, mErr := s.outbox.Append(ctx, artifact); mErr != nil {
			return mErr
		}
		return nil
	})
	if mErr != nil {
		return domain.Account{}, mErr
	}

	s.audit.Log(ctx, in.ActorID, audit.EventSubscriptionCreated, created.ID.String(), map[string]string{
		"tenant_id": in.TenantID.String(),
		"role_name": in.RoleName,
	})
	return created, nil
}

// UpdateAccountStatus moves an account's VerboseStatus forward, rejecting
// any transition outside the lattice (spec §4.6).
func (s *AccountService) UpdateAccountStatus(ctx context.Context, actorID, accountID uuid.UUID, desired domain.VerboseStatus) (domain.Account, *domain.MappedError) {
	fetchResult, mErr := s.fetching.FetchByID(ctx, accountID)
	if mErr != nil {
		return domain.Account{}, mErr
	}
	if !fetchResult.Found {
		return domain.Account{}, domain.FetchingErr(true, "account %s not found", accountID)
	}
	account := fetchResult.Record

	newStatus, err := domain.TryToReachDesiredStatus(account.VerboseStatus(), desired)
	if err != nil {
		return domain.Account{}, err.(*domain.MappedError)
	}

	isActive, isChecked, isArchived := flagsForVerboseStatus(newStatus)
	updateResult, mErr := s.updating.UpdateStatus(ctx, accountID, isActive, isChecked, isArchived)
	if mErr != nil {
		return domain.Account{}, mErr
	}
	if !updateResult.Updated {
		return domain.Account{}, domain.UpdatingErr(true, "account status update rejected: %s", updateResult.Reason)
	}

	s.audit.Log(ctx, actorID, audit.EventAccountStatusChanged, accountID.String(), map[string]string{"new_status": string(newStatus)})
	s.appendOutbox(ctx, updatedTrigger(updateResult.Record.AccountType.Kind), updateResult.Record)
	return updateResult.Record, nil
}

// flagsForVerboseStatus inverts VerboseStatusFromFlags: it picks one
// concrete (is_active, is_checked, is_archived) combination that
// produces the desired status (Unverified and Inactive both collapse
// several input combinations onto one status; the canonical inverse
// picks the combination spec §4.6 step 2 calls out as the write target).
func flagsForVerboseStatus(status domain.VerboseStatus) (isActive, isChecked, isArchived bool) {
	switch status {
	case domain.VerboseStatusArchived:
		return true, true, true
	case domain.VerboseStatusVerified:
		return true, true, false
	case domain.VerboseStatusInactive:
		return false, false, false
	case domain.VerboseStatusUnverified:
		return true, false, false
	default:
		return false, false, false
	}
}

func (s *AccountService) DeleteAccount(ctx context.Context, actorID, accountID uuid.UUID) *domain.MappedError {
	fetchResult, mErr := s.fetching.FetchByID(ctx, accountID)
	if mErr != nil {
		return mErr
	}
	account := fetchResult.Record

	result, mErr := s.deletion.Delete(ctx, accountID)
	if mErr != nil {
		return mErr
	}
	if !result.Deleted {
		return domain.DeletionErr(true, "account could not be deleted: %s", result.Reason)
	}

	event := audit.EventSubscriptionDeleted
	if account.AccountType.Kind == domain.AccountTypeUser {
		event = audit.EventUserAccountDeleted
	}
	s.audit.Log(ctx, actorID, event, accountID.String(), nil)
	s.appendOutbox(ctx, deletedTrigger(account.AccountType.Kind), account)
	return nil
}
