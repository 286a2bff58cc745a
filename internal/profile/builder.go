// Package profile builds the per-request Profile envelope (spec §4.5,
// component C5): resolve the caller's user record, their tenant
// ownerships, the account they are acting as (if any), and the set of
// licensed resources their email grants across the system, then redact
// everything not safe to hand back to a downstream consumer.
package profile

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// Builder composes a Profile from the read-side ports. It holds no
// state of its own beyond its dependencies, matching the teacher's
// constructor-injected service style.
type Builder struct {
	users      ports.UserFetching
	tenants    ports.TenantFetching
	accounts   ports.AccountFetching
	licensed   ports.LicensedResourceFetching
}

func NewBuilder(users ports.UserFetching, tenants ports.TenantFetching, accounts ports.AccountFetching, licensed ports.LicensedResourceFetching) *Builder {
	return &Builder{users: users, tenants: tenants, accounts: accounts, licensed: licensed}
}

// Request is everything the builder needs to assemble one Profile.
type Request struct {
	Email        string
	AccountID    uuid.UUID
	TenantID     *uuid.UUID // scopes the licensed-resource lookup, if known
	Roles        []string   // restricts the licensed-resource lookup to these role slugs, if non-empty
	VerifiedOnly bool
}

// Build runs the four-step profile assembly described in spec §4.5:
//  1. resolve the user by email and the account they are acting as;
//  2. resolve every tenant the user owns;
//  3. fetch the licensed resources the email is granted, normalized to
//     the Records shape regardless of how the read port returned them;
//  4. redact every owner email before returning.
func (b *Builder) Build(ctx context.Context, req Request) (*domain.Profile, *domain.MappedError) {
	normalizedEmail := domain.NormalizeEmail(req.Email)

	userResult, mErr := b.users.FetchByEmail(ctx, normalizedEmail)
	if mErr != nil {
		return nil, mErr
	}
	if !userResult.Found {
		return nil, domain.UserNotFoundErr(normalizedEmail)
	}
	user := userResult.Record

	accountResult, mErr := b.accounts.FetchByID(ctx, req.AccountID)
	if mErr != nil {
		return nil, mErr
	}
	if !accountResult.Found {
		return nil, domain.FetchingErr(false, "account %s not found while building profile", req.AccountID)
	}
	account := accountResult.Record

	ownershipResult, mErr := b.tenants.FetchOwnershipsForUser(ctx, user.ID)
	if mErr != nil {
		return nil, mErr
	}

	licensed, mErr := b.licensed.FetchForEmail(ctx, normalizedEmail, req.TenantID, req.Roles, req.VerifiedOnly)
	if mErr != nil {
		return nil, mErr
	}

	records, err := licensed.ToRecords()
	if err != nil {
		return nil, domain.FetchingErr(false, "failed to normalize licensed resources: %v", err)
	}

	verboseStatus := account.VerboseStatus()

	return &domain.Profile{
		Owners:             redactOwners(account.Owners, user),
		AccID:              account.ID,
		IsSubscription:     account.AccountType.Kind == domain.AccountTypeSubscription,
		IsManager:          account.AccountType.Kind == domain.AccountTypeManager,
		IsStaff:            account.AccountType.Kind == domain.AccountTypeStaff,
		OwnerIsActive:      user.IsActiveInternal(),
		AccountIsActive:    account.IsActive,
		AccountWasApproved: account.IsChecked,
		AccountWasArchived: account.IsArchived,
		AccountWasDeleted:  false,
		VerboseStatus:      &verboseStatus,
		LicensedResources:  records,
		TenantsOwnership:   ownershipResult.Records,
		Meta:               account.Meta,
	}, nil
}

// redactOwners maps an account's owner references into Profile Owners,
// redacting every email except the requesting user's own (spec §4.5
// step 4: the caller may see their own address in full).
func redactOwners(owners []domain.UserRef, requester domain.User) []domain.Owner {
	out := make([]domain.Owner, 0, len(owners))
	for _, o := range owners {
		isRequester := o.ID == requester.ID
		owner := domain.Owner{
			ID:       o.ID,
			Email:    domain.RedactedEmail(o.Email),
			IsActive: isRequester && requester.IsActiveInternal(),
		}
		if isRequester {
			owner.RawEmail = o.Email
		}
		out = append(out, owner)
	}
	return out
}
