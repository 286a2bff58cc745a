package profile

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct{ user domain.User }

func (f fakeUsers) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	return ports.FetchResponseKind[domain.User]{Found: f.user.ID == id, Record: f.user}, nil
}

func (f fakeUsers) FetchByEmail(ctx context.Context, email string) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	if email != f.user.Email {
		return ports.FetchResponseKind[domain.User]{}, nil
	}
	return ports.FetchResponseKind[domain.User]{Found: true, Record: f.user}, nil
}

type fakeTenants struct{ ownerships []domain.TenantOwnership }

func (f fakeTenants) Create(ctx context.Context, t domain.Tenant) (ports.CreateResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.CreateResponseKind[domain.Tenant]{}, nil
}
func (f fakeTenants) RegisterOwner(ctx context.Context, tenantID, userID uuid.UUID) (ports.UpdatingResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.UpdatingResponseKind[domain.Tenant]{}, nil
}
func (f fakeTenants) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Tenant]{}, nil
}
func (f fakeTenants) FetchByName(ctx context.Context, name string) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Tenant]{}, nil
}
func (f fakeTenants) FetchOwnershipsForUser(ctx context.Context, userID uuid.UUID) (ports.FetchManyResponseKind[domain.TenantOwnership], *domain.MappedError) {
	return ports.FetchManyResponseKind[domain.TenantOwnership]{Found: len(f.ownerships) > 0, Records: f.ownerships}, nil
}

type fakeAccounts struct{ account domain.Account }

func (f fakeAccounts) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Account]{Found: f.account.ID == id, Record: f.account}, nil
}
func (f fakeAccounts) FetchBySlug(ctx context.Context, tenantID *uuid.UUID, slug string) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Account]{}, nil
}
func (f fakeAccounts) FetchManyByTenant(ctx context.Context, tenantID uuid.UUID, skip, size int64) (ports.FetchManyResponseKind[domain.Account], *domain.MappedError) {
	return ports.FetchManyResponseKind[domain.Account]{}, nil
}

type fakeLicensed struct{ resources domain.LicensedResources }

func (f fakeLicensed) FetchForEmail(ctx context.Context, email string, tenantID *uuid.UUID, roles []string, verifiedOnly bool) (domain.LicensedResources, *domain.MappedError) {
	return f.resources, nil
}

func TestBuilder_Build_AssemblesProfile(t *testing.T) {
	userID := uuid.MustParse("00000000-0000-0000-0000-0000000000a1")
	accountID := uuid.MustParse("00000000-0000-0000-0000-0000000000a2")
	tenantID := uuid.MustParse("00000000-0000-0000-0000-0000000000a3")

	user := domain.User{ID: userID, Username: "ada", Email: "ada@example.com", IsActive: true, Provider: domain.NewInternalProvider("hash")}
	account := domain.Account{
		ID:          accountID,
		Name:        "Acme",
		AccountType: domain.NewSubscriptionAccountType(tenantID),
		IsActive:    true,
		IsChecked:   true,
		Owners:      []domain.UserRef{{ID: userID, Email: "ada@example.com"}},
		Meta:        map[string]string{"plan": "pro"},
	}

	b := NewBuilder(
		fakeUsers{user: user},
		fakeTenants{ownerships: []domain.TenantOwnership{{TenantID: tenantID}}},
		fakeAccounts{account: account},
		fakeLicensed{resources: domain.LicensedResources{Kind: domain.LicensedResourcesRecords}},
	)

	got, mErr := b.Build(context.Background(), Request{Email: "ADA@example.com", AccountID: accountID})
	require.Nil(t, mErr)

	assert.True(t, got.IsSubscription)
	assert.False(t, got.IsManager)
	assert.True(t, got.AccountIsActive)
	assert.True(t, got.AccountWasApproved)
	assert.True(t, got.OwnsTenant(tenantID))
	assert.Equal(t, domain.VerboseStatusVerified, *got.VerboseStatus)
	require.Len(t, got.Owners, 1)
	assert.Equal(t, "ada@example.com", got.Owners[0].RawEmail)
	assert.NotEqual(t, "ada@example.com", got.Owners[0].Email, "owner email must be redacted in the public field")
}

func TestBuilder_Build_UnknownUserFails(t *testing.T) {
	b := NewBuilder(
		fakeUsers{user: domain.User{ID: uuid.New(), Email: "someone@example.com"}},
		fakeTenants{},
		fakeAccounts{},
		fakeLicensed{},
	)

	_, mErr := b.Build(context.Background(), Request{Email: "nobody@example.com", AccountID: uuid.New()})
	require.NotNil(t, mErr)
	assert.Equal(t, domain.CodeUserNotFound, *mErr.Code)
}
