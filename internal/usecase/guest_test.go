package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuestRegistration struct {
	created bool
	revoked bool
}

func (f *fakeGuestRegistration) Create(ctx context.Context, email string, roleID, accountID uuid.UUID) (ports.CreateResponseKind[uuid.UUID], *domain.MappedError) {
	if f.created {
		return ports.CreateResponseKind[uuid.UUID]{Created: false, Reason: "already guested"}, nil
	}
	f.created = true
	return ports.CreateResponseKind[uuid.UUID]{Created: true, Record: uuid.New()}, nil
}

func (f *fakeGuestRegistration) Revoke(ctx context.Context, email string, roleID, accountID uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	f.revoked = true
	return ports.DeletionResponseKind{Deleted: true}, nil
}

type fakeAccountFetching struct{ account domain.Account }

func (f fakeAccountFetching) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Account]{Found: f.account.ID == id, Record: f.account}, nil
}
func (f fakeAccountFetching) FetchBySlug(ctx context.Context, tenantID *uuid.UUID, slug string) (ports.FetchResponseKind[domain.Account], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Account]{}, nil
}
func (f fakeAccountFetching) FetchManyByTenant(ctx context.Context, tenantID uuid.UUID, skip, size int64) (ports.FetchManyResponseKind[domain.Account], *domain.MappedError) {
	return ports.FetchManyResponseKind[domain.Account]{}, nil
}

type fakeGuestRoleFetching struct{ role domain.GuestRole }

func (f fakeGuestRoleFetching) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.GuestRole], *domain.MappedError) {
	return ports.FetchResponseKind[domain.GuestRole]{Found: f.role.ID == id, Record: f.role}, nil
}
func (f fakeGuestRoleFetching) FetchBySlug(ctx context.Context, slug string) (ports.FetchResponseKind[domain.GuestRole], *domain.MappedError) {
	return ports.FetchResponseKind[domain.GuestRole]{}, nil
}
func (f fakeGuestRoleFetching) FetchSystemRoles(ctx context.Context) (ports.FetchManyResponseKind[domain.GuestRole], *domain.MappedError) {
	return ports.FetchManyResponseKind[domain.GuestRole]{}, nil
}

type fakeMailer struct{ sent []string }

func (f *fakeMailer) SendInvitation(ctx context.Context, to string, inviteURL string) error {
	f.sent = append(f.sent, to)
	return nil
}
func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, token, appURL string) error { return nil }
func (f *fakeMailer) SendVerification(ctx context.Context, to, token, appURL string) error  { return nil }

func TestGuestService_GuestUser_Success(t *testing.T) {
	accountID := uuid.New()
	roleID := uuid.New()
	account := domain.Account{ID: accountID, AccountType: domain.NewSubscriptionAccountType(uuid.New())}
	role := domain.GuestRole{ID: roleID, Slug: "accounts-manager"}

	guests := &fakeGuestRegistration{}
	mailer := &fakeMailer{}

	outbox := &fakeOutbox{}
	svc := NewGuestService(guests, fakeAccountFetching{account: account}, fakeGuestRoleFetching{role: role}, mailer, outbox, noopAudit{}, nil)

	mErr := svc.GuestUser(context.Background(), uuid.New(), "Guest@Example.com", roleID, accountID, "https://app.example.com/invite")
	require.Nil(t, mErr)
	assert.True(t, guests.created)
	assert.Equal(t, []string{"guest@example.com"}, mailer.sent)
	require.Len(t, outbox.appended, 1)
	assert.Equal(t, domain.TriggerGuestAccountInvited, outbox.appended[0].Trigger)
}

func TestGuestService_GuestUser_RejectsNonGuestableAccount(t *testing.T) {
	accountID := uuid.New()
	account := domain.Account{ID: accountID, AccountType: domain.NewUserAccountType()}

	svc := NewGuestService(&fakeGuestRegistration{}, fakeAccountFetching{account: account}, fakeGuestRoleFetching{}, &fakeMailer{}, &fakeOutbox{}, noopAudit{}, nil)

	mErr := svc.GuestUser(context.Background(), uuid.New(), "guest@example.com", uuid.New(), accountID, "https://app.example.com/invite")
	require.NotNil(t, mErr)
	assert.Equal(t, domain.CodeGuestTargetNotFound, *mErr.Code)
}

func TestGuestService_RevokeGuest_InvalidatesCache(t *testing.T) {
	guests := &fakeGuestRegistration{}
	invalidated := false

	svc := NewGuestService(guests, fakeAccountFetching{}, fakeGuestRoleFetching{}, &fakeMailer{}, &fakeOutbox{}, noopAudit{}, func(ctx context.Context, email string, tenantID *uuid.UUID) error {
		invalidated = true
		return nil
	})

	mErr := svc.RevokeGuest(context.Background(), uuid.New(), "guest@example.com", uuid.New(), uuid.New())
	require.Nil(t, mErr)
	assert.True(t, guests.revoked)
	assert.True(t, invalidated)
}
