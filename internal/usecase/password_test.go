package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserFetching struct{ user domain.User }

func (f fakeUserFetching) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	return ports.FetchResponseKind[domain.User]{Found: f.user.ID == id, Record: f.user}, nil
}
func (f fakeUserFetching) FetchByEmail(ctx context.Context, email string) (ports.FetchResponseKind[domain.User], *domain.MappedError) {
	return ports.FetchResponseKind[domain.User]{Found: f.user.Email == email, Record: f.user}, nil
}

type fakeUserUpdating struct {
	updated    domain.User
	updateErr  *domain.MappedError
	lastHash   string
	lastMFA    domain.TOTPState
}

func (f *fakeUserUpdating) UpdatePassword(ctx context.Context, id uuid.UUID, newHash string) (ports.UpdatingResponseKind[domain.User], *domain.MappedError) {
	if f.updateErr != nil {
		return ports.UpdatingResponseKind[domain.User]{}, f.updateErr
	}
	f.lastHash = newHash
	f.updated.Provider.PasswordHash = newHash
	return ports.UpdatingResponseKind[domain.User]{Updated: true, Record: f.updated}, nil
}
func (f *fakeUserUpdating) UpdateMFA(ctx context.Context, id uuid.UUID, mfa domain.TOTPState) (ports.UpdatingResponseKind[domain.User], *domain.MappedError) {
	f.lastMFA = mfa
	f.updated.MFA = mfa
	return ports.UpdatingResponseKind[domain.User]{Updated: true, Record: f.updated}, nil
}

type noopAudit struct{}

func (noopAudit) Log(ctx context.Context, actorID uuid.UUID, action audit.EventType, resource string, metadata map[string]string) {
}

func TestPasswordService_Change_Success(t *testing.T) {
	hasher := cryptox.NewArgon2Hasher()
	oldHash, err := hasher.Hash("old-password-1")
	require.NoError(t, err)

	userID := uuid.New()
	user := domain.User{ID: userID, Email: "ada@example.com", Provider: domain.NewInternalProvider(oldHash)}

	updating := &fakeUserUpdating{updated: user}
	svc := NewPasswordService(fakeUserFetching{user: user}, updating, hasher, noopAudit{})

	mErr := svc.Change(context.Background(), userID, "old-password-1", "new-password-2")
	require.Nil(t, mErr)
	assert.NoError(t, hasher.Check(updating.lastHash, "new-password-2"))
}

func TestPasswordService_Change_WrongOldPasswordRejected(t *testing.T) {
	hasher := cryptox.NewArgon2Hasher()
	oldHash, _ := hasher.Hash("old-password-1")
	userID := uuid.New()
	user := domain.User{ID: userID, Email: "ada@example.com", Provider: domain.NewInternalProvider(oldHash)}

	svc := NewPasswordService(fakeUserFetching{user: user}, &fakeUserUpdating{updated: user}, hasher, noopAudit{})

	mErr := svc.Change(context.Background(), userID, "wrong-password", "new-password-2")
	require.NotNil(t, mErr)
	assert.Equal(t, domain.KindAuthentication, mErr.Kind)
}

func TestPasswordService_Change_SamePasswordRejected(t *testing.T) {
	hasher := cryptox.NewArgon2Hasher()
	oldHash, _ := hasher.Hash("same-password")
	userID := uuid.New()
	user := domain.User{ID: userID, Email: "ada@example.com", Provider: domain.NewInternalProvider(oldHash)}

	svc := NewPasswordService(fakeUserFetching{user: user}, &fakeUserUpdating{updated: user}, hasher, noopAudit{})

	mErr := svc.Change(context.Background(), userID, "same-password", "same-password")
	require.NotNil(t, mErr)
	assert.Equal(t, domain.CodePasswordEqualsOld, *mErr.Code)
}
