package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWebHookRegistration struct{ created domain.WebHook }

func (f *fakeWebHookRegistration) Create(ctx context.Context, hook domain.WebHook) (ports.CreateResponseKind[domain.WebHook], *domain.MappedError) {
	f.created = hook
	return ports.CreateResponseKind[domain.WebHook]{Created: true, Record: hook}, nil
}

type fakeWebHookDeletion struct{ deleted uuid.UUID }

func (f *fakeWebHookDeletion) Delete(ctx context.Context, id uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	f.deleted = id
	return ports.DeletionResponseKind{Deleted: true}, nil
}

func TestWebHookService_Register_EncryptsSecret(t *testing.T) {
	box, err := cryptox.NewSecretBox(cryptox.DeriveKeyFromSecret("process-token-secret"))
	require.NoError(t, err)

	registration := &fakeWebHookRegistration{}
	svc := NewWebHookService(registration, &fakeWebHookDeletion{}, box, noopAudit{})

	hook, mErr := svc.Register(context.Background(), RegisterInput{
		ActorID: uuid.New(),
		Name:    "billing-sync",
		URL:     "https://billing.example.com/hooks",
		Trigger: domain.TriggerSubscriptionAccountCreated,
		Secret:  &domain.HttpSecret{Kind: domain.AuthInjectionHeader, HeaderName: "Authorization", Prefix: "Bearer ", Token: "s3cr3t"},
	})
	require.Nil(t, mErr)
	require.NotNil(t, hook.SecretEnc)
	assert.NotEqual(t, "s3cr3t", *hook.SecretEnc)
}

func TestWebHookService_Unregister(t *testing.T) {
	deletion := &fakeWebHookDeletion{}
	svc := NewWebHookService(&fakeWebHookRegistration{}, deletion, nil, noopAudit{})

	hookID := uuid.New()
	mErr := svc.Unregister(context.Background(), uuid.New(), hookID)
	require.Nil(t, mErr)
	assert.Equal(t, hookID, deletion.deleted)
}
