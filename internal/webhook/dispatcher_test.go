package webhook

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_DispatchOne_HeaderAuthInjection(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewDispatcher(nil, nil, 100)
	target := Target{
		Hook:   domain.WebHook{ID: uuid.New(), URL: server.URL},
		Secret: &domain.HttpSecret{Kind: domain.AuthInjectionHeader, HeaderName: "Authorization", Prefix: "Bearer ", Token: "tok123"},
	}
	artifact := domain.WebHookPayloadArtifact{
		PayloadB64: base64.StdEncoding.EncodeToString([]byte(`{"hello":"world"}`)),
		Trigger:    domain.TriggerUserAccountCreated,
	}

	resp := d.DispatchOne(context.Background(), target, artifact)
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestDispatcher_DispatchOne_QueryAuthInjection(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("api_key")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	d := NewDispatcher(nil, nil, 100)
	target := Target{
		Hook:   domain.WebHook{ID: uuid.New(), URL: server.URL},
		Secret: &domain.HttpSecret{Kind: domain.AuthInjectionQuery, QueryName: "api_key", Token: "qtok"},
	}
	artifact := domain.WebHookPayloadArtifact{
		PayloadB64: base64.StdEncoding.EncodeToString([]byte(`{}`)),
		Trigger:    domain.TriggerUserAccountUpdated,
	}

	resp := d.DispatchOne(context.Background(), target, artifact)
	assert.Equal(t, http.StatusNoContent, resp.Status)
	assert.Equal(t, "qtok", gotToken)
}

func TestDispatcher_DispatchOne_TransportErrorReportsZeroStatus(t *testing.T) {
	d := NewDispatcher(nil, nil, 100)
	target := Target{Hook: domain.WebHook{ID: uuid.New(), URL: "http://127.0.0.1:0"}}
	artifact := domain.WebHookPayloadArtifact{PayloadB64: base64.StdEncoding.EncodeToString([]byte(`{}`))}

	resp := d.DispatchOne(context.Background(), target, artifact)
	assert.Equal(t, 0, resp.Status)
	require.NotNil(t, resp.Body)
}

func TestDispatcher_DecryptSecret_RoundTrip(t *testing.T) {
	box, err := cryptox.NewSecretBox(cryptox.DeriveKeyFromSecret("process-secret"))
	require.NoError(t, err)

	plain, err := EncodeSecretJSON(domain.HttpSecret{Kind: domain.AuthInjectionHeader, HeaderName: "X-Api-Key", Token: "abc"})
	require.NoError(t, err)
	enc, err := box.Encrypt(plain)
	require.NoError(t, err)

	d := NewDispatcher(nil, box, 100)
	hook := domain.WebHook{SecretEnc: &enc}

	secret, err := d.DecryptSecret(hook)
	require.NoError(t, err)
	require.NotNil(t, secret)
	assert.Equal(t, "abc", secret.Token)
	assert.Equal(t, domain.AuthInjectionHeader, secret.Kind)
}

func TestDispatcher_DecryptSecret_NilWhenUnset(t *testing.T) {
	d := NewDispatcher(nil, nil, 100)
	secret, err := d.DecryptSecret(domain.WebHook{})
	require.NoError(t, err)
	assert.Nil(t, secret)
}
