package webhook

import (
	"testing"

	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeSecretJSON_RoundTrip(t *testing.T) {
	secret := domain.HttpSecret{Kind: domain.AuthInjectionQuery, QueryName: "token", Token: "xyz"}

	plain, err := EncodeSecretJSON(secret)
	require.NoError(t, err)

	var decoded domain.HttpSecret
	require.NoError(t, decodeSecretJSON(plain, &decoded))
	assert.Equal(t, secret, decoded)
}

func TestAppendQueryParam_PreservesExistingQuery(t *testing.T) {
	got := appendQueryParam("https://example.com/hook?a=1", "token", "xyz")
	assert.Contains(t, got, "a=1")
	assert.Contains(t, got, "token=xyz")
}

func TestAppendQueryParam_InvalidURLReturnsUnchanged(t *testing.T) {
	got := appendQueryParam("://bad-url", "token", "xyz")
	assert.Equal(t, "://bad-url", got)
}
