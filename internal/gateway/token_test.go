package gateway

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T) *RSAVerifier {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	verifier, err := NewRSAVerifierFromPEM(string(pubPEM))
	require.NoError(t, err)

	testKeys[verifier] = key
	return verifier
}

var testKeys = map[*RSAVerifier]*rsa.PrivateKey{}

func signTestToken(t *testing.T, verifier *RSAVerifier, email string) string {
	t.Helper()
	key, ok := testKeys[verifier]
	require.True(t, ok, "verifier was not created via newTestVerifier")

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestRSAVerifier_VerifyRoundTrip(t *testing.T) {
	verifier := newTestVerifier(t)
	token := signTestToken(t, verifier, "alice@example.com")

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Email)
}

func TestRSAVerifier_RejectsBadSignature(t *testing.T) {
	verifier := newTestVerifier(t)
	token := signTestToken(t, verifier, "alice@example.com")

	_, err := verifier.Verify(token + "tampered")
	require.Error(t, err)
}

func TestProviderVerifiers_ResolveFallsBackToInternal(t *testing.T) {
	verifier := newTestVerifier(t)
	verifiers := ProviderVerifiers{"internal": verifier}

	resolved, err := verifiers.Resolve("unknown-provider")
	require.NoError(t, err)
	require.Equal(t, verifier, resolved)
}

func TestProviderVerifiers_ResolveNoneConfigured(t *testing.T) {
	_, err := ProviderVerifiers{}.Resolve("internal")
	require.Error(t, err)
}
