package gateway

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Errors returned by TokenVerifier.Verify (spec §4.9 "Authenticated" /
// "Protected" — "user email (verified by token or connection string)").
var (
	ErrInvalidToken = errors.New("invalid bearer token")
	ErrExpiredToken = errors.New("bearer token has expired")
)

// Claims is the gateway's own bearer-token shape: unlike the upstream
// identity provider's claims, Email is carried directly since every
// downstream Mycelium lookup (profile.Builder, authz) keys off email,
// not a user id.
type Claims struct {
	Email    string    `json:"email"`
	TenantID uuid.UUID `json:"tid,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates a bearer token and extracts its claims. The
// gateway never issues tokens itself (spec §6: the OAuth discovery
// endpoints redirect to an external authorization server) — it only
// verifies what it's handed, mirroring the teacher's
// internal/auth.JWTProvider.ValidateToken half with the issuing half
// dropped.
type TokenVerifier interface {
	Verify(tokenString string) (*Claims, error)
}

// RSAVerifier verifies RS256-signed bearer tokens against a fixed public
// key, adapted from the teacher's internal/auth.JWTProvider (RSA keypair
// handling, kid header, RS256-only acceptance).
type RSAVerifier struct {
	publicKey *rsa.PublicKey
}

// NewRSAVerifierFromPEM parses a PEM-encoded RSA public key (PKIX or
// PKCS1) into an RSAVerifier.
func NewRSAVerifierFromPEM(publicKeyPEM string) (*RSAVerifier, error) {
	block, _ := pem.Decode([]byte(publicKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("failed to parse PEM block containing the public key")
	}

	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return &RSAVerifier{publicKey: pub}, nil
	}

	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("key is not of type *rsa.PublicKey")
	}
	return &RSAVerifier{publicKey: pub}, nil
}

func (v *RSAVerifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ProviderVerifiers resolves the x-mycelium-provider issuer hint (spec
// §6) to the verifier that should check a given bearer token, falling
// back to "internal" when the hint is absent or unrecognized.
type ProviderVerifiers map[string]TokenVerifier

func (p ProviderVerifiers) Resolve(providerHint string) (TokenVerifier, error) {
	if providerHint != "" {
		if v, ok := p[providerHint]; ok {
			return v, nil
		}
	}
	if v, ok := p["internal"]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("no token verifier configured for provider %q", providerHint)
}
