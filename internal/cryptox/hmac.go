package cryptox

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signer computes and verifies HMAC-SHA-512 signatures over the
// canonical serialised form of a connection string's beans (spec §4.3,
// §4.4). It is keyed by the process-wide token_secret.
type Signer struct {
	secret []byte
}

func NewSigner(tokenSecret string) *Signer {
	return &Signer{secret: []byte(tokenSecret)}
}

// Sign returns the lowercase hex HMAC-SHA-512 digest of canonical.
func (s *Signer) Sign(canonical string) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature is the correct HMAC-SHA-512 digest of
// canonical, using a constant-time comparison (spec §4.4: "in constant
// time"), matching the pattern in internal/auth/secure_compare.go.
func (s *Signer) Verify(canonical, signature string) bool {
	want := s.Sign(canonical)
	return subtle.ConstantTimeCompare([]byte(want), []byte(signature)) == 1
}
