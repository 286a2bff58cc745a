package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCiphertextTooShort is returned when a ciphertext is shorter than
// the nonce it is supposed to be prefixed with.
var ErrCiphertextTooShort = errors.New("ciphertext too short (possible corruption or tampering)")

// SecretBox provides symmetric authenticated encryption for data that
// must exist in plaintext only transiently: the raw HttpSecret token at
// webhook-dispatch time, and the TOTP secret during enable/verify/disable
// (spec §4.3 "HttpSecret encryption"). Keyed by the process token_secret.
type SecretBox struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
		NonceSize() int
	}
}

// NewSecretBox derives a SecretBox from a 32-byte key. tokenSecret may be
// any length; it is reduced to 32 bytes by the caller (see
// DeriveKeyFromSecret) before being passed here.
func NewSecretBox(key32 []byte) (*SecretBox, error) {
	aead, err := chacha20poly1305.New(key32)
	if err != nil {
		return nil, fmt.Errorf("failed to construct aead: %w", err)
	}
	return &SecretBox{aead: aead}, nil
}

// Encrypt returns base64(nonce || ciphertext).
func (b *SecretBox) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt, failing if the ciphertext was tampered with
// or the key does not match.
func (b *SecretBox) Decrypt(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64 ciphertext: %w", err)
	}

	nonceSize := b.aead.NonceSize()
	if len(raw) < nonceSize {
		return "", ErrCiphertextTooShort
	}

	nonce, ciphertext := raw[:nonceSize], raw[nonceSize:]
	plaintext, err := b.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("decryption failed (invalid key or tampered data): %w", err)
	}
	return string(plaintext), nil
}

// DeriveKeyFromSecret folds an arbitrary-length secret into the 32-byte
// key chacha20poly1305 requires, via BLAKE2-style use would be
// overkill here; SHA-256 is sufficient since the input is already a
// high-entropy process secret, not a user password.
func DeriveKeyFromSecret(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}
