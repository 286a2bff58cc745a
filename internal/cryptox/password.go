// Package cryptox implements the secret & token crypto primitives from
// spec §4.3 (component C3): password hashing, HMAC signing for
// connection strings, TOTP, and authenticated encryption for secrets at
// rest.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrMismatchOrMalformed is returned by PasswordHash.Check when the raw
// password does not match, or the stored hash is not a hash this package
// produced (spec §4.3: "Err(MismatchOrMalformed)").
var ErrMismatchOrMalformed = errors.New("password mismatch or malformed hash")

// argon2Params follow the OWASP-recommended interactive profile for
// argon2id; kept as constants (not configurable) since the spec does not
// ask for tunable cost, only "Argon2-family" hashing.
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024 // KiB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

// PasswordHasher mirrors the teacher's PasswordHasher contract
// (internal/auth/password.go) so the rest of the codebase can mock
// hashing in tests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) error
}

// Argon2Hasher implements PasswordHasher using Argon2id (spec §4.3).
type Argon2Hasher struct{}

func NewArgon2Hasher() *Argon2Hasher { return &Argon2Hasher{} }

// Hash returns an opaque, self-describing string:
// "argon2id$<time>$<memory>$<threads>$<b64 salt>$<b64 hash>".
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	sum := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"argon2id$%d$%d$%d$%s$%s",
		argon2Time, argon2Memory, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(sum),
	), nil
}

// Check returns nil on match, ErrMismatchOrMalformed otherwise (spec
// §4.3: "PasswordHash::check(raw) returns Ok on match").
func (h *Argon2Hasher) Check(hash, password string) error {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return ErrMismatchOrMalformed
	}

	var timeCost uint32
	var memoryCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[1]+" "+parts[2]+" "+parts[3], "%d %d %d", &timeCost, &memoryCost, &threads); err != nil {
		return ErrMismatchOrMalformed
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return ErrMismatchOrMalformed
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return ErrMismatchOrMalformed
	}

	got := argon2.IDKey([]byte(password), salt, timeCost, memoryCost, threads, uint32(len(want)))
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatchOrMalformed
	}
	return nil
}
