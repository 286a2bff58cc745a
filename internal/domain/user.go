package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProviderKind discriminates the User.Provider tagged union (spec §3).
type ProviderKind string

const (
	ProviderInternal ProviderKind = "internal"
	ProviderExternal ProviderKind = "external"
)

// Provider is Internal{password_hash} | External{name}.
type Provider struct {
	Kind         ProviderKind
	PasswordHash string // Internal only
	Name         string // External only, e.g. "google"
}

func NewInternalProvider(passwordHash string) Provider {
	return Provider{Kind: ProviderInternal, PasswordHash: passwordHash}
}

func NewExternalProvider(name string) Provider {
	return Provider{Kind: ProviderExternal, Name: name}
}

// TOTPState is the User.mfa.totp tagged union: Disabled | Enabled{verified, issuer, secret_enc}.
type TOTPState struct {
	Enabled    bool
	Verified   bool
	Issuer     string
	SecretEnc  string // ciphertext, never the raw secret
}

// User is a human or machine principal (spec §3).
type User struct {
	ID          uuid.UUID
	Username    string
	Email       string
	FirstName   *string
	LastName    *string
	IsActive    bool
	IsPrincipal bool
	Provider    Provider
	MFA         TOTPState
	Created     time.Time
	Updated     time.Time
}

// NormalizeEmail lowercases an email for the case-insensitive-unique
// invariant in spec §3.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsActiveInternal reports whether the user can authenticate via the
// internal password provider right now (spec §4.7 "Create user account").
func (u *User) IsActiveInternal() bool {
	return u.Provider.Kind == ProviderInternal && u.IsActive
}

// RedactedEmail keeps the local-part prefix and the domain's first
// letter, per spec §4.5 step 4 ("redacted emails on owners").
func RedactedEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return "***"
	}
	local, domain := email[:at], email[at+1:]

	prefixLen := 2
	if len(local) < prefixLen {
		prefixLen = len(local)
	}
	redactedLocal := local[:prefixLen] + strings.Repeat("*", len(local)-prefixLen)

	redactedDomain := string(domain[0]) + strings.Repeat("*", len(domain)-1)
	return redactedLocal + "@" + redactedDomain
}
