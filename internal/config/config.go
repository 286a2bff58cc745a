// Package config resolves process configuration once at boot into an
// immutable Bundle (spec §6 "CLI / config"; SPEC_FULL.md Design Note:
// "replace any process-wide mutable singleton with an immutable config
// bundle"). Generalized from the teacher's internal/config/config.go,
// which reads a handful of env vars directly with no indirection layer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvOrValue is spec §6's indirection: a config field is either an
// inline literal or "env:VAR_NAME", resolved once at Load time.
type EnvOrValue string

const envPrefix = "env:"

// Resolve returns the literal value, or the named environment variable's
// value when v has the "env:VAR_NAME" form. An unset referenced variable
// resolves to "".
func (v EnvOrValue) Resolve() string {
	s := string(v)
	if rest, ok := strings.CutPrefix(s, envPrefix); ok {
		return os.Getenv(rest)
	}
	return s
}

// Bundle is the fully-resolved, read-only configuration every process
// (gateway, core API, webhook worker) loads once at startup and passes
// by reference (SPEC_FULL.md Design Note).
type Bundle struct {
	DatabaseURL       string
	TokenSecret       string // cryptox.Signer key (HMAC-SHA-512)
	TOTPIssuer        string // fixed product identifier, spec §6
	AllowPublicSignup bool

	// Gateway-only.
	GatewayScope        string
	GatewayCatalogueDir string
	GatewayTimeout      time.Duration
	OAuthProvider       string // external authorization-server discovery URL
	OAuthResource       string

	// Webhook dispatcher-only.
	WebhookPollInterval time.Duration
	WebhookBatchSize    int
	WebhookMaxAttempts  uint8
}

// Load reads .env/.env.local (dev convenience, matching the teacher's
// cmd/api/main.go), then resolves every EnvOrValue field from the
// process environment into a Bundle.
func Load() (*Bundle, error) {
	_ = godotenv.Load(".env.local", ".env")

	b := &Bundle{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		TokenSecret:       os.Getenv("TOKEN_SECRET"),
		TOTPIssuer:        getenvDefault("TOTP_ISSUER", "Mycelium"),
		AllowPublicSignup: getenvBool("ALLOW_PUBLIC_REGISTRATION", false),

		GatewayScope:        getenvDefault("GATEWAY_SCOPE", "gw"),
		GatewayCatalogueDir: getenvDefault("GATEWAY_CATALOGUE", "catalogue.yaml"),
		GatewayTimeout:      getenvDuration("GATEWAY_PROXY_TIMEOUT", 30*time.Second),
		OAuthProvider:       os.Getenv("OAUTH_AUTHORIZATION_SERVER_URL"),
		OAuthResource:       os.Getenv("OAUTH_RESOURCE"),

		WebhookPollInterval: getenvDuration("WEBHOOK_POLL_INTERVAL", 10*time.Second),
		WebhookBatchSize:    getenvInt("WEBHOOK_BATCH_SIZE", 50),
		WebhookMaxAttempts:  uint8(getenvInt("WEBHOOK_MAX_ATTEMPTS", 5)),
	}

	if b.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if b.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET is required")
	}
	return b, nil
}

func getenvDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getenvBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(name string, def time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return parsed
}
