package cryptox

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPService wraps RFC-6238 TOTP generation/validation: SHA-1, 6
// digits, 30s step (spec §4.3), grounded on internal/auth/mfa.go. The
// issuer string is the fixed product identifier named in spec §6.
type TOTPService struct {
	issuer string
}

// NewTOTPService builds a service with the fixed issuer string used for
// every QR code/otpauth URL this system generates.
func NewTOTPService(issuer string) *TOTPService {
	return &TOTPService{issuer: issuer}
}

// GenerateSecret creates a new TOTP key for accountName (typically the
// user's email) and renders its QR code as a PNG.
func (s *TOTPService) GenerateSecret(accountName string) (key *otp.Key, qrPNG []byte, err error) {
	key, err = totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: accountName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate totp key: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render qr code: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, nil, fmt.Errorf("failed to encode qr png: %w", err)
	}

	return key, buf.Bytes(), nil
}

// ValidateCode checks code against secret within the current 30s window
// (library default skew of one period either side).
func (s *TOTPService) ValidateCode(code, secret string) bool {
	return totp.Validate(code, secret)
}
