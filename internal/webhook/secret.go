package webhook

import (
	"encoding/json"
	"net/url"

	"github.com/mycelium-platform/mycelium/internal/domain"
)

// secretJSON mirrors domain.HttpSecret's wire shape for the ciphertext
// payload (spec §4.8 step 3: HttpSecret is stored encrypted as JSON).
type secretJSON struct {
	Kind       domain.AuthInjectionKind `json:"kind"`
	HeaderName string                   `json:"header_name,omitempty"`
	Prefix     string                   `json:"prefix,omitempty"`
	QueryName  string                   `json:"query_name,omitempty"`
	Token      string                   `json:"token"`
}

func decodeSecretJSON(plain string, out *domain.HttpSecret) error {
	var s secretJSON
	if err := json.Unmarshal([]byte(plain), &s); err != nil {
		return err
	}
	out.Kind = s.Kind
	out.HeaderName = s.HeaderName
	out.Prefix = s.Prefix
	out.QueryName = s.QueryName
	out.Token = s.Token
	return nil
}

// EncodeSecretJSON is the inverse of decodeSecretJSON, used by webhook
// registration when a caller supplies a plaintext HttpSecret to encrypt
// and store.
func EncodeSecretJSON(secret domain.HttpSecret) (string, error) {
	s := secretJSON{
		Kind:       secret.Kind,
		HeaderName: secret.HeaderName,
		Prefix:     secret.Prefix,
		QueryName:  secret.QueryName,
		Token:      secret.Token,
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func appendQueryParam(rawURL, name, value string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set(name, value)
	u.RawQuery = q.Encode()
	return u.String()
}
