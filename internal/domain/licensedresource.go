package domain

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// LicensedResource is the JOIN of guest-user <-> account <-> guest-role
// filtered by a target email, materialised as a row view (spec §3).
type LicensedResource struct {
	TenantID uuid.UUID
	AccID    uuid.UUID
	AccName  string
	SysAcc   bool
	RoleID   uuid.UUID
	Role     string
	Perm     Permission
	Verified bool
}

var hex32Pattern = regexp.MustCompile(`^[0-9a-fA-F]{32}$`)

func hex32(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "")
}

func parseHex32(s string) (uuid.UUID, error) {
	if !hex32Pattern.MatchString(s) {
		return uuid.Nil, fmt.Errorf("not a strict 32-hex uuid: %q", s)
	}
	// Re-insert the canonical dashes so uuid.Parse accepts it.
	canonical := fmt.Sprintf("%s-%s-%s-%s-%s", s[0:8], s[8:12], s[12:16], s[16:20], s[20:32])
	return uuid.Parse(canonical)
}

// String renders the bit-exact URL form from spec §6:
//
//	t/{tenant}/a/{account}/r/{role}?p={role}:{perm}&s={0|1}&v={0|1}&n={base64(name)}
func (lr LicensedResource) String() string {
	sysFlag := "0"
	if lr.SysAcc {
		sysFlag = "1"
	}
	verifiedFlag := "0"
	if lr.Verified {
		verifiedFlag = "1"
	}
	encodedName := url.QueryEscape(base64.StdEncoding.EncodeToString([]byte(lr.AccName)))

	return fmt.Sprintf(
		"t/%s/a/%s/r/%s?p=%s:%d&s=%s&v=%s&n=%s",
		hex32(lr.TenantID), hex32(lr.AccID), hex32(lr.RoleID),
		lr.Role, int(lr.Perm), sysFlag, verifiedFlag, encodedName,
	)
}

// ParseLicensedResource parses the URL form, failing MYC00019 (spec §6,
// "Invalid input -> MYC00019") on any deviation from the strict grammar.
func ParseLicensedResource(s string) (LicensedResource, error) {
	fail := func(format string, args ...any) (LicensedResource, error) {
		return LicensedResource{}, UseCaseErrWithCode(CodeAuthorizationRefused, format, args...)
	}

	pathPart, queryPart, hasQuery := strings.Cut(s, "?")
	if !hasQuery {
		return fail("licensed resource missing query parameters")
	}

	segments := strings.Split(strings.Trim(pathPart, "/"), "/")
	if len(segments) != 6 || segments[0] != "t" || segments[2] != "a" || segments[4] != "r" {
		return fail("invalid licensed resource path format: %q", pathPart)
	}

	tenantID, err := parseHex32(segments[1])
	if err != nil {
		return fail("invalid tenant uuid: %v", err)
	}
	accID, err := parseHex32(segments[3])
	if err != nil {
		return fail("invalid account uuid: %v", err)
	}
	roleID, err := parseHex32(segments[5])
	if err != nil {
		return fail("invalid role uuid: %v", err)
	}

	values, err := url.ParseQuery(queryPart)
	if err != nil {
		return fail("invalid query parameters: %v", err)
	}

	p := values.Get("p")
	pParts := strings.Split(p, ":")
	if len(pParts) != 2 {
		return fail("invalid permissioned role format: %q", p)
	}
	roleName := pParts[0]
	permCode, err := strconv.Atoi(pParts[1])
	if err != nil {
		return fail("invalid permission code: %q", pParts[1])
	}

	sysFlag, err := parseBinaryFlag(values.Get("s"))
	if err != nil {
		return fail("invalid sys_acc flag: %v", err)
	}
	verifiedFlag, err := parseBinaryFlag(values.Get("v"))
	if err != nil {
		return fail("invalid verified flag: %v", err)
	}

	nameBytes, err := base64.StdEncoding.DecodeString(values.Get("n"))
	if err != nil {
		return fail("invalid base64 account name: %v", err)
	}

	return LicensedResource{
		TenantID: tenantID,
		AccID:    accID,
		AccName:  string(nameBytes),
		SysAcc:   sysFlag,
		RoleID:   roleID,
		Role:     roleName,
		Perm:     Permission(permCode),
		Verified: verifiedFlag,
	}, nil
}

func parseBinaryFlag(raw string) (bool, error) {
	switch raw {
	case "0":
		return false, nil
	case "1":
		return true, nil
	default:
		return false, fmt.Errorf("flag must be 0 or 1, got %q", raw)
	}
}

// LicensedResourcesKind discriminates the repository-returned projection
// shape (spec §4.5: "the storage adapter may return either the
// materialised view rows or the URL-encoded string form").
type LicensedResourcesKind string

const (
	LicensedResourcesRecords LicensedResourcesKind = "records"
	LicensedResourcesUrls    LicensedResourcesKind = "urls"
)

// LicensedResources wraps either shape and normalizes to []LicensedResource.
type LicensedResources struct {
	Kind    LicensedResourcesKind
	Records []LicensedResource
	Urls    []string
}

// ToRecords normalizes either representation to a flat slice, per
// SPEC_FULL.md §3's "LicensedResources::Records | Urls" requirement.
func (lrs LicensedResources) ToRecords() ([]LicensedResource, error) {
	if lrs.Kind == LicensedResourcesRecords {
		return lrs.Records, nil
	}
	out := make([]LicensedResource, 0, len(lrs.Urls))
	for _, u := range lrs.Urls {
		lr, err := ParseLicensedResource(u)
		if err != nil {
			return nil, err
		}
		out = append(out, lr)
	}
	return out, nil
}
