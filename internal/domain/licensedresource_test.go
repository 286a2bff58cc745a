package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Round-trip: parse(render(lr)) == lr for every valid lr (spec §8 property #3).
func TestLicensedResource_RoundTrip(t *testing.T) {
	lr := LicensedResource{
		TenantID: uuid.New(),
		AccID:    uuid.New(),
		AccName:  "Acme Co.",
		SysAcc:   true,
		RoleID:   uuid.New(),
		Role:     "accounts-manager",
		Perm:     PermissionWrite,
		Verified: true,
	}

	rendered := lr.String()
	parsed, err := ParseLicensedResource(rendered)
	require.NoError(t, err)
	assert.Equal(t, lr, parsed)
}

// AccName here base64-encodes to "A+AA" — a name whose rendered query
// string contains a literal '+', which url.ParseQuery would otherwise
// unescape to a space on parse.
func TestLicensedResource_RoundTrip_NameContainsPlus(t *testing.T) {
	lr := LicensedResource{
		TenantID: uuid.New(),
		AccID:    uuid.New(),
		AccName:  string([]byte{0x03, 0xE0, 0x00}),
		RoleID:   uuid.New(),
		Role:     "viewer",
		Perm:     PermissionRead,
	}

	rendered := lr.String()
	parsed, err := ParseLicensedResource(rendered)
	require.NoError(t, err)
	assert.Equal(t, lr, parsed)
}

// Scenario S4 from spec §8.
func TestLicensedResource_S4(t *testing.T) {
	input := "t/00000000000000000000000000000001/a/00000000000000000000000000000002/r/00000000000000000000000000000003?p=accounts-manager:2&s=1&v=1&n=QWNt"

	lr, err := ParseLicensedResource(input)
	require.NoError(t, err)

	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-000000000001"), lr.TenantID)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-000000000002"), lr.AccID)
	assert.Equal(t, uuid.MustParse("00000000-0000-0000-0000-000000000003"), lr.RoleID)
	assert.Equal(t, "accounts-manager", lr.Role)
	assert.Equal(t, PermissionWrite, lr.Perm)
	assert.True(t, lr.SysAcc)
	assert.True(t, lr.Verified)
	assert.Equal(t, "Acm", lr.AccName)
}

func TestLicensedResource_InvalidInputIsRejected(t *testing.T) {
	cases := []string{
		"",
		"t/not-hex/a/00000000000000000000000000000002/r/00000000000000000000000000000003?p=x:0&s=1&v=1&n=QQ==",
		"t/00000000000000000000000000000001/a/00000000000000000000000000000002/r/00000000000000000000000000000003?p=x&s=1&v=1&n=QQ==",
		"t/00000000000000000000000000000001/a/00000000000000000000000000000002/r/00000000000000000000000000000003?p=x:0&s=2&v=1&n=QQ==",
		"t/00000000-0000-0000-0000-000000000001/a/00000000000000000000000000000002/r/00000000000000000000000000000003?p=x:0&s=1&v=1&n=QQ==",
	}
	for _, c := range cases {
		_, err := ParseLicensedResource(c)
		assert.Error(t, err, "expected rejection for %q", c)
		var merr *MappedError
		if assert.ErrorAs(t, err, &merr) {
			assert.Equal(t, CodeAuthorizationRefused, *merr.Code)
		}
	}
}

func TestLicensedResources_ToRecords_NormalizesBothShapes(t *testing.T) {
	lr := LicensedResource{
		TenantID: uuid.New(),
		AccID:    uuid.New(),
		AccName:  "Acme",
		RoleID:   uuid.New(),
		Role:     "viewer",
		Perm:     PermissionRead,
	}

	fromRecords := LicensedResources{Kind: LicensedResourcesRecords, Records: []LicensedResource{lr}}
	records, err := fromRecords.ToRecords()
	require.NoError(t, err)
	assert.Equal(t, []LicensedResource{lr}, records)

	fromUrls := LicensedResources{Kind: LicensedResourcesUrls, Urls: []string{lr.String()}}
	records2, err := fromUrls.ToRecords()
	require.NoError(t, err)
	assert.Equal(t, []LicensedResource{lr}, records2)
}
