package connstring

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBeans() (uuid.UUID, uuid.UUID, uuid.UUID, []Bean) {
	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	accountID := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	roleID := uuid.MustParse("00000000-0000-0000-0000-000000000003")

	beans := []Bean{
		TenantIDBean(tenantID),
		AccountIDBean(accountID),
		UserIDBean(roleID),
		RoleBean("accounts-manager"),
		PermissionedRolesBean([]RolePermission{
			{RoleSlug: "accounts-manager", Permission: domain.PermissionWrite},
		}),
	}
	return tenantID, accountID, roleID, beans
}

// Property #1: for all connection strings s, Verify(Sign(s)) succeeds,
// and flipping any byte of the signed string makes it fail.
func TestConnectionString_SignVerifyRoundTrip(t *testing.T) {
	_, _, _, beans := sampleBeans()
	signer := cryptox.NewSigner("process-token-secret")

	signed := New(beans...).Sign(signer)
	assert.Contains(t, signed, ";SIG=")

	parsed, err := Verify(signed, signer)
	require.NoError(t, err)

	tenantID, _, _ := parsed.TenantID()
	assert.Equal(t, beans[0].Value, tenantID.String())
}

func TestConnectionString_TamperedSignatureFails(t *testing.T) {
	_, _, _, beans := sampleBeans()
	signer := cryptox.NewSigner("process-token-secret")
	signed := New(beans...).Sign(signer)

	// Flip the last hex character of SIG.
	tampered := []byte(signed)
	last := tampered[len(tampered)-1]
	if last == '0' {
		tampered[len(tampered)-1] = '1'
	} else {
		tampered[len(tampered)-1] = '0'
	}

	_, err := Verify(string(tampered), signer)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestConnectionString_TamperedBodyFails(t *testing.T) {
	_, _, _, beans := sampleBeans()
	signer := cryptox.NewSigner("process-token-secret")
	signed := New(beans...).Sign(signer)

	tampered := strings.Replace(signed, "accounts-manager", "accounts-mangled", 1)
	_, err := Verify(tampered, signer)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestConnectionString_MissingSignatureFails(t *testing.T) {
	_, _, _, beans := sampleBeans()
	signer := cryptox.NewSigner("process-token-secret")

	unsigned := New(beans...).canonicalUnsigned()
	_, err := Verify(unsigned, signer)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestConnectionString_CaseInsensitiveParseCanonicalRender(t *testing.T) {
	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	lower := "tid=" + tenantID.String() + ";role=accounts-manager"

	cs, _, err := Parse(lower)
	require.NoError(t, err)

	got, ok, err := cs.TenantID()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tenantID, got)

	role, ok := cs.Role()
	require.True(t, ok)
	assert.Equal(t, "accounts-manager", role)

	// Canonical render always upper-cases the bean keys, regardless of
	// the case the input used.
	assert.Equal(t, "TID="+tenantID.String()+";Role=accounts-manager", cs.canonicalUnsigned())
}

func TestConnectionString_UnknownBeanKeyRejected(t *testing.T) {
	_, _, err := Parse("bogus=value")
	assert.Error(t, err)
}

func TestContainTenantEnoughPermissions(t *testing.T) {
	tenantID, _, roleID, beans := sampleBeans()
	signer := cryptox.NewSigner("process-token-secret")
	signed := New(beans...).Sign(signer)

	cs, err := Verify(signed, signer)
	require.NoError(t, err)

	err = cs.ContainTenantEnoughPermissions(tenantID, roleID, []RequiredPermission{
		{RoleSlug: "accounts-manager", Required: domain.PermissionWrite},
	})
	assert.NoError(t, err)

	err = cs.ContainTenantEnoughPermissions(tenantID, roleID, []RequiredPermission{
		{RoleSlug: "accounts-manager", Required: domain.PermissionRead},
	})
	assert.Error(t, err, "Write does not satisfy a Read requirement under the lattice")

	wrongTenant := uuid.MustParse("00000000-0000-0000-0000-000000000099")
	err = cs.ContainTenantEnoughPermissions(wrongTenant, roleID, []RequiredPermission{
		{RoleSlug: "accounts-manager", Required: domain.PermissionRead},
	})
	assert.Error(t, err)
}
