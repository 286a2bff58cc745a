package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildProfile(resources ...domain.LicensedResource) *domain.Profile {
	return &domain.Profile{LicensedResources: resources}
}

func TestEvaluator_OnTenantAndRole_Success(t *testing.T) {
	tenantID := uuid.New()
	otherTenant := uuid.New()

	profile := buildProfile(
		domain.LicensedResource{TenantID: tenantID, Role: "accounts-manager", Perm: domain.PermissionWrite, Verified: true},
		domain.LicensedResource{TenantID: otherTenant, Role: "accounts-manager", Perm: domain.PermissionReadWrite, Verified: true},
	)

	matches, mErr := New(profile).OnTenant(tenantID).WithRoles("accounts-manager").WithWriteAccess().GetRelatedAccountsOrError()
	require.Nil(t, mErr)
	require.Len(t, matches, 1)
	assert.Equal(t, tenantID, matches[0].TenantID)
}

func TestEvaluator_NoMatchReturnsForbidden(t *testing.T) {
	tenantID := uuid.New()
	profile := buildProfile(
		domain.LicensedResource{TenantID: tenantID, Role: "billing", Perm: domain.PermissionRead, Verified: true},
	)

	_, mErr := New(profile).OnTenant(tenantID).WithRoles("accounts-manager").GetRelatedAccountsOrError()
	require.NotNil(t, mErr)
	assert.Equal(t, domain.CodeAuthorizationRefused, *mErr.Code)
}

func TestEvaluator_WriteDoesNotSatisfyReadRequirement(t *testing.T) {
	tenantID := uuid.New()
	profile := buildProfile(
		domain.LicensedResource{TenantID: tenantID, Role: "accounts-manager", Perm: domain.PermissionWrite, Verified: true},
	)

	_, mErr := New(profile).OnTenant(tenantID).WithReadAccess().GetRelatedAccountsOrError()
	assert.NotNil(t, mErr, "Write must not satisfy a Read requirement under the lattice")
}

func TestEvaluator_ReadWriteSatisfiesEverything(t *testing.T) {
	tenantID := uuid.New()
	profile := buildProfile(
		domain.LicensedResource{TenantID: tenantID, Role: "accounts-manager", Perm: domain.PermissionReadWrite, Verified: true},
	)

	_, mErr := New(profile).OnTenant(tenantID).WithReadAccess().GetRelatedAccountsOrError()
	assert.Nil(t, mErr)
}

func TestEvaluator_GetRelatedAccountOrError_AmbiguousRejected(t *testing.T) {
	tenantID := uuid.New()
	profile := buildProfile(
		domain.LicensedResource{TenantID: tenantID, AccID: uuid.New(), Role: "accounts-manager", Perm: domain.PermissionReadWrite, Verified: true},
		domain.LicensedResource{TenantID: tenantID, AccID: uuid.New(), Role: "accounts-manager", Perm: domain.PermissionReadWrite, Verified: true},
	)

	_, mErr := New(profile).OnTenant(tenantID).GetRelatedAccountOrError()
	require.NotNil(t, mErr)
	assert.Equal(t, domain.CodeMultipleTokensMatched, *mErr.Code)
}

func TestEvaluator_WithSystemAccountsAccess(t *testing.T) {
	tenantID := uuid.New()
	profile := buildProfile(
		domain.LicensedResource{TenantID: tenantID, Role: "tenant-manager", SysAcc: true, Perm: domain.PermissionReadWrite, Verified: true},
		domain.LicensedResource{TenantID: tenantID, Role: "tenant-manager", SysAcc: false, Perm: domain.PermissionReadWrite, Verified: true},
	)

	matches, mErr := New(profile).OnTenant(tenantID).WithSystemAccountsAccess().GetRelatedAccountsOrError()
	require.Nil(t, mErr)
	require.Len(t, matches, 1)
	assert.True(t, matches[0].SysAcc)
}
