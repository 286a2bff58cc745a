package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/connstring"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLicensedResourceFetching struct{ resources domain.LicensedResources }

func (f fakeLicensedResourceFetching) FetchForEmail(ctx context.Context, email string, tenantID *uuid.UUID, roles []string, verifiedOnly bool) (domain.LicensedResources, *domain.MappedError) {
	return f.resources, nil
}

func TestConnectionStringService_ListMine(t *testing.T) {
	tenantID := uuid.New()
	accountID := uuid.New()
	roleID := uuid.New()

	resources := domain.LicensedResources{
		Kind: domain.LicensedResourcesRecords,
		Records: []domain.LicensedResource{
			{TenantID: tenantID, AccID: accountID, RoleID: roleID, Role: "accounts-manager", Perm: domain.PermissionWrite, Verified: true},
		},
	}

	signer := cryptox.NewSigner("process-token-secret")
	svc := NewConnectionStringService(fakeLicensedResourceFetching{resources: resources}, signer)

	tokens, mErr := svc.ListMine(context.Background(), "ada@example.com", nil, nil, false)
	require.Nil(t, mErr)
	require.Len(t, tokens, 1)

	decoded, err := connstring.DecodeFromHeader(tokens[0])
	require.NoError(t, err)

	cs, err := connstring.Verify(decoded, signer)
	require.NoError(t, err)

	gotTenant, ok, err := cs.TenantID()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, tenantID, gotTenant)
}
