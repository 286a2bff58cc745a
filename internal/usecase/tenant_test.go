package usecase

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTenantRegistration struct{}

func (f fakeTenantRegistration) Create(ctx context.Context, tenant domain.Tenant) (ports.CreateResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.CreateResponseKind[domain.Tenant]{Created: true, Record: tenant}, nil
}
func (f fakeTenantRegistration) RegisterOwner(ctx context.Context, tenantID, userID uuid.UUID) (ports.UpdatingResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.UpdatingResponseKind[domain.Tenant]{Updated: true}, nil
}

type fakeTenantFetching struct{ tenant domain.Tenant }

func (f fakeTenantFetching) FetchByID(ctx context.Context, id uuid.UUID) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Tenant]{Found: f.tenant.ID == id, Record: f.tenant}, nil
}
func (f fakeTenantFetching) FetchByName(ctx context.Context, name string) (ports.FetchResponseKind[domain.Tenant], *domain.MappedError) {
	return ports.FetchResponseKind[domain.Tenant]{}, nil
}
func (f fakeTenantFetching) FetchOwnershipsForUser(ctx context.Context, userID uuid.UUID) (ports.FetchManyResponseKind[domain.TenantOwnership], *domain.MappedError) {
	return ports.FetchManyResponseKind[domain.TenantOwnership]{}, nil
}

type fakeTenantDeletion struct{}

func (f fakeTenantDeletion) Delete(ctx context.Context, id uuid.UUID) (ports.DeletionResponseKind, *domain.MappedError) {
	return ports.DeletionResponseKind{Deleted: true}, nil
}

func TestTenantService_CreateTenant(t *testing.T) {
	svc := NewTenantService(fakeTenantRegistration{}, fakeTenantFetching{}, fakeTenantDeletion{}, fakeTransactor{}, noopAudit{})

	tenant, mErr := svc.CreateTenant(context.Background(), uuid.New(), "Acme", nil)
	require.Nil(t, mErr)
	assert.Equal(t, "Acme", tenant.Name)
	assert.Contains(t, tenant.Status, domain.TenantStatusActive)
}

func TestTenantService_DeleteTenant_RejectsWhileOwnersRemain(t *testing.T) {
	tenantID := uuid.New()
	tenant := domain.Tenant{ID: tenantID, Owners: []domain.UserRef{{ID: uuid.New()}}}

	svc := NewTenantService(fakeTenantRegistration{}, fakeTenantFetching{tenant: tenant}, fakeTenantDeletion{}, fakeTransactor{}, noopAudit{})

	mErr := svc.DeleteTenant(context.Background(), uuid.New(), tenantID)
	require.NotNil(t, mErr)
}

func TestTenantService_DeleteTenant_SucceedsWithNoOwners(t *testing.T) {
	tenantID := uuid.New()
	tenant := domain.Tenant{ID: tenantID}

	svc := NewTenantService(fakeTenantRegistration{}, fakeTenantFetching{tenant: tenant}, fakeTenantDeletion{}, fakeTransactor{}, noopAudit{})

	mErr := svc.DeleteTenant(context.Background(), uuid.New(), tenantID)
	assert.Nil(t, mErr)
}
