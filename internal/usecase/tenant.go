package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/audit"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// TenantService orchestrates tenant lifecycle use cases (spec §4.7),
// grounded on the teacher's internal/auth/tenant_service.go.
type TenantService struct {
	tenants  ports.TenantRegistration
	fetching ports.TenantFetching
	deletion ports.TenantDeletion
	tx       ports.Transactor
	audit    audit.AuditLogger
}

func NewTenantService(tenants ports.TenantRegistration, fetching ports.TenantFetching, deletion ports.TenantDeletion, tx ports.Transactor, auditLogger audit.AuditLogger) *TenantService {
	return &TenantService{tenants: tenants, fetching: fetching, deletion: deletion, tx: tx, audit: auditLogger}
}

// CreateTenant creates a tenant owned by ownerID.
func (s *TenantService) CreateTenant(ctx context.Context, ownerID uuid.UUID, name string, description *string) (domain.Tenant, *domain.MappedError) {
	tenant := domain.Tenant{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Status:      []domain.TenantStatus{domain.TenantStatusActive},
		Owners:      []domain.UserRef{{ID: ownerID}},
		Created:     time.Now().UTC(),
		Updated:     time.Now().UTC(),
	}

	result, mErr := s.tenants.Create(ctx, tenant)
	if mErr != nil {
		return domain.Tenant{}, mErr
	}
	if !result.Created {
		return domain.Tenant{}, domain.CreationErr(true, "tenant could not be created: %s", result.Reason)
	}

	s.audit.Log(ctx, ownerID, audit.EventSubscriptionCreated, result.Record.ID.String(), map[string]string{"kind": "tenant", "name": name})
	return result.Record, nil
}

// RegisterOwner adds userID to tenantID's owner list.
func (s *TenantService) RegisterOwner(ctx context.Context, actorID, tenantID, userID uuid.UUID) (domain.Tenant, *domain.MappedError) {
	result, mErr := s.tenants.RegisterOwner(ctx, tenantID, userID)
	if mErr != nil {
		return domain.Tenant{}, mErr
	}
	if !result.Updated {
		return domain.Tenant{}, domain.UpdatingErr(true, "owner registration rejected: %s", result.Reason)
	}
	return result.Record, nil
}

// DeleteTenant destroys a tenant. Spec §3's lifecycle rule — "destroyed
// only when the owner list becomes empty and no active subscriptions
// reference it" — is enforced by the caller checking Tenant.HasOwners()
// before invoking this; the port itself just performs the delete.
func (s *TenantService) DeleteTenant(ctx context.Context, actorID, tenantID uuid.UUID) *domain.MappedError {
	fetchResult, mErr := s.fetching.FetchByID(ctx, tenantID)
	if mErr != nil {
		return mErr
	}
	if !fetchResult.Found {
		return domain.FetchingErr(true, "tenant %s not found", tenantID)
	}
	if fetchResult.Record.HasOwners() {
		return domain.UseCaseErr("tenant %s still has owners and cannot be destroyed", tenantID)
	}

	result, mErr := s.deletion.Delete(ctx, tenantID)
	if mErr != nil {
		return mErr
	}
	if !result.Deleted {
		return domain.DeletionErr(true, "tenant could not be deleted: %s", result.Reason)
	}
	s.audit.Log(ctx, actorID, audit.EventSubscriptionDeleted, tenantID.String(), map[string]string{"kind": "tenant"})
	return nil
}
