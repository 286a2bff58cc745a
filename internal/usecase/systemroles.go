package usecase

import (
	"context"

	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// SystemRolesService seeds the fixed set of system guest roles every
// fresh deployment needs (SPEC_FULL.md §3 "system guest-roles seeding
// use case", supplemented from original_source/'s bootstrap migration
// since spec.md's distillation omitted it).
type SystemRolesService struct {
	roles ports.GuestRoleRegistration
}

func NewSystemRolesService(roles ports.GuestRoleRegistration) *SystemRolesService {
	return &SystemRolesService{roles: roles}
}

// SystemRoleSeed names one built-in role; Seed is idempotent, relying
// on GuestRoleRegistration.GetOrCreate to no-op on repeated runs.
type SystemRoleSeed struct {
	Slug       string
	Name       string
	Permission domain.Permission
}

// DefaultSystemRoles is the fixed catalogue every Mycelium deployment
// ships with (spec §6): a read-only "inspector" role, a write-capable
// "operator" role, and the full "tenant-manager" role used to guest
// users onto a TenantManager account.
var DefaultSystemRoles = []SystemRoleSeed{
	{Slug: "system-inspector", Name: "System Inspector", Permission: domain.PermissionRead},
	{Slug: "system-operator", Name: "System Operator", Permission: domain.PermissionWrite},
	{Slug: "tenant-manager", Name: "Tenant Manager", Permission: domain.PermissionReadWrite},
}

// Seed ensures every DefaultSystemRoles entry exists.
func (s *SystemRolesService) Seed(ctx context.Context) *domain.MappedError {
	for _, seed := range DefaultSystemRoles {
		_, mErr := s.roles.GetOrCreate(ctx, domain.GuestRole{
			Name:       seed.Name,
			Slug:       seed.Slug,
			Permission: seed.Permission,
			IsSystem:   true,
		})
		if mErr != nil {
			return mErr
		}
	}
	return nil
}
