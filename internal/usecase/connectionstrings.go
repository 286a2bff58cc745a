package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/mycelium-platform/mycelium/internal/connstring"
	"github.com/mycelium-platform/mycelium/internal/cryptox"
	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
)

// ConnectionStringService implements "list_my_connection_strings"
// (SPEC_FULL.md §3, supplemented from original_source/'s read-only
// token-listing use case that spec.md's distillation dropped): for a
// given email, render one signed connection string per licensed
// resource the email currently holds, so a caller can see exactly what
// a downstream service would accept from them.
type ConnectionStringService struct {
	licensed ports.LicensedResourceFetching
	signer   *cryptox.Signer
}

func NewConnectionStringService(licensed ports.LicensedResourceFetching, signer *cryptox.Signer) *ConnectionStringService {
	return &ConnectionStringService{licensed: licensed, signer: signer}
}

// ListMine renders and signs one connection string per licensed
// resource email currently holds, scoped by tenantID/roles/verifiedOnly
// exactly as the underlying licensed-resource read port is (spec §4.5
// step 3).
func (s *ConnectionStringService) ListMine(ctx context.Context, email string, tenantID *uuid.UUID, roles []string, verifiedOnly bool) ([]string, *domain.MappedError) {
	resources, mErr := s.licensed.FetchForEmail(ctx, email, tenantID, roles, verifiedOnly)
	if mErr != nil {
		return nil, mErr
	}

	records, err := resources.ToRecords()
	if err != nil {
		return nil, domain.FetchingErr(false, "failed to normalize licensed resources: %v", err)
	}

	out := make([]string, 0, len(records))
	for _, lr := range records {
		beans := connstring.New(
			connstring.TenantIDBean(lr.TenantID),
			connstring.AccountIDBean(lr.AccID),
			connstring.UserIDBean(lr.RoleID),
			connstring.RoleBean(lr.Role),
			connstring.PermissionedRolesBean([]connstring.RolePermission{
				{RoleSlug: lr.Role, Permission: lr.Perm},
			}),
		)
		signed := beans.Sign(s.signer)
		out = append(out, connstring.EncodeForHeader(signed))
	}
	return out, nil
}
