package usecase

import (
	"context"
	"testing"

	"github.com/mycelium-platform/mycelium/internal/domain"
	"github.com/mycelium-platform/mycelium/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGuestRoleRegistration struct{ seen []domain.GuestRole }

func (f *fakeGuestRoleRegistration) GetOrCreate(ctx context.Context, role domain.GuestRole) (ports.GetOrCreateResponseKind[domain.GuestRole], *domain.MappedError) {
	f.seen = append(f.seen, role)
	return ports.GetOrCreateResponseKind[domain.GuestRole]{Created: true, Record: role}, nil
}

func TestSystemRolesService_Seed(t *testing.T) {
	registration := &fakeGuestRoleRegistration{}
	svc := NewSystemRolesService(registration)

	mErr := svc.Seed(context.Background())
	require.Nil(t, mErr)
	assert.Len(t, registration.seen, len(DefaultSystemRoles))
	for _, role := range registration.seen {
		assert.True(t, role.IsSystem)
	}
}
