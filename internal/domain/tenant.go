package domain

import (
	"time"

	"github.com/google/uuid"
)

// TenantStatus mirrors spec §3's `[TenantStatus]` enumeration.
type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "Active"
	TenantStatusInactive TenantStatus = "Inactive"
	TenantStatusArchived TenantStatus = "Archived"
)

// TenantMetaKey is the key half of Tenant.meta (spec §3).
type TenantMetaKey string

// UserRef is a minimal reference to a User, used for owner sets so the
// tenant/account aggregates do not need the full User loaded.
type UserRef struct {
	ID    uuid.UUID
	Email string
}

// Tenant is the top-level isolation boundary (spec §3, GLOSSARY).
type Tenant struct {
	ID          uuid.UUID
	Name        string
	Description *string
	Meta        map[TenantMetaKey]string
	Status      []TenantStatus
	Owners      []UserRef
	Created     time.Time
	Updated     time.Time
}

// HasOwners reports whether the invariant "every tenant has at least one
// owner" (spec §3) currently holds.
func (t *Tenant) HasOwners() bool {
	return len(t.Owners) > 0
}

// IsOwnedBy reports whether userID appears in the owner set.
func (t *Tenant) IsOwnedBy(userID uuid.UUID) bool {
	for _, o := range t.Owners {
		if o.ID == userID {
			return true
		}
	}
	return false
}
