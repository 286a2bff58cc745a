package domain

import "github.com/google/uuid"

// Owner is a tenant-ownership reference carried on a Profile, with the
// email redacted for external consumers (spec §4.5 step 4).
type Owner struct {
	ID              uuid.UUID
	Email           string // redacted form; see RedactedEmail
	RawEmail        string // non-redacted, internal-consumer-only copy
	IsActive        bool
}

// TenantOwnership records that the profile's user owns a given tenant.
type TenantOwnership struct {
	TenantID uuid.UUID
}

// Profile is the per-request authorization envelope (spec §3). It is
// built fresh by internal/profile for every gateway request and is never
// persisted.
type Profile struct {
	Owners              []Owner
	AccID               uuid.UUID
	IsSubscription      bool
	IsManager           bool
	IsStaff             bool
	OwnerIsActive       bool
	AccountIsActive     bool
	AccountWasApproved  bool
	AccountWasArchived  bool
	AccountWasDeleted   bool
	VerboseStatus       *VerboseStatus
	LicensedResources   []LicensedResource
	TenantsOwnership    []TenantOwnership
	Meta                map[string]string
}

// OwnsTenant reports whether the profile's user owns the given tenant.
func (p *Profile) OwnsTenant(tenantID uuid.UUID) bool {
	for _, t := range p.TenantsOwnership {
		if t.TenantID == tenantID {
			return true
		}
	}
	return false
}
