package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AccountTypeKind discriminates the AccountType tagged union (spec §3).
type AccountTypeKind string

const (
	AccountTypeStaff            AccountTypeKind = "staff"
	AccountTypeManager           AccountTypeKind = "manager"
	AccountTypeUser              AccountTypeKind = "user"
	AccountTypeSubscription      AccountTypeKind = "subscription"
	AccountTypeRoleAssociated    AccountTypeKind = "roleAssociated"
	AccountTypeActorAssociated   AccountTypeKind = "actorAssociated"
	AccountTypeTenantManager     AccountTypeKind = "tenantManager"
)

// AccountType is a Go rendition of the Rust `AccountTypeV2` tagged union
// (original_source/core/src/domain/dtos/account_type.rs). Variants
// without payload (Staff, Manager, User) marshal as a bare JSON string;
// variants with payload marshal as `{"<tag>": {...}}`, matching the
// Rust serde `#[serde(rename_all = "camelCase")]` enum shape exactly
// (see SPEC_FULL.md §4, decision 1).
type AccountType struct {
	Kind          AccountTypeKind
	TenantID      uuid.UUID // Subscription | RoleAssociated | ActorAssociated | TenantManager
	ReadRoleID    uuid.UUID // RoleAssociated | ActorAssociated
	WriteRoleID   uuid.UUID // RoleAssociated | ActorAssociated
	RoleName      string    // RoleAssociated | ActorAssociated
}

func NewStaffAccountType() AccountType  { return AccountType{Kind: AccountTypeStaff} }
func NewManagerAccountType() AccountType { return AccountType{Kind: AccountTypeManager} }
func NewUserAccountType() AccountType   { return AccountType{Kind: AccountTypeUser} }

func NewSubscriptionAccountType(tenantID uuid.UUID) AccountType {
	return AccountType{Kind: AccountTypeSubscription, TenantID: tenantID}
}

func NewTenantManagerAccountType(tenantID uuid.UUID) AccountType {
	return AccountType{Kind: AccountTypeTenantManager, TenantID: tenantID}
}

func NewRoleAssociatedAccountType(tenantID, readRoleID, writeRoleID uuid.UUID, roleName string) AccountType {
	return AccountType{
		Kind:        AccountTypeRoleAssociated,
		TenantID:    tenantID,
		ReadRoleID:  readRoleID,
		WriteRoleID: writeRoleID,
		RoleName:    roleName,
	}
}

func NewActorAssociatedAccountType(tenantID, readRoleID, writeRoleID uuid.UUID, roleName string) AccountType {
	return AccountType{
		Kind:        AccountTypeActorAssociated,
		TenantID:    tenantID,
		ReadRoleID:  readRoleID,
		WriteRoleID: writeRoleID,
		RoleName:    roleName,
	}
}

type accountTypePayload struct {
	TenantID    uuid.UUID `json:"tenantId"`
	ReadRoleID  *uuid.UUID `json:"readRoleId,omitempty"`
	WriteRoleID *uuid.UUID `json:"writeRoleId,omitempty"`
	RoleName    string     `json:"roleName,omitempty"`
}

// MarshalJSON renders the tagged-union wire shape spec §9 requires be
// preserved exactly: bare string for no-payload variants, single-key
// object for payload-carrying variants.
func (t AccountType) MarshalJSON() ([]byte, error) {
	switch t.Kind {
	case AccountTypeStaff, AccountTypeManager, AccountTypeUser:
		return json.Marshal(string(t.Kind))
	case AccountTypeSubscription, AccountTypeTenantManager:
		return json.Marshal(map[string]accountTypePayload{
			string(t.Kind): {TenantID: t.TenantID},
		})
	case AccountTypeRoleAssociated, AccountTypeActorAssociated:
		read, write := t.ReadRoleID, t.WriteRoleID
		return json.Marshal(map[string]accountTypePayload{
			string(t.Kind): {
				TenantID:    t.TenantID,
				ReadRoleID:  &read,
				WriteRoleID: &write,
				RoleName:    t.RoleName,
			},
		})
	default:
		return nil, fmt.Errorf("unknown account type kind %q", t.Kind)
	}
}

// UnmarshalJSON accepts both the bare-string and tagged-object shapes.
func (t *AccountType) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		switch AccountTypeKind(s) {
		case AccountTypeStaff, AccountTypeManager, AccountTypeUser:
			t.Kind = AccountTypeKind(s)
			return nil
		default:
			return fmt.Errorf("unknown bare account type %q", s)
		}
	}

	var wrapper map[string]accountTypePayload
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("account type object must have exactly one key, got %d", len(wrapper))
	}
	for tag, payload := range wrapper {
		kind := AccountTypeKind(tag)
		switch kind {
		case AccountTypeSubscription, AccountTypeTenantManager:
			*t = AccountType{Kind: kind, TenantID: payload.TenantID}
		case AccountTypeRoleAssociated, AccountTypeActorAssociated:
			*t = AccountType{
				Kind:     kind,
				TenantID: payload.TenantID,
				RoleName: payload.RoleName,
			}
			if payload.ReadRoleID != nil {
				t.ReadRoleID = *payload.ReadRoleID
			}
			if payload.WriteRoleID != nil {
				t.WriteRoleID = *payload.WriteRoleID
			}
		default:
			return fmt.Errorf("unknown account type tag %q", tag)
		}
	}
	return nil
}

// VerboseStatus is the derived quadruple-valued projection of
// (is_active, is_checked, is_archived) described in spec §3/§4.1(c).
type VerboseStatus string

const (
	VerboseStatusVerified   VerboseStatus = "Verified"
	VerboseStatusUnverified VerboseStatus = "Unverified"
	VerboseStatusInactive   VerboseStatus = "Inactive"
	VerboseStatusArchived   VerboseStatus = "Archived"
	VerboseStatusUnknown    VerboseStatus = "Unknown"
)

// VerboseStatusFromFlags is the pure function spec §4.1(c) and the
// "VerboseStatus functional" testable property (spec §8.2) demand: total
// and stable for all eight (isActive, isChecked, isArchived) inputs.
func VerboseStatusFromFlags(isActive, isChecked, isArchived bool) VerboseStatus {
	switch {
	case isArchived:
		return VerboseStatusArchived
	case !isActive:
		return VerboseStatusInactive
	case isChecked:
		return VerboseStatusVerified
	default:
		return VerboseStatusUnverified
	}
}

// verboseStatusTransitions is the allowed old->new table from spec §4.6.
// Keys are "old" statuses, values are the set of "new" statuses reachable
// directly from that old status.
var verboseStatusTransitions = map[VerboseStatus]map[VerboseStatus]bool{
	VerboseStatusUnverified: {
		VerboseStatusVerified: true,
		VerboseStatusArchived: true,
	},
	VerboseStatusVerified: {
		VerboseStatusInactive: true,
		VerboseStatusArchived: true,
	},
	VerboseStatusInactive: {
		VerboseStatusVerified: true,
		VerboseStatusArchived: true,
	},
	VerboseStatusArchived: {
		VerboseStatusVerified:   true,
		VerboseStatusUnverified: true,
		VerboseStatusInactive:   true,
	},
}

// TryToReachDesiredStatus implements the §4.6 transition lattice. It
// fails KindUseCase with a human-readable from/to message for any
// transition not present in the table (including same-state "no-op"
// transitions, which the table marks "—").
func TryToReachDesiredStatus(old, desired VerboseStatus) (VerboseStatus, error) {
	allowed, ok := verboseStatusTransitions[old]
	if !ok || !allowed[desired] {
		return old, UseCaseErr("cannot transition account status from %q to %q", old, desired)
	}
	return desired, nil
}

// Account is the addressable principal inside a tenant (spec §3).
type Account struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Tags        []string
	IsActive    bool
	IsChecked   bool
	IsArchived  bool
	IsDefault   bool
	AccountType AccountType
	Owners      []UserRef
	Meta        map[string]string
	Created     time.Time
	Updated     time.Time
}

// VerboseStatus derives the account's current projection per spec §4.1(c).
func (a *Account) VerboseStatus() VerboseStatus {
	return VerboseStatusFromFlags(a.IsActive, a.IsChecked, a.IsArchived)
}

// IsGuestableTarget reports whether this account's type is one of the
// four families a guest-user grant may target (spec §4.7 "Guest a user").
func (a *Account) IsGuestableTarget() bool {
	switch a.AccountType.Kind {
	case AccountTypeSubscription, AccountTypeRoleAssociated, AccountTypeActorAssociated, AccountTypeTenantManager:
		return true
	default:
		return false
	}
}
