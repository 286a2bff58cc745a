package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Permission is the Read ≤ Write ≤ ReadWrite lattice used throughout
// §4.6 and the connection-string engine (spec §4.4).
type Permission int

// Wire int codes follow the canonical encoding used by the
// LicensedResource URL form's `p=<role>:<perm>` query parameter (spec §6,
// scenario S4: code 2 decodes to Write).
const (
	PermissionRead      Permission = 0
	PermissionReadWrite Permission = 1
	PermissionWrite     Permission = 2
)

func (p Permission) String() string {
	switch p {
	case PermissionRead:
		return "read"
	case PermissionWrite:
		return "write"
	case PermissionReadWrite:
		return "readWrite"
	default:
		return "unknown"
	}
}

// ParsePermission accepts the String() output (case-insensitive) and
// defaults to PermissionRead on anything unrecognized, least-privilege
// being the safe default for a YAML/config-driven caller (internal/
// gateway's catalogue loader).
func ParsePermission(s string) Permission {
	switch strings.ToLower(s) {
	case "write":
		return PermissionWrite
	case "readwrite", "read_write", "read-write":
		return PermissionReadWrite
	default:
		return PermissionRead
	}
}

// Satisfies reports whether p grants at least the access `required`
// asks for, per the monotone Read ≤ Write ≤ ReadWrite lattice (spec §4.1(d)).
//
// ReadWrite satisfies any requirement. Read only satisfies Read. Write
// only satisfies Write (Write does not imply Read in this lattice — it
// is a distinct point, with ReadWrite as their join).
func (p Permission) Satisfies(required Permission) bool {
	if p == PermissionReadWrite {
		return true
	}
	return p == required
}

// GuestRoleRef is a lightweight reference used in children sets.
type GuestRoleRef struct {
	ID uuid.UUID
}

// GuestRole is a named grant of (permission) applicable to a target
// account, with an acyclic children graph (spec §3, §9).
type GuestRole struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description *string
	Permission  Permission
	Children    []GuestRoleRef
	IsSystem    bool
}
