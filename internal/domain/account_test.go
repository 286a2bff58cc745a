package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// VerboseStatus functional: total and stable for all eight flag combinations
// (spec §8 property #2).
func TestVerboseStatusFromFlags_TotalAndStable(t *testing.T) {
	for _, active := range []bool{true, false} {
		for _, checked := range []bool{true, false} {
			for _, archived := range []bool{true, false} {
				got := VerboseStatusFromFlags(active, checked, archived)
				require.NotEmpty(t, got)
				// Stability: calling again with the same inputs yields the same result.
				assert.Equal(t, got, VerboseStatusFromFlags(active, checked, archived))
			}
		}
	}
}

func TestVerboseStatusFromFlags_Cases(t *testing.T) {
	assert.Equal(t, VerboseStatusArchived, VerboseStatusFromFlags(true, true, true))
	assert.Equal(t, VerboseStatusInactive, VerboseStatusFromFlags(false, true, false))
	assert.Equal(t, VerboseStatusVerified, VerboseStatusFromFlags(true, true, false))
	assert.Equal(t, VerboseStatusUnverified, VerboseStatusFromFlags(true, false, false))
}

// Transition lattice: exercises every (old, new) pair from spec §4.6's
// table (property #4 and scenario S5).
func TestTryToReachDesiredStatus_Lattice(t *testing.T) {
	cases := []struct {
		old, new VerboseStatus
		ok       bool
	}{
		{VerboseStatusUnverified, VerboseStatusVerified, true},
		{VerboseStatusUnverified, VerboseStatusUnverified, false},
		{VerboseStatusUnverified, VerboseStatusInactive, false},
		{VerboseStatusUnverified, VerboseStatusArchived, true},

		{VerboseStatusVerified, VerboseStatusVerified, false},
		{VerboseStatusVerified, VerboseStatusUnverified, false},
		{VerboseStatusVerified, VerboseStatusInactive, true},
		{VerboseStatusVerified, VerboseStatusArchived, true},

		{VerboseStatusInactive, VerboseStatusVerified, true},
		{VerboseStatusInactive, VerboseStatusUnverified, false},
		{VerboseStatusInactive, VerboseStatusInactive, false},
		{VerboseStatusInactive, VerboseStatusArchived, true},

		{VerboseStatusArchived, VerboseStatusVerified, true},
		{VerboseStatusArchived, VerboseStatusUnverified, true},
		{VerboseStatusArchived, VerboseStatusInactive, true},
		{VerboseStatusArchived, VerboseStatusArchived, false},
	}

	for _, c := range cases {
		_, err := TryToReachDesiredStatus(c.old, c.new)
		if c.ok {
			assert.NoErrorf(t, err, "%s -> %s should be allowed", c.old, c.new)
		} else {
			assert.Errorf(t, err, "%s -> %s should be rejected", c.old, c.new)
		}
	}
}

// Scenario S5: Verified -> Inactive -> Verified succeeds.
func TestTryToReachDesiredStatus_S5(t *testing.T) {
	next, err := TryToReachDesiredStatus(VerboseStatusVerified, VerboseStatusInactive)
	require.NoError(t, err)
	require.Equal(t, VerboseStatusInactive, next)

	next, err = TryToReachDesiredStatus(next, VerboseStatusVerified)
	require.NoError(t, err)
	require.Equal(t, VerboseStatusVerified, next)
}

func TestAccountType_JSONRoundTrip(t *testing.T) {
	tenantID := uuid.New()
	readID := uuid.New()
	writeID := uuid.New()

	cases := []AccountType{
		NewStaffAccountType(),
		NewManagerAccountType(),
		NewUserAccountType(),
		NewSubscriptionAccountType(tenantID),
		NewTenantManagerAccountType(tenantID),
		NewRoleAssociatedAccountType(tenantID, readID, writeID, "editor"),
	}

	for _, c := range cases {
		data, err := json.Marshal(c)
		require.NoError(t, err)

		var out AccountType
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, c, out)
	}
}

func TestAccountType_BareStringShape(t *testing.T) {
	data, err := json.Marshal(NewStaffAccountType())
	require.NoError(t, err)
	assert.JSONEq(t, `"staff"`, string(data))
}

func TestAccountType_TaggedObjectShape(t *testing.T) {
	tenantID := uuid.MustParse("00000000-0000-0000-0000-000000000000")
	data, err := json.Marshal(NewSubscriptionAccountType(tenantID))
	require.NoError(t, err)
	assert.JSONEq(t, `{"subscription":{"tenantId":"00000000-0000-0000-0000-000000000000"}}`, string(data))
}
