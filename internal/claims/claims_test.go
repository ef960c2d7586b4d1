// Copyright 2026 The MotorMarket Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package claims_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/permissions"
)

func TestClaims_ParseCustomerClaims(t *testing.T) {
	mc := jwt.MapClaims{
		"sub":                  "cust-123",
		"email":                "buyer@example.com",
		"custom:customer_type": "dealer",
	}

	cust, err := claims.ParseCustomerClaims(mc)
	require.NoError(t, err)

	assert.Equal(t, "cust-123", cust.Sub)
	assert.Equal(t, "buyer@example.com", cust.Email)
	assert.Equal(t, permissions.TierDealer, cust.Tier)
	assert.Equal(t, permissions.CustomerTierPermissions[permissions.TierDealer], cust.Permissions)
}

func TestClaims_ParseCustomerClaims_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mc      jwt.MapClaims
		wantErr error
	}{
		{
			name:    "missing subject",
			mc:      jwt.MapClaims{"custom:customer_type": "individual"},
			wantErr: claims.ErrMissingSubject,
		},
		{
			name:    "missing tier",
			mc:      jwt.MapClaims{"sub": "cust-1"},
			wantErr: claims.ErrUnknownTier,
		},
		{
			name:    "unknown tier",
			mc:      jwt.MapClaims{"sub": "cust-1", "custom:customer_type": "vip"},
			wantErr: claims.ErrUnknownTier,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := claims.ParseCustomerClaims(tt.mc)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClaims_ParseStaffClaims(t *testing.T) {
	now := time.Now()
	mc := jwt.MapClaims{
		"sub":         "staff-9",
		"email":       "ops@example.com",
		"custom:role": "manager",
		"custom:team": "moderation",
		"iat":         float64(now.Add(-time.Hour).Unix()),
	}

	staff, err := claims.ParseStaffClaims(mc, 8*time.Hour, now)
	require.NoError(t, err)

	assert.Equal(t, "staff-9", staff.Sub)
	assert.Equal(t, permissions.RoleManager, staff.Role)
	assert.Equal(t, "moderation", staff.Team)
	assert.Equal(t, permissions.StaffRolePermissions[permissions.RoleManager], staff.Permissions)
}

// TestPurpose: Verifies the staff session freshness window on top of ordinary token expiry.
// Scope: Unit Test
// Security: Staff Session Hygiene (staff tokens live shorter than customer tokens)
// Expected: A token issued longer than maxSessionAge ago is rejected as stale even if not expired.
// Test Case ID: AUTHN-STAFF-FRESHNESS-001
func TestClaims_ParseStaffClaims_StaleTokenRejected(t *testing.T) {
	now := time.Now()
	mc := jwt.MapClaims{
		"sub":         "staff-9",
		"custom:role": "admin",
		"iat":         float64(now.Add(-9 * time.Hour).Unix()),
	}

	_, err := claims.ParseStaffClaims(mc, 8*time.Hour, now)
	assert.ErrorIs(t, err, claims.ErrStaleStaffToken)

	// Zero maxSessionAge disables the freshness check.
	staff, err := claims.ParseStaffClaims(mc, 0, now)
	require.NoError(t, err)
	assert.Equal(t, permissions.RoleAdmin, staff.Role)
}

// TestPurpose: Verifies a malformed explicit permissions claim on a staff token falls back to the role defaults.
// Scope: Unit Test
// Security: Fail-safe Degradation
// Expected: Role table permissions when custom:permissions is not a JSON string array.
func TestClaims_ParseStaffClaims_MalformedPermissionsFallsBack(t *testing.T) {
	mc := jwt.MapClaims{
		"sub":                "staff-9",
		"custom:role":        "admin",
		"custom:permissions": `{"broken`,
	}

	staff, err := claims.ParseStaffClaims(mc, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, permissions.StaffRolePermissions[permissions.RoleAdmin], staff.Permissions)
}

func TestClaims_ParseStaffClaims_ExplicitPermissionsWin(t *testing.T) {
	mc := jwt.MapClaims{
		"sub":                "staff-9",
		"custom:role":        "team_member",
		"custom:permissions": `["*"]`,
	}

	staff, err := claims.ParseStaffClaims(mc, 0, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, staff.Permissions)
}

func TestClaims_ParseStaffClaims_UnknownRole(t *testing.T) {
	mc := jwt.MapClaims{
		"sub":         "staff-9",
		"custom:role": "intern",
	}

	_, err := claims.ParseStaffClaims(mc, 0, time.Now())
	assert.ErrorIs(t, err, claims.ErrUnknownRole)
}

func TestClaims_Principal_Dispatch(t *testing.T) {
	customer := claims.Principal{
		Type:     claims.UserTypeCustomer,
		Customer: &claims.CustomerClaims{Sub: "c-1", Email: "c@example.com", Permissions: []string{"a"}},
	}
	assert.Equal(t, "c-1", customer.UserID())
	assert.Equal(t, "c@example.com", customer.Email())
	assert.Equal(t, []string{"a"}, customer.Permissions())

	staff := claims.Principal{
		Type:  claims.UserTypeStaff,
		Staff: &claims.StaffClaims{Sub: "s-1", Email: "s@example.com", Permissions: []string{"b"}},
	}
	assert.Equal(t, "s-1", staff.UserID())
	assert.Equal(t, "s@example.com", staff.Email())
	assert.Equal(t, []string{"b"}, staff.Permissions())

	var empty claims.Principal
	assert.Empty(t, empty.UserID())
	assert.Empty(t, empty.Email())
	assert.Nil(t, empty.Permissions())
}
