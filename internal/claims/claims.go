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

package claims

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/motormarket/motormarket-auth/internal/permissions"
)

// Domain errors
var (
	ErrMissingSubject  = errors.New("token has no subject claim")
	ErrUnknownTier     = errors.New("unknown customer tier")
	ErrUnknownRole     = errors.New("unknown staff role")
	ErrStaleStaffToken = errors.New("staff token exceeds maximum session age")
)

// UserType identifies which identity pool a principal belongs to.
type UserType string

const (
	UserTypeCustomer UserType = "customer"
	UserTypeStaff    UserType = "staff"
	UserTypeUnknown  UserType = ""
)

// Claim names carried by pool tokens. The custom: prefix is the identity
// provider's namespace for non-standard attributes.
const (
	ClaimCustomerType = "custom:customer_type"
	ClaimPermissions  = "custom:permissions"
	ClaimTeam         = "custom:team"
)

// CustomerClaims is the verified claim set of a customer-pool token.
type CustomerClaims struct {
	Sub         string
	Email       string
	Tier        permissions.CustomerTier
	Permissions []string
}

// StaffClaims is the verified claim set of a staff-pool token.
type StaffClaims struct {
	Sub         string
	Email       string
	Role        permissions.StaffRole
	Team        string
	Permissions []string
	IssuedAt    time.Time
}

// Principal is the tagged union over the two pools. Exactly one of Customer
// and Staff is non-nil, matching Type.
type Principal struct {
	Type     UserType
	Customer *CustomerClaims
	Staff    *StaffClaims
}

// UserID returns the stable subject identifier for either variant.
func (p Principal) UserID() string {
	switch p.Type {
	case UserTypeCustomer:
		return p.Customer.Sub
	case UserTypeStaff:
		return p.Staff.Sub
	}
	return ""
}

// Email returns the principal's email for either variant.
func (p Principal) Email() string {
	switch p.Type {
	case UserTypeCustomer:
		return p.Customer.Email
	case UserTypeStaff:
		return p.Staff.Email
	}
	return ""
}

// Permissions returns the derived permission set for either variant.
func (p Principal) Permissions() []string {
	switch p.Type {
	case UserTypeCustomer:
		return p.Customer.Permissions
	case UserTypeStaff:
		return p.Staff.Permissions
	}
	return nil
}

// ParseCustomerClaims builds CustomerClaims from a verified token payload.
// The payload is trusted for authenticity (the verifier owns signature and
// expiry checks); only claim content is validated here.
func ParseCustomerClaims(mc jwt.MapClaims) (*CustomerClaims, error) {
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSubject
	}

	tier := permissions.CustomerTier(stringClaim(mc, ClaimCustomerType))
	if permissions.TierRank(tier) == 0 {
		return nil, ErrUnknownTier
	}

	return &CustomerClaims{
		Sub:         sub,
		Email:       stringClaim(mc, "email"),
		Tier:        tier,
		Permissions: permissions.ResolveCustomerPermissions(tier),
	}, nil
}

// ParseStaffClaims builds StaffClaims from a verified token payload.
// maxSessionAge enforces the shorter staff session window on top of the
// verifier's expiry check; zero disables the check.
func ParseStaffClaims(mc jwt.MapClaims, maxSessionAge time.Duration, now time.Time) (*StaffClaims, error) {
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return nil, ErrMissingSubject
	}

	role := permissions.StaffRole(stringClaim(mc, "custom:role"))
	if permissions.RoleRank(role) == 0 {
		return nil, ErrUnknownRole
	}

	issuedAt := time.Time{}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		issuedAt = iat.Time
	}
	if maxSessionAge > 0 && !issuedAt.IsZero() && now.Sub(issuedAt) > maxSessionAge {
		return nil, ErrStaleStaffToken
	}

	return &StaffClaims{
		Sub:         sub,
		Email:       stringClaim(mc, "email"),
		Role:        role,
		Team:        stringClaim(mc, ClaimTeam),
		Permissions: permissions.ResolveStaffPermissions(role, stringClaim(mc, ClaimPermissions)),
		IssuedAt:    issuedAt,
	}, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}
