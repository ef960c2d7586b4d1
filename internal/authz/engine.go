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

package authz

import (
	"github.com/motormarket/motormarket-auth/internal/autherr"
	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/permissions"
)

// ValidateAuthorization evaluates a requirement against a request context.
// Checks run in fixed precedence: cross-pool first (never falls through),
// then the pool-specific tier/role/permission checks. The function is pure:
// audit logging is composed at the middleware boundary, not here.
func ValidateAuthorization(ctx Context, req Requirement) Decision {
	if d, crossPool := checkCrossPool(ctx, req); crossPool {
		return d
	}

	switch ctx.UserType {
	case claims.UserTypeCustomer:
		return ValidateCustomerTierAuthorization(ctx, req)
	case claims.UserTypeStaff:
		return ValidateStaffPermissionAuthorization(ctx, req)
	}

	// No recognizable pool. Treat as a generic cross-pool denial rather than
	// guessing a variant.
	return deny(autherr.NewCrossPoolError(ctx.UserType, req.UserType, ctx.RequestID))
}

// checkCrossPool enforces pool isolation. A requirement is pool-specific
// either explicitly (UserType set) or implicitly (tier vs staff fields), and
// a principal from the other pool is denied outright.
func checkCrossPool(ctx Context, req Requirement) (Decision, bool) {
	endpointPool := req.UserType
	if endpointPool == "" {
		switch {
		case req.customerOnly() && !req.staffOnly():
			endpointPool = claims.UserTypeCustomer
		case req.staffOnly() && !req.customerOnly():
			endpointPool = claims.UserTypeStaff
		}
	}

	if endpointPool != "" && ctx.UserType != endpointPool {
		err := autherr.NewCrossPoolError(ctx.UserType, endpointPool, ctx.RequestID)
		if req.UserType == "" {
			// Implicit pool mismatch: report the generic code, the endpoint
			// never declared a pool explicitly.
			err.Code = autherr.CodeCrossPoolAccessDenied
		}
		if req.Resource != "" {
			err = err.WithContext("resource", req.Resource)
		}
		return deny(err), true
	}
	return Decision{}, false
}

// ValidateCustomerTierAuthorization evaluates tier and permission requirements
// for a customer principal. Callers must have passed the cross-pool check;
// a non-customer context is denied defensively.
func ValidateCustomerTierAuthorization(ctx Context, req Requirement) Decision {
	if ctx.UserType != claims.UserTypeCustomer || ctx.Principal.Customer == nil {
		return deny(autherr.NewCrossPoolError(ctx.UserType, claims.UserTypeCustomer, ctx.RequestID))
	}
	cust := ctx.Principal.Customer

	if req.CustomerTier != "" && !permissions.TierSatisfies(cust.Tier, req.CustomerTier) {
		return deny(autherr.NewTierError(req.Feature, req.CustomerTier, cust.Tier, ctx.RequestID))
	}

	// Customer endpoints may also demand specific permissions (rare, but the
	// wildcard and set-containment semantics match the staff path).
	if len(req.StaffPermissions) == 0 {
		return allow()
	}
	if !permissions.HasAll(cust.Permissions, req.StaffPermissions) {
		return deny(autherr.NewPermissionError(claims.UserTypeCustomer, req.StaffPermissions, cust.Permissions, ctx.RequestID))
	}
	return allow()
}

// ValidateStaffPermissionAuthorization evaluates role and permission
// requirements for a staff principal. Role rank is checked before
// permissions; both must pass.
func ValidateStaffPermissionAuthorization(ctx Context, req Requirement) Decision {
	if ctx.UserType != claims.UserTypeStaff || ctx.Principal.Staff == nil {
		return deny(autherr.NewCrossPoolError(ctx.UserType, claims.UserTypeStaff, ctx.RequestID))
	}
	staff := ctx.Principal.Staff

	if req.StaffRole != "" && !permissions.RoleSatisfies(staff.Role, req.StaffRole) {
		return deny(autherr.NewRoleError(staff.Role, req.StaffRole, ctx.RequestID))
	}

	if len(req.StaffPermissions) == 0 {
		return allow()
	}
	if !permissions.HasAll(staff.Permissions, req.StaffPermissions) {
		return deny(autherr.NewPermissionError(claims.UserTypeStaff, req.StaffPermissions, staff.Permissions, ctx.RequestID))
	}
	return allow()
}
