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

package permissions

import "encoding/json"

// CustomerTier is a customer's subscription level.
type CustomerTier string

const (
	TierIndividual CustomerTier = "individual"
	TierDealer     CustomerTier = "dealer"
	TierPremium    CustomerTier = "premium"
)

// StaffRole is a staff member's position in the admin hierarchy.
type StaffRole string

const (
	RoleTeamMember StaffRole = "team_member"
	RoleManager    StaffRole = "manager"
	RoleAdmin      StaffRole = "admin"
	RoleSuperAdmin StaffRole = "super_admin"
)

// Wildcard grants every permission.
const Wildcard = "*"

// -----------------------------------------------------------------------------
// Permission Name Constants
// These are the canonical permission strings carried in tokens and checked by
// the authorization engine.
// -----------------------------------------------------------------------------

// Customer-pool permissions.
const (
	PermListingView       = "listing:view"
	PermListingCreate     = "listing:create"
	PermListingBulkCreate = "listing:bulk_create"
	PermListingFeature    = "listing:feature"
	PermListingPriority   = "listing:priority_placement"
	PermSearchBasic       = "search:basic"
	PermSavedSearchManage = "saved_search:manage"
	PermMessageSeller     = "message:seller"
	PermInventoryManage   = "inventory:manage"
	PermAnalyticsDealer   = "analytics:dealer"
	PermAnalyticsAdvanced = "analytics:advanced"
	PermMarketReports     = "pricing:market_reports"
	PermLeadsExport       = "leads:export"
	PermAPIAccess         = "api:access"
)

// Staff-pool permissions.
const (
	PermSupportViewTickets   = "support:view_tickets"
	PermSupportManageTickets = "support:manage_tickets"
	PermCustomerView         = "customer:view"
	PermCustomerManage       = "customer:manage"
	PermListingReview        = "listing:review"
	PermListingModerate      = "listing:moderate"
	PermDealerVerify         = "dealer:verify"
	PermReportsView          = "reports:view"
	PermReportsExport        = "reports:export"
	PermUserManagement       = "user_management"
	PermStaffView            = "staff:view"
	PermStaffManage          = "staff:manage"
	PermConfigView           = "config:view"
	PermConfigManage         = "config:manage"
	PermAuditView            = "audit:view"
	PermBillingManage        = "billing:manage"
)

// -----------------------------------------------------------------------------
// Static Permission Tables
// Immutable after process start. Safe for unlimited concurrent reads.
// -----------------------------------------------------------------------------

// CustomerTierPermissions maps each tier to its full permission set.
// Inheritance is flattened into the table: premium includes everything dealer
// has, dealer includes everything individual has. Dealer does NOT include
// premium-only permissions.
var CustomerTierPermissions = map[CustomerTier][]string{
	TierIndividual: {
		PermListingView,
		PermListingCreate,
		PermSearchBasic,
		PermSavedSearchManage,
		PermMessageSeller,
	},
	TierDealer: {
		PermListingView,
		PermListingCreate,
		PermSearchBasic,
		PermSavedSearchManage,
		PermMessageSeller,
		PermListingBulkCreate,
		PermListingFeature,
		PermInventoryManage,
		PermAnalyticsDealer,
		PermMarketReports,
	},
	TierPremium: {
		PermListingView,
		PermListingCreate,
		PermSearchBasic,
		PermSavedSearchManage,
		PermMessageSeller,
		PermListingBulkCreate,
		PermListingFeature,
		PermInventoryManage,
		PermAnalyticsDealer,
		PermMarketReports,
		PermAnalyticsAdvanced,
		PermListingPriority,
		PermLeadsExport,
		PermAPIAccess,
	},
}

// StaffRolePermissions maps each role to its full permission set.
// The hierarchy is strict: each role includes everything the role below it has
// plus at least one additional permission.
var StaffRolePermissions = map[StaffRole][]string{
	RoleTeamMember: {
		PermSupportViewTickets,
		PermCustomerView,
		PermListingReview,
	},
	RoleManager: {
		PermSupportViewTickets,
		PermCustomerView,
		PermListingReview,
		PermSupportManageTickets,
		PermCustomerManage,
		PermListingModerate,
		PermReportsView,
	},
	RoleAdmin: {
		PermSupportViewTickets,
		PermCustomerView,
		PermListingReview,
		PermSupportManageTickets,
		PermCustomerManage,
		PermListingModerate,
		PermReportsView,
		PermUserManagement,
		PermStaffView,
		PermDealerVerify,
		PermReportsExport,
		PermConfigView,
	},
	RoleSuperAdmin: {
		PermSupportViewTickets,
		PermCustomerView,
		PermListingReview,
		PermSupportManageTickets,
		PermCustomerManage,
		PermListingModerate,
		PermReportsView,
		PermUserManagement,
		PermStaffView,
		PermDealerVerify,
		PermReportsExport,
		PermConfigView,
		PermStaffManage,
		PermConfigManage,
		PermAuditView,
		PermBillingManage,
	},
}

// -----------------------------------------------------------------------------
// Rank Tables
// Tier and role sufficiency is rank-based: a principal satisfies a required
// tier/role when its rank is >= the required rank.
// -----------------------------------------------------------------------------

var customerTierRank = map[CustomerTier]int{
	TierIndividual: 1,
	TierDealer:     2,
	TierPremium:    3,
}

var staffRoleRank = map[StaffRole]int{
	RoleTeamMember: 1,
	RoleManager:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// TierRank returns the rank of a customer tier, or 0 for an unknown tier.
func TierRank(tier CustomerTier) int {
	return customerTierRank[tier]
}

// RoleRank returns the rank of a staff role, or 0 for an unknown role.
func RoleRank(role StaffRole) int {
	return staffRoleRank[role]
}

// TierSatisfies reports whether the actual tier meets or exceeds the required tier.
// Unknown actual tiers never satisfy any requirement.
func TierSatisfies(actual, required CustomerTier) bool {
	ar, rr := customerTierRank[actual], customerTierRank[required]
	return ar != 0 && rr != 0 && ar >= rr
}

// RoleSatisfies reports whether the actual role meets or exceeds the required role.
func RoleSatisfies(actual, required StaffRole) bool {
	ar, rr := staffRoleRank[actual], staffRoleRank[required]
	return ar != 0 && rr != 0 && ar >= rr
}

// ResolveCustomerPermissions returns the permission set for a customer tier.
// Unknown tiers resolve to an empty set.
func ResolveCustomerPermissions(tier CustomerTier) []string {
	perms := CustomerTierPermissions[tier]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// ResolveStaffPermissions returns the permission set for a staff role.
// When rawOverride is non-empty it is treated as an explicit permissions claim:
// if it parses as a JSON array of strings it wins verbatim over the role table.
// A malformed override falls back to the role default and never errors.
func ResolveStaffPermissions(role StaffRole, rawOverride string) []string {
	if rawOverride != "" {
		var override []string
		if err := json.Unmarshal([]byte(rawOverride), &override); err == nil {
			return override
		}
	}
	perms := StaffRolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasAll reports whether the permission set contains every required permission.
// The wildcard grants everything.
func HasAll(granted, required []string) bool {
	for _, g := range granted {
		if g == Wildcard {
			return true
		}
	}
	for _, req := range required {
		found := false
		for _, g := range granted {
			if g == req {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
