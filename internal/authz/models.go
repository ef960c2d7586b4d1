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

// Requirement is the declarative policy an endpoint attaches to itself.
// Constructed once by the endpoint owner, consumed per request, never mutated.
// Zero values mean "not required".
type Requirement struct {
	UserType         claims.UserType
	CustomerTier     permissions.CustomerTier
	StaffRole        permissions.StaffRole
	StaffPermissions []string
	Resource         string
	Feature          string
}

// staffOnly reports whether the requirement can only be satisfied by a staff
// principal, even without an explicit UserType.
func (r Requirement) staffOnly() bool {
	return r.StaffRole != "" || len(r.StaffPermissions) > 0
}

// customerOnly reports whether the requirement can only be satisfied by a
// customer principal.
func (r Requirement) customerOnly() bool {
	return r.CustomerTier != ""
}

// Context is the per-request authorization envelope. Built once from
// transport metadata plus verified claims; lives for exactly one request.
type Context struct {
	UserType  claims.UserType
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	Endpoint  string
	RequestID string
	Principal claims.Principal
}

// Decision is the outcome of a single authorization evaluation.
// Error is nil exactly when Authorized is true.
type Decision struct {
	Authorized bool
	Error      *autherr.AuthError
}

func allow() Decision {
	return Decision{Authorized: true}
}

func deny(err *autherr.AuthError) Decision {
	return Decision{Authorized: false, Error: err}
}
