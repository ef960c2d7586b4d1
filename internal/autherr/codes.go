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

package autherr

// Code identifies an authentication or authorization failure class.
type Code string

const (
	// Authentication codes
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeUserNotConfirmed   Code = "USER_NOT_CONFIRMED"
	CodeUserNotFound       Code = "USER_NOT_FOUND"
	CodeUsernameExists     Code = "USERNAME_EXISTS"
	CodeRateLimited        Code = "RATE_LIMITED"
	CodeMFACodeInvalid     Code = "MFA_CODE_INVALID"
	CodeMFACodeExpired     Code = "MFA_CODE_EXPIRED"
	CodeTokenExpired       Code = "TOKEN_EXPIRED"
	CodeTokenInvalid       Code = "TOKEN_INVALID"
	CodeSessionExpired     Code = "SESSION_EXPIRED"

	// Authorization codes
	CodeTierAccessDenied             Code = "TIER_ACCESS_DENIED"
	CodeRoleNotAuthorized            Code = "ROLE_NOT_AUTHORIZED"
	CodeInsufficientPermissions      Code = "INSUFFICIENT_PERMISSIONS"
	CodeCrossPoolAccessDenied        Code = "CROSS_POOL_ACCESS_DENIED"
	CodeCustomerTokenOnStaffEndpoint Code = "CUSTOMER_TOKEN_ON_STAFF_ENDPOINT"
	CodeStaffTokenOnCustomerEndpoint Code = "STAFF_TOKEN_ON_CUSTOMER_ENDPOINT"

	// System codes
	CodeInternalError Code = "INTERNAL_ERROR"
)

// Severity escalates with blast radius.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Category groups codes by failure domain.
type Category string

const (
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryAuthorization  Category = "AUTHORIZATION"
	CategorySystem         Category = "SYSTEM"
)

// retryableCodes is the fixed retryability table. Only transient provider and
// infrastructure failures are retryable; authorization denials never are.
var retryableCodes = map[Code]bool{
	CodeRateLimited:   true,
	CodeInternalError: true,
}

// Retryable reports whether a failure with this code may succeed on retry.
func (c Code) Retryable() bool {
	return retryableCodes[c]
}
