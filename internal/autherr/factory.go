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

import (
	"fmt"
	"time"

	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/permissions"
)

// Recovery URLs per pool. Customers and staff use separate auth surfaces.
const (
	customerForgotPasswordURL = "/auth/forgot-password"
	customerResendCodeURL     = "/auth/resend-confirmation"
	customerRegisterURL       = "/auth/register"
	customerUpgradeURL        = "/account/upgrade"
	staffForgotPasswordURL    = "/admin/auth/forgot-password"
	supportURL                = "/support"
)

// providerMapping maps an identity-provider exception name onto the internal
// taxonomy. Names not present here are treated as unrecognized system errors.
var providerMapping = map[string]struct {
	code     Code
	severity Severity
	category Category
}{
	"NotAuthorizedException":    {CodeInvalidCredentials, SeverityLow, CategoryAuthentication},
	"UserNotConfirmedException": {CodeUserNotConfirmed, SeverityLow, CategoryAuthentication},
	"UserNotFoundException":     {CodeUserNotFound, SeverityLow, CategoryAuthentication},
	"UsernameExistsException":   {CodeUsernameExists, SeverityLow, CategoryAuthentication},
	"TooManyRequestsException":  {CodeRateLimited, SeverityMedium, CategoryAuthentication},
	"CodeMismatchException":     {CodeMFACodeInvalid, SeverityLow, CategoryAuthentication},
	"ExpiredCodeException":      {CodeMFACodeExpired, SeverityLow, CategoryAuthentication},
}

// userMessages holds the user-facing message per code and pool. The same code
// renders differently for customers (friendlier, more detail) and staff
// (terser). Falls back to the customer message when a staff entry is absent.
var userMessages = map[Code]map[claims.UserType]string{
	CodeInvalidCredentials: {
		claims.UserTypeCustomer: "The email or password you entered is incorrect. Please try again.",
		claims.UserTypeStaff:    "Invalid login credentials.",
	},
	CodeUserNotConfirmed: {
		claims.UserTypeCustomer: "Your account has not been confirmed yet. Please check your email for a confirmation link.",
		claims.UserTypeStaff:    "Account not confirmed. Contact your administrator.",
	},
	CodeUserNotFound: {
		claims.UserTypeCustomer: "We couldn't find an account with that email address.",
		claims.UserTypeStaff:    "Account not found.",
	},
	CodeUsernameExists: {
		claims.UserTypeCustomer: "An account with this email address already exists.",
		claims.UserTypeStaff:    "Account already exists.",
	},
	CodeRateLimited: {
		claims.UserTypeCustomer: "Too many attempts. Please wait a moment and try again.",
		claims.UserTypeStaff:    "Too many attempts. Try again shortly.",
	},
	CodeMFACodeInvalid: {
		claims.UserTypeCustomer: "The verification code you entered is incorrect. Please try again.",
		claims.UserTypeStaff:    "Invalid verification code.",
	},
	CodeMFACodeExpired: {
		claims.UserTypeCustomer: "Your verification code has expired. Please request a new one.",
		claims.UserTypeStaff:    "Verification code expired. Request a new one.",
	},
	CodeTokenInvalid: {
		claims.UserTypeCustomer: "Your session could not be verified. Please sign in again.",
		claims.UserTypeStaff:    "Session could not be verified. Sign in again.",
	},
	CodeTokenExpired: {
		claims.UserTypeCustomer: "Your session has expired. Please sign in again.",
		claims.UserTypeStaff:    "Session expired. Sign in again.",
	},
	CodeSessionExpired: {
		claims.UserTypeCustomer: "Your session has expired. Please sign in again.",
		claims.UserTypeStaff:    "Staff sessions expire after a fixed period. Sign in again.",
	},
	CodeInternalError: {
		claims.UserTypeCustomer: "Something went wrong on our end. Please try again later.",
		claims.UserTypeStaff:    "Internal error. Try again later.",
	},
}

// recoveryOptions holds the actionable next steps per code and pool.
var recoveryOptions = map[Code]map[claims.UserType][]RecoveryOption{
	CodeInvalidCredentials: {
		claims.UserTypeCustomer: {
			{Action: "retry", Description: "Check your email and password and try again"},
			{Action: "reset_password", Description: "Reset your password", URL: customerForgotPasswordURL},
		},
		claims.UserTypeStaff: {
			{Action: "reset_password", Description: "Reset your password", URL: staffForgotPasswordURL},
		},
	},
	CodeUserNotConfirmed: {
		claims.UserTypeCustomer: {
			{Action: "resend_confirmation", Description: "Resend the confirmation email", URL: customerResendCodeURL},
		},
		claims.UserTypeStaff: {
			{Action: "contact_admin", Description: "Contact your administrator to activate your account"},
		},
	},
	CodeUserNotFound: {
		claims.UserTypeCustomer: {
			{Action: "register", Description: "Create a new account", URL: customerRegisterURL},
			{Action: "retry", Description: "Double-check the email address you entered"},
		},
		claims.UserTypeStaff: {
			{Action: "contact_admin", Description: "Contact your administrator"},
		},
	},
	CodeUsernameExists: {
		claims.UserTypeCustomer: {
			{Action: "login", Description: "Sign in with your existing account"},
			{Action: "reset_password", Description: "Reset your password if you've forgotten it", URL: customerForgotPasswordURL},
		},
	},
	CodeRateLimited: {
		claims.UserTypeCustomer: {
			{Action: "wait", Description: "Wait a few minutes before trying again"},
		},
		claims.UserTypeStaff: {
			{Action: "wait", Description: "Wait a few minutes before trying again"},
		},
	},
	CodeMFACodeInvalid: {
		claims.UserTypeCustomer: {
			{Action: "retry", Description: "Re-enter the code from your email or phone"},
		},
		claims.UserTypeStaff: {
			{Action: "retry", Description: "Re-enter the verification code"},
		},
	},
	CodeMFACodeExpired: {
		claims.UserTypeCustomer: {
			{Action: "resend_code", Description: "Request a new verification code"},
		},
		claims.UserTypeStaff: {
			{Action: "resend_code", Description: "Request a new verification code"},
		},
	},
	CodeTokenInvalid: {
		claims.UserTypeCustomer: {
			{Action: "login", Description: "Sign in again"},
		},
		claims.UserTypeStaff: {
			{Action: "login", Description: "Sign in again"},
		},
	},
	CodeTokenExpired: {
		claims.UserTypeCustomer: {
			{Action: "login", Description: "Sign in again"},
		},
		claims.UserTypeStaff: {
			{Action: "login", Description: "Sign in again"},
		},
	},
	CodeSessionExpired: {
		claims.UserTypeCustomer: {
			{Action: "login", Description: "Sign in again"},
		},
		claims.UserTypeStaff: {
			{Action: "login", Description: "Sign in again"},
		},
	},
	CodeInternalError: {
		claims.UserTypeCustomer: {
			{Action: "contact_support", Description: "Contact support if the problem persists", URL: supportURL},
		},
		claims.UserTypeStaff: {
			{Action: "contact_support", Description: "Contact support if the problem persists", URL: supportURL},
		},
	},
}

// UserMessageFor returns the pool-specific user-facing message for a code.
func UserMessageFor(code Code, userType claims.UserType) string {
	byPool, ok := userMessages[code]
	if !ok {
		return userMessages[CodeInternalError][userType]
	}
	if msg, ok := byPool[userType]; ok {
		return msg
	}
	return byPool[claims.UserTypeCustomer]
}

// RecoveryOptionsFor returns the pool-specific recovery options for a code.
func RecoveryOptionsFor(code Code, userType claims.UserType) []RecoveryOption {
	byPool, ok := recoveryOptions[code]
	if !ok {
		return nil
	}
	if opts, ok := byPool[userType]; ok {
		return opts
	}
	return byPool[claims.UserTypeCustomer]
}

// New builds an AuthError with the taxonomy defaults for a code.
func New(code Code, userType claims.UserType, severity Severity, category Category, technical string) *AuthError {
	return &AuthError{
		Code:            code,
		Message:         technical,
		UserMessage:     UserMessageFor(code, userType),
		UserType:        userType,
		Severity:        severity,
		Category:        category,
		Retryable:       code.Retryable(),
		Context:         map[string]any{},
		RecoveryOptions: RecoveryOptionsFor(code, userType),
		Timestamp:       time.Now().UTC(),
	}
}

// FromProvider translates a raw identity-provider exception name into an
// AuthError. Unrecognized names become CRITICAL system errors so they surface
// in monitoring instead of being mistaken for user error.
func FromProvider(exceptionName string, userType claims.UserType, requestID string) *AuthError {
	m, ok := providerMapping[exceptionName]
	if !ok {
		e := New(CodeInternalError, userType, SeverityCritical, CategorySystem,
			fmt.Sprintf("unmapped provider error: %s", exceptionName))
		e.RequestID = requestID
		e.Context["providerError"] = exceptionName
		return e
	}

	e := New(m.code, userType, m.severity, m.category,
		fmt.Sprintf("provider error: %s", exceptionName))
	e.RequestID = requestID
	e.Context["providerError"] = exceptionName
	return e
}

// NewCrossPoolError builds the denial for a token from one pool presented to
// the other pool's endpoint. Severity is HIGH: cross-pool attempts signal
// credential confusion or probing.
func NewCrossPoolError(actualPool, endpointPool claims.UserType, requestID string) *AuthError {
	code := CodeCrossPoolAccessDenied
	switch {
	case actualPool == claims.UserTypeCustomer && endpointPool == claims.UserTypeStaff:
		code = CodeCustomerTokenOnStaffEndpoint
	case actualPool == claims.UserTypeStaff && endpointPool == claims.UserTypeCustomer:
		code = CodeStaffTokenOnCustomerEndpoint
	}

	e := &AuthError{
		Code:        code,
		Message:     fmt.Sprintf("%s token presented to %s endpoint", actualPool, endpointPool),
		UserMessage: "You don't have access to this area.",
		UserType:    actualPool,
		Severity:    SeverityHigh,
		Category:    CategoryAuthorization,
		Retryable:   false,
		Context: map[string]any{
			"crossPoolAttempt": true,
			"actualPool":       string(actualPool),
			"endpointPool":     string(endpointPool),
		},
		RecoveryOptions: []RecoveryOption{
			{Action: "contact_support", Description: "Contact support if you believe this is a mistake", URL: supportURL},
		},
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
	return e
}

// NewPermissionError builds the denial for a principal missing one or more
// required permissions. The full granted set is carried for diagnostics.
func NewPermissionError(userType claims.UserType, required []string, userPermissions []string, requestID string) *AuthError {
	return &AuthError{
		Code:        CodeInsufficientPermissions,
		Message:     fmt.Sprintf("missing required permissions %v", required),
		UserMessage: "You don't have permission to perform this action. Contact your administrator if you need access.",
		UserType:    userType,
		Severity:    SeverityMedium,
		Category:    CategoryAuthorization,
		Retryable:   false,
		Context: map[string]any{
			"requiredPermissions": required,
			"userPermissions":     userPermissions,
		},
		RecoveryOptions: []RecoveryOption{
			{Action: "contact_admin", Description: "Ask your administrator to grant the required permission"},
		},
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewRoleError builds the denial for a staff principal whose role ranks below
// the required role.
func NewRoleError(userRole, requiredRole permissions.StaffRole, requestID string) *AuthError {
	return &AuthError{
		Code:        CodeRoleNotAuthorized,
		Message:     fmt.Sprintf("role %s does not satisfy required role %s", userRole, requiredRole),
		UserMessage: fmt.Sprintf("This action requires the %s role. Contact your administrator if you need elevated access.", requiredRole),
		UserType:    claims.UserTypeStaff,
		Severity:    SeverityMedium,
		Category:    CategoryAuthorization,
		Retryable:   false,
		Context: map[string]any{
			"userRole":     string(userRole),
			"requiredRole": string(requiredRole),
		},
		RecoveryOptions: []RecoveryOption{
			{Action: "contact_admin", Description: "Ask your administrator for elevated access"},
		},
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}

// NewTierError builds the denial for a customer whose tier ranks below the
// required tier. The user message names the feature and both tiers so the
// upgrade path is obvious.
func NewTierError(feature string, requiredTier, currentTier permissions.CustomerTier, requestID string) *AuthError {
	if feature == "" {
		feature = "This feature"
	}
	return &AuthError{
		Code:    CodeTierAccessDenied,
		Message: fmt.Sprintf("tier %s does not satisfy required tier %s for %s", currentTier, requiredTier, feature),
		UserMessage: fmt.Sprintf("%s requires the %s tier. Your account is currently on the %s tier. Upgrade to get access.",
			feature, requiredTier, currentTier),
		UserType:  claims.UserTypeCustomer,
		Severity:  SeverityMedium,
		Category:  CategoryAuthorization,
		Retryable: false,
		Context: map[string]any{
			"feature":      feature,
			"requiredTier": string(requiredTier),
			"currentTier":  string(currentTier),
		},
		RecoveryOptions: []RecoveryOption{
			{Action: "upgrade", Description: fmt.Sprintf("Upgrade to the %s tier", requiredTier), URL: customerUpgradeURL},
		},
		Timestamp: time.Now().UTC(),
		RequestID: requestID,
	}
}
