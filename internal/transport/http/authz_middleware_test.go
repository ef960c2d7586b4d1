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

package http

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motormarket/motormarket-auth/internal/audit"
	"github.com/motormarket/motormarket-auth/internal/authz"
	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/permissions"
	"github.com/motormarket/motormarket-auth/internal/token"
)

// recordingAuditLogger captures events for assertions.
type recordingAuditLogger struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAuditLogger) Log(_ context.Context, e audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAuditLogger) last() (audit.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return audit.Event{}, false
	}
	return r.events[len(r.events)-1], true
}

// panickingAuditLogger simulates a broken audit sink.
type panickingAuditLogger struct{}

func (panickingAuditLogger) Log(context.Context, audit.Event) { panic("audit sink down") }

// authTestEnv bundles a signing key, an in-process JWKS endpoint and a
// two-pool verifier. Both pools share the key and JWKS for simplicity;
// pool routing is decided by claim shape, not by key material.
type authTestEnv struct {
	key      *rsa.PrivateKey
	verifier *token.Verifier
	auditLog *recordingAuditLogger
}

const (
	testIssuer   = "https://pool.test.example"
	testClientID = "client-test"
	envTestKid   = "env-key-1"
)

func newAuthTestEnv(t *testing.T) *authTestEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	jwks := token.JWKS{Keys: []token.JWK{{
		Kty: "RSA",
		Kid: envTestKid,
		N:   base64.RawURLEncoding.EncodeToString(key.PublicKey.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.PublicKey.E)).Bytes()),
	}}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(jwks)
	}))
	t.Cleanup(srv.Close)

	cfg := token.PoolConfig{Issuer: testIssuer, ClientID: testClientID, JWKSURL: srv.URL}
	return &authTestEnv{
		key:      key,
		verifier: token.NewVerifier(cfg, cfg),
		auditLog: &recordingAuditLogger{},
	}
}

func (e *authTestEnv) authorizer(staffMaxAge time.Duration) *Authorizer {
	return NewAuthorizer(e.verifier, e.auditLog, nil, staffMaxAge)
}

func (e *authTestEnv) sign(t *testing.T, extra jwt.MapClaims) string {
	t.Helper()
	now := time.Now()
	mc := jwt.MapClaims{
		"sub":       "user-1",
		"iss":       testIssuer,
		"client_id": testClientID,
		"iat":       float64(now.Unix()),
		"exp":       float64(now.Add(time.Hour).Unix()),
	}
	for k, v := range extra {
		mc[k] = v
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, mc)
	tok.Header["kid"] = envTestKid
	raw, err := tok.SignedString(e.key)
	require.NoError(t, err)
	return raw
}

func (e *authTestEnv) customerToken(t *testing.T, tier string) string {
	return e.sign(t, jwt.MapClaims{"custom:customer_type": tier, "email": "buyer@example.com"})
}

func (e *authTestEnv) staffToken(t *testing.T, role string, extra jwt.MapClaims) string {
	mc := jwt.MapClaims{
		"custom:role":        role,
		"custom:permissions": `[]`,
		"email":              "ops@example.com",
	}
	for k, v := range extra {
		mc[k] = v
	}
	return e.sign(t, mc)
}

// serve runs one request through Require(req) in front of a 200 handler that
// records the principal it saw.
func serve(az *Authorizer, req authz.Requirement, r *http.Request) (*httptest.ResponseRecorder, *claims.Principal) {
	var seen *claims.Principal
	handler := az.Require(req)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := GetPrincipal(r.Context()); p.Type != claims.UserTypeUnknown {
			seen = &p
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec, seen
}

func errorCodeFromBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

// =============================================================================
// AUTHENTICATION FAILURES (401)
// =============================================================================

// TestPurpose: Validates that requests without a bearer token are rejected before any verification work.
// Scope: Unit Test
// Security: Authentication boundary
// Expected: 401 with TOKEN_INVALID; protected handler never runs.
// Test Case ID: MW-AUTHN-01
func TestAuthorizer_MissingToken_Returns401(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	rec, seen := serve(az, authz.Requirement{UserType: claims.UserTypeCustomer}, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", rec.Header().Get("X-Error-Code"))
	assert.Nil(t, seen)
}

// TestPurpose: Validates that unclassifiable tokens (no pool-identifying claims) are rejected as unauthenticated.
// Scope: Unit Test
// Security: Pool routing of untrusted input
// Expected: 401 TOKEN_INVALID for a structurally valid token from neither pool.
// Test Case ID: MW-AUTHN-02
func TestAuthorizer_UnclassifiableToken_Returns401(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	raw := env.sign(t, jwt.MapClaims{"email": "nobody@example.com"})
	r := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	rec, _ := serve(az, authz.Requirement{UserType: claims.UserTypeCustomer}, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_INVALID", errorCodeFromBody(t, rec))
}

// TestPurpose: Validates that a forged signature fails verification even when the claim shape routes correctly.
// Scope: Unit Test
// Security: Token authenticity (classification is routing, verification is trust)
// Expected: 401 TOKEN_INVALID.
// Test Case ID: MW-AUTHN-03
func TestAuthorizer_ForgedSignature_Returns401(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "user-1", "iss": testIssuer, "client_id": testClientID,
		"custom:customer_type": "premium",
		"iat":                  float64(now.Unix()),
		"exp":                  float64(now.Add(time.Hour).Unix()),
	})
	tok.Header["kid"] = envTestKid
	raw, err := tok.SignedString(otherKey)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	rec, _ := serve(az, authz.Requirement{UserType: claims.UserTypeCustomer}, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestPurpose: Validates the staff session freshness window: a verified but old staff token is treated as an expired session.
// Scope: Unit Test
// Security: Staff session hygiene
// Expected: 401 with SESSION_EXPIRED, distinct from TOKEN_INVALID.
// Test Case ID: MW-AUTHN-04
func TestAuthorizer_StaleStaffToken_Returns401SessionExpired(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	raw := env.staffToken(t, "admin", jwt.MapClaims{
		"iat": float64(time.Now().Add(-9 * time.Hour).Unix()),
	})
	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	rec, _ := serve(az, authz.Requirement{UserType: claims.UserTypeStaff}, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "SESSION_EXPIRED", rec.Header().Get("X-Error-Code"))
}

// =============================================================================
// AUTHORIZATION DENIALS (403)
// =============================================================================

// TestPurpose: Validates cross-pool isolation end to end: a verified customer token on a staff endpoint is denied with the specific code.
// Scope: Unit Test
// Security: Pool isolation at the transport boundary
// Expected: 403 CUSTOMER_TOKEN_ON_STAFF_ENDPOINT; denial is audited with the code.
// Test Case ID: MW-AUTHZ-01
func TestAuthorizer_CustomerTokenOnStaffEndpoint_Returns403(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	r.Header.Set("Authorization", "Bearer "+env.customerToken(t, "premium"))

	rec, seen := serve(az, authz.Requirement{UserType: claims.UserTypeStaff}, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CUSTOMER_TOKEN_ON_STAFF_ENDPOINT", rec.Header().Get("X-Error-Code"))
	assert.Equal(t, "customer", rec.Header().Get("X-User-Type"))
	assert.Nil(t, seen)

	event, ok := env.auditLog.last()
	require.True(t, ok, "denial must be audited")
	assert.Equal(t, audit.TypeFailedLogin, event.EventType)
	assert.Equal(t, "CUSTOMER_TOKEN_ON_STAFF_ENDPOINT", event.ErrorCode)
	assert.Equal(t, claims.UserTypeCustomer, event.UserType)
	assert.False(t, event.Success)
}

// TestPurpose: Validates tier gating through the middleware with the upgrade message reaching the response body.
// Scope: Unit Test
// Security: Tier privilege boundary
// Expected: 403 TIER_ACCESS_DENIED; body names the feature and tiers.
// Test Case ID: MW-AUTHZ-02
func TestAuthorizer_InsufficientTier_Returns403(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/advanced", nil)
	r.Header.Set("Authorization", "Bearer "+env.customerToken(t, "individual"))

	rec, _ := serve(az, authz.Requirement{
		UserType:     claims.UserTypeCustomer,
		CustomerTier: permissions.TierPremium,
		Feature:      "Advanced Analytics",
	}, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "TIER_ACCESS_DENIED", rec.Header().Get("X-Error-Code"))
	assert.Contains(t, rec.Body.String(), "Advanced Analytics")
	assert.Contains(t, rec.Body.String(), "premium")
}

// TestPurpose: Validates staff permission gating; an explicit permissions claim overrides the role default.
// Scope: Unit Test
// Security: Least privilege with claim override
// Expected: Admin denied user_management when their explicit claim grants nothing.
// Test Case ID: MW-AUTHZ-03
func TestAuthorizer_ExplicitEmptyPermissions_Returns403(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	// Role says admin, explicit claim says no permissions. The claim wins.
	r := httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/u/groups", nil)
	r.Header.Set("Authorization", "Bearer "+env.staffToken(t, "admin", nil))

	rec, _ := serve(az, authz.Requirement{
		UserType:         claims.UserTypeStaff,
		StaffPermissions: []string{permissions.PermUserManagement},
	}, r)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "INSUFFICIENT_PERMISSIONS", rec.Header().Get("X-Error-Code"))
}

// =============================================================================
// AUTHORIZED PATHS AND RESILIENCE
// =============================================================================

// TestPurpose: Validates the happy path: a verified principal reaches the handler through the request context.
// Scope: Unit Test
// Security: Context propagation
// Expected: 200; handler observes the parsed principal with derived permissions.
// Test Case ID: MW-AUTHZ-04
func TestAuthorizer_AuthorizedCustomer_PrincipalInContext(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/dealer", nil)
	r.Header.Set("Authorization", "Bearer "+env.customerToken(t, "dealer"))

	rec, seen := serve(az, authz.Requirement{
		UserType:     claims.UserTypeCustomer,
		CustomerTier: permissions.TierDealer,
		Feature:      "Dealer Analytics",
	}, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, claims.UserTypeCustomer, seen.Type)
	assert.Equal(t, "user-1", seen.UserID())
	assert.Contains(t, seen.Permissions(), permissions.PermAnalyticsDealer)
}

func TestAuthorizer_AuthorizedStaff_RoleDefaultsApply(t *testing.T) {
	env := newAuthTestEnv(t)
	az := env.authorizer(8 * time.Hour)

	raw := env.sign(t, jwt.MapClaims{
		"custom:role":        "super_admin",
		"custom:permissions": `["*"]`,
	})
	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/audit", nil)
	r.Header.Set("Authorization", "Bearer "+raw)

	rec, seen := serve(az, authz.Requirement{
		UserType:         claims.UserTypeStaff,
		StaffRole:        permissions.RoleAdmin,
		StaffPermissions: []string{permissions.PermAuditView},
	}, r)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, permissions.RoleSuperAdmin, seen.Staff.Role)
}

// TestPurpose: Validates that a panicking audit sink cannot break the denial response.
// Scope: Unit Test
// Security: Fire-and-forget audit contract
// Expected: 403 still served when the audit logger panics.
// Test Case ID: MW-AUDIT-01
func TestAuthorizer_PanickingAuditSink_ResponseStillServed(t *testing.T) {
	env := newAuthTestEnv(t)
	az := NewAuthorizer(env.verifier, panickingAuditLogger{}, nil, 8*time.Hour)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/admin/me", nil)
	r.Header.Set("Authorization", "Bearer "+env.customerToken(t, "individual"))

	rec, _ := serve(az, authz.Requirement{UserType: claims.UserTypeStaff}, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "CUSTOMER_TOKEN_ON_STAFF_ENDPOINT", rec.Header().Get("X-Error-Code"))
}

func TestBearerToken_Extraction(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"well-formed", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"case-insensitive scheme", "bearer abc", "abc"},
		{"missing header", "", ""},
		{"wrong scheme", "Basic dXNlcjpwdw==", ""},
		{"scheme only", "Bearer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, bearerToken(r))
		})
	}
}
