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
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/motormarket/motormarket-auth/internal/audit"
	"github.com/motormarket/motormarket-auth/internal/autherr"
	"github.com/motormarket/motormarket-auth/internal/authz"
	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/observability/logger"
	"github.com/motormarket/motormarket-auth/internal/observability/metrics"
	"github.com/motormarket/motormarket-auth/internal/token"
)

// Authorizer turns declarative endpoint requirements into chi middleware.
// It composes the pure decision engine with verification, auditing and
// metrics at the transport boundary, keeping the engine free of I/O.
type Authorizer struct {
	verifier    *token.Verifier
	auditLogger audit.Logger
	authMetrics *metrics.AuthMetrics
	staffMaxAge time.Duration
}

// NewAuthorizer creates an Authorizer.
func NewAuthorizer(verifier *token.Verifier, auditLogger audit.Logger, authMetrics *metrics.AuthMetrics, staffMaxAge time.Duration) *Authorizer {
	return &Authorizer{
		verifier:    verifier,
		auditLogger: auditLogger,
		authMetrics: authMetrics,
		staffMaxAge: staffMaxAge,
	}
}

// Require returns middleware enforcing a requirement on every request.
// A nil return from the inner evaluation means proceed; otherwise the request
// is short-circuited with the serialized error.
func (a *Authorizer) Require(req authz.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, authErr, status := a.authenticate(r, req)
			if authErr != nil {
				a.logDenial(r, claims.Principal{}, authErr)
				autherr.WriteResponse(w, authErr, status)
				return
			}

			actx := a.buildContext(r, principal)
			decision := authz.ValidateAuthorization(actx, req)

			a.authMetrics.RecordDecision(r.Context(), string(actx.UserType), decision.Authorized, denialCode(decision))

			if !decision.Authorized {
				if decision.Error.Context["crossPoolAttempt"] == true {
					a.authMetrics.RecordCrossPoolAttempt(r.Context(), string(actx.UserType))
				}
				a.logDenial(r, principal, decision.Error)
				autherr.WriteResponse(w, decision.Error, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), principal)))
		})
	}
}

// authenticate extracts, verifies and parses the bearer token. Failures here
// are authentication failures (401), not authorization denials (403).
func (a *Authorizer) authenticate(r *http.Request, req authz.Requirement) (claims.Principal, *autherr.AuthError, int) {
	requestID := middleware.GetReqID(r.Context())

	raw := bearerToken(r)
	if raw == "" {
		e := autherr.New(autherr.CodeTokenInvalid, req.UserType, autherr.SeverityLow,
			autherr.CategoryAuthentication, "missing bearer token")
		e.RequestID = requestID
		return claims.Principal{}, e, http.StatusUnauthorized
	}

	// Heuristic pool routing before full verification. Not a trust boundary:
	// the verifier re-checks everything against the routed pool's keys.
	origin := claims.ClassifyTokenOrigin(raw)
	if origin == claims.UserTypeUnknown {
		e := autherr.New(autherr.CodeTokenInvalid, req.UserType, autherr.SeverityLow,
			autherr.CategoryAuthentication, "token origin could not be classified")
		e.RequestID = requestID
		return claims.Principal{}, e, http.StatusUnauthorized
	}

	mc, err := a.verifier.Verify(r.Context(), raw, origin)
	if err != nil {
		e := autherr.New(autherr.CodeTokenInvalid, origin, autherr.SeverityLow,
			autherr.CategoryAuthentication, err.Error())
		e.RequestID = requestID
		return claims.Principal{}, e, http.StatusUnauthorized
	}

	switch origin {
	case claims.UserTypeCustomer:
		cc, err := claims.ParseCustomerClaims(mc)
		if err != nil {
			e := autherr.New(autherr.CodeTokenInvalid, origin, autherr.SeverityLow,
				autherr.CategoryAuthentication, err.Error())
			e.RequestID = requestID
			return claims.Principal{}, e, http.StatusUnauthorized
		}
		return claims.Principal{Type: claims.UserTypeCustomer, Customer: cc}, nil, 0

	default:
		sc, err := claims.ParseStaffClaims(mc, a.staffMaxAge, time.Now())
		if err != nil {
			code := autherr.CodeTokenInvalid
			if errors.Is(err, claims.ErrStaleStaffToken) {
				code = autherr.CodeSessionExpired
			}
			e := autherr.New(code, origin, autherr.SeverityLow,
				autherr.CategoryAuthentication, err.Error())
			e.RequestID = requestID
			return claims.Principal{}, e, http.StatusUnauthorized
		}
		return claims.Principal{Type: claims.UserTypeStaff, Staff: sc}, nil, 0
	}
}

// buildContext assembles the per-request authorization envelope.
func (a *Authorizer) buildContext(r *http.Request, p claims.Principal) authz.Context {
	return authz.Context{
		UserType:  p.Type,
		UserID:    p.UserID(),
		Email:     p.Email(),
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Endpoint:  r.URL.Path,
		RequestID: middleware.GetReqID(r.Context()),
		Principal: p,
	}
}

// logDenial emits the audit event for a denied request. The audit contract is
// non-throwing, and a panic in a sink must not break the response either.
func (a *Authorizer) logDenial(r *http.Request, p claims.Principal, e *autherr.AuthError) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.WarnContext(r.Context(), "audit logger panicked on denial",
				logger.ErrorCode(string(e.Code)))
		}
	}()
	a.auditLogger.Log(r.Context(), audit.Denial(
		p.Type, p.UserID(), p.Email(), getIPAddress(r), r.UserAgent(), r.URL.Path, string(e.Code)))
}

func denialCode(d authz.Decision) string {
	if d.Error == nil {
		return ""
	}
	return string(d.Error.Code)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
