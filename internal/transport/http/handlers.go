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
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/motormarket/motormarket-auth/internal/audit"
	"github.com/motormarket/motormarket-auth/internal/autherr"
	"github.com/motormarket/motormarket-auth/internal/authz"
	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/idp"
	"github.com/motormarket/motormarket-auth/internal/observability/logger"
	"github.com/motormarket/motormarket-auth/internal/permissions"
)

// AuditReader queries the persisted audit trail. Nil when the service runs
// without an audit store.
type AuditReader interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]audit.Event, error)
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	idpClient      idp.Client
	auditLogger    audit.Logger
	auditReader    AuditReader
	customerPoolID string
	staffPoolID    string
	validate       *validator.Validate
}

// NewHandler creates a new HTTP handler
func NewHandler(idpClient idp.Client, auditLogger audit.Logger, auditReader AuditReader, customerPoolID, staffPoolID string) *Handler {
	return &Handler{
		idpClient:      idpClient,
		auditLogger:    auditLogger,
		auditReader:    auditReader,
		customerPoolID: customerPoolID,
		staffPoolID:    staffPoolID,
		validate:       validator.New(),
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, az *Authorizer, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)

	// Customer auth surface
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.customerLogin)
		r.Post("/logout", h.customerLogout)
		r.Post("/refresh", h.customerRefresh)
		r.Post("/forgot-password", h.customerForgotPassword)
		r.Post("/confirm-forgot-password", h.customerConfirmForgotPassword)
	})

	// Staff auth surface
	r.Route("/api/v1/admin/auth", func(r chi.Router) {
		r.Post("/login", h.staffLogin)
		r.Post("/logout", h.staffLogout)
		r.Post("/forgot-password", h.staffForgotPassword)
		r.Post("/confirm-forgot-password", h.staffConfirmForgotPassword)
	})

	// Customer-pool protected routes
	r.Group(func(r chi.Router) {
		r.Use(az.Require(authz.Requirement{UserType: claims.UserTypeCustomer}))
		r.Get("/api/v1/me", h.Me)
	})
	r.Group(func(r chi.Router) {
		r.Use(az.Require(authz.Requirement{
			UserType:     claims.UserTypeCustomer,
			CustomerTier: permissions.TierDealer,
			Feature:      "Dealer Analytics",
		}))
		r.Get("/api/v1/analytics/dealer", h.DealerAnalytics)
	})
	r.Group(func(r chi.Router) {
		r.Use(az.Require(authz.Requirement{
			CustomerTier: permissions.TierPremium,
			Feature:      "Advanced Analytics",
		}))
		r.Get("/api/v1/analytics/advanced", h.AdvancedAnalytics)
	})

	// Staff-pool protected routes
	r.Group(func(r chi.Router) {
		r.Use(az.Require(authz.Requirement{UserType: claims.UserTypeStaff}))
		r.Get("/api/v1/admin/me", h.Me)
	})
	r.Group(func(r chi.Router) {
		r.Use(az.Require(authz.Requirement{
			UserType:         claims.UserTypeStaff,
			StaffRole:        permissions.RoleAdmin,
			StaffPermissions: []string{permissions.PermUserManagement},
			Resource:         "users",
		}))
		r.Get("/api/v1/admin/users/{username}/groups", h.UserGroups)
	})
	r.Group(func(r chi.Router) {
		r.Use(az.Require(authz.Requirement{
			UserType:         claims.UserTypeStaff,
			StaffPermissions: []string{permissions.PermAuditView},
			Resource:         "audit",
		}))
		r.Get("/api/v1/admin/audit/users/{userID}", h.AuditTrail)
	})

	return r
}

// HealthCheck reports service liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Me returns the verified principal attached by the authorization middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())

	body := map[string]any{
		"userType":    p.Type,
		"userId":      p.UserID(),
		"email":       p.Email(),
		"permissions": p.Permissions(),
	}
	switch p.Type {
	case claims.UserTypeCustomer:
		body["tier"] = p.Customer.Tier
	case claims.UserTypeStaff:
		body["role"] = p.Staff.Role
		if p.Staff.Team != "" {
			body["team"] = p.Staff.Team
		}
	}
	respondJSON(w, http.StatusOK, body)
}

// DealerAnalytics is the dealer-tier analytics surface.
func (h *Handler) DealerAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"report": "dealer",
	})
}

// AdvancedAnalytics is the premium-tier analytics surface.
func (h *Handler) AdvancedAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"report": "advanced",
	})
}

// UserGroups lists a user's provider groups, ordered by precedence upstream.
func (h *Handler) UserGroups(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	groups, err := h.idpClient.AdminListGroupsForUser(r.Context(), h.staffPoolID, username)
	if err != nil {
		h.respondProviderError(w, r, err, claims.UserTypeStaff)
		return
	}

	out := make([]map[string]any, 0, len(groups))
	for _, g := range groups {
		out = append(out, map[string]any{"name": g.Name, "precedence": g.Precedence})
	}
	respondJSON(w, http.StatusOK, map[string]any{"username": username, "groups": out})
}

// AuditTrail returns a user's recent audit events, newest first.
func (h *Handler) AuditTrail(w http.ResponseWriter, r *http.Request) {
	if h.auditReader == nil {
		respondError(w, http.StatusServiceUnavailable, "audit store not configured")
		return
	}

	userID := chi.URLParam(r, "userID")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	events, err := h.auditReader.ListRecent(r.Context(), userID, limit)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to read audit trail", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to read audit trail")
		return
	}

	out := make([]map[string]any, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]any{
			"eventType": ev.EventType,
			"userType":  ev.UserType,
			"success":   ev.Success,
			"errorCode": ev.ErrorCode,
			"ipAddress": ev.IPAddress,
			"timestamp": ev.Timestamp,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"userId": userID, "events": out})
}

// RegisterRequest represents customer registration data
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"omitempty,max=128"`
}

// Register handles customer registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	attrs := []idp.Attribute{{Name: "email", Value: req.Email}}
	if req.Name != "" {
		attrs = append(attrs, idp.Attribute{Name: "name", Value: req.Name})
	}

	user, err := h.idpClient.SignUp(r.Context(), h.customerPoolID, idp.SignUpInput{
		Email:      req.Email,
		Password:   req.Password,
		Attributes: attrs,
	})
	if err != nil {
		h.respondProviderError(w, r, err, claims.UserTypeCustomer)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		EventType: audit.TypeSignup,
		UserType:  claims.UserTypeCustomer,
		UserID:    user.Username,
		Email:     req.Email,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	respondJSON(w, http.StatusCreated, map[string]any{
		"username": user.Username,
		"status":   user.Status,
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) customerLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.customerPoolID, claims.UserTypeCustomer)
}

func (h *Handler) staffLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, h.staffPoolID, claims.UserTypeStaff)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, pool string, userType claims.UserType) {
	var req LoginRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.idpClient.InitiateAuth(r.Context(), pool, req.Email, req.Password)
	if err != nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			EventType: audit.TypeFailedLogin,
			UserType:  userType,
			Email:     req.Email,
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
			Success:   false,
			ErrorCode: string(providerCode(err, userType)),
		})
		h.respondProviderError(w, r, err, userType)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		EventType: audit.TypeLoginSuccess,
		UserType:  userType,
		Email:     req.Email,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"accessToken":  result.AccessToken,
		"idToken":      result.IDToken,
		"refreshToken": result.RefreshToken,
		"expiresIn":    result.ExpiresIn,
	})
}

func (h *Handler) customerLogout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, h.customerPoolID, claims.UserTypeCustomer)
}

func (h *Handler) staffLogout(w http.ResponseWriter, r *http.Request) {
	h.logout(w, r, h.staffPoolID, claims.UserTypeStaff)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request, pool string, userType claims.UserType) {
	raw := bearerToken(r)
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	if err := h.idpClient.GlobalSignOut(r.Context(), pool, raw); err != nil {
		h.respondProviderError(w, r, err, userType)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		EventType: audit.TypeLogout,
		UserType:  userType,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	respondJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// RefreshRequest carries a refresh token exchange.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

func (h *Handler) customerRefresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.idpClient.RefreshAuth(r.Context(), h.customerPoolID, req.RefreshToken)
	if err != nil {
		h.respondProviderError(w, r, err, claims.UserTypeCustomer)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		EventType: audit.TypeTokenRefreshed,
		UserType:  claims.UserTypeCustomer,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"accessToken": result.AccessToken,
		"idToken":     result.IDToken,
		"expiresIn":   result.ExpiresIn,
	})
}

// ForgotPasswordRequest initiates a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) customerForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.forgotPassword(w, r, h.customerPoolID, claims.UserTypeCustomer)
}

func (h *Handler) staffForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.forgotPassword(w, r, h.staffPoolID, claims.UserTypeStaff)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request, pool string, userType claims.UserType) {
	var req ForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	err := h.idpClient.ForgotPassword(r.Context(), pool, req.Email)
	if err != nil {
		// Unknown accounts get the generic success response to prevent
		// account enumeration. Everything else maps through the taxonomy.
		if providerCode(err, userType) != autherr.CodeUserNotFound {
			h.respondProviderError(w, r, err, userType)
			return
		}
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		EventType: audit.TypePasswordResetInit,
		UserType:  userType,
		Email:     req.Email,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Success:   err == nil,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "reset_initiated",
	})
}

// ConfirmForgotPasswordRequest completes a password reset.
type ConfirmForgotPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) customerConfirmForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.confirmForgotPassword(w, r, h.customerPoolID, claims.UserTypeCustomer)
}

func (h *Handler) staffConfirmForgotPassword(w http.ResponseWriter, r *http.Request) {
	h.confirmForgotPassword(w, r, h.staffPoolID, claims.UserTypeStaff)
}

func (h *Handler) confirmForgotPassword(w http.ResponseWriter, r *http.Request, pool string, userType claims.UserType) {
	var req ConfirmForgotPasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.idpClient.ConfirmForgotPassword(r.Context(), pool, req.Email, req.Code, req.NewPassword); err != nil {
		h.respondProviderError(w, r, err, userType)
		return
	}

	h.auditLogger.Log(r.Context(), audit.Event{
		EventType: audit.TypePasswordResetDone,
		UserType:  userType,
		Email:     req.Email,
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "password_reset",
	})
}

// decodeAndValidate parses and validates a JSON request body.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		respondError(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return false
	}
	return true
}

// respondProviderError maps an identity-provider failure through the error
// factory and writes the structured response.
func (h *Handler) respondProviderError(w http.ResponseWriter, r *http.Request, err error, userType claims.UserType) {
	requestID := middleware.GetReqID(r.Context())

	var pe *idp.ProviderError
	name := ""
	if errors.As(err, &pe) {
		name = pe.Name
	}

	authErr := autherr.FromProvider(name, userType, requestID)
	if authErr.Severity == autherr.SeverityCritical {
		slog.ErrorContext(r.Context(), "unmapped identity provider error",
			logger.Error(err),
			logger.RequestID(requestID),
		)
	}
	autherr.WriteResponse(w, authErr, statusForCode(authErr.Code))
}

// providerCode resolves the taxonomy code an error would map to without
// building the full response.
func providerCode(err error, userType claims.UserType) autherr.Code {
	var pe *idp.ProviderError
	if errors.As(err, &pe) {
		return autherr.FromProvider(pe.Name, userType, "").Code
	}
	return autherr.CodeInternalError
}

// statusForCode picks the HTTP status for an authentication failure code.
func statusForCode(code autherr.Code) int {
	switch code {
	case autherr.CodeInvalidCredentials, autherr.CodeUserNotFound, autherr.CodeUserNotConfirmed:
		return http.StatusUnauthorized
	case autherr.CodeUsernameExists:
		return http.StatusConflict
	case autherr.CodeRateLimited:
		return http.StatusTooManyRequests
	case autherr.CodeMFACodeInvalid, autherr.CodeMFACodeExpired:
		return http.StatusBadRequest
	case autherr.CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
