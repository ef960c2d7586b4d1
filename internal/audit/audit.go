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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/motormarket/motormarket-auth/internal/claims"
)

// Event types
const (
	TypeLoginSuccess      = "LOGIN_SUCCESS"
	TypeFailedLogin       = "FAILED_LOGIN"
	TypeLogout            = "LOGOUT"
	TypeSignup            = "SIGNUP"
	TypePasswordResetInit = "PASSWORD_RESET_INITIATED"
	TypePasswordResetDone = "PASSWORD_RESET_COMPLETED"
	TypeTokenRefreshed    = "TOKEN_REFRESHED"
)

// Event represents an auditable authentication or authorization action.
// Authorization denials reuse TypeFailedLogin with Success=false and the
// denial code in ErrorCode.
type Event struct {
	EventType string
	UserType  claims.UserType
	UserID    string
	Email     string
	IPAddress string
	UserAgent string
	Timestamp time.Time
	Success   bool
	ErrorCode string
	Metadata  map[string]any
}

// Logger defines the interface for audit logging. Implementations must never
// let a logging failure reach the caller: the authorization result always
// wins over the audit trail.
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct{}

// NewSlogLogger creates a new audit logger
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	// Ensure timestamp is set
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	attrs := []any{
		slog.String("audit_type", event.EventType),
		slog.String("user_type", string(event.UserType)),
		slog.Bool("success", event.Success),
		slog.Time("timestamp", event.Timestamp),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", event.Email))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.ErrorCode != "" {
		attrs = append(attrs, slog.String("error_code", event.ErrorCode))
	}

	// Flatten metadata
	if len(event.Metadata) > 0 {
		group := []any{}
		for k, v := range event.Metadata {
			// Redact secrets
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	// Log at INFO level with "audit" component
	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	lower := strings.ToLower(key)
	secrets := []string{"password", "secret", "token", "key", "hash", "credential", "authorization"}
	for _, s := range secrets {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Denial builds the audit event for an authorization denial.
func Denial(userType claims.UserType, userID, email, ip, userAgent, endpoint, errorCode string) Event {
	return Event{
		EventType: TypeFailedLogin,
		UserType:  userType,
		UserID:    userID,
		Email:     email,
		IPAddress: ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
		Success:   false,
		ErrorCode: errorCode,
		Metadata:  map[string]any{"endpoint": endpoint},
	}
}
