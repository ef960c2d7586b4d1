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

package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/motormarket/motormarket-auth/internal/audit"
	"github.com/motormarket/motormarket-auth/internal/claims"
	"github.com/motormarket/motormarket-auth/internal/observability/logger"
)

// AuditRepository persists audit events to Postgres. It implements
// audit.Logger: persistence failures are logged and swallowed so that a
// storage outage never changes an authorization outcome.
type AuditRepository struct {
	db *DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Log stores an audit event. Never returns an error to the caller.
func (r *AuditRepository) Log(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO auth_audit_events
			(id, event_type, user_type, user_id, email, ip_address, user_agent, success, error_code, metadata, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11)`,
		uuid.NewString(),
		event.EventType,
		string(event.UserType),
		event.UserID,
		event.Email,
		event.IPAddress,
		event.UserAgent,
		event.Success,
		event.ErrorCode,
		event.Metadata,
		event.Timestamp,
	)
	if err != nil {
		slog.WarnContext(ctx, "failed to persist audit event", logger.Error(err),
			logger.String("audit_type", event.EventType))
	}
}

// ListRecent returns the most recent audit events for a user, newest first.
func (r *AuditRepository) ListRecent(ctx context.Context, userID string, limit int) ([]audit.Event, error) {
	rows, err := r.db.pool.Query(ctx, `
		SELECT event_type, user_type, COALESCE(user_id, ''), COALESCE(email, ''),
		       COALESCE(ip_address, ''), COALESCE(user_agent, ''), success,
		       COALESCE(error_code, ''), created_at
		FROM auth_audit_events
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var ev audit.Event
		var userType string
		if err := rows.Scan(&ev.EventType, &userType, &ev.UserID, &ev.Email,
			&ev.IPAddress, &ev.UserAgent, &ev.Success, &ev.ErrorCode, &ev.Timestamp); err != nil {
			return nil, err
		}
		ev.UserType = claims.UserType(userType)
		events = append(events, ev)
	}
	return events, rows.Err()
}
