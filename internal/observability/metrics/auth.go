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

package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AuthMetrics records authorization decision outcomes.
type AuthMetrics struct {
	decisions         metric.Int64Counter
	crossPoolAttempts metric.Int64Counter
}

// NewAuthMetrics creates the authorization counters on a meter.
func NewAuthMetrics(m *Meter) (*AuthMetrics, error) {
	decisions, err := m.CreateCounter("authz_decisions_total", "Authorization decisions by outcome")
	if err != nil {
		return nil, err
	}
	crossPool, err := m.CreateCounter("authz_cross_pool_attempts_total", "Cross-pool access attempts")
	if err != nil {
		return nil, err
	}
	return &AuthMetrics{decisions: decisions, crossPoolAttempts: crossPool}, nil
}

// RecordDecision counts one authorization decision.
func (a *AuthMetrics) RecordDecision(ctx context.Context, userType string, authorized bool, errorCode string) {
	if a == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("user_type", userType),
		attribute.Bool("authorized", authorized),
	}
	if errorCode != "" {
		attrs = append(attrs, attribute.String("error_code", errorCode))
	}
	a.decisions.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCrossPoolAttempt counts one cross-pool access attempt.
func (a *AuthMetrics) RecordCrossPoolAttempt(ctx context.Context, actualPool string) {
	if a == nil {
		return
	}
	a.crossPoolAttempts.Add(ctx, 1, metric.WithAttributes(attribute.String("actual_pool", actualPool)))
}
