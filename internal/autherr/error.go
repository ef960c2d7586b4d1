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
)

// RecoveryOption tells the user what they can do about a failure.
type RecoveryOption struct {
	Action      string `json:"action"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// AuthError is an immutable structured authentication/authorization failure.
// Message is the internal technical message; UserMessage is what the client
// renders and the two are always distinct surfaces.
type AuthError struct {
	Code            Code
	Message         string
	UserMessage     string
	UserType        claims.UserType
	Severity        Severity
	Category        Category
	Retryable       bool
	Context         map[string]any
	RecoveryOptions []RecoveryOption
	Timestamp       time.Time
	RequestID       string
}

// Error implements the error interface with the technical message.
func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithContext returns a copy of the error with an extra context entry.
// The receiver is not mutated.
func (e *AuthError) WithContext(key string, value any) *AuthError {
	clone := *e
	clone.Context = make(map[string]any, len(e.Context)+1)
	for k, v := range e.Context {
		clone.Context[k] = v
	}
	clone.Context[key] = value
	return &clone
}
