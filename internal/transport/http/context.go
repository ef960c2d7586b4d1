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

	"github.com/motormarket/motormarket-auth/internal/claims"
)

type contextKey string

const principalKey contextKey = "principal"

// withPrincipal stores the verified principal for downstream handlers.
func withPrincipal(ctx context.Context, p claims.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal retrieves the verified principal from context.
// The zero Principal (Type == UserTypeUnknown) means the request never passed
// the authorization middleware.
func GetPrincipal(ctx context.Context) claims.Principal {
	if p, ok := ctx.Value(principalKey).(claims.Principal); ok {
		return p
	}
	return claims.Principal{}
}
