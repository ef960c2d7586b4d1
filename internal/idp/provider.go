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

// Package idp defines the contract with the upstream identity provider that
// owns credentials, user pools and token issuance. This service never stores
// or verifies passwords itself; it adapts provider responses into the claims
// model and provider failures into the error taxonomy.
package idp

import (
	"context"
	"fmt"
)

// ProviderError carries the upstream exception name for the error factory.
type ProviderError struct {
	Name    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("identity provider error %s: %s", e.Name, e.Message)
}

// Attribute is a user attribute name/value pair as returned by the provider.
type Attribute struct {
	Name  string
	Value string
}

// Group is a pool group membership. Precedence orders role selection: the
// LOWEST precedence number wins.
type Group struct {
	Name       string
	Precedence int
}

// User is the provider's view of an account.
type User struct {
	Username   string
	Attributes []Attribute
	Enabled    bool
	Status     string
}

// AuthResult holds the token set from a successful authentication.
type AuthResult struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	ExpiresIn    int
}

// SignUpInput holds registration parameters.
type SignUpInput struct {
	Email      string
	Password   string
	Attributes []Attribute
}

// Client is the identity provider API surface this service consumes.
// Implementations translate provider SDK failures into *ProviderError.
type Client interface {
	SignUp(ctx context.Context, pool string, in SignUpInput) (*User, error)
	InitiateAuth(ctx context.Context, pool, email, password string) (*AuthResult, error)
	RefreshAuth(ctx context.Context, pool, refreshToken string) (*AuthResult, error)
	ForgotPassword(ctx context.Context, pool, email string) error
	ConfirmForgotPassword(ctx context.Context, pool, email, code, newPassword string) error
	GlobalSignOut(ctx context.Context, pool, accessToken string) error
	AdminListGroupsForUser(ctx context.Context, pool, username string) ([]Group, error)
	GetUser(ctx context.Context, pool, accessToken string) (*User, error)
}
