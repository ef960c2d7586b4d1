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

package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPClient talks to the identity provider's JSON API. Provider failures
// arrive as a non-2xx status with an exception envelope; the envelope's type
// name is preserved in ProviderError for the error factory.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a provider client against a base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type providerEnvelope struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// call performs one provider action and decodes the response into out.
func (c *HTTPClient) call(ctx context.Context, action string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", action, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+action, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("provider call %s failed: %w", action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env providerEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Type == "" {
			return &ProviderError{Name: "UnknownException", Message: fmt.Sprintf("status %d", resp.StatusCode)}
		}
		// Exception type may arrive namespaced ("service#NotAuthorizedException").
		name := env.Type
		if i := strings.LastIndex(name, "#"); i >= 0 {
			name = name[i+1:]
		}
		return &ProviderError{Name: name, Message: env.Message}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", action, err)
		}
	}
	return nil
}

func (c *HTTPClient) SignUp(ctx context.Context, pool string, in SignUpInput) (*User, error) {
	var out User
	err := c.call(ctx, "signup", map[string]any{
		"pool":       pool,
		"email":      in.Email,
		"password":   in.Password,
		"attributes": in.Attributes,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) InitiateAuth(ctx context.Context, pool, email, password string) (*AuthResult, error) {
	var out AuthResult
	err := c.call(ctx, "initiate-auth", map[string]string{
		"pool": pool, "email": email, "password": password,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) RefreshAuth(ctx context.Context, pool, refreshToken string) (*AuthResult, error) {
	var out AuthResult
	err := c.call(ctx, "refresh-auth", map[string]string{
		"pool": pool, "refreshToken": refreshToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) ForgotPassword(ctx context.Context, pool, email string) error {
	return c.call(ctx, "forgot-password", map[string]string{
		"pool": pool, "email": email,
	}, nil)
}

func (c *HTTPClient) ConfirmForgotPassword(ctx context.Context, pool, email, code, newPassword string) error {
	return c.call(ctx, "confirm-forgot-password", map[string]string{
		"pool": pool, "email": email, "code": code, "newPassword": newPassword,
	}, nil)
}

func (c *HTTPClient) GlobalSignOut(ctx context.Context, pool, accessToken string) error {
	return c.call(ctx, "global-sign-out", map[string]string{
		"pool": pool, "accessToken": accessToken,
	}, nil)
}

func (c *HTTPClient) AdminListGroupsForUser(ctx context.Context, pool, username string) ([]Group, error) {
	var out struct {
		Groups []Group `json:"groups"`
	}
	err := c.call(ctx, "admin-list-groups", map[string]string{
		"pool": pool, "username": username,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Groups, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, pool, accessToken string) (*User, error) {
	var out User
	err := c.call(ctx, "get-user", map[string]string{
		"pool": pool, "accessToken": accessToken,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

var _ Client = (*HTTPClient)(nil)
