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

package idp_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motormarket/motormarket-auth/internal/idp"
)

// TestPurpose: Verifies provider exception envelopes are decoded into ProviderError with the namespace stripped.
// Scope: Unit Test
// Security: Error Translation Boundary
// Expected: "service#NotAuthorizedException" surfaces as ProviderError{Name: "NotAuthorizedException"}.
func TestIDP_HTTPClient_ExceptionEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"__type":"AuthService#NotAuthorizedException","message":"Incorrect username or password."}`))
	}))
	defer srv.Close()

	client := idp.NewHTTPClient(srv.URL)
	_, err := client.InitiateAuth(context.Background(), "pool-1", "a@example.com", "wrong")
	require.Error(t, err)

	var pe *idp.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "NotAuthorizedException", pe.Name)
	assert.Equal(t, "Incorrect username or password.", pe.Message)
}

// TestPurpose: Verifies a non-2xx response without a decodable envelope still yields a typed ProviderError.
// Scope: Unit Test
// Security: Fail-safe Degradation
// Expected: ProviderError{Name: "UnknownException"} carrying the status code.
func TestIDP_HTTPClient_UndecodableFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	client := idp.NewHTTPClient(srv.URL)
	err := client.ForgotPassword(context.Background(), "pool-1", "a@example.com")
	require.Error(t, err)

	var pe *idp.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "UnknownException", pe.Name)
	assert.Contains(t, pe.Message, "502")
}

func TestIDP_HTTPClient_SuccessfulAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/initiate-auth", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"AccessToken":"at","IDToken":"it","RefreshToken":"rt","ExpiresIn":3600}`))
	}))
	defer srv.Close()

	client := idp.NewHTTPClient(srv.URL)
	res, err := client.InitiateAuth(context.Background(), "pool-1", "a@example.com", "pw")
	require.NoError(t, err)

	assert.Equal(t, "at", res.AccessToken)
	assert.Equal(t, "rt", res.RefreshToken)
	assert.Equal(t, 3600, res.ExpiresIn)
}
