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

package token

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/motormarket/motormarket-auth/internal/claims"
)

// Domain errors
var (
	ErrUnknownPool      = errors.New("no verifier configured for pool")
	ErrTokenInvalid     = errors.New("token failed verification")
	ErrAudienceMismatch = errors.New("token audience does not match client")
)

// PoolConfig describes one identity pool's verification parameters.
type PoolConfig struct {
	Issuer   string
	ClientID string
	JWKSURL  string
}

// Verifier validates bearer tokens against the issuing pool's JWKS.
// It owns signature, expiry, issuer and audience checks; claim CONTENT
// (tier validity, staff freshness) is validated by the claims package.
type Verifier struct {
	pools map[claims.UserType]*poolVerifier
}

type poolVerifier struct {
	cfg  PoolConfig
	keys *JWKSCache
}

// NewVerifier creates a verifier for the customer and staff pools.
func NewVerifier(customer, staff PoolConfig) *Verifier {
	return &Verifier{
		pools: map[claims.UserType]*poolVerifier{
			claims.UserTypeCustomer: {cfg: customer, keys: NewJWKSCache(customer.JWKSURL)},
			claims.UserTypeStaff:    {cfg: staff, keys: NewJWKSCache(staff.JWKSURL)},
		},
	}
}

// Verify checks a raw token against the named pool and returns its payload.
// The returned claims are trusted for authenticity by everything downstream.
func (v *Verifier) Verify(ctx context.Context, raw string, pool claims.UserType) (jwt.MapClaims, error) {
	pv, ok := v.pools[pool]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, pool)
	}

	mc := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, mc, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return pv.keys.Key(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(pv.cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if err := checkAudience(mc, pv.cfg.ClientID); err != nil {
		return nil, err
	}
	return mc, nil
}

// checkAudience accepts either the aud claim (id tokens) or the client_id
// claim (access tokens) matching the pool's app client.
func checkAudience(mc jwt.MapClaims, clientID string) error {
	if clientID == "" {
		return nil
	}
	if cid, _ := mc["client_id"].(string); cid == clientID {
		return nil
	}
	aud, err := mc.GetAudience()
	if err == nil {
		for _, a := range aud {
			if a == clientID {
				return nil
			}
		}
	}
	return ErrAudienceMismatch
}
