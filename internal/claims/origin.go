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

package claims

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// ClassifyTokenOrigin inspects an UNVERIFIED token payload to decide which
// identity pool issued it. It is a routing heuristic only, never a trust
// boundary: authorization always happens after full verification.
//
// Any decoding failure (wrong segment count, bad base64, bad JSON) returns
// UserTypeUnknown. The function has no side effects and never panics.
func ClassifyTokenOrigin(raw string) UserType {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return UserTypeUnknown
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		// Tolerate padded payloads from non-conforming encoders.
		payload, err = base64.URLEncoding.DecodeString(parts[1])
		if err != nil {
			return UserTypeUnknown
		}
	}

	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return UserTypeUnknown
	}

	if _, ok := body[ClaimCustomerType]; ok {
		return UserTypeCustomer
	}
	if _, ok := body[ClaimPermissions]; ok {
		return UserTypeStaff
	}
	return UserTypeUnknown
}
