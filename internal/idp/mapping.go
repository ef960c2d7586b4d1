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
	"errors"

	"github.com/motormarket/motormarket-auth/internal/permissions"
)

var ErrNoGroups = errors.New("user belongs to no groups")

// AttributeMap flattens provider attribute pairs into a lookup map.
// Later duplicates win, matching provider list ordering.
func AttributeMap(attrs []Attribute) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Name] = a.Value
	}
	return m
}

// RoleFromGroups selects the effective staff role from group memberships.
// The group with the lowest precedence number wins; groups that do not name
// a known role are ignored.
func RoleFromGroups(groups []Group) (permissions.StaffRole, error) {
	var (
		best     permissions.StaffRole
		bestPrec int
		found    bool
	)
	for _, g := range groups {
		role := permissions.StaffRole(g.Name)
		if permissions.RoleRank(role) == 0 {
			continue
		}
		if !found || g.Precedence < bestPrec {
			best, bestPrec, found = role, g.Precedence, true
		}
	}
	if !found {
		return "", ErrNoGroups
	}
	return best, nil
}
