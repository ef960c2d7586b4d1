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
	"encoding/json"
	"net/http"

	"github.com/motormarket/motormarket-auth/internal/claims"
)

// Response is the serialized HTTP form of an AuthError.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       ResponseBody
}

// ResponseBody is the JSON envelope sent to clients. Only the user-facing
// surface is exposed; technical messages and context stay server-side.
type ResponseBody struct {
	Error ResponseError `json:"error"`
}

type ResponseError struct {
	Code            Code             `json:"code"`
	UserType        claims.UserType  `json:"userType"`
	Message         string           `json:"message"`
	RecoveryOptions []RecoveryOption `json:"recoveryOptions"`
	RequestID       string           `json:"requestId,omitempty"`
}

// NewResponse serializes an AuthError. Authorization denials default to 403;
// callers pass 401 for pure authentication failures.
func NewResponse(e *AuthError, statusCode int) Response {
	if statusCode == 0 {
		statusCode = http.StatusForbidden
	}
	return Response{
		StatusCode: statusCode,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Error-Code": string(e.Code),
			"X-User-Type":  string(e.UserType),
		},
		Body: ResponseBody{
			Error: ResponseError{
				Code:            e.Code,
				UserType:        e.UserType,
				Message:         e.UserMessage,
				RecoveryOptions: e.RecoveryOptions,
				RequestID:       e.RequestID,
			},
		},
	}
}

// WriteResponse writes the serialized error to an http.ResponseWriter.
func WriteResponse(w http.ResponseWriter, e *AuthError, statusCode int) {
	resp := NewResponse(e, statusCode)
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(resp.StatusCode)
	_ = json.NewEncoder(w).Encode(resp.Body)
}
