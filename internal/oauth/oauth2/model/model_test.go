/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResultVariants(t *testing.T) {
	accepted := Accepted("https://gamma.com/return")
	assert.True(t, accepted.IsAccepted())
	assert.False(t, accepted.HasError())
	assert.Equal(t, "https://gamma.com/return", accepted.Payload())
	assert.Nil(t, accepted.ErrorResponse("invalid_request"))

	rejected := Rejected[string]()
	assert.True(t, rejected.IsRejected())
	assert.False(t, rejected.IsAccepted())
	assert.Empty(t, rejected.Payload())
	assert.Equal(t, &ErrorResponse{Error: "invalid_client"}, rejected.ErrorResponse("invalid_client"))

	failed := Failed[int]("invalid_grant", "Expired authorization code", "https://docs")
	assert.True(t, failed.HasError())
	assert.False(t, failed.IsRejected())
	assert.Equal(t, &ErrorResponse{
		Error:            "invalid_grant",
		ErrorDescription: "Expired authorization code",
		ErrorURI:         "https://docs",
	}, failed.ErrorResponse("invalid_request"))

	var unset Result[string]
	assert.False(t, unset.IsAccepted())
	assert.False(t, unset.IsRejected())
	assert.False(t, unset.HasError())

	assert.True(t, FailedWith[string](nil).IsRejected())
	assert.Equal(t, "server_error",
		FailedWith[string](&ErrorResponse{Error: "server_error"}).ErrorResponse("x").Error)
}

func TestClientDetails(t *testing.T) {
	secret := "beta"
	confidential := &ClientDetails{ClientID: "alpha", ClientSecret: &secret,
		AllowedGrantTypes: []string{"authorization_code"}}
	public := &ClientDetails{ClientID: "public"}

	assert.False(t, confidential.IsPublic())
	assert.True(t, public.IsPublic())
	assert.True(t, confidential.IsAllowedGrantType("authorization_code"))
	assert.False(t, confidential.IsAllowedGrantType("password"))
	assert.True(t, public.IsAllowedGrantType("anything"))
}

func TestTokenResponseToMap(t *testing.T) {
	resp := &TokenResponse{
		AccessToken: "at",
		TokenType:   "bearer",
		ExpiresIn:   655321,
		Additional:  map[string]interface{}{"custom": "value", "access_token": "spoofed"},
	}

	body := resp.ToMap()

	assert.Equal(t, "at", body["access_token"])
	assert.Equal(t, int64(655321), body["expires_in"])
	assert.Equal(t, "value", body["custom"])
	assert.NotContains(t, body, "refresh_token")
	assert.NotContains(t, body, "scope")
}

func TestRequestHelpers(t *testing.T) {
	assert.Equal(t, []string{"read", "write"}, (&TokenRequest{Scope: " read  write "}).Scopes())
	assert.True(t, (&AuthorizeRequest{ResponseType: "token"}).IsImplicit())
	assert.False(t, (&AuthorizeRequest{ResponseType: "code"}).IsImplicit())
}
