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

// Package model defines the data structures used in the OAuth2 module.
package model

import (
	"net/url"
	"strings"
)

// ErrorResponse is the OAuth2 error triple written on the wire.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorURI         string `json:"error_uri,omitempty"`
}

// ClientDetails is a registered client. A nil secret marks a public client.
type ClientDetails struct {
	ClientID          string
	ClientSecret      *string
	RedirectURI       *string
	SecretHashed      bool
	AllowedGrantTypes []string
}

// IsPublic reports whether the client has no registered secret.
func (c *ClientDetails) IsPublic() bool {
	return c.ClientSecret == nil
}

// IsAllowedGrantType reports whether the client may use the grant type. An empty list allows all.
func (c *ClientDetails) IsAllowedGrantType(grantType string) bool {
	if len(c.AllowedGrantTypes) == 0 {
		return true
	}
	for _, allowed := range c.AllowedGrantTypes {
		if allowed == grantType {
			return true
		}
	}
	return false
}

// ClientCredentials are the client credentials presented on a request.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	// HasSecret distinguishes an empty secret from an absent one.
	HasSecret bool
	// FromBasicAuth reports whether the credentials came from the Authorization header.
	FromBasicAuth bool
}

// TokenRequest is the tagged grant request received at the token endpoint.
type TokenRequest struct {
	GrantType    string     `json:"grant_type"`
	ClientID     string     `json:"client_id"`
	ClientSecret string     `json:"-"`
	Scope        string     `json:"scope,omitempty"`
	Username     string     `json:"username,omitempty"`
	Password     string     `json:"-"`
	RefreshToken string     `json:"-"`
	Code         string     `json:"-"`
	RedirectURI  string     `json:"redirect_uri,omitempty"`
	Parameters   url.Values `json:"-"`
}

// Scopes returns the requested scopes.
func (r *TokenRequest) Scopes() []string {
	return strings.Fields(r.Scope)
}

// AuthorizeRequest is the request received at the authorization endpoint.
type AuthorizeRequest struct {
	ClientID     string
	RedirectURI  string
	ResponseType string
	Scope        string
	State        string
	Parameters   url.Values
}

// IsImplicit reports whether the request asks for the implicit grant.
func (r *AuthorizeRequest) IsImplicit() bool {
	return r.ResponseType == "token"
}

// TokenResponse is the successful token endpoint response.
type TokenResponse struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int64
	RefreshToken string
	Scope        string
	Additional   map[string]interface{}
}

// ToMap flattens the response to its JSON object form.
func (r *TokenResponse) ToMap() map[string]interface{} {
	body := make(map[string]interface{}, len(r.Additional)+5)
	for k, v := range r.Additional {
		body[k] = v
	}
	body["access_token"] = r.AccessToken
	body["token_type"] = r.TokenType
	body["expires_in"] = r.ExpiresIn
	if r.RefreshToken != "" {
		body["refresh_token"] = r.RefreshToken
	}
	if r.Scope != "" {
		body["scope"] = r.Scope
	}
	return body
}
