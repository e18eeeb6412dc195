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

// Package constants defines constants used across the OAuth2 module.
package constants

// OAuth2 request parameters.
const (
	GrantType        = "grant_type"
	ClientID         = "client_id"
	ClientSecret     = "client_secret"
	RedirectURI      = "redirect_uri"
	Username         = "username"
	Password         = "password"
	Scope            = "scope"
	Code             = "code"
	RefreshToken     = "refresh_token"
	ResponseType     = "response_type"
	State            = "state"
	Error            = "error"
	ErrorDescription = "error_description"
	ErrorURI         = "error_uri"
	AccessToken      = "access_token"
	TokenType        = "token_type"
	ExpiresIn        = "expires_in"
	Token            = "token"
	TokenTypeHint    = "token_type_hint"
)

// OAuth2 endpoints.
const (
	OAuth2TokenEndpoint         = "/oauth2/token" // #nosec G101
	OAuth2AuthorizationEndpoint = "/oauth2/authorize"
	OAuth2IntrospectionEndpoint = "/oauth2/introspect"
)

// OAuth2 grant types.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypePassword          = "password"
	GrantTypeImplicit          = "implicit"
	GrantTypeRefreshToken      = "refresh_token"
)

// OAuth2 response types.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// OAuth2 token types.
const (
	TokenTypeBearer = "bearer"
)

// OAuth2 error codes.
const (
	ErrorInvalidRequest          = "invalid_request"
	ErrorInvalidClient           = "invalid_client"
	ErrorInvalidGrant            = "invalid_grant"
	ErrorUnauthorizedClient      = "unauthorized_client"
	ErrorUnsupportedGrantType    = "unsupported_grant_type"
	ErrorInvalidScope            = "invalid_scope"
	ErrorServerError             = "server_error"
	ErrorUnsupportedResponseType = "unsupported_response_type"
	ErrorAccessDenied            = "access_denied"
)

// GrantState is a step of the grant state machine, recorded in the endpoint logs.
type GrantState string

// Grant state machine steps.
const (
	StateReceivedRequest GrantState = "RECEIVED_REQUEST"
	StateClientValidated GrantState = "CLIENT_VALIDATED"
	StateAuthorizeFlow   GrantState = "AUTHORIZE_FLOW"
	StateTokenFlow       GrantState = "TOKEN_FLOW"
	StateGrantValidated  GrantState = "GRANT_VALIDATED"
	StateTokenIssued     GrantState = "TOKEN_ISSUED"
	StateRejected        GrantState = "REJECTED"
)

// Metric endpoint labels.
const (
	EndpointAuthorize  = "authorize"
	EndpointToken      = "token"
	EndpointIntrospect = "introspect"
)
