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

// Package provider defines the application hooks the authorization server calls at each step of a grant.
package provider

import (
	"context"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
)

// AuthorizeRequestContext is passed to ValidateAuthorizeRequest once the client and redirect are trusted.
type AuthorizeRequestContext struct {
	Request     *model.AuthorizeRequest
	Client      *model.ClientDetails
	RedirectURI string
}

// TokenRequestContext is passed to the token endpoint hooks after client authentication.
type TokenRequestContext struct {
	Request *model.TokenRequest
	// Client is nil when a public client omitted client_id and the policy allowed it.
	Client *model.ClientDetails
	// Ticket is the ticket recovered from the authorization code or refresh token, if any.
	Ticket *ticket.Ticket
}

// ClientID returns the authenticated client identifier, or empty when there is none.
func (c *TokenRequestContext) ClientID() string {
	if c == nil || c.Client == nil {
		return ""
	}
	return c.Client.ClientID
}

// TokenEndpointContext is passed to TokenEndpoint before the response is written.
type TokenEndpointContext struct {
	Request *model.TokenRequest
	Client  *model.ClientDetails
	Ticket  *ticket.Ticket
}

// ServerProviderInterface holds one hook per grant step. Embed DefaultProvider and override what the
// application needs.
type ServerProviderInterface interface {
	// ValidateAuthorizeRequest may reject an authorize request after the client and redirect are validated.
	ValidateAuthorizeRequest(ctx context.Context, req *AuthorizeRequestContext) model.Result[struct{}]
	// ValidateTokenRequest may reject a token request after client authentication.
	ValidateTokenRequest(ctx context.Context, req *TokenRequestContext) model.Result[struct{}]
	GrantAuthorizationCode(ctx context.Context, req *TokenRequestContext) model.Result[*ticket.Ticket]
	GrantRefreshToken(ctx context.Context, req *TokenRequestContext) model.Result[*ticket.Ticket]
	GrantClientCredentials(ctx context.Context, req *TokenRequestContext) model.Result[*ticket.Ticket]
	GrantResourceOwnerCredentials(ctx context.Context, req *TokenRequestContext) model.Result[*ticket.Ticket]
	GrantCustomExtension(ctx context.Context, req *TokenRequestContext) model.Result[*ticket.Ticket]
	// TokenEndpoint returns extra parameters added to a successful token response.
	TokenEndpoint(ctx context.Context, req *TokenEndpointContext) map[string]interface{}
}

// DefaultProvider passes validated tickets through and rejects grants it cannot decide on.
type DefaultProvider struct{}

var _ ServerProviderInterface = DefaultProvider{}

// ValidateAuthorizeRequest accepts the request.
func (DefaultProvider) ValidateAuthorizeRequest(context.Context, *AuthorizeRequestContext) model.Result[struct{}] {
	return model.Accepted(struct{}{})
}

// ValidateTokenRequest accepts the request.
func (DefaultProvider) ValidateTokenRequest(context.Context, *TokenRequestContext) model.Result[struct{}] {
	return model.Accepted(struct{}{})
}

// GrantAuthorizationCode issues tokens for the ticket the code was created for.
func (DefaultProvider) GrantAuthorizationCode(_ context.Context,
	req *TokenRequestContext) model.Result[*ticket.Ticket] {
	return passThrough(req)
}

// GrantRefreshToken issues tokens for the ticket carried by the refresh token.
func (DefaultProvider) GrantRefreshToken(_ context.Context, req *TokenRequestContext) model.Result[*ticket.Ticket] {
	return passThrough(req)
}

// GrantClientCredentials rejects the grant. Applications decide which clients may act on their own behalf.
func (DefaultProvider) GrantClientCredentials(context.Context, *TokenRequestContext) model.Result[*ticket.Ticket] {
	return model.Failed[*ticket.Ticket](constants.ErrorUnauthorizedClient, "", "")
}

// GrantResourceOwnerCredentials rejects the grant. Applications validate user credentials.
func (DefaultProvider) GrantResourceOwnerCredentials(context.Context,
	*TokenRequestContext) model.Result[*ticket.Ticket] {
	return model.Failed[*ticket.Ticket](constants.ErrorInvalidGrant, "", "")
}

// GrantCustomExtension rejects unknown grant types.
func (DefaultProvider) GrantCustomExtension(context.Context, *TokenRequestContext) model.Result[*ticket.Ticket] {
	return model.Failed[*ticket.Ticket](constants.ErrorUnsupportedGrantType, "", "")
}

// TokenEndpoint adds nothing.
func (DefaultProvider) TokenEndpoint(context.Context, *TokenEndpointContext) map[string]interface{} {
	return nil
}

func passThrough(req *TokenRequestContext) model.Result[*ticket.Ticket] {
	if req == nil || req.Ticket == nil {
		return model.Failed[*ticket.Ticket](constants.ErrorInvalidGrant, "", "")
	}
	return model.Accepted(req.Ticket)
}
