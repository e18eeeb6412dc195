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

// Package providermock provides a configurable server provider for testing.
package providermock

import (
	"context"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
)

// GrantFunc is the signature shared by the grant hooks.
type GrantFunc func(ctx context.Context, req *provider.TokenRequestContext) model.Result[*ticket.Ticket]

// MockServerProvider falls back to provider.DefaultProvider for every hook left unset.
type MockServerProvider struct {
	provider.DefaultProvider

	MockValidateAuthorizeRequest func(ctx context.Context,
		req *provider.AuthorizeRequestContext) model.Result[struct{}]
	MockValidateTokenRequest          func(ctx context.Context, req *provider.TokenRequestContext) model.Result[struct{}]
	MockGrantAuthorizationCode        GrantFunc
	MockGrantRefreshToken             GrantFunc
	MockGrantClientCredentials        GrantFunc
	MockGrantResourceOwnerCredentials GrantFunc
	MockGrantCustomExtension          GrantFunc
	MockTokenEndpoint                 func(ctx context.Context,
		req *provider.TokenEndpointContext) map[string]interface{}

	// Calls records the name of every hook invoked.
	Calls []string
}

// ValidateAuthorizeRequest mocks the ValidateAuthorizeRequest hook.
func (m *MockServerProvider) ValidateAuthorizeRequest(ctx context.Context,
	req *provider.AuthorizeRequestContext) model.Result[struct{}] {
	m.Calls = append(m.Calls, "ValidateAuthorizeRequest")
	if m.MockValidateAuthorizeRequest != nil {
		return m.MockValidateAuthorizeRequest(ctx, req)
	}
	return m.DefaultProvider.ValidateAuthorizeRequest(ctx, req)
}

// ValidateTokenRequest mocks the ValidateTokenRequest hook.
func (m *MockServerProvider) ValidateTokenRequest(ctx context.Context,
	req *provider.TokenRequestContext) model.Result[struct{}] {
	m.Calls = append(m.Calls, "ValidateTokenRequest")
	if m.MockValidateTokenRequest != nil {
		return m.MockValidateTokenRequest(ctx, req)
	}
	return m.DefaultProvider.ValidateTokenRequest(ctx, req)
}

// GrantAuthorizationCode mocks the GrantAuthorizationCode hook.
func (m *MockServerProvider) GrantAuthorizationCode(ctx context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	m.Calls = append(m.Calls, "GrantAuthorizationCode")
	if m.MockGrantAuthorizationCode != nil {
		return m.MockGrantAuthorizationCode(ctx, req)
	}
	return m.DefaultProvider.GrantAuthorizationCode(ctx, req)
}

// GrantRefreshToken mocks the GrantRefreshToken hook.
func (m *MockServerProvider) GrantRefreshToken(ctx context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	m.Calls = append(m.Calls, "GrantRefreshToken")
	if m.MockGrantRefreshToken != nil {
		return m.MockGrantRefreshToken(ctx, req)
	}
	return m.DefaultProvider.GrantRefreshToken(ctx, req)
}

// GrantClientCredentials mocks the GrantClientCredentials hook.
func (m *MockServerProvider) GrantClientCredentials(ctx context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	m.Calls = append(m.Calls, "GrantClientCredentials")
	if m.MockGrantClientCredentials != nil {
		return m.MockGrantClientCredentials(ctx, req)
	}
	return m.DefaultProvider.GrantClientCredentials(ctx, req)
}

// GrantResourceOwnerCredentials mocks the GrantResourceOwnerCredentials hook.
func (m *MockServerProvider) GrantResourceOwnerCredentials(ctx context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	m.Calls = append(m.Calls, "GrantResourceOwnerCredentials")
	if m.MockGrantResourceOwnerCredentials != nil {
		return m.MockGrantResourceOwnerCredentials(ctx, req)
	}
	return m.DefaultProvider.GrantResourceOwnerCredentials(ctx, req)
}

// GrantCustomExtension mocks the GrantCustomExtension hook.
func (m *MockServerProvider) GrantCustomExtension(ctx context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	m.Calls = append(m.Calls, "GrantCustomExtension")
	if m.MockGrantCustomExtension != nil {
		return m.MockGrantCustomExtension(ctx, req)
	}
	return m.DefaultProvider.GrantCustomExtension(ctx, req)
}

// TokenEndpoint mocks the TokenEndpoint hook.
func (m *MockServerProvider) TokenEndpoint(ctx context.Context,
	req *provider.TokenEndpointContext) map[string]interface{} {
	m.Calls = append(m.Calls, "TokenEndpoint")
	if m.MockTokenEndpoint != nil {
		return m.MockTokenEndpoint(ctx, req)
	}
	return m.DefaultProvider.TokenEndpoint(ctx, req)
}

// PrincipalTicket returns a grant hook that issues a ticket with the given subject.
func PrincipalTicket(subject string) GrantFunc {
	return func(context.Context, *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
		principal := ticket.NewPrincipal("Bearer",
			ticket.NewClaim(ticket.ClaimTypeSubject, subject),
			ticket.NewClaim(ticket.ClaimTypeName, subject))
		return model.Accepted(ticket.NewTicket(principal, nil))
	}
}
