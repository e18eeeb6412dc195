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

// Package granthandlers provides an interface and implementations for handling OAuth 2.0 grant types.
package granthandlers

import (
	"context"
	"errors"

	authzstore "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
)

// ErrUnsupportedGrantType is returned when no handler serves the requested grant type.
var ErrUnsupportedGrantType = errors.New("unsupported grant type")

// GrantContext is the authenticated token request handed to a grant handler.
type GrantContext struct {
	Request *model.TokenRequest
	// Client is nil only for password grants of public clients that omitted client_id.
	Client *model.ClientDetails
}

// GrantOutcome is the result of a successful grant.
type GrantOutcome struct {
	Ticket *ticket.Ticket
	// IssueRefreshToken asks the token endpoint to attach a refresh token when a provider is configured.
	IssueRefreshToken bool
	// Commit finalizes single use state once the response is ready. It must not run if the request was
	// cancelled before then.
	Commit func(ctx context.Context) model.Result[struct{}]
}

// GrantHandlerInterface defines the interface for handling OAuth 2.0 grants.
type GrantHandlerInterface interface {
	// ValidateGrant checks the grant specific request parameters.
	ValidateGrant(tokenRequest *model.TokenRequest) *model.ErrorResponse
	// HandleGrant runs the grant against the application hooks and returns the ticket to issue tokens for.
	HandleGrant(ctx context.Context, grantCtx *GrantContext) model.Result[*GrantOutcome]
}

// GrantHandlerProviderInterface resolves the handler for a grant type.
type GrantHandlerProviderInterface interface {
	GetGrantHandler(grantType string) (GrantHandlerInterface, error)
}

// Dependencies are the collaborators shared by the grant handlers.
type Dependencies struct {
	Provider  provider.ServerProviderInterface
	CodeStore authzstore.AuthorizationCodeStoreInterface
	// RefreshTokens is nil when refresh tokens are disabled.
	RefreshTokens            tokenservice.RefreshTokenProviderInterface
	RenewRefreshTokenOnGrant bool
	Clock                    clock.ClockInterface
}

// GrantHandlerProvider creates grant handlers over shared dependencies.
type GrantHandlerProvider struct {
	handlers map[string]GrantHandlerInterface
	custom   GrantHandlerInterface
}

// NewGrantHandlerProvider creates a new grant handler provider.
func NewGrantHandlerProvider(deps Dependencies) GrantHandlerProviderInterface {
	if deps.Provider == nil {
		deps.Provider = provider.DefaultProvider{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.NewSystemClock()
	}

	handlers := map[string]GrantHandlerInterface{
		constants.GrantTypeAuthorizationCode: newAuthorizationCodeGrantHandler(deps),
		constants.GrantTypeClientCredentials: newClientCredentialsGrantHandler(deps),
		constants.GrantTypePassword:          newPasswordGrantHandler(deps),
	}
	if deps.RefreshTokens != nil {
		handlers[constants.GrantTypeRefreshToken] = newRefreshTokenGrantHandler(deps)
	}

	return &GrantHandlerProvider{
		handlers: handlers,
		custom:   newCustomExtensionGrantHandler(deps),
	}
}

// GetGrantHandler returns the handler for the grant type. Grant types the server does not know are
// handed to the custom extension hook.
func (p *GrantHandlerProvider) GetGrantHandler(grantType string) (GrantHandlerInterface, error) {
	if handler, ok := p.handlers[grantType]; ok {
		return handler, nil
	}
	switch grantType {
	case "", constants.GrantTypeRefreshToken, constants.GrantTypeImplicit:
		return nil, ErrUnsupportedGrantType
	}
	return p.custom, nil
}

// grantFromHook converts a hook result into a grant outcome.
func grantFromHook(result model.Result[*ticket.Ticket], issueRefresh bool,
	defaultCode string) model.Result[*GrantOutcome] {
	if !result.IsAccepted() {
		return model.FailedWith[*GrantOutcome](result.ErrorResponse(defaultCode))
	}
	if result.Payload() == nil || result.Payload().Principal == nil {
		return model.Failed[*GrantOutcome](defaultCode, "", "")
	}
	return model.Accepted(&GrantOutcome{
		Ticket:            result.Payload(),
		IssueRefreshToken: issueRefresh,
	})
}
