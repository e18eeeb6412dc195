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

package granthandlers

import (
	"context"
	"errors"

	authzconstants "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	authzmodel "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

// authorizationCodeGrantHandler handles the authorization code grant type.
type authorizationCodeGrantHandler struct {
	provider   provider.ServerProviderInterface
	authZStore store.AuthorizationCodeStoreInterface
	clock      clock.ClockInterface
}

// newAuthorizationCodeGrantHandler creates a new instance of authorizationCodeGrantHandler.
func newAuthorizationCodeGrantHandler(deps Dependencies) GrantHandlerInterface {
	return &authorizationCodeGrantHandler{
		provider:   deps.Provider,
		authZStore: deps.CodeStore,
		clock:      deps.Clock,
	}
}

// ValidateGrant validates the authorization code grant request.
func (h *authorizationCodeGrantHandler) ValidateGrant(tokenRequest *model.TokenRequest) *model.ErrorResponse {
	if tokenRequest.Code == "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Missing code parameter",
		}
	}
	return nil
}

// HandleGrant redeems the authorization code. The code is consumed by the outcome's Commit.
func (h *authorizationCodeGrantHandler) HandleGrant(ctx context.Context,
	grantCtx *GrantContext) model.Result[*GrantOutcome] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthorizationCodeGrantHandler"))

	if h.authZStore == nil {
		return model.Failed[*GrantOutcome](constants.ErrorUnsupportedGrantType, "", "")
	}

	tokenRequest := grantCtx.Request
	authCode, err := h.authZStore.GetAuthorizationCode(ctx, tokenRequest.Code)
	if err != nil {
		if errors.Is(err, authzconstants.ErrAuthorizationCodeNotFound) {
			return model.Failed[*GrantOutcome](constants.ErrorInvalidGrant, "Invalid authorization code", "")
		}
		logger.Error("Failed to retrieve authorization code", log.Error(err))
		return model.Failed[*GrantOutcome](constants.ErrorServerError, "Failed to retrieve authorization code", "")
	}

	if errResp := h.validateAuthorizationCode(grantCtx, authCode); errResp != nil {
		logger.Debug("Authorization code rejected", log.String("reason", errResp.ErrorDescription))
		return model.FailedWith[*GrantOutcome](errResp)
	}

	codeTicket, err := ticket.Deserialize(authCode.Ticket)
	if err != nil {
		logger.Error("Failed to deserialize authorization code ticket", log.Error(err))
		return model.Failed[*GrantOutcome](constants.ErrorInvalidGrant, "Invalid authorization code", "")
	}

	result := grantFromHook(h.provider.GrantAuthorizationCode(ctx, &provider.TokenRequestContext{
		Request: tokenRequest,
		Client:  grantCtx.Client,
		Ticket:  codeTicket,
	}), true, constants.ErrorInvalidGrant)
	if !result.IsAccepted() {
		return result
	}

	outcome := result.Payload()
	outcome.Commit = func(commitCtx context.Context) model.Result[struct{}] {
		if err := commitCtx.Err(); err != nil {
			return model.Failed[struct{}](constants.ErrorServerError, "Request cancelled", "")
		}
		if err := h.authZStore.DeactivateAuthorizationCode(commitCtx, authCode); err != nil {
			if errors.Is(err, authzconstants.ErrAuthorizationCodeInactive) {
				logger.Debug("Authorization code already redeemed", log.String("client_id", authCode.ClientID))
				return model.Failed[struct{}](constants.ErrorInvalidGrant, "Inactive authorization code", "")
			}
			logger.Error("Failed to deactivate authorization code", log.Error(err))
			return model.Failed[struct{}](constants.ErrorServerError, "Failed to invalidate authorization code", "")
		}
		return model.Accepted(struct{}{})
	}
	return model.Accepted(outcome)
}

// validateAuthorizationCode validates the authorization code against the token request.
func (h *authorizationCodeGrantHandler) validateAuthorizationCode(grantCtx *GrantContext,
	code authzmodel.AuthorizationCode) *model.ErrorResponse {
	if grantCtx.Client == nil || grantCtx.Client.ClientID != code.ClientID {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "Authorization code was issued to another client",
		}
	}

	// redirect_uri must be repeated when the authorize request carried one.
	if code.RedirectURI != "" && grantCtx.Request.RedirectURI != code.RedirectURI {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "Invalid redirect URI",
		}
	}

	if code.State != authzconstants.AuthCodeStateActive {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "Inactive authorization code",
		}
	}

	if code.IsExpired(h.clock.Now()) {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidGrant,
			ErrorDescription: "Expired authorization code",
		}
	}
	return nil
}
