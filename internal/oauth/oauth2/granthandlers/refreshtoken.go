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

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

// refreshTokenGrantHandler handles the refresh token grant type.
type refreshTokenGrantHandler struct {
	provider      provider.ServerProviderInterface
	refreshTokens tokenservice.RefreshTokenProviderInterface
	renewOnGrant  bool
}

// newRefreshTokenGrantHandler creates a new instance of refreshTokenGrantHandler.
func newRefreshTokenGrantHandler(deps Dependencies) GrantHandlerInterface {
	return &refreshTokenGrantHandler{
		provider:      deps.Provider,
		refreshTokens: deps.RefreshTokens,
		renewOnGrant:  deps.RenewRefreshTokenOnGrant,
	}
}

// ValidateGrant validates the refresh token grant request.
func (h *refreshTokenGrantHandler) ValidateGrant(tokenRequest *model.TokenRequest) *model.ErrorResponse {
	if tokenRequest.RefreshToken == "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Missing refresh_token parameter",
		}
	}
	return nil
}

// HandleGrant recovers the ticket carried by the refresh token and hands it to the application hook.
func (h *refreshTokenGrantHandler) HandleGrant(ctx context.Context,
	grantCtx *GrantContext) model.Result[*GrantOutcome] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "RefreshTokenGrantHandler"))

	refreshTicket, err := h.refreshTokens.ReceiveRefreshToken(ctx, grantCtx.Request.RefreshToken)
	if err != nil {
		logger.Debug("Refresh token rejected", log.Error(err))
		return model.Failed[*GrantOutcome](constants.ErrorInvalidGrant, "Invalid refresh token", "")
	}

	issuedTo := refreshTicket.Properties.Item(ticket.ItemClientID)
	if issuedTo != "" && (grantCtx.Client == nil || grantCtx.Client.ClientID != issuedTo) {
		return model.Failed[*GrantOutcome](constants.ErrorInvalidGrant,
			"Refresh token was issued to another client", "")
	}

	return grantFromHook(h.provider.GrantRefreshToken(ctx, &provider.TokenRequestContext{
		Request: grantCtx.Request,
		Client:  grantCtx.Client,
		Ticket:  refreshTicket,
	}), h.renewOnGrant, constants.ErrorInvalidGrant)
}
