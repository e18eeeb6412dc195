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
)

// passwordGrantHandler handles the resource owner password credentials grant type.
type passwordGrantHandler struct {
	provider provider.ServerProviderInterface
}

// newPasswordGrantHandler creates a new instance of passwordGrantHandler.
func newPasswordGrantHandler(deps Dependencies) GrantHandlerInterface {
	return &passwordGrantHandler{provider: deps.Provider}
}

// ValidateGrant validates the password grant request.
func (h *passwordGrantHandler) ValidateGrant(tokenRequest *model.TokenRequest) *model.ErrorResponse {
	if tokenRequest.Username == "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Missing username parameter",
		}
	}
	if tokenRequest.Password == "" {
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Missing password parameter",
		}
	}
	return nil
}

// HandleGrant delegates the user credential check to the application hook.
func (h *passwordGrantHandler) HandleGrant(ctx context.Context,
	grantCtx *GrantContext) model.Result[*GrantOutcome] {
	return grantFromHook(h.provider.GrantResourceOwnerCredentials(ctx, &provider.TokenRequestContext{
		Request: grantCtx.Request,
		Client:  grantCtx.Client,
	}), true, constants.ErrorInvalidGrant)
}
