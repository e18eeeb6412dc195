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

// clientCredentialsGrantHandler handles the client credentials grant type.
type clientCredentialsGrantHandler struct {
	provider provider.ServerProviderInterface
}

// newClientCredentialsGrantHandler creates a new instance of clientCredentialsGrantHandler.
func newClientCredentialsGrantHandler(deps Dependencies) GrantHandlerInterface {
	return &clientCredentialsGrantHandler{provider: deps.Provider}
}

// ValidateGrant has no grant specific parameters to check.
func (h *clientCredentialsGrantHandler) ValidateGrant(*model.TokenRequest) *model.ErrorResponse {
	return nil
}

// HandleGrant lets the application issue a ticket for the confidential client itself.
func (h *clientCredentialsGrantHandler) HandleGrant(ctx context.Context,
	grantCtx *GrantContext) model.Result[*GrantOutcome] {
	if grantCtx.Client == nil || grantCtx.Client.IsPublic() {
		return model.Failed[*GrantOutcome](constants.ErrorUnauthorizedClient,
			"Public clients cannot use the client credentials grant", "")
	}
	return grantFromHook(h.provider.GrantClientCredentials(ctx, &provider.TokenRequestContext{
		Request: grantCtx.Request,
		Client:  grantCtx.Client,
	}), false, constants.ErrorUnauthorizedClient)
}
