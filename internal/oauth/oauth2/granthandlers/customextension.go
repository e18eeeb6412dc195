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

// customExtensionGrantHandler hands extension grant types to the application hook.
type customExtensionGrantHandler struct {
	provider provider.ServerProviderInterface
}

// newCustomExtensionGrantHandler creates a new instance of customExtensionGrantHandler.
func newCustomExtensionGrantHandler(deps Dependencies) GrantHandlerInterface {
	return &customExtensionGrantHandler{provider: deps.Provider}
}

// ValidateGrant leaves parameter checks to the hook, which sees the raw form.
func (h *customExtensionGrantHandler) ValidateGrant(*model.TokenRequest) *model.ErrorResponse {
	return nil
}

// HandleGrant runs the custom extension hook.
func (h *customExtensionGrantHandler) HandleGrant(ctx context.Context,
	grantCtx *GrantContext) model.Result[*GrantOutcome] {
	return grantFromHook(h.provider.GrantCustomExtension(ctx, &provider.TokenRequestContext{
		Request: grantCtx.Request,
		Client:  grantCtx.Client,
	}), true, constants.ErrorUnsupportedGrantType)
}
