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

// Package token provides handler for managing OAuth 2.0 token requests.
package token

import (
	"encoding/json"
	"net/http"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/granthandlers"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	serverconst "github.com/aspnet/AspNetKatana-sub001/internal/system/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// TokenHandlerInterface defines the interface for handling OAuth 2.0 token requests.
type TokenHandlerInterface interface {
	HandleTokenRequest(w http.ResponseWriter, r *http.Request)
}

// Dependencies holds the collaborators of the token handler.
type Dependencies struct {
	ClientValidator client.ClientValidatorInterface
	GrantHandlers   granthandlers.GrantHandlerProviderInterface
	Provider        provider.ServerProviderInterface
	TokenService    tokenservice.TokenServiceInterface
	// RefreshTokens is nil when refresh tokens are disabled.
	RefreshTokens tokenservice.RefreshTokenProviderInterface
	// AllowMissingClientIDForPassword lets public clients omit client_id on password grants.
	AllowMissingClientIDForPassword bool
	Metrics                         *metrics.Collectors
}

// TokenHandler handles OAuth 2.0 token requests.
type TokenHandler struct {
	clientValidator      client.ClientValidatorInterface
	grantHandlers        granthandlers.GrantHandlerProviderInterface
	provider             provider.ServerProviderInterface
	tokenService         tokenservice.TokenServiceInterface
	refreshTokens        tokenservice.RefreshTokenProviderInterface
	allowMissingClientID bool
	metrics              *metrics.Collectors
}

// NewTokenHandler creates a new instance of TokenHandler.
func NewTokenHandler(deps Dependencies) TokenHandlerInterface {
	h := &TokenHandler{
		clientValidator:      deps.ClientValidator,
		grantHandlers:        deps.GrantHandlers,
		provider:             deps.Provider,
		tokenService:         deps.TokenService,
		refreshTokens:        deps.RefreshTokens,
		allowMissingClientID: deps.AllowMissingClientIDForPassword,
		metrics:              deps.Metrics,
	}
	if h.provider == nil {
		h.provider = provider.DefaultProvider{}
	}
	if h.metrics == nil {
		h.metrics = metrics.GetCollectors()
	}
	return h
}

// HandleTokenRequest handles the token request for OAuth 2.0.
// It authenticates the client and delegates to the handler of the requested grant type.
func (th *TokenHandler) HandleTokenRequest(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "TokenHandler"))
	logger.Debug("Token request", log.String("grantState", string(constants.StateReceivedRequest)))

	// Parse the form data from the request body.
	if err := r.ParseForm(); err != nil {
		th.writeError(w, constants.ErrorInvalidRequest, "Failed to parse request body", http.StatusBadRequest, nil)
		return
	}

	grantType := r.Form.Get(constants.GrantType)
	if grantType == "" {
		th.writeError(w, constants.ErrorInvalidRequest, "Missing grant_type parameter", http.StatusBadRequest, nil)
		return
	}

	grantHandler, err := th.grantHandlers.GetGrantHandler(grantType)
	if err != nil {
		th.writeError(w, constants.ErrorUnsupportedGrantType, "Unsupported grant type", http.StatusBadRequest, nil)
		return
	}

	creds, credErr := th.clientValidator.ExtractClientCredentials(r)
	if credErr != nil {
		th.writeError(w, credErr.Response.Error, credErr.Response.ErrorDescription, credErr.StatusCode,
			credErr.Headers)
		return
	}

	tokenRequest := &model.TokenRequest{
		GrantType:    grantType,
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Scope:        r.Form.Get(constants.Scope),
		Username:     r.Form.Get(constants.Username),
		Password:     r.Form.Get(constants.Password),
		RefreshToken: r.Form.Get(constants.RefreshToken),
		Code:         r.Form.Get(constants.Code),
		RedirectURI:  r.Form.Get(constants.RedirectURI),
		Parameters:   r.Form,
	}

	if errResp := grantHandler.ValidateGrant(tokenRequest); errResp != nil {
		th.writeError(w, errResp.Error, errResp.ErrorDescription, http.StatusBadRequest, nil)
		return
	}

	var clientDetails *model.ClientDetails
	if creds.ClientID != "" || grantType != constants.GrantTypePassword || !th.allowMissingClientID {
		authResult := th.clientValidator.ValidateClientAuthentication(r.Context(), creds)
		if !authResult.IsAccepted() {
			th.writeErrorResponse(w, authResult.ErrorResponse(constants.ErrorInvalidClient))
			return
		}
		clientDetails = authResult.Payload()

		if !clientDetails.IsAllowedGrantType(grantType) {
			th.writeError(w, constants.ErrorUnauthorizedClient,
				"The authenticated client is not authorized to use this grant type", http.StatusBadRequest, nil)
			return
		}
		logger.Debug("Token request", log.String("grantState", string(constants.StateClientValidated)),
			log.String("client_id", clientDetails.ClientID))
	}
	logger.Debug("Token request", log.String("grantState", string(constants.StateTokenFlow)),
		log.String("grant_type", grantType))

	validation := th.provider.ValidateTokenRequest(r.Context(), &provider.TokenRequestContext{
		Request: tokenRequest,
		Client:  clientDetails,
	})
	if !validation.IsAccepted() {
		th.writeErrorResponse(w, validation.ErrorResponse(constants.ErrorInvalidRequest))
		return
	}

	grantResult := grantHandler.HandleGrant(r.Context(), &granthandlers.GrantContext{
		Request: tokenRequest,
		Client:  clientDetails,
	})
	if !grantResult.IsAccepted() {
		th.writeErrorResponse(w, grantResult.ErrorResponse(constants.ErrorInvalidGrant))
		return
	}
	outcome := grantResult.Payload()
	logger.Debug("Token request", log.String("grantState", string(constants.StateGrantValidated)))

	tokenResponse, errResp := th.issueTokens(r, tokenRequest, clientDetails, outcome)
	if errResp != nil {
		th.writeErrorResponse(w, errResp)
		return
	}

	body, err := json.Marshal(tokenResponse.ToMap())
	if err != nil {
		logger.Error("Failed to marshal token response", log.Error(err))
		th.writeError(w, constants.ErrorServerError, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	// Single use state is consumed only once the response is ready.
	if outcome.Commit != nil {
		if commit := outcome.Commit(r.Context()); !commit.IsAccepted() {
			th.writeErrorResponse(w, commit.ErrorResponse(constants.ErrorInvalidGrant))
			return
		}
	}

	th.metrics.TokensIssued.WithLabelValues(grantType, ticket.TokenUseAccess).Inc()
	if tokenResponse.RefreshToken != "" {
		th.metrics.TokensIssued.WithLabelValues(grantType, ticket.TokenUseRefresh).Inc()
	}
	logger.Debug("Token request", log.String("grantState", string(constants.StateTokenIssued)),
		log.String("grant_type", grantType))

	w.Header().Set(serverconst.ContentTypeHeaderName, serverconst.ContentTypeJSON)
	// Must include the following headers when sensitive data is returned.
	utils.SetNoCacheHeaders(w)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Error("Failed to write token response", log.Error(err))
	}
}

// issueTokens mints the access token and, when requested, the refresh token for the granted ticket.
func (th *TokenHandler) issueTokens(r *http.Request, tokenRequest *model.TokenRequest,
	clientDetails *model.ClientDetails, outcome *granthandlers.GrantOutcome) (*model.TokenResponse,
	*model.ErrorResponse) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "TokenHandler"))

	props := outcome.Ticket.Properties.Clone()
	if clientDetails != nil {
		props.SetItem(ticket.ItemClientID, clientDetails.ClientID)
	}
	if props.Item(ticket.ItemScope) == "" && tokenRequest.Scope != "" {
		props.SetItem(ticket.ItemScope, tokenRequest.Scope)
	}
	grantedTicket := ticket.NewTicket(outcome.Ticket.Principal, props)

	accessToken, err := th.tokenService.IssueAccessToken(grantedTicket)
	if err != nil {
		logger.Error("Failed to issue access token", log.Error(err))
		return nil, &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "Failed to generate token",
		}
	}

	tokenResponse := &model.TokenResponse{
		AccessToken: accessToken.Token,
		TokenType:   constants.TokenTypeBearer,
		ExpiresIn:   accessToken.ExpiresIn,
		Scope:       props.Item(ticket.ItemScope),
	}

	if outcome.IssueRefreshToken && th.refreshTokens != nil {
		refreshToken, err := th.refreshTokens.CreateRefreshToken(r.Context(), grantedTicket)
		if err != nil {
			logger.Error("Failed to issue refresh token", log.Error(err))
			return nil, &model.ErrorResponse{
				Error:            constants.ErrorServerError,
				ErrorDescription: "Failed to generate token",
			}
		}
		tokenResponse.RefreshToken = refreshToken.Token
	}

	tokenResponse.Additional = th.provider.TokenEndpoint(r.Context(), &provider.TokenEndpointContext{
		Request: tokenRequest,
		Client:  clientDetails,
		Ticket:  grantedTicket,
	})
	return tokenResponse, nil
}

func (th *TokenHandler) writeErrorResponse(w http.ResponseWriter, errResp *model.ErrorResponse) {
	statusCode := http.StatusBadRequest
	if errResp.Error == constants.ErrorServerError {
		statusCode = http.StatusInternalServerError
	}
	th.metrics.OAuthErrors.WithLabelValues(constants.EndpointToken, errResp.Error).Inc()
	utils.WriteJSONErrorWithURI(w, errResp.Error, errResp.ErrorDescription, errResp.ErrorURI, statusCode, nil)
}

func (th *TokenHandler) writeError(w http.ResponseWriter, code, desc string, statusCode int,
	headers []map[string]string) {
	th.metrics.OAuthErrors.WithLabelValues(constants.EndpointToken, code).Inc()
	utils.WriteJSONError(w, code, desc, statusCode, headers)
}
