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

// Package authz implements the OAuth2 authorization endpoint.
package authz

import (
	"context"
	"net/http"
	"strconv"
	"time"

	authzconstants "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	authzmodel "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

const loggerComponentName = "AuthorizeHandler"

// Dependencies holds the collaborators of the authorize handler.
type Dependencies struct {
	ClientValidator client.ClientValidatorInterface
	Provider        provider.ServerProviderInterface
	// CodeStore is required for response_type=code.
	CodeStore store.AuthorizationCodeStoreInterface
	// TokenService is required for response_type=token.
	TokenService              tokenservice.TokenServiceInterface
	Clock                     clock.ClockInterface
	AuthorizationCodeLifetime time.Duration
	// Next is the application handler that authenticates the user and calls SignIn or Deny.
	Next    http.Handler
	Metrics *metrics.Collectors
}

// AuthorizeHandler handles requests to the authorization endpoint.
type AuthorizeHandler struct {
	clientValidator client.ClientValidatorInterface
	provider        provider.ServerProviderInterface
	codeStore       store.AuthorizationCodeStoreInterface
	tokenService    tokenservice.TokenServiceInterface
	clock           clock.ClockInterface
	codeLifetime    time.Duration
	next            http.Handler
	metrics         *metrics.Collectors
}

// NewAuthorizeHandler creates a new authorize handler.
func NewAuthorizeHandler(deps Dependencies) *AuthorizeHandler {
	h := &AuthorizeHandler{
		clientValidator: deps.ClientValidator,
		provider:        deps.Provider,
		codeStore:       deps.CodeStore,
		tokenService:    deps.TokenService,
		clock:           deps.Clock,
		codeLifetime:    deps.AuthorizationCodeLifetime,
		next:            deps.Next,
		metrics:         deps.Metrics,
	}
	if h.provider == nil {
		h.provider = provider.DefaultProvider{}
	}
	if h.clock == nil {
		h.clock = clock.NewSystemClock()
	}
	if h.codeLifetime <= 0 {
		h.codeLifetime = 5 * time.Minute
	}
	if h.next == nil {
		h.next = http.NotFoundHandler()
	}
	if h.metrics == nil {
		h.metrics = metrics.GetCollectors()
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.HandleAuthorizeRequest(w, r)
}

// HandleAuthorizeRequest handles the OAuth2 authorization request.
func (h *AuthorizeHandler) HandleAuthorizeRequest(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateReceivedRequest)))

	if err := r.ParseForm(); err != nil {
		h.writeJSONError(w, constants.ErrorInvalidRequest, "Failed to parse request body", http.StatusBadRequest)
		return
	}
	authReq := &model.AuthorizeRequest{
		ClientID:     r.Form.Get(constants.ClientID),
		RedirectURI:  r.Form.Get(constants.RedirectURI),
		ResponseType: r.Form.Get(constants.ResponseType),
		Scope:        r.Form.Get(constants.Scope),
		State:        r.Form.Get(constants.State),
		Parameters:   r.Form,
	}

	// Errors before the redirect target is trusted are never redirected.
	if authReq.ClientID == "" {
		h.writeJSONError(w, constants.ErrorInvalidRequest, "Missing client_id parameter", http.StatusBadRequest)
		return
	}
	lookup := h.clientValidator.LookupClient(r.Context(), client.LookupRequest{
		ClientID:         authReq.ClientID,
		RedirectURI:      authReq.RedirectURI,
		ValidateRedirect: true,
	})
	if !lookup.IsAccepted() {
		errResp := lookup.ErrorResponse(constants.ErrorInvalidRequest)
		if errResp.Error == constants.ErrorServerError {
			h.writeJSONError(w, errResp.Error, errResp.ErrorDescription, http.StatusInternalServerError)
			return
		}
		h.writeJSONError(w, constants.ErrorInvalidRequest, errResp.ErrorDescription, http.StatusBadRequest)
		return
	}
	clientDetails := lookup.Payload().Client
	redirectURI := lookup.Payload().RedirectURI
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateClientValidated)),
		log.String("client_id", clientDetails.ClientID))

	if errResp := h.validateResponseType(authReq, clientDetails); errResp != nil {
		h.redirectWithError(w, r, authReq, redirectURI, errResp)
		return
	}

	validation := h.provider.ValidateAuthorizeRequest(r.Context(), &provider.AuthorizeRequestContext{
		Request:     authReq,
		Client:      clientDetails,
		RedirectURI: redirectURI,
	})
	if !validation.IsAccepted() {
		h.redirectWithError(w, r, authReq, redirectURI, validation.ErrorResponse(constants.ErrorInvalidRequest))
		return
	}
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateAuthorizeFlow)))

	slot := &signInSlot{request: &AuthorizeRequestInfo{
		ClientID:             clientDetails.ClientID,
		RedirectURI:          redirectURI,
		RequestedRedirectURI: authReq.RedirectURI,
		ResponseType:         authReq.ResponseType,
		Scope:                authReq.Scope,
		State:                authReq.State,
	}}
	buffer := newResponseBuffer()
	h.next.ServeHTTP(buffer, r.WithContext(withSignInSlot(r.Context(), slot)))

	if !slot.completed() || buffer.statusCode() != http.StatusOK {
		if slot.completed() {
			logger.Debug("Application handler wrote a non-success status, not redirecting",
				log.Int("status", buffer.statusCode()))
		}
		buffer.flushTo(w)
		return
	}

	if slot.denied {
		description := slot.description
		if description == "" {
			description = "The resource owner denied the request"
		}
		h.redirectWithError(w, r, authReq, redirectURI, &model.ErrorResponse{
			Error:            constants.ErrorAccessDenied,
			ErrorDescription: description,
		})
		return
	}
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateGrantValidated)))

	signInTicket := h.buildTicket(slot, authReq, clientDetails)
	if authReq.IsImplicit() {
		h.issueImplicitToken(w, r, authReq, redirectURI, signInTicket)
		return
	}
	h.issueAuthorizationCode(w, r, authReq, redirectURI, signInTicket)
}

// validateResponseType checks the response_type against the endpoint and the client registration.
func (h *AuthorizeHandler) validateResponseType(authReq *model.AuthorizeRequest,
	clientDetails *model.ClientDetails) *model.ErrorResponse {
	var grantType string
	switch authReq.ResponseType {
	case "":
		return &model.ErrorResponse{
			Error:            constants.ErrorInvalidRequest,
			ErrorDescription: "Missing response_type parameter",
		}
	case constants.ResponseTypeCode:
		if h.codeStore == nil {
			return &model.ErrorResponse{Error: constants.ErrorUnsupportedResponseType}
		}
		grantType = constants.GrantTypeAuthorizationCode
	case constants.ResponseTypeToken:
		if h.tokenService == nil {
			return &model.ErrorResponse{Error: constants.ErrorUnsupportedResponseType}
		}
		grantType = constants.GrantTypeImplicit
	default:
		return &model.ErrorResponse{
			Error:            constants.ErrorUnsupportedResponseType,
			ErrorDescription: "Unsupported response_type value",
		}
	}

	if !clientDetails.IsAllowedGrantType(grantType) {
		return &model.ErrorResponse{
			Error:            constants.ErrorUnauthorizedClient,
			ErrorDescription: "The client is not allowed to use this response_type",
		}
	}
	return nil
}

// buildTicket binds the signed-in principal to the client and the request.
func (h *AuthorizeHandler) buildTicket(slot *signInSlot, authReq *model.AuthorizeRequest,
	clientDetails *model.ClientDetails) *ticket.Ticket {
	props := slot.properties.Clone()
	props.SetItem(ticket.ItemClientID, clientDetails.ClientID)
	props.RedirectURI = authReq.RedirectURI
	if authReq.Scope != "" && props.Item(ticket.ItemScope) == "" {
		props.SetItem(ticket.ItemScope, authReq.Scope)
	}
	return ticket.NewTicket(slot.principal, props)
}

// issueAuthorizationCode stores a single use code for the ticket and redirects with it.
func (h *AuthorizeHandler) issueAuthorizationCode(w http.ResponseWriter, r *http.Request,
	authReq *model.AuthorizeRequest, redirectURI string, codeTicket *ticket.Ticket) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	authCode, err := h.createAuthorizationCode(r.Context(), authReq, codeTicket)
	if err != nil {
		logger.Error("Failed to create authorization code", log.Error(err))
		h.redirectWithError(w, r, authReq, redirectURI, &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "Failed to issue authorization code",
		})
		return
	}

	location, err := utils.GetURIWithQueryParams(redirectURI, map[string]string{
		constants.Code:  authCode,
		constants.State: authReq.State,
	})
	if err != nil {
		logger.Error("Failed to build redirect URI", log.Error(err))
		h.writeJSONError(w, constants.ErrorServerError, "Failed to redirect", http.StatusInternalServerError)
		return
	}

	h.metrics.TokensIssued.WithLabelValues(constants.GrantTypeAuthorizationCode, "code").Inc()
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateTokenIssued)),
		log.String("client_id", authReq.ClientID))
	http.Redirect(w, r, location, http.StatusFound)
}

// createAuthorizationCode persists a new active code and returns its value.
func (h *AuthorizeHandler) createAuthorizationCode(ctx context.Context, authReq *model.AuthorizeRequest,
	codeTicket *ticket.Ticket) (string, error) {
	now := h.clock.Now()
	codeTicket.Properties.SetLifetime(now, h.codeLifetime)

	data, err := ticket.Serialize(codeTicket)
	if err != nil {
		return "", err
	}

	authCode := utils.GenerateUUID()
	err = h.codeStore.InsertAuthorizationCode(ctx, authzmodel.AuthorizationCode{
		CodeID:      utils.GenerateUUID(),
		Code:        authCode,
		ClientID:    authReq.ClientID,
		RedirectURI: authReq.RedirectURI,
		Ticket:      data,
		TimeCreated: now,
		ExpiryTime:  now.Add(h.codeLifetime),
		State:       authzconstants.AuthCodeStateActive,
	})
	if err != nil {
		return "", err
	}
	return authCode, nil
}

// issueImplicitToken mints an access token and returns it in the redirect fragment.
func (h *AuthorizeHandler) issueImplicitToken(w http.ResponseWriter, r *http.Request,
	authReq *model.AuthorizeRequest, redirectURI string, tokenTicket *ticket.Ticket) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))

	issued, err := h.tokenService.IssueAccessToken(tokenTicket)
	if err != nil {
		logger.Error("Failed to issue access token", log.Error(err))
		h.redirectWithError(w, r, authReq, redirectURI, &model.ErrorResponse{
			Error:            constants.ErrorServerError,
			ErrorDescription: "Failed to issue access token",
		})
		return
	}

	location, err := utils.GetURIWithFragmentParams(redirectURI, map[string]string{
		constants.AccessToken: issued.Token,
		constants.TokenType:   constants.TokenTypeBearer,
		constants.ExpiresIn:   strconv.FormatInt(issued.ExpiresIn, 10),
		constants.Scope:       tokenTicket.Properties.Item(ticket.ItemScope),
		constants.State:       authReq.State,
	})
	if err != nil {
		logger.Error("Failed to build redirect URI", log.Error(err))
		h.writeJSONError(w, constants.ErrorServerError, "Failed to redirect", http.StatusInternalServerError)
		return
	}

	h.metrics.TokensIssued.WithLabelValues(constants.GrantTypeImplicit, ticket.TokenUseAccess).Inc()
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateTokenIssued)),
		log.String("client_id", authReq.ClientID))
	utils.SetNoCacheHeaders(w)
	http.Redirect(w, r, location, http.StatusFound)
}

// redirectWithError redirects the user agent to the trusted redirect URI with the error parameters.
func (h *AuthorizeHandler) redirectWithError(w http.ResponseWriter, r *http.Request,
	authReq *model.AuthorizeRequest, redirectURI string, errResp *model.ErrorResponse) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName))
	logger.Debug("Authorize request", log.String("grantState", string(constants.StateRejected)),
		log.String("error", errResp.Error))
	h.metrics.OAuthErrors.WithLabelValues(constants.EndpointAuthorize, errResp.Error).Inc()

	params := map[string]string{
		constants.Error:            errResp.Error,
		constants.ErrorDescription: errResp.ErrorDescription,
		constants.ErrorURI:         errResp.ErrorURI,
		constants.State:            authReq.State,
	}
	var location string
	var err error
	if authReq.IsImplicit() {
		location, err = utils.GetURIWithFragmentParams(redirectURI, params)
	} else {
		location, err = utils.GetURIWithQueryParams(redirectURI, params)
	}
	if err != nil {
		logger.Error("Failed to build error redirect URI", log.Error(err))
		utils.WriteJSONError(w, errResp.Error, errResp.ErrorDescription, http.StatusBadRequest, nil)
		return
	}
	http.Redirect(w, r, location, http.StatusFound)
}

func (h *AuthorizeHandler) writeJSONError(w http.ResponseWriter, code, desc string, statusCode int) {
	h.metrics.OAuthErrors.WithLabelValues(constants.EndpointAuthorize, code).Inc()
	utils.WriteJSONError(w, code, desc, statusCode, nil)
}
