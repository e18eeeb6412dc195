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

// Package introspect implements the OAuth2 token introspection endpoint (RFC 7662).
package introspect

import (
	"net/http"
	"strings"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	serverconst "github.com/aspnet/AspNetKatana-sub001/internal/system/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

const tokenTypeHintRefresh = "refresh_token"

// Response is the introspection response. Only Active is set for tokens that are not active.
type Response struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	Exp       int64  `json:"exp,omitempty"`
	Iat       int64  `json:"iat,omitempty"`
	Sub       string `json:"sub,omitempty"`
	Aud       string `json:"aud,omitempty"`
	Iss       string `json:"iss,omitempty"`
}

// IntrospectionHandler answers introspection requests from authenticated clients.
type IntrospectionHandler struct {
	clientValidator client.ClientValidatorInterface
	tokenService    tokenservice.TokenServiceInterface
	refreshTokens   tokenservice.RefreshTokenProviderInterface
	metrics         *metrics.Collectors
}

// NewIntrospectionHandler creates an introspection handler. refreshTokens may be nil.
func NewIntrospectionHandler(clientValidator client.ClientValidatorInterface,
	tokenService tokenservice.TokenServiceInterface, refreshTokens tokenservice.RefreshTokenProviderInterface,
	collectors *metrics.Collectors) *IntrospectionHandler {
	if collectors == nil {
		collectors = metrics.GetCollectors()
	}
	return &IntrospectionHandler{
		clientValidator: clientValidator,
		tokenService:    tokenService,
		refreshTokens:   refreshTokens,
		metrics:         collectors,
	}
}

// HandleIntrospectionRequest handles a token introspection request.
func (h *IntrospectionHandler) HandleIntrospectionRequest(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "IntrospectionHandler"))

	if err := r.ParseForm(); err != nil {
		h.writeError(w, constants.ErrorInvalidRequest, "Failed to parse request body", http.StatusBadRequest, nil)
		return
	}

	creds, credErr := h.clientValidator.ExtractClientCredentials(r)
	if credErr != nil {
		h.writeError(w, credErr.Response.Error, credErr.Response.ErrorDescription, credErr.StatusCode,
			credErr.Headers)
		return
	}
	authResult := h.clientValidator.ValidateClientAuthentication(r.Context(), creds)
	if !authResult.IsAccepted() {
		errResp := authResult.ErrorResponse(constants.ErrorInvalidClient)
		if errResp.Error == constants.ErrorServerError {
			h.writeError(w, errResp.Error, errResp.ErrorDescription, http.StatusInternalServerError, nil)
			return
		}
		h.writeError(w, constants.ErrorInvalidClient, errResp.ErrorDescription, http.StatusUnauthorized,
			[]map[string]string{{serverconst.WWWAuthenticateHeaderName: "Basic"}})
		return
	}
	caller := authResult.Payload()

	token := r.Form.Get(constants.Token)
	if token == "" {
		h.writeError(w, constants.ErrorInvalidRequest, "Missing token parameter", http.StatusBadRequest, nil)
		return
	}

	response := h.introspect(r, token, r.Form.Get(constants.TokenTypeHint), caller)
	logger.Debug("Token introspected", log.String("client_id", caller.ClientID),
		log.Bool("active", response.Active))

	utils.SetNoCacheHeaders(w)
	utils.WriteJSON(w, http.StatusOK, response)
}

// introspect tries the hinted token kind first. Any validation failure yields an inactive response.
func (h *IntrospectionHandler) introspect(r *http.Request, token, hint string,
	caller *model.ClientDetails) Response {
	lookups := []func() (*ticket.Ticket, string){h.lookupAccessToken(token), h.lookupRefreshToken(r, token)}
	if hint == tokenTypeHintRefresh {
		lookups[0], lookups[1] = lookups[1], lookups[0]
	}

	for _, lookup := range lookups {
		t, tokenType := lookup()
		if t == nil {
			continue
		}
		issuedTo := t.Properties.Item(ticket.ItemClientID)
		if tokenType == tokenTypeHintRefresh && issuedTo != caller.ClientID {
			return Response{Active: false}
		}
		return toResponse(t, tokenType)
	}
	return Response{Active: false}
}

func (h *IntrospectionHandler) lookupAccessToken(token string) func() (*ticket.Ticket, string) {
	return func() (*ticket.Ticket, string) {
		t, err := h.tokenService.ValidateAccessToken(token)
		if err != nil {
			return nil, ""
		}
		return t, constants.TokenTypeBearer
	}
}

func (h *IntrospectionHandler) lookupRefreshToken(r *http.Request, token string) func() (*ticket.Ticket, string) {
	return func() (*ticket.Ticket, string) {
		if h.refreshTokens == nil {
			return nil, ""
		}
		t, err := h.refreshTokens.ReceiveRefreshToken(r.Context(), token)
		if err != nil {
			return nil, ""
		}
		return t, tokenTypeHintRefresh
	}
}

func toResponse(t *ticket.Ticket, tokenType string) Response {
	response := Response{
		Active:    true,
		Scope:     t.Properties.Item(ticket.ItemScope),
		ClientID:  t.Properties.Item(ticket.ItemClientID),
		Username:  t.Principal.Name(),
		TokenType: tokenType,
		Sub:       t.Principal.Subject(),
		Aud:       strings.Join(strings.Fields(t.Properties.Item(ticket.ItemAudience)), " "),
	}
	if t.Properties.ExpiresUTC != nil {
		response.Exp = tokencodec.UTCToUnix(*t.Properties.ExpiresUTC)
	}
	if t.Properties.IssuedUTC != nil {
		response.Iat = tokencodec.UTCToUnix(*t.Properties.IssuedUTC)
	}
	if claims := t.Principal.Claims(); len(claims) > 0 {
		response.Iss = claims[0].Issuer
	}
	return response
}

func (h *IntrospectionHandler) writeError(w http.ResponseWriter, code, desc string, statusCode int,
	headers []map[string]string) {
	h.metrics.OAuthErrors.WithLabelValues(constants.EndpointIntrospect, code).Inc()
	utils.WriteJSONError(w, code, desc, statusCode, headers)
}
