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

// Package bearer authenticates requests carrying OAuth2 bearer access tokens.
package bearer

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	serverconst "github.com/aspnet/AspNetKatana-sub001/internal/system/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// Bearer authentication outcomes recorded in metrics.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeNoToken       = "no_token"
	OutcomeInvalid       = "invalid"
	OutcomeRefreshToken  = "refresh_token"
)

const bearerPrefix = "Bearer "

// AccessTokenValidator validates access tokens and returns their tickets.
type AccessTokenValidator interface {
	ValidateAccessToken(token string) (*ticket.Ticket, error)
}

// TokenLocator finds the bearer token on a request. It returns an empty string when there is none.
type TokenLocator func(r *http.Request) string

// HeaderTokenLocator reads the token from the Authorization header.
func HeaderTokenLocator(r *http.Request) string {
	header := r.Header.Get(serverconst.AuthorizationHeaderName)
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}

// QueryTokenLocator reads the token from the named query parameter, falling back to the header.
func QueryTokenLocator(param string) TokenLocator {
	return func(r *http.Request) string {
		if token := r.URL.Query().Get(param); token != "" {
			return token
		}
		return HeaderTokenLocator(r)
	}
}

// Options configures the authenticator.
type Options struct {
	// Realm is reported in the WWW-Authenticate challenge when set.
	Realm        string
	TokenLocator TokenLocator
	Metrics      *metrics.Collectors
}

// Authenticator attaches the principal of a valid bearer token to the request context.
type Authenticator struct {
	validator AccessTokenValidator
	options   Options
}

// NewAuthenticator creates a bearer authenticator.
func NewAuthenticator(validator AccessTokenValidator, options Options) *Authenticator {
	if options.TokenLocator == nil {
		options.TokenLocator = HeaderTokenLocator
	}
	if options.Metrics == nil {
		options.Metrics = metrics.GetCollectors()
	}
	return &Authenticator{validator: validator, options: options}
}

type ticketKey struct{}

// TicketFromContext returns the authenticated ticket of the request, if any.
func TicketFromContext(ctx context.Context) (*ticket.Ticket, bool) {
	t, ok := ctx.Value(ticketKey{}).(*ticket.Ticket)
	return t, ok && t != nil
}

// PrincipalFromContext returns the authenticated principal of the request, if any.
func PrincipalFromContext(ctx context.Context) (*ticket.Principal, bool) {
	t, ok := TicketFromContext(ctx)
	if !ok {
		return nil, false
	}
	return t.Principal, true
}

// Authenticate validates the request token. It returns nil when the request is not authenticated.
func (a *Authenticator) Authenticate(r *http.Request) *ticket.Ticket {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "BearerAuthenticator"))

	token := a.options.TokenLocator(r)
	if token == "" {
		a.options.Metrics.BearerOutcomes.WithLabelValues(OutcomeNoToken).Inc()
		return nil
	}

	t, err := a.validator.ValidateAccessToken(token)
	if err != nil {
		outcome := OutcomeInvalid
		if errors.Is(err, tokenservice.ErrRefreshTokenNotAccepted) {
			outcome = OutcomeRefreshToken
		}
		logger.Debug("Bearer token rejected", log.String("outcome", outcome), log.Error(err))
		a.options.Metrics.BearerOutcomes.WithLabelValues(outcome).Inc()
		return nil
	}
	a.options.Metrics.BearerOutcomes.WithLabelValues(OutcomeAuthenticated).Inc()
	return t
}

// Middleware authenticates the request when it carries a valid token. Requests without one continue
// unauthenticated.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t := a.Authenticate(r); t != nil {
			r = r.WithContext(context.WithValue(r.Context(), ticketKey{}, t))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthentication challenges requests that were not authenticated by the middleware.
func (a *Authenticator) RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := TicketFromContext(r.Context()); !ok {
			challenge := "Bearer"
			if a.options.Realm != "" {
				challenge += ` realm="` + a.options.Realm + `"`
			}
			utils.WriteJSONError(w, "invalid_token", "The access token is missing or invalid",
				http.StatusUnauthorized, []map[string]string{{serverconst.WWWAuthenticateHeaderName: challenge}})
			return
		}
		next.ServeHTTP(w, r)
	})
}
