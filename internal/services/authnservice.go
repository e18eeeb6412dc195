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

package services

import (
	"context"
	"crypto/subtle"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/error/serviceerror"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// AuthenticationType is the authentication type of principals signed in with a configured user.
const AuthenticationType = "Password"

const (
	formUsername = "username"
	formPassword = "password"
	formAction   = "action"
	actionDeny   = "deny"
)

var signInPage = template.Must(template.New("signin").Funcs(sprig.FuncMap()).Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Sign in to {{ .Request.ClientID | default "the application" }}</h1>
{{- if .Error }}
<p class="error">{{ .Error }}</p>
{{- end }}
<form method="POST" action="/oauth2/authorize">
<input type="hidden" name="client_id" value="{{ .Request.ClientID }}">
<input type="hidden" name="response_type" value="{{ .Request.ResponseType }}">
{{- with .Request.RequestedRedirectURI }}
<input type="hidden" name="redirect_uri" value="{{ . }}">
{{- end }}
{{- with .Request.Scope }}
<input type="hidden" name="scope" value="{{ . }}">
{{- end }}
{{- with .Request.State }}
<input type="hidden" name="state" value="{{ . }}">
{{- end }}
<label>User name <input type="text" name="username" value="{{ .Username }}"></label>
<label>Password <input type="password" name="password"></label>
<button type="submit" name="action" value="signin">Sign in</button>
<button type="submit" name="action" value="deny">Deny</button>
</form>
{{- with .Request.Scope }}
<p>Requested scopes: {{ splitList " " . | join ", " }}</p>
{{- end }}
</body>
</html>
`))

type signInPageData struct {
	Request  *authz.AuthorizeRequestInfo
	Username string
	Error    string
}

// AuthenticationService signs in the configured users. It serves the sign-in page of the authorization
// endpoint and acts as the server provider for the client credentials and password grants.
type AuthenticationService struct {
	provider.DefaultProvider
	users map[string]config.UserConfig
}

var _ provider.ServerProviderInterface = (*AuthenticationService)(nil)

// NewAuthenticationService creates an authentication service over the configured users.
func NewAuthenticationService(users []config.UserConfig) *AuthenticationService {
	byName := make(map[string]config.UserConfig, len(users))
	for _, user := range users {
		byName[user.Username] = user
	}
	return &AuthenticationService{users: byName}
}

// ServeHTTP renders the sign-in page and signs in or denies the pending authorize request.
func (s *AuthenticationService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthenticationService"))

	request, ok := authz.RequestFromContext(r.Context())
	if !ok {
		http.NotFound(w, r)
		return
	}
	data := signInPageData{Request: request}

	if r.Method == http.MethodPost {
		if r.PostFormValue(formAction) == actionDeny {
			if err := authz.Deny(r.Context(), "The resource owner denied the request"); err != nil {
				logger.Error("Failed to deny the authorize request", log.Error(err))
				utils.WriteJSON(w, http.StatusInternalServerError, serviceerror.InternalServerError)
			}
			return
		}

		username := r.PostFormValue(formUsername)
		if username != "" {
			principal, ok := s.authenticate(username, r.PostFormValue(formPassword))
			if ok {
				if err := authz.SignIn(r.Context(), principal, ticket.NewProperties()); err != nil {
					logger.Error("Failed to sign in the user", log.Error(err))
					utils.WriteJSON(w, http.StatusInternalServerError, serviceerror.InternalServerError)
				}
				return
			}
			logger.Debug("Sign in failed", log.String("username", log.MaskString(username)))
			data.Username = username
			data.Error = "The user name or password is incorrect."
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := signInPage.Execute(w, data); err != nil {
		logger.Error("Failed to render the sign in page", log.Error(err))
	}
}

// GrantClientCredentials issues tokens to the client itself.
func (s *AuthenticationService) GrantClientCredentials(_ context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	clientID := req.ClientID()
	if clientID == "" {
		return model.Failed[*ticket.Ticket](constants.ErrorUnauthorizedClient, "", "")
	}
	principal := ticket.NewPrincipal("Client",
		ticket.NewClaim(ticket.ClaimTypeName, clientID),
		ticket.NewClaim(ticket.ClaimTypeSubject, clientID))
	return model.Accepted(ticket.NewTicket(principal, ticket.NewProperties()))
}

// GrantResourceOwnerCredentials issues tokens for a configured user.
func (s *AuthenticationService) GrantResourceOwnerCredentials(_ context.Context,
	req *provider.TokenRequestContext) model.Result[*ticket.Ticket] {
	principal, ok := s.authenticate(req.Request.Username, req.Request.Password)
	if !ok {
		return model.Failed[*ticket.Ticket](constants.ErrorInvalidGrant,
			"The user name or password is incorrect", "")
	}
	return model.Accepted(ticket.NewTicket(principal, ticket.NewProperties()))
}

func (s *AuthenticationService) authenticate(username, password string) (*ticket.Principal, bool) {
	user, ok := s.users[username]
	if !ok || username == "" {
		return nil, false
	}
	if user.PasswordHashed {
		if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
			return nil, false
		}
	} else if subtle.ConstantTimeCompare([]byte(user.Password), []byte(password)) != 1 {
		return nil, false
	}

	claims := []ticket.Claim{
		ticket.NewClaim(ticket.ClaimTypeName, user.Username),
		ticket.NewClaim(ticket.ClaimTypeSubject, user.Username),
	}
	for _, role := range user.Roles {
		claims = append(claims, ticket.NewClaim(ticket.ClaimTypeRole, role))
	}
	return ticket.NewPrincipal(AuthenticationType, claims...), true
}
