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

package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/keyring"
	authzconstants "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
	"github.com/aspnet/AspNetKatana-sub001/tests/mocks/oauth/clientstoremock"
	"github.com/aspnet/AspNetKatana-sub001/tests/mocks/oauth/providermock"
)

const testIssuer = "https://auth.example.com"

type AuthorizeHandlerTestSuite struct {
	suite.Suite
	clock     *clock.FakeClock
	codeStore store.AuthorizationCodeStoreInterface
	tokens    *tokenservice.TokenService
	provider  *providermock.MockServerProvider
	metrics   *metrics.Collectors
	next      http.HandlerFunc
	handler   *AuthorizeHandler
}

func TestAuthorizeHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthorizeHandlerTestSuite))
}

func (suite *AuthorizeHandlerTestSuite) SetupTest() {
	suite.clock = clock.NewFakeClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	suite.codeStore = store.NewMemoryAuthorizationCodeStore(suite.clock)
	suite.tokens = tokenservice.NewTokenService(tokencodec.NewTokenCodec(testIssuer, suite.clock),
		keyring.NewKeyRing(time.Hour), suite.clock, tokenservice.Options{
			Issuer:              testIssuer,
			AccessTokenLifetime: 655321 * time.Second,
		})
	suite.provider = &providermock.MockServerProvider{}
	suite.metrics = metrics.NewCollectors()
	suite.next = func(w http.ResponseWriter, r *http.Request) {
		principal := ticket.NewPrincipal("Cookies", ticket.NewClaim(ticket.ClaimTypeName, "alice"))
		suite.Require().NoError(SignIn(r.Context(), principal, nil))
	}

	clientStore := &clientstoremock.MockClientStore{Clients: map[string]*model.ClientDetails{
		"alpha": {
			ClientID:     "alpha",
			ClientSecret: utils.StringPtr("beta"),
			RedirectURI:  utils.StringPtr("https://gamma.com/return"),
		},
		"codeonly": {
			ClientID:          "codeonly",
			RedirectURI:       utils.StringPtr("https://app.example.com/cb"),
			AllowedGrantTypes: []string{constants.GrantTypeAuthorizationCode},
		},
	}}
	suite.handler = NewAuthorizeHandler(Dependencies{
		ClientValidator:           client.NewClientValidator(clientStore, client.ValidatorOptions{}),
		Provider:                  suite.provider,
		CodeStore:                 suite.codeStore,
		TokenService:              suite.tokens,
		Clock:                     suite.clock,
		AuthorizationCodeLifetime: 5 * time.Minute,
		Next: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			suite.next(w, r)
		}),
		Metrics: suite.metrics,
	})
}

func (suite *AuthorizeHandlerTestSuite) authorize(query string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/oauth2/authorize?"+query, nil)
	rr := httptest.NewRecorder()
	suite.handler.ServeHTTP(rr, req)
	return rr
}

func (suite *AuthorizeHandlerTestSuite) location(rr *httptest.ResponseRecorder) *url.URL {
	suite.Require().Equal(http.StatusFound, rr.Code, rr.Body.String())
	location, err := url.Parse(rr.Header().Get("Location"))
	suite.Require().NoError(err)
	return location
}

func (suite *AuthorizeHandlerTestSuite) jsonError(rr *httptest.ResponseRecorder) map[string]string {
	var body map[string]string
	suite.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func (suite *AuthorizeHandlerTestSuite) TestIssuesAuthorizationCode() {
	rr := suite.authorize("client_id=alpha&response_type=code&state=xyz&scope=read")

	location := suite.location(rr)
	suite.Equal("gamma.com", location.Host)
	suite.Equal("/return", location.Path)
	suite.Equal("xyz", location.Query().Get("state"))
	code := location.Query().Get("code")
	suite.Require().NotEmpty(code)

	stored, err := suite.codeStore.GetAuthorizationCode(context.Background(), code)
	suite.Require().NoError(err)
	suite.Equal("alpha", stored.ClientID)
	suite.Empty(stored.RedirectURI)
	suite.Equal(authzconstants.AuthCodeStateActive, stored.State)
	suite.Equal(suite.clock.Now().Add(5*time.Minute), stored.ExpiryTime)

	codeTicket, err := ticket.Deserialize(stored.Ticket)
	suite.Require().NoError(err)
	suite.Equal("alice", codeTicket.Principal.Name())
	suite.Equal("alpha", codeTicket.Properties.Item(ticket.ItemClientID))
	suite.Equal("read", codeTicket.Properties.Item(ticket.ItemScope))
	suite.Equal(1.0, testutil.ToFloat64(
		suite.metrics.TokensIssued.WithLabelValues(constants.GrantTypeAuthorizationCode, "code")))
}

func (suite *AuthorizeHandlerTestSuite) TestStoresRequestedRedirectURI() {
	rr := suite.authorize("client_id=alpha&response_type=code&redirect_uri=" +
		url.QueryEscape("https://gamma.com/return"))

	code := suite.location(rr).Query().Get("code")
	stored, err := suite.codeStore.GetAuthorizationCode(context.Background(), code)
	suite.Require().NoError(err)
	suite.Equal("https://gamma.com/return", stored.RedirectURI)
}

func (suite *AuthorizeHandlerTestSuite) TestPostForm() {
	form := url.Values{"client_id": {"alpha"}, "response_type": {"code"}}
	req := httptest.NewRequest(http.MethodPost, "/oauth2/authorize", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	suite.handler.ServeHTTP(rr, req)

	suite.NotEmpty(suite.location(rr).Query().Get("code"))
}

func (suite *AuthorizeHandlerTestSuite) TestImplicitGrant() {
	rr := suite.authorize("client_id=alpha&response_type=token&state=s1")

	location := suite.location(rr)
	suite.Empty(location.RawQuery)
	fragment, err := url.ParseQuery(location.Fragment)
	suite.Require().NoError(err)
	suite.Equal(constants.TokenTypeBearer, fragment.Get("token_type"))
	suite.Equal("655321", fragment.Get("expires_in"))
	suite.Equal("s1", fragment.Get("state"))
	suite.Equal("no-store", rr.Header().Get("Cache-Control"))

	accessTicket, err := suite.tokens.ValidateAccessToken(fragment.Get("access_token"))
	suite.Require().NoError(err)
	suite.Equal("alice", accessTicket.Principal.Name())
	suite.Equal("alpha", accessTicket.Properties.Item(ticket.ItemClientID))
}

func (suite *AuthorizeHandlerTestSuite) TestErrorsBeforeRedirectAreJSON() {
	testCases := []struct {
		name  string
		query string
	}{
		{"MissingClientID", "response_type=code"},
		{"UnknownClient", "client_id=nobody&response_type=code"},
		{"RedirectMismatch", "client_id=alpha&response_type=code&redirect_uri=" +
			url.QueryEscape("https://evil.com/return")},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			rr := suite.authorize(tc.query)
			suite.Equal(http.StatusBadRequest, rr.Code)
			suite.Empty(rr.Header().Get("Location"))
			suite.Equal(constants.ErrorInvalidRequest, suite.jsonError(rr)["error"])
		})
	}
}

func (suite *AuthorizeHandlerTestSuite) TestErrorsAfterRedirectValidation() {
	testCases := []struct {
		name     string
		query    string
		error    string
		fragment bool
	}{
		{"MissingResponseType", "client_id=alpha&state=st", constants.ErrorInvalidRequest, false},
		{"UnknownResponseType", "client_id=alpha&response_type=id_token&state=st",
			constants.ErrorUnsupportedResponseType, false},
		{"ResponseTypeNotAllowed", "client_id=codeonly&response_type=token&state=st",
			constants.ErrorUnauthorizedClient, true},
	}
	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			location := suite.location(suite.authorize(tc.query))
			params := location.Query()
			if tc.fragment {
				var err error
				params, err = url.ParseQuery(location.Fragment)
				suite.Require().NoError(err)
			}
			suite.Equal(tc.error, params.Get("error"))
			suite.Equal("st", params.Get("state"))
		})
	}
}

func (suite *AuthorizeHandlerTestSuite) TestProviderHookRejects() {
	suite.provider.MockValidateAuthorizeRequest = func(_ context.Context,
		req *provider.AuthorizeRequestContext) model.Result[struct{}] {
		suite.Equal("https://gamma.com/return", req.RedirectURI)
		return model.Failed[struct{}](constants.ErrorInvalidScope, "scope not allowed", "")
	}
	suite.next = func(http.ResponseWriter, *http.Request) {
		suite.Fail("application handler must not run")
	}

	location := suite.location(suite.authorize("client_id=alpha&response_type=code&scope=admin"))
	suite.Equal(constants.ErrorInvalidScope, location.Query().Get("error"))
	suite.Equal("scope not allowed", location.Query().Get("error_description"))
	suite.Equal(1.0, testutil.ToFloat64(
		suite.metrics.OAuthErrors.WithLabelValues(constants.EndpointAuthorize, constants.ErrorInvalidScope)))
}

func (suite *AuthorizeHandlerTestSuite) TestDeny() {
	suite.next = func(_ http.ResponseWriter, r *http.Request) {
		suite.Require().NoError(Deny(r.Context(), "user said no"))
	}

	location := suite.location(suite.authorize("client_id=alpha&response_type=code&state=abc"))
	suite.Equal(constants.ErrorAccessDenied, location.Query().Get("error"))
	suite.Equal("user said no", location.Query().Get("error_description"))
	suite.Equal("abc", location.Query().Get("state"))
	suite.Empty(location.Query().Get("code"))
}

func (suite *AuthorizeHandlerTestSuite) TestApplicationOutputStandsWithoutSignIn() {
	suite.next = func(w http.ResponseWriter, r *http.Request) {
		info, ok := RequestFromContext(r.Context())
		suite.Require().True(ok)
		suite.Equal("alpha", info.ClientID)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<form>login</form>"))
	}

	rr := suite.authorize("client_id=alpha&response_type=code")
	suite.Equal(http.StatusOK, rr.Code)
	suite.Equal("<form>login</form>", rr.Body.String())
	suite.Equal("text/html", rr.Header().Get("Content-Type"))
}

func (suite *AuthorizeHandlerTestSuite) TestNonSuccessStatusSuppressesRedirect() {
	suite.next = func(w http.ResponseWriter, r *http.Request) {
		principal := ticket.NewPrincipal("Cookies", ticket.NewClaim(ticket.ClaimTypeName, "alice"))
		suite.Require().NoError(SignIn(r.Context(), principal, nil))
		w.WriteHeader(http.StatusUnauthorized)
	}

	rr := suite.authorize("client_id=alpha&response_type=code")
	suite.Equal(http.StatusUnauthorized, rr.Code)
	suite.Empty(rr.Header().Get("Location"))
}

func (suite *AuthorizeHandlerTestSuite) TestSignInOutsideAuthorizeRequest() {
	principal := ticket.NewPrincipal("Cookies", ticket.NewClaim(ticket.ClaimTypeName, "alice"))
	suite.ErrorIs(SignIn(context.Background(), principal, nil), ErrNoAuthorizeRequest)
	suite.ErrorIs(Deny(context.Background(), ""), ErrNoAuthorizeRequest)
	_, ok := RequestFromContext(context.Background())
	suite.False(ok)
}

func (suite *AuthorizeHandlerTestSuite) TestSignInTwice() {
	suite.next = func(_ http.ResponseWriter, r *http.Request) {
		principal := ticket.NewPrincipal("Cookies", ticket.NewClaim(ticket.ClaimTypeName, "alice"))
		suite.Require().NoError(SignIn(r.Context(), principal, nil))
		suite.ErrorIs(SignIn(r.Context(), principal, nil), ErrAuthorizeRequestCompleted)
		suite.ErrorIs(Deny(r.Context(), ""), ErrAuthorizeRequestCompleted)
	}

	suite.NotEmpty(suite.location(suite.authorize("client_id=alpha&response_type=code")).Query().Get("code"))
}
