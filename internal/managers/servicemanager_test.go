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

package managers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/authserver"
	"github.com/aspnet/AspNetKatana-sub001/internal/services"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

const testIssuer = "https://auth.example.com"

type ServiceManagerTestSuite struct {
	suite.Suite
	clock  *clock.FakeClock
	cfg    *config.Config
	server *authserver.Server
	http   *httptest.Server
	client *http.Client
}

func TestServiceManagerSuite(t *testing.T) {
	suite.Run(t, new(ServiceManagerTestSuite))
}

func (suite *ServiceManagerTestSuite) SetupTest() {
	suite.clock = clock.NewFakeClock(time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC))
	suite.cfg = &config.Config{
		OAuth: config.OAuthConfig{
			Issuer:                          testIssuer,
			Audiences:                       []string{"https://api.example.com"},
			AccessTokenExpireTimeSpan:       config.Duration(655321 * time.Second),
			AuthorizationCodeExpireTimeSpan: config.Duration(5 * time.Minute),
			RefreshToken:                    config.RefreshTokenConfig{Enabled: true},
			Clients: []config.ClientConfig{
				{
					ClientID:     "alpha",
					ClientSecret: utils.StringPtr("beta"),
					RedirectURI:  utils.StringPtr("https://gamma.com/return"),
				},
				{
					ClientID:          "rs",
					ClientSecret:      utils.StringPtr("rs-secret"),
					AllowedGrantTypes: []string{"client_credentials"},
				},
			},
			Users: []config.UserConfig{{Username: "admin", Password: "admin", Roles: []string{"administrator"}}},
		},
	}
	suite.start()
}

func (suite *ServiceManagerTestSuite) start() {
	authn := services.NewAuthenticationService(suite.cfg.OAuth.Users)
	server, err := authserver.New(context.Background(), suite.T().TempDir(), suite.cfg, authserver.Options{
		Provider:      authn,
		SignInHandler: authn,
		Clock:         suite.clock,
		Metrics:       metrics.NewCollectors(),
	})
	suite.Require().NoError(err)
	suite.server = server

	mux := http.NewServeMux()
	suite.Require().NoError(NewServiceManager(mux, server).RegisterServices())
	suite.http = httptest.NewServer(mux)
	suite.client = &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
}

func (suite *ServiceManagerTestSuite) TearDownTest() {
	suite.http.Close()
	suite.NoError(suite.server.Close())
}

func (suite *ServiceManagerTestSuite) restart() {
	suite.TearDownTest()
	suite.start()
}

func (suite *ServiceManagerTestSuite) do(req *http.Request) (*http.Response, []byte) {
	resp, err := suite.client.Do(req)
	suite.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	suite.Require().NoError(err)
	return resp, body
}

func (suite *ServiceManagerTestSuite) postForm(path string, form url.Values, user, secret string) (*http.Response,
	map[string]interface{}) {
	req, err := http.NewRequest(http.MethodPost, suite.http.URL+path, strings.NewReader(form.Encode()))
	suite.Require().NoError(err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if user != "" {
		req.SetBasicAuth(user, secret)
	}
	resp, body := suite.do(req)
	var decoded map[string]interface{}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		suite.Require().NoError(json.Unmarshal(body, &decoded), string(body))
	}
	return resp, decoded
}

func (suite *ServiceManagerTestSuite) get(path, bearerToken string) (*http.Response, []byte) {
	req, err := http.NewRequest(http.MethodGet, suite.http.URL+path, nil)
	suite.Require().NoError(err)
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	return suite.do(req)
}

// signIn runs the authorize request with the bundled sign-in page and returns the issued code.
func (suite *ServiceManagerTestSuite) signIn() string {
	resp, body := suite.get("/oauth2/authorize?client_id=alpha&response_type=code&state=s1&scope=read", "")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(body), `name="client_id" value="alpha"`)

	resp, _ = suite.postForm("/oauth2/authorize", url.Values{
		"client_id":     {"alpha"},
		"response_type": {"code"},
		"state":         {"s1"},
		"scope":         {"read"},
		"username":      {"admin"},
		"password":      {"admin"},
	}, "", "")
	suite.Require().Equal(http.StatusFound, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	suite.Require().NoError(err)
	suite.Equal("gamma.com", location.Host)
	suite.Equal("s1", location.Query().Get("state"))
	code := location.Query().Get("code")
	suite.Require().NotEmpty(code)
	return code
}

func (suite *ServiceManagerTestSuite) redeem(code string) (*http.Response, map[string]interface{}) {
	return suite.postForm("/oauth2/token", url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
		"client_id":  {"alpha"},
	}, "alpha", "beta")
}

func (suite *ServiceManagerTestSuite) TestAuthorizationCodeFlow() {
	code := suite.signIn()

	resp, body := suite.redeem(code)
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	suite.Equal("no-store", resp.Header.Get("Cache-Control"))
	suite.NotEmpty(body["access_token"])
	suite.NotEmpty(body["refresh_token"])
	suite.Equal("bearer", body["token_type"])
	suite.Equal(float64(655321), body["expires_in"])

	resp, body = suite.redeem(code)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("invalid_grant", body["error"])
}

func (suite *ServiceManagerTestSuite) TestExpiredCode() {
	code := suite.signIn()
	suite.clock.Advance(5*time.Minute + time.Second)

	resp, body := suite.redeem(code)
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("invalid_grant", body["error"])
}

func (suite *ServiceManagerTestSuite) TestUnregisteredClient() {
	suite.cfg.OAuth.Clients = nil
	suite.restart()

	resp, body := suite.postForm("/oauth2/token", url.Values{"grant_type": {"client_credentials"}}, "alpha", "beta")
	suite.Equal(http.StatusBadRequest, resp.StatusCode)
	suite.Equal("invalid_client", body["error"])
}

func (suite *ServiceManagerTestSuite) TestProtectedResource() {
	resp, body := suite.redeem(suite.signIn())
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	accessToken := body["access_token"].(string)
	refreshToken := body["refresh_token"].(string)

	resp, raw := suite.get("/api/me", accessToken)
	suite.Require().Equal(http.StatusOK, resp.StatusCode, string(raw))
	var me services.UserInfoResponse
	suite.Require().NoError(json.Unmarshal(raw, &me))
	suite.Equal("admin", me.Name)
	suite.Equal("admin", me.Subject)
	suite.Equal([]string{"administrator"}, me.Roles)
	suite.Equal("alpha", me.ClientID)
	suite.Equal("read", me.Scope)

	for _, token := range []string{"", "not-a-jwt", refreshToken} {
		resp, _ = suite.get("/api/me", token)
		suite.Equal(http.StatusUnauthorized, resp.StatusCode)
		suite.Equal("Bearer", resp.Header.Get("WWW-Authenticate"))
	}
}

func (suite *ServiceManagerTestSuite) TestRefreshAndIntrospect() {
	_, body := suite.redeem(suite.signIn())
	refreshToken := body["refresh_token"].(string)

	resp, body := suite.postForm("/oauth2/token", url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}, "alpha", "beta")
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	accessToken := body["access_token"].(string)

	resp, body = suite.postForm("/oauth2/introspect", url.Values{"token": {accessToken}}, "rs", "rs-secret")
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	suite.Equal(true, body["active"])
	suite.Equal("alpha", body["client_id"])
	suite.Equal("admin", body["username"])
	suite.Equal(testIssuer, body["iss"])

	resp, body = suite.postForm("/oauth2/introspect", url.Values{"token": {refreshToken}}, "rs", "rs-secret")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Equal(false, body["active"])
}

func (suite *ServiceManagerTestSuite) TestClientCredentialsAndMetrics() {
	resp, body := suite.postForm("/oauth2/token", url.Values{"grant_type": {"client_credentials"}}, "rs", "rs-secret")
	suite.Require().Equal(http.StatusOK, resp.StatusCode, body)
	suite.Nil(body["refresh_token"])

	resp, raw := suite.get("/metrics", "")
	suite.Require().Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(raw), `oauth_tokens_issued_total{grant_type="client_credentials",token_kind="access"} 1`)
}

func (suite *ServiceManagerTestSuite) TestHealthChecks() {
	resp, _ := suite.get("/health/liveness", "")
	suite.Equal(http.StatusOK, resp.StatusCode)

	resp, raw := suite.get("/health/readiness", "")
	suite.Equal(http.StatusOK, resp.StatusCode)
	suite.Contains(string(raw), `"status":"UP"`)
}

func (suite *ServiceManagerTestSuite) TestTokenEndpointRateLimit() {
	suite.cfg.RateLimit = config.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1}
	suite.restart()

	form := url.Values{"grant_type": {"client_credentials"}}
	resp, _ := suite.postForm("/oauth2/token", form, "rs", "rs-secret")
	suite.Equal(http.StatusOK, resp.StatusCode)
	resp, body := suite.postForm("/oauth2/token", form, "rs", "rs-secret")
	suite.Equal(http.StatusTooManyRequests, resp.StatusCode)
	suite.Equal("rate_limit_exceeded", body["error"])
	suite.NotEmpty(resp.Header.Get("Retry-After"))
}

func (suite *ServiceManagerTestSuite) TestCORSPreflight() {
	suite.cfg.CORS.AllowedOrigins = []string{"https://app.example.com"}
	suite.restart()

	req, err := http.NewRequest(http.MethodOptions, suite.http.URL+"/oauth2/token", nil)
	suite.Require().NoError(err)
	req.Header.Set("Origin", "https://app.example.com")
	resp, _ := suite.do(req)
	suite.Equal(http.StatusNoContent, resp.StatusCode)
	suite.Equal("https://app.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
	suite.Equal("POST", resp.Header.Get("Access-Control-Allow-Methods"))
}
