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

package bearer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/keyring"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
)

const testIssuer = "https://auth.example.com"

type BearerTestSuite struct {
	suite.Suite
	clock   *clock.FakeClock
	tokens  *tokenservice.TokenService
	refresh *tokenservice.JWTRefreshTokenProvider
	metrics *metrics.Collectors
	auth    *Authenticator
}

func TestBearerSuite(t *testing.T) {
	suite.Run(t, new(BearerTestSuite))
}

func (suite *BearerTestSuite) SetupTest() {
	suite.clock = clock.NewFakeClock(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	keys := keyring.NewKeyRing(4 * time.Hour)
	codec := tokencodec.NewTokenCodec(testIssuer, suite.clock)
	suite.tokens = tokenservice.NewTokenService(codec, keys, suite.clock, tokenservice.Options{
		Issuer:              testIssuer,
		AccessTokenLifetime: time.Hour,
	})
	suite.refresh = tokenservice.NewJWTRefreshTokenProvider(codec, keys, suite.clock, testIssuer, 24*time.Hour)
	suite.metrics = metrics.NewCollectors()
	suite.auth = NewAuthenticator(suite.tokens, Options{Metrics: suite.metrics})
}

func (suite *BearerTestSuite) aliceTicket() *ticket.Ticket {
	return ticket.NewTicket(ticket.NewPrincipal("Bearer", ticket.NewClaim(ticket.ClaimTypeName, "alice"),
		ticket.NewClaim(ticket.ClaimTypeRole, "admin")), nil)
}

func (suite *BearerTestSuite) accessToken() string {
	issued, err := suite.tokens.IssueAccessToken(suite.aliceTicket())
	suite.Require().NoError(err)
	return issued.Token
}

// serve runs the request through the middleware and returns the principal seen by the handler.
func (suite *BearerTestSuite) serve(auth *Authenticator, req *http.Request) *ticket.Principal {
	var seen *ticket.Principal
	handler := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	suite.Equal(http.StatusNoContent, rr.Code)
	return seen
}

func (suite *BearerTestSuite) TestValidHeaderToken() {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+suite.accessToken())

	principal := suite.serve(suite.auth, req)
	suite.Require().NotNil(principal)
	suite.Equal("alice", principal.Name())
	suite.Equal([]string{"admin"}, principal.Roles())
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.BearerOutcomes.WithLabelValues(OutcomeAuthenticated)))
}

func (suite *BearerTestSuite) TestSchemeIsCaseInsensitive() {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "bearer "+suite.accessToken())
	suite.NotNil(suite.serve(suite.auth, req))
}

func (suite *BearerTestSuite) TestMissingOrInvalidTokenContinuesUnauthenticated() {
	testCases := map[string]string{
		"NoHeader":    "",
		"BasicScheme": "Basic YWxwaGE6YmV0YQ==",
		"Garbage":     "Bearer not-a-token",
	}
	for name, header := range testCases {
		suite.Run(name, func() {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			suite.Nil(suite.serve(suite.auth, req))
		})
	}
}

func (suite *BearerTestSuite) TestExpiredToken() {
	token := suite.accessToken()
	suite.clock.Advance(time.Hour + time.Second)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	suite.Nil(suite.serve(suite.auth, req))
}

func (suite *BearerTestSuite) TestRefreshTokenRejected() {
	issued, err := suite.refresh.CreateRefreshToken(context.Background(), suite.aliceTicket())
	suite.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+issued.Token)
	suite.Nil(suite.serve(suite.auth, req))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.BearerOutcomes.WithLabelValues(OutcomeRefreshToken)))
}

func (suite *BearerTestSuite) TestQueryTokenLocator() {
	auth := NewAuthenticator(suite.tokens, Options{
		TokenLocator: QueryTokenLocator("access_token"),
		Metrics:      suite.metrics,
	})
	req := httptest.NewRequest(http.MethodGet, "/api/me?access_token="+suite.accessToken(), nil)
	suite.NotNil(suite.serve(auth, req))

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+suite.accessToken())
	suite.NotNil(suite.serve(auth, req))
}

func (suite *BearerTestSuite) TestRequireAuthentication() {
	auth := NewAuthenticator(suite.tokens, Options{Realm: "api", Metrics: suite.metrics})
	handler := auth.Middleware(auth.RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter,
		r *http.Request) {
		t, ok := TicketFromContext(r.Context())
		suite.Require().True(ok)
		suite.Equal("alice", t.Principal.Name())
		w.WriteHeader(http.StatusOK)
	})))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/me", nil))
	suite.Equal(http.StatusUnauthorized, rr.Code)
	suite.Equal(`Bearer realm="api"`, rr.Header().Get("WWW-Authenticate"))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer "+suite.accessToken())
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	suite.Equal(http.StatusOK, rr.Code)
}
