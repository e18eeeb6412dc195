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

package tokenservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/keyring"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
)

const (
	testIssuer   = "https://auth.example.com"
	testAudience = "https://api.example.com"
)

type TokenServiceTestSuite struct {
	suite.Suite
	clock   *clock.FakeClock
	ring    *keyring.KeyRing
	codec   *tokencodec.TokenCodec
	service *TokenService
	refresh *JWTRefreshTokenProvider
}

func TestTokenServiceSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceTestSuite))
}

func (suite *TokenServiceTestSuite) SetupTest() {
	suite.clock = clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	suite.ring = keyring.NewKeyRing(time.Hour)
	suite.codec = tokencodec.NewTokenCodec(testIssuer, suite.clock)
	suite.service = NewTokenService(suite.codec, suite.ring, suite.clock, Options{
		Issuer:              testIssuer,
		Audiences:           []string{testAudience},
		AccessTokenLifetime: 655321 * time.Second,
	})
	suite.refresh = NewJWTRefreshTokenProvider(suite.codec, suite.ring, suite.clock, testIssuer, 24*time.Hour)
}

func (suite *TokenServiceTestSuite) newTicket() *ticket.Ticket {
	props := ticket.NewProperties()
	props.SetItem(ticket.ItemClientID, "alpha")
	return ticket.NewTicket(ticket.NewPrincipal("Bearer",
		ticket.NewClaim(ticket.ClaimTypeName, "alice"),
		ticket.NewClaim(ticket.ClaimTypeSubject, "u-1")), props)
}

func (suite *TokenServiceTestSuite) TestIssueAccessToken() {
	original := suite.newTicket()

	issued, err := suite.service.IssueAccessToken(original)
	suite.Require().NoError(err)
	suite.NotEmpty(issued.Token)
	suite.Equal(int64(655321), issued.ExpiresIn)
	suite.True(issued.ExpiresAt.Equal(suite.clock.Now().Add(655321 * time.Second)))

	suite.Nil(original.Properties.ExpiresUTC)
	suite.Empty(original.Properties.Item(ticket.ItemTokenUse))

	t, err := suite.service.ValidateAccessToken(issued.Token)
	suite.Require().NoError(err)
	suite.Equal("alice", t.Principal.Name())
	suite.Equal("u-1", t.Principal.Subject())
	suite.Equal(ticket.TokenUseAccess, t.Properties.Item(ticket.ItemTokenUse))
	suite.Equal(testAudience, t.Properties.Item(ticket.ItemAudience))
	suite.Equal("alpha", t.Properties.Item(ticket.ItemClientID))
}

func (suite *TokenServiceTestSuite) TestIssueAccessTokenRejectsEmptyTicket() {
	_, err := suite.service.IssueAccessToken(nil)
	suite.ErrorIs(err, tokencodec.ErrInvalidArgument)
}

func (suite *TokenServiceTestSuite) TestAccessTokenExpires() {
	issued, err := suite.service.IssueAccessToken(suite.newTicket())
	suite.Require().NoError(err)

	suite.clock.Advance(655322 * time.Second)
	_, err = suite.service.ValidateAccessToken(issued.Token)
	suite.ErrorIs(err, tokencodec.ErrTokenExpired)
}

func (suite *TokenServiceTestSuite) TestRefreshTokenRoundTrip() {
	issued, err := suite.refresh.CreateRefreshToken(context.Background(), suite.newTicket())
	suite.Require().NoError(err)
	suite.Equal(int64(24*60*60), issued.ExpiresIn)

	t, err := suite.refresh.ReceiveRefreshToken(context.Background(), issued.Token)
	suite.Require().NoError(err)
	suite.Equal("alice", t.Principal.Name())
	suite.Equal("alpha", t.Properties.Item(ticket.ItemClientID))
	suite.Equal(ticket.TokenUseRefresh, t.Properties.Item(ticket.ItemTokenUse))
}

func (suite *TokenServiceTestSuite) TestRefreshTokenIsNotAnAccessToken() {
	issued, err := suite.refresh.CreateRefreshToken(context.Background(), suite.newTicket())
	suite.Require().NoError(err)

	_, err = suite.service.ValidateAccessToken(issued.Token)
	suite.ErrorIs(err, ErrRefreshTokenNotAccepted)
}

func (suite *TokenServiceTestSuite) TestAccessTokenIsNotARefreshToken() {
	issued, err := suite.service.IssueAccessToken(suite.newTicket())
	suite.Require().NoError(err)

	_, err = suite.refresh.ReceiveRefreshToken(context.Background(), issued.Token)
	suite.ErrorIs(err, ErrNotRefreshToken)
}

func (suite *TokenServiceTestSuite) TestRefreshTokenExpires() {
	issued, err := suite.refresh.CreateRefreshToken(context.Background(), suite.newTicket())
	suite.Require().NoError(err)

	suite.clock.Advance(25 * time.Hour)
	_, err = suite.refresh.ReceiveRefreshToken(context.Background(), issued.Token)
	suite.ErrorIs(err, tokencodec.ErrTokenExpired)
}

func (suite *TokenServiceTestSuite) TestRefreshTokenCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := suite.refresh.CreateRefreshToken(ctx, suite.newTicket())
	suite.ErrorIs(err, context.Canceled)
}

func (suite *TokenServiceTestSuite) TestTrustedIssuerTokensAreAccepted() {
	partnerKeys := keyring.NewKeyRing(time.Hour)
	partnerCodec := tokencodec.NewTokenCodec("https://partner.example.com", suite.clock)
	service := NewTokenService(suite.codec, suite.ring, suite.clock, Options{
		Issuer:              testIssuer,
		AccessTokenLifetime: time.Hour,
		TrustedIssuers: map[string]tokencodec.SigningKeyProvider{
			"https://partner.example.com": partnerKeys,
		},
	})

	props := ticket.NewProperties()
	props.SetLifetime(suite.clock.Now(), time.Hour)
	token, err := partnerCodec.Protect(ticket.NewTicket(ticket.NewPrincipal("Bearer",
		ticket.NewClaim(ticket.ClaimTypeName, "partner-user")), props), partnerKeys)
	suite.Require().NoError(err)

	t, err := service.ValidateAccessToken(token)
	suite.Require().NoError(err)
	suite.Equal("partner-user", t.Principal.Name())
}
