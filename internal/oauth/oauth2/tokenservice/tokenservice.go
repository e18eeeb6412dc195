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

// Package tokenservice mints and validates the access and refresh tokens issued by the server.
package tokenservice

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
)

// ErrRefreshTokenNotAccepted is returned when a refresh token is presented where an access token is expected.
var ErrRefreshTokenNotAccepted = errors.New("refresh tokens are not accepted as access tokens")

// ErrNotRefreshToken is returned when a token presented as a refresh token is not one.
var ErrNotRefreshToken = errors.New("token is not a refresh token")

// Options configures token issuance.
type Options struct {
	Issuer              string
	Audiences           []string
	AccessTokenLifetime time.Duration
	// TrustedIssuers are external issuers whose access tokens are accepted but never minted.
	TrustedIssuers map[string]tokencodec.SigningKeyProvider
}

// IssuedToken is a freshly minted token.
type IssuedToken struct {
	Token     string
	ExpiresIn int64
	ExpiresAt time.Time
}

// TokenServiceInterface defines the access token operations.
type TokenServiceInterface interface {
	IssueAccessToken(t *ticket.Ticket) (*IssuedToken, error)
	ValidateAccessToken(token string) (*ticket.Ticket, error)
	AccessTokenLifetime() time.Duration
}

// TokenService issues access tokens signed with the server's key ring.
type TokenService struct {
	codec      tokencodec.TokenCodecInterface
	keys       tokencodec.SigningKeyProvider
	clock      clock.ClockInterface
	options    Options
	validation tokencodec.ValidationConfig
}

// NewTokenService creates a token service.
func NewTokenService(codec tokencodec.TokenCodecInterface, keys tokencodec.SigningKeyProvider,
	clk clock.ClockInterface, options Options) *TokenService {
	return &TokenService{
		codec:      codec,
		keys:       keys,
		clock:      clk,
		options:    options,
		validation: tokencodec.NewLocalValidationConfig(options.Issuer, options.Audiences, keys, options.TrustedIssuers),
	}
}

// AccessTokenLifetime returns the configured access token lifetime.
func (s *TokenService) AccessTokenLifetime() time.Duration {
	return s.options.AccessTokenLifetime
}

// IssueAccessToken mints an access token for the ticket. The caller's ticket is not modified.
func (s *TokenService) IssueAccessToken(t *ticket.Ticket) (*IssuedToken, error) {
	if t == nil || t.Principal == nil {
		return nil, tokencodec.ErrInvalidArgument
	}
	props := t.Properties.Clone()
	props.SetLifetime(s.clock.Now(), s.options.AccessTokenLifetime)
	props.SetItem(ticket.ItemTokenUse, ticket.TokenUseAccess)
	if props.Item(ticket.ItemAudience) == "" && len(s.options.Audiences) > 0 {
		props.SetItem(ticket.ItemAudience, strings.Join(s.options.Audiences, " "))
	}

	token, err := s.codec.Protect(ticket.NewTicket(t.Principal, props), s.keys)
	if err != nil {
		return nil, fmt.Errorf("failed to protect access token: %w", err)
	}
	return &IssuedToken{
		Token:     token,
		ExpiresIn: int64(s.options.AccessTokenLifetime / time.Second),
		ExpiresAt: *props.ExpiresUTC,
	}, nil
}

// ValidateAccessToken validates an access token and returns its ticket.
func (s *TokenService) ValidateAccessToken(token string) (*ticket.Ticket, error) {
	t, err := s.codec.Unprotect(token, s.validation)
	if err != nil {
		return nil, err
	}
	if t.Properties.Item(ticket.ItemTokenUse) == ticket.TokenUseRefresh {
		return nil, ErrRefreshTokenNotAccepted
	}
	return t, nil
}
