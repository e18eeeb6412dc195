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
	"fmt"
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
)

// RefreshTokenProviderInterface creates refresh tokens and recovers the ticket they carry.
// The refresh_token grant is unavailable when no provider is configured.
type RefreshTokenProviderInterface interface {
	CreateRefreshToken(ctx context.Context, t *ticket.Ticket) (*IssuedToken, error)
	ReceiveRefreshToken(ctx context.Context, token string) (*ticket.Ticket, error)
}

// JWTRefreshTokenProvider issues self contained refresh tokens with the access token codec.
type JWTRefreshTokenProvider struct {
	codec      tokencodec.TokenCodecInterface
	keys       tokencodec.SigningKeyProvider
	clock      clock.ClockInterface
	lifetime   time.Duration
	validation tokencodec.ValidationConfig
}

// NewJWTRefreshTokenProvider creates a refresh token provider. Only tokens of the local issuer are accepted.
func NewJWTRefreshTokenProvider(codec tokencodec.TokenCodecInterface, keys tokencodec.SigningKeyProvider,
	clk clock.ClockInterface, issuer string, lifetime time.Duration) *JWTRefreshTokenProvider {
	return &JWTRefreshTokenProvider{
		codec:      codec,
		keys:       keys,
		clock:      clk,
		lifetime:   lifetime,
		validation: tokencodec.NewLocalValidationConfig(issuer, nil, keys, nil),
	}
}

// CreateRefreshToken mints a refresh token for the ticket.
func (p *JWTRefreshTokenProvider) CreateRefreshToken(ctx context.Context,
	t *ticket.Ticket) (*IssuedToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t == nil || t.Principal == nil {
		return nil, tokencodec.ErrInvalidArgument
	}
	props := t.Properties.Clone()
	props.SetLifetime(p.clock.Now(), p.lifetime)
	props.SetItem(ticket.ItemTokenUse, ticket.TokenUseRefresh)

	token, err := p.codec.Protect(ticket.NewTicket(t.Principal, props), p.keys)
	if err != nil {
		return nil, fmt.Errorf("failed to protect refresh token: %w", err)
	}
	return &IssuedToken{
		Token:     token,
		ExpiresIn: int64(p.lifetime / time.Second),
		ExpiresAt: *props.ExpiresUTC,
	}, nil
}

// ReceiveRefreshToken validates a refresh token and returns the ticket it was issued for.
func (p *JWTRefreshTokenProvider) ReceiveRefreshToken(ctx context.Context, token string) (*ticket.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := p.codec.Unprotect(token, p.validation)
	if err != nil {
		return nil, err
	}
	if t.Properties.Item(ticket.ItemTokenUse) != ticket.TokenUseRefresh {
		return nil, ErrNotRefreshToken
	}
	return t, nil
}
