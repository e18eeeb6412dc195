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

// Package tokencodec encodes authentication tickets to signed JWTs and decodes them back.
package tokencodec

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/keyring"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

// Registered and private claim names written by the codec.
const (
	ClaimIssuer     = "iss"
	ClaimAudience   = "aud"
	ClaimIssuedAt   = "iat"
	ClaimNotBefore  = "nbf"
	ClaimExpiration = "exp"
	ClaimJWTID      = "jti"
	ClaimProperties = "props"
)

// DefaultAuthenticationType tags principals rebuilt from a token.
const DefaultAuthenticationType = "Bearer"

var reservedClaims = map[string]bool{
	ClaimIssuer:     true,
	ClaimAudience:   true,
	ClaimIssuedAt:   true,
	ClaimNotBefore:  true,
	ClaimExpiration: true,
	ClaimJWTID:      true,
	ClaimProperties: true,
}

// regeneratedClaims are rewritten on every Protect and replace any value carried by the ticket.
var regeneratedClaims = map[string]bool{
	ClaimIssuedAt: true,
	ClaimJWTID:    true,
}

// ValidationConfig holds the parameters a token is validated against.
type ValidationConfig struct {
	// Audiences accepted by exact match. Empty disables the audience check.
	Audiences []string
	// ValidateIssuer requires the token issuer to be one of Issuers.
	ValidateIssuer bool
	// Issuers maps each recognized issuer to the provider holding its keys.
	Issuers map[string]SigningKeyProvider
	// AuthenticationType tags the rebuilt principal. Defaults to DefaultAuthenticationType.
	AuthenticationType string
}

// TokenCodecInterface defines the token protection operations.
type TokenCodecInterface interface {
	Protect(t *ticket.Ticket, provider SigningKeyProvider) (string, error)
	Unprotect(token string, cfg ValidationConfig) (*ticket.Ticket, error)
}

// TokenCodec signs tickets as HS256 JWTs on behalf of a single issuer.
type TokenCodec struct {
	issuer string
	clock  clock.ClockInterface
	logger *log.Logger
}

// NewTokenCodec creates a codec stamping tokens with the given issuer.
func NewTokenCodec(issuer string, clk clock.ClockInterface) *TokenCodec {
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &TokenCodec{
		issuer: issuer,
		clock:  clk,
		logger: log.GetLogger().With(log.String(log.LoggerKeyComponentName, "TokenCodec")),
	}
}

// Issuer returns the issuer written into protected tokens.
func (c *TokenCodec) Issuer() string {
	return c.issuer
}

// Protect serializes the ticket into a JWT signed with the provider's current key.
func (c *TokenCodec) Protect(t *ticket.Ticket, provider SigningKeyProvider) (string, error) {
	if provider == nil || !provider.CanSign() {
		return "", ErrUnsupportedOperation
	}
	if t == nil || t.Principal == nil {
		return "", ErrInvalidArgument
	}

	now := c.clock.Now()
	claims := jwt.MapClaims{}
	principal := t.Principal
	for _, cl := range principal.Claims() {
		claimType := canonicalClaimType(principal, cl.Type)
		if regeneratedClaims[claimType] {
			continue
		}
		if reservedClaims[claimType] {
			c.logger.Debug("Rejecting ticket with a reserved claim type", log.String("claimType", claimType))
			return "", fmt.Errorf("%w: claim type %q is reserved", ErrInvalidArgument, claimType)
		}
		appendClaim(claims, claimType, cl.Value)
	}

	claims[ClaimIssuedAt] = UTCToUnix(now)
	claims[ClaimJWTID] = uuid.NewString()
	if c.issuer != "" {
		claims[ClaimIssuer] = c.issuer
	}

	props := t.Properties
	if props != nil {
		if props.IssuedUTC != nil {
			claims[ClaimNotBefore] = UTCToUnix(*props.IssuedUTC)
		}
		if props.ExpiresUTC != nil {
			claims[ClaimExpiration] = UTCToUnix(*props.ExpiresUTC)
		}
		items := map[string]string{}
		for k, v := range props.Items {
			if k == ticket.ItemAudience {
				switch audiences := strings.Fields(v); len(audiences) {
				case 0:
				case 1:
					claims[ClaimAudience] = audiences[0]
				default:
					claims[ClaimAudience] = audiences
				}
				continue
			}
			items[k] = v
		}
		if props.RedirectURI != "" {
			items[ticket.ItemRedirectURI] = props.RedirectURI
		}
		if len(items) > 0 {
			claims[ClaimProperties] = items
		}
	}

	key := provider.CurrentSigningKey(now)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = key.KeyID

	signed, err := token.SignedString(key.Material)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// canonicalClaimType maps the principal's custom name and role claim types to the canonical ones.
func canonicalClaimType(p *ticket.Principal, claimType string) string {
	switch claimType {
	case p.NameClaimType():
		return ticket.ClaimTypeName
	case p.RoleClaimType():
		return ticket.ClaimTypeRole
	default:
		return claimType
	}
}

// appendClaim stores repeated claim types as JSON arrays.
func appendClaim(claims jwt.MapClaims, claimType, value string) {
	existing, ok := claims[claimType]
	if !ok {
		claims[claimType] = value
		return
	}
	switch v := existing.(type) {
	case []string:
		claims[claimType] = append(v, value)
	case string:
		claims[claimType] = []string{v, value}
	}
}

// Unprotect validates the token against the configuration and rebuilds its ticket.
func (c *TokenCodec) Unprotect(token string, cfg ValidationConfig) (*ticket.Ticket, error) {
	if token == "" {
		return nil, ErrInvalidArgument
	}
	if strings.Count(token, ".") != 2 {
		return nil, ErrMalformedToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithJSONNumber(),
		jwt.WithoutClaimsValidation(),
	)

	unverified, _, err := parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	unverifiedClaims, ok := unverified.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrMalformedToken
	}
	issuer, err := unverifiedClaims.GetIssuer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}

	candidates, err := candidateKeys(issuer, cfg)
	if err != nil {
		return nil, err
	}
	if kid, _ := unverified.Header["kid"].(string); kid != "" {
		candidates = preferKey(candidates, kid)
	}

	claims, err := verifyWithCandidates(parser, token, candidates)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if exp, err := claims.GetExpirationTime(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	} else if exp != nil && exp.Before(now) {
		return nil, ErrTokenExpired
	}
	if nbf, err := claims.GetNotBefore(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	} else if nbf != nil && nbf.After(now) {
		return nil, ErrTokenNotYetValid
	}

	audiences, err := claims.GetAudience()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
	}
	if len(cfg.Audiences) > 0 && !audienceMatches(audiences, cfg.Audiences) {
		return nil, ErrInvalidAudience
	}

	return rebuildTicket(claims, issuer, audiences, cfg.AuthenticationType)
}

// candidateKeys selects the verification keys for the token issuer.
func candidateKeys(issuer string, cfg ValidationConfig) ([]keyring.SigningKey, error) {
	if cfg.ValidateIssuer {
		if issuer == "" {
			return nil, ErrMissingIssuer
		}
		provider, ok := cfg.Issuers[issuer]
		if !ok || provider == nil {
			return nil, ErrUnknownIssuer
		}
		return provider.AllKeys(), nil
	}

	issuers := make([]string, 0, len(cfg.Issuers))
	for name := range cfg.Issuers {
		issuers = append(issuers, name)
	}
	sort.Strings(issuers)

	var keys []keyring.SigningKey
	for _, name := range issuers {
		if provider := cfg.Issuers[name]; provider != nil {
			keys = append(keys, provider.AllKeys()...)
		}
	}
	return keys, nil
}

// preferKey moves the key with the given identifier to the front.
func preferKey(keys []keyring.SigningKey, kid string) []keyring.SigningKey {
	for i, k := range keys {
		if k.KeyID == kid && i > 0 {
			ordered := make([]keyring.SigningKey, 0, len(keys))
			ordered = append(ordered, k)
			ordered = append(ordered, keys[:i]...)
			return append(ordered, keys[i+1:]...)
		}
	}
	return keys
}

// verifyWithCandidates returns the claims of the first key that verifies the signature.
func verifyWithCandidates(parser *jwt.Parser, token string, keys []keyring.SigningKey) (jwt.MapClaims, error) {
	for _, key := range keys {
		material := key.Material
		parsed, err := parser.Parse(token, func(*jwt.Token) (interface{}, error) {
			return material, nil
		})
		if err != nil {
			if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrTokenUnverifiable) {
				continue
			}
			if errors.Is(err, jwt.ErrTokenMalformed) {
				return nil, fmt.Errorf("%w: %w", ErrMalformedToken, err)
			}
			continue
		}
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			return claims, nil
		}
	}
	return nil, ErrInvalidSignature
}

func audienceMatches(tokenAudiences, accepted []string) bool {
	for _, aud := range tokenAudiences {
		for _, allowed := range accepted {
			if aud == allowed {
				return true
			}
		}
	}
	return false
}

// rebuildTicket reconstructs the principal and properties from verified claims.
func rebuildTicket(claims jwt.MapClaims, issuer string, audiences []string,
	authenticationType string) (*ticket.Ticket, error) {
	if authenticationType == "" {
		authenticationType = DefaultAuthenticationType
	}
	claimIssuer := issuer
	if claimIssuer == "" {
		claimIssuer = ticket.DefaultIssuer
	}

	names := make([]string, 0, len(claims))
	for name := range claims {
		names = append(names, name)
	}
	sort.Strings(names)

	var principalClaims []ticket.Claim
	for _, name := range names {
		if name == ClaimIssuer || name == ClaimAudience || name == ClaimNotBefore ||
			name == ClaimExpiration || name == ClaimProperties {
			continue
		}
		for _, value := range claimValues(claims[name]) {
			principalClaims = append(principalClaims, ticket.Claim{Type: name, Value: value, Issuer: claimIssuer})
		}
	}

	props := ticket.NewProperties()
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		issued := UnixToUTC(iat.Unix())
		props.IssuedUTC = &issued
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expires := UnixToUTC(exp.Unix())
		props.ExpiresUTC = &expires
	}
	if len(audiences) > 0 {
		props.SetItem(ticket.ItemAudience, strings.Join(audiences, " "))
	}
	if raw, ok := claims[ClaimProperties].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				props.SetItem(k, s)
			}
		}
	}
	props.RedirectURI = props.Item(ticket.ItemRedirectURI)

	principal := ticket.NewPrincipal(authenticationType, principalClaims...)
	return &ticket.Ticket{Principal: principal, Properties: props}, nil
}

// claimValues flattens a decoded claim value into strings, fanning arrays out.
func claimValues(raw interface{}) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case json.Number:
		return []string{v.String()}
	case bool:
		return []string{strconv.FormatBool(v)}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case []interface{}:
		var values []string
		for _, item := range v {
			values = append(values, claimValues(item)...)
		}
		return values
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return []string{string(encoded)}
	}
}

// NewLocalValidationConfig returns a configuration that accepts tokens of the local issuer.
func NewLocalValidationConfig(issuer string, audiences []string, provider SigningKeyProvider,
	trusted map[string]SigningKeyProvider) ValidationConfig {
	issuers := map[string]SigningKeyProvider{issuer: provider}
	for name, p := range trusted {
		issuers[name] = p
	}
	return ValidationConfig{
		Audiences:      audiences,
		ValidateIssuer: issuer != "",
		Issuers:        issuers,
	}
}
