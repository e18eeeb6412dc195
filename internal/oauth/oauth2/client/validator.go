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

// Package client validates client identity, client secrets and redirect URIs for the OAuth2 endpoints.
package client

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

// ValidatorOptions holds the client validation policy.
type ValidatorOptions struct {
	// SuppressPublicClientCredentials rejects public clients that present a secret.
	SuppressPublicClientCredentials bool
	// StrictCredentialSources rejects requests that send credentials in both the header and the body.
	StrictCredentialSources bool
}

// LookupRequest describes a client lookup and the checks to run against the registration.
type LookupRequest struct {
	ClientID         string
	RedirectURI      string
	ClientSecret     string
	ValidateRedirect bool
	ValidateSecret   bool
}

// LookupResult is an accepted client lookup.
type LookupResult struct {
	Client *model.ClientDetails
	// RedirectURI is the effective redirect target when redirect validation was requested.
	RedirectURI string
}

// ClientValidatorInterface defines the client validation operations used by the grant state machine.
type ClientValidatorInterface interface {
	ExtractClientCredentials(r *http.Request) (model.ClientCredentials, *CredentialsError)
	LookupClient(ctx context.Context, req LookupRequest) model.Result[*LookupResult]
	ValidateClientAuthentication(ctx context.Context,
		creds model.ClientCredentials) model.Result[*model.ClientDetails]
}

// ClientValidator validates clients against a client store.
type ClientValidator struct {
	store   store.ClientStoreInterface
	options ValidatorOptions
}

// NewClientValidator creates a validator backed by the given client store.
func NewClientValidator(clientStore store.ClientStoreInterface, options ValidatorOptions) ClientValidatorInterface {
	return &ClientValidator{
		store:   clientStore,
		options: options,
	}
}

// ExtractClientCredentials reads the client credentials from a parsed request using the validator policy.
func (v *ClientValidator) ExtractClientCredentials(r *http.Request) (model.ClientCredentials, *CredentialsError) {
	return ExtractClientCredentials(r, v.options.StrictCredentialSources)
}

// LookupClient resolves the client and optionally validates its redirect URI and secret.
func (v *ClientValidator) LookupClient(ctx context.Context, req LookupRequest) model.Result[*LookupResult] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ClientValidator"))

	if req.ClientID == "" {
		return model.Failed[*LookupResult](constants.ErrorInvalidRequest, "Missing client_id parameter", "")
	}

	client, result := v.getClient(ctx, req.ClientID)
	if !result.IsAccepted() {
		return model.FailedWith[*LookupResult](result.ErrorResponse(constants.ErrorInvalidClient))
	}

	lookup := &LookupResult{Client: client}

	if req.ValidateSecret && !ValidateClientSecret(req.ClientSecret, client.ClientSecret, client.SecretHashed) {
		logger.Debug("Client secret mismatch", log.String("client_id", req.ClientID))
		return model.Failed[*LookupResult](constants.ErrorInvalidClient, "Invalid client credentials", "")
	}

	if req.ValidateRedirect {
		redirect := ValidateRedirectURI(req.RedirectURI, client.RedirectURI)
		if !redirect.IsAccepted() {
			logger.Debug("Redirect URI rejected", log.String("client_id", req.ClientID))
			return model.Failed[*LookupResult](constants.ErrorInvalidRequest, "Invalid redirect_uri", "")
		}
		lookup.RedirectURI = redirect.Payload()
	}

	return model.Accepted(lookup)
}

// ValidateClientAuthentication authenticates the client presenting the given credentials.
func (v *ClientValidator) ValidateClientAuthentication(ctx context.Context,
	creds model.ClientCredentials) model.Result[*model.ClientDetails] {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ClientValidator"))

	if creds.ClientID == "" {
		return model.Failed[*model.ClientDetails](constants.ErrorInvalidClient,
			"Client authentication is required", "")
	}

	client, result := v.getClient(ctx, creds.ClientID)
	if !result.IsAccepted() {
		return result
	}

	if client.IsPublic() {
		if creds.ClientSecret != "" && v.options.SuppressPublicClientCredentials {
			logger.Debug("Public client presented a secret",
				log.String("client_id", creds.ClientID))
			return model.Failed[*model.ClientDetails](constants.ErrorInvalidClient,
				"Public clients must not present a client secret", "")
		}
		return model.Accepted(client)
	}

	if !ValidateClientSecret(creds.ClientSecret, client.ClientSecret, client.SecretHashed) {
		logger.Debug("Client authentication failed", log.String("client_id", creds.ClientID))
		return model.Failed[*model.ClientDetails](constants.ErrorInvalidClient, "Invalid client credentials", "")
	}
	return model.Accepted(client)
}

func (v *ClientValidator) getClient(ctx context.Context,
	clientID string) (*model.ClientDetails, model.Result[*model.ClientDetails]) {
	client, err := v.store.GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrClientNotFound) {
			return nil, model.Failed[*model.ClientDetails](constants.ErrorInvalidClient,
				"Invalid client credentials", "")
		}
		log.GetLogger().Error("Failed to retrieve client", log.String("client_id", clientID),
			log.Error(err))
		return nil, model.Failed[*model.ClientDetails](constants.ErrorServerError,
			"Failed to retrieve client", "")
	}
	return client, model.Accepted(client)
}

// ValidateRedirectURI returns the effective redirect URI for a request.
//
//   - both absent: rejected, no default redirect is permitted
//   - request absent: the registered URI
//   - registered absent: the requested URI
//   - both present: accepted only when equal ignoring case
//
// The effective URI must be absolute and carry no fragment.
func ValidateRedirectURI(requested string, registered *string) model.Result[string] {
	var effective string
	switch {
	case requested == "" && (registered == nil || *registered == ""):
		return model.Rejected[string]()
	case requested == "":
		effective = *registered
	case registered == nil || *registered == "":
		effective = requested
	case strings.EqualFold(requested, *registered):
		effective = requested
	default:
		return model.Rejected[string]()
	}

	parsed, err := url.Parse(effective)
	if err != nil || !parsed.IsAbs() || parsed.Fragment != "" {
		return model.Rejected[string]()
	}
	return model.Accepted(effective)
}

// ValidateClientSecret compares a presented secret with the registered one. Both empty is accepted.
// Hashed registrations are compared with bcrypt, plain ones in constant time.
func ValidateClientSecret(requested string, registered *string, hashed bool) bool {
	stored := ""
	if registered != nil {
		stored = *registered
	}

	if requested == "" && stored == "" {
		return true
	}
	if requested == "" || stored == "" {
		return false
	}
	if hashed {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(requested)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(requested), []byte(stored)) == 1
}
