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
	"errors"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
)

var (
	// ErrNoAuthorizeRequest is returned when SignIn or Deny is called outside an authorize request.
	ErrNoAuthorizeRequest = errors.New("no authorize request in context")
	// ErrAuthorizeRequestCompleted is returned when the authorize request was already signed in or denied.
	ErrAuthorizeRequestCompleted = errors.New("authorize request already completed")
)

type signInSlotKey struct{}

// signInSlot carries the decision of the embedded application handler back to the authorize handler.
type signInSlot struct {
	principal   *ticket.Principal
	properties  *ticket.Properties
	denied      bool
	description string
	// request is exposed to the application through RequestFromContext.
	request *AuthorizeRequestInfo
}

func (s *signInSlot) completed() bool {
	return s.principal != nil || s.denied
}

// AuthorizeRequestInfo describes the validated authorize request to the application handler.
type AuthorizeRequestInfo struct {
	ClientID string
	// RedirectURI is where the response is sent. RequestedRedirectURI is the redirect_uri parameter
	// as received, empty when the registered redirect was used.
	RedirectURI          string
	RequestedRedirectURI string
	ResponseType         string
	Scope                string
	State                string
}

func withSignInSlot(ctx context.Context, slot *signInSlot) context.Context {
	return context.WithValue(ctx, signInSlotKey{}, slot)
}

func slotFromContext(ctx context.Context) (*signInSlot, bool) {
	slot, ok := ctx.Value(signInSlotKey{}).(*signInSlot)
	return slot, ok && slot != nil
}

// SignIn completes the authorize request for the principal. The properties are copied.
func SignIn(ctx context.Context, principal *ticket.Principal, props *ticket.Properties) error {
	if principal == nil {
		return errors.New("principal is required")
	}
	slot, ok := slotFromContext(ctx)
	if !ok {
		return ErrNoAuthorizeRequest
	}
	if slot.completed() {
		return ErrAuthorizeRequestCompleted
	}
	slot.principal = principal
	slot.properties = props.Clone()
	return nil
}

// Deny completes the authorize request with an access_denied error.
func Deny(ctx context.Context, description string) error {
	slot, ok := slotFromContext(ctx)
	if !ok {
		return ErrNoAuthorizeRequest
	}
	if slot.completed() {
		return ErrAuthorizeRequestCompleted
	}
	slot.denied = true
	slot.description = description
	return nil
}

// RequestFromContext returns the authorize request being handled, if any.
func RequestFromContext(ctx context.Context) (*AuthorizeRequestInfo, bool) {
	slot, ok := slotFromContext(ctx)
	if !ok || slot.request == nil {
		return nil, false
	}
	info := *slot.request
	return &info, true
}
