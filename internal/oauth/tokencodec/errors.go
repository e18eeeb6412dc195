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

package tokencodec

import "errors"

var (
	// ErrUnsupportedOperation is returned when the key provider cannot sign.
	ErrUnsupportedOperation = errors.New("signing key provider does not support signing")
	// ErrInvalidArgument is returned for a nil ticket or principal, a reserved claim type or an empty token.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedToken is returned when the token is not a well formed JWT.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature is returned when no candidate key verifies the token.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrUnknownIssuer is returned when the token issuer is not a recognized issuer.
	ErrUnknownIssuer = errors.New("unknown token issuer")
	// ErrMissingIssuer is returned when issuer validation is on and the token has no issuer.
	ErrMissingIssuer = errors.New("missing token issuer")
	// ErrInvalidAudience is returned when no token audience matches the accepted audiences.
	ErrInvalidAudience = errors.New("invalid token audience")
	// ErrTokenExpired is returned when the token expiry is before the current time.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenNotYetValid is returned when the token not before time is after the current time.
	ErrTokenNotYetValid = errors.New("token not yet valid")
)
