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

// Package model defines the data structures for OAuth2 authorization.
package model

import (
	"time"
)

// AuthorizationCode represents an issued authorization code and the ticket it was issued for.
type AuthorizationCode struct {
	CodeID      string
	Code        string
	ClientID    string
	RedirectURI string
	// Ticket is the serialized ticket the code redeems to.
	Ticket      []byte
	TimeCreated time.Time
	ExpiryTime  time.Time
	State       string
}

// IsExpired reports whether the code has expired at the given instant.
func (c AuthorizationCode) IsExpired(now time.Time) bool {
	return !c.ExpiryTime.After(now)
}
