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

package ticket

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidTicketData is returned when serialized ticket data cannot be decoded.
var ErrInvalidTicketData = errors.New("invalid ticket data")

type serializedPrincipal struct {
	AuthenticationType string  `json:"authentication_type"`
	NameClaimType      string  `json:"name_claim_type"`
	RoleClaimType      string  `json:"role_claim_type"`
	Claims             []Claim `json:"claims"`
}

type serializedTicket struct {
	Principal   serializedPrincipal `json:"principal"`
	IssuedUTC   *time.Time          `json:"issued_utc,omitempty"`
	ExpiresUTC  *time.Time          `json:"expires_utc,omitempty"`
	RedirectURI string              `json:"redirect_uri,omitempty"`
	Items       map[string]string   `json:"items,omitempty"`
}

// Serialize encodes the ticket for storage alongside an authorization code.
func Serialize(t *Ticket) ([]byte, error) {
	if t == nil || t.Principal == nil {
		return nil, ErrInvalidTicketData
	}
	props := t.Properties.Clone()
	return json.Marshal(serializedTicket{
		Principal: serializedPrincipal{
			AuthenticationType: t.Principal.authenticationType,
			NameClaimType:      t.Principal.nameClaimType,
			RoleClaimType:      t.Principal.roleClaimType,
			Claims:             t.Principal.Claims(),
		},
		IssuedUTC:   props.IssuedUTC,
		ExpiresUTC:  props.ExpiresUTC,
		RedirectURI: props.RedirectURI,
		Items:       props.Items,
	})
}

// Deserialize decodes a ticket produced by Serialize.
func Deserialize(data []byte) (*Ticket, error) {
	var st serializedTicket
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, errors.Join(ErrInvalidTicketData, err)
	}
	principal := NewPrincipalWithClaimTypes(st.Principal.AuthenticationType, st.Principal.NameClaimType,
		st.Principal.RoleClaimType, st.Principal.Claims...)
	props := &Properties{
		IssuedUTC:   st.IssuedUTC,
		ExpiresUTC:  st.ExpiresUTC,
		RedirectURI: st.RedirectURI,
		Items:       st.Items,
	}
	if props.Items == nil {
		props.Items = map[string]string{}
	}
	return &Ticket{Principal: principal, Properties: props}, nil
}
