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

// Package ticket defines the authenticated identity exchanged between grant handlers and the token codec.
package ticket

import (
	"time"
)

// Well known claim types.
const (
	ClaimTypeName           = "name"
	ClaimTypeRole           = "role"
	ClaimTypeSubject        = "sub"
	ClaimTypeNameIdentifier = "nameid"
)

// Well known property item keys.
const (
	ItemAudience    = "audience"
	ItemClientID    = "client_id"
	ItemTokenUse    = "token_use"
	ItemRedirectURI = "redirect_uri"
	ItemScope       = "scope"
)

// Token use values carried in the ItemTokenUse item.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// DefaultIssuer is the issuer assigned to claims that were not issued by a specific authority.
const DefaultIssuer = "LOCAL AUTHORITY"

// Claim is a (type, value) assertion about a principal tagged with its issuer.
type Claim struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Issuer string `json:"issuer,omitempty"`
}

// NewClaim creates a claim issued by the local authority.
func NewClaim(claimType, value string) Claim {
	return Claim{Type: claimType, Value: value, Issuer: DefaultIssuer}
}

// Principal is an authenticated identity carrying an ordered claim set.
type Principal struct {
	authenticationType string
	nameClaimType      string
	roleClaimType      string
	claims             []Claim
}

// NewPrincipal creates a principal using the canonical name and role claim types.
func NewPrincipal(authenticationType string, claims ...Claim) *Principal {
	return NewPrincipalWithClaimTypes(authenticationType, ClaimTypeName, ClaimTypeRole, claims...)
}

// NewPrincipalWithClaimTypes creates a principal that reads its name and roles from custom claim types.
func NewPrincipalWithClaimTypes(authenticationType, nameClaimType, roleClaimType string,
	claims ...Claim) *Principal {
	if nameClaimType == "" {
		nameClaimType = ClaimTypeName
	}
	if roleClaimType == "" {
		roleClaimType = ClaimTypeRole
	}
	copied := make([]Claim, len(claims))
	copy(copied, claims)
	for i := range copied {
		if copied[i].Issuer == "" {
			copied[i].Issuer = DefaultIssuer
		}
	}
	return &Principal{
		authenticationType: authenticationType,
		nameClaimType:      nameClaimType,
		roleClaimType:      roleClaimType,
		claims:             copied,
	}
}

// AuthenticationType returns the scheme tag of the identity.
func (p *Principal) AuthenticationType() string {
	return p.authenticationType
}

// NameClaimType returns the claim type the principal reads its name from.
func (p *Principal) NameClaimType() string {
	return p.nameClaimType
}

// RoleClaimType returns the claim type the principal reads its roles from.
func (p *Principal) RoleClaimType() string {
	return p.roleClaimType
}

// IsAuthenticated reports whether the principal carries an authentication type.
func (p *Principal) IsAuthenticated() bool {
	return p != nil && p.authenticationType != ""
}

// Claims returns a copy of the claim set.
func (p *Principal) Claims() []Claim {
	copied := make([]Claim, len(p.claims))
	copy(copied, p.claims)
	return copied
}

// FindFirst returns the first claim of the given type.
func (p *Principal) FindFirst(claimType string) (Claim, bool) {
	for _, c := range p.claims {
		if c.Type == claimType {
			return c, true
		}
	}
	return Claim{}, false
}

// FindAll returns every claim of the given type.
func (p *Principal) FindAll(claimType string) []Claim {
	var found []Claim
	for _, c := range p.claims {
		if c.Type == claimType {
			found = append(found, c)
		}
	}
	return found
}

// HasClaim reports whether the principal carries the given claim type and value.
func (p *Principal) HasClaim(claimType, value string) bool {
	for _, c := range p.claims {
		if c.Type == claimType && c.Value == value {
			return true
		}
	}
	return false
}

// Name returns the value of the name claim.
func (p *Principal) Name() string {
	if c, ok := p.FindFirst(p.nameClaimType); ok {
		return c.Value
	}
	return ""
}

// Subject returns the stable subject identifier, falling back to the name identifier and the name.
func (p *Principal) Subject() string {
	for _, claimType := range []string{ClaimTypeSubject, ClaimTypeNameIdentifier} {
		if c, ok := p.FindFirst(claimType); ok {
			return c.Value
		}
	}
	return p.Name()
}

// Roles returns the values of the role claims.
func (p *Principal) Roles() []string {
	roles := []string{}
	for _, c := range p.FindAll(p.roleClaimType) {
		roles = append(roles, c.Value)
	}
	return roles
}

// WithClaims returns a new principal with the given claims appended.
func (p *Principal) WithClaims(claims ...Claim) *Principal {
	return NewPrincipalWithClaimTypes(p.authenticationType, p.nameClaimType, p.roleClaimType,
		append(p.Claims(), claims...)...)
}

// Properties is the session scoped metadata attached to a ticket.
type Properties struct {
	IssuedUTC   *time.Time
	ExpiresUTC  *time.Time
	RedirectURI string
	Items       map[string]string
}

// NewProperties creates an empty property bag.
func NewProperties() *Properties {
	return &Properties{Items: map[string]string{}}
}

// Clone returns a deep copy of the properties.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return NewProperties()
	}
	clone := &Properties{
		RedirectURI: p.RedirectURI,
		Items:       make(map[string]string, len(p.Items)),
	}
	if p.IssuedUTC != nil {
		issued := *p.IssuedUTC
		clone.IssuedUTC = &issued
	}
	if p.ExpiresUTC != nil {
		expires := *p.ExpiresUTC
		clone.ExpiresUTC = &expires
	}
	for k, v := range p.Items {
		clone.Items[k] = v
	}
	return clone
}

// Item returns the value of the given item key.
func (p *Properties) Item(key string) string {
	if p == nil || p.Items == nil {
		return ""
	}
	return p.Items[key]
}

// SetItem sets the value of the given item key.
func (p *Properties) SetItem(key, value string) {
	if p.Items == nil {
		p.Items = map[string]string{}
	}
	p.Items[key] = value
}

// SetLifetime sets the issued and expiry instants in UTC.
func (p *Properties) SetLifetime(issued time.Time, lifetime time.Duration) {
	issuedUTC := issued.UTC()
	expiresUTC := issuedUTC.Add(lifetime)
	p.IssuedUTC = &issuedUTC
	p.ExpiresUTC = &expiresUTC
}

// Ticket pairs a principal with its properties.
type Ticket struct {
	Principal  *Principal
	Properties *Properties
}

// NewTicket creates a ticket over a copy of the given properties.
func NewTicket(principal *Principal, properties *Properties) *Ticket {
	return &Ticket{Principal: principal, Properties: properties.Clone()}
}
