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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type TicketTestSuite struct {
	suite.Suite
}

func TestTicketSuite(t *testing.T) {
	suite.Run(t, new(TicketTestSuite))
}

func (suite *TicketTestSuite) TestPrincipalAccessors() {
	p := NewPrincipal("Bearer",
		NewClaim(ClaimTypeName, "alice"),
		NewClaim(ClaimTypeRole, "admin"),
		NewClaim(ClaimTypeRole, "user"),
		Claim{Type: "email", Value: "alice@example.com", Issuer: "idp"},
	)

	assert.True(suite.T(), p.IsAuthenticated())
	assert.Equal(suite.T(), "alice", p.Name())
	assert.Equal(suite.T(), "alice", p.Subject())
	assert.Equal(suite.T(), []string{"admin", "user"}, p.Roles())
	assert.True(suite.T(), p.HasClaim(ClaimTypeRole, "admin"))
	assert.False(suite.T(), p.HasClaim(ClaimTypeRole, "root"))

	email, ok := p.FindFirst("email")
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), "idp", email.Issuer)
	name, _ := p.FindFirst(ClaimTypeName)
	assert.Equal(suite.T(), DefaultIssuer, name.Issuer)
}

func (suite *TicketTestSuite) TestSubjectPrefersSubClaim() {
	p := NewPrincipal("Bearer", NewClaim(ClaimTypeName, "alice"), NewClaim(ClaimTypeSubject, "u-1"))
	assert.Equal(suite.T(), "u-1", p.Subject())
}

func (suite *TicketTestSuite) TestCustomClaimTypes() {
	p := NewPrincipalWithClaimTypes("Bearer", "upn", "group",
		NewClaim("upn", "bob@corp"), NewClaim("group", "ops"))

	assert.Equal(suite.T(), "bob@corp", p.Name())
	assert.Equal(suite.T(), []string{"ops"}, p.Roles())
	assert.Equal(suite.T(), "upn", p.NameClaimType())
}

func (suite *TicketTestSuite) TestPrincipalIsImmutable() {
	claims := []Claim{NewClaim(ClaimTypeName, "alice")}
	p := NewPrincipal("Bearer", claims...)

	claims[0].Value = "mallory"
	returned := p.Claims()
	returned[0].Value = "eve"

	assert.Equal(suite.T(), "alice", p.Name())

	extended := p.WithClaims(NewClaim(ClaimTypeRole, "admin"))
	assert.Len(suite.T(), p.Claims(), 1)
	assert.Len(suite.T(), extended.Claims(), 2)
}

func (suite *TicketTestSuite) TestUnauthenticatedPrincipal() {
	var nilPrincipal *Principal
	assert.False(suite.T(), nilPrincipal.IsAuthenticated())
	assert.False(suite.T(), NewPrincipal("").IsAuthenticated())
}

func (suite *TicketTestSuite) TestPropertiesClone() {
	props := NewProperties()
	props.SetLifetime(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), time.Hour)
	props.SetItem(ItemAudience, "api")
	props.RedirectURI = "https://gamma.com/return"

	clone := props.Clone()
	clone.SetItem(ItemAudience, "other")
	*clone.ExpiresUTC = clone.ExpiresUTC.Add(time.Hour)

	assert.Equal(suite.T(), "api", props.Item(ItemAudience))
	assert.Equal(suite.T(), time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC), *props.ExpiresUTC)
	assert.Equal(suite.T(), props.RedirectURI, clone.RedirectURI)
}

func (suite *TicketTestSuite) TestNilPropertiesClone() {
	var props *Properties
	clone := props.Clone()

	assert.NotNil(suite.T(), clone)
	assert.Empty(suite.T(), clone.Item(ItemClientID))
}

func (suite *TicketTestSuite) TestNewTicketCopiesProperties() {
	props := NewProperties()
	props.SetItem(ItemClientID, "alpha")

	t := NewTicket(NewPrincipal("Bearer"), props)
	props.SetItem(ItemClientID, "beta")

	assert.Equal(suite.T(), "alpha", t.Properties.Item(ItemClientID))
}
