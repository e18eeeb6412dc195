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

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/database/client"
	dbmodel "github.com/aspnet/AspNetKatana-sub001/internal/system/database/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
	"github.com/aspnet/AspNetKatana-sub001/tests/mocks/databasemock"
)

type ClientStoreTestSuite struct {
	suite.Suite
}

func TestClientStoreSuite(t *testing.T) {
	suite.Run(t, new(ClientStoreTestSuite))
}

func (suite *ClientStoreTestSuite) TestConfigStoreReturnsCopies() {
	s := NewConfigClientStore([]config.ClientConfig{
		{
			ClientID:          "alpha",
			ClientSecret:      utils.StringPtr("beta"),
			RedirectURI:       utils.StringPtr("https://gamma.com/return"),
			AllowedGrantTypes: []string{"authorization_code"},
		},
		{ClientID: "public-app"},
	})

	c, err := s.GetClient(context.Background(), "alpha")
	suite.Require().NoError(err)
	suite.Equal("beta", *c.ClientSecret)
	suite.False(c.IsPublic())

	*c.ClientSecret = "mutated"
	c.AllowedGrantTypes[0] = "password"

	again, err := s.GetClient(context.Background(), "alpha")
	suite.Require().NoError(err)
	suite.Equal("beta", *again.ClientSecret)
	suite.Equal([]string{"authorization_code"}, again.AllowedGrantTypes)

	public, err := s.GetClient(context.Background(), "public-app")
	suite.Require().NoError(err)
	suite.True(public.IsPublic())
	suite.Nil(public.RedirectURI)
}

func (suite *ClientStoreTestSuite) TestConfigStoreUnknownClient() {
	s := NewConfigClientStore(nil)
	_, err := s.GetClient(context.Background(), "alpha")
	suite.ErrorIs(err, ErrClientNotFound)
}

func (suite *ClientStoreTestSuite) TestConfigStoreCancelledContext() {
	s := NewConfigClientStore([]config.ClientConfig{{ClientID: "alpha"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.GetClient(ctx, "alpha")
	suite.ErrorIs(err, context.Canceled)
}

func (suite *ClientStoreTestSuite) TestDBStoreConfidentialClient() {
	db, mock, err := sqlmock.New()
	suite.Require().NoError(err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT CLIENT_ID, CLIENT_SECRET").
		WithArgs("alpha").
		WillReturnRows(sqlmock.NewRows(
			[]string{"CLIENT_ID", "CLIENT_SECRET", "SECRET_HASHED", "REDIRECT_URI", "ALLOWED_GRANT_TYPES"}).
			AddRow("alpha", "beta", false, "https://gamma.com/return", "authorization_code refresh_token"))

	s := NewDBClientStore(databasemock.ProviderFor(client.NewDBClient(dbmodel.NewDB(db), "postgres")))
	c, err := s.GetClient(context.Background(), "alpha")
	suite.Require().NoError(err)
	suite.Equal("alpha", c.ClientID)
	suite.Equal("beta", *c.ClientSecret)
	suite.False(c.SecretHashed)
	suite.Equal("https://gamma.com/return", *c.RedirectURI)
	suite.Equal([]string{"authorization_code", "refresh_token"}, c.AllowedGrantTypes)
	suite.NoError(mock.ExpectationsWereMet())
}

func (suite *ClientStoreTestSuite) TestDBStoreCommaSeparatedGrantTypes() {
	db, mock, err := sqlmock.New()
	suite.Require().NoError(err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT CLIENT_ID").
		WithArgs("rs").
		WillReturnRows(sqlmock.NewRows(
			[]string{"CLIENT_ID", "CLIENT_SECRET", "SECRET_HASHED", "REDIRECT_URI", "ALLOWED_GRANT_TYPES"}).
			AddRow("rs", "rs-secret", false, nil, "client_credentials, password"))

	s := NewDBClientStore(databasemock.ProviderFor(client.NewDBClient(dbmodel.NewDB(db), "postgres")))
	c, err := s.GetClient(context.Background(), "rs")
	suite.Require().NoError(err)
	suite.Equal([]string{"client_credentials", "password"}, c.AllowedGrantTypes)
	suite.True(c.IsAllowedGrantType("password"))
	suite.False(c.IsAllowedGrantType("authorization_code"))
	suite.NoError(mock.ExpectationsWereMet())
}

func (suite *ClientStoreTestSuite) TestDBStorePublicClientWithNulls() {
	db, mock, err := sqlmock.New()
	suite.Require().NoError(err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT CLIENT_ID").
		WithArgs("public-app").
		WillReturnRows(sqlmock.NewRows(
			[]string{"CLIENT_ID", "CLIENT_SECRET", "SECRET_HASHED", "REDIRECT_URI", "ALLOWED_GRANT_TYPES"}).
			AddRow("public-app", nil, int64(0), nil, nil))

	s := NewDBClientStore(databasemock.ProviderFor(client.NewDBClient(dbmodel.NewDB(db), "sqlite")))
	c, err := s.GetClient(context.Background(), "public-app")
	suite.Require().NoError(err)
	suite.True(c.IsPublic())
	suite.Nil(c.RedirectURI)
	suite.Empty(c.AllowedGrantTypes)
	suite.NoError(mock.ExpectationsWereMet())
}

func (suite *ClientStoreTestSuite) TestDBStoreHashedSecretAsInteger() {
	mockClient := &databasemock.MockDBClient{
		MockQuery: func(query dbmodel.DBQuery, args ...interface{}) ([]map[string]interface{}, error) {
			return []map[string]interface{}{{
				"client_id":     "alpha",
				"client_secret": []byte("$2a$10$hash"),
				"secret_hashed": int64(1),
			}}, nil
		},
	}
	s := NewDBClientStore(databasemock.ProviderFor(mockClient))
	c, err := s.GetClient(context.Background(), "alpha")
	suite.Require().NoError(err)
	suite.True(c.SecretHashed)
	suite.Equal("$2a$10$hash", *c.ClientSecret)
	suite.Equal("CLQ-00001", mockClient.QueryCalls[0].Query.ID)
}

func (suite *ClientStoreTestSuite) TestDBStoreNotFound() {
	s := NewDBClientStore(databasemock.ProviderFor(&databasemock.MockDBClient{}))
	_, err := s.GetClient(context.Background(), "missing")
	suite.ErrorIs(err, ErrClientNotFound)
}

func (suite *ClientStoreTestSuite) TestDBStoreErrors() {
	providerErr := errors.New("no database")
	s := NewDBClientStore(&databasemock.MockDBProvider{
		MockGetDBClient: func(string) (client.DBClientInterface, error) { return nil, providerErr },
	})
	_, err := s.GetClient(context.Background(), "alpha")
	suite.ErrorIs(err, providerErr)

	queryErr := errors.New("connection reset")
	s = NewDBClientStore(databasemock.ProviderFor(&databasemock.MockDBClient{
		MockQuery: func(dbmodel.DBQuery, ...interface{}) ([]map[string]interface{}, error) { return nil, queryErr },
	}))
	_, err = s.GetClient(context.Background(), "alpha")
	suite.ErrorIs(err, queryErr)
	suite.NotErrorIs(err, ErrClientNotFound)
}

func (suite *ClientStoreTestSuite) TestNewClientStore() {
	s, err := NewClientStore("", nil, nil)
	suite.NoError(err)
	suite.IsType(&ConfigClientStore{}, s)

	_, err = NewClientStore(StoreTypeDatabase, nil, nil)
	suite.Error(err)

	s, err = NewClientStore(StoreTypeDatabase, nil, &databasemock.MockDBProvider{})
	suite.NoError(err)
	suite.IsType(&DBClientStore{}, s)

	_, err = NewClientStore("ldap", nil, nil)
	suite.Error(err)
}
