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

package provider

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/database/model"
)

type DBProviderTestSuite struct {
	suite.Suite
	home string
}

func TestDBProviderSuite(t *testing.T) {
	suite.Run(t, new(DBProviderTestSuite))
}

func (suite *DBProviderTestSuite) SetupTest() {
	suite.home = suite.T().TempDir()
}

func (suite *DBProviderTestSuite) TestSQLiteClientIsCached() {
	provider := NewDBProviderWithConfig(suite.home, config.DatabaseConfig{
		Runtime: config.DataSource{Type: "sqlite", Path: "runtime.db"},
	})
	defer func() { _ = provider.Close() }()

	first, err := provider.GetDBClient(RuntimeDB)
	require.NoError(suite.T(), err)
	second, err := provider.GetDBClient(RuntimeDB)
	require.NoError(suite.T(), err)

	assert.Same(suite.T(), first, second)
	assert.Equal(suite.T(), "sqlite", first.GetDBType())
	assert.FileExists(suite.T(), filepath.Join(suite.home, "runtime.db"))

	ctx := context.Background()
	_, err = first.Execute(ctx, model.DBQuery{ID: "T-1", Query: "CREATE TABLE T (ID TEXT)"})
	require.NoError(suite.T(), err)
	affected, err := first.Execute(ctx, model.DBQuery{ID: "T-2", Query: "INSERT INTO T (ID) VALUES ($1)"}, "x")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), affected)
}

func (suite *DBProviderTestSuite) TestUnsupportedDatabaseName() {
	provider := NewDBProviderWithConfig(suite.home, config.DatabaseConfig{})

	dbClient, err := provider.GetDBClient("identity")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), dbClient)
}

func (suite *DBProviderTestSuite) TestUnsupportedDatabaseType() {
	provider := NewDBProviderWithConfig(suite.home, config.DatabaseConfig{
		Runtime: config.DataSource{Type: "oracle"},
	})

	dbClient, err := provider.GetDBClient(RuntimeDB)

	assert.ErrorContains(suite.T(), err, "unsupported database type")
	assert.Nil(suite.T(), dbClient)
}
