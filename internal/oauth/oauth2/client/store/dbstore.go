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
	"fmt"
	"strings"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/database/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// DBClientStore looks clients up in the OAUTH_CLIENT table of the runtime database.
type DBClientStore struct {
	DBProvider provider.DBProviderInterface
}

// NewDBClientStore creates a client store over the given database provider.
func NewDBClientStore(dbProvider provider.DBProviderInterface) ClientStoreInterface {
	return &DBClientStore{DBProvider: dbProvider}
}

// GetClient retrieves the client registration from the database.
func (s *DBClientStore) GetClient(ctx context.Context, clientID string) (*model.ClientDetails, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DBClientStore"))

	dbClient, err := s.DBProvider.GetDBClient(provider.RuntimeDB)
	if err != nil {
		logger.Error("Failed to get database client", log.Error(err))
		return nil, err
	}

	results, err := dbClient.Query(ctx, QueryGetClient, clientID)
	if err != nil {
		return nil, fmt.Errorf("error while retrieving client: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrClientNotFound
	}
	row := results[0]

	id, ok := asString(row["client_id"])
	if !ok || id == "" {
		return nil, ErrClientNotFound
	}

	details := &model.ClientDetails{
		ClientID:     id,
		SecretHashed: asBool(row["secret_hashed"]),
	}
	if secret, ok := asString(row["client_secret"]); ok {
		details.ClientSecret = &secret
	}
	if redirectURI, ok := asString(row["redirect_uri"]); ok && redirectURI != "" {
		details.RedirectURI = &redirectURI
	}
	if grantTypes, ok := asString(row["allowed_grant_types"]); ok {
		details.AllowedGrantTypes = utils.ParseStringArray(grantTypes)
	}
	return details, nil
}

// asString reads a nullable text column. NULL reports false.
func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

// asBool reads a boolean column stored either natively or as an integer.
func asBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	default:
		return false
	}
}
