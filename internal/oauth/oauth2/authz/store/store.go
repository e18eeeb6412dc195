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

// Package store provides functionality for handling authorization code persistence and retrieval.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/database/provider"
)

const loggerComponentName = "AuthorizationCodeStore"

// AuthorizationCodeStoreInterface defines the interface for managing authorization codes.
type AuthorizationCodeStoreInterface interface {
	InsertAuthorizationCode(ctx context.Context, authzCode model.AuthorizationCode) error
	GetAuthorizationCode(ctx context.Context, code string) (model.AuthorizationCode, error)
	// DeactivateAuthorizationCode atomically moves an active code to inactive. Only one caller
	// can succeed for a given code; every other caller gets ErrAuthorizationCodeInactive.
	DeactivateAuthorizationCode(ctx context.Context, authzCode model.AuthorizationCode) error
}

// NewAuthorizationCodeStore creates the store selected by oauth.authorization_code.store.
func NewAuthorizationCodeStore(storeType string, dbProvider provider.DBProviderInterface,
	redisClient redis.UniversalClient, keyPrefix string, clk clock.ClockInterface) (
	AuthorizationCodeStoreInterface, error) {
	switch storeType {
	case "", constants.StoreTypeMemory:
		return NewMemoryAuthorizationCodeStore(clk), nil
	case constants.StoreTypeDatabase:
		if dbProvider == nil {
			return nil, errors.New("database store requires a database provider")
		}
		return NewDBAuthorizationCodeStore(dbProvider), nil
	case constants.StoreTypeRedis:
		if redisClient == nil {
			return nil, errors.New("redis store requires a redis client")
		}
		return NewRedisAuthorizationCodeStore(redisClient, keyPrefix, clk), nil
	default:
		return nil, fmt.Errorf("unsupported authorization code store: %s", storeType)
	}
}
