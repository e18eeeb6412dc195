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

// Package store provides the client registries the client validator looks clients up in.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/database/provider"
)

// Client registry kinds selectable through oauth.client_registry.store.
const (
	StoreTypeConfig   = "config"
	StoreTypeDatabase = "database"
)

// ErrClientNotFound is returned when no client is registered under the requested identifier.
var ErrClientNotFound = errors.New("client not found")

// NewClientStore creates the client registry of the given kind.
func NewClientStore(storeType string, clients []config.ClientConfig,
	dbProvider provider.DBProviderInterface) (ClientStoreInterface, error) {
	switch storeType {
	case "", StoreTypeConfig:
		return NewConfigClientStore(clients), nil
	case StoreTypeDatabase:
		if dbProvider == nil {
			return nil, errors.New("database client registry requires a database provider")
		}
		return NewDBClientStore(dbProvider), nil
	default:
		return nil, fmt.Errorf("unsupported client registry: %s", storeType)
	}
}

// ClientStoreInterface resolves a client identifier to its registration.
type ClientStoreInterface interface {
	GetClient(ctx context.Context, clientID string) (*model.ClientDetails, error)
}

// ConfigClientStore serves the clients declared in the deployment configuration.
type ConfigClientStore struct {
	clients map[string]model.ClientDetails
}

// NewConfigClientStore creates a store over the configured clients.
func NewConfigClientStore(clients []config.ClientConfig) ClientStoreInterface {
	registered := make(map[string]model.ClientDetails, len(clients))
	for _, c := range clients {
		registered[c.ClientID] = model.ClientDetails{
			ClientID:          c.ClientID,
			ClientSecret:      copyString(c.ClientSecret),
			RedirectURI:       copyString(c.RedirectURI),
			SecretHashed:      c.SecretHashed,
			AllowedGrantTypes: append([]string(nil), c.AllowedGrantTypes...),
		}
	}
	return &ConfigClientStore{clients: registered}
}

// GetClient returns a copy of the registered client.
func (s *ConfigClientStore) GetClient(ctx context.Context, clientID string) (*model.ClientDetails, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, ok := s.clients[clientID]
	if !ok {
		return nil, ErrClientNotFound
	}
	return &model.ClientDetails{
		ClientID:          c.ClientID,
		ClientSecret:      copyString(c.ClientSecret),
		RedirectURI:       copyString(c.RedirectURI),
		SecretHashed:      c.SecretHashed,
		AllowedGrantTypes: append([]string(nil), c.AllowedGrantTypes...),
	}, nil
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
