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

// Package clientstoremock provides a mock client store for testing.
package clientstoremock

import (
	"context"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/model"
)

// MockClientStore is a mock implementation of the ClientStoreInterface.
type MockClientStore struct {
	// Clients are served when MockGetClient is not set.
	Clients map[string]*model.ClientDetails

	// MockGetClient defines the behavior for the GetClient method.
	MockGetClient func(clientID string) (*model.ClientDetails, error)

	// GetClientCalls tracks the arguments passed to GetClient.
	GetClientCalls []string
}

// GetClient mocks the GetClient method of the ClientStoreInterface.
func (m *MockClientStore) GetClient(_ context.Context, clientID string) (*model.ClientDetails, error) {
	m.GetClientCalls = append(m.GetClientCalls, clientID)

	if m.MockGetClient != nil {
		return m.MockGetClient(clientID)
	}
	if c, ok := m.Clients[clientID]; ok {
		return c, nil
	}
	return nil, store.ErrClientNotFound
}
