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
	"sync"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
)

// MemoryAuthorizationCodeStore keeps authorization codes in process memory.
type MemoryAuthorizationCodeStore struct {
	mu    sync.Mutex
	codes map[string]model.AuthorizationCode
	clock clock.ClockInterface
}

// NewMemoryAuthorizationCodeStore creates an in-memory authorization code store.
func NewMemoryAuthorizationCodeStore(clk clock.ClockInterface) AuthorizationCodeStoreInterface {
	return &MemoryAuthorizationCodeStore{
		codes: make(map[string]model.AuthorizationCode),
		clock: clk,
	}
}

// InsertAuthorizationCode stores a new authorization code and drops expired ones.
func (s *MemoryAuthorizationCodeStore) InsertAuthorizationCode(ctx context.Context,
	authzCode model.AuthorizationCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for code, stored := range s.codes {
		if stored.IsExpired(now) {
			delete(s.codes, code)
		}
	}
	authzCode.Ticket = append([]byte(nil), authzCode.Ticket...)
	s.codes[authzCode.Code] = authzCode
	return nil
}

// GetAuthorizationCode retrieves an authorization code by its value.
func (s *MemoryAuthorizationCodeStore) GetAuthorizationCode(ctx context.Context,
	code string) (model.AuthorizationCode, error) {
	if err := ctx.Err(); err != nil {
		return model.AuthorizationCode{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.codes[code]
	if !ok {
		return model.AuthorizationCode{}, constants.ErrAuthorizationCodeNotFound
	}
	stored.Ticket = append([]byte(nil), stored.Ticket...)
	return stored, nil
}

// DeactivateAuthorizationCode marks an active code inactive.
func (s *MemoryAuthorizationCodeStore) DeactivateAuthorizationCode(ctx context.Context,
	authzCode model.AuthorizationCode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.codes[authzCode.Code]
	if !ok {
		return constants.ErrAuthorizationCodeNotFound
	}
	if stored.State != constants.AuthCodeStateActive {
		return constants.ErrAuthorizationCodeInactive
	}
	stored.State = constants.AuthCodeStateInactive
	s.codes[authzCode.Code] = stored
	return nil
}
