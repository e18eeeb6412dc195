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
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/model"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

// Redis key types.
const (
	keyTypeAuthCode       = "authz_code"
	keyTypeAuthCodeActive = "authz_code_active"
)

// minimumCodeTTL keeps already expired codes around long enough to report them as expired.
const minimumCodeTTL = time.Minute

// RedisAuthorizationCodeStore keeps authorization codes in redis. The code record and its
// active marker are separate keys; deleting the marker is the single-use consumption.
type RedisAuthorizationCodeStore struct {
	client    redis.UniversalClient
	keyPrefix string
	clock     clock.ClockInterface
}

type redisAuthorizationCode struct {
	CodeID      string    `json:"code_id"`
	Code        string    `json:"code"`
	ClientID    string    `json:"client_id"`
	RedirectURI string    `json:"redirect_uri,omitempty"`
	Ticket      []byte    `json:"ticket"`
	TimeCreated time.Time `json:"time_created"`
	ExpiryTime  time.Time `json:"expiry_time"`
}

// NewRedisAuthorizationCodeStore creates a redis backed authorization code store.
func NewRedisAuthorizationCodeStore(client redis.UniversalClient, keyPrefix string,
	clk clock.ClockInterface) AuthorizationCodeStoreInterface {
	return &RedisAuthorizationCodeStore{
		client:    client,
		keyPrefix: keyPrefix,
		clock:     clk,
	}
}

func (s *RedisAuthorizationCodeStore) key(keyType, code string) string {
	return s.keyPrefix + keyType + ":" + code
}

// InsertAuthorizationCode stores the code record and its active marker with the code lifetime as TTL.
func (s *RedisAuthorizationCodeStore) InsertAuthorizationCode(ctx context.Context,
	authzCode model.AuthorizationCode) error {
	data, err := json.Marshal(redisAuthorizationCode{
		CodeID:      authzCode.CodeID,
		Code:        authzCode.Code,
		ClientID:    authzCode.ClientID,
		RedirectURI: authzCode.RedirectURI,
		Ticket:      authzCode.Ticket,
		TimeCreated: authzCode.TimeCreated.UTC(),
		ExpiryTime:  authzCode.ExpiryTime.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal authorization code: %w", err)
	}

	ttl := authzCode.ExpiryTime.Sub(s.clock.Now())
	if ttl < minimumCodeTTL {
		ttl = minimumCodeTTL
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(keyTypeAuthCode, authzCode.Code), data, ttl)
		if authzCode.State == constants.AuthCodeStateActive {
			pipe.Set(ctx, s.key(keyTypeAuthCodeActive, authzCode.Code), authzCode.CodeID, ttl)
		}
		return nil
	})
	if err != nil {
		log.GetLogger().With(log.String(log.LoggerKeyComponentName, loggerComponentName)).
			Error("Failed to store authorization code", log.Error(err))
		return fmt.Errorf("failed to store authorization code: %w", err)
	}
	return nil
}

// GetAuthorizationCode retrieves an authorization code by its value.
func (s *RedisAuthorizationCodeStore) GetAuthorizationCode(ctx context.Context,
	code string) (model.AuthorizationCode, error) {
	data, err := s.client.Get(ctx, s.key(keyTypeAuthCode, code)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.AuthorizationCode{}, constants.ErrAuthorizationCodeNotFound
		}
		return model.AuthorizationCode{}, fmt.Errorf("failed to get authorization code: %w", err)
	}

	var stored redisAuthorizationCode
	if err := json.Unmarshal(data, &stored); err != nil {
		return model.AuthorizationCode{}, fmt.Errorf("failed to unmarshal authorization code: %w", err)
	}

	active, err := s.client.Exists(ctx, s.key(keyTypeAuthCodeActive, code)).Result()
	if err != nil {
		return model.AuthorizationCode{}, fmt.Errorf("failed to check authorization code state: %w", err)
	}
	state := constants.AuthCodeStateInactive
	if active > 0 {
		state = constants.AuthCodeStateActive
	}

	return model.AuthorizationCode{
		CodeID:      stored.CodeID,
		Code:        stored.Code,
		ClientID:    stored.ClientID,
		RedirectURI: stored.RedirectURI,
		Ticket:      stored.Ticket,
		TimeCreated: stored.TimeCreated,
		ExpiryTime:  stored.ExpiryTime,
		State:       state,
	}, nil
}

// DeactivateAuthorizationCode deletes the active marker. Only the caller whose DEL removed it wins.
func (s *RedisAuthorizationCodeStore) DeactivateAuthorizationCode(ctx context.Context,
	authzCode model.AuthorizationCode) error {
	removed, err := s.client.Del(ctx, s.key(keyTypeAuthCodeActive, authzCode.Code)).Result()
	if err != nil {
		return fmt.Errorf("failed to deactivate authorization code: %w", err)
	}
	if removed != 1 {
		return constants.ErrAuthorizationCodeInactive
	}
	return nil
}
