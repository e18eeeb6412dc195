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

package tokencodec

import (
	"fmt"
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/keyring"
)

// SigningKeyProvider supplies the keys a token is signed or verified with.
type SigningKeyProvider interface {
	CurrentSigningKey(now time.Time) keyring.SigningKey
	AllKeys() []keyring.SigningKey
	CanSign() bool
}

// StaticKeyProvider is a verify only provider over fixed shared secrets of an external issuer.
type StaticKeyProvider struct {
	keys []keyring.SigningKey
}

// NewStaticKeyProvider creates a verify only provider over the given secrets.
func NewStaticKeyProvider(secrets ...[]byte) *StaticKeyProvider {
	keys := make([]keyring.SigningKey, 0, len(secrets))
	for i, secret := range secrets {
		material := make([]byte, len(secret))
		copy(material, secret)
		keys = append(keys, keyring.SigningKey{KeyID: fmt.Sprintf("static-%d", i), Material: material})
	}
	return &StaticKeyProvider{keys: keys}
}

// CurrentSigningKey returns the zero key, static providers never sign.
func (p *StaticKeyProvider) CurrentSigningKey(time.Time) keyring.SigningKey {
	return keyring.SigningKey{}
}

// AllKeys returns the configured verification keys.
func (p *StaticKeyProvider) AllKeys() []keyring.SigningKey {
	keys := make([]keyring.SigningKey, len(p.keys))
	copy(keys, p.keys)
	return keys
}

// CanSign reports false.
func (p *StaticKeyProvider) CanSign() bool {
	return false
}
