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

// Package keyring provides the rotating set of symmetric keys used to sign self contained tokens.
package keyring

import (
	"crypto/rand"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
)

const (
	// MaxRetainedKeys is the number of keys kept for verification after rotation.
	MaxRetainedKeys = 5
	// DefaultRotationInterval is the lifetime of a freshly generated signing key.
	DefaultRotationInterval = 4 * time.Hour
	// keySizeBytes gives 256 bit keys, the HS256 block size.
	keySizeBytes = 32
)

// SigningKey is a symmetric signing key with its identifier and expiry.
type SigningKey struct {
	KeyID     string
	Material  []byte
	ExpiresAt time.Time
}

// IsZero reports whether the key is unset.
func (k SigningKey) IsZero() bool {
	return k.KeyID == "" && len(k.Material) == 0
}

func (k SigningKey) clone() SigningKey {
	material := make([]byte, len(k.Material))
	copy(material, k.Material)
	return SigningKey{KeyID: k.KeyID, Material: material, ExpiresAt: k.ExpiresAt}
}

// KeyRingInterface defines the operations of a signing key ring.
type KeyRingInterface interface {
	CurrentSigningKey(now time.Time) SigningKey
	AllKeys() []SigningKey
	Key(keyID string) (SigningKey, bool)
	CanSign() bool
}

// KeyRing holds up to MaxRetainedKeys keys and lazily rotates the current one once it expires.
type KeyRing struct {
	mu               sync.RWMutex
	keys             map[string]SigningKey
	currentKeyID     string
	rotationInterval time.Duration
	logger           *log.Logger
}

// NewKeyRing creates an empty key ring. A non positive interval selects DefaultRotationInterval.
func NewKeyRing(rotationInterval time.Duration) *KeyRing {
	if rotationInterval <= 0 {
		rotationInterval = DefaultRotationInterval
	}
	return &KeyRing{
		keys:             make(map[string]SigningKey, MaxRetainedKeys+1),
		rotationInterval: rotationInterval,
		logger:           log.GetLogger().With(log.String(log.LoggerKeyComponentName, "SigningKeyRing")),
	}
}

// RotationInterval returns the lifetime given to new keys.
func (r *KeyRing) RotationInterval() time.Duration {
	return r.rotationInterval
}

// CanSign reports that the ring owns key material it may sign with.
func (r *KeyRing) CanSign() bool {
	return true
}

// CurrentSigningKey returns the current key, rotating first when it is absent or expired at now.
func (r *KeyRing) CurrentSigningKey(now time.Time) SigningKey {
	r.mu.RLock()
	current, ok := r.keys[r.currentKeyID]
	r.mu.RUnlock()
	if ok && !current.ExpiresAt.Before(now) {
		return current.clone()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have rotated while the write lock was awaited.
	current, ok = r.keys[r.currentKeyID]
	if ok && !current.ExpiresAt.Before(now) {
		return current.clone()
	}
	return r.rotate(now).clone()
}

// rotate must be called with the write lock held.
func (r *KeyRing) rotate(now time.Time) SigningKey {
	material := make([]byte, keySizeBytes)
	if _, err := rand.Read(material); err != nil {
		panic("failed to generate signing key material: " + err.Error())
	}

	key := SigningKey{
		KeyID:     ulid.Make().String(),
		Material:  material,
		ExpiresAt: now.UTC().Add(r.rotationInterval),
	}
	r.keys[key.KeyID] = key
	r.currentKeyID = key.KeyID

	for len(r.keys) > MaxRetainedKeys {
		r.evictEarliest()
	}

	metrics.GetCollectors().KeyRotations.Inc()
	r.logger.Info("Rotated signing key", log.String("keyId", key.KeyID),
		log.String("expiresAt", key.ExpiresAt.Format(time.RFC3339)), log.Int("retained", len(r.keys)))
	return key
}

// evictEarliest must be called with the write lock held. The current key is never evicted.
func (r *KeyRing) evictEarliest() {
	var evictID string
	var earliest time.Time
	for id, k := range r.keys {
		if id == r.currentKeyID {
			continue
		}
		if evictID == "" || k.ExpiresAt.Before(earliest) {
			evictID = id
			earliest = k.ExpiresAt
		}
	}
	delete(r.keys, evictID)
	r.logger.Debug("Evicted signing key", log.String("keyId", evictID))
}

// AllKeys returns a snapshot of the retained keys, newest first.
func (r *KeyRing) AllKeys() []SigningKey {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]SigningKey, 0, len(r.keys))
	for _, k := range r.keys {
		keys = append(keys, k.clone())
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].ExpiresAt.After(keys[j].ExpiresAt)
	})
	return keys
}

// Key returns the retained key with the given identifier.
func (r *KeyRing) Key(keyID string) (SigningKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	k, ok := r.keys[keyID]
	if !ok {
		return SigningKey{}, false
	}
	return k.clone(), true
}
