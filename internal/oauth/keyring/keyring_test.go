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

package keyring

import (
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
)

type KeyRingTestSuite struct {
	suite.Suite
	start time.Time
}

func TestKeyRingSuite(t *testing.T) {
	suite.Run(t, new(KeyRingTestSuite))
}

func (suite *KeyRingTestSuite) SetupTest() {
	suite.start = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
}

func (suite *KeyRingTestSuite) TestFirstAccessGeneratesKey() {
	ring := NewKeyRing(0)

	key := ring.CurrentSigningKey(suite.start)

	assert.NotEmpty(suite.T(), key.KeyID)
	assert.Len(suite.T(), key.Material, 32)
	assert.Equal(suite.T(), suite.start.Add(DefaultRotationInterval), key.ExpiresAt)
	assert.Len(suite.T(), ring.AllKeys(), 1)
	assert.True(suite.T(), ring.CanSign())
}

func (suite *KeyRingTestSuite) TestKeyReusedUntilExpiry() {
	ring := NewKeyRing(time.Hour)

	first := ring.CurrentSigningKey(suite.start)
	sameInstant := ring.CurrentSigningKey(suite.start.Add(time.Hour))
	afterExpiry := ring.CurrentSigningKey(suite.start.Add(time.Hour + time.Nanosecond))

	assert.Equal(suite.T(), first.KeyID, sameInstant.KeyID)
	assert.NotEqual(suite.T(), first.KeyID, afterExpiry.KeyID)
	assert.Len(suite.T(), ring.AllKeys(), 2)

	previous, ok := ring.Key(first.KeyID)
	assert.True(suite.T(), ok)
	assert.Equal(suite.T(), first.Material, previous.Material)
}

func (suite *KeyRingTestSuite) TestRetentionNeverExceedsLimit() {
	ring := NewKeyRing(time.Hour)
	now := suite.start

	var created []SigningKey
	for i := 0; i < 12; i++ {
		created = append(created, ring.CurrentSigningKey(now))
		now = now.Add(time.Hour + time.Minute)

		all := ring.AllKeys()
		assert.LessOrEqual(suite.T(), len(all), MaxRetainedKeys)
		assert.Equal(suite.T(), created[len(created)-1].KeyID, all[0].KeyID, "newest key must be retained")
	}

	all := ring.AllKeys()
	require.Len(suite.T(), all, MaxRetainedKeys)
	for i, k := range all {
		assert.Equal(suite.T(), created[len(created)-1-i].KeyID, k.KeyID)
	}
	_, ok := ring.Key(created[0].KeyID)
	assert.False(suite.T(), ok, "oldest key must be evicted")
}

func (suite *KeyRingTestSuite) TestConcurrentCallersObserveSingleRotation() {
	ring := NewKeyRing(time.Hour)
	before := testutil.ToFloat64(metrics.GetCollectors().KeyRotations)

	const callers = 64
	ids := make([]string, callers)
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			ids[i] = ring.CurrentSigningKey(suite.start).KeyID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(suite.T(), ids[0], id)
	}
	assert.Len(suite.T(), ring.AllKeys(), 1)
	assert.Equal(suite.T(), before+1, testutil.ToFloat64(metrics.GetCollectors().KeyRotations))
}

func (suite *KeyRingTestSuite) TestSnapshotsAreCopies() {
	ring := NewKeyRing(time.Hour)
	key := ring.CurrentSigningKey(suite.start)

	key.Material[0] ^= 0xff
	snapshot := ring.AllKeys()
	snapshot[0].Material[1] ^= 0xff

	fresh, _ := ring.Key(key.KeyID)
	assert.NotEqual(suite.T(), key.Material, fresh.Material)
	assert.NotEqual(suite.T(), snapshot[0].Material, fresh.Material)
}

func (suite *KeyRingTestSuite) TestUnknownKey() {
	ring := NewKeyRing(time.Hour)
	_, ok := ring.Key("missing")
	assert.False(suite.T(), ok)
	assert.True(suite.T(), SigningKey{}.IsZero())
}
