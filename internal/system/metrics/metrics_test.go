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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsRecordAndExpose(t *testing.T) {
	c := NewCollectors()

	c.TokensIssued.WithLabelValues("client_credentials", "access_token").Inc()
	c.OAuthErrors.WithLabelValues("token", "invalid_client").Add(2)
	c.KeyRotations.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(c.TokensIssued.WithLabelValues("client_credentials", "access_token")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.OAuthErrors.WithLabelValues("token", "invalid_client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.KeyRotations))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "oauth_signing_key_rotations_total 1")
}

func TestGetCollectorsIsSingleton(t *testing.T) {
	assert.Same(t, GetCollectors(), GetCollectors())
}
