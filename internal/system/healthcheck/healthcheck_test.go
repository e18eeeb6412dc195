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

package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiveness(t *testing.T) {
	rr := httptest.NewRecorder()
	NewHealthCheckHandler(nil).HandleLivenessRequest(rr, httptest.NewRequest(http.MethodGet, "/health/liveness", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReadinessUp(t *testing.T) {
	handler := NewHealthCheckHandler(map[string]func(ctx context.Context) error{
		"redis": func(context.Context) error { return nil },
	})
	rr := httptest.NewRecorder()
	handler.HandleReadinessRequest(rr, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	var status ServerStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, StatusUp, status.Status)
	assert.Equal(t, []ServiceStatus{{ServiceName: "redis", Status: StatusUp}}, status.ServiceStatus)
}

func TestReadinessDown(t *testing.T) {
	handler := NewHealthCheckHandler(map[string]func(ctx context.Context) error{
		"redis":    func(context.Context) error { return nil },
		"database": func(context.Context) error { return errors.New("connection refused") },
	})
	rr := httptest.NewRecorder()
	handler.HandleReadinessRequest(rr, httptest.NewRequest(http.MethodGet, "/health/readiness", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	var status ServerStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, StatusDown, status.Status)
	assert.Equal(t, "database", status.ServiceStatus[0].ServiceName)
	assert.Equal(t, StatusDown, status.ServiceStatus[0].Status)
	assert.Equal(t, StatusUp, status.ServiceStatus[1].Status)
}
