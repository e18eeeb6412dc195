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

// Package healthcheck provides the liveness and readiness probes of the server.
package healthcheck

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// Status is the health of the server or one of its dependencies.
type Status string

// Health statuses.
const (
	StatusUp   Status = "UP"
	StatusDown Status = "DOWN"
)

// ServiceStatus is the health of a single dependency.
type ServiceStatus struct {
	ServiceName string `json:"service_name"`
	Status      Status `json:"status"`
}

// ServerStatus is the aggregated readiness of the server.
type ServerStatus struct {
	Status        Status          `json:"status"`
	ServiceStatus []ServiceStatus `json:"service_status"`
}

const checkTimeout = 2 * time.Second

// HealthCheckHandler defines the handler for health check API requests.
type HealthCheckHandler struct {
	checks map[string]func(ctx context.Context) error
}

// NewHealthCheckHandler creates a handler running the given readiness checks.
func NewHealthCheckHandler(checks map[string]func(ctx context.Context) error) *HealthCheckHandler {
	return &HealthCheckHandler{checks: checks}
}

// CheckReadiness runs every check and aggregates the result.
func (h *HealthCheckHandler) CheckReadiness(ctx context.Context) ServerStatus {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "HealthCheckHandler"))

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	serverStatus := ServerStatus{Status: StatusUp, ServiceStatus: make([]ServiceStatus, 0, len(names))}
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := h.checks[name](checkCtx)
		cancel()

		status := StatusUp
		if err != nil {
			logger.Error("Readiness check failed", log.String("service", name), log.Error(err))
			status = StatusDown
			serverStatus.Status = StatusDown
		}
		serverStatus.ServiceStatus = append(serverStatus.ServiceStatus, ServiceStatus{
			ServiceName: name,
			Status:      status,
		})
	}
	return serverStatus
}

// HandleLivenessRequest handles the health check liveness request.
func (h *HealthCheckHandler) HandleLivenessRequest(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HandleReadinessRequest handles the health check readiness request.
func (h *HealthCheckHandler) HandleReadinessRequest(w http.ResponseWriter, r *http.Request) {
	serverStatus := h.CheckReadiness(r.Context())
	statusCode := http.StatusOK
	if serverStatus.Status != StatusUp {
		statusCode = http.StatusServiceUnavailable
	}
	utils.WriteJSON(w, statusCode, serverStatus)
}
