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

package services

import (
	"net/http"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
)

// MetricsService exposes the Prometheus collectors of the server.
type MetricsService struct {
	collectors *metrics.Collectors
}

// NewMetricsService creates a new instance of MetricsService and registers its routes.
func NewMetricsService(mux *http.ServeMux, collectors *metrics.Collectors) ServiceInterface {
	instance := &MetricsService{collectors: collectors}
	instance.RegisterRoutes(mux)

	return instance
}

// RegisterRoutes registers the routes for the MetricsService.
func (s *MetricsService) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", s.collectors.Handler())
}
