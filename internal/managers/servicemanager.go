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

// Package managers wires the HTTP services of the server.
package managers

import (
	"net/http"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/authserver"
	"github.com/aspnet/AspNetKatana-sub001/internal/services"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/healthcheck"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/middleware"
)

// ServiceManagerInterface defines the interface for the service manager.
type ServiceManagerInterface interface {
	RegisterServices() error
}

// ServiceManager registers the services of an assembled authorization server.
type ServiceManager struct {
	mux    *http.ServeMux
	server *authserver.Server
}

// NewServiceManager creates a new instance of ServiceManager.
func NewServiceManager(mux *http.ServeMux, server *authserver.Server) ServiceManagerInterface {
	return &ServiceManager{
		mux:    mux,
		server: server,
	}
}

// RegisterServices registers all the services with the provided HTTP multiplexer.
func (sm *ServiceManager) RegisterServices() error {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ServiceManager"))

	cfg := sm.server.Config
	origins := cfg.CORS.AllowedOrigins
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitOptions{
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	})

	services.NewAuthorizationService(sm.mux, sm.server.AuthorizeHandler, origins)
	services.NewTokenService(sm.mux, sm.server.TokenHandler, rateLimiter, origins)
	services.NewIntrospectionService(sm.mux, sm.server.IntrospectionHandler.HandleIntrospectionRequest, origins)
	services.NewUserInfoService(sm.mux, sm.server.Bearer, origins)
	services.NewHealthCheckService(sm.mux, healthcheck.NewHealthCheckHandler(sm.server.Checks))
	services.NewMetricsService(sm.mux, sm.server.Metrics)

	logger.Debug("Registered services", log.Bool("rateLimited", rateLimiter.Enabled()))
	return nil
}
