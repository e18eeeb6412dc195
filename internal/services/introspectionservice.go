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

	"github.com/aspnet/AspNetKatana-sub001/internal/system/middleware"
)

// IntrospectionService defines the service for handling token introspection requests.
type IntrospectionService struct {
	introspect     http.HandlerFunc
	allowedOrigins []string
}

// NewIntrospectionService creates a new instance of IntrospectionService and registers its routes.
func NewIntrospectionService(mux *http.ServeMux, introspect http.HandlerFunc,
	allowedOrigins []string) ServiceInterface {
	instance := &IntrospectionService{
		introspect:     introspect,
		allowedOrigins: allowedOrigins,
	}
	instance.RegisterRoutes(mux)

	return instance
}

// RegisterRoutes registers the routes for the IntrospectionService.
func (s *IntrospectionService) RegisterRoutes(mux *http.ServeMux) {
	opts := middleware.CORSOptions{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   "POST",
		AllowedHeaders:   "Content-Type, Authorization",
		AllowCredentials: true,
	}

	mux.HandleFunc(middleware.WithCORS("OPTIONS /oauth2/introspect", handleOptions, opts))
	mux.HandleFunc(middleware.WithCORS("POST /oauth2/introspect", s.introspect, opts))
}
