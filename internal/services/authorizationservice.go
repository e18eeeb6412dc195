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

// AuthorizationService defines the service for handling OAuth2 authorize requests.
type AuthorizationService struct {
	authorizeHandler http.Handler
	allowedOrigins   []string
}

// NewAuthorizationService creates a new instance of AuthorizationService and registers its routes.
func NewAuthorizationService(mux *http.ServeMux, authorizeHandler http.Handler,
	allowedOrigins []string) ServiceInterface {
	instance := &AuthorizationService{
		authorizeHandler: authorizeHandler,
		allowedOrigins:   allowedOrigins,
	}
	instance.RegisterRoutes(mux)

	return instance
}

// RegisterRoutes registers the routes for the AuthorizationService.
func (s *AuthorizationService) RegisterRoutes(mux *http.ServeMux) {
	opts := middleware.CORSOptions{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   "GET, POST",
		AllowedHeaders:   "Content-Type",
		AllowCredentials: true,
	}

	mux.HandleFunc(middleware.WithCORS("GET /oauth2/authorize", s.authorizeHandler.ServeHTTP, opts))
	mux.HandleFunc(middleware.WithCORS("POST /oauth2/authorize", s.authorizeHandler.ServeHTTP, opts))
}
