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
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/bearer"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/ticket"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/middleware"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

// UserInfoResponse describes the caller of a bearer protected request.
type UserInfoResponse struct {
	Name      string         `json:"name,omitempty"`
	Subject   string         `json:"sub,omitempty"`
	Roles     []string       `json:"roles,omitempty"`
	ClientID  string         `json:"client_id,omitempty"`
	Scope     string         `json:"scope,omitempty"`
	ExpiresAt *time.Time     `json:"expires_at,omitempty"`
	Claims    []ticket.Claim `json:"claims"`
}

// UserInfoService is a resource protected by bearer tokens issued by this server.
type UserInfoService struct {
	authenticator  *bearer.Authenticator
	allowedOrigins []string
}

// NewUserInfoService creates a new instance of UserInfoService and registers its routes.
func NewUserInfoService(mux *http.ServeMux, authenticator *bearer.Authenticator,
	allowedOrigins []string) ServiceInterface {
	instance := &UserInfoService{
		authenticator:  authenticator,
		allowedOrigins: allowedOrigins,
	}
	instance.RegisterRoutes(mux)

	return instance
}

// RegisterRoutes registers the routes for the UserInfoService.
func (s *UserInfoService) RegisterRoutes(mux *http.ServeMux) {
	opts := middleware.CORSOptions{
		AllowedOrigins:   s.allowedOrigins,
		AllowedMethods:   "GET",
		AllowedHeaders:   "Authorization",
		AllowCredentials: true,
	}

	protected := s.authenticator.Middleware(s.authenticator.RequireAuthentication(http.HandlerFunc(s.handleMe)))
	mux.HandleFunc(middleware.WithCORS("OPTIONS /api/me", handleOptions, opts))
	mux.HandleFunc(middleware.WithCORS("GET /api/me", protected.ServeHTTP, opts))
}

func (s *UserInfoService) handleMe(w http.ResponseWriter, r *http.Request) {
	t, _ := bearer.TicketFromContext(r.Context())
	response := UserInfoResponse{
		Name:      t.Principal.Name(),
		Subject:   t.Principal.Subject(),
		Roles:     t.Principal.Roles(),
		ClientID:  t.Properties.Item(ticket.ItemClientID),
		Scope:     t.Properties.Item(ticket.ItemScope),
		ExpiresAt: t.Properties.ExpiresUTC,
		Claims:    t.Principal.Claims(),
	}
	utils.SetNoCacheHeaders(w)
	utils.WriteJSON(w, http.StatusOK, response)
}
