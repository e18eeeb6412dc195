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

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aspnet/AspNetKatana-sub001/internal/cert"
	"github.com/aspnet/AspNetKatana-sub001/internal/managers"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/authserver"
	"github.com/aspnet/AspNetKatana-sub001/internal/services"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	serverconst "github.com/aspnet/AspNetKatana-sub001/internal/system/constants"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	var serverHome string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the authorization server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverHome == "" {
				dir, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("failed to get current working directory: %w", err)
				}
				serverHome = dir
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, serverHome)
		},
	}
	cmd.Flags().StringVar(&serverHome, "home", "", "Path to the server home directory")

	return cmd
}

func serve(ctx context.Context, serverHome string) error {
	logger := log.GetLogger()
	defer logger.Sync()

	cfg, err := config.LoadConfig(filepath.Join(serverHome, serverconst.DeploymentConfigPath))
	if err != nil {
		return fmt.Errorf("failed to load configurations: %w", err)
	}
	if err := config.InitializeServerRuntime(serverHome, cfg); err != nil {
		return fmt.Errorf("failed to initialize server runtime: %w", err)
	}
	serverRuntime := config.GetServerRuntime()

	authn := services.NewAuthenticationService(serverRuntime.Config.OAuth.Users)
	server, err := authserver.New(ctx, serverRuntime.ServerHome, &serverRuntime.Config, authserver.Options{
		Provider:      authn,
		SignInHandler: authn,
	})
	if err != nil {
		return fmt.Errorf("failed to assemble the authorization server: %w", err)
	}
	defer func() {
		if cerr := server.Close(); cerr != nil {
			logger.Error("Failed to release server resources", log.Error(cerr))
		}
	}()

	mux := http.NewServeMux()
	if err := managers.NewServiceManager(mux, server).RegisterServices(); err != nil {
		return fmt.Errorf("failed to register the services: %w", err)
	}

	httpServer := createHTTPServer(logger, &serverRuntime.Config, mux)
	if !serverRuntime.Config.Server.HTTPOnly {
		tlsConfig, err := cert.GetTLSConfig(&serverRuntime.Config, serverRuntime.ServerHome)
		if err != nil {
			return fmt.Errorf("failed to load TLS configuration: %w", err)
		}
		httpServer.TLSConfig = tlsConfig
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listenAndServe(logger, httpServer)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down the authorization server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down gracefully: %w", err)
	}
	return nil
}

func listenAndServe(logger *log.Logger, server *http.Server) error {
	var err error
	if server.TLSConfig != nil {
		listener, lerr := tls.Listen("tcp", server.Addr, server.TLSConfig)
		if lerr != nil {
			return fmt.Errorf("failed to start TLS listener: %w", lerr)
		}
		logger.Info("Authorization server started (HTTPS)", log.String("address", server.Addr))
		err = server.Serve(listener)
	} else {
		logger.Info("TLS is not enabled, starting server without TLS")
		logger.Info("Authorization server started (HTTP)", log.String("address", server.Addr))
		err = server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// createHTTPServer creates and configures an HTTP server with common settings.
func createHTTPServer(logger *log.Logger, cfg *config.Config, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Hostname, cfg.Server.Port),
		Handler:           log.AccessLogHandler(logger, mux),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
