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

// Package authserver assembles the authorization server components from the deployment configuration.
package authserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/bearer"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/keyring"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz"
	authzconstants "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/constants"
	authzstore "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/authz/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client"
	clientstore "github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/client/store"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/granthandlers"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/introspect"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/token"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/oauth2/tokenservice"
	"github.com/aspnet/AspNetKatana-sub001/internal/oauth/tokencodec"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/cache"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/clock"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/config"
	dbprovider "github.com/aspnet/AspNetKatana-sub001/internal/system/database/provider"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/metrics"
)

// Options supplies the application parts of the server. Every field is optional.
type Options struct {
	// Provider receives the grant hooks. DefaultProvider is used when nil.
	Provider provider.ServerProviderInterface
	// SignInHandler authenticates the resource owner at the authorization endpoint.
	SignInHandler http.Handler
	Clock         clock.ClockInterface
	Metrics       *metrics.Collectors
	// DBProvider overrides the provider built from the database configuration.
	DBProvider dbprovider.DBProviderInterface
	// RedisClient overrides the client built from the cache configuration.
	RedisClient redis.UniversalClient
}

// Server holds the assembled authorization server components.
type Server struct {
	Config               *config.Config
	Clock                clock.ClockInterface
	Metrics              *metrics.Collectors
	KeyRing              *keyring.KeyRing
	TokenService         *tokenservice.TokenService
	RefreshTokens        tokenservice.RefreshTokenProviderInterface
	ClientValidator      client.ClientValidatorInterface
	CodeStore            authzstore.AuthorizationCodeStoreInterface
	AuthorizeHandler     *authz.AuthorizeHandler
	TokenHandler         token.TokenHandlerInterface
	IntrospectionHandler *introspect.IntrospectionHandler
	Bearer               *bearer.Authenticator
	// Checks are run by the readiness probe.
	Checks map[string]func(ctx context.Context) error

	closers []func() error
}

// New assembles the server components for the configuration.
func New(ctx context.Context, home string, cfg *config.Config, opts Options) (*Server, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuthServer"))

	cfg.ApplyDefaults()
	if opts.Clock == nil {
		opts.Clock = clock.NewSystemClock()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.GetCollectors()
	}
	if opts.Provider == nil {
		opts.Provider = provider.DefaultProvider{}
	}

	s := &Server{
		Config:  cfg,
		Clock:   opts.Clock,
		Metrics: opts.Metrics,
		Checks:  map[string]func(ctx context.Context) error{},
	}

	dbProvider, err := s.databaseProvider(home, cfg, opts)
	if err != nil {
		return nil, err
	}
	redisClient, err := s.redisClient(ctx, cfg, opts)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.KeyRing = keyring.NewKeyRing(cfg.OAuth.JWT.KeyRotationInterval.Std())
	codec := tokencodec.NewTokenCodec(cfg.OAuth.Issuer, opts.Clock)
	trusted, err := trustedIssuers(cfg.OAuth.JWT.TrustedIssuers)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.TokenService = tokenservice.NewTokenService(codec, s.KeyRing, opts.Clock, tokenservice.Options{
		Issuer:              cfg.OAuth.Issuer,
		Audiences:           cfg.OAuth.Audiences,
		AccessTokenLifetime: cfg.OAuth.AccessTokenExpireTimeSpan.Std(),
		TrustedIssuers:      trusted,
	})
	if cfg.OAuth.RefreshToken.Enabled {
		s.RefreshTokens = tokenservice.NewJWTRefreshTokenProvider(codec, s.KeyRing, opts.Clock,
			cfg.OAuth.Issuer, cfg.OAuth.RefreshToken.ValidityPeriod.Std())
	}

	clients, err := clientstore.NewClientStore(cfg.OAuth.ClientRegistry.Store, cfg.OAuth.Clients, dbProvider)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.ClientValidator = client.NewClientValidator(clients, client.ValidatorOptions{
		SuppressPublicClientCredentials: cfg.OAuth.PublicClients.SuppressCredentials,
		StrictCredentialSources:         cfg.OAuth.ClientAuthentication.StrictCredentialSources,
	})

	s.CodeStore, err = authzstore.NewAuthorizationCodeStore(cfg.OAuth.AuthorizationCode.Store, dbProvider,
		redisClient, cfg.Cache.Redis.KeyPrefix, opts.Clock)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.AuthorizeHandler = authz.NewAuthorizeHandler(authz.Dependencies{
		ClientValidator:           s.ClientValidator,
		Provider:                  opts.Provider,
		CodeStore:                 s.CodeStore,
		TokenService:              s.TokenService,
		Clock:                     opts.Clock,
		AuthorizationCodeLifetime: cfg.OAuth.AuthorizationCodeExpireTimeSpan.Std(),
		Next:                      opts.SignInHandler,
		Metrics:                   opts.Metrics,
	})

	s.TokenHandler = token.NewTokenHandler(token.Dependencies{
		ClientValidator: s.ClientValidator,
		GrantHandlers: granthandlers.NewGrantHandlerProvider(granthandlers.Dependencies{
			Provider:                 opts.Provider,
			CodeStore:                s.CodeStore,
			RefreshTokens:            s.RefreshTokens,
			RenewRefreshTokenOnGrant: cfg.OAuth.RefreshToken.RenewOnGrant,
			Clock:                    opts.Clock,
		}),
		Provider:                        opts.Provider,
		TokenService:                    s.TokenService,
		RefreshTokens:                   s.RefreshTokens,
		AllowMissingClientIDForPassword: cfg.OAuth.PasswordGrant.AllowMissingClientID,
		Metrics:                         opts.Metrics,
	})

	s.IntrospectionHandler = introspect.NewIntrospectionHandler(s.ClientValidator, s.TokenService,
		s.RefreshTokens, opts.Metrics)
	s.Bearer = bearer.NewAuthenticator(s.TokenService, bearer.Options{Metrics: opts.Metrics})

	logger.Info("Authorization server assembled",
		log.String("issuer", cfg.OAuth.Issuer),
		log.String("codeStore", cfg.OAuth.AuthorizationCode.Store),
		log.String("clientRegistry", cfg.OAuth.ClientRegistry.Store),
		log.Bool("refreshTokens", cfg.OAuth.RefreshToken.Enabled))
	return s, nil
}

// databaseProvider returns a provider when a configured store needs the database.
func (s *Server) databaseProvider(home string, cfg *config.Config,
	opts Options) (dbprovider.DBProviderInterface, error) {
	needsDB := cfg.OAuth.AuthorizationCode.Store == authzconstants.StoreTypeDatabase ||
		cfg.OAuth.ClientRegistry.Store == clientstore.StoreTypeDatabase
	if !needsDB {
		return nil, nil
	}

	dbProvider := opts.DBProvider
	if dbProvider == nil {
		dbProvider = dbprovider.NewDBProviderWithConfig(home, cfg.Database)
		s.closers = append(s.closers, dbProvider.Close)
	}
	s.Checks["database"] = func(ctx context.Context) error {
		dbClient, err := dbProvider.GetDBClient(dbprovider.RuntimeDB)
		if err != nil {
			return err
		}
		return dbClient.Ping(ctx)
	}
	return dbProvider, nil
}

// redisClient returns a client when the code store lives in redis.
func (s *Server) redisClient(ctx context.Context, cfg *config.Config, opts Options) (redis.UniversalClient, error) {
	if cfg.OAuth.AuthorizationCode.Store != authzconstants.StoreTypeRedis {
		return nil, nil
	}

	redisClient := opts.RedisClient
	if redisClient == nil {
		var err error
		redisClient, err = cache.NewRedisClient(ctx, cfg.Cache.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		s.closers = append(s.closers, redisClient.Close)
	}
	s.Checks["redis"] = func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}
	return redisClient, nil
}

// trustedIssuers builds the verify-only key providers of the configured external issuers.
func trustedIssuers(issuers []config.TrustedIssuer) (map[string]tokencodec.SigningKeyProvider, error) {
	if len(issuers) == 0 {
		return nil, nil
	}
	trusted := make(map[string]tokencodec.SigningKeyProvider, len(issuers))
	for _, issuer := range issuers {
		if issuer.Issuer == "" || len(issuer.Secrets) == 0 {
			return nil, errors.New("trusted issuers require an issuer and at least one secret")
		}
		secrets := make([][]byte, 0, len(issuer.Secrets))
		for _, secret := range issuer.Secrets {
			secrets = append(secrets, []byte(secret))
		}
		trusted[issuer.Issuer] = tokencodec.NewStaticKeyProvider(secrets...)
	}
	return trusted, nil
}

// Close releases the database and redis connections opened by New.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
