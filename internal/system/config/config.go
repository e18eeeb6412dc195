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

// Package config provides structures and functions for loading and managing server configurations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"

	yaml "gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from Go duration strings such as "4h" or "655321s".
type Duration time.Duration

// UnmarshalYAML decodes a duration string. Bare integers are read as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("invalid duration %q", raw)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

// MarshalYAML encodes the duration as a Go duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig holds the server configuration details.
type ServerConfig struct {
	Hostname string `yaml:"hostname"`
	Port     int    `yaml:"port"`
	HTTPOnly bool   `yaml:"http_only"`
}

// SecurityConfig holds the security configuration details.
type SecurityConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DataSource holds the individual database connection details.
type DataSource struct {
	Type            string `yaml:"type"`
	Hostname        string `yaml:"hostname"`
	Port            int    `yaml:"port"`
	Name            string `yaml:"name"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	SSLMode         string `yaml:"sslmode"`
	Path            string `yaml:"path"`
	Options         string `yaml:"options"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"`
}

// DatabaseConfig holds the different database configuration details.
type DatabaseConfig struct {
	Runtime DataSource `yaml:"runtime"`
}

// RedisConfig holds the redis connection details.
type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// CacheConfig holds the cache configuration details.
type CacheConfig struct {
	Redis RedisConfig `yaml:"redis"`
}

// RefreshTokenConfig holds the refresh token configuration details.
type RefreshTokenConfig struct {
	Enabled        bool     `yaml:"enabled"`
	ValidityPeriod Duration `yaml:"validity_period"`
	RenewOnGrant   bool     `yaml:"renew_on_grant"`
}

// TrustedIssuer holds a verify-only issuer and its shared signing secrets.
type TrustedIssuer struct {
	Issuer  string   `yaml:"issuer"`
	Secrets []string `yaml:"secrets"`
}

// JWTConfig holds the JWT configuration details.
type JWTConfig struct {
	KeyRotationInterval Duration        `yaml:"key_rotation_interval"`
	TrustedIssuers      []TrustedIssuer `yaml:"trusted_issuers"`
}

// PublicClientConfig holds the policy applied to clients without a registered secret.
type PublicClientConfig struct {
	SuppressCredentials bool `yaml:"suppress_credentials"`
}

// ClientAuthenticationConfig holds the policy for reading client credentials from token requests.
type ClientAuthenticationConfig struct {
	StrictCredentialSources bool `yaml:"strict_credential_sources"`
}

// PasswordGrantConfig holds the resource owner password grant policy.
type PasswordGrantConfig struct {
	AllowMissingClientID bool `yaml:"allow_missing_client_id"`
}

// AuthorizationCodeConfig holds the authorization code store configuration.
type AuthorizationCodeConfig struct {
	Store string `yaml:"store"`
}

// ClientConfig holds a statically registered OAuth client.
type ClientConfig struct {
	ClientID          string   `yaml:"client_id"`
	ClientSecret      *string  `yaml:"client_secret"`
	SecretHashed      bool     `yaml:"secret_hashed"`
	RedirectURI       *string  `yaml:"redirect_uri"`
	AllowedGrantTypes []string `yaml:"allowed_grant_types"`
}

// UserConfig holds a resource owner accepted by the bundled sign-in page and the password grant.
type UserConfig struct {
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	PasswordHashed bool     `yaml:"password_hashed"`
	Roles          []string `yaml:"roles"`
}

// ClientRegistryConfig selects where clients are looked up.
type ClientRegistryConfig struct {
	Store string `yaml:"store"`
}

// OAuthConfig holds the OAuth configuration details.
type OAuthConfig struct {
	Issuer                          string                     `yaml:"issuer"`
	Audiences                       []string                   `yaml:"audiences"`
	AllowInsecureHTTP               bool                       `yaml:"allow_insecure_http"`
	AccessTokenExpireTimeSpan       Duration                   `yaml:"access_token_expire_time_span"`
	AuthorizationCodeExpireTimeSpan Duration                   `yaml:"authorization_code_expire_time_span"`
	RefreshToken                    RefreshTokenConfig         `yaml:"refresh_token"`
	JWT                             JWTConfig                  `yaml:"jwt"`
	PublicClients                   PublicClientConfig         `yaml:"public_clients"`
	ClientAuthentication            ClientAuthenticationConfig `yaml:"client_authentication"`
	PasswordGrant                   PasswordGrantConfig        `yaml:"password_grant"`
	AuthorizationCode               AuthorizationCodeConfig    `yaml:"authorization_code"`
	ClientRegistry                  ClientRegistryConfig       `yaml:"client_registry"`
	Clients                         []ClientConfig             `yaml:"clients"`
	Users                           []UserConfig               `yaml:"users"`
}

// RateLimitConfig holds the token endpoint rate limit configuration.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// CORSConfig holds the configuration details for Cross-Origin Resource Sharing.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Config holds the complete configuration details of the server.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Database  DatabaseConfig  `yaml:"database"`
	Cache     CacheConfig     `yaml:"cache"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
}

// Default values applied when the deployment configuration leaves a setting out.
const (
	DefaultAccessTokenExpireTimeSpan       = 20 * time.Minute
	DefaultAuthorizationCodeExpireTimeSpan = 5 * time.Minute
	DefaultRefreshTokenValidityPeriod      = 14 * 24 * time.Hour
	DefaultKeyRotationInterval             = 4 * time.Hour
	DefaultCodeStore                       = "memory"
	DefaultClientStore                     = "config"
)

// LoadConfig loads the configurations from the specified YAML file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	path = filepath.Clean(path)

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if ferr := file.Close(); ferr != nil {
			log.GetLogger().Error("Failed to close config file", log.Error(ferr))
		}
	}()

	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// ApplyDefaults fills unset OAuth settings with their default values.
func (c *Config) ApplyDefaults() {
	if c.OAuth.AccessTokenExpireTimeSpan == 0 {
		c.OAuth.AccessTokenExpireTimeSpan = Duration(DefaultAccessTokenExpireTimeSpan)
	}
	if c.OAuth.AuthorizationCodeExpireTimeSpan == 0 {
		c.OAuth.AuthorizationCodeExpireTimeSpan = Duration(DefaultAuthorizationCodeExpireTimeSpan)
	}
	if c.OAuth.RefreshToken.ValidityPeriod == 0 {
		c.OAuth.RefreshToken.ValidityPeriod = Duration(DefaultRefreshTokenValidityPeriod)
	}
	if c.OAuth.JWT.KeyRotationInterval == 0 {
		c.OAuth.JWT.KeyRotationInterval = Duration(DefaultKeyRotationInterval)
	}
	if c.OAuth.AuthorizationCode.Store == "" {
		c.OAuth.AuthorizationCode.Store = DefaultCodeStore
	}
	if c.OAuth.ClientRegistry.Store == "" {
		c.OAuth.ClientRegistry.Store = DefaultClientStore
	}
}
