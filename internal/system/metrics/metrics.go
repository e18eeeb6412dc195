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

// Package metrics exposes the Prometheus collectors of the authorization server.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oauth"

// Collectors groups the counters recorded by the OAuth components.
type Collectors struct {
	registry       *prometheus.Registry
	TokensIssued   *prometheus.CounterVec
	OAuthErrors    *prometheus.CounterVec
	KeyRotations   prometheus.Counter
	BearerOutcomes *prometheus.CounterVec
}

var (
	instance *Collectors
	once     sync.Once
)

// GetCollectors returns the process wide collectors.
func GetCollectors() *Collectors {
	once.Do(func() {
		instance = NewCollectors()
	})
	return instance
}

// NewCollectors creates collectors registered on a fresh registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_issued_total",
			Help:      "Number of tokens issued, by grant type and token kind.",
		}, []string{"grant_type", "token_kind"}),
		OAuthErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "errors_total",
			Help:      "Number of OAuth protocol errors returned, by endpoint and error code.",
		}, []string{"endpoint", "error"}),
		KeyRotations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signing_key_rotations_total",
			Help:      "Number of signing key rotations performed.",
		}),
		BearerOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bearer_authentications_total",
			Help:      "Bearer token authentication attempts, by outcome.",
		}, []string{"outcome"}),
	}
	c.registry.MustRegister(c.TokensIssued, c.OAuthErrors, c.KeyRotations, c.BearerOutcomes)
	return c
}

// Registry returns the registry holding the collectors.
func (c *Collectors) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns the HTTP handler exposing the collectors in the Prometheus text format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
