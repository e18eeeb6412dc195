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

package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aspnet/AspNetKatana-sub001/internal/system/log"
	"github.com/aspnet/AspNetKatana-sub001/internal/system/utils"
)

const limiterIdleCleanupInterval = 5 * time.Minute

// RateLimitOptions configures the per client IP token bucket.
type RateLimitOptions struct {
	RequestsPerSecond float64
	Burst             int
}

// RateLimiter throttles requests per client IP address.
type RateLimiter struct {
	limit       rate.Limit
	burst       int
	limiters    sync.Map
	mu          sync.Mutex
	lastCleanup time.Time
}

// NewRateLimiter creates a rate limiter. A non positive rate disables limiting.
func NewRateLimiter(opts RateLimitOptions) *RateLimiter {
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:       rate.Limit(opts.RequestsPerSecond),
		burst:       burst,
		lastCleanup: time.Now(),
	}
}

// Enabled reports whether the limiter throttles anything.
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.limit > 0
}

// Wrap returns a handler that rejects requests over the limit with 429.
func (rl *RateLimiter) Wrap(next http.HandlerFunc) http.HandlerFunc {
	if !rl.Enabled() {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		key := utils.GetClientIP(r.RemoteAddr)
		limiter := rl.getLimiter(key)
		if !limiter.Allow() {
			log.GetLogger().With(log.String(log.LoggerKeyComponentName, "RateLimiter")).
				Warn("Rate limit exceeded", log.String("client", key))
			retryAfter := int(math.Ceil(1 / float64(rl.limit)))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			utils.WriteJSONError(w, "rate_limit_exceeded", "Too many requests", http.StatusTooManyRequests, nil)
			return
		}
		next(w, r)
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	if limiter, ok := rl.limiters.Load(key); ok {
		return limiter.(*rate.Limiter)
	}

	actual, _ := rl.limiters.LoadOrStore(key, rate.NewLimiter(rl.limit, rl.burst))
	rl.maybeCleanup()
	return actual.(*rate.Limiter)
}

// maybeCleanup drops limiters whose buckets are full, they have been idle.
func (rl *RateLimiter) maybeCleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if time.Since(rl.lastCleanup) < limiterIdleCleanupInterval {
		return
	}
	rl.lastCleanup = time.Now()

	rl.limiters.Range(func(key, value any) bool {
		if value.(*rate.Limiter).Tokens() >= float64(rl.burst) {
			rl.limiters.Delete(key)
		}
		return true
	})
}
