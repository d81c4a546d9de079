// SPDX-License-Identifier: MIT

// Package ratelimit throttles pwrstat invocations. pwrstatd serializes
// requests over a local socket, so a hot poll loop plus API traffic can
// pile up subprocesses; the limiter keeps the invocation rate bounded.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/gowrstat/gowrstat/internal/metrics"
)

// Config holds rate limiting configuration.
type Config struct {
	Rate  rate.Limit // invocations per second
	Burst int        // max burst size
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Rate:  5, // 5 invocations/s
		Burst: 10,
	}
}

// Limiter bounds the rate of pwrstat invocations.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a new rate limiter with the given config.
func New(config Config) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(config.Rate, config.Burst)}
}

// Wait blocks until an invocation is allowed or ctx is done. Waits that
// actually delayed the caller are counted.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if l.limiter.Allow() {
		return nil
	}
	metrics.IncCommandThrottled()
	return l.limiter.Wait(ctx)
}

// SetLimit replaces the rate and burst at runtime. Used by config hot
// reload.
func (l *Limiter) SetLimit(config Config) {
	l.limiter.SetLimit(config.Rate)
	l.limiter.SetBurst(config.Burst)
}
