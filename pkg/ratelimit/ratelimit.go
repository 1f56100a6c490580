package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config holds launch limiter configuration
type Config struct {
	// Rate is the number of launches allowed per second. Zero disables limiting.
	Rate float64
	// Burst is the maximum number of launches allowed in a burst
	Burst int
}

// DefaultObtainConfig returns the default throttle for credential obtain
// commands. Conservative: cloud credential issuers commonly cap token
// endpoints to single-digit requests per second per principal.
func DefaultObtainConfig() Config {
	return Config{
		Rate:  5,
		Burst: 5,
	}
}

// Limiter gates process launches with a token bucket. A nil Limiter allows
// everything, so callers can thread an optional throttle without nil checks.
type Limiter struct {
	limiter *rate.Limiter
}

// New creates a launch limiter with the given configuration. Returns nil when
// cfg.Rate is zero, which disables limiting entirely.
func New(cfg Config) *Limiter {
	if cfg.Rate <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(cfg.Rate), burst),
	}
}

// Wait blocks until a launch token is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return nil
	}
	return l.limiter.Wait(ctx)
}

// Allow reports whether a launch token is immediately available.
func (l *Limiter) Allow() bool {
	if l == nil {
		return true
	}
	return l.limiter.Allow()
}
