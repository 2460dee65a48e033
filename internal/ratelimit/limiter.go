package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Config holds rate limiter configuration.
type Config struct {
	IPLimitPerMin   int // general per-IP limit per minute
	ScanLimitPerMin int // per-IP limit for scan submissions per minute
	BurstMultiplier int
}

// DefaultConfig returns default rate limiting configuration. Scan
// submissions are much more expensive than status polls, so they get a
// tighter budget.
func DefaultConfig() Config {
	return Config{
		IPLimitPerMin:   60,
		ScanLimitPerMin: 6,
		BurstMultiplier: 2,
	}
}

// Result represents the result of a rate limit check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter provides in-memory token bucket rate limiting keyed by
// client IP.
type RateLimiter struct {
	config Config

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates a rate limiter and starts its cleanup goroutine.
func NewRateLimiter(config Config) *RateLimiter {
	rl := &RateLimiter{
		config:   config,
		limiters: make(map[string]*rate.Limiter),
	}
	go rl.cleanupLimiters()
	return rl
}

// AllowIP checks whether an IP may make a general request.
func (rl *RateLimiter) AllowIP(ip string) *Result {
	key := fmt.Sprintf("ip:%s", ip)
	return rl.allow(key, rl.config.IPLimitPerMin)
}

// AllowScan checks whether an IP may submit a scan.
func (rl *RateLimiter) AllowScan(ip string) *Result {
	key := fmt.Sprintf("scan:%s", ip)
	return rl.allow(key, rl.config.ScanLimitPerMin)
}

func (rl *RateLimiter) allow(key string, limit int) *Result {
	period := time.Minute

	rl.mu.Lock()
	limiter, exists := rl.limiters[key]
	if !exists {
		rps := rate.Limit(float64(limit) / period.Seconds())
		burst := limit * rl.config.BurstMultiplier
		if burst < 2 {
			burst = 2
		}
		limiter = rate.NewLimiter(rps, burst)
		rl.limiters[key] = limiter
	}
	rl.mu.Unlock()

	allowed := limiter.Allow()

	tokens := limiter.Tokens()
	remaining := int(tokens)
	if remaining < 0 {
		remaining = 0
	}

	result := &Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().Add(period),
	}
	if !allowed {
		result.RetryAfter = time.Until(result.ResetAt)
	}
	return result
}

// cleanupLimiters bounds the limiter map for long-running processes.
func (rl *RateLimiter) cleanupLimiters() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		if len(rl.limiters) > 1000 {
			rl.limiters = make(map[string]*rate.Limiter)
		}
		rl.mu.Unlock()
	}
}

// GetStats returns rate limiter statistics.
func (rl *RateLimiter) GetStats() map[string]interface{} {
	rl.mu.Lock()
	count := len(rl.limiters)
	rl.mu.Unlock()

	return map[string]interface{}{
		"active_limiters":    count,
		"ip_limit_per_min":   rl.config.IPLimitPerMin,
		"scan_limit_per_min": rl.config.ScanLimitPerMin,
	}
}
