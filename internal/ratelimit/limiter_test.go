package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowIPWithinBurst(t *testing.T) {
	rl := NewRateLimiter(Config{IPLimitPerMin: 60, ScanLimitPerMin: 6, BurstMultiplier: 2})

	for i := 0; i < 10; i++ {
		result := rl.AllowIP("10.0.0.1")
		assert.True(t, result.Allowed, "request %d should be allowed", i)
	}
}

func TestAllowScanExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(Config{IPLimitPerMin: 60, ScanLimitPerMin: 1, BurstMultiplier: 2})

	// Burst of 2, so the third immediate submission is blocked.
	assert.True(t, rl.AllowScan("10.0.0.2").Allowed)
	assert.True(t, rl.AllowScan("10.0.0.2").Allowed)

	result := rl.AllowScan("10.0.0.2")
	assert.False(t, result.Allowed)
	assert.True(t, result.RetryAfter > 0)

	// A different IP has its own bucket.
	assert.True(t, rl.AllowScan("10.0.0.3").Allowed)
}

func TestScanAndGeneralBucketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(Config{IPLimitPerMin: 60, ScanLimitPerMin: 1, BurstMultiplier: 2})

	rl.AllowScan("10.0.0.4")
	rl.AllowScan("10.0.0.4")
	require.False(t, rl.AllowScan("10.0.0.4").Allowed)

	assert.True(t, rl.AllowIP("10.0.0.4").Allowed)
}

func TestIPRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(Config{IPLimitPerMin: 1, ScanLimitPerMin: 1, BurstMultiplier: 2})

	router := gin.New()
	router.Use(rl.IPRateLimitMiddleware())
	router.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	status := func() (int, http.Header) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		router.ServeHTTP(w, req)
		return w.Code, w.Header()
	}

	code, headers := status()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "1", headers.Get("X-RateLimit-Limit"))

	status()
	code, headers = status()
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.NotEmpty(t, headers.Get("Retry-After"))
}

func TestGetStats(t *testing.T) {
	rl := NewRateLimiter(DefaultConfig())
	rl.AllowIP("10.0.0.6")
	rl.AllowScan("10.0.0.6")

	stats := rl.GetStats()
	assert.Equal(t, 2, stats["active_limiters"])
	assert.Equal(t, 60, stats["ip_limit_per_min"])
	assert.Equal(t, 6, stats["scan_limit_per_min"])
}
