package ratelimit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func newFallbackLimiter(t *testing.T, cfg Config) (*RateLimiter, *monitoring.Metrics) {
	t.Helper()
	metrics := monitoring.NewMetrics()
	limiter := NewRateLimiter(nil, cfg, metrics)
	t.Cleanup(func() { require.NoError(t, limiter.Close()) })
	return limiter, metrics
}

func TestRateLimiterFallbackMode(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, Config{BurstMultiplier: 1})

	ctx := context.Background()
	r := Rate{Limit: 5, Period: time.Minute}

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "test:key", r)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 5, result.Limit)
	}

	result, err := limiter.Allow(ctx, "test:key", r)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Positive(t, result.RetryAfter)
	assert.Zero(t, result.Remaining)

	assert.EqualValues(t, 6, metrics.GetRateLimitStats()["fallback_count"])
}

func TestRateLimiterBurstCapacity(t *testing.T) {
	tests := []struct {
		name       string
		multiplier int
		want       int
	}{
		{name: "default multiplier", multiplier: 0, want: 3},
		{name: "single", multiplier: 1, want: 3},
		{name: "double", multiplier: 2, want: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limiter, _ := newFallbackLimiter(t, Config{BurstMultiplier: tt.multiplier})

			allowed := 0
			for i := 0; i < 10; i++ {
				result, err := limiter.Allow(context.Background(), "burst", PerMinute(3))
				require.NoError(t, err)
				if result.Allowed {
					allowed++
				}
			}
			assert.Equal(t, tt.want, allowed)
		})
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	limiter, _ := newFallbackLimiter(t, Config{IPLimitPerMin: 1})
	ctx := context.Background()

	first, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := limiter.AllowIP(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, second.Allowed)

	other, err := limiter.AllowIP(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, other.Allowed)

	assert.Equal(t, 2, limiter.GetStats()["fallback_limiters"])
	assert.Equal(t, false, limiter.GetStats()["redis_enabled"])
}

func TestRateLimiterInvalidRate(t *testing.T) {
	limiter, _ := newFallbackLimiter(t, Config{})

	_, err := limiter.Allow(context.Background(), "k", Rate{Limit: 0, Period: time.Minute})
	assert.Error(t, err)
	_, err = limiter.Allow(context.Background(), "k", Rate{Limit: 1})
	assert.Error(t, err)
}

func TestNewRedisClient(t *testing.T) {
	client, err := NewRedisClient(context.Background(), Config{})
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.Error(t, client.HealthCheck(context.Background()))
	assert.Equal(t, false, client.GetPoolStats()["enabled"])
	assert.NoError(t, client.Close())

	client, err = NewRedisClient(context.Background(), Config{RedisAddr: "127.0.0.1:1"})
	assert.Error(t, err)
	require.NotNil(t, client)
	assert.False(t, client.IsEnabled())
}

func TestIPRateLimitMiddleware(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, Config{Enabled: true, IPLimitPerMin: 2})

	r := gin.New()
	r.Use(limiter.IPRateLimitMiddleware())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		codes = append(codes, w.Code)
		last = w
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, last.Header().Get("Retry-After"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	assert.Equal(t, "rate_limit", body["category"])
	assert.Contains(t, body, "retry_after")

	assert.EqualValues(t, 1, metrics.GetRateLimitStats()["ip_blocks"])
}

func TestEndpointRateLimitMiddleware(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, Config{Enabled: true, IPLimitPerMin: 100})

	r := gin.New()
	r.POST("/batch", limiter.EndpointRateLimitMiddleware("batch", 1), func(c *gin.Context) {
		c.Status(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/batch", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/batch", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Endpoint-Remaining"))

	blocks := metrics.GetRateLimitStats()["endpoint_blocks"].(map[string]int64)
	assert.EqualValues(t, 1, blocks["batch"])
}

func TestMiddlewareDisabled(t *testing.T) {
	limiter, metrics := newFallbackLimiter(t, Config{IPLimitPerMin: 1})

	r := gin.New()
	r.Use(limiter.IPRateLimitMiddleware())
	r.GET("/ping", limiter.EndpointRateLimitMiddleware("ping", 1), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
	assert.EqualValues(t, 0, metrics.GetRateLimitStats()["ip_blocks"])
}

func TestHandleRateLimitStatus(t *testing.T) {
	limiter, _ := newFallbackLimiter(t, Config{IPLimitPerMin: 60, AnalyzeLimitPerMin: 10, BatchLimitPerMin: 2})

	r := gin.New()
	r.GET("/ratelimit", limiter.HandleRateLimitStatus)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ratelimit", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Backend string         `json:"backend"`
		Limits  map[string]int `json:"limits"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "memory", body.Backend)
	assert.Equal(t, map[string]int{"ip_per_min": 60, "analyze_per_min": 10, "batch_per_min": 2}, body.Limits)
}
