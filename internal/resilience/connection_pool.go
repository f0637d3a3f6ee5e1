package resilience

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"
)

// PoolConfig sizes the shared transport used for outbound model calls.
type PoolConfig struct {
	MaxIdle        int           `json:"max_idle" yaml:"max_idle" mapstructure:"max_idle"`
	MaxActive      int           `json:"max_active" yaml:"max_active" mapstructure:"max_active"`
	IdleTimeout    time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}

// DefaultPoolConfig returns defaults suited to a single model endpoint.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxIdle:        10,
		MaxActive:      20,
		IdleTimeout:    30 * time.Second,
		RequestTimeout: 30 * time.Second,
	}
}

// ConnectionPool bounds the number of in-flight requests to one upstream and
// reuses connections through a shared transport.
type ConnectionPool struct {
	config    PoolConfig
	client    *http.Client
	transport *http.Transport
	slots     chan struct{}

	inFlight int64
	requests int64
	failures int64
	rejected int64
}

// NewConnectionPool creates a pool, filling zero config values with defaults.
func NewConnectionPool(config PoolConfig) *ConnectionPool {
	defaults := DefaultPoolConfig()
	if config.MaxIdle <= 0 {
		config.MaxIdle = defaults.MaxIdle
	}
	if config.MaxActive <= 0 {
		config.MaxActive = defaults.MaxActive
	}
	if config.IdleTimeout <= 0 {
		config.IdleTimeout = defaults.IdleTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = defaults.RequestTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          config.MaxIdle,
		MaxConnsPerHost:       config.MaxActive,
		MaxIdleConnsPerHost:   config.MaxIdle,
		IdleConnTimeout:       config.IdleTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: config.RequestTimeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &ConnectionPool{
		config:    config,
		transport: transport,
		client:    &http.Client{Transport: transport, Timeout: config.RequestTimeout},
		slots:     make(chan struct{}, config.MaxActive),
	}
}

// Client exposes the pooled client for libraries that build their own
// requests.
func (cp *ConnectionPool) Client() *http.Client {
	return cp.client
}

// DoRequest waits for a free slot, then executes the request. The caller
// owns the response body.
func (cp *ConnectionPool) DoRequest(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	select {
	case cp.slots <- struct{}{}:
	case <-ctx.Done():
		atomic.AddInt64(&cp.rejected, 1)
		return nil, fmt.Errorf("waiting for connection slot: %w", ctx.Err())
	}
	defer func() { <-cp.slots }()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	atomic.AddInt64(&cp.requests, 1)
	atomic.AddInt64(&cp.inFlight, 1)
	defer atomic.AddInt64(&cp.inFlight, -1)

	start := time.Now()
	resp, err := cp.client.Do(req)
	if err != nil {
		atomic.AddInt64(&cp.failures, 1)
		slog.Warn("Request failed", "url", url, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	slog.Debug("Request completed", "url", url, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"in_flight":          atomic.LoadInt64(&cp.inFlight),
		"requests":           atomic.LoadInt64(&cp.requests),
		"failures":           atomic.LoadInt64(&cp.failures),
		"rejected":           atomic.LoadInt64(&cp.rejected),
		"max_active":         cp.config.MaxActive,
		"max_idle":           cp.config.MaxIdle,
		"idle_timeout_ms":    cp.config.IdleTimeout.Milliseconds(),
		"request_timeout_ms": cp.config.RequestTimeout.Milliseconds(),
	}
}

// Close drops idle connections.
func (cp *ConnectionPool) Close() error {
	cp.transport.CloseIdleConnections()
	slog.Info("Connection pool closed")
	return nil
}
