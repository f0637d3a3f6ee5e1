package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

const maxErrorBody = 4 << 10

// HTTPModel posts the normalized feature vector as JSON to a prediction
// service and expects {"riskScore": .., "featureImportance": {..}} back.
type HTTPModel struct {
	name     string
	endpoint string
	apiKey   string
	pool     *resilience.ConnectionPool
	retry    resilience.RetryConfig
}

// NewHTTPModel creates a model client with connection pooling
func NewHTTPModel(cfg Config) (*HTTPModel, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("http model requires an endpoint")
	}
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid model endpoint %q", cfg.Endpoint)
	}

	pool := cfg.Pool
	if cfg.Timeout > 0 {
		pool.RequestTimeout = cfg.Timeout
	}

	// The engine's deadline bounds every attempt; one attempt unless asked.
	retry := resilience.DefaultRetryConfig()
	retry.MaxAttempts = 1
	if cfg.RetryAttempts > 1 {
		retry.MaxAttempts = cfg.RetryAttempts
	}

	return &HTTPModel{
		name:     "http:" + u.Host,
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		pool:     resilience.NewConnectionPool(pool),
		retry:    retry,
	}, nil
}

func (m *HTTPModel) Name() string {
	return m.name
}

// Predict posts the normalized features. Transient failures are retried
// within ctx when RetryAttempts allows.
func (m *HTTPModel) Predict(ctx context.Context, req scoring.PredictionRequest) (*scoring.Prediction, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"User-Agent":   "cogscreen/1.0",
	}
	if m.apiKey != "" {
		headers["Authorization"] = "Bearer " + m.apiKey
	}

	resp, err := resilience.RetryHTTP(ctx, m.retry, func() (*http.Response, error) {
		return m.pool.DoRequest(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body), headers)
	})
	if err != nil {
		return nil, fmt.Errorf("prediction request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("model API error: status %d, body: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var prediction scoring.Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}

	return &prediction, nil
}

// GetPoolStats returns connection pool statistics
func (m *HTTPModel) GetPoolStats() map[string]interface{} {
	return m.pool.GetStats()
}

// Close closes the connection pool
func (m *HTTPModel) Close() error {
	return m.pool.Close()
}
