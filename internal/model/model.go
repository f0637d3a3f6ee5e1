// Package model provides the delegated primary scoring models. Each
// implements scoring.PrimaryModel; the engine treats any failure as a signal
// to fall back.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

// Config selects and configures the primary model.
type Config struct {
	// Provider is "http", "openai", or empty/"none" to score with the
	// fallback only.
	Provider string `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Endpoint is the prediction URL for the http provider.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	APIKey  string `json:"-" yaml:"-" mapstructure:"api_key"`
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// Model is the model name for the openai provider.
	Model       string  `json:"model" yaml:"model" mapstructure:"model"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	Timeout       time.Duration         `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	RetryAttempts int                   `json:"retry_attempts" yaml:"retry_attempts" mapstructure:"retry_attempts"`
	Pool          resilience.PoolConfig `json:"pool" yaml:"pool" mapstructure:"pool"`
}

// New builds the configured model. A nil model with a nil error means no
// primary model is configured.
func New(cfg Config) (scoring.PrimaryModel, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "none":
		return nil, nil
	case "http":
		return NewHTTPModel(cfg)
	case "openai":
		return NewOpenAIModel(cfg)
	default:
		return nil, fmt.Errorf("unknown model provider: %s (supported: http, openai, none)", cfg.Provider)
	}
}
