// Package config loads cogscreen's configuration from defaults, an optional
// YAML file and COGSCREEN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	"github.com/ZanzyTHEbar/cogscreen/internal/middleware"
	"github.com/ZanzyTHEbar/cogscreen/internal/model"
	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/privacy"
	"github.com/ZanzyTHEbar/cogscreen/internal/ratelimit"
	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/security"
)

// EnvPrefix prefixes every environment override, e.g. COGSCREEN_SERVER_PORT.
const EnvPrefix = "COGSCREEN"

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig        `json:"server" yaml:"server" mapstructure:"server"`
	Log       LogConfig           `json:"log" yaml:"log" mapstructure:"log"`
	DataDir   string              `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Database  database.PoolConfig `json:"database" yaml:"database" mapstructure:"database"`
	Model     model.Config        `json:"model" yaml:"model" mapstructure:"model"`
	Engine    EngineConfig        `json:"engine" yaml:"engine" mapstructure:"engine"`
	Pipeline  pipeline.Config     `json:"pipeline" yaml:"pipeline" mapstructure:"pipeline"`
	RateLimit ratelimit.Config    `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	Security  security.Config     `json:"security" yaml:"security" mapstructure:"security"`
	Privacy   privacy.Config      `json:"privacy" yaml:"privacy" mapstructure:"privacy"`

	Compression middleware.CompressionConfig `json:"compression" yaml:"compression" mapstructure:"compression"`
	Health      resilience.DegradationConfig `json:"health" yaml:"health" mapstructure:"health"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host" mapstructure:"host"`
	Port            int           `json:"port" yaml:"port" mapstructure:"port"`
	Mode            string        `json:"mode" yaml:"mode" mapstructure:"mode"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout" mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `json:"level" yaml:"level" mapstructure:"level"`
}

// EngineConfig extends the scoring engine settings with the calibration
// profile merged into the default tables at startup.
type EngineConfig struct {
	scoring.EngineConfig `yaml:",inline" mapstructure:",squash"`
	CalibrationProfile   string `json:"calibration_profile" yaml:"calibration_profile" mapstructure:"calibration_profile"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			Mode:            "release",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Log:      LogConfig{Level: "info"},
		DataDir:  defaultDataDir(),
		Database: database.DefaultPoolConfig(),
		Model: model.Config{
			Provider:      "none",
			Model:         "gpt-4o-mini",
			MaxTokens:     500,
			Temperature:   0,
			Timeout:       10 * time.Second,
			RetryAttempts: 1,
			Pool:          resilience.DefaultPoolConfig(),
		},
		Engine: EngineConfig{
			EngineConfig: scoring.EngineConfig{
				PrimaryTimeout: 10 * time.Second,
				ModelPath:      "default",
				Breaker: resilience.CircuitBreakerConfig{
					FailureThreshold: 5,
					RecoveryTimeout:  30 * time.Second,
					SuccessThreshold: 1,
				},
			},
		},
		Pipeline:  pipeline.DefaultConfig(),
		RateLimit: ratelimit.DefaultConfig(),
		Security:  security.DefaultConfig(),
		Privacy:   privacy.DefaultConfig(),

		Compression: middleware.DefaultCompressionConfig(),
		Health:      resilience.DefaultDegradationConfig(),
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cogscreen"
	}
	return filepath.Join(home, ".cogscreen")
}

// DefaultConfigPath is where `config init` writes and Load looks when no
// file is named.
func DefaultConfigPath() string {
	return filepath.Join(defaultDataDir(), "config.yaml")
}

// New returns a viper instance seeded with defaults and environment
// bindings for every key.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// secrets carry yaml:"-" so they have no default key to bind through
	_ = v.BindEnv("model.api_key")
	_ = v.BindEnv("rate_limit.redis_password")
	return v
}

// Load reads configuration. An explicit file must exist; otherwise the
// default path is read when present.
func Load(v *viper.Viper, file string) (*Config, error) {
	if v == nil {
		v = New()
	}

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.AddConfigPath(defaultDataDir())
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values the components cannot default themselves.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.Engine.PrimaryTimeout < 0 {
		return errors.New("engine.primary_timeout must not be negative")
	}
	if c.Pipeline.MaxBatchSize < 0 || c.Pipeline.BatchConcurrency < 0 {
		return errors.New("pipeline batch limits must not be negative")
	}
	if c.Privacy.RetentionDays < 0 {
		return errors.New("privacy.retention_days must not be negative")
	}
	return nil
}

// YAML renders the configuration with secrets omitted.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return out, nil
}

// setDefaults registers every key of cfg so AutomaticEnv can override it
// during Unmarshal.
func setDefaults(v *viper.Viper, cfg Config) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		panic(fmt.Sprintf("marshal default config: %v", err))
	}
	var tree map[string]interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		panic(fmt.Sprintf("unmarshal default config: %v", err))
	}
	walkDefaults(v, "", tree)
}

func walkDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for key, value := range tree {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if sub, ok := value.(map[string]interface{}); ok {
			walkDefaults(v, full, sub)
			continue
		}
		v.SetDefault(full, value)
	}
}
