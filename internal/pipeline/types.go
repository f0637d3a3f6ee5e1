package pipeline

import (
	"context"
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

// Store persists scored assessments. *database.Repository implements it.
type Store interface {
	SaveAssessment(ctx context.Context, a *database.Assessment) error
	GetAssessment(ctx context.Context, id string) (*database.Assessment, error)
	ListAssessments(ctx context.Context, filter database.ListFilter) ([]*database.Assessment, error)
	DeleteAssessment(ctx context.Context, id string) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
}

// Config tunes the service. Zero values fall back to defaults.
type Config struct {
	BatchConcurrency int           `json:"batch_concurrency" yaml:"batch_concurrency" mapstructure:"batch_concurrency"`
	MaxBatchSize     int           `json:"max_batch_size" yaml:"max_batch_size" mapstructure:"max_batch_size"`
	CacheTTL         time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheCleanup     time.Duration `json:"cache_cleanup" yaml:"cache_cleanup" mapstructure:"cache_cleanup"`
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		BatchConcurrency: 4,
		MaxBatchSize:     50,
		CacheTTL:         15 * time.Minute,
		CacheCleanup:     5 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = d.BatchConcurrency
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = d.MaxBatchSize
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.CacheCleanup < 0 {
		c.CacheCleanup = 0
	}
	return c
}

// AnalyzeInput is one transcript to analyze.
type AnalyzeInput struct {
	Text     string                   `json:"text"`
	Metadata *analysis.TimingMetadata `json:"metadata,omitempty"`
	Options  analysis.Options         `json:"options"`
}

// AnalyzeOutput is the full pipeline outcome for one transcript.
// Persisted is false when the store was unavailable; the scoring itself
// still succeeded.
type AnalyzeOutput struct {
	Features    *analysis.FeatureVector `json:"features"`
	Result      *scoring.ScoringResult  `json:"result"`
	Explanation *scoring.Explanation    `json:"explanation"`
	Persisted   bool                    `json:"persisted"`
}

// BatchItem is one entry of a batch response, in input order. Exactly one
// of Output and Error is set.
type BatchItem struct {
	Index  int            `json:"index"`
	Output *AnalyzeOutput `json:"output,omitempty"`
	Error  error          `json:"-"`
}

// Health summarizes the service's dependencies.
type Health struct {
	Status         string                              `json:"status"`
	Level          resilience.DegradationLevel         `json:"level"`
	CircuitBreaker map[string]interface{}              `json:"circuitBreaker,omitempty"`
	Services       map[string]resilience.ServiceHealth `json:"services"`
	FailingChecks  []string                            `json:"failingChecks,omitempty"`
	Cache          map[string]interface{}              `json:"cache"`
}
