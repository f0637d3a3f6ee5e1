// Package privacy enforces the retention policy for stored assessments.
// Transcripts are never persisted; only derived features, scores and
// explanations are kept, and those expire after the retention period.
package privacy

import (
	"context"
	"fmt"
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
)

// Config sets the retention policy. RetentionDays of zero keeps results
// until they are deleted explicitly.
type Config struct {
	RetentionDays   int           `json:"retention_days" yaml:"retention_days" mapstructure:"retention_days"`
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
}

// DefaultConfig returns the default policy.
func DefaultConfig() Config {
	return Config{
		RetentionDays:   0,
		CleanupInterval: 24 * time.Hour,
	}
}

// Purger deletes stored results created before a cutoff.
// *pipeline.Service implements it.
type Purger interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service handles data retention for stored assessments
type Service struct {
	purger Purger
	config Config
	logger *monitoring.Logger
	now    func() time.Time
}

// NewService creates a new retention service
func NewService(purger Purger, config Config, logger *monitoring.Logger) *Service {
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}
	if logger == nil {
		logger = monitoring.NewNopLogger()
	}
	return &Service{purger: purger, config: config, logger: logger, now: time.Now}
}

// Enabled reports whether results expire automatically.
func (s *Service) Enabled() bool {
	return s.config.RetentionDays > 0
}

// PurgeOlderThan deletes every result older than age.
func (s *Service) PurgeOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, fmt.Errorf("retention age must be positive, got %s", age)
	}
	cutoff := s.now().Add(-age)

	n, err := s.purger.PurgeBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge results: %w", err)
	}

	s.logger.Info("Data cleanup completed", "cutoff_date", cutoff.Format(time.RFC3339), "results_deleted", n)
	return n, nil
}

// PurgeExpired applies the configured retention period. It is a no-op
// when retention is disabled.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	if !s.Enabled() {
		return 0, nil
	}
	return s.PurgeOlderThan(ctx, time.Duration(s.config.RetentionDays)*24*time.Hour)
}

// Run purges expired results once and then on every cleanup interval
// until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	s.logger.Info("Scheduling data cleanup", "retention_days", s.config.RetentionDays, "interval", s.config.CleanupInterval.String())

	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		if _, err := s.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Failed to run data cleanup", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RetentionInfo describes what is stored and for how long.
func (s *Service) RetentionInfo() map[string]interface{} {
	retention := "until deleted"
	if s.Enabled() {
		retention = fmt.Sprintf("%d days", s.config.RetentionDays)
	}
	return map[string]interface{}{
		"transcripts_stored":   false,
		"stored_fields":        []string{"features", "result", "explanation"},
		"result_retention":     retention,
		"retention_days":       s.config.RetentionDays,
		"cleanup_interval":     s.config.CleanupInterval.String(),
		"deletion_on_request":  true,
		"deletion_endpoint":    "DELETE /api/v1/results/{id}",
		"automatic_cleanup_on": s.Enabled(),
	}
}
