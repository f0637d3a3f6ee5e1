// Package pipeline orchestrates extraction, scoring, attribution,
// persistence and comparison of transcript assessments.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/cache"
	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

const (
	servicePrimaryModel = "primary_model"
	serviceDatabase     = "database"
)

// Service is safe for concurrent use.
type Service struct {
	analyzer *analysis.Analyzer
	engine   *scoring.Engine
	store    Store
	cache    *cache.Cache[*database.Assessment]
	metrics  *monitoring.Metrics
	logger   *monitoring.Logger
	health   *resilience.DegradationManager
	retry    resilience.RetryConfig
	config   Config
}

// Option customizes a Service.
type Option func(*Service)

// WithStore enables persistence. Without a store results are computed but
// never saved, and lookups by id fail.
func WithStore(store Store) Option {
	return func(s *Service) { s.store = store }
}

func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

func WithLogger(logger *monitoring.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithPersistenceRetry overrides the retry policy around store writes.
func WithPersistenceRetry(cfg resilience.RetryConfig) Option {
	return func(s *Service) { s.retry = cfg }
}

// WithDegradationManager shares a degradation manager with the caller.
func WithDegradationManager(dm *resilience.DegradationManager) Option {
	return func(s *Service) { s.health = dm }
}

// NewService wires the pipeline around a scoring engine.
func NewService(engine *scoring.Engine, config Config, opts ...Option) *Service {
	s := &Service{
		analyzer: analysis.NewAnalyzer(),
		engine:   engine,
		metrics:  monitoring.NewMetrics(),
		logger:   monitoring.NewNopLogger(),
		retry:    resilience.PersistenceRetryConfig(),
		config:   config.withDefaults(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.health == nil {
		s.health = resilience.NewDegradationManager(resilience.DefaultDegradationConfig())
	}
	s.cache = cache.New[*database.Assessment](s.config.CacheTTL, s.config.CacheCleanup, s.metrics)

	if engine.BreakerStats() != nil {
		s.health.RegisterService(servicePrimaryModel, nil)
	}
	if s.store != nil {
		s.health.RegisterService(serviceDatabase, s.store.Ping)
	}
	return s
}

// Engine returns the scoring engine.
func (s *Service) Engine() *scoring.Engine {
	return s.engine
}

// ExtractFeatures runs the text analyzer.
func (s *Service) ExtractFeatures(ctx context.Context, text string, meta *analysis.TimingMetadata, opts analysis.Options) (*analysis.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	fv, err := s.analyzer.ExtractFeatures(text, meta, opts)
	s.metrics.RecordExtraction(err)
	if err != nil {
		s.countValidation(err)
		return nil, err
	}

	hasSpeech := fv.Speech != nil
	s.logger.ExtractionLogger(fv.Basic.WordCount, fv.Basic.SentenceCount, hasSpeech, time.Since(start))
	return fv, nil
}

// ScoreFeatures scores a vector. Primary model failures fall back and are
// recorded against the primary model's health; only validation fails.
func (s *Service) ScoreFeatures(ctx context.Context, fv *analysis.FeatureVector, opts analysis.Options) (*scoring.ScoringResult, error) {
	result, err := s.engine.Score(ctx, fv, opts)
	return s.recordScoring(result, err)
}

// ScoreFeatureSet scores a flat feature map.
func (s *Service) ScoreFeatureSet(ctx context.Context, fs analysis.FeatureSet, opts analysis.Options) (*scoring.ScoringResult, error) {
	result, err := s.engine.ScoreFeatures(ctx, fs, opts)
	return s.recordScoring(result, err)
}

func (s *Service) recordScoring(result *scoring.ScoringResult, err error) (*scoring.ScoringResult, error) {
	if err != nil {
		s.countValidation(err)
		return nil, err
	}

	upstreamFailed := result.UpstreamError != ""
	s.metrics.RecordScoring(result.ModelUsed == scoring.ModelPrimary, upstreamFailed)
	switch {
	case upstreamFailed:
		s.health.RecordError(servicePrimaryModel, errors.New(result.UpstreamError))
	case result.ModelUsed == scoring.ModelPrimary:
		s.health.RecordSuccess(servicePrimaryModel)
	}
	return result, nil
}

// Attribute explains result in terms of fv.
func (s *Service) Attribute(ctx context.Context, fv *analysis.FeatureVector, result *scoring.ScoringResult) (*scoring.Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exp, err := s.engine.Attribute(fv, result)
	if err != nil {
		s.countValidation(err)
		return nil, err
	}
	s.metrics.IncrementAttribution()
	return exp, nil
}

// AttributeFeatureSet explains result in terms of a flat feature map.
func (s *Service) AttributeFeatureSet(ctx context.Context, fs analysis.FeatureSet, result *scoring.ScoringResult) (*scoring.Explanation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exp, err := s.engine.AttributeFeatures(fs, result)
	if err != nil {
		s.countValidation(err)
		return nil, err
	}
	s.metrics.IncrementAttribution()
	return exp, nil
}

// Analyze extracts, scores, attributes and saves one transcript.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeOutput, error) {
	fv, err := s.ExtractFeatures(ctx, in.Text, in.Metadata, in.Options)
	if err != nil {
		return nil, err
	}

	result, err := s.ScoreFeatures(ctx, fv, in.Options)
	if err != nil {
		return nil, err
	}

	exp, err := s.Attribute(ctx, fv, result)
	if err != nil {
		return nil, err
	}

	out := &AnalyzeOutput{Features: fv, Result: result, Explanation: exp}
	out.Persisted = s.save(ctx, &database.Assessment{
		Result:      result,
		Explanation: exp,
		Features:    fv.FeatureSet(),
	})
	return out, nil
}

// save persists a, retrying transient failures. Failures are logged and
// reported through the return value only.
func (s *Service) save(ctx context.Context, a *database.Assessment) bool {
	if s.store == nil {
		return false
	}

	err := resilience.RetryWithConfig(ctx, s.retry, func() error {
		return s.store.SaveAssessment(ctx, a)
	})
	s.metrics.RecordPersistence(err)
	s.logger.PersistenceLogger("save", a.ID(), err)

	if err != nil {
		s.health.RecordError(serviceDatabase, err)
		return false
	}
	s.health.RecordSuccess(serviceDatabase)
	s.cache.Set(a.ID(), a)
	return true
}

// AnalyzeBatch analyzes inputs concurrently. Per-item failures are reported
// in the matching BatchItem; only cancellation of ctx fails the batch.
func (s *Service) AnalyzeBatch(ctx context.Context, inputs []AnalyzeInput) ([]BatchItem, error) {
	if len(inputs) == 0 {
		return nil, apperrors.NewValidationError("batch must contain at least one input", "inputs")
	}
	if len(inputs) > s.config.MaxBatchSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("batch of %d exceeds the maximum of %d", len(inputs), s.config.MaxBatchSize),
			"inputs",
		)
	}

	items := make([]BatchItem, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.BatchConcurrency)

	for i := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := s.Analyze(gctx, inputs[i])
			items[i] = BatchItem{Index: i, Output: out, Error: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// GetResult loads a stored assessment, reading through the cache.
func (s *Service) GetResult(ctx context.Context, id string) (*database.Assessment, error) {
	if id == "" {
		return nil, apperrors.NewValidationError("scoring id is required", "scoringId")
	}
	if a, ok := s.cache.Get(id); ok {
		return a, nil
	}
	if s.store == nil {
		return nil, apperrors.NewPersistenceError("load", errors.New("no result store configured"))
	}

	a, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.health.RecordError(serviceDatabase, err)
		}
		return nil, err
	}
	s.cache.Set(id, a)
	return a, nil
}

// ListResults returns stored assessments created in [from, to).
func (s *Service) ListResults(ctx context.Context, filter database.ListFilter) ([]*database.Assessment, error) {
	if s.store == nil {
		return nil, apperrors.NewPersistenceError("list", errors.New("no result store configured"))
	}
	list, err := s.store.ListAssessments(ctx, filter)
	if err != nil && !apperrors.IsValidation(err) {
		s.health.RecordError(serviceDatabase, err)
	}
	return list, err
}

// DeleteResult removes a stored assessment and its explanation.
func (s *Service) DeleteResult(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("scoring id is required", "scoringId")
	}
	if s.store == nil {
		return apperrors.NewPersistenceError("delete", errors.New("no result store configured"))
	}
	s.cache.Delete(id)
	if err := s.store.DeleteAssessment(ctx, id); err != nil {
		if !apperrors.IsNotFound(err) {
			s.health.RecordError(serviceDatabase, err)
		}
		return err
	}
	s.logger.PersistenceLogger("delete", id, nil)
	return nil
}

// PurgeBefore deletes every stored assessment created before cutoff and
// drops the read cache.
func (s *Service) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.store == nil {
		return 0, apperrors.NewPersistenceError("purge", errors.New("no result store configured"))
	}
	n, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		s.health.RecordError(serviceDatabase, err)
		s.logger.PersistenceLogger("purge", cutoff.Format(time.RFC3339), err)
		return 0, err
	}
	s.cache.Clear()
	s.logger.PersistenceLogger("purge", cutoff.Format(time.RFC3339), nil)
	return n, nil
}

// Compare loads stored assessments by id and compares them. Ids must be
// distinct; load failures are returned.
func (s *Service) Compare(ctx context.Context, ids []string) (*scoring.ComparisonReport, error) {
	if len(ids) < scoring.MinComparisonSize || len(ids) > scoring.MaxComparisonSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("comparison requires between %d and %d scoring ids, got %d", scoring.MinComparisonSize, scoring.MaxComparisonSize, len(ids)),
			"scoringIds",
		)
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, apperrors.NewValidationError("duplicate scoring id "+id, "scoringIds")
		}
		seen[id] = true
	}

	assessments := make([]*database.Assessment, 0, len(ids))
	for _, id := range ids {
		a, err := s.GetResult(ctx, id)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return s.CompareAssessments(assessments)
}

// CompareAssessments compares assessments the caller already holds. An
// assessment without an explanation contributes no feature consistency.
func (s *Service) CompareAssessments(assessments []*database.Assessment) (*scoring.ComparisonReport, error) {
	results := make([]scoring.ScoringResult, 0, len(assessments))
	records := make([][]scoring.AttributionRecord, 0, len(assessments))
	for i, a := range assessments {
		if a == nil || a.Result == nil {
			return nil, apperrors.NewValidationError(fmt.Sprintf("assessment %d has no result", i), "results")
		}
		results = append(results, *a.Result)
		records = append(records, a.Records())
	}

	report, err := scoring.Compare(results, records)
	if err != nil {
		s.countValidation(err)
		return nil, err
	}

	s.metrics.IncrementComparison()
	s.logger.ComparisonLogger(report.AssessmentCount, string(report.Trend), report.Range)
	return report, nil
}

// Health runs dependency checks and reports the degradation state.
func (s *Service) Health(ctx context.Context) Health {
	failing := s.health.RunHealthChecks(ctx)
	level := s.health.OverallLevel()

	status := "healthy"
	switch {
	case len(failing) > 0 || level >= resilience.LevelCritical:
		status = "unhealthy"
	case level == resilience.LevelDegraded:
		status = "degraded"
	}

	return Health{
		Status:         status,
		Level:          level,
		CircuitBreaker: s.engine.BreakerStats(),
		Services:       s.health.GetAllServiceHealth(),
		FailingChecks:  failing,
		Cache:          s.cache.Stats(),
	}
}

func (s *Service) countValidation(err error) {
	if apperrors.IsValidation(err) {
		s.metrics.IncrementValidationFailure()
	}
}
