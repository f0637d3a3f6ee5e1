package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
)

const (
	// MinCompleteness is the share of required features that must be present.
	MinCompleteness = 0.8

	primaryBaseConfidence  = 0.85
	fallbackBaseConfidence = 0.65
	completenessBonus      = 0.1
	extremityBonus         = 0.2
	minConfidence          = 0.3
	maxConfidence          = 0.95

	lowRiskThreshold      = 0.70
	moderateRiskThreshold = 0.40

	// FallbackModelName identifies the weighted-linear fallback in results.
	FallbackModelName = "weighted-linear"
)

// PrimaryModel is the delegated scoring component. Implementations must
// honor ctx cancellation.
type PrimaryModel interface {
	Name() string
	Predict(ctx context.Context, req PredictionRequest) (*Prediction, error)
}

// PredictionRequest carries the normalized feature vector.
type PredictionRequest struct {
	Features  analysis.FeatureSet `json:"features"`
	ModelPath string              `json:"modelPath,omitempty"`
}

// Prediction is the primary model's answer. RiskScore is a pointer so a
// missing score is distinguishable from zero.
type Prediction struct {
	RiskScore         *float64            `json:"riskScore"`
	FeatureImportance analysis.FeatureSet `json:"featureImportance,omitempty"`
}

// Validate enforces the minimum contract; anything else is malformed.
func (p *Prediction) Validate() error {
	if p == nil {
		return errors.New("empty prediction")
	}
	if p.RiskScore == nil {
		return errors.New("prediction is missing riskScore")
	}
	score := *p.RiskScore
	if !analysis.IsFinite(score) || score < 0 || score > 1 {
		return fmt.Errorf("prediction riskScore %v outside [0,1]", score)
	}
	for name, v := range p.FeatureImportance {
		if !analysis.IsFinite(v) {
			return fmt.Errorf("prediction importance for %s is not finite", name)
		}
	}
	return nil
}

// EngineConfig is fixed at startup.
type EngineConfig struct {
	PrimaryTimeout time.Duration                   `json:"primary_timeout" yaml:"primary_timeout" mapstructure:"primary_timeout"`
	ModelPath      string                          `json:"model_path" yaml:"model_path" mapstructure:"model_path"`
	Breaker        resilience.CircuitBreakerConfig `json:"breaker" yaml:"breaker" mapstructure:"breaker"`
}

// Engine scores feature vectors through the primary model when one is
// configured and healthy, and through the weighted-linear fallback otherwise.
type Engine struct {
	tables  Tables
	config  EngineConfig
	primary PrimaryModel
	breaker *resilience.CircuitBreaker
	logger  *monitoring.Logger
	now     func() time.Time
	newID   func() string
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithPrimaryModel sets the delegated model. Without one every result is
// produced by the fallback.
func WithPrimaryModel(model PrimaryModel) EngineOption {
	return func(e *Engine) { e.primary = model }
}

func WithLogger(logger *monitoring.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(newID func() string) EngineOption {
	return func(e *Engine) { e.newID = newID }
}

// NewEngine validates and copies the tables.
func NewEngine(tables Tables, config EngineConfig, opts ...EngineOption) (*Engine, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring tables: %w", err)
	}
	if config.PrimaryTimeout <= 0 {
		config.PrimaryTimeout = 10 * time.Second
	}

	e := &Engine{
		tables: tables.Clone(),
		config: config,
		logger: monitoring.NewNopLogger(),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.primary != nil {
		e.breaker = resilience.NewCircuitBreaker(e.primary.Name(), config.Breaker)
	}

	return e, nil
}

// Tables returns a copy of the engine's tables.
func (e *Engine) Tables() Tables {
	return e.tables.Clone()
}

// BreakerStats reports the primary model's circuit state, nil without a
// primary model.
func (e *Engine) BreakerStats() map[string]interface{} {
	if e.breaker == nil {
		return nil
	}
	return e.breaker.Stats()
}

// Score validates and scores a categorized feature vector.
func (e *Engine) Score(ctx context.Context, fv *analysis.FeatureVector, opts analysis.Options) (*ScoringResult, error) {
	if fv == nil {
		return nil, apperrors.NewValidationError("feature vector is required", "featureVector")
	}
	return e.ScoreFeatures(ctx, fv.FeatureSet(), opts)
}

// ScoreFeatures scores a flat feature set. Only validation failures are
// returned as errors; primary model failures fall back.
func (e *Engine) ScoreFeatures(ctx context.Context, fs analysis.FeatureSet, opts analysis.Options) (*ScoringResult, error) {
	start := time.Now()

	completeness, err := ValidateFeatures(fs)
	if err != nil {
		return nil, err
	}

	result := &ScoringResult{
		ScoringID:    e.newID(),
		Timestamp:    e.now().UTC(),
		Completeness: completeness,
		AnalysisType: opts.AnalysisType,
	}

	prediction, upstreamErr := e.predict(ctx, e.tables.NormalizeAll(fs))
	switch {
	case upstreamErr != nil:
		e.logger.FallbackLogger(e.primary.Name(), upstreamErr)
		result.UpstreamError = upstreamErr.Error()
		e.applyFallback(result, fs)
	case prediction == nil:
		e.applyFallback(result, fs)
	default:
		e.applyPrimary(result, prediction, fs)
	}

	result.RiskCategory, result.RiskLabel, result.RiskDescription = Categorize(result.RiskScore)

	e.logger.ScoringLogger(result.ScoringID, string(result.ModelUsed), result.RiskScore, result.Confidence, time.Since(start))
	return result, nil
}

// predict calls the primary model under the configured timeout and circuit
// breaker. A caller that cancels ctx does not count as a model failure.
// (nil, nil) means no primary model is configured.
func (e *Engine) predict(ctx context.Context, normalized analysis.FeatureSet) (*Prediction, *apperrors.AppError) {
	if e.primary == nil {
		return nil, nil
	}

	var prediction *Prediction
	err := e.breaker.CallContext(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, e.config.PrimaryTimeout)
		defer cancel()

		p, err := e.callPrimary(ctx, PredictionRequest{Features: normalized, ModelPath: e.config.ModelPath})
		if err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		prediction = p
		return nil
	})
	if err != nil {
		return nil, apperrors.NewUpstreamModelError(e.primary.Name(), err)
	}

	return prediction, nil
}

type predictOutcome struct {
	prediction *Prediction
	err        error
}

// callPrimary bounds the call by ctx even if the model blocks.
func (e *Engine) callPrimary(ctx context.Context, req PredictionRequest) (*Prediction, error) {
	done := make(chan predictOutcome, 1)
	go func() {
		p, err := e.primary.Predict(ctx, req)
		done <- predictOutcome{prediction: p, err: err}
	}()

	select {
	case out := <-done:
		return out.prediction, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (e *Engine) applyPrimary(result *ScoringResult, p *Prediction, fs analysis.FeatureSet) {
	result.ModelUsed = ModelPrimary
	result.ModelName = e.primary.Name()
	result.RiskScore = *p.RiskScore

	if len(p.FeatureImportance) > 0 {
		result.Contributions = make(map[analysis.FeatureName]float64, len(p.FeatureImportance))
		for name, v := range p.FeatureImportance {
			result.Contributions[name] = v
		}
	}
	result.FeatureImportance = shares(fs, result.Contributions)
	if result.FeatureImportance == nil {
		_, result.FeatureImportance = e.tables.FallbackScore(fs)
	}

	present, expected := e.tables.coverage(fs)
	result.Confidence = Confidence(result.RiskScore, ModelPrimary, present, expected)
}

func (e *Engine) applyFallback(result *ScoringResult, fs analysis.FeatureSet) {
	result.ModelUsed = ModelFallback
	result.ModelName = FallbackModelName
	result.RiskScore, result.FeatureImportance = e.tables.FallbackScore(fs)

	present, expected := e.tables.coverage(fs)
	result.Confidence = Confidence(result.RiskScore, ModelFallback, present, expected)
}

// FallbackScore computes clamp01(Σ|w|·o / Σ|w|) over configured features
// present in fs, where o is the normalized value oriented so that 1 is
// healthy. With no configured feature present the score is exactly 0.5.
func (t Tables) FallbackScore(fs analysis.FeatureSet) (float64, map[analysis.FeatureName]float64) {
	importance := make(map[analysis.FeatureName]float64)
	weighted, absSum := 0.0, 0.0

	for _, name := range t.weightedFeatures() {
		v, ok := fs[name]
		if !ok {
			continue
		}
		w := t.Weights[name]
		weighted += math.Abs(w) * oriented(w, t.Normalize(name, v))
		absSum += math.Abs(w)
		importance[name] = math.Abs(w)
	}

	if absSum == 0 {
		return 0.5, importance
	}
	for name, w := range importance {
		importance[name] = w / absSum
	}
	return analysis.Clamp01(weighted / absSum), importance
}

// coverage counts configured features present in fs.
func (t Tables) coverage(fs analysis.FeatureSet) (present, expected int) {
	names := t.weightedFeatures()
	for _, name := range names {
		if _, ok := fs[name]; ok {
			present++
		}
	}
	return present, len(names)
}

// shares normalizes |contribution| over the features present in fs. It
// returns nil when those contributions sum to 0.
func shares(fs analysis.FeatureSet, contributions map[analysis.FeatureName]float64) map[analysis.FeatureName]float64 {
	total := presentContributionTotal(fs, contributions)
	if total == 0 {
		return nil
	}
	out := make(map[analysis.FeatureName]float64, len(contributions))
	for name, c := range contributions {
		if _, ok := fs[name]; ok {
			out[name] = math.Abs(c) / total
		}
	}
	return out
}
