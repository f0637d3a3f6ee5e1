package scoring

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
	"github.com/ZanzyTHEbar/cogscreen/internal/resilience"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// exampleFeatures is a healthy six-feature vector.
func exampleFeatures() analysis.FeatureSet {
	return analysis.FeatureSet{
		analysis.WordCount:            150,
		analysis.SentenceCount:        12,
		analysis.TypeTokenRatio:       0.65,
		analysis.VocabularySize:       90,
		analysis.LexicalDiversity:     0.55,
		analysis.CognitiveHealthScore: 0.8,
	}
}

func newTestEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	opts = append([]EngineOption{
		WithClock(func() time.Time { return fixedTime }),
		WithIDGenerator(func() string { return "test-id" }),
	}, opts...)
	engine, err := NewEngine(DefaultTables(), EngineConfig{PrimaryTimeout: 50 * time.Millisecond}, opts...)
	require.NoError(t, err)
	return engine
}

func ptr(v float64) *float64 { return &v }

type stubModel struct {
	calls      int32
	prediction *Prediction
	err        error
	block      bool
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) Predict(ctx context.Context, _ PredictionRequest) (*Prediction, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.prediction, s.err
}

func TestScoreFallbackExample(t *testing.T) {
	engine := newTestEngine(t)

	result, err := engine.ScoreFeatures(context.Background(), exampleFeatures(), analysis.Options{AnalysisType: "standard"})
	require.NoError(t, err)

	// (.02 + .01 + .06*.9 + .08*.9 + .12*.875 + .25*.8) / .54
	assert.InDelta(t, 0.461/0.54, result.RiskScore, 1e-9)
	assert.Equal(t, RiskLow, result.RiskCategory)
	assert.Equal(t, "Low Risk", result.RiskLabel)
	assert.Equal(t, ModelFallback, result.ModelUsed)
	assert.Equal(t, FallbackModelName, result.ModelName)
	assert.InDelta(t, 0.65+(0.461/0.54-0.5)*0.2, result.Confidence, 1e-9)
	assert.Equal(t, 1.0, result.Completeness)
	assert.Equal(t, "test-id", result.ScoringID)
	assert.Equal(t, fixedTime, result.Timestamp)
	assert.Equal(t, "standard", result.AnalysisType)
	assert.Empty(t, result.UpstreamError)

	assert.InDelta(t, 0.25/0.54, result.FeatureImportance[analysis.CognitiveHealthScore], 1e-9)
	sum := 0.0
	for _, v := range result.FeatureImportance {
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestScoreWithMissingRequiredFeature(t *testing.T) {
	engine := newTestEngine(t)

	fs := exampleFeatures()
	delete(fs, analysis.CognitiveHealthScore)

	result, err := engine.ScoreFeatures(context.Background(), fs, analysis.Options{})
	require.NoError(t, err)
	assert.InDelta(t, 5.0/6.0, result.Completeness, 1e-9)
	assert.InDelta(t, 0.261/0.29, result.RiskScore, 1e-9)
	assert.NotContains(t, result.FeatureImportance, analysis.CognitiveHealthScore)
}

func TestScoreValidation(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name   string
		fs     analysis.FeatureSet
		fields []string
	}{
		{
			name:   "empty",
			fs:     analysis.FeatureSet{},
			fields: []string{"cognitiveHealthScore", "lexicalDiversity", "sentenceCount", "typeTokenRatio", "vocabularySize", "wordCount"},
		},
		{
			name: "two missing",
			fs: analysis.FeatureSet{
				analysis.WordCount:      10,
				analysis.SentenceCount:  1,
				analysis.TypeTokenRatio: 0.5,
				analysis.VocabularySize: 8,
			},
			fields: []string{"lexicalDiversity", "cognitiveHealthScore"},
		},
		{
			name: "not finite",
			fs: func() analysis.FeatureSet {
				fs := exampleFeatures()
				fs[analysis.LexicalDiversity] = math.NaN()
				return fs
			}(),
			fields: []string{"lexicalDiversity"},
		},
		{
			name: "negative count",
			fs: func() analysis.FeatureSet {
				fs := exampleFeatures()
				fs[analysis.WordCount] = -3
				return fs
			}(),
			fields: []string{"wordCount"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.ScoreFeatures(context.Background(), tt.fs, analysis.Options{})
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, apperrors.IsValidation(err))
			assert.ElementsMatch(t, tt.fields, apperrors.ToAppError(err).Fields)
		})
	}
}

func TestScoreNilVector(t *testing.T) {
	_, err := newTestEngine(t).Score(context.Background(), nil, analysis.Options{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestScoreExtractedVector(t *testing.T) {
	engine := newTestEngine(t)

	fv, err := analysis.NewAnalyzer().ExtractFeatures(
		"My grandmother lived near the river. Every summer we visited her farm, and she taught us to bake bread.",
		nil, analysis.Options{},
	)
	require.NoError(t, err)

	result, err := engine.Score(context.Background(), fv, analysis.Options{})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.RiskScore, 0.0)
	assert.LessOrEqual(t, result.RiskScore, 1.0)
	assert.Equal(t, 1.0, result.Completeness)
}

func TestFallbackScoreWithoutWeightedFeatures(t *testing.T) {
	tables := Tables{
		Ranges:  map[analysis.FeatureName]Range{},
		Weights: map[analysis.FeatureName]float64{analysis.SpeechRate: 1},
	}

	score, importance := tables.FallbackScore(exampleFeatures())
	assert.Equal(t, 0.5, score)
	assert.Empty(t, importance)

	score, _ = DefaultTables().FallbackScore(analysis.FeatureSet{})
	assert.Equal(t, 0.5, score)
}

func TestFallbackScoreInverseWeights(t *testing.T) {
	tables := DefaultTables()

	calm, _ := tables.FallbackScore(analysis.FeatureSet{analysis.HesitationRatio: 0})
	hesitant, _ := tables.FallbackScore(analysis.FeatureSet{analysis.HesitationRatio: 0.2})

	assert.Equal(t, 1.0, calm)
	assert.Equal(t, 0.0, hesitant)
}

func TestConfidenceBounds(t *testing.T) {
	for _, used := range []ModelUsed{ModelPrimary, ModelFallback} {
		for present := 0; present <= 17; present++ {
			for score := 0.0; score <= 1.0; score += 0.05 {
				c := Confidence(score, used, present, 17)
				assert.GreaterOrEqual(t, c, minConfidence)
				assert.LessOrEqual(t, c, maxConfidence)
			}
		}
	}

	assert.InDelta(t, 0.65, Confidence(0.5, ModelFallback, 0, 17), 1e-9)
	assert.InDelta(t, 0.75, Confidence(1.0, ModelFallback, 17, 17), 1e-9)
	assert.InDelta(t, 0.95, Confidence(1.0, ModelPrimary, 17, 17), 1e-9)
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		score float64
		want  RiskCategory
	}{
		{1.0, RiskLow},
		{0.70, RiskLow},
		{0.6999, RiskModerate},
		{0.40, RiskModerate},
		{0.3999, RiskHigh},
		{0.0, RiskHigh},
	}

	for _, tt := range tests {
		category, label, description := Categorize(tt.score)
		assert.Equal(t, tt.want, category, "score %v", tt.score)
		assert.NotEmpty(t, label)
		assert.NotEmpty(t, description)
	}
}

func TestScorePrimaryModel(t *testing.T) {
	model := &stubModel{prediction: &Prediction{
		RiskScore: ptr(0.5),
		FeatureImportance: analysis.FeatureSet{
			analysis.CognitiveHealthScore: 0.3,
			analysis.HesitationRatio:      -0.1,
		},
	}}
	engine := newTestEngine(t, WithPrimaryModel(model))
	fs := exampleFeatures()
	fs[analysis.HesitationRatio] = 0.05

	result, err := engine.ScoreFeatures(context.Background(), fs, analysis.Options{})
	require.NoError(t, err)

	assert.Equal(t, ModelPrimary, result.ModelUsed)
	assert.Equal(t, "stub", result.ModelName)
	assert.Equal(t, 0.5, result.RiskScore)
	assert.Equal(t, RiskModerate, result.RiskCategory)
	// Seven of the seventeen weighted features are present.
	assert.InDelta(t, 0.85+7.0/17.0*0.1, result.Confidence, 1e-9)
	assert.InDelta(t, 0.75, result.FeatureImportance[analysis.CognitiveHealthScore], 1e-9)
	assert.InDelta(t, -0.1, result.Contributions[analysis.HesitationRatio], 1e-9)
}

func TestScorePrimaryImportanceOverPresentFeatures(t *testing.T) {
	tests := []struct {
		name       string
		importance analysis.FeatureSet
		want       map[analysis.FeatureName]float64
	}{
		{
			name:       "absent features ignored",
			importance: analysis.FeatureSet{analysis.CognitiveHealthScore: 0.3, analysis.HesitationRatio: -0.1},
			want:       map[analysis.FeatureName]float64{analysis.CognitiveHealthScore: 1},
		},
		{
			name:       "all zero uses fallback weights",
			importance: analysis.FeatureSet{analysis.CognitiveHealthScore: 0, analysis.LexicalDiversity: 0},
		},
	}

	_, fallback := DefaultTables().FallbackScore(exampleFeatures())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{prediction: &Prediction{RiskScore: ptr(0.8), FeatureImportance: tt.importance}}
			engine := newTestEngine(t, WithPrimaryModel(model))

			result, err := engine.ScoreFeatures(context.Background(), exampleFeatures(), analysis.Options{})
			require.NoError(t, err)
			assert.Equal(t, ModelPrimary, result.ModelUsed)
			assert.Equal(t, 0.8, result.RiskScore)

			want := tt.want
			if want == nil {
				want = fallback
			}
			require.Len(t, result.FeatureImportance, len(want))
			for name, share := range want {
				assert.InDelta(t, share, result.FeatureImportance[name], 1e-9, name)
			}

			exp, err := engine.AttributeFeatures(exampleFeatures(), result)
			require.NoError(t, err)
			require.Len(t, exp.Records, 6)
			percent := 0.0
			for _, r := range exp.Records {
				percent += r.PercentageContribution
			}
			assert.InDelta(t, 100.0, percent, 1e-9)
		})
	}
}

func TestScorePrimaryWithoutImportance(t *testing.T) {
	engine := newTestEngine(t, WithPrimaryModel(&stubModel{prediction: &Prediction{RiskScore: ptr(0.9)}}))

	result, err := engine.ScoreFeatures(context.Background(), exampleFeatures(), analysis.Options{})
	require.NoError(t, err)
	assert.Equal(t, ModelPrimary, result.ModelUsed)
	assert.Nil(t, result.Contributions)
	assert.InDelta(t, 0.25/0.54, result.FeatureImportance[analysis.CognitiveHealthScore], 1e-9)
}

func TestScoreFallsBackOnPrimaryFailure(t *testing.T) {
	tests := []struct {
		name  string
		model *stubModel
	}{
		{"error", &stubModel{err: errors.New("connection refused")}},
		{"timeout", &stubModel{block: true}},
		{"nil prediction", &stubModel{}},
		{"missing score", &stubModel{prediction: &Prediction{}}},
		{"score out of range", &stubModel{prediction: &Prediction{RiskScore: ptr(1.5)}}},
		{"score not finite", &stubModel{prediction: &Prediction{RiskScore: ptr(math.NaN())}}},
		{"importance not finite", &stubModel{prediction: &Prediction{
			RiskScore:         ptr(0.4),
			FeatureImportance: analysis.FeatureSet{analysis.WordCount: math.Inf(1)},
		}}},
	}

	want, _ := DefaultTables().FallbackScore(exampleFeatures())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := newTestEngine(t, WithPrimaryModel(tt.model))

			result, err := engine.ScoreFeatures(context.Background(), exampleFeatures(), analysis.Options{})
			require.NoError(t, err)
			assert.Equal(t, ModelFallback, result.ModelUsed)
			assert.InDelta(t, want, result.RiskScore, 1e-9)
			assert.NotEmpty(t, result.UpstreamError)
			assert.EqualValues(t, 1, atomic.LoadInt32(&tt.model.calls))
		})
	}
}

func TestScoreCircuitBreakerOpens(t *testing.T) {
	model := &stubModel{err: errors.New("boom")}
	engine, err := NewEngine(DefaultTables(), EngineConfig{
		PrimaryTimeout: time.Second,
		Breaker:        resilience.CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour},
	}, WithPrimaryModel(model))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		result, err := engine.ScoreFeatures(context.Background(), exampleFeatures(), analysis.Options{})
		require.NoError(t, err)
		assert.Equal(t, ModelFallback, result.ModelUsed)
	}

	assert.EqualValues(t, 2, atomic.LoadInt32(&model.calls), "open circuit must skip the model")
	assert.Equal(t, "open", engine.BreakerStats()["state"])
}

func TestScoreCallerCancellationKeepsCircuitClosed(t *testing.T) {
	model := &stubModel{block: true}
	engine, err := NewEngine(DefaultTables(), EngineConfig{
		PrimaryTimeout: time.Second,
		Breaker:        resilience.CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour},
	}, WithPrimaryModel(model))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 3; i++ {
		result, err := engine.ScoreFeatures(ctx, exampleFeatures(), analysis.Options{})
		require.NoError(t, err)
		assert.Equal(t, ModelFallback, result.ModelUsed)
	}

	assert.Equal(t, "closed", engine.BreakerStats()["state"])
	assert.Equal(t, 0, engine.BreakerStats()["failures"])
}

func TestNewEngineRejectsInvalidTables(t *testing.T) {
	_, err := NewEngine(Tables{Weights: map[analysis.FeatureName]float64{}}, EngineConfig{})
	assert.Error(t, err)

	_, err = NewEngine(Tables{
		Ranges:  map[analysis.FeatureName]Range{analysis.WordCount: {Min: 5, Max: 5}},
		Weights: map[analysis.FeatureName]float64{analysis.WordCount: 1},
	}, EngineConfig{})
	assert.Error(t, err)
}

func TestEngineTablesAreCopied(t *testing.T) {
	tables := DefaultTables()
	engine, err := NewEngine(tables, EngineConfig{})
	require.NoError(t, err)

	tables.Weights[analysis.CognitiveHealthScore] = 100
	got := engine.Tables()
	got.Weights[analysis.WordCount] = 100

	assert.Equal(t, 0.25, engine.Tables().Weights[analysis.CognitiveHealthScore])
	assert.Equal(t, 0.02, engine.Tables().Weights[analysis.WordCount])
	assert.Nil(t, engine.BreakerStats())
}
