package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/config"
	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const transcript = "I went to the store yesterday. I bought some milk and bread. Then I walked home slowly."

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Pipeline.CacheCleanup = 0
	return &cfg
}

func TestNewWithStore(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	defer func() { require.NoError(t, a.Close()) }()

	require.NotNil(t, a.DB)
	assert.Nil(t, a.Engine.BreakerStats())

	ctx := context.Background()
	out, err := a.Service.Analyze(ctx, pipeline.AnalyzeInput{Text: transcript})
	require.NoError(t, err)
	assert.True(t, out.Persisted)
	assert.Equal(t, scoring.ModelFallback, out.Result.ModelUsed)

	stored, err := a.Service.GetResult(ctx, out.Result.ScoringID)
	require.NoError(t, err)
	assert.Equal(t, out.Result.ScoringID, stored.ID())
}

func TestNewWithoutStore(t *testing.T) {
	cfg := testConfig(t)

	a, err := New(cfg, Options{WithoutStore: true})
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.DB)
	out, err := a.Service.Analyze(context.Background(), pipeline.AnalyzeInput{Text: transcript})
	require.NoError(t, err)
	assert.False(t, out.Persisted)
}

func TestNewAppliesCalibrationProfile(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine.CalibrationProfile = "clinic-a"

	store := scoring.NewCalibrationStore(CalibrationDir(cfg))
	require.NoError(t, store.SaveProfile("clinic-a", &scoring.CalibrationProfile{
		Weights: map[analysis.FeatureName]float64{analysis.LexicalDiversity: 0.2},
	}))

	a, err := New(cfg, Options{WithoutStore: true})
	require.NoError(t, err)
	defer a.Close()

	assert.InDelta(t, 0.2, a.Engine.Tables().Weights[analysis.LexicalDiversity], 1e-9)
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr string
	}{
		{name: "unknown provider", mutate: func(cfg *config.Config) { cfg.Model.Provider = "carrier-pigeon" }, wantErr: "configure primary model"},
		{name: "http without endpoint", mutate: func(cfg *config.Config) { cfg.Model.Provider = "http" }, wantErr: "endpoint"},
		{name: "openai without key", mutate: func(cfg *config.Config) { cfg.Model.Provider = "openai" }, wantErr: "API key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			tt.mutate(cfg)
			_, err := New(cfg, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := New(nil, Options{})
	assert.Error(t, err)
}

func TestNewWithHTTPModel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Model.Provider = "http"
	cfg.Model.Endpoint = "http://127.0.0.1:1/predict"

	a, err := New(cfg, Options{WithoutStore: true})
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Engine.BreakerStats())
}
