package scoring

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
)

func TestNormalizeBounds(t *testing.T) {
	tables := DefaultTables()

	for name, r := range tables.Ranges {
		for _, v := range []float64{r.Min - 100, r.Min, r.Optimal, r.Max, r.Max + 100, math.NaN(), math.Inf(1), math.Inf(-1)} {
			got := tables.Normalize(name, v)
			assert.GreaterOrEqual(t, got, 0.0, "%s(%v)", name, v)
			assert.LessOrEqual(t, got, 1.0, "%s(%v)", name, v)
		}
		assert.Equal(t, 0.0, tables.Normalize(name, r.Min))
		assert.Equal(t, 1.0, tables.Normalize(name, r.Max))
	}
}

func TestNormalizeUnknownFeature(t *testing.T) {
	tables := DefaultTables()

	_, known := tables.RangeFor("mystery")
	assert.False(t, known)
	assert.Equal(t, 1.0, tables.Normalize("mystery", 5))
	assert.Equal(t, 0.0, tables.Normalize("mystery", -1))
	assert.Equal(t, 0.25, tables.Normalize("mystery", 0.25))
}

func TestNormalizeExampleValues(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name  analysis.FeatureName
		value float64
		want  float64
	}{
		{analysis.WordCount, 150, 1},
		{analysis.SentenceCount, 12, 1},
		{analysis.TypeTokenRatio, 0.65, 0.9},
		{analysis.VocabularySize, 90, 0.9},
		{analysis.LexicalDiversity, 0.55, 0.875},
		{analysis.CognitiveHealthScore, 0.8, 0.8},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, tables.Normalize(tt.name, tt.value), 1e-9, string(tt.name))
	}
}

func TestDefaultTablesAreValid(t *testing.T) {
	tables := DefaultTables()
	require.NoError(t, tables.Validate())

	for name := range tables.Weights {
		_, ok := tables.Ranges[name]
		assert.True(t, ok, "weighted feature %s has no range", name)
	}
	assert.Equal(t, 0.12, tables.Weights[analysis.LexicalDiversity])
	assert.Len(t, tables.weightedFeatures(), 17)
}

func TestCalibrationStore(t *testing.T) {
	dir := t.TempDir()
	store := NewCalibrationStore(dir)

	tables, err := store.LoadTables("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), tables)

	tables, err = store.LoadTables("absent")
	require.NoError(t, err)
	assert.Equal(t, DefaultTables(), tables)

	require.NoError(t, store.SaveProfile("clinic", &CalibrationProfile{
		Description: "older adults",
		Ranges:      map[analysis.FeatureName]Range{analysis.WordCount: {Min: 0, Max: 80, Optimal: 60}},
		Weights:     map[analysis.FeatureName]float64{analysis.SpeechRate: 0},
	}))

	profile, err := store.LoadProfile("clinic")
	require.NoError(t, err)
	assert.Equal(t, "older adults", profile.Description)

	tables, err = store.LoadTables("clinic")
	require.NoError(t, err)
	assert.Equal(t, 80.0, tables.Ranges[analysis.WordCount].Max)
	assert.Equal(t, 0.0, tables.Weights[analysis.SpeechRate])
	assert.Len(t, tables.weightedFeatures(), 16)
	assert.Equal(t, 0.25, tables.Weights[analysis.CognitiveHealthScore])
}

func TestCalibrationStoreRejectsInvalidProfiles(t *testing.T) {
	dir := t.TempDir()
	store := NewCalibrationStore(dir)

	require.NoError(t, store.SaveProfile("inverted", &CalibrationProfile{
		Ranges: map[analysis.FeatureName]Range{analysis.WordCount: {Min: 10, Max: 1}},
	}))
	_, err := store.LoadTables("inverted")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0o644))
	_, err = store.LoadTables("broken")
	assert.Error(t, err)
}
