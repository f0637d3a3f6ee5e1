package analysis

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nan() float64 { return math.NaN() }

func TestBuildCognitive(t *testing.T) {
	fv := &FeatureVector{
		Basic: &BasicFeatures{
			WordCount:               100,
			AverageWordsPerSentence: 12.5,
			TypeTokenRatio:          0.6,
		},
		Lexical: &LexicalFeatures{
			ContentWordRatio: 0.5,
			LexicalDiversity: 0.8,
		},
		Linguistic: &LinguisticFeatures{
			SubordinatorsPerSentence: 0.5,
			DiscourseMarkerRatio:     0.5,
			HesitationRatio:          0.05,
			ImmediateRepetitions:     2,
			NearRepetitions:          3,
		},
	}

	cf := BuildCognitive(fv)

	assert.InDelta(t, 0.5, cf.SyntacticComplexity, 1e-9)
	assert.InDelta(t, 0.5, cf.InformationDensity, 1e-9)
	assert.InDelta(t, 0.05, cf.HesitationRatio, 1e-9)
	assert.InDelta(t, 0.05, cf.RepetitionScore, 1e-9)
	assert.InDelta(t, 0.68, cf.SemanticFluency, 1e-9)
	// 0.2*0.5 + 0.25*0.5 + 0.25*0.68 - 0.15*0.05 - 0.15*0.05 = 0.38, shifted by Σ|w|/2.
	assert.InDelta(t, 0.88, cf.CognitiveHealthScore, 1e-9)
}

func TestBuildCognitivePrefersSpeechHesitation(t *testing.T) {
	fv := &FeatureVector{
		Linguistic: &LinguisticFeatures{HesitationRatio: 0.05},
		Speech:     &SpeechFeatures{HesitationMarkers: HesitationMarkers{Count: 4, Ratio: 0.2}},
	}

	assert.InDelta(t, 0.2, BuildCognitive(fv).HesitationRatio, 1e-9)
}

func TestBuildCognitiveEmptyVector(t *testing.T) {
	cf := BuildCognitive(&FeatureVector{})

	assert.Zero(t, cf.SyntacticComplexity)
	assert.Zero(t, cf.RepetitionScore)
	assert.InDelta(t, 0.5, cf.CognitiveHealthScore, 1e-9)
}

func TestBuildCognitiveClampsExtremes(t *testing.T) {
	fv := &FeatureVector{
		Basic:      &BasicFeatures{WordCount: 2, AverageWordsPerSentence: 80, TypeTokenRatio: 1},
		Lexical:    &LexicalFeatures{ContentWordRatio: 1, LexicalDiversity: 1},
		Linguistic: &LinguisticFeatures{SubordinatorsPerSentence: 7, DiscourseMarkerRatio: 1, ImmediateRepetitions: 9},
	}

	cf := BuildCognitive(fv)
	assert.Equal(t, 1.0, cf.SyntacticComplexity)
	assert.Equal(t, 1.0, cf.RepetitionScore)
	assert.GreaterOrEqual(t, cf.CognitiveHealthScore, 0.0)
	assert.LessOrEqual(t, cf.CognitiveHealthScore, 1.0)
}

func TestFeatureSet(t *testing.T) {
	var nilVector *FeatureVector
	assert.Empty(t, nilVector.FeatureSet())

	fv, err := NewAnalyzer().ExtractFeatures("The quick brown fox jumps over the lazy dog.", nil, Options{})
	require.NoError(t, err)

	fs := fv.FeatureSet()
	for _, name := range RequiredFeatures {
		_, ok := fs.Get(name)
		assert.True(t, ok, "required feature %s missing", name)
	}
	_, ok := fs.Get(SpeechRate)
	assert.False(t, ok, "speech features need timing metadata")

	names := fs.Names()
	assert.Len(t, names, len(fs))
	assert.True(t, sort.SliceIsSorted(names, func(i, j int) bool { return names[i] < names[j] }))
}
