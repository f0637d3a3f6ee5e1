package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

func TestExtractFeaturesRejectsEmptyText(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"punctuation only", "!!! ... ??"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := analyzer.ExtractFeatures(tt.text, nil, Options{})
			require.Error(t, err)
			assert.Nil(t, fv)

			appErr := apperrors.ToAppError(err)
			assert.Equal(t, apperrors.CategoryValidation, appErr.Category)
			assert.Equal(t, []string{"text"}, appErr.Fields)
		})
	}
}

func TestExtractFeaturesBasicAndLexical(t *testing.T) {
	analyzer := NewAnalyzer()

	fv, err := analyzer.ExtractFeatures("The cat sat on the mat. The dog ran!", nil, Options{})
	require.NoError(t, err)

	require.NotNil(t, fv.Basic)
	assert.Equal(t, 9.0, fv.Basic.WordCount)
	assert.Equal(t, 2.0, fv.Basic.SentenceCount)
	assert.InDelta(t, 4.5, fv.Basic.AverageWordsPerSentence, 1e-9)
	assert.InDelta(t, 7.0/9.0, fv.Basic.TypeTokenRatio, 1e-9)

	require.NotNil(t, fv.Lexical)
	assert.Equal(t, 5.0, fv.Lexical.VocabularySize)
	assert.InDelta(t, 1.0, fv.Lexical.LexicalDiversity, 1e-9)
	assert.InDelta(t, 5.0/9.0, fv.Lexical.ContentWordRatio, 1e-9)
	assert.InDelta(t, 26.0/9.0, fv.Lexical.AverageWordLength, 1e-9)
	assert.Zero(t, fv.Lexical.ComplexWordRatio)

	assert.NotNil(t, fv.Sentiment)
	assert.NotNil(t, fv.Readability)
	assert.NotNil(t, fv.Linguistic)
	assert.Nil(t, fv.Linguistic.Advanced)
	assert.Nil(t, fv.Speech, "speech must be omitted without timing metadata")
	require.NotNil(t, fv.Cognitive)
	assert.GreaterOrEqual(t, fv.Cognitive.CognitiveHealthScore, 0.0)
	assert.LessOrEqual(t, fv.Cognitive.CognitiveHealthScore, 1.0)
}

func TestExtractFeaturesTextWithoutTerminalPunctuation(t *testing.T) {
	fv, err := NewAnalyzer().ExtractFeatures("we walked along the river", nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, fv.Basic.SentenceCount)
	assert.Equal(t, 5.0, fv.Basic.WordCount)
}

func TestExtractFeaturesBoundedValues(t *testing.T) {
	texts := []string{
		"Um, um, I I I went to the, uh, the store. You know, like, well.",
		"Furthermore, the extraordinarily sophisticated methodology demonstrates considerable theoretical significance.",
		"Yes! No? Maybe... Okay.",
		"I love my wonderful family. We are not happy about the terrible weather though.",
	}

	for _, text := range texts {
		fv, err := NewAnalyzer().ExtractFeatures(text, nil, Options{IncludeAdvanced: true})
		require.NoError(t, err, text)

		for name, v := range fv.FeatureSet() {
			assert.True(t, IsFinite(v), "%s is not finite for %q", name, text)
		}
		assert.GreaterOrEqual(t, fv.Readability.FleschReadingEase, 0.0)
		assert.LessOrEqual(t, fv.Readability.FleschReadingEase, 100.0)
		assert.GreaterOrEqual(t, fv.Readability.AutomatedReadabilityIndex, 0.0)
		assert.GreaterOrEqual(t, fv.Sentiment.SentimentScore, -1.0)
		assert.LessOrEqual(t, fv.Sentiment.SentimentScore, 1.0)

		c := fv.Cognitive
		for _, v := range []float64{c.SyntacticComplexity, c.InformationDensity, c.HesitationRatio, c.RepetitionScore, c.SemanticFluency, c.CognitiveHealthScore} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestSentimentPolarity(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		polarity Polarity
	}{
		{"positive", "I am very happy today.", PolarityPositive},
		{"negated", "I am not happy today.", PolarityNegative},
		{"contraction negated", "I didn't enjoy it.", PolarityNegative},
		{"neutral", "The table is brown.", PolarityNeutral},
		{"negative", "It was a terrible and awful day.", PolarityNegative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv, err := NewAnalyzer().ExtractFeatures(tt.text, nil, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.polarity, fv.Sentiment.SentimentPolarity)
		})
	}
}

func TestSentimentIntensifier(t *testing.T) {
	plain := computeSentiment(tokenize("I am happy"))
	intense := computeSentiment(tokenize("I am very happy"))

	assert.InDelta(t, 2.7/math.Sqrt(2.7*2.7+15), plain.SentimentScore, 1e-9)
	assert.Greater(t, intense.SentimentScore, plain.SentimentScore)
	assert.Equal(t, 1, intense.PositiveWordCount)
}

func TestSentimentNegationFlipsSign(t *testing.T) {
	plain := computeSentiment(tokenize("I am happy"))
	negated := computeSentiment(tokenize("I am not happy"))

	assert.InDelta(t, -plain.SentimentScore, negated.SentimentScore, 1e-9)
	assert.Equal(t, 1, negated.NegativeWordCount)
	assert.Zero(t, negated.PositiveWordCount)
}

func TestReadability(t *testing.T) {
	r := computeReadability(tokenize("The cat sat."))

	// 206.835 - 1.015*3 - 84.6*1 exceeds 100 and is clamped.
	assert.Equal(t, 100.0, r.FleschReadingEase)
	assert.Equal(t, ReadabilityVeryEasy, r.ReadabilityLevel)
	assert.Zero(t, r.AutomatedReadabilityIndex)
	assert.Zero(t, r.FleschKincaidGrade)
	assert.InDelta(t, 1.0, r.AverageSyllablesPerWord, 1e-9)
}

func TestReadabilityLevelFor(t *testing.T) {
	tests := []struct {
		ease  float64
		level ReadabilityLevel
	}{
		{95, ReadabilityVeryEasy},
		{90, ReadabilityVeryEasy},
		{85, ReadabilityEasy},
		{72, ReadabilityFairlyEasy},
		{60, ReadabilityStandard},
		{55, ReadabilityFairlyDifficult},
		{30, ReadabilityDifficult},
		{10, ReadabilityVeryDifficult},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, readabilityLevelFor(tt.ease), "ease %v", tt.ease)
	}
}

func TestReadabilityLevelText(t *testing.T) {
	text, err := ReadabilityFairlyEasy.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "fairly_easy", string(text))

	var level ReadabilityLevel
	require.NoError(t, level.UnmarshalText([]byte("difficult")))
	assert.Equal(t, ReadabilityDifficult, level)
	assert.Error(t, level.UnmarshalText([]byte("impossible")))
}

func TestLinguisticMarkers(t *testing.T) {
	fv, err := NewAnalyzer().ExtractFeatures("However, it rained. Therefore we stayed inside because it was cold.", nil, Options{})
	require.NoError(t, err)

	l := fv.Linguistic
	assert.Equal(t, 2, l.DiscourseMarkerCount)
	assert.Equal(t, 1.0, l.DiscourseMarkerRatio)
	assert.InDelta(t, 0.5, l.SubordinatorsPerSentence, 1e-9)
	assert.Equal(t, 1, l.PauseIndicatorCount)
}

func TestHesitationMarkers(t *testing.T) {
	fv, err := NewAnalyzer().ExtractFeatures("I was, you know, tired. Um well.", nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, fv.Linguistic.HesitationCount)
	assert.InDelta(t, 3.0/7.0, fv.Linguistic.HesitationRatio, 1e-9)
	assert.InDelta(t, 3.0/7.0, fv.Cognitive.HesitationRatio, 1e-9)
}

func TestCountRepetitions(t *testing.T) {
	tests := []struct {
		name      string
		words     []string
		immediate int
		near      int
	}{
		{"immediate", []string{"the", "the", "dog", "dog", "ran"}, 2, 0},
		{"near", []string{"apple", "pie", "apple", "tart", "apple"}, 0, 2},
		{"stopwords count", []string{"the", "cat", "the", "dog"}, 0, 1},
		{"repeated connectives", []string{"the", "cat", "and", "the", "dog", "and", "the", "bird"}, 0, 3},
		{"immediate and near", []string{"go", "go", "go"}, 2, 1},
		{"none", []string{"one", "two", "three"}, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			immediate, near := countRepetitions(tt.words)
			assert.Equal(t, tt.immediate, immediate)
			assert.Equal(t, tt.near, near)
		})
	}
}

func TestAdvancedLinguistics(t *testing.T) {
	analyzer := NewAnalyzer()
	text := "Yesterday Mary and John Smith drove the car to Boston. The street was busy."

	fv, err := analyzer.ExtractFeatures(text, nil, Options{IncludeAdvanced: true})
	require.NoError(t, err)
	require.NotNil(t, fv.Linguistic.Advanced)

	adv := fv.Linguistic.Advanced
	assert.Equal(t, 3, adv.NamedEntityCount)
	assert.InDelta(t, 4.0/14.0, adv.ProperNounRatio, 1e-9)
	assert.Equal(t, 1, adv.SemanticCategories["transportation"])
	assert.Equal(t, 1, adv.SemanticCategories["places"])
	assert.Equal(t, 0, adv.SemanticCategories["people"])
	assert.InDelta(t, 1.0/14.0, adv.ArticulationComplexity, 1e-9)

	assert.Equal(t, 1, adv.TemporalExpressionCount)
	assert.InDelta(t, 0.5, adv.TemporalDensity, 1e-9)
	assert.InDelta(t, 0.25, adv.SentenceConnectivity, 1e-9)
	assert.InDelta(t, 4.0/14.0, adv.OverallComplexity, 1e-9)
	assert.InDelta(t, 1.0/14.0, adv.LongWordRatio, 1e-9)
	assert.Equal(t, map[int]int{2: 1, 3: 5, 4: 3, 5: 2, 6: 2, 9: 1}, adv.WordLengths)
	assert.Zero(t, adv.ComplexSentenceCount)
	assert.Zero(t, adv.AbstractNounCount)
}

func TestAdvancedCognitiveLoad(t *testing.T) {
	text := "I stayed home because it rained, although the organization said that the situation improved. We left in 1998."

	fv, err := NewAnalyzer().ExtractFeatures(text, nil, Options{IncludeAdvanced: true})
	require.NoError(t, err)
	adv := fv.Linguistic.Advanced
	require.NotNil(t, adv)

	assert.Equal(t, 1, adv.ComplexSentenceCount)
	assert.Equal(t, 2, adv.AbstractNounCount)
	assert.Equal(t, 1, adv.TemporalExpressionCount)
	assert.InDelta(t, 2.5, adv.CognitiveDemand, 1e-9)
	assert.InDelta(t, 0.25, adv.SentenceConnectivity, 1e-9)
}

func TestSentenceConnectivitySingleSentence(t *testing.T) {
	fv, err := NewAnalyzer().ExtractFeatures("They saw the dog", nil, Options{IncludeAdvanced: true})
	require.NoError(t, err)
	assert.Zero(t, fv.Linguistic.Advanced.SentenceConnectivity)
}

func TestExtractFeaturesWithTiming(t *testing.T) {
	meta := &TimingMetadata{
		Duration: 10,
		Words: []WordTiming{
			{Word: "um", Start: 0, End: 0.3},
			{Word: "I", Start: 0.4, End: 0.5},
			{Word: "went", Start: 2.0, End: 2.3},
			{Word: "to", Start: 2.35, End: 2.5},
		},
		Segments: []SegmentTiming{
			{Start: 0, End: 4},
			{Start: 5, End: 9},
		},
	}

	fv, err := NewAnalyzer().ExtractFeatures("um I went to the store. Then I came home.", meta, Options{IncludeTimingFeatures: true})
	require.NoError(t, err)
	require.NotNil(t, fv.Speech)

	s := fv.Speech
	assert.Equal(t, 10.0, s.DurationSeconds)
	assert.InDelta(t, 1.0, s.SpeechRate, 1e-9)
	assert.InDelta(t, 60.0, s.WordsPerMinute, 1e-9)
	assert.Equal(t, 1, s.LongPauseCount)
	assert.InDelta(t, 1.5, s.MeanPauseSeconds, 1e-9)
	assert.InDelta(t, 1.5, s.MedianPauseSeconds, 1e-9)
	assert.InDelta(t, 0.15, s.PauseRatio, 1e-9)
	assert.Equal(t, 2, s.HesitationMarkers.Count)
	assert.InDelta(t, 0.2, s.HesitationMarkers.Ratio, 1e-9)
	assert.Zero(t, s.SegmentDurationVariation)
	assert.Greater(t, s.WordDurationVariation, 0.0)

	assert.InDelta(t, 0.2, fv.Cognitive.HesitationRatio, 1e-9, "speech hesitation takes precedence")
}

func TestExtractFeaturesTimingRequirements(t *testing.T) {
	analyzer := NewAnalyzer()

	_, err := analyzer.ExtractFeatures("Hello there.", nil, Options{IncludeTimingFeatures: true})
	require.Error(t, err)
	assert.Equal(t, []string{"metadata"}, apperrors.ToAppError(err).Fields)

	_, err = analyzer.ExtractFeatures("Hello there.", &TimingMetadata{}, Options{IncludeTimingFeatures: true})
	require.Error(t, err, "metadata without any timing is unusable")

	_, err = analyzer.ExtractFeatures("Hello there.", &TimingMetadata{
		Words: []WordTiming{{Word: "hello", Start: 2, End: 1}},
	}, Options{})
	require.Error(t, err)
	assert.Equal(t, []string{"metadata.words[0]"}, apperrors.ToAppError(err).Fields)
}
