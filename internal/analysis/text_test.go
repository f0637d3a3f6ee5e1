package analysis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"make", 1},
		{"table", 2},
		{"the", 1},
		{"beautiful", 3},
		{"free", 1},
		{"rhythm", 1},
		{"queue", 1},
		{"2024", 1},
		{"Extraordinary", 5},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, countSyllables(tt.word))
		})
	}
}

func TestTokenize(t *testing.T) {
	doc := tokenize("Hello there. How are you?! Fine")

	want := [][]string{{"Hello", "there"}, {"How", "are", "you"}, {"Fine"}}
	if diff := cmp.Diff(want, doc.sentences); diff != "" {
		t.Fatalf("sentences mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, doc.wordCount())
	assert.Equal(t, 3, doc.sentenceCount())
	assert.Equal(t, "hello", doc.lower[0])
	assert.Equal(t, 23, doc.characterCount())
}

func TestCountPhrase(t *testing.T) {
	lower := []string{"you", "know", "i", "mean", "you", "know"}
	assert.Equal(t, 2, countPhrase(lower, "you", "know"))
	assert.Equal(t, 1, countPhrase(lower, "i", "mean"))
	assert.Zero(t, countPhrase(lower))
	assert.Zero(t, countPhrase([]string{"you"}, "you", "know"))
}

func TestStats(t *testing.T) {
	assert.Zero(t, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, 2.0/3.0, PopulationVariance([]float64{1, 2, 3}), 1e-12)
	assert.Zero(t, CoefficientOfVariation([]float64{0, 0}))
	assert.InDelta(t, 2.5, median([]float64{4, 1, 3, 2}), 1e-12)
	assert.Equal(t, 0.0, ratio(3, 0))

	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 1.0, Clamp01(3))
	assert.Equal(t, -1.0, Clamp(nan(), -1, 1))
	assert.False(t, IsFinite(nan()))
}

func TestProcessText(t *testing.T) {
	p := NewPreprocessor(0.05)
	assert.Equal(t, "Hello, world! It's fine.", p.ProcessText("  Hello,\tworld! @#$ It's   fine.\n"))
}

func TestProcessTiming(t *testing.T) {
	p := NewPreprocessor(0.05)

	out, err := p.ProcessTiming(&TimingMetadata{
		Words: []WordTiming{
			{Word: "dog", Start: 1.0, End: 1.4},
			{Word: "the", Start: 0.5, End: 0.8},
			{Word: "Dog.", Start: 1.42, End: 1.6},
			{Word: "ran", Start: 2.0, End: 2.5},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, out)

	want := []WordTiming{
		{Word: "the", Start: 0.5, End: 0.8},
		{Word: "dog", Start: 1.0, End: 1.6},
		{Word: "ran", Start: 2.0, End: 2.5},
	}
	if diff := cmp.Diff(want, out.Words); diff != "" {
		t.Fatalf("words mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2.0, out.Duration, 1e-9, "duration derives from the word span")
}

func TestProcessTimingUnusable(t *testing.T) {
	p := NewPreprocessor(0.05)

	out, err := p.ProcessTiming(nil)
	assert.NoError(t, err)
	assert.Nil(t, out)

	out, err = p.ProcessTiming(&TimingMetadata{Duration: 0})
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestProcessTimingValidation(t *testing.T) {
	p := NewPreprocessor(0.05)

	tests := []struct {
		name  string
		meta  *TimingMetadata
		field string
	}{
		{"negative duration", &TimingMetadata{Duration: -1}, "metadata.duration"},
		{"inverted word", &TimingMetadata{Words: []WordTiming{{Word: "a", Start: 1, End: 0.5}}}, "metadata.words[0]"},
		{"negative segment", &TimingMetadata{Segments: []SegmentTiming{{Start: 0, End: 1}, {Start: -1, End: 1}}}, "metadata.segments[1]"},
		{"nan word", &TimingMetadata{Words: []WordTiming{{Word: "a", Start: nan(), End: 1}}}, "metadata.words[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ProcessTiming(tt.meta)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}
