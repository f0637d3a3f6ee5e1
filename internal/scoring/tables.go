package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
)

// Range is the expected span of a raw feature value. Optimal is the value
// clinicians consider typical for healthy speech.
type Range struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Optimal float64 `json:"optimal"`
}

// unitRange applies to any feature without a table entry.
var unitRange = Range{Min: 0, Max: 1, Optimal: 0.5}

// Tables are the normalization ranges and fallback weights. Engines copy
// them at construction, so callers cannot mutate a running engine's tables.
type Tables struct {
	Ranges  map[analysis.FeatureName]Range   `json:"ranges"`
	Weights map[analysis.FeatureName]float64 `json:"weights"`
}

// DefaultTables returns a fresh copy of the compiled-in tables.
func DefaultTables() Tables {
	return Tables{
		Ranges: map[analysis.FeatureName]Range{
			analysis.WordCount:                 {Min: 0, Max: 150, Optimal: 100},
			analysis.SentenceCount:             {Min: 0, Max: 10, Optimal: 8},
			analysis.AverageWordsPerSentence:   {Min: 5, Max: 20, Optimal: 15},
			analysis.TypeTokenRatio:            {Min: 0.2, Max: 0.7, Optimal: 0.6},
			analysis.VocabularySize:            {Min: 0, Max: 100, Optimal: 80},
			analysis.LexicalDiversity:          {Min: 0.2, Max: 0.6, Optimal: 0.5},
			analysis.ComplexWordRatio:          {Min: 0, Max: 0.4, Optimal: 0.2},
			analysis.AverageWordLength:         {Min: 3, Max: 6, Optimal: 4.7},
			analysis.HapaxRatio:                {Min: 0, Max: 1, Optimal: 0.6},
			analysis.ContentWordRatio:          {Min: 0.3, Max: 0.7, Optimal: 0.55},
			analysis.SentimentScore:            {Min: -1, Max: 1, Optimal: 0.2},
			analysis.FleschReadingEase:         {Min: 0, Max: 100, Optimal: 65},
			analysis.AutomatedReadabilityIndex: {Min: 0, Max: 20, Optimal: 8},
			analysis.FleschKincaidGrade:        {Min: 0, Max: 18, Optimal: 8},
			analysis.PronounRatio:              {Min: 0, Max: 0.3, Optimal: 0.1},
			analysis.DeterminerRatio:           {Min: 0, Max: 0.2, Optimal: 0.1},
			analysis.PrepositionRatio:          {Min: 0, Max: 0.2, Optimal: 0.12},
			analysis.ConjunctionRatio:          {Min: 0, Max: 0.15, Optimal: 0.05},
			analysis.AuxiliaryRatio:            {Min: 0, Max: 0.2, Optimal: 0.08},
			analysis.DiscourseMarkerRatio:      {Min: 0, Max: 0.5, Optimal: 0.2},
			analysis.SpeechRate:                {Min: 0, Max: 4, Optimal: 2.5},
			analysis.PauseRatio:                {Min: 0, Max: 0.5, Optimal: 0.1},
			analysis.WordDurationVariation:     {Min: 0, Max: 1, Optimal: 0.3},
			analysis.SyntacticComplexity:       {Min: 0, Max: 1, Optimal: 0.6},
			analysis.InformationDensity:        {Min: 0.2, Max: 0.7, Optimal: 0.55},
			analysis.HesitationRatio:           {Min: 0, Max: 0.2, Optimal: 0},
			analysis.RepetitionScore:           {Min: 0, Max: 0.2, Optimal: 0},
			analysis.SemanticFluency:           {Min: 0, Max: 1, Optimal: 0.7},
			analysis.CognitiveHealthScore:      {Min: 0, Max: 1, Optimal: 1},
		},
		// Negative weights mark features where a higher value means more risk.
		Weights: map[analysis.FeatureName]float64{
			analysis.CognitiveHealthScore:    0.25,
			analysis.SyntacticComplexity:     0.15,
			analysis.LexicalDiversity:        0.12,
			analysis.InformationDensity:      0.12,
			analysis.HesitationRatio:         -0.10,
			analysis.VocabularySize:          0.08,
			analysis.TypeTokenRatio:          0.06,
			analysis.RepetitionScore:         -0.05,
			analysis.SemanticFluency:         0.05,
			analysis.ComplexWordRatio:        0.04,
			analysis.SentimentScore:          0.03,
			analysis.AverageWordLength:       0.03,
			analysis.SpeechRate:              0.03,
			analysis.AverageWordsPerSentence: 0.02,
			analysis.WordCount:               0.02,
			analysis.DiscourseMarkerRatio:    0.02,
			analysis.SentenceCount:           0.01,
		},
	}
}

// Clone deep-copies the tables.
func (t Tables) Clone() Tables {
	out := Tables{
		Ranges:  make(map[analysis.FeatureName]Range, len(t.Ranges)),
		Weights: make(map[analysis.FeatureName]float64, len(t.Weights)),
	}
	for k, v := range t.Ranges {
		out.Ranges[k] = v
	}
	for k, v := range t.Weights {
		out.Weights[k] = v
	}
	return out
}

// Validate rejects degenerate ranges and non-finite or all-zero weights.
func (t Tables) Validate() error {
	for name, r := range t.Ranges {
		if !analysis.IsFinite(r.Min) || !analysis.IsFinite(r.Max) || r.Max <= r.Min {
			return fmt.Errorf("invalid range for %s: min=%v max=%v", name, r.Min, r.Max)
		}
	}
	total := 0.0
	for name, w := range t.Weights {
		if !analysis.IsFinite(w) {
			return fmt.Errorf("invalid weight for %s: %v", name, w)
		}
		total += math.Abs(w)
	}
	if total == 0 {
		return fmt.Errorf("weight table must contain at least one non-zero weight")
	}
	return nil
}

// RangeFor returns the configured range, or the unit range for unknown
// features. The boolean reports whether the feature was configured.
func (t Tables) RangeFor(name analysis.FeatureName) (Range, bool) {
	if r, ok := t.Ranges[name]; ok {
		return r, true
	}
	return unitRange, false
}

// Normalize clamps value into the feature's range, then scales to [0,1].
func (t Tables) Normalize(name analysis.FeatureName, value float64) float64 {
	r, _ := t.RangeFor(name)
	if r.Max <= r.Min {
		return 0
	}
	clamped := analysis.Clamp(value, r.Min, r.Max)
	return analysis.Clamp01((clamped - r.Min) / (r.Max - r.Min))
}

// NormalizeAll maps every feature in the set through Normalize.
func (t Tables) NormalizeAll(fs analysis.FeatureSet) analysis.FeatureSet {
	out := make(analysis.FeatureSet, len(fs))
	for name, v := range fs {
		out[name] = t.Normalize(name, v)
	}
	return out
}

// weightedFeatures lists configured features in name order so sums are
// deterministic.
func (t Tables) weightedFeatures() []analysis.FeatureName {
	names := make([]analysis.FeatureName, 0, len(t.Weights))
	for name, w := range t.Weights {
		if w != 0 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// oriented flips inverse features so that 1 is always the healthy end.
func oriented(weight, normalized float64) float64 {
	if weight < 0 {
		return 1 - normalized
	}
	return normalized
}
