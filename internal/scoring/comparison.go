package scoring

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

const (
	MinComparisonSize = 2
	MaxComparisonSize = 10

	highConsistencyVariance     = 0.01
	moderateConsistencyVariance = 0.05
	stableTrendDelta            = 0.05
	minTrendAssessments         = 3

	// recencyTauDays is the decay constant for recency-weighted scores.
	recencyTauDays = 30.0
)

type assessment struct {
	result  ScoringResult
	records []AttributionRecord
}

// Compare computes consistency, trend and range statistics over 2 to 10
// scored assessments. attributions is either empty or parallel to results.
func Compare(results []ScoringResult, attributions [][]AttributionRecord) (*ComparisonReport, error) {
	n := len(results)
	if n < MinComparisonSize || n > MaxComparisonSize {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("comparison requires between %d and %d results, got %d", MinComparisonSize, MaxComparisonSize, n),
			"results",
		)
	}
	if len(attributions) != 0 && len(attributions) != n {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("got %d attribution sets for %d results", len(attributions), n),
			"attributions",
		)
	}

	set := make([]assessment, n)
	for i, r := range results {
		set[i].result = r
		if len(attributions) > 0 {
			set[i].records = attributions[i]
		}
	}
	sort.SliceStable(set, func(i, j int) bool {
		return set[i].result.Timestamp.Before(set[j].result.Timestamp)
	})

	scores := make([]float64, n)
	times := make([]time.Time, n)
	report := &ComparisonReport{
		AssessmentCount: n,
		Scores:          make([]ScorePoint, n),
	}
	for i, a := range set {
		scores[i] = a.result.RiskScore
		times[i] = a.result.Timestamp
		report.Scores[i] = ScorePoint{
			ScoringID: a.result.ScoringID,
			Timestamp: a.result.Timestamp,
			RiskScore: a.result.RiskScore,
			Category:  a.result.RiskCategory,
			ModelUsed: a.result.ModelUsed,
		}
	}

	report.Trend, report.FirstHalfMean, report.SecondHalfMean, report.TrendDelta = ScoreTrend(scores)
	report.Range = scoreRange(scores)
	report.MeanScore = analysis.Mean(scores)
	report.ScoreStdDev = math.Sqrt(analysis.PopulationVariance(scores))
	report.RecencyWeightedScore = recencyWeightedMean(scores, times, recencyTauDays)
	report.FeatureConsistency = featureConsistency(set)
	report.Insights = GenerateInsights(report)

	return report, nil
}

// ScoreTrend compares the mean of the first ⌊n/2⌋ scores with the mean of
// the rest. Fewer than three scores are stable by convention.
func ScoreTrend(scores []float64) (trend Trend, firstMean, secondMean, delta float64) {
	if len(scores) < minTrendAssessments {
		return TrendStable, 0, 0, 0
	}

	half := len(scores) / 2
	firstMean = analysis.Mean(scores[:half])
	secondMean = analysis.Mean(scores[half:])
	delta = secondMean - firstMean

	switch {
	case math.Abs(delta) < stableTrendDelta:
		trend = TrendStable
	case delta > 0:
		trend = TrendImproving
	default:
		trend = TrendDeclining
	}
	return trend, firstMean, secondMean, delta
}

func scoreRange(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = math.Min(lo, s)
		hi = math.Max(hi, s)
	}
	return hi - lo
}

// featureConsistency uses the assessments in which each feature appears.
func featureConsistency(set []assessment) map[analysis.FeatureName]FeatureConsistency {
	values := make(map[analysis.FeatureName][]float64)
	for _, a := range set {
		for _, r := range a.records {
			values[r.FeatureName] = append(values[r.FeatureName], r.ShapLikeValue)
		}
	}

	out := make(map[analysis.FeatureName]FeatureConsistency, len(values))
	for name, vs := range values {
		variance := analysis.PopulationVariance(vs)
		out[name] = FeatureConsistency{
			Mean:        analysis.Mean(vs),
			Variance:    variance,
			Consistency: ClassifyConsistency(variance),
			Samples:     len(vs),
		}
	}
	return out
}

// ClassifyConsistency buckets a contribution variance.
func ClassifyConsistency(variance float64) Consistency {
	switch {
	case variance < highConsistencyVariance:
		return ConsistencyHigh
	case variance < moderateConsistencyVariance:
		return ConsistencyModerate
	default:
		return ConsistencyLow
	}
}
