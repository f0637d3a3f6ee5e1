package scoring

import (
	"math"
	"sort"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	apperrors "github.com/ZanzyTHEbar/cogscreen/internal/errors"
)

const (
	// BaselineValue is the expected score with no information.
	BaselineValue = 0.5

	topFeatureCount = 5
)

// Attribute explains a scoring result in terms of the vector it was
// computed from.
func (e *Engine) Attribute(fv *analysis.FeatureVector, result *ScoringResult) (*Explanation, error) {
	if fv == nil {
		return nil, apperrors.NewValidationError("feature vector is required", "featureVector")
	}
	return e.AttributeFeatures(fv.FeatureSet(), result)
}

// AttributeFeatures is Attribute over a flat feature set.
func (e *Engine) AttributeFeatures(fs analysis.FeatureSet, result *ScoringResult) (*Explanation, error) {
	if result == nil {
		return nil, apperrors.NewValidationError("scoring result is required", "scoringResult")
	}

	records, method := Attribute(fs, result, e.tables)

	exp := &Explanation{
		ExplanationID:     e.newID(),
		ScoringID:         result.ScoringID,
		BaselineValue:     BaselineValue,
		Records:           records,
		AttributionMethod: method,
		CreatedAt:         e.now().UTC(),
	}
	exp.TopPositiveFeatures, exp.TopNegativeFeatures = topFeatures(records, topFeatureCount)

	return exp, nil
}

// Attribute produces ranked attribution records, one per feature present
// in fs. Primary results carrying model contributions are attributed from
// those values as given, with 0 for features the model did not name. All
// other results, and primary results whose contributions over the present
// features sum to 0, use the fallback weights, where each feature's
// absolute importance is |w|/Σ|w| and its signed value is (o-0.5)·|w|/Σ|w|,
// so the signed values sum to riskScore-0.5.
func Attribute(fs analysis.FeatureSet, result *ScoringResult, tables Tables) ([]AttributionRecord, ModelUsed) {
	if result.ModelUsed == ModelPrimary {
		if records, ok := primaryRecords(fs, result.Contributions, tables); ok {
			return finalizeRecords(records), ModelPrimary
		}
	}
	return finalizeRecords(fallbackRecords(fs, tables)), ModelFallback
}

// primaryRecords reports false when no present feature carries a nonzero
// contribution.
func primaryRecords(fs analysis.FeatureSet, contributions map[analysis.FeatureName]float64, tables Tables) ([]AttributionRecord, bool) {
	if presentContributionTotal(fs, contributions) == 0 {
		return nil, false
	}

	records := make([]AttributionRecord, 0, len(fs))
	for name, raw := range fs {
		c := contributions[name]
		records = append(records, AttributionRecord{
			FeatureName:        name,
			RawValue:           raw,
			NormalizedValue:    tables.Normalize(name, raw),
			ShapLikeValue:      c,
			AbsoluteImportance: math.Abs(c),
		})
	}
	return records, true
}

func presentContributionTotal(fs analysis.FeatureSet, contributions map[analysis.FeatureName]float64) float64 {
	total := 0.0
	for name, c := range contributions {
		if _, ok := fs[name]; ok {
			total += math.Abs(c)
		}
	}
	return total
}

func fallbackRecords(fs analysis.FeatureSet, tables Tables) []AttributionRecord {
	absSum := 0.0
	for _, name := range tables.weightedFeatures() {
		if _, ok := fs[name]; ok {
			absSum += math.Abs(tables.Weights[name])
		}
	}
	if absSum == 0 {
		return nil
	}

	var records []AttributionRecord
	for _, name := range tables.weightedFeatures() {
		raw, ok := fs[name]
		if !ok {
			continue
		}
		w := tables.Weights[name]
		share := math.Abs(w) / absSum
		normalized := tables.Normalize(name, raw)

		records = append(records, AttributionRecord{
			FeatureName:        name,
			RawValue:           raw,
			NormalizedValue:    normalized,
			ShapLikeValue:      (oriented(w, normalized) - BaselineValue) * share,
			AbsoluteImportance: share,
		})
	}
	return records
}

// finalizeRecords sets direction and percentage, then ranks by absolute
// importance with ties broken by name.
func finalizeRecords(records []AttributionRecord) []AttributionRecord {
	total := 0.0
	for _, r := range records {
		total += r.AbsoluteImportance
	}

	for i := range records {
		records[i].Direction = DirectionNegative
		if records[i].ShapLikeValue > 0 {
			records[i].Direction = DirectionPositive
		}
		if total > 0 {
			records[i].PercentageContribution = records[i].AbsoluteImportance / total * 100
		}
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].AbsoluteImportance != records[j].AbsoluteImportance {
			return records[i].AbsoluteImportance > records[j].AbsoluteImportance
		}
		return records[i].FeatureName < records[j].FeatureName
	})
	for i := range records {
		records[i].Rank = i + 1
	}

	return records
}

// topFeatures returns up to n features pushing the score up and down, in
// rank order.
func topFeatures(records []AttributionRecord, n int) (positive, negative []analysis.FeatureName) {
	positive = []analysis.FeatureName{}
	negative = []analysis.FeatureName{}
	for _, r := range records {
		switch {
		case r.ShapLikeValue > 0 && len(positive) < n:
			positive = append(positive, r.FeatureName)
		case r.ShapLikeValue < 0 && len(negative) < n:
			negative = append(negative, r.FeatureName)
		}
	}
	return positive, negative
}
