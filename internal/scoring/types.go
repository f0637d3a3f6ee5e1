package scoring

import (
	"time"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
)

// ModelUsed records which scoring path produced a result.
type ModelUsed string

const (
	ModelPrimary  ModelUsed = "primary"
	ModelFallback ModelUsed = "fallback"
)

// RiskCategory is the three-tier classification of a risk score.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
)

// ScoringResult is immutable once returned by the engine.
type ScoringResult struct {
	ScoringID         string                           `json:"scoringId"`
	Timestamp         time.Time                        `json:"timestamp"`
	RiskScore         float64                          `json:"riskScore"`
	RiskCategory      RiskCategory                     `json:"riskCategory"`
	RiskLabel         string                           `json:"riskLabel"`
	RiskDescription   string                           `json:"riskDescription"`
	Confidence        float64                          `json:"confidence"`
	ModelUsed         ModelUsed                        `json:"modelUsed"`
	ModelName         string                           `json:"modelName"`
	Completeness      float64                          `json:"completeness"`
	FeatureImportance map[analysis.FeatureName]float64 `json:"featureImportance"`
	AnalysisType      string                           `json:"analysisType,omitempty"`
	UpstreamError     string                           `json:"upstreamError,omitempty"`

	// Contributions holds the signed per-feature scores returned by the
	// primary model, if any. Attribution uses them as given.
	Contributions map[analysis.FeatureName]float64 `json:"contributions,omitempty"`
}

// Direction is the sign of a feature's contribution.
type Direction string

const (
	DirectionPositive Direction = "positive"
	DirectionNegative Direction = "negative"
)

// AttributionRecord is one feature's share of a score.
type AttributionRecord struct {
	FeatureName            analysis.FeatureName `json:"featureName"`
	RawValue               float64              `json:"rawValue"`
	NormalizedValue        float64              `json:"normalizedValue"`
	ShapLikeValue          float64              `json:"shapLikeValue"`
	Direction              Direction            `json:"direction"`
	AbsoluteImportance     float64              `json:"absoluteImportance"`
	PercentageContribution float64              `json:"percentageContribution"`
	Rank                   int                  `json:"rank"`
}

// Explanation groups the attribution records of one scoring result.
type Explanation struct {
	ExplanationID       string                 `json:"explanationId"`
	ScoringID           string                 `json:"scoringId"`
	BaselineValue       float64                `json:"baselineValue"`
	Records             []AttributionRecord    `json:"records"`
	TopPositiveFeatures []analysis.FeatureName `json:"topPositiveFeatures"`
	TopNegativeFeatures []analysis.FeatureName `json:"topNegativeFeatures"`
	AttributionMethod   ModelUsed              `json:"attributionMethod"`
	CreatedAt           time.Time              `json:"createdAt"`
}

// ByFeature indexes the records by feature name.
func (e *Explanation) ByFeature() map[analysis.FeatureName]AttributionRecord {
	out := make(map[analysis.FeatureName]AttributionRecord, len(e.Records))
	for _, r := range e.Records {
		out[r.FeatureName] = r
	}
	return out
}

// Consistency classifies how stable a feature's contribution is.
type Consistency string

const (
	ConsistencyHigh     Consistency = "high"
	ConsistencyModerate Consistency = "moderate"
	ConsistencyLow      Consistency = "low"
)

// Trend is the direction of risk scores over time. Higher scores are
// healthier, so a rising sequence is improving.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

type FeatureConsistency struct {
	Mean        float64     `json:"mean"`
	Variance    float64     `json:"variance"`
	Consistency Consistency `json:"consistency"`
	Samples     int         `json:"samples"`
}

// Priority of an insight.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityInfo   Priority = "info"
)

type Insight struct {
	Category string                 `json:"category"`
	Priority Priority               `json:"priority"`
	Message  string                 `json:"message"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

type ScorePoint struct {
	ScoringID string       `json:"scoringId"`
	Timestamp time.Time    `json:"timestamp"`
	RiskScore float64      `json:"riskScore"`
	Category  RiskCategory `json:"riskCategory"`
	ModelUsed ModelUsed    `json:"modelUsed"`
}

// ComparisonReport is computed on demand and never stored.
type ComparisonReport struct {
	AssessmentCount      int                                         `json:"assessmentCount"`
	Scores               []ScorePoint                                `json:"scores"`
	Trend                Trend                                       `json:"trend"`
	TrendDelta           float64                                     `json:"trendDelta"`
	FirstHalfMean        float64                                     `json:"firstHalfMean"`
	SecondHalfMean       float64                                     `json:"secondHalfMean"`
	Range                float64                                     `json:"range"`
	MeanScore            float64                                     `json:"meanScore"`
	ScoreStdDev          float64                                     `json:"scoreStdDev"`
	RecencyWeightedScore float64                                     `json:"recencyWeightedScore"`
	FeatureConsistency   map[analysis.FeatureName]FeatureConsistency `json:"featureConsistency"`
	Insights             []Insight                                   `json:"insights"`
}
