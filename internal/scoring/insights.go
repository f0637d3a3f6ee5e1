package scoring

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
)

const highVariabilityRange = 0.3

// GenerateInsights maps report statistics to messages. The output order is
// fixed: trend, variability, latest risk, features, data quality.
func GenerateInsights(report *ComparisonReport) []Insight {
	insights := []Insight{trendInsight(report)}

	if report.Range >= highVariabilityRange {
		insights = append(insights, Insight{
			Category: "variability",
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Risk scores vary by %.2f across assessments; results may be sensitive to recording conditions.", report.Range),
			Data:     map[string]interface{}{"range": report.Range, "stdDev": report.ScoreStdDev},
		})
	}

	if n := len(report.Scores); n > 0 && report.Scores[n-1].Category == RiskHigh {
		latest := report.Scores[n-1]
		insights = append(insights, Insight{
			Category: "risk",
			Priority: PriorityHigh,
			Message:  "The most recent assessment falls in the high-risk band. A professional cognitive evaluation is recommended.",
			Data:     map[string]interface{}{"scoringId": latest.ScoringID, "riskScore": latest.RiskScore},
		})
	}

	for _, name := range unstableFeatures(report.FeatureConsistency) {
		fc := report.FeatureConsistency[name]
		insights = append(insights, Insight{
			Category: "feature",
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("The contribution of %s is inconsistent across assessments.", name),
			Data:     map[string]interface{}{"feature": string(name), "variance": fc.Variance, "mean": fc.Mean},
		})
	}

	fallbacks := 0
	for _, s := range report.Scores {
		if s.ModelUsed == ModelFallback {
			fallbacks++
		}
	}
	if fallbacks > 0 {
		insights = append(insights, Insight{
			Category: "quality",
			Priority: PriorityLow,
			Message:  fmt.Sprintf("%d of %d assessments were scored by the fallback model and carry reduced confidence.", fallbacks, len(report.Scores)),
			Data:     map[string]interface{}{"fallbackCount": fallbacks},
		})
	}

	return insights
}

func trendInsight(report *ComparisonReport) Insight {
	data := map[string]interface{}{
		"trend":          string(report.Trend),
		"delta":          report.TrendDelta,
		"firstHalfMean":  report.FirstHalfMean,
		"secondHalfMean": report.SecondHalfMean,
	}

	switch report.Trend {
	case TrendDeclining:
		return Insight{
			Category: "trend",
			Priority: PriorityHigh,
			Message:  "Scores are declining across assessments. Recommend clinical follow-up and more frequent monitoring.",
			Data:     data,
		}
	case TrendImproving:
		return Insight{
			Category: "trend",
			Priority: PriorityLow,
			Message:  "Scores are improving across assessments. Continue the current routine.",
			Data:     data,
		}
	default:
		msg := "Scores are stable across assessments."
		if report.AssessmentCount < minTrendAssessments {
			msg = "At least three assessments are needed to establish a trend."
		}
		return Insight{Category: "trend", Priority: PriorityInfo, Message: msg, Data: data}
	}
}

func unstableFeatures(consistency map[analysis.FeatureName]FeatureConsistency) []analysis.FeatureName {
	var names []analysis.FeatureName
	for name, fc := range consistency {
		if fc.Consistency == ConsistencyLow {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}
