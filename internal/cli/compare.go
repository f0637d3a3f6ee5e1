package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

func newCompareCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "compare <scoring-id> <scoring-id>...",
		Short: "Compare stored assessments",
		Long: `Load between 2 and 10 stored assessments and report the score trend,
range, per-feature consistency and insights.`,
		Args: cobra.RangeArgs(scoring.MinComparisonSize, scoring.MaxComparisonSize),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.Service.Compare(cmd.Context(), args)
			if err != nil {
				return err
			}

			if s.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printComparison(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printComparison(w io.Writer, report *scoring.ComparisonReport) {
	fmt.Fprintf(w, "Assessments: %d\n", report.AssessmentCount)
	for _, p := range report.Scores {
		fmt.Fprintf(w, "  %s  %s  %.3f  %-8s %s\n",
			p.Timestamp.Format("2006-01-02 15:04"), p.ScoringID, p.RiskScore, p.Category, p.ModelUsed)
	}
	fmt.Fprintf(w, "\nTrend:       %s (%+.3f)\n", report.Trend, report.TrendDelta)
	fmt.Fprintf(w, "Range:       %.3f\n", report.Range)
	fmt.Fprintf(w, "Mean:        %.3f (sd %.3f)\n", report.MeanScore, report.ScoreStdDev)

	if len(report.FeatureConsistency) > 0 {
		names := make([]analysis.FeatureName, 0, len(report.FeatureConsistency))
		for name := range report.FeatureConsistency {
			names = append(names, name)
		}
		sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

		fmt.Fprintln(w, "\nFeature consistency:")
		for _, name := range names {
			fc := report.FeatureConsistency[name]
			fmt.Fprintf(w, "  %-28s %-8s var %.5f\n", name, fc.Consistency, fc.Variance)
		}
	}

	if len(report.Insights) > 0 {
		fmt.Fprintln(w, "\nInsights:")
		for _, in := range report.Insights {
			fmt.Fprintf(w, "  [%s] %s\n", in.Priority, in.Message)
		}
	}
}
