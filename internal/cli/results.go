package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/cogscreen/internal/database"
	"github.com/ZanzyTHEbar/cogscreen/internal/privacy"
)

func newResultsCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "List, show and delete stored assessments",
	}
	cmd.AddCommand(newResultsListCmd(s), newResultsShowCmd(s), newResultsDeleteCmd(s), newResultsPurgeCmd(s))
	return cmd
}

func newResultsListCmd(s *state) *cobra.Command {
	var (
		since    time.Duration
		from, to string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored assessments, newest first",
		Example: `  cogscreen results list --since 720h
  cogscreen results list --from 2026-01-01T00:00:00Z --to 2026-02-01T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := database.ListFilter{Limit: limit}
			var err error
			if since > 0 {
				filter.From = time.Now().Add(-since)
			}
			if from != "" {
				if filter.From, err = time.Parse(time.RFC3339, from); err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
			}
			if to != "" {
				if filter.To, err = time.Parse(time.RFC3339, to); err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
			}

			a, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Service.ListResults(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if s.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), list)
			}
			printResultList(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().DurationVar(&since, "since", 0, "only results newer than this duration")
	cmd.Flags().StringVar(&from, "from", "", "inclusive start time (RFC3339)")
	cmd.Flags().StringVar(&to, "to", "", "exclusive end time (RFC3339)")
	cmd.Flags().IntVar(&limit, "limit", database.DefaultListLimit, "maximum number of results")
	return cmd
}

func newResultsShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show <scoring-id>",
		Short: "Show one stored assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			assessment, err := a.Service.GetResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if s.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), assessment)
			}
			w := cmd.OutOrStdout()
			r := assessment.Result
			fmt.Fprintf(w, "Scoring ID:   %s\n", r.ScoringID)
			fmt.Fprintf(w, "Created:      %s\n", r.Timestamp.Format(time.RFC3339))
			fmt.Fprintf(w, "Risk score:   %.3f (%s)\n", r.RiskScore, r.RiskLabel)
			fmt.Fprintf(w, "Confidence:   %.3f\n", r.Confidence)
			fmt.Fprintf(w, "Model:        %s (%s)\n", r.ModelUsed, r.ModelName)
			if assessment.Explanation != nil {
				printTopFeatures(w, assessment.Explanation, 5)
			}
			return nil
		},
	}
}

func newResultsDeleteCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scoring-id>",
		Short: "Delete a stored assessment and its explanation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Service.DeleteResult(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newResultsPurgeCmd(s *state) *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete stored assessments past their retention period",
		Long: `Delete stored assessments older than --older-than, or older than
privacy.retention_days when the flag is not given.`,
		Example: "  cogscreen results purge --older-than 2160h",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := s.open(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			retention := privacy.NewService(a.Service, s.cfg.Privacy, a.Logger)
			var n int64
			switch {
			case olderThan > 0:
				n, err = retention.PurgeOlderThan(cmd.Context(), olderThan)
			case retention.Enabled():
				n, err = retention.PurgeExpired(cmd.Context())
			default:
				return fmt.Errorf("no retention period: pass --older-than or set privacy.retention_days")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d result(s)\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "delete results older than this duration")
	return cmd
}

func printResultList(w io.Writer, list []*database.Assessment) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No stored results")
		return
	}
	for _, a := range list {
		r := a.Result
		fmt.Fprintf(w, "%s  %s  %.3f  %-8s %.2f  %s\n",
			r.Timestamp.Format("2006-01-02 15:04"), r.ScoringID, r.RiskScore, r.RiskCategory, r.Confidence, r.ModelUsed)
	}
	fmt.Fprintf(w, "\n%d result(s)\n", len(list))
}
