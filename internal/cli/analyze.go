package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/ingest"
	"github.com/ZanzyTHEbar/cogscreen/internal/pipeline"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

func newAnalyzeCmd(s *state) *cobra.Command {
	var (
		file         string
		metadataFile string
		save         bool
		opts         analysis.Options
	)

	cmd := &cobra.Command{
		Use:   "analyze [text]",
		Short: "Score a transcript",
		Long: `Extract features from a transcript, score it and explain the score.

The transcript is read from --file (.txt, .md, .pdf, .docx), from the
arguments, or from stdin when neither is given.`,
		Example: `  cogscreen analyze --file session-1.txt --save
  cogscreen analyze --file interview.pdf --advanced --json
  echo "I went to the store." | cogscreen analyze`,
		RunE: func(cmd *cobra.Command, args []string) error {
			transcript, err := readTranscript(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}

			in := pipeline.AnalyzeInput{Text: transcript.Text, Options: opts}
			if metadataFile != "" {
				in.Metadata, err = ingest.ReadMetadata(metadataFile)
				if err != nil {
					return err
				}
			}

			a, err := s.open(cmd, save)
			if err != nil {
				return err
			}
			defer a.Close()

			out, err := a.Service.Analyze(cmd.Context(), in)
			if err != nil {
				return err
			}

			if s.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printAnalysis(cmd.OutOrStdout(), transcript.Title, out, save)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "transcript file (.txt, .md, .pdf, .docx)")
	cmd.Flags().StringVar(&metadataFile, "metadata", "", "speech timing metadata JSON file")
	cmd.Flags().BoolVar(&save, "save", false, "store the result for later comparison")
	cmd.Flags().BoolVar(&opts.IncludeAdvanced, "advanced", false, "include linguistic features")
	cmd.Flags().BoolVar(&opts.IncludeTimingFeatures, "timing", false, "include speech timing features (requires --metadata)")
	cmd.Flags().StringVar(&opts.AnalysisType, "type", "", "analysis type label echoed in the result")
	return cmd
}

func readTranscript(stdin io.Reader, file string, args []string) (*ingest.Transcript, error) {
	switch {
	case file != "" && len(args) > 0:
		return nil, fmt.Errorf("pass either --file or text arguments, not both")
	case file != "":
		return ingest.ReadFile(file)
	case len(args) > 0:
		return &ingest.Transcript{Title: "arguments", Text: strings.Join(args, " ")}, nil
	default:
		return ingest.Read(stdin)
	}
}

func printAnalysis(w io.Writer, title string, out *pipeline.AnalyzeOutput, save bool) {
	r := out.Result
	fmt.Fprintf(w, "Transcript:   %s\n", title)
	fmt.Fprintf(w, "Scoring ID:   %s\n", r.ScoringID)
	fmt.Fprintf(w, "Risk score:   %.3f (%s)\n", r.RiskScore, r.RiskLabel)
	fmt.Fprintf(w, "Confidence:   %.3f\n", r.Confidence)
	fmt.Fprintf(w, "Model:        %s (%s)\n", r.ModelUsed, r.ModelName)
	if r.UpstreamError != "" {
		fmt.Fprintf(w, "Primary:      unavailable, %s\n", r.UpstreamError)
	}
	fmt.Fprintf(w, "Completeness: %.0f%%\n", r.Completeness*100)
	fmt.Fprintf(w, "\n%s\n", r.RiskDescription)

	if out.Explanation != nil {
		printTopFeatures(w, out.Explanation, 5)
	}

	switch {
	case save && out.Persisted:
		fmt.Fprintf(w, "\nSaved. Compare later with: cogscreen compare %s <other-id>\n", r.ScoringID)
	case save:
		fmt.Fprintln(w, "\nWarning: the result could not be saved")
	}
}

func printTopFeatures(w io.Writer, exp *scoring.Explanation, n int) {
	fmt.Fprintln(w, "\nTop contributing features:")
	for i, rec := range exp.Records {
		if i >= n {
			break
		}
		fmt.Fprintf(w, "  %2d. %-28s %+.4f (%5.1f%%, %s)\n",
			rec.Rank, rec.FeatureName, rec.ShapLikeValue, rec.PercentageContribution, rec.Direction)
	}
}
