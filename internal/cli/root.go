// Package cli implements the cogscreen command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ZanzyTHEbar/cogscreen/internal/app"
	"github.com/ZanzyTHEbar/cogscreen/internal/config"
	"github.com/ZanzyTHEbar/cogscreen/internal/monitoring"
)

// Version is set at build time with -ldflags.
var Version = "dev"

// state is shared by the subcommands of one root command.
type state struct {
	cfgFile    string
	verbose    bool
	jsonOutput bool

	v   *viper.Viper
	cfg *config.Config
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	s := &state{}

	rootCmd := &cobra.Command{
		Use:   "cogscreen",
		Short: "cogscreen - transcript-based cognitive health screening",
		Long: `cogscreen turns speech transcripts or free text into a cognitive health
risk score in [0,1] (lower is worse) with a confidence value, per-feature
attribution and comparison across repeated assessments.

Scores are screening signals, not diagnoses.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.loadConfig()
		},
	}

	rootCmd.PersistentFlags().StringVar(&s.cfgFile, "config", "", "config file (default: $HOME/.cogscreen/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&s.verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&s.jsonOutput, "json", false, "print machine-readable JSON")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the result store and calibration profiles")

	s.v = config.New()
	_ = s.v.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))

	rootCmd.AddCommand(
		newVersionCmd(),
		newAnalyzeCmd(s),
		newCompareCmd(s),
		newResultsCmd(s),
		newConfigCmd(s),
		newCalibrationCmd(s),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cogscreen %s\n", Version)
		},
	}
}

func (s *state) loadConfig() error {
	cfg, err := config.Load(s.v, s.cfgFile)
	if err != nil {
		return err
	}
	s.cfg = cfg
	return nil
}

func (s *state) logger(w io.Writer) *monitoring.Logger {
	level := slog.LevelWarn
	if s.verbose {
		level = monitoring.ParseLevel(s.cfg.Log.Level)
		if level > slog.LevelInfo {
			level = slog.LevelInfo
		}
	}
	return monitoring.NewLoggerWithWriter(w, level)
}

// open assembles the pipeline. Callers must Close the result.
func (s *state) open(cmd *cobra.Command, withStore bool) (*app.App, error) {
	return app.New(s.cfg, app.Options{
		WithoutStore: !withStore,
		Logger:       s.logger(cmd.ErrOrStderr()),
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
