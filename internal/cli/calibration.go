package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/cogscreen/internal/analysis"
	"github.com/ZanzyTHEbar/cogscreen/internal/app"
	"github.com/ZanzyTHEbar/cogscreen/internal/scoring"
)

func newCalibrationCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibration",
		Short: "Manage fallback scoring calibration profiles",
		Long: `Calibration profiles override the normal ranges and weights used by the
fallback scorer. Profiles live in <data_dir>/calibration/<name>.json and are
selected with engine.calibration_profile.`,
	}
	cmd.AddCommand(newCalibrationInitCmd(s), newCalibrationShowCmd(s))
	return cmd
}

func newCalibrationInitCmd(s *state) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <name>",
		Short: "Write a profile seeded with the default tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := scoring.NewCalibrationStore(app.CalibrationDir(s.cfg))

			existing, err := store.LoadProfile(args[0])
			if err != nil {
				return err
			}
			if existing != nil && !force {
				return fmt.Errorf("calibration profile %q already exists (use --force to overwrite)", args[0])
			}

			defaults := scoring.DefaultTables()
			profile := &scoring.CalibrationProfile{
				Description: "Seeded from the built-in tables",
				Ranges:      defaults.Ranges,
				Weights:     defaults.Weights,
			}
			if err := store.SaveProfile(args[0], profile); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created calibration profile %q in %s\n", args[0], app.CalibrationDir(s.cfg))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing profile")
	return cmd
}

func newCalibrationShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Show the effective tables for a profile",
		Long:  "Show the effective tables for a profile, or for engine.calibration_profile when no name is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := s.cfg.Engine.CalibrationProfile
			if len(args) == 1 {
				name = args[0]
			}

			store := scoring.NewCalibrationStore(app.CalibrationDir(s.cfg))
			if name != "" {
				p, err := store.LoadProfile(name)
				if err != nil {
					return err
				}
				if p == nil {
					return fmt.Errorf("calibration profile %q not found: %w", name, os.ErrNotExist)
				}
			}

			tables, err := store.LoadTables(name)
			if err != nil {
				return err
			}

			if s.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), tables)
			}

			w := cmd.OutOrStdout()
			if name == "" {
				name = "built-in"
			}
			fmt.Fprintf(w, "Profile: %s\n\n", name)
			fmt.Fprintf(w, "%-28s %8s %8s %8s %7s\n", "FEATURE", "MIN", "MAX", "OPTIMAL", "WEIGHT")

			names := make([]analysis.FeatureName, 0, len(tables.Weights))
			for n := range tables.Weights {
				names = append(names, n)
			}
			sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

			for _, n := range names {
				r, ok := tables.Ranges[n]
				if !ok {
					fmt.Fprintf(w, "%-28s %8s %8s %8s %7.3f\n", n, "-", "-", "-", tables.Weights[n])
					continue
				}
				fmt.Fprintf(w, "%-28s %8.2f %8.2f %8.2f %7.3f\n", n, r.Min, r.Max, r.Optimal, tables.Weights[n])
			}
			return nil
		},
	}
}
