package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ZanzyTHEbar/cogscreen/internal/config"
)

func newConfigCmd(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage cogscreen configuration",
		Long: `Manage cogscreen configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (COGSCREEN_*)
3. Config file (~/.cogscreen/config.yaml)
4. Defaults`,
	}
	cmd.AddCommand(newConfigShowCmd(s), newConfigInitCmd(s))
	return cmd
}

func newConfigShowCmd(s *state) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if used := s.v.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Configuration file: %s\n\n", used)
			} else {
				fmt.Fprintf(cmd.ErrOrStderr(), "No configuration file found (using defaults)\n\n")
			}

			if s.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), s.cfg)
			}
			out, err := s.cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigInitCmd(s *state) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			path := s.cfgFile
			if path == "" {
				path = config.DefaultConfigPath()
			}

			if _, statErr := os.Stat(path); statErr == nil && !force {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}

			defaults := config.Default()
			body, err := defaults.YAML()
			if err != nil {
				return err
			}

			header := "# cogscreen configuration\n" +
				"# Environment variables override these values, e.g. COGSCREEN_SERVER_PORT=9090.\n" +
				"# Secrets are read from the environment only:\n" +
				"#   COGSCREEN_MODEL_API_KEY, COGSCREEN_RATE_LIMIT_REDIS_PASSWORD\n\n"

			if err := os.WriteFile(path, append([]byte(header), body...), 0o600); err != nil {
				return fmt.Errorf("write config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created default configuration: %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
