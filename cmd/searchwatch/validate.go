package main

import (
	"fmt"

	"github.com/jpalmerr/searchwatch/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the server.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a searchwatch configuration file without starting the server.

This command parses the YAML, expands environment variables, validates
all fields and builds every episode, so duplicate episodes are caught too.
It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  searchwatch validate -c config.yaml
  searchwatch validate --config /etc/searchwatch/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	episodes, err := config.BuildEpisodes(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	seen := make(map[string]struct{}, len(episodes))
	for _, ep := range episodes {
		if _, dup := seen[ep.Key()]; dup {
			return fmt.Errorf("invalid config: duplicate episode %q", ep.Key())
		}
		seen[ep.Key()] = struct{}{}
	}

	direct := len(cfg.Episodes)
	fromGrids := len(episodes) - direct

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Server:          %s\n", cfg.Medusa.URL)
	fmt.Fprintf(out, "  Port:            %d\n", cfg.Port)
	fmt.Fprintf(out, "  Poll interval:   %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Queued interval: %s\n", cfg.QueuedInterval.Duration())
	fmt.Fprintf(out, "  Episodes:        %d direct + %d from grids = %d total\n",
		direct, fromGrids, len(episodes))

	return nil
}
