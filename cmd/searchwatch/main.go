// Package main is the entry point for the searchwatch CLI.
//
// searchwatch can be used either as a library (SDK) or as a standalone
// binary with YAML configuration. This CLI provides the standalone binary
// approach, plus one-off commands for a single episode.
//
// Usage:
//
//	searchwatch serve -c config.yaml    # Start the dashboard
//	searchwatch validate -c config.yaml # Validate configuration
//	searchwatch check --server ... --indexer tvdb --series 101 --season 2 --episode 5
//	searchwatch search --server ... --indexer tvdb --series 101 --season 2 --episode 5
//	searchwatch version                 # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "searchwatch",
	Short: "Follow Medusa manual searches on a live dashboard",
	Long: `searchwatch follows manual episode searches on a Medusa server.

It polls the server's search status for each configured episode, slowing
down while a search is queued and stopping once it finishes, and shows
the progress in a web UI with Server-Sent Events for live updates.

Quick start:
  1. Create a config file (searchwatch.yaml)
  2. Run: searchwatch serve -c searchwatch.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  medusa:
    url: http://localhost:8081
    headers:
      X-Api-Key: ${MEDUSA_API_KEY}
  episodes:
    - indexer: tvdb
      series_id: 101
      season: 2
      episode: 5`,
	SilenceUsage: true,
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this searchwatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "searchwatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

// newLogger creates a JSON logger for CLI use, at the level given by the
// --log-level flag.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	raw, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", raw, err)
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}
