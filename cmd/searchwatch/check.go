package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jpalmerr/searchwatch"
	"github.com/spf13/cobra"
)

// checkCmd performs one status check for one episode.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the manual search status of one episode",
	Long: `Ask the Medusa server once for the manual search status of one episode
and print the outcome.

Exit codes:
  0 - The server answered (any search state)
  1 - The request failed or the flags are invalid

Example:
  searchwatch check --server http://localhost:8081 -H X-Api-Key=secret \
    --indexer tvdb --series 101 --season 2 --episode 5`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addEpisodeFlags(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	ep, opts, err := episodeFromFlags(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, searchwatch.WithLogger(logger))

	w, err := searchwatch.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	u, err := w.Check(ctx, ep.Key())
	if err != nil {
		return err
	}
	printUpdate(cmd, u)

	if u.Error != nil {
		return fmt.Errorf("status check failed: %w", u.Error)
	}
	return nil
}
