package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/searchwatch"
	"github.com/spf13/cobra"
)

// searchSettleDelay is how long after the forced search a finished status
// is trusted; results checked sooner may predate the search.
const searchSettleDelay = time.Second

// searchCmd forces a manual search and follows it to completion.
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Force a manual search for one episode and follow it",
	Long: `Start a forced manual search for one episode, then poll its status
until the server reports the search finished.

Progress is printed one line per status check.

Example:
  searchwatch search --server http://localhost:8081 -H X-Api-Key=secret \
    --indexer tvdb --series 101 --season 2 --episode 5
  searchwatch search ... --search-type season --wait 30m`,
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	addEpisodeFlags(searchCmd)

	searchCmd.Flags().Duration("wait", 10*time.Minute, "give up after this long")
	searchCmd.Flags().Int("max-errors", 20, "give up after this many consecutive failed checks (0 for never)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	ep, opts, err := episodeFromFlags(cmd)
	if err != nil {
		return err
	}
	wait, _ := cmd.Flags().GetDuration("wait")
	maxErrors, _ := cmd.Flags().GetInt("max-errors")

	// the watcher polls before the search is forced; only updates after the
	// forced one count toward completion
	updates := make(chan searchwatch.Update, 16)
	done := make(chan struct{})
	opts = append(opts,
		searchwatch.WithLogger(logger),
		searchwatch.WithMaxErrorTicks(maxErrors),
		searchwatch.WithUpdateCallback(func(u searchwatch.Update) {
			select {
			case updates <- u:
			case <-done:
			}
		}),
	)

	w, err := searchwatch.New(opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- w.Start(ctx)
	}()
	defer func() {
		cancel()
		<-errChan
	}()
	// closed before the watcher is waited on
	defer close(done)

	if err := w.ForceSearch(ctx, ep.Key()); err != nil {
		return fmt.Errorf("failed to start search: %w", err)
	}

	var forcedAt time.Time
	for {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return fmt.Errorf("search did not finish within %s", wait)
			}
			return nil
		case u := <-updates:
			if u.Forced {
				forcedAt = u.CheckedAt
			}
			if forcedAt.IsZero() {
				continue
			}
			printUpdate(cmd, u)
			if !u.Forced && !u.Polling && u.CheckedAt.Sub(forcedAt) >= searchSettleDelay {
				if u.Error != nil || u.Result == searchwatch.ResultError {
					return errors.New("gave up after consecutive failed checks")
				}
				return nil
			}
		}
	}
}
