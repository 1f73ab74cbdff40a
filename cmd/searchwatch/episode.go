package main

import (
	"fmt"
	"strings"

	"github.com/jpalmerr/searchwatch"
	"github.com/spf13/cobra"
)

// addEpisodeFlags registers the flags naming a server and one episode.
func addEpisodeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("server", "", "Medusa base URL, e.g. http://localhost:8081 (required)")
	f.StringArrayP("header", "H", nil, "extra request header as Key=Value, repeatable")
	f.String("indexer", "tvdb", "indexer name")
	f.String("series", "", "series id on the indexer (required)")
	f.String("season", "", "season number (required)")
	f.String("episode", "", "episode number (required)")
	f.String("search-type", "episode", "manual search type: episode or season")
	f.Duration("request-timeout", 0, "per-request timeout (default 15s)")
	f.Duration("poll-interval", 0, "delay between checks while searching (default 5s)")
	f.Duration("queued-interval", 0, "delay between checks while queued (default 7s)")

	_ = cmd.MarkFlagRequired("server")
	_ = cmd.MarkFlagRequired("series")
	_ = cmd.MarkFlagRequired("season")
	_ = cmd.MarkFlagRequired("episode")
}

// episodeFromFlags builds the episode and the shared watcher options from
// the flags registered by addEpisodeFlags.
func episodeFromFlags(cmd *cobra.Command) (searchwatch.Episode, []searchwatch.Option, error) {
	f := cmd.Flags()
	server, _ := f.GetString("server")
	headers, _ := f.GetStringArray("header")
	indexer, _ := f.GetString("indexer")
	series, _ := f.GetString("series")
	season, _ := f.GetString("season")
	number, _ := f.GetString("episode")
	rawType, _ := f.GetString("search-type")
	timeout, _ := f.GetDuration("request-timeout")
	pollInterval, _ := f.GetDuration("poll-interval")
	queuedInterval, _ := f.GetDuration("queued-interval")

	searchType, err := searchwatch.ParseSearchType(rawType)
	if err != nil {
		return searchwatch.Episode{}, nil, err
	}
	ep, err := searchwatch.ParseEpisode(indexer, series, season, number, searchwatch.WithSearchType(searchType))
	if err != nil {
		return searchwatch.Episode{}, nil, err
	}

	opts := []searchwatch.Option{
		searchwatch.WithServer(server),
		searchwatch.WithEpisode(ep),
		searchwatch.WithoutDashboard(),
	}
	for _, h := range headers {
		key, value, ok := strings.Cut(h, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return searchwatch.Episode{}, nil, fmt.Errorf("invalid --header %q, want Key=Value", h)
		}
		opts = append(opts, searchwatch.WithHeaders(strings.TrimSpace(key), value))
	}
	if timeout > 0 {
		opts = append(opts, searchwatch.WithTimeout(timeout))
	}
	if pollInterval > 0 {
		opts = append(opts, searchwatch.WithPollInterval(pollInterval))
	}
	if queuedInterval > 0 {
		opts = append(opts, searchwatch.WithQueuedInterval(queuedInterval))
	}
	return ep, opts, nil
}

// printUpdate writes one update as a single status line.
func printUpdate(cmd *cobra.Command, u searchwatch.Update) {
	out := cmd.OutOrStdout()
	result := u.Result.String()
	if result == "" {
		result = "-"
	}

	line := fmt.Sprintf("%s  %-9s  %s", u.Episode.Key(), result, u.Message)
	if u.Polling && !u.Forced {
		line += fmt.Sprintf(" (next check in %s)", u.NextCheck)
	}
	fmt.Fprintln(out, line)
}
