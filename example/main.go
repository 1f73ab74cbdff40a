package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/searchwatch"
	"github.com/jpalmerr/searchwatch/example/mockmedusa"
)

func main() {
	// start mock Medusa server
	mock := mockmedusa.New(mockmedusa.DefaultTiming, nil)
	go func() {
		if err := http.ListenAndServe(":9999", mock.Handler()); err != nil {
			slog.Error("mock server error", "error", err)
		}
	}()
	time.Sleep(100 * time.Millisecond)

	// grid: S01E01..S01E04 of one show from one declaration
	episodes, err := searchwatch.NewEpisodeGrid("tvdb", 153021,
		[]int{1}, []int{1, 2, 3, 4},
		searchwatch.WithLabels("show", "The Walking Dead"),
	)
	if err != nil {
		slog.Error("failed to create episode grid", "error", err)
		os.Exit(1)
	}

	// and a season pack search
	season, _ := searchwatch.NewEpisode("tvdb", 280619, 3, 0,
		searchwatch.WithSearchType(searchwatch.SearchSeason),
		searchwatch.WithLabels("show", "The Expanse"),
	)
	episodes = append(episodes, season)

	w, err := searchwatch.New(
		searchwatch.WithServer("http://localhost:9999"),
		searchwatch.WithEpisodes(episodes...),
		searchwatch.WithPort(8080),
		searchwatch.WithTitle("searchwatch demo"),
		searchwatch.WithReloadCallback(func(ep searchwatch.Episode) {
			slog.Info("new search results", "episode", ep.Key())
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  searchwatch demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser and press")
	fmt.Println("  Search on any episode to start a simulated manual search.")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// kick off one search so the dashboard has something to show
	go func() {
		if err := w.ForceSearch(ctx, season.Key()); err != nil {
			slog.Warn("initial search not started", "error", err)
		}
	}()

	if err := w.Start(ctx); err != nil {
		slog.Error("searchwatch error", "error", err)
		os.Exit(1)
	}
}
