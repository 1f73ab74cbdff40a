package config

import (
	"sort"

	"github.com/jpalmerr/searchwatch"
)

// BuildEpisodes converts parsed configuration into SDK Episode objects.
//
// Direct episodes come first, in file order, followed by each grid expanded
// via cartesian product of its seasons and episodes.
func BuildEpisodes(cfg *Config) ([]searchwatch.Episode, error) {
	var episodes []searchwatch.Episode

	for _, ec := range cfg.Episodes {
		opts, err := episodeOptions(ec.SearchType, ec.Labels)
		if err != nil {
			return nil, err
		}
		ep, err := searchwatch.NewEpisode(ec.Indexer, ec.SeriesID, ec.Season, ec.Episode, opts...)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}

	for _, gc := range cfg.Grids {
		opts, err := episodeOptions(gc.SearchType, gc.Labels)
		if err != nil {
			return nil, err
		}
		grid, err := searchwatch.NewEpisodeGrid(gc.Indexer, gc.SeriesID, gc.Seasons, gc.Episodes, opts...)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, grid...)
	}

	return episodes, nil
}

// BuildWatcherOptions converts parsed configuration into the options for
// [searchwatch.New], episodes included.
func BuildWatcherOptions(cfg *Config) ([]searchwatch.Option, error) {
	episodes, err := BuildEpisodes(cfg)
	if err != nil {
		return nil, err
	}

	opts := []searchwatch.Option{
		searchwatch.WithServer(cfg.Medusa.URL),
		searchwatch.WithEpisodes(episodes...),
		searchwatch.WithPort(cfg.Port),
		searchwatch.WithPollInterval(cfg.PollInterval.Duration()),
		searchwatch.WithQueuedInterval(cfg.QueuedInterval.Duration()),
		searchwatch.WithMaxErrorTicks(cfg.MaxErrorTicks),
	}

	if cfg.Title != "" {
		opts = append(opts, searchwatch.WithTitle(cfg.Title))
	}
	if len(cfg.Medusa.Headers) > 0 {
		opts = append(opts, searchwatch.WithHeaders(mapToKeyValuePairs(cfg.Medusa.Headers)...))
	}
	if cfg.Medusa.Timeout != 0 {
		opts = append(opts, searchwatch.WithTimeout(cfg.Medusa.Timeout.Duration()))
	}
	if cfg.Medusa.StatusPath != "" {
		opts = append(opts, searchwatch.WithStatusPath(cfg.Medusa.StatusPath))
	}
	if cfg.Medusa.SearchPath != "" {
		opts = append(opts, searchwatch.WithSearchPath(cfg.Medusa.SearchPath))
	}

	extractor, err := buildExtractor(cfg.Medusa.Extractor)
	if err != nil {
		return nil, err
	}
	if extractor != nil {
		opts = append(opts, searchwatch.WithExtractor(extractor))
	}

	return opts, nil
}

func episodeOptions(searchType string, labels map[string]string) ([]searchwatch.EpisodeOption, error) {
	st, err := searchwatch.ParseSearchType(searchType)
	if err != nil {
		return nil, err
	}
	opts := []searchwatch.EpisodeOption{searchwatch.WithSearchType(st)}
	if len(labels) > 0 {
		opts = append(opts, searchwatch.WithLabels(mapToKeyValuePairs(labels)...))
	}
	return opts, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}

// buildExtractor converts ExtractorConfig to a ResultExtractor.
// Returns nil for default/empty extractors (SDK uses DefaultExtractor).
func buildExtractor(ec ExtractorConfig) (searchwatch.ResultExtractor, error) {
	switch ec.Type {
	case "json":
		return searchwatch.JSONFieldExtractor(ec.Path), nil
	case "regex":
		return searchwatch.RegexExtractor(ec.Pattern)
	default:
		return nil, nil
	}
}
