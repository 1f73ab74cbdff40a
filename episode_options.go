package searchwatch

import "errors"

// episodeConfig holds mutable state during episode construction.
type episodeConfig struct {
	searchType SearchType
	labels     map[string]string
}

// EpisodeOption configures an [Episode] during construction.
type EpisodeOption func(*episodeConfig) error

// WithSearchType selects an episode or season search. Defaults to
// [SearchEpisode].
func WithSearchType(t SearchType) EpisodeOption {
	return func(cfg *episodeConfig) error {
		if t != SearchEpisode && t != SearchSeason {
			return errors.New("search type must be SearchEpisode or SearchSeason")
		}
		cfg.searchType = t
		return nil
	}
}

// WithLabels adds metadata labels shown on the dashboard, such as the show
// title. Accepts key-value pairs; the number of arguments must be even.
//
// Example:
//
//	ep, err := searchwatch.NewEpisode("tvdb", 101, 2, 5,
//	    searchwatch.WithLabels("show", "The Expanse"),
//	)
func WithLabels(keyValues ...string) EpisodeOption {
	return func(cfg *episodeConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithLabels requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.labels[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}
