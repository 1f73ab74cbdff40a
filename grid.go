package searchwatch

import (
	"errors"
	"fmt"
	"sort"
)

// NewEpisodeGrid creates one [Episode] per season and episode combination
// of a single show.
//
// The result is ordered by season, then episode. Duplicate numbers are an
// error, as are empty lists. Options apply to every generated episode, and
// each episode also receives "season" and "episode" labels.
//
// Example:
//
//	// S01E01..S01E03 and S02E01..S02E03
//	episodes, err := searchwatch.NewEpisodeGrid("tvdb", 101,
//	    []int{1, 2}, []int{1, 2, 3},
//	    searchwatch.WithLabels("show", "The Expanse"),
//	)
func NewEpisodeGrid(indexer string, seriesID int, seasons, episodes []int, opts ...EpisodeOption) ([]Episode, error) {
	if len(seasons) == 0 {
		return nil, errors.New("at least one season required")
	}
	if len(episodes) == 0 {
		return nil, errors.New("at least one episode required")
	}

	sortedSeasons, err := sortedUnique("season", seasons)
	if err != nil {
		return nil, err
	}
	sortedEpisodes, err := sortedUnique("episode", episodes)
	if err != nil {
		return nil, err
	}

	out := make([]Episode, 0, len(sortedSeasons)*len(sortedEpisodes))
	for _, season := range sortedSeasons {
		for _, number := range sortedEpisodes {
			epOpts := append([]EpisodeOption{}, opts...)
			epOpts = append(epOpts, WithLabels(
				"season", fmt.Sprint(season),
				"episode", fmt.Sprint(number),
			))

			ep, err := NewEpisode(indexer, seriesID, season, number, epOpts...)
			if err != nil {
				return nil, fmt.Errorf("season %d episode %d: %w", season, number, err)
			}
			out = append(out, ep)
		}
	}
	return out, nil
}

// sortedUnique returns a sorted copy of values, rejecting duplicates.
func sortedUnique(name string, values []int) ([]int, error) {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0, len(values))
	for _, v := range values {
		if _, dup := seen[v]; dup {
			return nil, fmt.Errorf("duplicate %s %d", name, v)
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out, nil
}
