package searchwatch

import (
	"errors"

	"github.com/jpalmerr/searchwatch/internal/poller"
)

// ErrInvalidEpisode is returned when episode identifiers are missing or not
// numeric.
var ErrInvalidEpisode = poller.ErrInvalidIdentifiers

// SearchType selects between an episode search and a season-wide search.
type SearchType string

const (
	// SearchEpisode searches for a single episode. This is the default.
	SearchEpisode SearchType = "episode"

	// SearchSeason searches for a full season pack.
	SearchSeason SearchType = "season"
)

// Episode identifies the show, season and episode a manual search runs for.
//
// Episode is immutable after creation via [NewEpisode] or [ParseEpisode].
type Episode struct {
	indexer    string
	seriesID   int
	season     int
	episode    int
	searchType SearchType
	labels     map[string]string
}

// Indexer returns the indexer name, e.g. "tvdb".
func (e Episode) Indexer() string {
	return e.indexer
}

// SeriesID returns the show's id on the indexer.
func (e Episode) SeriesID() int {
	return e.seriesID
}

// Season returns the season number.
func (e Episode) Season() int {
	return e.season
}

// Number returns the episode number within the season.
func (e Episode) Number() int {
	return e.episode
}

// SearchType returns the kind of manual search.
func (e Episode) SearchType() SearchType {
	return e.searchType
}

// Labels returns a copy of the episode's labels, or nil if none are set.
func (e Episode) Labels() map[string]string {
	return copyMap(e.labels)
}

// Key returns a stable name for the episode, such as "tvdb-101-s02e05".
// Season searches carry a "-season" suffix.
func (e Episode) Key() string {
	return e.identifiers().Key()
}

func (e Episode) identifiers() poller.Identifiers {
	return poller.Identifiers{
		Indexer:      e.indexer,
		SeriesID:     e.seriesID,
		Season:       e.season,
		Episode:      e.episode,
		SeasonSearch: e.searchType == SearchSeason,
	}
}

// NewEpisode creates an [Episode].
//
// The indexer must be non-empty, seriesID positive, and season and episode
// non-negative. Returns an error wrapping [ErrInvalidEpisode] otherwise.
//
// Example:
//
//	ep, err := searchwatch.NewEpisode("tvdb", 101, 2, 5)
func NewEpisode(indexer string, seriesID, season, episode int, opts ...EpisodeOption) (Episode, error) {
	id := poller.Identifiers{Indexer: indexer, SeriesID: seriesID, Season: season, Episode: episode}
	if err := id.Validate(); err != nil {
		return Episode{}, err
	}
	return buildEpisode(id, opts)
}

// ParseEpisode creates an [Episode] from string attributes, as found in page
// markup or command-line flags. Series id, season and episode must be
// integers.
func ParseEpisode(indexer, seriesID, season, episode string, opts ...EpisodeOption) (Episode, error) {
	id, err := poller.ParseIdentifiers(indexer, seriesID, season, episode, "")
	if err != nil {
		return Episode{}, err
	}
	return buildEpisode(id, opts)
}

func buildEpisode(id poller.Identifiers, opts []EpisodeOption) (Episode, error) {
	cfg := &episodeConfig{
		searchType: SearchEpisode,
		labels:     make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Episode{}, err
		}
	}

	return Episode{
		indexer:    id.Indexer,
		seriesID:   id.SeriesID,
		season:     id.Season,
		episode:    id.Episode,
		searchType: cfg.searchType,
		labels:     cfg.labels,
	}, nil
}

// ParseSearchType maps "episode", "season" or "" to a [SearchType].
func ParseSearchType(s string) (SearchType, error) {
	switch SearchType(s) {
	case "", SearchEpisode:
		return SearchEpisode, nil
	case SearchSeason:
		return SearchSeason, nil
	default:
		return "", errors.New("search type must be 'episode' or 'season', got " + s)
	}
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
