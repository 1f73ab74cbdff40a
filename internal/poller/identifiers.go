package poller

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidIdentifiers is returned when an episode's identifiers are
// missing or not numeric.
var ErrInvalidIdentifiers = errors.New("invalid episode identifiers")

// SearchTypeSeason marks a season-wide manual search.
const SearchTypeSeason = "season"

// Identifiers names the show, season and episode a manual search runs for.
type Identifiers struct {
	Indexer      string
	SeriesID     int
	Season       int
	Episode      int
	SeasonSearch bool
}

// Validate reports whether the identifiers can be sent to the server.
func (id Identifiers) Validate() error {
	switch {
	case strings.TrimSpace(id.Indexer) == "":
		return fmt.Errorf("%w: indexer is required", ErrInvalidIdentifiers)
	case id.SeriesID <= 0:
		return fmt.Errorf("%w: series id must be positive, got %d", ErrInvalidIdentifiers, id.SeriesID)
	case id.Season < 0:
		return fmt.Errorf("%w: season cannot be negative, got %d", ErrInvalidIdentifiers, id.Season)
	case id.Episode < 0:
		return fmt.Errorf("%w: episode cannot be negative, got %d", ErrInvalidIdentifiers, id.Episode)
	}
	return nil
}

// Query serializes the identifiers as status-check query parameters.
// manual_search_type is only sent for season searches.
func (id Identifiers) Query() url.Values {
	q := url.Values{}
	q.Set("indexername", id.Indexer)
	q.Set("seriesid", strconv.Itoa(id.SeriesID))
	q.Set("season", strconv.Itoa(id.Season))
	q.Set("episode", strconv.Itoa(id.Episode))
	if id.SeasonSearch {
		q.Set("manual_search_type", SearchTypeSeason)
	}
	return q
}

// Key returns a stable identifier such as "tvdb-101-s02e05".
func (id Identifiers) Key() string {
	key := fmt.Sprintf("%s-%d-s%02de%02d", strings.ToLower(id.Indexer), id.SeriesID, id.Season, id.Episode)
	if id.SeasonSearch {
		key += "-" + SearchTypeSeason
	}
	return key
}

// ParseIdentifiers builds [Identifiers] from string attributes, as they are
// found in page markup or on the command line. Series id, season and
// episode must all be integers.
func ParseIdentifiers(indexer, seriesID, season, episode, searchType string) (Identifiers, error) {
	sid, err := strconv.Atoi(strings.TrimSpace(seriesID))
	if err != nil {
		return Identifiers{}, fmt.Errorf("%w: series id %q is not numeric", ErrInvalidIdentifiers, seriesID)
	}
	sn, err := strconv.Atoi(strings.TrimSpace(season))
	if err != nil {
		return Identifiers{}, fmt.Errorf("%w: season %q is not numeric", ErrInvalidIdentifiers, season)
	}
	ep, err := strconv.Atoi(strings.TrimSpace(episode))
	if err != nil {
		return Identifiers{}, fmt.Errorf("%w: episode %q is not numeric", ErrInvalidIdentifiers, episode)
	}

	id := Identifiers{
		Indexer:      strings.TrimSpace(indexer),
		SeriesID:     sid,
		Season:       sn,
		Episode:      ep,
		SeasonSearch: strings.EqualFold(strings.TrimSpace(searchType), SearchTypeSeason),
	}
	if err := id.Validate(); err != nil {
		return Identifiers{}, err
	}
	return id, nil
}
