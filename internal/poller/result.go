package poller

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Result is the tag a Medusa server reports for a manual search.
type Result string

const (
	ResultSearching Result = "searching"
	ResultQueued    Result = "queued"
	ResultFinished  Result = "finished"
	ResultRefresh   Result = "refresh"
	ResultError     Result = "error"
	ResultEmpty     Result = ""
)

// ParseResult maps a wire tag to a [Result].
//
// The second return value is false when the tag is not one of the known
// values; the tag is then reported as [ResultEmpty], which the loop treats
// as a finished search.
func ParseResult(tag string) (Result, bool) {
	switch r := Result(strings.ToLower(strings.TrimSpace(tag))); r {
	case ResultSearching, ResultQueued, ResultFinished, ResultRefresh, ResultError, ResultEmpty:
		return r, true
	default:
		return ResultEmpty, false
	}
}

// Extractor pulls the raw result tag out of a status response body.
type Extractor func(body []byte) (string, error)

// SearchStatus is one decoded status response.
type SearchStatus struct {
	Result Result

	// Tag is the tag as received, kept for logging unknown values.
	Tag string

	// Subtitles is present only when a subtitle search finished.
	Subtitles json.RawMessage
}

// errMalformedStatus is returned when the body is not a JSON object.
var errMalformedStatus = errors.New("malformed status response")

// defaultExtractor reads the top-level "result" field.
func defaultExtractor(body []byte) (string, error) {
	var payload struct {
		Result *string `json:"result"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("%w: %v", errMalformedStatus, err)
	}
	if payload.Result == nil {
		return "", nil
	}
	return *payload.Result, nil
}

// decodeStatus turns a response body into a [SearchStatus].
func decodeStatus(body []byte, extract Extractor) (SearchStatus, error) {
	if extract == nil {
		extract = defaultExtractor
	}
	tag, err := extract(body)
	if err != nil {
		return SearchStatus{}, err
	}

	result, _ := ParseResult(tag)
	status := SearchStatus{Result: result, Tag: tag}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err == nil {
		if subs, ok := fields["subtitles"]; ok && string(subs) != "null" {
			status.Subtitles = subs
		}
	}
	return status, nil
}
