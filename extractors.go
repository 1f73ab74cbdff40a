package searchwatch

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ResultExtractor reads the search [Result] out of a status response body.
//
// An error means the body could not be interpreted at all; the check is then
// handled like a transport failure. A body without a result tag should yield
// [ResultEmpty], not an error.
//
// Extractors run inside a panic recovery boundary. A panicking extractor
// fails the check with an error carrying a correlation ID that also appears
// in the logged stack trace.
type ResultExtractor func(body []byte) (Result, error)

// ErrNoResult is returned by extractors that found no usable tag.
var ErrNoResult = errors.New("no search result in response")

// JSONFieldExtractor returns a [ResultExtractor] reading a string field at a
// dot-separated path, for servers that nest the tag.
//
// A missing field yields [ResultEmpty]. A body that is not JSON, or a field
// that is not a string, is an error.
//
// Example:
//
//	// For response: {"data": {"result": "queued"}}
//	extractor := searchwatch.JSONFieldExtractor("data.result")
func JSONFieldExtractor(path string) ResultExtractor {
	parts := strings.Split(path, ".")

	return func(body []byte) (Result, error) {
		var data any
		if err := json.Unmarshal(body, &data); err != nil {
			return ResultEmpty, fmt.Errorf("malformed status response: %w", err)
		}

		current := data
		for _, part := range parts {
			obj, ok := current.(map[string]any)
			if !ok {
				return ResultEmpty, nil
			}
			if current, ok = obj[part]; !ok {
				return ResultEmpty, nil
			}
		}

		switch v := current.(type) {
		case nil:
			return ResultEmpty, nil
		case string:
			r, _ := ParseResult(v)
			return r, nil
		default:
			return ResultEmpty, fmt.Errorf("field %q is not a string", path)
		}
	}
}

// RegexExtractor returns a [ResultExtractor] that takes the first capture
// group of pattern as the result tag. Useful when a proxy wraps the JSON in
// another format.
//
// Returns an error if the pattern is invalid or has no capture group.
func RegexExtractor(pattern string) (ResultExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	if re.NumSubexp() < 1 {
		return nil, errors.New("pattern must contain a capture group")
	}

	return func(body []byte) (Result, error) {
		matches := re.FindSubmatch(body)
		if len(matches) < 2 {
			return ResultEmpty, ErrNoResult
		}
		r, _ := ParseResult(string(matches[1]))
		return r, nil
	}, nil
}

// FirstMatch returns a [ResultExtractor] trying each extractor in order and
// returning the first non-empty result. If none produce one, the result is
// [ResultEmpty] when at least one extractor succeeded, otherwise the last
// error.
func FirstMatch(extractors ...ResultExtractor) ResultExtractor {
	return func(body []byte) (Result, error) {
		var lastErr error
		succeeded := false
		for _, extract := range extractors {
			r, err := extract(body)
			if err != nil {
				lastErr = err
				continue
			}
			if r != ResultEmpty {
				return r, nil
			}
			succeeded = true
		}
		if succeeded {
			return ResultEmpty, nil
		}
		return ResultEmpty, lastErr
	}
}

// DefaultExtractor reads the top-level "result" field, the format Medusa
// uses.
var DefaultExtractor = JSONFieldExtractor("result")
