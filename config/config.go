// Package config provides YAML configuration parsing for searchwatch.
//
// This package enables running searchwatch as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	port: 8080
//	poll_interval: 5s
//
//	medusa:
//	  url: ${MEDUSA_URL:-http://localhost:8081}
//	  headers:
//	    X-Api-Key: ${MEDUSA_API_KEY}
//
//	episodes:
//	  - indexer: tvdb
//	    series_id: 101
//	    season: 2
//	    episode: 5
//
//	grids:
//	  - indexer: tvdb
//	    series_id: 202
//	    seasons: [1, 2]
//	    episodes: [1, 2, 3]
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// minInterval is the minimum poll interval and request timeout for
	// production configs, so a typo cannot hammer the Medusa server.
	minInterval = 1 * time.Second

	defaultPort           = 8080
	defaultPollInterval   = 5 * time.Second
	defaultQueuedInterval = 7 * time.Second
)

// Config is the root configuration structure for searchwatch.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "searchwatch" if not set.
	Title string `yaml:"title"`

	// Port is the dashboard port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the delay between checks while a search runs.
	// Defaults to 5s.
	PollInterval Duration `yaml:"poll_interval"`

	// QueuedInterval is the delay between checks while a search is queued.
	// Defaults to 7s.
	QueuedInterval Duration `yaml:"queued_interval"`

	// MaxErrorTicks stops polling an episode after this many consecutive
	// failed checks. Zero polls indefinitely.
	MaxErrorTicks int `yaml:"max_error_ticks"`

	// Medusa describes the server being watched.
	Medusa MedusaConfig `yaml:"medusa"`

	// Episodes lists individual episodes to watch.
	Episodes []EpisodeConfig `yaml:"episodes"`

	// Grids lists season x episode ranges of a show to watch.
	Grids []GridConfig `yaml:"grids"`
}

// MedusaConfig describes how to reach the Medusa server.
type MedusaConfig struct {
	// URL is the server base URL, including any web root.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Headers are sent with every request, typically an API key.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Timeout is the per-request timeout. Defaults to 15s.
	Timeout Duration `yaml:"timeout"`

	// StatusPath overrides the status-check path.
	StatusPath string `yaml:"status_path"`

	// SearchPath overrides the forced-search path.
	SearchPath string `yaml:"search_path"`

	// Extractor determines how the result tag is read from a response.
	Extractor ExtractorConfig `yaml:"extractor"`
}

// EpisodeConfig defines a single episode to watch.
type EpisodeConfig struct {
	Indexer  string `yaml:"indexer"`
	SeriesID int    `yaml:"series_id"`
	Season   int    `yaml:"season"`
	Episode  int    `yaml:"episode"`

	// SearchType is "episode" (default) or "season".
	SearchType string `yaml:"search_type"`

	// Labels are metadata key-value pairs shown on the dashboard.
	Labels map[string]string `yaml:"labels"`
}

// GridConfig defines a range of episodes of one show, expanded via
// cartesian product of seasons and episodes.
type GridConfig struct {
	Indexer  string `yaml:"indexer"`
	SeriesID int    `yaml:"series_id"`
	Seasons  []int  `yaml:"seasons"`
	Episodes []int  `yaml:"episodes"`

	// SearchType applies to all generated episodes.
	SearchType string `yaml:"search_type"`

	// Labels are applied to all generated episodes, in addition to the
	// generated "season" and "episode" labels.
	Labels map[string]string `yaml:"labels"`
}

// ExtractorConfig specifies how to read the result tag from a response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	extractor: default
//	extractor: json:data.result
//	extractor: regex:result=(\w+)
//
// Structured object:
//
//	extractor:
//	  type: json
//	  path: data.result
type ExtractorConfig struct {
	// Type is the extractor type: "default", "json" or "regex".
	Type string

	// Path is the JSON field path (for type: json).
	Path string

	// Pattern is the regular expression with one capture group
	// (for type: regex).
	Pattern string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type    string `yaml:"type"`
			Path    string `yaml:"path"`
			Pattern string `yaml:"pattern"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Type = raw.Type
		e.Path = raw.Path
		e.Pattern = raw.Pattern
		return nil
	}

	return fmt.Errorf("extractor must be a string or object, got %v", node.Kind)
}

// parseShorthand parses extractor shorthand syntax.
//
// Supported formats:
//   - "default" → read the top-level "result" field
//   - "json:path" → read a nested JSON field
//   - "regex:pattern" → take the first capture group
func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		e.Type = s[:idx]
		value := s[idx+1:]

		switch e.Type {
		case "json":
			e.Path = value
		case "regex":
			e.Pattern = value
		default:
			return fmt.Errorf("unknown extractor type %q", e.Type)
		}
		return nil
	}

	if s != "default" {
		return fmt.Errorf("unknown extractor %q (expected 'default', 'json:path', or 'regex:pattern')", s)
	}
	e.Type = s
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		varName := submatches[1]
		hasDefault := submatches[2] != ""

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return submatches[3]
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the server URL and header values.
// Defaults are applied for Port (8080), PollInterval (5s) and
// QueuedInterval (7s).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(defaultPollInterval)
	}
	if cfg.QueuedInterval == 0 {
		cfg.QueuedInterval = Duration(defaultQueuedInterval)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PollInterval.Duration() < minInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minInterval, c.PollInterval.Duration())
	}
	if c.QueuedInterval.Duration() < minInterval {
		return fmt.Errorf("queued_interval must be at least %s, got %s", minInterval, c.QueuedInterval.Duration())
	}
	if c.MaxErrorTicks < 0 {
		return fmt.Errorf("max_error_ticks cannot be negative, got %d", c.MaxErrorTicks)
	}

	if err := c.Medusa.expandAndValidate(); err != nil {
		return err
	}

	for i, ep := range c.Episodes {
		ctx := fmt.Sprintf("episodes[%d] (%s %d)", i, ep.Indexer, ep.SeriesID)
		if err := validateShow(ctx, ep.Indexer, ep.SeriesID, ep.SearchType); err != nil {
			return err
		}
		if ep.Season < 0 {
			return fmt.Errorf("%s: season cannot be negative, got %d", ctx, ep.Season)
		}
		if ep.Episode < 0 {
			return fmt.Errorf("%s: episode cannot be negative, got %d", ctx, ep.Episode)
		}
	}

	for i, g := range c.Grids {
		ctx := fmt.Sprintf("grids[%d] (%s %d)", i, g.Indexer, g.SeriesID)
		if err := validateShow(ctx, g.Indexer, g.SeriesID, g.SearchType); err != nil {
			return err
		}
		if err := validateNumbers(ctx, "seasons", g.Seasons); err != nil {
			return err
		}
		if err := validateNumbers(ctx, "episodes", g.Episodes); err != nil {
			return err
		}
	}

	if len(c.Episodes) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one episode or grid must be defined")
	}

	return nil
}

func (m *MedusaConfig) expandAndValidate() error {
	if m.URL == "" {
		return errors.New("medusa.url is required")
	}
	expanded, err := expandEnvVars(m.URL)
	if err != nil {
		return fmt.Errorf("medusa.url: %w", err)
	}
	m.URL = expanded

	parsedURL, err := url.Parse(m.URL)
	if err != nil {
		return fmt.Errorf("medusa.url: invalid url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("medusa.url: scheme must be http or https, got %q", parsedURL.Scheme)
	}

	for k, v := range m.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("medusa.headers[%s]: %w", k, err)
		}
		m.Headers[k] = expanded
	}

	if m.Timeout != 0 && m.Timeout.Duration() < minInterval {
		return fmt.Errorf("medusa.timeout must be at least %s if specified, got %s", minInterval, m.Timeout.Duration())
	}

	return validateExtractor(m.Extractor)
}

func validateShow(ctx, indexer string, seriesID int, searchType string) error {
	if strings.TrimSpace(indexer) == "" {
		return fmt.Errorf("%s: indexer is required", ctx)
	}
	if seriesID <= 0 {
		return fmt.Errorf("%s: series_id must be positive", ctx)
	}
	switch searchType {
	case "", "episode", "season":
	default:
		return fmt.Errorf("%s: search_type must be 'episode' or 'season', got %q", ctx, searchType)
	}
	return nil
}

func validateNumbers(ctx, field string, values []int) error {
	if len(values) == 0 {
		return fmt.Errorf("%s: at least one of %s is required", ctx, field)
	}
	seen := make(map[int]struct{}, len(values))
	for _, v := range values {
		if v < 0 {
			return fmt.Errorf("%s: %s cannot contain negative value %d", ctx, field, v)
		}
		if _, exists := seen[v]; exists {
			return fmt.Errorf("%s: %s has duplicate value %d", ctx, field, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

// validateExtractor validates an extractor configuration.
func validateExtractor(e ExtractorConfig) error {
	switch e.Type {
	case "", "default":
	case "json":
		if e.Path == "" {
			return errors.New("medusa.extractor: type 'json' requires a path")
		}
	case "regex":
		if e.Pattern == "" {
			return errors.New("medusa.extractor: type 'regex' requires a pattern")
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return fmt.Errorf("medusa.extractor: invalid pattern: %w", err)
		}
		if re.NumSubexp() < 1 {
			return errors.New("medusa.extractor: pattern must contain a capture group")
		}
	default:
		return fmt.Errorf("medusa.extractor: unknown type %q", e.Type)
	}
	return nil
}
