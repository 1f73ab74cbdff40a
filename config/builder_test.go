package config

import (
	"testing"

	"github.com/jpalmerr/searchwatch"
)

func mustParse(t *testing.T, yaml string) *Config {
	t.Helper()
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}

func TestBuildEpisodes_SingleEpisode(t *testing.T) {
	cfg := mustParse(t, `
medusa:
  url: http://localhost:8081
episodes:
  - indexer: tvdb
    series_id: 101
    season: 2
    episode: 5
    labels:
      show: The Expanse
`)

	episodes, err := BuildEpisodes(cfg)
	if err != nil {
		t.Fatalf("BuildEpisodes() error = %v", err)
	}
	if len(episodes) != 1 {
		t.Fatalf("len(episodes) = %d, want 1", len(episodes))
	}

	ep := episodes[0]
	if ep.Key() != "tvdb-101-s02e05" {
		t.Errorf("Key() = %q", ep.Key())
	}
	if ep.SearchType() != searchwatch.SearchEpisode {
		t.Errorf("SearchType() = %q, want episode", ep.SearchType())
	}
	if ep.Labels()["show"] != "The Expanse" {
		t.Errorf("Labels() = %v", ep.Labels())
	}
}

func TestBuildEpisodes_MixedEpisodesAndGrids(t *testing.T) {
	cfg := mustParse(t, `
medusa:
  url: http://localhost:8081
episodes:
  - indexer: tvdb
    series_id: 101
    season: 3
    episode: 0
    search_type: season
grids:
  - indexer: tvdb
    series_id: 202
    seasons: [2, 1]
    episodes: [1, 2]
    labels:
      show: Dark
`)

	episodes, err := BuildEpisodes(cfg)
	if err != nil {
		t.Fatalf("BuildEpisodes() error = %v", err)
	}

	want := []string{
		"tvdb-101-s03e00-season",
		"tvdb-202-s01e01", "tvdb-202-s01e02",
		"tvdb-202-s02e01", "tvdb-202-s02e02",
	}
	if len(episodes) != len(want) {
		t.Fatalf("len(episodes) = %d, want %d", len(episodes), len(want))
	}
	for i, ep := range episodes {
		if ep.Key() != want[i] {
			t.Errorf("episodes[%d].Key() = %q, want %q", i, ep.Key(), want[i])
		}
	}
	if labels := episodes[1].Labels(); labels["show"] != "Dark" || labels["season"] != "1" {
		t.Errorf("grid labels = %v", labels)
	}
}

func TestBuildWatcherOptions(t *testing.T) {
	cfg := mustParse(t, `
title: Downloads
port: 19400
medusa:
  url: http://localhost:8081
  timeout: 3s
  headers:
    X-Api-Key: secret
  status_path: api/check
  search_path: api/search
  extractor: json:data.result
episodes:
  - indexer: tvdb
    series_id: 101
    season: 2
    episode: 5
`)

	opts, err := BuildWatcherOptions(cfg)
	if err != nil {
		t.Fatalf("BuildWatcherOptions() error = %v", err)
	}

	w, err := searchwatch.New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if w.Port() != 19400 {
		t.Errorf("Port() = %d, want 19400", w.Port())
	}
	if eps := w.Episodes(); len(eps) != 1 || eps[0].Key() != "tvdb-101-s02e05" {
		t.Errorf("Episodes() = %v", eps)
	}
}

func TestBuildWatcherOptions_DuplicateEpisodes(t *testing.T) {
	cfg := mustParse(t, `
medusa:
  url: http://localhost:8081
episodes:
  - indexer: tvdb
    series_id: 101
    season: 1
    episode: 1
grids:
  - indexer: tvdb
    series_id: 101
    seasons: [1]
    episodes: [1, 2]
`)

	opts, err := BuildWatcherOptions(cfg)
	if err != nil {
		t.Fatalf("BuildWatcherOptions() error = %v", err)
	}
	if _, err := searchwatch.New(opts...); err == nil {
		t.Error("New() expected duplicate episode error")
	}
}

func TestBuildExtractor(t *testing.T) {
	tests := []struct {
		name string
		ec   ExtractorConfig
		body string
		want searchwatch.Result
		wantNil bool
	}{
		{name: "empty", ec: ExtractorConfig{}, wantNil: true},
		{name: "default", ec: ExtractorConfig{Type: "default"}, wantNil: true},
		{name: "json", ec: ExtractorConfig{Type: "json", Path: "data.result"}, body: `{"data":{"result":"queued"}}`, want: searchwatch.ResultQueued},
		{name: "regex", ec: ExtractorConfig{Type: "regex", Pattern: `state=(\w+)`}, body: `state=searching`, want: searchwatch.ResultSearching},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extract, err := buildExtractor(tt.ec)
			if err != nil {
				t.Fatalf("buildExtractor() error = %v", err)
			}
			if tt.wantNil {
				if extract != nil {
					t.Error("buildExtractor() should return nil for the default extractor")
				}
				return
			}
			got, err := extract([]byte(tt.body))
			if err != nil {
				t.Fatalf("extract() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("extract() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMapToKeyValuePairs_Sorted(t *testing.T) {
	got := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1", "c": "3"})
	want := []string{"a", "1", "b", "2", "c", "3"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pairs[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
