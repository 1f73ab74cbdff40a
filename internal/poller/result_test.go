package poller

import (
	"errors"
	"testing"
)

func TestParseResult(t *testing.T) {
	tests := []struct {
		tag    string
		want   Result
		wantOK bool
	}{
		{"searching", ResultSearching, true},
		{"queued", ResultQueued, true},
		{"finished", ResultFinished, true},
		{"refresh", ResultRefresh, true},
		{"error", ResultError, true},
		{"", ResultEmpty, true},
		{" Finished ", ResultFinished, true},
		{"snatched", ResultEmpty, false},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, ok := ParseResult(tt.tag)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseResult(%q) = (%q, %v), want (%q, %v)", tt.tag, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDecodeStatus_Subtitles(t *testing.T) {
	status, err := decodeStatus([]byte(`{"result":"finished","subtitles":"en"}`), nil)
	if err != nil {
		t.Fatalf("decodeStatus() error = %v", err)
	}
	if status.Result != ResultFinished {
		t.Errorf("Result = %q, want %q", status.Result, ResultFinished)
	}
	if string(status.Subtitles) != `"en"` {
		t.Errorf("Subtitles = %s, want %s", status.Subtitles, `"en"`)
	}
}

func TestDecodeStatus_MissingResultIsEmpty(t *testing.T) {
	status, err := decodeStatus([]byte(`{}`), nil)
	if err != nil {
		t.Fatalf("decodeStatus() error = %v", err)
	}
	if status.Result != ResultEmpty {
		t.Errorf("Result = %q, want empty", status.Result)
	}
	if status.Subtitles != nil {
		t.Errorf("Subtitles = %s, want nil", status.Subtitles)
	}
}

func TestDecodeStatus_Malformed(t *testing.T) {
	_, err := decodeStatus([]byte(`<html>login</html>`), nil)
	if !errors.Is(err, errMalformedStatus) {
		t.Errorf("decodeStatus() error = %v, want errMalformedStatus", err)
	}
}

func TestDecodeStatus_CustomExtractor(t *testing.T) {
	extract := func(body []byte) (string, error) { return "queued", nil }

	status, err := decodeStatus([]byte(`{"data":{}}`), extract)
	if err != nil {
		t.Fatalf("decodeStatus() error = %v", err)
	}
	if status.Result != ResultQueued {
		t.Errorf("Result = %q, want %q", status.Result, ResultQueued)
	}
}
