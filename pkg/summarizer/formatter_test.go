package summarizer

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatterFor(t *testing.T) {
	summary := NewBuilder().
		WithFile("/clips/a4c.mp4", 2048).
		WithPlayback(PlaybackInfo{VideoStream: 1, Playable: true}).
		Build()

	tests := []struct {
		name    string
		format  string
		wantErr bool
		check   func(t *testing.T, out string)
	}{
		{
			name:   "default is markdown",
			format: "",
			check: func(t *testing.T, out string) {
				if !strings.HasPrefix(out, "# Probe Summary") {
					t.Errorf("expected markdown heading, got %q", out)
				}
			},
		},
		{
			name:   "json",
			format: "json",
			check: func(t *testing.T, out string) {
				if !strings.HasSuffix(out, "\n") {
					t.Error("expected trailing newline")
				}
				var decoded Summary
				if err := json.Unmarshal([]byte(out), &decoded); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if decoded.File.Path != "/clips/a4c.mp4" || decoded.Playback.VideoStream != 1 {
					t.Errorf("unexpected summary: %+v", decoded)
				}
			},
		},
		{name: "unknown", format: "yaml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := FormatterFor(tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("FormatterFor: %v", err)
			}
			tt.check(t, f.Format(summary))
		})
	}
}
