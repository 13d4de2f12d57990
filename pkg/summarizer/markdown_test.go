package summarizer

import (
	"strings"
	"testing"
	"time"
)

func TestMarkdownFormatter_Format_Basic(t *testing.T) {
	formatter := NewMarkdownFormatter()

	summary := &Summary{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		File: FileInfo{
			Path: "/clips/a2c.mp4",
			Size: 1024 * 1024, // 1 MB
		},
		Streams: []StreamInfo{
			{Index: 0, Type: "video", Codec: "h264", Width: 800, Height: 600, FrameCount: 90, FrameRate: 30, Duration: 3 * time.Second},
			{Index: 1, Type: "audio", Codec: "aac", FrameCount: 141},
		},
		Decoders: []DecoderInfo{
			{Codec: "h264", Backend: "ffmpeg", Name: "h264 (ffmpeg)", Available: true},
			{Codec: "av1", Backend: "libaom", Name: "av1 (libaom)", Available: false},
		},
		Playback: PlaybackInfo{VideoStream: 0, Playable: true},
	}

	result := formatter.Format(summary)

	// Check required sections
	checks := []string{
		"# Probe Summary",
		"2024-01-15T10:30:00Z",
		"/clips/a2c.mp4",
		"1.00 MB",
		"| 0 | video | h264 | 800x600 | 90 | 30.00 fps | 3.000 s |",
		"| 1 | audio | aac | - | 141 |",
		"Playable: yes (stream 0)",
		"Wraps at: end of stream",
		"| h264 | ffmpeg | h264 (ffmpeg) | yes |",
		"| av1 | libaom | av1 (libaom) | no |",
	}

	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestMarkdownFormatter_Format_NotPlayable(t *testing.T) {
	formatter := NewMarkdownFormatter()

	summary := &Summary{
		GeneratedAt: time.Now(),
		File:        FileInfo{Path: "audio.mp4", Size: 500},
		Playback:    PlaybackInfo{VideoStream: -1, Reason: "no video stream", WrapFrames: 90},
	}

	result := formatter.Format(summary)

	checks := []string{
		"500 B",
		"No streams.",
		"Playable: no (no video stream)",
		"Wraps at: frame 90",
	}
	for _, check := range checks {
		if !strings.Contains(result, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(result, "## Decoders") {
		t.Error("expected no decoders section without decoders")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatFunc(t *testing.T) {
	f := FormatFunc(func(s *Summary) string { return s.File.Path })
	if got := f.Format(&Summary{File: FileInfo{Path: "x.mp4"}}); got != "x.mp4" {
		t.Errorf("FormatFunc = %q", got)
	}
}
