// Package summarizer builds and formats probe reports for media files.
package summarizer

import (
	"encoding/json"
	"time"
)

// Summary contains everything the probe command reports about a file.
type Summary struct {
	// Metadata
	GeneratedAt time.Time `json:"generated_at"`

	// File information
	File FileInfo `json:"file"`

	// Streams in container order
	Streams []StreamInfo `json:"streams"`

	// Decoders linked into this binary
	Decoders []DecoderInfo `json:"decoders"`

	// Playback outcome for the file
	Playback PlaybackInfo `json:"playback"`
}

// FileInfo describes the probed file.
type FileInfo struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// StreamInfo describes one stream.
type StreamInfo struct {
	Index      int           `json:"index"`
	Type       string        `json:"type"`
	Codec      string        `json:"codec"`
	Width      int           `json:"width,omitempty"`
	Height     int           `json:"height,omitempty"`
	FrameCount int64         `json:"frame_count"`
	FrameRate  float64       `json:"frame_rate"`
	Duration   time.Duration `json:"duration"`
	TimeScale  uint32        `json:"time_scale"`
}

// DecoderInfo describes one registered decoder.
type DecoderInfo struct {
	Codec     string `json:"codec"`
	Backend   string `json:"backend"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
}

// PlaybackInfo describes how the player would treat the file.
type PlaybackInfo struct {
	VideoStream int    `json:"video_stream"` // -1 when there is none
	Playable    bool   `json:"playable"`
	Reason      string `json:"reason,omitempty"`
	WrapFrames  int    `json:"wrap_frames"`
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
		Playback:    PlaybackInfo{VideoStream: -1},
	}
}

// JSON returns the summary as indented JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithFile sets file information.
func (b *Builder) WithFile(path string, size int64) *Builder {
	b.summary.File = FileInfo{
		Path: path,
		Size: size,
	}
	return b
}

// WithStream appends a stream.
func (b *Builder) WithStream(stream StreamInfo) *Builder {
	b.summary.Streams = append(b.summary.Streams, stream)
	return b
}

// WithDecoder appends a decoder.
func (b *Builder) WithDecoder(decoder DecoderInfo) *Builder {
	b.summary.Decoders = append(b.summary.Decoders, decoder)
	return b
}

// WithPlayback sets the playback outcome.
func (b *Builder) WithPlayback(playback PlaybackInfo) *Builder {
	b.summary.Playback = playback
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
