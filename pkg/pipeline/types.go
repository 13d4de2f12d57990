package pipeline

import (
	"time"

	"github.com/user/echoview/pkg/ports"
)

// =============================================================================
// Playback Tick Types
// =============================================================================

// TickInput carries the per-redraw timing supplied by the UI loop.
type TickInput struct {
	// UIFramesPerSecond is the UI's current redraw rate.
	UIFramesPerSecond float64
}

// TickResult describes what a playback tick did.
type TickResult struct {
	Playing   bool
	Displayed bool
	Position  float64 // playback position after advancing and wrapping
	Ordinal   int     // frame ordinal requested from the decoder
	Texture   ports.TextureHandle
	Width     int // panel size the frame was shown at
	Height    int
}

// =============================================================================
// Conversion Job Types
// =============================================================================

// ConvertInput describes one conversion job.
type ConvertInput struct {
	// SourcePath is the file the user selected.
	SourcePath string
	// View is the acquisition view passed to the converter (e.g. "A2C").
	View string
}

// ConvertResult is the success/failure signal of a conversion job.
type ConvertResult struct {
	JobID      string
	SourcePath string
	OutputPath string
	OutputSize int64
	Duration   time.Duration
	ExitCode   int
	Stderr     string
}
