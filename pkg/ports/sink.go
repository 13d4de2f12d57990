package ports

import (
	"image"
)

// DebugSink abstracts debug output for intermediate results.
// It allows saving decoded frames and metadata for offline inspection.
type DebugSink interface {
	// Enabled returns true if debug output is enabled.
	Enabled() bool

	// SaveProbeJSON saves container metadata as JSON.
	SaveProbeJSON(data []byte) error

	// SaveDecodedFrame saves a frame as it came out of the frame decoder.
	SaveDecodedFrame(ordinal int, img image.Image) error

	// SavePanelFrame saves what the panel displayed on a given tick.
	SavePanelFrame(tick int, img image.Image) error
}
