// Package filesink provides a file-based debug sink implementation.
package filesink

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/user/echoview/pkg/ports"
)

// Sink saves debug output to files.
type Sink struct {
	baseDir  string
	fs       ports.FileSystem
	renderer ports.Renderer
}

// New creates a new FileSink.
func New(baseDir string, fs ports.FileSystem, renderer ports.Renderer) *Sink {
	return &Sink{
		baseDir:  baseDir,
		fs:       fs,
		renderer: renderer,
	}
}

// Enabled returns true as this sink saves output.
func (s *Sink) Enabled() bool {
	return true
}

// SaveProbeJSON saves container metadata as JSON.
func (s *Sink) SaveProbeJSON(data []byte) error {
	path := filepath.Join(s.baseDir, "probe.json")
	return s.fs.WriteFile(path, data)
}

// SaveDecodedFrame saves a decoded frame as PNG, named by its ordinal.
func (s *Sink) SaveDecodedFrame(ordinal int, img image.Image) error {
	return s.savePNG(filepath.Join("frames", "decoded"), fmt.Sprintf("frame-%04d.png", ordinal), img)
}

// SavePanelFrame saves what the panel displayed on a tick as PNG.
func (s *Sink) SavePanelFrame(tick int, img image.Image) error {
	return s.savePNG(filepath.Join("frames", "panel"), fmt.Sprintf("tick-%04d.png", tick), img)
}

func (s *Sink) savePNG(subdir, name string, img image.Image) error {
	dir := filepath.Join(s.baseDir, subdir)
	if err := s.fs.MkdirAll(dir); err != nil {
		return err
	}
	data, err := s.renderer.EncodeImage(img, ports.FormatPNG, 0)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return s.fs.WriteFile(filepath.Join(dir, name), data)
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
