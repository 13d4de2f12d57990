// Package nullsink discards debug output when no debug directory is set.
package nullsink

import (
	"image"

	"github.com/user/echoview/pkg/ports"
)

// Sink reports itself disabled and drops every probe and frame it is given.
type Sink struct{}

func New() *Sink { return &Sink{} }

func (*Sink) Enabled() bool                           { return false }
func (*Sink) SaveProbeJSON([]byte) error              { return nil }
func (*Sink) SaveDecodedFrame(int, image.Image) error { return nil }
func (*Sink) SavePanelFrame(int, image.Image) error   { return nil }

var _ ports.DebugSink = (*Sink)(nil)
