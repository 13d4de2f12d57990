package mocks

import (
	"image"
	"sync"

	"github.com/user/echoview/pkg/ports"
)

// DebugSink records what would have been written to the debug directory.
// When Err is set every save fails with it and nothing is recorded.
type DebugSink struct {
	mu      sync.Mutex
	enabled bool

	Err           error
	ProbeJSON     []byte
	DecodedFrames map[int]image.Image
	PanelFrames   map[int]image.Image
}

func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:       enabled,
		DecodedFrames: make(map[int]image.Image),
		PanelFrames:   make(map[int]image.Image),
	}
}

func (m *DebugSink) Enabled() bool { return m.enabled }

func (m *DebugSink) SaveProbeJSON(data []byte) error {
	return m.record(func() { m.ProbeJSON = data })
}

func (m *DebugSink) SaveDecodedFrame(ordinal int, img image.Image) error {
	return m.record(func() { m.DecodedFrames[ordinal] = img })
}

func (m *DebugSink) SavePanelFrame(tick int, img image.Image) error {
	return m.record(func() { m.PanelFrames[tick] = img })
}

func (m *DebugSink) record(save func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	save()
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)
