package mocks

import (
	"image"

	"github.com/user/echoview/pkg/ports"
)

// VideoEncoder is a mock implementation of ports.VideoEncoder.
type VideoEncoder struct {
	BeginFunc       func(path string, width, height int, fps float64, opts ports.EncoderOptions) error
	EncodeFrameFunc func(img image.Image) error
	EndFunc         func() error

	// Recorded calls for verification
	BeginCalls []BeginCall
	FrameSizes []image.Point
	EndCalled  bool
}

// BeginCall records a call to Begin.
type BeginCall struct {
	Path          string
	Width, Height int
	FPS           float64
	Options       ports.EncoderOptions
}

func (m *VideoEncoder) Begin(path string, width, height int, fps float64, opts ports.EncoderOptions) error {
	m.BeginCalls = append(m.BeginCalls, BeginCall{Path: path, Width: width, Height: height, FPS: fps, Options: opts})
	if m.BeginFunc != nil {
		return m.BeginFunc(path, width, height, fps, opts)
	}
	return nil
}

func (m *VideoEncoder) EncodeFrame(img image.Image) error {
	m.FrameSizes = append(m.FrameSizes, img.Bounds().Size())
	if m.EncodeFrameFunc != nil {
		return m.EncodeFrameFunc(img)
	}
	return nil
}

func (m *VideoEncoder) End() error {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return nil
}

var _ ports.VideoEncoder = (*VideoEncoder)(nil)
