// Package h264decoder decodes H.264 streams by piping Annex B data through
// an ffmpeg process and reading raw RGB24 frames back.
package h264decoder

import (
	"errors"
	"fmt"

	"github.com/user/echoview/pkg/ports"
)

var (
	// ErrFFmpegNotFound is returned when no ffmpeg executable can be located.
	ErrFFmpegNotFound = errors.New("h264decoder: ffmpeg not found")

	// ErrUnknownSize is returned when the stream does not report its frame size.
	ErrUnknownSize = errors.New("h264decoder: frame size unknown")

	// ErrClosed is returned when a packet is sent after Flush or Close.
	ErrClosed = errors.New("h264decoder: decoder closed")
)

// Codec implements ports.Codec for H.264.
type Codec struct {
	ffmpegPath string
}

// New creates a new H.264 codec. ffmpegPath may be empty to search for
// ffmpeg in FFMPEG_PATH, PATH and common install locations.
func New(ffmpegPath string) *Codec {
	return &Codec{ffmpegPath: ffmpegPath}
}

// Name returns the codec name.
func (c *Codec) Name() string { return "h264 (ffmpeg)" }

// Available reports whether an ffmpeg executable can be found.
func (c *Codec) Available() bool {
	_, err := FindFFmpeg(c.ffmpegPath)
	return err == nil
}

// Open starts an ffmpeg process for one stream.
func (c *Codec) Open(params ports.CodecParameters) (ports.CodecContext, error) {
	if params.Width <= 0 || params.Height <= 0 {
		return nil, ErrUnknownSize
	}

	path, err := FindFFmpeg(c.ffmpegPath)
	if err != nil {
		return nil, err
	}

	ctx, err := startContext(path, params)
	if err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	return ctx, nil
}

var _ ports.Codec = (*Codec)(nil)
