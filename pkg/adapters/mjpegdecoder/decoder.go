// Package mjpegdecoder decodes Motion JPEG streams, where every packet is a
// complete JPEG image.
package mjpegdecoder

import (
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/user/echoview/pkg/ports"
)

// ErrFlushed is returned when a packet is sent after Flush.
var ErrFlushed = errors.New("mjpegdecoder: send after flush")

// Codec implements ports.Codec for Motion JPEG.
type Codec struct {
	renderer ports.Renderer
}

// New creates a Motion JPEG codec that decodes images with renderer.
func New(renderer ports.Renderer) *Codec {
	return &Codec{renderer: renderer}
}

// Name returns the codec name.
func (c *Codec) Name() string { return "mjpeg" }

// Open creates a decoding context. MJPEG needs no extradata.
func (c *Codec) Open(params ports.CodecParameters) (ports.CodecContext, error) {
	return &decodeContext{renderer: c.renderer}, nil
}

type decodeContext struct {
	renderer ports.Renderer
	frames   []image.Image
	flushed  bool
}

func (d *decodeContext) SendPacket(pkt ports.Packet) error {
	if d.flushed {
		return ErrFlushed
	}
	img, err := d.renderer.DecodeImage(pkt.Data, ports.FormatJPEG)
	if err != nil {
		return fmt.Errorf("decode jpeg: %w", err)
	}
	d.frames = append(d.frames, img)
	return nil
}

func (d *decodeContext) ReceiveFrame() (image.Image, error) {
	if len(d.frames) > 0 {
		img := d.frames[0]
		d.frames = d.frames[1:]
		return img, nil
	}
	if d.flushed {
		return nil, io.EOF
	}
	return nil, ports.ErrAgain
}

func (d *decodeContext) Flush() error {
	d.flushed = true
	return nil
}

func (d *decodeContext) Close() {
	d.frames = nil
}

var (
	_ ports.Codec        = (*Codec)(nil)
	_ ports.CodecContext = (*decodeContext)(nil)
)
