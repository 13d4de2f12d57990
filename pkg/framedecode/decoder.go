// Package framedecode decodes a single frame, by ordinal, from a media
// container.
package framedecode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

var (
	// ErrOpenFailure is returned when a container or codec context cannot be created.
	ErrOpenFailure = errors.New("framedecode: open failed")

	// ErrStreamNotFound is returned when the container has no usable video stream.
	ErrStreamNotFound = errors.New("framedecode: no video stream")

	// ErrDecodeIncomplete is returned when the stream ends before the target ordinal.
	ErrDecodeIncomplete = errors.New("framedecode: target frame not reached")

	// ErrSubmitFailure is returned when the codec rejects a packet.
	ErrSubmitFailure = errors.New("framedecode: decoder rejected packet")
)

// Result is the outcome of a DecodeFrame call.
type Result struct {
	// Frame is the converted frame; nil unless decoding succeeded.
	Frame *pixconv.RGB24
	// Drained counts the frames drained from the codec.
	Drained int
}

// Decoder decodes frames by ordinal using codecs from a registry.
type Decoder struct {
	registry ports.CodecRegistry
	logger   ports.Logger
}

// New creates a new Decoder.
func New(registry ports.CodecRegistry, logger ports.Logger) *Decoder {
	return &Decoder{
		registry: registry,
		logger:   logger.WithComponent("framedecode"),
	}
}

// SelectVideoStream returns the index of the first video stream.
func SelectVideoStream(c ports.Container) (int, error) {
	for _, s := range c.Streams() {
		if s.MediaType == ports.MediaVideo {
			return s.Index, nil
		}
	}
	return -1, ErrStreamNotFound
}

// Supports reports whether a codec is registered for the stream.
func (d *Decoder) Supports(stream ports.StreamInfo) bool {
	_, ok := d.registry.FindDecoder(stream.Codec.CodecID)
	return ok
}

// DecodeFrame decodes forward from the start of the container until the frame
// with ordinal target has been drained from the codec.
//
// The container is closed before DecodeFrame returns, whatever the outcome;
// callers must reopen it for the next decode.
func (d *Decoder) DecodeFrame(ctx context.Context, c ports.Container, streamIndex, target int) (res Result, err error) {
	defer c.Close()

	stream, ok := findStream(c, streamIndex)
	if !ok || stream.MediaType != ports.MediaVideo {
		return res, fmt.Errorf("stream %d: %w", streamIndex, ErrStreamNotFound)
	}

	codec, ok := d.registry.FindDecoder(stream.Codec.CodecID)
	if !ok {
		return res, fmt.Errorf("no decoder for codec %q: %w", stream.Codec.CodecID, ErrOpenFailure)
	}

	cc, err := codec.Open(stream.Codec)
	if err != nil {
		return res, fmt.Errorf("open %s: %v: %w", codec.Name(), err, ErrOpenFailure)
	}
	defer cc.Close()

	if target < 0 {
		return res, fmt.Errorf("ordinal %d: %w", target, ErrDecodeIncomplete)
	}

	var found bool
	// drain pulls every frame the codec has ready. It reports true once the
	// target frame has been converted into res.Frame.
	drain := func() (bool, error) {
		for {
			img, err := cc.ReceiveFrame()
			if errors.Is(err, ports.ErrAgain) || errors.Is(err, io.EOF) {
				return false, nil
			}
			if err != nil {
				return false, err
			}
			if res.Drained == target {
				res.Drained++
				w, h := frameSize(stream, img)
				res.Frame = pixconv.ToRGB24(img, w, h)
				return true, nil
			}
			res.Drained++
		}
	}

	for !found {
		if err := ctx.Err(); err != nil {
			return Result{Drained: res.Drained}, err
		}

		pkt, err := c.ReadPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Result{Drained: res.Drained}, fmt.Errorf("read packet: %w", err)
		}

		if pkt.StreamIndex != streamIndex {
			pkt.Release()
			continue
		}

		err = cc.SendPacket(pkt)
		pkt.Release()
		if err != nil {
			d.logger.Error("Error sending packet for decoding: %v", err)
			return Result{Drained: res.Drained}, fmt.Errorf("%v: %w", err, ErrSubmitFailure)
		}

		if found, err = drain(); err != nil {
			return Result{Drained: res.Drained}, fmt.Errorf("receive frame: %w", err)
		}
	}

	if !found {
		if err := cc.Flush(); err != nil {
			return Result{Drained: res.Drained}, fmt.Errorf("flush: %w", err)
		}
		if found, err = drain(); err != nil {
			return Result{Drained: res.Drained}, fmt.Errorf("receive frame: %w", err)
		}
	}

	if !found || res.Drained != target+1 {
		d.logger.Debug("Stream ended after %d frames, wanted ordinal %d", res.Drained, target)
		return Result{Drained: res.Drained}, fmt.Errorf("ordinal %d, drained %d: %w", target, res.Drained, ErrDecodeIncomplete)
	}

	return res, nil
}

func findStream(c ports.Container, index int) (ports.StreamInfo, bool) {
	for _, s := range c.Streams() {
		if s.Index == index {
			return s, true
		}
	}
	return ports.StreamInfo{}, false
}

// frameSize prefers the codec's reported size and falls back to the image's.
func frameSize(stream ports.StreamInfo, img image.Image) (int, int) {
	if stream.Codec.Width > 0 && stream.Codec.Height > 0 {
		return stream.Codec.Width, stream.Codec.Height
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}
