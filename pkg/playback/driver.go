// Package playback drives per-tick video playback inside a UI panel.
//
// Every tick reopens the selected container, advances a wrapping playback
// position by the ratio of the stream's frame rate to the UI's redraw rate,
// decodes the frame at that position from the start of the stream and shows
// it on the panel.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/user/echoview/pkg/framedecode"
	"github.com/user/echoview/pkg/pipeline"
	"github.com/user/echoview/pkg/ports"
)

// ErrUnsupported is returned by Play when no decoder is registered for the
// file's video stream.
var ErrUnsupported = errors.New("playback: unsupported video codec")

// State is the driver's playback state.
type State int

const (
	Idle State = iota
	Playing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Playing:
		return "playing"
	default:
		return "unknown"
	}
}

// Config configures a Driver.
type Config struct {
	// WrapFrames is the position at which playback wraps back to the start.
	// Zero wraps at the stream's frame count.
	WrapFrames int
}

// Driver is the playback state machine. It is not safe for concurrent use;
// call it from the UI thread.
type Driver struct {
	opener   ports.MediaOpener
	decoder  *framedecode.Decoder
	uploader ports.TextureUploader
	panel    ports.Panel
	sink     ports.DebugSink
	logger   ports.Logger
	config   Config

	state    State
	path     string
	position float64
	texture  ports.TextureHandle
}

// New creates a new Driver in the Idle state.
func New(
	opener ports.MediaOpener,
	decoder *framedecode.Decoder,
	uploader ports.TextureUploader,
	panel ports.Panel,
	sink ports.DebugSink,
	logger ports.Logger,
	config Config,
) *Driver {
	return &Driver{
		opener:   opener,
		decoder:  decoder,
		uploader: uploader,
		panel:    panel,
		sink:     sink,
		logger:   logger.WithComponent("playback"),
		config:   config,
	}
}

// State returns the current playback state.
func (d *Driver) State() State { return d.state }

// Path returns the file being played, or "" when idle.
func (d *Driver) Path() string { return d.path }

// Position returns the current playback position in frames.
func (d *Driver) Position() float64 { return d.position }

// SetPosition moves the playback position. Negative values are clamped to 0.
func (d *Driver) SetPosition(p float64) {
	if p < 0 || math.IsNaN(p) {
		p = 0
	}
	d.position = p
}

// Play starts playing path from the beginning after checking that the file
// opens, has a video stream and that a decoder is registered for it. On
// failure the driver's state is left untouched.
func (d *Driver) Play(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := d.opener.Open(path)
	if err != nil {
		d.logger.Error("Failed to open %s: %v", path, err)
		return fmt.Errorf("open %s: %v: %w", path, err, framedecode.ErrOpenFailure)
	}
	defer c.Close()

	stream, err := videoStream(c)
	if err != nil {
		d.logger.Error("No video stream in %s", path)
		return fmt.Errorf("%s: %w", path, err)
	}
	if !d.decoder.Supports(stream) {
		d.logger.Error("No decoder for codec %s in %s", stream.Codec.CodecID, path)
		return fmt.Errorf("%s: codec %q: %w", path, stream.Codec.CodecID, ErrUnsupported)
	}

	d.releaseTexture()
	d.panel.Clear()
	d.state = Playing
	d.path = path
	d.position = 0

	d.logger.Info("Playing %s (%s %dx%d, %d frames at %.2f fps)",
		path, stream.Codec.CodecID, stream.Codec.Width, stream.Codec.Height, stream.FrameCount, stream.FrameRate)
	return nil
}

// Stop returns to Idle, releasing the displayed texture.
func (d *Driver) Stop() {
	if d.state == Idle {
		return
	}
	d.releaseTexture()
	d.panel.Clear()
	d.state = Idle
	d.path = ""
	d.position = 0
	d.logger.Info("Playback stopped")
}

// Execute runs one playback tick. Idle ticks do nothing. A failed tick
// displays nothing and returns the error; the driver stays Playing and the
// next tick retries.
func (d *Driver) Execute(ctx context.Context, input pipeline.TickInput) (pipeline.TickResult, error) {
	result := pipeline.TickResult{}
	if d.state != Playing {
		return result, nil
	}
	result.Playing = true

	// The previous frame's texture is freed before anything else so a
	// failing tick never leaves it live.
	d.releaseTexture()
	d.panel.Clear()

	c, err := d.opener.Open(d.path)
	if err != nil {
		d.logger.Error("Failed to open %s: %v", d.path, err)
		return result, fmt.Errorf("open %s: %v: %w", d.path, err, framedecode.ErrOpenFailure)
	}

	stream, err := videoStream(c)
	if err != nil {
		c.Close()
		d.logger.Error("No video stream in %s", d.path)
		return result, fmt.Errorf("%s: %w", d.path, err)
	}

	d.position = Advance(d.position, stream.FrameRate, input.UIFramesPerSecond, d.wrap(stream))
	result.Position = d.position

	if d.position >= float64(stream.FrameCount) {
		c.Close()
		return result, nil
	}

	ordinal := int(d.position)
	result.Ordinal = ordinal

	// DecodeFrame closes the container.
	decoded, err := d.decoder.DecodeFrame(ctx, c, stream.Index, ordinal)
	if err != nil {
		d.logger.Error("Failed to decode frame %d of %s: %v", ordinal, d.path, err)
		return result, fmt.Errorf("decode frame %d: %w", ordinal, err)
	}

	if d.sink.Enabled() {
		if err := d.sink.SaveDecodedFrame(ordinal, decoded.Frame); err != nil {
			d.logger.Warn("Failed to save debug frame %d: %v", ordinal, err)
		}
	}

	handle, err := d.uploader.Upload(decoded.Frame)
	if err != nil {
		d.logger.Error("Failed to upload frame %d: %v", ordinal, err)
		return result, fmt.Errorf("upload frame %d: %w", ordinal, err)
	}
	d.texture = handle

	width, height := d.panel.Size()
	d.panel.Show(handle, width, height)

	d.logger.Debug("Frame %d shown at position %.2f (%dx%d)", ordinal, d.position, width, height)

	result.Displayed = true
	result.Texture = handle
	result.Width = width
	result.Height = height
	return result, nil
}

// Advance moves position forward by streamFPS/uiFPS frames and wraps it into
// [0, wrap). Non-positive or non-finite rates leave the position unchanged.
// A non-positive wrap disables wrapping.
func Advance(position, streamFPS, uiFPS, wrap float64) float64 {
	if validRate(streamFPS) && validRate(uiFPS) {
		position += streamFPS / uiFPS
	}
	if wrap > 0 && position >= wrap {
		position = math.Mod(position, wrap)
	}
	return position
}

func validRate(r float64) bool {
	return r > 0 && !math.IsInf(r, 0) && !math.IsNaN(r)
}

func (d *Driver) wrap(stream ports.StreamInfo) float64 {
	if d.config.WrapFrames > 0 {
		return float64(d.config.WrapFrames)
	}
	return float64(stream.FrameCount)
}

func (d *Driver) releaseTexture() {
	if d.texture == 0 {
		return
	}
	d.uploader.Release(d.texture)
	d.texture = 0
}

func videoStream(c ports.Container) (ports.StreamInfo, error) {
	index, err := framedecode.SelectVideoStream(c)
	if err != nil {
		return ports.StreamInfo{}, err
	}
	for _, s := range c.Streams() {
		if s.Index == index {
			return s, nil
		}
	}
	return ports.StreamInfo{}, framedecode.ErrStreamNotFound
}

var _ pipeline.Stage[pipeline.TickInput, pipeline.TickResult] = (*Driver)(nil)
