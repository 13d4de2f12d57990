// Package h264encoder writes H.264 MP4 files by piping raw RGB24 frames into
// an external ffmpeg process.
package h264encoder

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/user/echoview/pkg/adapters/h264decoder"
	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

// defaultCRF is x264's own default.
const defaultCRF = 23

// Encoder implements ports.VideoEncoder with ffmpeg and libx264.
type Encoder struct {
	ffmpegPath string

	mu         sync.Mutex
	width      int
	height     int
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stderr     bytes.Buffer
	frameCount int
}

// New creates an encoder. ffmpegPath may be empty to search for ffmpeg.
func New(ffmpegPath string) *Encoder {
	return &Encoder{ffmpegPath: ffmpegPath}
}

// Begin starts ffmpeg writing to path.
func (e *Encoder) Begin(path string, width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cmd != nil {
		return ErrAlreadyStarted
	}
	if width <= 0 || height <= 0 || fps <= 0 {
		return fmt.Errorf("%w: %dx%d at %v fps", ErrInvalidSize, width, height, fps)
	}

	ffmpeg, err := h264decoder.FindFFmpeg(e.ffmpegPath)
	if err != nil {
		return err
	}

	crf := defaultCRF
	if opts.Quality > 0 && opts.Quality <= 51 {
		crf = opts.Quality
	}

	e.width = width
	e.height = height
	e.frameCount = 0
	e.stderr.Reset()

	e.cmd = exec.Command(ffmpeg,
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", strconv.Itoa(width)+"x"+strconv.Itoa(height),
		"-r", strconv.FormatFloat(fps, 'f', -1, 64),
		"-i", "pipe:0",
		// yuv420p needs even dimensions
		"-vf", "pad=ceil(iw/2)*2:ceil(ih/2)*2",
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		path,
	)
	e.cmd.Stderr = &e.stderr

	stdin, err := e.cmd.StdinPipe()
	if err != nil {
		e.cmd = nil
		return fmt.Errorf("stdin pipe: %w", err)
	}
	if err := e.cmd.Start(); err != nil {
		e.cmd = nil
		return fmt.Errorf("start ffmpeg: %w", err)
	}
	e.stdin = stdin
	return nil
}

// EncodeFrame writes img to ffmpeg, scaling it to the size given to Begin.
func (e *Encoder) EncodeFrame(img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return ErrNotInitialized
	}

	frame := pixconv.ToRGB24(img, e.width, e.height)
	if _, err := e.stdin.Write(frame.Pix); err != nil {
		return fmt.Errorf("%w: frame %d: %v: %s", ErrEncodingFailed, e.frameCount, err, e.stderr.String())
	}
	e.frameCount++
	return nil
}

// End closes ffmpeg's input and waits for the file to be written.
func (e *Encoder) End() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stdin == nil {
		return ErrNotInitialized
	}
	e.stdin.Close()
	e.stdin = nil

	err := e.cmd.Wait()
	e.cmd = nil
	if err != nil {
		return fmt.Errorf("%w: %v: %s", ErrEncodingFailed, err, e.stderr.String())
	}
	if e.frameCount == 0 {
		return ErrNoFrames
	}
	return nil
}

// Frames returns the number of frames written since Begin.
func (e *Encoder) Frames() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameCount
}

var _ ports.VideoEncoder = (*Encoder)(nil)
