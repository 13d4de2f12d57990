package h264decoder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

// decodeContext feeds one ffmpeg process. A reader goroutine splits stdout
// into width*height*3 byte frames and queues them for ReceiveFrame.
type decodeContext struct {
	width, height int
	paramSets     []byte
	started       bool

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr lockedBuffer

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*pixconv.RGB24
	flushed bool
	done    bool  // stdout reached EOF and the process exited
	exitErr error // process exit error, set when done
	exited  chan struct{}
}

func startContext(ffmpegPath string, params ports.CodecParameters) (*decodeContext, error) {
	d := &decodeContext{
		width:     params.Width,
		height:    params.Height,
		paramSets: annexBPrefix(params.Extradata),
		exited:    make(chan struct{}),
	}
	d.cond = sync.NewCond(&d.mu)

	size := strconv.Itoa(params.Width) + "x" + strconv.Itoa(params.Height)
	d.cmd = exec.Command(ffmpegPath,
		"-hide_banner",
		"-loglevel", "error",
		"-f", "h264", // Raw Annex B input
		"-i", "pipe:0",
		"-vsync", "passthrough", // One output frame per decoded frame
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-s", size,
		"pipe:1",
	)
	d.cmd.Stderr = &d.stderr

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	d.stdin = stdin

	if err := d.cmd.Start(); err != nil {
		return nil, err
	}

	go d.readLoop(stdout)
	return d, nil
}

func (d *decodeContext) readLoop(stdout io.Reader) {
	frameSize := d.width * d.height * pixconv.BytesPerPixel
	for {
		frame := pixconv.NewRGB24(image.Rect(0, 0, d.width, d.height))
		if _, err := io.ReadFull(stdout, frame.Pix[:frameSize]); err != nil {
			break
		}
		d.mu.Lock()
		d.queue = append(d.queue, frame)
		d.cond.Broadcast()
		d.mu.Unlock()
	}

	err := d.cmd.Wait()

	d.mu.Lock()
	d.done = true
	d.exitErr = err
	d.cond.Broadcast()
	d.mu.Unlock()
	close(d.exited)
}

// SendPacket writes the packet to ffmpeg as Annex B, prefixed with the
// parameter sets on keyframes and on the first packet.
func (d *decodeContext) SendPacket(pkt ports.Packet) error {
	d.mu.Lock()
	closed := d.flushed || d.done
	d.mu.Unlock()
	if closed {
		return ErrClosed
	}

	var data []byte
	if pkt.Keyframe || !d.started {
		data = append(data, d.paramSets...)
	}
	data = avccToAnnexB(data, pkt.Data)
	d.started = true

	if _, err := d.stdin.Write(data); err != nil {
		return fmt.Errorf("write to ffmpeg: %w: %s", err, d.stderr.String())
	}
	return nil
}

// ReceiveFrame returns the next decoded frame. Before Flush it never
// blocks; after Flush it waits for ffmpeg to emit the remaining frames.
func (d *decodeContext) ReceiveFrame() (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for {
		if len(d.queue) > 0 {
			frame := d.queue[0]
			d.queue[0] = nil
			d.queue = d.queue[1:]
			return frame, nil
		}
		if d.done {
			var exitErr *exec.ExitError
			if d.exitErr != nil && errors.As(d.exitErr, &exitErr) && d.flushed {
				return nil, fmt.Errorf("ffmpeg: %w: %s", d.exitErr, d.stderr.String())
			}
			return nil, io.EOF
		}
		if !d.flushed {
			return nil, ports.ErrAgain
		}
		d.cond.Wait()
	}
}

// Flush closes ffmpeg's input so it drains its remaining frames.
func (d *decodeContext) Flush() error {
	d.mu.Lock()
	if d.flushed {
		d.mu.Unlock()
		return nil
	}
	d.flushed = true
	d.mu.Unlock()

	return d.stdin.Close()
}

// Close stops ffmpeg and waits for the reader to finish.
func (d *decodeContext) Close() {
	d.mu.Lock()
	flushed := d.flushed
	d.flushed = true
	d.mu.Unlock()

	if !flushed {
		d.stdin.Close()
	}
	if d.cmd.Process != nil {
		d.cmd.Process.Kill()
	}
	<-d.exited

	d.mu.Lock()
	d.queue = nil
	d.mu.Unlock()
}

// lockedBuffer collects ffmpeg's stderr while it is still running.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ ports.CodecContext = (*decodeContext)(nil)
