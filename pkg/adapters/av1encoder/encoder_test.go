package av1encoder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/user/echoview/pkg/adapters/av1decoder"
	"github.com/user/echoview/pkg/adapters/logger"
	"github.com/user/echoview/pkg/adapters/mp4container"
	"github.com/user/echoview/pkg/adapters/osfilesystem"
	"github.com/user/echoview/pkg/framedecode"
	"github.com/user/echoview/pkg/mocks"
	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

func solid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestEncode_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.mp4")
	enc := New(osfilesystem.New())

	if err := enc.Begin(path, 64, 48, 30, ports.EncoderOptions{Quality: 20}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for i := 0; i < 6; i++ {
		if err := enc.EncodeFrame(solid(64, 48, color.RGBA{R: 220, G: 20, B: 20, A: 255})); err != nil {
			t.Fatalf("EncodeFrame %d: %v", i, err)
		}
	}
	if err := enc.End(); err != nil {
		t.Fatalf("End: %v", err)
	}

	c, err := mp4container.New().Open(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	defer c.Close()

	streams := c.Streams()
	if len(streams) != 1 || streams[0].Codec.CodecID != "av1" {
		t.Fatalf("expected one av1 stream, got %+v", streams)
	}
	if streams[0].FrameCount != 6 {
		t.Errorf("expected 6 frames, got %d", streams[0].FrameCount)
	}
	if streams[0].FrameRate < 29.9 || streams[0].FrameRate > 30.1 {
		t.Errorf("expected 30 fps, got %v", streams[0].FrameRate)
	}

	registry := &mocks.CodecRegistry{Codecs: map[string]ports.Codec{"av1": av1decoder.New()}}
	res, err := framedecode.New(registry, logger.NewNoop()).DecodeFrame(context.Background(), c, 0, 4)
	if err != nil {
		t.Fatalf("DecodeFrame: %v", err)
	}
	r, g, b, _ := res.Frame.At(32, 24).RGBA()
	if r>>8 < 150 || g>>8 > 100 || b>>8 > 100 {
		t.Errorf("center pixel (%d,%d,%d), expected reddish", r>>8, g>>8, b>>8)
	}
}

func TestEncode_Errors(t *testing.T) {
	enc := New(osfilesystem.New())
	if err := enc.EncodeFrame(solid(8, 8, color.RGBA{A: 255})); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("EncodeFrame: expected ErrNotInitialized, got %v", err)
	}
	if err := enc.End(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("End: expected ErrNotInitialized, got %v", err)
	}
	if err := enc.Begin("x.mp4", 0, 8, 30, ports.EncoderOptions{}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("Begin: expected ErrInvalidSize, got %v", err)
	}
}

func TestEncode_WriteError(t *testing.T) {
	fs := &mocks.FileSystem{WriteFileFunc: func(string, []byte) error { return errors.New("disk full") }}
	enc := New(fs)
	if err := enc.Begin("out.mp4", 16, 16, 25, ports.EncoderOptions{}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := enc.EncodeFrame(solid(16, 16, color.RGBA{G: 255, A: 255})); err != nil {
		t.Fatalf("EncodeFrame: %v", err)
	}
	if err := enc.End(); err == nil {
		t.Error("expected write error from End")
	}
}

func TestSequenceHeader(t *testing.T) {
	seq := []byte{0x0A, 0x03, 0xAA, 0xBB, 0xCC}
	tests := []struct {
		name string
		data []byte
		want []byte
	}{
		{"first OBU", seq, seq},
		{"after temporal delimiter", append([]byte{0x12, 0x00}, seq...), seq},
		{"with trailing frame", append(append([]byte{}, seq...), 0x32, 0x01, 0xFF), seq},
		{"extension header", []byte{0x0E, 0x00, 0x02, 0x01, 0x02}, []byte{0x0E, 0x00, 0x02, 0x01, 0x02}},
		{"none", []byte{0x12, 0x00, 0x32, 0x01, 0xFF}, nil},
		{"truncated size", []byte{0x0A, 0x80}, nil},
		{"size past end", []byte{0x0A, 0x09, 0x01}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sequenceHeader(tt.data); !bytes.Equal(got, tt.want) {
				t.Errorf("sequenceHeader = %x, want %x", got, tt.want)
			}
		})
	}
}

func TestReadLeb128(t *testing.T) {
	tests := []struct {
		data  []byte
		value int
		n     int
	}{
		{[]byte{0x05}, 5, 1},
		{[]byte{0x80, 0x01}, 128, 2},
		{[]byte{0xE5, 0x8E, 0x26}, 624485, 3},
		{[]byte{0x80}, 0, 0},
		{nil, 0, 0},
	}
	for _, tt := range tests {
		value, n := readLeb128(tt.data)
		if value != tt.value || n != tt.n {
			t.Errorf("readLeb128(%x) = %d, %d; want %d, %d", tt.data, value, n, tt.value, tt.n)
		}
	}
}

func TestRGBToI420(t *testing.T) {
	src := pixconv.ToRGB24(solid(3, 3, color.RGBA{R: 255, G: 255, B: 255, A: 255}), 3, 3)
	y, u, v := rgbToI420(src)
	if len(y) != 9 || len(u) != 4 || len(v) != 4 {
		t.Fatalf("plane sizes %d/%d/%d, want 9/4/4", len(y), len(u), len(v))
	}
	if y[4] != 235 || u[0] != 128 || v[3] != 128 {
		t.Errorf("white maps to Y=%d U=%d V=%d, want 235/128/128", y[4], u[0], v[3])
	}
}
