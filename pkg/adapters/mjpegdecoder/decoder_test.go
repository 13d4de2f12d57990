package mjpegdecoder

import (
	"bytes"
	"context"
	"errors"
	"image/jpeg"
	"io"
	"path/filepath"
	"testing"

	"github.com/user/echoview/pkg/adapters/ggrenderer"
	"github.com/user/echoview/pkg/adapters/logger"
	"github.com/user/echoview/pkg/adapters/mp4container"
	"github.com/user/echoview/pkg/framedecode"
	"github.com/user/echoview/pkg/mocks"
	"github.com/user/echoview/pkg/ports"
)

func jpegPacket(t *testing.T, i int) ports.Packet {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, mocks.ClipFrame(i, 16, 8), &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return ports.Packet{Data: buf.Bytes()}
}

func TestContext_SendReceive(t *testing.T) {
	cc, err := New(ggrenderer.New()).Open(ports.CodecParameters{CodecID: "mjpeg"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer cc.Close()

	if _, err := cc.ReceiveFrame(); !errors.Is(err, ports.ErrAgain) {
		t.Errorf("expected ErrAgain before input, got %v", err)
	}

	if err := cc.SendPacket(jpegPacket(t, 1)); err != nil {
		t.Fatalf("SendPacket: %v", err)
	}
	img, err := cc.ReceiveFrame()
	if err != nil {
		t.Fatalf("ReceiveFrame: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("expected 16x8, got %dx%d", b.Dx(), b.Dy())
	}

	if err := cc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if _, err := cc.ReceiveFrame(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after flush, got %v", err)
	}
	if err := cc.SendPacket(jpegPacket(t, 2)); !errors.Is(err, ErrFlushed) {
		t.Errorf("expected ErrFlushed, got %v", err)
	}
}

func TestContext_RejectsGarbage(t *testing.T) {
	cc, _ := New(ggrenderer.New()).Open(ports.CodecParameters{})
	if err := cc.SendPacket(ports.Packet{Data: []byte("not a jpeg")}); err == nil {
		t.Error("expected error for invalid data")
	}
}

func TestDecodeFrame_FromMP4(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	clip := mocks.MJPEGClip{Width: 32, Height: 16, Frames: 6, FPS: 30, WithAudio: true}
	if err := clip.WriteFile(path); err != nil {
		t.Fatalf("write clip: %v", err)
	}

	registry := &mocks.CodecRegistry{Codecs: map[string]ports.Codec{"mjpeg": New(ggrenderer.New())}}
	decoder := framedecode.New(registry, logger.NewNoop())
	opener := mp4container.New()

	for _, ordinal := range []int{0, 3, 5} {
		c, err := opener.Open(path)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		index, err := framedecode.SelectVideoStream(c)
		if err != nil {
			t.Fatalf("SelectVideoStream: %v", err)
		}

		res, err := decoder.DecodeFrame(context.Background(), c, index, ordinal)
		if err != nil {
			t.Fatalf("ordinal %d: %v", ordinal, err)
		}
		if res.Frame.Width() != 32 || res.Frame.Height() != 16 {
			t.Errorf("ordinal %d: expected 32x16, got %dx%d", ordinal, res.Frame.Width(), res.Frame.Height())
		}

		want := ordinal * 16
		got := int(res.Frame.Pix[0])
		if got < want-4 || got > want+4 {
			t.Errorf("ordinal %d: red %d, want about %d", ordinal, got, want)
		}
	}

	c, err := opener.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	res, err := decoder.DecodeFrame(context.Background(), c, 0, 6)
	if !errors.Is(err, framedecode.ErrDecodeIncomplete) {
		t.Fatalf("expected ErrDecodeIncomplete past the end, got %v", err)
	}
	if res.Drained != 6 {
		t.Errorf("expected 6 frames drained, got %d", res.Drained)
	}
}
