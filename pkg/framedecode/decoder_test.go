package framedecode

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/user/echoview/pkg/adapters/logger"
	"github.com/user/echoview/pkg/mocks"
	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

func newDecoder(codec *mocks.Codec) *Decoder {
	registry := &mocks.CodecRegistry{Codecs: map[string]ports.Codec{"mock": codec}}
	return New(registry, logger.NewNoop())
}

func TestDecodeFrame_EveryOrdinal(t *testing.T) {
	const total = 10

	for _, latency := range []int{0, 3} {
		for n := 0; n < total; n++ {
			codec := &mocks.Codec{Latency: latency}
			container := mocks.NewVideoContainer(total, 4)

			res, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, n)
			if err != nil {
				t.Fatalf("latency %d, ordinal %d: unexpected error: %v", latency, n, err)
			}
			if res.Drained != n+1 {
				t.Errorf("latency %d, ordinal %d: drained %d, want %d", latency, n, res.Drained, n+1)
			}
			if res.Frame == nil {
				t.Fatalf("latency %d, ordinal %d: expected frame", latency, n)
			}
			if got := res.Frame.Pix[0]; got != byte(n) {
				t.Errorf("latency %d, ordinal %d: got frame %d", latency, n, got)
			}
		}
	}
}

func TestDecodeFrame_StopsReadingAtTarget(t *testing.T) {
	codec := &mocks.Codec{}
	container := mocks.NewVideoContainer(10, 0)

	if _, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if container.Handed() != 3 {
		t.Errorf("expected 3 packets read, got %d", container.Handed())
	}
}

func TestDecodeFrame_PastEnd(t *testing.T) {
	codec := &mocks.Codec{}
	container := mocks.NewVideoContainer(3, 0)

	res, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 5)
	if !errors.Is(err, ErrDecodeIncomplete) {
		t.Fatalf("expected ErrDecodeIncomplete, got %v", err)
	}
	if res.Frame != nil {
		t.Error("expected frame to be unset")
	}
	if res.Drained != 3 {
		t.Errorf("expected drained count 3, got %d", res.Drained)
	}
}

func TestDecodeFrame_OrdinalEqualsTotal(t *testing.T) {
	codec := &mocks.Codec{Latency: 2}
	container := mocks.NewVideoContainer(4, 0)

	_, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 4)
	if !errors.Is(err, ErrDecodeIncomplete) {
		t.Fatalf("expected ErrDecodeIncomplete, got %v", err)
	}
}

func TestDecodeFrame_NoVideoStream(t *testing.T) {
	codec := &mocks.Codec{}
	container := &mocks.Container{
		StreamList: []ports.StreamInfo{{Index: 0, MediaType: ports.MediaAudio, Codec: ports.CodecParameters{CodecID: "aac"}}},
		Packets:    []ports.Packet{{StreamIndex: 0, Data: []byte{1}}},
	}

	if _, err := SelectVideoStream(container); !errors.Is(err, ErrStreamNotFound) {
		t.Errorf("SelectVideoStream: expected ErrStreamNotFound, got %v", err)
	}

	_, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 0)
	if !errors.Is(err, ErrStreamNotFound) {
		t.Fatalf("expected ErrStreamNotFound, got %v", err)
	}
	if container.ReadCalls != 0 {
		t.Errorf("expected no packets read, got %d", container.ReadCalls)
	}
	if container.CloseCalls != 1 {
		t.Errorf("expected container closed once, got %d", container.CloseCalls)
	}
}

func TestDecodeFrame_NoDecoder(t *testing.T) {
	registry := &mocks.CodecRegistry{Codecs: map[string]ports.Codec{}}
	container := mocks.NewVideoContainer(3, 0)

	_, err := New(registry, logger.NewNoop()).DecodeFrame(context.Background(), container, 0, 0)
	if !errors.Is(err, ErrOpenFailure) {
		t.Fatalf("expected ErrOpenFailure, got %v", err)
	}
	if container.CloseCalls != 1 {
		t.Errorf("expected container closed, got %d closes", container.CloseCalls)
	}
}

func TestDecodeFrame_CodecOpenFails(t *testing.T) {
	codec := &mocks.Codec{OpenErr: errors.New("boom")}
	container := mocks.NewVideoContainer(3, 0)

	_, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 0)
	if !errors.Is(err, ErrOpenFailure) {
		t.Fatalf("expected ErrOpenFailure, got %v", err)
	}
}

func TestDecodeFrame_SubmitFailureReleasesEverything(t *testing.T) {
	codec := &mocks.Codec{FailOnSend: 2}
	container := mocks.NewVideoContainer(6, 2)

	_, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 4)
	if !errors.Is(err, ErrSubmitFailure) {
		t.Fatalf("expected ErrSubmitFailure, got %v", err)
	}
	if container.Released != container.Handed() {
		t.Errorf("released %d of %d packets", container.Released, container.Handed())
	}
	if container.CloseCalls != 1 {
		t.Errorf("expected container closed once, got %d", container.CloseCalls)
	}
	if !codec.Contexts[0].Closed {
		t.Error("expected codec context closed")
	}
}

func TestDecodeFrame_ReleasesSkippedPackets(t *testing.T) {
	codec := &mocks.Codec{}
	container := mocks.NewVideoContainer(5, 1)

	if _, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if container.Released != container.Handed() {
		t.Errorf("released %d of %d packets", container.Released, container.Handed())
	}
	if codec.Contexts[0].Sent != 5 {
		t.Errorf("expected 5 video packets submitted, got %d", codec.Contexts[0].Sent)
	}
}

func TestDecodeFrame_ConvertsToCodecSize(t *testing.T) {
	codec := &mocks.Codec{FrameSize: image.Pt(8, 8)}
	container := mocks.NewVideoContainer(2, 0)

	res, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Frame.Width() != 4 || res.Frame.Height() != 2 {
		t.Errorf("expected 4x2 frame, got %dx%d", res.Frame.Width(), res.Frame.Height())
	}
	if len(res.Frame.Pix) != 4*2*pixconv.BytesPerPixel {
		t.Errorf("unexpected buffer length %d", len(res.Frame.Pix))
	}
}

func TestDecodeFrame_Cancelled(t *testing.T) {
	codec := &mocks.Codec{}
	container := mocks.NewVideoContainer(5, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDecoder(codec).DecodeFrame(ctx, container, 0, 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if container.CloseCalls != 1 {
		t.Error("expected container closed")
	}
}

func TestDecodeFrame_NegativeOrdinal(t *testing.T) {
	codec := &mocks.Codec{}
	container := mocks.NewVideoContainer(3, 0)

	_, err := newDecoder(codec).DecodeFrame(context.Background(), container, 0, -1)
	if !errors.Is(err, ErrDecodeIncomplete) {
		t.Fatalf("expected ErrDecodeIncomplete, got %v", err)
	}
}
