package codecregistry

import (
	"path/filepath"
	"testing"

	"github.com/user/echoview/pkg/adapters/codecdetect"
	"github.com/user/echoview/pkg/adapters/ggrenderer"
	"github.com/user/echoview/pkg/mocks"
)

func TestNew_AlwaysAvailable(t *testing.T) {
	r := New(ggrenderer.New(), Options{})

	for _, id := range []string{"av1", "mjpeg"} {
		codec, ok := r.FindDecoder(id)
		if !ok {
			t.Errorf("expected %s decoder", id)
			continue
		}
		if codec.Name() == "" {
			t.Errorf("%s decoder has no name", id)
		}
	}
}

func TestNew_H264WithoutFFmpeg(t *testing.T) {
	t.Setenv("FFMPEG_PATH", "")
	t.Setenv("PATH", t.TempDir())

	r := New(ggrenderer.New(), Options{FFmpegPath: filepath.Join(t.TempDir(), "missing")})

	if _, ok := r.FindDecoder("h264"); ok {
		// Common install locations are still searched.
		t.Skip("ffmpeg found in a well-known location")
	}

	var found bool
	for _, info := range r.Decoders() {
		if info.Codec == codecdetect.CodecH264 {
			found = true
			if info.Available {
				t.Error("expected h264 to be unavailable")
			}
			if info.Backend != BackendFFmpeg {
				t.Errorf("expected ffmpeg backend, got %s", info.Backend)
			}
		}
	}
	if !found {
		t.Error("expected h264 to be listed even when unavailable")
	}
}

func TestFindDecoder_Unknown(t *testing.T) {
	r := New(ggrenderer.New(), Options{})

	for _, id := range []string{"", "hevc", "aac", "vp9"} {
		if _, ok := r.FindDecoder(id); ok {
			t.Errorf("expected no decoder for %q", id)
		}
	}
}

func TestRegister_Replaces(t *testing.T) {
	r := New(ggrenderer.New(), Options{})
	codec := &mocks.Codec{}

	r.Register(codecdetect.CodecHEVC, BackendFFmpeg, codec, true)
	got, ok := r.FindDecoder("hevc")
	if !ok || got != codec {
		t.Fatal("expected registered hevc decoder")
	}

	r.Register(codecdetect.CodecHEVC, BackendFFmpeg, codec, false)
	if _, ok := r.FindDecoder("hevc"); ok {
		t.Error("expected unavailable decoder to be hidden")
	}
}

func TestDecoders_Sorted(t *testing.T) {
	infos := New(ggrenderer.New(), Options{}).Decoders()
	if len(infos) != 3 {
		t.Fatalf("expected 3 decoders, got %d", len(infos))
	}
	for i := 1; i < len(infos); i++ {
		if infos[i-1].Codec > infos[i].Codec {
			t.Errorf("decoders not sorted: %v", infos)
		}
	}
}
