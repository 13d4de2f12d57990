package filesink

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/user/echoview/pkg/mocks"
	"github.com/user/echoview/pkg/ports"
)

// testBaseDir is a platform-independent base directory for tests
var testBaseDir = filepath.Join("debug")

func pngRenderer() *mocks.Renderer {
	return &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			if format != ports.FormatPNG {
				return nil, errors.New("expected PNG")
			}
			return []byte{0x89, 0x50, 0x4E, 0x47}, nil // PNG header
		},
	}
}

func TestSink_Enabled(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{}
	sink := New(testBaseDir, fs, renderer)

	if !sink.Enabled() {
		t.Error("expected Enabled to return true")
	}
}

func TestSink_SaveProbeJSON(t *testing.T) {
	fs := mocks.NewFileSystem()
	sink := New(testBaseDir, fs, &mocks.Renderer{})

	data := []byte(`{"streams": []}`)
	if err := sink.SaveProbeJSON(data); err != nil {
		t.Fatalf("SaveProbeJSON failed: %v", err)
	}

	expectedPath := filepath.Join(testBaseDir, "probe.json")
	saved, ok := fs.GetFile(expectedPath)
	if !ok {
		t.Errorf("expected file to be saved at %s", expectedPath)
	}
	if string(saved) != string(data) {
		t.Errorf("expected %q, got %q", data, saved)
	}
}

func TestSink_SaveFrames(t *testing.T) {
	tests := []struct {
		name string
		save func(s *Sink, img image.Image) error
		want string
	}{
		{
			name: "decoded",
			save: func(s *Sink, img image.Image) error { return s.SaveDecodedFrame(7, img) },
			want: filepath.Join(testBaseDir, "frames", "decoded", "frame-0007.png"),
		},
		{
			name: "panel",
			save: func(s *Sink, img image.Image) error { return s.SavePanelFrame(42, img) },
			want: filepath.Join(testBaseDir, "frames", "panel", "tick-0042.png"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := mocks.NewFileSystem()
			sink := New(testBaseDir, fs, pngRenderer())

			img := image.NewRGBA(image.Rect(0, 0, 16, 9))
			if err := tt.save(sink, img); err != nil {
				t.Fatalf("save failed: %v", err)
			}
			data, ok := fs.GetFile(tt.want)
			if !ok {
				t.Fatalf("expected file to be saved at %s", tt.want)
			}
			if len(data) != 4 {
				t.Errorf("expected encoded PNG bytes, got %x", data)
			}
		})
	}
}

func TestSink_EncodeError(t *testing.T) {
	fs := mocks.NewFileSystem()
	renderer := &mocks.Renderer{
		EncodeImageFunc: func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
			return nil, errors.New("boom")
		},
	}
	sink := New(testBaseDir, fs, renderer)

	if err := sink.SaveDecodedFrame(0, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error")
	}
	if _, ok := fs.GetFile(filepath.Join(testBaseDir, "frames", "decoded", "frame-0000.png")); ok {
		t.Error("expected no file on encode failure")
	}
}

func TestSink_MkdirError(t *testing.T) {
	fs := mocks.NewFileSystem()
	fs.MkdirAllFunc = func(path string) error { return errors.New("read-only") }
	sink := New(testBaseDir, fs, pngRenderer())

	if err := sink.SavePanelFrame(0, image.NewRGBA(image.Rect(0, 0, 1, 1))); err == nil {
		t.Error("expected error")
	}
}
