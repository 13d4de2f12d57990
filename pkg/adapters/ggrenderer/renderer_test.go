package ggrenderer

import (
	"image"
	"image/color"
	"testing"

	"github.com/user/echoview/pkg/mocks"
	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

func fill(img *pixconv.RGB24, r, g, b uint8) *pixconv.RGB24 {
	for i := 0; i < len(img.Pix); i += 3 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2] = r, g, b
	}
	return img
}

func near(c color.Color, r, g, b uint8, tolerance int) bool {
	got := color.RGBAModel.Convert(c).(color.RGBA)
	return absDiff(got.R, r) <= tolerance && absDiff(got.G, g) <= tolerance && absDiff(got.B, b) <= tolerance
}

func TestRenderer_CreateCanvas(t *testing.T) {
	img := New().CreateCanvas(64, 48, color.RGBA{R: 0x10, G: 0x20, B: 0x30, A: 0xff}).ToImage()

	if img.Bounds().Dx() != 64 || img.Bounds().Dy() != 48 {
		t.Errorf("expected 64x48, got %v", img.Bounds())
	}
	if !near(img.At(63, 47), 0x10, 0x20, 0x30, 0) {
		t.Errorf("background not applied: %v", img.At(63, 47))
	}
}

func TestRenderer_DecodeClipFrame(t *testing.T) {
	r := New()
	frame := mocks.ClipFrame(5, 24, 16)

	jpg, err := r.EncodeImage(frame, ports.FormatJPEG, 95)
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}

	for _, format := range []ports.ImageFormat{ports.FormatJPEG, ports.FormatAuto} {
		decoded, err := r.DecodeImage(jpg, format)
		if err != nil {
			t.Fatalf("DecodeImage(%d): %v", format, err)
		}
		if decoded.Bounds().Dx() != 24 || decoded.Bounds().Dy() != 16 {
			t.Errorf("format %d: expected 24x16, got %v", format, decoded.Bounds())
		}
		if !near(decoded.At(12, 8), 5*16, 0x40, 0x80, 8) {
			t.Errorf("format %d: clip colour lost: %v", format, decoded.At(12, 8))
		}
	}

	if _, err := r.DecodeImage([]byte("not a jpeg"), ports.FormatJPEG); err == nil {
		t.Error("expected error for corrupt JPEG")
	}
}

func TestRenderer_EncodeRGB24PNG(t *testing.T) {
	r := New()
	src := fill(pixconv.NewRGB24(image.Rect(0, 0, 7, 5)), 200, 100, 50)

	data, err := r.EncodeImage(src, ports.FormatPNG, 0)
	if err != nil {
		t.Fatalf("EncodeImage: %v", err)
	}
	decoded, err := r.DecodeImage(data, ports.FormatPNG)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if !near(decoded.At(6, 4), 200, 100, 50, 0) {
		t.Errorf("PNG is lossless, got %v", decoded.At(6, 4))
	}
}

func TestRenderer_EncodeUnsupportedFormat(t *testing.T) {
	if _, err := New().EncodeImage(image.NewRGBA(image.Rect(0, 0, 1, 1)), ports.ImageFormat(99), 0); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestRenderer_ResizeImage(t *testing.T) {
	src := fill(pixconv.NewRGB24(image.Rect(0, 0, 40, 20)), 10, 200, 30)

	tests := []struct {
		name          string
		width, height int
	}{
		{"upscale to panel", 720, 480},
		{"downscale", 16, 8},
		{"odd size", 33, 17},
		{"same size", 40, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resized := New().ResizeImage(src, tt.width, tt.height)
			if tt.width == 40 && tt.height == 20 && resized != image.Image(src) {
				t.Error("expected an image already at size to be returned as is")
			}
			if resized.Bounds().Dx() != tt.width || resized.Bounds().Dy() != tt.height {
				t.Fatalf("expected %dx%d, got %v", tt.width, tt.height, resized.Bounds())
			}
			if !near(resized.At(tt.width/2, tt.height/2), 10, 200, 30, 1) {
				t.Errorf("expected about (10,200,30), got %v", resized.At(tt.width/2, tt.height/2))
			}
		})
	}
}

func TestCanvas_Compose(t *testing.T) {
	canvas := New().CreateCanvas(100, 60, color.Black)

	frame := fill(pixconv.NewRGB24(image.Rect(0, 0, 20, 20)), 255, 0, 0)
	canvas.DrawImage(frame, 10, 10)
	canvas.DrawRect(0, 50, 100, 10, color.RGBA{G: 255, A: 255})

	img := canvas.ToImage()
	tests := []struct {
		name    string
		x, y    int
		r, g, b uint8
	}{
		{"inside frame", 15, 15, 255, 0, 0},
		{"outside frame", 50, 20, 0, 0, 0},
		{"HUD bar", 50, 55, 0, 255, 0},
	}
	for _, tt := range tests {
		if !near(img.At(tt.x, tt.y), tt.r, tt.g, tt.b, 0) {
			t.Errorf("%s: pixel (%d,%d) = %v", tt.name, tt.x, tt.y, img.At(tt.x, tt.y))
		}
	}
}

func TestCanvas_Text(t *testing.T) {
	canvas := New().CreateCanvas(200, 30, color.Black)
	style := ports.TextStyle{FontSize: 13, Color: color.White, Align: ports.AlignCenter}

	short, _ := canvas.MeasureText("#1", style)
	long, h := canvas.MeasureText("#12  45.50", style)
	if long <= short {
		t.Errorf("expected longer caption to measure wider: %v <= %v", long, short)
	}
	if h <= 0 {
		t.Errorf("expected positive height, got %v", h)
	}

	canvas.DrawText("#12  45.50", 100, 15, style)
	img := canvas.ToImage()
	lit := false
	for x := 0; x < 200 && !lit; x++ {
		for y := 0; y < 30; y++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("expected caption pixels to be drawn")
	}

	// A missing font file keeps the built-in face.
	style.FontPath = "/nonexistent/font.ttf"
	canvas.DrawText("#1", 10, 15, style)
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
