package mocks

import (
	"fmt"
	"image"
	"image/color"

	"github.com/user/echoview/pkg/ports"
)

// Renderer stubs ports.Renderer. Unset funcs return blank images, empty
// encodings and Canvas instances that record what was drawn.
type Renderer struct {
	CreateCanvasFunc func(width, height int, bg color.Color) ports.Canvas
	DecodeImageFunc  func(data []byte, format ports.ImageFormat) (image.Image, error)
	EncodeImageFunc  func(img image.Image, format ports.ImageFormat, quality int) ([]byte, error)
	ResizeImageFunc  func(img image.Image, width, height int) image.Image
}

func (m *Renderer) CreateCanvas(width, height int, bg color.Color) ports.Canvas {
	if m.CreateCanvasFunc != nil {
		return m.CreateCanvasFunc(width, height, bg)
	}
	return NewCanvas(width, height)
}

func (m *Renderer) DecodeImage(data []byte, format ports.ImageFormat) (image.Image, error) {
	if m.DecodeImageFunc != nil {
		return m.DecodeImageFunc(data, format)
	}
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

func (m *Renderer) EncodeImage(img image.Image, format ports.ImageFormat, quality int) ([]byte, error) {
	if m.EncodeImageFunc != nil {
		return m.EncodeImageFunc(img, format, quality)
	}
	return []byte{}, nil
}

func (m *Renderer) ResizeImage(img image.Image, width, height int) image.Image {
	if m.ResizeImageFunc != nil {
		return m.ResizeImageFunc(img, width, height)
	}
	return image.NewRGBA(image.Rect(0, 0, width, height))
}

var _ ports.Renderer = (*Renderer)(nil)

// Canvas records drawing calls as readable ops such as
// "image 0,0 320x240", "rect 0,220 320x20" and "text 8,230 frame 3".
type Canvas struct {
	Width, Height int
	Ops           []string
}

func NewCanvas(width, height int) *Canvas {
	return &Canvas{Width: width, Height: height}
}

func (m *Canvas) DrawImage(img image.Image, x, y int) {
	b := img.Bounds()
	m.Ops = append(m.Ops, fmt.Sprintf("image %d,%d %dx%d", x, y, b.Dx(), b.Dy()))
}

func (m *Canvas) DrawRect(x, y, w, h int, c color.Color) {
	m.Ops = append(m.Ops, fmt.Sprintf("rect %d,%d %dx%d", x, y, w, h))
}

func (m *Canvas) DrawText(text string, x, y int, style ports.TextStyle) {
	m.Ops = append(m.Ops, fmt.Sprintf("text %d,%d %s", x, y, text))
}

// MeasureText assumes a monospaced face 0.6 em wide and 1 em high.
func (m *Canvas) MeasureText(text string, style ports.TextStyle) (float64, float64) {
	return float64(len(text)) * style.FontSize * 0.6, style.FontSize
}

func (m *Canvas) ToImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
}

var _ ports.Canvas = (*Canvas)(nil)
