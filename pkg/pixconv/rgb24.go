// Package pixconv converts decoded video images into the packed RGB24 layout
// consumed by texture uploaders.
package pixconv

import (
	"image"
	"image/color"
)

// BytesPerPixel is the size of one RGB24 pixel.
const BytesPerPixel = 3

// RGB24 is an in-memory image whose pixels are packed R, G, B bytes.
type RGB24 struct {
	// Pix holds the image's pixels in R, G, B order. The pixel at (x, y)
	// starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*3].
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB24 allocates a zeroed RGB24 image with the given bounds.
func NewRGB24(r image.Rectangle) *RGB24 {
	w, h := r.Dx(), r.Dy()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &RGB24{
		Pix:    make([]uint8, w*h*BytesPerPixel),
		Stride: w * BytesPerPixel,
		Rect:   r,
	}
}

// Width returns the image width in pixels.
func (p *RGB24) Width() int { return p.Rect.Dx() }

// Height returns the image height in pixels.
func (p *RGB24) Height() int { return p.Rect.Dy() }

// ColorModel implements image.Image.
func (p *RGB24) ColorModel() color.Model { return color.RGBAModel }

// Bounds implements image.Image.
func (p *RGB24) Bounds() image.Rectangle { return p.Rect }

// At implements image.Image.
func (p *RGB24) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	return color.RGBA{R: p.Pix[i], G: p.Pix[i+1], B: p.Pix[i+2], A: 0xff}
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *RGB24) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*BytesPerPixel
}

// SetRGB sets the pixel at (x, y). Out-of-bounds writes are ignored.
func (p *RGB24) SetRGB(x, y int, r, g, b uint8) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	p.Pix[i] = r
	p.Pix[i+1] = g
	p.Pix[i+2] = b
}

// Clone returns a deep copy of the image.
func (p *RGB24) Clone() *RGB24 {
	c := &RGB24{
		Pix:    make([]uint8, len(p.Pix)),
		Stride: p.Stride,
		Rect:   p.Rect,
	}
	copy(c.Pix, p.Pix)
	return c
}

var _ image.Image = (*RGB24)(nil)
