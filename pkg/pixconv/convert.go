package pixconv

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// ToRGB24 converts src into a width x height RGB24 image.
//
// When the source already has the requested size the conversion is a pure
// pixel-format transform (YCbCr, palette, gray, RGBA). Otherwise the source is
// resampled with Catmull-Rom (bicubic) filtering first. Alpha is discarded.
func ToRGB24(src image.Image, width, height int) *RGB24 {
	dst := NewRGB24(image.Rect(0, 0, width, height))
	if width <= 0 || height <= 0 || src == nil {
		return dst
	}

	b := src.Bounds()
	if b.Dx() != width || b.Dy() != height {
		scaled := image.NewRGBA(image.Rect(0, 0, width, height))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)
		src = scaled
		b = scaled.Bounds()
	}

	switch s := src.(type) {
	case *RGB24:
		for y := 0; y < height; y++ {
			so := s.PixOffset(b.Min.X, b.Min.Y+y)
			copy(dst.Pix[y*dst.Stride:(y+1)*dst.Stride], s.Pix[so:so+dst.Stride])
		}
	case *image.YCbCr:
		fromYCbCr(dst, s)
	case *image.RGBA:
		fromRGBA(dst, s.Pix, s.Stride, s.PixOffset(b.Min.X, b.Min.Y))
	case *image.NRGBA:
		fromRGBA(dst, s.Pix, s.Stride, s.PixOffset(b.Min.X, b.Min.Y))
	case *image.Gray:
		for y := 0; y < height; y++ {
			row := s.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < width; x++ {
				v := s.Pix[row+x]
				i := y*dst.Stride + x*BytesPerPixel
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = v, v, v
			}
		}
	case *image.Paletted:
		lut := make([][3]uint8, len(s.Palette))
		for i, c := range s.Palette {
			r, g, bb, _ := c.RGBA()
			lut[i] = [3]uint8{uint8(r >> 8), uint8(g >> 8), uint8(bb >> 8)}
		}
		for y := 0; y < height; y++ {
			row := s.PixOffset(b.Min.X, b.Min.Y+y)
			for x := 0; x < width; x++ {
				idx := int(s.Pix[row+x])
				if idx >= len(lut) {
					continue
				}
				i := y*dst.Stride + x*BytesPerPixel
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = lut[idx][0], lut[idx][1], lut[idx][2]
			}
		}
	default:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				r, g, bb, _ := src.At(b.Min.X+x, b.Min.Y+y).RGBA()
				i := y*dst.Stride + x*BytesPerPixel
				dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = uint8(r>>8), uint8(g>>8), uint8(bb>>8)
			}
		}
	}

	return dst
}

// fromRGBA copies the colour channels of a 4-byte-per-pixel buffer.
// Premultiplied and straight alpha are treated alike since alpha is dropped.
func fromRGBA(dst *RGB24, pix []uint8, stride, origin int) {
	w, h := dst.Width(), dst.Height()
	for y := 0; y < h; y++ {
		so := origin + y*stride
		do := y * dst.Stride
		for x := 0; x < w; x++ {
			dst.Pix[do] = pix[so]
			dst.Pix[do+1] = pix[so+1]
			dst.Pix[do+2] = pix[so+2]
			so += 4
			do += BytesPerPixel
		}
	}
}

func fromYCbCr(dst *RGB24, s *image.YCbCr) {
	w, h := dst.Width(), dst.Height()
	b := s.Rect
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			yi := s.YOffset(b.Min.X+x, b.Min.Y+y)
			ci := s.COffset(b.Min.X+x, b.Min.Y+y)
			r, g, bb := color.YCbCrToRGB(s.Y[yi], s.Cb[ci], s.Cr[ci])
			i := y*dst.Stride + x*BytesPerPixel
			dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2] = r, g, bb
		}
	}
}
