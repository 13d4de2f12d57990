package av1encoder

import "github.com/user/echoview/pkg/pixconv"

// rgbToI420 converts packed RGB24 to BT.601 limited-range 4:2:0 planes. Each
// chroma sample is taken from the top-left pixel of its 2x2 block.
func rgbToI420(src *pixconv.RGB24) (y, u, v []uint8) {
	w, h := src.Width(), src.Height()
	cw, ch := (w+1)/2, (h+1)/2
	y = make([]uint8, w*h)
	u = make([]uint8, cw*ch)
	v = make([]uint8, cw*ch)

	for row := 0; row < h; row++ {
		line := src.Pix[row*src.Stride:]
		for col := 0; col < w; col++ {
			r := int(line[col*3])
			g := int(line[col*3+1])
			b := int(line[col*3+2])

			y[row*w+col] = clamp(((66*r + 129*g + 25*b + 128) >> 8) + 16)
			if row%2 == 0 && col%2 == 0 {
				ci := (row/2)*cw + col/2
				u[ci] = clamp(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
				v[ci] = clamp(((112*r - 94*g - 18*b + 128) >> 8) + 128)
			}
		}
	}
	return y, u, v
}

func clamp(x int) uint8 {
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	}
	return uint8(x)
}
