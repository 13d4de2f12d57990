package ports

import "image"

// EncoderOptions contains video encoding options.
type EncoderOptions struct {
	// Quality is an x264 CRF value (0-51, lower is better). 0 uses the
	// encoder's default.
	Quality int
}

// VideoEncoder writes a sequence of equally sized images to a video file.
type VideoEncoder interface {
	// Begin starts encoding to path.
	Begin(path string, width, height int, fps float64, opts EncoderOptions) error

	// EncodeFrame appends one frame. Images of another size are scaled.
	EncodeFrame(img image.Image) error

	// End finishes the file. It must be called once for every Begin.
	End() error
}
