// Package av1decoder provides an AV1 video decoder using libaom.
package av1decoder

/*
#cgo pkg-config: aom
#include <aom/aom_decoder.h>
#include <aom/aomdx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_decoder_interface() {
    return aom_codec_av1_dx();
}

// Wrapper for aom_codec_dec_init
static aom_codec_err_t init_decoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface) {
    return aom_codec_dec_init(ctx, iface, NULL, 0);
}

// Passing NULL data signals end of stream.
static aom_codec_err_t flush_decoder(aom_codec_ctx_t *ctx) {
    return aom_codec_decode(ctx, NULL, 0, NULL);
}

// Get image plane data
static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

static unsigned int get_width(aom_image_t *img) {
    return img->d_w;
}

static unsigned int get_height(aom_image_t *img) {
    return img->d_h;
}

static int is_i420(aom_image_t *img) {
    return img->fmt == AOM_IMG_FMT_I420;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"io"
	"unsafe"

	"github.com/user/echoview/pkg/ports"
)

var (
	// ErrUnsupportedFormat is returned for frames that are not 8-bit 4:2:0.
	ErrUnsupportedFormat = errors.New("av1decoder: unsupported pixel format")

	// ErrClosed is returned when the decoder is used after Flush or Close.
	ErrClosed = errors.New("av1decoder: decoder closed")
)

// Codec implements ports.Codec for AV1.
type Codec struct{}

// New creates a new AV1 codec.
func New() *Codec {
	return &Codec{}
}

// Name returns the codec name.
func (c *Codec) Name() string { return "av1 (libaom)" }

// Open initializes a libaom decoder instance. AV1 sample entries carry the
// sequence header in band, so params are not needed.
func (c *Codec) Open(params ports.CodecParameters) (ports.CodecContext, error) {
	d := &Decoder{}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// Decoder is one libaom decoding context.
type Decoder struct {
	codec   *C.aom_codec_ctx_t
	frames  []image.Image
	flushed bool
}

func (d *Decoder) init() error {
	d.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if d.codec == nil {
		return fmt.Errorf("failed to allocate decoder context")
	}
	C.memset(unsafe.Pointer(d.codec), 0, C.sizeof_aom_codec_ctx_t)

	iface := C.get_av1_decoder_interface()
	if res := C.init_decoder(d.codec, iface); res != C.AOM_CODEC_OK {
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
		return fmt.Errorf("failed to initialize decoder: %d", res)
	}

	return nil
}

// SendPacket decodes one temporal unit and queues every frame it produced.
func (d *Decoder) SendPacket(pkt ports.Packet) error {
	if d.codec == nil || d.flushed {
		return ErrClosed
	}
	if len(pkt.Data) == 0 {
		return fmt.Errorf("empty frame data")
	}

	res := C.aom_codec_decode(
		d.codec,
		(*C.uint8_t)(unsafe.Pointer(&pkt.Data[0])),
		C.size_t(len(pkt.Data)),
		nil,
	)
	if res != C.AOM_CODEC_OK {
		return fmt.Errorf("decode failed: %d", res)
	}

	return d.collect()
}

// ReceiveFrame returns queued frames as *image.YCbCr.
func (d *Decoder) ReceiveFrame() (image.Image, error) {
	if len(d.frames) > 0 {
		img := d.frames[0]
		d.frames = d.frames[1:]
		return img, nil
	}
	if d.flushed {
		return nil, io.EOF
	}
	return nil, ports.ErrAgain
}

// Flush signals end of stream and queues any frames libaom still holds.
func (d *Decoder) Flush() error {
	if d.codec == nil {
		return ErrClosed
	}
	if d.flushed {
		return nil
	}
	d.flushed = true
	if res := C.flush_decoder(d.codec); res != C.AOM_CODEC_OK {
		return fmt.Errorf("flush failed: %d", res)
	}
	return d.collect()
}

// Close releases decoder resources. It is safe to call more than once.
func (d *Decoder) Close() {
	if d.codec != nil {
		C.aom_codec_destroy(d.codec)
		C.free(unsafe.Pointer(d.codec))
		d.codec = nil
	}
	d.frames = nil
}

func (d *Decoder) collect() error {
	var iter C.aom_codec_iter_t
	for {
		img := C.aom_codec_get_frame(d.codec, &iter)
		if img == nil {
			return nil
		}
		frame, err := copyFrame(img)
		if err != nil {
			return err
		}
		d.frames = append(d.frames, frame)
	}
}

// copyFrame copies an I420 libaom image into Go memory.
func copyFrame(img *C.aom_image_t) (*image.YCbCr, error) {
	if C.is_i420(img) == 0 {
		return nil, ErrUnsupportedFormat
	}

	width := int(C.get_width(img))
	height := int(C.get_height(img))
	dst := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio420)

	copyPlane(dst.Y, dst.YStride, C.get_plane(img, 0), int(C.get_stride(img, 0)), width, height)
	cw, ch := (width+1)/2, (height+1)/2
	copyPlane(dst.Cb, dst.CStride, C.get_plane(img, 1), int(C.get_stride(img, 1)), cw, ch)
	copyPlane(dst.Cr, dst.CStride, C.get_plane(img, 2), int(C.get_stride(img, 2)), cw, ch)

	return dst, nil
}

func copyPlane(dst []uint8, dstStride int, src *C.uchar, srcStride, width, height int) {
	plane := unsafe.Slice((*uint8)(unsafe.Pointer(src)), srcStride*(height-1)+width)
	for y := 0; y < height; y++ {
		copy(dst[y*dstStride:y*dstStride+width], plane[y*srcStride:y*srcStride+width])
	}
}

var (
	_ ports.Codec        = (*Codec)(nil)
	_ ports.CodecContext = (*Decoder)(nil)
)
