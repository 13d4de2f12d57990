// Package av1encoder writes AV1 MP4 files with libaom.
package av1encoder

/*
#cgo !windows pkg-config: aom
#cgo windows CFLAGS: -IC:/vcpkg/installed/x64-windows-static/include
#cgo windows LDFLAGS: -LC:/vcpkg/installed/x64-windows-static/lib -laom -static -lpthread
#include <aom/aom_encoder.h>
#include <aom/aomcx.h>
#include <stdlib.h>
#include <string.h>

static aom_codec_iface_t* get_av1_interface() {
    return aom_codec_av1_cx();
}

// Wrapper for aom_codec_enc_init
static aom_codec_err_t init_encoder(aom_codec_ctx_t *ctx, aom_codec_iface_t *iface,
                                     aom_codec_enc_cfg_t *cfg, aom_codec_flags_t flags) {
    return aom_codec_enc_init_ver(ctx, iface, cfg, flags, AOM_ENCODER_ABI_VERSION);
}

static int is_frame_packet(const aom_codec_cx_pkt_t *pkt) {
    return pkt->kind == AOM_CODEC_CX_FRAME_PKT;
}

static void* get_frame_buf(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.buf;
}

static size_t get_frame_sz(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.sz;
}

static int is_keyframe(const aom_codec_cx_pkt_t *pkt) {
    return (pkt->data.frame.flags & AOM_FRAME_IS_KEY) != 0;
}

static aom_codec_pts_t get_frame_pts(const aom_codec_cx_pkt_t *pkt) {
    return pkt->data.frame.pts;
}

static unsigned char* get_plane(aom_image_t *img, int plane) {
    return img->planes[plane];
}

static int get_plane_stride(aom_image_t *img, int plane) {
    return img->stride[plane];
}

// Wrapper for aom_codec_control (it's a variadic macro)
static aom_codec_err_t set_cpu_used(aom_codec_ctx_t *ctx, int value) {
    return aom_codec_control(ctx, AOME_SET_CPUUSED, value);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"unsafe"

	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

var (
	// ErrNotInitialized is returned when EncodeFrame or End is called without Begin.
	ErrNotInitialized = errors.New("av1encoder: encoder not initialized")

	// ErrInvalidSize is returned for non-positive dimensions or frame rates.
	ErrInvalidSize = errors.New("av1encoder: invalid frame size or rate")

	// ErrNoFrames is returned by End when no frame was encoded.
	ErrNoFrames = errors.New("av1encoder: no frames encoded")
)

// ticksPerFrame is the sample duration in timescale units.
const ticksPerFrame = 1000

// Encoder implements ports.VideoEncoder with libaom.
type Encoder struct {
	fs ports.FileSystem

	mu       sync.Mutex
	codec    *C.aom_codec_ctx_t
	cfg      *C.aom_codec_enc_cfg_t
	rawFrame *C.aom_image_t

	path      string
	width     int
	height    int
	timescale uint32

	frames     []encodedFrame
	frameCount int
}

type encodedFrame struct {
	data       []byte
	pts        int64
	isKeyframe bool
}

// New creates an AV1 encoder that writes its output through fs.
func New(fs ports.FileSystem) *Encoder {
	return &Encoder{fs: fs}
}

// Begin initializes libaom for frames of width x height at fps.
func (e *Encoder) Begin(path string, width, height int, fps float64, opts ports.EncoderOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if width <= 0 || height <= 0 || fps <= 0 {
		return fmt.Errorf("%w: %dx%d at %v fps", ErrInvalidSize, width, height, fps)
	}
	if e.codec != nil {
		e.cleanup()
	}

	e.path = path
	e.width = width
	e.height = height
	e.timescale = uint32(fps*ticksPerFrame + 0.5)
	e.frames = nil
	e.frameCount = 0

	e.codec = (*C.aom_codec_ctx_t)(C.malloc(C.sizeof_aom_codec_ctx_t))
	if e.codec == nil {
		return fmt.Errorf("failed to allocate codec context")
	}
	C.memset(unsafe.Pointer(e.codec), 0, C.sizeof_aom_codec_ctx_t)

	e.cfg = (*C.aom_codec_enc_cfg_t)(C.malloc(C.sizeof_aom_codec_enc_cfg_t))
	if e.cfg == nil {
		C.free(unsafe.Pointer(e.codec))
		e.codec = nil
		return fmt.Errorf("failed to allocate encoder config")
	}

	iface := C.get_av1_interface()
	if res := C.aom_codec_enc_config_default(iface, e.cfg, C.AOM_USAGE_REALTIME); res != C.AOM_CODEC_OK {
		e.freeConfig()
		return fmt.Errorf("failed to get default config: %d", res)
	}

	e.cfg.g_w = C.uint(width)
	e.cfg.g_h = C.uint(height)
	e.cfg.g_timebase.num = 1
	e.cfg.g_timebase.den = C.int(e.timescale)
	e.cfg.g_error_resilient = 0
	e.cfg.g_threads = 4
	e.cfg.g_usage = C.AOM_USAGE_REALTIME
	e.cfg.g_lag_in_frames = 0
	e.cfg.rc_target_bitrate = C.uint(width * height / 1000)

	// Quality is a CRF on x264's 0-51 scale; libaom quantizers run 0-63.
	e.cfg.rc_end_usage = C.AOM_Q
	if opts.Quality > 0 && opts.Quality <= 51 {
		q := C.uint(opts.Quality * 63 / 51)
		e.cfg.rc_min_quantizer = q
		e.cfg.rc_max_quantizer = q
	}

	if res := C.init_encoder(e.codec, iface, e.cfg, 0); res != C.AOM_CODEC_OK {
		e.freeConfig()
		return fmt.Errorf("failed to initialize encoder: %d", res)
	}
	C.set_cpu_used(e.codec, 8)

	e.rawFrame = (*C.aom_image_t)(C.malloc(C.sizeof_aom_image_t))
	if e.rawFrame == nil {
		e.cleanup()
		return fmt.Errorf("failed to allocate raw frame")
	}
	if C.aom_img_alloc(e.rawFrame, C.AOM_IMG_FMT_I420, C.uint(width), C.uint(height), 32) == nil {
		C.free(unsafe.Pointer(e.rawFrame))
		e.rawFrame = nil
		e.cleanup()
		return fmt.Errorf("failed to allocate image buffer")
	}

	return nil
}

// EncodeFrame scales img to the encoder size and encodes it.
func (e *Encoder) EncodeFrame(img image.Image) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec == nil {
		return ErrNotInitialized
	}

	e.fillI420(pixconv.ToRGB24(img, e.width, e.height))

	pts := C.aom_codec_pts_t(e.frameCount * ticksPerFrame)
	flags := C.aom_enc_frame_flags_t(0)
	if e.frameCount == 0 {
		flags = C.AOM_EFLAG_FORCE_KF
	}

	if res := C.aom_codec_encode(e.codec, e.rawFrame, pts, ticksPerFrame, flags); res != C.AOM_CODEC_OK {
		return fmt.Errorf("encoding frame %d failed: %d", e.frameCount, res)
	}
	e.drain()
	e.frameCount++
	return nil
}

// End flushes libaom and writes the MP4 file.
func (e *Encoder) End() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.codec == nil {
		return ErrNotInitialized
	}
	defer e.cleanup()

	if res := C.aom_codec_encode(e.codec, nil, 0, ticksPerFrame, 0); res != C.AOM_CODEC_OK {
		return fmt.Errorf("flush failed: %d", res)
	}
	e.drain()

	if len(e.frames) == 0 {
		return ErrNoFrames
	}

	data, err := buildMP4(e.frames, e.width, e.height, e.timescale)
	if err != nil {
		return fmt.Errorf("build mp4: %w", err)
	}
	return e.fs.WriteFile(e.path, data)
}

// drain collects every packet libaom has ready.
func (e *Encoder) drain() {
	var iter C.aom_codec_iter_t
	for {
		pkt := C.aom_codec_get_cx_data(e.codec, &iter)
		if pkt == nil {
			return
		}
		if C.is_frame_packet(pkt) == 0 {
			continue
		}
		e.frames = append(e.frames, encodedFrame{
			data:       C.GoBytes(C.get_frame_buf(pkt), C.int(C.get_frame_sz(pkt))),
			pts:        int64(C.get_frame_pts(pkt)),
			isKeyframe: C.is_keyframe(pkt) != 0,
		})
	}
}

func (e *Encoder) freeConfig() {
	C.free(unsafe.Pointer(e.codec))
	e.codec = nil
	C.free(unsafe.Pointer(e.cfg))
	e.cfg = nil
}

func (e *Encoder) cleanup() {
	if e.rawFrame != nil {
		C.aom_img_free(e.rawFrame)
		C.free(unsafe.Pointer(e.rawFrame))
		e.rawFrame = nil
	}
	if e.codec != nil {
		C.aom_codec_destroy(e.codec)
		C.free(unsafe.Pointer(e.codec))
		e.codec = nil
	}
	if e.cfg != nil {
		C.free(unsafe.Pointer(e.cfg))
		e.cfg = nil
	}
}

// fillI420 converts an RGB24 frame into the raw frame's planes.
func (e *Encoder) fillI420(src *pixconv.RGB24) {
	y, u, v := rgbToI420(src)
	cw, ch := (e.width+1)/2, (e.height+1)/2
	copyPlane(e.rawFrame, 0, y, e.width, e.height)
	copyPlane(e.rawFrame, 1, u, cw, ch)
	copyPlane(e.rawFrame, 2, v, cw, ch)
}

func copyPlane(img *C.aom_image_t, plane int, src []uint8, width, height int) {
	stride := int(C.get_plane_stride(img, C.int(plane)))
	dst := unsafe.Slice((*uint8)(unsafe.Pointer(C.get_plane(img, C.int(plane)))), stride*height)
	for row := 0; row < height; row++ {
		copy(dst[row*stride:row*stride+width], src[row*width:(row+1)*width])
	}
}

var _ ports.VideoEncoder = (*Encoder)(nil)
