// Package gltexture uploads frames as OpenGL 2D textures.
//
// Every method must be called on the thread that owns the current GL
// context.
package gltexture

import (
	"errors"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

var (
	// ErrEmptyFrame is returned when uploading a nil or zero-sized frame.
	ErrEmptyFrame = errors.New("gltexture: empty frame")
	// ErrAllocate is returned when the driver hands out no texture name.
	ErrAllocate = errors.New("gltexture: texture allocation failed")
)

// Uploader implements ports.TextureUploader on the current GL context.
type Uploader struct{}

// New creates an uploader. gl.Init must already have run.
func New() *Uploader {
	return &Uploader{}
}

// Upload allocates a texture sized to the frame and fills it with the
// frame's RGB bytes.
func (u *Uploader) Upload(frame *pixconv.RGB24) (ports.TextureHandle, error) {
	if frame == nil || frame.Width() == 0 || frame.Height() == 0 {
		return 0, ErrEmptyFrame
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	if tex == 0 {
		return 0, ErrAllocate
	}
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)

	// Rows are tightly packed at 3 bytes per pixel.
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(frame.Stride/pixconv.BytesPerPixel))
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGB, int32(frame.Width()), int32(frame.Height()), 0,
		gl.RGB, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)

	gl.BindTexture(gl.TEXTURE_2D, 0)
	return ports.TextureHandle(tex), nil
}

// Release deletes the texture.
func (u *Uploader) Release(handle ports.TextureHandle) {
	if handle == 0 {
		return
	}
	tex := uint32(handle)
	gl.DeleteTextures(1, &tex)
}

var _ ports.TextureUploader = (*Uploader)(nil)
