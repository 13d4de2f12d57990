package ports

import "github.com/user/echoview/pkg/pixconv"

// TextureHandle identifies a GPU-visible image. Zero is never a valid handle.
type TextureHandle uint32

// TextureUploader moves decoded frames into GPU-visible images.
type TextureUploader interface {
	// Upload allocates a new texture sized to the frame and fills it.
	Upload(frame *pixconv.RGB24) (TextureHandle, error)

	// Release frees a texture returned by Upload.
	Release(handle TextureHandle)
}

// Panel is the UI surface the video is displayed in.
type Panel interface {
	// Size returns the panel's current drawable size in pixels.
	Size() (width, height int)

	// Show displays the texture stretched to width x height for this tick.
	Show(handle TextureHandle, width, height int)

	// Clear removes whatever is displayed.
	Clear()
}
