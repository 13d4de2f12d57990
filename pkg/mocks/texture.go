package mocks

import (
	"errors"
	"sync"

	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

// TextureUploader is a mock implementation of ports.TextureUploader.
// It hands out increasing handles and tracks which are live.
type TextureUploader struct {
	mu sync.Mutex

	UploadErr error

	next     ports.TextureHandle
	live     map[ports.TextureHandle]*pixconv.RGB24
	MaxLive  int
	Uploads  int
	Releases []ports.TextureHandle
	BadFrees int // releases of unknown or already released handles
}

// NewTextureUploader creates a new mock TextureUploader.
func NewTextureUploader() *TextureUploader {
	return &TextureUploader{live: make(map[ports.TextureHandle]*pixconv.RGB24)}
}

func (m *TextureUploader) Upload(frame *pixconv.RGB24) (ports.TextureHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return 0, m.UploadErr
	}
	if frame == nil {
		return 0, errors.New("mock: nil frame")
	}
	m.next++
	m.Uploads++
	m.live[m.next] = frame
	if len(m.live) > m.MaxLive {
		m.MaxLive = len(m.live)
	}
	return m.next, nil
}

func (m *TextureUploader) Release(handle ports.TextureHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.live[handle]; !ok {
		m.BadFrees++
		return
	}
	delete(m.live, handle)
	m.Releases = append(m.Releases, handle)
}

// Live returns the number of textures not yet released.
func (m *TextureUploader) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

// Frame returns the frame uploaded under handle.
func (m *TextureUploader) Frame(handle ports.TextureHandle) (*pixconv.RGB24, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.live[handle]
	return f, ok
}

var _ ports.TextureUploader = (*TextureUploader)(nil)

// Panel is a mock implementation of ports.Panel.
type Panel struct {
	Width, Height int

	Shown  []ports.TextureHandle
	Clears int
	LastW  int
	LastH  int
}

func (m *Panel) Size() (int, int) {
	return m.Width, m.Height
}

func (m *Panel) Show(handle ports.TextureHandle, width, height int) {
	m.Shown = append(m.Shown, handle)
	m.LastW, m.LastH = width, height
}

func (m *Panel) Clear() {
	m.Clears++
}

var _ ports.Panel = (*Panel)(nil)
