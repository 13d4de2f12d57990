// Package memtexture keeps uploaded frames in memory instead of on a GPU.
// The headless export path resolves handles through it.
package memtexture

import (
	"errors"
	"sync"

	"github.com/user/echoview/pkg/pixconv"
	"github.com/user/echoview/pkg/ports"
)

// ErrEmptyFrame is returned when uploading a nil or zero-sized frame.
var ErrEmptyFrame = errors.New("memtexture: empty frame")

// Store implements ports.TextureUploader.
type Store struct {
	mu       sync.Mutex
	next     ports.TextureHandle
	textures map[ports.TextureHandle]*pixconv.RGB24
}

// New creates an empty store.
func New() *Store {
	return &Store{textures: make(map[ports.TextureHandle]*pixconv.RGB24)}
}

// Upload copies the frame into a new texture.
func (s *Store) Upload(frame *pixconv.RGB24) (ports.TextureHandle, error) {
	if frame == nil || frame.Width() == 0 || frame.Height() == 0 {
		return 0, ErrEmptyFrame
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.textures[s.next] = frame.Clone()
	return s.next, nil
}

// Release frees a texture. Unknown handles are ignored.
func (s *Store) Release(handle ports.TextureHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.textures, handle)
}

// Get returns the pixels of a live texture.
func (s *Store) Get(handle ports.TextureHandle) (*pixconv.RGB24, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tex, ok := s.textures[handle]
	return tex, ok
}

// Live returns the number of textures not yet released.
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.textures)
}

var _ ports.TextureUploader = (*Store)(nil)
