// Package codecregistry maps codec IDs to the decoders linked into this
// binary and reports which of them can run on the current machine.
package codecregistry

import (
	"sort"

	"github.com/user/echoview/pkg/adapters/av1decoder"
	"github.com/user/echoview/pkg/adapters/codecdetect"
	"github.com/user/echoview/pkg/adapters/h264decoder"
	"github.com/user/echoview/pkg/adapters/mjpegdecoder"
	"github.com/user/echoview/pkg/ports"
)

// Backend represents the decoding backend used for a codec.
type Backend string

const (
	// BackendFFmpeg represents an external ffmpeg process.
	BackendFFmpeg Backend = "ffmpeg"
	// BackendLibaom represents libaom linked through cgo.
	BackendLibaom Backend = "libaom"
	// BackendImage represents still-image decoding through the renderer.
	BackendImage Backend = "image"
)

// Info describes one registered decoder.
type Info struct {
	Codec     codecdetect.Codec
	Backend   Backend
	Name      string
	Available bool
}

// Options configures the registry.
type Options struct {
	// FFmpegPath is an optional custom path to the ffmpeg binary.
	FFmpegPath string
}

type entry struct {
	codec ports.Codec
	info  Info
}

// Registry implements ports.CodecRegistry.
type Registry struct {
	entries map[codecdetect.Codec]entry
}

// New creates a registry with every decoder this binary supports.
// H.264 is only registered as available when ffmpeg can be found.
func New(renderer ports.Renderer, opts Options) *Registry {
	r := &Registry{entries: make(map[codecdetect.Codec]entry)}

	h264 := h264decoder.New(opts.FFmpegPath)
	r.Register(codecdetect.CodecH264, BackendFFmpeg, h264, h264.Available())
	r.Register(codecdetect.CodecAV1, BackendLibaom, av1decoder.New(), true)
	r.Register(codecdetect.CodecMJPEG, BackendImage, mjpegdecoder.New(renderer), true)

	return r
}

// Register adds or replaces the decoder for a codec.
func (r *Registry) Register(id codecdetect.Codec, backend Backend, codec ports.Codec, available bool) {
	r.entries[id] = entry{
		codec: codec,
		info: Info{
			Codec:     id,
			Backend:   backend,
			Name:      codec.Name(),
			Available: available,
		},
	}
}

// FindDecoder returns the decoder for codecID if it is registered and usable.
func (r *Registry) FindDecoder(codecID string) (ports.Codec, bool) {
	e, ok := r.entries[codecdetect.Codec(codecID)]
	if !ok || !e.info.Available {
		return nil, false
	}
	return e.codec, true
}

// Decoders lists every registered decoder sorted by codec ID.
func (r *Registry) Decoders() []Info {
	infos := make([]Info, 0, len(r.entries))
	for _, e := range r.entries {
		infos = append(infos, e.info)
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Codec < infos[j].Codec
	})
	return infos
}

var _ ports.CodecRegistry = (*Registry)(nil)
