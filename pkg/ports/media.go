// Package ports defines interfaces for external dependencies.
package ports

import (
	"errors"
	"image"
	"time"
)

// ErrAgain is returned by CodecContext.ReceiveFrame when the decoder needs
// more input before it can produce another frame.
var ErrAgain = errors.New("ports: decoder needs more input")

// MediaType classifies an elementary stream.
type MediaType int

const (
	MediaUnknown MediaType = iota
	MediaVideo
	MediaAudio
	MediaData
)

// String returns the string representation of the media type.
func (m MediaType) String() string {
	switch m {
	case MediaVideo:
		return "video"
	case MediaAudio:
		return "audio"
	case MediaData:
		return "data"
	default:
		return "unknown"
	}
}

// CodecParameters describes how the packets of a stream are encoded.
type CodecParameters struct {
	CodecID string // e.g. "h264", "av1", "mjpeg"
	Width   int
	Height  int

	// Extradata carries out-of-band configuration: SPS/PPS NAL units for
	// H.264, config OBUs for AV1.
	Extradata [][]byte
}

// StreamInfo contains the metadata of one stream in a container.
type StreamInfo struct {
	Index      int
	MediaType  MediaType
	Codec      CodecParameters
	TimeScale  uint32
	Duration   time.Duration
	FrameRate  float64 // nominal frames per second
	FrameCount int64
}

// Packet is one compressed unit read from a container.
type Packet struct {
	StreamIndex int
	Data        []byte
	DecodeTime  uint64 // in stream timescale units
	Keyframe    bool

	release func()
}

// NewPacket creates a packet whose Release calls release.
func NewPacket(streamIndex int, data []byte, decodeTime uint64, keyframe bool, release func()) Packet {
	return Packet{
		StreamIndex: streamIndex,
		Data:        data,
		DecodeTime:  decodeTime,
		Keyframe:    keyframe,
		release:     release,
	}
}

// Release returns the packet's buffer to its owner.
// Data must not be used afterwards. Releasing twice is a no-op.
func (p *Packet) Release() {
	if p.release != nil {
		p.release()
		p.release = nil
	}
	p.Data = nil
}

// Container is an opened media file.
type Container interface {
	// Streams returns the metadata of every stream in the container.
	Streams() []StreamInfo

	// ReadPacket returns the next packet in file order, or io.EOF.
	ReadPacket() (Packet, error)

	// Close releases the underlying file.
	Close() error
}

// MediaOpener opens containers by path.
type MediaOpener interface {
	Open(path string) (Container, error)
}

// Codec creates decoding contexts for one codec.
type Codec interface {
	// Name returns a human-readable codec/backend name.
	Name() string

	// Open creates a decoding context bound to the stream's parameters.
	Open(params CodecParameters) (CodecContext, error)
}

// CodecContext is a stateful decoder instance.
//
// The protocol follows send/receive: each SendPacket may be followed by any
// number of ReceiveFrame calls until ErrAgain is returned. After Flush,
// ReceiveFrame returns the remaining frames and then io.EOF.
type CodecContext interface {
	SendPacket(pkt Packet) error
	ReceiveFrame() (image.Image, error)
	Flush() error
	Close()
}

// CodecRegistry looks up codecs by codec ID.
type CodecRegistry interface {
	FindDecoder(codecID string) (Codec, bool)
}
