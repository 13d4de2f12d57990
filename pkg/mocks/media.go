package mocks

import (
	"errors"
	"image"
	"io"
	"sync"

	"github.com/user/echoview/pkg/ports"
)

// Container is a mock implementation of ports.Container.
// It hands out Packets in order and records reads, releases and closes.
type Container struct {
	mu sync.Mutex

	StreamList []ports.StreamInfo
	Packets    []ports.Packet
	ReadErr    error // returned instead of io.EOF once Packets are exhausted

	next       int
	ReadCalls  int
	Released   int
	CloseCalls int
}

// NewVideoContainer creates a container with one video stream (index 0)
// carrying frames packets, interleaved with audioEvery audio packets on
// stream 1 when audioEvery > 0.
func NewVideoContainer(frames, audioEvery int) *Container {
	c := &Container{
		StreamList: []ports.StreamInfo{
			{
				Index:      0,
				MediaType:  ports.MediaVideo,
				Codec:      ports.CodecParameters{CodecID: "mock", Width: 4, Height: 2},
				FrameRate:  30,
				FrameCount: int64(frames),
			},
		},
	}
	if audioEvery > 0 {
		c.StreamList = append(c.StreamList, ports.StreamInfo{
			Index:     1,
			MediaType: ports.MediaAudio,
			Codec:     ports.CodecParameters{CodecID: "aac"},
		})
	}
	for i := 0; i < frames; i++ {
		if audioEvery > 0 && i%audioEvery == 0 {
			c.Packets = append(c.Packets, ports.Packet{StreamIndex: 1, Data: []byte{0xAA}})
		}
		c.Packets = append(c.Packets, ports.Packet{StreamIndex: 0, Data: []byte{byte(i)}, Keyframe: i == 0})
	}
	return c
}

func (m *Container) Streams() []ports.StreamInfo {
	return m.StreamList
}

func (m *Container) ReadPacket() (ports.Packet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadCalls++
	if m.next >= len(m.Packets) {
		if m.ReadErr != nil {
			return ports.Packet{}, m.ReadErr
		}
		return ports.Packet{}, io.EOF
	}
	p := m.Packets[m.next]
	m.next++
	return ports.NewPacket(p.StreamIndex, p.Data, p.DecodeTime, p.Keyframe, m.release), nil
}

func (m *Container) release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Released++
}

func (m *Container) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalls++
	return nil
}

// Handed returns how many packets were handed out.
func (m *Container) Handed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next
}

var _ ports.Container = (*Container)(nil)

// MediaOpener is a mock implementation of ports.MediaOpener.
type MediaOpener struct {
	OpenFunc  func(path string) (ports.Container, error)
	OpenCalls []string
}

func (m *MediaOpener) Open(path string) (ports.Container, error) {
	m.OpenCalls = append(m.OpenCalls, path)
	if m.OpenFunc != nil {
		return m.OpenFunc(path)
	}
	return nil, errors.New("mock: no container")
}

var _ ports.MediaOpener = (*MediaOpener)(nil)

// Codec is a mock implementation of ports.Codec.
//
// Each packet produces one frame, delayed by Latency packets; the delayed
// frames come out on Flush. The frame for packet i is a solid image whose
// red channel is i.
type Codec struct {
	Latency    int
	FailOnSend int // 1-based packet number to reject, 0 for never
	OpenErr    error
	FrameSize  image.Point

	Contexts []*CodecContext
}

func (m *Codec) Name() string { return "mock" }

func (m *Codec) Open(params ports.CodecParameters) (ports.CodecContext, error) {
	if m.OpenErr != nil {
		return nil, m.OpenErr
	}
	size := m.FrameSize
	if size == (image.Point{}) {
		size = image.Pt(params.Width, params.Height)
	}
	cc := &CodecContext{codec: m, size: size}
	m.Contexts = append(m.Contexts, cc)
	return cc, nil
}

var _ ports.Codec = (*Codec)(nil)

// CodecContext is the context created by Codec.
type CodecContext struct {
	codec   *Codec
	size    image.Point
	pending []image.Image
	ready   []image.Image
	flushed bool

	Sent   int
	Closed bool
}

func (m *CodecContext) SendPacket(pkt ports.Packet) error {
	m.Sent++
	if m.codec.FailOnSend > 0 && m.Sent == m.codec.FailOnSend {
		return errors.New("mock: invalid data")
	}
	img := image.NewRGBA(image.Rect(0, 0, m.size.X, m.size.Y))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = byte(m.Sent - 1)
		img.Pix[i+3] = 0xff
	}
	m.pending = append(m.pending, img)
	if len(m.pending) > m.codec.Latency {
		m.ready = append(m.ready, m.pending[0])
		m.pending = m.pending[1:]
	}
	return nil
}

func (m *CodecContext) ReceiveFrame() (image.Image, error) {
	if len(m.ready) > 0 {
		img := m.ready[0]
		m.ready = m.ready[1:]
		return img, nil
	}
	if m.flushed {
		return nil, io.EOF
	}
	return nil, ports.ErrAgain
}

func (m *CodecContext) Flush() error {
	m.flushed = true
	m.ready = append(m.ready, m.pending...)
	m.pending = nil
	return nil
}

func (m *CodecContext) Close() {
	m.Closed = true
}

var _ ports.CodecContext = (*CodecContext)(nil)

// CodecRegistry is a mock implementation of ports.CodecRegistry.
type CodecRegistry struct {
	Codecs map[string]ports.Codec
}

func (m *CodecRegistry) FindDecoder(codecID string) (ports.Codec, bool) {
	c, ok := m.Codecs[codecID]
	return c, ok
}

var _ ports.CodecRegistry = (*CodecRegistry)(nil)
