package summarizer

import (
	"errors"
	"fmt"

	"github.com/user/echoview/pkg/framedecode"
	"github.com/user/echoview/pkg/ports"
)

// Probe opens path and fills the file, stream and playback sections of b.
// Failing to open the file is returned as an error; a file that opens but
// cannot be played is reported in the summary.
func Probe(b *Builder, opener ports.MediaOpener, registry ports.CodecRegistry, path string) error {
	c, err := opener.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer c.Close()

	for _, s := range c.Streams() {
		b.WithStream(StreamInfo{
			Index:      s.Index,
			Type:       s.MediaType.String(),
			Codec:      s.Codec.CodecID,
			Width:      s.Codec.Width,
			Height:     s.Codec.Height,
			FrameCount: s.FrameCount,
			FrameRate:  s.FrameRate,
			Duration:   s.Duration,
			TimeScale:  s.TimeScale,
		})
	}

	playback := b.summary.Playback
	index, err := framedecode.SelectVideoStream(c)
	switch {
	case errors.Is(err, framedecode.ErrStreamNotFound):
		playback.VideoStream = -1
		playback.Reason = "no video stream"
	default:
		playback.VideoStream = index
		var codec string
		for _, s := range c.Streams() {
			if s.Index == index {
				codec = s.Codec.CodecID
			}
		}
		if _, ok := registry.FindDecoder(codec); ok {
			playback.Playable = true
		} else {
			playback.Reason = fmt.Sprintf("no decoder for %s", codec)
		}
	}
	b.WithPlayback(playback)
	return nil
}
