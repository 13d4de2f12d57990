package mocks

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/Eyevinn/mp4ff/aac"
	"github.com/Eyevinn/mp4ff/mp4"
)

// MJPEGClip describes a fragmented MP4 test clip whose video samples are
// JPEG images.
type MJPEGClip struct {
	Width, Height int
	Frames        int
	FPS           int
	// WithAudio interleaves an AAC track with one sample per video frame.
	WithAudio bool
	// OmitVideo leaves out the video track.
	OmitVideo bool
}

// ClipFrame returns the image for frame i of a clip: a solid colour whose
// red channel encodes i.
func ClipFrame(i, width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	c := color.RGBA{R: uint8(i * 16), G: 0x40, B: 0x80, A: 0xff}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// Build encodes the clip to MP4 bytes.
func (c MJPEGClip) Build() ([]byte, error) {
	fps := c.FPS
	if fps <= 0 {
		fps = 30
	}
	timescale := uint32(fps * 1000)
	sampleDur := timescale / uint32(fps)

	init := mp4.CreateEmptyInit()
	var videoID, audioID uint32
	nextID := uint32(1)

	if !c.OmitVideo {
		init.AddEmptyTrack(timescale, "video", "und")
		trak := init.Moov.Traks[len(init.Moov.Traks)-1]
		entry := mp4.CreateVisualSampleEntryBox("jpeg", uint16(c.Width), uint16(c.Height), &mp4.PaspBox{HSpacing: 1, VSpacing: 1})
		trak.Mdia.Minf.Stbl.Stsd.AddChild(entry)
		trak.Tkhd.Width = mp4.Fixed32(c.Width << 16)
		trak.Tkhd.Height = mp4.Fixed32(c.Height << 16)
		videoID = nextID
		nextID++
	}
	if c.WithAudio || c.OmitVideo {
		init.AddEmptyTrack(48000, "audio", "und")
		trak := init.Moov.Traks[len(init.Moov.Traks)-1]
		if err := trak.SetAACDescriptor(aac.AAClc, 48000); err != nil {
			return nil, fmt.Errorf("set aac descriptor: %w", err)
		}
		audioID = nextID
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}

	seq := uint32(1)
	for i := 0; i < c.Frames; i++ {
		if audioID != 0 {
			if err := writeFragment(&buf, seq, audioID, []byte{0x21, 0x10, 0x04}, uint64(i)*1024, 1024); err != nil {
				return nil, err
			}
			seq++
		}
		if videoID == 0 {
			continue
		}

		var jpg bytes.Buffer
		if err := jpeg.Encode(&jpg, ClipFrame(i, c.Width, c.Height), &jpeg.Options{Quality: 95}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		if err := writeFragment(&buf, seq, videoID, jpg.Bytes(), uint64(i)*uint64(sampleDur), sampleDur); err != nil {
			return nil, err
		}
		seq++
	}

	return buf.Bytes(), nil
}

// WriteFile builds the clip and writes it to path.
func (c MJPEGClip) WriteFile(path string) error {
	data, err := c.Build()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func writeFragment(buf *bytes.Buffer, seq, trackID uint32, data []byte, decodeTime uint64, dur uint32) error {
	frag, err := mp4.CreateFragment(seq, trackID)
	if err != nil {
		return fmt.Errorf("create fragment: %w", err)
	}
	frag.AddFullSample(mp4.FullSample{
		Sample: mp4.Sample{
			Flags: mp4.SyncSampleFlags,
			Size:  uint32(len(data)),
			Dur:   dur,
		},
		DecodeTime: decodeTime,
		Data:       data,
	})
	if err := frag.Encode(buf); err != nil {
		return fmt.Errorf("encode fragment: %w", err)
	}
	return nil
}
