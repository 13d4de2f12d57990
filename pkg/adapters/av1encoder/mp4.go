package av1encoder

import (
	"bytes"
	"fmt"

	"github.com/Eyevinn/mp4ff/av1"
	"github.com/Eyevinn/mp4ff/mp4"
)

// obuSequenceHeader is the AV1 OBU type of a sequence header.
const obuSequenceHeader = 1

// buildMP4 muxes encoded frames into a single-fragment MP4 file.
func buildMP4(frames []encodedFrame, width, height int, timescale uint32) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "und")
	trak := init.Moov.Trak

	av01 := mp4.CreateVisualSampleEntryBox("av01", uint16(width), uint16(height), configRecord(frames))
	trak.Mdia.Minf.Stbl.Stsd.AddChild(av01)
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, trak.Tkhd.TrackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	for _, f := range frames {
		flags := mp4.NonSyncSampleFlags
		if f.isKeyframe {
			flags = mp4.SyncSampleFlags
		}
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(f.data)),
				Dur:   ticksPerFrame,
			},
			DecodeTime: uint64(f.pts),
			Data:       f.data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso6", "av01", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// configRecord builds the av1C box for 8-bit 4:2:0 main profile output,
// carrying the sequence header of the first keyframe.
func configRecord(frames []encodedFrame) *mp4.Av1CBox {
	var seqHdr []byte
	for _, f := range frames {
		if f.isKeyframe {
			if seqHdr = sequenceHeader(f.data); seqHdr != nil {
				break
			}
		}
	}

	return &mp4.Av1CBox{
		CodecConfRec: av1.CodecConfRec{
			Version:            1,
			SeqLevelIdx0:       8, // Level 4.0
			ChromaSubsamplingX: 1,
			ChromaSubsamplingY: 1,
			ConfigOBUs:         seqHdr,
		},
	}
}

// sequenceHeader returns the first sequence header OBU in a temporal unit,
// header bytes included, or nil.
func sequenceHeader(data []byte) []byte {
	offset := 0
	for offset < len(data) {
		start := offset
		header := data[offset]
		obuType := (header >> 3) & 0x0F
		hasExtension := header&0x04 != 0
		hasSize := header&0x02 != 0
		offset++
		if hasExtension {
			offset++
		}

		size := len(data) - offset
		if hasSize {
			var n int
			size, n = readLeb128(data[min(offset, len(data)):])
			if n == 0 {
				return nil
			}
			offset += n
		}

		end := offset + size
		if end > len(data) || size < 0 {
			return nil
		}
		if obuType == obuSequenceHeader {
			return data[start:end]
		}
		offset = end
	}
	return nil
}

// readLeb128 decodes an unsigned LEB128 value and returns it with the number
// of bytes read, which is 0 when data is truncated.
func readLeb128(data []byte) (int, int) {
	value := 0
	for i := 0; i < 8 && i < len(data); i++ {
		b := data[i]
		value |= int(b&0x7F) << (i * 7)
		if b&0x80 == 0 {
			return value, i + 1
		}
	}
	return 0, 0
}
