// Package mp4container opens MP4 (ISO-BMFF) files as packet containers.
//
// Progressive files are decoded with a lazy mdat and samples are read from
// the file on demand, in chunk offset order across all tracks. Fragmented
// files are decoded in full and samples are handed out fragment by fragment.
package mp4container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/echoview/pkg/adapters/codecdetect"
	"github.com/user/echoview/pkg/ports"
)

// ErrNoTracks is returned when a file has no moov box or no tracks.
var ErrNoTracks = errors.New("mp4container: no tracks")

// sample_is_non_sync_sample bit of the trun/trex sample flags.
const nonSyncSampleFlag = 0x00010000

// Opener opens MP4 files. It implements ports.MediaOpener.
type Opener struct {
	pool sync.Pool
}

// New creates a new Opener.
func New() *Opener {
	return &Opener{}
}

// Open parses path and returns a container positioned at its first sample.
func (o *Opener) Open(path string) (ports.Container, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}

	c, err := o.open(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return c, nil
}

func (o *Opener) open(f *os.File) (*Container, error) {
	mp4File, err := mp4.DecodeFile(f, mp4.WithDecodeMode(mp4.DecModeLazyMdat))
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	if mp4File.IsFragmented() {
		// Fragment sample data lives in each fragment's mdat, so decode it in full.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("seek: %w", err)
		}
		mp4File, err = mp4.DecodeFile(f)
		if err != nil {
			return nil, fmt.Errorf("decode mp4: %w", err)
		}
		return o.openFragmented(f, mp4File)
	}
	return o.openProgressive(f, mp4File)
}

// sampleRef locates one sample in a progressive file.
type sampleRef struct {
	stream     int
	offset     uint64
	size       uint32
	decodeTime uint64
	keyframe   bool
}

// Container is an opened MP4 file. It implements ports.Container.
type Container struct {
	file    *os.File
	pool    *sync.Pool
	streams []ports.StreamInfo

	// Exactly one of refs (progressive) and samples (fragmented) is set.
	refs    []sampleRef
	samples []ports.Packet
	next    int
	closed  bool
}

func (o *Opener) openProgressive(f *os.File, mp4File *mp4.File) (*Container, error) {
	if mp4File.Moov == nil || len(mp4File.Moov.Traks) == 0 {
		return nil, ErrNoTracks
	}

	c := &Container{file: f, pool: &o.pool}

	for i, trak := range mp4File.Moov.Traks {
		info := streamInfo(i, trak)

		stbl := sampleTable(trak)
		if stbl == nil || stbl.Stsz == nil {
			c.streams = append(c.streams, info)
			continue
		}

		count := stbl.Stsz.SampleNumber
		info.FrameCount = int64(count)
		var duration uint64
		if trak.Mdia.Mdhd != nil {
			duration = trak.Mdia.Mdhd.Duration
		}
		finishTiming(&info, duration, firstDuration(stbl))
		c.streams = append(c.streams, info)

		syncSamples := make(map[uint32]bool)
		if stbl.Stss != nil {
			for _, nr := range stbl.Stss.SampleNumber {
				syncSamples[nr] = true
			}
		}

		for nr := uint32(1); nr <= count; nr++ {
			offset, err := sampleOffset(stbl, nr)
			if err != nil {
				return nil, fmt.Errorf("track %d sample %d: %w", trak.Tkhd.TrackID, nr, err)
			}
			var decodeTime uint64
			if stbl.Stts != nil {
				decodeTime, _ = stbl.Stts.GetDecodeTime(nr)
			}
			c.refs = append(c.refs, sampleRef{
				stream:     i,
				offset:     offset,
				size:       stbl.Stsz.GetSampleSize(int(nr)),
				decodeTime: decodeTime,
				keyframe:   syncSamples[nr] || stbl.Stss == nil,
			})
		}
	}

	// Chunk offset order is the order samples arrive in the file.
	sort.SliceStable(c.refs, func(a, b int) bool {
		return c.refs[a].offset < c.refs[b].offset
	})

	return c, nil
}

func (o *Opener) openFragmented(f *os.File, mp4File *mp4.File) (*Container, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil || len(mp4File.Init.Moov.Traks) == 0 {
		return nil, ErrNoTracks
	}

	c := &Container{file: f, pool: &o.pool}
	moov := mp4File.Init.Moov

	streamByTrack := make(map[uint32]int)
	trexByTrack := make(map[uint32]*mp4.TrexBox)
	durations := make(map[uint32]uint64)
	firstDur := make(map[uint32]uint32)

	for i, trak := range moov.Traks {
		c.streams = append(c.streams, streamInfo(i, trak))
		streamByTrack[trak.Tkhd.TrackID] = i
	}
	if moov.Mvex != nil {
		for _, trex := range moov.Mvex.Trexs {
			trexByTrack[trex.TrackID] = trex
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				trackID := traf.Tfhd.TrackID
				stream, ok := streamByTrack[trackID]
				if !ok {
					continue
				}
				trex := trexByTrack[trackID]
				if trex == nil {
					trex = &mp4.TrexBox{TrackID: trackID}
				}

				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("track %d: get samples: %w", trackID, err)
				}
				for _, s := range samples {
					c.samples = append(c.samples, ports.NewPacket(stream, s.Data, s.DecodeTime, s.Flags&nonSyncSampleFlag == 0, nil))
					if firstDur[trackID] == 0 {
						firstDur[trackID] = s.Dur
					}
					durations[trackID] += uint64(s.Dur)
					c.streams[stream].FrameCount++
				}
			}
		}
	}

	for _, trak := range moov.Traks {
		id := trak.Tkhd.TrackID
		finishTiming(&c.streams[streamByTrack[id]], durations[id], firstDur[id])
	}

	return c, nil
}

// Streams returns the container's streams in track order.
func (c *Container) Streams() []ports.StreamInfo {
	return c.streams
}

// ReadPacket returns the next sample in file order, or io.EOF.
func (c *Container) ReadPacket() (ports.Packet, error) {
	if c.closed {
		return ports.Packet{}, os.ErrClosed
	}

	if c.samples != nil || c.refs == nil {
		if c.next >= len(c.samples) {
			return ports.Packet{}, io.EOF
		}
		p := c.samples[c.next]
		c.next++
		return p, nil
	}

	if c.next >= len(c.refs) {
		return ports.Packet{}, io.EOF
	}
	ref := c.refs[c.next]
	c.next++

	bp := c.buffer(int(ref.size))
	if _, err := c.file.ReadAt(*bp, int64(ref.offset)); err != nil {
		c.pool.Put(bp)
		return ports.Packet{}, fmt.Errorf("read sample at %d: %w", ref.offset, err)
	}

	pool := c.pool
	return ports.NewPacket(ref.stream, *bp, ref.decodeTime, ref.keyframe, func() {
		pool.Put(bp)
	}), nil
}

// buffer takes a sample buffer from the pool and sizes it. A pooled buffer
// that is too small is regrown in place so the larger one is pooled next.
func (c *Container) buffer(size int) *[]byte {
	bp, ok := c.pool.Get().(*[]byte)
	if !ok {
		bp = new([]byte)
	}
	if cap(*bp) < size {
		*bp = make([]byte, size)
	}
	*bp = (*bp)[:size]
	return bp
}

// Close closes the underlying file. It is safe to call more than once.
func (c *Container) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.file.Close()
}

func sampleTable(trak *mp4.TrakBox) *mp4.StblBox {
	if trak.Mdia == nil || trak.Mdia.Minf == nil {
		return nil
	}
	return trak.Mdia.Minf.Stbl
}

func streamInfo(index int, trak *mp4.TrakBox) ports.StreamInfo {
	mediaType, codec, entry := codecdetect.Track(trak)
	info := ports.StreamInfo{
		Index:     index,
		MediaType: mediaType,
		Codec:     ports.CodecParameters{CodecID: string(codec)},
	}
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil {
		info.TimeScale = trak.Mdia.Mdhd.Timescale
	}

	if vse, ok := entry.(*mp4.VisualSampleEntryBox); ok {
		info.Codec.Width = int(vse.Width)
		info.Codec.Height = int(vse.Height)
		if vse.AvcC != nil {
			info.Codec.Extradata = append(info.Codec.Extradata, vse.AvcC.SPSnalus...)
			info.Codec.Extradata = append(info.Codec.Extradata, vse.AvcC.PPSnalus...)
		}
		if vse.Av1C != nil && len(vse.Av1C.ConfigOBUs) > 0 {
			info.Codec.Extradata = append(info.Codec.Extradata, vse.Av1C.ConfigOBUs)
		}
	}
	if mediaType == ports.MediaVideo && (info.Codec.Width == 0 || info.Codec.Height == 0) && trak.Tkhd != nil {
		info.Codec.Width = int(trak.Tkhd.Width >> 16)
		info.Codec.Height = int(trak.Tkhd.Height >> 16)
	}
	return info
}

// finishTiming fills Duration and FrameRate from a duration in timescale
// units and the first sample's duration.
func finishTiming(info *ports.StreamInfo, duration uint64, firstDur uint32) {
	if info.TimeScale == 0 {
		return
	}
	ts := float64(info.TimeScale)
	info.Duration = time.Duration(float64(duration) / ts * float64(time.Second))

	switch {
	case duration > 0 && info.FrameCount > 0:
		info.FrameRate = float64(info.FrameCount) * ts / float64(duration)
	case firstDur > 0:
		info.FrameRate = ts / float64(firstDur)
	}
}

func firstDuration(stbl *mp4.StblBox) uint32 {
	if stbl.Stts == nil || len(stbl.Stts.SampleTimeDelta) == 0 {
		return 0
	}
	return stbl.Stts.SampleTimeDelta[0]
}

// sampleOffset returns the absolute file offset of a sample.
func sampleOffset(stbl *mp4.StblBox, sampleNr uint32) (uint64, error) {
	if stbl.Stsc == nil || stbl.Stsz == nil {
		return 0, fmt.Errorf("missing stsc or stsz box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return 0, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return 0, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return 0, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return 0, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}
	return offset, nil
}

var (
	_ ports.MediaOpener = (*Opener)(nil)
	_ ports.Container   = (*Container)(nil)
)
