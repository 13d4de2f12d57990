// Package codecdetect classifies MP4 tracks by media type and codec.
package codecdetect

import (
	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/echoview/pkg/ports"
)

// Codec represents a codec type.
type Codec string

const (
	CodecH264    Codec = "h264"
	CodecHEVC    Codec = "hevc"
	CodecAV1     Codec = "av1"
	CodecMJPEG   Codec = "mjpeg"
	CodecAAC     Codec = "aac"
	CodecUnknown Codec = "unknown"
)

// FromSampleEntry maps an stsd sample entry type to a codec.
func FromSampleEntry(entryType string) Codec {
	switch entryType {
	case "avc1", "avc3":
		return CodecH264
	case "hvc1", "hev1":
		// Detected so it can be reported, but no decoder is registered for it.
		return CodecHEVC
	case "av01":
		return CodecAV1
	case "jpeg", "mjpa", "mjpg":
		return CodecMJPEG
	case "mp4a":
		return CodecAAC
	}
	return CodecUnknown
}

// MediaType maps an hdlr handler type to a media type.
func MediaType(handlerType string) ports.MediaType {
	switch handlerType {
	case "vide":
		return ports.MediaVideo
	case "soun":
		return ports.MediaAudio
	case "meta", "text", "subt", "sbtl":
		return ports.MediaData
	}
	return ports.MediaUnknown
}

// Track returns the media type and codec of a track, plus its sample entry
// box when it has one.
func Track(trak *mp4.TrakBox) (ports.MediaType, Codec, mp4.Box) {
	if trak.Mdia == nil || trak.Mdia.Hdlr == nil {
		return ports.MediaUnknown, CodecUnknown, nil
	}

	mediaType := MediaType(trak.Mdia.Hdlr.HandlerType)

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return mediaType, CodecUnknown, nil
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if codec := FromSampleEntry(child.Type()); codec != CodecUnknown {
			return mediaType, codec, child
		}
	}
	if children := trak.Mdia.Minf.Stbl.Stsd.Children; len(children) > 0 {
		return mediaType, CodecUnknown, children[0]
	}
	return mediaType, CodecUnknown, nil
}
