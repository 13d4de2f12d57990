package codecdetect

import (
	"testing"

	"github.com/Eyevinn/mp4ff/mp4"
	"github.com/user/echoview/pkg/ports"
)

func TestFromSampleEntry(t *testing.T) {
	tests := []struct {
		entry string
		want  Codec
	}{
		{"avc1", CodecH264},
		{"avc3", CodecH264},
		{"hvc1", CodecHEVC},
		{"av01", CodecAV1},
		{"jpeg", CodecMJPEG},
		{"mjpa", CodecMJPEG},
		{"mp4a", CodecAAC},
		{"vp09", CodecUnknown},
	}

	for _, tt := range tests {
		if got := FromSampleEntry(tt.entry); got != tt.want {
			t.Errorf("FromSampleEntry(%q) = %s, want %s", tt.entry, got, tt.want)
		}
	}
}

func TestMediaType(t *testing.T) {
	if MediaType("vide") != ports.MediaVideo {
		t.Error("expected vide to be video")
	}
	if MediaType("soun") != ports.MediaAudio {
		t.Error("expected soun to be audio")
	}
	if MediaType("hint") != ports.MediaUnknown {
		t.Error("expected hint to be unknown")
	}
}

func TestTrack(t *testing.T) {
	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(90000, "video", "und")
	trak := init.Moov.Trak
	trak.Mdia.Minf.Stbl.Stsd.AddChild(mp4.CreateVisualSampleEntryBox("av01", 64, 48, &mp4.PaspBox{HSpacing: 1, VSpacing: 1}))

	mediaType, codec, entry := Track(trak)
	if mediaType != ports.MediaVideo {
		t.Errorf("expected video, got %s", mediaType)
	}
	if codec != CodecAV1 {
		t.Errorf("expected av1, got %s", codec)
	}
	if entry == nil || entry.Type() != "av01" {
		t.Errorf("expected av01 sample entry, got %v", entry)
	}
}
