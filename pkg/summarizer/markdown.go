package summarizer

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter formats a Summary as a Markdown document.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	var sb strings.Builder

	sb.WriteString("# Probe Summary\n\n")
	fmt.Fprintf(&sb, "Generated at %s\n\n", s.GeneratedAt.Format(time.RFC3339))

	sb.WriteString("## File\n\n")
	fmt.Fprintf(&sb, "- Path: `%s`\n", s.File.Path)
	fmt.Fprintf(&sb, "- Size: %s\n\n", formatBytes(s.File.Size))

	sb.WriteString("## Streams\n\n")
	if len(s.Streams) == 0 {
		sb.WriteString("No streams.\n\n")
	} else {
		sb.WriteString("| # | Type | Codec | Size | Frames | Frame rate | Duration |\n")
		sb.WriteString("|---|------|-------|------|--------|------------|----------|\n")
		for _, st := range s.Streams {
			size := "-"
			if st.Width > 0 && st.Height > 0 {
				size = fmt.Sprintf("%dx%d", st.Width, st.Height)
			}
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %d | %.2f fps | %s |\n",
				st.Index, st.Type, st.Codec, size, st.FrameCount, st.FrameRate, formatDuration(st.Duration))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Playback\n\n")
	if s.Playback.Playable {
		fmt.Fprintf(&sb, "- Playable: yes (stream %d)\n", s.Playback.VideoStream)
	} else {
		fmt.Fprintf(&sb, "- Playable: no (%s)\n", s.Playback.Reason)
	}
	if s.Playback.WrapFrames > 0 {
		fmt.Fprintf(&sb, "- Wraps at: frame %d\n", s.Playback.WrapFrames)
	} else {
		sb.WriteString("- Wraps at: end of stream\n")
	}
	sb.WriteString("\n")

	if len(s.Decoders) > 0 {
		sb.WriteString("## Decoders\n\n")
		sb.WriteString("| Codec | Backend | Name | Available |\n")
		sb.WriteString("|-------|---------|------|-----------|\n")
		for _, d := range s.Decoders {
			available := "no"
			if d.Available {
				available = "yes"
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", d.Codec, d.Backend, d.Name, available)
		}
	}

	return sb.String()
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.2f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.3f s", d.Seconds())
}

// Ensure MarkdownFormatter implements Formatter
var _ Formatter = (*MarkdownFormatter)(nil)
