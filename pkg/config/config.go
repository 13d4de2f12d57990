// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/user/echoview/pkg/adapters/imagepanel"
	"github.com/user/echoview/pkg/playback"
	"github.com/user/echoview/pkg/stages/convert"
	"github.com/user/echoview/pkg/viewer"
	"gopkg.in/yaml.v3"
)

// Config represents the full configuration for echoview.
type Config struct {
	// Playback
	WrapFrames int `yaml:"wrap_frames"` // 0 wraps at the stream's frame count

	// Decoding
	FFmpegPath string `yaml:"ffmpeg_path"`

	// Desktop window
	Window WindowConfig `yaml:"window"`

	// Headless export
	Export ExportConfig `yaml:"export"`

	// Conversion job run on file selection
	Convert ConvertConfig `yaml:"convert"`

	// Logging and debug output
	LogLevel string `yaml:"log_level"`
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// WindowConfig represents the desktop window settings.
type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	VSync  bool   `yaml:"vsync"`
}

// ExportConfig represents the headless export settings.
type ExportConfig struct {
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	Ticks      int     `yaml:"ticks"`
	UIFPS      float64 `yaml:"ui_fps"`
	HUD        bool    `yaml:"hud"`
	FontPath   string  `yaml:"font_path"`
	FontSize   float64 `yaml:"font_size"`
	Background string  `yaml:"background"`
}

// ConvertConfig represents the conversion command settings.
// An empty Command plays selected files directly.
type ConvertConfig struct {
	Command   []string `yaml:"command"`
	Output    string   `yaml:"output"`
	WorkDir   string   `yaml:"workdir"`
	Timeout   Duration `yaml:"timeout"`
	AnswerYes bool     `yaml:"answer_yes"`
	View      string   `yaml:"view"`
}

// Duration is a time.Duration written as a Go duration string ("90s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		Window: WindowConfig{
			Title:  "echoview",
			Width:  1280,
			Height: 720,
			VSync:  true,
		},

		Export: ExportConfig{
			Width:      640,
			Height:     480,
			Ticks:      120,
			UIFPS:      60,
			FontSize:   14,
			Background: "#000000",
		},

		Convert: ConvertConfig{
			Timeout: Duration(10 * time.Minute),
			View:    "A2C",
		},

		LogLevel: "info",
		DebugDir: "./debug",
	}
}

// LoadFromFile loads configuration from a YAML file. Relative paths in the
// file are resolved against the file's directory.
func LoadFromFile(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	base := filepath.Dir(path)
	cfg.FFmpegPath = ResolvePath(base, cfg.FFmpegPath)
	cfg.DebugDir = ResolvePath(base, cfg.DebugDir)
	cfg.Export.FontPath = ResolvePath(base, cfg.Export.FontPath)
	cfg.Convert.WorkDir = ResolvePath(base, cfg.Convert.WorkDir)
	if len(cfg.Convert.Command) > 0 && strings.ContainsRune(cfg.Convert.Command[0], filepath.Separator) {
		cfg.Convert.Command[0] = ResolvePath(base, cfg.Convert.Command[0])
	}

	return cfg, nil
}

// ResolvePath joins a relative path onto base. Empty and absolute paths
// are returned unchanged.
func ResolvePath(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// ParseColor parses a "#rrggbb" color string. Invalid input is black.
func ParseColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.Black
	}

	var rgb [3]uint8
	for i := range rgb {
		rgb[i] = hexValue(hex[i*2])<<4 | hexValue(hex[i*2+1])
	}
	return color.RGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
}

func hexValue(c byte) uint8 {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

// ToPlaybackConfig converts Config to playback.Config.
func (c Config) ToPlaybackConfig() playback.Config {
	return playback.Config{
		WrapFrames: c.WrapFrames,
	}
}

// ToConvertConfig converts Config to convert.Config.
func (c Config) ToConvertConfig() convert.Config {
	return convert.Config{
		Command:   c.Convert.Command,
		Output:    c.Convert.Output,
		WorkDir:   c.Convert.WorkDir,
		Timeout:   time.Duration(c.Convert.Timeout),
		AnswerYes: c.Convert.AnswerYes,
	}
}

// ToViewerConfig converts Config to viewer.Config.
func (c Config) ToViewerConfig() viewer.Config {
	return viewer.Config{
		View: c.Convert.View,
	}
}

// ToPanelOptions converts Config to imagepanel.Options.
func (c Config) ToPanelOptions() imagepanel.Options {
	return imagepanel.Options{
		Width:      c.Export.Width,
		Height:     c.Export.Height,
		HUD:        c.Export.HUD,
		FontSize:   c.Export.FontSize,
		FontPath:   c.Export.FontPath,
		Background: ParseColor(c.Export.Background),
	}
}
