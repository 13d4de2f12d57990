// Package main provides the CLI entry point for echoview.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/echoview/pkg/adapters/av1encoder"
	"github.com/user/echoview/pkg/adapters/codecregistry"
	"github.com/user/echoview/pkg/adapters/filesink"
	"github.com/user/echoview/pkg/adapters/ggrenderer"
	"github.com/user/echoview/pkg/adapters/gltexture"
	"github.com/user/echoview/pkg/adapters/glview"
	"github.com/user/echoview/pkg/adapters/h264encoder"
	"github.com/user/echoview/pkg/adapters/imagepanel"
	"github.com/user/echoview/pkg/adapters/logger"
	"github.com/user/echoview/pkg/adapters/memtexture"
	"github.com/user/echoview/pkg/adapters/mp4container"
	"github.com/user/echoview/pkg/adapters/nullsink"
	"github.com/user/echoview/pkg/adapters/osfilesystem"
	"github.com/user/echoview/pkg/config"
	"github.com/user/echoview/pkg/framedecode"
	"github.com/user/echoview/pkg/pipeline"
	"github.com/user/echoview/pkg/playback"
	"github.com/user/echoview/pkg/ports"
	"github.com/user/echoview/pkg/stages/convert"
	"github.com/user/echoview/pkg/summarizer"
	"github.com/user/echoview/pkg/viewer"
)

var version = "dev"

// GLFW and GL calls must stay on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, l10n.F("echoview version %s", c.App.Version))
	}

	return &cli.App{
		Name:    "echoview",
		Usage:   l10n.T("Play echocardiography videos frame by frame"),
		Version: version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			playCommand(),
			exportCommand(),
			probeCommand(),
			convertCommand(),
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    l10n.T("Path to a YAML configuration file"),
			EnvVars:  []string{"ECHOVIEW_CONFIG"},
			Category: l10n.T("Configuration"),
		},
		&cli.StringFlag{
			Name:     "ffmpeg",
			Usage:    l10n.T("Path to the ffmpeg executable used for H.264"),
			Category: l10n.T("Decoding"),
		},
		&cli.IntFlag{
			Name:     "wrap",
			Usage:    l10n.T("Frame position at which playback wraps (0 = end of stream)"),
			Category: l10n.T("Playback"),
		},
		&cli.BoolFlag{
			Name:     "debug",
			Aliases:  []string{"d"},
			Usage:    l10n.T("Save decoded frames and probe data"),
			Category: l10n.T("Debug"),
		},
		&cli.StringFlag{
			Name:     "debug-dir",
			Usage:    l10n.T("Directory for debug output"),
			Category: l10n.T("Debug"),
		},
		&cli.StringFlag{
			Name:     "log-level",
			Aliases:  []string{"l"},
			Usage:    l10n.T("Log level (debug, info, warn, error)"),
			Category: l10n.T("Logging"),
		},
		&cli.BoolFlag{
			Name:     "quiet",
			Aliases:  []string{"q"},
			Usage:    l10n.T("Suppress all log output"),
			Category: l10n.T("Logging"),
		},
	}
}

// env holds the adapters shared by every command.
type env struct {
	cfg      config.Config
	log      ports.Logger
	fs       ports.FileSystem
	renderer ports.Renderer
	sink     ports.DebugSink
	opener   ports.MediaOpener
	registry *codecregistry.Registry
}

// setup loads configuration, applies flag overrides and builds adapters.
func setup(c *cli.Context) (*env, error) {
	cfg := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if c.IsSet("ffmpeg") {
		cfg.FFmpegPath = c.String("ffmpeg")
	}
	if c.IsSet("wrap") {
		cfg.WrapFrames = c.Int("wrap")
	}
	if c.IsSet("debug") {
		cfg.Debug = c.Bool("debug")
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}

	e := &env{
		cfg:      cfg,
		fs:       osfilesystem.New(),
		renderer: ggrenderer.New(),
		opener:   mp4container.New(),
	}

	level, err := ports.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	if c.Bool("quiet") {
		e.log = logger.NewNoop()
	} else {
		e.log = logger.NewConsole(level)
	}

	if cfg.Debug {
		if err := e.fs.MkdirAll(cfg.DebugDir); err != nil {
			return nil, fmt.Errorf("create debug directory: %w", err)
		}
		e.sink = filesink.New(cfg.DebugDir, e.fs, e.renderer)
	} else {
		e.sink = nullsink.New()
	}

	e.registry = codecregistry.New(e.renderer, codecregistry.Options{FFmpegPath: cfg.FFmpegPath})
	return e, nil
}

func (e *env) newDriver(uploader ports.TextureUploader, panel ports.Panel) *playback.Driver {
	decoder := framedecode.New(e.registry, e.log)
	return playback.New(e.opener, decoder, uploader, panel, e.sink, e.log, e.cfg.ToPlaybackConfig())
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context, log ports.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn("Interrupted, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func playCommand() *cli.Command {
	return &cli.Command{
		Name:      "play",
		Usage:     l10n.T("Open the viewer window; drop files on it to play them"),
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "view",
				Usage: l10n.T("Acquisition view passed to the conversion command"),
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: l10n.T("Initial window width"),
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: l10n.T("Initial window height"),
			},
		},
		Action: runPlay,
	}
}

func runPlay(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	if c.IsSet("view") {
		e.cfg.Convert.View = c.String("view")
	}
	if c.IsSet("width") {
		e.cfg.Window.Width = c.Int("width")
	}
	if c.IsSet("height") {
		e.cfg.Window.Height = c.Int("height")
	}

	ctx, cancel := signalContext(c.Context, e.log)
	defer cancel()

	var v *viewer.Viewer
	win, err := glview.Open(glview.Options{
		Title:  e.cfg.Window.Title,
		Width:  e.cfg.Window.Width,
		Height: e.cfg.Window.Height,
		VSync:  e.cfg.Window.VSync,
		OnDrop: func(paths []string) {
			v.Select(paths[len(paths)-1])
		},
		OnToggle: func() {
			v.Toggle()
		},
	})
	if err != nil {
		return err
	}
	defer win.Close()

	driver := e.newDriver(gltexture.New(), win)

	var conv pipeline.Stage[pipeline.ConvertInput, pipeline.ConvertResult]
	if len(e.cfg.Convert.Command) > 0 {
		conv = convert.New(e.cfg.ToConvertConfig(), e.fs, e.log)
	}
	v = viewer.New(driver, conv, e.log, e.cfg.ToViewerConfig())
	defer v.Close()

	if path := c.Args().First(); path != "" {
		v.Select(path)
	}

	for !win.ShouldClose() && ctx.Err() == nil {
		fps := win.BeginFrame()
		// Failures are logged where they happen and retried next frame.
		v.Update(ctx, fps)
		win.EndFrame()
	}
	return nil
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     l10n.T("Play a file offscreen and save every tick as PNG"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Value:   "./export",
				Usage:   l10n.T("Directory for exported frames"),
			},
			&cli.IntFlag{
				Name:  "ticks",
				Usage: l10n.T("Number of UI ticks to run"),
			},
			&cli.Float64Flag{
				Name:  "ui-fps",
				Usage: l10n.T("Simulated UI frame rate"),
			},
			&cli.IntFlag{
				Name:  "width",
				Usage: l10n.T("Panel width"),
			},
			&cli.IntFlag{
				Name:  "height",
				Usage: l10n.T("Panel height"),
			},
			&cli.BoolFlag{
				Name:  "hud",
				Usage: l10n.T("Draw frame number and position on each tick"),
			},
			&cli.StringFlag{
				Name:  "video",
				Usage: l10n.T("Also encode the ticks into an H.264 MP4 file"),
			},
			&cli.StringFlag{
				Name:  "video-codec",
				Value: "h264",
				Usage: l10n.T("Codec for --video (h264 or av1)"),
			},
			&cli.IntFlag{
				Name:  "crf",
				Usage: l10n.T("H.264 quality for --video (0-51, lower is better)"),
			},
		},
		Action: runExport,
	}
}

func runExport(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit(l10n.T("A video file argument is required"), 2)
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	ex := &e.cfg.Export
	if c.IsSet("ticks") {
		ex.Ticks = c.Int("ticks")
	}
	if c.IsSet("ui-fps") {
		ex.UIFPS = c.Float64("ui-fps")
	}
	if c.IsSet("width") {
		ex.Width = c.Int("width")
	}
	if c.IsSet("height") {
		ex.Height = c.Int("height")
	}
	if c.IsSet("hud") {
		ex.HUD = c.Bool("hud")
	}

	out := c.String("out")
	if err := e.fs.MkdirAll(out); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	ctx, cancel := signalContext(c.Context, e.log)
	defer cancel()

	var video *videoOutput
	if path := c.String("video"); path != "" {
		encoder, err := newEncoder(c.String("video-codec"), e)
		if err != nil {
			return err
		}
		video = &videoOutput{
			path:    path,
			encoder: encoder,
			options: ports.EncoderOptions{Quality: c.Int("crf")},
		}
	}

	return export(ctx, e, c.Args().First(), filesink.New(out, e.fs, e.renderer), video)
}

// newEncoder returns the video encoder for a --video-codec value.
func newEncoder(codec string, e *env) (ports.VideoEncoder, error) {
	switch codec {
	case "h264":
		return h264encoder.New(e.cfg.FFmpegPath), nil
	case "av1":
		return av1encoder.New(e.fs), nil
	default:
		return nil, cli.Exit(l10n.F("Unknown video codec %s", codec), 2)
	}
}

// videoOutput is the optional encoded copy of an export.
type videoOutput struct {
	path    string
	encoder ports.VideoEncoder
	options ports.EncoderOptions
}

// export plays path for the configured number of ticks and presents every
// tick to out, and to video when it is set.
func export(ctx context.Context, e *env, path string, out ports.DebugSink, video *videoOutput) (err error) {
	store := memtexture.New()
	panel := imagepanel.New(store, e.renderer, out, e.cfg.ToPanelOptions())
	driver := e.newDriver(store, panel)

	if err := driver.Play(ctx, path); err != nil {
		return err
	}
	defer driver.Stop()

	if video != nil {
		w, h := panel.Size()
		if err := video.encoder.Begin(video.path, w, h, e.cfg.Export.UIFPS, video.options); err != nil {
			return err
		}
		defer func() {
			endErr := video.encoder.End()
			if endErr == nil {
				e.log.Info("Video saved to %s", video.path)
			} else if err == nil {
				err = endErr
			}
		}()
	}

	var failed int
	for tick := 0; tick < e.cfg.Export.Ticks; tick++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := driver.Execute(ctx, pipeline.TickInput{UIFramesPerSecond: e.cfg.Export.UIFPS})
		if err != nil {
			failed++
		}
		img, err := panel.Present(tick, tickCaption(res, err))
		if err != nil {
			return err
		}
		if video != nil {
			if err := video.encoder.EncodeFrame(img); err != nil {
				return err
			}
		}
	}

	e.log.Info("Exported %d ticks of %s (%d failed)", e.cfg.Export.Ticks, path, failed)
	if failed == e.cfg.Export.Ticks && failed > 0 {
		return errors.New(l10n.T("No frame could be decoded"))
	}
	return nil
}

// tickCaption labels a tick with the frame shown and its position. Ticks
// that showed no frame get no caption.
func tickCaption(res pipeline.TickResult, err error) string {
	if err != nil || !res.Displayed {
		return ""
	}
	return fmt.Sprintf("#%d  %.2f", res.Ordinal, res.Position)
}

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Describe the streams of a file and whether it can be played"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   l10n.T("Write the report to a file instead of stdout"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: l10n.T("Print the report as JSON"),
			},
		},
		Action: runProbe,
	}
}

func runProbe(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit(l10n.T("A video file argument is required"), 2)
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	return probe(e, c.Args().First(), c.String("output"), c.Bool("json"), c.App.Writer)
}

func probe(e *env, path, output string, asJSON bool, stdout io.Writer) error {
	size, err := e.fs.Size(path)
	if err != nil {
		return err
	}

	b := summarizer.NewBuilder().
		WithFile(path, size).
		WithPlayback(summarizer.PlaybackInfo{VideoStream: -1, WrapFrames: e.cfg.WrapFrames})
	for _, d := range e.registry.Decoders() {
		b.WithDecoder(summarizer.DecoderInfo{
			Codec:     string(d.Codec),
			Backend:   string(d.Backend),
			Name:      d.Name,
			Available: d.Available,
		})
	}
	if err := summarizer.Probe(b, e.opener, e.registry, path); err != nil {
		return err
	}
	summary := b.Build()

	data, err := summary.JSON()
	if err != nil {
		return err
	}
	if e.sink.Enabled() {
		if err := e.sink.SaveProbeJSON(data); err != nil {
			e.log.Warn("Failed to save probe data: %v", err)
		}
	}

	format := "markdown"
	if asJSON {
		format = "json"
	}
	formatter, err := summarizer.FormatterFor(format)
	if err != nil {
		return err
	}
	w := summarizer.NewWriter(formatter, e.fs)
	if output != "" {
		if err := w.Write(output, summary); err != nil {
			return err
		}
		e.log.Info("Summary saved to %s", output)
		return nil
	}
	return w.WriteTo(stdout, summary)
}

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     l10n.T("Run the configured conversion command on a file"),
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "view",
				Usage: l10n.T("Acquisition view passed to the conversion command"),
			},
		},
		Action: runConvert,
	}
}

func runConvert(c *cli.Context) error {
	if c.Args().Len() != 1 {
		return cli.Exit(l10n.T("A file argument is required"), 2)
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	view := e.cfg.Convert.View
	if c.IsSet("view") {
		view = c.String("view")
	}

	ctx, cancel := signalContext(c.Context, e.log)
	defer cancel()

	stage := convert.New(e.cfg.ToConvertConfig(), e.fs, e.log)
	result, err := stage.Execute(ctx, pipeline.ConvertInput{SourcePath: c.Args().First(), View: view})
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, result.OutputPath)
	return nil
}
