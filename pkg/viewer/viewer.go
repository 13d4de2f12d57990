// Package viewer couples file selection, background conversion and
// playback. Select may be called from any goroutine; Update, Toggle and
// Close belong to the UI thread.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/user/echoview/pkg/pipeline"
	"github.com/user/echoview/pkg/playback"
	"github.com/user/echoview/pkg/ports"
)

// Player is the playback driver as seen by the viewer.
type Player interface {
	pipeline.Stage[pipeline.TickInput, pipeline.TickResult]
	Play(ctx context.Context, path string) error
	Stop()
	State() playback.State
}

// Config contains the viewer settings.
type Config struct {
	// View is the acquisition view passed to the converter.
	View string
}

// Viewer drives one player from file selections.
type Viewer struct {
	player  Player
	convert pipeline.Stage[pipeline.ConvertInput, pipeline.ConvertResult]
	logger  ports.Logger
	cfg     Config

	jobs   sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	seq      int // last selection number handed out
	played   int // selection number of what is playing
	current  string
	ready    *selection
	running  int
	failures []error

	// Path to resume after Toggle stopped playback.
	resume string
}

type selection struct {
	seq  int
	path string
}

// New creates a viewer. convert may be nil, in which case selected files
// are played as they are.
func New(
	player Player,
	convert pipeline.Stage[pipeline.ConvertInput, pipeline.ConvertResult],
	logger ports.Logger,
	cfg Config,
) *Viewer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Viewer{
		player:  player,
		convert: convert,
		logger:  logger.WithComponent("viewer"),
		cfg:     cfg,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Select starts handling a selected file. With a converter configured the
// conversion runs in the background; the result is picked up by a later
// Update. Only the most recent selection is ever played.
func (v *Viewer) Select(path string) {
	v.mu.Lock()
	v.seq++
	seq := v.seq
	v.mu.Unlock()

	if v.convert == nil {
		v.offer(selection{seq: seq, path: path})
		return
	}

	v.mu.Lock()
	v.running++
	v.mu.Unlock()

	v.jobs.Add(1)
	go func() {
		defer v.jobs.Done()
		defer func() {
			v.mu.Lock()
			v.running--
			v.mu.Unlock()
		}()

		result, err := v.convert.Execute(v.ctx, pipeline.ConvertInput{SourcePath: path, View: v.cfg.View})
		if err != nil {
			v.logger.Error("Conversion of %s failed: %v", path, err)
			v.mu.Lock()
			v.failures = append(v.failures, fmt.Errorf("convert %s: %w", path, err))
			v.mu.Unlock()
			return
		}
		v.offer(selection{seq: seq, path: result.OutputPath})
	}()
}

// offer queues a playable file unless a newer one is already queued or
// playing.
func (v *Viewer) offer(s selection) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s.seq <= v.played || (v.ready != nil && s.seq < v.ready.seq) {
		v.logger.Debug("Dropping stale selection %s", s.path)
		return
	}
	v.ready = &s
}

// Toggle stops playback, or resumes the last stopped file from the start.
func (v *Viewer) Toggle() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.player.State() == playback.Playing {
		v.resume = v.current
		v.player.Stop()
		return
	}
	if v.resume != "" && v.ready == nil {
		v.ready = &selection{seq: v.played, path: v.resume}
	}
}

// Update runs one UI frame: it starts the newest ready file and then
// advances playback. Errors from starting playback, failed conversions and
// the tick itself are joined; none of them stop the viewer.
func (v *Viewer) Update(ctx context.Context, uiFPS float64) (pipeline.TickResult, error) {
	v.mu.Lock()
	next := v.ready
	v.ready = nil
	errs := v.failures
	v.failures = nil
	v.mu.Unlock()

	if next != nil {
		if err := v.player.Play(ctx, next.path); err != nil {
			errs = append(errs, err)
		} else {
			v.mu.Lock()
			v.played = next.seq
			v.current = next.path
			v.resume = ""
			v.mu.Unlock()
		}
	}

	result, err := v.player.Execute(ctx, pipeline.TickInput{UIFramesPerSecond: uiFPS})
	if err != nil {
		errs = append(errs, err)
	}
	return result, errors.Join(errs...)
}

// Pending reports whether a selection is being converted or waiting to play.
func (v *Viewer) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready != nil || v.running > 0
}

// Close cancels running conversions, waits for them and stops playback.
func (v *Viewer) Close() {
	v.cancel()
	v.jobs.Wait()
	v.player.Stop()
}
