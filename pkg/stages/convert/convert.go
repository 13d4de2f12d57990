// Package convert implements the conversion job run when a file is
// selected: an external command turns the selection into a playable MP4.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/echoview/pkg/pipeline"
	"github.com/user/echoview/pkg/ports"
)

var (
	// ErrNoCommand is returned when no command is configured.
	ErrNoCommand = errors.New("convert: no command configured")
	// ErrNoOutput is returned when the command succeeded but the output
	// file is missing or empty.
	ErrNoOutput = errors.New("convert: output file missing")
	// ErrCommandFailed is returned when the command exits non-zero.
	ErrCommandFailed = errors.New("convert: command failed")
)

// waitDelay bounds how long Execute waits for the command's output pipes
// to close after the command has been killed.
const waitDelay = 2 * time.Second

// Config describes the conversion command.
//
// Command and Output may contain placeholders: {input} is the selected
// path, {stem} its base name without extension, {view} the acquisition
// view, {job} the job ID and, in Command only, {output} the expanded
// Output path.
type Config struct {
	Command []string
	Output  string
	WorkDir string
	Timeout time.Duration
	// AnswerYes feeds an endless stream of "y" lines to the command's stdin.
	AnswerYes bool
}

// Stage runs conversion jobs.
type Stage struct {
	cfg    Config
	fs     ports.FileSystem
	logger ports.Logger
}

// New creates a new convert stage.
func New(cfg Config, fs ports.FileSystem, logger ports.Logger) *Stage {
	return &Stage{
		cfg:    cfg,
		fs:     fs,
		logger: logger.WithComponent("convert"),
	}
}

// Execute runs the command for one selected file and checks its output.
func (s *Stage) Execute(ctx context.Context, input pipeline.ConvertInput) (pipeline.ConvertResult, error) {
	result := pipeline.ConvertResult{
		JobID:      uuid.New().String(),
		SourcePath: input.SourcePath,
		ExitCode:   -1,
	}

	if len(s.cfg.Command) == 0 {
		return result, ErrNoCommand
	}

	vars := []string{
		"{input}", input.SourcePath,
		"{stem}", stem(input.SourcePath),
		"{view}", input.View,
		"{job}", result.JobID,
	}
	result.OutputPath = s.resolve(strings.NewReplacer(vars...).Replace(s.cfg.Output))

	r := strings.NewReplacer(append(vars, "{output}", result.OutputPath)...)
	argv := make([]string, len(s.cfg.Command))
	for i, arg := range s.cfg.Command {
		argv[i] = r.Replace(arg)
	}

	if err := s.removeStale(result.OutputPath); err != nil {
		return result, err
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = s.cfg.WorkDir
	killProcessGroup(cmd)
	// Stop waiting on stderr and stdin copies held open by orphaned children.
	cmd.WaitDelay = waitDelay
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if s.cfg.AnswerYes {
		cmd.Stdin = &yesReader{}
	}

	s.logger.Info("Converting %s (%s) as job %s", input.SourcePath, input.View, result.JobID)
	s.logger.Debug("Running %s", strings.Join(argv, " "))

	start := time.Now()
	err := cmd.Run()
	result.Duration = time.Since(start)
	result.Stderr = stderr.String()
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState.Success() {
		// The command exited cleanly; a child it left running kept the pipes open.
		err = nil
	}
	if err != nil {
		if ctx.Err() != nil {
			return result, fmt.Errorf("%w: %v", ErrCommandFailed, ctx.Err())
		}
		return result, fmt.Errorf("%w: %v: %s", ErrCommandFailed, err, strings.TrimSpace(result.Stderr))
	}

	if result.OutputPath == "" {
		return result, ErrNoOutput
	}
	size, err := s.fs.Size(result.OutputPath)
	if err != nil || size == 0 {
		return result, fmt.Errorf("%w: %s", ErrNoOutput, result.OutputPath)
	}
	result.OutputSize = size

	s.logger.Info("Converted %s to %s in %s", input.SourcePath, result.OutputPath, result.Duration.Round(time.Millisecond))
	return result, nil
}

// removeStale deletes an output left by an earlier job so that the
// post-run check only sees what this job wrote.
func (s *Stage) removeStale(path string) error {
	if path == "" {
		return nil
	}
	exists, err := s.fs.Exists(path)
	if err != nil || !exists {
		return err
	}
	s.logger.Debug("Removing stale output %s", path)
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("remove stale output: %w", err)
	}
	return nil
}

// resolve makes a relative output path relative to the working directory.
func (s *Stage) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || s.cfg.WorkDir == "" {
		return path
	}
	return filepath.Join(s.cfg.WorkDir, path)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// yesReader answers every prompt with "y".
type yesReader struct {
	n int
}

func (r *yesReader) Read(p []byte) (int, error) {
	for i := range p {
		if r.n%2 == 0 {
			p[i] = 'y'
		} else {
			p[i] = '\n'
		}
		r.n++
	}
	return len(p), nil
}

// Ensure Stage implements pipeline.Stage
var _ pipeline.Stage[pipeline.ConvertInput, pipeline.ConvertResult] = (*Stage)(nil)
