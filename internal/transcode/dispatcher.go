package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"burnaudio/internal/catalog"
	"burnaudio/internal/config"
	"burnaudio/internal/fileutil"
	"burnaudio/internal/logging"
	"burnaudio/internal/services"
	"burnaudio/internal/toolexec"
)

// Option configures the Dispatcher.
type Option func(*Dispatcher)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolexec.Executor) Option {
	return func(d *Dispatcher) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// Dispatcher plans and executes transcode jobs.
type Dispatcher struct {
	decode       config.Tool
	encode       config.Tool
	timeout      time.Duration
	skipExisting bool
	exec         toolexec.Executor
	logger       *slog.Logger
}

// NewDispatcher constructs a Dispatcher from configuration.
func NewDispatcher(cfg *config.Config, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		decode:       cfg.Tools.Decode,
		encode:       cfg.Tools.Encode,
		timeout:      time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
		skipExisting: cfg.Transcode.SkipExisting,
		exec:         toolexec.CommandExecutor{},
		logger:       logging.NewComponentLogger(logger, "transcode"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Plan creates one job per available track of sel, writing into outputDir.
// Tracks whose sanitized output path collides with an earlier track in the
// same playlist are not dispatched; they are returned as Skipped results.
func (d *Dispatcher) Plan(sel catalog.Selection, outputDir string, bitrateKbps int) ([]Job, []Result) {
	folder := cases.Fold()
	seen := make(map[string]struct{}, len(sel.Tracks))
	jobs := make([]Job, 0, len(sel.Tracks))
	var skipped []Result

	for i, rec := range sel.Tracks {
		action := Classify(rec.Kind)
		name := OutputName(rec.Artist, rec.Title, rec.TrackNumber, OutputExt(action, rec.SourcePath))
		job := Job{
			ID:          uuid.NewString(),
			Playlist:    sel.Name,
			Position:    i + 1,
			Record:      rec,
			OutputDir:   outputDir,
			OutputPath:  filepath.Join(outputDir, name),
			BitrateKbps: bitrateKbps,
			Action:      action,
		}
		key := folder.String(job.OutputPath)
		if _, dup := seen[key]; dup {
			skipped = append(skipped, Result{
				Job:        job,
				Outcome:    Skipped,
				Reason:     ReasonDuplicatePath,
				OutputPath: job.OutputPath,
			})
			continue
		}
		seen[key] = struct{}{}
		jobs = append(jobs, job)
	}
	return jobs, skipped
}

// Run executes job. It always returns a Result; failures never panic or
// propagate to sibling jobs.
func (d *Dispatcher) Run(ctx context.Context, job Job) Result {
	start := time.Now()
	ctx = services.WithPlaylist(ctx, job.Playlist)
	ctx = services.WithRequestID(ctx, job.ID)
	logger := logging.WithContext(ctx, d.logger)

	result := Result{Job: job, OutputPath: job.OutputPath}
	finish := func(r Result) Result {
		r.Duration = time.Since(start)
		return r
	}

	if err := ctx.Err(); err != nil {
		result.Outcome = Failed
		result.Reason = ReasonCancelled
		result.Err = fmt.Errorf("%w: %w", ErrTranscodeFailed, err)
		return finish(result)
	}

	if d.skipExisting {
		if size, ok := d.existingOutput(job); ok {
			logger.Debug("output exists; skipping", logging.String("output", job.OutputPath))
			result.Outcome = Skipped
			result.Reason = ReasonExists
			result.OutputBytes = size
			return finish(result)
		}
	}

	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	logger.Debug("job started",
		logging.String("action", job.Action.String()),
		logging.String("source", job.Record.SourcePath),
		logging.Int("track", job.Record.TrackNumber),
	)

	err := os.MkdirAll(job.OutputDir, 0o755)
	switch {
	case err != nil:
		err = fmt.Errorf("create output directory: %w", err)
	case job.Action == Reencode:
		err = d.reencode(runCtx, job)
	case job.Action == CopyThrough:
		_, err = fileutil.CopyFileVerified(runCtx, job.Record.SourcePath, job.OutputPath)
	default:
		err = fmt.Errorf("unsupported action %s", job.Action)
	}

	if err == nil {
		size, ok, statErr := fileutil.FileSize(job.OutputPath)
		switch {
		case statErr != nil:
			err = statErr
		case !ok || (size == 0 && job.Action == Reencode):
			err = errors.New("tool produced no output")
		default:
			result.OutputBytes = size
		}
	}

	if err != nil {
		_ = fileutil.RemoveIfExists(job.OutputPath)
		result.Outcome = Failed
		result.Reason = failureReason(ctx, runCtx, err)
		result.Err = services.Wrap(
			classify(ctx, runCtx, err),
			"transcode",
			job.Action.String(),
			fmt.Sprintf("%s - %s", job.Record.Artist, job.Record.Title),
			fmt.Errorf("%w: %w", ErrTranscodeFailed, err),
		)
		logging.WarnWithContext(logger, "job failed", "transcode_failed",
			logging.String(logging.FieldErrorHint, "check the source file and the decode/encode tools"),
			logging.String(logging.FieldImpact, "track omitted from the disc"),
			logging.String("source", job.Record.SourcePath),
			logging.String("reason", result.Reason),
			logging.Error(err),
		)
		return finish(result)
	}

	result.Outcome = Success
	result = finish(result)
	logger.Info("job finished",
		logging.String("action", job.Action.String()),
		logging.Int("track", job.Record.TrackNumber),
		logging.Int64("output_bytes", result.OutputBytes),
		logging.Duration("duration", result.Duration),
	)
	return result
}

func (d *Dispatcher) existingOutput(job Job) (int64, bool) {
	size, ok, err := fileutil.FileSize(job.OutputPath)
	if err != nil || !ok || size == 0 {
		return 0, false
	}
	if job.Action == CopyThrough && size != job.Record.SizeBytes {
		return 0, false
	}
	return size, true
}

func (d *Dispatcher) reencode(ctx context.Context, job Job) error {
	vars := toolexec.Vars{
		"source":  job.Record.SourcePath,
		"output":  job.OutputPath,
		"bitrate": strconv.Itoa(job.BitrateKbps),
	}
	decoder, err := toolexec.Expand(d.decode, vars)
	if err != nil {
		return err
	}
	encoder, err := toolexec.Expand(d.encode, vars)
	if err != nil {
		return err
	}
	return d.exec.Pipe(ctx, decoder, encoder)
}

func failureReason(parent, run context.Context, err error) string {
	switch {
	case parent.Err() != nil:
		return ReasonCancelled
	case errors.Is(run.Err(), context.DeadlineExceeded):
		return "timed out"
	}
	var toolErr *toolexec.Error
	if errors.As(err, &toolErr) {
		if toolErr.Stderr != "" {
			return toolErr.Stderr
		}
		return toolErr.Error()
	}
	return err.Error()
}

func classify(parent, run context.Context, err error) error {
	var toolErr *toolexec.Error
	switch {
	case parent.Err() == nil && errors.Is(run.Err(), context.DeadlineExceeded):
		return services.ErrTimeout
	case errors.As(err, &toolErr):
		return services.ErrExternalTool
	default:
		return services.ErrTransient
	}
}
