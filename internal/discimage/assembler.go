// Package discimage builds the ISO 9660/Joliet image that is written to disc.
package discimage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"burnaudio/internal/config"
	"burnaudio/internal/fileutil"
	"burnaudio/internal/logging"
	"burnaudio/internal/services"
	"burnaudio/internal/textutil"
	"burnaudio/internal/toolexec"
)

// ErrAssemblyFailed reports an image tool failure or a missing image.
var ErrAssemblyFailed = errors.New("image assembly failed")

// MaxVolumeLabel is the ISO 9660 volume identifier limit.
const MaxVolumeLabel = 32

// Plan describes an image build and, after Assemble, its result.
type Plan struct {
	SourceDir       string
	ImagePath       string
	VolumeLabel     string
	ActualSizeBytes int64
}

// VolumeLabel returns "{prefix}-YYYY-MM-DD" for now in UTC, truncated to the
// ISO 9660 limit.
func VolumeLabel(prefix string, now time.Time) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "BurnAudio"
	}
	label := prefix + "-" + now.UTC().Format("2006-01-02")
	return textutil.TruncateBytes(label, MaxVolumeLabel)
}

// NewPlan lays out an image for sourceDir under imageDir.
func NewPlan(sourceDir, imageDir, label string) Plan {
	name := textutil.SanitizeFileName(label)
	if name == "" {
		name = "burnaudio"
	}
	return Plan{
		SourceDir:   sourceDir,
		ImagePath:   filepath.Join(imageDir, name+".iso"),
		VolumeLabel: label,
	}
}

// Option configures the Assembler.
type Option func(*Assembler)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolexec.Executor) Option {
	return func(a *Assembler) {
		if exec != nil {
			a.exec = exec
		}
	}
}

// Assembler runs the image tool.
type Assembler struct {
	tool    config.Tool
	timeout time.Duration
	exec    toolexec.Executor
	logger  *slog.Logger
}

// NewAssembler constructs an Assembler from configuration.
func NewAssembler(cfg *config.Config, logger *slog.Logger, opts ...Option) *Assembler {
	a := &Assembler{
		tool:    cfg.Tools.Image,
		timeout: time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
		exec:    toolexec.CommandExecutor{},
		logger:  logging.NewComponentLogger(logger, "discimage"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Assemble removes any stale image at plan.ImagePath, builds a new one from
// plan.SourceDir and returns plan with ActualSizeBytes taken from the file.
func (a *Assembler) Assemble(ctx context.Context, plan Plan) (Plan, error) {
	logger := logging.WithContext(ctx, a.logger)

	if info, err := os.Stat(plan.SourceDir); err != nil || !info.IsDir() {
		return plan, services.Wrap(services.ErrValidation, "assemble", "source", plan.SourceDir,
			fmt.Errorf("%w: source directory missing", ErrAssemblyFailed))
	}
	if err := os.MkdirAll(filepath.Dir(plan.ImagePath), 0o755); err != nil {
		return plan, fmt.Errorf("create image directory: %w", err)
	}
	if err := fileutil.RemoveIfExists(plan.ImagePath); err != nil {
		return plan, fmt.Errorf("remove stale image: %w", err)
	}

	cmd, err := toolexec.Expand(a.tool, toolexec.Vars{
		"label": plan.VolumeLabel,
		"image": plan.ImagePath,
		"dir":   plan.SourceDir,
	})
	if err != nil {
		return plan, services.Wrap(services.ErrConfiguration, "assemble", "expand", "image tool", err)
	}

	runCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	logger.Info("building disc image",
		logging.String("label", plan.VolumeLabel),
		logging.String("image", plan.ImagePath),
	)
	if err := a.exec.Run(runCtx, cmd, func(line string) {
		logger.Debug("image tool output", logging.String("line", line))
	}); err != nil {
		_ = fileutil.RemoveIfExists(plan.ImagePath)
		marker := services.ErrExternalTool
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return plan, services.Wrap(marker, "assemble", cmd.Path, "image tool failed",
			fmt.Errorf("%w: %w", ErrAssemblyFailed, err))
	}

	size, ok, err := fileutil.FileSize(plan.ImagePath)
	if err != nil {
		return plan, fmt.Errorf("%w: stat image: %w", ErrAssemblyFailed, err)
	}
	if !ok {
		return plan, services.Wrap(services.ErrExternalTool, "assemble", cmd.Path, "image tool wrote no file",
			ErrAssemblyFailed)
	}
	plan.ActualSizeBytes = size

	logger.Info("disc image ready",
		logging.String("image", plan.ImagePath),
		logging.String("size", humanize.Bytes(uint64(size))),
		logging.Int64("size_bytes", size),
		logging.Duration("duration", time.Since(start)),
	)
	return plan, nil
}
