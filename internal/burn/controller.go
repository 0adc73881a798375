package burn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"burnaudio/internal/capacity"
	"burnaudio/internal/config"
	"burnaudio/internal/disc"
	"burnaudio/internal/discimage"
	"burnaudio/internal/logging"
	"burnaudio/internal/services"
	"burnaudio/internal/toolexec"
)

var (
	// ErrUserAborted reports a declined confirmation. It ends the run without
	// being a failure.
	ErrUserAborted = errors.New("burn aborted by user")
	// ErrBurnFailed reports a burn tool failure.
	ErrBurnFailed = errors.New("burn failed")
	// ErrDeviceBusy reports another process holding the burner lock.
	ErrDeviceBusy = errors.New("burner is busy")
)

// Outcome summarizes a Burn call.
type Outcome struct {
	Burned      bool
	Ejected     bool
	EjectError  error
	Duration    time.Duration
	MediaStatus disc.DriveStatus
}

// MediaWaitFunc blocks until the device holds a medium.
type MediaWaitFunc func(ctx context.Context, device string, timeout time.Duration) (disc.DriveStatus, error)

// Option configures the Controller.
type Option func(*Controller)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec toolexec.Executor) Option {
	return func(c *Controller) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithEjector replaces the eject implementation.
func WithEjector(ejector disc.Ejector) Option {
	return func(c *Controller) {
		if ejector != nil {
			c.ejector = ejector
		}
	}
}

// WithConfirmer sets the confirmation gate used when burn.confirm is on.
func WithConfirmer(confirmer Confirmer) Option {
	return func(c *Controller) {
		c.confirmer = confirmer
	}
}

// WithMediaWait replaces the medium wait used when disc.wait_for_media is on.
func WithMediaWait(fn MediaWaitFunc) Option {
	return func(c *Controller) {
		if fn != nil {
			c.waitMedia = fn
		}
	}
}

// Controller performs the burn phase.
type Controller struct {
	device       string
	capacity     int64
	tool         config.Tool
	timeout      time.Duration
	confirm      bool
	waitForMedia bool
	mediaTimeout time.Duration
	lockPath     string

	exec      toolexec.Executor
	ejector   disc.Ejector
	confirmer Confirmer
	waitMedia MediaWaitFunc
	logger    *slog.Logger
}

// NewController constructs a Controller from configuration.
func NewController(cfg *config.Config, logger *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		device:       cfg.Disc.Device,
		capacity:     cfg.Disc.CapacityBytes,
		tool:         cfg.Tools.Burn,
		timeout:      time.Duration(cfg.Tools.TimeoutSeconds) * time.Second,
		confirm:      cfg.Burn.Confirm,
		waitForMedia: cfg.Disc.WaitForMedia,
		mediaTimeout: time.Duration(cfg.Disc.MediaWaitSeconds) * time.Second,
		lockPath:     cfg.LockPath(),
		exec:         toolexec.CommandExecutor{},
		ejector:      disc.NewEjector(cfg.Tools.Eject),
		logger:       logging.NewComponentLogger(logger, "burn"),
	}
	c.waitMedia = c.defaultMediaWait
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Burn writes plan.ImagePath to the medium. The returned Outcome is valid
// even when err is non-nil.
func (c *Controller) Burn(ctx context.Context, plan discimage.Plan) (Outcome, error) {
	var outcome Outcome
	logger := logging.WithContext(ctx, c.logger)

	if err := capacity.CheckActual(plan.ActualSizeBytes, c.capacity); err != nil {
		return outcome, err
	}

	if c.confirm {
		if c.confirmer == nil {
			return outcome, services.Wrap(services.ErrConfiguration, "burn", "confirm",
				"confirmation required but no terminal is attached; pass --yes", nil)
		}
		ok, err := c.confirmer.Confirm(ctx, plan)
		if err != nil {
			return outcome, fmt.Errorf("confirm burn: %w", err)
		}
		if !ok {
			logger.Info("burn declined", logging.String("image", plan.ImagePath))
			return outcome, ErrUserAborted
		}
	}

	if err := os.MkdirAll(filepath.Dir(c.lockPath), 0o755); err != nil {
		return outcome, fmt.Errorf("create lock directory: %w", err)
	}
	lock := flock.New(c.lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return outcome, fmt.Errorf("acquire burner lock: %w", err)
	}
	if !locked {
		return outcome, fmt.Errorf("%w: %s is locked by another run (%s)", ErrDeviceBusy, c.device, c.lockPath)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Debug("release burner lock failed", logging.Error(err))
		}
	}()

	if c.waitForMedia {
		logger.Info("waiting for medium", logging.String("device", c.device))
		status, err := c.waitMedia(ctx, c.device, c.mediaTimeout)
		outcome.MediaStatus = status
		if err != nil {
			return outcome, services.Wrap(services.ErrTimeout, "burn", "wait for medium", c.device, err)
		}
	}

	start := time.Now()
	burnErr := c.runBurnTool(ctx, plan, logger)
	outcome.Duration = time.Since(start)
	outcome.Burned = burnErr == nil

	// Eject regardless of the burn result.
	ejectCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	if err := c.ejector.Eject(ejectCtx, c.device); err != nil {
		outcome.EjectError = err
		logging.WarnWithContext(logger, "eject failed", "eject_failed",
			logging.Error(err),
			logging.Alert("eject_failed"),
			logging.String("device", c.device),
			logging.String(logging.FieldErrorHint, "open the tray manually"),
			logging.String(logging.FieldImpact, "disc remains in the drive"),
		)
	} else {
		outcome.Ejected = true
	}
	cancel()

	if burnErr != nil {
		return outcome, burnErr
	}
	logger.Info("burn complete",
		logging.String("image", plan.ImagePath),
		logging.String("device", c.device),
		logging.Duration("duration", outcome.Duration),
	)
	return outcome, nil
}

func (c *Controller) runBurnTool(ctx context.Context, plan discimage.Plan, logger *slog.Logger) error {
	cmd, err := toolexec.Expand(c.tool, toolexec.Vars{
		"device": c.device,
		"image":  plan.ImagePath,
		"label":  plan.VolumeLabel,
	})
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "burn", "expand", "burn tool",
			fmt.Errorf("%w: %w", ErrBurnFailed, err))
	}

	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger.Info("burning", logging.String("command", cmd.String()))
	if err := c.exec.Run(runCtx, cmd, func(line string) {
		logger.Debug("burn tool output", logging.String("line", line))
	}); err != nil {
		marker := services.ErrExternalTool
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		return services.Wrap(marker, "burn", cmd.Path, "burn tool failed",
			fmt.Errorf("%w: %w", ErrBurnFailed, err))
	}
	return nil
}

func (c *Controller) defaultMediaWait(ctx context.Context, device string, timeout time.Duration) (disc.DriveStatus, error) {
	monitor := disc.NewMediaMonitor(device, c.logger)
	if err := monitor.Start(ctx); err != nil {
		return disc.DriveStatusNoInfo, err
	}
	defer monitor.Stop()

	waiter := disc.MediaWaiter{Device: device, Events: monitor.Events()}
	return waiter.Wait(ctx, timeout)
}
