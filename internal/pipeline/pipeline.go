package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"burnaudio/internal/archive"
	"burnaudio/internal/burn"
	"burnaudio/internal/capacity"
	"burnaudio/internal/catalog"
	"burnaudio/internal/config"
	"burnaudio/internal/discimage"
	"burnaudio/internal/history"
	"burnaudio/internal/logging"
	"burnaudio/internal/notifications"
	"burnaudio/internal/services"
	"burnaudio/internal/staging"
	"burnaudio/internal/textutil"
	"burnaudio/internal/transcode"
	"burnaudio/internal/workerpool"
)

var (
	// ErrNoPlaylists reports that none of the requested playlists resolved
	// to a playlist with available tracks. No image is built.
	ErrNoPlaylists = errors.New("no valid playlists")
	// ErrTranscodeAborted reports that the pool was aborted and assembly was skipped.
	ErrTranscodeAborted = errors.New("transcode aborted")
	// ErrNothingToBurn reports that every job failed so the image would be empty.
	ErrNothingToBurn = errors.New("no tracks transcoded")
)

// Runner executes one transcode job.
type Runner interface {
	Run(ctx context.Context, job transcode.Job) transcode.Result
}

// Assembler builds the disc image.
type Assembler interface {
	Assemble(ctx context.Context, plan discimage.Plan) (discimage.Plan, error)
}

// Burner writes the image to the medium.
type Burner interface {
	Burn(ctx context.Context, plan discimage.Plan) (burn.Outcome, error)
}

// Recorder persists finished runs.
type Recorder interface {
	Record(ctx context.Context, run history.Run, jobs []history.Job) error
}

// ProgressFunc observes transcode progress. done counts finished jobs out of
// total dispatched jobs. Calls are serialized.
type ProgressFunc func(done, total int, result transcode.Result)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRunner replaces the transcode job runner.
func WithRunner(r Runner) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.runner = r
		}
	}
}

// WithAssembler replaces the image assembler.
func WithAssembler(a Assembler) Option {
	return func(p *Pipeline) {
		if a != nil {
			p.assembler = a
		}
	}
}

// WithBurner replaces the burn controller.
func WithBurner(b Burner) Option {
	return func(p *Pipeline) {
		if b != nil {
			p.burner = b
		}
	}
}

// WithUploader enables archive upload of assembled images.
func WithUploader(u archive.Uploader) Option {
	return func(p *Pipeline) {
		p.uploader = u
	}
}

// WithNotifier sets the notification service.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) {
		if n != nil {
			p.notifier = n
		}
	}
}

// WithRecorder enables run history persistence.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		p.recorder = r
	}
}

// WithProgress registers a transcode progress observer.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// WithClock overrides the time source used for volume labels.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline runs burn requests against a catalog source.
type Pipeline struct {
	cfg       *config.Config
	catalog   *catalog.Catalog
	planner   *transcode.Dispatcher
	runner    Runner
	assembler Assembler
	burner    Burner
	uploader  archive.Uploader
	notifier  notifications.Service
	recorder  Recorder
	progress  ProgressFunc
	now       func() time.Time
	logger    *slog.Logger
}

// New constructs a Pipeline. Components not overridden by options are built
// from cfg.
func New(cfg *config.Config, source catalog.Source, logger *slog.Logger, opts ...Option) *Pipeline {
	dispatcher := transcode.NewDispatcher(cfg, logger)
	p := &Pipeline{
		cfg:       cfg,
		catalog:   catalog.New(source, logger),
		planner:   dispatcher,
		runner:    dispatcher,
		assembler: discimage.NewAssembler(cfg, logger),
		burner:    burn.NewController(cfg, logger),
		notifier:  notifications.NewService(nil),
		now:       time.Now,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes req. The Report is populated as far as the run progressed,
// also when err is non-nil. A declined confirmation returns
// burn.ErrUserAborted.
func (p *Pipeline) Run(ctx context.Context, req Request) (report Report, err error) {
	report = Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	ctx = services.WithRunID(ctx, report.RunID)
	logger := logging.WithContext(ctx, p.logger)

	defer func() {
		report.FinishedAt = time.Now()
		report.Err = err
		if report.Status == "" {
			report.Status = history.StatusFailed
		}
		p.record(ctx, logger, report)
	}()

	quality := req.Quality
	if quality == "" {
		quality = p.cfg.Transcode.Quality
	}
	report.Quality = quality
	bitrate, err := transcode.Bitrate(quality)
	if err != nil {
		return report, services.Wrap(services.ErrValidation, "setup", "quality", quality, err)
	}

	if hours := p.cfg.Staging.StaleHours; hours > 0 {
		staging.CleanStale(ctx, p.cfg.Paths.StagingDir, time.Duration(hours)*time.Hour, logger)
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.Any("playlists", req.Playlists),
		logging.String("quality", quality),
		logging.Bool("dry_run", req.DryRun),
	)

	if err := p.selectPlaylists(services.WithStage(ctx, "catalog"), req, &report); err != nil {
		report.Status = history.StatusNoPlaylists
		return report, err
	}

	if err := p.gate(services.WithStage(ctx, "capacity"), &report); err != nil {
		report.Status = history.StatusCapacityExceeded
		return report, err
	}

	workdir, owned, err := p.prepareWorkdir(req)
	if err != nil {
		return report, err
	}
	report.Workdir = workdir
	keepImage := p.cfg.Staging.KeepImage || req.DryRun
	defer func() {
		p.cleanup(logger, report, owned, keepImage)
	}()

	if err := p.transcode(services.WithStage(ctx, "transcode"), workdir, bitrate, &report); err != nil {
		if errors.Is(err, ErrTranscodeAborted) {
			report.Status = history.StatusTranscodeAborted
		}
		p.notifyError(ctx, logger, err, "transcode")
		return report, err
	}

	if err := p.assemble(services.WithStage(ctx, "assembly"), workdir, &report); err != nil {
		if errors.Is(err, capacity.ErrCapacityExceeded) {
			report.Status = history.StatusCapacityExceeded
		} else {
			p.notifyError(ctx, logger, err, "assembly")
		}
		return report, err
	}

	p.upload(services.WithStage(ctx, "archive"), logger, &report)

	summary := p.notificationSummary(report)
	if req.DryRun {
		report.Status = history.StatusImageReady
		logger.Info("dry run complete; image kept",
			logging.String(logging.FieldEventType, "image_ready"),
			logging.String("image", report.Plan.ImagePath),
			logging.String("size", humanize.Bytes(uint64(report.Plan.ActualSizeBytes))),
		)
		if nErr := p.notifier.NotifyImageReady(ctx, report.Plan.ImagePath, summary); nErr != nil {
			logger.Debug("image ready notification failed", logging.Error(nErr))
		}
		return report, nil
	}

	burnCtx := services.WithStage(ctx, "burn")
	outcome, err := p.burner.Burn(burnCtx, report.Plan)
	report.Burn = outcome
	switch {
	case errors.Is(err, burn.ErrUserAborted):
		report.Status = history.StatusUserAborted
		return report, err
	case errors.Is(err, capacity.ErrCapacityExceeded):
		report.Status = history.StatusCapacityExceeded
		return report, err
	case err != nil:
		p.notifyError(ctx, logger, err, "burn")
		return report, err
	}

	report.Status = history.StatusBurned
	summary.Duration = time.Since(report.StartedAt)
	if nErr := p.notifier.NotifyBurnCompleted(ctx, report.Plan.VolumeLabel, summary); nErr != nil {
		logger.Debug("burn completed notification failed", logging.Error(nErr))
	}
	logger.Info("run complete",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String("label", report.Plan.VolumeLabel),
		logging.Int("tracks", report.Summary.Succeeded+report.Summary.Skipped),
		logging.Int("failed", report.Summary.Failed),
		logging.Bool("ejected", outcome.Ejected),
		logging.Duration("duration", time.Since(report.StartedAt)),
	)
	return report, nil
}

func (p *Pipeline) selectPlaylists(ctx context.Context, req Request, report *Report) error {
	logger := logging.WithContext(ctx, p.logger)
	selections, notFound, err := p.catalog.Select(ctx, req.Playlists)
	report.NotFound = notFound
	if err != nil {
		return services.Wrap(services.ErrTransient, "catalog", "select", "query library", err)
	}

	usable := selections[:0]
	for _, sel := range selections {
		if len(sel.Tracks) == 0 {
			logging.WarnWithContext(logger, "playlist has no available tracks", "playlist_empty",
				logging.String(logging.FieldPlaylist, sel.Name),
				logging.Int("unavailable", len(sel.Unavailable)),
				logging.String(logging.FieldErrorHint, "re-import the playlist or restore its files"),
				logging.String(logging.FieldImpact, "playlist skipped"),
			)
			continue
		}
		usable = append(usable, sel)
	}
	report.Selections = usable

	if len(usable) == 0 {
		return services.Wrap(services.ErrNotFound, "catalog", "select",
			fmt.Sprintf("%d requested", len(req.Playlists)), ErrNoPlaylists)
	}
	return nil
}

func (p *Pipeline) gate(ctx context.Context, report *Report) error {
	logger := logging.WithContext(ctx, p.logger)
	report.Estimate = capacity.EstimateSelections(report.Selections)
	logger.Info("capacity estimated",
		logging.String(logging.FieldEventType, "capacity_estimate"),
		logging.Int64("raw_bytes", report.Estimate.RawBytes),
		logging.Int64("estimated_bytes", report.Estimate.EstimatedBytes),
		logging.Int64("capacity_bytes", p.cfg.Disc.CapacityBytes),
	)
	err := capacity.Check(report.Estimate, p.cfg.Disc.CapacityBytes)
	if err == nil {
		return nil
	}
	p.reportCapacity(ctx, logger, err)
	return err
}

func (p *Pipeline) reportCapacity(ctx context.Context, logger *slog.Logger, err error) {
	var exceeded *capacity.ExceededError
	if !errors.As(err, &exceeded) {
		return
	}
	logging.ErrorWithContext(logger, "selection does not fit on the medium", "capacity_exceeded",
		logging.String("phase", string(exceeded.Phase)),
		logging.Int64("bytes", exceeded.Bytes),
		logging.Int64("capacity_bytes", exceeded.Capacity),
		logging.String(logging.FieldErrorHint, "drop a playlist or choose a lower quality"),
	)
	if nErr := p.notifier.NotifyCapacityExceeded(ctx, string(exceeded.Phase), exceeded.Bytes, exceeded.Capacity); nErr != nil {
		logger.Debug("capacity notification failed", logging.Error(nErr))
	}
}

func (p *Pipeline) prepareWorkdir(req Request) (string, bool, error) {
	if req.Workdir != "" {
		dir, err := config.ExpandPath(req.Workdir)
		if err != nil {
			return "", false, err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", false, fmt.Errorf("create workdir: %w", err)
		}
		return dir, false, nil
	}
	dir, err := staging.CreateWorkdir(p.cfg.Paths.StagingDir)
	if err != nil {
		return "", false, err
	}
	return dir, true, nil
}

// playlistDirs names one output directory per selection. Names that collide
// after sanitizing, compared case-insensitively, get a " (N)" suffix.
func playlistDirs(selections []catalog.Selection) []string {
	folder := cases.Fold()
	used := make(map[string]struct{}, len(selections))
	dirs := make([]string, len(selections))
	for i, sel := range selections {
		base := textutil.SanitizeFileName(sel.Name)
		if base == "" {
			base = "Playlist"
		}
		name := base
		for n := 2; ; n++ {
			if _, taken := used[folder.String(name)]; !taken {
				break
			}
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		used[folder.String(name)] = struct{}{}
		dirs[i] = name
	}
	return dirs
}

func (p *Pipeline) transcode(ctx context.Context, workdir string, bitrate int, report *Report) error {
	logger := logging.WithContext(ctx, p.logger)

	var (
		jobs    []transcode.Job
		results []transcode.Result
	)
	dirs := playlistDirs(report.Selections)
	for i, sel := range report.Selections {
		outputDir := filepath.Join(workdir, dirs[i])
		planned, skipped := p.planner.Plan(sel, outputDir, bitrate)
		jobs = append(jobs, planned...)
		results = append(results, skipped...)
		for _, s := range skipped {
			logging.WarnWithContext(logger, "duplicate output path", "duplicate_output",
				logging.String(logging.FieldPlaylist, sel.Name),
				logging.Int("position", s.Job.Position),
				logging.String("output", s.OutputPath),
				logging.String(logging.FieldErrorHint, "two tracks share artist, title and number"),
				logging.String(logging.FieldImpact, "track omitted from the disc"),
			)
		}
	}

	logger.Info("transcode started",
		logging.String(logging.FieldEventType, "transcode_start"),
		logging.Int("jobs", len(jobs)),
		logging.Int("workers", p.cfg.Transcode.Workers),
	)

	var (
		done    int
		aborted atomic.Bool
		pool    *workerpool.Pool[transcode.Job, transcode.Result]
	)
	hook := func(r transcode.Result) {
		done++
		if p.progress != nil {
			p.progress(done, len(jobs), r)
		}
		if r.Outcome == transcode.Failed && r.Reason != transcode.ReasonCancelled && p.cfg.Transcode.AbortOnFailure {
			if aborted.CompareAndSwap(false, true) {
				logging.WarnWithContext(logger, "aborting remaining jobs", "transcode_abort",
					logging.String("source", r.Job.Record.SourcePath),
					logging.Alert("transcode_abort"),
					logging.Error(r.Err),
					logging.String(logging.FieldErrorHint, "disable transcode.abort_on_failure to burn the remaining tracks"),
					logging.String(logging.FieldImpact, "no image will be built"),
				)
				pool.Abort()
			}
		}
	}
	pool = workerpool.New(ctx, p.cfg.Transcode.Workers, p.runner.Run, workerpool.WithResultHook(hook))
	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			return fmt.Errorf("submit job: %w", err)
		}
	}
	results = append(results, pool.Wait()...)

	sortResults(results, report.Selections)
	report.Results = results
	report.Summary = transcode.Summarize(results)

	logger.Info("transcode finished",
		logging.String(logging.FieldEventType, "transcode_complete"),
		logging.Int("succeeded", report.Summary.Succeeded),
		logging.Int("skipped", report.Summary.Skipped),
		logging.Int("failed", report.Summary.Failed),
		logging.String("output_size", humanize.Bytes(uint64(report.Summary.OutputBytes))),
	)

	if aborted.Load() || ctx.Err() != nil {
		cause := ctx.Err()
		if cause == nil {
			cause = errors.New("a job failed with transcode.abort_on_failure set")
		}
		return services.Wrap(services.ErrExternalTool, "transcode", "pool",
			fmt.Sprintf("%d of %d jobs failed", report.Summary.Failed, len(jobs)),
			fmt.Errorf("%w: %w", ErrTranscodeAborted, cause))
	}

	inOutput := 0
	for _, r := range results {
		if r.InOutput() {
			inOutput++
		}
	}
	if inOutput == 0 {
		return services.Wrap(services.ErrExternalTool, "transcode", "pool",
			fmt.Sprintf("%d jobs", len(jobs)), ErrNothingToBurn)
	}
	return nil
}

func (p *Pipeline) assemble(ctx context.Context, workdir string, report *Report) error {
	logger := logging.WithContext(ctx, p.logger)
	label := discimage.VolumeLabel(p.cfg.Disc.VolumePrefix, p.now())
	plan, err := p.assembler.Assemble(ctx, discimage.NewPlan(workdir, p.cfg.Paths.ImageDir, label))
	if err != nil {
		return err
	}
	report.Plan = plan

	if err := capacity.CheckActual(plan.ActualSizeBytes, p.cfg.Disc.CapacityBytes); err != nil {
		p.reportCapacity(ctx, logger, err)
		return err
	}
	return nil
}

func (p *Pipeline) upload(ctx context.Context, logger *slog.Logger, report *Report) {
	if p.uploader == nil {
		return
	}
	receipt, err := p.uploader.Upload(ctx, report.Plan.ImagePath, map[string]string{
		"run-id":    report.RunID,
		"label":     report.Plan.VolumeLabel,
		"playlists": textutil.TruncateBytes(strings.Join(report.PlaylistNames(), ", "), 1024),
	})
	if err != nil {
		logging.WarnWithContext(logger, "archive upload failed", "archive_upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check archive endpoint and credentials"),
			logging.String(logging.FieldImpact, "image not archived; burn continues"),
		)
		return
	}
	report.Archive = &receipt
}

func (p *Pipeline) notificationSummary(report Report) notifications.RunSummary {
	return notifications.RunSummary{
		Playlists:  report.PlaylistNames(),
		Tracks:     report.Summary.Succeeded + report.Summary.Skipped,
		Failed:     report.Summary.Failed,
		ImageBytes: report.Plan.ActualSizeBytes,
		Duration:   time.Since(report.StartedAt),
	}
}

func (p *Pipeline) notifyError(ctx context.Context, logger *slog.Logger, err error, stage string) {
	if nErr := p.notifier.NotifyError(ctx, err, stage); nErr != nil {
		logger.Debug("error notification failed", logging.Error(nErr))
	}
}

// cleanup removes the working directory it created unless keep_workdir is
// set. The image is removed only after a successful burn.
func (p *Pipeline) cleanup(logger *slog.Logger, report Report, ownedWorkdir, keepImage bool) {
	if ownedWorkdir && !p.cfg.Staging.KeepWorkdir && report.Workdir != "" {
		if err := os.RemoveAll(report.Workdir); err != nil {
			logging.WarnWithContext(logger, "failed to remove workdir", "workdir_cleanup_failed",
				logging.String("path", report.Workdir),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed until stale cleanup"),
			)
		}
	}
	if report.Status == history.StatusBurned && !keepImage && report.Plan.ImagePath != "" {
		if err := os.Remove(report.Plan.ImagePath); err != nil && !os.IsNotExist(err) {
			logging.WarnWithContext(logger, "failed to remove image", "image_cleanup_failed",
				logging.String("path", report.Plan.ImagePath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check image_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)
		}
	}
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, report Report) {
	if p.recorder == nil {
		return
	}
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := p.recorder.Record(recordCtx, report.historyRun(), report.historyJobs()); err != nil {
		logging.WarnWithContext(logger, "failed to record run history", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
			logging.String(logging.FieldImpact, "run missing from burnaudio history"),
		)
	}
}
