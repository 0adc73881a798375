package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"burnaudio/internal/archive"
	"burnaudio/internal/burn"
	"burnaudio/internal/catalog"
	"burnaudio/internal/config"
	"burnaudio/internal/deps"
	"burnaudio/internal/history"
	"burnaudio/internal/notifications"
	"burnaudio/internal/pipeline"
	"burnaudio/internal/preflight"
	"burnaudio/internal/services"
)

type burnOptions struct {
	quality   string
	assumeYes bool
	noBurn    bool
	workdir   string
}

func newBurnCommand(ctx *commandContext) *cobra.Command {
	var opts burnOptions

	cmd := &cobra.Command{
		Use:   "burn [flags] <playlist>...",
		Short: "Transcode playlists and burn them to one disc",
		Long: `Resolve the named playlists, check that they fit on the medium, transcode
every track into a fresh staging directory, build an ISO image and burn it.

Playlists that cannot be found are reported and skipped. The run stops before
any work when the selection would not fit. Use --no-burn to stop after the
image is built; the image is kept in the configured image directory.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return runBurn(cmd, ctx, cfg, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.quality, "quality", "q", "", "Transcode quality tier (low, med, high)")
	cmd.Flags().BoolVarP(&opts.assumeYes, "yes", "y", false, "Burn without asking for confirmation")
	cmd.Flags().BoolVar(&opts.noBurn, "no-burn", false, "Stop after building the image")
	cmd.Flags().StringVar(&opts.workdir, "workdir", "", "Reuse an existing working directory")

	return cmd
}

func runBurn(cmd *cobra.Command, ctx *commandContext, base *config.Config, playlists []string, opts burnOptions) error {
	cfg := *base
	if opts.assumeYes {
		cfg.Burn.Confirm = false
	}
	if strings.TrimSpace(opts.workdir) != "" {
		expanded, err := config.ExpandPath(opts.workdir)
		if err != nil {
			return fmt.Errorf("resolve workdir: %w", err)
		}
		opts.workdir = expanded
	}

	if err := checkReadiness(cmd, &cfg, opts.noBurn); err != nil {
		return err
	}

	logger, err := ctx.ensureLogger()
	if err != nil {
		return err
	}

	uploader, err := archive.NewUploader(cfg.Archive, logger)
	if err != nil {
		return err
	}

	var burnOpts []burn.Option
	if cfg.Burn.Confirm && isInteractive(cmd.InOrStdin()) {
		burnOpts = append(burnOpts, burn.WithConfirmer(burn.PromptConfirmer{
			In:  cmd.InOrStdin(),
			Out: cmd.OutOrStdout(),
		}))
	}

	progress := newTranscodeProgress(cmd.ErrOrStderr())

	return ctx.withLibrary(func(lib *catalog.Library) error {
		return ctx.withHistory(func(store *history.Store) error {
			p := pipeline.New(&cfg, lib, logger,
				pipeline.WithBurner(burn.NewController(&cfg, logger, burnOpts...)),
				pipeline.WithRecorder(store),
				pipeline.WithUploader(uploader),
				pipeline.WithNotifier(notifications.NewService(&cfg)),
				pipeline.WithProgress(progress.observe),
			)

			report, runErr := p.Run(cmd.Context(), pipeline.Request{
				Playlists: playlists,
				Quality:   opts.quality,
				DryRun:    opts.noBurn,
				Workdir:   opts.workdir,
			})
			progress.finish()

			printReport(cmd.OutOrStdout(), report)
			if errors.Is(runErr, burn.ErrUserAborted) {
				fmt.Fprintf(cmd.OutOrStdout(), "Burn cancelled; image kept at %s\n", report.Plan.ImagePath)
				return nil
			}
			return runErr
		})
	})
}

// checkReadiness fails fast on inaccessible directories or missing tools.
// The burner itself is only required when the run will burn.
func checkReadiness(cmd *cobra.Command, cfg *config.Config, noBurn bool) error {
	if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, result := range failed {
			details = append(details, fmt.Sprintf("%s (%s)", result.Name, result.Detail))
		}
		return services.Wrap(services.ErrConfiguration, "preflight", "check directories",
			strings.Join(details, ", "), nil)
	}

	statuses := preflight.CheckSystemDeps(cfg)
	if noBurn {
		filtered := statuses[:0]
		for _, status := range statuses {
			if status.Name == "Burner" {
				continue
			}
			filtered = append(filtered, status)
		}
		statuses = filtered
	}
	return deps.Require(statuses)
}
