package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"burnaudio/internal/history"
)

const historyTimeLayout = "2006-01-02 15:04"

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the jobs of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withHistory(func(store *history.Store) error {
				if len(args) == 1 {
					return showRun(cmd, store, args[0])
				}
				return listRuns(cmd, store, limit)
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	return cmd
}

func listRuns(cmd *cobra.Command, store *history.Store, limit int) error {
	runs, err := store.Recent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(historyTimeLayout),
			statusLabel(run.Status),
			strings.Join(run.Playlists, ", "),
			fmt.Sprintf("%d/%d/%d", run.Succeeded, run.Skipped, run.Failed),
			formatBytes(run.ImageBytes),
			formatElapsed(run.Duration()),
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"Run", "Started", "Status", "Playlists", "Ok/Skip/Fail", "Image", "Took"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
	))
	fmt.Fprintln(out)
	return nil
}

func showRun(cmd *cobra.Command, store *history.Store, id string) error {
	run, err := store.Get(cmd.Context(), id)
	if err != nil {
		return err
	}
	jobs, err := store.Jobs(cmd.Context(), run.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	writeRunSummary(out, run)
	if len(jobs) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, []string{
			job.Playlist,
			strconv.Itoa(job.Position),
			job.SourcePath,
			job.Action,
			job.Outcome,
			formatBytes(job.OutputBytes),
			job.Reason,
		})
	}
	fmt.Fprint(out, renderTable(
		[]string{"Playlist", "#", "Source", "Action", "Outcome", "Size", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintln(out)
	return nil
}

func writeRunSummary(out io.Writer, run history.Run) {
	fmt.Fprintf(out, "Run:        %s\n", run.ID)
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(out, "Status:     %s\n", statusLabel(run.Status))
	fmt.Fprintf(out, "Playlists:  %s\n", strings.Join(run.Playlists, ", "))
	fmt.Fprintf(out, "Quality:    %s\n", run.Quality)
	if run.VolumeLabel != "" {
		fmt.Fprintf(out, "Label:      %s\n", run.VolumeLabel)
	}
	fmt.Fprintf(out, "Estimated:  %s\n", formatBytes(run.EstimatedBytes))
	if run.ImagePath != "" {
		fmt.Fprintf(out, "Image:      %s (%s)\n", run.ImagePath, formatBytes(run.ImageBytes))
	}
	fmt.Fprintf(out, "Jobs:       %d ok, %d skipped, %d failed\n", run.Succeeded, run.Skipped, run.Failed)
	fmt.Fprintf(out, "Took:       %s\n", formatElapsed(run.Duration()))
	if run.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:      [%s] %s\n", run.ErrorClass, run.ErrorMessage)
	}
	fmt.Fprintln(out)
}

func formatElapsed(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	return d.Round(time.Minute).String()
}
