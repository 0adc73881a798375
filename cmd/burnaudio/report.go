package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"burnaudio/internal/history"
	"burnaudio/internal/pipeline"
	"burnaudio/internal/transcode"
)

// printReport writes the phase-by-phase outcome of a run.
func printReport(out io.Writer, report pipeline.Report) {
	for _, err := range report.NotFound {
		fmt.Fprintf(out, "Skipped: %v\n", err)
	}
	for _, trackErr := range report.Unavailable() {
		fmt.Fprintf(out, "Unavailable: %v\n", trackErr)
	}

	if len(report.Selections) > 0 {
		fmt.Fprintf(out, "Selected %d playlists, %s source, %s estimated\n",
			len(report.Selections),
			formatBytes(report.Estimate.RawBytes),
			formatBytes(report.Estimate.EstimatedBytes))
	}

	if len(report.Results) > 0 {
		fmt.Fprintln(out, renderJobTable(report.Results, report.Summary))
	}

	if report.Plan.ActualSizeBytes > 0 {
		fmt.Fprintf(out, "Image: %s (%s, label %s)\n",
			report.Plan.ImagePath, formatBytes(report.Plan.ActualSizeBytes), report.Plan.VolumeLabel)
	}
	if report.Archive != nil {
		fmt.Fprintf(out, "Archived: %s\n", report.Archive.Location())
	}
	if report.Burn.Burned {
		fmt.Fprintf(out, "Burned in %s\n", report.Burn.Duration.Round(time.Second))
		if report.Burn.EjectError != nil {
			fmt.Fprintf(out, "Eject failed: %v\n", report.Burn.EjectError)
		}
	}
	if report.Status != "" {
		fmt.Fprintf(out, "Run %s: %s\n", shortID(report.RunID), statusLabel(report.Status))
	}
}

func renderJobTable(results []transcode.Result, summary transcode.Summary) string {
	rows := make([][]string, 0, len(results))
	for _, res := range results {
		detail := res.Reason
		if res.Err != nil && detail == "" {
			detail = res.Err.Error()
		}
		size := ""
		if res.InOutput() {
			size = formatBytes(res.OutputBytes)
		}
		rows = append(rows, []string{
			res.Job.Playlist,
			strconv.Itoa(res.Job.Position),
			displayTitle(res),
			res.Job.Action.String(),
			res.Outcome.String(),
			size,
			detail,
		})
	}
	footer := []string{
		"Total", "", "", "",
		fmt.Sprintf("%d ok / %d skipped / %d failed", summary.Succeeded, summary.Skipped, summary.Failed),
		formatBytes(summary.OutputBytes),
		"",
	}
	return renderTable(
		[]string{"Playlist", "#", "Track", "Action", "Outcome", "Size", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		footer...,
	)
}

func displayTitle(res transcode.Result) string {
	rec := res.Job.Record
	switch {
	case rec.Artist != "" && rec.Title != "":
		return rec.Artist + " - " + rec.Title
	case rec.Title != "":
		return rec.Title
	default:
		return rec.SourcePath
	}
}

func statusLabel(status history.Status) string {
	switch status {
	case history.StatusBurned:
		return "Burned"
	case history.StatusImageReady:
		return "Image ready"
	case history.StatusUserAborted:
		return "Cancelled"
	case history.StatusCapacityExceeded:
		return "Capacity exceeded"
	case history.StatusNoPlaylists:
		return "No playlists"
	case history.StatusTranscodeAborted:
		return "Transcode aborted"
	case history.StatusFailed:
		return "Failed"
	default:
		return string(status)
	}
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(n))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
