package pipeline

import (
	"cmp"
	"slices"
	"time"

	"burnaudio/internal/archive"
	"burnaudio/internal/burn"
	"burnaudio/internal/capacity"
	"burnaudio/internal/catalog"
	"burnaudio/internal/discimage"
	"burnaudio/internal/history"
	"burnaudio/internal/services"
	"burnaudio/internal/transcode"
)

// Request describes one burn run.
type Request struct {
	Playlists []string
	// Quality overrides transcode.quality when set.
	Quality string
	// DryRun stops after assembly and keeps the image.
	DryRun bool
	// Workdir reuses an existing working directory instead of creating a
	// fresh one. It is never removed by the run.
	Workdir string
}

// Report is the aggregated outcome of a run.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     history.Status
	Quality    string

	Selections []catalog.Selection
	NotFound   []error
	Estimate   capacity.Estimate

	Workdir string
	Results []transcode.Result
	Summary transcode.Summary

	Plan    discimage.Plan
	Archive *archive.Receipt
	Burn    burn.Outcome
	Err     error
}

// PlaylistNames returns the catalog spelling of every selected playlist.
func (r Report) PlaylistNames() []string {
	names := make([]string, 0, len(r.Selections))
	for _, sel := range r.Selections {
		names = append(names, sel.Name)
	}
	return names
}

// Unavailable returns every per-track lookup error across the selection.
func (r Report) Unavailable() []catalog.TrackError {
	var out []catalog.TrackError
	for _, sel := range r.Selections {
		out = append(out, sel.Unavailable...)
	}
	return out
}

// Failed returns the failed job results.
func (r Report) Failed() []transcode.Result {
	var out []transcode.Result
	for _, res := range r.Results {
		if res.Outcome == transcode.Failed {
			out = append(out, res)
		}
	}
	return out
}

// sortResults orders results by playlist selection order then track position.
func sortResults(results []transcode.Result, selections []catalog.Selection) {
	order := make(map[string]int, len(selections))
	for i, sel := range selections {
		order[sel.Name] = i
	}
	slices.SortStableFunc(results, func(a, b transcode.Result) int {
		if c := cmp.Compare(order[a.Job.Playlist], order[b.Job.Playlist]); c != 0 {
			return c
		}
		return cmp.Compare(a.Job.Position, b.Job.Position)
	})
}

func (r Report) historyRun() history.Run {
	run := history.Run{
		ID:             r.RunID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Status:         r.Status,
		Playlists:      r.PlaylistNames(),
		Quality:        r.Quality,
		VolumeLabel:    r.Plan.VolumeLabel,
		ImagePath:      r.Plan.ImagePath,
		ImageBytes:     r.Plan.ActualSizeBytes,
		EstimatedBytes: r.Estimate.EstimatedBytes,
		Succeeded:      r.Summary.Succeeded,
		Skipped:        r.Summary.Skipped,
		Failed:         r.Summary.Failed,
	}
	if r.Err != nil {
		run.ErrorClass = services.FailureClass(r.Err)
		run.ErrorMessage = r.Err.Error()
	}
	return run
}

func (r Report) historyJobs() []history.Job {
	jobs := make([]history.Job, 0, len(r.Results))
	for _, res := range r.Results {
		jobs = append(jobs, history.Job{
			Playlist:    res.Job.Playlist,
			Position:    res.Job.Position,
			SourcePath:  res.Job.Record.SourcePath,
			OutputPath:  res.OutputPath,
			Action:      res.Job.Action.String(),
			Outcome:     res.Outcome.String(),
			Reason:      res.Reason,
			OutputBytes: res.OutputBytes,
			Duration:    res.Duration,
		})
	}
	return jobs
}
