package transcode

import (
	"errors"
	"fmt"
	"time"

	"burnaudio/internal/catalog"
)

// ErrTranscodeFailed marks a job that did not produce its output.
var ErrTranscodeFailed = errors.New("transcode failed")

// Skip and failure reasons with fixed wording.
const (
	ReasonExists        = "exists"
	ReasonDuplicatePath = "duplicate output path"
	ReasonCancelled     = "cancelled"
)

// Job is one track conversion. Each Job is dispatched exactly once.
type Job struct {
	ID          string
	Playlist    string
	Position    int
	Record      catalog.TrackRecord
	OutputDir   string
	OutputPath  string
	BitrateKbps int
	Action      Action
}

// Outcome is the terminal state of a Job.
type Outcome int

const (
	Success Outcome = iota
	Skipped
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result reports how a Job ended.
type Result struct {
	Job         Job
	Outcome     Outcome
	Reason      string
	OutputPath  string
	OutputBytes int64
	Duration    time.Duration
	Err         error
}

// InOutput reports whether the result left a file in the output tree.
func (r Result) InOutput() bool {
	switch r.Outcome {
	case Success:
		return true
	case Skipped:
		return r.Reason == ReasonExists
	default:
		return false
	}
}

// Summary counts results by outcome.
type Summary struct {
	Succeeded   int
	Skipped     int
	Failed      int
	OutputBytes int64
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Outcome {
		case Success:
			s.Succeeded++
		case Skipped:
			s.Skipped++
		case Failed:
			s.Failed++
		}
		if r.InOutput() {
			s.OutputBytes += r.OutputBytes
		}
	}
	return s
}
