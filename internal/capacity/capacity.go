// Package capacity projects the on-disc size of a selection and gates a run
// against the medium capacity.
package capacity

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"burnaudio/internal/catalog"
)

// MediumCapacity is the usable size of a 80-minute CD-R in bytes.
const MediumCapacity int64 = 734_000_000

// ErrCapacityExceeded is matched by every ExceededError.
var ErrCapacityExceeded = errors.New("capacity exceeded")

// Phase names the gate that rejected the run.
type Phase string

const (
	PhaseRaw       Phase = "raw"
	PhaseEstimated Phase = "estimated"
	PhaseActual    Phase = "actual"
)

// ExceededError reports which gate failed and by how much.
type ExceededError struct {
	Phase    Phase
	Bytes    int64
	Capacity int64
}

func (e *ExceededError) Error() string {
	return fmt.Sprintf("%s size %s exceeds medium capacity %s by %s",
		e.Phase,
		humanize.Bytes(uint64(max(e.Bytes, 0))),
		humanize.Bytes(uint64(max(e.Capacity, 0))),
		humanize.Bytes(uint64(max(e.Bytes-e.Capacity, 0))),
	)
}

func (e *ExceededError) Unwrap() error {
	return ErrCapacityExceeded
}

// Estimate is the projected size of a selection.
type Estimate struct {
	RawBytes       int64
	EstimatedBytes int64
}

// EstimateTracks sums source sizes and applies the worst-case growth factor
// of 3/2 in integer arithmetic.
func EstimateTracks(tracks []catalog.TrackRecord) Estimate {
	var raw int64
	for _, t := range tracks {
		raw += t.SizeBytes
	}
	return Estimate{RawBytes: raw, EstimatedBytes: raw * 3 / 2}
}

// EstimateSelections estimates every track across the given playlists.
func EstimateSelections(selections []catalog.Selection) Estimate {
	var all []catalog.TrackRecord
	for _, sel := range selections {
		all = append(all, sel.Tracks...)
	}
	return EstimateTracks(all)
}

// Check applies the raw and estimated gates. Both comparisons are strict:
// a selection exactly at capacity passes.
func Check(est Estimate, capacity int64) error {
	if capacity <= 0 {
		capacity = MediumCapacity
	}
	if est.RawBytes > capacity {
		return &ExceededError{Phase: PhaseRaw, Bytes: est.RawBytes, Capacity: capacity}
	}
	if est.EstimatedBytes > capacity {
		return &ExceededError{Phase: PhaseEstimated, Bytes: est.EstimatedBytes, Capacity: capacity}
	}
	return nil
}

// CheckActual gates an assembled image of the given size.
func CheckActual(size, capacity int64) error {
	if capacity <= 0 {
		capacity = MediumCapacity
	}
	if size > capacity {
		return &ExceededError{Phase: PhaseActual, Bytes: size, Capacity: capacity}
	}
	return nil
}
