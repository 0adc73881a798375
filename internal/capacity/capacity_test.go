package capacity

import (
	"errors"
	"testing"

	"burnaudio/internal/catalog"
)

func TestEstimateTracksUsesIntegerGrowth(t *testing.T) {
	est := EstimateTracks([]catalog.TrackRecord{{SizeBytes: 3}, {SizeBytes: 4}})
	if est.RawBytes != 7 || est.EstimatedBytes != 10 {
		t.Fatalf("unexpected estimate: %+v", est)
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int64
		phase Phase
	}{
		{name: "fits", sizes: []int64{10_000_000, 20_000_000}},
		{name: "raw over", sizes: []int64{800_000_000}, phase: PhaseRaw},
		{name: "estimated over", sizes: []int64{500_000_000}, phase: PhaseEstimated},
		{name: "estimate just under capacity", sizes: []int64{489_333_333}},
		{name: "estimate one byte over", sizes: []int64{489_333_334}, phase: PhaseEstimated},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var tracks []catalog.TrackRecord
			for _, s := range tc.sizes {
				tracks = append(tracks, catalog.TrackRecord{SizeBytes: s})
			}
			err := Check(EstimateTracks(tracks), MediumCapacity)
			if tc.phase == "" {
				if err != nil {
					t.Fatalf("expected pass, got %v", err)
				}
				return
			}
			var exceeded *ExceededError
			if !errors.As(err, &exceeded) {
				t.Fatalf("expected ExceededError, got %v", err)
			}
			if exceeded.Phase != tc.phase {
				t.Fatalf("expected phase %s, got %s", tc.phase, exceeded.Phase)
			}
			if !errors.Is(err, ErrCapacityExceeded) {
				t.Fatal("expected ErrCapacityExceeded")
			}
		})
	}
}

func TestCheckActual(t *testing.T) {
	if err := CheckActual(MediumCapacity, MediumCapacity); err != nil {
		t.Fatalf("image at capacity should pass: %v", err)
	}
	err := CheckActual(MediumCapacity+1, MediumCapacity)
	var exceeded *ExceededError
	if !errors.As(err, &exceeded) || exceeded.Phase != PhaseActual {
		t.Fatalf("expected actual-phase failure, got %v", err)
	}
}
