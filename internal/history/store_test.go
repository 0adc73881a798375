package history

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "logs", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	first := Run{
		ID:         "run-a",
		StartedAt:  base,
		FinishedAt: base.Add(90 * time.Second),
		Status:     StatusBurned,
		Playlists:  []string{"Road Trip", "Chill, Vol. 2"},
		Quality:    "med",
		ImageBytes: 1234,
		Succeeded:  2,
	}
	jobs := []Job{
		{Playlist: "Road Trip", Position: 1, SourcePath: "/m/a.m4a", OutputPath: "/w/a.mp3", Action: "reencode", Outcome: "success", OutputBytes: 600, Duration: 1500 * time.Millisecond},
		{Playlist: "Road Trip", Position: 2, SourcePath: "/m/b.mp3", Action: "copy", Outcome: "failed", Reason: "copy failed"},
	}
	if err := store.Record(ctx, first, jobs); err != nil {
		t.Fatalf("Record: %v", err)
	}
	second := Run{ID: "run-b", StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour), Status: StatusCapacityExceeded, Playlists: []string{"Huge"}}
	if err := store.Record(ctx, second, nil); err != nil {
		t.Fatalf("Record second: %v", err)
	}

	runs, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-b" || runs[1].ID != "run-a" {
		t.Fatalf("unexpected order: %+v", runs)
	}
	got := runs[1]
	if !reflect.DeepEqual(got.Playlists, first.Playlists) {
		t.Fatalf("playlists = %v", got.Playlists)
	}
	if got.Duration() != 90*time.Second || got.Status != StatusBurned || got.Quality != "med" {
		t.Fatalf("unexpected run: %+v", got)
	}

	loaded, err := store.Jobs(ctx, "run-a")
	if err != nil {
		t.Fatalf("Jobs: %v", err)
	}
	if !reflect.DeepEqual(loaded, jobs) {
		t.Fatalf("jobs mismatch:\n got %+v\nwant %+v", loaded, jobs)
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"r1", "r2", "r3"} {
		start := base.Add(time.Duration(i) * time.Minute)
		if err := store.Record(ctx, Run{ID: id, StartedAt: start, FinishedAt: start, Status: StatusImageReady}, nil); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "r3" {
		t.Fatalf("unexpected runs: %+v", runs)
	}
}

func TestGetByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()
	for _, id := range []string{"abc123", "abd456"} {
		if err := store.Record(ctx, Run{ID: id, StartedAt: now, FinishedAt: now, Status: StatusBurned}, nil); err != nil {
			t.Fatal(err)
		}
	}

	run, err := store.Get(ctx, "abc")
	if err != nil || run.ID != "abc123" {
		t.Fatalf("Get prefix = %+v, %v", run, err)
	}
	if _, err := store.Get(ctx, "ab"); err == nil {
		t.Fatal("expected ambiguity error")
	}
	if _, err := store.Get(ctx, "zzz"); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}
}

func TestRecordRejectsDuplicateID(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	run := Run{ID: "dup", Status: StatusBurned}
	if err := store.Record(ctx, run, []Job{{Playlist: "p", SourcePath: "/x", Action: "copy", Outcome: "success"}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Record(ctx, run, nil); err == nil {
		t.Fatal("expected duplicate run id to fail")
	}
	jobs, err := store.Jobs(ctx, "dup")
	if err != nil || len(jobs) != 1 {
		t.Fatalf("expected original job kept, got %v %v", jobs, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Record(context.Background(), Run{ID: "keep", Status: StatusBurned}, nil); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	store, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer store.Close()
	runs, err := store.Recent(context.Background(), 5)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %v %v", runs, err)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	if _, err := Open(path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
