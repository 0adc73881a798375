package catalog_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"burnaudio/internal/catalog"
)

func openLibrary(t *testing.T) *catalog.Library {
	t.Helper()
	lib, err := catalog.OpenLibrary(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("OpenLibrary: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestLibraryReplacePlaylistPreservesOrder(t *testing.T) {
	lib := openLibrary(t)
	ctx := context.Background()

	tracks := []catalog.TrackRecord{
		{Title: "Second", Artist: "B", TrackNumber: 7, SourcePath: "/music/b.mp3", Kind: catalog.KindMPEG, SizeBytes: 20},
		{Title: "First", Artist: "A", TrackNumber: 3, SourcePath: "/music/a.m4a", Kind: catalog.KindAAC, SizeBytes: 10},
	}
	if err := lib.ReplacePlaylist(ctx, "Road Trip", tracks); err != nil {
		t.Fatalf("ReplacePlaylist: %v", err)
	}

	got, err := lib.TracksForPlaylist(ctx, "Road Trip")
	if err != nil {
		t.Fatalf("TracksForPlaylist: %v", err)
	}
	if len(got) != 2 || got[0].Title != "Second" || got[1].Title != "First" {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[0].TrackNumber != 7 || got[1].SizeBytes != 10 {
		t.Fatalf("fields not round-tripped: %+v", got)
	}

	if err := lib.ReplacePlaylist(ctx, "Road Trip", tracks[:1]); err != nil {
		t.Fatalf("ReplacePlaylist again: %v", err)
	}
	playlists, err := lib.ListPlaylists(ctx)
	if err != nil {
		t.Fatalf("ListPlaylists: %v", err)
	}
	if len(playlists) != 1 || playlists[0].TrackCount != 1 {
		t.Fatalf("unexpected playlists: %+v", playlists)
	}
}

func TestLibraryTracksForUnknownPlaylist(t *testing.T) {
	lib := openLibrary(t)
	_, err := lib.TracksForPlaylist(context.Background(), "missing")
	if !errors.Is(err, catalog.ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestImportM3U(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "one.m4a", 100)
	writeFile(t, dir, "two.mp3", 200)
	writeFile(t, dir, "three.m4p", 300)
	playlist := strings.Join([]string{
		"#EXTM3U",
		"#EXTINF:215,Artist One - Song One",
		"one.m4a",
		"#EXTINF:180,Artist Two - Song Two",
		filepath.Join(dir, "two.mp3"),
		"three.m4p",
		"four.flac",
	}, "\n")
	m3u := filepath.Join(dir, "mix.m3u")
	if err := os.WriteFile(m3u, []byte(playlist), 0o644); err != nil {
		t.Fatalf("write m3u: %v", err)
	}

	lib := openLibrary(t)
	ctx := context.Background()
	n, err := lib.ImportM3U(ctx, "Mix", m3u)
	if err != nil {
		t.Fatalf("ImportM3U: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 tracks, got %d", n)
	}

	got, err := lib.TracksForPlaylist(ctx, "Mix")
	if err != nil {
		t.Fatalf("TracksForPlaylist: %v", err)
	}
	want := []struct {
		artist, title, kind string
		number              int
		size                int64
	}{
		{"Artist One", "Song One", catalog.KindAAC, 1, 100},
		{"Artist Two", "Song Two", catalog.KindMPEG, 2, 200},
		{"Unknown Artist", "three", catalog.KindPurchasedAAC, 3, 300},
		{"Unknown Artist", "four", "FLAC audio file", 4, 0},
	}
	for i, w := range want {
		g := got[i]
		if g.Artist != w.artist || g.Title != w.title || g.Kind != w.kind || g.TrackNumber != w.number || g.SizeBytes != w.size {
			t.Fatalf("track %d: got %+v, want %+v", i, g, w)
		}
		if !filepath.IsAbs(g.SourcePath) {
			t.Fatalf("track %d: expected absolute path, got %q", i, g.SourcePath)
		}
	}

	cat := catalog.New(lib, nil)
	available, missing, err := cat.TracksOf(ctx, catalog.Playlist{Name: "Mix"})
	if err != nil {
		t.Fatalf("TracksOf: %v", err)
	}
	if len(available) != 3 || len(missing) != 1 {
		t.Fatalf("expected 3 available and 1 missing, got %d and %d", len(available), len(missing))
	}
}

func TestKindForPath(t *testing.T) {
	tests := map[string]string{
		"a.M4A": catalog.KindAAC,
		"a.aac": catalog.KindAAC,
		"a.m4p": catalog.KindPurchasedAAC,
		"a.mp3": catalog.KindMPEG,
		"a.wav": "WAV audio file",
	}
	for path, want := range tests {
		if got := catalog.KindForPath(path); got != want {
			t.Errorf("KindForPath(%q) = %q, want %q", path, got, want)
		}
	}
}
