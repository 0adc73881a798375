package testsupport

import (
	"context"
	"testing"

	"burnaudio/internal/catalog"
	"burnaudio/internal/config"
)

// MustOpenLibrary opens the configured catalog.Library for tests and
// registers cleanup.
func MustOpenLibrary(t testing.TB, cfg *config.Config) *catalog.Library {
	t.Helper()

	lib, err := catalog.OpenLibrary(cfg.Paths.LibraryDB)
	if err != nil {
		t.Fatalf("catalog.OpenLibrary: %v", err)
	}
	t.Cleanup(func() {
		_ = lib.Close()
	})
	return lib
}

// SeedPlaylist stores tracks under name in lib.
func SeedPlaylist(t testing.TB, lib *catalog.Library, name string, tracks ...catalog.TrackRecord) {
	t.Helper()

	if err := lib.ReplacePlaylist(context.Background(), name, tracks); err != nil {
		t.Fatalf("seed playlist %q: %v", name, err)
	}
}
