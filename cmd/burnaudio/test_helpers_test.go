package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"burnaudio/internal/catalog"
	"burnaudio/internal/config"
	"burnaudio/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	base := []testsupport.ConfigOption{
		testsupport.WithStubTool("decode", `cat "$1"`, "{source}"),
		testsupport.WithStubTool("encode", `cat > "$2"`, "{bitrate}", "{output}"),
		testsupport.WithStubTool("image", `find "$2" -type f -exec cat {} + > "$1"`, "{image}", "{dir}"),
		testsupport.WithStubTool("burn", `echo "$1" > "$(dirname "$0")/burned"`, "{image}"),
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	baseDir := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(baseDir, "home"))

	configPath := filepath.Join(baseDir, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: baseDir}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

// seedPlaylist writes source files of the given sizes and stores them as
// one playlist of AAC tracks.
func (e *cliTestEnv) seedPlaylist(t *testing.T, name string, sizes ...int64) {
	t.Helper()
	lib, err := catalog.OpenLibrary(e.cfg.Paths.LibraryDB)
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	defer lib.Close()

	tracks := make([]catalog.TrackRecord, 0, len(sizes))
	for i, size := range sizes {
		title := name + " Song " + string(rune('A'+i))
		path := filepath.Join(e.baseDir, "music", name, title+".m4a")
		testsupport.WriteFile(t, path, size)
		tracks = append(tracks, catalog.TrackRecord{
			Title:       title,
			Artist:      "Band",
			TrackNumber: i + 1,
			SourcePath:  path,
			Kind:        catalog.KindAAC,
			SizeBytes:   size,
		})
	}
	testsupport.SeedPlaylist(t, lib, name, tracks...)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q\n%s", needle, haystack)
	}
}
