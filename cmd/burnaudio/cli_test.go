package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"burnaudio/internal/capacity"
	"burnaudio/internal/pipeline"
	"burnaudio/internal/testsupport"
)

func TestLibraryImportAndPlaylists(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"playlists"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	requireContains(t, out, "No playlists in library")

	musicDir := filepath.Join(env.baseDir, "music")
	testsupport.WriteFile(t, filepath.Join(musicDir, "one.m4a"), 2048)
	testsupport.WriteFile(t, filepath.Join(musicDir, "two.mp3"), 1024)
	m3u := filepath.Join(musicDir, "trip.m3u")
	content := "#EXTM3U\n#EXTINF:180,Band - Opening\none.m4a\n#EXTINF:200,Band - Closing\ntwo.mp3\n"
	if err := os.WriteFile(m3u, []byte(content), 0o644); err != nil {
		t.Fatalf("write m3u: %v", err)
	}

	out, _, err = runCLI(t, []string{"library", "import", "Road Trip", m3u}, env.configPath)
	if err != nil {
		t.Fatalf("library import: %v", err)
	}
	requireContains(t, out, `Imported 2 tracks into "Road Trip"`)

	out, _, err = runCLI(t, []string{"playlists"}, env.configPath)
	if err != nil {
		t.Fatalf("playlists: %v", err)
	}
	requireContains(t, out, "Road Trip")

	out, _, err = runCLI(t, []string{"library", "show", "Road Trip"}, env.configPath)
	if err != nil {
		t.Fatalf("library show: %v", err)
	}
	requireContains(t, out, "Opening")
	requireContains(t, out, "Closing")

	if _, _, err := runCLI(t, []string{"library", "remove", "Road Trip"}, env.configPath); err != nil {
		t.Fatalf("library remove: %v", err)
	}
	if _, _, err := runCLI(t, []string{"library", "show", "Road Trip"}, env.configPath); err == nil {
		t.Fatal("expected removed playlist to be missing")
	}
}

func TestBurnCommandBurnsAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedPlaylist(t, "Road Trip", 300, 400)

	out, _, err := runCLI(t, []string{"burn", "--yes", "Road Trip", "Missing"}, env.configPath)
	if err != nil {
		t.Fatalf("burn: %v\n%s", err, out)
	}
	requireContains(t, out, `playlist "Missing" not found`)
	requireContains(t, out, "Burned in")
	requireContains(t, out, "2 ok / 0 skipped / 0 failed")

	marker := filepath.Join(env.baseDir, "bin", "burned")
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("expected burn tool to run: %v", err)
	}
	image := strings.TrimSpace(string(data))
	if !strings.HasPrefix(image, env.cfg.Paths.ImageDir) {
		t.Fatalf("burned image %q outside image dir", image)
	}
	if _, err := os.Stat(image); !os.IsNotExist(err) {
		t.Fatalf("expected image removed after burn, stat err=%v", err)
	}

	entries, err := os.ReadDir(env.cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected workdir removed, found %d entries", len(entries))
	}

	out, _, err = runCLI(t, []string{"history"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "Burned")
	requireContains(t, out, "Road Trip")
	requireContains(t, out, "2/0/0")
}

func TestBurnCommandNoBurnKeepsImage(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedPlaylist(t, "Mix", 100)

	out, _, err := runCLI(t, []string{"burn", "--no-burn", "Mix"}, env.configPath)
	if err != nil {
		t.Fatalf("burn --no-burn: %v\n%s", err, out)
	}
	requireContains(t, out, "Image ready")

	if _, err := os.Stat(filepath.Join(env.baseDir, "bin", "burned")); !os.IsNotExist(err) {
		t.Fatalf("burn tool should not run, stat err=%v", err)
	}
	images, err := filepath.Glob(filepath.Join(env.cfg.Paths.ImageDir, "*.iso"))
	if err != nil || len(images) != 1 {
		t.Fatalf("expected one kept image, got %v (err=%v)", images, err)
	}
}

func TestBurnCommandCapacityGate(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithCapacity(1000))
	env.seedPlaylist(t, "Too Long", 900)

	out, _, err := runCLI(t, []string{"burn", "--yes", "Too Long"}, env.configPath)
	if !errors.Is(err, capacity.ErrCapacityExceeded) {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if exitCode(err) != exitCapacity {
		t.Fatalf("exit code = %d, want %d", exitCode(err), exitCapacity)
	}
	requireContains(t, out, "Capacity exceeded")

	entries, _ := os.ReadDir(env.cfg.Paths.StagingDir)
	if len(entries) != 0 {
		t.Fatalf("expected no workdir, found %d entries", len(entries))
	}
}

func TestBurnCommandNoValidPlaylists(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"burn", "--yes", "Nowhere"}, env.configPath)
	if !errors.Is(err, pipeline.ErrNoPlaylists) {
		t.Fatalf("expected ErrNoPlaylists, got %v", err)
	}
}

func TestBurnCommandRequiresConfirmationTerminal(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Burn.Confirm = true
	writeTestConfig(t, env.configPath, env.cfg)
	env.seedPlaylist(t, "Mix", 100)

	out, _, err := runCLI(t, []string{"burn", "Mix"}, env.configPath)
	if err == nil || exitCode(err) != exitConfig {
		t.Fatalf("expected configuration error without a terminal, got %v\n%s", err, out)
	}
	images, _ := filepath.Glob(filepath.Join(env.cfg.Paths.ImageDir, "*.iso"))
	if len(images) != 1 {
		t.Fatalf("expected image kept after refused burn, got %v", images)
	}
}

func TestBurnCommandMissingTool(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Tools.Encode.Command = filepath.Join(env.baseDir, "bin", "no-such-encoder")
	writeTestConfig(t, env.configPath, env.cfg)

	_, _, err := runCLI(t, []string{"burn", "--yes", "Mix"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "Encoder") {
		t.Fatalf("expected missing encoder error, got %v", err)
	}
	if exitCode(err) != exitConfig {
		t.Fatalf("exit code = %d, want %d", exitCode(err), exitConfig)
	}
}

func TestHistoryShowsRunJobs(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedPlaylist(t, "Mix", 100, 200)

	if _, _, err := runCLI(t, []string{"burn", "--no-burn", "Mix"}, env.configPath); err != nil {
		t.Fatalf("burn: %v", err)
	}
	out, _, err := runCLI(t, []string{"history", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	fields := strings.Fields(strings.SplitN(out, "\n", 4)[3])
	if len(fields) < 2 {
		t.Fatalf("unexpected history output:\n%s", out)
	}
	runID := fields[1]

	out, _, err = runCLI(t, []string{"history", runID}, env.configPath)
	if err != nil {
		t.Fatalf("history %s: %v", runID, err)
	}
	requireContains(t, out, "Status:     Image ready")
	requireContains(t, out, "Mix Song A")
	requireContains(t, out, "success")
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Directories ==")
	requireContains(t, out, "== Tools ==")
	requireContains(t, out, "Decoder:")
	requireContains(t, out, "Burner:")
}

func TestStagingListAndClean(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(filepath.Join(env.cfg.Paths.StagingDir, "BurnAudio-old"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(env.cfg.Paths.StagingDir, "keep-me"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "BurnAudio-old")

	out, _, err = runCLI(t, []string{"staging", "clean", "--all"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 directories")
	if _, err := os.Stat(filepath.Join(env.cfg.Paths.StagingDir, "keep-me")); err != nil {
		t.Fatalf("unrelated directory removed: %v", err)
	}
}

func TestLogsCommandFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := env.cfg.LogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		t.Fatalf("mkdir logs: %v", err)
	}
	content := "INFO run started run_id=aaa\nINFO run started run_id=bbb\nINFO run complete run_id=aaa\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--run", "aaa"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Contains(out, "bbb") {
		t.Fatalf("expected other runs filtered out:\n%s", out)
	}
	requireContains(t, out, "run complete run_id=aaa")

	out, _, err = runCLI(t, []string{"logs", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs -n 1: %v", err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got:\n%s", out)
	}
}
