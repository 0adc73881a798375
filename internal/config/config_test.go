package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"burnaudio/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantStaging := filepath.Join(tempHome, ".local", "share", "burnaudio", "staging")
	if cfg.Paths.StagingDir != wantStaging {
		t.Fatalf("unexpected staging dir: got %q want %q", cfg.Paths.StagingDir, wantStaging)
	}
	if cfg.Paths.LibraryDB != filepath.Join(tempHome, ".local", "share", "burnaudio", "library.db") {
		t.Fatalf("unexpected library db: %q", cfg.Paths.LibraryDB)
	}
	if cfg.Disc.CapacityBytes != 734000000 {
		t.Fatalf("unexpected capacity: %d", cfg.Disc.CapacityBytes)
	}
	if cfg.Transcode.Workers != 5 {
		t.Fatalf("unexpected worker count: %d", cfg.Transcode.Workers)
	}
	if cfg.Transcode.Quality != "high" {
		t.Fatalf("unexpected quality: %q", cfg.Transcode.Quality)
	}
	if cfg.Tools.Encode.Command != "lame" {
		t.Fatalf("unexpected encode tool: %q", cfg.Tools.Encode.Command)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.StagingDir, cfg.Paths.ImageDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "burnaudio.toml")

	type payload struct {
		Transcode struct {
			Quality string `toml:"quality"`
			Workers int    `toml:"workers"`
		} `toml:"transcode"`
		Tools struct {
			Encode struct {
				Command string `toml:"command"`
			} `toml:"encode"`
		} `toml:"tools"`
	}
	custom := payload{}
	custom.Transcode.Quality = " MED "
	custom.Transcode.Workers = 2
	custom.Tools.Encode.Command = "lame"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Transcode.Quality != "med" {
		t.Fatalf("expected normalized quality med, got %q", cfg.Transcode.Quality)
	}
	if cfg.Transcode.Workers != 2 {
		t.Fatalf("expected 2 workers, got %d", cfg.Transcode.Workers)
	}
	if len(cfg.Tools.Encode.Args) == 0 {
		t.Fatal("expected stock encode args restored for stock command")
	}
}

func TestDotEnvSuppliesNotificationTopic(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "burnaudio.toml")
	if err := os.WriteFile(configPath, []byte("[transcode]\nquality = \"low\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tempDir, ".env"), []byte("BURNAUDIO_NTFY_TOPIC=https://ntfy.example/burn\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("BURNAUDIO_NTFY_TOPIC", "")
	os.Unsetenv("BURNAUDIO_NTFY_TOPIC")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/burn" {
		t.Fatalf("expected topic from .env, got %q", cfg.Notifications.NtfyTopic)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.StagingDir, "burnaudio") {
		t.Fatalf("expected staging dir to contain burnaudio, got %q", cfg.Paths.StagingDir)
	}
	if cfg.Tools.Burn.Command != "wodim" {
		t.Fatalf("expected wodim burn command in sample, got %q", cfg.Tools.Burn.Command)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown quality", func(c *config.Config) { c.Transcode.Quality = "ultra" }},
		{"zero workers", func(c *config.Config) { c.Transcode.Workers = 0 }},
		{"negative capacity", func(c *config.Config) { c.Disc.CapacityBytes = -1 }},
		{"decode without source", func(c *config.Config) { c.Tools.Decode.Args = []string{"-o", "-"} }},
		{"image without dir", func(c *config.Config) { c.Tools.Image.Args = []string{"-o", "{image}"} }},
		{"burn command missing", func(c *config.Config) { c.Tools.Burn.Command = "" }},
		{"archive without bucket", func(c *config.Config) {
			c.Archive.Enabled = true
			c.Archive.Endpoint = "localhost:9000"
		}},
		{"media wait without device", func(c *config.Config) {
			c.Disc.WaitForMedia = true
			c.Disc.Device = ""
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLockPathDerivedFromDevice(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = "/var/log/burnaudio"
	cfg.Disc.Device = "/dev/sr1"
	if got := cfg.LockPath(); got != "/var/log/burnaudio/burn-dev_sr1.lock" {
		t.Fatalf("unexpected lock path %q", got)
	}
}
