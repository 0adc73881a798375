package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and database locations.
type Paths struct {
	LibraryDB  string `toml:"library_db"`
	StagingDir string `toml:"staging_dir"`
	ImageDir   string `toml:"image_dir"`
	LogDir     string `toml:"log_dir"`
}

// Disc describes the target medium and the drive that writes it.
type Disc struct {
	Device           string `toml:"device"`
	CapacityBytes    int64  `toml:"capacity_bytes"`
	VolumePrefix     string `toml:"volume_prefix"`
	WaitForMedia     bool   `toml:"wait_for_media"`
	MediaWaitSeconds int    `toml:"media_wait_seconds"`
}

// Transcode contains settings for the per-track conversion phase.
type Transcode struct {
	Quality        string `toml:"quality"`
	Workers        int    `toml:"workers"`
	AbortOnFailure bool   `toml:"abort_on_failure"`
	SkipExisting   bool   `toml:"skip_existing"`
}

// Tool is an external command plus its argument template. Arguments may
// contain {placeholders} that are substituted per invocation.
type Tool struct {
	Command string   `toml:"command"`
	Args    []string `toml:"args"`
}

// Tools lists every external program the pipeline shells out to.
type Tools struct {
	Decode         Tool `toml:"decode"`
	Encode         Tool `toml:"encode"`
	Image          Tool `toml:"image"`
	Burn           Tool `toml:"burn"`
	Eject          Tool `toml:"eject"`
	TimeoutSeconds int  `toml:"timeout_seconds"`
}

// Burn controls the final write step.
type Burn struct {
	Confirm bool `toml:"confirm"`
}

// Staging controls retention of working directories and images.
type Staging struct {
	KeepWorkdir bool `toml:"keep_workdir"`
	KeepImage   bool `toml:"keep_image"`
	StaleHours  int  `toml:"stale_hours"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	BurnCompleted  bool   `toml:"burn_completed"`
	Errors         bool   `toml:"errors"`
}

// Archive configures optional upload of finished images to S3-compatible storage.
type Archive struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Region    string `toml:"region"`
	UseSSL    bool   `toml:"use_ssl"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for BurnAudio.
//
// Configuration sections by subsystem:
//   - Paths: library database, staging, image and log directories
//   - Disc: target drive, medium capacity and volume naming
//   - Transcode: quality tier and worker pool sizing
//   - Tools: external decode/encode/image/burn/eject commands
//   - Burn: confirmation and eject behaviour
//   - Staging: working directory retention
//   - Notifications: ntfy push notification settings
//   - Archive: optional object storage upload of finished images
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Disc          Disc          `toml:"disc"`
	Transcode     Transcode     `toml:"transcode"`
	Tools         Tools         `toml:"tools"`
	Burn          Burn          `toml:"burn"`
	Staging       Staging       `toml:"staging"`
	Notifications Notifications `toml:"notifications"`
	Archive       Archive       `toml:"archive"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/burnaudio/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. A .env file beside the resolved config
// path is loaded into the process environment before environment fallbacks apply.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(resolvedPath), ".env")); err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads key=value pairs without overriding variables already set.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("burnaudio.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.ImageDir, c.Paths.LogDir, filepath.Dir(c.Paths.LibraryDB)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LogPath returns the file the daemon-less CLI appends structured logs to.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return ""
	}
	return filepath.Join(c.Paths.LogDir, "burnaudio.log")
}

// HistoryPath returns the run history database location.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

// LockPath returns the lock file guarding the burner device.
func (c *Config) LockPath() string {
	name := strings.Trim(strings.ReplaceAll(c.Disc.Device, "/", "_"), "_")
	if name == "" {
		name = "default"
	}
	return filepath.Join(c.Paths.LogDir, "burn-"+name+".lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
