package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDisc()
	c.normalizeTranscode()
	c.normalizeTools()
	c.normalizeNotifications()
	c.normalizeArchive()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LibraryDB) == "" {
		c.Paths.LibraryDB = defaultLibraryDB
	}
	if c.Paths.LibraryDB, err = expandPath(c.Paths.LibraryDB); err != nil {
		return fmt.Errorf("paths.library_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ImageDir) == "" {
		c.Paths.ImageDir = defaultImageDir
	}
	if c.Paths.ImageDir, err = expandPath(c.Paths.ImageDir); err != nil {
		return fmt.Errorf("paths.image_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDisc() {
	c.Disc.Device = strings.TrimSpace(c.Disc.Device)
	if c.Disc.CapacityBytes == 0 {
		c.Disc.CapacityBytes = defaultCapacityBytes
	}
	c.Disc.VolumePrefix = strings.TrimSpace(c.Disc.VolumePrefix)
	if c.Disc.VolumePrefix == "" {
		c.Disc.VolumePrefix = defaultVolumePrefix
	}
	if c.Disc.MediaWaitSeconds <= 0 {
		c.Disc.MediaWaitSeconds = defaultMediaWaitSeconds
	}
}

func (c *Config) normalizeTranscode() {
	c.Transcode.Quality = strings.ToLower(strings.TrimSpace(c.Transcode.Quality))
	if c.Transcode.Quality == "" {
		c.Transcode.Quality = defaultQuality
	}
	if c.Transcode.Workers == 0 {
		c.Transcode.Workers = defaultWorkers
	}
}

func (c *Config) normalizeTools() {
	defaults := DefaultTools()
	normalizeTool(&c.Tools.Decode, defaults.Decode)
	normalizeTool(&c.Tools.Encode, defaults.Encode)
	normalizeTool(&c.Tools.Image, defaults.Image)
	normalizeTool(&c.Tools.Burn, defaults.Burn)
	normalizeTool(&c.Tools.Eject, defaults.Eject)
	if c.Tools.TimeoutSeconds < 0 {
		c.Tools.TimeoutSeconds = 0
	}
}

// normalizeTool restores the stock argument template only when the command
// itself is left unset; a custom command keeps whatever arguments it was given.
func normalizeTool(tool *Tool, fallback Tool) {
	tool.Command = strings.TrimSpace(tool.Command)
	if tool.Command == "" {
		*tool = fallback
		return
	}
	if tool.Args == nil && tool.Command == fallback.Command {
		tool.Args = append([]string(nil), fallback.Args...)
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("BURNAUDIO_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeArchive() {
	c.Archive.Endpoint = strings.TrimSpace(c.Archive.Endpoint)
	c.Archive.Bucket = strings.TrimSpace(c.Archive.Bucket)
	c.Archive.Region = strings.TrimSpace(c.Archive.Region)
	c.Archive.Prefix = strings.TrimLeft(strings.TrimSpace(c.Archive.Prefix), "/")
	if value, ok := os.LookupEnv("BURNAUDIO_ARCHIVE_ACCESS_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Archive.AccessKey = strings.TrimSpace(value)
	}
	if value, ok := os.LookupEnv("BURNAUDIO_ARCHIVE_SECRET_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Archive.SecretKey = strings.TrimSpace(value)
	}
	c.Archive.AccessKey = strings.TrimSpace(c.Archive.AccessKey)
	c.Archive.SecretKey = strings.TrimSpace(c.Archive.SecretKey)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
