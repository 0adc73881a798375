package config

import (
	"errors"
	"fmt"
	"strings"
)

// QualityTiers lists the accepted transcode.quality values.
var QualityTiers = []string{"low", "med", "high"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDisc(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateStaging(); err != nil {
		return err
	}
	if err := c.validateArchive(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDisc() error {
	if c.Disc.CapacityBytes <= 0 {
		return errors.New("disc.capacity_bytes must be positive")
	}
	if c.Disc.WaitForMedia && c.Disc.Device == "" {
		return errors.New("disc.device must be set when disc.wait_for_media is true")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if !ValidQuality(c.Transcode.Quality) {
		return fmt.Errorf("transcode.quality must be one of %s, got %q", strings.Join(QualityTiers, ", "), c.Transcode.Quality)
	}
	if c.Transcode.Workers <= 0 {
		return errors.New("transcode.workers must be positive")
	}
	return nil
}

func (c *Config) validateTools() error {
	for name, tool := range map[string]Tool{
		"tools.decode": c.Tools.Decode,
		"tools.encode": c.Tools.Encode,
		"tools.image":  c.Tools.Image,
		"tools.burn":   c.Tools.Burn,
	} {
		if strings.TrimSpace(tool.Command) == "" {
			return fmt.Errorf("%s.command must be set", name)
		}
	}
	if !argsContain(c.Tools.Decode.Args, "{source}") {
		return errors.New("tools.decode.args must reference {source}")
	}
	if !argsContain(c.Tools.Encode.Args, "{output}") {
		return errors.New("tools.encode.args must reference {output}")
	}
	if !argsContain(c.Tools.Image.Args, "{image}") || !argsContain(c.Tools.Image.Args, "{dir}") {
		return errors.New("tools.image.args must reference {image} and {dir}")
	}
	if !argsContain(c.Tools.Burn.Args, "{image}") {
		return errors.New("tools.burn.args must reference {image}")
	}
	return nil
}

func (c *Config) validateStaging() error {
	if c.Staging.StaleHours < 0 {
		return errors.New("staging.stale_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateArchive() error {
	if !c.Archive.Enabled {
		return nil
	}
	if c.Archive.Endpoint == "" {
		return errors.New("archive.endpoint must be set when archive.enabled is true")
	}
	if c.Archive.Bucket == "" {
		return errors.New("archive.bucket must be set when archive.enabled is true")
	}
	if c.Archive.AccessKey == "" || c.Archive.SecretKey == "" {
		return errors.New("archive.access_key and archive.secret_key must be set when archive.enabled is true (or set BURNAUDIO_ARCHIVE_ACCESS_KEY / BURNAUDIO_ARCHIVE_SECRET_KEY)")
	}
	return nil
}

// ValidQuality reports whether tier names one of the fixed bitrate presets.
func ValidQuality(tier string) bool {
	tier = strings.ToLower(strings.TrimSpace(tier))
	for _, candidate := range QualityTiers {
		if tier == candidate {
			return true
		}
	}
	return false
}

func argsContain(args []string, placeholder string) bool {
	for _, arg := range args {
		if strings.Contains(arg, placeholder) {
			return true
		}
	}
	return false
}
