package config

const (
	defaultLibraryDB         = "~/.local/share/burnaudio/library.db"
	defaultStagingDir        = "~/.local/share/burnaudio/staging"
	defaultImageDir          = "~/.local/share/burnaudio/images"
	defaultLogDir            = "~/.local/share/burnaudio/logs"
	defaultDevice            = "/dev/sr0"
	defaultCapacityBytes     = 734000000
	defaultVolumePrefix      = "BurnAudio"
	defaultMediaWaitSeconds  = 120
	defaultQuality           = "high"
	defaultWorkers           = 5
	defaultStaleHours        = 72
	defaultNotifyTimeout     = 10
	defaultArchivePrefix     = "images/"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultDecodeCommand     = "faad"
	defaultEncodeCommand     = "lame"
	defaultImageCommand      = "genisoimage"
	defaultBurnCommand       = "wodim"
	defaultEjectCommand      = "eject"
	defaultToolTimeoutSecond = 0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDB:  defaultLibraryDB,
			StagingDir: defaultStagingDir,
			ImageDir:   defaultImageDir,
			LogDir:     defaultLogDir,
		},
		Disc: Disc{
			Device:           defaultDevice,
			CapacityBytes:    defaultCapacityBytes,
			VolumePrefix:     defaultVolumePrefix,
			MediaWaitSeconds: defaultMediaWaitSeconds,
		},
		Transcode: Transcode{
			Quality: defaultQuality,
			Workers: defaultWorkers,
		},
		Tools: DefaultTools(),
		Burn: Burn{
			Confirm: true,
		},
		Staging: Staging{
			StaleHours: defaultStaleHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			BurnCompleted:  true,
			Errors:         true,
		},
		Archive: Archive{
			Prefix: defaultArchivePrefix,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

// DefaultTools returns the stock faad/lame/genisoimage/wodim/eject toolchain.
func DefaultTools() Tools {
	return Tools{
		Decode: Tool{Command: defaultDecodeCommand, Args: []string{"-q", "-o", "-", "{source}"}},
		Encode: Tool{Command: defaultEncodeCommand, Args: []string{"-h", "-S", "-b", "{bitrate}", "-", "{output}"}},
		Image: Tool{Command: defaultImageCommand, Args: []string{
			"-quiet", "-J", "-r", "-V", "{label}", "-o", "{image}", "{dir}",
		}},
		Burn:           Tool{Command: defaultBurnCommand, Args: []string{"-v", "dev={device}", "-data", "{image}"}},
		Eject:          Tool{Command: defaultEjectCommand, Args: []string{"{device}"}},
		TimeoutSeconds: defaultToolTimeoutSecond,
	}
}
