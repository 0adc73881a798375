package preflight

import (
	"context"
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"burnaudio/internal/archive"
	"burnaudio/internal/config"
	"burnaudio/internal/deps"
	"burnaudio/internal/disc"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArchive verifies the archive bucket is reachable.
func CheckArchive(ctx context.Context, cfg config.Archive) Result {
	const name = "Archive bucket"

	uploader, err := archive.NewUploader(cfg, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if uploader == nil {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := uploader.Check(checkCtx); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.Bucket)}
}

// CheckSystemDeps evaluates the configured external programs. The eject
// tool is optional because an eject failure never fails a run.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "Decoder",
			Command:     cfg.Tools.Decode.Command,
			Description: "Decodes AAC sources to PCM",
		},
		{
			Name:        "Encoder",
			Command:     cfg.Tools.Encode.Command,
			Description: "Encodes PCM to MP3",
		},
		{
			Name:        "Image builder",
			Command:     cfg.Tools.Image.Command,
			Description: "Builds the ISO/Joliet image",
		},
		{
			Name:        "Burner",
			Command:     cfg.Tools.Burn.Command,
			Description: "Writes the image to disc",
		},
		{
			Name:        "Eject",
			Command:     cfg.Tools.Eject.Command,
			Description: "Opens the tray after burning",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}

// DriveProbe reports the burner's current state.
type DriveProbe struct {
	Device string
	Status disc.DriveStatus
	Err    error
}

// ProbeDrive queries the burner with the drive-status ioctl.
func ProbeDrive(device string) DriveProbe {
	status, err := disc.CheckDriveStatus(device)
	return DriveProbe{Device: device, Status: status, Err: err}
}

// Detail renders a display-friendly summary for status output.
func (p DriveProbe) Detail() string {
	if p.Err != nil {
		return fmt.Sprintf("%s unavailable (%v)", p.Device, p.Err)
	}
	switch p.Status {
	case disc.DriveStatusDiscOK:
		return fmt.Sprintf("Medium loaded in %s", p.Device)
	case disc.DriveStatusTrayOpen:
		return fmt.Sprintf("Tray open on %s", p.Device)
	case disc.DriveStatusNoDisc:
		return fmt.Sprintf("No medium in %s", p.Device)
	default:
		return fmt.Sprintf("%s: %s", p.Device, p.Status)
	}
}

// Ready reports whether a medium is loaded.
func (p DriveProbe) Ready() bool {
	return p.Err == nil && p.Status == disc.DriveStatusDiscOK
}
