package disc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// ioctlCDROMDriveStatus is the Linux ioctl number for CDROM_DRIVE_STATUS.
const ioctlCDROMDriveStatus = 0x5326

// DriveStatus represents the result of a CDROM_DRIVE_STATUS ioctl call.
type DriveStatus int

const (
	DriveStatusNoInfo   DriveStatus = 0
	DriveStatusNoDisc   DriveStatus = 1
	DriveStatusTrayOpen DriveStatus = 2
	DriveStatusNotReady DriveStatus = 3
	DriveStatusDiscOK   DriveStatus = 4
)

// String returns a human-readable label for the drive status.
func (s DriveStatus) String() string {
	switch s {
	case DriveStatusNoInfo:
		return "no_info"
	case DriveStatusNoDisc:
		return "no_disc"
	case DriveStatusTrayOpen:
		return "tray_open"
	case DriveStatusNotReady:
		return "not_ready"
	case DriveStatusDiscOK:
		return "disc_ok"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CheckDriveStatus queries the drive state using the CDROM_DRIVE_STATUS ioctl.
// Returns an error if the device cannot be opened or the ioctl fails.
func CheckDriveStatus(devicePath string) (DriveStatus, error) {
	devicePath = strings.TrimSpace(devicePath)
	if devicePath == "" {
		return DriveStatusNoInfo, fmt.Errorf("empty device path")
	}

	fd, err := unix.Open(devicePath, unix.O_RDONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return DriveStatusNoInfo, fmt.Errorf("open %s: %w", devicePath, err)
	}
	defer unix.Close(fd) //nolint:errcheck

	status, err := unix.IoctlRetInt(fd, ioctlCDROMDriveStatus)
	if err != nil {
		return DriveStatusNoInfo, fmt.Errorf("ioctl CDROM_DRIVE_STATUS on %s: %w", devicePath, err)
	}
	return DriveStatus(status), nil
}

// StatusFunc reports the drive state; CheckDriveStatus in production.
type StatusFunc func(devicePath string) (DriveStatus, error)

// MediaWaiter blocks until the burner holds a medium.
type MediaWaiter struct {
	Device       string
	Status       StatusFunc
	PollInterval time.Duration
	// Events wakes the waiter early when media insertion is observed.
	Events <-chan string
}

// Wait polls the drive until it reports DriveStatusDiscOK, ctx ends or
// timeout elapses. A zero timeout waits until ctx ends.
func (w MediaWaiter) Wait(ctx context.Context, timeout time.Duration) (DriveStatus, error) {
	status := w.Status
	if status == nil {
		status = CheckDriveStatus
	}
	interval := w.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last DriveStatus
	for {
		current, err := status(w.Device)
		if err != nil {
			return current, err
		}
		last = current
		if current == DriveStatusDiscOK {
			return current, nil
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("drive %s has no medium (last status: %s): %w", w.Device, last, ctx.Err())
		case <-ticker.C:
		case <-w.Events:
		}
	}
}
