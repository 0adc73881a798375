package history

import (
	"strings"
	"time"
)

// Status summarizes how a run ended.
type Status string

const (
	StatusBurned           Status = "burned"
	StatusImageReady       Status = "image_ready"
	StatusUserAborted      Status = "user_aborted"
	StatusCapacityExceeded Status = "capacity_exceeded"
	StatusNoPlaylists      Status = "no_playlists"
	StatusTranscodeAborted Status = "transcode_aborted"
	StatusFailed           Status = "failed"
)

// Run is one invocation of the burn pipeline.
type Run struct {
	ID             string
	StartedAt      time.Time
	FinishedAt     time.Time
	Status         Status
	Playlists      []string
	Quality        string
	VolumeLabel    string
	ImagePath      string
	ImageBytes     int64
	EstimatedBytes int64
	Succeeded      int
	Skipped        int
	Failed         int
	// ErrorClass is a short failure label such as "external_tool" or "timeout".
	ErrorClass   string
	ErrorMessage string
}

// Duration reports the wall-clock time of the run.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Job is the persisted outcome of one transcode job.
type Job struct {
	Playlist    string
	Position    int
	SourcePath  string
	OutputPath  string
	Action      string
	Outcome     string
	Reason      string
	OutputBytes int64
	Duration    time.Duration
}

const playlistSeparator = "\x1f"

func joinPlaylists(names []string) string {
	return strings.Join(names, playlistSeparator)
}

func splitPlaylists(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, playlistSeparator)
}
