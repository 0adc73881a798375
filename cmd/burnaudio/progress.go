package main

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"burnaudio/internal/transcode"
)

// transcodeProgress drives a terminal progress bar from pipeline callbacks.
// It stays silent when the writer is not a terminal.
type transcodeProgress struct {
	mu      sync.Mutex
	out     io.Writer
	enabled bool
	bar     *progressbar.ProgressBar
}

func newTranscodeProgress(out io.Writer) *transcodeProgress {
	enabled := false
	if file, ok := out.(*os.File); ok {
		enabled = isTerminal(file)
	}
	return &transcodeProgress{out: out, enabled: enabled}
}

func (p *transcodeProgress) observe(done, total int, result transcode.Result) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar == nil {
		p.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(p.out),
			progressbar.OptionSetDescription("Transcoding"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	if result.Job.Playlist != "" {
		p.bar.Describe(result.Job.Playlist)
	}
	_ = p.bar.Set(done)
}

func (p *transcodeProgress) finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}
