package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"burnaudio/internal/config"
)

const userAgent = "BurnAudio-Go/0.1.0"

// RunSummary is the subset of a run report included in notifications.
type RunSummary struct {
	Playlists  []string
	Tracks     int
	Failed     int
	ImageBytes int64
	Duration   time.Duration
}

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyBurnCompleted(ctx context.Context, label string, summary RunSummary) error
	NotifyImageReady(ctx context.Context, imagePath string, summary RunSummary) error
	NotifyCapacityExceeded(ctx context.Context, phase string, bytes, capacity int64) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:      topic,
		client:        &http.Client{Timeout: timeout},
		burnCompleted: cfg.Notifications.BurnCompleted,
		errors:        cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint      string
	client        *http.Client
	burnCompleted bool
	errors        bool
}

func (n *ntfyService) NotifyBurnCompleted(ctx context.Context, label string, summary RunSummary) error {
	if !n.burnCompleted {
		return nil
	}
	data := payload{
		title:    "BurnAudio - Burn Complete",
		message:  fmt.Sprintf("💿 Burned %s: %s", strings.TrimSpace(label), describe(summary)),
		tags:     []string{"burnaudio", "burn", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyImageReady(ctx context.Context, imagePath string, summary RunSummary) error {
	if !n.burnCompleted {
		return nil
	}
	data := payload{
		title:   "BurnAudio - Image Ready",
		message: fmt.Sprintf("📀 Image ready: %s\n%s", strings.TrimSpace(imagePath), describe(summary)),
		tags:    []string{"burnaudio", "image", "ready"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyCapacityExceeded(ctx context.Context, phase string, bytes, capacity int64) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title: "BurnAudio - Too Large",
		message: fmt.Sprintf("⚠️ %s size %s exceeds disc capacity %s",
			phase, humanize.Bytes(uint64(max(bytes, 0))), humanize.Bytes(uint64(max(capacity, 0)))),
		tags:     []string{"burnaudio", "capacity", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "BurnAudio - Error",
		message:  builder.String(),
		tags:     []string{"burnaudio", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "BurnAudio - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"burnaudio", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func describe(summary RunSummary) string {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}
	message := fmt.Sprintf("%d tracks from %s", summary.Tracks, strings.Join(summary.Playlists, ", "))
	if summary.ImageBytes > 0 {
		message += fmt.Sprintf(" (%s)", humanize.Bytes(uint64(summary.ImageBytes)))
	}
	if summary.Failed > 0 {
		message += fmt.Sprintf(", %d failed", summary.Failed)
	}
	return message + " in " + duration.String()
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBurnCompleted(context.Context, string, RunSummary) error      { return nil }
func (noopService) NotifyImageReady(context.Context, string, RunSummary) error         { return nil }
func (noopService) NotifyCapacityExceeded(context.Context, string, int64, int64) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error                   { return nil }
func (noopService) TestNotification(context.Context) error                             { return nil }
