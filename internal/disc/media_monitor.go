package disc

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"

	"burnaudio/internal/logging"
)

// MediaMonitor listens for udev netlink events announcing media in the
// configured burner and forwards them on Events.
type MediaMonitor struct {
	logger *slog.Logger
	device string
	events chan string

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMediaMonitor creates a monitor for device. It returns nil when device
// is empty.
func NewMediaMonitor(device string, logger *slog.Logger) *MediaMonitor {
	device = strings.TrimSpace(device)
	if device == "" {
		return nil
	}
	return &MediaMonitor{
		logger: logging.NewComponentLogger(logger, "media-monitor"),
		device: device,
		events: make(chan string, 1),
	}
}

// Events delivers the device path each time media is detected. A nil
// monitor returns a nil channel, which never fires.
func (m *MediaMonitor) Events() <-chan string {
	if m == nil {
		return nil
	}
	return m.events
}

// Start begins listening. Failing to open the netlink socket is not fatal;
// callers fall back to polling the drive.
func (m *MediaMonitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		logging.WarnWithContext(m.logger, "failed to connect to netlink socket", "netlink_connect_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "ensure the user may open netlink sockets"),
			logging.String(logging.FieldImpact, "media insertion detected by polling only"),
		)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	quit := m.quit
	go m.monitorLoop(ctx, conn, quit)

	m.logger.Debug("media monitor started", logging.String("device", m.device))
	return nil
}

// Stop shuts down the monitor.
func (m *MediaMonitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
	m.running = false
}

// Running reports whether the monitor is active.
func (m *MediaMonitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *MediaMonitor) monitorLoop(ctx context.Context, conn *netlink.UEventConn, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)
	monitorQuit := conn.Monitor(queue, errs, mediaMatcher())

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			logging.WarnWithContext(m.logger, "netlink monitor error", "netlink_monitor_error",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check kernel netlink subsystem"),
				logging.String(logging.FieldImpact, "media detection falls back to polling"),
			)
		}
	}
}

// mediaMatcher matches SUBSYSTEM=block, ID_CDROM=1, ID_CDROM_MEDIA=1,
// ACTION=change|add.
func mediaMatcher() netlink.Matcher {
	action := "change|add"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	})
	return rules
}

func (m *MediaMonitor) handleEvent(uevent netlink.UEvent) {
	devname := deviceName(uevent)
	if devname == "" || devname != m.device {
		m.logger.Debug("ignoring media event",
			logging.String("device", devname),
			logging.String("action", string(uevent.Action)),
		)
		return
	}
	m.logger.Info("media detected", logging.String("device", devname))
	select {
	case m.events <- devname:
	default:
	}
}

func deviceName(uevent netlink.UEvent) string {
	if devname := uevent.Env["DEVNAME"]; devname != "" {
		return devname
	}
	devpath := uevent.Env["DEVPATH"]
	if devpath == "" {
		return ""
	}
	parts := strings.Split(devpath, "/")
	return "/dev/" + parts[len(parts)-1]
}
