package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"burnaudio/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options. Confirmation
// prompts are disabled and eject runs a no-op script so tests never touch a
// terminal or a drive.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryDB = filepath.Join(base, "library", "library.db")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.ImageDir = filepath.Join(base, "images")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Disc.Device = "/dev/null"
	cfgVal.Burn.Confirm = false

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	// The tray is always ejected after a burn; point it at a no-op script.
	WithStubTool("eject", "exit 0", "{device}")(builder)
	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDevice overrides the burner device path on the test config.
func WithDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Disc.Device = path
	}
}

// WithCapacity overrides the medium capacity on the test config.
func WithCapacity(bytes int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Disc.CapacityBytes = bytes
	}
}

// WithStubTool writes a shell script with body into the test bin directory
// and points the named tool (decode, encode, image, burn, eject) at it with
// the given argument template.
func WithStubTool(tool, body string, args ...string) ConfigOption {
	return func(b *configBuilder) {
		path := WriteScript(b.t, filepath.Join(b.baseDir, "bin"), tool+".sh", body)
		stub := config.Tool{Command: path, Args: args}
		switch tool {
		case "decode":
			b.cfg.Tools.Decode = stub
		case "encode":
			b.cfg.Tools.Encode = stub
		case "image":
			b.cfg.Tools.Image = stub
		case "burn":
			b.cfg.Tools.Burn = stub
		case "eject":
			b.cfg.Tools.Eject = stub
		default:
			b.t.Fatalf("unknown tool %q", tool)
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries
// are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"faad", "lame", "genisoimage", "wodim", "eject"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		for _, name := range names {
			WriteScript(b.t, binDir, name, "exit 0")
		}
		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
