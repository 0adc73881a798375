package disc

import (
	"context"
	"fmt"
	"strings"

	"burnaudio/internal/config"
	"burnaudio/internal/toolexec"
)

// Ejector defines disc eject operations.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

// EjectorOption configures the command ejector.
type EjectorOption func(*commandEjector)

// WithEjectExecutor injects a custom executor (primarily for tests).
func WithEjectExecutor(exec toolexec.Executor) EjectorOption {
	return func(e *commandEjector) {
		if exec != nil {
			e.exec = exec
		}
	}
}

type commandEjector struct {
	tool config.Tool
	exec toolexec.Executor
}

// NewEjector creates an ejector that shells out to the configured eject tool.
func NewEjector(tool config.Tool, opts ...EjectorOption) Ejector {
	e := &commandEjector{tool: tool, exec: toolexec.CommandExecutor{}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *commandEjector) Eject(ctx context.Context, device string) error {
	tool := e.tool
	if strings.TrimSpace(device) == "" {
		tool.Args = dropDeviceArgs(tool.Args)
	}
	cmd, err := toolexec.Expand(tool, toolexec.Vars{"device": device})
	if err != nil {
		return fmt.Errorf("eject %s: %w", device, err)
	}
	if err := e.exec.Run(ctx, cmd, nil); err != nil {
		return fmt.Errorf("eject %s: %w", device, err)
	}
	return nil
}

// dropDeviceArgs removes arguments that only carry the device so the tool
// falls back to its default drive.
func dropDeviceArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.Contains(arg, "{device}") {
			continue
		}
		out = append(out, arg)
	}
	return out
}
