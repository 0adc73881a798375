package toolexec

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"burnaudio/internal/textutil"
)

// StderrTailBytes bounds the stderr excerpt kept on failure.
const StderrTailBytes = 2048

// Executor abstracts command execution for testability.
type Executor interface {
	// Run executes cmd. onLine receives each stdout and stderr line when set.
	Run(ctx context.Context, cmd Command, onLine func(string)) error
	// Pipe runs src and dst concurrently with src's stdout connected
	// directly to dst's stdin.
	Pipe(ctx context.Context, src, dst Command) error
}

// Error describes a tool that could not start or exited unsuccessfully.
type Error struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Command, e.Err)
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(cmd Command, err error, stderr string) *Error {
	out := &Error{Command: cmd.Path, Err: err, Stderr: textutil.Tail(stderr, StderrTailBytes)}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
	}
	return out
}

// CommandExecutor runs commands with os/exec.
type CommandExecutor struct{}

// Run executes cmd and waits for it to exit.
func (CommandExecutor) Run(ctx context.Context, cmd Command, onLine func(string)) error {
	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...) //nolint:gosec
	tail := &tailBuffer{limit: StderrTailBytes}

	if onLine == nil {
		c.Stdout = io.Discard
		c.Stderr = tail
		if err := c.Run(); err != nil {
			return newError(cmd, err, tail.String())
		}
		return nil
	}

	stdout, err := c.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := c.Start(); err != nil {
		return newError(cmd, err, "")
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	forward := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		onLine(line)
	}
	scan := func(r io.Reader, sink io.Writer) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if sink != nil {
				_, _ = io.WriteString(sink, line+"\n")
			}
			forward(line)
		}
	}
	wg.Add(2)
	go scan(stdout, nil)
	go scan(stderr, tail)
	wg.Wait()

	if err := c.Wait(); err != nil {
		return newError(cmd, err, tail.String())
	}
	return nil
}

// Pipe connects src's stdout to dst's stdin through an OS pipe. The parent
// closes its copies of both ends once the children start so an early exit of
// either side is visible to the other.
func (CommandExecutor) Pipe(ctx context.Context, src, dst Command) error {
	producer := exec.CommandContext(ctx, src.Path, src.Args...) //nolint:gosec
	consumer := exec.CommandContext(ctx, dst.Path, dst.Args...) //nolint:gosec

	reader, writer, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("create pipe: %w", err)
	}
	producerErr := &tailBuffer{limit: StderrTailBytes}
	consumerErr := &tailBuffer{limit: StderrTailBytes}
	producer.Stdout = writer
	producer.Stderr = producerErr
	consumer.Stdin = reader
	consumer.Stdout = io.Discard
	consumer.Stderr = consumerErr

	if err := consumer.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		return newError(dst, err, "")
	}
	if err := producer.Start(); err != nil {
		_ = reader.Close()
		_ = writer.Close()
		_ = consumer.Process.Kill()
		_ = consumer.Wait()
		return newError(src, err, "")
	}
	_ = reader.Close()
	_ = writer.Close()

	consumerWait := consumer.Wait()
	if consumerWait != nil {
		_ = producer.Process.Kill()
	}
	producerWait := producer.Wait()

	if consumerWait != nil {
		return newError(dst, consumerWait, consumerErr.String())
	}
	if producerWait != nil {
		return newError(src, producerWait, producerErr.String())
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
