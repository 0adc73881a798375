package toolexec_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"burnaudio/internal/config"
	"burnaudio/internal/toolexec"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func TestExpand(t *testing.T) {
	cmd, err := toolexec.Expand(config.Tool{
		Command: "lame",
		Args:    []string{"-b", "{bitrate}", "-", "{output}"},
	}, toolexec.Vars{"bitrate": "192", "output": "/tmp/a b.mp3"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	want := []string{"-b", "192", "-", "/tmp/a b.mp3"}
	if strings.Join(cmd.Args, "|") != strings.Join(want, "|") {
		t.Fatalf("args = %v, want %v", cmd.Args, want)
	}
	if !strings.Contains(cmd.String(), `"/tmp/a b.mp3"`) {
		t.Fatalf("String should quote spaced args: %s", cmd.String())
	}
}

func TestExpandRejectsUnknownPlaceholder(t *testing.T) {
	_, err := toolexec.Expand(config.Tool{Command: "lame", Args: []string{"{bitrat}"}}, toolexec.Vars{"bitrate": "1"})
	if err == nil || !strings.Contains(err.Error(), "{bitrat}") {
		t.Fatalf("expected unknown placeholder error, got %v", err)
	}
}

func TestExpandKeepsBracesInValues(t *testing.T) {
	cmd, err := toolexec.Expand(config.Tool{
		Command: "faad",
		Args:    []string{"-o", "-", "{source}"},
	}, toolexec.Vars{"source": "/music/song {remix}.m4a"})
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if got := cmd.Args[2]; got != "/music/song {remix}.m4a" {
		t.Fatalf("source arg = %q", got)
	}
}

func TestRunCapturesStderrTail(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "fail.sh", "echo 'disk on fire' >&2\nexit 3")

	err := toolexec.CommandExecutor{}.Run(context.Background(), toolexec.Command{Path: script}, nil)
	var toolErr *toolexec.Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *toolexec.Error, got %v", err)
	}
	if toolErr.ExitCode != 3 {
		t.Fatalf("exit code = %d", toolErr.ExitCode)
	}
	if !strings.Contains(toolErr.Stderr, "disk on fire") {
		t.Fatalf("stderr tail = %q", toolErr.Stderr)
	}
}

func TestRunForwardsLines(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "talk.sh", "echo one\necho two >&2")

	var lines []string
	err := toolexec.CommandExecutor{}.Run(context.Background(), toolexec.Command{Path: script}, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
}

func TestPipeStreamsProducerIntoConsumer(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	producer := writeScript(t, dir, "producer.sh", "printf 'audio-bytes'")
	consumer := writeScript(t, dir, "consumer.sh", "cat > \"$1\"")

	err := toolexec.CommandExecutor{}.Pipe(context.Background(),
		toolexec.Command{Path: producer},
		toolexec.Command{Path: consumer, Args: []string{out}},
	)
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "audio-bytes" {
		t.Fatalf("consumer received %q", data)
	}
}

func TestPipeReportsProducerFailure(t *testing.T) {
	dir := t.TempDir()
	producer := writeScript(t, dir, "producer.sh", "echo 'bad header' >&2\nexit 1")
	consumer := writeScript(t, dir, "consumer.sh", "cat > /dev/null")

	err := toolexec.CommandExecutor{}.Pipe(context.Background(),
		toolexec.Command{Path: producer},
		toolexec.Command{Path: consumer},
	)
	var toolErr *toolexec.Error
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *toolexec.Error, got %v", err)
	}
	if toolErr.Command != producer || !strings.Contains(toolErr.Stderr, "bad header") {
		t.Fatalf("unexpected error: %+v", toolErr)
	}
}

func TestPipeHonoursCancellation(t *testing.T) {
	dir := t.TempDir()
	producer := writeScript(t, dir, "producer.sh", "exec sleep 5")
	consumer := writeScript(t, dir, "consumer.sh", "exec cat > /dev/null")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := toolexec.CommandExecutor{}.Pipe(ctx,
		toolexec.Command{Path: producer},
		toolexec.Command{Path: consumer},
	)
	if err == nil {
		t.Fatal("expected error after cancellation")
	}
	if time.Since(start) > 3*time.Second {
		t.Fatal("pipe did not stop on cancellation")
	}
}
