package fileutil

import (
	"context"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")

	content := make([]byte, 1024*64)
	for i := range content {
		content[i] = byte(i % 256)
	}
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := CopyFileVerified(context.Background(), src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len(content)) {
		t.Fatalf("written = %d, want %d", n, len(content))
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(content) {
		t.Fatalf("size mismatch: got %d, want %d", len(got), len(content))
	}
}

func TestCopyFileVerifiedCancelledRemovesDestination(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.mp3")
	dst := filepath.Join(dir, "dst.mp3")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CopyFileVerified(ctx, src, dst); err == nil {
		t.Fatal("expected cancellation error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Fatalf("expected destination removed, stat err = %v", err)
	}
}

func TestVerifyDigestDetectsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "copy.mp3")
	if err := os.WriteFile(path, []byte("original"), 0o644); err != nil {
		t.Fatal(err)
	}
	sum := sha256.Sum256([]byte("original"))
	if err := verifyDigest(path, sum[:]); err != nil {
		t.Fatalf("matching digest: %v", err)
	}
	if err := os.WriteFile(path, []byte("0riginal"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := verifyDigest(path, sum[:]); err == nil {
		t.Fatal("expected mismatch after the file changed on disk")
	}
}

func TestCopyFileVerifiedMissingSource(t *testing.T) {
	dir := t.TempDir()
	if _, err := CopyFileVerified(context.Background(), filepath.Join(dir, "nope"), filepath.Join(dir, "dst")); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestFileSizeAndRemoveIfExists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.bin")

	if _, ok, err := FileSize(path); err != nil || ok {
		t.Fatalf("missing file: ok=%v err=%v", ok, err)
	}
	if err := os.WriteFile(path, []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	size, ok, err := FileSize(path)
	if err != nil || !ok || size != 3 {
		t.Fatalf("FileSize = %d, %v, %v", size, ok, err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatal(err)
	}
	if err := RemoveIfExists(path); err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if _, _, err := FileSize(dir); err == nil {
		t.Fatal("expected error for directory")
	}
}
