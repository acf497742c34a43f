package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalGetMissingKey(t *testing.T) {
	t.Parallel()

	backend, err := NewLocalDir(t.TempDir())
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}

	if _, err := backend.Get(context.Background(), "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := backend.Delete(context.Background(), "missing.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLocalPutAndGet(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := NewLocalDir(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}

	if err := backend.Put(context.Background(), "cover.jpg", strings.NewReader("jpg-bytes"), 9, "image/jpeg"); err != nil {
		t.Fatalf("put: %v", err)
	}

	obj, err := backend.Get(context.Background(), "cover.jpg")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer obj.Close()

	data, err := os.ReadFile(filepath.Join(dir, "cover.jpg"))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpg-bytes" {
		t.Fatalf("stored content: got %q", data)
	}
}

func TestLocalKeyCannotEscapeDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := NewLocalDir(dir)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}

	if err := backend.Put(context.Background(), "../escape.txt", strings.NewReader("x"), 1, ""); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); err != nil {
		t.Fatalf("expected file inside media dir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(dir), "escape.txt")); !os.IsNotExist(err) {
		t.Fatalf("file must not be written outside the media dir")
	}
}
