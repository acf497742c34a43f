package media

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pothyeswaran/blogserver/internal/storage"
)

func TestExt(t *testing.T) {
	t.Parallel()

	cases := []struct {
		filename string
		want     string
	}{
		{"photo.jpg", "jpg"},
		{"archive.tar.gz", "gz"},
		{"README", ""},
		{"trailing.", ""},
		{".hidden", "hidden"},
		{"dir/cover.png", "png"},
	}

	for _, tc := range cases {
		if got := Ext(tc.filename); got != tc.want {
			t.Errorf("Ext(%q) = %q, want %q", tc.filename, got, tc.want)
		}
	}
}

func TestNormalizeAppendsExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpPath := filepath.Join(dir, "upload-123")
	if err := os.WriteFile(tmpPath, []byte("image bytes"), 0o644); err != nil {
		t.Fatalf("write tmp file: %v", err)
	}

	finalPath, err := Normalize(tmpPath, "cover.png")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if finalPath != tmpPath+".png" {
		t.Fatalf("final path: got %q want %q", finalPath, tmpPath+".png")
	}

	if _, err := os.Stat(tmpPath); !os.IsNotExist(err) {
		t.Fatalf("expected temporary file to be moved away")
	}
	data, err := os.ReadFile(finalPath)
	if err != nil {
		t.Fatalf("read final file: %v", err)
	}
	if string(data) != "image bytes" {
		t.Fatalf("content mismatch after move")
	}
}

func TestNormalizeNoExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tmpPath := filepath.Join(dir, "upload-456")
	if err := os.WriteFile(tmpPath, []byte("x"), 0o644); err != nil {
		t.Fatalf("write tmp file: %v", err)
	}

	finalPath, err := Normalize(tmpPath, "README")
	if err != nil {
		t.Fatalf("Normalize error: %v", err)
	}
	if finalPath != tmpPath {
		t.Fatalf("expected path unchanged for extension-less upload, got %q", finalPath)
	}
}

func TestNormalizeMissingTempFile(t *testing.T) {
	t.Parallel()

	if _, err := Normalize(filepath.Join(t.TempDir(), "gone"), "cover.png"); err == nil {
		t.Fatalf("expected error for missing temporary file")
	}
}

func buildFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := io.WriteString(part, content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })

	files := form.File["file"]
	if len(files) != 1 {
		t.Fatalf("expected one file, got %d", len(files))
	}
	return files[0]
}

func TestIngestLocalPreservesExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	backend, err := storage.NewLocalDir(dir)
	if err != nil {
		t.Fatalf("NewLocalDir error: %v", err)
	}
	ingestor := NewIngestor(backend)

	ref, err := ingestor.Ingest(context.Background(), buildFileHeader(t, "holiday.jpg", "jpeg bytes"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}

	if !strings.HasPrefix(ref, RefPrefix+"/") {
		t.Fatalf("expected ref under %q, got %q", RefPrefix, ref)
	}
	if !strings.HasSuffix(ref, ".jpg") {
		t.Fatalf("expected ref to keep .jpg extension, got %q", ref)
	}

	key := strings.TrimPrefix(ref, RefPrefix+"/")
	data, err := os.ReadFile(filepath.Join(dir, key))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Fatalf("stored content mismatch")
	}

	// No stray temporary files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one stored file, got %d", len(entries))
	}
}

func TestIngestOpenRoundTrip(t *testing.T) {
	t.Parallel()

	backend, err := storage.NewLocalDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalDir error: %v", err)
	}
	ingestor := NewIngestor(backend)

	ref, err := ingestor.Ingest(context.Background(), buildFileHeader(t, "cover.png", "png bytes"))
	if err != nil {
		t.Fatalf("Ingest error: %v", err)
	}

	key := strings.TrimPrefix(ref, RefPrefix+"/")
	obj, err := ingestor.Open(context.Background(), key)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(data) != "png bytes" {
		t.Fatalf("object content mismatch")
	}
}
