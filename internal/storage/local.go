package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalDir stores objects as plain files under a single directory.
// It is the default backend; the directory doubles as the static media
// root served under /uploads.
type LocalDir struct {
	dir string
}

// NewLocalDir constructs a local backend rooted at dir.
func NewLocalDir(dir string) (*LocalDir, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("media dir is required")
	}
	return &LocalDir{dir: dir}, nil
}

// EnsureBucket creates the media directory if it does not exist.
func (l *LocalDir) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

// Put writes an object to the directory. The content is spooled to a
// temporary name first and moved into place with an atomic rename, so a
// reader never observes a half-written file.
func (l *LocalDir) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	tmpPath, err := l.SaveTemp(r)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpPath, l.path(key)); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// SaveTemp spools r to a freshly named temporary file inside the media
// directory and returns its path. The caller is responsible for moving the
// file to its final name.
func (l *LocalDir) SaveTemp(r io.Reader) (string, error) {
	tmpPath := l.path(uuid.NewString())
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", err
	}
	return tmpPath, nil
}

// Get opens the named object for reading.
func (l *LocalDir) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the named object.
func (l *LocalDir) Delete(ctx context.Context, key string) error {
	if err := os.Remove(l.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Bucket returns the media directory path.
func (l *LocalDir) Bucket() string {
	return l.dir
}

func (l *LocalDir) path(key string) string {
	// Keys are generated server-side, but strip any path component anyway
	// so a stored key can never escape the media directory.
	return filepath.Join(l.dir, filepath.Base(key))
}
