// Package media ingests uploaded cover files: it preserves the original
// filename's extension, moves the upload into the configured storage
// backend, and hands back the relative reference stored on the post.
package media

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pothyeswaran/blogserver/internal/storage"
)

// RefPrefix is the path segment under which cover references resolve.
const RefPrefix = "uploads"

// Ext returns the extension of a filename: the last dot-delimited segment,
// without the dot. A name with no dot has no extension.
func Ext(filename string) string {
	base := filepath.Base(filename)
	idx := strings.LastIndex(base, ".")
	if idx < 0 || idx == len(base)-1 {
		return ""
	}
	return base[idx+1:]
}

// Normalize moves an uploaded temporary file to its final name, appending
// the extension of the original filename. The move is an atomic rename; it
// fails if the temporary file is missing or the target is not writable.
func Normalize(tmpPath, originalFilename string) (string, error) {
	finalPath := tmpPath
	if ext := Ext(originalFilename); ext != "" {
		finalPath = tmpPath + "." + ext
	}
	if finalPath == tmpPath {
		// Nothing to append; just confirm the upload exists.
		if _, err := os.Stat(tmpPath); err != nil {
			return "", err
		}
		return finalPath, nil
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", err
	}
	return finalPath, nil
}

// Ingestor stores uploaded covers in an object storage backend.
type Ingestor struct {
	backend storage.ObjectStorage
}

func NewIngestor(backend storage.ObjectStorage) *Ingestor {
	return &Ingestor{backend: backend}
}

// Ingest stores the uploaded file and returns the cover reference to record
// on the post. The stored key keeps the upload's original extension so the
// asset stays recognizable when served.
func (i *Ingestor) Ingest(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// The local backend follows the spool-then-rename flow so the final
	// file appears atomically under the media root.
	if local, ok := i.backend.(*storage.LocalDir); ok {
		tmpPath, err := local.SaveTemp(src)
		if err != nil {
			return "", err
		}
		finalPath, err := Normalize(tmpPath, fh.Filename)
		if err != nil {
			_ = os.Remove(tmpPath)
			return "", err
		}
		return path.Join(RefPrefix, filepath.Base(finalPath)), nil
	}

	key := uuid.NewString()
	if ext := Ext(fh.Filename); ext != "" {
		key += "." + ext
	}
	contentType := fh.Header.Get("Content-Type")
	if err := i.backend.Put(ctx, key, src, fh.Size, contentType); err != nil {
		return "", err
	}
	return path.Join(RefPrefix, key), nil
}

// Open returns a reader for a previously ingested cover key.
func (i *Ingestor) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return i.backend.Get(ctx, key)
}
