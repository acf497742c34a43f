// Package storage provides the object storage backends that hold uploaded
// cover media. Backends are interchangeable behind ObjectStorage; the rest
// of the application only ever deals in keys.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Get and Delete when no object exists under the
// given key, whatever the backend.
var ErrNotFound = errors.New("object not found")

// ObjectStorage defines common object operations across backends.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Bucket() string
}
