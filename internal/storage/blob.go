// Package storage holds uploaded file bytes. File metadata lives in the
// persistence gateway; blobs are addressed by their stored file name.
package storage

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"path/filepath"
	"strings"
	"time"

	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// BlobStore is implemented by the disk, S3 and GridFS backends.
type BlobStore interface {
	// Put stores size bytes from r under key and returns the backend path.
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
	// Open returns the blob stored under key or ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// URL returns an absolute public URL for key when the backend has one.
	URL(key string) string
}

// NewObjectKey builds the stored name of an upload:
// <unix millis>_<random digits><original extension>.
func NewObjectKey(originalName string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	return fmt.Sprintf("%d_%d%s", now.UnixMilli(), rand.Int63n(1_000_000_000), ext)
}

// ValidateKey rejects keys that could escape the blob namespace.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: invalid object key", chaterrors.ErrInvalidInput)
	}
	return nil
}
