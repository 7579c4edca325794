package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// DiskStore keeps blobs as files in one directory, served under /uploads.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Dir() string {
	return d.dir
}

func (d *DiskStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	path := filepath.Join(d.dir, key)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", chaterrors.ErrAlreadyExists
		}
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

func (d *DiskStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(d.dir, key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, chaterrors.ErrNotFound
	}
	return f, err
}

// URL is empty: disk blobs are served by the application itself.
func (d *DiskStore) URL(string) string {
	return ""
}
