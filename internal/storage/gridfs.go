package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

// GridFSStore keeps blobs in a MongoDB GridFS bucket, one GridFS file per key.
type GridFSStore struct {
	bucket *gridfs.Bucket
}

func NewGridFSStore(bucket *gridfs.Bucket) *GridFSStore {
	return &GridFSStore{bucket: bucket}
}

func (g *GridFSStore) Put(_ context.Context, key, contentType string, r io.Reader, _ int64) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	opts := options.GridFSUpload().SetMetadata(bson.M{"mime_type": contentType})
	stream, err := g.bucket.OpenUploadStream(key, opts)
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	if _, err := io.Copy(stream, r); err != nil {
		_ = stream.Abort()
		return "", fmt.Errorf("file copy failed: %w", err)
	}
	if err := stream.Close(); err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return "gridfs://" + key, nil
}

func (g *GridFSStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	stream, err := g.bucket.OpenDownloadStreamByName(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, chaterrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}
	return stream, nil
}

// URL is empty: GridFS blobs are streamed by the application.
func (g *GridFSStore) URL(string) string {
	return ""
}
