package services

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository/memory"
	"github.com/mohanraja088/simple-chat-app-demo/internal/storage"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

func newUploadService(t *testing.T, maxBytes int64) (*UploadService, *memory.Store) {
	t.Helper()
	blobs, err := storage.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	mem := memory.New()
	return NewUploadService(mem, blobs, maxBytes, "/uploads/", nil), mem
}

func TestUpload_StoresBlobAndRecord(t *testing.T) {
	ctx := context.Background()
	svc, mem := newUploadService(t, 1024)

	f, err := svc.Upload(ctx, UploadInput{
		UploadedBy:   "alice",
		OriginalName: "Photo.JPG",
		ContentType:  "image/jpeg",
		Size:         5,
		Body:         strings.NewReader("hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Photo.JPG", f.OriginalName)
	assert.True(t, strings.HasSuffix(f.Filename, ".jpg"))
	assert.Equal(t, "/uploads/"+f.Filename, svc.FileURL(f))

	stored, err := mem.GetFileByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f.Filename, stored.Filename)

	rc, err := svc.Open(ctx, f.Filename)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestUpload_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newUploadService(t, 4)

	_, err := svc.Upload(ctx, UploadInput{UploadedBy: "a", OriginalName: "x.txt"})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = svc.Upload(ctx, UploadInput{OriginalName: "x.txt", Size: 1, Body: bytes.NewReader([]byte("x"))})
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = svc.Upload(ctx, UploadInput{UploadedBy: "a", OriginalName: "x.txt", Size: 5, Body: strings.NewReader("hello")})
	assert.ErrorIs(t, err, chaterrors.ErrTooLarge)
	assert.Equal(t, 413, HTTPStatus(err))
}

func TestUpload_OpenRejectsTraversal(t *testing.T) {
	svc, _ := newUploadService(t, 0)

	_, err := svc.Open(context.Background(), "../secret")
	assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)

	_, err = svc.Open(context.Background(), "missing.txt")
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)
}

type linkedBlobs struct {
	storage.BlobStore
}

func (linkedBlobs) URL(key string) string { return "https://cdn.example.com/" + key }

func TestUpload_FileURLPrefersBlobURL(t *testing.T) {
	svc := NewUploadService(memory.New(), linkedBlobs{}, 0, "", nil)

	assert.Equal(t, "https://cdn.example.com/k_1.png", svc.FileURL(file.File{Filename: "k_1.png"}))
	assert.Equal(t, "https://cdn.example.com/k_1.png", svc.RedirectURL("k_1.png"))
}
