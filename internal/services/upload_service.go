package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/internal/domain/file"
	"github.com/mohanraja088/simple-chat-app-demo/internal/repository"
	"github.com/mohanraja088/simple-chat-app-demo/internal/storage"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

type UploadService struct {
	files      repository.FileRepository
	blobs      storage.BlobStore
	maxBytes   int64
	publicPath string
	logger     *logger.Logger
	now        func() time.Time
}

// NewUploadService stores uploads in blobs. maxBytes <= 0 disables the size
// check; publicPath prefixes the URL of blobs the store cannot link to.
func NewUploadService(files repository.FileRepository, blobs storage.BlobStore, maxBytes int64, publicPath string, log *logger.Logger) *UploadService {
	if log == nil {
		log = logger.NewNop()
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &UploadService{
		files:      files,
		blobs:      blobs,
		maxBytes:   maxBytes,
		publicPath: strings.TrimRight(publicPath, "/"),
		logger:     log,
		now:        time.Now,
	}
}

type UploadInput struct {
	UploadedBy   string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Upload stores the blob under a fresh object key and records its metadata.
func (s *UploadService) Upload(ctx context.Context, in UploadInput) (file.File, error) {
	ctx, span := startSpan(ctx, "UploadService.Upload")
	defer span.End()

	if in.Body == nil {
		return file.File{}, invalid("no file")
	}
	uploadedBy := strings.TrimSpace(in.UploadedBy)
	if uploadedBy == "" {
		return file.File{}, invalid("uploadedBy required")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return file.File{}, fmt.Errorf("%w: file exceeds %d bytes", chaterrors.ErrTooLarge, s.maxBytes)
	}

	now := s.now().UTC()
	key := storage.NewObjectKey(in.OriginalName, now)
	path, err := s.blobs.Put(ctx, key, in.ContentType, in.Body, in.Size)
	if err != nil {
		span.RecordError(err)
		return file.File{}, err
	}

	f := file.File{
		ID:           uuid.NewString(),
		Filename:     key,
		OriginalName: in.OriginalName,
		Path:         path,
		MimeType:     in.ContentType,
		SizeBytes:    in.Size,
		UploadedBy:   uploadedBy,
		UploadedAt:   now,
	}
	if err := s.files.CreateFileRecord(ctx, &f); err != nil {
		// the blob stays behind without a record
		s.logger.WithContext(ctx).Error("record upload failed", zap.String("key", key), zap.Error(err))
		return file.File{}, err
	}
	return f, nil
}

// FileURL is the URL clients use to fetch f.
func (s *UploadService) FileURL(f file.File) string {
	if u := s.blobs.URL(f.Filename); u != "" {
		return u
	}
	return s.publicPath + "/" + f.Filename
}

// Open streams a stored blob by its object key.
func (s *UploadService) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := storage.ValidateKey(key); err != nil {
		return nil, err
	}
	return s.blobs.Open(ctx, key)
}

// RedirectURL returns the absolute object URL of key when the blob store
// serves blobs itself.
func (s *UploadService) RedirectURL(key string) string {
	if storage.ValidateKey(key) != nil {
		return ""
	}
	return s.blobs.URL(key)
}
