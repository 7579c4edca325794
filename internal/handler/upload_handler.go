package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

type UploadHandler struct {
	service  *services.UploadService
	maxBytes int64
}

func NewUploadHandler(service *services.UploadService, maxBytes int64) *UploadHandler {
	return &UploadHandler{service: service, maxBytes: maxBytes}
}

// Upload accepts a multipart form with a "file" part and an "uploadedBy"
// field.
func (h *UploadHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		// leave room for the multipart envelope; the service enforces the exact limit
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, chaterrors.ErrTooLarge)
			return
		}
		invalidRequest(c, "No file uploaded")
		return
	}

	uploadedBy := c.PostForm("uploadedBy")
	if uploadedBy == "" {
		uploadedBy, _ = services.UserIDFromContext(c.Request.Context())
	}

	body, err := header.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer body.Close()

	f, err := h.service.Upload(c.Request.Context(), services.UploadInput{
		UploadedBy:   uploadedBy,
		OriginalName: header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         body,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.UploadResponse{
		FileID:   f.ID,
		FileName: f.OriginalName,
		FileURL:  h.service.FileURL(f),
		Size:     f.SizeBytes,
	}))
}

// Serve streams the blob named by the wildcard, or redirects to the object
// URL when the blob store publishes one.
func (h *UploadHandler) Serve(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("filepath"), "/")

	if u := h.service.RedirectURL(key); u != "" {
		c.Redirect(http.StatusFound, u)
		return
	}

	rc, err := h.service.Open(c.Request.Context(), key)
	if err != nil {
		writeError(c, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
