package storage

import (
	"bytes"
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	chaterrors "github.com/mohanraja088/simple-chat-app-demo/pkg/errors"
)

func TestNewObjectKey(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	key := NewObjectKey("Holiday Photo.JPG", now)

	assert.Regexp(t, regexp.MustCompile(`^1700000000123_\d+\.jpg$`), key)
	assert.Regexp(t, regexp.MustCompile(`^1700000000123_\d+$`), NewObjectKey("README", now))
	assert.NotContains(t, NewObjectKey("../../etc/passwd.txt", now), "/")
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"1700_42.png", true},
		{"", false},
		{"..", false},
		{"a/b", false},
		{`a\b`, false},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, chaterrors.ErrInvalidInput)
			}
		})
	}
}

func TestDiskStore_PutOpen(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.Put(ctx, "1_1.txt", "text/plain", bytes.NewBufferString("hello"), 5)
	require.NoError(t, err)
	assert.Contains(t, path, "1_1.txt")

	_, err = store.Put(ctx, "1_1.txt", "text/plain", bytes.NewBufferString("again"), 5)
	assert.ErrorIs(t, err, chaterrors.ErrAlreadyExists)

	rc, err := store.Open(ctx, "1_1.txt")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = store.Open(ctx, "missing.txt")
	assert.ErrorIs(t, err, chaterrors.ErrNotFound)
	assert.Empty(t, store.URL("1_1.txt"))
}

func TestS3Store_URL(t *testing.T) {
	s := &S3Store{cfg: S3Config{PublicBase: "https://cdn.example.com/"}}
	assert.Equal(t, "https://cdn.example.com/k.png", s.URL("k.png"))
	assert.Empty(t, (&S3Store{}).URL("k.png"))
}
