// internal/upload/upload_test.go
package upload

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
)

type fakeObjectStore struct {
	keys []string
	err  error
}

func (s *fakeObjectStore) PutObject(_ context.Context, key string, _ []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	return "https://bucket.example.com/" + key, nil
}

func (s *fakeObjectStore) DeleteObject(context.Context, string) error { return nil }

func TestUpload_ReturnsDurableURL(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewService(store, logger.NewTestLogger(t))

	url, err := svc.Upload(context.Background(), File{
		Name: "carte grise.pdf",
		Data: []byte("pdf-bytes"),
	}, "registrations/reg-1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(url, "https://bucket.example.com/registrations/reg-1/"))
	assert.True(t, strings.HasSuffix(url, "-carte_grise.pdf"))
	require.Len(t, store.keys, 1)
}

func TestUpload_RejectsOversizedFile(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewService(store, logger.NewTestLogger(t))

	_, err := svc.Upload(context.Background(), File{
		Name: "huge.pdf",
		Data: bytes.Repeat([]byte{0x1}, MaxFileBytes+1),
	}, "registrations/reg-1")

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileTooLarge))
	assert.Empty(t, store.keys, "oversized file must never reach the store")
}

func TestUploadBatch_RejectsOversizedAggregate(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewService(store, logger.NewTestLogger(t))

	files := []File{
		{Name: "a.pdf", Data: bytes.Repeat([]byte{0x1}, MaxFileBytes)},
		{Name: "b.pdf", Data: bytes.Repeat([]byte{0x1}, MaxFileBytes)},
		{Name: "c.pdf", Data: bytes.Repeat([]byte{0x1}, MaxFileBytes)},
		{Name: "d.pdf", Data: bytes.Repeat([]byte{0x1}, MaxFileBytes)},
		{Name: "e.pdf", Data: []byte{0x1}},
	}

	_, err := svc.UploadBatch(context.Background(), files, "registrations/reg-1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeFileTooLarge))
	assert.Empty(t, store.keys)
}

func TestUploadBatch_StoresEachFile(t *testing.T) {
	store := &fakeObjectStore{}
	svc := NewService(store, logger.NewTestLogger(t))

	urls, err := svc.UploadBatch(context.Background(), []File{
		{Name: "cg.pdf", Data: []byte("a")},
		{Name: "id.jpg", Data: []byte("b")},
	}, "registrations/reg-1")
	require.NoError(t, err)
	assert.Len(t, urls, 2)
	assert.Len(t, store.keys, 2)
}

func TestContentTypeForName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"photo.JPG", "image/jpeg"},
		{"photo.jpeg", "image/jpeg"},
		{"scan.png", "image/png"},
		{"anim.gif", "image/gif"},
		{"doc.pdf", "application/pdf"},
		{"notes.txt", "text/plain"},
		{"archive.zip", "application/octet-stream"},
		{"noextension", "application/octet-stream"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ContentTypeForName(tt.name), tt.name)
	}
}
