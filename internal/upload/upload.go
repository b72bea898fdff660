// internal/upload/upload.go
package upload

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"garage-backoffice/internal/common/errors"
	"garage-backoffice/internal/common/logger"
	"garage-backoffice/internal/common/metrics"
)

const (
	// MaxFileBytes caps a single uploaded document.
	MaxFileBytes = 5 << 20
	// MaxBatchBytes caps the aggregate of one upload batch.
	MaxBatchBytes = 20 << 20
)

// ObjectStore is the blob storage capability behind uploads.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)
	DeleteObject(ctx context.Context, key string) error
}

// File is one upload request item.
type File struct {
	Name        string
	Data        []byte
	ContentType string
}

// Service stores files in object storage and returns durable public URLs.
// Size limits are enforced here, before the store is invoked.
type Service struct {
	store  ObjectStore
	logger logger.Logger
}

func NewService(store ObjectStore, log logger.Logger) *Service {
	return &Service{store: store, logger: log}
}

// Upload stores one file under logicalPath and returns its public URL. The
// stored key gets a uuid prefix so repeated uploads of the same filename
// never overwrite each other.
func (s *Service) Upload(ctx context.Context, file File, logicalPath string) (string, error) {
	if len(file.Data) > MaxFileBytes {
		return "", errors.NewFileTooLargeError(
			fmt.Sprintf("file %s is %d bytes, limit is %d", file.Name, len(file.Data), MaxFileBytes))
	}
	if len(file.Data) == 0 {
		return "", errors.NewValidationFailedError("empty file")
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = ContentTypeForName(file.Name)
	}

	key := path.Join(strings.Trim(logicalPath, "/"), uuid.New().String()+"-"+sanitizeName(file.Name))

	url, err := s.store.PutObject(ctx, key, file.Data, contentType)
	if err != nil {
		return "", errors.NewStorageError("upload", err)
	}

	metrics.DocumentsUploaded.Inc()
	s.logger.Info("Document uploaded", map[string]interface{}{
		"key":   key,
		"bytes": len(file.Data),
	})

	return url, nil
}

// UploadBatch stores several files under the same logical path. The whole
// batch is rejected up front when its aggregate size exceeds the limit;
// otherwise files are stored one by one and the first failure aborts.
func (s *Service) UploadBatch(ctx context.Context, files []File, logicalPath string) ([]string, error) {
	var total int
	for _, f := range files {
		total += len(f.Data)
	}
	if total > MaxBatchBytes {
		return nil, errors.NewFileTooLargeError(
			fmt.Sprintf("batch is %d bytes, limit is %d", total, MaxBatchBytes))
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.Upload(ctx, f, logicalPath)
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// ContentTypeForName maps a filename extension to a MIME type. Unknown
// extensions fall back to octet-stream.
func ContentTypeForName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "pdf":
		return "application/pdf"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func sanitizeName(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
