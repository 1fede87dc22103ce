// Package storage provides a domain-agnostic interface for S3-compatible
// object storage. Export artifacts are the only current consumer, but the
// interface stays generic.
package storage

import (
	"context"
	"io"
	"time"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService defines the interface for object storage operations.
type StorageService interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// UploadFile uploads an object under the exact given key.
	UploadFile(ctx context.Context, bucket, key, contentType string, reader io.Reader, size int64) error

	// GenerateDownloadURL creates a presigned URL for downloading an object.
	GenerateDownloadURL(ctx context.Context, bucket, key string) (*PresignedURL, error)

	// DownloadFile streams an object. The caller closes the reader.
	DownloadFile(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}
