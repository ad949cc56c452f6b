// Package storage provides a small interface over S3-compatible object storage
// for analytics exports.
package storage

import (
	"context"
	"io"
	"time"

	"clinic_marketing_backend/platform/config"
)

// PresignedURL contains the URL and metadata for a presigned download.
type PresignedURL struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// StorageService defines the object storage operations the exports use.
type StorageService interface {
	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// PutObject writes data under fileKey, replacing any previous object.
	PutObject(ctx context.Context, bucket, fileKey, contentType string, data []byte) error

	// GenerateDownloadURL creates a presigned URL for downloading a file.
	GenerateDownloadURL(ctx context.Context, bucket, fileKey string) (*PresignedURL, error)

	// DownloadFile downloads a file directly from storage.
	// The caller is responsible for closing the returned io.ReadCloser.
	DownloadFile(ctx context.Context, bucket, fileKey string) (io.ReadCloser, error)
}

// Config defines the configuration interface for storage.
type Config = config.MinIOConfig
