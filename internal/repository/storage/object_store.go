// Package storage keeps receipt images in an S3-compatible bucket.
package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore defines the object storage operations used for receipts.
// Objects are private; readers get time-limited presigned URLs.
type ObjectStore interface {
	// Upload stores data under objectPath and returns the path
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

var _ ObjectStore = (*S3ObjectStore)(nil)
