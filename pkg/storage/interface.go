package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStore is the bucket the uploader drops images into. Writes to an S3
// bucket with notifications enabled are what trigger face detection.
type ObjectStore interface {
	// Put stores r under key. size is -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a link to key valid for roughly expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Bucket names the target bucket, or the base directory for local storage.
	Bucket() string
}
