package storage

import (
	"context"
	"io"
	"time"
)

// Package storage is the upload/storage gateway: document bytes live in an
// S3-compatible object store, and the rest of the system only ever handles
// the stable storage reference (key) returned from Put. Implementations use
// streaming I/O only, no local disk.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1
// and the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the object storage gateway consumed by document upload/download
// and by the processing pipeline (scan, OCR, metadata, thumbnails).
type Storage interface {
	// Put uploads an object under the given key using the provided reader
	// and options, returning the stored object's info.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the
	// object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
