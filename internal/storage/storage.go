package storage

import (
	"context"
	"io"
	"time"
)

// Default expiry for presigned download links handed out on export.
const DefaultDownloadExpiry = 15 * time.Minute

// ArchiveStorage persists export archives in object storage and hands out
// time-limited download links for them.
type ArchiveStorage interface {
	// PutArchive uploads an encoded archive under the given key.
	PutArchive(ctx context.Context, key, contentType string, body io.Reader) error

	// DownloadURL creates a temporary GET URL for a stored archive.
	DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error)

	// DeleteArchive removes a stored archive.
	DeleteArchive(ctx context.Context, key string) error
}
