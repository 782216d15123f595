package domain

import (
	"context"
	"io"
	"time"
)

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
	PutMultipart(ctx context.Context, path string, data io.Reader, partSize int64) error
}

// BlobInfo describes one stored object.
type BlobInfo struct {
	Path      string
	Size      int64
	UpdatedAt time.Time
}

// BlobReader lists objects in blob storage. The admin API uses it to
// enumerate ledger archive exports.
type BlobReader interface {
	List(ctx context.Context, prefix string) ([]BlobInfo, error)
}

// Archiver exports old ledger rows to blob storage for audit retention.
// Archived rows are not deleted from the primary store here; pruning is a
// separate explicit step after the export has been verified.
type Archiver interface {
	ArchiveLedger(ctx context.Context, before time.Time) (int64, error)
}
