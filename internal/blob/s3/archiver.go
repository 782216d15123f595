package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

// LedgerArchiveStore is the slice of the ledger store the archiver needs.
type LedgerArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.LedgerEntry, error)
}

// LedgerArchiver implements domain.Archiver: it exports ledger rows older
// than a cutoff to JSONL in blob storage and records the export in the audit
// log. Rows are not deleted from the primary store here; pruning is a
// separate step after the export has been verified.
type LedgerArchiver struct {
	writer domain.BlobWriter
	ledger LedgerArchiveStore
	audit  domain.AuditStore
}

// NewLedgerArchiver creates a LedgerArchiver. The audit store may be nil.
func NewLedgerArchiver(writer domain.BlobWriter, ledger LedgerArchiveStore, audit domain.AuditStore) *LedgerArchiver {
	return &LedgerArchiver{
		writer: writer,
		ledger: ledger,
		audit:  audit,
	}
}

// ArchiveLedger exports every ledger entry created before the cutoff to
// archive/ledger/YYYY-MM.jsonl and returns the exported row count.
func (a *LedgerArchiver) ArchiveLedger(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.ledger.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive ledger query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(entries)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive ledger marshal: %w", err)
	}

	path := archivePath("ledger", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive ledger upload: %w", err)
	}

	count := int64(len(entries))
	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.ledger", map[string]any{
			"path":   path,
			"count":  count,
			"before": before.Format(time.RFC3339),
		}); err != nil {
			return count, fmt.Errorf("s3blob: archive ledger audit log: %w", err)
		}
	}
	return count, nil
}

// archivePath partitions archive files by the year-month of the cutoff, e.g.
// archive/ledger/2026-08.jsonl.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises records as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*LedgerArchiver)(nil)
