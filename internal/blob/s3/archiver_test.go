package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/creatorpulse/settler/internal/domain"
)

type captureWriter struct {
	path        string
	contentType string
	data        []byte
}

func (w *captureWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	w.path = path
	w.contentType = contentType
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.data = b
	return nil
}

func (w *captureWriter) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	return w.Put(ctx, path, data, "application/octet-stream")
}

type staticLedger struct {
	entries []domain.LedgerEntry
}

func (s *staticLedger) ListBefore(_ context.Context, before time.Time) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.CreatedAt.Before(before) {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestArchiveLedger(t *testing.T) {
	cutoff := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	ledger := &staticLedger{entries: []domain.LedgerEntry{
		{ID: "l1", Kind: domain.LedgerPayout, MarketID: "m1", Amount: 145, CreatedAt: cutoff.Add(-48 * time.Hour)},
		{ID: "l2", Kind: domain.LedgerFeeCredit, MarketID: "m1", Amount: 7.5, CreatedAt: cutoff.Add(-24 * time.Hour)},
		{ID: "l3", Kind: domain.LedgerPayout, MarketID: "m2", Amount: 10, CreatedAt: cutoff.Add(time.Hour)},
	}}
	writer := &captureWriter{}
	archiver := NewLedgerArchiver(writer, ledger, nil)

	count, err := archiver.ArchiveLedger(context.Background(), cutoff)
	if err != nil {
		t.Fatalf("ArchiveLedger failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if writer.path != "archive/ledger/2026-07.jsonl" {
		t.Errorf("path = %q, want archive/ledger/2026-07.jsonl", writer.path)
	}
	if writer.contentType != "application/x-ndjson" {
		t.Errorf("content type = %q", writer.contentType)
	}

	lines := strings.Split(strings.TrimSpace(string(writer.data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("jsonl lines = %d, want 2", len(lines))
	}
	if !bytes.Contains(writer.data, []byte(`"l1"`)) || !bytes.Contains(writer.data, []byte(`"l2"`)) {
		t.Error("exported rows missing expected entry IDs")
	}
}

func TestArchiveLedger_NothingToExport(t *testing.T) {
	writer := &captureWriter{}
	archiver := NewLedgerArchiver(writer, &staticLedger{}, nil)

	count, err := archiver.ArchiveLedger(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("ArchiveLedger failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if writer.path != "" {
		t.Errorf("unexpected upload to %q", writer.path)
	}
}
