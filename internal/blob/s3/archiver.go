package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// multipartThreshold is the file size above which session logs are
// uploaded via multipart rather than a single PutObject.
const multipartThreshold int64 = 64 * 1024 * 1024

// SessionLogLister enumerates the day log files recorded for a session.
// The filetree loader satisfies this.
type SessionLogLister interface {
	LogPaths(sessionID string) ([]string, error)
}

// TradeArchiveStore provides the time-ranged read the mirror archive
// needs. The Postgres trade store satisfies this.
type TradeArchiveStore interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.TradeEvent, error)
}

// ArchiveImpl implements domain.Archiver. Closed session logs are
// uploaded from the filetree to cold storage, and old mirrored trades
// are dumped from the database as JSONL.
//
// Nothing is deleted from the primary stores here. Pruning is a
// separate, explicit step taken after the archive has been verified.
type ArchiveImpl struct {
	writer domain.BlobWriter
	reader domain.BlobReader
	logs   SessionLogLister
	trades TradeArchiveStore
	logger *slog.Logger
}

// NewArchiver creates an ArchiveImpl. trades may be nil when no database
// mirror is configured; ArchiveTrades then reports zero records.
func NewArchiver(writer domain.BlobWriter, reader domain.BlobReader, logs SessionLogLister, trades TradeArchiveStore, logger *slog.Logger) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		reader: reader,
		logs:   logs,
		trades: trades,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

var _ domain.Archiver = (*ArchiveImpl)(nil)

// ArchiveSession uploads every day log of a closed session to
// archive/sessions/<session>/<day>.jsonl and verifies each object exists
// afterwards. Returns the total number of bytes uploaded.
func (a *ArchiveImpl) ArchiveSession(ctx context.Context, sessionID string) (int64, error) {
	paths, err := a.logs.LogPaths(sessionID)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive session %q: %w", sessionID, err)
	}

	var total int64
	for _, path := range paths {
		n, err := a.uploadLog(ctx, sessionID, path)
		if err != nil {
			return total, err
		}
		total += n
	}

	a.logger.Info("session archived",
		slog.String("session_id", sessionID),
		slog.Int("files", len(paths)),
		slog.Int64("bytes", total),
	)
	return total, nil
}

func (a *ArchiveImpl) uploadLog(ctx context.Context, sessionID, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: open log %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("s3blob: stat log %s: %w", path, err)
	}

	day := filepath.Base(filepath.Dir(path))
	key := fmt.Sprintf("archive/sessions/%s/%s.jsonl", sessionID, day)

	if info.Size() >= multipartThreshold {
		err = a.writer.PutMultipart(ctx, key, f, minPartSize)
	} else {
		err = a.writer.Put(ctx, key, f, "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: upload %s: %w", key, err)
	}

	ok, err := a.reader.Exists(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("s3blob: verify %s: %w", key, err)
	}
	if !ok {
		return 0, fmt.Errorf("s3blob: verify %s: object missing after upload", key)
	}

	return info.Size(), nil
}

// ArchiveTrades dumps all mirrored trades received before the cutoff to
// archive/trades/YYYY-MM.jsonl and returns the record count.
func (a *ArchiveImpl) ArchiveTrades(ctx context.Context, before time.Time) (int64, error) {
	if a.trades == nil {
		return 0, nil
	}

	trades, err := a.trades.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades query: %w", err)
	}
	if len(trades) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(trades)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive trades marshal: %w", err)
	}

	key := fmt.Sprintf("archive/trades/%s.jsonl", before.Format("2006-01"))
	if err := a.writer.Put(ctx, key, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive trades upload: %w", err)
	}

	count := int64(len(trades))
	a.logger.Info("trade mirror archived",
		slog.String("path", key),
		slog.Int64("count", count),
		slog.String("before", before.Format(time.RFC3339)),
	)
	return count, nil
}

// marshalJSONL serialises records as newline-delimited JSON, one compact
// line per record.
func marshalJSONL(records []domain.TradeEvent) ([]byte, error) {
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
