package filetree

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// csvHeader is the column layout of the per-wallet sheets. loader.go decodes
// the same layout.
var csvHeader = []string{
	"received_at", "session_id", "wallet", "side", "size", "price",
	"outcome_label", "outcome_index", "on_chain_timestamp", "tx_hash", "condition_id",
}

// Writer appends trade events to the file tree: every event goes to the
// session day's JSONL log and to the trading wallet's CSV sheet. Open file
// handles are owned by the Writer and released by CloseSession or Close;
// nothing global is cached.
type Writer struct {
	root       string
	flushEvery int
	logger     *slog.Logger

	mu      sync.Mutex
	files   map[string]*appendFile
	pending int
}

// appendFile is one open file plus its CSV encoder when the file is a sheet.
type appendFile struct {
	f   *os.File
	csv *csv.Writer
}

// NewWriter creates a Writer rooted at dataDir. flushEvery controls how many
// appends may buffer before the open files are flushed; 1 flushes every
// event.
func NewWriter(dataDir string, flushEvery int, logger *slog.Logger) *Writer {
	if flushEvery < 1 {
		flushEvery = 1
	}
	return &Writer{
		root:       dataDir,
		flushEvery: flushEvery,
		logger:     logger.With(slog.String("component", "filetree_writer")),
		files:      map[string]*appendFile{},
	}
}

// Append records one event in the session's JSONL log and the wallet's CSV
// sheet. Events without a wallet still reach the JSONL log so no feed data
// is lost; only the sheet is skipped.
func (w *Writer) Append(ctx context.Context, ev domain.TradeEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ev.SessionID == "" {
		return fmt.Errorf("filetree: append: %w: session id", domain.ErrMissingField)
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}
	ev.Wallet = domain.NormalizeWallet(ev.Wallet)

	w.mu.Lock()
	defer w.mu.Unlock()

	day := ev.ReceivedAt
	if err := w.appendJSONL(eventLogPath(w.root, ev.SessionID, day), ev); err != nil {
		return err
	}
	if ev.Wallet != "" {
		if err := w.appendCSV(walletSheetPath(w.root, ev.SessionID, day, ev.Wallet), ev); err != nil {
			return err
		}
	}

	w.pending++
	if w.pending >= w.flushEvery {
		w.flushLocked()
	}
	return nil
}

func (w *Writer) appendJSONL(path string, ev domain.TradeEvent) error {
	af, err := w.open(path, false)
	if err != nil {
		return err
	}
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("filetree: marshal event: %w", err)
	}
	if _, err := af.f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("filetree: write %s: %w", path, err)
	}
	return nil
}

func (w *Writer) appendCSV(path string, ev domain.TradeEvent) error {
	af, err := w.open(path, true)
	if err != nil {
		return err
	}
	if err := af.csv.Write(csvRecord(ev)); err != nil {
		return fmt.Errorf("filetree: write %s: %w", path, err)
	}
	return nil
}

// open returns the cached handle for path, creating the file (and, for
// sheets, writing the header) on first use.
func (w *Writer) open(path string, asCSV bool) (*appendFile, error) {
	if af, ok := w.files[path]; ok {
		return af, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("filetree: mkdir for %s: %w", path, err)
	}

	info, statErr := os.Stat(path)
	fresh := statErr != nil || info.Size() == 0

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("filetree: open %s: %w", path, err)
	}

	af := &appendFile{f: f}
	if asCSV {
		af.csv = csv.NewWriter(f)
		if fresh {
			if err := af.csv.Write(csvHeader); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("filetree: write header %s: %w", path, err)
			}
		}
	}

	w.files[path] = af
	return af, nil
}

// CloseSession flushes and closes every open handle under the session's
// directory. Call it on session rollover before archiving.
func (w *Writer) CloseSession(ctx context.Context, sessionID string) error {
	_ = ctx

	w.mu.Lock()
	defer w.mu.Unlock()

	prefix := sessionDir(w.root, sessionID) + string(filepath.Separator)
	var firstErr error
	for path, af := range w.files {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		if err := af.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("filetree: close %s: %w", path, err)
		}
		delete(w.files, path)
	}
	if firstErr != nil {
		return firstErr
	}

	w.logger.Info("session files closed", slog.String("session", sessionID))
	return nil
}

// Close flushes and closes every open handle.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var firstErr error
	for path, af := range w.files {
		if err := af.close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("filetree: close %s: %w", path, err)
		}
		delete(w.files, path)
	}
	return firstErr
}

func (w *Writer) flushLocked() {
	for path, af := range w.files {
		if af.csv != nil {
			af.csv.Flush()
			if err := af.csv.Error(); err != nil {
				w.logger.Warn("csv flush failed",
					slog.String("path", path),
					slog.String("error", err.Error()),
				)
			}
		}
		if err := af.f.Sync(); err != nil {
			w.logger.Warn("fsync failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
		}
	}
	w.pending = 0
}

func (af *appendFile) close() error {
	if af.csv != nil {
		af.csv.Flush()
	}
	return af.f.Close()
}

// csvRecord renders one event as a sheet row. Optional fields render as
// empty cells.
func csvRecord(ev domain.TradeEvent) []string {
	outcomeIdx := ""
	if ev.OutcomeIndex != nil {
		outcomeIdx = strconv.Itoa(*ev.OutcomeIndex)
	}
	chainTS := ""
	if ev.OnChainTimestamp != nil {
		chainTS = strconv.FormatInt(*ev.OnChainTimestamp, 10)
	}
	return []string{
		ev.ReceivedAt.UTC().Format(time.RFC3339Nano),
		ev.SessionID,
		ev.Wallet,
		string(ev.Side),
		strconv.FormatFloat(ev.Size, 'f', -1, 64),
		strconv.FormatFloat(ev.Price, 'f', -1, 64),
		ev.OutcomeLabel,
		outcomeIdx,
		chainTS,
		ev.TxHash,
		ev.ConditionID,
	}
}

// Compile-time interface check.
var _ domain.TradeWriter = (*Writer)(nil)
