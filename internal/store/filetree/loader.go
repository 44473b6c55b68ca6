package filetree

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// Loader materializes recorded trade events. The identifier passed to Load
// is either a path to a .jsonl/.csv file or a session id resolved under the
// loader's data root. Malformed records are dropped with a logged warning;
// they never fail the batch.
type Loader struct {
	root   string
	logger *slog.Logger
}

// NewLoader creates a Loader over the given data root.
func NewLoader(dataDir string, logger *slog.Logger) *Loader {
	return &Loader{
		root:   dataDir,
		logger: logger.With(slog.String("component", "filetree_loader")),
	}
}

// Load reads the full event set for a file path or a session id. Events are
// returned in on-chain timestamp order.
func (l *Loader) Load(ctx context.Context, identifier string) ([]domain.TradeEvent, error) {
	var (
		events []domain.TradeEvent
		err    error
	)

	switch {
	case strings.HasSuffix(identifier, ".jsonl"):
		events, err = l.loadJSONLFile(ctx, identifier)
	case strings.HasSuffix(identifier, ".csv"):
		events, err = l.loadCSVFile(ctx, identifier)
	default:
		events, err = l.loadSession(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	domain.SortByChainTime(events)
	return events, nil
}

// LogPaths returns the day log files recorded for a session, in
// chronological order. Returns domain.ErrNotFound for an unknown session.
func (l *Loader) LogPaths(sessionID string) ([]string, error) {
	dir := sessionDir(l.root, sessionID)
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("filetree: session %q: %w", sessionID, domain.ErrNotFound)
	}

	var logs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == eventLogName {
			logs = append(logs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("filetree: walk session %q: %w", sessionID, err)
	}
	sort.Strings(logs) // day directories sort chronologically
	return logs, nil
}

// loadSession collects every day log under root/<session>/.
func (l *Loader) loadSession(ctx context.Context, sessionID string) ([]domain.TradeEvent, error) {
	logs, err := l.LogPaths(sessionID)
	if err != nil {
		return nil, err
	}

	var events []domain.TradeEvent
	for _, path := range logs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch, err := l.loadJSONLFile(ctx, path)
		if err != nil {
			return nil, err
		}
		events = append(events, batch...)
	}
	return events, nil
}

func (l *Loader) loadJSONLFile(ctx context.Context, path string) ([]domain.TradeEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filetree: open %s: %w", path, err)
	}
	defer f.Close()

	var events []domain.TradeEvent
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var ev domain.TradeEvent
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			l.logger.Warn("dropping malformed record",
				slog.String("path", path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()),
			)
			continue
		}
		ev.Wallet = domain.NormalizeWallet(ev.Wallet)
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("filetree: read %s: %w", path, err)
	}
	return events, nil
}

func (l *Loader) loadCSVFile(ctx context.Context, path string) ([]domain.TradeEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("filetree: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // row length is validated below so short rows warn, not fail

	var events []domain.TradeEvent
	lineNo := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		lineNo++
		if err != nil {
			l.logger.Warn("dropping malformed record",
				slog.String("path", path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()),
			)
			continue
		}
		if lineNo == 1 && len(record) > 0 && record[0] == csvHeader[0] {
			continue // header row
		}
		ev, err := parseCSVRecord(record)
		if err != nil {
			l.logger.Warn("dropping malformed record",
				slog.String("path", path),
				slog.Int("line", lineNo),
				slog.String("error", err.Error()),
			)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// parseCSVRecord decodes one sheet row written by csvRecord.
func parseCSVRecord(record []string) (domain.TradeEvent, error) {
	if len(record) != len(csvHeader) {
		return domain.TradeEvent{}, fmt.Errorf("%w: %d columns, want %d", domain.ErrMalformedRecord, len(record), len(csvHeader))
	}

	receivedAt, err := time.Parse(time.RFC3339Nano, record[0])
	if err != nil {
		return domain.TradeEvent{}, fmt.Errorf("%w: received_at: %v", domain.ErrMalformedRecord, err)
	}

	// Missing size or price defaults to zero rather than failing the row.
	size, _ := strconv.ParseFloat(record[4], 64)
	price, _ := strconv.ParseFloat(record[5], 64)

	ev := domain.TradeEvent{
		ReceivedAt:   receivedAt,
		SessionID:    record[1],
		Wallet:       domain.NormalizeWallet(record[2]),
		Side:         domain.NormalizeSide(record[3]),
		Size:         size,
		Price:        price,
		OutcomeLabel: record[6],
		TxHash:       record[9],
		ConditionID:  record[10],
	}

	if record[7] != "" {
		idx, err := strconv.Atoi(record[7])
		if err != nil {
			return domain.TradeEvent{}, fmt.Errorf("%w: outcome_index: %v", domain.ErrMalformedRecord, err)
		}
		ev.OutcomeIndex = &idx
	}
	if record[8] != "" {
		ts, err := strconv.ParseInt(record[8], 10, 64)
		if err != nil {
			return domain.TradeEvent{}, fmt.Errorf("%w: on_chain_timestamp: %v", domain.ErrMalformedRecord, err)
		}
		ev.OnChainTimestamp = &ts
	}

	return ev, nil
}

// Compile-time interface check.
var _ domain.TradeLoader = (*Loader)(nil)
