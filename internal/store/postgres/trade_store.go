package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quangkl1998/polymarket/internal/domain"
)

// TradeStore implements domain.TradeStore using PostgreSQL.
type TradeStore struct {
	pool *pgxpool.Pool
}

// NewTradeStore creates a new TradeStore backed by the given connection pool.
func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

const eventSelectCols = `received_at, session_id, wallet, side, size, price,
	outcome_label, outcome_index, on_chain_timestamp, tx_hash, condition_id`

func scanEventRows(rows pgx.Rows) ([]domain.TradeEvent, error) {
	var events []domain.TradeEvent
	for rows.Next() {
		var ev domain.TradeEvent
		if err := rows.Scan(
			&ev.ReceivedAt, &ev.SessionID, &ev.Wallet, &ev.Side,
			&ev.Size, &ev.Price, &ev.OutcomeLabel, &ev.OutcomeIndex,
			&ev.OnChainTimestamp, &ev.TxHash, &ev.ConditionID,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// InsertBatch inserts multiple events efficiently using pgx Batch. Replayed
// events (same tx hash, wallet, outcome index) are silently skipped via the
// partial unique index.
func (s *TradeStore) InsertBatch(ctx context.Context, events []domain.TradeEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	const query = `
		INSERT INTO trade_events (
			received_at, session_id, wallet, side, size, price,
			outcome_label, outcome_index, on_chain_timestamp, tx_hash, condition_id
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11
		) ON CONFLICT DO NOTHING`

	for _, ev := range events {
		batch.Queue(query,
			ev.ReceivedAt, ev.SessionID, domain.NormalizeWallet(ev.Wallet), ev.Side,
			ev.Size, ev.Price, ev.OutcomeLabel, ev.OutcomeIndex,
			ev.OnChainTimestamp, ev.TxHash, ev.ConditionID,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range events {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("postgres: insert event batch item %d: %w", i, err)
		}
	}
	return nil
}

// GetLastTimestamp returns the most recent ingestion timestamp, or the zero
// time if no events exist.
func (s *TradeStore) GetLastTimestamp(ctx context.Context) (time.Time, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx,
		"SELECT MAX(received_at) FROM trade_events").Scan(&ts)
	if err != nil {
		return time.Time{}, fmt.Errorf("postgres: get last event timestamp: %w", err)
	}
	if ts == nil {
		return time.Time{}, nil
	}
	return *ts, nil
}

// ListBySession returns events for a given session with pagination and
// optional time filtering, ordered ascending by ingestion time so analytics
// see the original arrival order.
func (s *TradeStore) ListBySession(ctx context.Context, sessionID string, opts domain.ListOpts) ([]domain.TradeEvent, error) {
	query := `SELECT ` + eventSelectCols + ` FROM trade_events WHERE session_id = $1`
	args := []any{sessionID}
	query, args = applyListOpts(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events by session: %w", err)
	}
	defer rows.Close()

	events, err := scanEventRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan events by session: %w", err)
	}
	return events, nil
}

// ListByWallet returns events for a wallet (canonical lowercase key), with
// pagination and optional time filtering.
func (s *TradeStore) ListByWallet(ctx context.Context, wallet string, opts domain.ListOpts) ([]domain.TradeEvent, error) {
	query := `SELECT ` + eventSelectCols + ` FROM trade_events WHERE wallet = $1`
	args := []any{domain.NormalizeWallet(wallet)}
	query, args = applyListOpts(query, args, opts)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events by wallet: %w", err)
	}
	defer rows.Close()

	events, err := scanEventRows(rows)
	if err != nil {
		return nil, fmt.Errorf("postgres: scan events by wallet: %w", err)
	}
	return events, nil
}

// ListBefore returns all events received strictly before the given time
// (for archiving).
func (s *TradeStore) ListBefore(ctx context.Context, before time.Time) ([]domain.TradeEvent, error) {
	query := `SELECT ` + eventSelectCols + ` FROM trade_events WHERE received_at < $1 ORDER BY received_at ASC`
	rows, err := s.pool.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events before: %w", err)
	}
	defer rows.Close()
	return scanEventRows(rows)
}

// applyListOpts appends the shared time-filter, ordering, and pagination
// clauses.
func applyListOpts(query string, args []any, opts domain.ListOpts) (string, []any) {
	argIdx := len(args) + 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND received_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND received_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY received_at ASC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}
	return query, args
}

// Compile-time interface check.
var _ domain.TradeStore = (*TradeStore)(nil)
