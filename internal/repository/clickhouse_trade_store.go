package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"MarketSense/internal/domain/models"
	"MarketSense/internal/domain/repository"
	pkgch "MarketSense/pkg/clickhouse"
)

// ClickHouseTradeStore implements TradeStore for ClickHouse.
type ClickHouseTradeStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseTradeStore creates the trade ledger store.
func NewClickHouseTradeStore(ch *pkgch.Client, table string) repository.TradeStore {
	if table == "" {
		table = "marketsense.trades"
	}
	return &ClickHouseTradeStore{db: ch.DB(), table: table}
}

func (s *ClickHouseTradeStore) Init(ctx context.Context) error {
	q := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            id UInt64,
            asset String,
            timeframe String,
            direction String,
            session String,
            outcome String,
            score Float64,
            entry_price Float64,
            exit_price Float64,
            snapshot String,
            opened_at DateTime64(3),
            closed_at DateTime64(3)
        ) ENGINE = MergeTree()
        ORDER BY (asset, closed_at)
    `, s.table)
	_, err := s.db.ExecContext(ctx, q)
	return err
}

func (s *ClickHouseTradeStore) Record(ctx context.Context, t *models.TradeRecord) error {
	snapshot, err := json.Marshal(t.Snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
        (id, asset, timeframe, direction, session, outcome, score, entry_price, exit_price, snapshot, opened_at, closed_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		t.ID, t.Asset, t.Timeframe, string(t.Direction), string(t.Session), string(t.Outcome),
		t.Score, t.EntryPrice, t.ExitPrice, string(snapshot), t.OpenedAt, t.ClosedAt,
	)
	return err
}

func (s *ClickHouseTradeStore) Query(ctx context.Context, asset string, from, to time.Time, limit int) ([]*models.TradeRecord, error) {
	q := fmt.Sprintf(`SELECT id, asset, timeframe, direction, session, outcome, score,
        entry_price, exit_price, snapshot, opened_at, closed_at
        FROM %s WHERE closed_at >= ? AND closed_at <= ?`, s.table)
	args := []interface{}{from, to}
	if asset != "" {
		q += " AND asset = ?"
		args = append(args, asset)
	}
	q += " ORDER BY closed_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []*models.TradeRecord
	for rows.Next() {
		var t models.TradeRecord
		var direction, session, outcome, snapshot string
		if err := rows.Scan(&t.ID, &t.Asset, &t.Timeframe, &direction, &session, &outcome,
			&t.Score, &t.EntryPrice, &t.ExitPrice, &snapshot, &t.OpenedAt, &t.ClosedAt); err != nil {
			return nil, err
		}
		t.Direction = models.TradeDirection(direction)
		t.Session = models.MarketSession(session)
		t.Outcome = models.TradeOutcome(outcome)
		if snapshot != "" {
			if err := json.Unmarshal([]byte(snapshot), &t.Snapshot); err != nil {
				// an unreadable snapshot degrades to the neutral one; the
				// row still counts for statistics and trains on neutral
				// features
				t.Snapshot = models.NeutralSnapshot()
			}
		}
		trades = append(trades, &t)
	}
	return trades, rows.Err()
}

func (s *ClickHouseTradeStore) CountLabeled(ctx context.Context) (int, error) {
	q := fmt.Sprintf("SELECT count() FROM %s WHERE outcome != ''", s.table)
	var n int
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *ClickHouseTradeStore) SessionStats(ctx context.Context, asset string) ([]models.SessionPerformance, error) {
	q := fmt.Sprintf(`SELECT session, count() AS trades, countIf(outcome = 'WIN') AS wins
        FROM %s WHERE outcome != ''`, s.table)
	var args []interface{}
	if asset != "" {
		q += " AND asset = ?"
		args = append(args, asset)
	}
	q += " GROUP BY session"

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.SessionPerformance
	for rows.Next() {
		var p models.SessionPerformance
		var session string
		var trades, wins uint64
		if err := rows.Scan(&session, &trades, &wins); err != nil {
			return nil, err
		}
		p.Session = models.MarketSession(session)
		p.Trades = int(trades)
		p.Wins = int(wins)
		if p.Trades > 0 {
			p.WinRate = float64(p.Wins) / float64(p.Trades)
		}
		stats = append(stats, p)
	}
	return stats, rows.Err()
}

func (s *ClickHouseTradeStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTradeStore) Close() error {
	return nil // connection managed by pkg
}
