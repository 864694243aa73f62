package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rustyeddy/prophunter/market"
)

const tradeColumns = `trade_id, run_id, symbol, direction, quantity, entry_price, exit_price, open_time, close_time, pnl, reason, break_even`

// GetTrade returns a single trade by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeEntry, error) {
	out, err := j.queryTrades(context.Background(), `WHERE trade_id = ?`, tradeID)
	if err != nil {
		return TradeEntry{}, err
	}
	if len(out) == 0 {
		return TradeEntry{}, fmt.Errorf("trade %q not found", tradeID)
	}
	return out[0], nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
// Times are stored in UTC, so the bounds may be in any location.
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeEntry, error) {
	return j.queryTrades(context.Background(),
		`WHERE close_time >= ? AND close_time < ? ORDER BY close_time ASC`, start.UTC(), end.UTC())
}

func (j *SQLite) queryTrades(ctx context.Context, where string, args ...any) ([]TradeEntry, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT `+tradeColumns+` FROM trades `+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeEntry
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanTrade(rows *sql.Rows) (TradeEntry, error) {
	var (
		rec TradeEntry
		dir string
	)
	if err := rows.Scan(
		&rec.TradeID,
		&rec.RunID,
		&rec.Symbol,
		&dir,
		&rec.Quantity,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.PnL,
		&rec.Reason,
		&rec.BreakEven,
	); err != nil {
		return TradeEntry{}, err
	}
	d, err := market.ParseDirection(dir)
	if err != nil {
		return TradeEntry{}, err
	}
	rec.Direction = d
	return rec, nil
}
