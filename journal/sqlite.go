package journal

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the journal database at path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeEntry) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, symbol, direction, quantity, entry_price, exit_price, open_time, close_time, pnl, reason, break_even)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Symbol, t.Direction.String(), t.Quantity, t.EntryPrice,
		t.ExitPrice, t.OpenTime.UTC(), t.CloseTime.UTC(), t.PnL, t.Reason, t.BreakEven,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquityPoint) error {
	_, err := j.db.Exec(`INSERT INTO equity (run_id, time, balance) VALUES (?, ?, ?)`,
		e.RunID, e.Time.UTC(), e.Balance)
	return err
}

// RecordBacktest stores (or replaces) a run summary.
func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, symbol, timeframe, dataset, strategy, config, risk_pct, daily_loss_pct, rr,
		 start_time, end_time, candles, trades, wins, losses, open_at_end, halted_days,
		 start_balance, end_balance, net_pl, return_pct, win_rate, profit_factor, max_dd_pct, org_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created, r.Symbol, r.Timeframe, r.Dataset, r.Strategy, r.Config,
		r.RiskPct, r.DailyLossPct, r.RR,
		r.Start, r.End, r.Candles, r.Trades, r.Wins, r.Losses, r.OpenAtEnd, r.HaltedDays,
		r.StartBalance, r.EndBalance, r.NetPL, r.ReturnPct, r.WinRate, r.ProfitFactor, r.MaxDDPct, r.OrgPath,
	)
	if err != nil {
		return fmt.Errorf("record backtest %s: %w", r.RunID, err)
	}
	return nil
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	var r BacktestRun
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, symbol, timeframe, dataset, strategy, config, risk_pct, daily_loss_pct, rr,
		       start_time, end_time, candles, trades, wins, losses, open_at_end, halted_days,
		       start_balance, end_balance, net_pl, return_pct, win_rate, profit_factor, max_dd_pct, org_path
		FROM backtest_runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Symbol, &r.Timeframe, &r.Dataset, &r.Strategy, &r.Config,
		&r.RiskPct, &r.DailyLossPct, &r.RR,
		&r.Start, &r.End, &r.Candles, &r.Trades, &r.Wins, &r.Losses, &r.OpenAtEnd, &r.HaltedDays,
		&r.StartBalance, &r.EndBalance, &r.NetPL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor, &r.MaxDDPct, &r.OrgPath,
	)
	if err == sql.ErrNoRows {
		return BacktestRun{}, fmt.Errorf("backtest run %q not found", runID)
	}
	if err != nil {
		return BacktestRun{}, err
	}
	return r, nil
}

func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeEntry, error) {
	return j.queryTrades(ctx, `WHERE run_id = ? ORDER BY close_time ASC, trade_id ASC`, runID)
}

func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquityPoint, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, time, balance FROM equity WHERE run_id = ? ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquityPoint
	for rows.Next() {
		var e EquityPoint
		if err := rows.Scan(&e.RunID, &e.Time, &e.Balance); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ExportBacktestOrg loads a run and its trades and returns the Org report.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	var b bytes.Buffer
	if err := r.RenderOrg(&b); err != nil {
		return "", err
	}
	if len(trades) > 0 {
		b.WriteString("\n** Trades\n")
		b.WriteString(FormatTradesOrg(trades))
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
