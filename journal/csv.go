package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// CSV writes trades and equity points to two files. An empty equity path
// skips equity.
type CSV struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

var tradeHeader = []string{"trade_id", "run_id", "symbol", "direction", "quantity", "entry_price", "exit_price", "open_time", "close_time", "pnl", "reason", "break_even"}

func NewCSV(tradesPath, equityPath string) (*CSV, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	j := &CSV{trades: csv.NewWriter(tf), tf: tf}
	if err := j.trades.Write(tradeHeader); err != nil {
		tf.Close()
		return nil, err
	}
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		tf.Close()
		return nil, err
	}

	if equityPath == "" {
		return j, nil
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}
	j.ef = ef
	j.equity = csv.NewWriter(ef)
	if err := j.equity.Write([]string{"run_id", "time", "balance"}); err != nil {
		j.Close()
		return nil, err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func (j *CSV) RecordTrade(t TradeEntry) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.RunID,
		t.Symbol,
		t.Direction.String(),
		quantity(t.Quantity),
		price(t.EntryPrice),
		price(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		money(t.PnL),
		t.Reason,
		strconv.FormatBool(t.BreakEven),
	})
	if err != nil {
		return fmt.Errorf("csv trade %s: %w", t.TradeID, err)
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSV) RecordEquity(e EquityPoint) error {
	if j.equity == nil {
		return nil
	}
	err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		money(e.Balance),
	})
	if err != nil {
		return err
	}
	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSV) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	if err := j.tf.Close(); err != nil {
		return err
	}
	if j.equity == nil {
		return nil
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}
	return j.ef.Close()
}
