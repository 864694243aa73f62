package feed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/prophunter/market"
)

// CSV reads candles from a file with rows
//
//	timestamp,open,high,low,close[,volume...]
//
// where timestamp is unix milliseconds or RFC3339. A header row is allowed.
// Short or unparseable rows are skipped and counted.
type CSV struct {
	Path string
	Log  *slog.Logger
}

func NewCSV(path string) *CSV { return &CSV{Path: path} }

func (c *CSV) Candles(_ context.Context, limit int) ([]market.Candle, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	candles, skipped, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.Path, err)
	}
	if skipped > 0 {
		log := c.Log
		if log == nil {
			log = slog.Default()
		}
		log.Info("skipped malformed candle rows", "path", c.Path, "skipped", skipped)
	}
	return Last(candles, limit), nil
}

// ReadCSV parses candle rows from r. It returns the rows kept, in time
// order, and the number dropped.
func ReadCSV(r io.Reader) ([]market.Candle, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		out     []market.Candle
		skipped int
		first   = true
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, skipped, err
		}
		if first {
			first = false
			if len(row) > 0 && isHeader(row[0]) {
				continue
			}
		}
		c, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		out = append(out, c)
	}
	return Tidy(out), skipped, nil
}

func isHeader(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "timestamp", "time", "date", "open_time", "opentime":
		return true
	}
	return false
}

func parseRow(row []string) (market.Candle, bool) {
	if len(row) < 5 {
		return market.Candle{}, false
	}
	ts, ok := parseTime(strings.TrimSpace(row[0]))
	if !ok {
		return market.Candle{}, false
	}
	var v [4]float64
	for i := range v {
		f, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return market.Candle{}, false
		}
		v[i] = f
	}
	return market.Candle{Timestamp: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3]}, true
}

func parseTime(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ms, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UnixMilli(), true
	}
	return 0, false
}

// WriteCSV writes candles in the format ReadCSV accepts.
func WriteCSV(w io.Writer, candles []market.Candle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close"}); err != nil {
		return err
	}
	for _, c := range candles {
		rec := []string{
			strconv.FormatInt(c.Timestamp, 10),
			strconv.FormatFloat(c.Open, 'f', -1, 64),
			strconv.FormatFloat(c.High, 'f', -1, 64),
			strconv.FormatFloat(c.Low, 'f', -1, 64),
			strconv.FormatFloat(c.Close, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
