package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rustyeddy/prophunter/market"
)

const (
	BinanceAPI = "https://api.binance.com"

	// PageLimit is the largest klines page the exchange serves.
	PageLimit = 1000
)

// Binance reads public spot klines and prices. No key is needed.
type Binance struct {
	BaseURL  string
	Symbol   string
	Interval string

	HTTP *http.Client
}

func NewBinance(baseURL, symbol, interval string) *Binance {
	if baseURL == "" {
		baseURL = BinanceAPI
	}
	return &Binance{
		BaseURL:  baseURL,
		Symbol:   symbol,
		Interval: interval,
		HTTP:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Candles returns the most recent limit klines, oldest first, paging
// backwards when limit exceeds one page. The last kline is usually the
// one still forming.
func (b *Binance) Candles(ctx context.Context, limit int) ([]market.Candle, error) {
	if limit <= 0 {
		limit = PageLimit
	}
	var (
		stash []market.Candle
		end   int64 // 0 means "now"
	)
	for len(stash) < limit {
		n := min(PageLimit, limit-len(stash))
		page, err := b.Klines(ctx, 0, end, n)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		stash = append(page, stash...)
		end = page[0].Timestamp - 1
		if len(page) < n {
			break
		}
	}
	return Last(Tidy(stash), limit), nil
}

// Klines fetches one page. Zero start or end leaves that bound open.
func (b *Binance) Klines(ctx context.Context, start, end int64, limit int) ([]market.Candle, error) {
	q := url.Values{}
	q.Set("symbol", b.Symbol)
	q.Set("interval", b.Interval)
	q.Set("limit", strconv.Itoa(limit))
	if start > 0 {
		q.Set("startTime", strconv.FormatInt(start, 10))
	}
	if end > 0 {
		q.Set("endTime", strconv.FormatInt(end, 10))
	}

	var raw [][]json.Number
	if err := b.get(ctx, "/api/v3/klines", q, &raw); err != nil {
		return nil, fmt.Errorf("klines %s %s: %w", b.Symbol, b.Interval, err)
	}
	out := make([]market.Candle, 0, len(raw))
	for _, row := range raw {
		c, ok := klineRow(row)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// Price returns the last traded price for the symbol.
func (b *Binance) Price(ctx context.Context) (float64, error) {
	q := url.Values{}
	q.Set("symbol", b.Symbol)
	var body struct {
		Symbol string      `json:"symbol"`
		Price  json.Number `json:"price"`
	}
	if err := b.get(ctx, "/api/v3/ticker/price", q, &body); err != nil {
		return 0, fmt.Errorf("price %s: %w", b.Symbol, err)
	}
	p, err := body.Price.Float64()
	if err != nil {
		return 0, fmt.Errorf("price %s: %w", b.Symbol, err)
	}
	return p, nil
}

func (b *Binance) get(ctx context.Context, path string, q url.Values, v any) error {
	u := b.BaseURL + path + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, msg)
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// klineRow converts [openTime, open, high, low, close, volume, ...].
func klineRow(row []json.Number) (market.Candle, bool) {
	if len(row) < 5 {
		return market.Candle{}, false
	}
	ts, err := row[0].Int64()
	if err != nil {
		return market.Candle{}, false
	}
	var v [4]float64
	for i := range v {
		f, err := row[i+1].Float64()
		if err != nil {
			return market.Candle{}, false
		}
		v[i] = f
	}
	return market.Candle{Timestamp: ts, Open: v[0], High: v[1], Low: v[2], Close: v[3]}, true
}
