// Package live polls a candle feed and runs one engine step per tick.
// State is loaded once, saved after every change, and events go out only
// after the state they describe has been saved.
package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rustyeddy/prophunter/engine"
	"github.com/rustyeddy/prophunter/feed"
	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/metrics"
	"github.com/rustyeddy/prophunter/store"
)

// Runner is the polling orchestrator for one symbol.
type Runner struct {
	Engine *engine.Engine
	Feed   feed.Source

	// Prices, when set, supplies the live price. Otherwise the forming
	// candle's close (or the last closed close) is used.
	Prices feed.PriceSource

	Interval time.Duration // candle interval
	Limit    int           // candles requested per tick
	Poll     time.Duration

	Repo           engine.Repository
	InitialBalance float64

	// Optional sinks.
	Notifier engine.Notifier
	Trades   engine.TradeSink
	Metrics  *metrics.Metrics

	Log *slog.Logger
	Now func() time.Time
}

func (r *Runner) logger() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Runner) check() error {
	switch {
	case r.Engine == nil:
		return errors.New("live: Engine is required")
	case r.Feed == nil:
		return errors.New("live: Feed is required")
	case r.Repo == nil:
		return errors.New("live: Repo is required")
	case r.Interval <= 0:
		return errors.New("live: Interval must be positive")
	case r.Poll <= 0:
		return errors.New("live: Poll must be positive")
	}
	return nil
}

// Run loads the saved state and ticks until ctx is done. A failed tick is
// logged and retried on the next poll; it never advances the state.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.check(); err != nil {
		return err
	}
	log := r.logger()

	s, found, err := store.LoadOrNew(ctx, r.Repo, r.InitialBalance)
	if err != nil {
		return fmt.Errorf("live: load state: %w", err)
	}
	log.Info("live runner starting",
		"symbol", r.Engine.Symbol, "resumed", found, "state", s.String(), "poll", r.Poll)

	ticker := time.NewTicker(r.Poll)
	defer ticker.Stop()

	// unsaved marks a fresh state that has not been persisted yet
	unsaved := !found
	for {
		next, err := r.tick(ctx, s, unsaved)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error("live tick failed", "err", err)
		} else {
			s, unsaved = next, false
		}

		select {
		case <-ctx.Done():
			log.Info("live runner stopped", "state", s.String())
			return nil
		case <-ticker.C:
		}
	}
}

// Once runs a single tick from s and returns the new state.
func (r *Runner) Once(ctx context.Context, s engine.State) (engine.State, error) {
	if err := r.check(); err != nil {
		return s, err
	}
	return r.tick(ctx, s, false)
}

func (r *Runner) tick(ctx context.Context, s engine.State, forceSave bool) (engine.State, error) {
	start := time.Now()
	res, err := r.step(ctx, s, forceSave)
	if r.Metrics != nil {
		r.Metrics.ObserveStep(time.Since(start), err)
		if err == nil {
			r.Metrics.ObserveResult(res, r.now())
		}
	}
	if err != nil {
		return s, err
	}
	return res.State, nil
}

func (r *Runner) step(ctx context.Context, s engine.State, forceSave bool) (engine.Result, error) {
	log := r.logger()
	now := r.now()

	candles, err := r.Feed.Candles(ctx, r.Limit)
	if err != nil {
		return engine.Result{}, fmt.Errorf("fetch candles: %w", err)
	}
	closed, forming := feed.Split(candles, r.Interval, now)

	price, err := r.price(ctx, closed, forming)
	if err != nil {
		return engine.Result{}, err
	}

	res, err := r.Engine.Step(s, engine.Tick{Closed: closed, Forming: forming, Price: price, Now: now})
	if err != nil {
		return engine.Result{}, fmt.Errorf("step: %w", err)
	}

	if forceSave || res.State != s.Normalize() {
		if err := r.Repo.Save(ctx, res.State); err != nil {
			return engine.Result{}, fmt.Errorf("save state: %w", err)
		}
	}

	if r.Trades != nil {
		for _, t := range res.Trades {
			if err := r.Trades.RecordTrade(ctx, r.Engine.Symbol, t); err != nil {
				log.Error("journal trade", "err", err)
			}
		}
		for _, e := range res.Events {
			if e.Kind != engine.EventClosed {
				continue
			}
			if err := r.Trades.RecordEquity(ctx, time.UnixMilli(e.Time), e.Balance); err != nil {
				log.Error("journal equity", "err", err)
			}
		}
	}
	for _, e := range res.Events {
		if r.Notifier == nil {
			break
		}
		if err := r.Notifier.Notify(ctx, e); err != nil {
			log.Error("notify", "kind", e.Kind, "err", err)
		}
	}

	log.Debug("live tick", "closed", len(closed), "forming", forming != nil, "price", price,
		"signal", res.Signal.Direction, "reason", res.Signal.Reason, "events", len(res.Events))
	return res, nil
}

func (r *Runner) price(ctx context.Context, closed []market.Candle, forming *market.Candle) (float64, error) {
	if r.Prices != nil {
		p, err := r.Prices.Price(ctx)
		if err != nil {
			return 0, fmt.Errorf("fetch price: %w", err)
		}
		return p, nil
	}
	if forming != nil {
		return forming.Close, nil
	}
	if len(closed) > 0 {
		return closed[len(closed)-1].Close, nil
	}
	return 0, errors.New("no price: feed returned no candles")
}
