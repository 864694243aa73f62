// Package backtest replays a candle history through the engine with no
// lookahead: decisions at step i see candles 0..i-1 only, fills and exits
// are tested against candle i.
package backtest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rustyeddy/prophunter/engine"
	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/strategy"
)

// Simulator runs one engine over a candle series.
type Simulator struct {
	Engine         *engine.Engine
	InitialBalance float64

	// OnEvent, when set, sees every engine event in order.
	OnEvent func(engine.Event)

	Log *slog.Logger
}

// Run simulates candles from the engine's warmup to the end. Corrupt
// candles fail the run with market.ErrDataIntegrity before any step.
func (s *Simulator) Run(ctx context.Context, candles []market.Candle) (Result, error) {
	if s.Engine == nil {
		return Result{}, fmt.Errorf("backtest: Engine is required")
	}
	if !(s.InitialBalance > 0) {
		return Result{}, fmt.Errorf("backtest: initial balance must be positive, got %.2f", s.InitialBalance)
	}
	if err := market.ValidateSeries(candles); err != nil {
		return Result{}, fmt.Errorf("backtest: %w", err)
	}
	log := s.Log
	if log == nil {
		log = slog.Default()
	}

	res := Result{
		InitialBalance: s.InitialBalance,
		FinalBalance:   s.InitialBalance,
		Candles:        len(candles),
	}
	if len(candles) > 0 {
		res.Start = candles[0].Timestamp
		res.End = candles[len(candles)-1].Timestamp
	}

	eng := s.Engine
	gen := eng.Generator()
	ind := gen.Indicators(candles)
	st := engine.NewState(s.InitialBalance)

	start := eng.Warmup()
	if start < 1 {
		start = 1
	}
	for i := start; i < len(candles); i++ {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}
		c := candles[i]
		st = eng.Rollover(st, c.Time())

		if st.Position.IsOpen() {
			var evs []engine.Event
			var tr *position.TradeRecord
			st, evs, tr = eng.Manage(st, c, i)
			s.emit(evs)
			if tr != nil {
				res.add(*tr)
			}
			continue
		}

		at := engine.EntryAt{Index: i, Time: c.Time(), ClosedAt: candles[i-1].Timestamp}
		var evs []engine.Event
		var ok bool
		st, evs, ok = eng.Permit(st, at)
		s.emit(evs)
		if !ok {
			if len(evs) > 0 {
				res.HaltedDays++
			}
			continue
		}

		sig := gen.Evaluate(strategy.Frame{
			Candles: candles,
			Index:   i - 1,
			Price:   candles[i-1].Close,
			Now:     c.Time(),
			Ind:     ind,
		})
		var err error
		st, evs, err = eng.Enter(st, sig, at)
		if err != nil {
			return Result{}, err
		}
		s.emit(evs)
	}

	res.FinalBalance = st.Balance
	if st.Position.IsOpen() {
		p := st.Position
		res.OpenAtEnd = &p
	}
	log.Info("backtest finished", "candles", len(candles), "trades", len(res.Trades),
		"wins", res.WinCount, "losses", res.LossCount, "balance", res.FinalBalance,
		"openAtEnd", res.OpenAtEnd != nil)
	return res, nil
}

func (s *Simulator) emit(evs []engine.Event) {
	if s.OnEvent == nil {
		return
	}
	for _, e := range evs {
		s.OnEvent(e)
	}
}
