package engine

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/rustyeddy/prophunter/market"
	"github.com/rustyeddy/prophunter/position"
	"github.com/rustyeddy/prophunter/risk"
	"github.com/rustyeddy/prophunter/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

var t0 = time.Date(2024, 6, 3, 8, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, mutate func(*strategy.Params)) *Engine {
	t.Helper()
	p := strategy.DefaultParams()
	p.TrendPeriod = 5
	p.ADXThreshold = 0
	p.Stages = []string{strategy.StageTrend, strategy.StageTrigger}
	if mutate != nil {
		mutate(&p)
	}
	gen, err := strategy.NewGenerator(p, quiet)
	require.NoError(t, err)
	gov, err := risk.NewGovernor(risk.DefaultPolicy())
	require.NoError(t, err)
	pm, err := position.NewMachine(position.DefaultOptions())
	require.NoError(t, err)
	return New("BTCUSDT", gen, gov, pm, quiet)
}

func longSignal() strategy.Signal {
	return strategy.Signal{Direction: market.Long, EntryPrice: 100, StopLoss: 95, TakeProfit: 110, ComputedAt: 9}
}

func open(t *testing.T, e *Engine, s State) State {
	t.Helper()
	s = e.Rollover(s, t0)
	s, _, ok := e.Permit(s, EntryAt{Index: 10, Time: t0})
	require.True(t, ok)
	s, evs, err := e.Enter(s, longSignal(), EntryAt{Index: 10, Time: t0, ClosedAt: t0.Add(-time.Hour).UnixMilli()})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	return s
}

func TestEnter_SizesAndOpens(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))

	require.True(t, s.Position.IsOpen())
	assert.InDelta(t, 20.0, s.Position.Quantity, 1e-12, "100 risked over a 5 point stop")
	assert.Equal(t, 10, s.Position.EntryIndex)
	assert.Equal(t, t0.UnixMilli(), s.Position.EntryTime)
	assert.Equal(t, 10000.0, s.Balance)
}

func TestEnter_Event(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := e.Rollover(NewState(10000), t0)
	_, evs, err := e.Enter(s, longSignal(), EntryAt{Index: 10, Time: t0, ClosedAt: 1})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	ev := evs[0]
	assert.Equal(t, EventOpened, ev.Kind)
	assert.Equal(t, "BTCUSDT", ev.Symbol)
	assert.Equal(t, market.Long, ev.Direction)
	assert.InDelta(t, 100.0, ev.Risked, 1e-9)
	assert.Equal(t, 10000.0, ev.Balance)
}

func TestEnter_RejectsWhileOpen(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))
	got, _, err := e.Enter(s, longSignal(), EntryAt{Index: 11, Time: t0, ClosedAt: 2})
	assert.ErrorIs(t, err, position.ErrPositionOpen)
	assert.Equal(t, s, got)
}

func TestEnter_Skips(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := e.Rollover(NewState(10000), t0)

	got, evs, err := e.Enter(s, strategy.Signal{Direction: market.None}, EntryAt{ClosedAt: 1})
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.False(t, got.Position.IsOpen())

	flat := longSignal()
	flat.StopLoss = flat.EntryPrice
	got, evs, err = e.Enter(s, flat, EntryAt{ClosedAt: 1})
	require.NoError(t, err)
	assert.Empty(t, evs, "zero distance sizes to zero")
	assert.False(t, got.Position.IsOpen())

}

// Enter takes any signal it is given. Repeats from the same closed candle
// are filtered by Step, which sees the same history on every poll.
func TestEnter_SameClosedAtOpens(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := e.Rollover(NewState(10000), t0)
	s.LastEntryAt = 5

	got, evs, err := e.Enter(s, longSignal(), EntryAt{Time: t0, ClosedAt: 5})
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.True(t, got.Position.IsOpen())
}

func TestManage_StopOutRealizesBalance(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))

	c := market.Candle{Timestamp: t0.Add(time.Hour).UnixMilli(), Open: 96, High: 96, Low: 94, Close: 94}
	s, evs, tr := e.Manage(s, c, 11)
	require.NotNil(t, tr)
	assert.Equal(t, position.ExitStopLoss, tr.ExitReason)
	assert.InDelta(t, -100.0, tr.PnL, 1e-9)
	assert.InDelta(t, 9900.0, s.Balance, 1e-9)
	assert.InDelta(t, 10000+tr.PnL, s.Balance, 1e-12)
	require.Len(t, evs, 1)
	assert.Equal(t, EventClosed, evs[0].Kind)
	assert.Equal(t, 95.0, evs[0].StopLoss)
	assert.False(t, s.Position.IsOpen())
}

func TestManage_BreakEvenEvent(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))
	c := market.Candle{Timestamp: 1, Open: 101, High: 105, Low: 101, Close: 104}
	s, evs, tr := e.Manage(s, c, 11)
	assert.Nil(t, tr)
	require.Len(t, evs, 1)
	assert.Equal(t, EventBreakEven, evs[0].Kind)
	assert.Equal(t, 100.0, evs[0].StopLoss)
	assert.True(t, s.Position.BreakEvenActivated)
}

func TestPermit_HaltEmitsOnce(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := e.Rollover(NewState(10000), t0)
	s.Balance = 9600

	s, evs, ok := e.Permit(s, EntryAt{Time: t0})
	assert.False(t, ok)
	require.Len(t, evs, 1)
	assert.Equal(t, EventHalted, evs[0].Kind)
	assert.True(t, s.Risk.HaltedToday)

	s, evs, ok = e.Permit(s, EntryAt{Time: t0})
	assert.False(t, ok)
	assert.Empty(t, evs)

	s = e.Rollover(s, t0.Add(24*time.Hour))
	_, _, ok = e.Permit(s, EntryAt{Time: t0})
	assert.True(t, ok)
}

func TestStep_RejectsCorruptHistory(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := NewState(10000)
	closed := []market.Candle{
		{Timestamp: 2, Open: 1, High: 1, Low: 1, Close: 1},
		{Timestamp: 1, Open: 1, High: 1, Low: 1, Close: 1},
	}
	res, err := e.Step(s, Tick{Closed: closed, Price: 1, Now: t0})
	assert.ErrorIs(t, err, market.ErrDataIntegrity)
	assert.Equal(t, s, res.State)

	_, err = e.Step(s, Tick{Closed: closed[:1], Price: -1, Now: t0})
	assert.ErrorIs(t, err, market.ErrDataIntegrity)
}

func TestStep_InsufficientHistory(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	res, err := e.Step(NewState(10000), Tick{Closed: walk(10), Price: 100, Now: t0})
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.False(t, res.Signal.IsEntry())
	assert.Contains(t, res.Signal.Reason, "insufficient data")
	assert.Equal(t, "2024-06-03", res.State.Risk.TradingDay)
}

func TestStep_ClosesOnFormingCandle(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))

	forming := market.Candle{Timestamp: t0.Add(time.Hour).UnixMilli(), Open: 104, High: 111, Low: 103, Close: 109}
	res, err := e.Step(s, Tick{Closed: walk(40), Forming: &forming, Price: 109, Now: t0.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, position.ExitTakeProfit, res.Trades[0].ExitReason)
	assert.InDelta(t, 10200.0, res.State.Balance, 1e-9)
	assert.False(t, res.State.Position.IsOpen())
}

func TestStep_IgnoresPreEntryRange(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))

	// the candle started before the entry and dipped below the stop then
	forming := market.Candle{Timestamp: t0.Add(-time.Minute).UnixMilli(), Open: 100, High: 101, Low: 90, Close: 100}
	res, err := e.Step(s, Tick{Closed: walk(40), Forming: &forming, Price: 100, Now: t0.Add(time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.True(t, res.State.Position.IsOpen())
}

// Break-even set from a forming candle takes effect from the next candle,
// so a low printed earlier in the same candle cannot hit the moved stop.
func TestStep_BreakEvenHoldsWithinFormingCandle(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))
	closed := walk(40)

	forming := market.Candle{Timestamp: t0.Add(time.Hour).UnixMilli(), Open: 101, High: 106, Low: 99, Close: 106}
	res, err := e.Step(s, Tick{Closed: closed, Forming: &forming, Price: 106, Now: t0.Add(70 * time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	require.True(t, res.State.Position.BreakEvenActivated)
	assert.Equal(t, forming.Timestamp, res.State.Position.BreakEvenAt)

	forming.Close = 105
	res, err = e.Step(res.State, Tick{Closed: closed, Forming: &forming, Price: 105, Now: t0.Add(75 * time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.True(t, res.State.Position.IsOpen())

	// the next candle trades back to entry
	next := market.Candle{Timestamp: t0.Add(2 * time.Hour).UnixMilli(), Open: 104, High: 104, Low: 99.5, Close: 100}
	res, err = e.Step(res.State, Tick{Closed: closed, Forming: &next, Price: 100, Now: t0.Add(130 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)
	assert.Equal(t, position.ExitStopLoss, res.Trades[0].ExitReason)
	assert.Equal(t, 0.0, res.Trades[0].PnL)
	assert.True(t, res.Trades[0].BreakEven)
}

func TestStep_OpensAtLivePrice(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	candles := walk(300)

	k := -1
	for i := e.Warmup(); i < len(candles); i++ {
		sig, err := e.Generator().Generate(candles[:i+1], candles[i].Close, t0)
		require.NoError(t, err)
		if sig.IsEntry() {
			k = i
			break
		}
	}
	require.NotEqual(t, -1, k, "walk produced no entry")

	res, err := e.Step(NewState(10000), Tick{Closed: candles[:k+1], Price: candles[k].Close, Now: t0})
	require.NoError(t, err)
	require.True(t, res.Signal.IsEntry())
	require.Len(t, res.Events, 1)
	assert.Equal(t, EventOpened, res.Events[0].Kind)
	assert.Equal(t, candles[k].Close, res.State.Position.EntryPrice)
	assert.Equal(t, candles[k].Timestamp, res.State.LastEntryAt)

	// the next tick on the same closed history manages instead of re-entering
	res2, err := e.Step(res.State, Tick{Closed: candles[:k+1], Price: candles[k].Close, Now: t0.Add(time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, res2.Events)
	assert.Equal(t, res.State.Position, res2.State.Position)

	// once flat again, the signal already taken is not re-entered
	flat := res.State
	flat.Position = position.Position{}
	res3, err := e.Step(flat, Tick{Closed: candles[:k+1], Price: candles[k].Close, Now: t0.Add(2 * time.Minute)})
	require.NoError(t, err)
	assert.True(t, res3.Signal.IsEntry())
	assert.Empty(t, res3.Events)
	assert.False(t, res3.State.Position.IsOpen())
}

func TestState_JSONShape(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	s := open(t, e, NewState(10000))
	b, err := json.Marshal(s)
	require.NoError(t, err)

	var shape struct {
		Position map[string]any `json:"position"`
		Risk     map[string]any `json:"risk"`
		Balance  float64        `json:"balance"`
	}
	require.NoError(t, json.Unmarshal(b, &shape))
	for _, k := range []string{"status", "direction", "entryPrice", "stopLoss", "takeProfit", "quantity", "breakEvenActivated"} {
		assert.Contains(t, shape.Position, k)
	}
	for _, k := range []string{"tradingDay", "startingBalance", "haltedToday"} {
		assert.Contains(t, shape.Risk, k)
	}
	assert.Equal(t, "OPEN", shape.Position["status"])
	assert.Equal(t, "LONG", shape.Position["direction"])
	assert.Equal(t, 10000.0, shape.Balance)

	var back State
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s.Position, back.Position)
	assert.Equal(t, s.Risk.TradingDay, back.Risk.TradingDay)
	assert.Equal(t, s.Balance, back.Normalize().Risk.CurrentBalance)
}

// walk returns a deterministic pseudo-random candle series one hour apart
// ending before t0.
func walk(n int) []market.Candle {
	out := make([]market.Candle, n)
	seed := uint64(7)
	next := func() float64 {
		seed = seed*6364136223846793005 + 1442695040888963407
		return float64(seed>>11)/float64(1<<53) - 0.5
	}
	start := t0.Add(-time.Duration(n) * time.Hour).UnixMilli()
	price := 100.0
	for i := range out {
		open := price
		price += next() * 2
		if price < 10 {
			price = 10
		}
		hi, lo := open, open
		if price > hi {
			hi = price
		}
		if price < lo {
			lo = price
		}
		out[i] = market.Candle{
			Timestamp: start + int64(i)*3_600_000,
			Open:      open,
			High:      hi + (next()+0.5)*0.5,
			Low:       lo - (next()+0.5)*0.5,
			Close:     price,
		}
	}
	return out
}
