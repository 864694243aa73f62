package position

import (
	"testing"

	"github.com/rustyeddy/prophunter/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(low, high float64) market.Candle {
	return market.Candle{Timestamp: 1, Open: low, High: high, Low: low, Close: high}
}

func openLong(t *testing.T, m *Machine, qty float64) Position {
	t.Helper()
	p, err := m.Open(Position{}, Order{Direction: market.Long, EntryPrice: 100, StopLoss: 95, TakeProfit: 110, Quantity: qty, Index: 3})
	require.NoError(t, err)
	return p
}

func openShort(t *testing.T, m *Machine) Position {
	t.Helper()
	p, err := m.Open(Position{}, Order{Direction: market.Short, EntryPrice: 100, StopLoss: 105, TakeProfit: 90, Quantity: 2})
	require.NoError(t, err)
	return p
}

func newMachine(t *testing.T, opts Options) *Machine {
	t.Helper()
	m, err := NewMachine(opts)
	require.NoError(t, err)
	return m
}

func TestOpen(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	p := openLong(t, m, 1)
	assert.True(t, p.IsOpen())
	assert.False(t, p.BreakEvenActivated)
	assert.Equal(t, 3, p.EntryIndex)
	assert.InDelta(t, 5.0, p.AtRisk(), 1e-12)

	_, err := m.Open(p, Order{Direction: market.Long, EntryPrice: 100, StopLoss: 95, TakeProfit: 110, Quantity: 1})
	assert.ErrorIs(t, err, ErrPositionOpen)
}

func TestOpen_InvalidOrders(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	bad := []Order{
		{Direction: market.None, EntryPrice: 100, StopLoss: 95, TakeProfit: 110, Quantity: 1},
		{Direction: market.Long, EntryPrice: 100, StopLoss: 95, TakeProfit: 110, Quantity: 0},
		{Direction: market.Long, EntryPrice: 100, StopLoss: 100, TakeProfit: 110, Quantity: 1},
		{Direction: market.Short, EntryPrice: 100, StopLoss: 95, TakeProfit: 90, Quantity: 1},
	}
	for i, o := range bad {
		_, err := m.Open(Position{}, o)
		assert.ErrorIs(t, err, ErrInvalidOrder, "order %d", i)
	}
}

func TestEvaluate_StopOut(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	p := openLong(t, m, 0.5)

	p, out := m.Evaluate(p, bar(94, 96), 4)
	require.True(t, out.Closed)
	assert.False(t, p.IsOpen())
	assert.Equal(t, ExitStopLoss, out.Trade.ExitReason)
	assert.Equal(t, 95.0, out.Trade.ExitPrice)
	assert.InDelta(t, (95-100)*0.5, out.Trade.PnL, 1e-12)
	assert.Equal(t, 3, out.Trade.EntryIndex)
	assert.Equal(t, 4, out.Trade.ExitIndex)
	assert.False(t, out.Trade.Win())
}

func TestEvaluate_TakeProfit(t *testing.T) {
	t.Parallel()

	m := newMachine(t, Options{})
	p := openLong(t, m, 1)
	_, out := m.Evaluate(p, bar(99, 111), 4)
	require.True(t, out.Closed)
	assert.Equal(t, ExitTakeProfit, out.Trade.ExitReason)
	assert.InDelta(t, 10.0, out.Trade.PnL, 1e-12)
	assert.True(t, out.Trade.Win())

	s := openShort(t, m)
	_, out = m.Evaluate(s, bar(89, 101), 4)
	require.True(t, out.Closed)
	assert.Equal(t, ExitTakeProfit, out.Trade.ExitReason)
	assert.InDelta(t, 20.0, out.Trade.PnL, 1e-12)
}

func TestEvaluate_StopWinsTies(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())

	_, out := m.Evaluate(openLong(t, m, 1), bar(90, 120), 4)
	require.True(t, out.Closed)
	assert.Equal(t, ExitStopLoss, out.Trade.ExitReason)

	_, out = m.Evaluate(openShort(t, m), bar(80, 110), 4)
	require.True(t, out.Closed)
	assert.Equal(t, ExitStopLoss, out.Trade.ExitReason)
	assert.InDelta(t, -10.0, out.Trade.PnL, 1e-12)
}

func TestEvaluate_BreakEven(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	p := openLong(t, m, 1)

	p, out := m.Evaluate(p, bar(101, 104.99), 4)
	assert.False(t, out.BreakEven)
	assert.Equal(t, 95.0, p.StopLoss)

	p, out = m.Evaluate(p, bar(101, 105), 5)
	require.True(t, out.BreakEven)
	assert.False(t, out.Closed)
	assert.True(t, p.BreakEvenActivated)
	assert.Equal(t, int64(1), p.BreakEvenAt)
	assert.Equal(t, 100.0, p.StopLoss)
	assert.Equal(t, 0.0, p.AtRisk())

	// activation is one-shot
	p, out = m.Evaluate(p, bar(101, 108), 6)
	assert.False(t, out.BreakEven)
	assert.Equal(t, 100.0, p.StopLoss)

	_, out = m.Evaluate(p, bar(99, 102), 7)
	require.True(t, out.Closed)
	assert.Equal(t, ExitStopLoss, out.Trade.ExitReason)
	assert.Equal(t, 0.0, out.Trade.PnL)
	assert.True(t, out.Trade.BreakEven)
	assert.False(t, out.Trade.Win())
}

func TestEvaluate_BreakEvenShort(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	p, out := m.Evaluate(openShort(t, m), bar(95, 99), 1)
	require.True(t, out.BreakEven)
	assert.Equal(t, 100.0, p.StopLoss)
}

// The candle that activates break-even is judged on the original stop.
func TestEvaluate_BreakEvenAppliesNextCandle(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	p, out := m.Evaluate(openLong(t, m, 1), bar(99, 106), 4)
	assert.False(t, out.Closed, "99 is above the original stop")
	assert.True(t, out.BreakEven)
	assert.Equal(t, 100.0, p.StopLoss)
}

func TestEvaluate_BreakEvenDisabled(t *testing.T) {
	t.Parallel()

	m := newMachine(t, Options{BreakEven: false})
	p, out := m.Evaluate(openLong(t, m, 1), bar(101, 109), 4)
	assert.False(t, out.BreakEven)
	assert.Equal(t, 95.0, p.StopLoss)
}

func TestEvaluate_StopMonotonic(t *testing.T) {
	t.Parallel()

	m := newMachine(t, Options{BreakEven: true, TriggerFraction: 0.25})
	long := openLong(t, m, 1)
	prev := long.StopLoss
	for i, c := range []market.Candle{bar(96, 102), bar(97, 103), bar(101, 104), bar(100.5, 107)} {
		var out Outcome
		long, out = m.Evaluate(long, c, i)
		require.False(t, out.Closed)
		assert.GreaterOrEqual(t, long.StopLoss, prev)
		prev = long.StopLoss
	}

	short := openShort(t, m)
	prev = short.StopLoss
	for i, c := range []market.Candle{bar(98, 104), bar(96, 99), bar(93, 99.5)} {
		var out Outcome
		short, out = m.Evaluate(short, c, i)
		require.False(t, out.Closed)
		assert.LessOrEqual(t, short.StopLoss, prev)
		prev = short.StopLoss
	}
}

func TestNewMachine_Validates(t *testing.T) {
	t.Parallel()

	_, err := NewMachine(Options{BreakEven: true, TriggerFraction: 0})
	assert.Error(t, err)
	_, err = NewMachine(Options{BreakEven: true, TriggerFraction: 1.5})
	assert.Error(t, err)
	_, err = NewMachine(Options{BreakEven: false})
	assert.NoError(t, err)
}

func TestEvaluate_FlatIsNoop(t *testing.T) {
	t.Parallel()

	m := newMachine(t, DefaultOptions())
	p, out := m.Evaluate(Position{}, bar(1, 1000), 0)
	assert.False(t, p.IsOpen())
	assert.Equal(t, Outcome{}, out)
	assert.Equal(t, "FLAT", p.String())
}
