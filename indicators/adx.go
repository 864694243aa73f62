package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/prophunter/market"
)

// ADX computes Wilder's Average Directional Index (trend strength) over
// candle OHLC.
//
// Readiness / warmup:
//   - N periods (differences between candles) build the initial smoothed
//     TR/+DM/-DM and yield the first DX.
//   - N DX values seed the initial ADX (their simple average).
//
// That makes the first ADX available on candle 2N (Warmup() == 2N).
type ADX struct {
	n    int
	name string

	prev    market.Candle
	hasPrev bool
	ready   bool
	adx     float64
	plusDI  float64
	minusDI float64
	lastDX  float64
	periods int

	// Wilder smoothed sums; the first N periods are plain sums.
	smTR      float64
	smPlusDM  float64
	smMinusDM float64

	// seeding ADX: average of first N DX values
	dxSum   float64
	dxCount int
}

// NewADX creates an ADX with the given period (14 is the usual choice).
func NewADX(period int) *ADX {
	if period <= 0 {
		panic("ADX period must be > 0")
	}
	return &ADX{
		n:    period,
		name: fmt.Sprintf("ADX(%d)", period),
	}
}

func (a *ADX) Name() string { return a.name }
func (a *ADX) Warmup() int  { return 2 * a.n }
func (a *ADX) Ready() bool  { return a.ready }

func (a *ADX) Value() float64 {
	if !a.ready {
		return 0
	}
	return a.adx
}

func (a *ADX) Reset() {
	*a = ADX{n: a.n, name: a.name}
}

// Update consumes the next closed candle.
func (a *ADX) Update(c market.Candle) {
	if !a.hasPrev {
		a.prev = c
		a.hasPrev = true
		return
	}

	tr := max3(c.High-c.Low, math.Abs(c.High-a.prev.Close), math.Abs(c.Low-a.prev.Close))

	upMove := c.High - a.prev.High
	downMove := a.prev.Low - c.Low

	var plusDM, minusDM float64
	if upMove > downMove && upMove > 0 {
		plusDM = upMove
	}
	if downMove > upMove && downMove > 0 {
		minusDM = downMove
	}

	a.prev = c
	a.periods++

	nf := float64(a.n)
	if a.periods <= a.n {
		a.smTR += tr
		a.smPlusDM += plusDM
		a.smMinusDM += minusDM
		if a.periods < a.n {
			return
		}
	} else {
		// smoothed = prior - prior/N + current
		a.smTR = a.smTR - (a.smTR / nf) + tr
		a.smPlusDM = a.smPlusDM - (a.smPlusDM / nf) + plusDM
		a.smMinusDM = a.smMinusDM - (a.smMinusDM / nf) + minusDM
	}

	a.plusDI, a.minusDI = di(a.smPlusDM, a.smMinusDM, a.smTR)
	a.lastDX = dx(a.plusDI, a.minusDI)

	if !a.ready {
		a.dxSum += a.lastDX
		a.dxCount++
		if a.dxCount == a.n {
			a.adx = a.dxSum / nf
			a.ready = true
		}
		return
	}

	a.adx = (a.adx*(nf-1.0) + a.lastDX) / nf
}

// PlusDI, MinusDI and DX expose the intermediate values for debugging.
func (a *ADX) PlusDI() float64  { return a.plusDI }
func (a *ADX) MinusDI() float64 { return a.minusDI }
func (a *ADX) DX() float64      { return a.lastDX }

func di(smPlusDM, smMinusDM, smTR float64) (plusDI, minusDI float64) {
	if smTR <= 0 {
		return 0, 0
	}
	plusDI = 100.0 * (smPlusDM / smTR)
	minusDI = 100.0 * (smMinusDM / smTR)
	return plusDI, minusDI
}

func dx(plusDI, minusDI float64) float64 {
	den := plusDI + minusDI
	if den <= 0 {
		return 0
	}
	return 100.0 * (math.Abs(plusDI-minusDI) / den)
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}

// ADXOf returns the ADX series of candles.
func ADXOf(candles []market.Candle, period int) Series {
	return collect(NewADX(period), candles)
}
