package indicators

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fibrange/market"
)

func trueRange(c market.Candle, prevClose float64) float64 {
	return math.Max(c.High-c.Low, math.Max(math.Abs(c.High-prevClose), math.Abs(c.Low-prevClose)))
}

// ATRFunc calculates the Average True Range of candles for the given period.
// Returns an error if there aren't enough candles for the period.
func ATRFunc(candles []market.Candle, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(candles) < period+1 {
		return 0, fmt.Errorf("not enough candles: need %d, got %d", period+1, len(candles))
	}

	a := NewATR(period)
	for _, c := range candles {
		a.Update(c)
	}
	return a.Value(), nil
}

// ATR is a streaming Average True Range: a simple mean of the first period
// true ranges, then Wilder smoothing.
type ATR struct {
	period      int
	atr         float64
	count       int
	warmupSum   float64
	prevClose   float64
	hasPrevious bool
}

var _ Indicator = (*ATR)(nil)

// NewATR creates a new Average True Range indicator with the given period.
func NewATR(period int) *ATR {
	if period < 1 {
		panic(fmt.Sprintf("ATR period must be >= 1, got %d", period))
	}
	return &ATR{period: period}
}

func (a *ATR) Name() string {
	return fmt.Sprintf("ATR(%d)", a.period)
}

// Warmup is period+1: the first bar only seeds the previous close.
func (a *ATR) Warmup() int {
	return a.period + 1
}

func (a *ATR) Reset() {
	*a = ATR{period: a.period}
}

func (a *ATR) Update(c market.Candle) {
	if !a.hasPrevious {
		a.prevClose = c.Close
		a.hasPrevious = true
		return
	}

	tr := trueRange(c, a.prevClose)
	a.prevClose = c.Close
	a.count++

	p := float64(a.period)
	switch {
	case a.count < a.period:
		a.warmupSum += tr
	case a.count == a.period:
		a.warmupSum += tr
		a.atr = a.warmupSum / p
	default:
		a.atr = (a.atr*(p-1) + tr) / p
	}
}

func (a *ATR) Ready() bool {
	return a.count >= a.period
}

func (a *ATR) Value() float64 {
	if !a.Ready() {
		return 0
	}
	return a.atr
}
