package market

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNotIncreasing = errors.New("candle timestamps must be strictly increasing")
	ErrBadOHLC       = errors.New("candle high/low do not bound open/close")
)

// Candle is one closed OHLC bar. Candles are values and are never
// modified once produced by a feed.
type Candle struct {
	Time time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64 // optional
}

// Range returns High-Low.
func (c Candle) Range() float64 {
	return c.High - c.Low
}

// ValidateSeries checks that the bars are in strictly increasing time order
// and that each bar's high and low bound its open and close. Gaps between
// bars are allowed.
func ValidateSeries(bars []Candle) error {
	for i, c := range bars {
		if c.High < math.Max(c.Open, c.Close) || c.Low > math.Min(c.Open, c.Close) {
			return fmt.Errorf("bar %d (%s): %w", i, c.Time.Format(time.RFC3339), ErrBadOHLC)
		}
		if i > 0 && !c.Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar %d (%s): %w", i, c.Time.Format(time.RFC3339), ErrNotIncreasing)
		}
	}
	return nil
}

// Closes extracts the close prices of bars.
func Closes(bars []Candle) []float64 {
	out := make([]float64, len(bars))
	for i, c := range bars {
		out[i] = c.Close
	}
	return out
}
