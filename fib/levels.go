// Package fib builds Fibonacci-style price ranges from swing points and
// tracks them through their Idle, Trading and Broken lifecycle.
package fib

import "strconv"

// Ratio names one of the seven canonical range levels.
type Ratio int

const (
	OuterLow  Ratio = iota // -0.20
	Low                    // 0.00
	Q25                    // 0.25
	Mid                    // 0.50
	Q75                    // 0.75
	High                   // 1.00
	OuterHigh              // 1.20

	NumRatios = 7
)

var ratioValues = [NumRatios]float64{-0.20, 0.00, 0.25, 0.50, 0.75, 1.00, 1.20}

// Ratios returns every ratio in ascending order.
func Ratios() []Ratio {
	return []Ratio{OuterLow, Low, Q25, Mid, Q75, High, OuterHigh}
}

// Value returns the numeric ratio, e.g. 0.75 for Q75.
func (r Ratio) Value() float64 {
	return ratioValues[r]
}

func (r Ratio) String() string {
	return strconv.FormatFloat(ratioValues[r], 'f', 2, 64)
}

// Levels holds the price of each ratio, indexed by Ratio.
type Levels [NumRatios]float64

// ComputeLevels anchors every ratio on low: low + (high-low)*ratio. The
// levels are strictly increasing whenever high > low.
func ComputeLevels(high, low float64) Levels {
	var l Levels
	diff := high - low
	for i, r := range ratioValues {
		l[i] = low + diff*r
	}
	return l
}

func (l Levels) At(r Ratio) float64 {
	return l[r]
}

// Zone returns the prices of a and b ordered low to high.
func (l Levels) Zone(a, b Ratio) (lo, hi float64) {
	lo, hi = l[a], l[b]
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi
}
