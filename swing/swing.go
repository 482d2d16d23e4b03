// Package swing detects confirmed local price extrema (swing highs and
// swing lows) in a candle series.
package swing

import (
	"time"

	"github.com/rustyeddy/fibrange/market"
)

// Kind is the type of a swing point. The values match the HighLow column
// of a Series.
type Kind int8

const (
	Low  Kind = -1
	High Kind = 1
)

func (k Kind) String() string {
	switch k {
	case High:
		return "high"
	case Low:
		return "low"
	default:
		return "none"
	}
}

// Opposite returns the other kind.
func (k Kind) Opposite() Kind {
	return -k
}

// Point is a confirmed swing.
type Point struct {
	Index int
	Time  time.Time
	Kind  Kind
	Price float64
}

// Series is the per-bar detector output. HighLow is 1 for a swing high,
// -1 for a swing low and 0 when the bar is not a swing. Level holds the
// swing price (bar high for highs, bar low for lows) and is 0 elsewhere.
type Series struct {
	HighLow []int8
	Level   []float64
	Time    []time.Time
}

func newSeries(bars []market.Candle) Series {
	s := Series{
		HighLow: make([]int8, len(bars)),
		Level:   make([]float64, len(bars)),
		Time:    make([]time.Time, len(bars)),
	}
	for i, c := range bars {
		s.Time[i] = c.Time
	}
	return s
}

func (s Series) Len() int {
	return len(s.HighLow)
}

func (s Series) set(i int, k Kind, price float64) {
	s.HighLow[i] = int8(k)
	s.Level[i] = price
}

func (s Series) clear(i int) {
	s.HighLow[i] = 0
	s.Level[i] = 0
}

// Points returns the swings in chronological order.
func (s Series) Points() []Point {
	var out []Point
	for i, hl := range s.HighLow {
		if hl == 0 {
			continue
		}
		out = append(out, Point{Index: i, Time: s.Time[i], Kind: Kind(hl), Price: s.Level[i]})
	}
	return out
}

// levelOf is the swing price of bar c for kind k.
func levelOf(c market.Candle, k Kind) float64 {
	if k == High {
		return c.High
	}
	return c.Low
}
