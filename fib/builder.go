package fib

import (
	"errors"
	"fmt"

	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/swing"
)

var (
	ErrNotReady        = errors.New("fib: not enough swings to build a range")
	ErrInvalidSequence = errors.New("fib: swing sequence does not form a range")
)

// Status is the outcome of a range build.
type Status int

const (
	Ready Status = iota
	NotReady
	InvalidSequence
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case NotReady:
		return "not ready"
	case InvalidSequence:
		return "invalid sequence"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is returned by every Builder. Range is only meaningful when
// Status is Ready; Err explains the other two outcomes.
type Result struct {
	Status Status
	Range  Range
	Err    error
}

func (r Result) Ok() bool {
	return r.Status == Ready
}

func notReady(format string, args ...any) Result {
	return Result{Status: NotReady, Err: fmt.Errorf("%w: "+format, append([]any{ErrNotReady}, args...)...)}
}

func invalid(err error) Result {
	return Result{Status: InvalidSequence, Err: fmt.Errorf("%w: %w", ErrInvalidSequence, err)}
}

// Builder constructs a range from the confirmed swings and the bars seen
// so far. Neither NotReady nor InvalidSequence is fatal; callers retry on
// the next bar.
type Builder interface {
	Name() string
	Build(swings []swing.Point, bars []market.Candle) Result
}

// SwingPairBuilder anchors the range on the last two confirmed swings.
type SwingPairBuilder struct{}

func (SwingPairBuilder) Name() string { return "swing-pair" }

func (SwingPairBuilder) Build(swings []swing.Point, bars []market.Candle) Result {
	if len(swings) < 2 {
		return notReady("have %d swings, need 2", len(swings))
	}
	a, b := swings[len(swings)-2], swings[len(swings)-1]

	var (
		hi, lo swing.Point
		dir    Direction
	)
	switch {
	case a.Kind == swing.High && b.Kind == swing.Low:
		hi, lo, dir = a, b, Down
	case a.Kind == swing.Low && b.Kind == swing.High:
		hi, lo, dir = b, a, Up
	default:
		return invalid(fmt.Errorf("last two swings are both %s (bars %d, %d)", a.Kind, a.Index, b.Index))
	}

	r, err := NewRange(hi.Price, lo.Price, dir)
	if err != nil {
		return invalid(err)
	}
	r.HighIdx, r.LowIdx = hi.Index, lo.Index
	r.GeneratedIdx, r.GeneratedAt = b.Index, b.Time
	r.UpdatedIdx, r.UpdatedAt = b.Index, b.Time
	if n := len(bars); n > 0 {
		r.UpdatedIdx, r.UpdatedAt = n-1, bars[n-1].Time
	}
	return Result{Status: Ready, Range: r}
}

// ExtremaBuilder anchors the range on the most recent raw high and low
// extrema, each the max high (min low) over the symmetric window
// [i-Window, i+Window]. It needs Window bars after an extremum and so sees
// slightly into the past rather than the future.
type ExtremaBuilder struct {
	Window int
}

func (b ExtremaBuilder) Name() string { return fmt.Sprintf("extrema(%d)", b.Window) }

func (b ExtremaBuilder) Build(_ []swing.Point, bars []market.Candle) Result {
	if b.Window < 1 {
		panic(fmt.Sprintf("fib: extrema window must be >= 1, got %d", b.Window))
	}
	hiIdx, loIdx := lastExtrema(bars, b.Window)
	if hiIdx < 0 || loIdx < 0 {
		return notReady("no high/low extrema in %d bars with window %d", len(bars), b.Window)
	}
	if hiIdx == loIdx {
		return invalid(fmt.Errorf("bar %d is both the last high and the last low", hiIdx))
	}

	dir, gen := Down, loIdx
	if hiIdx > loIdx {
		dir, gen = Up, hiIdx
	}
	r, err := NewRange(bars[hiIdx].High, bars[loIdx].Low, dir)
	if err != nil {
		return invalid(err)
	}
	r.HighIdx, r.LowIdx = hiIdx, loIdx
	r.GeneratedIdx, r.GeneratedAt = gen, bars[gen].Time
	last := len(bars) - 1
	r.UpdatedIdx, r.UpdatedAt = last, bars[last].Time
	return Result{Status: Ready, Range: r}
}

// lastExtrema returns the index of the latest high and low extremum, or -1.
func lastExtrema(bars []market.Candle, w int) (hiIdx, loIdx int) {
	hiIdx, loIdx = -1, -1
	for i := w; i+w < len(bars); i++ {
		isHigh, isLow := true, true
		for j := i - w; j <= i+w; j++ {
			if bars[j].High > bars[i].High {
				isHigh = false
			}
			if bars[j].Low < bars[i].Low {
				isLow = false
			}
		}
		if isHigh {
			hiIdx = i
		}
		if isLow {
			loIdx = i
		}
	}
	return hiIdx, loIdx
}
