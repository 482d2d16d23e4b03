package signal

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/fibrange/fib"
)

var ErrZeroStopDistance = errors.New("signal: entry price equals stop price")

// EntryParams configures TryLong and TryShort.
type EntryParams struct {
	SmallBuffer     float64
	UseLimit        bool
	EnterOnNextOpen bool
	ConfirmMomentum bool
	MinMomentumPct  float64
}

func DefaultEntryParams() EntryParams {
	return EntryParams{EnterOnNextOpen: true}
}

// EntrySignal is a proposed entry. It does not guarantee that EntryPrice
// differs from StopPrice; call Validate before sizing.
type EntrySignal struct {
	Side       Side
	EntryPrice float64
	StopPrice  float64
	Target     float64
	Reason     string
	Meta       map[string]any
}

// Validate rejects a signal whose stop distance is zero.
func (s EntrySignal) Validate() error {
	if s.StopDistance() == 0 {
		return fmt.Errorf("%s entry %v: %w", s.Side, s.EntryPrice, ErrZeroStopDistance)
	}
	return nil
}

func (s EntrySignal) StopDistance() float64 {
	return math.Abs(s.EntryPrice - s.StopPrice)
}

// TryLong proposes a long when the range is Trading and the close sits in
// the [0.00, 0.25] zone. The stop goes under the outer low, rather than
// the low, when the previous close was below the low.
func TryLong(q Quote, r fib.Range, p EntryParams) (EntrySignal, bool) {
	if r.State != fib.Trading {
		return EntrySignal{}, false
	}
	lo, hi := r.Levels.Zone(fib.Low, fib.Q25)
	if q.Close < lo || q.Close > hi {
		return EntrySignal{}, false
	}
	if p.ConfirmMomentum && q.NextOpen != nil {
		if *q.NextOpen <= q.Close*(1+p.MinMomentumPct/100) {
			return EntrySignal{}, false
		}
	}

	stop := r.Level(fib.Low) - p.SmallBuffer
	if q.PrevClose != nil && *q.PrevClose < r.Level(fib.Low) {
		stop = r.Level(fib.OuterLow) - p.SmallBuffer
	}

	return EntrySignal{
		Side:       Long,
		EntryPrice: entryPrice(q, lo, hi, p),
		StopPrice:  stop,
		Target:     r.Level(fib.High),
		Reason:     "long: close in [0.00, 0.25]",
		Meta:       map[string]any{"zone": [2]float64{lo, hi}},
	}, true
}

// TryShort mirrors TryLong on the [0.75, 1.00] zone. The stop goes above
// the outer high when the previous close was at or above the high.
func TryShort(q Quote, r fib.Range, p EntryParams) (EntrySignal, bool) {
	if r.State != fib.Trading {
		return EntrySignal{}, false
	}
	lo, hi := r.Levels.Zone(fib.Q75, fib.High)
	if q.Close < lo || q.Close > hi {
		return EntrySignal{}, false
	}
	if p.ConfirmMomentum && q.NextOpen != nil {
		if *q.NextOpen >= q.Close*(1-p.MinMomentumPct/100) {
			return EntrySignal{}, false
		}
	}

	stop := r.Level(fib.High) + p.SmallBuffer
	if q.PrevClose != nil && *q.PrevClose >= r.Level(fib.High) {
		stop = r.Level(fib.OuterHigh) + p.SmallBuffer
	}

	return EntrySignal{
		Side:       Short,
		EntryPrice: entryPrice(q, lo, hi, p),
		StopPrice:  stop,
		Target:     r.Level(fib.Low),
		Reason:     "short: close in [0.75, 1.00]",
		Meta:       map[string]any{"zone": [2]float64{lo, hi}},
	}, true
}

func entryPrice(q Quote, lo, hi float64, p EntryParams) float64 {
	if p.UseLimit {
		return (lo + hi) / 2
	}
	return q.hint(p.EnterOnNextOpen)
}
