package signal

import (
	"fmt"

	"github.com/rustyeddy/fibrange/fib"
)

// ExitReason says why DecideExit fired.
type ExitReason int

const (
	ReasonNone ExitReason = iota
	ReasonStop
	ReasonTakeProfit
	ReasonRangeBreak
	ReasonTimeout
)

func (r ExitReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonStop:
		return "stop_loss"
	case ReasonTakeProfit:
		return "take_profit"
	case ReasonRangeBreak:
		return "range_break"
	case ReasonTimeout:
		return "time_based"
	default:
		return fmt.Sprintf("ExitReason(%d)", int(r))
	}
}

// BreakPolicy is what to do with an open position when its range breaks.
type BreakPolicy int

const (
	CloseNow BreakPolicy = iota
	WidenStop
)

func (p BreakPolicy) String() string {
	if p == WidenStop {
		return "widen_stop"
	}
	return "close_now"
}

func ParseBreakPolicy(s string) (BreakPolicy, error) {
	switch s {
	case "", "close_now":
		return CloseNow, nil
	case "widen_stop":
		return WidenStop, nil
	default:
		return CloseNow, fmt.Errorf("signal: unknown range break policy %q", s)
	}
}

// ExitParams configures DecideExit.
type ExitParams struct {
	// CloseBased checks stop and target against the bar close. When false
	// the caller is expected to rest them as orders instead.
	CloseBased     bool
	ExitOnNextOpen bool
	// MaxBarsInTrade times a position out; 0 disables the check.
	MaxBarsInTrade int
	SmallBuffer    float64
	OnRangeBreak   BreakPolicy
	// WidenStopTo overrides the stop set by WidenStop.
	WidenStopTo *float64
}

func DefaultExitParams() ExitParams {
	return ExitParams{
		CloseBased:     true,
		ExitOnNextOpen: true,
		MaxBarsInTrade: 48,
		OnRangeBreak:   CloseNow,
	}
}

// ExitDecision is the outcome of DecideExit. ExitPrice is set whenever
// ShouldExit is; NewStop only for the WidenStop policy.
type ExitDecision struct {
	ShouldExit bool
	Reason     ExitReason
	ExitPrice  *float64
	NewStop    *float64
	Meta       map[string]any
}

// StopLevel is the protective stop for side: beyond the outer level on the
// losing side, padded by buf.
func StopLevel(side Side, l fib.Levels, buf float64) float64 {
	if side == Short {
		return l.At(fib.OuterHigh) + buf
	}
	return l.At(fib.OuterLow) - buf
}

// TargetLevel is the opposite range extreme.
func TargetLevel(side Side, l fib.Levels) float64 {
	if side == Short {
		return l.At(fib.Low)
	}
	return l.At(fib.High)
}

// breakByLevels reports a close at or beyond the outer level on the
// losing side.
func breakByLevels(side Side, close float64, l fib.Levels) bool {
	if side == Short {
		return close >= l.At(fib.OuterHigh)
	}
	return close <= l.At(fib.OuterLow)
}

// DecideExit walks the exit ladder for an open position; the first match
// wins: stop, take profit, range break, timeout.
func DecideExit(side Side, q Quote, r fib.Range, barsInTrade int, state fib.State, p ExitParams) ExitDecision {
	meta := map[string]any{}
	exit := func(reason ExitReason) ExitDecision {
		px := q.hint(p.ExitOnNextOpen)
		return ExitDecision{ShouldExit: true, Reason: reason, ExitPrice: &px, Meta: meta}
	}

	stop := StopLevel(side, r.Levels, p.SmallBuffer)
	meta["stop_level"] = stop
	if p.CloseBased {
		if (side == Long && q.Close < stop) || (side == Short && q.Close > stop) {
			return exit(ReasonStop)
		}
	}

	tp := TargetLevel(side, r.Levels)
	meta["tp_level"] = tp
	if p.CloseBased {
		if (side == Long && q.Close > tp) || (side == Short && q.Close < tp) {
			return exit(ReasonTakeProfit)
		}
	}

	flagged := state == fib.Broken
	byLevels := breakByLevels(side, q.Close, r.Levels)
	if flagged || byLevels {
		meta["range_broken_flag"] = flagged
		meta["range_break_by_levels"] = byLevels
		if p.OnRangeBreak == CloseNow {
			return exit(ReasonRangeBreak)
		}
		ns := r.Level(fib.OuterLow)
		if side == Short {
			ns = r.Level(fib.OuterHigh)
		}
		if p.WidenStopTo != nil {
			ns = *p.WidenStopTo
		}
		return ExitDecision{Reason: ReasonRangeBreak, NewStop: &ns, Meta: meta}
	}

	if p.MaxBarsInTrade > 0 && barsInTrade >= p.MaxBarsInTrade {
		meta["bars_in_trade"] = barsInTrade
		return exit(ReasonTimeout)
	}
	return ExitDecision{Reason: ReasonNone, Meta: meta}
}
