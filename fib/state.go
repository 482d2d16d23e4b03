package fib

import (
	"fmt"

	"github.com/rustyeddy/fibrange/market"
)

// EventKind is what happened to a range on one bar.
type EventKind int

const (
	EventNone EventKind = iota
	EventConfirmed
	EventRebuilt
	EventBroken
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "none"
	case EventConfirmed:
		return "confirmed"
	case EventRebuilt:
		return "rebuilt"
	case EventBroken:
		return "broken"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is the single transition reported for a bar. Range is the range
// after the transition. AnchorIdx is the bar of the new extreme for
// EventRebuilt and -1 otherwise.
type Event struct {
	Kind      EventKind
	Index     int
	Range     Range
	AnchorIdx int
}

// StateMachine advances a range one bar at a time.
type StateMachine struct {
	// Lookback bounds the window searched for the new extreme when a
	// Trading range is rebuilt.
	Lookback int
}

func NewStateMachine(lookback int) StateMachine {
	if lookback < 1 {
		panic(fmt.Sprintf("fib: lookback must be >= 1, got %d", lookback))
	}
	return StateMachine{Lookback: lookback}
}

// Step evaluates bar i against r and applies at most one transition, in
// order: break, confirmation (Idle only), rebuild (Trading only).
//
// Each bar is evaluated once. Bars at or before r.UpdatedIdx have already
// been seen and yield a None event, so feeding a growing history never
// reports the same event twice.
func (m StateMachine) Step(r *Range, bars []market.Candle, i int) Event {
	ev := Event{Kind: EventNone, Index: i, AnchorIdx: -1}
	if r.State == Broken || i <= r.UpdatedIdx || i >= len(bars) {
		ev.Range = *r
		return ev
	}
	c := bars[i]
	r.UpdatedIdx, r.UpdatedAt = i, c.Time

	switch {
	case c.Close >= r.Levels[OuterHigh] || c.Close <= r.Levels[OuterLow]:
		r.State = Broken
		r.inPullback = false
		ev.Kind = EventBroken

	case r.State == Idle:
		if (r.Direction == Up && c.Close >= r.Levels[Q75]) ||
			(r.Direction == Down && c.Close <= r.Levels[Q25]) {
			r.State = Trading
			ev.Kind = EventConfirmed
		}

	case r.State == Trading:
		if anchor, ok := m.rebuild(r, bars, i); ok {
			ev.Kind = EventRebuilt
			ev.AnchorIdx = anchor
		}
	}

	ev.Range = *r
	return ev
}

// rebuild tracks pullbacks out of the continuation zone (below Q75 for Up,
// above Q25 for Down). When price returns, the active extreme is replaced
// by the extreme of the window [max(pullback, i-Lookback+1), i] and the
// opposite extreme is kept.
func (m StateMachine) rebuild(r *Range, bars []market.Candle, i int) (int, bool) {
	cl := bars[i].Close
	var returned bool
	if r.Direction == Up {
		returned = cl >= r.Levels[Q75]
	} else {
		returned = cl <= r.Levels[Q25]
	}

	if !returned {
		if !r.inPullback {
			r.pullback, r.inPullback = i, true
		}
		return 0, false
	}
	if !r.inPullback {
		return 0, false
	}

	start := i - m.Lookback + 1
	if r.pullback > start {
		start = r.pullback
	}

	var (
		next Range
		err  error
		idx  = start
	)
	if r.Direction == Up {
		for j := start + 1; j <= i; j++ {
			if bars[j].High > bars[idx].High {
				idx = j
			}
		}
		next, err = NewRange(bars[idx].High, r.Low, Up)
		next.HighIdx, next.LowIdx = idx, r.LowIdx
	} else {
		for j := start + 1; j <= i; j++ {
			if bars[j].Low < bars[idx].Low {
				idx = j
			}
		}
		next, err = NewRange(r.High, bars[idx].Low, Down)
		next.HighIdx, next.LowIdx = r.HighIdx, idx
	}
	if err != nil {
		// unreachable: the return bar closes inside the range
		r.inPullback = false
		return 0, false
	}

	next.State = Trading
	next.GeneratedIdx, next.GeneratedAt = i, bars[i].Time
	next.UpdatedIdx, next.UpdatedAt = i, bars[i].Time
	*r = next
	return idx, true
}

// Run steps r over every bar after r.UpdatedIdx and returns the updated
// range with the non-empty events in bar order. It stops at a break.
func (m StateMachine) Run(r Range, bars []market.Candle) (Range, []Event) {
	var events []Event
	for i := r.UpdatedIdx + 1; i < len(bars); i++ {
		ev := m.Step(&r, bars, i)
		if ev.Kind == EventNone {
			continue
		}
		events = append(events, ev)
		if ev.Kind == EventBroken {
			break
		}
	}
	return r, events
}
