package fib

import (
	"errors"
	"fmt"
	"time"
)

var ErrDegenerateRange = errors.New("fib: range high must be above low")

// Direction is the order in which the range anchors formed.
type Direction int

const (
	// Up is a low followed by a higher high.
	Up Direction = iota
	// Down is a high followed by a lower low.
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// State is the range lifecycle state.
type State int

const (
	Idle State = iota
	Trading
	Broken
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Trading:
		return "Trading"
	case Broken:
		return "Broken"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Range is a directional price range partitioned into ratio levels.
//
// A Range is a value: copies share nothing. The state machine mutates the
// caller's copy through a pointer.
type Range struct {
	High      float64
	Low       float64
	Direction Direction
	Levels    Levels
	State     State

	HighIdx int
	LowIdx  int

	GeneratedIdx int
	GeneratedAt  time.Time
	UpdatedIdx   int
	UpdatedAt    time.Time

	// pullback is the bar where price left the continuation zone while
	// Trading; inPullback reports whether one is open.
	pullback   int
	inPullback bool
}

// NewRange returns an Idle range with its levels computed. The bar
// indexes are -1 until a builder or the state machine sets them.
func NewRange(high, low float64, dir Direction) (Range, error) {
	if !(high > low) {
		return Range{}, fmt.Errorf("high=%v low=%v: %w", high, low, ErrDegenerateRange)
	}
	return Range{
		High:         high,
		Low:          low,
		Direction:    dir,
		Levels:       ComputeLevels(high, low),
		State:        Idle,
		HighIdx:      -1,
		LowIdx:       -1,
		GeneratedIdx: -1,
		UpdatedIdx:   -1,
	}, nil
}

func (r Range) Level(ratio Ratio) float64 {
	return r.Levels[ratio]
}

// Size is High-Low.
func (r Range) Size() float64 {
	return r.High - r.Low
}

func (r Range) String() string {
	return fmt.Sprintf("%s %s [%.5f, %.5f]", r.Direction, r.State, r.Low, r.High)
}
