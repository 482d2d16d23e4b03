package strategy

import (
	"time"

	"github.com/rustyeddy/fibrange/fib"
	"github.com/rustyeddy/fibrange/indicators"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/signal"
	"github.com/rustyeddy/fibrange/swing"
)

// Position is the open trade as the execution side filled it.
type Position struct {
	Open        bool
	ID          string
	Side        signal.Side
	EntryPrice  float64
	Stop        float64
	Target      float64
	Units       float64
	EntryIdx    int
	EntryTime   time.Time
	BarsInTrade int
	Reason      string

	// Range is the range the position is managed against. It follows the
	// active range until that range breaks.
	Range fib.Range
}

// Session is all mutable state of one strategy run. It is owned by a
// single caller and passed to every OnBar call; nothing is shared between
// sessions.
type Session struct {
	Bars   []market.Candle
	Swings []swing.Point
	Range  *fib.Range // nil until built and after a break
	Pos    Position

	prevClose *float64
	tracker   *swing.Tracker
	atr       *indicators.ATR // nil unless ATR buffers are on

	// brokenGen is the GeneratedIdx of the last range that broke.
	brokenGen int
	broken    bool
}

func NewSession(cfg swing.OnlineConfig) *Session {
	return &Session{tracker: swing.NewTracker(cfg)}
}

// Append records c and feeds it to the swing tracker. It returns the bar
// index and the swing confirmed by this bar, if any.
func (s *Session) Append(c market.Candle) (int, swing.Point, bool) {
	s.Bars = append(s.Bars, c)
	i := len(s.Bars) - 1
	if s.tracker == nil {
		return i, swing.Point{}, false
	}
	p, ok := s.tracker.Push(c)
	if ok {
		s.Swings = append(s.Swings, p)
	}
	return i, p, ok
}

func (s *Session) Flat() bool {
	return !s.Pos.Open
}

// Open records a filled entry for sig on the latest bar.
func (s *Session) Open(id string, sig signal.EntrySignal, units, fill float64) {
	i := len(s.Bars) - 1
	s.Pos = Position{
		Open:       true,
		ID:         id,
		Side:       sig.Side,
		EntryPrice: fill,
		Stop:       sig.StopPrice,
		Target:     sig.Target,
		Units:      units,
		EntryIdx:   i,
		Reason:     sig.Reason,
	}
	if i >= 0 {
		s.Pos.EntryTime = s.Bars[i].Time
	}
	if s.Range != nil {
		s.Pos.Range = *s.Range
	}
}

// Close clears the position and returns it as it was.
func (s *Session) Close() Position {
	p := s.Pos
	s.Pos = Position{}
	return p
}

// AdjustStop moves the resting stop of the open position.
func (s *Session) AdjustStop(px float64) {
	if s.Pos.Open {
		s.Pos.Stop = px
	}
}
