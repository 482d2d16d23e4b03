// Package strategy drives the range strategy bar by bar over an explicit,
// caller-owned Session.
package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/rustyeddy/fibrange/config"
	"github.com/rustyeddy/fibrange/fib"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/signal"
)

// Strategy is called once per closed candle. next is the following candle
// when it is already known (historical replay) and nil otherwise.
type Strategy interface {
	Name() string
	NewSession() *Session
	OnBar(s *Session, c market.Candle, next *market.Candle) Decision
}

type Action int

const (
	Hold Action = iota
	Enter
	Exit
	AdjustStop
)

func (a Action) String() string {
	switch a {
	case Enter:
		return "ENTER"
	case Exit:
		return "EXIT"
	case AdjustStop:
		return "ADJUST_STOP"
	default:
		return "HOLD"
	}
}

// Decision is the outcome of one bar. Entry is set for Enter, Exit for
// Exit and AdjustStop. Event is the range transition seen on the bar.
type Decision struct {
	Action Action
	Index  int
	Time   time.Time

	Entry *signal.EntrySignal
	Exit  *signal.ExitDecision
	Event fib.Event

	Reason string
}

// ByName returns the strategy registered under name, configured from cfg.
func ByName(name string, cfg *config.Config, opts ...Option) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "noop", "none":
		return NoopStrategy{}, nil
	case "fib-range", "fibrange", "fib":
		return NewFibRange(ConfigFrom(cfg), cfg.Builder(), opts...), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (supported: fib-range, noop)", name)
	}
}

// NoopStrategy records bars and never trades.
type NoopStrategy struct{}

func (NoopStrategy) Name() string { return "noop" }

func (NoopStrategy) NewSession() *Session { return &Session{} }

func (NoopStrategy) OnBar(s *Session, c market.Candle, _ *market.Candle) Decision {
	i, _, _ := s.Append(c)
	return Decision{Action: Hold, Index: i, Time: c.Time, Reason: "noop"}
}
