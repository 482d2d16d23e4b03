package strategy

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/rustyeddy/fibrange/config"
	"github.com/rustyeddy/fibrange/fib"
	"github.com/rustyeddy/fibrange/indicators"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/metrics"
	"github.com/rustyeddy/fibrange/signal"
	"github.com/rustyeddy/fibrange/swing"
)

// ErrStaleRange marks a build that would reproduce a range which already
// broke.
var ErrStaleRange = errors.New("strategy: range already broke, awaiting newer swings")

type FibRangeConfig struct {
	// Warmup is the number of bars collected before any range is built.
	Warmup   int
	Swing    swing.OnlineConfig
	Lookback int
	Entry    signal.EntryParams
	Exit     signal.ExitParams

	// BufferATR > 0 raises the entry and exit buffers to BufferATR times
	// ATR(ATRPeriod) whenever that exceeds the fixed buffer.
	BufferATR float64
	ATRPeriod int
}

func ConfigFrom(c *config.Config) FibRangeConfig {
	return FibRangeConfig{
		Warmup:   c.Range.Warmup,
		Swing:    c.SwingOnline(),
		Lookback: c.Range.Lookback,
		Entry:    c.EntryParams(),
		Exit:     c.ExitParams(),

		BufferATR: c.Entry.BufferATRMult,
		ATRPeriod: c.Entry.ATRPeriod,
	}
}

// FibRange trades the active range: long in the [0.00, 0.25] zone, short
// in the [0.75, 1.00] zone, once the range is confirmed.
type FibRange struct {
	cfg     FibRangeConfig
	builder fib.Builder
	sm      fib.StateMachine

	log *zap.Logger
	m   *metrics.Metrics
}

type Option func(*FibRange)

func WithLogger(l *zap.Logger) Option {
	return func(f *FibRange) { f.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(f *FibRange) { f.m = m }
}

func NewFibRange(cfg FibRangeConfig, b fib.Builder, opts ...Option) *FibRange {
	if b == nil {
		panic("FibRange requires a range builder")
	}
	if err := cfg.Swing.Validate(); err != nil {
		panic(err)
	}
	f := &FibRange{
		cfg:     cfg,
		builder: b,
		sm:      fib.NewStateMachine(cfg.Lookback),
		log:     zap.NewNop(),
		m:       metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *FibRange) Name() string { return "FIB_RANGE(" + f.builder.Name() + ")" }

func (f *FibRange) NewSession() *Session {
	s := NewSession(f.cfg.Swing)
	if f.cfg.BufferATR > 0 {
		s.atr = indicators.NewATR(f.cfg.ATRPeriod)
	}
	return s
}

// RangeStep is what one bar did to the session's swings and range.
type RangeStep struct {
	Index int

	Swing    swing.Point
	HasSwing bool

	// Built reports that s.Range was built on this bar.
	Built bool
	Event fib.Event

	// Reason says why no range is active after the bar.
	Reason string
}

// Advance appends c to the session, confirms swings and either builds a
// range or steps the active one through the state machine. A broken range
// is dropped; the next one must be generated after it, so the swing pair
// that produced it is never reused.
func (f *FibRange) Advance(s *Session, c market.Candle) RangeStep {
	i, p, ok := s.Append(c)
	st := RangeStep{Index: i, Swing: p, HasSwing: ok, Event: fib.Event{Index: i, AnchorIdx: -1}}
	if ok {
		f.m.SwingsConfirmed.Inc()
		f.log.Debug("swing confirmed",
			zap.Int("bar", p.Index),
			zap.Time("time", p.Time),
			zap.Stringer("kind", p.Kind),
			zap.Float64("price", p.Price))
	}
	if s.atr != nil {
		s.atr.Update(c)
	}

	if i+1 < f.cfg.Warmup {
		st.Reason = "warming up"
		return st
	}

	if s.Range == nil {
		res := f.build(s)
		if !res.Ok() {
			st.Reason = res.Status.String()
			return st
		}
		r := res.Range
		s.Range = &r
		st.Built = true
		f.m.RangesBuilt.Inc()
		f.log.Info("range built", rangeFields(i, r)...)
		return st
	}

	st.Event = f.sm.Step(s.Range, s.Bars, i)
	f.observe(st.Event)
	if st.Event.Kind == fib.EventBroken {
		s.brokenGen, s.broken = s.Range.GeneratedIdx, true
		s.Range = nil
	}
	return st
}

// build runs the builder. A result generated at or before the last broken
// range is reported as NotReady.
func (f *FibRange) build(s *Session) fib.Result {
	res := f.builder.Build(s.Swings, s.Bars)
	if res.Ok() && s.broken && res.Range.GeneratedIdx <= s.brokenGen {
		return fib.Result{
			Status: fib.NotReady,
			Err:    fmt.Errorf("%w: generated at bar %d", ErrStaleRange, res.Range.GeneratedIdx),
		}
	}
	return res
}

// OnBar advances the session's range, runs the exit ladder when a position
// is open and the entry rules when flat. A freshly built range is not
// evaluated until the next bar.
func (f *FibRange) OnBar(s *Session, c market.Candle, next *market.Candle) Decision {
	st := f.Advance(s, c)
	entry, exit := f.params(s)

	q := signal.Quote{Close: c.Close, PrevClose: s.prevClose}
	if next != nil {
		q.NextOpen = signal.Price(next.Open)
	}
	s.prevClose = signal.Price(c.Close)

	d := Decision{Action: Hold, Index: st.Index, Time: c.Time, Event: st.Event, Reason: st.Reason}
	if st.Index+1 < f.cfg.Warmup {
		return d
	}

	if !s.Flat() {
		f.manage(s, q, exit, st, &d)
	}

	switch {
	case d.Action != Hold:
		return d
	case st.Built:
		d.Reason = "range built"
		return d
	case s.Range == nil:
		if d.Reason == "" {
			d.Reason = "no range"
		}
		return d
	case !s.Flat():
		d.Reason = "in position"
		return d
	case s.Range.State != fib.Trading:
		d.Reason = "range " + s.Range.State.String()
		return d
	}

	sig, ok := signal.TryLong(q, *s.Range, entry)
	if !ok {
		sig, ok = signal.TryShort(q, *s.Range, entry)
	}
	if !ok {
		d.Reason = "no entry"
		return d
	}
	if err := sig.Validate(); err != nil {
		f.m.EntriesRejected.Inc()
		f.log.Warn("entry rejected", zap.Int("bar", st.Index), zap.Error(err))
		d.Reason = err.Error()
		return d
	}

	f.m.EntrySignals.Inc()
	f.log.Info("entry signal",
		zap.Int("bar", st.Index),
		zap.Stringer("side", sig.Side),
		zap.Float64("entry", sig.EntryPrice),
		zap.Float64("stop", sig.StopPrice),
		zap.Float64("target", sig.Target))
	d.Action = Enter
	d.Entry = &sig
	d.Reason = sig.Reason
	return d
}

// manage runs the exit ladder for the open position.
func (f *FibRange) manage(s *Session, q signal.Quote, p signal.ExitParams, st RangeStep, d *Decision) {
	s.Pos.BarsInTrade++
	switch {
	case st.Event.Kind == fib.EventBroken:
		s.Pos.Range = st.Event.Range
	case s.Range != nil && !st.Built && s.Pos.Range.State != fib.Broken:
		s.Pos.Range = *s.Range
	}
	r := s.Pos.Range

	x := signal.DecideExit(s.Pos.Side, q, r, s.Pos.BarsInTrade, r.State, p)
	switch {
	case x.ShouldExit:
		d.Action = Exit
		d.Exit = &x
		d.Reason = x.Reason.String()
	case x.NewStop != nil && *x.NewStop != s.Pos.Stop:
		d.Action = AdjustStop
		d.Exit = &x
		d.Reason = "widen stop"
	}
}

// params returns the entry and exit parameters for the current bar.
func (f *FibRange) params(s *Session) (signal.EntryParams, signal.ExitParams) {
	entry, exit := f.cfg.Entry, f.cfg.Exit
	if s.atr != nil && s.atr.Ready() {
		b := f.cfg.BufferATR * s.atr.Value()
		entry.SmallBuffer = math.Max(entry.SmallBuffer, b)
		exit.SmallBuffer = math.Max(exit.SmallBuffer, b)
	}
	return entry, exit
}

func (f *FibRange) observe(ev fib.Event) {
	switch ev.Kind {
	case fib.EventConfirmed:
		f.m.RangesConfirmed.Inc()
		f.log.Info("range confirmed", rangeFields(ev.Index, ev.Range)...)
	case fib.EventRebuilt:
		f.m.RangesRebuilt.Inc()
		f.log.Info("range rebuilt", append(rangeFields(ev.Index, ev.Range), zap.Int("anchor", ev.AnchorIdx))...)
	case fib.EventBroken:
		f.m.RangesBroken.Inc()
		f.log.Info("range broken", rangeFields(ev.Index, ev.Range)...)
	}
}

func rangeFields(i int, r fib.Range) []zap.Field {
	return []zap.Field{
		zap.Int("bar", i),
		zap.Stringer("direction", r.Direction),
		zap.Stringer("state", r.State),
		zap.Float64("high", r.High),
		zap.Float64("low", r.Low),
	}
}
