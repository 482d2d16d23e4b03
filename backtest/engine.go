package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/fibrange/journal"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/metrics"
	"github.com/rustyeddy/fibrange/pkg/id"
	"github.com/rustyeddy/fibrange/risk"
	"github.com/rustyeddy/fibrange/signal"
	"github.com/rustyeddy/fibrange/strategy"
)

var ErrNoBars = errors.New("backtest: no bars")

const ReasonEndOfData = "end_of_data"

type Options struct {
	RunID        string
	Instrument   string
	StartBalance float64
	Policy       risk.Policy

	// CloseEnd closes an open position at the close of the last bar.
	CloseEnd bool

	// IntrabarExits rests the position's stop and target on each bar's
	// high/low. A widened stop always rests.
	IntrabarExits bool
}

// Engine replays bars through a strategy, one position at a time.
//
// Fill model:
//   - entries fill at the signal's entry price
//   - strategy exits fill at the decision's price hint
//   - resting stop/target are checked on the bar's range before the
//     strategy sees the bar; if both are touched the stop wins
type Engine struct {
	bars  []market.Candle
	strat strategy.Strategy
	opts  Options

	j   journal.Journal
	m   *metrics.Metrics
	log *zap.Logger

	balance float64
	widened bool
	day     time.Time
	dayPL   float64
	peak    float64
	res     Result
}

type Option func(*Engine)

func WithJournal(j journal.Journal) Option {
	return func(e *Engine) { e.j = j }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.m = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func NewEngine(bars []market.Candle, strat strategy.Strategy, opts Options, o ...Option) *Engine {
	e := &Engine{
		bars:  bars,
		strat: strat,
		opts:  opts,
		j:     journal.Nop{},
		m:     metrics.NewNoop(),
		log:   zap.NewNop(),
	}
	for _, fn := range o {
		fn(e)
	}
	if e.opts.RunID == "" {
		e.opts.RunID = id.New()
	}
	return e
}

// Run executes the backtest. On a context or journal error the partial
// result is returned with the error.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	if e.strat == nil {
		return Result{}, fmt.Errorf("backtest: strategy is required")
	}
	if len(e.bars) == 0 {
		return Result{}, ErrNoBars
	}

	e.balance = e.opts.StartBalance
	e.peak = e.balance
	e.widened = false
	e.day, e.dayPL = time.Time{}, 0
	last := len(e.bars) - 1
	e.res = Result{
		RunID:        e.opts.RunID,
		Strategy:     e.strat.Name(),
		Instrument:   e.opts.Instrument,
		Bars:         len(e.bars),
		Start:        e.bars[0].Time,
		End:          e.bars[last].Time,
		StartBalance: e.opts.StartBalance,
	}
	if tf, err := market.InferTimeframe(e.bars); err == nil {
		e.res.Timeframe = tf
	}

	e.log.Info("backtest start",
		zap.String("run", e.opts.RunID),
		zap.String("strategy", e.res.Strategy),
		zap.String("instrument", e.opts.Instrument),
		zap.Int("bars", len(e.bars)),
		zap.Float64("balance", e.balance))

	s := e.strat.NewSession()
	for i, c := range e.bars {
		if err := ctx.Err(); err != nil {
			return e.finish(), err
		}

		// 1) resting orders on this bar
		if s.Pos.Open && (e.opts.IntrabarExits || e.widened) {
			if px, reason, hit := checkExit(s.Pos, c); hit {
				if err := e.closePosition(s, c.Time, px, reason.String()); err != nil {
					return e.finish(), err
				}
			}
		}

		// 2) strategy
		var next *market.Candle
		if i < last {
			next = &e.bars[i+1]
		}
		prev := s.Range
		d := e.strat.OnBar(s, c, next)
		if s.Range != nil && s.Range != prev {
			e.res.Ranges++
		}

		switch d.Action {
		case strategy.Enter:
			e.openPosition(s, c, d.Entry)
		case strategy.Exit:
			px := c.Close
			if d.Exit.ExitPrice != nil {
				px = *d.Exit.ExitPrice
			}
			if err := e.closePosition(s, c.Time, px, d.Exit.Reason.String()); err != nil {
				return e.finish(), err
			}
		case strategy.AdjustStop:
			e.log.Info("stop adjusted",
				zap.String("trade", s.Pos.ID),
				zap.Float64("from", s.Pos.Stop),
				zap.Float64("to", *d.Exit.NewStop))
			s.AdjustStop(*d.Exit.NewStop)
			e.widened = true
			e.m.StopsWidened.Inc()
		}

		if i == last && e.opts.CloseEnd && s.Pos.Open {
			if err := e.closePosition(s, c.Time, c.Close, ReasonEndOfData); err != nil {
				return e.finish(), err
			}
		}

		if err := e.mark(s, c); err != nil {
			return e.finish(), err
		}
	}

	res := e.finish()
	e.log.Info("backtest done",
		zap.String("run", res.RunID),
		zap.Int("trades", len(res.Trades)),
		zap.Int("ranges", res.Ranges),
		zap.Float64("net_pl", res.NetPL),
		zap.Float64("max_dd_pct", res.MaxDDPct))
	return res, nil
}

func (e *Engine) openPosition(s *strategy.Session, c market.Candle, sig *signal.EntrySignal) {
	reject := func(fields ...zap.Field) {
		e.res.Rejected++
		e.m.EntriesRejected.Inc()
		e.log.Warn("entry rejected", append(fields, zap.Time("time", c.Time), zap.Stringer("side", sig.Side))...)
	}

	size, err := risk.Calculate(risk.Inputs{
		Equity:     e.balance,
		RiskPct:    e.opts.Policy.RiskPct,
		EntryPrice: sig.EntryPrice,
		StopPrice:  sig.StopPrice,
	})
	if err != nil {
		reject(zap.Error(err))
		return
	}

	dec := risk.Evaluate(e.opts.Policy, risk.TradeIntent{
		Now:    c.Time,
		Units:  size.Units,
		Entry:  sig.EntryPrice,
		Stop:   sig.StopPrice,
		Target: sig.Target,
	}, e.balance, e.realizedOn(c.Time))
	if !dec.Allowed {
		codes := make([]string, 0, len(dec.Violations))
		for _, v := range dec.Violations {
			codes = append(codes, v.Code)
		}
		reject(zap.Strings("violations", codes), zap.Float64("units", size.Units))
		return
	}

	tradeID := id.At(c.Time)
	s.Open(tradeID, *sig, size.Units, sig.EntryPrice)
	e.widened = false
	e.m.TradesOpened.Inc()
	e.log.Info("position opened",
		zap.String("trade", tradeID),
		zap.Stringer("side", sig.Side),
		zap.Float64("units", size.Units),
		zap.Float64("entry", sig.EntryPrice),
		zap.Float64("stop", sig.StopPrice),
		zap.Float64("target", sig.Target),
		zap.Float64("risk", size.RiskAmount))
}

func (e *Engine) closePosition(s *strategy.Session, t time.Time, px float64, reason string) error {
	p := s.Close()
	e.widened = false

	pnl := sign(p.Side) * (px - p.EntryPrice) * p.Units
	e.balance += pnl
	e.addRealized(t, pnl)

	rec := journal.TradeRecord{
		RunID:       e.opts.RunID,
		TradeID:     p.ID,
		Instrument:  e.opts.Instrument,
		Side:        p.Side.String(),
		Units:       p.Units,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   px,
		StopPrice:   p.Stop,
		TargetPrice: p.Target,
		OpenTime:    p.EntryTime,
		CloseTime:   t,
		BarsInTrade: p.BarsInTrade,
		RealizedPL:  pnl,
		Reason:      reason,
	}
	e.res.Trades = append(e.res.Trades, rec)
	e.countExit(reason)
	e.log.Info("position closed",
		zap.String("trade", p.ID),
		zap.String("reason", reason),
		zap.Float64("exit", px),
		zap.Float64("pnl", pnl),
		zap.Float64("balance", e.balance))

	if err := e.j.RecordTrade(rec); err != nil {
		return fmt.Errorf("journal trade %s: %w", p.ID, err)
	}
	return nil
}

func (e *Engine) countExit(reason string) {
	switch reason {
	case signal.ReasonStop.String():
		e.m.ExitsStop.Inc()
	case signal.ReasonTakeProfit.String():
		e.m.ExitsTakeProfit.Inc()
	case signal.ReasonRangeBreak.String():
		e.m.ExitsRangeBreak.Inc()
	case signal.ReasonTimeout.String():
		e.m.ExitsTimeout.Inc()
	case ReasonEndOfData:
		e.m.ExitsEndOfData.Inc()
	}
}

// mark appends the bar's equity to the curve and tracks drawdown.
func (e *Engine) mark(s *strategy.Session, c market.Candle) error {
	unreal := 0.0
	if s.Pos.Open {
		unreal = sign(s.Pos.Side) * (c.Close - s.Pos.EntryPrice) * s.Pos.Units
	}
	eq := e.balance + unreal
	e.res.Equity = append(e.res.Equity, EquityPoint{Time: c.Time, Balance: e.balance, Equity: eq})

	if eq > e.peak {
		e.peak = eq
	}
	if e.peak > 0 {
		if dd := (e.peak - eq) / e.peak * 100; dd > e.res.MaxDDPct {
			e.res.MaxDDPct = dd
		}
	}

	return e.j.RecordEquity(journal.EquitySnapshot{
		RunID:      e.opts.RunID,
		Time:       c.Time,
		Balance:    e.balance,
		Equity:     eq,
		Unrealized: unreal,
	})
}

func (e *Engine) finish() Result {
	e.res.EndBalance = e.balance
	fillMetrics(&e.res)
	return e.res
}

func (e *Engine) realizedOn(t time.Time) float64 {
	if !sameDay(e.day, t) {
		return 0
	}
	return e.dayPL
}

func (e *Engine) addRealized(t time.Time, pnl float64) {
	if !sameDay(e.day, t) {
		e.day, e.dayPL = t, 0
	}
	e.dayPL += pnl
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

func sign(s signal.Side) float64 {
	if s == signal.Short {
		return -1
	}
	return 1
}

// checkExit models stop/take hits within a candle. When both are hit in
// the same bar the stop is assumed first.
func checkExit(p strategy.Position, c market.Candle) (float64, signal.ExitReason, bool) {
	if !p.Open {
		return 0, signal.ReasonNone, false
	}

	hasStop := p.Stop != 0
	hasTake := p.Target != 0

	switch p.Side {
	case signal.Long:
		if hasStop && c.Low <= p.Stop {
			return p.Stop, signal.ReasonStop, true
		}
		if hasTake && c.High >= p.Target {
			return p.Target, signal.ReasonTakeProfit, true
		}
	case signal.Short:
		if hasStop && c.High >= p.Stop {
			return p.Stop, signal.ReasonStop, true
		}
		if hasTake && c.Low <= p.Target {
			return p.Target, signal.ReasonTakeProfit, true
		}
	}
	return 0, signal.ReasonNone, false
}
