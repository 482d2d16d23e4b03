package backtest

import (
	"time"

	"github.com/rustyeddy/fibrange/journal"
)

type EquityPoint struct {
	Time    time.Time
	Balance float64
	Equity  float64
}

type Result struct {
	RunID      string
	Strategy   string
	Instrument string
	Timeframe  string

	Start time.Time
	End   time.Time
	Bars  int

	Ranges   int // ranges built
	Rejected int // entry signals refused by sizing or policy

	Trades []journal.TradeRecord
	Equity []EquityPoint

	StartBalance float64
	EndBalance   float64

	// filled by fillMetrics
	Wins         int
	Losses       int
	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // 0..1
	ProfitFactor float64 // 0 when there are no losing trades
	MaxDDPct     float64
}

// fillMetrics rolls up P/L, win rate and profit factor from the trades.
// MaxDDPct is tracked bar by bar while running.
func fillMetrics(res *Result) {
	s := journal.Summarize(res.Trades)
	res.Wins = s.Wins
	res.Losses = s.Losses
	res.NetPL = s.NetPL
	res.ProfitFactor = s.ProfitFactor

	res.WinRate = 0
	if s.Trades > 0 {
		res.WinRate = float64(s.Wins) / float64(s.Trades)
	}
	res.ReturnPct = 0
	if res.StartBalance > 0 {
		res.ReturnPct = (res.EndBalance - res.StartBalance) / res.StartBalance * 100
	}
}

// Record converts the result into a run summary row.
func (res Result) Record(dataset string, riskPct float64, cfg []byte) journal.BacktestRun {
	return journal.BacktestRun{
		RunID:        res.RunID,
		Created:      time.Now().UTC(),
		Timeframe:    res.Timeframe,
		Dataset:      dataset,
		Instrument:   res.Instrument,
		Strategy:     res.Strategy,
		Config:       cfg,
		RiskPct:      riskPct,
		Start:        res.Start,
		End:          res.End,
		Bars:         res.Bars,
		Ranges:       res.Ranges,
		Trades:       len(res.Trades),
		Wins:         res.Wins,
		Losses:       res.Losses,
		StartBalance: res.StartBalance,
		EndBalance:   res.EndBalance,
		NetPL:        res.NetPL,
		ReturnPct:    res.ReturnPct,
		WinRate:      res.WinRate,
		ProfitFactor: res.ProfitFactor,
		MaxDDPct:     res.MaxDDPct,
	}
}
