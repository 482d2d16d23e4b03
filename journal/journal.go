package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/fibrange/config"
)

// TradeRecord is one closed position.
type TradeRecord struct {
	RunID       string
	TradeID     string
	Instrument  string
	Side        string
	Units       float64
	EntryPrice  float64
	ExitPrice   float64
	StopPrice   float64
	TargetPrice float64
	OpenTime    time.Time
	CloseTime   time.Time
	BarsInTrade int
	RealizedPL  float64
	Reason      string
}

// EquitySnapshot is the account value at the close of a bar.
type EquitySnapshot struct {
	RunID      string
	Time       time.Time
	Balance    float64
	Equity     float64
	Unrealized float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }

// Open returns the journal selected by cfg.
func Open(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "csv":
		return NewCSV(cfg.TradesFile, cfg.EquityFile)
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
	}
}
