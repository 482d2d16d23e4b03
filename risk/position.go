package risk

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrZeroStopDistance = errors.New("risk: stop distance is zero")
	ErrNoEquity         = errors.New("risk: equity must be positive")
)

// Inputs for fixed-fractional sizing.
type Inputs struct {
	Equity     float64
	RiskPct    float64 // 0.01 risks 1% of equity
	EntryPrice float64
	StopPrice  float64
	// QuoteToAccount converts quote currency to account currency; 0 means 1.
	QuoteToAccount float64
}

type Result struct {
	Units        float64
	StopDistance float64
	RiskAmount   float64
}

// Calculate sizes a position so that hitting the stop loses RiskPct of
// Equity, rounded down to whole units.
func Calculate(in Inputs) (Result, error) {
	if in.Equity <= 0 {
		return Result{}, fmt.Errorf("equity %v: %w", in.Equity, ErrNoEquity)
	}
	dist := math.Abs(in.EntryPrice - in.StopPrice)
	if dist == 0 {
		return Result{}, fmt.Errorf("entry=stop=%v: %w", in.EntryPrice, ErrZeroStopDistance)
	}
	q := in.QuoteToAccount
	if q == 0 {
		q = 1
	}

	riskAmt := in.Equity * in.RiskPct
	units := math.Floor(riskAmt / (dist * q))
	if units < 0 {
		units = 0
	}
	return Result{
		Units:        units,
		StopDistance: dist,
		RiskAmount:   riskAmt,
	}, nil
}
