package risk

import (
	"fmt"
	"time"
)

// Policy holds the pre-trade limits a backtest enforces before opening a
// sized position. Zero values disable a check.
type Policy struct {
	RiskPct         float64 // sizing fraction, 0.01
	MaxRiskPct      float64 // hard cap on planned risk
	MinRR           float64
	MaxDailyLossPct float64
}

func DefaultPolicy() Policy {
	return Policy{
		RiskPct:    0.01,
		MaxRiskPct: 0.02,
	}
}

type TradeIntent struct {
	Now    time.Time
	Units  float64
	Entry  float64
	Stop   float64
	Target float64
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Allowed    bool
	Violations []Violation

	PlannedRisk    float64
	PlannedRiskPct float64
	PlannedRR      float64
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Allowed = false
}

// Evaluate checks intent against p given the current equity and the
// realized P/L of the intent's trading day.
func Evaluate(p Policy, intent TradeIntent, equity, dayRealized float64) Decision {
	d := Decision{Allowed: true}

	if intent.Units <= 0 {
		d.add("NO_UNITS", "units must be positive")
		return d
	}

	d.PlannedRisk = PlannedRisk(intent.Units, intent.Entry, intent.Stop, 1)
	d.PlannedRiskPct = RiskPct(d.PlannedRisk, equity)
	d.PlannedRR = RR(intent.Entry, intent.Stop, intent.Target)

	if p.MaxRiskPct > 0 && d.PlannedRiskPct > p.MaxRiskPct {
		d.add("RISK_TOO_HIGH",
			fmt.Sprintf("planned risk %.2f%% exceeds max %.2f%%",
				100*d.PlannedRiskPct, 100*p.MaxRiskPct))
	}
	if p.MinRR > 0 && d.PlannedRR < p.MinRR {
		d.add("RR_TOO_LOW",
			fmt.Sprintf("RR %.2f below minimum %.2f", d.PlannedRR, p.MinRR))
	}
	if p.MaxDailyLossPct > 0 {
		limit := -p.MaxDailyLossPct * equity
		if dayRealized <= limit {
			d.add("DAILY_LOSS_LIMIT",
				fmt.Sprintf("day realized %.2f <= limit %.2f", dayRealized, limit))
		}
	}
	return d
}
