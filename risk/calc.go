package risk

import "math"

// PlannedRisk is the account-currency loss if the stop is hit.
func PlannedRisk(units, entry, stop, quoteToAccount float64) float64 {
	if quoteToAccount == 0 {
		quoteToAccount = 1
	}
	return units * math.Abs(entry-stop) * quoteToAccount
}

// RR is reward over risk; 0 when the stop distance is zero.
func RR(entry, stop, target float64) float64 {
	risk := math.Abs(entry - stop)
	if risk == 0 {
		return 0
	}
	return math.Abs(target-entry) / risk
}

func RiskPct(plannedRisk, equity float64) float64 {
	if equity <= 0 {
		return math.Inf(1)
	}
	return plannedRisk / equity
}
