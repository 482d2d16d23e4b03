package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        Inputs
		wantUnits float64
		wantRisk  float64
		wantErr   error
	}{
		{
			name:      "one percent of equity",
			in:        Inputs{Equity: 100000, RiskPct: 0.01, EntryPrice: 101, StopPrice: 99.5},
			wantUnits: 666,
			wantRisk:  1000,
		},
		{
			name:      "short stop above entry",
			in:        Inputs{Equity: 2000, RiskPct: 0.005, EntryPrice: 1.0000, StopPrice: 1.0100},
			wantUnits: 1000,
			wantRisk:  10,
		},
		{
			name:      "quote conversion",
			in:        Inputs{Equity: 5000, RiskPct: 0.02, EntryPrice: 150, StopPrice: 149.5, QuoteToAccount: 0.0091},
			wantUnits: 21978,
			wantRisk:  100,
		},
		{
			name:    "zero stop distance",
			in:      Inputs{Equity: 1000, RiskPct: 0.01, EntryPrice: 100, StopPrice: 100},
			wantErr: ErrZeroStopDistance,
		},
		{
			name:    "no equity",
			in:      Inputs{RiskPct: 0.01, EntryPrice: 100, StopPrice: 99},
			wantErr: ErrNoEquity,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Calculate(tt.in)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.wantUnits, got.Units, 1.0)
			assert.InDelta(t, tt.wantRisk, got.RiskAmount, 1e-9)
			assert.Equal(t, got.Units, float64(int64(got.Units)), "units are whole")
		})
	}
}

func TestRR(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 9.0, RR(101, 100, 110), 1e-12)
	assert.InDelta(t, 2.0, RR(108, 110, 104), 1e-12)
	assert.Zero(t, RR(100, 100, 110))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	intent := TradeIntent{Now: now, Units: 1000, Entry: 101, Stop: 100, Target: 110}

	d := Evaluate(DefaultPolicy(), intent, 100000, 0)
	assert.True(t, d.Allowed)
	assert.InDelta(t, 1000, d.PlannedRisk, 1e-9)
	assert.InDelta(t, 0.01, d.PlannedRiskPct, 1e-12)
	assert.InDelta(t, 9, d.PlannedRR, 1e-12)

	tight := Policy{MaxRiskPct: 0.005, MinRR: 10, MaxDailyLossPct: 0.01}
	d = Evaluate(tight, intent, 100000, -1500)
	assert.False(t, d.Allowed)

	var codes []string
	for _, v := range d.Violations {
		codes = append(codes, v.Code)
	}
	assert.ElementsMatch(t, []string{"RISK_TOO_HIGH", "RR_TOO_LOW", "DAILY_LOSS_LIMIT"}, codes)

	d = Evaluate(DefaultPolicy(), TradeIntent{}, 100000, 0)
	assert.False(t, d.Allowed)
	assert.Equal(t, "NO_UNITS", d.Violations[0].Code)
}
