package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	open := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)
	trade := sampleTrade("01HV3K9Z8X7W6V5T4S3R2Q1P0N", "R1", open, time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC), 250)

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade: ETHUSDT long (01HV3K9Z)")
	assert.Contains(t, result, ":TRADE_ID: 01HV3K9Z8X7W6V5T4S3R2Q1P0N")
	assert.Contains(t, result, ":RUN_ID: R1")
	assert.Contains(t, result, ":UNITS: 10")
	assert.Contains(t, result, ":ENTRY_PRICE: 2000.00000")
	assert.Contains(t, result, ":STOP_PRICE: 1990.00000")
	assert.Contains(t, result, ":OPEN_TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":CLOSE_TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":BARS: 3")
	assert.Contains(t, result, ":REALIZED_PL: 250.00")
	assert.Contains(t, result, ":REASON: take_profit")

	lines := strings.Split(result, "\n")
	require.Greater(t, len(lines), 10)
	assert.True(t, strings.HasPrefix(lines[0], "** Trade:"))
	assert.Equal(t, ":PROPERTIES:", lines[1])

	end, thesis, execution, review := -1, -1, -1, -1
	for i, line := range lines {
		switch line {
		case ":END:":
			end = i
		case "*** Thesis":
			thesis = i
		case "*** Execution":
			execution = i
		case "*** Review":
			review = i
		}
	}
	assert.Greater(t, thesis, end)
	assert.Greater(t, execution, thesis)
	assert.Greater(t, review, execution)
}

func TestFormatTradeOrgOmitsEmptyRun(t *testing.T) {
	t.Parallel()

	now := time.Now()
	result := FormatTradeOrg(sampleTrade("x", "", now, now, -5))
	assert.NotContains(t, result, ":RUN_ID:")
	assert.Contains(t, result, ":REALIZED_PL: -5.00")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	now := time.Now()
	assert.Empty(t, FormatTradesOrg(nil))

	single := FormatTradesOrg([]TradeRecord{sampleTrade("one", "", now, now, 1)})
	assert.NotContains(t, single, "\n\n\n")

	two := FormatTradesOrg([]TradeRecord{
		sampleTrade("trade-001", "", now, now, 1),
		sampleTrade("trade-002", "", now, now, 1),
	})
	assert.Len(t, strings.Split(two, "\n\n\n"), 2)
}

func TestShortID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input, want string
	}{
		{"trade-12345678-abcdef", "trade-12"},
		{"12345678", "12345678"},
		{"short", "short"},
		{"", ""},
		{"123456789", "12345678"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, shortID(tt.input))
		})
	}
}

func TestBacktestRunOrg(t *testing.T) {
	t.Parallel()

	run := BacktestRun{
		RunID:        "R1",
		Created:      time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
		Timeframe:    "H1",
		Instrument:   "ETHUSDT",
		Strategy:     "FIB_RANGE(swing-pair)",
		Config:       []byte("risk:\n  risk_percent: 0.01\n"),
		RiskPct:      0.01,
		Start:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		End:          time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Ranges:       2,
		Trades:       4,
		Wins:         3,
		Losses:       1,
		WinRate:      0.75,
		StartBalance: 100000,
		EndBalance:   101000,
		NetPL:        1000,
		ReturnPct:    1,
		Notes:        []string{"choppy in March"},
	}

	s, err := run.Org()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s, "* BACKTEST: FIB_RANGE(swing-pair) ETHUSDT H1\n"))
	assert.Contains(t, s, ":RUN_ID:      R1")
	assert.Contains(t, s, ":START_DATE:  2025-01-01")
	assert.Contains(t, s, ":WIN_RATE:    75.00")
	assert.Contains(t, s, ":PROFIT_FAC:  (no losses)")
	assert.Contains(t, s, "| Risk per Trade % | 1.00 |")
	assert.Contains(t, s, "#+begin_src yaml\nrisk:\n  risk_percent: 0.01\n#+end_src")
	assert.Contains(t, s, "[2025-05-01 Thu 12:00]")
	assert.Contains(t, s, "- choppy in March")
	assert.Contains(t, s, "| Wins / Losses | 3 / 1 |")
	assert.Contains(t, s, "| P/L per trade | 250.00 |")
	assert.Contains(t, s, "| Trades/range  | 2.00 |")
	assert.Contains(t, s, ":DATASET:     ?")

	run.OrgPath = filepath.Join(t.TempDir(), "run.org")
	require.NoError(t, run.WriteBacktestOrg())
	data, err := os.ReadFile(run.OrgPath)
	require.NoError(t, err)
	assert.Equal(t, s, string(data))
}
