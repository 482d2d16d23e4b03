package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fibrange/fib"
)

func TestDecideExit_Ladder(t *testing.T) {
	r := tradingRange(t)
	p := DefaultExitParams()
	p.MaxBarsInTrade = 10

	tests := []struct {
		name   string
		side   Side
		close  float64
		bars   int
		state  fib.State
		reason ExitReason
		exit   bool
	}{
		{"long stop beats range break", Long, 97, 1, fib.Broken, ReasonStop, true},
		{"long take profit", Long, 110.5, 1, fib.Trading, ReasonTakeProfit, true},
		{"long at target holds", Long, 110, 1, fib.Trading, ReasonNone, false},
		{"long break flag", Long, 105, 1, fib.Broken, ReasonRangeBreak, true},
		{"long break by level", Long, 98, 1, fib.Trading, ReasonRangeBreak, true},
		{"long timeout", Long, 105, 10, fib.Trading, ReasonTimeout, true},
		{"long hold", Long, 105, 9, fib.Trading, ReasonNone, false},
		{"short stop", Short, 113, 1, fib.Trading, ReasonStop, true},
		{"short take profit", Short, 99.5, 1, fib.Trading, ReasonTakeProfit, true},
		{"short break by level", Short, 112, 1, fib.Trading, ReasonRangeBreak, true},
		{"short timeout", Short, 105, 12, fib.Trading, ReasonTimeout, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := DecideExit(tt.side, Quote{Close: tt.close}, r, tt.bars, tt.state, p)
			assert.Equal(t, tt.reason, d.Reason)
			assert.Equal(t, tt.exit, d.ShouldExit)
			if tt.exit {
				require.NotNil(t, d.ExitPrice)
				assert.Equal(t, tt.close, *d.ExitPrice)
			} else {
				assert.Nil(t, d.ExitPrice)
			}
			assert.Nil(t, d.NewStop)
		})
	}
}

func TestDecideExit_Meta(t *testing.T) {
	r := tradingRange(t)
	p := DefaultExitParams()
	p.SmallBuffer = 0.25

	d := DecideExit(Long, Quote{Close: 105}, r, 1, fib.Broken, p)
	assert.InDelta(t, 97.75, d.Meta["stop_level"], 1e-9)
	assert.Equal(t, 110.0, d.Meta["tp_level"])
	assert.Equal(t, true, d.Meta["range_broken_flag"])
	assert.Equal(t, false, d.Meta["range_break_by_levels"])

	p.MaxBarsInTrade = 2
	d = DecideExit(Long, Quote{Close: 105}, r, 3, fib.Trading, p)
	assert.Equal(t, ReasonTimeout, d.Reason)
	assert.Equal(t, 3, d.Meta["bars_in_trade"])
}

func TestDecideExit_NextOpenHint(t *testing.T) {
	r := tradingRange(t)
	q := Quote{Close: 111, NextOpen: Price(111.4)}

	d := DecideExit(Long, q, r, 1, fib.Trading, DefaultExitParams())
	require.True(t, d.ShouldExit)
	assert.Equal(t, 111.4, *d.ExitPrice)

	p := DefaultExitParams()
	p.ExitOnNextOpen = false
	d = DecideExit(Long, q, r, 1, fib.Trading, p)
	assert.Equal(t, 111.0, *d.ExitPrice)
}

func TestDecideExit_WidenStop(t *testing.T) {
	r := tradingRange(t)
	p := DefaultExitParams()
	p.OnRangeBreak = WidenStop

	d := DecideExit(Long, Quote{Close: 104}, r, 1, fib.Broken, p)
	assert.False(t, d.ShouldExit)
	assert.Equal(t, ReasonRangeBreak, d.Reason)
	require.NotNil(t, d.NewStop)
	assert.InDelta(t, 98, *d.NewStop, 1e-9)
	assert.Nil(t, d.ExitPrice)

	d = DecideExit(Short, Quote{Close: 104}, r, 1, fib.Broken, p)
	assert.InDelta(t, 112, *d.NewStop, 1e-9)

	p.WidenStopTo = Price(95)
	d = DecideExit(Long, Quote{Close: 104}, r, 1, fib.Broken, p)
	assert.Equal(t, 95.0, *d.NewStop)
}

func TestDecideExit_NotCloseBased(t *testing.T) {
	r := tradingRange(t)
	p := DefaultExitParams()
	p.CloseBased = false
	p.MaxBarsInTrade = 0

	// Through the stop and the outer level: only the range break fires.
	d := DecideExit(Long, Quote{Close: 97}, r, 100, fib.Trading, p)
	assert.Equal(t, ReasonRangeBreak, d.Reason)

	d = DecideExit(Long, Quote{Close: 111}, r, 100, fib.Trading, p)
	assert.Equal(t, ReasonNone, d.Reason)
	assert.Contains(t, d.Meta, "tp_level")
}

func TestParseBreakPolicy(t *testing.T) {
	for _, p := range []BreakPolicy{CloseNow, WidenStop} {
		got, err := ParseBreakPolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}
	got, err := ParseBreakPolicy("")
	require.NoError(t, err)
	assert.Equal(t, CloseNow, got)

	_, err = ParseBreakPolicy("panic")
	assert.Error(t, err)
}

func TestStringers(t *testing.T) {
	assert.Equal(t, "long", Long.String())
	assert.Equal(t, "short", Short.String())
	assert.Equal(t, "stop_loss", ReasonStop.String())
	assert.Equal(t, "time_based", ReasonTimeout.String())
}
