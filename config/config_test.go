package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fibrange/fib"
	"github.com/rustyeddy/fibrange/signal"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, 100000.0, cfg.Account.Balance)
	assert.Equal(t, 0.01, cfg.Risk.RiskPercent)
	assert.Equal(t, 100, cfg.Range.Warmup)
	assert.Equal(t, []int{10}, cfg.Swing.CandidateWindows)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"valid config", func(c *Config) {}, ""},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, "log.level"},
		{"missing currency", func(c *Config) { c.Account.Currency = "" }, "account.currency is required"},
		{"negative balance", func(c *Config) { c.Account.Balance = -1000 }, "account.balance must be positive"},
		{"no windows", func(c *Config) { c.Swing.CandidateWindows = nil }, "candidate window"},
		{"bad batch window", func(c *Config) { c.Swing.BatchWindow = 0 }, "batch window"},
		{"unknown builder", func(c *Config) { c.Range.Builder = "zigzag" }, "range.builder"},
		{"extrema without window", func(c *Config) {
			c.Range.Builder = "extrema"
			c.Range.ExtremaWindow = 0
		}, "range.extrema_window"},
		{"negative atr mult", func(c *Config) { c.Entry.BufferATRMult = -1 }, "entry.buffer_atr_mult"},
		{"atr mult without period", func(c *Config) {
			c.Entry.BufferATRMult = 1.5
			c.Entry.ATRPeriod = 0
		}, "entry.atr_period"},
		{"zero lookback", func(c *Config) { c.Range.Lookback = 0 }, "range.lookback"},
		{"negative max bars", func(c *Config) { c.Exit.MaxBarsInTrade = -1 }, "exit.max_bars_in_trade"},
		{"bad policy", func(c *Config) { c.Exit.OnRangeBreak = "hope" }, "exit.on_range_break"},
		{"invalid risk percent", func(c *Config) { c.Risk.RiskPercent = 1.5 }, "risk.risk_percent must be between 0 and 1"},
		{"bad from", func(c *Config) { c.Backtest.From = "yesterday" }, "backtest.from"},
		{"to before from", func(c *Config) {
			c.Backtest.From = "2024-03-02T00:00:00Z"
			c.Backtest.To = "2024-03-01T00:00:00Z"
		}, "backtest.to must be after"},
		{"csv journal without files", func(c *Config) { c.Journal.Type = "csv" }, "trades_file and equity_file"},
		{"sqlite without path", func(c *Config) { c.Journal.Type = "sqlite" }, "db_path"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "mongo" }, "journal.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"config.yaml", "config.yml", "config.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)

			cfg := Default()
			cfg.Exit.OnRangeBreak = "widen_stop"
			cfg.Exit.WidenStopTo = signal.Price(95)
			cfg.Swing.CandidateWindows = []int{5, 10}
			require.NoError(t, cfg.SaveToFile(path))

			loaded, err := LoadFromFile(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	yaml := `
account:
  currency: USD
  balance: 5000
exit:
  max_bars_in_trade: 0
journal:
  type: sqlite
  db_path: ./fib.db
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Account.Balance)
	assert.Equal(t, 0, cfg.Exit.MaxBarsInTrade)
	assert.True(t, cfg.Exit.CloseBased, "unset fields keep their defaults")
	assert.Equal(t, 20, cfg.Range.Lookback)
	assert.Equal(t, "sqlite", cfg.Journal.Type)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/config.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account:\n  balance: -1\n"), 0o644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestDerivedParams(t *testing.T) {
	cfg := Default()

	assert.Equal(t, fib.SwingPairBuilder{}, cfg.Builder())
	cfg.Range.Builder = "extrema"
	assert.Equal(t, fib.ExtremaBuilder{Window: 10}, cfg.Builder())

	ep := cfg.EntryParams()
	assert.Equal(t, 1.0, ep.SmallBuffer)
	assert.True(t, ep.EnterOnNextOpen)

	cfg.Exit.OnRangeBreak = "widen_stop"
	xp := cfg.ExitParams()
	assert.Equal(t, signal.WidenStop, xp.OnRangeBreak)
	assert.Equal(t, 48, xp.MaxBarsInTrade)

	on := cfg.SwingOnline()
	assert.Equal(t, 3, on.ConfirmationBars)
	assert.Equal(t, 10, cfg.SwingBatch().Window)

	assert.Equal(t, 0.01, cfg.RiskPolicy().RiskPct)
}

func TestBacktestWindow(t *testing.T) {
	b := BacktestConfig{From: "2024-03-29T00:00:00Z"}
	from, to, err := b.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 29, 0, 0, 0, 0, time.UTC), from)
	assert.True(t, to.IsZero())

	_, err = BacktestConfig{}.LoadCandles()
	assert.Error(t, err)
}
