package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fibrange/fib"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/risk"
	"github.com/rustyeddy/fibrange/signal"
	"github.com/rustyeddy/fibrange/swing"
)

// Config is the complete run configuration.
type Config struct {
	Log      LogConfig      `json:"log" yaml:"log"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Swing    SwingConfig    `json:"swing" yaml:"swing"`
	Range    RangeConfig    `json:"range" yaml:"range"`
	Entry    EntryConfig    `json:"entry" yaml:"entry"`
	Exit     ExitConfig     `json:"exit" yaml:"exit"`
	Risk     RiskConfig     `json:"risk" yaml:"risk"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics"`
}

type LogConfig struct {
	Level    string `json:"level" yaml:"level"`       // debug, info, warn, error
	Encoding string `json:"encoding" yaml:"encoding"` // json or console
}

type AccountConfig struct {
	ID       string  `json:"id" yaml:"id"`
	Currency string  `json:"currency" yaml:"currency"`
	Balance  float64 `json:"balance" yaml:"balance"`
}

// SwingConfig holds both detectors. The strategy always uses the online
// detector; the batch settings serve the swings command.
type SwingConfig struct {
	CandidateWindows     []int   `json:"candidate_windows" yaml:"candidate_windows"`
	ConfirmationBars     int     `json:"confirmation_bars" yaml:"confirmation_bars"`
	MinMoveThresholdPct  float64 `json:"min_move_threshold_pct" yaml:"min_move_threshold_pct"`
	MinBarsBetweenSwings int     `json:"min_bars_between_swings" yaml:"min_bars_between_swings"`

	BatchWindow     int  `json:"batch_window" yaml:"batch_window"`
	BoundaryAnchors bool `json:"boundary_anchors" yaml:"boundary_anchors"`
}

type RangeConfig struct {
	Builder       string `json:"builder" yaml:"builder"` // swing_pair or extrema
	ExtremaWindow int    `json:"extrema_window,omitempty" yaml:"extrema_window,omitempty"`
	Lookback      int    `json:"lookback" yaml:"lookback"`
	Warmup        int    `json:"warmup" yaml:"warmup"`
}

type EntryConfig struct {
	SmallBuffer     float64 `json:"small_buffer" yaml:"small_buffer"`
	UseLimit        bool    `json:"use_limit" yaml:"use_limit"`
	EnterOnNextOpen bool    `json:"enter_on_next_open" yaml:"enter_on_next_open"`
	ConfirmMomentum bool    `json:"confirm_momentum" yaml:"confirm_momentum"`
	MinMomentumPct  float64 `json:"min_momentum_pct" yaml:"min_momentum_pct"`

	// BufferATRMult > 0 scales both buffers with ATR(ATRPeriod).
	BufferATRMult float64 `json:"buffer_atr_mult" yaml:"buffer_atr_mult"`
	ATRPeriod     int     `json:"atr_period" yaml:"atr_period"`
}

type ExitConfig struct {
	CloseBased     bool     `json:"close_based" yaml:"close_based"`
	ExitOnNextOpen bool     `json:"exit_on_next_open" yaml:"exit_on_next_open"`
	MaxBarsInTrade int      `json:"max_bars_in_trade" yaml:"max_bars_in_trade"` // 0 disables
	SmallBuffer    float64  `json:"small_buffer" yaml:"small_buffer"`
	OnRangeBreak   string   `json:"on_range_break" yaml:"on_range_break"` // close_now or widen_stop
	WidenStopTo    *float64 `json:"widen_stop_to,omitempty" yaml:"widen_stop_to,omitempty"`
}

type RiskConfig struct {
	RiskPercent         float64 `json:"risk_percent" yaml:"risk_percent"`
	MaxRiskPercent      float64 `json:"max_risk_percent" yaml:"max_risk_percent"`
	MinRR               float64 `json:"min_rr" yaml:"min_rr"`
	MaxDailyLossPercent float64 `json:"max_daily_loss_percent" yaml:"max_daily_loss_percent"`
}

type BacktestConfig struct {
	Instrument string `json:"instrument" yaml:"instrument"`
	DataFile   string `json:"data_file" yaml:"data_file"`
	From       string `json:"from,omitempty" yaml:"from,omitempty"` // RFC3339
	To         string `json:"to,omitempty" yaml:"to,omitempty"`
	CloseEnd   bool   `json:"close_end" yaml:"close_end"`
	OrgReport  string `json:"org_report,omitempty" yaml:"org_report,omitempty"`
}

// JournalConfig contains journaling parameters
type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	TradesFile string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	EquityFile string `json:"equity_file,omitempty" yaml:"equity_file,omitempty"`
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type MetricsConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"` // e.g. ":9100"; empty disables
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		cfg = Default()
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes YAML for .yaml/.yml paths and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.Balance <= 0 {
		return fmt.Errorf("account.balance must be positive")
	}
	if err := c.SwingOnline().Validate(); err != nil {
		return fmt.Errorf("swing: %w", err)
	}
	if err := c.SwingBatch().Validate(); err != nil {
		return fmt.Errorf("swing: %w", err)
	}
	switch c.Range.Builder {
	case "swing_pair":
	case "extrema":
		if c.Range.ExtremaWindow < 1 {
			return fmt.Errorf("range.extrema_window must be >= 1 for the extrema builder")
		}
	default:
		return fmt.Errorf("range.builder must be 'swing_pair' or 'extrema'")
	}
	if c.Range.Lookback < 1 {
		return fmt.Errorf("range.lookback must be >= 1")
	}
	if c.Range.Warmup < 0 {
		return fmt.Errorf("range.warmup must not be negative")
	}
	if c.Entry.MinMomentumPct < 0 {
		return fmt.Errorf("entry.min_momentum_pct must not be negative")
	}
	if c.Entry.BufferATRMult < 0 {
		return fmt.Errorf("entry.buffer_atr_mult must not be negative")
	}
	if c.Entry.BufferATRMult > 0 && c.Entry.ATRPeriod < 1 {
		return fmt.Errorf("entry.atr_period must be >= 1 when entry.buffer_atr_mult is set")
	}
	if c.Exit.MaxBarsInTrade < 0 {
		return fmt.Errorf("exit.max_bars_in_trade must not be negative")
	}
	if _, err := signal.ParseBreakPolicy(c.Exit.OnRangeBreak); err != nil {
		return fmt.Errorf("exit.on_range_break: %w", err)
	}
	if c.Risk.RiskPercent <= 0 || c.Risk.RiskPercent > 1 {
		return fmt.Errorf("risk.risk_percent must be between 0 and 1")
	}
	if c.Risk.MaxRiskPercent < 0 || c.Risk.MaxRiskPercent > 1 {
		return fmt.Errorf("risk.max_risk_percent must be between 0 and 1")
	}
	if _, _, err := c.Backtest.Window(); err != nil {
		return err
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Encoding: "json"},
		Account: AccountConfig{
			ID:       "BT-001",
			Currency: "USDT",
			Balance:  100000,
		},
		Swing: SwingConfig{
			CandidateWindows: []int{10},
			ConfirmationBars: 3,
			BatchWindow:      10,
		},
		Range: RangeConfig{
			Builder:       "swing_pair",
			ExtremaWindow: 10,
			Lookback:      20,
			Warmup:        100,
		},
		Entry: EntryConfig{
			SmallBuffer:     1.0,
			EnterOnNextOpen: true,
			ATRPeriod:       14,
		},
		Exit: ExitConfig{
			CloseBased:     true,
			ExitOnNextOpen: true,
			MaxBarsInTrade: 48,
			OnRangeBreak:   "close_now",
		},
		Risk: RiskConfig{
			RiskPercent:    0.01,
			MaxRiskPercent: 0.02,
		},
		Backtest: BacktestConfig{
			Instrument: "ETHUSDT",
			CloseEnd:   true,
		},
		Journal: JournalConfig{Type: "none"},
	}
}

func (c *Config) SwingOnline() swing.OnlineConfig {
	return swing.OnlineConfig{
		CandidateWindows:     c.Swing.CandidateWindows,
		ConfirmationBars:     c.Swing.ConfirmationBars,
		MinMoveThresholdPct:  c.Swing.MinMoveThresholdPct,
		MinBarsBetweenSwings: c.Swing.MinBarsBetweenSwings,
	}
}

func (c *Config) SwingBatch() swing.BatchConfig {
	return swing.BatchConfig{Window: c.Swing.BatchWindow, BoundaryAnchors: c.Swing.BoundaryAnchors}
}

// Builder returns the configured range construction strategy.
func (c *Config) Builder() fib.Builder {
	if c.Range.Builder == "extrema" {
		return fib.ExtremaBuilder{Window: c.Range.ExtremaWindow}
	}
	return fib.SwingPairBuilder{}
}

func (c *Config) EntryParams() signal.EntryParams {
	return signal.EntryParams{
		SmallBuffer:     c.Entry.SmallBuffer,
		UseLimit:        c.Entry.UseLimit,
		EnterOnNextOpen: c.Entry.EnterOnNextOpen,
		ConfirmMomentum: c.Entry.ConfirmMomentum,
		MinMomentumPct:  c.Entry.MinMomentumPct,
	}
}

// ExitParams assumes Validate has accepted the break policy.
func (c *Config) ExitParams() signal.ExitParams {
	policy, _ := signal.ParseBreakPolicy(c.Exit.OnRangeBreak)
	return signal.ExitParams{
		CloseBased:     c.Exit.CloseBased,
		ExitOnNextOpen: c.Exit.ExitOnNextOpen,
		MaxBarsInTrade: c.Exit.MaxBarsInTrade,
		SmallBuffer:    c.Exit.SmallBuffer,
		OnRangeBreak:   policy,
		WidenStopTo:    c.Exit.WidenStopTo,
	}
}

func (c *Config) RiskPolicy() risk.Policy {
	return risk.Policy{
		RiskPct:         c.Risk.RiskPercent,
		MaxRiskPct:      c.Risk.MaxRiskPercent,
		MinRR:           c.Risk.MinRR,
		MaxDailyLossPct: c.Risk.MaxDailyLossPercent,
	}
}

// Window parses From and To. Zero times mean unbounded.
func (b BacktestConfig) Window() (from, to time.Time, err error) {
	if b.From != "" {
		if from, err = time.Parse(time.RFC3339, b.From); err != nil {
			return from, to, fmt.Errorf("backtest.from: %w", err)
		}
	}
	if b.To != "" {
		if to, err = time.Parse(time.RFC3339, b.To); err != nil {
			return from, to, fmt.Errorf("backtest.to: %w", err)
		}
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return from, to, fmt.Errorf("backtest.to must be after backtest.from")
	}
	return from, to, nil
}

// LoadCandles reads the backtest data file over the configured window.
func (b BacktestConfig) LoadCandles() ([]market.Candle, error) {
	if b.DataFile == "" {
		return nil, fmt.Errorf("backtest.data_file is required")
	}
	from, to, err := b.Window()
	if err != nil {
		return nil, err
	}
	return market.LoadCandlesCSV(b.DataFile, from, to)
}
