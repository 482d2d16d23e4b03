package backtest

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/fibrange/config"
	"github.com/rustyeddy/fibrange/journal"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/metrics"
	"github.com/rustyeddy/fibrange/strategy"
)

// Runner drives an engine from a candle feed using the settings of a
// loaded config.
type Runner struct {
	Config   *config.Config
	Strategy strategy.Strategy
	Journal  journal.Journal // optional
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

// OptionsFrom maps the account, risk and backtest sections onto engine
// options.
func OptionsFrom(cfg *config.Config) Options {
	return Options{
		Instrument:    cfg.Backtest.Instrument,
		StartBalance:  cfg.Account.Balance,
		Policy:        cfg.RiskPolicy(),
		CloseEnd:      cfg.Backtest.CloseEnd,
		IntrabarExits: !cfg.Exit.CloseBased,
	}
}

// Run drains feed, replays it and, when the journal is a SQLite journal,
// stores the run summary. The feed is closed on return.
func (r *Runner) Run(ctx context.Context, feed market.CandleFeed) (Result, error) {
	if r.Config == nil {
		return Result{}, fmt.Errorf("backtest: Config is required")
	}
	if feed == nil {
		return Result{}, fmt.Errorf("backtest: Feed is required")
	}
	if r.Strategy == nil {
		return Result{}, fmt.Errorf("backtest: Strategy is required")
	}
	defer feed.Close()

	bars, err := market.ReadAll(feed)
	if err != nil {
		return Result{}, fmt.Errorf("read candles: %w", err)
	}

	var opts []Option
	if r.Journal != nil {
		opts = append(opts, WithJournal(r.Journal))
	}
	if r.Metrics != nil {
		opts = append(opts, WithMetrics(r.Metrics))
	}
	if r.Log != nil {
		opts = append(opts, WithLogger(r.Log))
	}

	res, err := NewEngine(bars, r.Strategy, OptionsFrom(r.Config), opts...).Run(ctx)
	if err != nil {
		return res, err
	}

	run, err := r.Record(res)
	if err != nil {
		return res, err
	}
	run.OrgPath = r.Config.Backtest.OrgReport
	if db, ok := r.Journal.(*journal.SQLite); ok {
		if err := db.RecordBacktest(ctx, run); err != nil {
			return res, fmt.Errorf("record run: %w", err)
		}
	}
	if run.OrgPath != "" {
		if err := run.WriteBacktestOrg(); err != nil {
			return res, fmt.Errorf("org report: %w", err)
		}
	}
	return res, nil
}

// Record builds the run summary with the effective config attached.
func (r *Runner) Record(res Result) (journal.BacktestRun, error) {
	cfg, err := yaml.Marshal(r.Config)
	if err != nil {
		return journal.BacktestRun{}, err
	}
	run := res.Record(r.Config.Backtest.DataFile, r.Config.Risk.RiskPercent, cfg)
	if res.Rejected > 0 {
		run.Notes = append(run.Notes, fmt.Sprintf("%d entry signals rejected by sizing or policy", res.Rejected))
	}
	return run, nil
}
