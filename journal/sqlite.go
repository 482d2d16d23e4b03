package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, run_id, instrument, side, units, entry_price, exit_price, stop_price, target_price,
		 open_time, close_time, bars_in_trade, realized_pl, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.RunID, t.Instrument, t.Side, t.Units, t.EntryPrice, t.ExitPrice,
		t.StopPrice, t.TargetPrice, t.OpenTime.UTC(), t.CloseTime.UTC(), t.BarsInTrade,
		t.RealizedPL, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, balance, equity, unrealized)
		VALUES (?, ?, ?, ?, ?)`,
		e.RunID, e.Time.UTC(), e.Balance, e.Equity, e.Unrealized,
	)
	return err
}

// RecordBacktest inserts or replaces the summary row of a run.
func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, instrument, timeframe, dataset, strategy, config, risk_pct,
		 start_time, end_time, bars, ranges, trades, wins, losses, start_balance, end_balance,
		 net_pl, return_pct, win_rate, profit_factor, max_dd_pct, org_path, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Instrument, r.Timeframe, r.Dataset, r.Strategy, r.Config,
		r.RiskPct, r.Start.UTC(), r.End.UTC(), r.Bars, r.Ranges, r.Trades, r.Wins, r.Losses,
		r.StartBalance, r.EndBalance, r.NetPL, r.ReturnPct, r.WinRate, r.ProfitFactor,
		r.MaxDDPct, r.OrgPath, joinNotes(r.Notes),
	)
	return err
}

func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	var (
		r     BacktestRun
		notes string
	)
	err := j.db.QueryRowContext(ctx, `
		SELECT run_id, created, instrument, timeframe, dataset, strategy, config, risk_pct,
		       start_time, end_time, bars, ranges, trades, wins, losses, start_balance, end_balance,
		       net_pl, return_pct, win_rate, profit_factor, max_dd_pct, org_path, notes
		FROM backtest_runs
		WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.Created, &r.Instrument, &r.Timeframe, &r.Dataset, &r.Strategy, &r.Config,
		&r.RiskPct, &r.Start, &r.End, &r.Bars, &r.Ranges, &r.Trades, &r.Wins, &r.Losses,
		&r.StartBalance, &r.EndBalance, &r.NetPL, &r.ReturnPct, &r.WinRate, &r.ProfitFactor,
		&r.MaxDDPct, &r.OrgPath, &notes,
	)
	if err == sql.ErrNoRows {
		return BacktestRun{}, fmt.Errorf("backtest run %q: %w", runID, ErrNotFound)
	}
	if err != nil {
		return BacktestRun{}, err
	}
	r.Notes = splitNotes(notes)
	return r, nil
}

// ExportBacktestOrg renders a stored run followed by its trades.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRun(ctx, runID)
	if err != nil {
		return "", err
	}
	s, err := r.Org()
	if err != nil {
		return "", err
	}
	if len(trades) > 0 {
		s += "\n** Trades\n\n" + FormatTradesOrg(trades)
	}
	return s, nil
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
