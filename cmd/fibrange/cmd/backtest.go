package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/fibrange/backtest"
	"github.com/rustyeddy/fibrange/journal"
	"github.com/rustyeddy/fibrange/logging"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/metrics"
	"github.com/rustyeddy/fibrange/strategy"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest the range strategy over a candle CSV",
	Long: `Backtest replays a candle CSV (time,open,high,low,close[,volume]) through
the strategy, sizing each entry by the risk settings, and prints a summary.

Supported strategies:
  - fib-range: Fibonacci range strategy (default)
  - noop:      Records bars and never trades (baseline)

Flags override the matching config values.

Example:
  fibrange backtest --data data/ethusdt-h1.csv --db backtest.sqlite --org run.org`,
	Args: cobra.NoArgs,
	RunE: runBacktest,
}

var (
	btData        string
	btFrom        string
	btTo          string
	btInstrument  string
	btStrategy    string
	btBalance     float64
	btRiskPct     float64
	btDBPath      string
	btOrgPath     string
	btMetricsAddr string
	btCloseEnd    bool
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	f := backtestCmd.Flags()
	f.StringVarP(&btData, "data", "d", "", "path to candle CSV (default backtest.data_file)")
	f.StringVar(&btFrom, "from", "", "first bar time, RFC3339 inclusive")
	f.StringVar(&btTo, "to", "", "end time, RFC3339 exclusive")
	f.StringVarP(&btInstrument, "instrument", "i", "", "instrument name for the journal")
	f.StringVarP(&btStrategy, "strategy", "s", "fib-range", "strategy name (fib-range, noop)")
	f.Float64VarP(&btBalance, "balance", "b", 0, "starting balance (default account.balance)")
	f.Float64Var(&btRiskPct, "risk", 0, "risk per trade, 0.01 = 1% (default risk.risk_percent)")
	f.StringVar(&btDBPath, "db", "", "SQLite journal path; implies journal.type sqlite")
	f.StringVar(&btOrgPath, "org", "", "write an org-mode run report to this path")
	f.StringVar(&btMetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address while running")
	f.BoolVar(&btCloseEnd, "close-end", true, "close an open position on the last bar")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	fl := cmd.Flags()
	if btData != "" {
		cfg.Backtest.DataFile = btData
	}
	if btFrom != "" {
		cfg.Backtest.From = btFrom
	}
	if btTo != "" {
		cfg.Backtest.To = btTo
	}
	if btInstrument != "" {
		cfg.Backtest.Instrument = btInstrument
	}
	if btBalance > 0 {
		cfg.Account.Balance = btBalance
	}
	if btRiskPct > 0 {
		cfg.Risk.RiskPercent = btRiskPct
	}
	if btDBPath != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = btDBPath
	}
	if btOrgPath != "" {
		cfg.Backtest.OrgReport = btOrgPath
	}
	if btMetricsAddr != "" {
		cfg.Metrics.Addr = btMetricsAddr
	}
	if fl.Changed("close-end") {
		cfg.Backtest.CloseEnd = btCloseEnd
	}
	if cfg.Backtest.DataFile == "" {
		return fmt.Errorf("no data file: pass --data or set backtest.data_file")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log := logging.New(cfg.Log)
	defer func() { _ = log.Sync() }()

	prom := metrics.NewPrometheus()
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, prom, log)
		defer stop()
	}

	j, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	strat, err := strategy.ByName(btStrategy, cfg, strategy.WithLogger(log), strategy.WithMetrics(prom.Metrics))
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	from, to, err := cfg.Backtest.Window()
	if err != nil {
		return err
	}
	feed, err := market.NewCSVCandleFeed(cfg.Backtest.DataFile, from, to)
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running backtest with strategy: %s\n", strat.Name())
	fmt.Fprintf(out, "  Data:    %s\n", cfg.Backtest.DataFile)
	fmt.Fprintf(out, "  Journal: %s\n\n", journalLabel(cfg.Journal.Type, cfg.Journal.DBPath))

	r := &backtest.Runner{Config: cfg, Strategy: strat, Journal: j, Metrics: prom.Metrics, Log: log}
	res, err := r.Run(cmd.Context(), feed)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printResult(cmd, res)
	if cfg.Backtest.OrgReport != "" {
		fmt.Fprintf(out, "  Report:        %s\n", cfg.Backtest.OrgReport)
	}
	return nil
}

func printResult(cmd *cobra.Command, res backtest.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Backtest Complete!\n")
	fmt.Fprintf(out, "  Run:           %s\n", res.RunID)
	fmt.Fprintf(out, "  Bars:          %d (%s, %s .. %s)\n", res.Bars, res.Timeframe,
		res.Start.Format(time.RFC3339), res.End.Format(time.RFC3339))
	fmt.Fprintf(out, "  Ranges built:  %d\n", res.Ranges)
	fmt.Fprintf(out, "  Trades:        %d (wins %d, losses %d, rejected %d)\n", len(res.Trades), res.Wins, res.Losses, res.Rejected)
	fmt.Fprintf(out, "  Win rate:      %.2f%%\n", res.WinRate*100)
	fmt.Fprintf(out, "  Profit factor: %.2f\n", res.ProfitFactor)
	fmt.Fprintf(out, "  Net P/L:       %.2f (%.2f%%)\n", res.NetPL, res.ReturnPct)
	fmt.Fprintf(out, "  Max drawdown:  %.2f%%\n", res.MaxDDPct)
	fmt.Fprintf(out, "  Balance:       %.2f -> %.2f\n", res.StartBalance, res.EndBalance)
}

func journalLabel(typ, path string) string {
	if typ == "sqlite" {
		return "sqlite " + path
	}
	return typ
}

// serveMetrics exposes the registry until the returned stop func runs.
func serveMetrics(addr string, prom *metrics.Prometheus, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prom.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("metrics endpoint", zap.String("url", "http://"+addr+"/metrics"))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
