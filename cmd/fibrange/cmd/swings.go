package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fibrange/config"
	"github.com/rustyeddy/fibrange/market"
	"github.com/rustyeddy/fibrange/swing"
)

var swingsCmd = &cobra.Command{
	Use:   "swings",
	Short: "List confirmed swing points of a candle CSV",
	Long: `Swings runs swing detection over a candle CSV and prints one line per
swing point.

Modes:
  online - causal detection with confirmation bars (what the strategy sees)
  batch  - centred-window detection with strict high/low alternation

Example:
  fibrange swings --data data/ethusdt-h1.csv --mode batch`,
	Args: cobra.NoArgs,
	RunE: runSwings,
}

var (
	swData string
	swMode string
	swFrom string
	swTo   string
)

func init() {
	rootCmd.AddCommand(swingsCmd)

	swingsCmd.Flags().StringVarP(&swData, "data", "d", "", "path to candle CSV (default backtest.data_file)")
	swingsCmd.Flags().StringVarP(&swMode, "mode", "m", "online", "detection mode (online, batch)")
	swingsCmd.Flags().StringVar(&swFrom, "from", "", "first bar time, RFC3339 inclusive")
	swingsCmd.Flags().StringVar(&swTo, "to", "", "end time, RFC3339 exclusive")
}

func runSwings(cmd *cobra.Command, args []string) error {
	cfg, bars, err := loadBars(swData, swFrom, swTo)
	if err != nil {
		return err
	}

	var s swing.Series
	switch swMode {
	case "online":
		s = swing.DetectOnline(bars, cfg.SwingOnline())
	case "batch":
		s = swing.DetectBatch(bars, cfg.SwingBatch())
	default:
		return fmt.Errorf("unknown mode %q (online, batch)", swMode)
	}

	out := cmd.OutOrStdout()
	points := s.Points()
	for _, p := range points {
		fmt.Fprintf(out, "%6d  %s  %-4s  %.5f\n", p.Index, p.Time.Format(time.RFC3339), p.Kind, p.Price)
	}
	fmt.Fprintf(out, "%d swings in %d bars (%s)\n", len(points), len(bars), swMode)
	return nil
}

// loadBars loads the config and the candles from path, or from the
// configured data file, over the given window.
func loadBars(path, from, to string) (*config.Config, []market.Candle, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if path != "" {
		cfg.Backtest.DataFile = path
	}
	if from != "" {
		cfg.Backtest.From = from
	}
	if to != "" {
		cfg.Backtest.To = to
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	bars, err := cfg.Backtest.LoadCandles()
	if err != nil {
		return nil, nil, err
	}
	return cfg, bars, nil
}
