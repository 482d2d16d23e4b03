package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fibrange/config"
)

var rootCmd = &cobra.Command{
	Use:   "fibrange",
	Short: "Fibonacci range swing signals and backtests",
	Long: `Fibrange detects swing points in OHLC bar series, builds directional
Fibonacci ranges from them, tracks each range through Idle, Trading and
Broken, and turns the active range into entry and exit signals.

It provides tools for:
  - Listing confirmed swing points (batch or online detection)
  - Tracing range construction, confirmation, rebuilds and breaks
  - Backtesting the range strategy with risk-based position sizing
  - Querying the trade journal and exporting org-mode reports`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file, YAML or JSON (default: built-in defaults)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")
}

// loadConfig returns the config file named by --config, or the defaults,
// with --log-level applied. Callers validate after their own overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}
