package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/fibrange/fib"
	"github.com/rustyeddy/fibrange/strategy"
)

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "Trace range construction and state changes over a candle CSV",
	Long: `Ranges replays a candle CSV bar by bar the way the strategy does: swings
are confirmed online, a range is built when none is active, and the state
machine reports confirmations, rebuilds and breaks. A broken range is
dropped and the next one waits for a newer swing pair.

Example:
  fibrange ranges --data data/ethusdt-h1.csv --levels`,
	Args: cobra.NoArgs,
	RunE: runRanges,
}

var (
	rgData   string
	rgFrom   string
	rgTo     string
	rgLevels bool
)

func init() {
	rootCmd.AddCommand(rangesCmd)

	rangesCmd.Flags().StringVarP(&rgData, "data", "d", "", "path to candle CSV (default backtest.data_file)")
	rangesCmd.Flags().StringVar(&rgFrom, "from", "", "first bar time, RFC3339 inclusive")
	rangesCmd.Flags().StringVar(&rgTo, "to", "", "end time, RFC3339 exclusive")
	rangesCmd.Flags().BoolVar(&rgLevels, "levels", false, "print all seven levels for each built range")
}

func runRanges(cmd *cobra.Command, args []string) error {
	cfg, bars, err := loadBars(rgData, rgFrom, rgTo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	builder := cfg.Builder()
	f := strategy.NewFibRange(strategy.ConfigFrom(cfg), builder)
	s := f.NewSession()

	counts := map[string]int{}
	for _, c := range bars {
		st := f.Advance(s, c)
		switch {
		case st.Built:
			counts["built"]++
			printRange(out, st.Index, "built", *s.Range)
			if rgLevels {
				printLevels(out, s.Range.Levels)
			}
		case st.Event.Kind != fib.EventNone:
			counts[st.Event.Kind.String()]++
			printRange(out, st.Index, st.Event.Kind.String(), st.Event.Range)
		}
	}

	fmt.Fprintf(out, "%d bars, %d swings (%s): built %d, confirmed %d, rebuilt %d, broken %d\n",
		len(bars), len(s.Swings), builder.Name(), counts["built"], counts["confirmed"], counts["rebuilt"], counts["broken"])
	return nil
}

func printRange(w io.Writer, i int, what string, r fib.Range) {
	ts := r.UpdatedAt
	if ts.IsZero() {
		ts = r.GeneratedAt
	}
	fmt.Fprintf(w, "%6d  %s  %-9s  %s\n", i, ts.Format(time.RFC3339), what, r)
}

func printLevels(w io.Writer, l fib.Levels) {
	for _, ratio := range fib.Ratios() {
		fmt.Fprintf(w, "          %6s  %.5f\n", ratio, l.At(ratio))
	}
}
