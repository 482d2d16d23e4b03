package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders one trade as an org-mode subtree with an empty
// narrative skeleton for manual review.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Instrument, t.Side, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":ID: %s\n", t.TradeID)
	if t.RunID != "" {
		fmt.Fprintf(&b, ":RUN_ID: %s\n", t.RunID)
	}
	fmt.Fprintf(&b, ":INSTRUMENT: %s\n", t.Instrument)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":UNITS: %.0f\n", t.Units)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":STOP_PRICE: %.5f\n", t.StopPrice)
	fmt.Fprintf(&b, ":TARGET_PRICE: %.5f\n", t.TargetPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":BARS: %d\n", t.BarsInTrade)
	fmt.Fprintf(&b, ":REALIZED_PL: %.2f\n", t.RealizedPL)
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	b.WriteString(":END:\n\n")

	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")
	return b.String()
}

// FormatTradesOrg renders trades separated by a blank line.
func FormatTradesOrg(trades []TradeRecord) string {
	parts := make([]string, 0, len(trades))
	for _, t := range trades {
		parts = append(parts, FormatTradeOrg(t))
	}
	return strings.Join(parts, "\n\n")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
