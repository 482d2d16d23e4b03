package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID     string
	Created   time.Time
	Timeframe string
	Dataset   string

	Instrument string
	Strategy   string
	Config     []byte // effective config, YAML

	RiskPct float64 // 0.01 = 1%

	Start time.Time
	End   time.Time
	Bars  int

	// Results
	Ranges int
	Trades int
	Wins   int
	Losses int

	StartBalance float64
	EndBalance   float64

	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // 0..1
	ProfitFactor float64
	MaxDDPct     float64

	OrgPath string
	Notes   []string
}

var runOrg = template.Must(template.New("run").Funcs(template.FuncMap{
	"pct": func(x float64) string { return fmt.Sprintf("%.2f", x*100) },
	"pf": func(x float64) string {
		if x == 0 {
			return "(no losses)"
		}
		return fmt.Sprintf("%.2f", x)
	},
	"stamp": func(t time.Time) string {
		if t.IsZero() {
			t = time.Now()
		}
		return t.Format("2006-01-02 Mon 15:04")
	},
	"ratio": func(a, b int) float64 { return float64(a) / float64(b) },
	"perTrade": func(pl float64, n int) string {
		if n == 0 {
			return "-"
		}
		return fmt.Sprintf("%.2f", pl/float64(n))
	},
}).Parse(runOrgText))

// Org renders the run as an org-mode report.
func (v *BacktestRun) Org() (string, error) {
	var buf bytes.Buffer
	if err := runOrg.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteBacktestOrg writes the report to OrgPath.
func (v *BacktestRun) WriteBacktestOrg() error {
	s, err := v.Org()
	if err != nil {
		return err
	}
	return os.WriteFile(v.OrgPath, []byte(s), 0644)
}

const runOrgText = `* BACKTEST: {{.Strategy}} {{.Instrument}} {{or .Timeframe "?"}}
:PROPERTIES:
:RUN_ID:      {{.RunID}}
:STRATEGY:    {{.Strategy}}
:TIMEFRAME:   {{or .Timeframe "?"}}
:INSTRUMENT:  {{.Instrument}}
:DATASET:     {{or .Dataset "?"}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:RANGES:      {{.Ranges}}
:TRADES:      {{.Trades}}
:WIN_RATE:    {{pct .WinRate}}
:PROFIT_FAC:  {{pf .ProfitFactor}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:CREATED:     [{{stamp .Created}}]
:END:

** Account
| Start balance    | {{printf "%.2f" .StartBalance}} |
| End balance      | {{printf "%.2f" .EndBalance}} |
| Net P/L          | {{printf "%.2f" .NetPL}} |
| Risk per Trade % | {{pct .RiskPct}} |

** Ranges and Trades
| Ranges built  | {{.Ranges}} |
| Trades        | {{.Trades}} |
| Wins / Losses | {{.Wins}} / {{.Losses}} |
| P/L per trade | {{perTrade .NetPL .Trades}} |
| Trades/range  | {{if .Ranges}}{{printf "%.2f" (ratio .Trades .Ranges)}}{{else}}-{{end}} |
{{- if .Config}}

** Settings
#+begin_src yaml
{{printf "%s" .Config}}#+end_src
{{- end}}
{{- if .Notes}}

** Observations
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
`
