package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "fibrange"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

// Prometheus backs Metrics with counters on a private registry.
type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
	counters map[string]prometheus.Counter
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		counters: make(map[string]prometheus.Counter),
	}
	p.Metrics = &Metrics{
		SwingsConfirmed: p.counter("swings_confirmed_total", "Total number of confirmed swing points."),
		RangesBuilt:     p.counter("ranges_built_total", "Total number of ranges built."),
		RangesConfirmed: p.counter("ranges_confirmed_total", "Total number of ranges confirmed into Trading."),
		RangesRebuilt:   p.counter("ranges_rebuilt_total", "Total number of Trading ranges rebuilt."),
		RangesBroken:    p.counter("ranges_broken_total", "Total number of ranges broken."),
		EntrySignals:    p.counter("entry_signals_total", "Total number of entry signals."),
		EntriesRejected: p.counter("entries_rejected_total", "Total number of entry signals rejected by sizing or policy."),
		TradesOpened:    p.counter("trades_opened_total", "Total number of positions opened."),
		ExitsStop:       p.counter("exits_stop_total", "Total number of stop loss exits."),
		ExitsTakeProfit: p.counter("exits_take_profit_total", "Total number of take profit exits."),
		ExitsRangeBreak: p.counter("exits_range_break_total", "Total number of range break exits."),
		ExitsTimeout:    p.counter("exits_timeout_total", "Total number of time based exits."),
		ExitsEndOfData:  p.counter("exits_end_of_data_total", "Total number of positions closed at the end of the data."),
		StopsWidened:    p.counter("stops_widened_total", "Total number of stops widened on range break."),
	}
	return p
}

func (p *Prometheus) counter(name, help string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	})
	p.registry.MustRegister(c)
	p.counters[name] = c
	return promCounter{c}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
