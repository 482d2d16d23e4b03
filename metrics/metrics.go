package metrics

type Counter interface {
	Inc()
}

// Metrics counts strategy and execution events.
type Metrics struct {
	SwingsConfirmed Counter
	RangesBuilt     Counter
	RangesConfirmed Counter
	RangesRebuilt   Counter
	RangesBroken    Counter

	EntrySignals    Counter
	EntriesRejected Counter
	TradesOpened    Counter

	ExitsStop       Counter
	ExitsTakeProfit Counter
	ExitsRangeBreak Counter
	ExitsTimeout    Counter
	ExitsEndOfData  Counter
	StopsWidened    Counter
}

type noopCounter struct{}

func (noopCounter) Inc() {}

func NewNoop() *Metrics {
	n := noopCounter{}
	return &Metrics{
		SwingsConfirmed: n,
		RangesBuilt:     n,
		RangesConfirmed: n,
		RangesRebuilt:   n,
		RangesBroken:    n,
		EntrySignals:    n,
		EntriesRejected: n,
		TradesOpened:    n,
		ExitsStop:       n,
		ExitsTakeProfit: n,
		ExitsRangeBreak: n,
		ExitsTimeout:    n,
		ExitsEndOfData:  n,
		StopsWidened:    n,
	}
}
