// Package signal turns an active range and the latest close into entry
// signals and exit decisions.
package signal

// Side is the direction of a position.
type Side int

const (
	Long Side = iota
	Short
)

func (s Side) String() string {
	if s == Short {
		return "short"
	}
	return "long"
}

// Quote is the price context for one decision. NextOpen is the open of
// the bar after the decision bar and is only known when replaying
// history. PrevClose is the close of the bar before.
type Quote struct {
	Close     float64
	NextOpen  *float64
	PrevClose *float64
}

// Price returns a pointer to v, for filling optional fields.
func Price(v float64) *float64 {
	return &v
}

// hint is the next open when allowed and known, else the close.
func (q Quote) hint(useNextOpen bool) float64 {
	if useNextOpen && q.NextOpen != nil {
		return *q.NextOpen
	}
	return q.Close
}
