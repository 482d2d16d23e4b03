package swing

import (
	"fmt"

	"github.com/rustyeddy/fibrange/market"
)

// OnlineConfig configures the causal detector.
type OnlineConfig struct {
	// CandidateWindows are the trailing window sizes N. Each is evaluated
	// independently; when several classify the same bar the last one wins.
	CandidateWindows []int

	// ConfirmationBars is the number of bars that must close after a
	// candidate before it is accepted.
	ConfirmationBars int

	// MinMoveThresholdPct filters flat windows: (max-min)/min*100 over the
	// candidate window must be at least this value.
	MinMoveThresholdPct float64

	// MinBarsBetweenSwings is the minimum distance between two swings
	// accepted by the same window.
	MinBarsBetweenSwings int
}

func DefaultOnlineConfig() OnlineConfig {
	return OnlineConfig{
		CandidateWindows: []int{10},
		ConfirmationBars: 3,
	}
}

func (c OnlineConfig) Validate() error {
	if len(c.CandidateWindows) == 0 {
		return fmt.Errorf("swing: at least one candidate window is required")
	}
	for _, n := range c.CandidateWindows {
		if n < 1 {
			return fmt.Errorf("swing: candidate window must be >= 1, got %d", n)
		}
	}
	if c.ConfirmationBars < 0 {
		return fmt.Errorf("swing: confirmation bars must be >= 0, got %d", c.ConfirmationBars)
	}
	if c.MinMoveThresholdPct < 0 {
		return fmt.Errorf("swing: min move threshold must be >= 0, got %v", c.MinMoveThresholdPct)
	}
	if c.MinBarsBetweenSwings < 0 {
		return fmt.Errorf("swing: min bars between swings must be >= 0, got %d", c.MinBarsBetweenSwings)
	}
	return nil
}

// Tracker is the streaming form of the online detector. Each pushed bar
// settles at most one earlier bar, ConfirmationBars back, and a settled
// bar is never revisited.
type Tracker struct {
	cfg  OnlineConfig
	keep int

	buf   []market.Candle // trailing bars, buf[0] has stream index base
	base  int
	count int

	lastByWindow []int
}

// NewTracker panics if cfg is invalid.
func NewTracker(cfg OnlineConfig) *Tracker {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	maxN := 0
	for _, n := range cfg.CandidateWindows {
		if n > maxN {
			maxN = n
		}
	}
	t := &Tracker{
		cfg:  cfg,
		keep: maxN + cfg.ConfirmationBars + 1,
	}
	t.Reset()
	return t
}

func (t *Tracker) Name() string {
	return fmt.Sprintf("Swing(%v,%d)", t.cfg.CandidateWindows, t.cfg.ConfirmationBars)
}

// Warmup is the number of bars pushed before the first bar can settle.
func (t *Tracker) Warmup() int {
	return t.keep
}

func (t *Tracker) Reset() {
	t.buf = make([]market.Candle, 0, 2*t.keep)
	t.base = 0
	t.count = 0
	t.lastByWindow = make([]int, len(t.cfg.CandidateWindows))
	for i := range t.lastByWindow {
		t.lastByWindow[i] = -1
	}
}

// Count is the number of bars pushed so far.
func (t *Tracker) Count() int {
	return t.count
}

// Push adds the next closed bar and reports the swing it confirms, if any.
// The returned point's Index is the stream position of the swing bar.
func (t *Tracker) Push(c market.Candle) (Point, bool) {
	i := t.count
	t.count++
	t.buf = append(t.buf, c)
	if len(t.buf) > t.keep {
		drop := len(t.buf) - t.keep
		t.buf = append(t.buf[:0], t.buf[drop:]...)
		t.base += drop
	}

	idx := i - t.cfg.ConfirmationBars
	if idx < 0 {
		return Point{}, false
	}

	var (
		kind  Kind
		found bool
	)
	for w, n := range t.cfg.CandidateWindows {
		if idx-n < 0 {
			continue
		}
		k, ok := t.classify(idx, i, n)
		if !ok {
			continue
		}
		if last := t.lastByWindow[w]; last >= 0 && idx-last < t.cfg.MinBarsBetweenSwings {
			continue
		}
		t.lastByWindow[w] = idx
		kind, found = k, true
	}
	if !found {
		return Point{}, false
	}

	bar := t.at(idx)
	return Point{Index: idx, Time: bar.Time, Kind: kind, Price: levelOf(bar, kind)}, true
}

func (t *Tracker) at(j int) market.Candle {
	return t.buf[j-t.base]
}

// classify tests bar idx against the trailing window [idx-n, idx] and the
// confirmation closes (idx, i].
func (t *Tracker) classify(idx, i, n int) (Kind, bool) {
	px := t.at(idx).Close
	max, min := px, px
	for j := idx - n; j < idx; j++ {
		cl := t.at(j).Close
		if cl > max {
			max = cl
		}
		if cl < min {
			min = cl
		}
	}

	if thr := t.cfg.MinMoveThresholdPct; thr > 0 {
		if min <= 0 || (max-min)/min*100 < thr {
			return 0, false
		}
	}

	if px == max && t.confirmed(idx, i, func(cl float64) bool { return cl < px }) {
		return High, true
	}
	if px == min && t.confirmed(idx, i, func(cl float64) bool { return cl > px }) {
		return Low, true
	}
	return 0, false
}

func (t *Tracker) confirmed(idx, i int, ok func(float64) bool) bool {
	for j := idx + 1; j <= i; j++ {
		if !ok(t.at(j).Close) {
			return false
		}
	}
	return true
}

// DetectOnline runs the causal detector over bars. It is a replay of a
// Tracker, so running it over a longer prefix-identical series never
// changes the swings it reported for the shorter one.
func DetectOnline(bars []market.Candle, cfg OnlineConfig) Series {
	s := newSeries(bars)
	tr := NewTracker(cfg)
	for _, c := range bars {
		if p, ok := tr.Push(c); ok {
			s.set(p.Index, p.Kind, p.Price)
		}
	}
	return s
}
