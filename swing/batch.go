package swing

import (
	"fmt"

	"github.com/rustyeddy/fibrange/market"
)

// BatchConfig configures DetectBatch.
type BatchConfig struct {
	// Window is the half-width w. A bar needs w-1 bars before it and w
	// bars after it to be a candidate.
	Window int

	// BoundaryAnchors places an opposite-kind swing on the first and last
	// bar of the series so the output starts and ends with an anchor.
	// Detected swings keep their kind and level, and the output still
	// alternates.
	BoundaryAnchors bool
}

func (c BatchConfig) Validate() error {
	if c.Window < 1 {
		return fmt.Errorf("swing: batch window must be >= 1, got %d", c.Window)
	}
	return nil
}

// DetectBatch scans a closed series. It looks w bars into the future so it
// must not be used on a live, still growing series.
//
// Candidates are pruned to strict High/Low alternation: in a run of
// consecutive same-kind candidates only the most extreme survives (the
// earliest one on ties).
func DetectBatch(bars []market.Candle, cfg BatchConfig) Series {
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	s := newSeries(bars)
	w := cfg.Window
	n := len(bars)

	var kept []int
	for i := w - 1; i+w < n; i++ {
		k, ok := batchCandidate(bars, i, w)
		if !ok {
			continue
		}
		if len(kept) > 0 {
			last := kept[len(kept)-1]
			if Kind(s.HighLow[last]) == k {
				if !moreExtreme(k, levelOf(bars[i], k), s.Level[last]) {
					continue
				}
				s.clear(last)
				kept = kept[:len(kept)-1]
			}
		}
		s.set(i, k, levelOf(bars[i], k))
		kept = append(kept, i)
	}

	if cfg.BoundaryAnchors && len(kept) > 0 {
		if first := kept[0]; first != 0 {
			k := Kind(s.HighLow[first]).Opposite()
			s.set(0, k, levelOf(bars[0], k))
		}
		if last := kept[len(kept)-1]; last != n-1 {
			k := Kind(s.HighLow[last]).Opposite()
			s.set(n-1, k, levelOf(bars[n-1], k))
		}
	}
	return s
}

// batchCandidate classifies bar i against the window [i-w+1, i+w].
// Highs win when a bar is both.
func batchCandidate(bars []market.Candle, i, w int) (Kind, bool) {
	hi, lo := bars[i].High, bars[i].Low
	isHigh, isLow := true, true
	for j := i - w + 1; j <= i+w; j++ {
		if bars[j].High > hi {
			isHigh = false
		}
		if bars[j].Low < lo {
			isLow = false
		}
	}
	switch {
	case isHigh:
		return High, true
	case isLow:
		return Low, true
	}
	return 0, false
}

func moreExtreme(k Kind, candidate, current float64) bool {
	if k == High {
		return candidate > current
	}
	return candidate < current
}
