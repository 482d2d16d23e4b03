package swing

import (
	"testing"
	"time"

	"github.com/rustyeddy/fibrange/market"
)

var t0 = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

// fromCloses builds bars whose high and low sit one unit around the close.
func fromCloses(closes ...float64) []market.Candle {
	bars := make([]market.Candle, len(closes))
	for i, cl := range closes {
		bars[i] = market.Candle{
			Time:  t0.Add(time.Duration(i) * time.Minute),
			Open:  cl,
			High:  cl + 1,
			Low:   cl - 1,
			Close: cl,
		}
	}
	return bars
}

func kinds(pts []Point) []Kind {
	out := make([]Kind, len(pts))
	for i, p := range pts {
		out[i] = p.Kind
	}
	return out
}

func indexes(pts []Point) []int {
	out := make([]int, len(pts))
	for i, p := range pts {
		out[i] = p.Index
	}
	return out
}

func TestKind(t *testing.T) {
	if High.Opposite() != Low || Low.Opposite() != High {
		t.Fatal("Opposite")
	}
	if High.String() != "high" || Low.String() != "low" || Kind(0).String() != "none" {
		t.Fatal("String")
	}
}
