package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// CandleFeed yields candles one at a time. Implementations should be
// deterministic and return (ok=false, err=nil) at EOF.
type CandleFeed interface {
	Next() (c Candle, ok bool, err error)
	Close() error
}

// CSVCandleFeed reads candle CSV rows:
//
//	time,open,high,low,close[,volume]
//
// where time is RFC3339, RFC3339Nano or unix seconds.
//
// It optionally filters candles to [From, To) if provided.
// A header row ("time,...") is allowed. Empty rows are skipped.
type CSVCandleFeed struct {
	rc   io.Closer
	r    *csv.Reader
	from time.Time
	to   time.Time

	line     int
	sawFirst bool
}

func NewCSVCandleFeed(path string, from, to time.Time) (*CSVCandleFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	feed := NewCSVCandleReader(f, from, to)
	feed.rc = f
	return feed, nil
}

// NewCSVCandleReader wraps an already open reader. Close is a no-op.
func NewCSVCandleReader(r io.Reader, from, to time.Time) *CSVCandleFeed {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &CSVCandleFeed{r: cr, from: from, to: to}
}

func (f *CSVCandleFeed) Close() error {
	if f.rc != nil {
		return f.rc.Close()
	}
	return nil
}

func (f *CSVCandleFeed) Next() (Candle, bool, error) {
	for {
		row, err := f.r.Read()
		if err == io.EOF {
			return Candle{}, false, nil
		}
		if err != nil {
			return Candle{}, false, err
		}
		f.line++
		if len(row) == 0 {
			continue
		}

		// Allow a single header row
		if !f.sawFirst {
			f.sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "time") {
				continue
			}
		}

		c, ok, err := parseCandleRow(row)
		if err != nil {
			return Candle{}, false, fmt.Errorf("line %d: %w", f.line, err)
		}
		if !ok {
			continue
		}
		if !inRange(c.Time, f.from, f.to) {
			continue
		}
		return c, true, nil
	}
}

// LoadCandlesCSV reads every candle in path that falls in [from, to) and
// validates the resulting series.
func LoadCandlesCSV(path string, from, to time.Time) ([]Candle, error) {
	feed, err := NewCSVCandleFeed(path, from, to)
	if err != nil {
		return nil, err
	}
	defer feed.Close()
	return ReadAll(feed)
}

// ReadAll drains feed and validates the series.
func ReadAll(feed CandleFeed) ([]Candle, error) {
	var out []Candle
	for {
		c, ok, err := feed.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		out = append(out, c)
	}
	if err := ValidateSeries(out); err != nil {
		return nil, err
	}
	return out, nil
}

func parseCandleRow(row []string) (Candle, bool, error) {
	// Need at least: time,open,high,low,close
	if len(row) < 5 {
		return Candle{}, false, nil
	}

	ts := strings.TrimSpace(row[0])
	if ts == "" {
		return Candle{}, false, nil
	}
	t, err := parseTime(ts)
	if err != nil {
		return Candle{}, false, err
	}

	var px [4]float64
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad price %q: %w", row[i+1], err)
		}
		px[i] = v
	}

	c := Candle{Time: t, Open: px[0], High: px[1], Low: px[2], Close: px[3]}
	if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return Candle{}, false, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
		c.Volume = v
	}
	return c, true, nil
}

// parseTime accepts RFC3339, RFC3339Nano or unix seconds.
func parseTime(ts string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t.UTC(), nil
	}
	if sec, err := strconv.ParseInt(ts, 10, 64); err == nil {
		return time.Unix(sec, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("bad time %q", ts)
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && !t.Before(to) {
		return false
	}
	return true
}
