package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(t time.Time, o, h, l, c float64) Candle {
	return Candle{Time: t, Open: o, High: h, Low: l, Close: c}
}

func TestValidateSeries(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		bars    []Candle
		wantErr error
	}{
		{"empty", nil, nil},
		{"ok with gap", []Candle{
			bar(t0, 1, 2, 0.5, 1.5),
			bar(t0.Add(3*time.Hour), 1.5, 2, 1, 1.2),
		}, nil},
		{"duplicate time", []Candle{
			bar(t0, 1, 2, 0.5, 1.5),
			bar(t0, 1.5, 2, 1, 1.2),
		}, ErrNotIncreasing},
		{"high below close", []Candle{
			bar(t0, 1, 1.2, 0.5, 1.5),
		}, ErrBadOHLC},
		{"low above open", []Candle{
			bar(t0, 1, 2, 1.1, 1.5),
		}, ErrBadOHLC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeries(tt.bars)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCandleRangeAndCloses(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := []Candle{bar(t0, 1, 2, 0.5, 1.5), bar(t0.Add(time.Minute), 1.5, 3, 1, 2.5)}

	assert.Equal(t, 1.5, bars[0].Range())
	assert.Equal(t, []float64{1.5, 2.5}, Closes(bars))
}
