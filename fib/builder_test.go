package fib

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/fibrange/swing"
)

func pt(idx int, k swing.Kind, px float64) swing.Point {
	return swing.Point{Index: idx, Time: t0.Add(time.Duration(idx) * time.Hour), Kind: k, Price: px}
}

func TestSwingPairBuilder(t *testing.T) {
	bars := closes(100, 101, 102, 103, 104, 105, 106)
	b := SwingPairBuilder{}

	tests := []struct {
		name    string
		swings  []swing.Point
		status  Status
		wantErr error
		dir     Direction
		high    float64
		low     float64
	}{
		{name: "none", status: NotReady, wantErr: ErrNotReady},
		{name: "one", swings: []swing.Point{pt(1, swing.High, 110)}, status: NotReady, wantErr: ErrNotReady},
		{
			name:   "low then high is up",
			swings: []swing.Point{pt(1, swing.High, 120), pt(2, swing.Low, 100), pt(4, swing.High, 110)},
			status: Ready, dir: Up, high: 110, low: 100,
		},
		{
			name:   "high then low is down",
			swings: []swing.Point{pt(2, swing.High, 110), pt(5, swing.Low, 100)},
			status: Ready, dir: Down, high: 110, low: 100,
		},
		{
			name:    "two highs",
			swings:  []swing.Point{pt(2, swing.High, 110), pt(5, swing.High, 112)},
			status:  InvalidSequence,
			wantErr: ErrInvalidSequence,
		},
		{
			name:    "low above high",
			swings:  []swing.Point{pt(2, swing.Low, 111), pt(5, swing.High, 110)},
			status:  InvalidSequence,
			wantErr: ErrDegenerateRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := b.Build(tt.swings, bars)
			require.Equal(t, tt.status, res.Status, "err=%v", res.Err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, res.Err, tt.wantErr)
				assert.False(t, res.Ok())
				return
			}
			require.NoError(t, res.Err)
			assert.True(t, res.Ok())

			r := res.Range
			last := tt.swings[len(tt.swings)-1]
			assert.Equal(t, tt.dir, r.Direction)
			assert.Equal(t, tt.high, r.High)
			assert.Equal(t, tt.low, r.Low)
			assert.Equal(t, Idle, r.State)
			assert.Equal(t, last.Index, r.GeneratedIdx)
			assert.Equal(t, last.Time, r.GeneratedAt)
			assert.Equal(t, len(bars)-1, r.UpdatedIdx)
			assert.Equal(t, bars[len(bars)-1].Time, r.UpdatedAt)
			assert.Equal(t, ComputeLevels(tt.high, tt.low), r.Levels)
		})
	}
}

func TestExtremaBuilder(t *testing.T) {
	b := ExtremaBuilder{Window: 2}

	t.Run("not enough bars", func(t *testing.T) {
		res := b.Build(nil, closes(100, 101, 102, 103))
		assert.Equal(t, NotReady, res.Status)
		assert.ErrorIs(t, res.Err, ErrNotReady)
	})

	t.Run("low then high is up", func(t *testing.T) {
		//                  0    1    2   3    4    5    6    7    8
		bars := closes(103, 102, 100, 101, 104, 108, 106, 105, 104)
		res := b.Build(nil, bars)
		require.True(t, res.Ok(), "%v", res.Err)

		r := res.Range
		assert.Equal(t, Up, r.Direction)
		assert.Equal(t, 108.5, r.High)
		assert.Equal(t, 99.5, r.Low)
		assert.Equal(t, 5, r.HighIdx)
		assert.Equal(t, 2, r.LowIdx)
		assert.Equal(t, 5, r.GeneratedIdx)
		assert.Equal(t, 8, r.UpdatedIdx)
	})

	t.Run("high then low is down", func(t *testing.T) {
		bars := closes(104, 106, 108, 105, 103, 100, 101, 102, 103)
		res := b.Build(nil, bars)
		require.True(t, res.Ok(), "%v", res.Err)

		r := res.Range
		assert.Equal(t, Down, r.Direction)
		assert.Equal(t, 108.5, r.High)
		assert.Equal(t, 99.5, r.Low)
		assert.Equal(t, 2, r.HighIdx)
		assert.Equal(t, 5, r.LowIdx)
		assert.Equal(t, 5, r.GeneratedIdx)
	})

	t.Run("same bar", func(t *testing.T) {
		// Flat bars: every bar is both extremum.
		res := b.Build(nil, closes(100, 100, 100, 100, 100))
		assert.Equal(t, InvalidSequence, res.Status)
		assert.ErrorIs(t, res.Err, ErrInvalidSequence)
	})

	t.Run("bad window panics", func(t *testing.T) {
		assert.Panics(t, func() { ExtremaBuilder{}.Build(nil, closes(100)) })
	})

	assert.Equal(t, "extrema(2)", b.Name())
	assert.Equal(t, "swing-pair", SwingPairBuilder{}.Name())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "not ready", NotReady.String())
	assert.Equal(t, "invalid sequence", InvalidSequence.String())
}
