package swing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBatch_Alternates(t *testing.T) {
	//                 0    1    2    3    4    5    6    7    8    9   10
	bars := fromCloses(100, 103, 106, 104, 101, 98, 102, 105, 109, 107, 104)

	s := DetectBatch(bars, BatchConfig{Window: 2})
	pts := s.Points()

	assert.Equal(t, []Kind{High, Low, High}, kinds(pts))
	assert.Equal(t, []int{2, 5, 8}, indexes(pts))
	assert.Equal(t, 107.0, pts[0].Price, "high level is bar high")
	assert.Equal(t, 97.0, pts[1].Price, "low level is bar low")
	assert.Equal(t, bars[5].Time, pts[1].Time)
}

func TestDetectBatch_PrunesSameKindRuns(t *testing.T) {
	t.Run("later higher high replaces earlier", func(t *testing.T) {
		// Bars 1 and 4 are both high candidates with no low between them.
		bars := fromCloses(100, 104, 103, 102, 106, 101, 100)
		s := DetectBatch(bars, BatchConfig{Window: 2})

		pts := s.Points()
		require.Len(t, pts, 1)
		assert.Equal(t, 4, pts[0].Index)
		assert.Equal(t, High, pts[0].Kind)
		assert.Zero(t, s.HighLow[1])
		assert.Zero(t, s.Level[1])
	})

	t.Run("later lower high is dropped", func(t *testing.T) {
		bars := fromCloses(100, 104, 102, 103, 101, 99, 100)
		s := DetectBatch(bars, BatchConfig{Window: 2})

		pts := s.Points()
		require.Len(t, pts, 1)
		assert.Equal(t, 1, pts[0].Index)
	})
}

func TestDetectBatch_TiesKeepFirst(t *testing.T) {
	bars := fromCloses(100, 105, 103, 105, 101, 100)
	s := DetectBatch(bars, BatchConfig{Window: 2})

	pts := s.Points()
	require.Len(t, pts, 1)
	assert.Equal(t, 1, pts[0].Index)
	assert.Equal(t, High, pts[0].Kind)
}

func TestDetectBatch_NeedsFutureBars(t *testing.T) {
	// The last bar is the highest but has no future window.
	bars := fromCloses(100, 101, 102, 103, 104)
	s := DetectBatch(bars, BatchConfig{Window: 2})
	assert.Empty(t, s.Points())
}

func TestDetectBatch_BoundaryAnchors(t *testing.T) {
	bars := fromCloses(100, 103, 106, 104, 101, 98, 102, 105, 109, 107, 104)

	s := DetectBatch(bars, BatchConfig{Window: 2, BoundaryAnchors: true})
	pts := s.Points()

	assert.Equal(t, []Kind{Low, High, Low, High, Low}, kinds(pts))
	assert.Equal(t, []int{0, 2, 5, 8, 10}, indexes(pts))
	assert.Equal(t, bars[0].Low, pts[0].Price)
	assert.Equal(t, bars[10].Low, pts[4].Price)
}

func TestDetectBatch_BoundaryAnchorsKeepDetectedSwings(t *testing.T) {
	bars := fromCloses(100, 103, 106, 104, 101, 98, 102, 105, 109, 107, 104)

	plain := DetectBatch(bars, BatchConfig{Window: 2})
	anchored := DetectBatch(bars, BatchConfig{Window: 2, BoundaryAnchors: true})

	for _, p := range plain.Points() {
		assert.Equal(t, plain.HighLow[p.Index], anchored.HighLow[p.Index], "bar %d", p.Index)
		assert.Equal(t, plain.Level[p.Index], anchored.Level[p.Index], "bar %d", p.Index)
	}

	pts := anchored.Points()
	for i := 1; i < len(pts); i++ {
		assert.NotEqual(t, pts[i-1].Kind, pts[i].Kind, "swings %d and %d", pts[i-1].Index, pts[i].Index)
	}
}

func TestDetectBatch_InvalidWindowPanics(t *testing.T) {
	assert.Panics(t, func() { DetectBatch(nil, BatchConfig{}) })
}
