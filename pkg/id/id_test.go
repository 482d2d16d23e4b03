package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUniqueAndSorted(t *testing.T) {
	prev := New()
	for i := 0; i < 1000; i++ {
		next := New()
		require.Len(t, next, 26)
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestAtEncodesTime(t *testing.T) {
	ts := time.Date(2024, 3, 29, 12, 0, 0, 0, time.UTC)
	s := At(ts)

	got, err := Time(s)
	require.NoError(t, err)
	assert.True(t, got.Equal(ts), "got %s", got)
}

func TestAtSameMillisecondIncreases(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := At(ts)
	b := At(ts)
	assert.Greater(t, b, a)
}

func TestTimeRejectsGarbage(t *testing.T) {
	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
