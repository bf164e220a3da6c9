package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryFillsInOrder(t *testing.T) {
	h := NewHistory(5)
	for i := 0; i < 3; i++ {
		h.Push(Point{Offset: float64(i), MAP: float64(i * 10)})
	}
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 5, h.Cap())

	pts := h.Points()
	require.Len(t, pts, 3)
	for i, p := range pts {
		assert.Equal(t, float64(i), p.Offset)
	}
}

func TestHistoryEvictsOldest(t *testing.T) {
	const capacity = 5
	h := NewHistory(capacity)

	// capacity + k appends leave exactly the last `capacity` points.
	for i := 0; i < capacity+7; i++ {
		h.Push(Point{Offset: float64(i)})
	}
	assert.Equal(t, capacity, h.Len())

	pts := h.Points()
	require.Len(t, pts, capacity)
	for i, p := range pts {
		assert.Equal(t, float64(7+i), p.Offset)
	}
}

func TestHistoryNeverExceedsCapacity(t *testing.T) {
	h := NewHistory(100)
	for i := 0; i < 1000; i++ {
		h.Push(Point{Offset: float64(i)})
		assert.LessOrEqual(t, h.Len(), 100)
	}
}

func TestHistoryPointsReturnsCopy(t *testing.T) {
	h := NewHistory(3)
	h.Push(Point{Offset: 1})
	pts := h.Points()
	pts[0].Offset = 99
	assert.Equal(t, 1.0, h.Points()[0].Offset)
}

func TestHistoryDefaultCapacity(t *testing.T) {
	h := NewHistory(0)
	assert.Equal(t, defaultHistorySize, h.Cap())
}
