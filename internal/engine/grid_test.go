package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGridShape(t *testing.T) {
	grid := NewGrid()

	assert.Equal(t, 30, grid.SlotCount())
	assert.Equal(t, 6, grid.SlotsPerDay())
	assert.Len(t, grid.Slots(), 30)

	for day := 0; day < 5; day++ {
		for interval := 0; interval < 6; interval++ {
			index := grid.Index(day, interval)
			assert.Equal(t, day*6+interval, index)
			assert.Equal(t, day, grid.DayOf(index))
		}
	}
}

func TestGridSlotsOf(t *testing.T) {
	grid := NewGrid()

	wednesday := grid.SlotsOf(2)
	assert.Len(t, wednesday, 6)
	for i, slot := range wednesday {
		assert.Equal(t, "Wednesday", slot.Day)
		assert.Equal(t, StartTimes[i], slot.StartTime)
		assert.Equal(t, EndTimes[i], slot.EndTime)
	}
}

func TestGridLookup(t *testing.T) {
	grid := NewGrid()

	index, ok := grid.Lookup("Monday", "08:30")
	assert.True(t, ok)
	assert.Equal(t, 0, index)

	index, ok = grid.Lookup("Friday", "16:00")
	assert.True(t, ok)
	assert.Equal(t, 29, index)

	_, ok = grid.Lookup("Sunday", "08:30")
	assert.False(t, ok)
	_, ok = grid.Lookup("Monday", "09:00")
	assert.False(t, ok)
}

func TestGridSameDay(t *testing.T) {
	grid := NewGrid()

	assert.True(t, grid.SameDay(0, 5))
	assert.False(t, grid.SameDay(5, 6))
	assert.True(t, grid.SameDay(24, 29))
}
