package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"timetable-engine/pkg/model"
)

func TestPreloadBusy(t *testing.T) {
	grid := NewGrid()
	existing := []model.ExistingTimetable{
		{ID: "tt1", Entries: []model.ExistingEntry{
			{FacultyID: "f1", RoomID: "r1", TimeSlot: model.TimeSlotRef{Day: "Monday", StartTime: "08:30"}},
			{FacultyID: "f1", TimeSlot: model.TimeSlotRef{Day: "Tuesday", StartTime: "10:00"}},
			{RoomID: "r2", TimeSlot: model.TimeSlotRef{Day: "Friday", StartTime: "16:00"}},
		}},
	}

	busy := PreloadBusy(grid, existing, zap.NewNop())

	assert.True(t, busy.FacultyBusy("f1", 0))
	assert.True(t, busy.FacultyBusy("f1", 7))
	assert.False(t, busy.FacultyBusy("f1", 1))
	assert.True(t, busy.RoomBusy("r1", 0))
	assert.True(t, busy.RoomBusy("r2", 29))
	assert.False(t, busy.RoomBusy("r2", 28))
	assert.False(t, busy.FacultyBusy("unknown", 0))
}

func TestPreloadBusyDropsUnmappableEntries(t *testing.T) {
	grid := NewGrid()
	existing := []model.ExistingTimetable{
		{Entries: []model.ExistingEntry{
			{FacultyID: "f1", TimeSlot: model.TimeSlotRef{Day: "Saturday", StartTime: "08:30"}},
			{FacultyID: "f1", TimeSlot: model.TimeSlotRef{Day: "Monday", StartTime: "09:15"}},
		}},
	}

	busy := PreloadBusy(grid, existing, zap.NewNop())

	for slot := 0; slot < grid.SlotCount(); slot++ {
		assert.False(t, busy.FacultyBusy("f1", slot))
	}
}
