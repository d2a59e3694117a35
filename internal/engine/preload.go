package engine

import (
	"go.uber.org/zap"

	"timetable-engine/pkg/model"
)

type slotSet map[int]struct{}

// BusySets holds the slots made unavailable by timetables committed
// outside this request. Built once per request, read-only afterwards.
type BusySets struct {
	faculty map[string]slotSet
	rooms   map[string]slotSet
}

// PreloadBusy converts existing timetables into per-faculty and per-room
// busy-slot sets. Entries whose day or start time does not match the fixed
// grid are dropped, not fatal.
func PreloadBusy(grid *Grid, existing []model.ExistingTimetable, logger *zap.Logger) *BusySets {
	busy := &BusySets{
		faculty: make(map[string]slotSet),
		rooms:   make(map[string]slotSet),
	}
	dropped := 0
	for _, timetable := range existing {
		for _, entry := range timetable.Entries {
			slot, ok := grid.Lookup(entry.TimeSlot.Day, entry.TimeSlot.StartTime)
			if !ok {
				dropped++
				continue
			}
			if entry.FacultyID != "" {
				mark(busy.faculty, entry.FacultyID, slot)
			}
			if entry.RoomID != "" {
				mark(busy.rooms, entry.RoomID, slot)
			}
		}
	}
	logger.Info("preloaded busy slots from existing timetables",
		zap.Int("timetables", len(existing)),
		zap.Int("busyFaculty", len(busy.faculty)),
		zap.Int("busyRooms", len(busy.rooms)),
		zap.Int("droppedEntries", dropped))
	return busy
}

func mark(sets map[string]slotSet, id string, slot int) {
	set, ok := sets[id]
	if !ok {
		set = make(slotSet)
		sets[id] = set
	}
	set[slot] = struct{}{}
}

func (b *BusySets) FacultyBusy(facultyID string, slot int) bool {
	_, ok := b.faculty[facultyID][slot]
	return ok
}

func (b *BusySets) RoomBusy(roomID string, slot int) bool {
	_, ok := b.rooms[roomID][slot]
	return ok
}
