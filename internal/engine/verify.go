package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"timetable-engine/pkg/model"
)

// Verify re-checks a produced timetable against every hard rule: room,
// faculty and section exclusivity, lab contiguity, daily caps, the
// mandatory break, the weekly lab cap, and the preloaded busy sets.
// Returns false with a diagnostic message for invalid timetables.
func Verify(req *model.GenerateRequest, result *model.GenerateResult) (bool, string) {
	grid := NewGrid()
	busy := PreloadBusy(grid, req.ExistingTimetables, zap.NewNop())

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	roomSeen := make(map[string]slotSet)
	facultySeen := make(map[string]slotSet)
	classSeen := make(map[string]slotSet)
	bySession := make(map[string][]int)

	for _, entry := range result.Timetable {
		slot, ok := grid.Lookup(entry.TimeSlot.Day, entry.TimeSlot.StartTime)
		if !ok {
			report("entry %s has a slot outside the fixed grid (%s %s)",
				entry.ID, entry.TimeSlot.Day, entry.TimeSlot.StartTime)
			continue
		}

		if _, taken := roomSeen[entry.RoomID][slot]; taken {
			report("room %s double-booked at slot %d", entry.RoomID, slot)
		}
		mark(roomSeen, entry.RoomID, slot)
		if _, taken := facultySeen[entry.FacultyID][slot]; taken {
			report("faculty %s double-booked at slot %d", entry.FacultyID, slot)
		}
		mark(facultySeen, entry.FacultyID, slot)
		if _, taken := classSeen[entry.ClassID][slot]; taken {
			report("class %s double-booked at slot %d", entry.ClassID, slot)
		}
		mark(classSeen, entry.ClassID, slot)

		if busy.RoomBusy(entry.RoomID, slot) {
			report("room %s placed on a preloaded busy slot %d", entry.RoomID, slot)
		}
		if busy.FacultyBusy(entry.FacultyID, slot) {
			report("faculty %s placed on a preloaded busy slot %d", entry.FacultyID, slot)
		}

		base := entry.ID
		if i := strings.LastIndex(base, "-"); i >= 0 {
			base = base[:i]
		}
		bySession[base] = append(bySession[base], slot)
	}

	// Multi-slot sessions must be contiguous and stay within one day.
	labsPerClass := make(map[string]int)
	classOfSession := make(map[string]string)
	for _, entry := range result.Timetable {
		base := entry.ID
		if i := strings.LastIndex(base, "-"); i >= 0 {
			base = base[:i]
		}
		classOfSession[base] = entry.ClassID
	}
	for session, slots := range bySession {
		if len(slots) < 2 {
			continue
		}
		labsPerClass[classOfSession[session]]++
		if len(slots) != 2 {
			report("session %s spans %d slots", session, len(slots))
			continue
		}
		lo, hi := slots[0], slots[1]
		if lo > hi {
			lo, hi = hi, lo
		}
		if hi != lo+1 || !grid.SameDay(lo, hi) {
			report("lab session %s is not on two contiguous same-day slots", session)
		}
	}
	for classID, labs := range labsPerClass {
		if labs > 2 {
			report("class %s has %d lab sessions in one week", classID, labs)
		}
	}

	// Daily load per section: at most 3 occupied slots, never 3 in a row.
	for classID, slots := range classSeen {
		perDay := make(map[int][]bool)
		for slot := range slots {
			day := grid.DayOf(slot)
			if perDay[day] == nil {
				perDay[day] = make([]bool, grid.SlotsPerDay())
			}
			perDay[day][slot%grid.SlotsPerDay()] = true
		}
		for day, occupied := range perDay {
			count := 0
			for _, taken := range occupied {
				if taken {
					count++
				}
			}
			if count > 3 {
				report("class %s has %d occupied slots on %s", classID, count, Days[day])
			}
			for i := 0; i+2 < len(occupied); i++ {
				if occupied[i] && occupied[i+1] && occupied[i+2] {
					report("class %s has 3 consecutive occupied slots on %s", classID, Days[day])
				}
			}
		}
	}

	if len(problems) > 0 {
		return false, strings.Join(problems, "\n")
	}
	return true, ""
}
