package engine

import "timetable-engine/pkg/model"

// The institutional week: 5 days of 6 fixed ninety-minute intervals, 30
// global slots addressed as day*SlotsPerDay+interval.
var (
	Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

	StartTimes = []string{"08:30", "10:00", "11:30", "13:00", "14:30", "16:00"}
	EndTimes   = []string{"10:00", "11:30", "13:00", "14:30", "16:00", "17:30"}
)

type TimeSlot struct {
	Index     int
	Day       string
	StartTime string
	EndTime   string
}

// Grid is the fixed weekly slot calendar. It is computed once per request
// and shared read-only by both solvers.
type Grid struct {
	slots []TimeSlot
}

func NewGrid() *Grid {
	slots := make([]TimeSlot, 0, len(Days)*len(StartTimes))
	for d, day := range Days {
		for i := range StartTimes {
			slots = append(slots, TimeSlot{
				Index:     d*len(StartTimes) + i,
				Day:       day,
				StartTime: StartTimes[i],
				EndTime:   EndTimes[i],
			})
		}
	}
	return &Grid{slots: slots}
}

func (g *Grid) Slots() []TimeSlot { return g.slots }

func (g *Grid) SlotCount() int { return len(g.slots) }

func (g *Grid) SlotsPerDay() int { return len(StartTimes) }

// Index returns the global slot index of an (day, interval) pair.
func (g *Grid) Index(day, interval int) int {
	return day*g.SlotsPerDay() + interval
}

// DayOf returns the day index a global slot falls on.
func (g *Grid) DayOf(slot int) int {
	return slot / g.SlotsPerDay()
}

// SlotsOf returns the six slots of one day.
func (g *Grid) SlotsOf(day int) []TimeSlot {
	start := day * g.SlotsPerDay()
	return g.slots[start : start+g.SlotsPerDay()]
}

// SameDay reports whether two global slots fall on the same day.
func (g *Grid) SameDay(a, b int) bool {
	return g.DayOf(a) == g.DayOf(b)
}

// Lookup maps a (day name, start time) pair to its global slot index. It
// returns false for values that do not belong to the fixed grid.
func (g *Grid) Lookup(day, startTime string) (int, bool) {
	dayIdx := -1
	for d, name := range Days {
		if name == day {
			dayIdx = d
			break
		}
	}
	if dayIdx < 0 {
		return 0, false
	}
	for i, start := range StartTimes {
		if start == startTime {
			return g.Index(dayIdx, i), true
		}
	}
	return 0, false
}

// Ref returns the wire representation of a slot.
func (g *Grid) Ref(slot int) model.TimeSlotRef {
	s := g.slots[slot]
	return model.TimeSlotRef{Day: s.Day, StartTime: s.StartTime, EndTime: s.EndTime}
}
